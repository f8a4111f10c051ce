package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// globalFlags apply to every subcommand.
type globalFlags struct {
	Config     string `type:"path" default:"loidash.toml" env:"LOI_DASHBOARD_CONFIG" help:"Optional TOML config file."`
	LogLevel   string `env:"LOI_DASHBOARD_LOG_LEVEL" help:"Log level (debug, info, warn, error)."`
	Production bool   `env:"LOI_DASHBOARD_PRODUCTION" help:"JSON logs with production sampling."`

	Storage           string `env:"LOI_DASHBOARD_STORAGE" help:"Persistence backend (memory, file, sqlite, redis, mongo)."`
	StorageKey        string `env:"LOI_DASHBOARD_STORAGE_KEY" help:"Key the dashboard state is stored under."`
	StoragePath       string `env:"LOI_DASHBOARD_STORAGE_PATH" help:"Directory (file) or database file (sqlite)."`
	StorageURL        string `name:"storage-url" env:"LOI_DASHBOARD_STORAGE_URL" help:"Redis URL or MongoDB URI."`
	StorageDatabase   string `env:"LOI_DASHBOARD_STORAGE_DATABASE" help:"MongoDB database."`
	StorageCollection string `env:"LOI_DASHBOARD_STORAGE_COLLECTION" help:"MongoDB collection."`
	StorageTTL        string `name:"storage-ttl" env:"LOI_DASHBOARD_STORAGE_TTL" help:"Redis key expiry, e.g. 720h."`
}

// metricsFlags select where metric values come from.
type metricsFlags struct {
	MetricsSource string `env:"LOI_DASHBOARD_METRICS_SOURCE" help:"Metric source (mock, http)."`
	MetricsURL    string `name:"metrics-url" env:"LOI_DASHBOARD_METRICS_URL" help:"AutoCheck API base URL."`
	MetricsKey    string `env:"LOI_DASHBOARD_METRICS_KEY" help:"AutoCheck API key."`
	Schedule      string `env:"LOI_DASHBOARD_POLL_SCHEDULE" help:"Metric refresh schedule, e.g. '@every 30s'."`
	Period        string `env:"LOI_DASHBOARD_COMPARE_PERIOD" help:"Label of the comparison period."`
}

type cli struct {
	globalFlags `embed:""`

	Serve   serveCmd   `cmd:"" default:"1" help:"Serve the dashboard over HTTP."`
	Export  exportCmd  `cmd:"" help:"Export the current dashboard and metrics to an xlsx workbook."`
	Widgets widgetsCmd `cmd:"" help:"List registered widget definitions and metrics."`
}

func main() {
	loadDotEnv()
	var app cli
	ctx := kong.Parse(&app,
		kong.Name("loidash"),
		kong.Description("LOI AutoCheck dashboard server and tooling."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&app.globalFlags)
	ctx.FatalIfErrorf(err)
}

// loadDotEnv reads .env and LOI_DASHBOARD_ENV_FILE into the environment.
// Variables already set win.
func loadDotEnv() {
	files := []string{".env"}
	if extra := strings.TrimSpace(os.Getenv("LOI_DASHBOARD_ENV_FILE")); extra != "" {
		files = append(files, extra)
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			fmt.Fprintf(os.Stderr, "loidash: load %s: %v\n", file, err)
		}
	}
}

func newLogger(level string, production bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("loidash: log level: %w", err)
		}
		cfg.Level = lvl
	}
	cfg.EncoderConfig.FunctionKey = "func"
	return cfg.Build()
}
