package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-users/pkg/types"
	"go.uber.org/zap"

	dashboardpkg "github.com/goliatone/go-loi-dashboard/pkg/dashboard"
)

const shutdownTimeout = 5 * time.Second

// serveFlags configure the HTTP server.
type serveFlags struct {
	metricsFlags `embed:""`

	Addr      string   `env:"LOI_DASHBOARD_ADDR" help:"Listen address."`
	BasePath  string   `env:"LOI_DASHBOARD_BASE_PATH" help:"Route prefix."`
	Transport string   `env:"LOI_DASHBOARD_TRANSPORT" help:"HTTP stack (fiber, nethttp)."`
	ChartsCDN string   `name:"charts-cdn" env:"LOI_DASHBOARD_ECHARTS_CDN" help:"Host the ECharts runtime is loaded from."`
	Manifests []string `name:"manifest" help:"Widget manifest to register (repeatable)."`
	NoSeed    bool     `help:"Do not place starter widgets on an empty dashboard."`
	Activity  bool     `env:"LOI_DASHBOARD_ACTIVITY" help:"Log dashboard activity records."`
}

type serveCmd struct {
	serveFlags `embed:""`
}

func (c *serveCmd) Run(ctx context.Context, g *globalFlags) error {
	file, err := loadFileConfig(g.Config)
	if err != nil {
		return err
	}
	s, err := resolve(*g, c.serveFlags, file)
	if err != nil {
		return err
	}
	log, err := newLogger(s.LogLevel, s.Production)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	d, closeStore, err := buildDashboard(ctx, s, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Close(context.Background())

	log.Info("dashboard listening",
		zap.String("addr", s.Addr),
		zap.String("base_path", s.BasePath),
		zap.String("transport", s.Transport),
		zap.String("storage", s.Storage.Backend),
		zap.String("metrics", s.Metrics.Source),
	)
	switch s.Transport {
	case "nethttp":
		return serveNetHTTP(ctx, d, s)
	case "fiber":
		return serveFiber(ctx, d, s)
	default:
		return fmt.Errorf("loidash: unknown transport %q", s.Transport)
	}
}

func serveFiber(ctx context.Context, d *dashboardpkg.Dashboard, s settings) error {
	server := router.NewFiberAdapter()
	if err := dashboardpkg.Register(d, server.Router(), s.BasePath); err != nil {
		return fmt.Errorf("loidash: register routes: %w", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(s.Addr) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func serveNetHTTP(ctx context.Context, d *dashboardpkg.Dashboard, s settings) error {
	prefix := "/" + strings.Trim(s.BasePath, "/")
	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, d.HTTPHandler()))
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// logSink writes go-users activity records to the log.
type logSink struct {
	log *zap.Logger
}

func (s logSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.log.Info("activity",
		zap.String("verb", record.Verb),
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Stringer("actor_id", record.ActorID),
		zap.Any("data", record.Data),
		zap.Time("occurred_at", record.OccurredAt),
	)
	return nil
}
