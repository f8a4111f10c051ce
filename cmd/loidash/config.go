package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends accepted by --storage.
const (
	backendMemory = "memory"
	backendFile   = "file"
	backendSQLite = "sqlite"
	backendRedis  = "redis"
	backendMongo  = "mongo"
)

// Metric sources accepted by --metrics-source.
const (
	sourceMock = "mock"
	sourceHTTP = "http"
)

// fileConfig is the optional TOML configuration file.
type fileConfig struct {
	Addr       string   `toml:"addr"`
	BasePath   string   `toml:"base_path"`
	Transport  string   `toml:"transport"`
	LogLevel   string   `toml:"log_level"`
	Production bool     `toml:"production"`
	Seed       *bool    `toml:"seed"`
	ChartsCDN  string   `toml:"charts_cdn"`
	Manifests  []string `toml:"manifests"`

	Storage struct {
		Backend    string `toml:"backend"`
		Key        string `toml:"key"`
		Path       string `toml:"path"`
		URL        string `toml:"url"`
		Database   string `toml:"database"`
		Collection string `toml:"collection"`
		TTL        string `toml:"ttl"`
	} `toml:"storage"`

	Metrics struct {
		Source   string `toml:"source"`
		BaseURL  string `toml:"base_url"`
		APIKey   string `toml:"api_key"`
		Schedule string `toml:"schedule"`
		Period   string `toml:"period"`
	} `toml:"metrics"`

	Activity struct {
		Enabled bool   `toml:"enabled"`
		Channel string `toml:"channel"`
	} `toml:"activity"`
}

// loadFileConfig decodes path. An empty path or a missing file yields an
// empty config.
func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("loidash: decode config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("loidash: unknown config keys in %s: %v", path, undecoded)
	}
	return cfg, nil
}

// storageSettings selects and configures the persistence backend.
type storageSettings struct {
	Backend    string
	Key        string
	Path       string
	URL        string
	Database   string
	Collection string
	TTL        time.Duration
}

// metricsSettings selects the metric source feeding the poller.
type metricsSettings struct {
	Source   string
	BaseURL  string
	APIKey   string
	Schedule string
	Period   string
}

// settings is the resolved runtime configuration.
type settings struct {
	Addr       string
	BasePath   string
	Transport  string
	LogLevel   string
	Production bool
	Seed       bool
	ChartsCDN  string
	Manifests  []string

	Storage  storageSettings
	Metrics  metricsSettings
	Activity struct {
		Enabled bool
		Channel string
	}
}

// pick returns the first non-blank value.
func pick(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// resolve merges flag/env values over the file config over defaults.
func resolve(flags globalFlags, srv serveFlags, file fileConfig) (settings, error) {
	var s settings
	s.Addr = pick(srv.Addr, file.Addr, ":8080")
	s.BasePath = pick(srv.BasePath, file.BasePath, "/loi")
	s.Transport = pick(srv.Transport, file.Transport, "fiber")
	s.LogLevel = pick(flags.LogLevel, file.LogLevel, "info")
	s.Production = flags.Production || file.Production
	s.ChartsCDN = pick(srv.ChartsCDN, file.ChartsCDN)
	s.Manifests = srv.Manifests
	if len(s.Manifests) == 0 {
		s.Manifests = file.Manifests
	}
	s.Seed = true
	switch {
	case srv.NoSeed:
		s.Seed = false
	case file.Seed != nil:
		s.Seed = *file.Seed
	}

	s.Storage.Backend = strings.ToLower(pick(flags.Storage, file.Storage.Backend, backendFile))
	s.Storage.Key = pick(flags.StorageKey, file.Storage.Key)
	s.Storage.URL = pick(flags.StorageURL, file.Storage.URL)
	s.Storage.Database = pick(flags.StorageDatabase, file.Storage.Database, "loi")
	s.Storage.Collection = pick(flags.StorageCollection, file.Storage.Collection)
	defaultPath := "data"
	if s.Storage.Backend == backendSQLite {
		defaultPath = "loi-dashboard.db"
	}
	s.Storage.Path = pick(flags.StoragePath, file.Storage.Path, defaultPath)
	if ttl := pick(flags.StorageTTL, file.Storage.TTL); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return s, fmt.Errorf("loidash: storage ttl %q: %w", ttl, err)
		}
		s.Storage.TTL = d
	}

	s.Metrics.Source = strings.ToLower(pick(srv.MetricsSource, file.Metrics.Source, sourceMock))
	s.Metrics.BaseURL = pick(srv.MetricsURL, file.Metrics.BaseURL)
	s.Metrics.APIKey = pick(srv.MetricsKey, file.Metrics.APIKey)
	s.Metrics.Schedule = pick(srv.Schedule, file.Metrics.Schedule)
	s.Metrics.Period = pick(srv.Period, file.Metrics.Period)

	s.Activity.Enabled = srv.Activity || file.Activity.Enabled
	s.Activity.Channel = file.Activity.Channel

	switch s.Storage.Backend {
	case backendMemory, backendFile, backendSQLite:
	case backendRedis, backendMongo:
		if s.Storage.URL == "" {
			return s, fmt.Errorf("loidash: storage backend %s requires --storage-url", s.Storage.Backend)
		}
	default:
		return s, fmt.Errorf("loidash: unknown storage backend %q", s.Storage.Backend)
	}
	switch s.Metrics.Source {
	case sourceMock:
	case sourceHTTP:
		if s.Metrics.BaseURL == "" {
			return s, errors.New("loidash: metrics source http requires --metrics-url")
		}
	default:
		return s, fmt.Errorf("loidash: unknown metrics source %q", s.Metrics.Source)
	}
	return s, nil
}
