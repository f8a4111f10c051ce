package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	core "github.com/goliatone/go-loi-dashboard/components/dashboard"
	"github.com/goliatone/go-loi-dashboard/pkg/activity"
	"github.com/goliatone/go-loi-dashboard/pkg/activity/usersink"
	dashboardpkg "github.com/goliatone/go-loi-dashboard/pkg/dashboard"
	"github.com/goliatone/go-loi-dashboard/pkg/metrics"
	"github.com/goliatone/go-loi-dashboard/pkg/storage/mongo"
	"github.com/goliatone/go-loi-dashboard/pkg/storage/redis"
	"github.com/goliatone/go-loi-dashboard/pkg/storage/sqlite"
)

// openPersister builds the configured backend. The returned closer releases
// its connection and is never nil.
func openPersister(ctx context.Context, s storageSettings) (core.Persister, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch s.Backend {
	case backendMemory:
		return core.NewMemoryPersister(), noop, nil
	case backendFile:
		return core.NewFilePersister(filepath.Clean(s.Path)), noop, nil
	case backendSQLite:
		p, err := sqlite.Open(ctx, s.Path)
		if err != nil {
			return nil, noop, err
		}
		return p, func(context.Context) error { return p.Close() }, nil
	case backendRedis:
		client, err := redis.Connect(ctx, s.URL)
		if err != nil {
			return nil, noop, err
		}
		p, err := redis.New(client, redis.Options{TTL: s.TTL})
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return p, func(context.Context) error { return client.Close() }, nil
	case backendMongo:
		client, err := mongo.Connect(ctx, s.URL)
		if err != nil {
			return nil, noop, err
		}
		p, err := mongo.New(client, s.Database, s.Collection)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, noop, err
		}
		return p, client.Disconnect, nil
	default:
		return nil, noop, fmt.Errorf("loidash: unknown storage backend %q", s.Backend)
	}
}

// metricSource returns the poller source and, for the live API, the remote
// dashboards collaborator.
func metricSource(s metricsSettings) (metrics.Source, core.RemoteDashboards, string, error) {
	switch s.Source {
	case sourceHTTP:
		client, err := metrics.NewHTTPClient(metrics.HTTPConfig{BaseURL: s.BaseURL, APIKey: s.APIKey})
		if err != nil {
			return nil, nil, "", err
		}
		return client, client, "api", nil
	default:
		return metrics.NewMockClient(), nil, metrics.MockSourceName, nil
	}
}

// activityHooks logs activity through zap and the go-users record mapping.
func activityHooks(log *zap.Logger) activity.Hooks {
	return activity.Hooks{
		usersink.Hook{Sink: logSink{log: log}},
	}
}

// buildDashboard opens storage and assembles the dashboard facade.
func buildDashboard(ctx context.Context, s settings, log *zap.Logger) (*dashboardpkg.Dashboard, func(context.Context) error, error) {
	persister, closeStore, err := openPersister(ctx, s.Storage)
	if err != nil {
		return nil, nil, err
	}
	source, remote, sourceName, err := metricSource(s.Metrics)
	if err != nil {
		_ = closeStore(ctx)
		return nil, nil, err
	}
	opts := dashboardpkg.Options{
		Persister:       persister,
		StorageKey:      s.Storage.Key,
		Remote:          remote,
		Manifests:       s.Manifests,
		ChartAssetsHost: s.ChartsCDN,
		Seed:            s.Seed,
		Metrics:         source,
		MetricsName:     sourceName,
		PollSchedule:    s.Metrics.Schedule,
		ComparePeriod:   s.Metrics.Period,
		Logger:          log,
	}
	if s.Activity.Enabled {
		opts.Activity = activityHooks(log)
		opts.ActivityConfig = activity.Config{Enabled: true, Channel: s.Activity.Channel}
	}
	d, err := dashboardpkg.New(ctx, opts)
	if err != nil {
		_ = closeStore(ctx)
		return nil, nil, err
	}
	return d, closeStore, nil
}
