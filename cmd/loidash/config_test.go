package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	core "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

const sampleConfig = `
addr = ":9090"
log_level = "debug"
seed = false
manifests = ["widgets.yaml"]

[storage]
backend = "sqlite"
path = "state.db"

[metrics]
source = "http"
base_url = "https://autocheck.example.com/api"
schedule = "@every 1m"

[activity]
enabled = true
channel = "loi"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loidash.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileConfigMissingFileIsEmpty(t *testing.T) {
	cfg, err := loadFileConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Addr)
}

func TestLoadFileConfigRejectsUnknownKeys(t *testing.T) {
	_, err := loadFileConfig(writeConfig(t, "adress = \":1\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adress")
}

func TestResolveDefaults(t *testing.T) {
	s, err := resolve(globalFlags{}, serveFlags{}, fileConfig{})
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, "/loi", s.BasePath)
	assert.Equal(t, "fiber", s.Transport)
	assert.Equal(t, backendFile, s.Storage.Backend)
	assert.Equal(t, "data", s.Storage.Path)
	assert.Equal(t, sourceMock, s.Metrics.Source)
	assert.True(t, s.Seed)
}

func TestResolveFileOverridesDefaults(t *testing.T) {
	file, err := loadFileConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	s, err := resolve(globalFlags{}, serveFlags{}, file)
	require.NoError(t, err)
	assert.Equal(t, ":9090", s.Addr)
	assert.Equal(t, "debug", s.LogLevel)
	assert.False(t, s.Seed)
	assert.Equal(t, []string{"widgets.yaml"}, s.Manifests)
	assert.Equal(t, backendSQLite, s.Storage.Backend)
	assert.Equal(t, "state.db", s.Storage.Path)
	assert.Equal(t, sourceHTTP, s.Metrics.Source)
	assert.Equal(t, "@every 1m", s.Metrics.Schedule)
	assert.True(t, s.Activity.Enabled)
	assert.Equal(t, "loi", s.Activity.Channel)
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	file, err := loadFileConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	s, err := resolve(
		globalFlags{Storage: "memory", LogLevel: "warn"},
		serveFlags{Addr: ":7000", metricsFlags: metricsFlags{MetricsSource: "mock"}},
		file,
	)
	require.NoError(t, err)
	assert.Equal(t, ":7000", s.Addr)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, backendMemory, s.Storage.Backend)
	assert.Equal(t, sourceMock, s.Metrics.Source)
}

func TestResolveValidatesBackends(t *testing.T) {
	_, err := resolve(globalFlags{Storage: "redis"}, serveFlags{}, fileConfig{})
	assert.Error(t, err, "redis needs a url")

	_, err = resolve(globalFlags{Storage: "cassandra"}, serveFlags{}, fileConfig{})
	assert.Error(t, err)

	_, err = resolve(globalFlags{}, serveFlags{metricsFlags: metricsFlags{MetricsSource: "http"}}, fileConfig{})
	assert.Error(t, err, "http needs a base url")

	_, err = resolve(globalFlags{StorageTTL: "soon"}, serveFlags{}, fileConfig{})
	assert.Error(t, err)

	s, err := resolve(globalFlags{Storage: "redis", StorageURL: "redis://localhost:6379/0", StorageTTL: "720h"}, serveFlags{}, fileConfig{})
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, s.Storage.TTL)
}

func TestOpenPersisterBackends(t *testing.T) {
	ctx := context.Background()
	for _, s := range []storageSettings{
		{Backend: backendMemory},
		{Backend: backendFile, Path: t.TempDir()},
		{Backend: backendSQLite, Path: ":memory:"},
	} {
		t.Run(s.Backend, func(t *testing.T) {
			p, closeStore, err := openPersister(ctx, s)
			require.NoError(t, err)
			defer func() { require.NoError(t, closeStore(ctx)) }()

			require.NoError(t, p.Save(ctx, "k", []byte(`{"v":1}`)))
			got, err := p.Load(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":1}`, string(got))
		})
	}

	_, closeStore, err := openPersister(ctx, storageSettings{Backend: "tape"})
	require.Error(t, err)
	assert.NotNil(t, closeStore)
}

func TestBuildDashboardSeedsAndPolls(t *testing.T) {
	ctx := context.Background()
	s, err := resolve(globalFlags{Storage: "memory"}, serveFlags{}, fileConfig{})
	require.NoError(t, err)

	d, closeStore, err := buildDashboard(ctx, s, zap.NewNop())
	require.NoError(t, err)
	defer closeStore(ctx)

	current, ok := d.Store.CurrentDashboard()
	require.True(t, ok)
	assert.NotEmpty(t, current.Widgets)
	require.NotNil(t, d.Poller)
	require.NoError(t, d.Poller.PollOnce(ctx))
	assert.NotEmpty(t, d.Store.MetricsData())
}

func TestRenderGalleryListsDefinitions(t *testing.T) {
	var buf bytes.Buffer
	renderGallery(&buf, core.BuildGallery(core.NewRegistry(), "", core.CategoryAll, "en"), "en")
	out := buf.String()
	assert.Contains(t, out, "metric-card")
	assert.Contains(t, out, "system-health")

	buf.Reset()
	renderMetrics(&buf, core.NewMetricCatalog(), "en")
	assert.Contains(t, buf.String(), "accuracy_rate")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("chatty", false)
	assert.Error(t, err)

	log, err := newLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, log)
}
