package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingRender(calls *int, html string) func() (string, error) {
	return func() (string, error) {
		*calls++
		return html, nil
	}
}

func TestChartCacheReusesMatchingKey(t *testing.T) {
	cache := NewChartCache(time.Minute)
	key := ChartKey{Widget: "widget-1", Chart: ChartLine, Config: "abc", Data: "2026-03-01T09:00:00Z"}
	calls := 0

	first, err := cache.GetOrRender(key, countingRender(&calls, "<div>chart</div>"))
	require.NoError(t, err)
	second, err := cache.GetOrRender(key, countingRender(&calls, "<div>other</div>"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheNewerDataReplacesSlot(t *testing.T) {
	cache := NewChartCache(time.Minute)
	key := ChartKey{Widget: "widget-1", Chart: ChartLine, Config: "abc", Data: "2026-03-01T09:00:00Z"}
	calls := 0
	_, err := cache.GetOrRender(key, countingRender(&calls, "old"))
	require.NoError(t, err)

	key.Data = "2026-03-01T09:05:00Z"
	html, err := cache.GetOrRender(key, countingRender(&calls, "new"))
	require.NoError(t, err)

	assert.Equal(t, "new", html)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, cache.Len(), "one slot per widget and chart type")

	key.Config = "def"
	_, err = cache.GetOrRender(key, countingRender(&calls, "reconfigured"))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestChartCacheExpires(t *testing.T) {
	cache := NewChartCache(time.Minute)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	key := ChartKey{Widget: "w", Chart: ChartBar}
	calls := 0

	_, err := cache.GetOrRender(key, countingRender(&calls, "a"))
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = cache.GetOrRender(key, countingRender(&calls, "a"))
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestChartCacheSkipsFailedRenders(t *testing.T) {
	cache := NewChartCache(time.Minute)
	_, err := cache.GetOrRender(ChartKey{Widget: "w"}, func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheDisabledWithoutTTL(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrRender(ChartKey{Widget: "w"}, countingRender(&calls, "a"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheSweep(t *testing.T) {
	cache := NewChartCache(time.Millisecond)
	_, _ = cache.GetOrRender(ChartKey{Widget: "a"}, func() (string, error) { return "a", nil })
	cache.Sweep(time.Now().Add(time.Second))
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheFollowsStoreEvents(t *testing.T) {
	ctx := context.Background()
	cache := NewChartCache(time.Minute)
	render := func() (string, error) { return "x", nil }
	_, _ = cache.GetOrRender(ChartKey{Widget: "a", Chart: ChartLine}, render)
	_, _ = cache.GetOrRender(ChartKey{Widget: "a", Chart: ChartPie}, render)
	_, _ = cache.GetOrRender(ChartKey{Widget: "b", Chart: ChartLine}, render)

	require.NoError(t, cache.DashboardChanged(ctx, StoreEvent{Reason: ReasonWidgetRemove, WidgetID: "a"}))
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.DashboardChanged(ctx, StoreEvent{Reason: ReasonMetricsUpdate, MetricType: MetricBacklog}))
	assert.Equal(t, 1, cache.Len())

	require.NoError(t, cache.DashboardChanged(ctx, StoreEvent{Reason: ReasonDashboardLoad}))
	assert.Equal(t, 0, cache.Len())
}

func TestDataVersion(t *testing.T) {
	stamped := staticMetrics{
		MetricApproved:    {Value: 1, Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		MetricNotApproved: {Value: 2, Timestamp: time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)},
	}
	assert.Equal(t, "2026-03-01T09:05:00Z", dataVersion(stamped, []MetricType{MetricApproved, MetricNotApproved}, nil))
	assert.Equal(t, "none", dataVersion(nil, []MetricType{MetricApproved}, nil))

	unstamped := staticMetrics{MetricApproved: {Value: 1}}
	a := dataVersion(unstamped, []MetricType{MetricApproved}, []chartSeries{{Values: []float64{1}}})
	b := dataVersion(unstamped, []MetricType{MetricApproved}, []chartSeries{{Values: []float64{2}}})
	assert.NotEqual(t, a, b)
}

func TestConfigHashIsStable(t *testing.T) {
	cfg := WidgetConfig{MetricType: MetricBacklog, ChartType: ChartLine}
	assert.Equal(t, configHash(cfg), configHash(cfg.Clone()))
	assert.NotEqual(t, configHash(cfg), configHash(WidgetConfig{MetricType: MetricApproved}))
	assert.Equal(t, "empty", configHash(nil))
}
