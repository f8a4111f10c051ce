package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

func seededStore(t *testing.T) *dashboard.Store {
	t.Helper()
	ctx := context.Background()
	store := dashboard.NewStore(ctx, dashboard.StoreOptions{Persister: dashboard.NewMemoryPersister()})
	added, err := dashboard.SeedDashboard(ctx, store, dashboard.NewRegistry(), nil)
	require.NoError(t, err)
	require.NotZero(t, added)
	store.UpdateMetricData(ctx, dashboard.MetricAccuracyRate, dashboard.MetricData{
		MetricType: dashboard.MetricAccuracyRate,
		Value:      97.26,
		Change:     &dashboard.MetricChange{Value: 1.5, Type: dashboard.ChangeIncrease, Period: "last week"},
		Timestamp:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Source:     "mock",
	})
	store.UpdateMetricData(ctx, dashboard.MetricType("legacy_metric"), dashboard.MetricData{Value: 3})
	return store
}

func TestWriteProducesWidgetAndMetricSheets(t *testing.T) {
	store := seededStore(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, store, Options{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{WidgetsSheet, MetricsSheet}, f.GetSheetList())

	widgets, err := f.GetRows(WidgetsSheet)
	require.NoError(t, err)
	current, _ := store.CurrentDashboard()
	require.Len(t, widgets, len(current.Widgets)+1)
	assert.Equal(t, widgetColumns, widgets[0])
	assert.Equal(t, current.Widgets[0].ID, widgets[1][0])

	metrics, err := f.GetRows(MetricsSheet)
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	assert.Equal(t, "accuracy_rate", metrics[1][0])
	assert.Equal(t, "97.3%", metrics[1][5])
	assert.Equal(t, "increase", metrics[1][7])
	assert.Equal(t, "2026-03-01T09:00:00Z", metrics[1][10])
	assert.Equal(t, "legacy_metric", metrics[2][0], "uncatalogued metrics follow the catalog")
}

func TestBuildWithoutCurrentDashboard(t *testing.T) {
	f, err := Build(dashboard.StoreSnapshot{}, Options{})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(WidgetsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteRequiresStore(t *testing.T) {
	assert.ErrorIs(t, Write(&bytes.Buffer{}, nil, Options{}), errNoSnapshot)
}
