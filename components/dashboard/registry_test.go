package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryListsBuiltInsInDeclarationOrder(t *testing.T) {
	reg := NewRegistry()

	types := make([]WidgetType, 0)
	for _, def := range reg.ListAll() {
		types = append(types, def.Type)
	}

	assert.Equal(t, []WidgetType{
		WidgetMetricCard, WidgetChart, WidgetTable, WidgetStatus,
		WidgetContractSummary, WidgetTrendChart, WidgetDataQuality, WidgetSystemHealth,
	}, types)
}

func TestRegistryListByCategory(t *testing.T) {
	reg := NewRegistry()

	analytics := reg.ListByCategory(CategoryAnalytics)
	require.Len(t, analytics, 3)
	assert.Equal(t, WidgetChart, analytics[0].Type)
	assert.Equal(t, WidgetTrendChart, analytics[1].Type)
	assert.Equal(t, WidgetDataQuality, analytics[2].Type)

	assert.Len(t, reg.ListByCategory(CategoryAll), 8)
	assert.Empty(t, reg.ListByCategory(CategoryPerformance))
}

func TestRegistryLookupUnknownType(t *testing.T) {
	_, ok := NewRegistry().Lookup("unknown-future-widget")
	assert.False(t, ok)
}

func TestRegistryDefinitionSizesAreConsistent(t *testing.T) {
	for _, def := range NewRegistry().ListAll() {
		assert.LessOrEqual(t, def.MinSize.W, def.DefaultSize.W, def.Type)
		assert.LessOrEqual(t, def.MinSize.H, def.DefaultSize.H, def.Type)
		if def.MaxSize != nil {
			assert.LessOrEqual(t, def.DefaultSize.W, def.MaxSize.W, def.Type)
			assert.LessOrEqual(t, def.DefaultSize.H, def.MaxSize.H, def.Type)
		}
		assert.NotEmpty(t, def.Schema, def.Type)
	}
}

func TestRegistryRegisterDefinitionValidates(t *testing.T) {
	reg := NewEmptyRegistry()

	assert.ErrorIs(t, reg.RegisterDefinition(WidgetDefinition{}), errDefinitionType)
	assert.Error(t, reg.RegisterDefinition(WidgetDefinition{Type: "tiny", MinSize: Size{W: 3, H: 3}, DefaultSize: Size{W: 2, H: 2}}))
	assert.Error(t, reg.RegisterDefinition(WidgetDefinition{Type: "wide", MinSize: Size{W: 1, H: 1}, DefaultSize: Size{W: 13, H: 1}}))
	assert.Error(t, reg.RegisterDefinition(WidgetDefinition{Type: "capped", MinSize: Size{W: 1, H: 1}, DefaultSize: Size{W: 4, H: 1}, MaxSize: &Size{W: 3, H: 3}}))
	assert.Empty(t, reg.ListAll())
}

func TestRegistryReplaceKeepsSlot(t *testing.T) {
	reg := NewRegistry()
	def, _ := reg.Lookup(WidgetChart)
	def.Name = "Chart v2"

	require.NoError(t, reg.RegisterDefinition(def))

	all := reg.ListAll()
	require.Len(t, all, 8)
	assert.Equal(t, "Chart v2", all[1].Name)
}

func TestRegistrySetRenderer(t *testing.T) {
	reg := NewRegistry()
	custom := WidgetRendererFunc(func(context.Context, WidgetProps) (WidgetView, error) {
		return WidgetView{Title: "custom"}, nil
	})

	require.NoError(t, reg.SetRenderer(WidgetStatus, custom))
	def, _ := reg.Lookup(WidgetStatus)
	view, err := def.Renderer.Render(context.Background(), WidgetProps{})
	require.NoError(t, err)
	assert.Equal(t, "custom", view.Title)

	assert.ErrorIs(t, reg.SetRenderer("nope", custom), ErrUnknownWidgetType)
	assert.Error(t, reg.SetRenderer(WidgetStatus, nil))
}

func TestRegistryAppliesHooks(t *testing.T) {
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = nil
		globalHookMu.Unlock()
	})
	RegisterWidgetHook(func(reg *Registry) error {
		return reg.RegisterDefinition(WidgetDefinition{
			Type:        "ocr-queue",
			Name:        "OCR Queue",
			Category:    CategorySystem,
			DefaultSize: Size{W: 3, H: 2},
			MinSize:     Size{W: 2, H: 2},
			Renderer:    MetricCardRenderer{},
		})
	})

	reg := NewRegistry()

	def, ok := reg.Lookup("ocr-queue")
	require.True(t, ok)
	assert.Equal(t, "OCR Queue", def.Name)
	assert.Len(t, reg.ListAll(), 9)

	failing := errors.New("hook failed")
	RegisterWidgetHook(func(*Registry) error { return failing })
	assert.ErrorIs(t, NewEmptyRegistry().ApplyHooks(), failing)
}

func TestCatalogLookupAndGrouping(t *testing.T) {
	catalog := NewMetricCatalog()

	def, ok := catalog.Lookup(MetricOCRConfidence)
	require.True(t, ok)
	assert.Equal(t, UnitPercentage, def.Unit)
	assert.True(t, def.SupportsAggregation(AggregationAvg))
	assert.False(t, def.SupportsAggregation(AggregationSum))

	_, ok = catalog.Lookup("missing")
	assert.False(t, ok)

	grouped := catalog.ListByCategory()
	assert.Equal(t, []MetricType{MetricProcessingTime, MetricManualValidation, MetricCycleTime}, grouped[MetricCategoryPerformance])
	assert.Equal(t, []MetricType{MetricBacklog}, grouped[MetricCategorySystem])
	assert.Len(t, catalog.Types(), 11)

	for _, metric := range catalog.ListAll() {
		assert.NotEmpty(t, metric.Aggregations, metric.Type)
	}
}

func TestCatalogReturnsCopies(t *testing.T) {
	catalog := NewMetricCatalog()
	def, _ := catalog.Lookup(MetricApproved)
	def.Aggregations[0] = AggregationMax

	again, _ := catalog.Lookup(MetricApproved)
	assert.Equal(t, AggregationSum, again.Aggregations[0])
}

func TestNewMetricCatalogFromValidates(t *testing.T) {
	_, err := NewMetricCatalogFrom([]MetricDefinition{{Type: "x"}}, nil)
	assert.ErrorIs(t, err, errMetricAggregations)

	_, err = NewMetricCatalogFrom([]MetricDefinition{{Aggregations: []AggregationType{AggregationSum}}}, nil)
	assert.ErrorIs(t, err, errMetricType)

	catalog, err := NewMetricCatalogFrom([]MetricDefinition{
		{Type: "a", Category: MetricCategorySystem, Aggregations: []AggregationType{AggregationSum}},
		{Type: "b", Category: MetricCategoryQuality, Aggregations: []AggregationType{AggregationAvg}},
	}, nil)
	require.NoError(t, err)
	cats := catalog.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, MetricCategorySystem, cats[0].ID)
}

func TestValidateCatalogs(t *testing.T) {
	assert.NoError(t, ValidateCatalogs(NewRegistry(), NewMetricCatalog()))

	small, err := NewMetricCatalogFrom([]MetricDefinition{
		{Type: MetricBacklog, Aggregations: []AggregationType{AggregationSum}},
	}, nil)
	require.NoError(t, err)
	assert.Error(t, ValidateCatalogs(NewRegistry(), small))
}

func TestFormatMetricValue(t *testing.T) {
	cases := []struct {
		data MetricData
		unit MetricUnit
		want string
	}{
		{MetricData{Value: 2384}, UnitNumber, "2,384"},
		{MetricData{Value: 94.7}, UnitPercentage, "94.7%"},
		{MetricData{Value: 2.4}, UnitTime, "2.4m"},
		{MetricData{Value: 1234}, UnitCurrency, "$1,234"},
		{MetricData{Value: 1234.5}, UnitNumber, "1,234.5"},
		{MetricData{Value: 1e19}, UnitNumber, "10,000,000,000,000,000,000"},
		{MetricData{Value: -2500}, UnitCurrency, "$-2,500"},
		{MetricData{Value: -0.0001}, UnitNumber, "0"},
		{MetricData{Value: 12, Text: "n/a"}, UnitNumber, "n/a"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMetricValue(tc.data, tc.unit))
	}
}
