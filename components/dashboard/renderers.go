package dashboard

import (
	"context"
	"strconv"
)

// MetricCardRenderer draws a single metric with its change indicator. A
// metric missing from the catalog renders as a zero value instead of failing.
type MetricCardRenderer struct{}

func (MetricCardRenderer) Render(_ context.Context, props WidgetProps) (WidgetView, error) {
	cfg := props.Config
	display := cfg.DisplayOptions
	if display == nil {
		display = &DisplayOptions{}
	}
	metricType := cfg.MetricType
	if metricType == "" {
		metricType = MetricTotalContracts
	}

	def, resolved := lookupMetric(props.Catalog, metricType)
	if !resolved {
		title := display.Title
		if title == "" {
			title = string(metricType)
		}
		return WidgetView{
			Title: title,
			Data: map[string]any{
				"metric_type": string(metricType),
				"value":       "0",
				"resolved":    false,
			},
		}, nil
	}

	data, hasData := MetricData{MetricType: metricType}, false
	if props.Metrics != nil {
		data, hasData = props.Metrics.MetricData(metricType)
	}

	title := display.Title
	if title == "" {
		title = def.NameForLocale(props.Locale)
	}
	subtitle := display.Subtitle
	if subtitle == "" {
		subtitle = def.Name
	}

	payload := map[string]any{
		"metric_type": string(metricType),
		"value":       FormatMetricValue(data, def.Unit),
		"raw_value":   data.Value,
		"unit":        string(def.Unit),
		"icon":        def.Icon,
		"color":       def.Color,
		"resolved":    true,
		"has_data":    hasData,
	}
	if boolOr(display.ShowTrend, false) && data.Change != nil {
		payload["change"] = map[string]any{
			"label":  formatChange(data.Change.Value),
			"type":   string(data.Change.Type),
			"period": "vs " + data.Change.Period,
		}
	}
	if boolOr(display.ShowComparison, false) {
		payload["source"] = def.Source
	}
	return WidgetView{Title: title, Subtitle: subtitle, Data: payload}, nil
}

func formatChange(value float64) string {
	out := strconv.FormatFloat(value, 'f', -1, 64) + "%"
	if value > 0 {
		return "+" + out
	}
	return out
}

func lookupMetric(catalog *MetricCatalog, metricType MetricType) (MetricDefinition, bool) {
	if catalog == nil {
		catalog = defaultCatalog
	}
	return catalog.Lookup(metricType)
}

var defaultCatalog = NewMetricCatalog()

// SummaryRenderer lists a fixed set of metrics per widget type as labelled
// rows. Table widgets list the whole catalog.
type SummaryRenderer struct {
	rows map[WidgetType][]MetricType
}

func NewSummaryRenderer() *SummaryRenderer {
	return &SummaryRenderer{rows: map[WidgetType][]MetricType{
		WidgetContractSummary: {MetricTotalContracts, MetricCheckedContracts, MetricApproved, MetricNotApproved, MetricUnderReview},
		WidgetStatus:          {MetricBacklog, MetricProcessingTime},
		WidgetSystemHealth:    {MetricProcessingTime, MetricCycleTime, MetricBacklog, MetricManualValidation},
	}}
}

func (r *SummaryRenderer) Render(_ context.Context, props WidgetProps) (WidgetView, error) {
	catalog := props.Catalog
	if catalog == nil {
		catalog = defaultCatalog
	}
	metrics, ok := r.rows[props.Type]
	if !ok {
		metrics = catalog.Types()
	}
	if props.Config.MetricType != "" && !containsMetric(metrics, props.Config.MetricType) {
		metrics = append([]MetricType{props.Config.MetricType}, metrics...)
	}

	rows := make([]map[string]any, 0, len(metrics))
	for _, metricType := range metrics {
		def, found := catalog.Lookup(metricType)
		if !found {
			continue
		}
		data := MetricData{MetricType: metricType}
		if props.Metrics != nil {
			if cached, ok := props.Metrics.MetricData(metricType); ok {
				data = cached
			}
		}
		row := map[string]any{
			"metric_type": string(metricType),
			"label":       def.NameForLocale(props.Locale),
			"value":       FormatMetricValue(data, def.Unit),
			"color":       def.Color,
		}
		if data.Change != nil {
			row["change"] = formatChange(data.Change.Value)
			row["change_type"] = string(data.Change.Type)
		}
		rows = append(rows, row)
	}

	title := props.Definition.NameForLocale(props.Locale)
	subtitle := ""
	if display := props.Config.DisplayOptions; display != nil {
		if display.Title != "" {
			title = display.Title
		}
		subtitle = display.Subtitle
	}
	if title == "" {
		title = string(props.Type)
	}
	return WidgetView{
		Title:    title,
		Subtitle: subtitle,
		Data: map[string]any{
			"rows":       rows,
			"time_range": string(props.Config.TimeRange),
		},
	}, nil
}

func containsMetric(list []MetricType, metricType MetricType) bool {
	for _, candidate := range list {
		if candidate == metricType {
			return true
		}
	}
	return false
}
