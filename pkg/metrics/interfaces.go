package metrics

import (
	"context"
	"time"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// Source fetches the latest value of one metric from an upstream system.
type Source interface {
	Fetch(ctx context.Context, query Query) (Response, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, query Query) (Response, error)

func (f SourceFunc) Fetch(ctx context.Context, query Query) (Response, error) {
	return f(ctx, query)
}

// Query selects a metric and how to aggregate it.
type Query struct {
	MetricType  dashboard.MetricType      `json:"metricType"`
	From        time.Time                 `json:"from,omitempty"`
	To          time.Time                 `json:"to,omitempty"`
	Aggregation dashboard.AggregationType `json:"aggregation,omitempty"`
	Filters     *dashboard.WidgetFilters  `json:"filters,omitempty"`
	GroupBy     []string                  `json:"groupBy,omitempty"`
}

// Direction of a change against the previous period.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// Change compares a value with the previous period.
type Change struct {
	Absolute   float64   `json:"absolute"`
	Percentage float64   `json:"percentage"`
	Direction  Direction `json:"direction"`
}

// Response is the upstream answer for one metric. Text, when set, replaces
// the numeric value.
type Response struct {
	MetricType    dashboard.MetricType   `json:"metricType"`
	Value         float64                `json:"value"`
	Text          string                 `json:"text,omitempty"`
	PreviousValue *float64               `json:"previousValue,omitempty"`
	Change        *Change                `json:"change,omitempty"`
	Trend         []dashboard.TrendPoint `json:"trend,omitempty"`
	Metadata      map[string]any         `json:"metadata,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// DefaultComparisonPeriod labels the period changes are measured against.
const DefaultComparisonPeriod = "last week"

// ToMetricData converts an upstream response into a cache entry. Stable and
// upward changes are reported as increases.
func ToMetricData(resp Response, source, period string) dashboard.MetricData {
	if period == "" {
		period = DefaultComparisonPeriod
	}
	data := dashboard.MetricData{
		MetricType: resp.MetricType,
		Value:      resp.Value,
		Text:       resp.Text,
		Timestamp:  resp.Timestamp,
		Source:     source,
	}
	if resp.Change != nil {
		direction := dashboard.ChangeIncrease
		if resp.Change.Direction == DirectionDown {
			direction = dashboard.ChangeDecrease
		}
		data.Change = &dashboard.MetricChange{
			Value:  resp.Change.Percentage,
			Type:   direction,
			Period: period,
		}
	}
	if len(resp.Trend) > 0 {
		data.Trend = append([]dashboard.TrendPoint(nil), resp.Trend...)
	}
	if len(resp.Metadata) > 0 || resp.PreviousValue != nil {
		data.Metadata = make(map[string]any, len(resp.Metadata)+1)
		for k, v := range resp.Metadata {
			data.Metadata[k] = v
		}
		if resp.PreviousValue != nil {
			data.Metadata["previousValue"] = *resp.PreviousValue
		}
	}
	return data
}
