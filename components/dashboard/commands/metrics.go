package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// MetricsStore writes the metric cache.
type MetricsStore interface {
	UpdateMetricData(ctx context.Context, metricType dashboard.MetricType, data dashboard.MetricData)
}

// UpdateMetricDataInput is one fresh metric value.
type UpdateMetricDataInput struct {
	Data dashboard.MetricData `json:"data"`
}

// UpdateMetricDataCommand replaces a metric cache entry. The last write wins.
type UpdateMetricDataCommand struct {
	store     MetricsStore
	telemetry Telemetry
}

func NewUpdateMetricDataCommand(store MetricsStore, telemetry Telemetry) *UpdateMetricDataCommand {
	return &UpdateMetricDataCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateMetricDataInput] = (*UpdateMetricDataCommand)(nil)

func (c *UpdateMetricDataCommand) Execute(ctx context.Context, msg UpdateMetricDataInput) error {
	if c.store == nil {
		return errMissingStore
	}
	if msg.Data.MetricType == "" {
		return errors.New("update metric data command requires metric type")
	}
	c.store.UpdateMetricData(ctx, msg.Data.MetricType, msg.Data)
	c.telemetry.Record(ctx, "dashboard.command.metrics", map[string]any{
		"metric_type": string(msg.Data.MetricType),
		"source":      msg.Data.Source,
	})
	return nil
}
