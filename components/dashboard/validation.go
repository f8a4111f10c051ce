package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfig wraps every configuration rejection.
var ErrInvalidConfig = errors.New("dashboard: invalid widget configuration")

// ConfigValidator validates widget configurations against their definition.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config WidgetConfig) error
}

// JSONSchemaValidator compiles widget schemas once per widget type and
// validates configurations against them.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[WidgetType]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[WidgetType]*jsonschema.Schema),
	}
}

// Validate ensures the configuration satisfies the widget schema. Definitions
// without a schema accept anything.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config WidgetConfig) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("dashboard: marshal config for %s: %w", def.Type, err)
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("dashboard: normalize config for %s: %w", def.Type, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, def.Type, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Type]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Type, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(def.Type) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Type, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Type, err)
	}
	v.mu.Lock()
	v.compiled[def.Type] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, WidgetConfig) error { return nil }

// ValidateMetricSelection checks the metric and aggregation of config against
// the catalog. An empty metric is accepted; an aggregation is only checked
// when a metric is chosen.
func ValidateMetricSelection(catalog *MetricCatalog, config WidgetConfig) error {
	if catalog == nil || config.MetricType == "" {
		return nil
	}
	def, ok := catalog.Lookup(config.MetricType)
	if !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, config.MetricType)
	}
	if config.Aggregation != "" && !def.SupportsAggregation(config.Aggregation) {
		return fmt.Errorf("%w: metric %s does not support aggregation %q", ErrInvalidConfig, def.Type, config.Aggregation)
	}
	return nil
}

// WidgetConfigSchema builds the JSON schema shared by the built-in widgets.
// Metric types are limited to the given catalog entries.
func WidgetConfigSchema(metrics []MetricDefinition) map[string]any {
	metricTypes := make([]string, 0, len(metrics))
	for _, def := range metrics {
		metricTypes = append(metricTypes, string(def.Type))
	}
	chartTypes := make([]string, 0, len(ChartTypes()))
	for _, chart := range ChartTypes() {
		chartTypes = append(chartTypes, string(chart))
	}
	timeRanges := make([]string, 0, len(TimeRanges()))
	for _, rng := range TimeRanges() {
		timeRanges = append(timeRanges, string(rng))
	}
	aggregations := make([]string, 0, len(AggregationTypes()))
	for _, agg := range AggregationTypes() {
		aggregations = append(aggregations, string(agg))
	}
	stringList := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"metricType":  map[string]any{"type": "string", "enum": metricTypes},
			"chartType":   map[string]any{"type": "string", "enum": chartTypes},
			"timeRange":   map[string]any{"type": "string", "enum": timeRanges},
			"aggregation": map[string]any{"type": "string", "enum": aggregations},
			"customDateRange": map[string]any{
				"type":     "object",
				"required": []string{"from", "to"},
				"properties": map[string]any{
					"from": map[string]any{"type": "string"},
					"to":   map[string]any{"type": "string"},
				},
			},
			"filters": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"bu":           stringList,
					"status":       stringList,
					"pic":          stringList,
					"contractType": stringList,
				},
			},
			"displayOptions": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"showTrend":      map[string]any{"type": "boolean"},
					"showComparison": map[string]any{"type": "boolean"},
					"color":          map[string]any{"type": "string"},
					"title":          map[string]any{"type": "string"},
					"subtitle":       map[string]any{"type": "string"},
				},
			},
		},
		"if": map[string]any{
			"required":   []string{"timeRange"},
			"properties": map[string]any{"timeRange": map[string]any{"const": string(TimeRangeCustom)}},
		},
		"then": map[string]any{
			"required": []string{"customDateRange"},
		},
	}
}
