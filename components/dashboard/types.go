package dashboard

import (
	"time"
)

// WidgetType identifies a widget kind. Persisted dashboards may reference types
// that are no longer registered, so lookups must tolerate unknown values.
type WidgetType string

const (
	WidgetMetricCard      WidgetType = "metric-card"
	WidgetChart           WidgetType = "chart"
	WidgetTable           WidgetType = "table"
	WidgetStatus          WidgetType = "status"
	WidgetContractSummary WidgetType = "contract-summary"
	WidgetTrendChart      WidgetType = "trend-chart"
	WidgetDataQuality     WidgetType = "data-quality"
	WidgetSystemHealth    WidgetType = "system-health"
)

// WidgetCategory groups widget definitions in the gallery.
type WidgetCategory string

const (
	// CategoryAll is a filter value only; no definition carries it.
	CategoryAll         WidgetCategory = "all"
	CategoryOverview    WidgetCategory = "overview"
	CategoryAnalytics   WidgetCategory = "analytics"
	CategoryPerformance WidgetCategory = "performance"
	CategorySystem      WidgetCategory = "system"
	CategoryData        WidgetCategory = "data"
)

type ChartType string

const (
	ChartLine       ChartType = "line"
	ChartBar        ChartType = "bar"
	ChartPie        ChartType = "pie"
	ChartDonut      ChartType = "donut"
	ChartArea       ChartType = "area"
	ChartStackedBar ChartType = "stacked-bar"
)

// ChartTypes lists every supported chart type.
func ChartTypes() []ChartType {
	return []ChartType{ChartLine, ChartBar, ChartPie, ChartDonut, ChartArea, ChartStackedBar}
}

// MetricType names a measurable quantity in the metric catalog.
type MetricType string

const (
	MetricTotalContracts   MetricType = "total_contracts"
	MetricCheckedContracts MetricType = "checked_contracts"
	MetricOCRConfidence    MetricType = "ocr_confidence"
	MetricAccuracyRate     MetricType = "accuracy_rate"
	MetricApproved         MetricType = "approved"
	MetricNotApproved      MetricType = "not_approved"
	MetricUnderReview      MetricType = "under_review"
	MetricProcessingTime   MetricType = "processing_time"
	MetricManualValidation MetricType = "manual_validation"
	MetricCycleTime        MetricType = "cycle_time"
	MetricBacklog          MetricType = "backlog"
)

type AggregationType string

const (
	AggregationSum   AggregationType = "sum"
	AggregationAvg   AggregationType = "avg"
	AggregationMin   AggregationType = "min"
	AggregationMax   AggregationType = "max"
	AggregationCount AggregationType = "count"
)

// AggregationTypes lists every aggregation in declaration order.
func AggregationTypes() []AggregationType {
	return []AggregationType{AggregationSum, AggregationAvg, AggregationMin, AggregationMax, AggregationCount}
}

type TimeRange string

const (
	TimeRange7d     TimeRange = "7d"
	TimeRange30d    TimeRange = "30d"
	TimeRange90d    TimeRange = "90d"
	TimeRangeCustom TimeRange = "custom"
)

// TimeRanges lists the selectable time ranges.
func TimeRanges() []TimeRange {
	return []TimeRange{TimeRange7d, TimeRange30d, TimeRange90d, TimeRangeCustom}
}

type MetricUnit string

const (
	UnitNumber     MetricUnit = "number"
	UnitPercentage MetricUnit = "percentage"
	UnitTime       MetricUnit = "time"
	UnitCurrency   MetricUnit = "currency"
)

type MetricCategory string

const (
	MetricCategoryContract    MetricCategory = "contract"
	MetricCategoryPerformance MetricCategory = "performance"
	MetricCategoryQuality     MetricCategory = "quality"
	MetricCategorySystem      MetricCategory = "system"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Size is measured in grid cells.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// WidgetDefinition is the immutable registry entry for a widget type.
type WidgetDefinition struct {
	Type                 WidgetType        `json:"type" yaml:"type"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Icon                 string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category             WidgetCategory    `json:"category" yaml:"category"`
	DefaultConfig        WidgetConfig      `json:"default_config" yaml:"default_config"`
	DefaultSize          Size              `json:"default_size" yaml:"default_size"`
	MinSize              Size              `json:"min_size" yaml:"min_size"`
	MaxSize              *Size             `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	Configurable         bool              `json:"configurable" yaml:"configurable"`
	RequiresMetric       bool              `json:"requires_metric" yaml:"requires_metric"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Renderer             WidgetRenderer    `json:"-" yaml:"-"`
}

// DateRange bounds a custom time range.
type DateRange struct {
	From time.Time `json:"from" yaml:"from"`
	To   time.Time `json:"to" yaml:"to"`
}

// WidgetFilters narrows the contracts a widget aggregates over.
type WidgetFilters struct {
	BU           []string `json:"bu,omitempty" yaml:"bu,omitempty"`
	Status       []string `json:"status,omitempty" yaml:"status,omitempty"`
	PIC          []string `json:"pic,omitempty" yaml:"pic,omitempty"`
	ContractType []string `json:"contractType,omitempty" yaml:"contract_type,omitempty"`
}

// DisplayOptions toggles presentation details. Nil booleans mean "not set" so
// definition defaults can fill them.
type DisplayOptions struct {
	ShowTrend      *bool  `json:"showTrend,omitempty" yaml:"show_trend,omitempty"`
	ShowComparison *bool  `json:"showComparison,omitempty" yaml:"show_comparison,omitempty"`
	Color          string `json:"color,omitempty" yaml:"color,omitempty"`
	Title          string `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle       string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
}

// WidgetConfig is the per-instance configuration. Every field is optional.
type WidgetConfig struct {
	MetricType      MetricType      `json:"metricType,omitempty" yaml:"metric_type,omitempty"`
	ChartType       ChartType       `json:"chartType,omitempty" yaml:"chart_type,omitempty"`
	TimeRange       TimeRange       `json:"timeRange,omitempty" yaml:"time_range,omitempty"`
	CustomDateRange *DateRange      `json:"customDateRange,omitempty" yaml:"custom_date_range,omitempty"`
	Aggregation     AggregationType `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Filters         *WidgetFilters  `json:"filters,omitempty" yaml:"filters,omitempty"`
	DisplayOptions  *DisplayOptions `json:"displayOptions,omitempty" yaml:"display_options,omitempty"`
}

// Position places a widget on the grid, in cells.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// WidgetInstance is a configured placement of a widget type on one dashboard.
// MaxW/MaxH of zero mean unbounded.
type WidgetInstance struct {
	ID       string       `json:"id"`
	Type     WidgetType   `json:"type"`
	Config   WidgetConfig `json:"config"`
	Position Position     `json:"position"`
	MinW     int          `json:"minW,omitempty"`
	MinH     int          `json:"minH,omitempty"`
	MaxW     int          `json:"maxW,omitempty"`
	MaxH     int          `json:"maxH,omitempty"`
}

// GridItem is the grid engine's native layout record, keyed by widget id.
type GridItem struct {
	I           string `json:"i"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	W           int    `json:"w"`
	H           int    `json:"h"`
	MinW        int    `json:"minW,omitempty"`
	MinH        int    `json:"minH,omitempty"`
	MaxW        int    `json:"maxW,omitempty"`
	MaxH        int    `json:"maxH,omitempty"`
	Static      bool   `json:"static,omitempty"`
	IsDraggable bool   `json:"isDraggable"`
	IsResizable bool   `json:"isResizable"`
	Moved       bool   `json:"moved,omitempty"`
}

// DashboardLayout is a named collection of widget instances plus the last
// grid snapshot.
type DashboardLayout struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	UserID    string           `json:"userId,omitempty"`
	Layouts   []GridItem       `json:"layouts"`
	Widgets   []WidgetInstance `json:"widgets"`
	IsDefault bool             `json:"isDefault,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type NotificationPreferences struct {
	Enabled     bool `json:"enabled"`
	EmailAlerts bool `json:"emailAlerts,omitempty"`
}

// UserPreferences holds per-user dashboard settings.
type UserPreferences struct {
	UserID             string                   `json:"userId"`
	Theme              Theme                    `json:"theme"`
	DefaultDashboardID string                   `json:"defaultDashboardId,omitempty"`
	DefaultTimeRange   TimeRange                `json:"defaultTimeRange"`
	CustomMetrics      []MetricType             `json:"customMetrics,omitempty"`
	Notifications      *NotificationPreferences `json:"notifications,omitempty"`
}

// PreferencesUpdate is a partial UserPreferences; nil fields are left alone.
type PreferencesUpdate struct {
	UserID             *string                  `json:"userId,omitempty"`
	Theme              *Theme                   `json:"theme,omitempty"`
	DefaultDashboardID *string                  `json:"defaultDashboardId,omitempty"`
	DefaultTimeRange   *TimeRange               `json:"defaultTimeRange,omitempty"`
	CustomMetrics      []MetricType             `json:"customMetrics,omitempty"`
	Notifications      *NotificationPreferences `json:"notifications,omitempty"`
}

// WidgetUpdate is a shallow partial update. Config and Position replace the
// existing values wholesale when set.
type WidgetUpdate struct {
	Type     *WidgetType   `json:"type,omitempty"`
	Config   *WidgetConfig `json:"config,omitempty"`
	Position *Position     `json:"position,omitempty"`
	MinW     *int          `json:"minW,omitempty"`
	MinH     *int          `json:"minH,omitempty"`
	MaxW     *int          `json:"maxW,omitempty"`
	MaxH     *int          `json:"maxH,omitempty"`
}

type ChangeDirection string

const (
	ChangeIncrease ChangeDirection = "increase"
	ChangeDecrease ChangeDirection = "decrease"
)

type MetricChange struct {
	Value  float64         `json:"value"`
	Type   ChangeDirection `json:"type"`
	Period string          `json:"period"`
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MetricData is the most recent observation of a metric. Text, when set, is
// shown verbatim instead of the formatted Value.
type MetricData struct {
	MetricType MetricType     `json:"metricType"`
	Value      float64        `json:"value"`
	Text       string         `json:"text,omitempty"`
	Change     *MetricChange  `json:"change,omitempty"`
	Trend      []TrendPoint   `json:"trend,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Source     string         `json:"source,omitempty"`
}

// Bool returns a pointer to v, for DisplayOptions literals.
func Bool(v bool) *bool {
	return &v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// WithDefaults fills fields absent from c with the definition defaults.
func (c WidgetConfig) WithDefaults(def WidgetConfig) WidgetConfig {
	out := c.Clone()
	if out.MetricType == "" {
		out.MetricType = def.MetricType
	}
	if out.ChartType == "" {
		out.ChartType = def.ChartType
	}
	if out.TimeRange == "" {
		out.TimeRange = def.TimeRange
	}
	if out.Aggregation == "" {
		out.Aggregation = def.Aggregation
	}
	if out.CustomDateRange == nil && def.CustomDateRange != nil {
		rng := *def.CustomDateRange
		out.CustomDateRange = &rng
	}
	if out.Filters == nil {
		out.Filters = def.Filters.clone()
	}
	if def.DisplayOptions != nil {
		if out.DisplayOptions == nil {
			out.DisplayOptions = def.DisplayOptions.clone()
		} else {
			opts := out.DisplayOptions
			if opts.ShowTrend == nil {
				opts.ShowTrend = cloneBool(def.DisplayOptions.ShowTrend)
			}
			if opts.ShowComparison == nil {
				opts.ShowComparison = cloneBool(def.DisplayOptions.ShowComparison)
			}
			if opts.Color == "" {
				opts.Color = def.DisplayOptions.Color
			}
			if opts.Title == "" {
				opts.Title = def.DisplayOptions.Title
			}
			if opts.Subtitle == "" {
				opts.Subtitle = def.DisplayOptions.Subtitle
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (c WidgetConfig) Clone() WidgetConfig {
	out := c
	if c.CustomDateRange != nil {
		rng := *c.CustomDateRange
		out.CustomDateRange = &rng
	}
	out.Filters = c.Filters.clone()
	out.DisplayOptions = c.DisplayOptions.clone()
	return out
}

func (f *WidgetFilters) clone() *WidgetFilters {
	if f == nil {
		return nil
	}
	return &WidgetFilters{
		BU:           cloneStrings(f.BU),
		Status:       cloneStrings(f.Status),
		PIC:          cloneStrings(f.PIC),
		ContractType: cloneStrings(f.ContractType),
	}
}

func (o *DisplayOptions) clone() *DisplayOptions {
	if o == nil {
		return nil
	}
	out := *o
	out.ShowTrend = cloneBool(o.ShowTrend)
	out.ShowComparison = cloneBool(o.ShowComparison)
	return &out
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	b := *v
	return &b
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

// Clone returns a deep copy of the widget instance.
func (w WidgetInstance) Clone() WidgetInstance {
	out := w
	out.Config = w.Config.Clone()
	return out
}

// NewWidgetInstance creates an instance of def at pos, copying the default
// config and the size bounds.
func NewWidgetInstance(def WidgetDefinition, id string, pos Position) WidgetInstance {
	inst := WidgetInstance{
		ID:       id,
		Type:     def.Type,
		Config:   def.DefaultConfig.Clone(),
		Position: pos,
		MinW:     def.MinSize.W,
		MinH:     def.MinSize.H,
	}
	if def.MaxSize != nil {
		inst.MaxW = def.MaxSize.W
		inst.MaxH = def.MaxSize.H
	}
	return inst
}

// Clone returns a deep copy whose slices are never nil.
func (d DashboardLayout) Clone() DashboardLayout {
	out := d
	out.Layouts = append(make([]GridItem, 0, len(d.Layouts)), d.Layouts...)
	out.Widgets = make([]WidgetInstance, len(d.Widgets))
	for i, w := range d.Widgets {
		out.Widgets[i] = w.Clone()
	}
	return out
}

// Widget finds a widget instance by id.
func (d DashboardLayout) Widget(id string) (WidgetInstance, bool) {
	for _, w := range d.Widgets {
		if w.ID == id {
			return w.Clone(), true
		}
	}
	return WidgetInstance{}, false
}

func (u WidgetUpdate) apply(w WidgetInstance) WidgetInstance {
	if u.Type != nil {
		w.Type = *u.Type
	}
	if u.Config != nil {
		w.Config = u.Config.Clone()
	}
	if u.Position != nil {
		w.Position = *u.Position
	}
	if u.MinW != nil {
		w.MinW = *u.MinW
	}
	if u.MinH != nil {
		w.MinH = *u.MinH
	}
	if u.MaxW != nil {
		w.MaxW = *u.MaxW
	}
	if u.MaxH != nil {
		w.MaxH = *u.MaxH
	}
	return w
}

// Clone returns a deep copy of the metric observation.
func (m MetricData) Clone() MetricData {
	out := m
	if m.Change != nil {
		change := *m.Change
		out.Change = &change
	}
	if m.Trend != nil {
		out.Trend = append([]TrendPoint(nil), m.Trend...)
	}
	if m.Metadata != nil {
		out.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
