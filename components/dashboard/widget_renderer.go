package dashboard

import (
	"context"
	"fmt"
)

// MetricSource reads the metrics cache. *Store satisfies it.
type MetricSource interface {
	MetricData(metricType MetricType) (MetricData, bool)
}

// WidgetProps is what a renderer receives for one widget instance. Config is
// already merged with the definition defaults.
type WidgetProps struct {
	ID             string
	Type           WidgetType
	Config         WidgetConfig
	Definition     WidgetDefinition
	Position       Position
	IsEditMode     bool
	Locale         string
	Theme          Theme
	Metrics        MetricSource
	Catalog        *MetricCatalog
	OnConfigChange func(WidgetConfig) error
	OnRemove       func() error
}

// ViewKind tells templates how to draw a WidgetView.
type ViewKind string

const (
	ViewWidget      ViewKind = "widget"
	ViewPlaceholder ViewKind = "placeholder"
	ViewError       ViewKind = "error"
)

// WidgetView is a rendered widget.
type WidgetView struct {
	ID       string         `json:"id"`
	Type     WidgetType     `json:"type"`
	Kind     ViewKind       `json:"kind"`
	Title    string         `json:"title,omitempty"`
	Subtitle string         `json:"subtitle,omitempty"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// WidgetRenderer turns widget props into a view.
type WidgetRenderer interface {
	Render(ctx context.Context, props WidgetProps) (WidgetView, error)
}

// WidgetRendererFunc adapts a function to WidgetRenderer.
type WidgetRendererFunc func(ctx context.Context, props WidgetProps) (WidgetView, error)

func (f WidgetRendererFunc) Render(ctx context.Context, props WidgetProps) (WidgetView, error) {
	return f(ctx, props)
}

// PlaceholderView is shown for widget types the registry does not know.
func PlaceholderView(w WidgetInstance) WidgetView {
	return WidgetView{
		ID:       w.ID,
		Type:     w.Type,
		Kind:     ViewPlaceholder,
		Title:    fmt.Sprintf("Unknown widget type: %s", w.Type),
		Position: w.Position,
	}
}

// ErrorView is the inline error card of a widget that failed to render.
func ErrorView(id string, widgetType WidgetType, pos Position, err error) WidgetView {
	msg := "Something went wrong"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return WidgetView{
		ID:       id,
		Type:     widgetType,
		Kind:     ViewError,
		Title:    "Widget Error",
		Position: pos,
		Error:    msg,
	}
}

// SafeRender runs renderer and converts both errors and panics into an error
// view for that widget alone. The returned error is non-nil when the view is
// an error card.
func SafeRender(ctx context.Context, renderer WidgetRenderer, props WidgetProps) (view WidgetView, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("dashboard: widget %s panicked: %v", props.ID, rec)
			view = ErrorView(props.ID, props.Type, props.Position, err)
		}
	}()
	if renderer == nil {
		err = fmt.Errorf("dashboard: no renderer for widget type %s", props.Type)
		return ErrorView(props.ID, props.Type, props.Position, err), err
	}
	view, err = renderer.Render(ctx, props)
	if err != nil {
		return ErrorView(props.ID, props.Type, props.Position, err), err
	}
	view.ID = props.ID
	view.Type = props.Type
	view.Position = props.Position
	if view.Kind == "" {
		view.Kind = ViewWidget
	}
	return view, nil
}

func rendererForKind(kind string) WidgetRenderer {
	switch kind {
	case RendererKindChart:
		return NewChartRenderer()
	case RendererKindMetricCard:
		return MetricCardRenderer{}
	default:
		return NewSummaryRenderer()
	}
}

func defaultRenderers() map[WidgetType]WidgetRenderer {
	chart := NewChartRenderer()
	summary := NewSummaryRenderer()
	return map[WidgetType]WidgetRenderer{
		WidgetMetricCard:      MetricCardRenderer{},
		WidgetChart:           chart,
		WidgetTrendChart:      chart,
		WidgetDataQuality:     chart,
		WidgetTable:           summary,
		WidgetStatus:          summary,
		WidgetContractSummary: summary,
		WidgetSystemHealth:    summary,
	}
}
