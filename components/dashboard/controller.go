package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

const defaultTemplate = "dashboard.html"

var (
	// ErrEditModeRequired is returned by gallery operations outside edit mode.
	ErrEditModeRequired = errors.New("dashboard: edit mode required")
	// ErrNoCurrentDashboard is returned when an operation needs a current dashboard.
	ErrNoCurrentDashboard = errors.New("dashboard: no current dashboard")
	// ErrNotConfigurable is returned when configuring a widget whose definition forbids it.
	ErrNotConfigurable = errors.New("dashboard: widget is not configurable")

	errMissingRenderer = errors.New("dashboard: template renderer not configured")
)

// Renderer describes the template renderer contract needed by the controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// ControllerOptions wires the controller. Store is required.
type ControllerOptions struct {
	Store     *Store
	Registry  *Registry
	Catalog   *MetricCatalog
	Validator ConfigValidator
	Renderer  Renderer
	Template  string
	// RestoreOnCancel snapshots the current dashboard when edit mode starts
	// and restores it when editing is cancelled. Off by default, in which
	// case cancel keeps every in-session change.
	RestoreOnCancel bool
	Telemetry       Telemetry
	Logger          *zap.Logger
	IDs             IDGenerator
}

// Controller drives the edit-mode lifecycle and the widget gallery on top of
// a Store.
type Controller struct {
	opts ControllerOptions
	grid *Reconciler
	log  *zap.Logger

	mu       sync.Mutex
	snapshot *DashboardLayout
}

// NewController fills option defaults and builds a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Catalog == nil {
		opts.Catalog = NewMetricCatalog()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Template == "" {
		opts.Template = defaultTemplate
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Controller{
		opts: opts,
		grid: NewReconciler(opts.Store),
		log:  normalizeLogger(opts.Logger),
	}
}

func (c *Controller) Store() *Store           { return c.opts.Store }
func (c *Controller) Registry() *Registry     { return c.opts.Registry }
func (c *Controller) Catalog() *MetricCatalog { return c.opts.Catalog }
func (c *Controller) Grid() *Reconciler       { return c.grid }

// EnterEditMode turns edit mode on.
func (c *Controller) EnterEditMode(ctx context.Context) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if c.opts.RestoreOnCancel {
		c.mu.Lock()
		if current, ok := store.CurrentDashboard(); ok {
			c.snapshot = &current
		} else {
			c.snapshot = nil
		}
		c.mu.Unlock()
	}
	store.SetEditMode(ctx, true)
	c.opts.Telemetry.Record(ctx, "dashboard.edit.enter", nil)
	return nil
}

// SaveAndExit saves the current dashboard, then leaves edit mode.
func (c *Controller) SaveAndExit(ctx context.Context) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	store.SaveDashboard(ctx)
	store.SetEditMode(ctx, false)
	c.dropSnapshot()
	c.opts.Telemetry.Record(ctx, "dashboard.edit.save", nil)
	return nil
}

// CancelEdit leaves edit mode. In-session changes are kept unless the
// controller was built with RestoreOnCancel.
func (c *Controller) CancelEdit(ctx context.Context) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if snapshot := c.dropSnapshot(); snapshot != nil {
		store.RestoreDashboard(ctx, *snapshot)
	}
	store.SetEditMode(ctx, false)
	c.opts.Telemetry.Record(ctx, "dashboard.edit.cancel", map[string]any{
		"restored": c.opts.RestoreOnCancel,
	})
	return nil
}

func (c *Controller) dropSnapshot() *DashboardLayout {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.snapshot
	c.snapshot = nil
	return snapshot
}

// AddWidget places a new widget of widgetType below the existing content of
// the current dashboard.
func (c *Controller) AddWidget(ctx context.Context, widgetType WidgetType) (WidgetInstance, error) {
	store, err := c.store()
	if err != nil {
		return WidgetInstance{}, err
	}
	if !store.IsEditMode() {
		return WidgetInstance{}, ErrEditModeRequired
	}
	def, ok := c.opts.Registry.Lookup(widgetType)
	if !ok {
		return WidgetInstance{}, fmt.Errorf("%w: %s", ErrUnknownWidgetType, widgetType)
	}
	id := c.opts.IDs.NewID("widget")
	inst, ok := store.AppendWidget(ctx, func(current DashboardLayout) WidgetInstance {
		return NewWidgetInstance(def, id, InsertionPosition(current.Widgets, def.DefaultSize))
	})
	if !ok {
		return WidgetInstance{}, ErrNoCurrentDashboard
	}
	c.opts.Telemetry.Record(ctx, "dashboard.gallery.add", map[string]any{
		"widget_id":   inst.ID,
		"widget_type": string(widgetType),
	})
	return inst, nil
}

// RemoveWidget removes a widget from the current dashboard.
func (c *Controller) RemoveWidget(ctx context.Context, id string) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if !store.IsEditMode() {
		return ErrEditModeRequired
	}
	store.RemoveWidget(ctx, id)
	return nil
}

// ConfigureWidget validates config and replaces the widget configuration.
// Unknown widget ids are a no-op.
func (c *Controller) ConfigureWidget(ctx context.Context, id string, config WidgetConfig) error {
	store, err := c.store()
	if err != nil {
		return err
	}
	if !store.IsEditMode() {
		return ErrEditModeRequired
	}
	current, ok := store.CurrentDashboard()
	if !ok {
		return ErrNoCurrentDashboard
	}
	widget, ok := current.Widget(id)
	if !ok {
		return nil
	}
	def, ok := c.opts.Registry.Lookup(widget.Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidgetType, widget.Type)
	}
	if !def.Configurable {
		return fmt.Errorf("%w: %s", ErrNotConfigurable, def.Type)
	}
	if err := c.opts.Validator.Validate(def, config); err != nil {
		return err
	}
	if err := ValidateMetricSelection(c.opts.Catalog, config); err != nil {
		return err
	}
	store.UpdateWidget(ctx, id, WidgetUpdate{Config: &config})
	return nil
}

// ApplyLayoutChange forwards a settled layout-change event to the grid.
func (c *Controller) ApplyLayoutChange(ctx context.Context, items []GridItem) (bool, error) {
	return c.grid.ApplyLayoutChange(ctx, items)
}

// Gallery lists widget definitions for the picker.
func (c *Controller) Gallery(query string, category WidgetCategory, locale string) Gallery {
	return BuildGallery(c.opts.Registry, query, category, locale)
}

// DashboardSummary names one dashboard in a dashboard switcher.
type DashboardSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	Current   bool   `json:"current"`
	Widgets   int    `json:"widgets"`
}

// DashboardView is the rendered current dashboard.
type DashboardView struct {
	ID         string             `json:"id,omitempty"`
	Name       string             `json:"name,omitempty"`
	Locale     string             `json:"locale"`
	Theme      Theme              `json:"theme"`
	EditMode   bool               `json:"editMode"`
	IsLoading  bool               `json:"isLoading"`
	IsSaving   bool               `json:"isSaving"`
	Empty      bool               `json:"empty"`
	Grid       GridView           `json:"grid"`
	Widgets    []WidgetView       `json:"widgets"`
	Dashboards []DashboardSummary `json:"dashboards"`
}

// RenderDashboard renders every widget of the current dashboard. Unknown
// widget types become placeholders and a failing widget becomes an error
// card; neither affects its siblings.
func (c *Controller) RenderDashboard(ctx context.Context, locale string) (DashboardView, error) {
	store, err := c.store()
	if err != nil {
		return DashboardView{}, err
	}
	snap := store.Snapshot()
	view := DashboardView{
		Locale:    locale,
		Theme:     snap.Preferences.Theme,
		EditMode:  snap.IsEditMode,
		IsLoading: snap.IsLoading,
		IsSaving:  snap.IsSaving,
		Grid:      c.grid.View(),
		Widgets:   []WidgetView{},
	}
	for _, d := range snap.Dashboards {
		view.Dashboards = append(view.Dashboards, DashboardSummary{
			ID:        d.ID,
			Name:      d.Name,
			IsDefault: d.IsDefault,
			Current:   snap.CurrentDashboard != nil && snap.CurrentDashboard.ID == d.ID,
			Widgets:   len(d.Widgets),
		})
	}
	if snap.CurrentDashboard == nil {
		view.Empty = true
		return view, nil
	}
	current := snap.CurrentDashboard
	view.ID = current.ID
	view.Name = current.Name
	view.Empty = len(current.Widgets) == 0

	failures := 0
	for _, w := range current.Widgets {
		def, ok := c.opts.Registry.Lookup(w.Type)
		if !ok {
			view.Widgets = append(view.Widgets, PlaceholderView(w))
			continue
		}
		rendered, err := SafeRender(ctx, def.Renderer, c.widgetProps(ctx, w, def, snap, locale))
		if err != nil {
			failures++
			c.log.Error("widget render failed",
				zap.String("widget_id", w.ID),
				zap.String("widget_type", string(w.Type)),
				zap.Error(err),
			)
		}
		view.Widgets = append(view.Widgets, rendered)
	}
	c.opts.Telemetry.Record(ctx, "dashboard.render", map[string]any{
		"dashboard_id": current.ID,
		"widgets":      len(current.Widgets),
		"failures":     failures,
	})
	return view, nil
}

func (c *Controller) widgetProps(ctx context.Context, w WidgetInstance, def WidgetDefinition, snap StoreSnapshot, locale string) WidgetProps {
	id := w.ID
	return WidgetProps{
		ID:         id,
		Type:       w.Type,
		Config:     w.Config.WithDefaults(def.DefaultConfig),
		Definition: def,
		Position:   w.Position,
		IsEditMode: snap.IsEditMode,
		Locale:     locale,
		Theme:      snap.Preferences.Theme,
		Metrics:    c.opts.Store,
		Catalog:    c.opts.Catalog,
		OnConfigChange: func(config WidgetConfig) error {
			return c.ConfigureWidget(ctx, id, config)
		},
		OnRemove: func() error {
			return c.RemoveWidget(ctx, id)
		},
	}
}

// RenderTemplate renders the current dashboard through the template renderer.
func (c *Controller) RenderTemplate(ctx context.Context, locale string, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errMissingRenderer
	}
	view, err := c.RenderDashboard(ctx, locale)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"dashboard":    view,
		"widgets":      view.Widgets,
		"grid":         view.Grid,
		"dashboards":   view.Dashboards,
		"edit_mode":    view.EditMode,
		"theme":        string(view.Theme),
		"locale":       locale,
		"grid_columns": GridColumns,
		"row_height":   GridRowHeight,
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, payload, out)
	return err
}

func (c *Controller) store() (*Store, error) {
	if c.opts.Store == nil {
		return nil, errMissingStore
	}
	return c.opts.Store, nil
}
