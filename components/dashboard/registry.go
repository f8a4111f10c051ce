package dashboard

import (
	"errors"
	"fmt"
	"sync"
)

// WidgetHook lets packages register widgets/renderers during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

var (
	// ErrUnknownWidgetType is returned when an operation needs a definition
	// that is not registered.
	ErrUnknownWidgetType = errors.New("dashboard: unknown widget type")
	errDefinitionType    = errors.New("dashboard: widget definition type is required")
)

// Registry holds widget definitions in declaration order. Lookups are safe
// for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	order        []WidgetType
	definitions  map[WidgetType]WidgetDefinition
	categories   []WidgetCategoryDefinition
	manifestMeta map[WidgetType]ManifestRenderer
}

// NewRegistry builds a registry with the built-in definitions, then applies
// global hooks.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	reg.registerDefaults()
	_ = reg.ApplyHooks()
	return reg
}

// NewEmptyRegistry builds a registry with the default categories and no
// definitions.
func NewEmptyRegistry() *Registry {
	return &Registry{
		definitions:  map[WidgetType]WidgetDefinition{},
		categories:   DefaultWidgetCategories(),
		manifestMeta: map[WidgetType]ManifestRenderer{},
	}
}

func (r *Registry) registerDefaults() {
	renderers := defaultRenderers()
	for _, def := range DefaultWidgetDefinitions() {
		def.Renderer = renderers[def.Type]
		_ = r.RegisterDefinition(def)
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores a definition. Re-registering a type replaces it in
// place and keeps its declaration slot.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Type == "" {
		return errDefinitionType
	}
	if err := validateSizes(def); err != nil {
		return err
	}
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// SetRenderer associates a renderer with a registered definition.
func (r *Registry) SetRenderer(widgetType WidgetType, renderer WidgetRenderer) error {
	if renderer == nil {
		return fmt.Errorf("dashboard: renderer for %s cannot be nil", widgetType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.definitions[widgetType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidgetType, widgetType)
	}
	def.Renderer = renderer
	r.definitions[widgetType] = def
	return nil
}

// Lookup returns the definition registered for widgetType.
func (r *Registry) Lookup(widgetType WidgetType) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[widgetType]
	return def, ok
}

// ListAll returns every definition in declaration order.
func (r *Registry) ListAll() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.order))
	for _, widgetType := range r.order {
		defs = append(defs, r.definitions[widgetType])
	}
	return defs
}

// ListByCategory returns the definitions of category in declaration order.
// CategoryAll returns every definition.
func (r *Registry) ListByCategory(category WidgetCategory) []WidgetDefinition {
	all := r.ListAll()
	if category == CategoryAll {
		return all
	}
	defs := make([]WidgetDefinition, 0, len(all))
	for _, def := range all {
		if def.Category == category {
			defs = append(defs, def)
		}
	}
	return defs
}

// Categories returns the gallery categories in display order.
func (r *Registry) Categories() []WidgetCategoryDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]WidgetCategoryDefinition(nil), r.categories...)
}

// RendererMetadata returns manifest metadata recorded for a widget type.
func (r *Registry) RendererMetadata(widgetType WidgetType) (ManifestRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[widgetType]
	return meta, ok
}

func (r *Registry) recordRendererMetadata(widgetType WidgetType, meta ManifestRenderer) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[widgetType] = meta
}

func validateSizes(def WidgetDefinition) error {
	if def.MinSize.W <= 0 || def.MinSize.H <= 0 {
		return fmt.Errorf("dashboard: widget %s min size must be positive, got %dx%d", def.Type, def.MinSize.W, def.MinSize.H)
	}
	if def.DefaultSize.W < def.MinSize.W || def.DefaultSize.H < def.MinSize.H {
		return fmt.Errorf("dashboard: widget %s default size %dx%d is below min size %dx%d",
			def.Type, def.DefaultSize.W, def.DefaultSize.H, def.MinSize.W, def.MinSize.H)
	}
	if def.DefaultSize.W > GridColumns {
		return fmt.Errorf("dashboard: widget %s default width %d exceeds %d columns", def.Type, def.DefaultSize.W, GridColumns)
	}
	if def.MaxSize != nil && (def.DefaultSize.W > def.MaxSize.W || def.DefaultSize.H > def.MaxSize.H) {
		return fmt.Errorf("dashboard: widget %s default size %dx%d exceeds max size %dx%d",
			def.Type, def.DefaultSize.W, def.DefaultSize.H, def.MaxSize.W, def.MaxSize.H)
	}
	return nil
}
