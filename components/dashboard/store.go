package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IDGenerator produces collision-resistant identifiers.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator builds ids of the form "<prefix>-<uuid>".
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// RemoteDashboards is the optional upstream the store consults when a
// dashboard is not held locally and pushes to on save.
type RemoteDashboards interface {
	FetchDashboard(ctx context.Context, id string) (DashboardLayout, bool, error)
	PushDashboard(ctx context.Context, layout DashboardLayout) error
}

// StoreOptions configures a Store. Every field is optional.
type StoreOptions struct {
	Persister  Persister
	StorageKey string
	Remote     RemoteDashboards
	Hooks      ChangeHook
	Telemetry  Telemetry
	Logger     *zap.Logger
	Clock      func() time.Time
	IDs        IDGenerator
}

// StoreSnapshot is a point-in-time copy of the whole store state.
type StoreSnapshot struct {
	CurrentDashboard *DashboardLayout          `json:"currentDashboard"`
	Dashboards       []DashboardLayout         `json:"dashboards"`
	IsEditMode       bool                      `json:"isEditMode"`
	Preferences      UserPreferences           `json:"preferences"`
	MetricsData      map[MetricType]MetricData `json:"metricsData"`
	IsLoading        bool                      `json:"isLoading"`
	IsSaving         bool                      `json:"isSaving"`
}

// Store owns the dashboards of one user session. Every mutation runs under a
// single lock; readers receive copies and never alias store state. The current
// dashboard is addressed by id inside the dashboards collection, so the
// current view and its collection entry cannot diverge.
type Store struct {
	opts StoreOptions
	log  *zap.Logger

	mu         sync.Mutex
	dashboards []DashboardLayout
	currentID  string
	editMode   bool
	prefs      UserPreferences
	metrics    map[MetricType]MetricData
	loading    bool
	saving     bool
}

// NewStore builds a store and restores persisted state. Missing or corrupt
// payloads fall back to the default dashboard and default preferences.
func NewStore(ctx context.Context, opts StoreOptions) *Store {
	if opts.StorageKey == "" {
		opts.StorageKey = StorageKey
	}
	if opts.Hooks == nil {
		opts.Hooks = noopChangeHook{}
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.IDs == nil {
		opts.IDs = UUIDGenerator{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	s := &Store{
		opts:    opts,
		log:     normalizeLogger(opts.Logger),
		metrics: map[MetricType]MetricData{},
	}
	s.restore(ctx)
	return s
}

func (s *Store) restore(ctx context.Context) {
	s.resetDefaults()
	if s.opts.Persister == nil {
		return
	}
	payload, err := s.opts.Persister.Load(ctx, s.opts.StorageKey)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		s.log.Warn("dashboard state load failed, using defaults", zap.String("key", s.opts.StorageKey), zap.Error(err))
		return
	}
	state, err := DecodeState(payload)
	if err != nil {
		s.log.Warn("dashboard state corrupt, using defaults", zap.String("key", s.opts.StorageKey), zap.Error(err))
		return
	}
	s.applyState(state)
}

func (s *Store) resetDefaults() {
	layout := DefaultLayout(s.opts.Clock())
	s.dashboards = []DashboardLayout{layout}
	s.currentID = layout.ID
	s.prefs = DefaultPreferences()
}

func (s *Store) applyState(state PersistedState) {
	dashboards := make([]DashboardLayout, 0, len(state.Dashboards)+1)
	for _, d := range state.Dashboards {
		dashboards = append(dashboards, d.Clone())
	}
	currentID := ""
	if state.CurrentDashboard != nil {
		current := state.CurrentDashboard.Clone()
		currentID = current.ID
		if idx := indexOf(dashboards, current.ID); idx >= 0 {
			dashboards[idx] = current
		} else {
			dashboards = append(dashboards, current)
		}
	}
	if len(dashboards) == 0 {
		layout := DefaultLayout(s.opts.Clock())
		dashboards = append(dashboards, layout)
		currentID = layout.ID
	}
	s.dashboards = dashboards
	s.currentID = currentID
	if state.Preferences != nil {
		s.prefs = state.Preferences.Clone()
	}
}

// CurrentDashboard returns a copy of the current dashboard.
func (s *Store) CurrentDashboard() (DashboardLayout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.currentIndexLocked()
	if idx < 0 {
		return DashboardLayout{}, false
	}
	return s.dashboards[idx].Clone(), true
}

// Dashboards returns copies of every dashboard.
func (s *Store) Dashboards() []DashboardLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDashboards(s.dashboards)
}

// Dashboard returns a copy of the dashboard with id.
func (s *Store) Dashboard(id string) (DashboardLayout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.dashboards, id)
	if idx < 0 {
		return DashboardLayout{}, false
	}
	return s.dashboards[idx].Clone(), true
}

func (s *Store) IsEditMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editMode
}

func (s *Store) Preferences() UserPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}

// MetricData returns the cached observation for metricType.
func (s *Store) MetricData(metricType MetricType) (MetricData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.metrics[metricType]
	if !ok {
		return MetricData{}, false
	}
	return data.Clone(), true
}

// MetricsData returns a copy of the metrics cache.
func (s *Store) MetricsData() map[MetricType]MetricData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsLocked()
}

func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Snapshot returns a copy of the full store state.
func (s *Store) Snapshot() StoreSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StoreSnapshot{
		Dashboards:  cloneDashboards(s.dashboards),
		IsEditMode:  s.editMode,
		Preferences: s.prefs.Clone(),
		MetricsData: s.metricsLocked(),
		IsLoading:   s.loading,
		IsSaving:    s.saving,
	}
	if idx := s.currentIndexLocked(); idx >= 0 {
		current := s.dashboards[idx].Clone()
		snap.CurrentDashboard = &current
	}
	return snap
}

// PersistedState returns the subset of state written to the persister.
func (s *Store) PersistedState() PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistedLocked()
}

// SetEditMode toggles edit mode. Widget data is untouched and nothing is
// persisted.
func (s *Store) SetEditMode(ctx context.Context, enabled bool) {
	s.mu.Lock()
	s.editMode = enabled
	event := s.eventLocked(ctx, ReasonEditMode, "")
	s.mu.Unlock()
	s.notify(ctx, event)
}

// AddWidget appends w to the current dashboard. Ids are not deduplicated;
// callers supply unique ids.
func (s *Store) AddWidget(ctx context.Context, w WidgetInstance) {
	s.updateCurrent(ctx, ReasonWidgetAdd, w.ID, func(d *DashboardLayout) bool {
		d.Widgets = append(d.Widgets, w.Clone())
		return true
	})
}

// AppendWidget appends the widget build returns for the current dashboard.
// build runs under the store lock so placement sees every earlier append; it
// must not call back into the store.
func (s *Store) AppendWidget(ctx context.Context, build func(DashboardLayout) WidgetInstance) (WidgetInstance, bool) {
	var added WidgetInstance
	applied := false
	s.updateCurrentWith(ctx, ReasonWidgetAdd, func(d *DashboardLayout) (string, bool) {
		added = build(d.Clone()).Clone()
		d.Widgets = append(d.Widgets, added.Clone())
		applied = true
		return added.ID, true
	})
	return added, applied
}

// RemoveWidget drops the widget with id from the current dashboard. Unknown
// ids are a no-op.
func (s *Store) RemoveWidget(ctx context.Context, id string) {
	s.updateCurrent(ctx, ReasonWidgetRemove, id, func(d *DashboardLayout) bool {
		idx := widgetIndex(d.Widgets, id)
		if idx < 0 {
			return false
		}
		d.Widgets = append(d.Widgets[:idx:idx], d.Widgets[idx+1:]...)
		return true
	})
}

// UpdateWidget merges update into the widget with id. Unknown ids are a no-op.
func (s *Store) UpdateWidget(ctx context.Context, id string, update WidgetUpdate) {
	s.updateCurrent(ctx, ReasonWidgetUpdate, id, func(d *DashboardLayout) bool {
		idx := widgetIndex(d.Widgets, id)
		if idx < 0 {
			return false
		}
		d.Widgets[idx] = update.apply(d.Widgets[idx])
		return true
	})
}

// UpdateLayout replaces the grid snapshot of the current dashboard.
func (s *Store) UpdateLayout(ctx context.Context, items []GridItem) {
	s.updateCurrent(ctx, ReasonLayoutUpdate, "", func(d *DashboardLayout) bool {
		d.Layouts = append(make([]GridItem, 0, len(items)), items...)
		return true
	})
}

// SettleLayout replaces widget positions and the grid snapshot of the current
// dashboard with the items settle returns. settle runs under the store lock
// and must not call back into the store. Items naming no widget are dropped.
func (s *Store) SettleLayout(ctx context.Context, settle func(DashboardLayout) []GridItem) bool {
	applied := false
	s.updateCurrent(ctx, ReasonLayoutUpdate, "", func(d *DashboardLayout) bool {
		settled := settle(d.Clone())
		layouts := make([]GridItem, 0, len(settled))
		for _, item := range settled {
			idx := widgetIndex(d.Widgets, item.I)
			if idx < 0 {
				continue
			}
			d.Widgets[idx].Position = item.Position()
			layouts = append(layouts, item)
		}
		d.Layouts = layouts
		applied = true
		return true
	})
	return applied
}

// LoadDashboard makes the dashboard with id current. Local dashboards win; on
// a miss the remote is consulted. A dashboard found nowhere leaves the current
// dashboard unchanged. Failures are logged, never returned.
func (s *Store) LoadDashboard(ctx context.Context, id string) {
	s.mu.Lock()
	s.loading = true
	found := indexOf(s.dashboards, id) >= 0
	var event StoreEvent
	if found {
		s.currentID = id
		s.flushLocked(ctx)
		event = s.eventLocked(ctx, ReasonDashboardLoad, "")
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if found {
		s.notify(ctx, event)
		return
	}
	if s.opts.Remote != nil {
		layout, ok, err := s.opts.Remote.FetchDashboard(ctx, id)
		if err != nil {
			s.log.Error("dashboard remote fetch failed", zap.String("dashboard_id", id), zap.Error(err))
		} else if ok {
			s.mu.Lock()
			s.upsertLocked(layout)
			s.currentID = layout.ID
			s.flushLocked(ctx)
			event = s.eventLocked(ctx, ReasonDashboardLoad, "")
			s.mu.Unlock()
			s.notify(ctx, event)
			return
		}
	}
	s.log.Warn("dashboard not found", zap.String("dashboard_id", id))
}

// SaveDashboard flushes the current dashboard and pushes it to the remote
// when one is configured. Failures are logged, never returned.
func (s *Store) SaveDashboard(ctx context.Context) {
	s.mu.Lock()
	s.saving = true
	idx := s.currentIndexLocked()
	var current DashboardLayout
	if idx >= 0 {
		current = s.dashboards[idx].Clone()
		s.flushLocked(ctx)
	}
	event := s.eventLocked(ctx, ReasonDashboardSave, "")
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	if idx < 0 {
		return
	}
	if s.opts.Remote != nil {
		if err := s.opts.Remote.PushDashboard(ctx, current); err != nil {
			s.log.Error("dashboard remote save failed", zap.String("dashboard_id", current.ID), zap.Error(err))
		}
	}
	s.notify(ctx, event)
}

// CreateDashboard appends an empty dashboard named name and makes it current.
func (s *Store) CreateDashboard(ctx context.Context, name string) DashboardLayout {
	s.mu.Lock()
	now := s.opts.Clock()
	layout := DashboardLayout{
		ID:        s.opts.IDs.NewID("dashboard"),
		Name:      name,
		UserID:    s.prefs.UserID,
		Layouts:   []GridItem{},
		Widgets:   []WidgetInstance{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.dashboards = append(s.dashboards, layout)
	s.currentID = layout.ID
	s.flushLocked(ctx)
	event := s.eventLocked(ctx, ReasonDashboardCreate, "")
	s.mu.Unlock()
	s.notify(ctx, event)
	return layout.Clone()
}

// DeleteDashboard removes the dashboard with id. Deleting the current
// dashboard moves to the first remaining one; deleting the last one restores
// the built-in default layout. Unknown ids are a no-op.
func (s *Store) DeleteDashboard(ctx context.Context, id string) {
	s.mu.Lock()
	idx := indexOf(s.dashboards, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.dashboards = append(s.dashboards[:idx:idx], s.dashboards[idx+1:]...)
	if len(s.dashboards) == 0 {
		s.dashboards = []DashboardLayout{DefaultLayout(s.opts.Clock())}
		s.currentID = DefaultDashboardID
	} else if s.currentID == id {
		s.currentID = s.dashboards[0].ID
	}
	s.flushLocked(ctx)
	event := s.eventLocked(ctx, ReasonDashboardDelete, "")
	event.DashboardID = id
	s.mu.Unlock()
	s.notify(ctx, event)
}

// RestoreDashboard replaces the stored copy of layout and makes it current.
func (s *Store) RestoreDashboard(ctx context.Context, layout DashboardLayout) {
	s.mu.Lock()
	s.upsertLocked(layout)
	s.currentID = layout.ID
	s.flushLocked(ctx)
	event := s.eventLocked(ctx, ReasonDashboardRestore, "")
	s.mu.Unlock()
	s.notify(ctx, event)
}

// SetPreferences shallow-merges update into the preferences.
func (s *Store) SetPreferences(ctx context.Context, update PreferencesUpdate) {
	s.mu.Lock()
	s.prefs = update.Apply(s.prefs)
	s.flushLocked(ctx)
	event := s.eventLocked(ctx, ReasonPreferencesUpdate, "")
	s.mu.Unlock()
	s.notify(ctx, event)
}

// UpdateMetricData replaces the cache entry for metricType. The cache is not
// persisted and has no eviction.
func (s *Store) UpdateMetricData(ctx context.Context, metricType MetricType, data MetricData) {
	s.mu.Lock()
	if data.MetricType == "" {
		data.MetricType = metricType
	}
	s.metrics[metricType] = data.Clone()
	event := s.eventLocked(ctx, ReasonMetricsUpdate, "")
	event.MetricType = metricType
	s.mu.Unlock()
	s.notify(ctx, event)
}

func (s *Store) updateCurrent(ctx context.Context, reason, widgetID string, fn func(*DashboardLayout) bool) {
	s.updateCurrentWith(ctx, reason, func(d *DashboardLayout) (string, bool) {
		return widgetID, fn(d)
	})
}

func (s *Store) updateCurrentWith(ctx context.Context, reason string, fn func(*DashboardLayout) (string, bool)) {
	s.mu.Lock()
	idx := s.currentIndexLocked()
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	widgetID, changed := fn(&s.dashboards[idx])
	if !changed {
		s.mu.Unlock()
		return
	}
	s.dashboards[idx].UpdatedAt = s.opts.Clock()
	s.flushLocked(ctx)
	event := s.eventLocked(ctx, reason, widgetID)
	s.mu.Unlock()
	s.notify(ctx, event)
}

func (s *Store) upsertLocked(layout DashboardLayout) {
	layout = layout.Clone()
	if idx := indexOf(s.dashboards, layout.ID); idx >= 0 {
		s.dashboards[idx] = layout
		return
	}
	s.dashboards = append(s.dashboards, layout)
}

func (s *Store) currentIndexLocked() int {
	if s.currentID == "" {
		return -1
	}
	return indexOf(s.dashboards, s.currentID)
}

func (s *Store) persistedLocked() PersistedState {
	prefs := s.prefs.Clone()
	state := PersistedState{
		Dashboards:  cloneDashboards(s.dashboards),
		Preferences: &prefs,
	}
	if idx := s.currentIndexLocked(); idx >= 0 {
		current := s.dashboards[idx].Clone()
		state.CurrentDashboard = &current
	}
	return state
}

func (s *Store) metricsLocked() map[MetricType]MetricData {
	out := make(map[MetricType]MetricData, len(s.metrics))
	for k, v := range s.metrics {
		out[k] = v.Clone()
	}
	return out
}

func (s *Store) flushLocked(ctx context.Context) {
	if s.opts.Persister == nil {
		return
	}
	payload, err := EncodeState(s.persistedLocked())
	if err != nil {
		s.log.Error("dashboard state encode failed", zap.Error(err))
		return
	}
	if err := s.opts.Persister.Save(ctx, s.opts.StorageKey, payload); err != nil {
		s.log.Error("dashboard state flush failed", zap.String("key", s.opts.StorageKey), zap.Error(err))
	}
}

func (s *Store) eventLocked(ctx context.Context, reason, widgetID string) StoreEvent {
	return StoreEvent{
		Reason:      reason,
		DashboardID: s.currentID,
		WidgetID:    widgetID,
		EditMode:    s.editMode,
		Actor:       ActivityFromContext(ctx),
		OccurredAt:  s.opts.Clock(),
	}
}

func (s *Store) notify(ctx context.Context, event StoreEvent) {
	if err := s.opts.Hooks.DashboardChanged(ctx, event); err != nil {
		s.log.Warn("dashboard change hook failed", zap.String("reason", event.Reason), zap.Error(err))
	}
	payload := map[string]any{"dashboard_id": event.DashboardID}
	if event.WidgetID != "" {
		payload["widget_id"] = event.WidgetID
	}
	if event.MetricType != "" {
		payload["metric_type"] = string(event.MetricType)
	}
	s.opts.Telemetry.Record(ctx, "dashboard."+event.Reason, payload)
}

func indexOf(dashboards []DashboardLayout, id string) int {
	for i, d := range dashboards {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func widgetIndex(widgets []WidgetInstance, id string) int {
	for i, w := range widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func cloneDashboards(dashboards []DashboardLayout) []DashboardLayout {
	out := make([]DashboardLayout, len(dashboards))
	for i, d := range dashboards {
		out[i] = d.Clone()
	}
	return out
}
