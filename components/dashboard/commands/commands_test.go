package commands

import (
	"context"
	"errors"
	"testing"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

func TestAddWidgetCommand(t *testing.T) {
	controller := &stubController{}
	telemetry := &stubTelemetry{}
	cmd := NewAddWidgetCommand(controller, telemetry)
	var created dashboard.WidgetInstance
	err := cmd.Execute(context.Background(), AddWidgetInput{
		Type:   dashboard.WidgetChart,
		Actor:  Actor{ActorID: "user-1"},
		Result: &created,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if controller.addCalls != 1 {
		t.Fatalf("expected add call")
	}
	if created.ID != "widget-1" {
		t.Fatalf("expected result to be filled, got %+v", created)
	}
	if controller.lastActor.ActorID != "user-1" {
		t.Fatalf("expected actor on context, got %+v", controller.lastActor)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry event")
	}
}

func TestAddWidgetCommandValidation(t *testing.T) {
	if err := NewAddWidgetCommand(nil, nil).Execute(context.Background(), AddWidgetInput{Type: dashboard.WidgetChart}); err == nil {
		t.Fatalf("expected error without controller")
	}
	controller := &stubController{}
	if err := NewAddWidgetCommand(controller, nil).Execute(context.Background(), AddWidgetInput{}); err == nil {
		t.Fatalf("expected error without widget type")
	}
	if controller.addCalls != 0 {
		t.Fatalf("controller should not be called")
	}
}

func TestAddWidgetCommandPropagatesControllerError(t *testing.T) {
	telemetry := &stubTelemetry{}
	controller := &stubController{err: dashboard.ErrEditModeRequired}
	err := NewAddWidgetCommand(controller, telemetry).Execute(context.Background(), AddWidgetInput{Type: dashboard.WidgetChart})
	if !errors.Is(err, dashboard.ErrEditModeRequired) {
		t.Fatalf("expected edit mode error, got %v", err)
	}
	if telemetry.calls != 0 {
		t.Fatalf("failed commands must not record telemetry")
	}
}

func TestRemoveWidgetCommand(t *testing.T) {
	controller := &stubController{}
	cmd := NewRemoveWidgetCommand(controller, nil)
	if err := cmd.Execute(context.Background(), RemoveWidgetInput{WidgetID: "widget-1"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if controller.removeCalls != 1 {
		t.Fatalf("expected remove call")
	}
	if err := cmd.Execute(context.Background(), RemoveWidgetInput{}); err == nil {
		t.Fatalf("expected error without widget id")
	}
}

func TestConfigureWidgetCommand(t *testing.T) {
	controller := &stubController{}
	cmd := NewConfigureWidgetCommand(controller, nil)
	cfg := dashboard.WidgetConfig{MetricType: dashboard.MetricOCRConfidence, ChartType: dashboard.ChartLine}
	if err := cmd.Execute(context.Background(), ConfigureWidgetInput{WidgetID: "widget-1", Config: cfg}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if controller.configureCalls != 1 || controller.lastConfig.MetricType != dashboard.MetricOCRConfidence {
		t.Fatalf("expected configure call with config, got %+v", controller.lastConfig)
	}
}

func TestApplyLayoutCommand(t *testing.T) {
	controller := &stubController{}
	telemetry := &stubTelemetry{}
	cmd := NewApplyLayoutCommand(controller, telemetry)
	items := []dashboard.GridItem{{I: "widget-1", X: 3, Y: 0, W: 3, H: 2}}
	if err := cmd.Execute(context.Background(), ApplyLayoutInput{Items: items}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if controller.layoutCalls != 1 {
		t.Fatalf("expected layout call")
	}
	if telemetry.last["applied"] != true {
		t.Fatalf("expected applied flag in telemetry, got %+v", telemetry.last)
	}
}

func TestEditModeCommand(t *testing.T) {
	controller := &stubController{}
	cmd := NewEditModeCommand(controller, nil)
	for _, action := range []EditAction{EditEnter, EditSave, EditCancel} {
		if err := cmd.Execute(context.Background(), EditModeInput{Action: action}); err != nil {
			t.Fatalf("Execute(%s) returned error: %v", action, err)
		}
	}
	if controller.enterCalls != 1 || controller.saveCalls != 1 || controller.cancelCalls != 1 {
		t.Fatalf("unexpected calls: %+v", controller)
	}
	if err := cmd.Execute(context.Background(), EditModeInput{Action: "toggle"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if err := cmd.Execute(context.Background(), EditModeInput{}); err == nil {
		t.Fatalf("expected error for missing action")
	}
}

func TestDashboardCommands(t *testing.T) {
	store := &stubStore{}
	ctx := context.Background()

	var created dashboard.DashboardLayout
	if err := NewCreateDashboardCommand(store, nil).Execute(ctx, CreateDashboardInput{Name: "  Ops  ", Result: &created}); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.Name != "Ops" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if err := NewCreateDashboardCommand(store, nil).Execute(ctx, CreateDashboardInput{Name: " "}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := NewLoadDashboardCommand(store, nil).Execute(ctx, DashboardRef{DashboardID: created.ID}); err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if err := NewSaveDashboardCommand(store, nil).Execute(ctx, SaveDashboardInput{}); err != nil {
		t.Fatalf("save returned error: %v", err)
	}
	if err := NewDeleteDashboardCommand(store, nil).Execute(ctx, DashboardRef{DashboardID: created.ID}); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if err := NewDeleteDashboardCommand(store, nil).Execute(ctx, DashboardRef{}); err == nil {
		t.Fatalf("expected error without dashboard id")
	}
	if store.created != 1 || store.loaded != 1 || store.saved != 1 || store.deleted != 1 {
		t.Fatalf("unexpected store calls: %+v", store)
	}
	if err := NewSaveDashboardCommand(nil, nil).Execute(ctx, SaveDashboardInput{}); err == nil {
		t.Fatalf("expected error without store")
	}
}

func TestSetPreferencesCommand(t *testing.T) {
	store := &stubStore{}
	cmd := NewSetPreferencesCommand(store, nil)
	dark := dashboard.ThemeDark
	if err := cmd.Execute(context.Background(), SetPreferencesInput{Update: dashboard.PreferencesUpdate{Theme: &dark}}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if store.preferences != 1 {
		t.Fatalf("expected preferences call")
	}
	if err := cmd.Execute(context.Background(), SetPreferencesInput{}); err == nil {
		t.Fatalf("expected error for empty update")
	}
	neon := dashboard.Theme("neon")
	if err := cmd.Execute(context.Background(), SetPreferencesInput{Update: dashboard.PreferencesUpdate{Theme: &neon}}); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
}

func TestUpdateMetricDataCommand(t *testing.T) {
	store := &stubStore{}
	cmd := NewUpdateMetricDataCommand(store, nil)
	data := dashboard.MetricData{MetricType: dashboard.MetricBacklog, Value: 187}
	if err := cmd.Execute(context.Background(), UpdateMetricDataInput{Data: data}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if store.metrics != 1 {
		t.Fatalf("expected metrics call")
	}
	if err := cmd.Execute(context.Background(), UpdateMetricDataInput{}); err == nil {
		t.Fatalf("expected error without metric type")
	}
}

func TestSeedDashboardCommand(t *testing.T) {
	ctx := context.Background()
	store := dashboard.NewStore(ctx, dashboard.StoreOptions{})
	telemetry := &stubTelemetry{}
	cmd := NewSeedDashboardCommand(store, dashboard.NewRegistry(), nil, telemetry)

	var added int
	if err := cmd.Execute(ctx, SeedDashboardInput{Added: &added}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if added != len(dashboard.DefaultSeedWidgets()) {
		t.Fatalf("expected %d widgets, got %d", len(dashboard.DefaultSeedWidgets()), added)
	}
	if telemetry.calls == 0 {
		t.Fatalf("expected telemetry to record events")
	}

	if err := cmd.Execute(ctx, SeedDashboardInput{Added: &added}); err != nil {
		t.Fatalf("second Execute returned error: %v", err)
	}
	if added != 0 {
		t.Fatalf("expected populated dashboard to be skipped, got %d", added)
	}
}

type stubController struct {
	err            error
	addCalls       int
	removeCalls    int
	configureCalls int
	layoutCalls    int
	enterCalls     int
	saveCalls      int
	cancelCalls    int
	lastConfig     dashboard.WidgetConfig
	lastActor      dashboard.ActivityContext
}

func (s *stubController) AddWidget(ctx context.Context, widgetType dashboard.WidgetType) (dashboard.WidgetInstance, error) {
	s.addCalls++
	s.lastActor = dashboard.ActivityFromContext(ctx)
	if s.err != nil {
		return dashboard.WidgetInstance{}, s.err
	}
	return dashboard.WidgetInstance{ID: "widget-1", Type: widgetType}, nil
}

func (s *stubController) RemoveWidget(context.Context, string) error {
	s.removeCalls++
	return s.err
}

func (s *stubController) ConfigureWidget(_ context.Context, _ string, cfg dashboard.WidgetConfig) error {
	s.configureCalls++
	s.lastConfig = cfg
	return s.err
}

func (s *stubController) ApplyLayoutChange(context.Context, []dashboard.GridItem) (bool, error) {
	s.layoutCalls++
	return s.err == nil, s.err
}

func (s *stubController) EnterEditMode(context.Context) error {
	s.enterCalls++
	return s.err
}

func (s *stubController) SaveAndExit(context.Context) error {
	s.saveCalls++
	return s.err
}

func (s *stubController) CancelEdit(context.Context) error {
	s.cancelCalls++
	return s.err
}

type stubStore struct {
	created     int
	deleted     int
	loaded      int
	saved       int
	preferences int
	metrics     int
}

func (s *stubStore) CreateDashboard(_ context.Context, name string) dashboard.DashboardLayout {
	s.created++
	return dashboard.DashboardLayout{ID: "dashboard-1", Name: name}
}

func (s *stubStore) DeleteDashboard(context.Context, string) { s.deleted++ }
func (s *stubStore) LoadDashboard(context.Context, string)   { s.loaded++ }
func (s *stubStore) SaveDashboard(context.Context)           { s.saved++ }

func (s *stubStore) SetPreferences(context.Context, dashboard.PreferencesUpdate) {
	s.preferences++
}

func (s *stubStore) UpdateMetricData(context.Context, dashboard.MetricType, dashboard.MetricData) {
	s.metrics++
}

type stubTelemetry struct {
	calls int
	last  map[string]any
}

func (s *stubTelemetry) Record(_ context.Context, _ string, payload map[string]any) {
	s.calls++
	s.last = payload
}
