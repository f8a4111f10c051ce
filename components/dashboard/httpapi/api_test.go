package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-loi-dashboard/components/dashboard"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T, R any] struct {
	last   T
	result R
}

func (s *stubQuerier[T, R]) Query(_ context.Context, msg T) (R, error) {
	s.last = msg
	return s.result, nil
}

func TestHandleAddWidget(t *testing.T) {
	add := &stubCommander[commands.AddWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{Add: add}}
	req := httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(`{"type":"chart"}`))
	req.Header.Set(HeaderActorID, "user-7")
	rec := httptest.NewRecorder()
	api.HandleAddWidget(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if add.calls != 1 || add.last.Type != dashboard.WidgetChart {
		t.Fatalf("expected add to execute with type, got %+v", add.last)
	}
	if add.last.Actor.ActorID != "user-7" {
		t.Fatalf("expected actor from header, got %+v", add.last.Actor)
	}
}

func TestHandleAddWidgetBadJSON(t *testing.T) {
	add := &stubCommander[commands.AddWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{Add: add}}
	rec := httptest.NewRecorder()
	api.HandleAddWidget(rec, httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if add.calls != 0 {
		t.Fatalf("command should not run on bad payload")
	}
}

func TestHandleRemoveWidget(t *testing.T) {
	remove := &stubCommander[commands.RemoveWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{Remove: remove}}
	req := httptest.NewRequest(http.MethodDelete, "/widgets/w1", nil)
	rec := httptest.NewRecorder()
	api.HandleRemoveWidget(rec, req, "w1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if remove.last.WidgetID != "w1" {
		t.Fatalf("expected widget id propagation")
	}
}

func TestHandleConfigureWidget(t *testing.T) {
	configure := &stubCommander[commands.ConfigureWidgetInput]{}
	api := &Handlers{API: &CommandExecutor{Configure: configure}}
	buf, _ := json.Marshal(dashboard.WidgetConfig{MetricType: dashboard.MetricBacklog})
	rec := httptest.NewRecorder()
	api.HandleConfigureWidget(rec, httptest.NewRequest(http.MethodPut, "/widgets/w1", bytes.NewReader(buf)), "w1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if configure.last.WidgetID != "w1" || configure.last.Config.MetricType != dashboard.MetricBacklog {
		t.Fatalf("unexpected input %+v", configure.last)
	}
}

func TestHandleLayout(t *testing.T) {
	layout := &stubCommander[commands.ApplyLayoutInput]{}
	api := &Handlers{API: &CommandExecutor{Layout: layout}}
	body := `{"layout":[{"i":"w1","x":3,"y":0,"w":3,"h":2}]}`
	rec := httptest.NewRecorder()
	api.HandleLayout(rec, httptest.NewRequest(http.MethodPost, "/layout", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(layout.last.Items) != 1 || layout.last.Items[0].X != 3 {
		t.Fatalf("unexpected layout %+v", layout.last.Items)
	}
}

func TestHandleEditModeMapsErrors(t *testing.T) {
	edit := &stubCommander[commands.EditModeInput]{err: errors.New("boom")}
	api := &Handlers{API: &CommandExecutor{Edit: edit}}
	rec := httptest.NewRecorder()
	api.HandleEditMode(rec, httptest.NewRequest(http.MethodPost, "/edit/enter", nil), "enter")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if edit.last.Action != commands.EditEnter {
		t.Fatalf("expected enter action, got %q", edit.last.Action)
	}
}

func TestHandleDashboardLifecycle(t *testing.T) {
	create := &stubCommander[commands.CreateDashboardInput]{}
	load := &stubCommander[commands.DashboardRef]{}
	del := &stubCommander[commands.DashboardRef]{}
	save := &stubCommander[commands.SaveDashboardInput]{}
	api := &Handlers{API: &CommandExecutor{Create: create, Load: load, Delete: del, Save: save}}

	rec := httptest.NewRecorder()
	api.HandleCreateDashboard(rec, httptest.NewRequest(http.MethodPost, "/dashboards", strings.NewReader(`{"name":"Ops"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ops", create.last.Name)

	rec = httptest.NewRecorder()
	api.HandleLoadDashboard(rec, httptest.NewRequest(http.MethodPost, "/dashboards/d1/load", nil), "d1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d1", load.last.DashboardID)

	rec = httptest.NewRecorder()
	api.HandleSaveDashboard(rec, httptest.NewRequest(http.MethodPost, "/dashboards/save", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	api.HandleDeleteDashboard(rec, httptest.NewRequest(http.MethodDelete, "/dashboards/d1", nil), "d1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, del.calls)
}

func TestHandlePreferencesAndMetrics(t *testing.T) {
	prefs := &stubCommander[commands.SetPreferencesInput]{}
	metrics := &stubCommander[commands.UpdateMetricDataInput]{}
	api := &Handlers{API: &CommandExecutor{Prefs: prefs, Metrics: metrics}}

	rec := httptest.NewRecorder()
	api.HandlePreferences(rec, httptest.NewRequest(http.MethodPatch, "/preferences", strings.NewReader(`{"theme":"dark"}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, prefs.last.Update.Theme)
	assert.Equal(t, dashboard.ThemeDark, *prefs.last.Update.Theme)

	rec = httptest.NewRecorder()
	api.HandleMetricData(rec, httptest.NewRequest(http.MethodPost, "/metrics", strings.NewReader(`{"metricType":"backlog","value":187}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 187.0, metrics.last.Data.Value)
}

func TestHandleQueries(t *testing.T) {
	view := &stubQuerier[queries.ViewInput, dashboard.DashboardView]{result: dashboard.DashboardView{ID: "default"}}
	gallery := &stubQuerier[queries.GalleryInput, dashboard.Gallery]{}
	catalog := &stubQuerier[queries.CatalogInput, queries.Catalog]{}
	api := &Handlers{View: view, Gallery: gallery, Catalog: catalog}

	rec := httptest.NewRecorder()
	api.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard?locale=th", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "th", view.last.Locale)
	assert.Contains(t, rec.Body.String(), `"id":"default"`)

	rec = httptest.NewRecorder()
	api.HandleGallery(rec, httptest.NewRequest(http.MethodGet, "/gallery?q=chart&category=analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chart", gallery.last.Query)
	assert.Equal(t, dashboard.CategoryAnalytics, gallery.last.Category)

	rec = httptest.NewRecorder()
	api.HandleCatalog(rec, httptest.NewRequest(http.MethodGet, "/metrics/catalog?category=quality", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dashboard.MetricCategoryQuality, catalog.last.Category)
}

func TestUnconfiguredHandlersReturn501(t *testing.T) {
	api := &Handlers{}
	rec := httptest.NewRecorder()
	api.HandleSaveDashboard(rec, httptest.NewRequest(http.MethodPost, "/dashboards/save", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = httptest.NewRecorder()
	api.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		dashboard.ErrEditModeRequired:                             http.StatusConflict,
		fmt.Errorf("%w: radar", dashboard.ErrInvalidConfig):       http.StatusUnprocessableEntity,
		fmt.Errorf("%w: table", dashboard.ErrNotConfigurable):     http.StatusUnprocessableEntity,
		fmt.Errorf("%w: heatmap", dashboard.ErrUnknownWidgetType): http.StatusBadRequest,
		dashboard.ErrNoCurrentDashboard:                           http.StatusNotFound,
		errors.New("unexpected"):                                  http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

type stubPage struct{}

func (stubPage) RenderTemplate(_ context.Context, locale string, out io.Writer) error {
	_, err := io.WriteString(out, "<main>"+locale+"</main>")
	return err
}

func TestHandlePage(t *testing.T) {
	api := &Handlers{Page: stubPage{}}
	rec := httptest.NewRecorder()
	api.HandlePage(rec, httptest.NewRequest(http.MethodGet, "/?locale=th", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<main>th</main>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestAddWidgetOutsideEditModeIsConflict(t *testing.T) {
	ctx := context.Background()
	store := dashboard.NewStore(ctx, dashboard.StoreOptions{})
	controller := dashboard.NewController(dashboard.ControllerOptions{Store: store})
	api := &Handlers{API: &CommandExecutor{Add: commands.NewAddWidgetCommand(controller, nil)}}

	rec := httptest.NewRecorder()
	api.HandleAddWidget(rec, httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(`{"type":"chart"}`)))
	require.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, controller.EnterEditMode(ctx))
	rec = httptest.NewRecorder()
	api.HandleAddWidget(rec, httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(`{"type":"chart"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dashboard.WidgetInstance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, dashboard.WidgetChart, created.Type)
	assert.NotEmpty(t, created.ID)
}
