package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-loi-dashboard/components/dashboard"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/queries"
)

// Request headers identifying the caller.
const (
	HeaderActorID  = "X-Actor-ID"
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

// PageRenderer writes the full dashboard page.
type PageRenderer interface {
	RenderTemplate(ctx context.Context, locale string, out io.Writer) error
}

// Handlers exposes HTTP endpoints backed by an Executor and shared queries.
// Unset fields answer 501.
type Handlers struct {
	API Executor

	View    gocommand.Querier[queries.ViewInput, dashboard.DashboardView]
	Gallery gocommand.Querier[queries.GalleryInput, dashboard.Gallery]
	Catalog gocommand.Querier[queries.CatalogInput, queries.Catalog]

	Page PageRenderer
}

var errNotConfigured = errors.New("httpapi: handler not configured")

// ActorFromRequest reads the caller identity headers.
func ActorFromRequest(r *http.Request) commands.Actor {
	return commands.Actor{
		ActorID:  r.Header.Get(HeaderActorID),
		UserID:   r.Header.Get(HeaderUserID),
		TenantID: r.Header.Get(HeaderTenantID),
	}
}

// StatusFor maps dashboard errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, dashboard.ErrEditModeRequired):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrInvalidConfig), errors.Is(err, dashboard.ErrNotConfigurable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dashboard.ErrUnknownWidgetType):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNoCurrentDashboard):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if h.View == nil {
		writeError(w, errNotConfigured)
		return
	}
	view, err := h.View.Query(r.Context(), queries.ViewInput{Locale: r.URL.Query().Get("locale")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if h.Page == nil {
		writeError(w, errNotConfigured)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Page.RenderTemplate(r.Context(), r.URL.Query().Get("locale"), w); err != nil {
		writeError(w, err)
	}
}

func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	if h.Gallery == nil {
		writeError(w, errNotConfigured)
		return
	}
	q := r.URL.Query()
	gallery, err := h.Gallery.Query(r.Context(), queries.GalleryInput{
		Query:    q.Get("q"),
		Category: dashboard.WidgetCategory(q.Get("category")),
		Locale:   q.Get("locale"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gallery)
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if h.Catalog == nil {
		writeError(w, errNotConfigured)
		return
	}
	q := r.URL.Query()
	catalog, err := h.Catalog.Query(r.Context(), queries.CatalogInput{
		Category: dashboard.MetricCategory(q.Get("category")),
		Locale:   q.Get("locale"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.AddWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	var created dashboard.WidgetInstance
	payload.Actor = ActorFromRequest(r)
	payload.Result = &created
	if !execute(w, r.Context(), h.api().AddWidget, payload) {
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	input := commands.RemoveWidgetInput{WidgetID: widgetID, Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().RemoveWidget, input) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleConfigureWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	var config dashboard.WidgetConfig
	if !decode(w, r, &config) {
		return
	}
	input := commands.ConfigureWidgetInput{WidgetID: widgetID, Config: config, Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().ConfigureWidget, input) {
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	var payload commands.ApplyLayoutInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Actor = ActorFromRequest(r)
	if execute(w, r.Context(), h.api().ApplyLayout, payload) {
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handlers) HandleEditMode(w http.ResponseWriter, r *http.Request, action string) {
	input := commands.EditModeInput{Action: commands.EditAction(action), Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().EditMode, input) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var payload commands.CreateDashboardInput
	if !decode(w, r, &payload) {
		return
	}
	var created dashboard.DashboardLayout
	payload.Actor = ActorFromRequest(r)
	payload.Result = &created
	if execute(w, r.Context(), h.api().CreateDashboard, payload) {
		writeJSON(w, http.StatusCreated, created)
	}
}

func (h *Handlers) HandleDeleteDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	input := commands.DashboardRef{DashboardID: dashboardID, Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().DeleteDashboard, input) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleLoadDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	input := commands.DashboardRef{DashboardID: dashboardID, Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().LoadDashboard, input) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleSaveDashboard(w http.ResponseWriter, r *http.Request) {
	if execute(w, r.Context(), h.api().SaveDashboard, commands.SaveDashboardInput{Actor: ActorFromRequest(r)}) {
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handlers) HandlePreferences(w http.ResponseWriter, r *http.Request) {
	var update dashboard.PreferencesUpdate
	if !decode(w, r, &update) {
		return
	}
	input := commands.SetPreferencesInput{Update: update, Actor: ActorFromRequest(r)}
	if execute(w, r.Context(), h.api().Preferences, input) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) HandleMetricData(w http.ResponseWriter, r *http.Request) {
	var data dashboard.MetricData
	if !decode(w, r, &data) {
		return
	}
	if execute(w, r.Context(), h.api().MetricData, commands.UpdateMetricDataInput{Data: data}) {
		w.WriteHeader(http.StatusAccepted)
	}
}

func (h *Handlers) api() Executor {
	if h.API == nil {
		return &CommandExecutor{}
	}
	return h.API
}

func execute[T any](w http.ResponseWriter, ctx context.Context, fn func(context.Context, T) error, msg T) bool {
	if err := fn(ctx, msg); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
