package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-loi-dashboard/components/dashboard"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/queries"
)

// ActorResolver extracts the caller identity from a router.Context.
type ActorResolver func(router.Context) commands.Actor

// Config wires go-router with the dashboard controller, API and hooks.
type Config[T any] struct {
	Router        router.Router[T]
	Controller    *dashboard.Controller
	API           httpapi.Executor
	Broadcast     *dashboard.BroadcastHook
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML        string
	View        string
	Gallery     string
	Catalog     string
	Widgets     string
	WidgetID    string
	WidgetCfg   string
	Layout      string
	Edit        string
	Dashboards  string
	DashboardID string
	Load        string
	Save        string
	Preferences string
	Metrics     string
	WebSocket   string
}

// Register mounts dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/loi"
	}
	actors := cfg.ActorResolver
	if actors == nil {
		actors = defaultActorResolver
	}

	group := cfg.Router.Group(base)
	registerViews(group, cfg.Controller, routes)
	if cfg.API != nil {
		registerAPI(group, cfg.API, actors, routes)
	}
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerViews[T any](r router.Router[T], controller *dashboard.Controller, routes RouteConfig) {
	view := queries.NewDashboardViewQuery(controller)
	gallery := queries.NewGalleryQuery(controller)
	catalog := queries.NewMetricCatalogQuery(controller)

	r.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		if err := controller.RenderTemplate(ctx.Context(), inferLocale(ctx), &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	r.Get(routes.View, router.WrapHandler(func(ctx router.Context) error {
		payload, err := view.Query(ctx.Context(), queries.ViewInput{Locale: inferLocale(ctx)})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	r.Get(routes.Gallery, router.WrapHandler(func(ctx router.Context) error {
		payload, err := gallery.Query(ctx.Context(), queries.GalleryInput{
			Query:    ctx.Query("q"),
			Category: dashboard.WidgetCategory(ctx.Query("category")),
			Locale:   inferLocale(ctx),
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	r.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		payload, err := catalog.Query(ctx.Context(), queries.CatalogInput{
			Category: dashboard.MetricCategory(ctx.Query("category")),
			Locale:   inferLocale(ctx),
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, actors ActorResolver, routes RouteConfig) {
	r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.AddWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var created dashboard.WidgetInstance
		payload.Actor = actors(ctx)
		payload.Result = &created
		if err := api.AddWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, created)
	}))

	r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := api.RemoveWidget(ctx.Context(), commands.RemoveWidgetInput{WidgetID: id, Actor: actors(ctx)}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
	}))

	r.Post(routes.WidgetCfg, router.WrapHandler(func(ctx router.Context) error {
		var config dashboard.WidgetConfig
		if err := json.Unmarshal(ctx.Body(), &config); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		input := commands.ConfigureWidgetInput{WidgetID: ctx.Param("id"), Config: config, Actor: actors(ctx)}
		if err := api.ConfigureWidget(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "configured"})
	}))

	r.Post(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ApplyLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.Actor = actors(ctx)
		if err := api.ApplyLayout(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "applied"})
	}))

	r.Post(routes.Edit, router.WrapHandler(func(ctx router.Context) error {
		input := commands.EditModeInput{Action: commands.EditAction(ctx.Param("action")), Actor: actors(ctx)}
		if err := api.EditMode(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": string(input.Action)})
	}))

	r.Post(routes.Dashboards, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.CreateDashboardInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var created dashboard.DashboardLayout
		payload.Actor = actors(ctx)
		payload.Result = &created
		if err := api.CreateDashboard(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, created)
	}))

	r.Delete(routes.DashboardID, router.WrapHandler(func(ctx router.Context) error {
		ref := commands.DashboardRef{DashboardID: ctx.Param("id"), Actor: actors(ctx)}
		if err := api.DeleteDashboard(ctx.Context(), ref); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	}))

	r.Post(routes.Load, router.WrapHandler(func(ctx router.Context) error {
		ref := commands.DashboardRef{DashboardID: ctx.Param("id"), Actor: actors(ctx)}
		if err := api.LoadDashboard(ctx.Context(), ref); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "loaded"})
	}))

	r.Post(routes.Save, router.WrapHandler(func(ctx router.Context) error {
		if err := api.SaveDashboard(ctx.Context(), commands.SaveDashboardInput{Actor: actors(ctx)}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "saved"})
	}))

	r.Post(routes.Preferences, router.WrapHandler(func(ctx router.Context) error {
		var update dashboard.PreferencesUpdate
		if err := json.Unmarshal(ctx.Body(), &update); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		input := commands.SetPreferencesInput{Update: update, Actor: actors(ctx)}
		if err := api.Preferences(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))

	r.Post(routes.Metrics, router.WrapHandler(func(ctx router.Context) error {
		var data dashboard.MetricData
		if err := json.Unmarshal(ctx.Body(), &data); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.MetricData(ctx.Context(), commands.UpdateMetricDataInput{Data: data}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(dashboard.EventFilter{})
		defer cancel()
		for {
			select {
			case msg, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(msg); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultActorResolver(ctx router.Context) commands.Actor {
	actor := commands.Actor{
		ActorID:  ctx.Header(httpapi.HeaderActorID),
		UserID:   ctx.Header(httpapi.HeaderUserID),
		TenantID: ctx.Header(httpapi.HeaderTenantID),
	}
	if v, ok := ctx.Locals("user_id").(string); ok && v != "" {
		actor.UserID = v
		if actor.ActorID == "" {
			actor.ActorID = v
		}
	}
	return actor
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return dashboard.LocaleThai
}

// parseAcceptLanguage returns the primary subtag of the first language range.
func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if idx := strings.Index(token, "-"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" && token != "*" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusFor(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/dashboard")
	set(&routes.View, "/dashboard/_view")
	set(&routes.Gallery, "/dashboard/gallery")
	set(&routes.Catalog, "/dashboard/metrics/catalog")
	set(&routes.Widgets, "/dashboard/widgets")
	set(&routes.WidgetID, "/dashboard/widgets/:id")
	set(&routes.WidgetCfg, "/dashboard/widgets/:id/config")
	set(&routes.Layout, "/dashboard/layout")
	set(&routes.Edit, "/dashboard/edit/:action")
	set(&routes.Dashboards, "/dashboards")
	set(&routes.DashboardID, "/dashboards/:id")
	set(&routes.Load, "/dashboards/:id/load")
	set(&routes.Save, "/dashboard/save")
	set(&routes.Preferences, "/dashboard/preferences")
	set(&routes.Metrics, "/dashboard/metrics")
	set(&routes.WebSocket, "/dashboard/ws")
	return routes
}
