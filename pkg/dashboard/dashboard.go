package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	router "github.com/goliatone/go-router"
	"go.uber.org/zap"

	core "github.com/goliatone/go-loi-dashboard/components/dashboard"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/gorouter"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-loi-dashboard/components/dashboard/queries"
	"github.com/goliatone/go-loi-dashboard/pkg/activity"
	"github.com/goliatone/go-loi-dashboard/pkg/metrics"
)

// Re-exports for callers that only need the facade.
type (
	Store      = core.Store
	Controller = core.Controller
	Persister  = core.Persister
)

// Options configures a Dashboard. Every field is optional.
type Options struct {
	Persister  core.Persister
	StorageKey string
	Remote     core.RemoteDashboards

	// Manifests are YAML widget manifests registered on top of the built-in
	// definitions.
	Manifests []string

	Notifier       core.Notifier
	Activity       activity.Hooks
	ActivityConfig activity.Config
	Hooks          []core.ChangeHook

	ChartAssetsHost string
	ChartCacheTTL   time.Duration
	RestoreOnCancel bool
	Seed            bool

	// Metrics enables the cron poller that fills the store's metric cache.
	Metrics       metrics.Source
	MetricsName   string
	PollSchedule  string
	ComparePeriod string

	Telemetry core.Telemetry
	Logger    *zap.Logger
	IDs       core.IDGenerator
	Clock     func() time.Time
}

// Dashboard bundles the store, controller, transports and poller of one
// dashboard session.
type Dashboard struct {
	Store      *core.Store
	Registry   *core.Registry
	Catalog    *core.MetricCatalog
	Controller *core.Controller
	Broadcast  *core.BroadcastHook
	Executor   *httpapi.CommandExecutor
	Poller     *metrics.Poller

	seed     *commands.SeedDashboardCommand
	handlers *httpapi.Handlers
	log      *zap.Logger
}

// New wires a Dashboard. The persisted state is restored before New returns.
func New(ctx context.Context, opts Options) (*Dashboard, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Persister == nil {
		opts.Persister = core.NewMemoryPersister()
	}
	if opts.IDs == nil {
		opts.IDs = core.UUIDGenerator{}
	}
	if opts.Telemetry == nil && opts.Logger != nil {
		opts.Telemetry = core.NewZapTelemetry(opts.Logger)
	}
	if opts.ChartAssetsHost == "" {
		opts.ChartAssetsHost = core.ChartAssetsHost()
	}

	registry, charts, err := buildRegistry(opts)
	if err != nil {
		return nil, err
	}
	catalog := core.NewMetricCatalog()
	if err := core.ValidateCatalogs(registry, catalog); err != nil {
		return nil, err
	}
	broadcast := core.NewBroadcastHook()

	var store *core.Store
	hooks := core.ChangeHooks{broadcast}
	if charts != nil {
		hooks = append(hooks, charts)
	}
	if len(opts.Activity) > 0 {
		hooks = append(hooks, activity.DashboardHook{Emitter: activity.NewEmitter(opts.Activity, opts.ActivityConfig)})
	}
	if opts.Notifier != nil {
		hooks = append(hooks, &core.NotificationsHook{
			Notifier: opts.Notifier,
			Preferences: func() core.UserPreferences {
				if store == nil {
					return core.UserPreferences{}
				}
				return store.Preferences()
			},
		})
	}
	hooks = append(hooks, opts.Hooks...)

	store = core.NewStore(ctx, core.StoreOptions{
		Persister:  opts.Persister,
		StorageKey: opts.StorageKey,
		Remote:     opts.Remote,
		Hooks:      hooks,
		Telemetry:  opts.Telemetry,
		Logger:     log,
		Clock:      opts.Clock,
		IDs:        opts.IDs,
	})

	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("dashboard: build template renderer: %w", err)
	}
	controller := core.NewController(core.ControllerOptions{
		Store:           store,
		Registry:        registry,
		Catalog:         catalog,
		Renderer:        renderer,
		RestoreOnCancel: opts.RestoreOnCancel,
		Telemetry:       opts.Telemetry,
		Logger:          log,
		IDs:             opts.IDs,
	})

	d := &Dashboard{
		Store:      store,
		Registry:   registry,
		Catalog:    catalog,
		Controller: controller,
		Broadcast:  broadcast,
		Executor:   newExecutor(controller, store, opts.Telemetry),
		seed:       commands.NewSeedDashboardCommand(store, registry, opts.IDs, opts.Telemetry),
		log:        log,
	}
	d.handlers = &httpapi.Handlers{
		API:     d.Executor,
		View:    queries.NewDashboardViewQuery(controller),
		Gallery: queries.NewGalleryQuery(controller),
		Catalog: queries.NewMetricCatalogQuery(controller),
		Page:    controller,
	}

	if opts.Metrics != nil {
		d.Poller, err = metrics.NewPoller(metrics.PollerOptions{
			Source:     opts.Metrics,
			Writer:     store,
			Catalog:    catalog,
			Schedule:   opts.PollSchedule,
			SourceName: opts.MetricsName,
			Period:     opts.ComparePeriod,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
	}

	if opts.Seed {
		if _, err := d.SeedDefaults(ctx); err != nil {
			log.Warn("dashboard seed incomplete", zap.Error(err))
		}
	}
	return d, nil
}

func buildRegistry(opts Options) (*core.Registry, *core.ChartCache, error) {
	registry := core.NewRegistry()
	var charts *core.ChartCache
	if opts.ChartAssetsHost != "" || opts.ChartCacheTTL > 0 {
		chartOpts := []core.ChartRendererOption{core.WithChartAssetsHost(opts.ChartAssetsHost)}
		if opts.ChartCacheTTL > 0 {
			charts = core.NewChartCache(opts.ChartCacheTTL)
			chartOpts = append(chartOpts, core.WithChartCache(charts))
		}
		chart := core.NewChartRenderer(chartOpts...)
		for _, widgetType := range []core.WidgetType{core.WidgetChart, core.WidgetTrendChart, core.WidgetDataQuality} {
			if err := registry.SetRenderer(widgetType, chart); err != nil {
				return nil, nil, fmt.Errorf("dashboard: chart renderer: %w", err)
			}
		}
	}
	for _, path := range opts.Manifests {
		if _, err := registry.LoadManifestFile(path); err != nil {
			return nil, nil, err
		}
	}
	return registry, charts, nil
}

func newExecutor(controller *core.Controller, store *core.Store, telemetry core.Telemetry) *httpapi.CommandExecutor {
	return &httpapi.CommandExecutor{
		Add:       commands.NewAddWidgetCommand(controller, telemetry),
		Remove:    commands.NewRemoveWidgetCommand(controller, telemetry),
		Configure: commands.NewConfigureWidgetCommand(controller, telemetry),
		Layout:    commands.NewApplyLayoutCommand(controller, telemetry),
		Edit:      commands.NewEditModeCommand(controller, telemetry),
		Create:    commands.NewCreateDashboardCommand(store, telemetry),
		Delete:    commands.NewDeleteDashboardCommand(store, telemetry),
		Load:      commands.NewLoadDashboardCommand(store, telemetry),
		Save:      commands.NewSaveDashboardCommand(store, telemetry),
		Prefs:     commands.NewSetPreferencesCommand(store, telemetry),
		Metrics:   commands.NewUpdateMetricDataCommand(store, telemetry),
	}
}

// SeedDefaults places the starter widgets when the current dashboard is empty.
func (d *Dashboard) SeedDefaults(ctx context.Context) (int, error) {
	added := 0
	err := d.seed.Execute(ctx, commands.SeedDashboardInput{Added: &added})
	return added, err
}

// Start runs the metric poller when one is configured. It returns at once;
// polling stops with ctx.
func (d *Dashboard) Start(ctx context.Context) error {
	if d.Poller == nil {
		return nil
	}
	return d.Poller.Start(ctx)
}

// Close stops the poller and flushes the current state.
func (d *Dashboard) Close(ctx context.Context) {
	if d.Poller != nil {
		d.Poller.Stop()
	}
	d.Store.SaveDashboard(ctx)
	d.log.Info("dashboard closed")
}

// HTTPHandler serves the dashboard on net/http. Routes mirror the go-router
// registration under /dashboard and /dashboards.
func (d *Dashboard) HTTPHandler() http.Handler {
	h := d.handlers
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard", h.HandlePage)
	mux.HandleFunc("GET /dashboard/_view", h.HandleDashboard)
	mux.HandleFunc("GET /dashboard/gallery", h.HandleGallery)
	mux.HandleFunc("GET /dashboard/metrics/catalog", h.HandleCatalog)
	mux.HandleFunc("POST /dashboard/metrics", h.HandleMetricData)
	mux.HandleFunc("POST /dashboard/widgets", h.HandleAddWidget)
	mux.HandleFunc("DELETE /dashboard/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemoveWidget(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /dashboard/widgets/{id}/config", func(w http.ResponseWriter, r *http.Request) {
		h.HandleConfigureWidget(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /dashboard/layout", h.HandleLayout)
	mux.HandleFunc("POST /dashboard/edit/{action}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleEditMode(w, r, r.PathValue("action"))
	})
	mux.HandleFunc("POST /dashboard/save", h.HandleSaveDashboard)
	mux.HandleFunc("POST /dashboard/preferences", h.HandlePreferences)
	mux.HandleFunc("POST /dashboards", h.HandleCreateDashboard)
	mux.HandleFunc("DELETE /dashboards/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteDashboard(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("POST /dashboards/{id}/load", func(w http.ResponseWriter, r *http.Request) {
		h.HandleLoadDashboard(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("GET /dashboard/ws", d.Broadcast.ServeWebSocket)
	mux.HandleFunc("GET /dashboard/events", d.Broadcast.ServeSSE)
	return mux
}

var errNilDashboard = errors.New("dashboard: nil dashboard")

// Register mounts the dashboard on a go-router router under basePath.
func Register[T any](d *Dashboard, r router.Router[T], basePath string) error {
	if d == nil {
		return errNilDashboard
	}
	return gorouter.Register(gorouter.Config[T]{
		Router:     r,
		Controller: d.Controller,
		API:        d.Executor,
		Broadcast:  d.Broadcast,
		BasePath:   basePath,
	})
}
