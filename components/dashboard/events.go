package dashboard

import (
	"context"
	"errors"
	"time"
)

// Store event reasons.
const (
	ReasonEditMode          = "edit_mode"
	ReasonWidgetAdd         = "widget.add"
	ReasonWidgetRemove      = "widget.remove"
	ReasonWidgetUpdate      = "widget.update"
	ReasonLayoutUpdate      = "layout.update"
	ReasonDashboardLoad     = "dashboard.load"
	ReasonDashboardSave     = "dashboard.save"
	ReasonDashboardCreate   = "dashboard.create"
	ReasonDashboardDelete   = "dashboard.delete"
	ReasonDashboardRestore  = "dashboard.restore"
	ReasonPreferencesUpdate = "preferences.update"
	ReasonMetricsUpdate     = "metrics.update"
)

// StoreEvent describes a completed store mutation.
type StoreEvent struct {
	Reason      string          `json:"reason"`
	DashboardID string          `json:"dashboard_id,omitempty"`
	WidgetID    string          `json:"widget_id,omitempty"`
	MetricType  MetricType      `json:"metric_type,omitempty"`
	EditMode    bool            `json:"edit_mode"`
	Actor       ActivityContext `json:"-"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// ChangeHook is notified after every store mutation. Errors are logged by the
// store and never roll the mutation back.
type ChangeHook interface {
	DashboardChanged(ctx context.Context, event StoreEvent) error
}

// ChangeHookFunc adapts a function to ChangeHook.
type ChangeHookFunc func(ctx context.Context, event StoreEvent) error

func (f ChangeHookFunc) DashboardChanged(ctx context.Context, event StoreEvent) error {
	return f(ctx, event)
}

// ChangeHooks fans an event out to every hook and joins their errors.
type ChangeHooks []ChangeHook

func (hooks ChangeHooks) DashboardChanged(ctx context.Context, event StoreEvent) error {
	var err error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if hookErr := hook.DashboardChanged(ctx, event); hookErr != nil {
			err = errors.Join(err, hookErr)
		}
	}
	return err
}

type noopChangeHook struct{}

func (noopChangeHook) DashboardChanged(context.Context, StoreEvent) error { return nil }

// ActivityContext identifies who triggered a mutation.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
}

type activityContextKey struct{}

// ContextWithActivity attaches the actor to ctx so store events carry it.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activityContextKey{}, meta)
}

// ActivityFromContext returns the actor attached with ContextWithActivity.
func ActivityFromContext(ctx context.Context) ActivityContext {
	if ctx == nil {
		return ActivityContext{}
	}
	meta, _ := ctx.Value(activityContextKey{}).(ActivityContext)
	return meta
}
