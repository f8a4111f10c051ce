package activity

import (
	"context"
	"strings"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// DashboardHook bridges store events into activity events. Metric cache
// refreshes are not user activity and are skipped.
type DashboardHook struct {
	Emitter *Emitter
}

var _ dashboard.ChangeHook = DashboardHook{}

func (h DashboardHook) DashboardChanged(ctx context.Context, event dashboard.StoreEvent) error {
	if event.Reason == dashboard.ReasonMetricsUpdate || !h.Emitter.Enabled() {
		return nil
	}
	return h.Emitter.Emit(ctx, EventFromStore(event))
}

// EventFromStore maps a store event. Reasons of the form "<object>.<verb>"
// split into object type and verb; other reasons act on the dashboard.
func EventFromStore(event dashboard.StoreEvent) Event {
	objectType, verb := "dashboard", event.Reason
	if head, tail, ok := strings.Cut(event.Reason, "."); ok {
		objectType, verb = head, tail
	}
	objectID := event.DashboardID
	if objectType == "widget" && event.WidgetID != "" {
		objectID = event.WidgetID
	}
	meta := map[string]any{"dashboard_id": event.DashboardID}
	if event.Reason == dashboard.ReasonEditMode {
		meta["edit_mode"] = event.EditMode
	}
	return Event{
		Verb:           verb,
		ActorID:        event.Actor.ActorID,
		UserID:         event.Actor.UserID,
		TenantID:       event.Actor.TenantID,
		ObjectType:     objectType,
		ObjectID:       objectID,
		DefinitionCode: objectType + ":" + verb,
		Metadata:       meta,
		OccurredAt:     event.OccurredAt,
	}
}
