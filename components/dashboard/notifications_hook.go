package dashboard

import "context"

// Notifier delivers dashboard events to an external channel (email, chat).
type Notifier interface {
	PublishDashboardEvent(ctx context.Context, event StoreEvent) error
}

// NotificationsHook forwards store events to a Notifier while the user's
// notification preferences allow it. Metric refreshes and edit-mode toggles
// are never forwarded.
type NotificationsHook struct {
	Notifier    Notifier
	Preferences func() UserPreferences
}

func (h *NotificationsHook) DashboardChanged(ctx context.Context, event StoreEvent) error {
	if h == nil || h.Notifier == nil {
		return nil
	}
	switch event.Reason {
	case ReasonMetricsUpdate, ReasonEditMode:
		return nil
	}
	if h.Preferences != nil {
		prefs := h.Preferences()
		if prefs.Notifications == nil || !prefs.Notifications.Enabled {
			return nil
		}
	}
	return h.Notifier.PublishDashboardEvent(ctx, event)
}
