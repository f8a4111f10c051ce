package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingNotifier struct {
	events []StoreEvent
}

func (n *recordingNotifier) PublishDashboardEvent(_ context.Context, event StoreEvent) error {
	n.events = append(n.events, event)
	return nil
}

func TestNotificationsHookRespectsPreferences(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	hook := &NotificationsHook{Notifier: notifier}
	store := newTestStore(t, StoreOptions{Hooks: hook})
	hook.Preferences = store.Preferences

	store.SetEditMode(ctx, true)
	store.AddWidget(ctx, metricCard("a", Position{W: 3, H: 2}))
	store.UpdateMetricData(ctx, MetricBacklog, MetricData{Value: 1})
	store.SetPreferences(ctx, PreferencesUpdate{Notifications: &NotificationPreferences{Enabled: false}})
	store.RemoveWidget(ctx, "a")

	reasons := make([]string, 0, len(notifier.events))
	for _, e := range notifier.events {
		reasons = append(reasons, e.Reason)
	}
	assert.Equal(t, []string{ReasonWidgetAdd}, reasons)
}

func TestNotificationsHookWithoutNotifier(t *testing.T) {
	var hook *NotificationsHook
	assert.NoError(t, hook.DashboardChanged(context.Background(), StoreEvent{Reason: ReasonWidgetAdd}))
}
