package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan BroadcastMessage) BroadcastMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	default:
		t.Fatalf("expected a message")
		return BroadcastMessage{}
	}
}

func assertQuiet(t *testing.T, ch <-chan BroadcastMessage) {
	t.Helper()
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %+v", msg)
	default:
	}
}

func waitForSubscriber(t *testing.T, hook *BroadcastHook) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hook.subscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hook.subscriberCount())
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, TopicMetrics, TopicFor(ReasonMetricsUpdate))
	assert.Equal(t, TopicLayout, TopicFor(ReasonWidgetAdd))
	assert.Equal(t, TopicLayout, TopicFor(ReasonLayoutUpdate))
	assert.Equal(t, TopicSession, TopicFor(ReasonEditMode))
	assert.Equal(t, TopicSession, TopicFor(ReasonPreferencesUpdate))
	assert.Equal(t, TopicDashboards, TopicFor(ReasonDashboardLoad))
}

func TestParseEventFilter(t *testing.T) {
	query, err := url.ParseQuery("dashboard=ops&topic=metrics,layout&topic=session")
	require.NoError(t, err)

	filter := ParseEventFilter(query)

	assert.Equal(t, "ops", filter.DashboardID)
	assert.Equal(t, []EventTopic{TopicMetrics, TopicLayout, TopicSession}, filter.Topics)
	assert.Equal(t, EventFilter{}, ParseEventFilter(url.Values{}))
}

func TestBroadcastHookDeliversMessageShape(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe(EventFilter{})
	defer cancel()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, hook.DashboardChanged(context.Background(), StoreEvent{
		Reason:      ReasonWidgetAdd,
		DashboardID: DefaultDashboardID,
		WidgetID:    "widget-1",
		EditMode:    true,
		Actor:       ActivityContext{ActorID: "analyst-1"},
		OccurredAt:  at,
	}))

	assert.Equal(t, BroadcastMessage{
		Seq:         1,
		Event:       ReasonWidgetAdd,
		Topic:       TopicLayout,
		DashboardID: DefaultDashboardID,
		WidgetID:    "widget-1",
		EditMode:    true,
		ActorID:     "analyst-1",
		OccurredAt:  at,
	}, receive(t, ch))
}

func TestBroadcastHookFiltersByTopicAndDashboard(t *testing.T) {
	ctx := context.Background()
	hook := NewBroadcastHook()
	metricsOnly, cancelMetrics := hook.Subscribe(EventFilter{Topics: []EventTopic{TopicMetrics}})
	defer cancelMetrics()
	ops, cancelOps := hook.Subscribe(EventFilter{DashboardID: "ops"})
	defer cancelOps()

	_ = hook.DashboardChanged(ctx, StoreEvent{Reason: ReasonLayoutUpdate, DashboardID: "sales"})
	assertQuiet(t, metricsOnly)
	assertQuiet(t, ops)

	_ = hook.DashboardChanged(ctx, StoreEvent{Reason: ReasonMetricsUpdate, DashboardID: "ops", MetricType: MetricBacklog})
	assert.Equal(t, MetricBacklog, receive(t, metricsOnly).MetricType)
	msg := receive(t, ops)
	assert.Equal(t, uint64(2), msg.Seq, "sequence counts filtered events too")

	// Switching dashboards reaches a dashboard-scoped subscriber.
	_ = hook.DashboardChanged(ctx, StoreEvent{Reason: ReasonDashboardLoad, DashboardID: "sales"})
	assert.Equal(t, ReasonDashboardLoad, receive(t, ops).Event)
	assertQuiet(t, metricsOnly)
}

func TestBroadcastHookReportsMissedEvents(t *testing.T) {
	ctx := context.Background()
	hook := NewBroadcastHook()
	hook.buffer = 1
	ch, cancel := hook.Subscribe(EventFilter{})
	defer cancel()

	for i := 0; i < 3; i++ {
		_ = hook.DashboardChanged(ctx, StoreEvent{Reason: ReasonMetricsUpdate})
	}
	first := receive(t, ch)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Zero(t, first.Missed)

	_ = hook.DashboardChanged(ctx, StoreEvent{Reason: ReasonMetricsUpdate})
	next := receive(t, ch)
	assert.Equal(t, uint64(4), next.Seq)
	assert.Equal(t, 2, next.Missed)
}

func TestBroadcastHookReceivesStoreMutations(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe(EventFilter{Topics: []EventTopic{TopicSession}})
	defer cancel()
	store := NewStore(context.Background(), StoreOptions{Hooks: hook})

	store.SetEditMode(context.Background(), true)

	msg := receive(t, ch)
	assert.Equal(t, ReasonEditMode, msg.Event)
	assert.True(t, msg.EditMode)
	assert.Equal(t, DefaultDashboardID, msg.DashboardID)
}

func TestBroadcastHookCancelClosesChannel(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe(EventFilter{})
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
	assert.Zero(t, hook.subscriberCount())
}

func TestBroadcastHookServeWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?topic=layout"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForSubscriber(t, hook)

	_ = hook.DashboardChanged(context.Background(), StoreEvent{Reason: ReasonMetricsUpdate, DashboardID: "default"})
	_ = hook.DashboardChanged(context.Background(), StoreEvent{Reason: ReasonLayoutUpdate, DashboardID: "default"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got BroadcastMessage
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, ReasonLayoutUpdate, got.Event)
	assert.Equal(t, uint64(2), got.Seq)
}

func TestBroadcastHookServeWebSocketReleasesSubscriberOnClose(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	waitForSubscriber(t, hook)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hook.subscriberCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestBroadcastHookServeSSE(t *testing.T) {
	hook := NewBroadcastHook()
	server := httptest.NewServer(http.HandlerFunc(hook.ServeSSE))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?dashboard=ops", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	waitForSubscriber(t, hook)

	_ = hook.DashboardChanged(context.Background(), StoreEvent{Reason: ReasonWidgetRemove, DashboardID: "sales", WidgetID: "w0"})
	_ = hook.DashboardChanged(context.Background(), StoreEvent{Reason: ReasonWidgetRemove, DashboardID: "ops", WidgetID: "w1"})

	reader := bufio.NewReader(resp.Body)
	lines := make([]string, 0, 3)
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimSpace(line))
	}
	assert.Equal(t, "id: 2", lines[0])
	assert.Equal(t, "event: "+ReasonWidgetRemove, lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: "))
	var got BroadcastMessage
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &got))
	assert.Equal(t, "w1", got.WidgetID)
	assert.Equal(t, TopicLayout, got.Topic)
}
