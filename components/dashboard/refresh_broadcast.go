package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventTopic groups store reasons by what a client has to redraw.
type EventTopic string

const (
	// TopicMetrics covers metric cache refreshes; only metric widgets redraw.
	TopicMetrics EventTopic = "metrics"
	// TopicLayout covers widget and grid edits on the current dashboard.
	TopicLayout EventTopic = "layout"
	// TopicDashboards covers switching, saving and managing dashboards.
	TopicDashboards EventTopic = "dashboards"
	// TopicSession covers edit mode and preferences.
	TopicSession EventTopic = "session"
)

// TopicFor maps a store event reason onto its topic.
func TopicFor(reason string) EventTopic {
	switch reason {
	case ReasonMetricsUpdate:
		return TopicMetrics
	case ReasonWidgetAdd, ReasonWidgetRemove, ReasonWidgetUpdate, ReasonLayoutUpdate:
		return TopicLayout
	case ReasonEditMode, ReasonPreferencesUpdate:
		return TopicSession
	default:
		return TopicDashboards
	}
}

// EventFilter selects the events a subscriber receives. The zero value
// receives everything. A DashboardID filter still lets dashboards topic
// events through so a client notices when its dashboard stops being current.
type EventFilter struct {
	DashboardID string
	Topics      []EventTopic
}

// ParseEventFilter reads ?dashboard=<id>&topic=metrics,layout from a query.
func ParseEventFilter(query url.Values) EventFilter {
	filter := EventFilter{DashboardID: strings.TrimSpace(query.Get("dashboard"))}
	for _, raw := range query["topic"] {
		for _, topic := range strings.Split(raw, ",") {
			topic = strings.TrimSpace(topic)
			if topic != "" {
				filter.Topics = append(filter.Topics, EventTopic(topic))
			}
		}
	}
	return filter
}

// Match reports whether event passes the filter.
func (f EventFilter) Match(event StoreEvent) bool {
	topic := TopicFor(event.Reason)
	if len(f.Topics) > 0 && !slices.Contains(f.Topics, topic) {
		return false
	}
	if f.DashboardID == "" || topic == TopicDashboards || event.DashboardID == "" {
		return true
	}
	return event.DashboardID == f.DashboardID
}

// BroadcastMessage is the shape streamed to subscribers. Seq grows by one per
// store event across all subscribers; Missed counts the events this
// subscriber lost to a full buffer since its previous message, and a client
// seeing it non-zero should refetch the whole view.
type BroadcastMessage struct {
	Seq         uint64     `json:"seq"`
	Event       string     `json:"event"`
	Topic       EventTopic `json:"topic"`
	DashboardID string     `json:"dashboard_id,omitempty"`
	WidgetID    string     `json:"widget_id,omitempty"`
	MetricType  MetricType `json:"metric_type,omitempty"`
	EditMode    bool       `json:"edit_mode"`
	ActorID     string     `json:"actor_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
	Missed      int        `json:"missed,omitempty"`
}

type subscriber struct {
	ch     chan BroadcastMessage
	filter EventFilter
	missed int
}

// BroadcastHook fans store events out to in-process subscribers. A full
// subscriber buffer drops the event for that subscriber only and is reported
// on its next message.
type BroadcastHook struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	next   int
	seq    uint64
	buffer int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs:   make(map[int]*subscriber),
		buffer: 16,
	}
}

// DashboardChanged satisfies ChangeHook.
func (h *BroadcastHook) DashboardChanged(_ context.Context, event StoreEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	msg := BroadcastMessage{
		Seq:         h.seq,
		Event:       event.Reason,
		Topic:       TopicFor(event.Reason),
		DashboardID: event.DashboardID,
		WidgetID:    event.WidgetID,
		MetricType:  event.MetricType,
		EditMode:    event.EditMode,
		ActorID:     event.Actor.ActorID,
		OccurredAt:  event.OccurredAt,
	}
	for _, sub := range h.subs {
		if !sub.filter.Match(event) {
			continue
		}
		out := msg
		out.Missed = sub.missed
		select {
		case sub.ch <- out:
			sub.missed = 0
		default:
			sub.missed++
		}
	}
	return nil
}

// Subscribe registers a subscriber for events matching filter. The returned
// cancel func closes the channel and is safe to call twice.
func (h *BroadcastHook) Subscribe(filter EventFilter) (<-chan BroadcastMessage, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	sub := &subscriber{ch: make(chan BroadcastMessage, h.buffer), filter: filter}
	h.subs[id] = sub
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}

func (h *BroadcastHook) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = (wsPongWait * 9) / 10
	sseKeepAlive   = 25 * time.Second
	wsMaxReadBytes = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams matching events as JSON.
// The query selects events the way ParseEventFilter describes. Clients only
// ever send control frames; the read loop exists to notice them leave.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	filter := ParseEventFilter(r.URL.Query())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(filter)
	defer cancel()

	gone := make(chan struct{})
	conn.SetReadLimit(wsMaxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-gone:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// ServeSSE streams matching events as Server-Sent Events. Each frame carries
// the sequence as its id and the store reason as its event name; idle streams
// get a comment line so proxies keep them open.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	events, cancel := h.Subscribe(ParseEventFilter(r.URL.Query()))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEFrame(w, msg); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func writeSSEFrame(w http.ResponseWriter, msg BroadcastMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", msg.Seq, msg.Event, data)
	return err
}
