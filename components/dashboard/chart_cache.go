package dashboard

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// ChartKey identifies one rendered chart. Widget and Chart name the slot a
// chart occupies; Config and Data decide whether the markup in that slot is
// still current.
type ChartKey struct {
	Widget string
	Chart  ChartType
	// Config hashes the widget configuration and render options.
	Config string
	// Data is the newest timestamp of the metrics the chart reads, or a hash
	// of the plotted values when a metric carries no timestamp.
	Data string
}

// RenderCache memoizes rendered chart markup.
type RenderCache interface {
	GetOrRender(key ChartKey, render func() (string, error)) (string, error)
}

type chartSlot struct {
	widget string
	chart  ChartType
}

type cachedChart struct {
	config  string
	data    string
	html    string
	expires time.Time
}

// ChartCache holds at most one rendered chart per widget and chart type. A
// lookup with a different config or newer data replaces the slot, so fresh
// metric observations never serve stale markup. It also satisfies ChangeHook
// and forgets widgets that leave the dashboard.
type ChartCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	slots map[chartSlot]cachedChart
}

// NewChartCache builds a cache whose entries live for ttl. A non-positive
// ttl disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:   ttl,
		now:   time.Now,
		slots: make(map[chartSlot]cachedChart),
	}
}

// GetOrRender returns the slot's markup when key still matches it and
// renders and stores fresh markup otherwise. Failed renders leave the slot
// untouched.
func (c *ChartCache) GetOrRender(key ChartKey, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	slot := chartSlot{widget: key.Widget, chart: key.Chart}
	now := c.now()

	c.mu.Lock()
	entry, ok := c.slots[slot]
	c.mu.Unlock()
	if ok && entry.config == key.Config && entry.data == key.Data && now.Before(entry.expires) {
		return entry.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.slots[slot] = cachedChart{
		config:  key.Config,
		data:    key.Data,
		html:    html,
		expires: now.Add(c.ttl),
	}
	c.mu.Unlock()
	return html, nil
}

// Invalidate drops every chart cached for widgetID.
func (c *ChartCache) Invalidate(widgetID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for slot := range c.slots {
		if slot.widget == widgetID {
			delete(c.slots, slot)
		}
	}
}

// DashboardChanged drops charts of removed widgets and clears the cache when
// the dashboard on screen is swapped out.
func (c *ChartCache) DashboardChanged(_ context.Context, event StoreEvent) error {
	switch event.Reason {
	case ReasonWidgetRemove:
		c.Invalidate(event.WidgetID)
	case ReasonDashboardLoad, ReasonDashboardDelete, ReasonDashboardRestore:
		c.Reset()
	}
	return nil
}

// Reset empties the cache.
func (c *ChartCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.slots = make(map[chartSlot]cachedChart)
	c.mu.Unlock()
}

// Len reports the number of occupied slots, expired ones included.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Sweep drops every slot expired at now.
func (c *ChartCache) Sweep(now time.Time) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for slot, entry := range c.slots {
		if !now.Before(entry.expires) {
			delete(c.slots, slot)
		}
	}
}

// dataVersion reports how current the observations behind a chart are.
func dataVersion(metrics MetricSource, types []MetricType, plotted []chartSeries) string {
	var newest time.Time
	if metrics != nil {
		for _, metricType := range types {
			data, ok := metrics.MetricData(metricType)
			if !ok {
				continue
			}
			if data.Timestamp.IsZero() {
				return "values:" + configHash(plotted)
			}
			if data.Timestamp.After(newest) {
				newest = data.Timestamp
			}
		}
	}
	if newest.IsZero() {
		return "none"
	}
	return newest.UTC().Format(time.RFC3339Nano)
}

// configHash returns a deterministic hash of any JSON-encodable value.
func configHash(v any) string {
	if v == nil {
		return "empty"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
