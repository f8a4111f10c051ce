package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// DefaultSchedule refreshes the metric cache every thirty seconds.
const DefaultSchedule = "@every 30s"

// MetricWriter receives fresh metric values. *dashboard.Store satisfies it.
type MetricWriter interface {
	UpdateMetricData(ctx context.Context, metricType dashboard.MetricType, data dashboard.MetricData)
}

// PollerOptions configures a Poller. Source and Writer are required.
type PollerOptions struct {
	Source     Source
	Writer     MetricWriter
	Catalog    *dashboard.MetricCatalog
	Schedule   string
	SourceName string
	Period     string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Poller refreshes the metric cache from a Source on a cron schedule.
type Poller struct {
	opts PollerOptions
	log  *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewPoller validates options and builds a poller. The schedule accepts
// standard cron expressions and descriptors such as "@every 1m".
func NewPoller(opts PollerOptions) (*Poller, error) {
	if opts.Source == nil {
		return nil, errors.New("metrics: poller requires a source")
	}
	if opts.Writer == nil {
		return nil, errors.New("metrics: poller requires a writer")
	}
	if opts.Catalog == nil {
		opts.Catalog = dashboard.NewMetricCatalog()
	}
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(opts.Schedule); err != nil {
		return nil, fmt.Errorf("metrics: invalid schedule %q: %w", opts.Schedule, err)
	}
	if opts.SourceName == "" {
		opts.SourceName = "api"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{opts: opts, log: log}, nil
}

// PollOnce fetches every catalog metric and writes the results. A failing
// metric is logged and skipped; the joined failures are returned.
func (p *Poller) PollOnce(ctx context.Context) error {
	var errs error
	for _, def := range p.opts.Catalog.ListAll() {
		query := Query{MetricType: def.Type}
		if len(def.Aggregations) > 0 {
			query.Aggregation = def.Aggregations[0]
		}
		fetchCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
		resp, err := p.opts.Source.Fetch(fetchCtx, query)
		cancel()
		if err != nil {
			p.log.Warn("metric fetch failed", zap.String("metric_type", string(def.Type)), zap.Error(err))
			errs = errors.Join(errs, fmt.Errorf("metrics: fetch %s: %w", def.Type, err))
			continue
		}
		if resp.MetricType == "" {
			resp.MetricType = def.Type
		}
		p.opts.Writer.UpdateMetricData(ctx, def.Type, ToMetricData(resp, p.opts.SourceName, p.opts.Period))
	}
	return errs
}

// Start polls once, then schedules PollOnce until Stop is called or ctx ends.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		return errors.New("metrics: poller already started")
	}
	_ = p.PollOnce(ctx)
	c := cron.New()
	if _, err := c.AddFunc(p.opts.Schedule, func() {
		if ctx.Err() != nil {
			return
		}
		_ = p.PollOnce(ctx)
	}); err != nil {
		return fmt.Errorf("metrics: schedule poller: %w", err)
	}
	c.Start()
	p.cron = c
	p.log.Info("metric poller started", zap.String("schedule", p.opts.Schedule))
	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
