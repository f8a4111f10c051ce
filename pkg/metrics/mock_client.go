package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// MockSourceName is the source label mock values carry.
const MockSourceName = "mock"

// trendShape is the relative deviation of the last seven days from the
// current value, oldest first.
var trendShape = []float64{-0.04, -0.02, 0.01, -0.01, 0.02, 0.03, 0}

// MockFixtures returns the demo values of every catalog metric.
func MockFixtures() map[dashboard.MetricType]Response {
	values := map[dashboard.MetricType]float64{
		dashboard.MetricTotalContracts:   2384,
		dashboard.MetricCheckedContracts: 1847,
		dashboard.MetricApproved:         892,
		dashboard.MetricNotApproved:      124,
		dashboard.MetricUnderReview:      347,
		dashboard.MetricOCRConfidence:    94.7,
		dashboard.MetricAccuracyRate:     91.2,
		dashboard.MetricProcessingTime:   2.4,
		dashboard.MetricManualValidation: 18.4,
		dashboard.MetricCycleTime:        6.8,
		dashboard.MetricBacklog:          187,
	}
	changes := map[dashboard.MetricType]float64{
		dashboard.MetricTotalContracts:   5.2,
		dashboard.MetricCheckedContracts: 8.7,
		dashboard.MetricOCRConfidence:    1.8,
		dashboard.MetricAccuracyRate:     2.3,
	}
	out := make(map[dashboard.MetricType]Response, len(values))
	for metricType, value := range values {
		resp := Response{MetricType: metricType, Value: value}
		if pct, ok := changes[metricType]; ok {
			resp.Change = &Change{Absolute: value * pct / 100, Percentage: pct, Direction: DirectionUp}
		}
		out[metricType] = resp
	}
	return out
}

// MockClient implements Source using in-memory fixtures.
type MockClient struct {
	mu    sync.RWMutex
	data  map[dashboard.MetricType]Response
	clock func() time.Time
}

// NewMockClient builds a mock source seeded with MockFixtures.
func NewMockClient() *MockClient {
	return &MockClient{data: MockFixtures(), clock: time.Now}
}

// Set replaces the fixture for one metric.
func (c *MockClient) Set(resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[resp.MetricType] = resp
}

// WithClock overrides the timestamp source.
func (c *MockClient) WithClock(clock func() time.Time) *MockClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if clock != nil {
		c.clock = clock
	}
	return c
}

// Fetch returns the fixture for the metric with a seven day trend. Filters
// and aggregation are ignored.
func (c *MockClient) Fetch(_ context.Context, query Query) (Response, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	resp, ok := c.data[query.MetricType]
	if !ok {
		return Response{}, fmt.Errorf("metrics: no mock data for %q", query.MetricType)
	}
	now := c.clock()
	resp.Timestamp = now
	if len(resp.Trend) == 0 {
		resp.Trend = make([]dashboard.TrendPoint, len(trendShape))
		for i, delta := range trendShape {
			day := now.AddDate(0, 0, i-len(trendShape)+1)
			resp.Trend[i] = dashboard.TrendPoint{
				Date:  day.Format(time.DateOnly),
				Value: resp.Value * (1 + delta),
			}
		}
	} else {
		resp.Trend = append([]dashboard.TrendPoint(nil), resp.Trend...)
	}
	if resp.Change != nil {
		change := *resp.Change
		resp.Change = &change
	}
	return resp, nil
}
