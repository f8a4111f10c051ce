package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// HTTPConfig configures the AutoCheck API client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to the AutoCheck REST API. It serves metric values and
// doubles as the store's remote dashboard collaborator.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var (
	_ Source                     = (*HTTPClient)(nil)
	_ dashboard.RemoteDashboards = (*HTTPClient)(nil)
)

// NewHTTPClient builds a client for the live API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("metrics: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// Fetch implements Source by calling the metric query endpoint.
func (c *HTTPClient) Fetch(ctx context.Context, query Query) (Response, error) {
	req := metricRequest{
		MetricType:  query.MetricType,
		Aggregation: query.Aggregation,
		Filters:     query.Filters,
		GroupBy:     query.GroupBy,
	}
	if !query.From.IsZero() || !query.To.IsZero() {
		req.TimeRange = &timeRange{From: query.From, To: query.To}
	}
	var resp Response
	if _, err := c.do(ctx, http.MethodPost, "/metrics/query", req, &resp); err != nil {
		return Response{}, err
	}
	if resp.MetricType == "" {
		resp.MetricType = query.MetricType
	}
	return resp, nil
}

// FetchDashboard loads a dashboard by id. A 404 reports not found.
func (c *HTTPClient) FetchDashboard(ctx context.Context, id string) (dashboard.DashboardLayout, bool, error) {
	var layout dashboard.DashboardLayout
	status, err := c.do(ctx, http.MethodGet, "/dashboards/"+url.PathEscape(id), nil, &layout)
	if status == http.StatusNotFound {
		return dashboard.DashboardLayout{}, false, nil
	}
	if err != nil {
		return dashboard.DashboardLayout{}, false, err
	}
	return layout, true, nil
}

// PushDashboard stores a dashboard upstream.
func (c *HTTPClient) PushDashboard(ctx context.Context, layout dashboard.DashboardLayout) error {
	_, err := c.do(ctx, http.MethodPut, "/dashboards/"+url.PathEscape(layout.ID), layout, nil)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) (int, error) {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return 0, fmt.Errorf("metrics: encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return 0, fmt.Errorf("metrics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("metrics: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return resp.StatusCode, fmt.Errorf("metrics: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return resp.StatusCode, fmt.Errorf("metrics: decode response: %w", err)
	}
	return resp.StatusCode, nil
}

type timeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type metricRequest struct {
	MetricType  dashboard.MetricType      `json:"metricType"`
	TimeRange   *timeRange                `json:"timeRange,omitempty"`
	Aggregation dashboard.AggregationType `json:"aggregation,omitempty"`
	Filters     *dashboard.WidgetFilters  `json:"filters,omitempty"`
	GroupBy     []string                  `json:"groupBy,omitempty"`
}
