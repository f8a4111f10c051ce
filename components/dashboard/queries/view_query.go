package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// ViewInput selects the locale the dashboard is rendered in.
type ViewInput struct {
	Locale string
}

type viewRenderer interface {
	RenderDashboard(ctx context.Context, locale string) (dashboard.DashboardView, error)
}

// DashboardViewQuery renders the current dashboard.
type DashboardViewQuery struct {
	renderer viewRenderer
}

// NewDashboardViewQuery builds the query.
func NewDashboardViewQuery(renderer viewRenderer) *DashboardViewQuery {
	return &DashboardViewQuery{renderer: renderer}
}

var _ gocommand.Querier[ViewInput, dashboard.DashboardView] = (*DashboardViewQuery)(nil)

// Query renders every widget of the current dashboard for the locale.
func (q *DashboardViewQuery) Query(ctx context.Context, input ViewInput) (dashboard.DashboardView, error) {
	if q.renderer == nil {
		return dashboard.DashboardView{}, errMissingSource
	}
	return q.renderer.RenderDashboard(ctx, input.Locale)
}
