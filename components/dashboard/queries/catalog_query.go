package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// CatalogInput narrows the metric catalog to one category. Empty lists all.
type CatalogInput struct {
	Category dashboard.MetricCategory
	Locale   string
}

// CatalogMetric is a metric definition with its label resolved for a locale.
type CatalogMetric struct {
	dashboard.MetricDefinition
	Label string `json:"label"`
}

// Catalog is the metric selector contents.
type Catalog struct {
	Categories []dashboard.MetricCategoryDefinition `json:"categories"`
	Metrics    []CatalogMetric                      `json:"metrics"`
}

type catalogSource interface {
	Catalog() *dashboard.MetricCatalog
}

// MetricCatalogQuery lists the metrics a widget can be bound to.
type MetricCatalogQuery struct {
	source catalogSource
}

func NewMetricCatalogQuery(source catalogSource) *MetricCatalogQuery {
	return &MetricCatalogQuery{source: source}
}

var _ gocommand.Querier[CatalogInput, Catalog] = (*MetricCatalogQuery)(nil)

func (q *MetricCatalogQuery) Query(_ context.Context, input CatalogInput) (Catalog, error) {
	if q.source == nil || q.source.Catalog() == nil {
		return Catalog{}, errMissingSource
	}
	catalog := q.source.Catalog()
	out := Catalog{Categories: catalog.Categories(), Metrics: []CatalogMetric{}}
	for _, def := range catalog.ListAll() {
		if input.Category != "" && def.Category != input.Category {
			continue
		}
		out.Metrics = append(out.Metrics, CatalogMetric{
			MetricDefinition: def,
			Label:            dashboard.ResolveLocalizedValue(def.NameLocalized, input.Locale, def.Name),
		})
	}
	return out, nil
}
