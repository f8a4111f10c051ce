package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

var errMissingSource = errors.New("queries: source is required")

// GalleryInput is the widget picker search box and category tab.
type GalleryInput struct {
	Query    string
	Category dashboard.WidgetCategory
	Locale   string
}

type gallerySource interface {
	Gallery(query string, category dashboard.WidgetCategory, locale string) dashboard.Gallery
}

// GalleryQuery lists widget definitions for the gallery.
type GalleryQuery struct {
	source gallerySource
}

func NewGalleryQuery(source gallerySource) *GalleryQuery {
	return &GalleryQuery{source: source}
}

var _ gocommand.Querier[GalleryInput, dashboard.Gallery] = (*GalleryQuery)(nil)

func (q *GalleryQuery) Query(_ context.Context, input GalleryInput) (dashboard.Gallery, error) {
	if q.source == nil {
		return dashboard.Gallery{}, errMissingSource
	}
	category := input.Category
	if category == "" {
		category = dashboard.CategoryAll
	}
	return q.source.Gallery(input.Query, category, input.Locale), nil
}
