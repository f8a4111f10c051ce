package dashboard

import (
	"strings"
)

// FilterDefinitions returns the definitions matching query and category, in
// input order. The query is a case-insensitive substring over the name and
// description in every language; an empty query matches everything.
// CategoryAll and the empty category skip category filtering.
func FilterDefinitions(defs []WidgetDefinition, query string, category WidgetCategory) []WidgetDefinition {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]WidgetDefinition, 0, len(defs))
	for _, def := range defs {
		if category != "" && category != CategoryAll && def.Category != category {
			continue
		}
		if needle != "" && !definitionMatches(def, needle) {
			continue
		}
		out = append(out, def)
	}
	return out
}

func definitionMatches(def WidgetDefinition, needle string) bool {
	if strings.Contains(strings.ToLower(def.Name), needle) ||
		strings.Contains(strings.ToLower(def.Description), needle) {
		return true
	}
	for _, values := range []map[string]string{def.NameLocalized, def.DescriptionLocalized} {
		for _, value := range values {
			if strings.Contains(strings.ToLower(value), needle) {
				return true
			}
		}
	}
	return false
}

// GalleryCategory is a category tab with its matching definition count.
type GalleryCategory struct {
	WidgetCategoryDefinition
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Gallery is the widget picker contents for one query.
type Gallery struct {
	Query       string             `json:"query"`
	Category    WidgetCategory     `json:"category"`
	Categories  []GalleryCategory  `json:"categories"`
	Definitions []WidgetDefinition `json:"definitions"`
}

// BuildGallery filters the registry and counts matches per category tab.
// The first tab is CategoryAll.
func BuildGallery(reg *Registry, query string, category WidgetCategory, locale string) Gallery {
	all := reg.ListAll()
	matching := FilterDefinitions(all, query, CategoryAll)
	gallery := Gallery{
		Query:       query,
		Category:    category,
		Definitions: FilterDefinitions(all, query, category),
	}
	gallery.Categories = append(gallery.Categories, GalleryCategory{
		WidgetCategoryDefinition: WidgetCategoryDefinition{ID: CategoryAll, Name: "All", NameLocalized: th("ทั้งหมด")},
		Label:                    ResolveLocalizedValue(map[string]string{LocaleThai: "ทั้งหมด"}, locale, "All"),
		Count:                    len(matching),
	})
	for _, cat := range reg.Categories() {
		gallery.Categories = append(gallery.Categories, GalleryCategory{
			WidgetCategoryDefinition: cat,
			Label:                    ResolveLocalizedValue(cat.NameLocalized, locale, cat.Name),
			Count:                    len(FilterDefinitions(matching, "", cat.ID)),
		})
	}
	return gallery
}
