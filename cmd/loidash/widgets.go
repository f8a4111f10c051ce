package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	core "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

type widgetsCmd struct {
	Query     string   `arg:"" optional:"" help:"Filter by name or description."`
	Category  string   `default:"all" help:"Widget category tab."`
	Locale    string   `default:"th" help:"Locale for names."`
	Manifests []string `name:"manifest" help:"Widget manifest to register (repeatable)."`
	Metrics   bool     `help:"List the metric catalog instead of widgets."`
}

func (c *widgetsCmd) Run(_ context.Context, g *globalFlags) error {
	file, err := loadFileConfig(g.Config)
	if err != nil {
		return err
	}
	manifests := c.Manifests
	if len(manifests) == 0 {
		manifests = file.Manifests
	}
	reg := core.NewRegistry()
	for _, path := range manifests {
		if _, err := reg.LoadManifestFile(path); err != nil {
			return err
		}
	}
	if c.Metrics {
		renderMetrics(os.Stdout, core.NewMetricCatalog(), c.Locale)
		return nil
	}
	gallery := core.BuildGallery(reg, c.Query, core.WidgetCategory(c.Category), c.Locale)
	renderGallery(os.Stdout, gallery, c.Locale)
	return nil
}

func renderGallery(w io.Writer, gallery core.Gallery, locale string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Type", "Name", "Category", "Default", "Min", "Max", "Configurable", "Metric"})
	for _, def := range gallery.Definitions {
		maxSize := "-"
		if def.MaxSize != nil {
			maxSize = sizeLabel(*def.MaxSize)
		}
		tw.AppendRow(table.Row{
			def.Type,
			def.NameForLocale(locale),
			def.Category,
			sizeLabel(def.DefaultSize),
			sizeLabel(def.MinSize),
			maxSize,
			yesNo(def.Configurable),
			yesNo(def.RequiresMetric),
		})
	}
	tabs := make([]string, 0, len(gallery.Categories))
	for _, cat := range gallery.Categories {
		tabs = append(tabs, fmt.Sprintf("%s (%d)", cat.Label, cat.Count))
	}
	tw.AppendFooter(table.Row{"", strings.Join(tabs, " · ")})
	tw.Render()
}

func renderMetrics(w io.Writer, catalog *core.MetricCatalog, locale string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Name", "Category", "Unit", "Aggregations"})
	for _, def := range catalog.ListAll() {
		aggs := make([]string, 0, len(def.Aggregations))
		for _, agg := range def.Aggregations {
			aggs = append(aggs, string(agg))
		}
		tw.AppendRow(table.Row{def.Type, def.NameForLocale(locale), def.Category, def.Unit, strings.Join(aggs, ", ")})
	}
	tw.Render()
}

func sizeLabel(s core.Size) string {
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
