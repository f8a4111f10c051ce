package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-loi-dashboard/components/dashboard"
)

type cli struct {
	Scaffold scaffoldCmd `cmd:"" help:"Add a widget definition to a manifest."`
	Validate validateCmd `cmd:"" help:"Check that manifests decode and register cleanly."`
}

type scaffoldCmd struct {
	Type           string   `required:"" help:"Widget type identifier (normalised to kebab-case, e.g. contract-backlog)."`
	Name           string   `required:"" help:"Display name for the widget."`
	NameTh         string   `name:"name-th" help:"Thai display name."`
	Description    string   `required:"" help:"One-line description shown in the gallery."`
	DescriptionTh  string   `name:"description-th" help:"Thai description."`
	Category       string   `default:"analytics" enum:"overview,analytics,performance,system,data" help:"Gallery category."`
	Kind           string   `default:"summary" enum:"metric-card,chart,summary" help:"Built-in renderer the widget uses."`
	Icon           string   `help:"Icon name."`
	DefaultW       int      `default:"4" help:"Default width in grid cells."`
	DefaultH       int      `default:"3" help:"Default height in grid cells."`
	MinW           int      `default:"2" help:"Minimum width."`
	MinH           int      `default:"2" help:"Minimum height."`
	MaxW           int      `help:"Maximum width (0 for none)."`
	MaxH           int      `help:"Maximum height (0 for none)."`
	Configurable   bool     `default:"true" negatable:"" help:"Whether users can edit the widget configuration."`
	RequiresMetric bool     `help:"Whether the widget must be bound to a metric."`
	ManifestPath   string   `required:"" type:"path" help:"Path to the widget manifest YAML file to update."`
	SchemaPath     string   `type:"path" help:"Optional path to a JSON schema file for the widget configuration."`
	Tag            []string `help:"Tags to include in the manifest (use multiple --tag flags)."`
	Maintainer     []string `help:"Maintainers to record in the manifest."`
	Capabilities   []string `help:"Renderer capability labels (html,json,sse,...)."`
	DocsURL        string   `help:"Link to renderer documentation."`
	Channel        string   `help:"Distribution channel label (community, partner, internal)."`
	Overwrite      bool     `help:"Replace an existing manifest entry of the same type."`
}

type validateCmd struct {
	Paths []string `arg:"" type:"existingfile" help:"Manifest files to check."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Widget manifest utility for the LOI dashboard."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *scaffoldCmd) run(out io.Writer) error {
	widgetType, err := cmd.widgetType()
	if err != nil {
		return err
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("widgetctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	if !cmd.Overwrite {
		for _, widget := range doc.Widgets {
			if widget.Definition.Type == widgetType {
				return fmt.Errorf("widgetctl: manifest already defines widget %s (use --overwrite to replace)", widgetType)
			}
		}
	}

	schema, err := cmd.loadSchema()
	if err != nil {
		return err
	}

	def := dashboard.WidgetDefinition{
		Type:           widgetType,
		Name:           cmd.Name,
		Description:    cmd.Description,
		Icon:           cmd.Icon,
		Category:       dashboard.WidgetCategory(cmd.Category),
		DefaultSize:    dashboard.Size{W: cmd.DefaultW, H: cmd.DefaultH},
		MinSize:        dashboard.Size{W: cmd.MinW, H: cmd.MinH},
		Configurable:   cmd.Configurable,
		RequiresMetric: cmd.RequiresMetric,
		Schema:         schema,
	}
	if cmd.NameTh != "" {
		def.NameLocalized = map[string]string{dashboard.LocaleThai: cmd.NameTh}
	}
	if cmd.DescriptionTh != "" {
		def.DescriptionLocalized = map[string]string{dashboard.LocaleThai: cmd.DescriptionTh}
	}
	if cmd.MaxW > 0 || cmd.MaxH > 0 {
		def.MaxSize = &dashboard.Size{W: cmd.MaxW, H: cmd.MaxH}
	}

	entry := dashboard.ManifestWidget{
		Definition: def,
		Renderer: dashboard.ManifestRenderer{
			Kind:         cmd.Kind,
			Name:         strcase.ToPascal(string(widgetType)) + "Renderer",
			Summary:      cmd.Description,
			DocsURL:      cmd.DocsURL,
			Capabilities: cmd.Capabilities,
			Channel:      cmd.Channel,
		},
		Maintainers: cmd.Maintainer,
		Tags:        cmd.Tag,
	}

	replaced := false
	if cmd.Overwrite {
		for idx := range doc.Widgets {
			if doc.Widgets[idx].Definition.Type == widgetType {
				doc.Widgets[idx] = entry
				replaced = true
				break
			}
		}
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}

	sort.Slice(doc.Widgets, func(i, j int) bool {
		return doc.Widgets[i].Definition.Type < doc.Widgets[j].Definition.Type
	})

	// Reject entries the dashboard would refuse to load.
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("widgetctl: %w", err)
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Added %s to %s (renderer %s)\n", widgetType, manifestPath, cmd.Kind)
	return nil
}

func (cmd *scaffoldCmd) widgetType() (dashboard.WidgetType, error) {
	slug := strcase.ToKebab(strings.TrimSpace(cmd.Type))
	if slug == "" {
		return "", errors.New("widgetctl: widget type is required")
	}
	for _, builtin := range dashboard.DefaultWidgetDefinitions() {
		if builtin.Type == dashboard.WidgetType(slug) {
			return "", fmt.Errorf("widgetctl: %s is a built-in widget type", slug)
		}
	}
	return dashboard.WidgetType(slug), nil
}

func (cmd *scaffoldCmd) loadSchema() (map[string]any, error) {
	if cmd.SchemaPath == "" {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}, nil
	}
	data, err := os.ReadFile(cmd.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("widgetctl: read schema file: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("widgetctl: parse schema JSON: %w", err)
	}
	return schema, nil
}

func (cmd *validateCmd) Run(_ context.Context) error {
	return cmd.run(os.Stdout)
}

func (cmd *validateCmd) run(out io.Writer) error {
	var errs error
	for _, path := range cmd.Paths {
		reg := dashboard.NewRegistry()
		before := len(reg.ListAll())
		if _, err := reg.LoadManifestFile(path); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %d widget(s)\n", path, len(reg.ListAll())-before)
	}
	return errs
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc := &dashboard.WidgetManifestDocument{
				Version: dashboard.ManifestVersion,
				Widgets: []dashboard.ManifestWidget{},
				Source:  path,
			}
			return doc, nil
		}
		return nil, fmt.Errorf("widgetctl: stat manifest: %w", err)
	}
	doc, err := dashboard.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("widgetctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmpDoc := *doc
	tmpDoc.Source = ""

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("widgetctl: create manifest %s: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	defer encoder.Close()
	if err := encoder.Encode(tmpDoc); err != nil {
		return fmt.Errorf("widgetctl: write manifest: %w", err)
	}
	return nil
}
