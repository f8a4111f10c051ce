package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// Renderer kinds a manifest widget can bind to.
const (
	RendererKindMetricCard = "metric-card"
	RendererKindChart      = "chart"
	RendererKindSummary    = "summary"
)

// WidgetManifestDocument models a YAML/JSON manifest describing extra widget definitions.
type WidgetManifestDocument struct {
	Version  string           `json:"version" yaml:"version"`
	Name     string           `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string           `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string           `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets  []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source   string           `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget entry within a manifest.
type ManifestWidget struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Renderer    ManifestRenderer `json:"renderer,omitempty" yaml:"renderer,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestRenderer selects a built-in renderer kind and records discovery metadata.
type ManifestRenderer struct {
	Kind         string   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// LoadManifestFile reads a manifest from disk, registers it against the registry, and returns the document.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions and renderer metadata from a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return errors.New("dashboard: manifest document is nil")
	}
	for _, widget := range doc.Widgets {
		def := widget.Definition
		if def.Renderer == nil {
			def.Renderer = rendererForKind(widget.Renderer.Kind)
		}
		if err := r.RegisterDefinition(def); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", def.Type, doc.Source, err)
		}
		r.recordRendererMetadata(def.Type, widget.Renderer)
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[WidgetType]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		def := widget.Definition
		if def.Type == "" {
			return fmt.Errorf("dashboard: manifest widget at index %d is missing definition.type", idx)
		}
		if def.Name == "" {
			return fmt.Errorf("dashboard: manifest widget %s missing definition.name", def.Type)
		}
		if _, exists := seen[def.Type]; exists {
			return fmt.Errorf("dashboard: manifest duplicates widget type %s", def.Type)
		}
		seen[def.Type] = struct{}{}
		if err := validateSizes(def); err != nil {
			return err
		}
		switch widget.Renderer.Kind {
		case "", RendererKindMetricCard, RendererKindChart, RendererKindSummary:
		default:
			return fmt.Errorf("dashboard: manifest widget %s uses unknown renderer kind %q", def.Type, widget.Renderer.Kind)
		}
	}
	return nil
}

func (doc *WidgetManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	for i := range doc.Widgets {
		def := &doc.Widgets[i].Definition
		if def.DefaultSize == (Size{}) {
			def.DefaultSize = def.MinSize
		}
	}
}

func (p ManifestRenderer) isZero() bool {
	return p.Kind == "" &&
		p.Name == "" &&
		p.Summary == "" &&
		p.DocsURL == "" &&
		len(p.Capabilities) == 0 &&
		p.Channel == ""
}
