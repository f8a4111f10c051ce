package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: ops-pack
widgets:
  - definition:
      type: queue-depth
      name: Queue Depth
      description: Shows the OCR queue depth.
      category: system
      default_size: { w: 3, h: 2 }
      min_size: { w: 2, h: 2 }
      default_config:
        metric_type: backlog
      schema:
        type: object
        properties:
          metricType:
            type: string
    renderer:
      kind: metric-card
      name: Queue Renderer
      summary: Reads the backlog metric.
      docs_url: https://example.com/widgets/queue
      capabilities: ["html","json"]
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, WidgetType("queue-depth"), widget.Definition.Type)
	assert.Equal(t, "Queue Depth", widget.Definition.Name)
	assert.Equal(t, CategorySystem, widget.Definition.Category)
	assert.Equal(t, MetricBacklog, widget.Definition.DefaultConfig.MetricType)
	assert.Equal(t, RendererKindMetricCard, widget.Renderer.Kind)
	assert.Equal(t, "Queue Renderer", widget.Renderer.Name)
}

func TestDecodeManifestDefaultsSizeToMin(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: tiny
      name: Tiny
      min_size: { w: 2, h: 1 }
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, doc.Version)
	assert.Equal(t, Size{W: 2, H: 1}, doc.Widgets[0].Definition.DefaultSize)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: odd
      name: Odd
      min_size: { w: 1, h: 1 }
      colour: red
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
}

func TestRegistryLoadManifestDocument(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Widgets: []ManifestWidget{
			{
				Definition: WidgetDefinition{
					Type:        "approval-trend",
					Name:        "Approval Trend",
					Category:    CategoryAnalytics,
					DefaultSize: Size{W: 6, H: 4},
					MinSize:     Size{W: 4, H: 3},
				},
				Renderer: ManifestRenderer{
					Kind:    RendererKindChart,
					Name:    "Approval Trend Chart",
					Summary: "Line chart of approvals",
				},
			},
		},
	}
	reg := NewRegistry()

	err := reg.LoadManifestDocument(doc)
	require.NoError(t, err)

	def, ok := reg.Lookup("approval-trend")
	require.True(t, ok)
	assert.Equal(t, "Approval Trend", def.Name)
	assert.NotNil(t, def.Renderer)

	meta, ok := reg.RendererMetadata("approval-trend")
	require.True(t, ok)
	assert.Equal(t, "Approval Trend Chart", meta.Name)

	all := reg.ListAll()
	assert.Equal(t, WidgetType("approval-trend"), all[len(all)-1].Type)
}

func TestManifestDuplicateTypes(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: dup-widget
      name: First
      min_size: { w: 1, h: 1 }
  - definition:
      type: dup-widget
      name: Second
      min_size: { w: 1, h: 1 }
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates widget type")
}

func TestManifestRejectsUnknownRendererKind(t *testing.T) {
	const payload = `
widgets:
  - definition:
      type: gauge
      name: Gauge
      min_size: { w: 1, h: 1 }
    renderer:
      kind: gauge
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown renderer kind")
}

func TestDocsManifestsAreValid(t *testing.T) {
	dir := filepath.Join("..", "..", "docs", "manifests")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	types := map[WidgetType]string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		doc, err := ReadManifest(path)
		require.NoErrorf(t, err, "manifest %s should parse", path)
		for _, widget := range doc.Widgets {
			if _, builtin := NewRegistry().Lookup(widget.Definition.Type); builtin {
				t.Fatalf("manifest %s redefines built-in widget %s", path, widget.Definition.Type)
			}
			if prev, exists := types[widget.Definition.Type]; exists {
				t.Fatalf("widget type %s defined in both %s and %s", widget.Definition.Type, prev, path)
			}
			types[widget.Definition.Type] = path
		}
	}
}
