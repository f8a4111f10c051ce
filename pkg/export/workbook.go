package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	dashboard "github.com/goliatone/go-loi-dashboard/components/dashboard"
)

// Sheet names of the exported workbook.
const (
	WidgetsSheet = "Widgets"
	MetricsSheet = "Metrics"
)

var (
	widgetColumns = []string{"ID", "Type", "Widget", "Metric", "Chart", "Time range", "X", "Y", "W", "H"}
	metricColumns = []string{"Metric", "Name", "Category", "Unit", "Value", "Display", "Change", "Direction", "Period", "Source", "Updated"}

	errNoSnapshot = errors.New("export: snapshot source is required")
)

// Snapshotter is the read side of the dashboard store.
type Snapshotter interface {
	Snapshot() dashboard.StoreSnapshot
}

// Options selects the lookups used to label rows.
type Options struct {
	Registry *dashboard.Registry
	Catalog  *dashboard.MetricCatalog
	Locale   string
}

// Build writes the current dashboard and the metric cache into a new
// workbook. The caller owns the returned file and must close it.
func Build(snap dashboard.StoreSnapshot, opts Options) (*excelize.File, error) {
	if opts.Registry == nil {
		opts.Registry = dashboard.NewRegistry()
	}
	if opts.Catalog == nil {
		opts.Catalog = dashboard.NewMetricCatalog()
	}
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	// The default sheet is renamed so the workbook opens on the widgets.
	if err := f.SetSheetName(f.GetSheetName(0), WidgetsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(MetricsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("export: add sheet: %w", err)
	}

	if err := writeRows(f, WidgetsSheet, header, widgetColumns, widgetRows(snap.CurrentDashboard, opts)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, MetricsSheet, header, metricColumns, metricRows(snap.MetricsData, opts)); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook for the store's current state and writes it to w.
func Write(w io.Writer, store Snapshotter, opts Options) error {
	if store == nil {
		return errNoSnapshot
	}
	f, err := Build(store.Snapshot(), opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func widgetRows(current *dashboard.DashboardLayout, opts Options) [][]any {
	if current == nil {
		return nil
	}
	rows := make([][]any, 0, len(current.Widgets))
	for _, w := range current.Widgets {
		name := string(w.Type)
		if def, ok := opts.Registry.Lookup(w.Type); ok {
			name = def.NameForLocale(opts.Locale)
		}
		rows = append(rows, []any{
			w.ID,
			string(w.Type),
			name,
			string(w.Config.MetricType),
			string(w.Config.ChartType),
			string(w.Config.TimeRange),
			w.Position.X,
			w.Position.Y,
			w.Position.W,
			w.Position.H,
		})
	}
	return rows
}

// metricRows lists cached metrics in catalog order, then any uncatalogued
// metric types sorted by name.
func metricRows(data map[dashboard.MetricType]dashboard.MetricData, opts Options) [][]any {
	rows := make([][]any, 0, len(data))
	seen := make(map[dashboard.MetricType]struct{}, len(data))
	for _, def := range opts.Catalog.ListAll() {
		value, ok := data[def.Type]
		if !ok {
			continue
		}
		seen[def.Type] = struct{}{}
		rows = append(rows, metricRow(value, def, opts.Locale))
	}
	var rest []dashboard.MetricType
	for metricType := range data {
		if _, ok := seen[metricType]; !ok {
			rest = append(rest, metricType)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, metricType := range rest {
		rows = append(rows, metricRow(data[metricType], dashboard.MetricDefinition{Type: metricType, Name: string(metricType)}, opts.Locale))
	}
	return rows
}

func metricRow(value dashboard.MetricData, def dashboard.MetricDefinition, locale string) []any {
	var change, direction, period any = "", "", ""
	if value.Change != nil {
		change = value.Change.Value
		direction = string(value.Change.Type)
		period = value.Change.Period
	}
	updated := ""
	if !value.Timestamp.IsZero() {
		updated = value.Timestamp.UTC().Format(time.RFC3339)
	}
	return []any{
		string(def.Type),
		def.NameForLocale(locale),
		string(def.Category),
		string(def.Unit),
		value.Value,
		dashboard.FormatMetricValue(value, def.Unit),
		change,
		direction,
		period,
		value.Source,
		updated,
	}
}

func writeRows(f *excelize.File, sheet string, header int, columns []string, rows [][]any) error {
	headerRow := make([]any, len(columns))
	for i, col := range columns {
		headerRow[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("export: %s header: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("export: %s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export: %s row %d: %w", sheet, i+1, err)
		}
	}
	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, 16); err != nil {
			return fmt.Errorf("export: %s column width: %w", sheet, err)
		}
	}
	return nil
}
