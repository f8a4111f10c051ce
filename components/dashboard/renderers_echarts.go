package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

// ChartRenderer renders chart widgets to server-side ECharts markup.
type ChartRenderer struct {
	cache      RenderCache
	assetsHost string
	height     string
}

// ChartRendererOption customizes a ChartRenderer.
type ChartRendererOption func(*ChartRenderer)

// WithChartCache injects a render cache. A nil cache disables caching.
func WithChartCache(cache RenderCache) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

func WithChartHeight(height string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.height = height
	}
}

func NewChartRenderer(options ...ChartRendererOption) *ChartRenderer {
	r := &ChartRenderer{
		cache:  NewChartCache(5 * time.Minute),
		height: defaultChartHeight,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

type chartSeries struct {
	Name   string
	Labels []string
	Values []float64
}

type chartSpec struct {
	Widget   string
	Chart    ChartType
	Title    string
	Subtitle string
	Theme    string
	Series   []chartSeries
}

func (r *ChartRenderer) Render(_ context.Context, props WidgetProps) (WidgetView, error) {
	chartType := props.Config.ChartType
	if chartType == "" {
		chartType = ChartLine
	}
	metricType := props.Config.MetricType
	if metricType == "" {
		metricType = MetricTotalContracts
	}
	catalog := props.Catalog
	if catalog == nil {
		catalog = defaultCatalog
	}
	def, ok := catalog.Lookup(metricType)
	if !ok {
		return WidgetView{}, fmt.Errorf("dashboard: chart metric %s is not in the catalog", metricType)
	}

	spec := chartSpec{
		Widget: props.ID,
		Chart:  chartType,
		Title:  def.NameForLocale(props.Locale),
		Theme:  chartTheme(props.Theme),
	}
	if display := props.Config.DisplayOptions; display != nil {
		if display.Title != "" {
			spec.Title = display.Title
		}
		spec.Subtitle = display.Subtitle
	}
	read := []MetricType{metricType}
	switch chartType {
	case ChartPie, ChartDonut:
		read = catalog.ListByCategory()[def.Category]
		spec.Series = []chartSeries{categorySlices(catalog, props.Metrics, def, props.Locale)}
	case ChartStackedBar:
		read = catalog.ListByCategory()[def.Category]
		for _, metric := range read {
			member, _ := catalog.Lookup(metric)
			spec.Series = append(spec.Series, trendSeries(props.Metrics, member, props.Locale))
		}
	default:
		spec.Series = []chartSeries{trendSeries(props.Metrics, def, props.Locale)}
	}

	render := func() (string, error) {
		return r.render(spec)
	}
	var (
		html string
		err  error
	)
	if r.cache != nil {
		key := ChartKey{
			Widget: props.ID,
			Chart:  chartType,
			Config: configHash([]any{props.Config, spec.Title, spec.Theme, props.Locale, r.height, r.assetsHost}),
			Data:   dataVersion(props.Metrics, read, spec.Series),
		}
		html, err = r.cache.GetOrRender(key, render)
	} else {
		html, err = render()
	}
	if err != nil {
		return WidgetView{}, err
	}
	return WidgetView{
		Title:    spec.Title,
		Subtitle: spec.Subtitle,
		HTML:     html,
		Data: map[string]any{
			"chart_type":  string(chartType),
			"metric_type": string(metricType),
			"theme":       spec.Theme,
			"series":      len(spec.Series),
		},
	}, nil
}

func (r *ChartRenderer) render(spec chartSpec) (string, error) {
	global := r.globalOptions(spec)
	switch spec.Chart {
	case ChartBar, ChartStackedBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(axisLabels(spec.Series))
		for _, s := range spec.Series {
			if spec.Chart == ChartStackedBar {
				bar.AddSeries(s.Name, toBarData(s), charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
				continue
			}
			bar.AddSeries(s.Name, toBarData(s))
		}
		return renderChart(bar)
	case ChartPie, ChartDonut:
		pie := charts.NewPie()
		pie.SetGlobalOptions(global...)
		for _, s := range spec.Series {
			if spec.Chart == ChartDonut {
				pie.AddSeries(s.Name, toPieData(s), charts.WithPieChartOpts(opts.PieChart{Radius: []string{"40%", "70%"}}))
				continue
			}
			pie.AddSeries(s.Name, toPieData(s))
		}
		return renderChart(pie)
	case ChartLine, ChartArea:
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(axisLabels(spec.Series))
		for _, s := range spec.Series {
			line.AddSeries(s.Name, toLineData(s))
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		if spec.Chart == ChartArea {
			line.SetSeriesOptions(charts.WithAreaStyleOpts(opts.AreaStyle{}))
		}
		return renderChart(line)
	default:
		return "", fmt.Errorf("dashboard: unsupported chart type %q", spec.Chart)
	}
}

func (r *ChartRenderer) globalOptions(spec chartSpec) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  spec.Theme,
		Width:  "100%",
		Height: r.height,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Subtitle: spec.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(spec.Series) > 1 || spec.Chart == ChartPie || spec.Chart == ChartDonut)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func chartTheme(theme Theme) string {
	if theme == ThemeDark {
		return types.ThemeChalk
	}
	return types.ThemeWesteros
}

// trendSeries plots the cached trend of a metric. Without a trend the latest
// value is drawn as a single point.
func trendSeries(metrics MetricSource, def MetricDefinition, locale string) chartSeries {
	series := chartSeries{Name: def.NameForLocale(locale)}
	if metrics == nil {
		return series
	}
	data, ok := metrics.MetricData(def.Type)
	if !ok {
		return series
	}
	if len(data.Trend) == 0 {
		label := "now"
		if !data.Timestamp.IsZero() {
			label = data.Timestamp.Format("2006-01-02")
		}
		series.Labels = []string{label}
		series.Values = []float64{data.Value}
		return series
	}
	for _, point := range data.Trend {
		series.Labels = append(series.Labels, point.Date)
		series.Values = append(series.Values, point.Value)
	}
	return series
}

// categorySlices builds one pie slice per metric sharing def's category.
func categorySlices(catalog *MetricCatalog, metrics MetricSource, def MetricDefinition, locale string) chartSeries {
	series := chartSeries{Name: def.NameForLocale(locale)}
	for _, metric := range catalog.ListByCategory()[def.Category] {
		member, ok := catalog.Lookup(metric)
		if !ok {
			continue
		}
		value := 0.0
		if metrics != nil {
			if data, ok := metrics.MetricData(metric); ok {
				value = data.Value
			}
		}
		series.Labels = append(series.Labels, member.NameForLocale(locale))
		series.Values = append(series.Values, value)
	}
	return series
}

func axisLabels(series []chartSeries) []string {
	var longest []string
	for _, s := range series {
		if len(s.Labels) > len(longest) {
			longest = s.Labels
		}
	}
	return longest
}

func toBarData(s chartSeries) []opts.BarData {
	data := make([]opts.BarData, len(s.Values))
	for i, value := range s.Values {
		data[i] = opts.BarData{Name: labelAt(s.Labels, i), Value: value}
	}
	return data
}

func toLineData(s chartSeries) []opts.LineData {
	data := make([]opts.LineData, len(s.Values))
	for i, value := range s.Values {
		data[i] = opts.LineData{Name: labelAt(s.Labels, i), Value: value}
	}
	return data
}

func toPieData(s chartSeries) []opts.PieData {
	data := make([]opts.PieData, len(s.Values))
	for i, value := range s.Values {
		name := labelAt(s.Labels, i)
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{Name: name, Value: value}
	}
	return data
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}
