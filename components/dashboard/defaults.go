package dashboard

import (
	"time"
)

const (
	// DefaultDashboardID identifies the built-in layout.
	DefaultDashboardID   = "default"
	defaultDashboardName = "Default Dashboard"
	defaultUserID        = "user-1"
)

// WidgetCategoryDefinition describes a gallery category tab.
type WidgetCategoryDefinition struct {
	ID            WidgetCategory    `json:"id"`
	Name          string            `json:"name"`
	NameLocalized map[string]string `json:"name_localized,omitempty"`
	Icon          string            `json:"icon,omitempty"`
}

var defaultWidgetCategories = []WidgetCategoryDefinition{
	{ID: CategoryOverview, Name: "Overview", NameLocalized: th("ภาพรวม"), Icon: "Eye"},
	{ID: CategoryAnalytics, Name: "Analytics", NameLocalized: th("การวิเคราะห์"), Icon: "BarChart3"},
	{ID: CategoryPerformance, Name: "Performance", NameLocalized: th("ประสิทธิภาพ"), Icon: "Activity"},
	{ID: CategorySystem, Name: "System", NameLocalized: th("ระบบ"), Icon: "AlertCircle"},
	{ID: CategoryData, Name: "Data", NameLocalized: th("ข้อมูล"), Icon: "Table"},
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Type:                 WidgetMetricCard,
		Name:                 "Metric Card",
		NameLocalized:        th("การ์ดตัวชี้วัด"),
		Description:          "Display a single metric with trend indicator",
		DescriptionLocalized: th("แสดงตัวชี้วัดเดียวพร้อมแนวโน้ม"),
		Icon:                 "Activity",
		Category:             CategoryOverview,
		DefaultConfig: WidgetConfig{
			MetricType:     MetricTotalContracts,
			TimeRange:      TimeRange7d,
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(true), ShowComparison: Bool(true)},
		},
		DefaultSize:    Size{W: 3, H: 2},
		MinSize:        Size{W: 2, H: 2},
		MaxSize:        &Size{W: 4, H: 3},
		Configurable:   true,
		RequiresMetric: true,
	},
	{
		Type:                 WidgetChart,
		Name:                 "Chart",
		NameLocalized:        th("กราฟ"),
		Description:          "Visualize data with various chart types",
		DescriptionLocalized: th("แสดงข้อมูลด้วยกราฟหลายรูปแบบ"),
		Icon:                 "BarChart3",
		Category:             CategoryAnalytics,
		DefaultConfig: WidgetConfig{
			ChartType:      ChartLine,
			MetricType:     MetricTotalContracts,
			TimeRange:      TimeRange30d,
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(true)},
		},
		DefaultSize:    Size{W: 6, H: 4},
		MinSize:        Size{W: 4, H: 3},
		MaxSize:        &Size{W: 12, H: 6},
		Configurable:   true,
		RequiresMetric: true,
	},
	{
		Type:                 WidgetTable,
		Name:                 "Data Table",
		NameLocalized:        th("ตารางข้อมูล"),
		Description:          "Display detailed data in table format",
		DescriptionLocalized: th("แสดงข้อมูลรายละเอียดในรูปแบบตาราง"),
		Icon:                 "Table",
		Category:             CategoryData,
		DefaultConfig: WidgetConfig{
			TimeRange:      TimeRange7d,
			DisplayOptions: &DisplayOptions{Title: "Contract Details"},
		},
		DefaultSize:  Size{W: 12, H: 6},
		MinSize:      Size{W: 6, H: 4},
		MaxSize:      &Size{W: 12, H: 8},
		Configurable: true,
	},
	{
		Type:                 WidgetStatus,
		Name:                 "Status Indicator",
		NameLocalized:        th("ตัวบ่งชี้สถานะ"),
		Description:          "Show system or process status",
		DescriptionLocalized: th("แสดงสถานะระบบหรือกระบวนการ"),
		Icon:                 "AlertCircle",
		Category:             CategorySystem,
		DefaultConfig: WidgetConfig{
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(false)},
		},
		DefaultSize: Size{W: 3, H: 2},
		MinSize:     Size{W: 2, H: 2},
		MaxSize:     &Size{W: 4, H: 3},
	},
	{
		Type:                 WidgetContractSummary,
		Name:                 "Contract Summary",
		NameLocalized:        th("สรุปสถานะสัญญา"),
		Description:          "Comprehensive contract overview with charts",
		DescriptionLocalized: th("ภาพรวมสัญญาแบบครบถ้วนพร้อมกราฟ"),
		Icon:                 "PieChart",
		Category:             CategoryOverview,
		DefaultConfig: WidgetConfig{
			TimeRange:      TimeRange7d,
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(true)},
		},
		DefaultSize:  Size{W: 12, H: 6},
		MinSize:      Size{W: 8, H: 5},
		MaxSize:      &Size{W: 12, H: 8},
		Configurable: true,
	},
	{
		Type:                 WidgetTrendChart,
		Name:                 "Trend Analysis",
		NameLocalized:        th("การวิเคราะห์แนวโน้ม"),
		Description:          "Analyze trends over time",
		DescriptionLocalized: th("วิเคราะห์แนวโน้มตามช่วงเวลา"),
		Icon:                 "BarChart3",
		Category:             CategoryAnalytics,
		DefaultConfig: WidgetConfig{
			ChartType:      ChartArea,
			TimeRange:      TimeRange30d,
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(true), ShowComparison: Bool(true)},
		},
		DefaultSize:    Size{W: 6, H: 4},
		MinSize:        Size{W: 4, H: 3},
		MaxSize:        &Size{W: 12, H: 6},
		Configurable:   true,
		RequiresMetric: true,
	},
	{
		Type:                 WidgetDataQuality,
		Name:                 "Data Quality",
		NameLocalized:        th("คุณภาพข้อมูล"),
		Description:          "Monitor data quality metrics",
		DescriptionLocalized: th("ติดตามตัวชี้วัดคุณภาพข้อมูล"),
		Icon:                 "Activity",
		Category:             CategoryAnalytics,
		DefaultConfig: WidgetConfig{
			MetricType:     MetricOCRConfidence,
			TimeRange:      TimeRange7d,
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(true)},
		},
		DefaultSize:    Size{W: 6, H: 4},
		MinSize:        Size{W: 4, H: 3},
		MaxSize:        &Size{W: 8, H: 6},
		Configurable:   true,
		RequiresMetric: true,
	},
	{
		Type:                 WidgetSystemHealth,
		Name:                 "System Health",
		NameLocalized:        th("สุขภาพระบบ"),
		Description:          "Monitor system health and performance",
		DescriptionLocalized: th("ติดตามสุขภาพและประสิทธิภาพระบบ"),
		Icon:                 "AlertCircle",
		Category:             CategorySystem,
		DefaultConfig: WidgetConfig{
			DisplayOptions: &DisplayOptions{ShowTrend: Bool(false)},
		},
		DefaultSize: Size{W: 6, H: 3},
		MinSize:     Size{W: 4, H: 2},
		MaxSize:     &Size{W: 8, H: 4},
	},
}

// DefaultWidgetDefinitions returns the built-in widget definitions in
// declaration order, each with its configuration schema attached.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	for i, def := range defaultWidgetDefinitions {
		def.DefaultConfig = def.DefaultConfig.Clone()
		def.Schema = WidgetConfigSchema(defaultMetricDefinitions)
		out[i] = def
	}
	return out
}

// DefaultWidgetCategories returns the gallery categories in display order.
func DefaultWidgetCategories() []WidgetCategoryDefinition {
	return append([]WidgetCategoryDefinition(nil), defaultWidgetCategories...)
}

// DefaultLayout returns the built-in dashboard stamped with now.
func DefaultLayout(now time.Time) DashboardLayout {
	return DashboardLayout{
		ID:        DefaultDashboardID,
		Name:      defaultDashboardName,
		Layouts:   []GridItem{},
		Widgets:   []WidgetInstance{},
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DefaultSeedWidgets returns the starter metric cards placed on an empty
// dashboard by SeedDashboard.
func DefaultSeedWidgets() []WidgetInstance {
	metrics := []MetricType{MetricTotalContracts, MetricCheckedContracts, MetricOCRConfidence, MetricAccuracyRate}
	out := make([]WidgetInstance, 0, len(metrics))
	for i, metric := range metrics {
		out = append(out, WidgetInstance{
			Type: WidgetMetricCard,
			Config: WidgetConfig{
				MetricType:     metric,
				TimeRange:      TimeRange7d,
				DisplayOptions: &DisplayOptions{ShowTrend: Bool(true), ShowComparison: Bool(true)},
			},
			Position: Position{X: i * 3, Y: 0, W: 3, H: 2},
			MinW:     2,
			MinH:     2,
		})
	}
	return out
}

func th(value string) map[string]string {
	return map[string]string{LocaleThai: value}
}
