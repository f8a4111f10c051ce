package dashboard

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MetricDefinition is the immutable catalog entry for a metric.
type MetricDefinition struct {
	Type                 MetricType        `json:"type"`
	Name                 string            `json:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty"`
	Unit                 MetricUnit        `json:"unit"`
	Category             MetricCategory    `json:"category"`
	Aggregations         []AggregationType `json:"aggregations"`
	Source               string            `json:"source"`
	Icon                 string            `json:"icon,omitempty"`
	Color                string            `json:"color,omitempty"`
}

// SupportsAggregation reports whether agg is allowed for the metric.
func (def MetricDefinition) SupportsAggregation(agg AggregationType) bool {
	for _, candidate := range def.Aggregations {
		if candidate == agg {
			return true
		}
	}
	return false
}

// MetricCategoryDefinition groups metric types for selection menus.
type MetricCategoryDefinition struct {
	ID            MetricCategory    `json:"id"`
	Name          string            `json:"name"`
	NameLocalized map[string]string `json:"name_localized,omitempty"`
	Metrics       []MetricType      `json:"metrics"`
}

const (
	sourceSimplicity = "Simplicity"
	sourceAutocheck  = "LOI Autocheck"
)

var defaultMetricDefinitions = []MetricDefinition{
	{
		Type: MetricTotalContracts, Name: "Total Contracts", NameLocalized: th("จำนวนสัญญาทั้งหมดจาก Simplicity"),
		Description: "Total number of contracts from Simplicity system", DescriptionLocalized: th("จำนวนสัญญาทั้งหมดที่นำเข้าจากระบบ Simplicity"),
		Unit: UnitNumber, Category: MetricCategoryContract,
		Aggregations: []AggregationType{AggregationSum, AggregationCount, AggregationAvg},
		Source:       sourceSimplicity, Icon: "Database", Color: "#0471d1",
	},
	{
		Type: MetricCheckedContracts, Name: "Checked by LOI Autocheck", NameLocalized: th("ตรวจโดยระบบ LOI Autocheck"),
		Description: "Number of contracts checked by LOI Autocheck system", DescriptionLocalized: th("จำนวนสัญญาที่ได้รับการตรวจสอบโดยระบบ LOI Autocheck"),
		Unit: UnitNumber, Category: MetricCategoryContract,
		Aggregations: []AggregationType{AggregationSum, AggregationCount, AggregationAvg},
		Source:       sourceAutocheck, Icon: "Eye", Color: "#0471d1",
	},
	{
		Type: MetricApproved, Name: "Approved", NameLocalized: th("อนุมัติ"),
		Description: "Number of approved contracts", DescriptionLocalized: th("จำนวนสัญญาที่อนุมัติแล้ว"),
		Unit: UnitNumber, Category: MetricCategoryContract,
		Aggregations: []AggregationType{AggregationSum, AggregationCount},
		Source:       sourceAutocheck, Icon: "CheckCircle", Color: "#10b981",
	},
	{
		Type: MetricNotApproved, Name: "Not Approved", NameLocalized: th("ไม่อนุมัติ"),
		Description: "Number of contracts not approved", DescriptionLocalized: th("จำนวนสัญญาที่ไม่อนุมัติ"),
		Unit: UnitNumber, Category: MetricCategoryContract,
		Aggregations: []AggregationType{AggregationSum, AggregationCount},
		Source:       sourceAutocheck, Icon: "XCircle", Color: "#ef4444",
	},
	{
		Type: MetricUnderReview, Name: "Under Review", NameLocalized: th("อยู่ระหว่างการตรวจสอบ"),
		Description: "Number of contracts under review", DescriptionLocalized: th("จำนวนสัญญาที่อยู่ระหว่างการตรวจสอบ"),
		Unit: UnitNumber, Category: MetricCategoryContract,
		Aggregations: []AggregationType{AggregationSum, AggregationCount},
		Source:       sourceAutocheck, Icon: "AlertTriangle", Color: "#f59e0b",
	},
	{
		Type: MetricOCRConfidence, Name: "Average OCR Confidence", NameLocalized: th("ค่าความมั่นใจ OCR เฉลี่ย"),
		Description: "Average OCR confidence level", DescriptionLocalized: th("ระดับความมั่นใจของ OCR โดยเฉลี่ย"),
		Unit: UnitPercentage, Category: MetricCategoryQuality,
		Aggregations: []AggregationType{AggregationAvg, AggregationMin, AggregationMax},
		Source:       sourceAutocheck, Icon: "Activity", Color: "#10b981",
	},
	{
		Type: MetricAccuracyRate, Name: "Average Accuracy Rate", NameLocalized: th("อัตราความแม่นยำเฉลี่ย"),
		Description: "Average accuracy rate of contract processing", DescriptionLocalized: th("อัตราความแม่นยำในการประมวลผลสัญญาโดยเฉลี่ย"),
		Unit: UnitPercentage, Category: MetricCategoryQuality,
		Aggregations: []AggregationType{AggregationAvg, AggregationMin, AggregationMax},
		Source:       sourceAutocheck, Icon: "Target", Color: "#10b981",
	},
	{
		Type: MetricProcessingTime, Name: "Average Processing Time", NameLocalized: th("เวลาเฉลี่ยต่อสัญญา"),
		Description: "Average time to process one contract", DescriptionLocalized: th("เวลาเฉลี่ยในการประมวลผลสัญญาหนึ่งฉบับ"),
		Unit: UnitTime, Category: MetricCategoryPerformance,
		Aggregations: []AggregationType{AggregationAvg, AggregationMin, AggregationMax},
		Source:       sourceAutocheck, Icon: "Timer", Color: "#0471d1",
	},
	{
		Type: MetricManualValidation, Name: "Manual Validation Rate", NameLocalized: th("การตรวจสอบด้วยมือเฉลี่ย"),
		Description: "Percentage requiring manual validation", DescriptionLocalized: th("เปอร์เซ็นต์ที่ต้องการการตรวจสอบด้วยมือ"),
		Unit: UnitPercentage, Category: MetricCategoryPerformance,
		Aggregations: []AggregationType{AggregationAvg},
		Source:       sourceAutocheck, Icon: "Users", Color: "#f59e0b",
	},
	{
		Type: MetricCycleTime, Name: "Cycle Time", NameLocalized: th("Cycle Time"),
		Description: "Time from creation to decision", DescriptionLocalized: th("เวลาจากการสร้างถึงการตัดสินใจ"),
		Unit: UnitTime, Category: MetricCategoryPerformance,
		Aggregations: []AggregationType{AggregationAvg, AggregationMin, AggregationMax},
		Source:       sourceAutocheck, Icon: "Clock", Color: "#0471d1",
	},
	{
		Type: MetricBacklog, Name: "Backlog", NameLocalized: th("Backlog ค้างตรวจ"),
		Description: "Pending review backlog", DescriptionLocalized: th("จำนวนสัญญาที่รอการตรวจสอบ"),
		Unit: UnitNumber, Category: MetricCategorySystem,
		Aggregations: []AggregationType{AggregationSum, AggregationCount},
		Source:       sourceAutocheck, Icon: "BarChart3", Color: "#f59e0b",
	},
}

var defaultMetricCategories = []MetricCategoryDefinition{
	{
		ID: MetricCategoryContract, Name: "Contract Quantity", NameLocalized: th("จำนวนสัญญา"),
		Metrics: []MetricType{MetricTotalContracts, MetricCheckedContracts, MetricApproved, MetricNotApproved, MetricUnderReview},
	},
	{
		ID: MetricCategoryPerformance, Name: "Performance", NameLocalized: th("ประสิทธิภาพ"),
		Metrics: []MetricType{MetricProcessingTime, MetricManualValidation, MetricCycleTime},
	},
	{
		ID: MetricCategoryQuality, Name: "Quality", NameLocalized: th("คุณภาพ"),
		Metrics: []MetricType{MetricOCRConfidence, MetricAccuracyRate},
	},
	{
		ID: MetricCategorySystem, Name: "System", NameLocalized: th("ระบบ"),
		Metrics: []MetricType{MetricBacklog},
	},
}

var (
	errMetricType         = errors.New("dashboard: metric type is required")
	errMetricAggregations = errors.New("dashboard: metric requires at least one aggregation")
)

// MetricCatalog is a read-only lookup of metric definitions. It is fixed at
// construction and safe for concurrent use.
type MetricCatalog struct {
	order      []MetricType
	defs       map[MetricType]MetricDefinition
	categories []MetricCategoryDefinition
}

// NewMetricCatalog returns the built-in catalog.
func NewMetricCatalog() *MetricCatalog {
	catalog, err := NewMetricCatalogFrom(defaultMetricDefinitions, defaultMetricCategories)
	if err != nil {
		panic(fmt.Errorf("dashboard: built-in metric catalog: %w", err))
	}
	return catalog
}

// NewMetricCatalogFrom builds a catalog from explicit definitions. Categories
// are optional; when empty they are derived from the definitions.
func NewMetricCatalogFrom(defs []MetricDefinition, categories []MetricCategoryDefinition) (*MetricCatalog, error) {
	catalog := &MetricCatalog{defs: make(map[MetricType]MetricDefinition, len(defs))}
	for _, def := range defs {
		if def.Type == "" {
			return nil, errMetricType
		}
		if len(def.Aggregations) == 0 {
			return nil, fmt.Errorf("%w: %s", errMetricAggregations, def.Type)
		}
		if _, exists := catalog.defs[def.Type]; !exists {
			catalog.order = append(catalog.order, def.Type)
		}
		def.Aggregations = append([]AggregationType(nil), def.Aggregations...)
		def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
		def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
		catalog.defs[def.Type] = def
	}
	if len(categories) == 0 {
		categories = deriveMetricCategories(catalog.order, catalog.defs)
	}
	for _, cat := range categories {
		for _, metric := range cat.Metrics {
			if _, ok := catalog.defs[metric]; !ok {
				return nil, fmt.Errorf("dashboard: metric category %s references unknown metric %s", cat.ID, metric)
			}
		}
		cat.Metrics = append([]MetricType(nil), cat.Metrics...)
		catalog.categories = append(catalog.categories, cat)
	}
	return catalog, nil
}

func deriveMetricCategories(order []MetricType, defs map[MetricType]MetricDefinition) []MetricCategoryDefinition {
	var out []MetricCategoryDefinition
	index := map[MetricCategory]int{}
	for _, metric := range order {
		cat := defs[metric].Category
		idx, ok := index[cat]
		if !ok {
			idx = len(out)
			index[cat] = idx
			out = append(out, MetricCategoryDefinition{ID: cat, Name: string(cat)})
		}
		out[idx].Metrics = append(out[idx].Metrics, metric)
	}
	return out
}

// Lookup returns the definition for metricType.
func (c *MetricCatalog) Lookup(metricType MetricType) (MetricDefinition, bool) {
	if c == nil {
		return MetricDefinition{}, false
	}
	def, ok := c.defs[metricType]
	if !ok {
		return MetricDefinition{}, false
	}
	def.Aggregations = append([]AggregationType(nil), def.Aggregations...)
	return def, true
}

// ListAll returns every definition in declaration order.
func (c *MetricCatalog) ListAll() []MetricDefinition {
	out := make([]MetricDefinition, 0, len(c.order))
	for _, metric := range c.order {
		def, _ := c.Lookup(metric)
		out = append(out, def)
	}
	return out
}

// Types returns every metric type in declaration order.
func (c *MetricCatalog) Types() []MetricType {
	return append([]MetricType(nil), c.order...)
}

// ListByCategory groups metric types by category, each slice in category order.
func (c *MetricCatalog) ListByCategory() map[MetricCategory][]MetricType {
	out := make(map[MetricCategory][]MetricType, len(c.categories))
	for _, cat := range c.categories {
		out[cat.ID] = append([]MetricType(nil), cat.Metrics...)
	}
	return out
}

// Categories returns the category groupings in display order.
func (c *MetricCatalog) Categories() []MetricCategoryDefinition {
	out := make([]MetricCategoryDefinition, len(c.categories))
	for i, cat := range c.categories {
		cat.Metrics = append([]MetricType(nil), cat.Metrics...)
		out[i] = cat
	}
	return out
}

// ValidateCatalogs checks that every metric referenced by a widget default
// configuration resolves in catalog.
func ValidateCatalogs(reg *Registry, catalog *MetricCatalog) error {
	var err error
	for _, def := range reg.ListAll() {
		metric := def.DefaultConfig.MetricType
		if metric == "" {
			continue
		}
		if _, ok := catalog.Lookup(metric); !ok {
			err = errors.Join(err, fmt.Errorf("dashboard: widget %s default metric %s is not in the catalog", def.Type, metric))
		}
	}
	return err
}

var numberPrinter = message.NewPrinter(language.English)

// FormatMetricValue renders an observation for display according to unit.
// Percentages and times keep one decimal, currency and plain numbers use
// thousands separators.
func FormatMetricValue(data MetricData, unit MetricUnit) string {
	if data.Text != "" {
		return data.Text
	}
	value := data.Value
	switch unit {
	case UnitPercentage:
		return strconv.FormatFloat(value, 'f', 1, 64) + "%"
	case UnitTime:
		return strconv.FormatFloat(value, 'f', 1, 64) + "m"
	case UnitCurrency:
		return "$" + groupedNumber(value)
	default:
		return groupedNumber(value)
	}
}

func groupedNumber(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	rounded := math.Round(value*1000) / 1000
	if rounded == 0 {
		return "0"
	}
	if rounded == math.Trunc(rounded) {
		return numberPrinter.Sprintf("%.0f", rounded)
	}
	out := numberPrinter.Sprintf("%.3f", rounded)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}
