package engine

import "strings"

// ============================================================================
// ENGINE TYPES — Filter specs, metrics, aggregation results, series shapes
// ============================================================================

// FilterSpec captures the user's filter selections from the dashboard.
// Dimension constraints are value sets (OR within a dimension); measure
// constraints are numeric ranges. Constraints are AND-combined across
// attributes. An empty FilterSpec matches every record.
type FilterSpec struct {
	Dimensions map[string][]string `json:"dimensions,omitempty"`
	Ranges     map[string]Range    `json:"ranges,omitempty"`
}

// Range restricts a measure to [Min, Max]; nil bound = unbounded side.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// IsEmpty returns true if no constraints are set.
func (f FilterSpec) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	for _, r := range f.Ranges {
		if r.Min != nil || r.Max != nil {
			return false
		}
	}
	return true
}

// Predicate is a pure boolean test over one record of a view.
type Predicate func(view RecordView, i int) bool

// TruePredicate matches every record. Used as the fallback when a FilterSpec
// is rejected for referencing an unknown attribute.
func TruePredicate(RecordView, int) bool { return true }

// ============================================================================
// METRICS
// ============================================================================

// MetricKind enumerates the supported per-group summaries.
type MetricKind string

const (
	MetricCount       MetricKind = "count"
	MetricMean        MetricKind = "mean"
	MetricCorrelation MetricKind = "correlation"
)

// Metric selects the numeric summary computed per group.
type Metric struct {
	Kind  MetricKind `json:"kind"`
	Attr  string     `json:"attr,omitempty"`  // measure for mean, first measure for correlation
	AttrB string     `json:"attrB,omitempty"` // second measure for correlation
}

// Count builds a record-count metric.
func Count() Metric { return Metric{Kind: MetricCount} }

// Mean builds an arithmetic-mean metric over a measure.
func Mean(attr string) Metric { return Metric{Kind: MetricMean, Attr: attr} }

// Correlation builds a Pearson-correlation metric over two measures.
func Correlation(attrA, attrB string) Metric {
	return Metric{Kind: MetricCorrelation, Attr: attrA, AttrB: attrB}
}

// ============================================================================
// AGGREGATION RESULT
// ============================================================================

// GroupStat is the numeric summary for one group of the partition.
type GroupStat struct {
	Key          string   `json:"key"`   // group-key labels joined with GroupKeySep
	Labels       []string `json:"labels"` // one label per group-by attribute
	Count        int      `json:"count"`
	Value        float64  `json:"value"`
	Insufficient bool     `json:"insufficient,omitempty"` // too few records for the metric
}

// GroupKeySep joins multi-attribute group keys into a single string key.
const GroupKeySep = "|"

// AggregationResult is a grouped numeric summary of a filtered dataset.
// Groups partition the filtered subset exactly and appear in the order their
// key first occurs in the dataset, so identical inputs yield identical output.
type AggregationResult struct {
	GroupBy       []string    `json:"groupBy"`
	Metric        Metric      `json:"metric"`
	Groups        []GroupStat `json:"groups"`
	FilteredCount int         `json:"filteredCount"`
}

// joinKey builds the composite string key for a label tuple.
func joinKey(labels []string) string {
	return strings.Join(labels, GroupKeySep)
}

// ============================================================================
// SERIES TYPES — consumed by the charting front-end
// ============================================================================

// SeriesData is the chart-ready shape of an AggregationResult.
type SeriesData struct {
	ChartKind string   `json:"chartKind"` // "bar", "line", "pie", "grouped_bar", "heatmap"
	Title     string   `json:"title,omitempty"`
	XLabel    string   `json:"xLabel,omitempty"`
	YLabel    string   `json:"yLabel,omitempty"`
	Labels    []string `json:"labels"` // x-axis category labels
	Series    []Series `json:"series"`
}

// Series is one named line/bar group of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"data"`
}

// Point is a single plotted value. Missing marks an insufficient-data gap
// the front-end should render as a hole, not as zero.
type Point struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Missing bool    `json:"missing,omitempty"`
}

// ============================================================================
// TABLE TYPES — data explorer
// ============================================================================

// TableData is a row-oriented projection of a filtered view.
type TableData struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"` // records in the view, before the head limit
}

// Column describes one projected table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"` // "text" or "number"
}
