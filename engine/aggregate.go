package engine

import "math"

// ============================================================================
// AGGREGATION — filter → partition → per-group metric
// ============================================================================
// Groups are emitted in the order their key tuple first appears in the
// dataset. No sorting, no map iteration in the output path — repeated calls
// with identical inputs produce byte-identical results.
// ============================================================================

// Aggregate filters view with pred, partitions the survivors by the groupBy
// attributes' value tuples, and computes metric per group. An empty groupBy
// produces a single "all" group. Groups too small for the metric (Pearson
// correlation needs n >= 2 and non-zero variance) stay in the result with
// Insufficient set, so the view assembler can render a gap.
func Aggregate(view RecordView, pred Predicate, groupBy []string, metric Metric) (*AggregationResult, error) {
	for _, dim := range groupBy {
		if !hasDimension(view, dim) {
			return nil, &UnknownAttributeError{Attr: dim}
		}
	}
	if err := validateMetric(view, metric); err != nil {
		return nil, err
	}

	filtered := ApplyPredicate(view, pred)
	groups := partition(filtered, groupBy)

	result := &AggregationResult{
		GroupBy:       groupBy,
		Metric:        metric,
		Groups:        make([]GroupStat, 0, len(groups)),
		FilteredCount: filtered.Len(),
	}

	for _, g := range groups {
		stat := GroupStat{
			Key:    joinKey(g.labels),
			Labels: g.labels,
			Count:  g.view.Len(),
		}
		switch metric.Kind {
		case MetricCount:
			stat.Value = float64(stat.Count)
		case MetricMean:
			stat.Value = MeanMeasure(g.view, metric.Attr)
		case MetricCorrelation:
			r, ok := pearson(g.view, metric.Attr, metric.AttrB)
			if !ok {
				stat.Insufficient = true
			} else {
				stat.Value = r
			}
		}
		result.Groups = append(result.Groups, stat)
	}

	return result, nil
}

func validateMetric(view RecordView, metric Metric) error {
	switch metric.Kind {
	case MetricCount:
		return nil
	case MetricMean:
		if !hasMeasure(view, metric.Attr) {
			return &UnknownAttributeError{Attr: metric.Attr}
		}
	case MetricCorrelation:
		if !hasMeasure(view, metric.Attr) {
			return &UnknownAttributeError{Attr: metric.Attr}
		}
		if !hasMeasure(view, metric.AttrB) {
			return &UnknownAttributeError{Attr: metric.AttrB}
		}
	default:
		return &UnknownAttributeError{Attr: string(metric.Kind)}
	}
	return nil
}

// ============================================================================
// PARTITIONING
// ============================================================================

type group struct {
	labels []string
	view   RecordView
}

// partition splits a view into groups keyed by the groupBy value tuples,
// in first-appearance order. Every record lands in exactly one group.
func partition(view RecordView, groupBy []string) []group {
	if len(groupBy) == 0 {
		return []group{{labels: []string{"all"}, view: view}}
	}

	indexByKey := make(map[string]int)
	var groups []group

	labels := make([]string, len(groupBy))
	for i := 0; i < view.Len(); i++ {
		for j, dim := range groupBy {
			labels[j] = view.Dimension(i, dim)
		}
		key := joinKey(labels)
		gi, seen := indexByKey[key]
		if !seen {
			gi = len(groups)
			indexByKey[key] = gi
			groups = append(groups, group{labels: append([]string(nil), labels...)})
		}
		groups[gi].view = appendIndex(groups[gi].view, view, i)
	}

	return groups
}

// appendIndex grows a group's SubView by one parent index.
func appendIndex(current RecordView, parent RecordView, i int) RecordView {
	sub, ok := current.(*SubView)
	if !ok {
		return &SubView{parent: parent, indices: []int{i}}
	}
	sub.indices = append(sub.indices, i)
	return sub
}

// ============================================================================
// PER-GROUP METRICS
// ============================================================================

// MeanMeasure computes the arithmetic mean of a measure across a view.
// Returns 0 for an empty view.
func MeanMeasure(view RecordView, attr string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += view.Measure(i, attr)
	}
	return sum / float64(n)
}

// UniqueValues returns the distinct non-empty values of a dimension in
// first-appearance order.
func UniqueValues(view RecordView, dim string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		v := view.Dimension(i, dim)
		if v != "" && !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// pearson computes the Pearson correlation coefficient between two measures.
// Returns ok=false when the group has fewer than 2 records or either measure
// has zero variance, in which case the coefficient is undefined.
func pearson(view RecordView, attrA, attrB string) (float64, bool) {
	n := view.Len()
	if n < 2 {
		return 0, false
	}

	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := 0; i < n; i++ {
		x := view.Measure(i, attrA)
		y := view.Measure(i, attrB)
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}

	fn := float64(n)
	cov := fn*sumXY - sumX*sumY
	varX := fn*sumXX - sumX*sumX
	varY := fn*sumYY - sumY*sumY
	denom := math.Sqrt(varX * varY)
	if denom == 0 || math.IsNaN(denom) {
		return 0, false
	}
	return cov / denom, true
}
