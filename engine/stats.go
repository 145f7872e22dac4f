package engine

import (
	"math"
	"sort"
)

// ============================================================================
// STATS — distribution summaries backing the analysis charts
// ============================================================================
// Histogram, box plot, correlation matrix, and per-measure summaries.
// Like Aggregate, everything is computed over a RecordView and emitted in a
// deterministic order.
// ============================================================================

// MeasureSummary is a five-number-ish summary of one measure.
type MeasureSummary struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// Summarize computes per-measure summaries over a view. Measures are
// reported in the given order; an unknown key is an UnknownAttributeError.
func Summarize(view RecordView, measures []string) ([]MeasureSummary, error) {
	for _, m := range measures {
		if !hasMeasure(view, m) {
			return nil, &UnknownAttributeError{Attr: m}
		}
	}

	summaries := make([]MeasureSummary, 0, len(measures))
	for _, key := range measures {
		s := MeasureSummary{Key: key, Min: math.Inf(1), Max: math.Inf(-1)}

		// Welford's method keeps Std stable in one pass.
		var mean, m2 float64
		for i := 0; i < view.Len(); i++ {
			v := view.Measure(i, key)
			s.Count++
			delta := v - mean
			mean += delta / float64(s.Count)
			m2 += delta * (v - mean)
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		if s.Count == 0 {
			s.Min, s.Max = 0, 0
		} else {
			s.Mean = mean
			if s.Count > 1 {
				s.Std = math.Sqrt(m2 / float64(s.Count-1))
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ============================================================================
// HISTOGRAM
// ============================================================================

// HistogramData is a fixed-bin-count distribution of one measure.
type HistogramData struct {
	Attr   string    `json:"attr"`
	Edges  []float64 `json:"edges"` // len = bins+1
	Counts []int     `json:"counts"`
}

// Histogram bins a measure into equal-width bins over [min, max]. The last
// bin is closed on both sides so the maximum lands in it. An empty view
// yields empty edges and counts. Bin counts always sum to view.Len().
func Histogram(view RecordView, attr string, bins int) (*HistogramData, error) {
	if !hasMeasure(view, attr) {
		return nil, &UnknownAttributeError{Attr: attr}
	}
	if bins < 1 {
		bins = 1
	}

	h := &HistogramData{Attr: attr}
	n := view.Len()
	if n == 0 {
		return h, nil
	}

	lo, hi := view.Measure(0, attr), view.Measure(0, attr)
	for i := 1; i < n; i++ {
		v := view.Measure(i, attr)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// Degenerate distribution: one bin holding everything.
		h.Edges = []float64{lo, hi}
		h.Counts = []int{n}
		return h, nil
	}

	width := (hi - lo) / float64(bins)
	h.Edges = make([]float64, bins+1)
	for i := 0; i <= bins; i++ {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	h.Counts = make([]int, bins)
	for i := 0; i < n; i++ {
		v := view.Measure(i, attr)
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		h.Counts[b]++
	}
	return h, nil
}

// ============================================================================
// BOX PLOT
// ============================================================================

// BoxStat holds the quartile summary for one category.
type BoxStat struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// BoxStats computes quartile summaries of a measure per category of a
// dimension, in first-appearance order of the category.
func BoxStats(view RecordView, attr, groupBy string) ([]BoxStat, error) {
	if !hasMeasure(view, attr) {
		return nil, &UnknownAttributeError{Attr: attr}
	}
	if !hasDimension(view, groupBy) {
		return nil, &UnknownAttributeError{Attr: groupBy}
	}

	groups := partition(view, []string{groupBy})
	stats := make([]BoxStat, 0, len(groups))
	for _, g := range groups {
		vals := make([]float64, g.view.Len())
		for i := range vals {
			vals[i] = g.view.Measure(i, attr)
		}
		sort.Float64s(vals)

		b := BoxStat{Label: g.labels[0], Count: len(vals)}
		if len(vals) > 0 {
			b.Min = vals[0]
			b.Max = vals[len(vals)-1]
			b.Q1 = quantile(vals, 0.25)
			b.Median = quantile(vals, 0.5)
			b.Q3 = quantile(vals, 0.75)
		}
		stats = append(stats, b)
	}
	return stats, nil
}

// quantile interpolates linearly between the closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ============================================================================
// CORRELATION MATRIX
// ============================================================================

// CorrMatrix is a symmetric Pearson correlation matrix over a measure list.
// Defined[i][j] is false where the coefficient is undefined (fewer than 2
// records, or zero variance) — render those cells as gaps.
type CorrMatrix struct {
	Attrs   []string    `json:"attrs"`
	Values  [][]float64 `json:"values"`
	Defined [][]bool    `json:"defined"`
}

// CorrelationMatrix computes pairwise Pearson coefficients over a view.
func CorrelationMatrix(view RecordView, attrs []string) (*CorrMatrix, error) {
	for _, a := range attrs {
		if !hasMeasure(view, a) {
			return nil, &UnknownAttributeError{Attr: a}
		}
	}

	k := len(attrs)
	m := &CorrMatrix{
		Attrs:   attrs,
		Values:  make([][]float64, k),
		Defined: make([][]bool, k),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, k)
		m.Defined[i] = make([]bool, k)
	}

	for i := 0; i < k; i++ {
		m.Values[i][i] = 1
		// A constant measure has no defined self-correlation either.
		_, ok := pearson(view, attrs[i], attrs[i])
		m.Defined[i][i] = ok
		for j := i + 1; j < k; j++ {
			r, ok := pearson(view, attrs[i], attrs[j])
			m.Values[i][j], m.Values[j][i] = r, r
			m.Defined[i][j], m.Defined[j][i] = ok, ok
		}
	}
	return m, nil
}
