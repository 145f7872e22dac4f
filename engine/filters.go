package engine

import "fmt"

// ============================================================================
// FILTERS — FilterSpec → Predicate, applied as a zero-copy SubView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Dimension values OR within an attribute, AND across attributes; measure
// ranges AND with everything else.
// ============================================================================

// UnknownAttributeError reports a FilterSpec or group-by referencing an
// attribute the view does not have. Callers recover by dropping the filter
// and falling back to the unfiltered view.
type UnknownAttributeError struct {
	Attr string
}

func (e *UnknownAttributeError) Error() string {
	return fmt.Sprintf("unknown attribute %q", e.Attr)
}

// BuildPredicate translates a FilterSpec into a pure Predicate over view
// records. An empty spec yields TruePredicate. Returns
// *UnknownAttributeError if the FilterSpec references an attribute the view does
// not know; no partial predicate is produced in that case.
func BuildPredicate(view RecordView, spec FilterSpec) (Predicate, error) {
	if spec.IsEmpty() {
		return TruePredicate, nil
	}

	// Pre-build lookup sets for each constrained dimension.
	sets := make(map[string]map[string]bool)
	for dim, allowed := range spec.Dimensions {
		if len(allowed) == 0 {
			continue
		}
		if !hasDimension(view, dim) {
			return nil, &UnknownAttributeError{Attr: dim}
		}
		set := make(map[string]bool, len(allowed))
		for _, v := range allowed {
			set[v] = true
		}
		sets[dim] = set
	}

	ranges := make(map[string]Range)
	for meas, r := range spec.Ranges {
		if r.Min == nil && r.Max == nil {
			continue
		}
		if !hasMeasure(view, meas) {
			return nil, &UnknownAttributeError{Attr: meas}
		}
		ranges[meas] = r
	}

	if len(sets) == 0 && len(ranges) == 0 {
		return TruePredicate, nil
	}

	return func(v RecordView, i int) bool {
		for dim, set := range sets {
			if !set[v.Dimension(i, dim)] {
				return false
			}
		}
		for meas, r := range ranges {
			val := v.Measure(i, meas)
			if r.Min != nil && val < *r.Min {
				return false
			}
			if r.Max != nil && val > *r.Max {
				return false
			}
		}
		return true
	}, nil
}

// ApplyPredicate returns the subset of view matching pred as a zero-copy
// SubView. TruePredicate short-circuits to the original view.
func ApplyPredicate(view RecordView, pred Predicate) RecordView {
	if pred == nil {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pred(view, i) {
			indices = append(indices, i)
		}
	}
	if len(indices) == n {
		return view
	}
	return newSubView(view, indices)
}
