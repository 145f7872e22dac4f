package engine

import (
	"errors"
	"testing"
)

// ============================================================================
// FILTER PREDICATES
// ============================================================================

func TestBuildPredicateEmptySpecMatchesAll(t *testing.T) {
	view := testView(sixRows())

	pred, err := BuildPredicate(view, FilterSpec{})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	for i := 0; i < view.Len(); i++ {
		if !pred(view, i) {
			t.Errorf("empty spec rejected record %d", i)
		}
	}
	if ApplyPredicate(view, pred).Len() != view.Len() {
		t.Error("empty spec should keep every record")
	}
}

func TestBuildPredicateDimensionValuesOrWithinAttribute(t *testing.T) {
	view := testView(sixRows())

	pred, err := BuildPredicate(view, FilterSpec{
		Dimensions: map[string][]string{"country": {"USA", "France"}},
	})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	got := ApplyPredicate(view, pred)
	if got.Len() != 3 {
		t.Fatalf("expected 3 records (USA x2 + France), got %d", got.Len())
	}
	for i := 0; i < got.Len(); i++ {
		c := got.Dimension(i, "country")
		if c != "USA" && c != "France" {
			t.Errorf("unexpected country %q", c)
		}
	}
}

func TestBuildPredicateConstraintsAndAcrossAttributes(t *testing.T) {
	view := testView(sixRows())

	pred, err := BuildPredicate(view, FilterSpec{
		Dimensions: map[string][]string{
			"region":        {"North America"},
			"policy_stance": {"Integrated"},
		},
		Ranges: map[string]Range{
			"ai_adoption_rate": {Min: floatPtr(45)},
		},
	})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	got := ApplyPredicate(view, pred)
	if got.Len() != 1 {
		t.Fatalf("expected exactly the 2024 USA row, got %d records", got.Len())
	}
	if got.Dimension(0, "year") != "2024" {
		t.Errorf("wrong survivor: year=%q", got.Dimension(0, "year"))
	}
}

func TestBuildPredicateRangeBoundsInclusive(t *testing.T) {
	view := testView(sixRows())

	pred, err := BuildPredicate(view, FilterSpec{
		Ranges: map[string]Range{"ai_adoption_rate": {Min: floatPtr(30), Max: floatPtr(50)}},
	})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	got := ApplyPredicate(view, pred)
	// 40, 30, 50, 35 are inside; 55 and 20 are out.
	if got.Len() != 4 {
		t.Errorf("expected 4 records in [30, 50], got %d", got.Len())
	}
}

func TestBuildPredicateUnknownDimension(t *testing.T) {
	view := testView(sixRows())

	_, err := BuildPredicate(view, FilterSpec{
		Dimensions: map[string][]string{"institution_color": {"blue"}},
	})
	var ua *UnknownAttributeError
	if !errors.As(err, &ua) {
		t.Fatalf("expected UnknownAttributeError, got %v", err)
	}
	if ua.Attr != "institution_color" {
		t.Errorf("wrong attribute in error: %q", ua.Attr)
	}
}

func TestBuildPredicateUnknownMeasure(t *testing.T) {
	view := testView(sixRows())

	_, err := BuildPredicate(view, FilterSpec{
		Ranges: map[string]Range{"coffee_budget": {Min: floatPtr(1)}},
	})
	var ua *UnknownAttributeError
	if !errors.As(err, &ua) {
		t.Fatalf("expected UnknownAttributeError, got %v", err)
	}
}

func TestBuildPredicateEmptyValueListIgnored(t *testing.T) {
	view := testView(sixRows())

	// A dimension key with no values constrains nothing.
	pred, err := BuildPredicate(view, FilterSpec{
		Dimensions: map[string][]string{"region": {}},
	})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	if ApplyPredicate(view, pred).Len() != view.Len() {
		t.Error("empty value list should not filter")
	}
}

func TestBuildPredicateIsPure(t *testing.T) {
	view := testView(sixRows())

	pred, err := BuildPredicate(view, FilterSpec{
		Dimensions: map[string][]string{"region": {"Europe"}},
	})
	if err != nil {
		t.Fatalf("BuildPredicate: %v", err)
	}
	first := ApplyPredicate(view, pred).Len()
	for run := 0; run < 5; run++ {
		if got := ApplyPredicate(view, pred).Len(); got != first {
			t.Fatalf("predicate not stable: run %d got %d, want %d", run, got, first)
		}
	}
}

func TestApplyPredicateNilKeepsView(t *testing.T) {
	view := testView(sixRows())
	if got := ApplyPredicate(view, nil); got != view {
		t.Error("nil predicate should return the original view")
	}
}

func TestFilterSpecIsEmpty(t *testing.T) {
	if !(FilterSpec{}).IsEmpty() {
		t.Error("zero spec should be empty")
	}
	if !(FilterSpec{Dimensions: map[string][]string{"region": {}}}).IsEmpty() {
		t.Error("spec with only empty value lists should be empty")
	}
	if (FilterSpec{Ranges: map[string]Range{"x": {Min: floatPtr(0)}}}).IsEmpty() {
		t.Error("spec with a range bound is not empty")
	}
}
