package report

import (
	"sort"

	"github.com/eduscope-org/eduscope/engine"
	"github.com/eduscope-org/eduscope/schema"
)

// ============================================================================
// KPI CARDS — headline numbers for the dashboard's metric row
// ============================================================================
// Computed over the filtered view on every interaction, like everything
// else. Year-over-year deltas compare the two most recent years present in
// the filtered data and are omitted when only one year survives the filter.
// ============================================================================

// HighAdoptionThreshold marks an institution as a high adopter (percent of
// courses with AI integration).
const HighAdoptionThreshold = 45.0

// KPI is a single headline value with an optional year-over-year delta.
type KPI struct {
	Value float64  `json:"value"`
	Delta *float64 `json:"delta,omitempty"`
}

// KPISet is the full metric row.
type KPISet struct {
	Institutions        KPI `json:"institutions"`
	Countries           KPI `json:"countries"`
	AdoptionRate        KPI `json:"adoptionRate"`
	LiteracyIndex       KPI `json:"literacyIndex"`
	IncidentRate        KPI `json:"incidentRate"`
	OutcomeDelta        KPI `json:"outcomeDelta"`
	Satisfaction        KPI `json:"satisfaction"`
	TrainingHours       KPI `json:"trainingHours"`
	PolicyMaturity      KPI `json:"policyMaturity"`
	Infrastructure      KPI `json:"infrastructure"`
	IntegratedPolicyPct KPI `json:"integratedPolicyPct"`
	HighAdoptionPct     KPI `json:"highAdoptionPct"`
}

// KPIs computes the metric row over a (typically pre-filtered) view.
func KPIs(view engine.RecordView) KPISet {
	latest, previous := latestYears(view)

	avg := func(measure string) KPI {
		k := KPI{Value: engine.MeanMeasure(view, measure)}
		if latest != "" && previous != "" {
			d := engine.MeanMeasure(yearView(view, latest), measure) -
				engine.MeanMeasure(yearView(view, previous), measure)
			k.Delta = &d
		}
		return k
	}

	return KPISet{
		Institutions:        KPI{Value: float64(len(engine.UniqueValues(view, schema.DimInstitutionID)))},
		Countries:           KPI{Value: float64(len(engine.UniqueValues(view, schema.DimCountry)))},
		AdoptionRate:        avg(schema.MeasAdoptionRate),
		LiteracyIndex:       avg(schema.MeasLiteracyIndex),
		IncidentRate:        avg(schema.MeasIncidentRate),
		OutcomeDelta:        KPI{Value: engine.MeanMeasure(view, schema.MeasOutcomeDelta)},
		Satisfaction:        KPI{Value: engine.MeanMeasure(view, schema.MeasSatisfaction)},
		TrainingHours:       KPI{Value: engine.MeanMeasure(view, schema.MeasTrainingHours)},
		PolicyMaturity:      KPI{Value: engine.MeanMeasure(view, schema.MeasPolicyMaturity)},
		Infrastructure:      KPI{Value: engine.MeanMeasure(view, schema.MeasInfrastructure)},
		IntegratedPolicyPct: KPI{Value: dimensionShare(view, schema.DimPolicyStance, "Integrated")},
		HighAdoptionPct:     KPI{Value: measureShareAtLeast(view, schema.MeasAdoptionRate, HighAdoptionThreshold)},
	}
}

// latestYears returns the two most recent years in the view ("" when absent).
func latestYears(view engine.RecordView) (latest, previous string) {
	years := engine.UniqueValues(view, schema.DimYear)
	sort.Strings(years)
	if len(years) >= 1 {
		latest = years[len(years)-1]
	}
	if len(years) >= 2 {
		previous = years[len(years)-2]
	}
	return latest, previous
}

func yearView(view engine.RecordView, year string) engine.RecordView {
	pred, err := engine.BuildPredicate(view, engine.FilterSpec{
		Dimensions: map[string][]string{schema.DimYear: {year}},
	})
	if err != nil {
		return view
	}
	return engine.ApplyPredicate(view, pred)
}

// dimensionShare returns the percentage of records whose dimension equals value.
func dimensionShare(view engine.RecordView, dim, value string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < n; i++ {
		if view.Dimension(i, dim) == value {
			hits++
		}
	}
	return float64(hits) / float64(n) * 100
}

// measureShareAtLeast returns the percentage of records at or above threshold.
func measureShareAtLeast(view engine.RecordView, measure string, threshold float64) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	hits := 0
	for i := 0; i < n; i++ {
		if view.Measure(i, measure) >= threshold {
			hits++
		}
	}
	return float64(hits) / float64(n) * 100
}
