package dataset

import (
	"sort"

	"github.com/eduscope-org/eduscope/engine"
	"github.com/eduscope-org/eduscope/schema"
)

// ============================================================================
// DATASET — immutable in-memory survey table
// ============================================================================
// Loaded once at startup, read-only afterwards. The engine reads it through
// a RecordView bound with typed accessors, so queries never copy rows.
// ============================================================================

// Dataset is the validated, immutable survey table.
type Dataset struct {
	records []Record
	view    engine.RecordView
}

// surveyAdapter maps Record fields to the schema's attribute keys.
// Declared once; every Dataset binds through it.
var surveyAdapter = engine.NewDomainAdapter[Record]().
	Dimension(schema.DimQuarter, func(r Record) string { return r.SurveyQuarter }).
	Dimension(schema.DimYear, func(r Record) string { return r.Year }).
	Dimension(schema.DimRegion, func(r Record) string { return r.Region }).
	Dimension(schema.DimCountry, func(r Record) string { return r.Country }).
	Dimension(schema.DimInstitutionID, func(r Record) string { return r.InstitutionID }).
	Dimension(schema.DimInstitutionName, func(r Record) string { return r.InstitutionName }).
	Dimension(schema.DimInstitutionType, func(r Record) string { return r.InstitutionType }).
	Dimension(schema.DimInstitutionSize, func(r Record) string { return r.InstitutionSize }).
	Dimension(schema.DimFundingType, func(r Record) string { return r.FundingType }).
	Dimension(schema.DimPolicyStance, func(r Record) string { return r.PolicyStance }).
	Dimension(schema.DimDiscipline, func(r Record) string { return r.Discipline }).
	Measure(schema.MeasAdoptionRate, func(r Record) float64 { return r.AdoptionRate }).
	Measure(schema.MeasLiteracyIndex, func(r Record) float64 { return r.LiteracyIndex }).
	Measure(schema.MeasIncidentRate, func(r Record) float64 { return r.IncidentRate }).
	Measure(schema.MeasOutcomeDelta, func(r Record) float64 { return r.OutcomeDelta }).
	Measure(schema.MeasPolicyMaturity, func(r Record) float64 { return r.PolicyMaturity }).
	Measure(schema.MeasInfrastructure, func(r Record) float64 { return r.Infrastructure }).
	Measure(schema.MeasTrainingHours, func(r Record) float64 { return r.TrainingHours }).
	Measure(schema.MeasSatisfaction, func(r Record) float64 { return r.Satisfaction }).
	Measure(schema.MeasResearchOutputPct, func(r Record) float64 { return r.ResearchOutputPct })

// New wraps validated records in a Dataset. Loaders validate before calling;
// tests may construct records directly.
func New(records []Record) *Dataset {
	return &Dataset{
		records: records,
		view:    surveyAdapter.Bind(records),
	}
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// View returns the zero-copy engine view over the records.
func (d *Dataset) View() engine.RecordView { return d.view }

// ============================================================================
// FILTER OPTIONS — distinct values for the dashboard's dropdowns
// ============================================================================

// Options lists the selectable values per filterable dimension.
// Data-derived lists are sorted; enum-typed lists keep their declared order.
type Options struct {
	Quarters         []string `json:"quarters"`
	Years            []string `json:"years"`
	Regions          []string `json:"regions"`
	Countries        []string `json:"countries"`
	InstitutionTypes []string `json:"institutionTypes"`
	InstitutionSizes []string `json:"institutionSizes"`
	FundingTypes     []string `json:"fundingTypes"`
	PolicyStances    []string `json:"policyStances"`
	Disciplines      []string `json:"disciplines"`
}

// Options extracts the filter dropdown values from the dataset.
func (d *Dataset) Options() Options {
	return Options{
		Quarters:         sortedUnique(d.view, schema.DimQuarter),
		Years:            sortedUnique(d.view, schema.DimYear),
		Regions:          sortedUnique(d.view, schema.DimRegion),
		Countries:        sortedUnique(d.view, schema.DimCountry),
		InstitutionTypes: sortedUnique(d.view, schema.DimInstitutionType),
		InstitutionSizes: schema.InstitutionSizes,
		FundingTypes:     schema.FundingTypes,
		PolicyStances:    schema.PolicyStances,
		Disciplines:      sortedUnique(d.view, schema.DimDiscipline),
	}
}

// CountriesIn narrows the country list to the given regions, so the country
// dropdown tracks the region selection. Empty regions = all countries.
func (d *Dataset) CountriesIn(regions []string) []string {
	if len(regions) == 0 {
		return sortedUnique(d.view, schema.DimCountry)
	}
	allowed := make(map[string]bool, len(regions))
	for _, r := range regions {
		allowed[r] = true
	}
	seen := make(map[string]bool)
	var countries []string
	for _, rec := range d.records {
		if allowed[rec.Region] && !seen[rec.Country] {
			seen[rec.Country] = true
			countries = append(countries, rec.Country)
		}
	}
	sort.Strings(countries)
	return countries
}

func sortedUnique(view engine.RecordView, dim string) []string {
	vals := engine.UniqueValues(view, dim)
	sort.Strings(vals)
	return vals
}
