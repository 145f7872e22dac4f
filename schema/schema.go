package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// SCHEMA — Fixed shape of the institution-survey dataset
// ============================================================================
// The dashboard explores a single static table, so the schema is declared
// here rather than discovered. The loader validates every row against it;
// the engine resolves dimension/measure keys through it. Enum-typed columns
// reject unknown values at load time instead of coercing them.
// ============================================================================

// Config describes the complete shape of the survey dataset.
type Config struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Dimensions  []DimensionMeta `json:"dimensions"`
	Measures    []MeasureMeta   `json:"measures"`
}

// DimensionMeta describes a string column used for grouping and filtering.
type DimensionMeta struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"` // allowed values; nil = open-valued
	Derived     bool     `json:"derived,omitempty"`
	Groupable   bool     `json:"groupable"`
	Filterable  bool     `json:"filterable"`
}

// MeasureMeta describes a numeric column used for aggregation.
type MeasureMeta struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"displayName"`
	Unit        string  `json:"unit,omitempty"` // "percent", "points", "hours", "per_1k"
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Dimension keys.
const (
	DimQuarter         = "survey_quarter"
	DimYear            = "year" // derived from survey_quarter at load
	DimRegion          = "region"
	DimCountry         = "country"
	DimInstitutionID   = "institution_id"
	DimInstitutionName = "institution_name"
	DimInstitutionType = "institution_type"
	DimInstitutionSize = "institution_size"
	DimFundingType     = "funding_type"
	DimPolicyStance    = "policy_stance"
	DimDiscipline      = "primary_discipline_focus"
)

// Measure keys.
const (
	MeasAdoptionRate      = "ai_adoption_rate"
	MeasLiteracyIndex     = "student_ai_literacy_index"
	MeasIncidentRate      = "integrity_incident_rate"
	MeasOutcomeDelta      = "learning_outcome_delta"
	MeasPolicyMaturity    = "policy_maturity_score"
	MeasInfrastructure    = "infrastructure_readiness"
	MeasTrainingHours     = "faculty_training_hours"
	MeasSatisfaction      = "student_satisfaction_score"
	MeasResearchOutputPct = "research_output_ai_pct"
)

// Allowed values for enum-typed dimensions.
var (
	Regions = []string{
		"North America", "Europe", "Asia Pacific",
		"Latin America", "Middle East", "Africa",
	}
	InstitutionTypes = []string{
		"Research University", "Teaching University", "Liberal Arts College",
		"Technical Institute", "Community College",
	}
	InstitutionSizes = []string{
		"Small (<5K)", "Medium (5K-15K)", "Large (15K-30K)", "Very Large (>30K)",
	}
	FundingTypes  = []string{"Public", "Private", "Mixed"}
	PolicyStances = []string{"Restrictive", "Cautious", "Permissive", "Integrated"}
	Disciplines   = []string{
		"STEM", "Humanities", "Business", "Health Sciences",
		"Social Sciences", "Arts", "Comprehensive",
	}
)

// Survey returns the schema of the GenAI adoption survey table.
func Survey() Config {
	return Config{
		Name:        "genai_education_survey",
		Description: "Generative AI adoption and policy in higher education institutions",
		Dimensions: []DimensionMeta{
			{Key: DimQuarter, DisplayName: "Survey Quarter", Description: "YYYY-Qn", Groupable: true, Filterable: true},
			{Key: DimYear, DisplayName: "Year", Derived: true, Groupable: true, Filterable: true},
			{Key: DimRegion, DisplayName: "Region", Enum: Regions, Groupable: true, Filterable: true},
			{Key: DimCountry, DisplayName: "Country", Groupable: true, Filterable: true},
			{Key: DimInstitutionID, DisplayName: "Institution ID", Groupable: false, Filterable: false},
			{Key: DimInstitutionName, DisplayName: "Institution", Groupable: false, Filterable: false},
			{Key: DimInstitutionType, DisplayName: "Institution Type", Enum: InstitutionTypes, Groupable: true, Filterable: true},
			{Key: DimInstitutionSize, DisplayName: "Institution Size", Enum: InstitutionSizes, Groupable: true, Filterable: true},
			{Key: DimFundingType, DisplayName: "Funding Type", Enum: FundingTypes, Groupable: true, Filterable: true},
			{Key: DimPolicyStance, DisplayName: "Policy Stance", Enum: PolicyStances, Groupable: true, Filterable: true},
			{Key: DimDiscipline, DisplayName: "Discipline Focus", Enum: Disciplines, Groupable: true, Filterable: true},
		},
		Measures: []MeasureMeta{
			{Key: MeasAdoptionRate, DisplayName: "AI Adoption Rate", Unit: "percent", Min: 0, Max: 100},
			{Key: MeasLiteracyIndex, DisplayName: "Student AI Literacy", Unit: "points", Min: 0, Max: 100},
			{Key: MeasIncidentRate, DisplayName: "Integrity Incident Rate", Unit: "per_1k", Min: 0, Max: 1000},
			{Key: MeasOutcomeDelta, DisplayName: "Learning Outcome Delta", Unit: "percent", Min: -100, Max: 100},
			{Key: MeasPolicyMaturity, DisplayName: "Policy Maturity", Unit: "points", Min: 1, Max: 5},
			{Key: MeasInfrastructure, DisplayName: "Infrastructure Readiness", Unit: "points", Min: 1, Max: 10},
			{Key: MeasTrainingHours, DisplayName: "Faculty Training Hours", Unit: "hours", Min: 0, Max: 10000},
			{Key: MeasSatisfaction, DisplayName: "Student Satisfaction", Unit: "points", Min: 1, Max: 5},
			{Key: MeasResearchOutputPct, DisplayName: "AI Research Output", Unit: "percent", Min: 0, Max: 100},
		},
	}
}

// DimensionKeys returns all dimension keys in declaration order.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys in declaration order.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// ValidateDimensionValue checks a raw value against a dimension's constraints.
// Open-valued dimensions accept anything non-empty; enum-typed dimensions
// accept only declared values; survey_quarter must parse as YYYY-Qn.
func (c Config) ValidateDimensionValue(key, value string) error {
	d, ok := c.Dimension(key)
	if !ok {
		return fmt.Errorf("unknown dimension %q", key)
	}
	if value == "" {
		return fmt.Errorf("empty value for %q", key)
	}
	if key == DimQuarter {
		if _, err := QuarterYear(value); err != nil {
			return err
		}
		return nil
	}
	if len(d.Enum) == 0 {
		return nil
	}
	for _, allowed := range d.Enum {
		if value == allowed {
			return nil
		}
	}
	return fmt.Errorf("value %q not allowed for %q", value, key)
}

// ValidateMeasureValue checks a parsed numeric against the measure's range.
func (c Config) ValidateMeasureValue(key string, value float64) error {
	m, ok := c.Measure(key)
	if !ok {
		return fmt.Errorf("unknown measure %q", key)
	}
	if value < m.Min || value > m.Max {
		return fmt.Errorf("value %g out of range [%g, %g] for %q", value, m.Min, m.Max, key)
	}
	return nil
}

// QuarterYear extracts the year from a "YYYY-Qn" survey quarter string.
func QuarterYear(quarter string) (int, error) {
	parts := strings.SplitN(quarter, "-", 2)
	if len(parts) != 2 || len(parts[1]) != 2 || parts[1][0] != 'Q' {
		return 0, fmt.Errorf("malformed survey quarter %q (want YYYY-Qn)", quarter)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 2000 || year > 2100 {
		return 0, fmt.Errorf("malformed survey quarter %q (want YYYY-Qn)", quarter)
	}
	q := parts[1][1]
	if q < '1' || q > '4' {
		return 0, fmt.Errorf("malformed survey quarter %q (quarter out of range)", quarter)
	}
	return year, nil
}
