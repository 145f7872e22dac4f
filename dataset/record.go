package dataset

// Record is one institution-survey row. Immutable once loaded.
type Record struct {
	InstitutionID   string
	InstitutionName string
	SurveyQuarter   string
	Year            string // derived from SurveyQuarter at load
	Region          string
	Country         string
	InstitutionType string
	InstitutionSize string
	FundingType     string
	PolicyStance    string
	Discipline      string

	AdoptionRate      float64 // % of courses with AI integration
	LiteracyIndex     float64 // composite 0-100
	IncidentRate      float64 // cases per 1,000 students
	OutcomeDelta      float64 // assessment score change, %
	PolicyMaturity    float64 // 1-5
	Infrastructure    float64 // 1-10
	TrainingHours     float64
	Satisfaction      float64 // Likert 1-5
	ResearchOutputPct float64
}
