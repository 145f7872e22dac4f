package engine

// ============================================================================
// SHARED TEST FIXTURE — small synthetic survey slice
// ============================================================================

type testRow struct {
	region   string
	country  string
	stance   string
	year     string
	adoption float64
	literacy float64
}

var testAdapter = NewDomainAdapter[testRow]().
	Dimension("region", func(r testRow) string { return r.region }).
	Dimension("country", func(r testRow) string { return r.country }).
	Dimension("policy_stance", func(r testRow) string { return r.stance }).
	Dimension("year", func(r testRow) string { return r.year }).
	Measure("ai_adoption_rate", func(r testRow) float64 { return r.adoption }).
	Measure("student_ai_literacy_index", func(r testRow) float64 { return r.literacy })

func testView(rows []testRow) RecordView { return testAdapter.Bind(rows) }

// sixRows covers two regions, three countries, mixed stances across two years.
func sixRows() []testRow {
	return []testRow{
		{"North America", "USA", "Integrated", "2023", 40, 60},
		{"North America", "Canada", "Cautious", "2023", 30, 55},
		{"Europe", "Germany", "Integrated", "2023", 50, 70},
		{"North America", "USA", "Integrated", "2024", 55, 72},
		{"Europe", "Germany", "Restrictive", "2024", 20, 45},
		{"Europe", "France", "Cautious", "2024", 35, 58},
	}
}

func floatPtr(v float64) *float64 { return &v }
