package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscope-org/eduscope/dataset"
)

// ============================================================================
// KPI CARDS
// ============================================================================

func kpiRecords() []dataset.Record {
	base := dataset.Record{
		InstitutionName: "U", Region: "Europe", Country: "Germany",
		InstitutionType: "Research University", InstitutionSize: "Medium (5K-15K)",
		FundingType: "Public", Discipline: "STEM",
	}
	r1 := base
	r1.InstitutionID, r1.SurveyQuarter, r1.Year = "INST-001", "2023-Q2", "2023"
	r1.PolicyStance = "Cautious"
	r1.AdoptionRate, r1.LiteracyIndex, r1.IncidentRate = 30, 40, 6

	r2 := base
	r2.InstitutionID, r2.SurveyQuarter, r2.Year = "INST-002", "2024-Q2", "2024"
	r2.PolicyStance = "Integrated"
	r2.AdoptionRate, r2.LiteracyIndex, r2.IncidentRate = 50, 60, 4

	r3 := base
	r3.InstitutionID, r3.SurveyQuarter, r3.Year = "INST-003", "2024-Q2", "2024"
	r3.PolicyStance = "Integrated"
	r3.Country = "France"
	r3.AdoptionRate, r3.LiteracyIndex, r3.IncidentRate = 40, 50, 2

	return []dataset.Record{r1, r2, r3}
}

func TestKPIs(t *testing.T) {
	k := KPIs(dataset.New(kpiRecords()).View())

	assert.Equal(t, 3.0, k.Institutions.Value)
	assert.Equal(t, 2.0, k.Countries.Value)
	assert.InDelta(t, 40, k.AdoptionRate.Value, 1e-9)

	// Delta = mean(2024) - mean(2023) = 45 - 30.
	require.NotNil(t, k.AdoptionRate.Delta)
	assert.InDelta(t, 15, *k.AdoptionRate.Delta, 1e-9)

	require.NotNil(t, k.IncidentRate.Delta)
	assert.InDelta(t, 3-6, *k.IncidentRate.Delta, 1e-9)

	// 2 of 3 institutions are Integrated; 1 of 3 is at or above the threshold.
	assert.InDelta(t, 2.0/3*100, k.IntegratedPolicyPct.Value, 1e-9)
	assert.InDelta(t, 1.0/3*100, k.HighAdoptionPct.Value, 1e-9)
}

func TestKPIsSingleYearHasNoDelta(t *testing.T) {
	recs := kpiRecords()[1:] // 2024 only
	k := KPIs(dataset.New(recs).View())

	assert.Nil(t, k.AdoptionRate.Delta)
	assert.Nil(t, k.LiteracyIndex.Delta)
	assert.InDelta(t, 45, k.AdoptionRate.Value, 1e-9)
}

func TestKPIsEmptyView(t *testing.T) {
	k := KPIs(dataset.New(nil).View())

	assert.Zero(t, k.Institutions.Value)
	assert.Zero(t, k.AdoptionRate.Value)
	assert.Zero(t, k.IntegratedPolicyPct.Value)
	assert.Nil(t, k.AdoptionRate.Delta)
}
