package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscope-org/eduscope/dataset"
)

// ============================================================================
// HTTP API
// ============================================================================

func testServer() *Server {
	records := []dataset.Record{
		{
			InstitutionID: "INST-001", InstitutionName: "Lakeside University",
			SurveyQuarter: "2024-Q1", Year: "2024",
			Region: "North America", Country: "USA",
			InstitutionType: "Research University", InstitutionSize: "Large (15K-30K)",
			FundingType: "Public", PolicyStance: "Integrated", Discipline: "STEM",
			AdoptionRate: 55, LiteracyIndex: 62,
		},
		{
			InstitutionID: "INST-002", InstitutionName: "Prairie College",
			SurveyQuarter: "2024-Q1", Year: "2024",
			Region: "North America", Country: "Canada",
			InstitutionType: "Community College", InstitutionSize: "Small (<5K)",
			FundingType: "Public", PolicyStance: "Cautious", Discipline: "Business",
			AdoptionRate: 25, LiteracyIndex: 40,
		},
		{
			InstitutionID: "INST-003", InstitutionName: "Rheintal Institut",
			SurveyQuarter: "2023-Q3", Year: "2023",
			Region: "Europe", Country: "Germany",
			InstitutionType: "Technical Institute", InstitutionSize: "Medium (5K-15K)",
			FundingType: "Mixed", PolicyStance: "Restrictive", Discipline: "Comprehensive",
			AdoptionRate: 18, LiteracyIndex: 35,
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, dataset.New(records))
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func TestHealth(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["records"])
}

func TestSchemaEndpoint(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodGet, "/api/schema", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Name       string           `json:"name"`
		Dimensions []map[string]any `json:"dimensions"`
		Measures   []map[string]any `json:"measures"`
	}
	decode(t, w, &body)
	assert.Equal(t, "genai_education_survey", body.Name)
	assert.Len(t, body.Dimensions, 11)
	assert.Len(t, body.Measures, 9)
}

func TestOptionsNarrowsCountriesByRegion(t *testing.T) {
	s := testServer()

	w := doJSON(t, s, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Countries []string `json:"countries"`
	}
	decode(t, w, &all)
	assert.Equal(t, []string{"Canada", "Germany", "USA"}, all.Countries)

	w = doJSON(t, s, http.MethodGet, "/api/options?region=Europe", nil)
	var narrowed struct {
		Countries []string `json:"countries"`
	}
	decode(t, w, &narrowed)
	assert.Equal(t, []string{"Germany"}, narrowed.Countries)
}

func TestQueryCountByRegion(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/query", map[string]any{
		"groupBy": []string{"region"},
		"metric":  map[string]any{"kind": "count"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.QueryID)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, 3, resp.FilteredCount)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "North America", resp.Groups[0].Key)
	assert.Equal(t, 2, resp.Groups[0].Count)
	require.NotNil(t, resp.Series)
	assert.Equal(t, "bar", resp.Series.ChartKind)
}

func TestQueryFiltered(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/query", map[string]any{
		"filters": map[string]any{
			"dimensions": map[string][]string{"region": {"Europe"}},
		},
		"groupBy": []string{"country"},
		"metric":  map[string]any{"kind": "mean", "attr": "ai_adoption_rate"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.FilteredCount)
	require.Len(t, resp.Groups, 1)
	assert.Equal(t, "Germany", resp.Groups[0].Key)
	assert.InDelta(t, 18, resp.Groups[0].Value, 1e-9)
}

func TestQueryUnknownFilterFallsBack(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/query", map[string]any{
		"filters": map[string]any{
			"dimensions": map[string][]string{"mascot": {"owl"}},
		},
		"groupBy": []string{"region"},
		"metric":  map[string]any{"kind": "count"},
	})
	require.Equal(t, http.StatusOK, w.Code, "bad filter must not fail the query")

	var resp QueryResponse
	decode(t, w, &resp)
	assert.Contains(t, resp.Warning, "mascot")
	assert.Equal(t, 3, resp.FilteredCount, "falls back to the unfiltered view")
}

func TestQueryUnknownGroupByRejected(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/query", map[string]any{
		"groupBy": []string{"mascot"},
		"metric":  map[string]any{"kind": "count"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, "unknown_attribute", apiErr.Code)
}

func TestQueryBadMetricKind(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/query", map[string]any{
		"metric": map[string]any{"kind": "median"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKPIsEndpoint(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/kpis", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		FilteredCount int `json:"filteredCount"`
		KPIs          struct {
			Institutions struct {
				Value float64 `json:"value"`
			} `json:"institutions"`
		} `json:"kpis"`
	}
	decode(t, w, &body)
	assert.Equal(t, 3, body.FilteredCount)
	assert.Equal(t, 3.0, body.KPIs.Institutions.Value)
}

func TestHistogramEndpoint(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/stats/histogram", map[string]any{
		"attr": "ai_adoption_rate",
		"bins": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Histogram struct {
			Counts []int `json:"counts"`
		} `json:"histogram"`
	}
	decode(t, w, &body)
	sum := 0
	for _, c := range body.Histogram.Counts {
		sum += c
	}
	assert.Equal(t, 3, sum)
}

func TestMatrixEndpointDefaultsToAllMeasures(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/stats/matrix", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Matrix struct {
			Attrs []string `json:"attrs"`
		} `json:"matrix"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Matrix.Attrs, 9)
}

func TestExplorerEndpoint(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/explorer", map[string]any{
		"columns": []string{"institution_name", "ai_adoption_rate"},
		"limit":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Table struct {
			Rows  [][]string `json:"rows"`
			Total int        `json:"total"`
		} `json:"table"`
	}
	decode(t, w, &body)
	assert.Equal(t, 3, body.Table.Total)
	assert.Len(t, body.Table.Rows, 2)
	assert.Equal(t, "Lakeside University", body.Table.Rows[0][0])
}

func TestExplorerUnknownColumn(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/explorer", map[string]any{
		"columns": []string{"mascot"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSV(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/export", map[string]any{
		"format": "csv",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "eduscope_data_")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 4) // header + 3 records
}

func TestExportUnknownColumn(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/export", map[string]any{
		"format":  "csv",
		"columns": []string{"mascot"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"),
		"no download headers on a rejected projection")

	var apiErr APIError
	decode(t, w, &apiErr)
	assert.Equal(t, "unknown_attribute", apiErr.Code)
}

func TestExportBadFormat(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodPost, "/api/export", map[string]any{
		"format": "pdf",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsExposed(t *testing.T) {
	w := doJSON(t, testServer(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eduscope_filter_fallbacks_total")
}
