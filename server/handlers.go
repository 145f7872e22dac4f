package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/eduscope-org/eduscope/engine"
	"github.com/eduscope-org/eduscope/report"
)

var validate = validator.New()

// ============================================================================
// REQUEST / RESPONSE SHAPES
// ============================================================================

// QueryRequest drives the main grouped-aggregation endpoint.
type QueryRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	GroupBy []string          `json:"groupBy" validate:"max=2,dive,required"`
	Metric  engine.Metric     `json:"metric"`
	Chart   string            `json:"chart" validate:"omitempty,oneof=bar line pie grouped_bar heatmap"`
	Title   string            `json:"title"`
}

func (q *QueryRequest) Bind(*http.Request) error {
	if q.Metric.Kind == "" {
		q.Metric.Kind = engine.MetricCount
	}
	switch q.Metric.Kind {
	case engine.MetricCount, engine.MetricMean, engine.MetricCorrelation:
	default:
		return fmt.Errorf("unsupported metric kind %q", q.Metric.Kind)
	}
	return validate.Struct(q)
}

// QueryResponse carries the aggregation plus its chart-ready shape.
type QueryResponse struct {
	QueryID       string             `json:"queryId"`
	Warning       string             `json:"warning,omitempty"`
	FilteredCount int                `json:"filteredCount"`
	Groups        []engine.GroupStat `json:"groups"`
	Series        *engine.SeriesData `json:"series"`
}

func (*QueryResponse) Render(http.ResponseWriter, *http.Request) error { return nil }

// FiltersRequest is the body for endpoints that only need a filter.
type FiltersRequest struct {
	Filters engine.FilterSpec `json:"filters"`
}

func (*FiltersRequest) Bind(*http.Request) error { return nil }

// HistogramRequest bins one measure of the filtered view.
type HistogramRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	Attr    string            `json:"attr" validate:"required"`
	Bins    int               `json:"bins" validate:"omitempty,min=1,max=100"`
}

func (h *HistogramRequest) Bind(*http.Request) error {
	if h.Bins == 0 {
		h.Bins = 20
	}
	return validate.Struct(h)
}

// BoxRequest computes per-category quartiles of one measure.
type BoxRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	Attr    string            `json:"attr" validate:"required"`
	GroupBy string            `json:"groupBy" validate:"required"`
}

func (b *BoxRequest) Bind(*http.Request) error { return validate.Struct(b) }

// MatrixRequest computes a correlation matrix; empty attrs = all measures.
type MatrixRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	Attrs   []string          `json:"attrs"`
}

func (*MatrixRequest) Bind(*http.Request) error { return nil }

// ExplorerRequest projects the filtered view onto a column selection.
type ExplorerRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	Columns []string          `json:"columns"`
	Limit   int               `json:"limit" validate:"omitempty,min=1,max=10000"`
}

func (e *ExplorerRequest) Bind(*http.Request) error {
	if e.Limit == 0 {
		e.Limit = 100
	}
	return validate.Struct(e)
}

// ExportRequest streams the filtered view as a downloadable file.
type ExportRequest struct {
	Filters engine.FilterSpec `json:"filters"`
	Columns []string          `json:"columns"`
	Format  string            `json:"format" validate:"required,oneof=csv xlsx summary"`
}

func (e *ExportRequest) Bind(*http.Request) error { return validate.Struct(e) }

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"records": s.data.Len(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.schema)
}

// handleOptions returns the dropdown values; repeated ?region= params narrow
// the country list to the selected regions.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts := s.data.Options()
	if regions := r.URL.Query()["region"]; len(regions) > 0 {
		opts.Countries = s.data.CountriesIn(regions)
	}
	render.JSON(w, r, opts)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	done := s.observe("query")

	var req QueryRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid query request", err.Error()))
		return
	}

	view, warning := s.filteredView(req.Filters)
	result, err := engine.Aggregate(view, nil, req.GroupBy, req.Metric)
	if err != nil {
		done("bad_request")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.Render(w, r, &QueryResponse{
		QueryID:       uuid.NewString(),
		Warning:       warning,
		FilteredCount: result.FilteredCount,
		Groups:        result.Groups,
		Series:        engine.BuildSeries(result, req.Chart, req.Title),
	})
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	done := s.observe("kpis")

	var req FiltersRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid kpi request", err.Error()))
		return
	}

	view, warning := s.filteredView(req.Filters)
	done("ok")
	render.JSON(w, r, map[string]any{
		"warning":       warning,
		"filteredCount": view.Len(),
		"kpis":          report.KPIs(view),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	done := s.observe("summary")

	var req FiltersRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid summary request", err.Error()))
		return
	}

	view, warning := s.filteredView(req.Filters)
	summaries, err := engine.Summarize(view, s.schema.MeasureKeys())
	if err != nil {
		done("error")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.JSON(w, r, map[string]any{
		"warning":   warning,
		"summaries": summaries,
	})
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	done := s.observe("histogram")

	var req HistogramRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid histogram request", err.Error()))
		return
	}

	view, warning := s.filteredView(req.Filters)
	hist, err := engine.Histogram(view, req.Attr, req.Bins)
	if err != nil {
		done("bad_request")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.JSON(w, r, map[string]any{
		"warning":   warning,
		"histogram": hist,
	})
}

func (s *Server) handleBox(w http.ResponseWriter, r *http.Request) {
	done := s.observe("box")

	var req BoxRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid box request", err.Error()))
		return
	}

	view, warning := s.filteredView(req.Filters)
	stats, err := engine.BoxStats(view, req.Attr, req.GroupBy)
	if err != nil {
		done("bad_request")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.JSON(w, r, map[string]any{
		"warning": warning,
		"boxes":   stats,
	})
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	done := s.observe("matrix")

	var req MatrixRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid matrix request", err.Error()))
		return
	}
	if len(req.Attrs) == 0 {
		req.Attrs = s.schema.MeasureKeys()
	}

	view, warning := s.filteredView(req.Filters)
	matrix, err := engine.CorrelationMatrix(view, req.Attrs)
	if err != nil {
		done("bad_request")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.JSON(w, r, map[string]any{
		"warning": warning,
		"matrix":  matrix,
	})
}

func (s *Server) handleExplorer(w http.ResponseWriter, r *http.Request) {
	done := s.observe("explorer")

	var req ExplorerRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid explorer request", err.Error()))
		return
	}
	if len(req.Columns) == 0 {
		req.Columns = s.allColumns()
	}

	view, warning := s.filteredView(req.Filters)
	table, err := engine.BuildTable(view, req.Columns, req.Limit)
	if err != nil {
		done("bad_request")
		s.renderError(w, r, asAPIError(err))
		return
	}

	done("ok")
	render.JSON(w, r, map[string]any{
		"warning": warning,
		"table":   table,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	done := s.observe("export")

	var req ExportRequest
	if err := render.Bind(r, &req); err != nil {
		done("bad_request")
		s.renderError(w, r, errBadRequest("invalid export request", err.Error()))
		return
	}
	if len(req.Columns) == 0 {
		req.Columns = s.allColumns()
	}

	view, _ := s.filteredView(req.Filters)

	// Reject a bad projection before any download header goes out.
	if req.Format != "summary" {
		if err := report.ValidateColumns(view, req.Columns); err != nil {
			done("bad_request")
			s.renderError(w, r, asAPIError(err))
			return
		}
	}

	var err error
	switch req.Format {
	case "csv":
		s.attachment(w, report.Filename("eduscope_data", "csv"), "text/csv")
		err = report.WriteCSV(w, view, req.Columns)
	case "xlsx":
		s.attachment(w, report.Filename("eduscope_data", "xlsx"),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = report.WriteXLSX(w, view, req.Columns)
	case "summary":
		s.attachment(w, report.Filename("eduscope_summary", "csv"), "text/csv")
		err = report.WriteSummaryCSV(w, view, s.schema.MeasureKeys())
	}
	if err != nil {
		// Headers may already be out; log instead of re-rendering.
		done("error")
		s.log.Error("export failed", slog.String("format", req.Format), slog.Any("error", err))
		return
	}
	done("ok")
}

// ============================================================================
// HELPERS
// ============================================================================

// filteredView applies the filter spec, falling back to the unfiltered view
// with a warning when the FilterSpec references an unknown attribute.
func (s *Server) filteredView(spec engine.FilterSpec) (engine.RecordView, string) {
	view := s.data.View()
	pred, err := engine.BuildPredicate(view, spec)
	if err != nil {
		filterFallbacks.Inc()
		s.log.Warn("filter spec dropped", slog.Any("error", err))
		var ua *engine.UnknownAttributeError
		if errors.As(err, &ua) {
			return view, fmt.Sprintf("filter references unknown attribute %q; showing unfiltered data", ua.Attr)
		}
		return view, "filter could not be applied; showing unfiltered data"
	}
	return engine.ApplyPredicate(view, pred), ""
}

// allColumns is the default explorer/export projection: every schema column.
func (s *Server) allColumns() []string {
	return append(s.schema.DimensionKeys(), s.schema.MeasureKeys()...)
}

func (s *Server) attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, apiErr *APIError) {
	if err := render.Render(w, r, apiErr); err != nil {
		s.log.Error("render error response", slog.Any("error", err))
	}
}

// asAPIError maps engine errors onto HTTP error bodies.
func asAPIError(err error) *APIError {
	var ua *engine.UnknownAttributeError
	if errors.As(err, &ua) {
		return errUnknownAttribute(err.Error())
	}
	return errInternal(err.Error())
}

// observe times a handler and counts its outcome.
func (s *Server) observe(endpoint string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		queryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		queriesTotal.WithLabelValues(endpoint, outcome).Inc()
	}
}
