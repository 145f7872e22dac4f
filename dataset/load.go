package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/eduscope-org/eduscope/schema"
)

// ============================================================================
// LOADER — CSV/XLSX → validated Dataset
// ============================================================================
// Strict by design: every required column must be present, every enum value
// must be declared in the schema, every numeric must parse and sit inside
// its range. No inference, no coercion. A bad row fails the whole load.
// ============================================================================

// LoadError reports a malformed dataset. Fatal at startup.
type LoadError struct {
	Row    int    // 1-based data row; 0 for header-level problems
	Column string // offending column, if known
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row == 0 && e.Column == "":
		return fmt.Sprintf("dataset load failed: %v", e.Err)
	case e.Row == 0:
		return fmt.Sprintf("dataset load failed: column %q: %v", e.Column, e.Err)
	case e.Column == "":
		return fmt.Sprintf("dataset load failed: row %d: %v", e.Row, e.Err)
	default:
		return fmt.Sprintf("dataset load failed: row %d, column %q: %v", e.Row, e.Column, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a dataset file, dispatching on extension (.csv or .xlsx).
func Load(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Err: err}
		}
		defer f.Close()
		return LoadCSV(f)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, &LoadError{Err: fmt.Errorf("unsupported dataset format %q", filepath.Ext(path))}
	}
}

// LoadCSV parses and validates a CSV dataset.
func LoadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	row := 0
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &LoadError{Row: row, Err: err}
		}
		rec, err := parseRow(cols, fields, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return New(records), nil
}

// LoadXLSX parses and validates the first sheet of an XLSX workbook.
func LoadXLSX(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Err: errors.New("sheet has no header row")}
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []Record
	for i, fields := range rows[1:] {
		rec, err := parseRow(cols, fields, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return New(records), nil
}

// ============================================================================
// COLUMN MAPPING
// ============================================================================

// columnMap holds the source column index of every required attribute.
type columnMap struct {
	index map[string]int
}

// requiredColumns is every schema attribute the file must carry; derived
// dimensions are computed, not read.
func requiredColumns() []string {
	sch := schema.Survey()
	var cols []string
	for _, d := range sch.Dimensions {
		if !d.Derived {
			cols = append(cols, d.Key)
		}
	}
	cols = append(cols, sch.MeasureKeys()...)
	return cols
}

// mapColumns resolves required attribute keys to header positions.
// Extra columns in the file are ignored; missing ones fail the load.
func mapColumns(header []string) (*columnMap, error) {
	position := make(map[string]int, len(header))
	for i, h := range header {
		position[strings.TrimSpace(h)] = i
	}

	cm := &columnMap{index: make(map[string]int)}
	for _, key := range requiredColumns() {
		i, ok := position[key]
		if !ok {
			return nil, &LoadError{Column: key, Err: errors.New("required column missing")}
		}
		cm.index[key] = i
	}
	return cm, nil
}

// ============================================================================
// ROW PARSING
// ============================================================================

var survey = schema.Survey()

func parseRow(cols *columnMap, fields []string, row int) (Record, error) {
	get := func(key string) (string, error) {
		i := cols.index[key]
		if i >= len(fields) {
			return "", &LoadError{Row: row, Column: key, Err: errors.New("row too short")}
		}
		return strings.TrimSpace(fields[i]), nil
	}

	dim := func(key string, dst *string) error {
		v, err := get(key)
		if err != nil {
			return err
		}
		if err := survey.ValidateDimensionValue(key, v); err != nil {
			return &LoadError{Row: row, Column: key, Err: err}
		}
		*dst = v
		return nil
	}

	meas := func(key string, dst *float64) error {
		v, err := get(key)
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &LoadError{Row: row, Column: key, Err: fmt.Errorf("not numeric: %q", v)}
		}
		if err := survey.ValidateMeasureValue(key, f); err != nil {
			return &LoadError{Row: row, Column: key, Err: err}
		}
		*dst = f
		return nil
	}

	var rec Record
	for _, step := range []error{
		dim(schema.DimInstitutionID, &rec.InstitutionID),
		dim(schema.DimInstitutionName, &rec.InstitutionName),
		dim(schema.DimQuarter, &rec.SurveyQuarter),
		dim(schema.DimRegion, &rec.Region),
		dim(schema.DimCountry, &rec.Country),
		dim(schema.DimInstitutionType, &rec.InstitutionType),
		dim(schema.DimInstitutionSize, &rec.InstitutionSize),
		dim(schema.DimFundingType, &rec.FundingType),
		dim(schema.DimPolicyStance, &rec.PolicyStance),
		dim(schema.DimDiscipline, &rec.Discipline),
		meas(schema.MeasAdoptionRate, &rec.AdoptionRate),
		meas(schema.MeasLiteracyIndex, &rec.LiteracyIndex),
		meas(schema.MeasIncidentRate, &rec.IncidentRate),
		meas(schema.MeasOutcomeDelta, &rec.OutcomeDelta),
		meas(schema.MeasPolicyMaturity, &rec.PolicyMaturity),
		meas(schema.MeasInfrastructure, &rec.Infrastructure),
		meas(schema.MeasTrainingHours, &rec.TrainingHours),
		meas(schema.MeasSatisfaction, &rec.Satisfaction),
		meas(schema.MeasResearchOutputPct, &rec.ResearchOutputPct),
	} {
		if step != nil {
			return Record{}, step
		}
	}

	year, err := schema.QuarterYear(rec.SurveyQuarter)
	if err != nil {
		return Record{}, &LoadError{Row: row, Column: schema.DimQuarter, Err: err}
	}
	rec.Year = strconv.Itoa(year)

	return rec, nil
}
