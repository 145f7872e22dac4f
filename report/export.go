package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eduscope-org/eduscope/engine"
)

// ============================================================================
// EXPORT — downloads of the filtered view
// ============================================================================
// Exports carry full float precision; display rounding belongs to the table
// builder, not the file on disk.
// ============================================================================

// Filename builds a timestamped download name, e.g. "eduscope_data_20250114_153012.csv".
func Filename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}

// exportCell renders one attribute of one record.
func exportCell(view engine.RecordView, i int, key string, measure bool) string {
	if measure {
		return strconv.FormatFloat(view.Measure(i, key), 'f', -1, 64)
	}
	return view.Dimension(i, key)
}

// ValidateColumns checks that every key is a dimension or measure of the
// view, so callers can reject a bad projection before streaming begins.
func ValidateColumns(view engine.RecordView, columns []string) error {
	_, err := splitColumns(view, columns)
	return err
}

// splitColumns validates the projection and marks which keys are measures.
func splitColumns(view engine.RecordView, columns []string) ([]bool, error) {
	if len(columns) == 0 {
		return nil, &engine.UnknownAttributeError{Attr: ""}
	}
	isMeasure := make([]bool, len(columns))
	dims := make(map[string]bool)
	for _, k := range view.DimensionKeys() {
		dims[k] = true
	}
	meas := make(map[string]bool)
	for _, k := range view.MeasureKeys() {
		meas[k] = true
	}
	for i, key := range columns {
		switch {
		case dims[key]:
		case meas[key]:
			isMeasure[i] = true
		default:
			return nil, &engine.UnknownAttributeError{Attr: key}
		}
	}
	return isMeasure, nil
}

// WriteCSV streams the view's selected columns as CSV.
func WriteCSV(w io.Writer, view engine.RecordView, columns []string) error {
	isMeasure, err := splitColumns(view, columns)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for i := 0; i < view.Len(); i++ {
		for j, key := range columns {
			row[j] = exportCell(view, i, key, isMeasure[j])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX streams the view's selected columns as a single-sheet workbook.
func WriteXLSX(w io.Writer, view engine.RecordView, columns []string) error {
	isMeasure, err := splitColumns(view, columns)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(columns))
	for j, key := range columns {
		header[j] = key
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := make([]interface{}, len(columns))
	for i := 0; i < view.Len(); i++ {
		for j, key := range columns {
			if isMeasure[j] {
				row[j] = view.Measure(i, key)
			} else {
				row[j] = view.Dimension(i, key)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// WriteSummaryCSV exports per-measure summary statistics for the view.
func WriteSummaryCSV(w io.Writer, view engine.RecordView, measures []string) error {
	summaries, err := engine.Summarize(view, measures)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"measure", "count", "min", "max", "mean", "std"}); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, s := range summaries {
		rec := []string{s.Key, strconv.Itoa(s.Count), f(s.Min), f(s.Max), f(s.Mean), f(s.Std)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
