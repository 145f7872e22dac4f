package engine

import "strconv"

// ============================================================================
// TABLE BUILDER — data explorer projection
// ============================================================================

// BuildTable projects a filtered view onto selected columns, keeping at most
// limit rows (0 = all). Columns may mix dimensions and measures and appear
// in the requested order; an unknown column is an UnknownAttributeError.
func BuildTable(view RecordView, columns []string, limit int) (*TableData, error) {
	cols := make([]Column, 0, len(columns))
	isMeasure := make([]bool, len(columns))
	for i, key := range columns {
		switch {
		case hasDimension(view, key):
			cols = append(cols, Column{Key: key, Label: AttrLabel(key), Type: "text"})
		case hasMeasure(view, key):
			cols = append(cols, Column{Key: key, Label: AttrLabel(key), Type: "number"})
			isMeasure[i] = true
		default:
			return nil, &UnknownAttributeError{Attr: key}
		}
	}

	n := view.Len()
	rows := n
	if limit > 0 && limit < rows {
		rows = limit
	}

	table := &TableData{
		Columns: cols,
		Rows:    make([][]string, 0, rows),
		Total:   n,
	}
	for i := 0; i < rows; i++ {
		row := make([]string, len(columns))
		for j, key := range columns {
			if isMeasure[j] {
				row[j] = strconv.FormatFloat(view.Measure(i, key), 'f', 2, 64)
			} else {
				row[j] = view.Dimension(i, key)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
