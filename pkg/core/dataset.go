package core

import "fmt"

// Dataset is a fully materialised table: an ordered list of column names and
// an ordered list of rows. Rows may be ragged; a cell past the end of a row
// reads as Missing.
type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]Scalar `json:"rows"`
}

// NewDataset builds a dataset from column names and rows.
func NewDataset(columns []string, rows [][]Scalar) *Dataset {
	return &Dataset{Columns: columns, Rows: rows}
}

// DatasetFromValues builds a dataset from driver-level values.
func DatasetFromValues(columns []string, values [][]any) (*Dataset, error) {
	rows := make([][]Scalar, len(values))
	for r, vals := range values {
		row := make([]Scalar, len(vals))
		for c, x := range vals {
			s, err := FromAny(x)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", r, c, err)
			}
			row[c] = s
		}
		rows[r] = row
	}
	return &Dataset{Columns: columns, Rows: rows}, nil
}

// Width returns the number of columns.
func (d *Dataset) Width() int { return len(d.Columns) }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Cell returns the value at (row, col) and whether both indices are in bounds.
func (d *Dataset) Cell(row, col int) (Scalar, bool) {
	return CellAt(d.Rows, row, col)
}

// ColumnIndex returns the position of the first column with the given name.
func (d *Dataset) ColumnIndex(name string) int {
	return IndexOf(d.Columns, name)
}

// Head returns a dataset sharing the first n rows. n <= 0 means all rows.
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n >= len(d.Rows) {
		return d
	}
	return &Dataset{Columns: d.Columns, Rows: d.Rows[:n]}
}

// CellAt reads rows[row][col] and reports whether both indices were in bounds.
func CellAt(rows [][]Scalar, row, col int) (Scalar, bool) {
	if row < 0 || row >= len(rows) {
		return Missing(), false
	}
	r := rows[row]
	if col < 0 || col >= len(r) {
		return Missing(), false
	}
	return r[col], true
}

// IndexOf returns the first position of name in names, or -1.
func IndexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// ColumnPair pairs a source column position with a target column position.
type ColumnPair struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// ColumnSelection is the ordered list of column pairs a validation runs over.
type ColumnSelection []ColumnPair

// NewColumnSelection zips two index lists into a selection, stopping at the
// shorter list.
func NewColumnSelection(source, target []int) ColumnSelection {
	n := min(len(source), len(target))
	sel := make(ColumnSelection, n)
	for i := 0; i < n; i++ {
		sel[i] = ColumnPair{Source: source[i], Target: target[i]}
	}
	return sel
}

// Split returns the source and target index lists.
func (s ColumnSelection) Split() (source, target []int) {
	source = make([]int, len(s))
	target = make([]int, len(s))
	for i, p := range s {
		source[i] = p.Source
		target[i] = p.Target
	}
	return source, target
}

// ValidateAgainst checks every pair against the column lists of both datasets.
func (s ColumnSelection) ValidateAgainst(source, target *Dataset) error {
	for i, p := range s {
		if p.Source < 0 || p.Source >= source.Width() {
			return fmt.Errorf("pair %d: source column index %d out of range [0,%d)", i, p.Source, source.Width())
		}
		if p.Target < 0 || p.Target >= target.Width() {
			return fmt.Errorf("pair %d: target column index %d out of range [0,%d)", i, p.Target, target.Width())
		}
	}
	return nil
}
