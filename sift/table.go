package sift

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Table is an in-memory dataset of named float64 columns with equal row
// counts. Column order is stable and significant: it fixes feature order for
// model training and objective order for optimization.
type Table struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// NewTable creates an empty table with the given column names.
func NewTable(names []string) (*Table, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: table requires at least one column", ErrInvalidArgument)
	}
	index := make(map[string]int, len(names))
	cols := make([][]float64, len(names))
	for i, name := range names {
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has empty name", ErrInvalidArgument, i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidArgument, name)
		}
		index[name] = i
		cols[i] = []float64{}
	}
	return &Table{
		names: append([]string(nil), names...),
		index: index,
		cols:  cols,
	}, nil
}

// NewTableFromColumns creates a table from pre-built column slices. All
// columns must have the same length. The slices are copied.
func NewTableFromColumns(names []string, cols [][]float64) (*Table, error) {
	t, err := NewTable(names)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(names) {
		return nil, fmt.Errorf("%w: %d names but %d columns", ErrInvalidArgument, len(names), len(cols))
	}
	for i, col := range cols {
		if i > 0 && len(col) != len(cols[0]) {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrInvalidArgument, names[i], len(col), len(cols[0]))
		}
		t.cols[i] = append([]float64(nil), col...)
	}
	if len(cols) > 0 {
		t.rows = len(cols[0])
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.names)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.names...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
	}
	return append([]float64(nil), t.cols[i]...), nil
}

// Value returns the cell at (row, column name).
func (t *Table) Value(row int, name string) (float64, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
	}
	if row < 0 || row >= t.rows {
		return 0, fmt.Errorf("%w: row %d out of range [0,%d)", ErrInvalidArgument, row, t.rows)
	}
	return t.cols[i][row], nil
}

// Row returns a copy of the given row in column order.
func (t *Table) Row(row int) ([]float64, error) {
	if row < 0 || row >= t.rows {
		return nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrInvalidArgument, row, t.rows)
	}
	out := make([]float64, len(t.cols))
	for i := range t.cols {
		out[i] = t.cols[i][row]
	}
	return out, nil
}

// AppendRow appends one row of values in column order.
func (t *Table) AppendRow(vals []float64) error {
	if len(vals) != len(t.names) {
		return fmt.Errorf("%w: row has %d values, table has %d columns", ErrInvalidArgument, len(vals), len(t.names))
	}
	for i, v := range vals {
		t.cols[i] = append(t.cols[i], v)
	}
	t.rows++
	return nil
}

// SetColumn adds or replaces a column. The values are copied and must match
// the table's row count.
func (t *Table) SetColumn(name string, vals []float64) error {
	if name == "" {
		return fmt.Errorf("%w: column name is empty", ErrInvalidArgument)
	}
	if len(vals) != t.rows {
		return fmt.Errorf("%w: column %q has %d rows, table has %d", ErrInvalidArgument, name, len(vals), t.rows)
	}
	if i, ok := t.index[name]; ok {
		t.cols[i] = append([]float64(nil), vals...)
		return nil
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, append([]float64(nil), vals...))
	return nil
}

// Select returns a new table holding only the named columns, in the given
// order. All requested columns must exist.
func (t *Table) Select(names ...string) (*Table, error) {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrSchemaMismatch, missing)
	}
	out, err := NewTable(names)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		src := t.cols[t.index[name]]
		out.cols[out.index[name]] = append([]float64(nil), src...)
	}
	out.rows = t.rows
	return out, nil
}

// RequireColumns verifies that every named column exists.
func (t *Table) RequireColumns(names ...string) error {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %v", ErrSchemaMismatch, missing)
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out, _ := NewTableFromColumns(t.names, t.cols)
	return out
}

// FilterRows returns a new table holding only the rows for which keep
// returns true.
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	out, _ := NewTable(t.names)
	for r := 0; r < t.rows; r++ {
		if !keep(r) {
			continue
		}
		for i := range t.cols {
			out.cols[i] = append(out.cols[i], t.cols[i][r])
		}
		out.rows++
	}
	return out
}

// DropMissing returns a new table without rows containing NaN or Inf in any
// column.
func (t *Table) DropMissing() *Table {
	return t.FilterRows(func(row int) bool {
		for i := range t.cols {
			v := t.cols[i][row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	})
}

// SortByColumns stably sorts rows ascending by the named columns, comparing
// the first column first and breaking ties with the following ones.
func (t *Table) SortByColumns(names ...string) error {
	if err := t.RequireColumns(names...); err != nil {
		return err
	}
	keys := make([]int, len(names))
	for i, name := range names {
		keys[i] = t.index[name]
	}
	order := make([]int, t.rows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		for _, k := range keys {
			if t.cols[k][ra] != t.cols[k][rb] {
				return t.cols[k][ra] < t.cols[k][rb]
			}
		}
		return false
	})
	for i := range t.cols {
		sorted := make([]float64, t.rows)
		for j, src := range order {
			sorted[j] = t.cols[i][src]
		}
		t.cols[i] = sorted
	}
	return nil
}

// Matrix returns the table as a dense row-major matrix, rows by columns.
// An empty table yields nil.
func (t *Table) Matrix() *mat.Dense {
	if t.rows == 0 || len(t.cols) == 0 {
		return nil
	}
	data := make([]float64, t.rows*len(t.cols))
	for r := 0; r < t.rows; r++ {
		for c := range t.cols {
			data[r*len(t.cols)+c] = t.cols[c][r]
		}
	}
	return mat.NewDense(t.rows, len(t.cols), data)
}
