package trends

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	// ColumnSuffix is appended to a term to name its table column.
	ColumnSuffix = "_trend"
	// PartialColumn names the partial-data flag column in CSV output.
	PartialColumn = "isPartial"
)

var (
	ErrColumnExists = errors.New("trends: column already in table")
	ErrEmptySeries  = errors.New("trends: series has no points")
)

// ColumnName returns the table column for term.
func ColumnName(term string) string { return term + ColumnSuffix }

// TermOf strips ColumnSuffix from a column name.
func TermOf(column string) string { return strings.TrimSuffix(column, ColumnSuffix) }

// Table is the combined trend table: one row per date, ascending, and one
// column per joined term. Cells a series does not cover hold NaN and are
// reported as absent by At. Columns are only ever added.
type Table struct {
	dates   []time.Time
	columns []string
	values  map[string][]float64
	partial []bool
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string][]float64)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.dates)
}

// Empty reports whether the table has no rows or no columns.
func (t *Table) Empty() bool {
	return t.Len() == 0 || len(t.columns) == 0
}

// Columns returns the term columns in join order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.columns)
}

// Dates returns the row index.
func (t *Table) Dates() []time.Time {
	if t == nil {
		return nil
	}
	return slices.Clone(t.dates)
}

// At returns the value at row for column, and false when the cell is
// missing or out of range.
func (t *Table) At(row int, column string) (float64, bool) {
	vals, ok := t.values[column]
	if !ok || row < 0 || row >= len(vals) || math.IsNaN(vals[row]) {
		return 0, false
	}
	return vals[row], true
}

// Partial reports whether any joined series flagged the row's bucket as
// still accumulating.
func (t *Table) Partial(row int) bool {
	return row >= 0 && row < len(t.partial) && t.partial[row]
}

// Join outer-joins s into the table on date as column ColumnName(s.Term).
// Dates from either side are kept; cells on the other side become missing.
func (t *Table) Join(s *Series) error {
	if s.Empty() {
		return ErrEmptySeries
	}
	col := ColumnName(s.Term)
	if _, exists := t.values[col]; exists {
		return fmt.Errorf("%w: %s", ErrColumnExists, col)
	}

	t.reindex(s.Points)

	rowOf := make(map[int64]int, len(t.dates))
	for i, d := range t.dates {
		rowOf[d.Unix()] = i
	}

	vals := nanSlice(len(t.dates))
	for _, p := range s.Points {
		row := rowOf[p.Date.Unix()]
		vals[row] = p.Value
		if p.Partial {
			t.partial[row] = true
		}
	}

	t.columns = append(t.columns, col)
	t.values[col] = vals
	return nil
}

// reindex grows the date index to the union with the given points, moving
// existing cells to their new rows.
func (t *Table) reindex(points []Point) {
	known := make(map[int64]bool, len(t.dates))
	for _, d := range t.dates {
		known[d.Unix()] = true
	}

	merged := slices.Clone(t.dates)
	for _, p := range points {
		if k := p.Date.Unix(); !known[k] {
			known[k] = true
			merged = append(merged, p.Date.UTC())
		}
	}
	if len(merged) == len(t.dates) {
		return
	}
	slices.SortFunc(merged, func(a, b time.Time) int { return a.Compare(b) })

	newRow := make(map[int64]int, len(merged))
	for i, d := range merged {
		newRow[d.Unix()] = i
	}

	partial := make([]bool, len(merged))
	for i, d := range t.dates {
		partial[newRow[d.Unix()]] = t.partial[i]
	}
	for _, col := range t.columns {
		old := t.values[col]
		moved := nanSlice(len(merged))
		for i, d := range t.dates {
			moved[newRow[d.Unix()]] = old[i]
		}
		t.values[col] = moved
	}

	t.dates = merged
	t.partial = partial
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
