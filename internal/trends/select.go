package trends

import (
	"slices"
)

// DefaultTopN is how many rising terms go on to the marketplace search.
const DefaultTopN = 5

// Delta is the change of one term between the two most recent rows.
type Delta struct {
	Term  string
	Value float64
}

// Deltas returns most-recent minus prior for every column that has a value
// in both of the last two rows, in column order. Tables with fewer than two
// rows yield nil.
func Deltas(t *Table) []Delta {
	n := t.Len()
	if n < 2 {
		return nil
	}
	var out []Delta
	for _, col := range t.columns {
		last, ok1 := t.At(n-1, col)
		prev, ok2 := t.At(n-2, col)
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, Delta{Term: TermOf(col), Value: last - prev})
	}
	return out
}

// Select returns up to n terms with a strictly positive last-period delta,
// largest first. Equal deltas keep column order. Fewer than two rows is an
// empty selection, not an error.
func Select(t *Table, n int) []string {
	if n <= 0 {
		return nil
	}
	var rising []Delta
	for _, d := range Deltas(t) {
		if d.Value > 0 {
			rising = append(rising, d)
		}
	}
	slices.SortStableFunc(rising, func(a, b Delta) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		}
		return 0
	})

	out := make([]string, 0, min(n, len(rising)))
	for _, d := range rising[:min(n, len(rising))] {
		out = append(out, d.Term)
	}
	return out
}
