package trends

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// DateLayout is the date format used in every CSV this package writes.
const DateLayout = "2006-01-02"

// WriteCSV writes the table as date, one column per term, then isPartial.
// Missing cells are written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"date"}, t.columns...)
	header = append(header, PartialColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write table header: %w", err)
	}

	for row, d := range t.dates {
		rec := make([]string, 0, len(header))
		rec = append(rec, d.Format(DateLayout))
		for _, col := range t.columns {
			if v, ok := t.At(row, col); ok {
				rec = append(rec, formatValue(v))
			} else {
				rec = append(rec, "")
			}
		}
		rec = append(rec, strconv.FormatBool(t.Partial(row)))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSV writes a single series as date, term, isPartial.
func (s *Series) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", s.Term, PartialColumn}); err != nil {
		return fmt.Errorf("write series header: %w", err)
	}
	for _, p := range s.Points {
		if err := cw.Write([]string{p.Date.Format(DateLayout), formatValue(p.Value), strconv.FormatBool(p.Partial)}); err != nil {
			return fmt.Errorf("write series row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRelatedCSV writes term, query, value rows for each series that has
// related queries. Passing a single series produces that term's file.
func WriteRelatedCSV(w io.Writer, series ...*Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"term", "query", "value"}); err != nil {
		return fmt.Errorf("write related header: %w", err)
	}
	for _, s := range series {
		if s == nil {
			continue
		}
		for _, rq := range s.Related {
			if err := cw.Write([]string{s.Term, rq.Query, strconv.Itoa(rq.Value)}); err != nil {
				return fmt.Errorf("write related row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
