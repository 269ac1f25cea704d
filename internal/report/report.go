// Package report builds the final marketplace report and the run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/FranksOps/trendscout/internal/chart"
	"github.com/FranksOps/trendscout/internal/marketplace"
)

const (
	FileName      = "final_report.csv"
	ChartFileName = "final_report_chart.png"
)

// Metric selects what the report chart plots.
type Metric string

const (
	MetricResultCount Metric = "result_count"
	MetricListLength  Metric = "list_length"
)

// ParseMetric validates a metric name from configuration. Empty means
// MetricResultCount.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricResultCount, MetricListLength:
		return m, nil
	case "":
		return MetricResultCount, nil
	default:
		return "", fmt.Errorf("unknown report chart metric %q", s)
	}
}

// Row is one line of the final report.
type Row struct {
	Term        string
	ResultFile  string
	ResultCount int
	ListLength  *float64
}

// Report is the ordered set of terms that produced marketplace results.
type Report struct {
	rows []Row
}

// Build keeps the results with a positive count, in input order.
func Build(results []marketplace.Result) *Report {
	r := &Report{}
	for _, res := range results {
		if !res.Found() {
			continue
		}
		r.rows = append(r.rows, Row{
			Term:        res.Term,
			ResultFile:  res.File,
			ResultCount: res.Count,
			ListLength:  res.ListLength,
		})
	}
	return r
}

// Rows returns a copy of the report rows.
func (r *Report) Rows() []Row {
	out := make([]Row, len(r.rows))
	copy(out, r.rows)
	return out
}

// Len returns the number of rows.
func (r *Report) Len() int { return len(r.rows) }

// WriteCSV writes term, result_file, result_count, listLength. An absent
// list length is an empty field.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"term", "result_file", "result_count", marketplace.ListLengthField}); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, row := range r.rows {
		ll := ""
		if row.ListLength != nil {
			ll = strconv.FormatFloat(*row.ListLength, 'f', -1, 64)
		}
		if err := cw.Write([]string{row.Term, row.ResultFile, strconv.Itoa(row.ResultCount), ll}); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Bars converts the report into chart bars for metric. Rows without a list
// length plot as zero under MetricListLength.
func (r *Report) Bars(metric Metric) []chart.Bar {
	bars := make([]chart.Bar, 0, len(r.rows))
	for _, row := range r.rows {
		v := float64(row.ResultCount)
		if metric == MetricListLength {
			v = 0
			if row.ListLength != nil {
				v = *row.ListLength
			}
		}
		bars = append(bars, chart.Bar{Label: row.Term, Value: v})
	}
	return bars
}

// RenderChart draws the report bar chart to path.
func (r *Report) RenderChart(metric Metric, path string) error {
	title, yLabel := "Search Results by Term", "Result Count"
	if metric == MetricListLength {
		title, yLabel = "Listing Length by Term", "List Length"
	}
	return chart.RenderBarPNG(r.Bars(metric), title, yLabel, path)
}
