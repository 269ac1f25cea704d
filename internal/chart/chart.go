// Package chart renders the combined trend table and the final report as
// PNG images (gonum/plot) or interactive HTML pages (go-echarts).
package chart

import (
	"errors"
	"math"
	"time"

	"github.com/FranksOps/trendscout/internal/trends"
)

// ErrNoData is returned when there is nothing to draw. Callers log it and
// carry on.
var ErrNoData = errors.New("chart: no data to plot")

const (
	TrendTitle  = "Combined Google Trends Data"
	TrendXLabel = "Date"
	TrendYLabel = "Trend Value"
)

// line is one term of the trend table in plotting order. Missing cells are
// NaN.
type line struct {
	name   string
	values []float64
}

func trendLines(t *trends.Table) ([]time.Time, []line, error) {
	if t == nil || t.Empty() {
		return nil, nil, ErrNoData
	}
	dates := t.Dates()
	var out []line
	for _, col := range t.Columns() {
		l := line{name: col, values: make([]float64, len(dates))}
		for row := range dates {
			if v, ok := t.At(row, col); ok {
				l.values[row] = v
			} else {
				l.values[row] = math.NaN()
			}
		}
		out = append(out, l)
	}
	return dates, out, nil
}
