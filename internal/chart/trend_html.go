package chart

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/FranksOps/trendscout/internal/trends"
)

// RenderTrendHTML writes an interactive line chart of the table. The legend
// sits vertically on the right and the grid is narrowed to leave it room.
func RenderTrendHTML(t *trends.Table, path string) error {
	dates, lines, err := trendLines(t)
	if err != nil {
		return err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: TrendTitle,
			Width:     "1400px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{Title: TrendTitle}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Orient: "vertical",
			Right:  "2%",
			Top:    "middle",
		}),
		charts.WithGridOpts(opts.Grid{Right: "20%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: TrendXLabel}),
		charts.WithYAxisOpts(opts.YAxis{Name: TrendYLabel}),
	)

	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format(trends.DateLayout)
	}
	line.SetXAxis(labels)

	for _, l := range lines {
		data := make([]opts.LineData, len(l.values))
		for i, v := range l.values {
			if math.IsNaN(v) {
				data[i] = opts.LineData{Value: nil}
				continue
			}
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(l.name, data)
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false)}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if err := line.Render(f); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
