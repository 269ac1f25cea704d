package chart

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// RenderBarPNG draws bars in input order with the labels rotated 45°.
func RenderBarPNG(bars []Bar, title, yLabel, path string) error {
	if len(bars) == 0 {
		return ErrNoData
	}

	values := make(plotter.Values, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			return fmt.Errorf("bar %q: value %v is not finite", b.Label, b.Value)
		}
		values[i] = b.Value
		labels[i] = b.Label
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Search Term"
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	bc, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bc.Color = plotutil.Color(0)
	bc.LineStyle.Width = 0
	p.Add(bc)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save bar chart: %w", err)
	}
	return nil
}
