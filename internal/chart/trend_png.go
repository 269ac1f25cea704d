package chart

import (
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/FranksOps/trendscout/internal/trends"
)

const (
	trendWidth  = 15 * vg.Inch
	trendHeight = 8 * vg.Inch
	legendWidth = 3 * vg.Inch
)

// RenderTrendPNG draws one line per term column with the legend in a panel
// to the right of the plot area.
func RenderTrendPNG(t *trends.Table, path string) error {
	dates, lines, err := trendLines(t)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = TrendTitle
	p.X.Label.Text = TrendXLabel
	p.Y.Label.Text = TrendYLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	legend := plot.NewLegend()
	legend.Top = true
	legend.Left = true

	for i, l := range lines {
		segments := splitAtGaps(dates, l.values)
		for j, xys := range segments {
			ln, pts, err := plotter.NewLinePoints(xys)
			if err != nil {
				return fmt.Errorf("plot %s: %w", l.name, err)
			}
			ln.Color = plotutil.Color(i)
			ln.Width = vg.Points(1.5)
			pts.Color = plotutil.Color(i)
			pts.Shape = draw.CircleGlyph{}
			pts.Radius = vg.Points(1.5)
			p.Add(ln, pts)
			if j == 0 {
				legend.Add(l.name, ln, pts)
			}
		}
	}

	img := vgimg.New(trendWidth, trendHeight)
	dc := draw.New(img)
	p.Draw(draw.Crop(dc, 0, -legendWidth, 0, 0))
	legend.Draw(draw.Crop(dc, trendWidth-legendWidth+vg.Points(10), 0, 0, -vg.Points(30)))

	return writePNG(img, path)
}

// splitAtGaps turns a column into contiguous runs of present values, since
// a NaN inside a plotter.XYs is rejected.
func splitAtGaps(dates []time.Time, values []float64) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for i, v := range values {
		if math.IsNaN(v) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(dates[i].Unix()), Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return f.Close()
}
