// Package chart renders trend lines as an interrupted time series chart using gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"slices"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series colors.
var (
	observedColor       = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	fittedColor         = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	counterfactualColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	cutoverColor        = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}
	effectColor         = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0x40}
)

// tickEvery is the label stride on the period axis for series longer than maxAllTicks.
const (
	tickEvery   = 4
	maxAllTicks = 12
)

// ErrNoObservations is returned when there is nothing to draw.
var ErrNoObservations = errors.New("chart needs at least one observed point")

// NewPlot builds the chart: observed points and line, a dashed marker at the cutover,
// the fitted post-intervention line, the counterfactual line, the shaded effect area
// between them and a trend change annotation.
func NewPlot(lines schema.TrendLines) (*plot.Plot, error) {
	if len(lines.Observed) == 0 {
		return nil, ErrNoObservations
	}

	p := plot.New()
	p.Title.Text = "Interrupted time series"
	p.X.Label.Text = "Period"
	p.Y.Label.Text = "Outcome"
	p.Legend.Top = true
	p.Legend.Left = true
	p.X.Tick.Marker = periodTicks(lines.Observed)

	observed := toXYs(lines.Observed)
	counterfactual := toXYs(lines.Counterfactual)
	fitted := toXYs(lines.Fitted)

	// Shaded area first so lines draw on top of it
	if len(fitted) > 1 {
		poly, err := plotter.NewPolygon(effectArea(lines))
		if err != nil {
			return nil, fmt.Errorf("failed to build effect area: %w", err)
		}
		poly.Color = effectColor
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	points, err := plotter.NewScatter(observed)
	if err != nil {
		return nil, fmt.Errorf("failed to build observed points: %w", err)
	}
	points.GlyphStyle.Color = observedColor
	points.GlyphStyle.Radius = vg.Points(2)

	observedLine, err := plotter.NewLine(observed)
	if err != nil {
		return nil, fmt.Errorf("failed to build observed line: %w", err)
	}
	observedLine.LineStyle.Color = observedColor
	observedLine.LineStyle.Width = vg.Points(0.75)
	p.Add(observedLine, points)
	p.Legend.Add("observed", observedLine, points)

	if len(counterfactual) > 0 {
		cf, err := plotter.NewLine(counterfactual)
		if err != nil {
			return nil, fmt.Errorf("failed to build counterfactual line: %w", err)
		}
		cf.LineStyle.Color = counterfactualColor
		cf.LineStyle.Width = vg.Points(1.5)
		cf.LineStyle.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(cf)
		p.Legend.Add("counterfactual", cf)
	}

	if len(fitted) > 0 {
		fit, err := plotter.NewLine(fitted)
		if err != nil {
			return nil, fmt.Errorf("failed to build fitted line: %w", err)
		}
		fit.LineStyle.Color = fittedColor
		fit.LineStyle.Width = vg.Points(2)
		p.Add(fit)
		p.Legend.Add("fitted", fit)
	}

	lo, hi := valueRange(lines)
	if lines.Cutover > 0 {
		marker, err := plotter.NewLine(plotter.XYs{
			{X: float64(lines.Cutover), Y: lo},
			{X: float64(lines.Cutover), Y: hi},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build cutover marker: %w", err)
		}
		marker.LineStyle.Color = cutoverColor
		marker.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(marker)

		note, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: float64(lines.Cutover), Y: hi}},
			Labels: []string{Annotation(lines.TrendShiftPValue)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build annotation: %w", err)
		}
		note.Offset = vg.Point{X: vg.Points(4), Y: vg.Points(-12)}
		p.Add(note)
	}

	return p, nil
}

// Annotation formats the trend change label drawn next to the cutover marker.
func Annotation(pValue float64) string {
	if pValue < 0.001 {
		return "trend change p < 0.001"
	}
	return fmt.Sprintf("trend change p = %.3f", pValue)
}

// Render writes the chart to w in the given format (svg, png or pdf).
// Sizes are in inches; non-positive sizes fall back to the defaults.
func Render(w io.Writer, format string, lines schema.TrendLines, width, height float64) error {
	if !slices.Contains([]string{"svg", "png", "pdf"}, format) {
		return fmt.Errorf("unsupported chart format %q", format)
	}
	if width <= 0 {
		width = contract.DefaultChartWidth
	}
	if height <= 0 {
		height = contract.DefaultChartHeight
	}

	p, err := NewPlot(lines)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// Save renders the chart to path, choosing the format from its extension.
func Save(path string, lines schema.TrendLines, width, height float64) error {
	format, err := contract.ChartFormat(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := Render(file, format, lines, width, height); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// toXYs converts trend points to plotter coordinates keyed by period index.
func toXYs(points []schema.TrendPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Index)
		xys[i].Y = pt.Value
	}
	return xys
}

// effectArea returns the polygon between the counterfactual and fitted lines over
// the post period: counterfactual forward, then fitted backward.
func effectArea(lines schema.TrendLines) plotter.XYs {
	post := make(map[int]struct{}, len(lines.Fitted))
	for _, pt := range lines.Fitted {
		post[pt.Index] = struct{}{}
	}
	var area plotter.XYs
	for _, pt := range lines.Counterfactual {
		if _, ok := post[pt.Index]; ok {
			area = append(area, plotter.XY{X: float64(pt.Index), Y: pt.Value})
		}
	}
	for i := len(lines.Fitted) - 1; i >= 0; i-- {
		area = append(area, plotter.XY{X: float64(lines.Fitted[i].Index), Y: lines.Fitted[i].Value})
	}
	return area
}

// valueRange returns the smallest and largest value across all lines.
func valueRange(lines schema.TrendLines) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, set := range [][]schema.TrendPoint{lines.Observed, lines.Fitted, lines.Counterfactual} {
		for _, pt := range set {
			lo = math.Min(lo, pt.Value)
			hi = math.Max(hi, pt.Value)
		}
	}
	return lo, hi
}

// periodTicks labels the period axis with observation labels, thinning them for long series.
func periodTicks(observed []schema.TrendPoint) plot.Ticker {
	return plot.TickerFunc(func(minX, maxX float64) []plot.Tick {
		ticks := make([]plot.Tick, 0, len(observed))
		for i, pt := range observed {
			x := float64(pt.Index)
			if x < minX || x > maxX {
				continue
			}
			label := pt.Label
			if len(observed) > maxAllTicks && i%tickEvery != 0 {
				label = ""
			}
			ticks = append(ticks, plot.Tick{Value: x, Label: label})
		}
		return ticks
	})
}
