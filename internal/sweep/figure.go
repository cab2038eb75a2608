package sweep

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoPoints is returned when there is nothing to draw or summarise.
var ErrNoPoints = errors.New("sweep: no points")

// FigureOptions control RenderFigure.
type FigureOptions struct {
	Title       string
	TheoryLabel string

	// Reference is an optional extra curve drawn for n ≥ 1.
	Reference      func(n float64) float64
	ReferenceLabel string

	Width  vg.Length
	Height vg.Length
}

// FigureOptionsFor returns the figure layout used for method.
func FigureOptionsFor(method string, L float64) FigureOptions {
	opts := FigureOptions{
		Title:       "Comparison between theoretical and true worst-case guarantee",
		TheoryLabel: "Theoretical guarantee",
		Width:       16 * vg.Inch,
		Height:      8 * vg.Inch,
	}
	if method == "gd-decreasing" {
		opts.Title = "Comparison between conjectured and true worst-case guarantee"
		opts.TheoryLabel = "Conjecture L/(2 u_n)"
		opts.Reference = func(n float64) float64 { return L / (4 * math.Sqrt(n)) }
		opts.ReferenceLabel = "Approximation L/(4 sqrt(n))"
	}
	return opts
}

// RenderFigure draws the worst case, the closed-form bound and the
// reference curve against N. The image format follows the extension of
// path (png, svg, pdf, ...).
func RenderFigure(path string, points []Point, opts FigureOptions) error {
	if len(points) == 0 {
		return ErrNoPoints
	}
	if opts.Width == 0 {
		opts.Width = 16 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 8 * vg.Inch
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Number of iterations"
	p.Y.Label.Text = "Worst-case bounds"
	p.Legend.Top = true

	worst := make(plotter.XYs, len(points))
	var theory, reference plotter.XYs
	for i, pt := range points {
		n := float64(pt.N)
		worst[i] = plotter.XY{X: n, Y: pt.WorstCase}
		if pt.HasTheory {
			theory = append(theory, plotter.XY{X: n, Y: pt.Theoretical})
		}
		if opts.Reference != nil && pt.N >= 1 {
			reference = append(reference, plotter.XY{X: n, Y: opts.Reference(n)})
		}
	}

	line, marks, err := plotter.NewLinePoints(worst)
	if err != nil {
		return fmt.Errorf("failed to build worst-case line: %w", err)
	}
	line.LineStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.LineStyle.Width = vg.Points(1.5)
	marks.GlyphStyle.Shape = draw.CrossGlyph{}
	marks.GlyphStyle.Color = line.LineStyle.Color
	marks.GlyphStyle.Radius = vg.Points(4)
	p.Add(line, marks)
	p.Legend.Add("Worst-case guarantee", line, marks)

	if len(theory) > 0 {
		l, err := dashedLine(theory, color.RGBA{R: 255, G: 127, B: 14, A: 255})
		if err != nil {
			return fmt.Errorf("failed to build theory line: %w", err)
		}
		p.Add(l)
		p.Legend.Add(opts.TheoryLabel, l)
	}
	if len(reference) > 0 {
		l, err := dashedLine(reference, color.RGBA{R: 44, G: 160, B: 44, A: 255})
		if err != nil {
			return fmt.Errorf("failed to build reference line: %w", err)
		}
		p.Add(l)
		p.Legend.Add(opts.ReferenceLabel, l)
	}

	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("failed to save figure: %w", err)
	}
	return nil
}

func dashedLine(xys plotter.XYs, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	return l, nil
}

// Summary aggregates a sweep.
type Summary struct {
	Points int
	Min    float64
	Max    float64

	// MaxGap is the largest |worst case - closed form| over points with a
	// closed form, NaN when there is none.
	MaxGap float64
}

// Summarize computes the summary of points.
func Summarize(points []Point) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrNoPoints
	}
	values := make([]float64, len(points))
	var gaps []float64
	for i, pt := range points {
		values[i] = pt.WorstCase
		if pt.HasTheory {
			gaps = append(gaps, math.Abs(pt.WorstCase-pt.Theoretical))
		}
	}
	s := Summary{
		Points: len(points),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
		MaxGap: math.NaN(),
	}
	if len(gaps) > 0 {
		s.MaxGap = floats.Max(gaps)
	}
	return s, nil
}
