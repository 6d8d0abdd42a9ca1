// Package diagnostics renders fitted Gaussian rank mappings and the
// distributions they produce with gonum/plot.
package diagnostics

import (
	"io"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

// Default image size used by Save and WriteTo.
const (
	DefaultWidth  = 6 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// curveSamples is the number of points used to draw the mapping curve.
const curveSamples = 256

// MappingPlot draws the Gaussian score of a fitted feature over its
// fitted range, with the control points marked.
func MappingPlot(m *preprocessing.FeatureMapping, title string) (*plot.Plot, error) {
	if m == nil {
		return nil, errors.NewValueError("MappingPlot", "mapping is nil")
	}
	b := preprocessing.NewGaussianBijector(m)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "raw value"
	p.Y.Label.Text = "gaussian score"

	xs, _ := m.Knots()
	knots := make(plotter.XYs, 0, len(xs))
	for _, x := range xs {
		if z := b.Forward(x); !math.IsInf(z, 0) {
			knots = append(knots, plotter.XY{X: x, Y: z})
		}
	}
	scatter, err := plotter.NewScatter(knots)
	if err != nil {
		return nil, errors.Wrap(err, "failed to plot knots")
	}
	scatter.GlyphStyle.Color = plotutil.Color(1)
	p.Add(scatter)
	p.Legend.Add("knots", scatter)

	if lo, hi := m.Range(); hi > lo {
		curve := make(plotter.XYs, curveSamples)
		for i := range curve {
			x := lo + (hi-lo)*float64(i)/float64(curveSamples-1)
			curve[i] = plotter.XY{X: x, Y: b.Forward(x)}
		}
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, errors.Wrap(err, "failed to plot mapping")
		}
		line.LineStyle.Color = plotutil.Color(0)
		p.Add(line)
		p.Legend.Add(string(m.Kind()), line)
	}
	return p, nil
}

// ScoreHistogram draws a normalized histogram of transformed scores with
// the N(0, 1) density overlaid. Infinite scores are skipped.
func ScoreHistogram(z []float64, bins int, title string) (*plot.Plot, error) {
	p, err := Histogram(z, bins, title)
	if err != nil {
		return nil, err
	}
	p.X.Label.Text = "gaussian score"

	pdf := plotter.NewFunction(distuv.UnitNormal.Prob)
	pdf.Samples = curveSamples
	pdf.Color = plotutil.Color(2)
	pdf.Width = vg.Points(1.5)
	p.Add(pdf)
	p.Legend.Add("N(0, 1)", pdf)
	return p, nil
}

// Histogram draws a normalized histogram of the finite values of x.
func Histogram(x []float64, bins int, title string) (*plot.Plot, error) {
	if bins < 1 {
		return nil, errors.NewValidationError("bins", "must be positive", bins)
	}
	values := make(plotter.Values, 0, len(x))
	for _, v := range x {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, errors.NewValueError("Histogram", "no finite values")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "value"
	p.Y.Label.Text = "density"

	h, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build histogram")
	}
	h.Normalize(1)
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	return p, nil
}

// Save writes p to path. The format follows the file extension
// (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return errors.Wrapf(err, "failed to save plot to %s", path)
	}
	return nil
}

// WriteTo renders p in format ("png", "svg", ...) into w.
func WriteTo(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return errors.Wrapf(err, "unsupported plot format %q", format)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write plot")
	}
	return nil
}
