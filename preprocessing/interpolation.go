package preprocessing

import (
	"strings"

	"gonum.org/v1/gonum/interp"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// InterpKind selects the interpolation rule of a feature mapping.
type InterpKind string

const (
	// InterpLinear is piecewise-linear interpolation (the default).
	InterpLinear InterpKind = "linear"
	// InterpAkima is the Akima cubic spline.
	InterpAkima InterpKind = "akima"
	// InterpFritschButland is a monotone cubic (PCHIP-style) spline.
	InterpFritschButland InterpKind = "fritsch-butland"
	// InterpNaturalCubic is a cubic spline with zero end curvature.
	InterpNaturalCubic InterpKind = "natural-cubic"
	// InterpNotAKnot is the not-a-knot cubic spline.
	InterpNotAKnot InterpKind = "not-a-knot"
)

var interpAliases = map[string]InterpKind{
	"linear":          InterpLinear,
	"slinear":         InterpLinear,
	"akima":           InterpAkima,
	"fritsch-butland": InterpFritschButland,
	"pchip":           InterpFritschButland,
	"natural-cubic":   InterpNaturalCubic,
	"natural":         InterpNaturalCubic,
	"not-a-knot":      InterpNotAKnot,
	"cubic":           InterpNotAKnot,
}

// ParseInterpKind resolves a kind name, accepting the scipy-style aliases
// "slinear", "pchip" and "cubic".
func ParseInterpKind(name string) (InterpKind, error) {
	kind, ok := interpAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", errors.NewValidationError("interp_kind",
			"must be one of linear, akima, fritsch-butland, natural-cubic, not-a-knot", name)
	}
	return kind, nil
}

// Valid reports whether k names a supported rule.
func (k InterpKind) Valid() bool {
	_, ok := interpAliases[string(k)]
	return ok && interpAliases[string(k)] == k
}

// minPoints is the number of distinct control points the rule needs.
func (k InterpKind) minPoints() int {
	if k == InterpNotAKnot {
		return 4
	}
	return 2
}

func (k InterpKind) newFitter() interp.FittablePredictor {
	switch k {
	case InterpAkima:
		return &interp.AkimaSpline{}
	case InterpFritschButland:
		return &interp.FritschButland{}
	case InterpNaturalCubic:
		return &interp.NaturalCubic{}
	case InterpNotAKnot:
		return &interp.NotAKnotCubic{}
	default:
		return &interp.PiecewiseLinear{}
	}
}

// extrapolator evaluates a gonum predictor inside its control points and
// extends it linearly outside them. gonum predictors hold the end value
// constant beyond the data range, which would clamp the mapping.
type extrapolator struct {
	pred       interp.Predictor
	x0, xn     float64
	y0, yn     float64
	leftSlope  float64
	rightSlope float64
}

// newExtrapolator fits kind to (xs, ys). xs must be strictly increasing
// and hold at least kind.minPoints() values.
func newExtrapolator(kind InterpKind, xs, ys []float64) (*extrapolator, error) {
	fitter := kind.newFitter()
	if err := fitter.Fit(xs, ys); err != nil {
		return nil, errors.Wrapf(err, "fitting %s interpolation", kind)
	}

	n := len(xs)
	e := &extrapolator{
		pred: fitter,
		x0:   xs[0],
		xn:   xs[n-1],
		y0:   ys[0],
		yn:   ys[n-1],
	}
	if dp, ok := fitter.(interp.DerivativePredictor); ok {
		e.leftSlope = dp.PredictDerivative(xs[0])
		e.rightSlope = dp.PredictDerivative(xs[n-1])
	} else {
		e.leftSlope = (ys[1] - ys[0]) / (xs[1] - xs[0])
		e.rightSlope = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	}
	return e, nil
}

// Predict implements interp.Predictor.
func (e *extrapolator) Predict(x float64) float64 {
	switch {
	case x < e.x0:
		return e.y0 + e.leftSlope*(x-e.x0)
	case x > e.xn:
		return e.yn + e.rightSlope*(x-e.xn)
	}
	return e.pred.Predict(x)
}
