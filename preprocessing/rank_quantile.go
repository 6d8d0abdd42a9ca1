package preprocessing

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

// RankQuantileBuilder turns one feature column into a FeatureMapping.
// The zero value is not usable; Epsilon must be in (0, 1).
type RankQuantileBuilder struct {
	// Epsilon keeps quantiles strictly inside (-1, 1): they are bounded
	// by 1 - Epsilon.
	Epsilon float64

	// Kind is the requested interpolation rule.
	Kind InterpKind

	// InterpCopy makes Knots return copies of the control points.
	InterpCopy bool
}

// Build deduplicates and sorts column, assigns each unique value its
// 0-based rank, scales ranks linearly into [-bound, bound] and fits the
// forward and inverse interpolators. column is not modified.
//
// A column with a single distinct value yields a degenerate mapping:
// the value gets quantile 0 and no rank scaling is performed.
func (b RankQuantileBuilder) Build(column []float64) (*FeatureMapping, error) {
	if len(column) == 0 {
		return nil, errors.NewModelError("RankQuantileBuilder.Build", "empty data", errors.ErrEmptyData)
	}
	if b.Epsilon <= 0 || b.Epsilon >= 1 {
		return nil, errors.NewValidationError("epsilon", "must be in (0, 1)", b.Epsilon)
	}
	kind := b.Kind
	if kind == "" {
		kind = InterpLinear
	}
	if !kind.Valid() {
		return nil, errors.NewValidationError("interp_kind", "unknown interpolation kind", string(kind))
	}

	bound := 1 - b.Epsilon
	xs := uniqueSorted(column)
	qs := rankQuantiles(len(xs), bound)
	return newFeatureMapping(xs, qs, bound, kind, b.InterpCopy)
}

// uniqueSorted returns the distinct values of x in increasing order.
func uniqueSorted(x []float64) []float64 {
	u := make([]float64, len(x))
	copy(u, x)
	sort.Float64s(u)
	return slices.Compact(u)
}

// rankQuantiles maps ranks 0..m-1 linearly onto [-bound, bound]:
// q_k = clip(k/factor - bound, -bound, bound) with factor = (m-1)/2 * bound.
// The top rank lands slightly above bound before clipping.
func rankQuantiles(m int, bound float64) []float64 {
	qs := make([]float64, m)
	if m == 1 {
		return qs
	}
	factor := float64(m-1) / 2 * bound
	for k := range qs {
		qs[k] = errors.ClipValue(float64(k)/factor-bound, -bound, bound)
	}
	return qs
}

// FeatureMapping is the fitted, immutable mapping of one feature between
// raw values and rank quantiles. It is safe for concurrent use.
type FeatureMapping struct {
	xs         []float64
	qs         []float64
	bound      float64
	requested  InterpKind
	kind       InterpKind
	fallback   string
	interpCopy bool

	forward interp.Predictor
	inverse interp.Predictor
}

// newFeatureMapping fits both interpolators over the control points
// (xs, qs). xs must be strictly increasing and qs non-decreasing.
func newFeatureMapping(xs, qs []float64, bound float64, kind InterpKind, interpCopy bool) (*FeatureMapping, error) {
	m := &FeatureMapping{
		xs:         xs,
		qs:         qs,
		bound:      bound,
		requested:  kind,
		kind:       kind,
		interpCopy: interpCopy,
	}

	if len(xs) == 1 {
		m.forward = interp.Constant(0)
		m.inverse = interp.Constant(xs[0])
		return m, nil
	}

	iq, ix := strictKnots(qs, xs)
	if n := len(iq); n < kind.minPoints() {
		m.kind = InterpLinear
		m.fallback = fmt.Sprintf("needs at least %d distinct values, got %d", kind.minPoints(), n)
	}

	err := m.fit(xs, qs, iq, ix)
	if err != nil && m.kind != InterpLinear {
		// Cubic systems can be numerically singular on valid knots, e.g.
		// when the values are of order 1e-9.
		m.fallback = fitFailureReason(err)
		m.kind = InterpLinear
		err = m.fit(xs, qs, iq, ix)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// fit builds the forward map over (xs, qs) and the inverse map over
// (iq, ix) with the mapping's current kind.
func (m *FeatureMapping) fit(xs, qs, iq, ix []float64) error {
	forward, err := newExtrapolator(m.kind, xs, qs)
	if err != nil {
		return err
	}
	inverse, err := newExtrapolator(m.kind, iq, ix)
	if err != nil {
		return err
	}
	m.forward, m.inverse = forward, inverse
	return nil
}

func fitFailureReason(err error) string {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return fmt.Sprintf("ill-conditioned system (condition number %.4g)", float64(cond))
	}
	return err.Error()
}

// strictKnots drops every point whose key equals the previous key, so
// the keys of the result are strictly increasing. Equal quantiles only
// occur at the clipped upper bound.
func strictKnots(keys, vals []float64) ([]float64, []float64) {
	k := make([]float64, 0, len(keys))
	v := make([]float64, 0, len(vals))
	for i, key := range keys {
		if i > 0 && key <= k[len(k)-1] {
			continue
		}
		k = append(k, key)
		v = append(v, vals[i])
	}
	return k, v
}

// Quantile evaluates the forward map at a raw value. Values outside the
// fitted range are extrapolated linearly and may leave [-1, 1].
func (m *FeatureMapping) Quantile(x float64) float64 {
	return m.forward.Predict(x)
}

// Value evaluates the inverse map at a quantile.
func (m *FeatureMapping) Value(q float64) float64 {
	return m.inverse.Predict(q)
}

// Knots returns the control points: the unique raw values and their
// quantiles. The slices are shared with the mapping unless it was built
// with InterpCopy, and must not be modified.
func (m *FeatureMapping) Knots() (xs, qs []float64) {
	if m.interpCopy {
		return slices.Clone(m.xs), slices.Clone(m.qs)
	}
	return m.xs, m.qs
}

// NumKnots returns the number of unique raw values seen in Fit.
func (m *FeatureMapping) NumKnots() int { return len(m.xs) }

// Bound returns 1 - epsilon.
func (m *FeatureMapping) Bound() float64 { return m.bound }

// Kind returns the interpolation rule in use, which differs from the
// requested one after a fallback.
func (m *FeatureMapping) Kind() InterpKind { return m.kind }

// Degenerate reports whether the feature had a single distinct value.
func (m *FeatureMapping) Degenerate() bool { return len(m.xs) == 1 }

// Fallback returns the requested kind and the reason it was replaced by
// linear interpolation, or ok == false when no fallback happened.
func (m *FeatureMapping) Fallback() (requested InterpKind, reason string, ok bool) {
	return m.requested, m.fallback, m.fallback != ""
}

// Range returns the smallest and largest raw value seen in Fit.
func (m *FeatureMapping) Range() (lo, hi float64) {
	return m.xs[0], m.xs[len(m.xs)-1]
}

// validateKnots checks decoded control points before a mapping is
// rebuilt from them.
func validateKnots(xs, qs []float64, bound float64) error {
	if len(xs) == 0 || len(xs) != len(qs) {
		return errors.NewValidationError("knots", "xs and qs must be non-empty and of equal length",
			fmt.Sprintf("%d/%d", len(xs), len(qs)))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(qs[i]) || math.Abs(qs[i]) > bound {
			return errors.NewElementValidationError("knots", "control point out of range", [2]float64{xs[i], qs[i]}, i, 0)
		}
		if i > 0 && (xs[i] <= xs[i-1] || qs[i] < qs[i-1]) {
			return errors.NewElementValidationError("knots", "control points must be increasing", xs[i], i, 0)
		}
	}
	return nil
}
