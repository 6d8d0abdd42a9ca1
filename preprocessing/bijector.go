package preprocessing

import (
	"math"
)

// GaussianBijector converts between raw values of one feature and
// standard normal scores through a fitted FeatureMapping.
type GaussianBijector struct {
	mapping *FeatureMapping
}

// NewGaussianBijector wraps a fitted mapping.
func NewGaussianBijector(m *FeatureMapping) GaussianBijector {
	return GaussianBijector{mapping: m}
}

// Forward returns erfinv(q(x)). Quantiles extrapolated to 1 or beyond
// give +Inf, to -1 or beyond give -Inf.
func (b GaussianBijector) Forward(x float64) float64 {
	return erfinv(b.mapping.Quantile(x))
}

// Inverse returns the raw value whose quantile is erf(z).
func (b GaussianBijector) Inverse(z float64) float64 {
	return b.mapping.Value(math.Erf(z))
}

// ForwardSlice applies Forward to src, writing into dst. dst and src may
// be the same slice.
func (b GaussianBijector) ForwardSlice(dst, src []float64) {
	for i, v := range src {
		dst[i] = b.Forward(v)
	}
}

// InverseSlice applies Inverse to src, writing into dst. dst and src may
// be the same slice.
func (b GaussianBijector) InverseSlice(dst, src []float64) {
	for i, v := range src {
		dst[i] = b.Inverse(v)
	}
}

// erfinv is math.Erfinv with the domain edges mapped to infinities
// instead of NaN.
func erfinv(q float64) float64 {
	switch {
	case q >= 1:
		return math.Inf(1)
	case q <= -1:
		return math.Inf(-1)
	}
	return math.Erfinv(q)
}
