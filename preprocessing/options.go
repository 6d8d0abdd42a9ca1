package preprocessing

import (
	"github.com/YuminosukeSato/gaussrank/pkg/log"
)

// Default hyperparameters of GaussRankScaler.
const (
	DefaultEpsilon    = 1e-4
	DefaultInterpKind = InterpLinear
	DefaultNJobs      = 1
)

// Option configures a GaussRankScaler.
type Option func(*GaussRankScaler)

// WithEpsilon sets the bound margin; quantiles stay within ±(1 - eps).
func WithEpsilon(eps float64) Option {
	return func(s *GaussRankScaler) {
		s.epsilon = eps
	}
}

// WithInterpKind sets the interpolation rule of the feature mappings.
func WithInterpKind(kind InterpKind) Option {
	return func(s *GaussRankScaler) {
		s.interpKind = kind
	}
}

// WithCopy controls whether Transform and InverseTransform copy their
// input. With false a *mat.Dense input is overwritten with the result.
func WithCopy(copy bool) Option {
	return func(s *GaussRankScaler) {
		s.copy = copy
	}
}

// WithInterpCopy controls whether FeatureMapping.Knots returns copies.
func WithInterpCopy(interpCopy bool) Option {
	return func(s *GaussRankScaler) {
		s.interpCopy = interpCopy
	}
}

// WithNJobs sets the number of features processed in parallel, with
// joblib semantics: -1 uses every CPU.
func WithNJobs(nJobs int) Option {
	return func(s *GaussRankScaler) {
		s.nJobs = nJobs
	}
}

// WithLogger sets the logger. The scaler adds its own model fields.
func WithLogger(l log.Logger) Option {
	return func(s *GaussRankScaler) {
		s.baseLogger = l
	}
}

// WithMetrics records operations into m.
func WithMetrics(m *ScalerMetrics) Option {
	return func(s *GaussRankScaler) {
		s.metrics = m
	}
}
