package preprocessing

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/core/model"
	"github.com/YuminosukeSato/gaussrank/core/parallel"
	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
)

const modelName = "GaussRankScaler"

// GaussRankScaler maps every feature onto a standard normal distribution
// through the rank order of its values.
//
// Fit learns, per feature, a monotone mapping from the unique raw values
// to evenly spaced quantiles in [-(1-eps), 1-eps]. Transform interpolates
// that mapping and applies erfinv; InverseTransform applies erf and the
// inverse mapping. Values outside the fitted range are extrapolated
// linearly and can produce ±Inf scores.
//
// Features are independent and are processed in parallel when NJobs is
// not 1. Concurrent calls to Transform and InverseTransform on a fitted
// scaler are safe; Fit must not run concurrently with any other method.
type GaussRankScaler struct {
	state *model.StateManager

	epsilon    float64
	interpKind InterpKind
	copy       bool
	interpCopy bool
	nJobs      int

	baseLogger log.Logger
	logger     log.Logger
	metrics    *ScalerMetrics

	mappings []*FeatureMapping
}

var _ model.Estimator = (*GaussRankScaler)(nil)

// NewGaussRankScaler creates an unfitted scaler.
//
// Parameters:
//   - opts: functional options; defaults are epsilon 1e-4, linear
//     interpolation, copy true, interp copy false and n_jobs 1
//
// Example:
//
//	scaler := preprocessing.NewGaussRankScaler(preprocessing.WithNJobs(-1))
//	Z, err := scaler.FitTransform(X)
func NewGaussRankScaler(opts ...Option) *GaussRankScaler {
	s := &GaussRankScaler{
		state:      model.NewStateManager(),
		epsilon:    DefaultEpsilon,
		interpKind: DefaultInterpKind,
		copy:       true,
		nJobs:      DefaultNJobs,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initLogger()
	return s
}

func (s *GaussRankScaler) initLogger() {
	base := s.baseLogger
	if base == nil {
		base = log.GetLogger()
	}
	s.logger = base.With(
		log.ModelNameKey, modelName,
		log.ComponentKey, "preprocessing",
	)
}

// Fit learns one FeatureMapping per column of X. Any previous mappings
// are discarded, also when Fit fails.
//
// Parameters:
//   - X: training data (n_samples × n_features), finite values only
//
// Returns:
//   - error: ValidationError for bad input or hyperparameters,
//     ModelError wrapping ErrEmptyData for an empty matrix
func (s *GaussRankScaler) Fit(X mat.Matrix) (err error) {
	const op = modelName + ".Fit"
	start := time.Now()
	nFeatures := 0
	defer func() {
		s.metrics.recordOperation(log.OperationFit, start, nFeatures, err)
	}()

	s.state.Reset()
	s.mappings = nil

	if err := s.validateParams(); err != nil {
		return err
	}
	// Columns are only read, so the input is never copied here.
	Xd, err := CheckArray(op, X, false)
	if err != nil {
		return err
	}
	nSamples, c := Xd.Dims()

	builder := RankQuantileBuilder{
		Epsilon:    s.epsilon,
		Kind:       s.interpKind,
		InterpCopy: s.interpCopy,
	}
	mappings, err := parallel.Map(c, s.nJobs, func(j int) (*FeatureMapping, error) {
		return builder.Build(mat.Col(nil, j, Xd))
	})
	if err != nil {
		return errors.NewModelError(op, "failed to build feature mapping", err)
	}

	s.reportMappings(mappings)
	s.mappings = mappings
	s.state.SetFitted(c, nSamples)
	nFeatures = c

	s.logger.Debug("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, c,
		log.EpsilonKey, s.epsilon,
		log.InterpKindKey, string(s.interpKind),
		log.NJobsKey, s.nJobs,
		log.WorkersKey, parallel.ResolveWorkers(s.nJobs),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// reportMappings emits the warnings collected while building mappings.
// It runs after the parallel fan-out so warnings keep feature order.
func (s *GaussRankScaler) reportMappings(mappings []*FeatureMapping) {
	for j, m := range mappings {
		if m.Degenerate() {
			lo, _ := m.Range()
			errors.Warn(errors.NewDegenerateFeatureWarning(j, lo))
			s.metrics.recordDegenerate()
		}
		if requested, reason, ok := m.Fallback(); ok {
			errors.Warn(errors.NewInterpolationFallbackWarning(j, string(requested), string(m.Kind()), reason))
			s.metrics.recordFallback()
		}
		s.logger.Debug("feature mapping built",
			log.FeatureKey, j,
			log.UniqueKey, m.NumKnots(),
			log.InterpKindKey, string(m.Kind()),
		)
	}
}

// Transform maps X to Gaussian scores.
//
// Parameters:
//   - X: data with the number of features seen in Fit
//
// Returns:
//   - mat.Matrix: scores; X itself when copy is false and X is a *mat.Dense
//   - error: NotFittedError, DimensionError or ValidationError
func (s *GaussRankScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply(X, log.OperationTransform, "Transform", GaussianBijector.ForwardSlice)
}

// FitTransform fits the scaler on X and transforms it.
func (s *GaussRankScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps Gaussian scores back to raw values. For inputs
// produced by Transform on values seen in Fit the result reproduces the
// original values up to floating-point error.
func (s *GaussRankScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply(X, log.OperationInverseTransform, "InverseTransform", GaussianBijector.InverseSlice)
}

// apply runs fn over every column of X with the column's bijector and
// reassembles the result by column index.
func (s *GaussRankScaler) apply(
	X mat.Matrix,
	operation, method string,
	fn func(b GaussianBijector, dst, src []float64),
) (result mat.Matrix, err error) {
	op := modelName + "." + method
	start := time.Now()
	nFeatures := 0
	defer func() {
		s.metrics.recordOperation(operation, start, nFeatures, err)
	}()

	if err := s.state.RequireFitted(modelName, method); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewValidationError("X", "input must not be nil", nil)
	}
	r, c := dims(X)
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := s.state.RequireFeatures(op, c); err != nil {
		return nil, err
	}
	Xd, err := CheckArray(op, X, s.copy)
	if err != nil {
		return nil, err
	}

	// Each task writes only its own column of Xd.
	mappings := s.mappings
	err = parallel.For(c, s.nJobs, func(j int) error {
		col := mat.Col(nil, j, Xd)
		fn(NewGaussianBijector(mappings[j]), col, col)
		Xd.SetCol(j, col)
		return nil
	})
	if err != nil {
		return nil, errors.NewModelError(op, "failed to transform features", err)
	}
	nFeatures = c

	s.logger.Debug(operation+" completed",
		log.OperationKey, operation,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return Xd, nil
}

// IsFitted reports whether Fit has completed successfully.
func (s *GaussRankScaler) IsFitted() bool {
	return s.state.IsFitted()
}

// NFeaturesIn returns the number of features seen in Fit, 0 before.
func (s *GaussRankScaler) NFeaturesIn() int {
	n, _ := s.state.GetDimensions()
	return n
}

// Mapping returns the fitted mapping of feature i.
func (s *GaussRankScaler) Mapping(i int) (*FeatureMapping, error) {
	if err := s.state.RequireFitted(modelName, "Mapping"); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(s.mappings) {
		return nil, errors.NewValueError(modelName+".Mapping",
			fmt.Sprintf("feature index %d out of range [0, %d)", i, len(s.mappings)))
	}
	return s.mappings[i], nil
}

// Mappings returns all fitted mappings in column order, nil before Fit.
func (s *GaussRankScaler) Mappings() []*FeatureMapping {
	if s.mappings == nil {
		return nil
	}
	out := make([]*FeatureMapping, len(s.mappings))
	copy(out, s.mappings)
	return out
}

// GetParams returns the hyperparameters keyed by their scikit-learn names.
func (s *GaussRankScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"epsilon":     s.epsilon,
		"interp_kind": string(s.interpKind),
		"copy":        s.copy,
		"interp_copy": s.interpCopy,
		"n_jobs":      s.nJobs,
	}
}

// SetParams updates hyperparameters. Every value is checked before any
// is applied. The new values take effect at the next Fit.
func (s *GaussRankScaler) SetParams(params map[string]interface{}) error {
	next := *s
	for key, value := range params {
		switch key {
		case "epsilon":
			eps, ok := toFloat(value)
			if !ok {
				return errors.NewValidationError(key, "must be a number", value)
			}
			next.epsilon = eps
		case "interp_kind":
			var name string
			switch v := value.(type) {
			case string:
				name = v
			case InterpKind:
				name = string(v)
			default:
				return errors.NewValidationError(key, "must be a string", value)
			}
			kind, err := ParseInterpKind(name)
			if err != nil {
				return err
			}
			next.interpKind = kind
		case "copy", "interp_copy":
			b, ok := value.(bool)
			if !ok {
				return errors.NewValidationError(key, "must be a bool", value)
			}
			if key == "copy" {
				next.copy = b
			} else {
				next.interpCopy = b
			}
		case "n_jobs":
			n, ok := toInt(value)
			if !ok {
				return errors.NewValidationError(key, "must be an integer", value)
			}
			next.nJobs = n
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	if err := next.validateParams(); err != nil {
		return err
	}

	s.epsilon = next.epsilon
	s.interpKind = next.interpKind
	s.copy = next.copy
	s.interpCopy = next.interpCopy
	s.nJobs = next.nJobs
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		// JSON numbers decode as float64.
		if x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}

func (s *GaussRankScaler) validateParams() error {
	if err := errors.CheckScalar("epsilon", s.epsilon); err != nil {
		return err
	}
	if s.epsilon <= 0 || s.epsilon >= 1 {
		return errors.NewValidationError("epsilon", "must be in (0, 1)", s.epsilon)
	}
	if !s.interpKind.Valid() {
		return errors.NewValidationError("interp_kind", "unknown interpolation kind", string(s.interpKind))
	}
	return nil
}

// Clone returns an unfitted scaler with the same hyperparameters, logger
// and metrics.
func (s *GaussRankScaler) Clone() *GaussRankScaler {
	return NewGaussRankScaler(
		WithEpsilon(s.epsilon),
		WithInterpKind(s.interpKind),
		WithCopy(s.copy),
		WithInterpCopy(s.interpCopy),
		WithNJobs(s.nJobs),
		WithLogger(s.baseLogger),
		WithMetrics(s.metrics),
	)
}

// String returns a human-readable description of the scaler.
func (s *GaussRankScaler) String() string {
	params := fmt.Sprintf("epsilon=%g, interp_kind=%s, copy=%t, interp_copy=%t, n_jobs=%d",
		s.epsilon, s.interpKind, s.copy, s.interpCopy, s.nJobs)
	if !s.IsFitted() {
		return fmt.Sprintf("GaussRankScaler(%s)", params)
	}
	return fmt.Sprintf("GaussRankScaler(%s, n_features=%d)", params, s.NFeaturesIn())
}
