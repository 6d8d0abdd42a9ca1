package preprocessing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
)

// ScalerMetrics contains Prometheus metrics for scaler operations.
// A nil *ScalerMetrics records nothing.
type ScalerMetrics struct {
	operationsTotal    *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec
	featuresProcessed  *prometheus.CounterVec
	degenerateFeatures prometheus.Counter
	interpFallbacks    prometheus.Counter
}

var scalerOperations = []string{
	log.OperationFit,
	log.OperationTransform,
	log.OperationInverseTransform,
}

// NewScalerMetrics creates unregistered scaler metrics under namespace.
func NewScalerMetrics(namespace string) *ScalerMetrics {
	return &ScalerMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "operations_total",
				Help:      "Total number of scaler operations",
			},
			[]string{"operation", "result"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "operation_duration_seconds",
				Help:      "Duration of scaler operations in seconds",
				Buckets: []float64{
					.0001, .0005, .001, .005,
					.01, .05, .1, .5, 1, 5,
				},
			},
			[]string{"operation"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "errors_total",
				Help:      "Total number of failed scaler operations",
			},
			[]string{"operation", "error_type"},
		),
		featuresProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "features_processed_total",
				Help:      "Total number of feature columns processed",
			},
			[]string{"operation"},
		),
		degenerateFeatures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "degenerate_features_total",
				Help:      "Total number of fitted features with a single distinct value",
			},
		),
		interpFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scaler",
				Name:      "interpolation_fallbacks_total",
				Help:      "Total number of features fitted with linear instead of the requested interpolation",
			},
		),
	}
}

// MustRegister registers all scaler collectors with registry.
func (m *ScalerMetrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
		m.featuresProcessed,
		m.degenerateFeatures,
		m.interpFallbacks,
	)
}

// Init pre-initializes label combinations so every series is exported
// before its first observation.
func (m *ScalerMetrics) Init() {
	for _, op := range scalerOperations {
		for _, result := range []string{"success", "error"} {
			m.operationsTotal.WithLabelValues(op, result)
		}
		m.operationDuration.WithLabelValues(op)
		m.featuresProcessed.WithLabelValues(op)
	}
}

// recordOperation records one finished operation over features columns.
func (m *ScalerMetrics) recordOperation(op string, start time.Time, features int, err error) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.operationsTotal.WithLabelValues(op, "error").Inc()
		m.errorsTotal.WithLabelValues(op, errorType(err)).Inc()
		return
	}
	m.operationsTotal.WithLabelValues(op, "success").Inc()
	m.featuresProcessed.WithLabelValues(op).Add(float64(features))
}

func (m *ScalerMetrics) recordDegenerate() {
	if m != nil {
		m.degenerateFeatures.Inc()
	}
}

func (m *ScalerMetrics) recordFallback() {
	if m != nil {
		m.interpFallbacks.Inc()
	}
}

// errorType classifies err for the error_type label.
func errorType(err error) string {
	var (
		notFitted  *errors.NotFittedError
		dimension  *errors.DimensionError
		validation *errors.ValidationError
	)
	switch {
	case errors.As(err, &notFitted):
		return "not_fitted"
	case errors.As(err, &dimension):
		return "dimension"
	case errors.As(err, &validation):
		return "validation"
	case errors.Is(err, errors.ErrEmptyData):
		return "empty_data"
	default:
		return "general"
	}
}
