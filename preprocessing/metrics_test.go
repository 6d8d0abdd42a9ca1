package preprocessing

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestScalerMetrics_Register(t *testing.T) {
	m := NewScalerMetrics("test")
	registry := prometheus.NewRegistry()

	assert.NotPanics(t, func() {
		m.MustRegister(registry)
		m.Init()
	})

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_scaler_operations_total")
	assert.Contains(t, names, "test_scaler_operation_duration_seconds")
	assert.Contains(t, names, "test_scaler_features_processed_total")
}

func TestScalerMetrics_RecordOperations(t *testing.T) {
	warnings := captureWarnings(t)
	m := NewScalerMetrics("test")

	scaler := NewGaussRankScaler(WithMetrics(m), WithInterpKind(InterpNotAKnot))
	X := mat.NewDense(3, 2, []float64{
		1, 4,
		2, 4,
		3, 4,
	})
	_, err := scaler.FitTransform(X)
	require.NoError(t, err)

	_, err = scaler.InverseTransform(mat.NewDense(1, 3, []float64{0, 0, 0}))
	require.Error(t, err)
	err = scaler.Fit(mat.NewDense(1, 1, []float64{math.NaN()}))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("fit", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("fit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("transform", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("inverse_transform", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("inverse_transform", "dimension")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("fit", "validation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.featuresProcessed.WithLabelValues("fit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.degenerateFeatures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.interpFallbacks))

	assert.Len(t, warnings(), 2)
}

func TestScalerMetrics_NilIsNoop(t *testing.T) {
	var m *ScalerMetrics
	assert.NotPanics(t, func() {
		m.recordDegenerate()
		m.recordFallback()
	})
}
