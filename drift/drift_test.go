package drift

import (
	"math"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

func TestDDM_Stationary(t *testing.T) {
	d := NewDDM()
	for i := 0; i < 1000; i++ {
		res := d.Update(false)
		require.False(t, res.WarningDetected, "update %d", i)
		require.False(t, res.DriftDetected, "update %d", i)
	}
	stats := d.Statistics()
	assert.Equal(t, 1000, stats.NumInstances)
	assert.Zero(t, stats.NumEvents)
	assert.InDelta(t, 1.0/1002, stats.Rate, 1e-12)
}

func TestDDM_DetectsRateIncrease(t *testing.T) {
	d := NewDDM()
	for i := 0; i < 500; i++ {
		d.Update(false)
	}

	detected := -1
	for i := 0; i < 20; i++ {
		if d.Update(true).DriftDetected {
			detected = i
			break
		}
	}
	require.GreaterOrEqual(t, detected, 0, "drift not detected")

	stats := d.Statistics()
	assert.True(t, stats.DriftDetected)
	assert.Zero(t, stats.NumInstances, "detector restarts after drift")

	d.Update(false)
	assert.False(t, d.Statistics().DriftDetected)
}

func TestDDM_WarmUp(t *testing.T) {
	d := NewDDM(WithDDMMinNumInstances(10), WithDDMWarningLevel(1), WithDDMOutControlLevel(2))
	for i := 0; i < 9; i++ {
		res := d.Update(true)
		assert.False(t, res.WarningDetected || res.DriftDetected)
	}

	d.Reset()
	assert.Zero(t, d.Statistics().NumInstances)
}

// alternating yields n values alternating between lo and hi.
func alternating(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo
		if i%2 == 1 {
			out[i] = hi
		}
	}
	return out
}

func TestADWIN_Stationary(t *testing.T) {
	a := NewADWIN()
	for i, v := range alternating(2000, 0.4, 0.6) {
		require.False(t, a.Update(v), "update %d", i)
	}
	assert.Equal(t, 2000, a.Width())
	assert.InDelta(t, 0.5, a.Mean(), 1e-9)
}

func TestADWIN_DetectsShift(t *testing.T) {
	a := NewADWIN()
	for _, v := range alternating(1024, 0.4, 0.6) {
		a.Update(v)
	}

	detected := -1
	for i, v := range alternating(100, 0.9, 1.0) {
		if a.Update(v) {
			detected = i
			break
		}
	}
	require.GreaterOrEqual(t, detected, 0, "shift not detected")
	assert.Less(t, a.Width(), 1024, "old values dropped")
	assert.Greater(t, a.Mean(), 0.8)

	a.Reset()
	assert.Zero(t, a.Width())
	assert.Zero(t, a.Mean())
}

func fitScaler(t *testing.T, X mat.Matrix) *preprocessing.GaussRankScaler {
	t.Helper()
	s := preprocessing.NewGaussRankScaler()
	require.NoError(t, s.Fit(X))
	return s
}

func TestMonitor_OutOfRange(t *testing.T) {
	X := mat.NewDense(100, 2, nil)
	for i := 0; i < 100; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64((i*37)%100))
	}
	m, err := NewMonitor(fitScaler(t, X))
	require.NoError(t, err)

	ev, err := m.Observe([]float64{150, 50})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, ev.OutOfRange)

	ev, err = m.Observe([]float64{50, -1})
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Row)
	assert.Equal(t, []int{1}, ev.OutOfRange)

	ev, err = m.Observe([]float64{0, 99})
	require.NoError(t, err)
	assert.Empty(t, ev.OutOfRange, "fitted extremes are in range")

	_, err = m.Observe([]float64{1, 2, 3})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	s := m.Summary()
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 2, s.OutOfRangeRows)
}

func TestMonitor_RejectsNonFinite(t *testing.T) {
	X := mat.NewDense(200, 2, nil)
	for i := 0; i < 200; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(199-i))
	}
	m, err := NewMonitor(fitScaler(t, X))
	require.NoError(t, err)

	_, err = m.Observe([]float64{10, 20})
	require.NoError(t, err)

	tests := []struct {
		name string
		row  []float64
		col  int
	}{
		{"NaN", []float64{math.NaN(), 5}, 0},
		{"+Inf", []float64{5, math.Inf(1)}, 1},
		{"-Inf", []float64{math.Inf(-1), 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Observe(tt.row)
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, 1, valErr.Row)
			assert.Equal(t, tt.col, valErr.Col)
		})
	}

	s := m.Summary()
	assert.Equal(t, 1, s.Rows, "rejected rows are not counted")
	assert.Zero(t, s.OutOfRangeRows)
}

func TestMonitor_RangeDrift(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X := mat.NewDense(500, 1, nil)
	for i := 0; i < 500; i++ {
		X.Set(i, 0, rng.Float64())
	}

	metrics := NewMetrics("test")
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	metrics.Init()

	m, err := NewMonitor(fitScaler(t, X), WithMetrics(metrics))
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		ev, err := m.Observe([]float64{X.At(i, 0)})
		require.NoError(t, err)
		require.False(t, ev.RangeDrift)
	}

	var drifted bool
	for i := 0; i < 20 && !drifted; i++ {
		ev, err := m.Observe([]float64{2 + float64(i)})
		require.NoError(t, err)
		drifted = ev.RangeDrift
	}
	require.True(t, drifted)
	assert.Equal(t, 1, m.Summary().RangeDrifts)
	assert.True(t, Event{RangeDrift: true}.Any())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.driftsTotal.WithLabelValues("range")))
	assert.Equal(t, float64(m.Summary().Rows), testutil.ToFloat64(metrics.rowsObserved))
	assert.Equal(t, float64(m.Summary().OutOfRangeRows), testutil.ToFloat64(metrics.outOfRangeTotal.WithLabelValues("0")))
}

func TestMonitor_SortedStreamShifts(t *testing.T) {
	X := mat.NewDense(1000, 2, nil)
	for i := 0; i < 1000; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, 5)
	}
	m, err := NewMonitor(fitScaler(t, X))
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		ev, err := m.Observe([]float64{float64(i), 5})
		require.NoError(t, err)
		assert.NotContains(t, ev.Shifted, 1, "constant features are not shift-monitored")
	}
	s := m.Summary()
	assert.Positive(t, s.ShiftDrifts[0], "an ascending stream drifts upwards")
	assert.Zero(t, s.ShiftDrifts[1])
	assert.Zero(t, s.OutOfRangeRows)
}

func TestNewMonitor_NotFitted(t *testing.T) {
	_, err := NewMonitor(preprocessing.NewGaussRankScaler())
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = NewMonitor(nil)
	assert.Error(t, err)
}
