package diagnostics

import (
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

func fittedScaler(t *testing.T) *preprocessing.GaussRankScaler {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	X := mat.NewDense(200, 2, nil)
	for i := 0; i < 200; i++ {
		X.Set(i, 0, rng.ExpFloat64())
		X.Set(i, 1, 3)
	}
	scaler := preprocessing.NewGaussRankScaler()
	require.NoError(t, scaler.Fit(X))
	return scaler
}

func TestMappingPlot(t *testing.T) {
	scaler := fittedScaler(t)

	for j := 0; j < 2; j++ {
		m, err := scaler.Mapping(j)
		require.NoError(t, err)

		p, err := MappingPlot(m, "feature")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteTo(p, &buf, "svg"))
		assert.Contains(t, buf.String(), "<svg")
	}

	_, err := MappingPlot(nil, "nil")
	assert.Error(t, err)
}

func TestScoreHistogram(t *testing.T) {
	scaler := fittedScaler(t)
	X := mat.NewDense(3, 2, []float64{0.1, 3, 1, 3, 1e9, 3})
	Z, err := scaler.Transform(X)
	require.NoError(t, err)

	z := mat.Col(nil, 0, Z)
	require.True(t, math.IsInf(z[2], 1))

	p, err := ScoreHistogram(z, 10, "scores")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scores.png")
	require.NoError(t, Save(p, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestHistogram_Errors(t *testing.T) {
	_, err := Histogram([]float64{1, 2}, 0, "bins")
	assert.Error(t, err)

	_, err = Histogram([]float64{math.Inf(1)}, 5, "empty")
	assert.Error(t, err)

	p, err := Histogram([]float64{1, 2, 3}, 3, "ok")
	require.NoError(t, err)
	assert.Error(t, WriteTo(p, &bytes.Buffer{}, "bmp"))
}
