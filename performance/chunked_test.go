package performance

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

type sliceSource struct {
	rows [][]float64
	pos  int
}

func (s *sliceSource) Next() ([]float64, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

type sliceSink struct {
	rows [][]float64
}

func (s *sliceSink) Write(row []float64) error {
	s.rows = append(s.rows, append([]float64(nil), row...))
	return nil
}

func makeRows(n, c int) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = float64((i*7+j*3)%n) + float64(j)*0.25
		}
	}
	return rows
}

func TestChunkedProcessor_PreservesOrder(t *testing.T) {
	rows := makeRows(103, 2)

	for _, nJobs := range []int{1, 4} {
		proc := NewChunkedProcessor(10, nJobs)
		sink := &sliceSink{}

		stats, err := proc.Process(context.Background(), &sliceSource{rows: rows}, sink,
			func(chunk *mat.Dense) (mat.Matrix, error) {
				chunk.Scale(2, chunk)
				return chunk, nil
			})
		require.NoError(t, err)

		assert.Equal(t, 103, stats.Rows)
		assert.Equal(t, 11, stats.Chunks)
		require.Len(t, sink.rows, 103)
		for i := range rows {
			assert.Equal(t, 2*rows[i][0], sink.rows[i][0], "row %d", i)
			assert.Equal(t, 2*rows[i][1], sink.rows[i][1], "row %d", i)
		}

		pool := proc.PoolStats()
		assert.Equal(t, int64(0), pool.CurrentInUse)
		assert.Equal(t, int64(11), pool.TotalRecycled)
	}
}

func TestChunkedProcessor_MatchesInMemoryTransform(t *testing.T) {
	rows := makeRows(500, 3)
	X, err := preprocessing.FromRows(rows)
	require.NoError(t, err)

	scaler := preprocessing.NewGaussRankScaler()
	want, err := scaler.FitTransform(X)
	require.NoError(t, err)

	sink := &sliceSink{}
	proc := NewChunkedProcessor(64, -1)
	_, err = proc.TransformChunks(context.Background(), scaler, &sliceSource{rows: rows}, sink)
	require.NoError(t, err)

	got, err := preprocessing.FromRows(sink.rows)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	back := &sliceSink{}
	_, err = proc.InverseTransformChunks(context.Background(), scaler, &sliceSource{rows: sink.rows}, back)
	require.NoError(t, err)
	for i := range rows {
		for j := range rows[i] {
			assert.InDelta(t, rows[i][j], back.rows[i][j], 1e-9)
		}
	}
}

func TestChunkedProcessor_Errors(t *testing.T) {
	identity := func(chunk *mat.Dense) (mat.Matrix, error) { return chunk, nil }

	t.Run("ragged", func(t *testing.T) {
		rows := [][]float64{{1, 2}, {3, 4}, {5}}
		_, err := NewChunkedProcessor(2, 1).Process(context.Background(), &sliceSource{rows: rows}, &sliceSink{}, identity)
		assert.True(t, errors.Is(err, errors.ErrRaggedRows))
		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, 2, valErr.Row)
	})

	t.Run("transform failure", func(t *testing.T) {
		scaler := preprocessing.NewGaussRankScaler()
		_, err := NewChunkedProcessor(2, 2).TransformChunks(context.Background(), scaler,
			&sliceSource{rows: makeRows(5, 1)}, &sliceSink{})
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewChunkedProcessor(2, 1).Process(ctx, &sliceSource{rows: makeRows(5, 1)}, &sliceSink{}, identity)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty source", func(t *testing.T) {
		stats, err := NewChunkedProcessor(0, 1).Process(context.Background(), &sliceSource{}, &sliceSink{}, identity)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Rows)
	})
}

func TestMatrixPool(t *testing.T) {
	pool := NewMatrixPool()

	m := pool.Get(3, 2)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	m.Set(0, 0, 5)
	pool.Put(m)

	m2 := pool.Get(2, 2)
	assert.Equal(t, 0.0, m2.At(0, 0))
	pool.Put(m2)

	stats := pool.GetStats()
	assert.Equal(t, int64(2), stats.TotalRecycled)
	assert.Equal(t, int64(0), stats.CurrentInUse)
	assert.Equal(t, int64(1), stats.PeakUsage)
}
