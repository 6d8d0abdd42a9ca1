// Package performance streams datasets that do not fit in memory through
// a fitted transformer, one row chunk at a time.
package performance

import (
	"context"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gaussrank/core/model"
	"github.com/YuminosukeSato/gaussrank/core/parallel"
	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
)

// RowSource yields rows one at a time and returns io.EOF after the last.
// The returned slice may be reused by the next call.
type RowSource interface {
	Next() ([]float64, error)
}

// RowSink consumes rows in order.
type RowSink interface {
	Write(row []float64) error
}

// ChunkFunc transforms one chunk. It may return chunk itself.
type ChunkFunc func(chunk *mat.Dense) (mat.Matrix, error)

// ProcessStats summarizes a finished Process call.
type ProcessStats struct {
	Rows     int
	Chunks   int
	Duration time.Duration
}

// ChunkedProcessor reads rows into fixed-size chunks, transforms up to
// nJobs chunks concurrently and writes results in input order.
type ChunkedProcessor struct {
	chunkSize int
	nJobs     int
	pool      *MatrixPool
	logger    log.Logger
}

// DefaultChunkSize is used when NewChunkedProcessor gets a non-positive size.
const DefaultChunkSize = 10000

// NewChunkedProcessor creates a processor. nJobs follows the joblib
// convention of parallel.ResolveWorkers.
func NewChunkedProcessor(chunkSize, nJobs int) *ChunkedProcessor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkedProcessor{
		chunkSize: chunkSize,
		nJobs:     nJobs,
		pool:      NewMatrixPool(),
		logger:    log.GetLogger().With(log.ComponentKey, "performance"),
	}
}

// PoolStats reports chunk buffer reuse.
func (c *ChunkedProcessor) PoolStats() PoolStats {
	return c.pool.GetStats()
}

// Process streams src through fn into dst. Every row must have the
// width of the first row. Process stops at the first error and between
// batches when ctx is cancelled.
func (c *ChunkedProcessor) Process(ctx context.Context, src RowSource, dst RowSink, fn ChunkFunc) (ProcessStats, error) {
	start := time.Now()
	var stats ProcessStats
	workers := parallel.ResolveWorkers(c.nJobs)
	width, read := -1, 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		batch, eof, err := c.readBatch(src, workers, &width, &read)
		if err != nil {
			c.release(batch)
			return stats, err
		}
		if len(batch) == 0 {
			break
		}

		results, err := parallel.Map(len(batch), workers, func(i int) (mat.Matrix, error) {
			return fn(batch[i])
		})
		if err != nil {
			c.release(batch)
			return stats, errors.Wrapf(err, "chunk %d", stats.Chunks)
		}

		for _, res := range results {
			r, _ := res.Dims()
			for i := 0; i < r; i++ {
				if err := dst.Write(mat.Row(nil, i, res)); err != nil {
					c.release(batch)
					return stats, errors.Wrapf(err, "failed to write row %d", stats.Rows)
				}
				stats.Rows++
			}
			stats.Chunks++
		}
		c.release(batch)
		if eof {
			break
		}
	}

	stats.Duration = time.Since(start)
	c.logger.Debug("chunked processing completed",
		log.SamplesKey, stats.Rows,
		log.BatchSizeKey, c.chunkSize,
		log.WorkersKey, workers,
		log.DurationMsKey, stats.Duration.Milliseconds(),
	)
	return stats, nil
}

// readBatch reads up to n chunks and reports whether src is exhausted.
func (c *ChunkedProcessor) readBatch(src RowSource, n int, width, read *int) (batch []*mat.Dense, eof bool, err error) {
	buf := make([][]float64, 0, c.chunkSize)
	for len(batch) < n && !eof {
		buf = buf[:0]
		for len(buf) < c.chunkSize {
			row, err := src.Next()
			if errors.Is(err, io.EOF) {
				eof = true
				break
			}
			if err != nil {
				return batch, false, err
			}
			if *width < 0 {
				*width = len(row)
			}
			if *width == 0 {
				return batch, false, errors.NewModelError("ChunkedProcessor.Process", "empty row", errors.ErrEmptyData)
			}
			if len(row) != *width {
				return batch, false, errors.Mark(
					errors.NewElementValidationError("rows", "inconsistent row width", len(row), *read, min(len(row), *width)),
					errors.ErrRaggedRows)
			}
			buf = append(buf, append([]float64(nil), row...))
			*read++
		}
		if len(buf) > 0 {
			chunk := c.pool.Get(len(buf), *width)
			for i, row := range buf {
				chunk.SetRow(i, row)
			}
			batch = append(batch, chunk)
		}
	}
	return batch, eof, nil
}

func (c *ChunkedProcessor) release(batch []*mat.Dense) {
	for _, m := range batch {
		c.pool.Put(m)
	}
}

// TransformChunks streams src through t.Transform.
func (c *ChunkedProcessor) TransformChunks(ctx context.Context, t model.Transformer, src RowSource, dst RowSink) (ProcessStats, error) {
	return c.Process(ctx, src, dst, func(chunk *mat.Dense) (mat.Matrix, error) {
		return t.Transform(chunk)
	})
}

// InverseTransformChunks streams src through t.InverseTransform.
func (c *ChunkedProcessor) InverseTransformChunks(ctx context.Context, t model.InverseTransformer, src RowSource, dst RowSink) (ProcessStats, error) {
	return c.Process(ctx, src, dst, func(chunk *mat.Dense) (mat.Matrix, error) {
		return t.InverseTransform(chunk)
	})
}
