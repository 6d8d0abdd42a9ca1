package performance

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// MatrixPool recycles chunk matrices to reduce GC pressure while
// streaming. Matrices are reused only for the same column count.
type MatrixPool struct {
	pool     sync.Pool
	inUse    int64
	created  int64
	recycled int64
	peak     int64
}

// PoolStats tracks pool performance metrics.
type PoolStats struct {
	TotalAllocated   int64
	TotalRecycled    int64
	CurrentInUse     int64
	PeakUsage        int64
	AverageReuseRate float64
}

// NewMatrixPool creates an empty pool.
func NewMatrixPool() *MatrixPool {
	mp := &MatrixPool{}
	mp.pool.New = func() interface{} {
		atomic.AddInt64(&mp.created, 1)
		return &mat.Dense{}
	}
	return mp
}

// Get returns a zeroed rows×cols matrix.
func (mp *MatrixPool) Get(rows, cols int) *mat.Dense {
	current := atomic.AddInt64(&mp.inUse, 1)
	for {
		peak := atomic.LoadInt64(&mp.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&mp.peak, peak, current) {
			break
		}
	}

	m := mp.pool.Get().(*mat.Dense)
	m.ReuseAs(rows, cols)
	return m
}

// Put returns m to the pool. m must not be used afterwards.
func (mp *MatrixPool) Put(m *mat.Dense) {
	if m == nil {
		return
	}
	atomic.AddInt64(&mp.inUse, -1)
	atomic.AddInt64(&mp.recycled, 1)
	m.Reset()
	mp.pool.Put(m)
}

// GetStats returns current pool statistics.
func (mp *MatrixPool) GetStats() PoolStats {
	total := atomic.LoadInt64(&mp.created)
	recycled := atomic.LoadInt64(&mp.recycled)

	reuseRate := float64(0)
	if total > 0 {
		reuseRate = float64(recycled) / float64(total)
	}

	return PoolStats{
		TotalAllocated:   total,
		TotalRecycled:    recycled,
		CurrentInUse:     atomic.LoadInt64(&mp.inUse),
		PeakUsage:        atomic.LoadInt64(&mp.peak),
		AverageReuseRate: reuseRate,
	}
}
