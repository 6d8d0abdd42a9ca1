package drift

import (
	"math"
	"sync"
)

// ADWIN is the adaptive windowing detector of Bifet and Gavaldà (2007).
// It keeps a window of recent values in exponentially growing buckets and
// drops the older part of the window whenever the means of the two parts
// differ by more than a Hoeffding bound. Values are expected in [0, 1].
type ADWIN struct {
	delta      float64
	maxBuckets int
	minWindow  int

	buckets []bucket
	sum     float64
	count   int

	mu sync.Mutex
}

// bucket summarizes count consecutive values.
type bucket struct {
	sum   float64
	count int
}

// ADWINOption configures an ADWIN.
type ADWINOption func(*ADWIN)

// WithADWINDelta sets the confidence parameter. Smaller values make the
// detector less sensitive.
func WithADWINDelta(delta float64) ADWINOption {
	return func(a *ADWIN) {
		a.delta = delta
	}
}

// WithADWINMaxBuckets bounds the number of buckets, and so the memory.
func WithADWINMaxBuckets(n int) ADWINOption {
	return func(a *ADWIN) {
		a.maxBuckets = n
	}
}

// WithADWINMinWindow sets the smallest sub-window compared.
func WithADWINMinWindow(n int) ADWINOption {
	return func(a *ADWIN) {
		a.minWindow = n
	}
}

// NewADWIN creates a detector with delta 0.002.
func NewADWIN(options ...ADWINOption) *ADWIN {
	a := &ADWIN{
		delta:      0.002,
		maxBuckets: 64,
		minWindow:  16,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Update adds value to the window and reports whether drift was
// detected, in which case the window now holds only the recent part.
func (a *ADWIN) Update(value float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.buckets = append(a.buckets, bucket{sum: value, count: 1})
	a.sum += value
	a.count++

	// Merge equal-sized neighbours so bucket sizes are powers of two,
	// strictly decreasing from oldest to newest.
	for i := len(a.buckets) - 1; i > 0 && a.buckets[i-1].count == a.buckets[i].count; i-- {
		a.buckets[i-1].sum += a.buckets[i].sum
		a.buckets[i-1].count += a.buckets[i].count
		a.buckets = a.buckets[:i]
	}
	if len(a.buckets) > a.maxBuckets {
		a.sum -= a.buckets[0].sum
		a.count -= a.buckets[0].count
		a.buckets = a.buckets[1:]
	}

	return a.detect()
}

func (a *ADWIN) detect() bool {
	if a.count < 2*a.minWindow {
		return false
	}

	sum0, n0 := 0.0, 0
	for i := 0; i < len(a.buckets)-1; i++ {
		sum0 += a.buckets[i].sum
		n0 += a.buckets[i].count
		n1 := a.count - n0
		if n0 < a.minWindow || n1 < a.minWindow {
			continue
		}

		mean0 := sum0 / float64(n0)
		mean1 := (a.sum - sum0) / float64(n1)
		if math.Abs(mean0-mean1) > a.bound(n0, n1) {
			a.buckets = append([]bucket(nil), a.buckets[i+1:]...)
			a.sum -= sum0
			a.count = n1
			return true
		}
	}
	return false
}

// bound is the Hoeffding bound for sub-windows of n0 and n1 values.
func (a *ADWIN) bound(n0, n1 int) float64 {
	m := 1/float64(n0) + 1/float64(n1)
	return math.Sqrt(0.5 * m * math.Log(2/a.delta))
}

// Mean returns the mean of the current window.
func (a *ADWIN) Mean() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// Width returns the number of values in the current window.
func (a *ADWIN) Width() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Reset empties the window.
func (a *ADWIN) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buckets = nil
	a.sum = 0
	a.count = 0
}
