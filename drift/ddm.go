// Package drift detects when data streamed through a fitted
// GaussRankScaler stops resembling the data it was fitted on.
//
// Two signals are tracked. DDM watches the rate of rows holding a value
// outside the fitted range of its feature, where the scaler extrapolates.
// ADWIN watches the mean percentile of each feature, which stays near 0.5
// while the feature keeps its fitted distribution.
package drift

import (
	"math"
	"sync"
)

// DDM is the Drift Detection Method of Gama et al. (2004) applied to a
// stream of binary events. The event rate p and its standard deviation s
// are tracked; a warning is raised when p + s exceeds the lowest observed
// p_min + warningLevel*s_min and drift when it exceeds
// p_min + outControlLevel*s_min. The detector restarts after drift.
//
// The rate is Laplace-smoothed, (events+1)/(n+2), so an event-free prefix
// does not pin s_min to zero.
type DDM struct {
	minNumInstances int
	warningLevel    float64
	outControlLevel float64

	numInstances int
	numEvents    int
	rate         float64
	stdDev       float64

	minRate   float64
	minStdDev float64

	warningDetected bool
	driftDetected   bool

	mu sync.Mutex
}

// DDMResult is the outcome of one DDM update.
type DDMResult struct {
	WarningDetected bool
	DriftDetected   bool
	Rate            float64
}

// DDMStatistics is a snapshot of the detector state.
type DDMStatistics struct {
	NumInstances    int
	NumEvents       int
	Rate            float64
	StdDev          float64
	MinRate         float64
	MinStdDev       float64
	WarningDetected bool
	DriftDetected   bool
}

// DDMOption configures a DDM.
type DDMOption func(*DDM)

// WithDDMMinNumInstances sets the number of updates before detection
// starts.
func WithDDMMinNumInstances(n int) DDMOption {
	return func(d *DDM) {
		d.minNumInstances = n
	}
}

// WithDDMWarningLevel sets the warning threshold in standard deviations.
func WithDDMWarningLevel(level float64) DDMOption {
	return func(d *DDM) {
		d.warningLevel = level
	}
}

// WithDDMOutControlLevel sets the drift threshold in standard deviations.
func WithDDMOutControlLevel(level float64) DDMOption {
	return func(d *DDM) {
		d.outControlLevel = level
	}
}

// NewDDM creates a detector with a 30-update warm-up, a 2σ warning level
// and a 3σ drift level.
func NewDDM(options ...DDMOption) *DDM {
	d := &DDM{
		minNumInstances: 30,
		warningLevel:    2.0,
		outControlLevel: 3.0,
	}
	for _, opt := range options {
		opt(d)
	}
	d.reset()
	return d
}

// Update records one observation; event is true when it was anomalous.
func (d *DDM) Update(event bool) DDMResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.driftDetected = false
	d.numInstances++
	if event {
		d.numEvents++
	}

	n := float64(d.numInstances)
	d.rate = (float64(d.numEvents) + 1) / (n + 2)
	d.stdDev = math.Sqrt(d.rate * (1 - d.rate) / n)

	if d.numInstances < d.minNumInstances {
		return DDMResult{Rate: d.rate}
	}

	level := d.rate + d.stdDev
	if level < d.minRate+d.minStdDev {
		d.minRate = d.rate
		d.minStdDev = d.stdDev
	}

	result := DDMResult{Rate: d.rate}
	d.warningDetected = level > d.minRate+d.warningLevel*d.minStdDev
	result.WarningDetected = d.warningDetected

	if level > d.minRate+d.outControlLevel*d.minStdDev {
		result.DriftDetected = true
		d.reset()
		d.driftDetected = true
	}
	return result
}

// Reset clears all statistics.
func (d *DDM) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *DDM) reset() {
	d.numInstances = 0
	d.numEvents = 0
	d.rate = 0
	d.stdDev = 0
	d.minRate = math.Inf(1)
	d.minStdDev = math.Inf(1)
	d.warningDetected = false
	d.driftDetected = false
}

// Statistics returns the current detector state. DriftDetected reports
// whether the last update signalled drift.
func (d *DDM) Statistics() DDMStatistics {
	d.mu.Lock()
	defer d.mu.Unlock()

	return DDMStatistics{
		NumInstances:    d.numInstances,
		NumEvents:       d.numEvents,
		Rate:            d.rate,
		StdDev:          d.stdDev,
		MinRate:         d.minRate,
		MinStdDev:       d.minStdDev,
		WarningDetected: d.warningDetected,
		DriftDetected:   d.driftDetected,
	}
}
