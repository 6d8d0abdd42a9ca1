package drift

import (
	"math"
	"sync"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
	"github.com/YuminosukeSato/gaussrank/preprocessing"
)

// Event is the outcome of observing one row.
type Event struct {
	// Row is the 0-based index of the row in the stream.
	Row int
	// OutOfRange lists the features whose value lies outside the fitted
	// range.
	OutOfRange []int
	// RangeWarning and RangeDrift report the DDM state of the
	// out-of-range rate.
	RangeWarning bool
	RangeDrift   bool
	// Shifted lists the features whose mean percentile drifted.
	Shifted []int
}

// Any reports whether the event signals drift of either kind.
func (e Event) Any() bool {
	return e.RangeDrift || len(e.Shifted) > 0
}

// Summary counts what a Monitor has seen so far.
type Summary struct {
	Rows           int   `json:"rows"`
	OutOfRangeRows int   `json:"out_of_range_rows"`
	RangeDrifts    int   `json:"range_drifts"`
	ShiftDrifts    []int `json:"shift_drifts"`
}

// Monitor watches raw rows against the mappings of a fitted scaler.
// It is safe for concurrent use, but events are only meaningful when rows
// arrive in stream order.
type Monitor struct {
	mappings []*preprocessing.FeatureMapping
	ddm      *DDM
	shift    []*ADWIN // nil for constant features
	metrics  *Metrics

	mu      sync.Mutex
	summary Summary
}

// MonitorOption configures a Monitor.
type MonitorOption func(*monitorConfig)

type monitorConfig struct {
	ddm     []DDMOption
	adwin   []ADWINOption
	metrics *Metrics
}

// WithRangeDetector configures the out-of-range rate detector.
func WithRangeDetector(opts ...DDMOption) MonitorOption {
	return func(c *monitorConfig) {
		c.ddm = append(c.ddm, opts...)
	}
}

// WithShiftDetector configures the per-feature percentile detectors.
func WithShiftDetector(opts ...ADWINOption) MonitorOption {
	return func(c *monitorConfig) {
		c.adwin = append(c.adwin, opts...)
	}
}

// WithMetrics records every observation in m.
func WithMetrics(m *Metrics) MonitorOption {
	return func(c *monitorConfig) {
		c.metrics = m
	}
}

// NewMonitor creates a monitor for the fitted scaler s.
func NewMonitor(s *preprocessing.GaussRankScaler, opts ...MonitorOption) (*Monitor, error) {
	if s == nil || !s.IsFitted() {
		return nil, errors.NewNotFittedError("GaussRankScaler", "NewMonitor")
	}
	var cfg monitorConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	mappings := s.Mappings()
	m := &Monitor{
		mappings: mappings,
		ddm:      NewDDM(cfg.ddm...),
		shift:    make([]*ADWIN, len(mappings)),
		metrics:  cfg.metrics,
		summary:  Summary{ShiftDrifts: make([]int, len(mappings))},
	}
	for j, fm := range mappings {
		if !fm.Degenerate() {
			m.shift[j] = NewADWIN(cfg.adwin...)
		}
	}
	return m, nil
}

// Observe checks one raw row. The row is not retained. Rows with NaN
// or ±Inf are rejected with a ValidationError and not counted.
func (m *Monitor) Observe(row []float64) (Event, error) {
	if len(row) != len(m.mappings) {
		return Event{}, errors.NewDimensionError("Monitor.Observe", len(m.mappings), len(row), 1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := errors.CheckFiniteRow("row", row, m.summary.Rows); err != nil {
		return Event{}, err
	}

	ev := Event{Row: m.summary.Rows}
	for j, x := range row {
		fm := m.mappings[j]
		if lo, hi := fm.Range(); x < lo || x > hi {
			ev.OutOfRange = append(ev.OutOfRange, j)
		}
		if m.shift[j] != nil && m.shift[j].Update(percentile(fm, x)) {
			ev.Shifted = append(ev.Shifted, j)
			m.summary.ShiftDrifts[j]++
		}
	}

	res := m.ddm.Update(len(ev.OutOfRange) > 0)
	ev.RangeWarning = res.WarningDetected
	ev.RangeDrift = res.DriftDetected

	m.summary.Rows++
	if len(ev.OutOfRange) > 0 {
		m.summary.OutOfRangeRows++
	}
	if ev.RangeDrift {
		m.summary.RangeDrifts++
	}
	m.metrics.record(ev)
	return ev, nil
}

// Summary returns the counts so far.
func (m *Monitor) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.summary
	s.ShiftDrifts = append([]int(nil), m.summary.ShiftDrifts...)
	return s
}

// percentile maps x to [0, 1] through the fitted quantile.
func percentile(fm *preprocessing.FeatureMapping, x float64) float64 {
	q := fm.Quantile(x)
	return (math.Max(-1, math.Min(1, q)) + 1) / 2
}
