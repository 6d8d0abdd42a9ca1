package drift

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for a Monitor. A nil *Metrics
// records nothing.
type Metrics struct {
	rowsObserved    prometheus.Counter
	outOfRangeRows  prometheus.Counter
	outOfRangeTotal *prometheus.CounterVec
	driftsTotal     *prometheus.CounterVec
}

// NewMetrics creates unregistered drift metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		rowsObserved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "drift",
				Name:      "rows_observed_total",
				Help:      "Total number of rows checked for drift",
			},
		),
		outOfRangeRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "drift",
				Name:      "out_of_range_rows_total",
				Help:      "Total number of rows with a value outside the fitted range",
			},
		),
		outOfRangeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "drift",
				Name:      "out_of_range_values_total",
				Help:      "Total number of values outside the fitted range by feature",
			},
			[]string{"feature"},
		),
		driftsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "drift",
				Name:      "detections_total",
				Help:      "Total number of drift detections by signal",
			},
			[]string{"signal"},
		),
	}
}

// MustRegister registers all drift collectors with registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.rowsObserved,
		m.outOfRangeRows,
		m.outOfRangeTotal,
		m.driftsTotal,
	)
}

// Init pre-initializes the signal labels.
func (m *Metrics) Init() {
	for _, signal := range []string{"range", "shift"} {
		m.driftsTotal.WithLabelValues(signal)
	}
}

func (m *Metrics) record(ev Event) {
	if m == nil {
		return
	}
	m.rowsObserved.Inc()
	if len(ev.OutOfRange) > 0 {
		m.outOfRangeRows.Inc()
	}
	for _, j := range ev.OutOfRange {
		m.outOfRangeTotal.WithLabelValues(strconv.Itoa(j)).Inc()
	}
	if ev.RangeDrift {
		m.driftsTotal.WithLabelValues("range").Inc()
	}
	if n := len(ev.Shifted); n > 0 {
		m.driftsTotal.WithLabelValues("shift").Add(float64(n))
	}
}
