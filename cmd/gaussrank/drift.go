package main

import (
	"github.com/YuminosukeSato/gaussrank/drift"
	"github.com/YuminosukeSato/gaussrank/performance"
	"github.com/YuminosukeSato/gaussrank/pkg/log"
)

// monitoredSource checks every row against the fitted ranges before it
// is transformed and logs drift as it is detected.
type monitoredSource struct {
	src     performance.RowSource
	monitor *drift.Monitor
	log     log.Logger
}

func (m *monitoredSource) Next() ([]float64, error) {
	row, err := m.src.Next()
	if err != nil {
		return nil, err
	}
	ev, err := m.monitor.Observe(row)
	if err != nil {
		return nil, err
	}
	if ev.RangeDrift {
		m.log.Warn("out-of-range rate drifted", "row", ev.Row, "features", ev.OutOfRange)
	}
	for _, j := range ev.Shifted {
		m.log.Warn("feature distribution shifted", log.FeatureKey, j, "row", ev.Row)
	}
	return row, nil
}
