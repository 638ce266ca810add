package consensus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, metricFamilies)
}

func TestNilMetricsMethodsAreSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.rejected("stale_height")
		m.admitted()
		m.evicted()
		m.voteCast()
		m.froze()
		m.flickered()
		m.fetchIssued()
		m.setPoolHeights(3)
	})
}

func TestNewMetricsWithoutRegistererDoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		NewMetrics(nil)
	})
}
