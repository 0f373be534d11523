package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncTransitionCountsByEdge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.IncTransition("pending", "confirmed", "success")
	m.IncTransition("pending", "confirmed", "success")
	m.IncTransition("pending", "ready", "invalid_transition")

	count := testutil.ToFloat64(m.transitions.WithLabelValues("pending", "confirmed", "success"))
	assert.Equal(t, float64(2), count)
	count = testutil.ToFloat64(m.transitions.WithLabelValues("pending", "ready", "invalid_transition"))
	assert.Equal(t, float64(1), count)
}

func TestEmptyLabelsNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.IncTransition("", "confirmed", "success")
	count := testutil.ToFloat64(m.transitions.WithLabelValues("unknown", "confirmed", "success"))
	assert.Equal(t, float64(1), count)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *FulfillmentMetrics
	m.IncTransition("a", "b", "success")
	m.ObserveShortages("branch", 1)
	m.ObserveReconcileDuration("branch", time.Second)

	unregistered := NewFulfillmentMetrics(nil)
	unregistered.IncTransition("a", "b", "success")
}

func TestHistogramsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFulfillmentMetrics(reg)

	m.ObserveShortages("b1", 3)
	m.ObserveReconcileDuration("b1", 50*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["reconciliation_shortage_lines"])
	assert.True(t, names["reconciliation_duration_seconds"])
}
