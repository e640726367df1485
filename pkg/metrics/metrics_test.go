package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncBooking("create", OutcomeConfirmed)
		m.ObserveLockAcquire("memory", "acquired", time.Millisecond)
		m.ObserveHTTP("/x", "GET", "200", time.Millisecond)
		m.SetDBPool(1, 1)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := New("shuttle-test", prometheus.NewRegistry())

	m.IncBooking("create", OutcomeConfirmed)
	m.IncBooking("create", OutcomeConfirmed)
	m.IncBooking("create", OutcomeWaitlisted)
	m.ObserveLockAcquire("redis", "busy", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingOperationsTotal.WithLabelValues("create", OutcomeConfirmed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingOperationsTotal.WithLabelValues("create", OutcomeWaitlisted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LockAcquireTotal.WithLabelValues("redis", "busy")))
}
