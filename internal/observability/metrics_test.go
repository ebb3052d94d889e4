package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRealizedPnLAcceptsLosses(t *testing.T) {
	m := Default()

	// Losing trades subtract from the running total, so the collector
	// must accept negative deltas without panicking.
	m.RealizedPnL.Add(3.5)
	m.RealizedPnL.Add(-2.0)

	assert.InDelta(t, 1.5, testutil.ToFloat64(m.RealizedPnL), 1e-9)
}

func TestDefaultReturnsSameInstance(t *testing.T) {
	assert.Same(t, Default(), Default())
}
