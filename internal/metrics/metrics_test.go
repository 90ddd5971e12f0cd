package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_OverloadUpdatesCounterAndGauge(t *testing.T) {
	m := New()
	m.Overload(42)
	m.Overload(7)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.mailboxOverloadTotal))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.mailboxLength))
}

func TestMetrics_DispatchDurationObserves(t *testing.T) {
	m := New()
	m.DispatchDuration(100 * time.Millisecond)

	count := testutil.CollectAndCount(m.dispatchDuration)
	assert.Equal(t, 1, count)
}

func TestMetrics_WorkerParkAndWakeIncrement(t *testing.T) {
	m := New()
	m.WorkerPark()
	m.WorkerPark()
	m.WorkerWake()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.workerParkTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.workerWakeTotal))
}

func TestMetrics_EndlessMarkedIncrements(t *testing.T) {
	m := New()
	m.EndlessMarked()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.watchdogEndlessTotal))
}

func TestMetrics_RegistryGathersAllCollectors(t *testing.T) {
	m := New()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)
}
