package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.CountTransition("accepted")
	m.CountTransition("conflict")
	m.CountTransition("conflict")
	m.CountSettlement("failure")

	assert.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("accepted")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(m.transitions.WithLabelValues("conflict")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.settlements.WithLabelValues("failure")), 1e-9)
}

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.CountTransition("expired")
	m.ObserveRanking(120*time.Millisecond, 40, 5)

	snap, err := m.Snapshot()
	require.NoError(t, err)

	assert.Contains(t, snap, "bloodchain_match_transitions_total")
	assert.Contains(t, snap, "bloodchain_ranking_duration_seconds")
	assert.Contains(t, snap, "bloodchain_match_offers_created_total")
}
