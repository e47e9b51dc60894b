package jobs

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsRunOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("audit:record").End(nil))
	assert.Error(t, metrics.Track("audit:record").End(errors.New("sink down")))

	families, err := registry.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			key := family.GetName()
			for _, label := range metric.GetLabel() {
				key += "|" + label.GetValue()
			}
			counts[key] = metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 1.0, counts["gatekeep_jobs_total|audit:record|success"])
	assert.Equal(t, 1.0, counts["gatekeep_jobs_total|audit:record|failure"])
	assert.Equal(t, 1.0, counts["gatekeep_jobs_failures_total|audit:record"])
}

func TestTrackerEndPassesErrorThrough(t *testing.T) {
	var metrics *Metrics
	sentinel := errors.New("boom")
	assert.ErrorIs(t, metrics.Track("audit:cleanup").End(sentinel), sentinel)
}
