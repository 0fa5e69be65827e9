package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("affiliate:sync").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("affiliate:sync").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("affiliate:sync", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("affiliate:sync", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("affiliate:sync")))
}

func TestAddConversionsIgnoresEmpty(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddConversions("impact", "inserted", 3)
	m.AddConversions("impact", "inserted", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.conversions.WithLabelValues("impact", "inserted")))

	var nilMetrics *Metrics
	nilMetrics.AddConversions("impact", "inserted", 1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
