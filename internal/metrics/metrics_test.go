package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementIssued("batch", 3)
	m.IncrementIssued("individual", 1)
	m.IncrementIssued("individual", 0)
	m.IncrementReissued()
	m.IncrementRenderFailure("batch")
	m.IncrementBookkeepingFailure("insert_receipt")
	m.ObserveRender(10 * time.Millisecond)
	m.ObserveBatch(time.Second, 3)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReceiptsIssued.WithLabelValues("batch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReceiptsIssued.WithLabelValues("individual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReceiptsReissued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RenderFailures.WithLabelValues("batch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookkeepingFailures.WithLabelValues("insert_receipt")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BatchSize))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementIssued("batch", 1)
		m.IncrementReissued()
		m.IncrementRenderFailure("batch")
		m.IncrementBookkeepingFailure("x")
		m.ObserveRender(time.Millisecond)
		m.ObserveBatch(time.Millisecond, 1)
	})
}
