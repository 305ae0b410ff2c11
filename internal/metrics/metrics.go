package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for receipt generation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Receipts written, by type
	ReceiptsIssued *prometheus.CounterVec

	// Existing receipts rendered again for the same order
	ReceiptsReissued prometheus.Counter

	// Per-order document failures, by type
	RenderFailures *prometheus.CounterVec

	// Receipt/order writes that failed, by operation
	BookkeepingFailures *prometheus.CounterVec

	RenderLatency prometheus.Histogram
	BatchLatency  prometheus.Histogram
	BatchSize     prometheus.Histogram
}

// New registers all receipt metrics on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReceiptsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_receipts_issued_total",
			Help: "Total receipts issued by type",
		}, []string{"type"}), // type: "individual", "batch"

		ReceiptsReissued: factory.NewCounter(prometheus.CounterOpts{
			Name: "foodbridge_receipts_reissued_total",
			Help: "Total single receipt requests served from an existing receipt",
		}),

		RenderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_receipt_render_failures_total",
			Help: "Total receipt documents that failed to render",
		}, []string{"type"}),

		BookkeepingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_receipt_bookkeeping_failures_total",
			Help: "Total failed receipt/order writes by operation",
		}, []string{"operation"}),

		RenderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodbridge_receipt_render_duration_seconds",
			Help:    "Duration of rendering one receipt document",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodbridge_receipt_batch_duration_seconds",
			Help:    "Duration of a full batch run including packaging",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodbridge_receipt_batch_orders",
			Help:    "Number of eligible orders per batch run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// IncrementIssued records n receipts of the given type.
func (m *Metrics) IncrementIssued(receiptType string, n int) {
	if m != nil && n > 0 {
		m.ReceiptsIssued.WithLabelValues(receiptType).Add(float64(n))
	}
}

func (m *Metrics) IncrementReissued() {
	if m != nil {
		m.ReceiptsReissued.Inc()
	}
}

func (m *Metrics) IncrementRenderFailure(receiptType string) {
	if m != nil {
		m.RenderFailures.WithLabelValues(receiptType).Inc()
	}
}

func (m *Metrics) IncrementBookkeepingFailure(operation string) {
	if m != nil {
		m.BookkeepingFailures.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) ObserveRender(d time.Duration) {
	if m != nil {
		m.RenderLatency.Observe(d.Seconds())
	}
}

// ObserveBatch records the duration and order count of a batch run.
func (m *Metrics) ObserveBatch(d time.Duration, orders int) {
	if m != nil {
		m.BatchLatency.Observe(d.Seconds())
		m.BatchSize.Observe(float64(orders))
	}
}
