package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/simaogato/walletflow/internal/usecase/journal"
)

const namespace = "walletflow"

// Metrics holds the service collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	rpcDuration *prometheus.HistogramVec
	operations  *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "Histogram of response latency (seconds) of gRPC methods.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "code"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Journal operations by event type and operation kind.",
		}, []string{"event", "kind"}),
	}

	m.Registry.MustRegister(
		m.rpcDuration,
		m.operations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRPC records the latency of one gRPC call
func (m *Metrics) ObserveRPC(method, code string, d time.Duration) {
	m.rpcDuration.WithLabelValues(method, code).Observe(d.Seconds())
}

// Publish counts a committed journal event. It lets Metrics sit in a
// journal.MultiPublisher next to the message broker.
func (m *Metrics) Publish(_ context.Context, event journal.Event) error {
	m.operations.WithLabelValues(string(event.Type), event.Kind).Inc()
	return nil
}
