// Package metrics holds the Prometheus collectors of the record service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics groups the record service collectors.
//
// Metrics:
//   - todo_rpc_requests_total{method,code} - RPCs handled
//   - todo_rpc_duration_seconds{method} - RPC latency
//   - todo_subscriptions_active - open change subscriptions
//   - todo_events_published_total{collection,action} - record events sent to the bus
//   - todo_events_delivered_total{collection} - record events pushed to subscribers
type Metrics struct {
	RPCRequests         *prometheus.CounterVec
	RPCDuration         *prometheus.HistogramVec
	SubscriptionsActive prometheus.Gauge
	EventsPublished     *prometheus.CounterVec
	EventsDelivered     *prometheus.CounterVec
}

// Default returns the process-wide collectors, registering them on first use.
func Default() *Metrics {
	once.Do(func() { global = New(prometheus.DefaultRegisterer) })
	return global
}

// New creates collectors registered with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPCs handled",
		}, []string{"method", "code"}),
		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "todo",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "Duration of unary RPCs in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SubscriptionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "todo",
			Name:      "subscriptions_active",
			Help:      "Number of open change subscriptions",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of record events published to the bus",
		}, []string{"collection", "action"}),
		EventsDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "todo",
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Total number of record events pushed to subscribers",
		}, []string{"collection"}),
	}
}
