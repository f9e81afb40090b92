package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	EventsHarvestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_harvested_total", Help: "Lifecycle events received from the feed, by event type"},
		[]string{"type"},
	)
	FramesDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "frames_dropped_total", Help: "Feed frames that failed to decode"})
	EventsDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "events_discarded_total", Help: "Records rejected by validation, by reason"},
		[]string{"reason"},
	)
	SnapshotsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "snapshots_emitted_total", Help: "Depth snapshots produced"})
	SnapshotsInvalidTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "snapshots_invalid_total", Help: "Snapshots without a mid price (one-sided book)"})
	FeedReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "WebSocket feed reconnects"})
)

// InitMetrics registers all collectors on a fresh registry.
func InitMetrics() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		EventsHarvestedTotal, FramesDroppedTotal, EventsDiscardedTotal,
		SnapshotsEmittedTotal, SnapshotsInvalidTotal, FeedReconnectsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	return reg
}

// MetricsHandler exposes the registry for the /metrics endpoint.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// PushMetrics sends the registry to a Pushgateway. Batch binaries exit
// before any scraper could reach a /metrics endpoint, so they push once on
// completion instead.
func PushMetrics(url, job string, grouping map[string]string, reg *prometheus.Registry) error {
	p := push.New(url, job).Gatherer(reg)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	return p.Push()
}
