// Package metrics exposes prometheus counters for the gallery core.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	snapshotPushes    prometheus.Counter
	snapshotFailures  prometheus.Counter
	entriesGauge      prometheus.Gauge
	orderCommits      *prometheus.CounterVec
	orderCompactions  prometheus.Counter
	sandboxSessions   prometheus.Counter
	sandboxFramesServ prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		snapshotPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webshelf_snapshot_pushes_total",
			Help: "Store snapshot pushes applied.",
		}),
		snapshotFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webshelf_snapshot_failures_total",
			Help: "Store subscription read failures (list kept stale-but-available).",
		}),
		entriesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webshelf_entries",
			Help: "Entries in the last applied snapshot.",
		}),
		orderCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webshelf_order_commits_total",
			Help: "Bulk order commits by result.",
		}, []string{"result"}),
		orderCompactions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webshelf_order_compactions_total",
			Help: "Order index compaction passes issued.",
		}),
		sandboxSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webshelf_sandbox_sessions_total",
			Help: "Viewer sessions launched.",
		}),
		sandboxFramesServ: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webshelf_sandbox_frames_total",
			Help: "Isolated frame documents served.",
		}),
	}
	reg.MustRegister(m.snapshotPushes, m.snapshotFailures, m.entriesGauge,
		m.orderCommits, m.orderCompactions, m.sandboxSessions, m.sandboxFramesServ)
	return m
}

// NewNop returns metrics backed by an unexposed registry, for tests and
// wiring that does not care.
func NewNop() *Metrics {
	return New()
}

func (m *Metrics) SnapshotPush(entries int) {
	m.snapshotPushes.Inc()
	m.entriesGauge.Set(float64(entries))
}

func (m *Metrics) SnapshotFailure() {
	m.snapshotFailures.Inc()
}

func (m *Metrics) OrderCommit(ok bool) {
	if ok {
		m.orderCommits.WithLabelValues("success").Inc()
	} else {
		m.orderCommits.WithLabelValues("failure").Inc()
	}
}

func (m *Metrics) OrderCompaction() {
	m.orderCompactions.Inc()
}

func (m *Metrics) SessionLaunched() {
	m.sandboxSessions.Inc()
}

func (m *Metrics) FrameServed() {
	m.sandboxFramesServ.Inc()
}

// Handler serves the registry in prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
