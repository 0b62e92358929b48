// Package metrics exposes Prometheus instrumentation for the runtime
// core, adapted from the teacher's mdengine metrics: the same
// register-everything-up-front Metrics struct and an HTTP server serving
// /metrics + /healthz, retargeted from OHLC-pipeline counters to graph-
// engine counters (ticks, node evals, observer notifications, eval
// errors, persistence latency).
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus metric the engine emits.
type Metrics struct {
	TicksTotal        prometheus.Counter
	NodeEvalsTotal    prometheus.Counter
	NodeEvalDur       prometheus.Histogram
	ObserverNotifyTotal prometheus.Counter
	EvalErrorsTotal   *prometheus.CounterVec // labels: kind (BindingError, ClockError, WiringError, EvalError, PersistError)
	RescheduleNowTotal prometheus.Counter

	PersistWriteDur prometheus.Histogram
	PersistReplayDur prometheus.Histogram

	PushQueueDepth  prometheus.Gauge
	GraphNodeCount  prometheus.Gauge

	// Nested-container metrics
	MapOverKeysActiveChildren *prometheus.GaugeVec // labels: path
	MeshCycleDetectedTotal    prometheus.Counter
	TryExceptCaughtTotal      prometheus.Counter
}

// NewMetrics constructs and registers every metric against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_ticks_total",
			Help: "Total engine ticks processed",
		}),
		NodeEvalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_node_evals_total",
			Help: "Total node Eval calls",
		}),
		NodeEvalDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hgraph_node_eval_duration_seconds",
			Help:    "Per-node Eval latency",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		ObserverNotifyTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_observer_notifications_total",
			Help: "Total observer notifications fired",
		}),
		EvalErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hgraph_eval_errors_total",
			Help: "Eval errors by kind",
		}, []string{"kind"}),
		RescheduleNowTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_reschedule_now_total",
			Help: "Total same-tick RescheduleNow reentries",
		}),
		PersistWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hgraph_persist_write_duration_seconds",
			Help:    "internal/persist.Backend.Record latency",
			Buckets: prometheus.DefBuckets,
		}),
		PersistReplayDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hgraph_persist_replay_duration_seconds",
			Help:    "internal/persist.Backend.Replay latency",
			Buckets: prometheus.DefBuckets,
		}),
		PushQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hgraph_push_queue_depth",
			Help: "Pending events in the real-time clock's push queue",
		}),
		GraphNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hgraph_graph_node_count",
			Help: "Number of nodes in the root graph",
		}),
		MapOverKeysActiveChildren: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hgraph_map_over_keys_active_children",
			Help: "Active child graphs per map-over-keys node",
		}, []string{"path"}),
		MeshCycleDetectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_mesh_cycle_detected_total",
			Help: "Total dependency cycles detected in mesh nodes",
		}),
		TryExceptCaughtTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hgraph_try_except_caught_total",
			Help: "Total errors caught by try/except nodes",
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.NodeEvalsTotal,
		m.NodeEvalDur,
		m.ObserverNotifyTotal,
		m.EvalErrorsTotal,
		m.RescheduleNowTotal,
		m.PersistWriteDur,
		m.PersistReplayDur,
		m.PushQueueDepth,
		m.GraphNodeCount,
		m.MapOverKeysActiveChildren,
		m.MeshCycleDetectedTotal,
		m.TryExceptCaughtTotal,
	)

	return m
}

// HealthStatus tracks the embedding host's liveness signals, served at
// /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	EngineRunning bool      `json:"engine_running"`
	LastTickAt    time.Time `json:"last_tick_at"`
	PersistOK     bool      `json:"persist_ok"`
	StartedAt     time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetEngineRunning(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.EngineRunning = v
}

func (h *HealthStatus) SetLastTickAt(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTickAt = t
}

func (h *HealthStatus) SetPersistOK(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.PersistOK = v
}

func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	status := *h
	h.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !status.EngineRunning {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz, matching the
// teacher's mdengine metrics.Server shape.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
