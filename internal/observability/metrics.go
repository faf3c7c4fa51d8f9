package observability

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/healthlog-backend/internal/platform/envutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

// Metrics holds the process-wide counters exposed on /metrics.
// All methods are safe on a nil receiver so callers never check Enabled().
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	ingestRuns      *CounterVec
	ingestItems     *CounterVec
	admissionDenied *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the initialized instance, or nil when metrics are disabled.
func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New builds an unregistered instance; used by Init and tests.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("hl_api_requests_total", "HTTP requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("hl_api_request_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		apiInflight: NewGauge("hl_api_inflight", "HTTP requests in flight."),

		llmRequests: NewCounterVec("hl_llm_requests_total", "Text-completion requests by model and status.", []string{"model", "status"}),
		llmLatency:  NewHistogramVec("hl_llm_request_seconds", "Text-completion latency.", []string{"model"}, nil),

		ingestRuns:      NewCounterVec("hl_ingest_runs_total", "Ingestion runs by outcome.", []string{"outcome"}),
		ingestItems:     NewCounterVec("hl_ingest_items_total", "Ingestion candidates by result.", []string{"result"}),
		admissionDenied: NewCounterVec("hl_admission_denied_total", "Requests denied by admission control.", []string{"route"}),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.ingestRuns, m.ingestItems, m.admissionDenied,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(strings.ToUpper(method), route, status)
	m.apiLatency.Observe(dur.Seconds(), strings.ToUpper(method), route)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(strings.TrimSpace(model), status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), strings.TrimSpace(model))
	}
}

// IncIngestRun records one orchestrator run. outcome is "ok", "partial", "failed",
// "upstream_error" or "denied".
func (m *Metrics) IncIngestRun(outcome string) {
	if m == nil {
		return
	}
	m.ingestRuns.Inc(outcome)
}

// IncIngestItem records one candidate. result is "logged" or a failure reason.
func (m *Metrics) IncIngestItem(result string) {
	if m == nil {
		return
	}
	m.ingestItems.Inc(result)
}

func (m *Metrics) IncAdmissionDenied(route string) {
	if m == nil {
		return
	}
	m.admissionDenied.Inc(route)
}

func (m *Metrics) IngestItemCount(result string) float64 {
	if m == nil {
		return 0
	}
	return m.ingestItems.Value(result)
}
