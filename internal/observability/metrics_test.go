package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.IncIngestRun("ok")
	m.IncIngestItem("logged")
	if got := m.IngestItemCount("logged"); got != 0 {
		t.Fatalf("nil metrics count=%v", got)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.IncIngestItem("logged")
	m.IncIngestItem("logged")
	m.IncIngestItem("duplicate_window")
	m.ObserveLLMRequest("gpt", "200", 1500*time.Millisecond)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`hl_ingest_items_total{result="logged"} 2.000000`,
		`hl_ingest_items_total{result="duplicate_window"} 1.000000`,
		`hl_llm_request_seconds_bucket{model="gpt",le="2"} 1`,
		`hl_llm_request_seconds_count{model="gpt"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
