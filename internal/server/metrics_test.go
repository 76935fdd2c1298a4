package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
)

// findMetric returns the metric in family name whose labels include want.
func findMetric(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) *dto.Metric {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			return m
		}
	}
	return nil
}

func Test_Metrics_EndpointServesRegistry(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	w := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
	if !strings.Contains(w.Body.String(), `ragdesk_http_requests_total{code="200",handler="GET /health",method="GET"} 1`) {
		t.Errorf("http counter missing from exposition:\n%s", w.Body.String())
	}
}

func Test_Metrics_ChatOutcomes(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t)

	do(s, jsonRequest(http.MethodPost, "/chat", `{"messages":[{"role":"user","content":"x"}],"agent_id":"general"}`))
	do(s, jsonRequest(http.MethodPost, "/chat", `{"messages":[{"role":"user","content":"x"}],"agent_id":"ghost"}`))
	do(s, jsonRequest(http.MethodPost, "/chat", `{`))

	for _, outcome := range []string{"ok", "not_found", "invalid"} {
		m := findMetric(t, reg, "ragdesk_chat_requests_total", map[string]string{"outcome": outcome})
		if m == nil {
			t.Errorf("ragdesk_chat_requests_total{outcome=%q} not found", outcome)
			continue
		}
		if v := m.GetCounter().GetValue(); v != 1 {
			t.Errorf("outcome %q: want 1, got %v", outcome, v)
		}
	}
}

func Test_Metrics_UploadCounted(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t)

	do(s, uploadRequest(t, "file", "a.txt", []byte("hello")))

	m := findMetric(t, reg, "ragdesk_upload_requests_total", map[string]string{"outcome": "ok"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Fatalf("upload ok counter: %v", m)
	}
	h := findMetric(t, reg, "ragdesk_upload_size_bytes", nil)
	if h == nil || h.GetHistogram().GetSampleCount() != 1 {
		t.Errorf("upload size histogram: %v", h)
	}
}

func Test_Metrics_PatternLabelBounded(t *testing.T) {
	t.Parallel()
	s, reg := newTestServer(t)

	do(s, httptest.NewRequest(http.MethodGet, "/documents/doc_1", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/documents/doc_2", nil))
	do(s, httptest.NewRequest(http.MethodGet, "/nope", nil))

	m := findMetric(t, reg, "ragdesk_http_requests_total", map[string]string{"handler": "GET /documents/{id}", "code": "404"})
	if m == nil || m.GetCounter().GetValue() != 2 {
		t.Errorf("pattern-labelled counter: %v", m)
	}
	if findMetric(t, reg, "ragdesk_http_requests_total", map[string]string{"handler": "unmatched"}) == nil {
		t.Error("unmatched requests should be counted under handler=unmatched")
	}
}
