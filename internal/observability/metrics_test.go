package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	return string(body)
}

func TestNewMetrics_independentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.TelemetryIngested("stored")

	if !strings.Contains(scrape(t, a), `riego_telemetry_ingested_total{result="stored"} 1`) {
		t.Error("counter missing from first registry")
	}
	if strings.Contains(scrape(t, b), `riego_telemetry_ingested_total{result="stored"}`) {
		t.Error("counter leaked into second registry")
	}
}

func TestRefreshObserved(t *testing.T) {
	m := NewMetrics()
	m.RefreshObserved("success", "", 20*time.Millisecond)
	m.RefreshObserved("failure", "network", time.Second)
	m.RefreshObserved("failure", "network", time.Second)

	out := scrape(t, m)
	for _, want := range []string{
		`riego_dashboard_refresh_total{cause="",outcome="success"} 1`,
		`riego_dashboard_refresh_total{cause="network",outcome="failure"} 2`,
		`riego_dashboard_refresh_duration_seconds_count 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWrapHandler_labelsByPattern(t *testing.T) {
	m := NewMetrics()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fecha/{date}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.WrapHandler(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fecha/2022-08-23", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	out := scrape(t, m)
	if !strings.Contains(out, `http_requests_total{route="GET /fecha/{date}",status="418"} 1`) {
		t.Errorf("pattern label missing:\n%s", out)
	}
	if !strings.Contains(out, `http_requests_total{route="unmatched",status="404"} 1`) {
		t.Errorf("unmatched label missing:\n%s", out)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RefreshObserved("success", "", time.Millisecond)
	m.TelemetryIngested("stored")

	w := httptest.NewRecorder()
	m.WrapHandler(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	sr := NewStatusRecorder(w)
	if sr.Status() != http.StatusOK {
		t.Errorf("default status = %d; want 200", sr.Status())
	}
	sr.WriteHeader(http.StatusBadGateway)
	if sr.Status() != http.StatusBadGateway || w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, underlying = %d; want 502", sr.Status(), w.Code)
	}
}
