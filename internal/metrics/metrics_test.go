package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_CountsRequests(t *testing.T) {
	m := New("test")
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "HELLOWORLD")
	}))

	for _, path := range []string{"/a", "/b", "/missing"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("200", "get")); got != 2 {
		t.Errorf("200/get = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("404", "get")); got != 1 {
		t.Errorf("404/get = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestRateLimited(t *testing.T) {
	m := New("test")
	m.RateLimited("192.0.2.1")
	m.RateLimited("192.0.2.2")

	if got := testutil.ToFloat64(m.rateLimited); got != 2 {
		t.Errorf("rate limited = %v, want 2", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New("v1.2.3")
	m.Instrument(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/", nil))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		MetricRequests + `{code="404",method="get"} 1`,
		MetricBuildInfo + `{goversion="`,
		`version="v1.2.3"} 1`,
		MetricRateLimited + " 0",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Registering twice in one process must not panic.
	a := New("a")
	b := New("b")
	if a.registry == b.registry {
		t.Error("registries are shared")
	}
}

func TestTrackClients(t *testing.T) {
	m := New("test")
	n := 3
	m.TrackClients(func() int { return n })

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if want := MetricClients + " 3"; !strings.Contains(w.Body.String(), want) {
		t.Errorf("exposition missing %q", want)
	}
}
