package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInstrumentRecordsStatusAndLatency(t *testing.T) {
	c := NewCollector()
	h := c.Instrument("GET /tasks/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tasks/missing" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/tasks/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/tasks/1", "/tasks/2", "/tasks/missing", "/tasks/boom"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	out := c.Render()
	for _, want := range []string{
		`taskmanager_http_requests_total{handler="GET /tasks/{id}",method="GET",code="200"} 2`,
		`taskmanager_http_requests_total{handler="GET /tasks/{id}",method="GET",code="404"} 1`,
		`taskmanager_http_requests_total{handler="GET /tasks/{id}",method="GET",code="500"} 1`,
		`taskmanager_http_request_errors_total{handler="GET /tasks/{id}",method="GET"} 1`,
		`taskmanager_http_request_duration_seconds_count{handler="GET /tasks/{id}",method="GET"} 4`,
		`le="+Inf"} 4`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	c := NewCollector()
	c.Observe("h", "GET", 200, 3*time.Millisecond)
	c.Observe("h", "GET", 200, 200*time.Millisecond)
	c.Observe("h", "GET", 200, 10*time.Second)

	out := c.Render()
	for _, want := range []string{
		`le="0.005"} 1`,
		`le="0.25"} 2`,
		`le="2.5"} 2`,
		`le="+Inf"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestHandlerContentType(t *testing.T) {
	c := NewCollector()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# TYPE taskmanager_http_requests_total counter") {
		t.Fatalf("missing type header: %s", rec.Body.String())
	}
}

func TestEscapeLabel(t *testing.T) {
	if got := escape("a\"b\\c\n"); got != `a\"b\\c` {
		t.Fatalf("unexpected escape result %q", got)
	}
}

func TestServeExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.Observe("GET /tasks", "GET", 200, time.Millisecond)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	if err != nil {
		cancel()
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `handler="GET /tasks"`) {
		cancel()
		t.Fatalf("unexpected metrics response: %d %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancel")
	}
}

func TestStartServerRequiresAddress(t *testing.T) {
	if err := NewCollector().StartServer(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
