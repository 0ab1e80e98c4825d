package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const namespace = "taskmanager"

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

type requestKey struct {
	handler string
	method  string
	code    string
}

type routeKey struct {
	handler string
	method  string
}

type histogram struct {
	counts []uint64
	sum    float64
	count  uint64
}

func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range defaultBuckets {
		if value <= bound {
			h.counts[idx]++
		}
	}
}

// Collector accumulates per-route request counters and latency histograms.
type Collector struct {
	mu       sync.Mutex
	requests map[requestKey]uint64
	errors   map[routeKey]uint64
	latency  map[routeKey]*histogram
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		requests: make(map[requestKey]uint64),
		errors:   make(map[routeKey]uint64),
		latency:  make(map[routeKey]*histogram),
	}
}

var defaultCollector = NewCollector()

// Default returns the process-wide collector.
func Default() *Collector {
	return defaultCollector
}

// Observe records one finished request.
func (c *Collector) Observe(handler, method string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests[requestKey{handler: handler, method: method, code: strconv.Itoa(status)}]++
	route := routeKey{handler: handler, method: method}
	if status >= 500 {
		c.errors[route]++
	}
	hist := c.latency[route]
	if hist == nil {
		hist = &histogram{counts: make([]uint64, len(defaultBuckets))}
		c.latency[route] = hist
	}
	hist.observe(duration.Seconds())
}

// Instrument wraps next so that every response is recorded under name.
func (c *Collector) Instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.Observe(name, r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

// Handler exposes the collected metrics in Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, c.Render())
	})
}

// Render returns the exposition text for the current snapshot.
func (c *Collector) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	b.Grow(1024)

	reqKeys := make([]requestKey, 0, len(c.requests))
	for key := range c.requests {
		reqKeys = append(reqKeys, key)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].handler != reqKeys[j].handler {
			return reqKeys[i].handler < reqKeys[j].handler
		}
		if reqKeys[i].method != reqKeys[j].method {
			return reqKeys[i].method < reqKeys[j].method
		}
		return reqKeys[i].code < reqKeys[j].code
	})

	fmt.Fprintf(&b, "# HELP %s_http_requests_total Total number of HTTP requests processed.\n", namespace)
	fmt.Fprintf(&b, "# TYPE %s_http_requests_total counter\n", namespace)
	for _, key := range reqKeys {
		fmt.Fprintf(&b, "%s_http_requests_total{handler=\"%s\",method=\"%s\",code=\"%s\"} %d\n",
			namespace, escape(key.handler), escape(key.method), key.code, c.requests[key])
	}

	errKeys := sortedRoutes(c.errors)
	fmt.Fprintf(&b, "# HELP %s_http_request_errors_total Total number of HTTP requests that resulted in a server error.\n", namespace)
	fmt.Fprintf(&b, "# TYPE %s_http_request_errors_total counter\n", namespace)
	for _, key := range errKeys {
		fmt.Fprintf(&b, "%s_http_request_errors_total{handler=\"%s\",method=\"%s\"} %d\n",
			namespace, escape(key.handler), escape(key.method), c.errors[key])
	}

	latKeys := sortedRoutes(c.latency)
	fmt.Fprintf(&b, "# HELP %s_http_request_duration_seconds HTTP request duration in seconds.\n", namespace)
	fmt.Fprintf(&b, "# TYPE %s_http_request_duration_seconds histogram\n", namespace)
	for _, key := range latKeys {
		hist := c.latency[key]
		labels := fmt.Sprintf("handler=\"%s\",method=\"%s\"", escape(key.handler), escape(key.method))
		for idx, bound := range defaultBuckets {
			fmt.Fprintf(&b, "%s_http_request_duration_seconds_bucket{%s,le=\"%s\"} %d\n",
				namespace, labels, formatFloat(bound), hist.counts[idx])
		}
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", namespace, labels, hist.count)
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_sum{%s} %s\n", namespace, labels, formatFloat(hist.sum))
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_count{%s} %d\n", namespace, labels, hist.count)
	}

	return b.String()
}

func sortedRoutes[V any](m map[routeKey]V) []routeKey {
	keys := make([]routeKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].handler != keys[j].handler {
			return keys[i].handler < keys[j].handler
		}
		return keys[i].method < keys[j].method
	})
	return keys
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// StartServer exposes the collector on its own listener, separate from the
// application port. It blocks until ctx is cancelled.
func (c *Collector) StartServer(ctx context.Context, addr string) error {
	if addr == "" {
		return errors.New("metrics address is empty")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	return c.Serve(ctx, ln)
}

// Serve answers /metrics on ln until ctx is cancelled, then closes the listener.
func (c *Collector) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
