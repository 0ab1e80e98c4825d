package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"TaskManager/pkg/logger"
)

// RequestIDHeader 是请求 ID 的传递头。
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFrom 返回中间件写入上下文的请求 ID。
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withRequestID 沿用客户端传入的请求 ID，缺失时生成新的 UUID。
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// withMethodOverride 让 HTML 表单通过 _method 字段发起 PUT 与 DELETE，表单无法解析时直接返回 400。
func (s *Server) withMethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				s.renderError(w, r, http.StatusBadRequest, badFormMessage)
				return
			}
			switch strings.ToUpper(r.PostForm.Get("_method")) {
			case http.MethodPut:
				r.Method = http.MethodPut
			case http.MethodDelete:
				r.Method = http.MethodDelete
			}
		}
		next.ServeHTTP(w, r)
	})
}

// withAccessLog 为每个请求输出一条访问日志。
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Named("http").Info("请求完成",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", RequestIDFrom(r.Context())),
		)
	})
}

// withContext 确保请求处理能够感知根上下文取消，取消后交给 unavailable 应答。
func withContext(ctx context.Context, handler, unavailable http.Handler) http.Handler {
	if unavailable == nil {
		unavailable = http.HandlerFunc(writeUnavailable)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			unavailable.ServeHTTP(w, r)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}

const unavailablePage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Service Unavailable</title></head>
<body><h1>Service Unavailable</h1><p>The server is shutting down.</p></body></html>
`

func writeUnavailable(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Retry-After", "5")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(unavailablePage))
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
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
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}
