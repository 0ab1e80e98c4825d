package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"TaskManager/internal/observability/metrics"
	"TaskManager/internal/task"
	"TaskManager/internal/view"
	"TaskManager/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Pinger 用于健康检查，通常由 storage.Store 实现。
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server 负责暴露任务管理的 HTML 页面与表单接口。
type Server struct {
	addr    string
	tasks   *task.Service
	views   *view.Renderer
	pinger  Pinger
	metrics *metrics.Collector
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, svc *task.Service, renderer *view.Renderer, pinger Pinger) *Server {
	return &Server{
		addr:    addr,
		tasks:   svc,
		views:   renderer,
		pinger:  pinger,
		metrics: metrics.Default(),
	}
}

// Handler 返回带有完整中间件链的路由。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /{$}", s.handleDashboard)
	s.handle(mux, "GET /tasks", s.handleIndex)
	s.handle(mux, "GET /tasks/new", s.handleNew)
	s.handle(mux, "GET /tasks/{id}", s.handleShow)
	s.handle(mux, "GET /tasks/{id}/edit", s.handleEdit)
	s.handle(mux, "POST /tasks", s.handleCreate)
	s.handle(mux, "PUT /tasks/{id}", s.handleUpdate)
	s.handle(mux, "DELETE /tasks/{id}", s.handleDelete)
	s.handle(mux, "GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	s.handle(mux, "/", s.handleNotFound)

	return withRequestID(withAccessLog(s.withMethodOverride(mux)))
}

func (s *Server) handle(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.Instrument(pattern, fn))
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	return serve(ctx, s.addr, withContext(ctx, s.Handler(), http.HandlerFunc(s.handleUnavailable)))
}

func (s *Server) handleUnavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "5")
	s.renderError(w, r, http.StatusServiceUnavailable, "The server is shutting down.")
}

// serve 监听 addr，在 ctx 取消后优雅关闭。
func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Named("http").Info("HTTP 服务已启动", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
