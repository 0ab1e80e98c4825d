package api

import (
	"context"
	"net/http"

	"TaskManager/internal/observability/metrics"
	"TaskManager/internal/site"
)

// SiteServer 以与任务服务相同的中间件托管静态站点。
type SiteServer struct {
	addr    string
	site    *site.Site
	metrics *metrics.Collector
}

// NewSiteServer 构造静态站点服务。
func NewSiteServer(addr string, st *site.Site) *SiteServer {
	return &SiteServer{addr: addr, site: st, metrics: metrics.Default()}
}

// Handler 返回带中间件的站点处理器，指标按站点变体分组。
func (s *SiteServer) Handler() http.Handler {
	return withRequestID(withAccessLog(s.metrics.Instrument("site:"+s.site.Variant(), s.site)))
}

// Start 启动站点服务，直到上下文取消。
func (s *SiteServer) Start(ctx context.Context) error {
	return serve(ctx, s.addr, withContext(ctx, s.Handler(), nil))
}
