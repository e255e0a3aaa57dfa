package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
	"github.com/wyfcoding/exchangegateway/pkg/middleware"
	"github.com/wyfcoding/exchangegateway/pkg/ratelimit"
)

// RouterOptions 路由可选组件，零值表示不启用
type RouterOptions struct {
	Metrics     *metrics.Metrics
	MetricsPath string
	Limiter     ratelimit.RateLimiter
}

// NewRouter 组装中间件、业务路由、健康检查与指标端点
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware(), middleware.GinLoggingMiddleware(), middleware.GinCORSMiddleware())
	if opts.Metrics != nil {
		r.Use(middleware.GinMetricsMiddleware(opts.Metrics))
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "markets_loaded": h.service.Markets.Loaded()})
	})

	api := r.Group("/api/v1")
	if opts.Limiter != nil {
		api.Use(middleware.GinRateLimitMiddleware(opts.Limiter))
	}
	h.RegisterRoutes(api)
	return r
}
