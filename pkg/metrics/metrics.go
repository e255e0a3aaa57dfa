// Package metrics 提供 Prometheus helper，包含网关常用的 counter/gauge/histogram
// 所有 Record 方法对 nil 接收者安全，未启用指标时可直接传 nil
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exchangegateway"

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP API 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP API 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 交易所请求计数（按路径与结果）
	VenueRequestsTotal *prometheus.CounterVec
	// 交易所请求耗时
	VenueRequestDuration *prometheus.HistogramVec
	// 分类后的交易所错误
	VenueErrorsTotal *prometheus.CounterVec
	// 熔断器状态：0 closed, 1 half-open, 2 open
	BreakerState *prometheus.GaugeVec

	// 构建的订单请求（按 ordType 与接口族）
	OrdersBuiltTotal *prometheus.CounterVec
	// 市场加载次数
	MarketLoadsTotal *prometheus.CounterVec
	// 当前缓存的市场数量
	MarketsCached prometheus.Gauge
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Total HTTP API requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP API request duration in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		VenueRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "venue_requests_total",
			Help:        "Total requests sent to the venue",
			ConstLabels: constLabels,
		}, []string{"method", "path", "outcome"}),
		VenueRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "venue_request_duration_seconds",
			Help:        "Venue request duration in seconds",
			Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"method", "path"}),
		VenueErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "venue_errors_total",
			Help:        "Classified venue errors by kind",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "breaker_state",
			Help:        "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			ConstLabels: constLabels,
		}, []string{"name"}),
		OrdersBuiltTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "orders_built_total",
			Help:        "Order requests built by ordType and endpoint",
			ConstLabels: constLabels,
		}, []string{"ord_type", "endpoint"}),
		MarketLoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "market_loads_total",
			Help:        "Market cache loads by source and outcome",
			ConstLabels: constLabels,
		}, []string{"source", "outcome"}),
		MarketsCached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "markets_cached",
			Help:        "Number of markets in the cache",
			ConstLabels: constLabels,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.VenueRequestsTotal,
		m.VenueRequestDuration,
		m.VenueErrorsTotal,
		m.BreakerState,
		m.OrdersBuiltTotal,
		m.MarketLoadsTotal,
		m.MarketsCached,
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 的 http.Handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录 HTTP API 请求
func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordVenueRequest 记录一次交易所请求
func (m *Metrics) RecordVenueRequest(method, path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.VenueRequestsTotal.WithLabelValues(method, path, outcome).Inc()
	m.VenueRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordVenueError 记录分类后的错误
func (m *Metrics) RecordVenueError(kind string) {
	if m == nil {
		return
	}
	m.VenueErrorsTotal.WithLabelValues(kind).Inc()
}

// SetBreakerState 更新熔断器状态
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordOrderBuilt 记录构建的订单请求
func (m *Metrics) RecordOrderBuilt(ordType, endpoint string) {
	if m == nil {
		return
	}
	m.OrdersBuiltTotal.WithLabelValues(ordType, endpoint).Inc()
}

// RecordMarketLoad 记录市场加载
func (m *Metrics) RecordMarketLoad(source, outcome string, count int) {
	if m == nil {
		return
	}
	m.MarketLoadsTotal.WithLabelValues(source, outcome).Inc()
	if outcome == "ok" {
		m.MarketsCached.Set(float64(count))
	}
}
