package okx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
	"github.com/wyfcoding/exchangegateway/pkg/ratelimit"
)

// Response 原始 HTTP 响应
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport 发送冻结后的请求
// 实现方负责超时与取消，不做重试
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportConfig HTTP 传输配置
type TransportConfig struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerName        string
	BreakerFailures    uint32
	BreakerMaxRequests uint32
	BreakerTimeout     time.Duration
}

// 5xx 计入熔断失败，但响应体仍需要交给分类器
var errServerStatus = errors.New("okx: server error status")

// 调用方上下文结束导致的失败不计入熔断；客户端自身超时仍然计入
var errCallerAborted = errors.New("okx: caller aborted")

// RestyTransport 基于 resty 的传输层，带本地限流与熔断
type RestyTransport struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	limiter ratelimit.RateLimiter
	metrics *metrics.Metrics
}

// NewRestyTransport 创建传输层，limiter 为空时不限流
func NewRestyTransport(cfg TransportConfig, limiter ratelimit.RateLimiter, m *metrics.Metrics) *RestyTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "okx"
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.BreakerName,
		MaxRequests: cfg.BreakerMaxRequests,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerAborted)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "venue circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, int(to))
		},
	})
	m.SetBreakerState(cfg.BreakerName, int(gobreaker.StateClosed))

	return &RestyTransport{client: client, breaker: breaker, limiter: limiter, metrics: m}
}

// Do 发送请求
// 网络错误归类为 NetworkError，熔断打开时归类为 ExchangeNotAvailable；
// 非 2xx 响应原样返回，由调用方分类
func (t *RestyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx, "venue"); err != nil {
			return nil, domain.WrapError(domain.KindNetworkError, "rate limiter wait aborted", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.KindNetworkError, fmt.Sprintf("%s %s", req.Method(), req.Path()), err)
	}

	start := time.Now()
	result, err := t.breaker.Execute(func() (interface{}, error) {
		r := t.client.R().SetContext(ctx).SetHeaders(req.Headers())
		if body := req.Body(); len(body) > 0 {
			r.SetBody(body)
		}
		resp, err := r.Execute(req.Method(), req.RequestPath())
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerAborted, err)
			}
			return nil, err
		}
		out := &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}
		if out.StatusCode >= 500 {
			return out, errServerStatus
		}
		return out, nil
	})
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, errServerStatus) {
		outcome := "error"
		var wrapped *domain.ExchangeError
		switch {
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = "breaker_open"
			wrapped = domain.WrapError(domain.KindExchangeNotAvailable, "venue circuit breaker open", err)
		case errors.Is(err, errCallerAborted):
			outcome = "canceled"
			wrapped = domain.WrapError(domain.KindNetworkError, fmt.Sprintf("%s %s", req.Method(), req.Path()), err)
		default:
			wrapped = domain.WrapError(domain.KindNetworkError, fmt.Sprintf("%s %s", req.Method(), req.Path()), err)
		}
		t.metrics.RecordVenueRequest(req.Method(), req.Path(), outcome, elapsed)
		logger.Warn(ctx, "venue request failed",
			"method", req.Method(), "path", req.Path(), "error", err, "duration", elapsed)
		return nil, wrapped
	}

	resp := result.(*Response)
	t.metrics.RecordVenueRequest(req.Method(), req.Path(), statusClass(resp.StatusCode), elapsed)
	logger.Debug(ctx, "venue request completed",
		"method", req.Method(), "path", req.Path(), "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
