package okx

import (
	"context"
	"errors"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
)

// Caller 一次往返：冻结请求、签名、发送、检查响应外壳
// 错误统一为 *domain.ExchangeError
type Caller struct {
	transport Transport
	signer    *Signer
	metrics   *metrics.Metrics
}

// NewCaller 创建 Caller
func NewCaller(t Transport, s *Signer, m *metrics.Metrics) *Caller {
	return &Caller{transport: t, signer: s, metrics: m}
}

func (c *Caller) public(ctx context.Context, method, path string, query url.Values) (*envelope, error) {
	req, err := c.signer.Public(method, path, query)
	if err != nil {
		return nil, c.fail(domain.WrapError(domain.KindBadRequest, "build request", err))
	}
	return c.send(ctx, req, false)
}

func (c *Caller) private(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	return c.signed(ctx, method, path, query, body, false)
}

// privateBatch 批量接口，全部子项失败时仍返回外壳供逐项解析
func (c *Caller) privateBatch(ctx context.Context, method, path string, body any) (*envelope, error) {
	return c.signed(ctx, method, path, nil, body, true)
}

func (c *Caller) signed(ctx context.Context, method, path string, query url.Values, body any, batch bool) (*envelope, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, c.fail(domain.WrapError(domain.KindBadRequest, "encode request body", err))
		}
		payload = b
	}
	req, err := c.signer.Sign(method, path, query, payload)
	if err != nil {
		var xe *domain.ExchangeError
		if errors.As(err, &xe) {
			return nil, c.fail(xe)
		}
		return nil, c.fail(domain.WrapError(domain.KindBadRequest, "build request", err))
	}
	return c.send(ctx, req, batch)
}

func (c *Caller) send(ctx context.Context, req *Request, batch bool) (*envelope, error) {
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		var xe *domain.ExchangeError
		if !errors.As(err, &xe) {
			err = domain.WrapError(domain.KindNetworkError, req.Method()+" "+req.Path(), err)
		}
		return nil, c.fail(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(ClassifyHTTP(resp.StatusCode, resp.Body))
	}
	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, c.fail(malformed(req.Path(), err))
	}
	check := CheckEnvelope
	if batch {
		check = checkBatchEnvelope
	}
	if err := check(env); err != nil {
		return nil, c.fail(err)
	}
	return env, nil
}

func (c *Caller) fail(err error) error {
	var xe *domain.ExchangeError
	if errors.As(err, &xe) {
		c.metrics.RecordVenueError(string(xe.Kind))
	}
	return err
}

func malformed(path string, err error) *domain.ExchangeError {
	return domain.WrapError(domain.KindExchangeError, "malformed response from "+path, err)
}
