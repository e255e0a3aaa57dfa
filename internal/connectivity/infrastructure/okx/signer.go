package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// 签名相关请求头
const (
	HeaderAccessKey        = "OK-ACCESS-KEY"
	HeaderAccessSign       = "OK-ACCESS-SIGN"
	HeaderAccessTimestamp  = "OK-ACCESS-TIMESTAMP"
	HeaderAccessPassphrase = "OK-ACCESS-PASSPHRASE"
	HeaderSimulated        = "x-simulated-trading"
)

// 毫秒精度的 ISO-8601 时间戳
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Credentials API 凭证
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Valid 三项凭证是否齐全
func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// Request 冻结后的请求
// 构造后字段不可修改，签名覆盖 method、path（含 query）与 body
type Request struct {
	method      string
	path        string
	requestPath string
	body        []byte
	headers     map[string]string
	private     bool
}

// Method 大写 HTTP 方法
func (r *Request) Method() string { return r.method }

// Path 不含 query 的路径，用于指标标签
func (r *Request) Path() string { return r.path }

// RequestPath 路径加 query，与签名一致
func (r *Request) RequestPath() string { return r.requestPath }

// Private 是否为签名请求
func (r *Request) Private() bool { return r.private }

// Body 返回 body 的副本
func (r *Request) Body() []byte {
	if r.body == nil {
		return nil
	}
	out := make([]byte, len(r.body))
	copy(out, r.body)
	return out
}

// Headers 返回请求头的副本
func (r *Request) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// Header 取单个请求头
func (r *Request) Header(key string) string {
	return r.headers[key]
}

// Canonical 签名原文：timestamp + METHOD + requestPath + body
func Canonical(timestamp, method, requestPath string, body []byte) string {
	return timestamp + method + requestPath + string(body)
}

// Signer 请求签名器
type Signer struct {
	creds   Credentials
	sandbox bool
	now     func() time.Time
}

// NewSigner 创建签名器，sandbox 为 true 时附加模拟盘请求头
func NewSigner(creds Credentials, sandbox bool) *Signer {
	return &Signer{creds: creds, sandbox: sandbox, now: time.Now}
}

// WithClock 替换时钟，返回新的签名器
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// Sign 冻结并签名请求
// GET/DELETE 请求的参数放在 query 中且不允许携带 body
func (s *Signer) Sign(method, path string, query url.Values, body []byte) (*Request, error) {
	if !s.creds.Valid() {
		return nil, domain.NewError(domain.KindAuthentication, "", "api key, secret and passphrase are required for private endpoints")
	}
	req, err := s.freeze(method, path, query, body)
	if err != nil {
		return nil, err
	}
	ts := s.now().UTC().Format(timestampLayout)
	sig := s.signature(Canonical(ts, req.method, req.requestPath, req.body))

	req.private = true
	req.headers[HeaderAccessKey] = s.creds.APIKey
	req.headers[HeaderAccessPassphrase] = s.creds.Passphrase
	req.headers[HeaderAccessTimestamp] = ts
	req.headers[HeaderAccessSign] = sig
	return req, nil
}

// Public 冻结无需签名的公共请求
func (s *Signer) Public(method, path string, query url.Values) (*Request, error) {
	return s.freeze(method, path, query, nil)
}

// Verify 用原始签名原文校验签名，常数时间比较
func (s *Signer) Verify(timestamp, method, requestPath string, body []byte, signature string) bool {
	expected := s.signature(Canonical(timestamp, method, requestPath, body))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyRequest 校验一个已签名的请求
func (s *Signer) VerifyRequest(req *Request) bool {
	return s.Verify(req.Header(HeaderAccessTimestamp), req.method, req.requestPath, req.body, req.Header(HeaderAccessSign))
}

func (s *Signer) signature(canonical string) string {
	mac := hmac.New(sha256.New, []byte(s.creds.Secret))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (s *Signer) freeze(method, path string, query url.Values, body []byte) (*Request, error) {
	switch method {
	case http.MethodGet, http.MethodDelete:
		if len(body) > 0 {
			return nil, fmt.Errorf("okx: %s request must not carry a body", method)
		}
	case http.MethodPost:
	default:
		return nil, fmt.Errorf("okx: unsupported method %q", method)
	}

	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var frozen []byte
	if len(body) > 0 {
		frozen = make([]byte, len(body))
		copy(frozen, body)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if s.sandbox {
		headers[HeaderSimulated] = "1"
	}
	return &Request{
		method:      method,
		path:        path,
		requestPath: requestPath,
		body:        frozen,
		headers:     headers,
	}, nil
}
