package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

var testCreds = Credentials{APIKey: "key", Secret: "secret", Passphrase: "pass"}

func fixedClock() time.Time {
	return time.Date(2020, 12, 8, 9, 8, 57, 715_000_000, time.UTC)
}

func TestSignerSignPost(t *testing.T) {
	s := NewSigner(testCreds, false).WithClock(fixedClock)
	body := []byte(`{"instId":"BTC-USDT","side":"buy"}`)

	req, err := s.Sign(http.MethodPost, pathOrder, nil, body)
	require.NoError(t, err)

	ts := "2020-12-08T09:08:57.715Z"
	assert.Equal(t, ts, req.Header(HeaderAccessTimestamp))
	assert.Equal(t, "key", req.Header(HeaderAccessKey))
	assert.Equal(t, "pass", req.Header(HeaderAccessPassphrase))
	assert.Equal(t, "application/json", req.Header("Content-Type"))
	assert.Empty(t, req.Header(HeaderSimulated))
	assert.True(t, req.Private())

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(ts + "POST" + pathOrder + string(body)))
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), req.Header(HeaderAccessSign))
	assert.True(t, s.VerifyRequest(req))
}

func TestSignerQueryIsPartOfCanonical(t *testing.T) {
	s := NewSigner(testCreds, true).WithClock(fixedClock)
	q := url.Values{"instType": {"SPOT"}, "limit": {"100"}}

	req, err := s.Sign(http.MethodGet, pathOrdersPending, q, nil)
	require.NoError(t, err)

	assert.Equal(t, pathOrdersPending+"?instType=SPOT&limit=100", req.RequestPath())
	assert.Equal(t, pathOrdersPending, req.Path())
	assert.Equal(t, "1", req.Header(HeaderSimulated))
	assert.Nil(t, req.Body())
	assert.True(t, s.Verify(req.Header(HeaderAccessTimestamp), "GET", req.RequestPath(), nil, req.Header(HeaderAccessSign)))
	assert.False(t, s.Verify(req.Header(HeaderAccessTimestamp), "GET", pathOrdersPending, nil, req.Header(HeaderAccessSign)))
}

func TestSignerTamperedBodyFailsVerification(t *testing.T) {
	s := NewSigner(testCreds, false).WithClock(fixedClock)
	body := []byte(`{"instId":"BTC-USDT","sz":"1"}`)
	req, err := s.Sign(http.MethodPost, pathOrder, nil, body)
	require.NoError(t, err)

	tampered := req.Body()
	tampered[len(tampered)-3] = '2'
	assert.False(t, s.Verify(req.Header(HeaderAccessTimestamp), req.Method(), req.RequestPath(), tampered, req.Header(HeaderAccessSign)))
	// 访问器返回副本，原请求不受影响
	assert.True(t, s.VerifyRequest(req))
}

func TestSignerFrozenBodyIsCopied(t *testing.T) {
	s := NewSigner(testCreds, false).WithClock(fixedClock)
	body := []byte(`{"a":"1"}`)
	req, err := s.Sign(http.MethodPost, pathOrder, nil, body)
	require.NoError(t, err)

	body[2] = 'b'
	assert.Equal(t, `{"a":"1"}`, string(req.Body()))

	h := req.Headers()
	h[HeaderAccessSign] = "forged"
	assert.NotEqual(t, "forged", req.Header(HeaderAccessSign))
}

func TestSignerRejects(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		_, err := NewSigner(Credentials{APIKey: "key"}, false).Sign(http.MethodGet, pathPositions, nil, nil)
		assert.ErrorIs(t, err, domain.ErrAuthentication)
	})
	t.Run("body on GET", func(t *testing.T) {
		_, err := NewSigner(testCreds, false).Sign(http.MethodGet, pathPositions, nil, []byte(`{}`))
		assert.Error(t, err)
	})
	t.Run("unsupported method", func(t *testing.T) {
		_, err := NewSigner(testCreds, false).Sign(http.MethodPut, pathOrder, nil, nil)
		assert.Error(t, err)
	})
}

func TestSignerPublicRequestIsUnsigned(t *testing.T) {
	req, err := NewSigner(Credentials{}, false).Public(http.MethodGet, pathInstruments, url.Values{"instType": {"SWAP"}})
	require.NoError(t, err)
	assert.False(t, req.Private())
	assert.Empty(t, req.Header(HeaderAccessSign))
	assert.Equal(t, pathInstruments+"?instType=SWAP", req.RequestPath())
}
