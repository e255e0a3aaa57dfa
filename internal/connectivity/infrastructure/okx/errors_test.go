package okx

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

func TestClassifyExactCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"50011", domain.ErrRateLimitExceeded},
		{"50001", domain.ErrOnMaintenance},
		{"51008", domain.ErrInsufficientFunds},
		{"51119", domain.ErrInsufficientFunds},
		{"51400", domain.ErrOrderNotFound},
		{"51410", domain.ErrCancelPending},
		{"51155", domain.ErrRestrictedLocation},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := Classify(tc.code, "whatever")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, "whatever", err.Message)
		})
	}
}

func TestClassifyFallsBack(t *testing.T) {
	err := Classify("99999", "System is busy, please try again later")
	assert.ErrorIs(t, err, domain.ErrExchangeNotAvailable)
	assert.True(t, err.Retryable)

	err = Classify("99999", "something odd")
	assert.ErrorIs(t, err, domain.ErrExchangeError)
	assert.Equal(t, "99999", err.Code)
}

func TestCheckEnvelope(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		env, err := decodeEnvelope([]byte(`{"code":"0","msg":"","data":[]}`))
		require.NoError(t, err)
		assert.NoError(t, CheckEnvelope(env))
	})

	t.Run("top level code", func(t *testing.T) {
		env, err := decodeEnvelope([]byte(`{"code":"50011","msg":"Too Many Requests","data":[]}`))
		require.NoError(t, err)
		assert.ErrorIs(t, CheckEnvelope(env), domain.ErrRateLimitExceeded)
	})

	t.Run("numeric code", func(t *testing.T) {
		env, err := decodeEnvelope([]byte(`{"code":50001,"msg":"Service temporarily unavailable","data":[]}`))
		require.NoError(t, err)
		assert.ErrorIs(t, CheckEnvelope(env), domain.ErrOnMaintenance)
	})

	t.Run("item code beats top level", func(t *testing.T) {
		env, err := decodeEnvelope([]byte(`{"code":"1","msg":"Operation failed.","data":[{"sCode":"51008","sMsg":"Insufficient balance"}]}`))
		require.NoError(t, err)
		err2 := CheckEnvelope(env)
		assert.ErrorIs(t, err2, domain.ErrInsufficientFunds)
	})

	t.Run("partial success is not an error", func(t *testing.T) {
		env, err := decodeEnvelope([]byte(`{"code":"2","msg":"","data":[{"sCode":"0"},{"sCode":"51008","sMsg":"x"}]}`))
		require.NoError(t, err)
		assert.NoError(t, CheckEnvelope(env))
	})
}

func TestCheckBatchEnvelopeToleratesItemizedFailure(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"code":"1","msg":"All operations failed","data":[{"sCode":"51008","sMsg":"x"}]}`))
	require.NoError(t, err)
	assert.NoError(t, checkBatchEnvelope(env))
	assert.Error(t, CheckEnvelope(env))

	env, err = decodeEnvelope([]byte(`{"code":"1","msg":"Operation failed.","data":[]}`))
	require.NoError(t, err)
	assert.ErrorIs(t, checkBatchEnvelope(env), domain.ErrExchangeError)
}

func TestClassifyHTTP(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"429 beats body", http.StatusTooManyRequests, `{"code":"51008","msg":"x"}`, domain.ErrDDoSProtection},
		{"body code", http.StatusBadRequest, `{"code":"50113","msg":"Invalid Sign"}`, domain.ErrAuthentication},
		{"401", http.StatusUnauthorized, ``, domain.ErrAuthentication},
		{"403", http.StatusForbidden, `forbidden`, domain.ErrPermissionDenied},
		{"451", http.StatusUnavailableForLegalReasons, ``, domain.ErrRestrictedLocation},
		{"504", http.StatusGatewayTimeout, `<html>`, domain.ErrNetworkError},
		{"502", http.StatusBadGateway, `<html>`, domain.ErrExchangeNotAvailable},
		{"404", http.StatusNotFound, ``, domain.ErrExchangeNotAvailable},
		{"418", http.StatusTeapot, ``, domain.ErrExchangeError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, ClassifyHTTP(tc.status, []byte(tc.body)), tc.want)
		})
	}
}

func TestClassifyHTTPTruncatesOnRuneBoundary(t *testing.T) {
	// 每个字符 3 字节，256 落在字符中间
	body := strings.Repeat("错", 200)
	err := ClassifyHTTP(http.StatusInternalServerError, []byte(body))
	require.NotNil(t, err)
	assert.True(t, utf8.ValidString(err.Message))
	assert.Len(t, err.Message, 255)
	assert.True(t, strings.HasPrefix(body, err.Message))
}
