package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordVenueRequest(t *testing.T) {
	m := New("connectivity")
	m.RecordVenueRequest("POST", "/api/v5/trade/order", "ok", 15*time.Millisecond)
	m.RecordVenueRequest("POST", "/api/v5/trade/order", "ok", 20*time.Millisecond)
	m.RecordVenueError("InsufficientFunds")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VenueRequestsTotal.WithLabelValues("POST", "/api/v5/trade/order", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VenueErrorsTotal.WithLabelValues("InsufficientFunds")))
}

func TestRecordMarketLoad(t *testing.T) {
	m := New("connectivity")
	m.RecordMarketLoad("venue", "ok", 42)
	m.RecordMarketLoad("venue", "error", 0)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.MarketsCached))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond)
		m.RecordVenueRequest("GET", "/x", "ok", time.Millisecond)
		m.RecordOrderBuilt("limit", "plain")
		m.SetBreakerState("okx", 2)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("connectivity")
	m.RecordOrderBuilt("oco", "algo")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `exchangegateway_orders_built_total{endpoint="algo",ord_type="oco",service="connectivity"} 1`)
}
