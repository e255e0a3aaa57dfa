// Package http 交易所网关 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/application"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
)

type Handler struct {
	service *application.ConnectivityService
}

func NewHandler(service *application.ConnectivityService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	o := r.Group("/orders")
	{
		o.POST("", h.CreateOrder)
		o.POST("/batch", h.CreateOrders)
		o.POST("/amend", h.EditOrder)
		o.POST("/cancel", h.CancelOrder)
		o.POST("/cancel-batch", h.CancelOrders)
		o.POST("/reconcile", h.ReconcileOrder)
		o.GET("/open", h.ListOpenOrders)
		o.GET("/closed", h.ListClosedOrders)
	}
	r.GET("/order", h.GetOrder)
	r.GET("/trades", h.ListTrades)
	r.GET("/positions", h.ListPositions)
	r.GET("/balance", h.GetBalance)
	r.POST("/transfers", h.Transfer)
	r.GET("/transfers/:id", h.GetTransfer)
	r.GET("/ledger", h.ListLedger)
	r.GET("/markets", h.ListMarkets)
	r.POST("/markets/reload", h.ReloadMarkets)
	r.GET("/currencies", h.ListCurrencies)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req domain.OrderIntent
	if !bind(c, &req) {
		return
	}
	order, err := h.service.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type CreateOrdersReq struct {
	Orders []*domain.OrderIntent `json:"orders" binding:"required,min=1"`
}

func (h *Handler) CreateOrders(c *gin.Context) {
	var req CreateOrdersReq
	if !bind(c, &req) {
		return
	}
	orders, err := h.service.CreateOrders(c.Request.Context(), req.Orders)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) EditOrder(c *gin.Context) {
	var req domain.EditIntent
	if !bind(c, &req) {
		return
	}
	order, err := h.service.EditOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	var req domain.OrderRef
	if !bind(c, &req) {
		return
	}
	order, err := h.service.CancelOrder(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type CancelOrdersReq struct {
	Orders []*domain.OrderRef `json:"orders" binding:"required,min=1"`
}

func (h *Handler) CancelOrders(c *gin.Context) {
	var req CancelOrdersReq
	if !bind(c, &req) {
		return
	}
	orders, err := h.service.CancelOrders(c.Request.Context(), req.Orders)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type ReconcileReq struct {
	domain.OrderRef
	KnownStatus domain.OrderStatus `json:"known_status"`
}

func (h *Handler) ReconcileOrder(c *gin.Context) {
	var req ReconcileReq
	if !bind(c, &req) {
		return
	}
	order, err := h.service.ReconcileOrder(c.Request.Context(), &req.OrderRef, req.KnownStatus)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	ref := &domain.OrderRef{
		Symbol:        c.Query("symbol"),
		ID:            c.Query("id"),
		ClientOrderID: c.Query("client_order_id"),
		Trigger:       c.Query("trigger") == "true",
		AlgoType:      c.Query("algo_type"),
	}
	order, err := h.service.GetOrder(c.Request.Context(), ref)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListOpenOrders(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	orders, err := h.service.ListOpenOrders(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) ListClosedOrders(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	orders, err := h.service.ListClosedOrders(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) ListTrades(c *gin.Context) {
	since, limit, ok := window(c)
	if !ok {
		return
	}
	trades, err := h.service.ListTrades(c.Request.Context(), &domain.TradeQuery{
		Symbol:  c.Query("symbol"),
		Type:    domain.MarketType(c.Query("type")),
		OrderID: c.Query("order_id"),
		Since:   since,
		Limit:   limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (h *Handler) ListPositions(c *gin.Context) {
	var symbols []string
	if s := c.Query("symbols"); s != "" {
		symbols = strings.Split(s, ",")
	}
	positions, err := h.service.ListPositions(c.Request.Context(), symbols)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (h *Handler) GetBalance(c *gin.Context) {
	balance, err := h.service.GetBalance(c.Request.Context(), domain.AccountType(c.Query("account")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *Handler) Transfer(c *gin.Context) {
	var req domain.TransferIntent
	if !bind(c, &req) {
		return
	}
	t, err := h.service.Transfer(c.Request.Context(), &req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) GetTransfer(c *gin.Context) {
	t, err := h.service.GetTransfer(c.Request.Context(), c.Param("id"), c.Query("currency"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) ListLedger(c *gin.Context) {
	since, limit, ok := window(c)
	if !ok {
		return
	}
	entries, err := h.service.ListLedger(c.Request.Context(), &domain.LedgerQuery{
		Currency: c.Query("currency"),
		Since:    since,
		Limit:    limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) ListMarkets(c *gin.Context) {
	markets, err := h.service.ListMarkets(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets})
}

func (h *Handler) ReloadMarkets(c *gin.Context) {
	markets, err := h.service.ReloadMarkets(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(markets)})
}

func (h *Handler) ListCurrencies(c *gin.Context) {
	currencies, err := h.service.ListCurrencies(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currencies": currencies})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": domain.KindBadRequest})
		return false
	}
	return true
}

func orderQuery(c *gin.Context) (*domain.OrderQuery, bool) {
	since, limit, ok := window(c)
	if !ok {
		return nil, false
	}
	return &domain.OrderQuery{
		Symbol:   c.Query("symbol"),
		Type:     domain.MarketType(c.Query("type")),
		Since:    since,
		Limit:    limit,
		Trigger:  c.Query("trigger") == "true",
		AlgoType: c.Query("algo_type"),
	}, true
}

// window 解析 since（毫秒）与 limit
func window(c *gin.Context) (int64, int, bool) {
	var since int64
	var limit int
	var err error
	if s := c.Query("since"); s != "" {
		if since, err = strconv.ParseInt(s, 10, 64); err != nil || since < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since", "kind": domain.KindBadRequest})
			return 0, 0, false
		}
	}
	if s := c.Query("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit", "kind": domain.KindBadRequest})
			return 0, 0, false
		}
	}
	return since, limit, true
}

// fail 分类错误原样返回 kind/code/message，HTTP 状态由分类决定
func fail(c *gin.Context, err error) {
	var ee *domain.ExchangeError
	if !errors.As(err, &ee) {
		logger.Error(c.Request.Context(), "unclassified error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := StatusOf(ee.Kind)
	if application.IsIllegalTransition(err) {
		status = http.StatusConflict
	}
	if status >= http.StatusInternalServerError {
		logger.Warn(c.Request.Context(), "venue unavailable", "path", c.FullPath(), "kind", ee.Kind, "code", ee.Code)
	}
	c.JSON(status, gin.H{
		"error":     ee.Error(),
		"kind":      ee.Kind,
		"code":      ee.Code,
		"message":   ee.Message,
		"retryable": ee.Retryable,
	})
}

// StatusOf 错误分类到 HTTP 状态码
func StatusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidOrder, domain.KindBadRequest, domain.KindBadSymbol:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindPermissionDenied, domain.KindAccountSuspended, domain.KindRestrictedLocation:
		return http.StatusForbidden
	case domain.KindOrderNotFound:
		return http.StatusNotFound
	case domain.KindCancelPending:
		return http.StatusConflict
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindRateLimitExceeded, domain.KindDDoSProtection:
		return http.StatusTooManyRequests
	case domain.KindExchangeNotAvailable, domain.KindOnMaintenance, domain.KindNetworkError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
