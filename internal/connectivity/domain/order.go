package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// TimeInForce 订单有效期
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC" // Good Till Cancel
	TimeInForceIOC TimeInForce = "IOC" // Immediate Or Cancel
	TimeInForceFOK TimeInForce = "FOK" // Fill Or Kill
	TimeInForcePO  TimeInForce = "PO"  // Post Only
)

// MarginMode 保证金模式
type MarginMode string

const (
	MarginModeCross    MarginMode = "cross"
	MarginModeIsolated MarginMode = "isolated"
)

// OrderStatus 订单状态
// 交易所返回的未知状态会原样透传，因此这里不是封闭枚举
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusClosed   OrderStatus = "closed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
)

// IsKnown 是否为统一状态之一
func (s OrderStatus) IsKnown() bool {
	switch s {
	case OrderStatusOpen, OrderStatusClosed, OrderStatusCanceled, OrderStatusRejected:
		return true
	}
	return false
}

// IsTerminal 终态：closed / canceled / rejected
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusClosed || s == OrderStatusCanceled || s == OrderStatusRejected
}

// CanTransitionTo 状态机校验
// rejected 只能在创建时出现；open 可以进入 closed / canceled；终态不可再迁移。
// 相同状态视为刷新，不算迁移。透传的未知状态按非终态处理。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	if s == "" {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	return next != OrderStatusRejected
}

// CheckTransition 返回 ErrIllegalTransition 分类错误
func CheckTransition(prev, next OrderStatus) error {
	if prev.CanTransitionTo(next) {
		return nil
	}
	return NewError(KindExchangeError, CodeIllegalTransition,
		fmt.Sprintf("order status cannot move from %q to %q", prev, next))
}

// Fee 手续费，Cost 恒为正数表示支出（返佣为负）
type Fee struct {
	Cost     decimal.Decimal     `json:"cost"`
	Currency string              `json:"currency"`
	Rate     decimal.NullDecimal `json:"rate"`
}

// Order 订单快照
// 每次响应都生成新的快照，创建后不再修改
type Order struct {
	ID string `json:"id"`
	// ClientOrderID 为空表示不存在，不会存储空字符串之外的占位值
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Symbol        string      `json:"symbol,omitempty"`
	Type          OrderType   `json:"type,omitempty"`
	Side          OrderSide   `json:"side,omitempty"`
	TimeInForce   TimeInForce `json:"time_in_force,omitempty"`
	PostOnly      bool        `json:"post_only,omitempty"`
	ReduceOnly    bool        `json:"reduce_only,omitempty"`
	MarginMode    MarginMode  `json:"margin_mode,omitempty"`
	PositionSide  string      `json:"position_side,omitempty"`
	Status        OrderStatus `json:"status"`

	Price     decimal.NullDecimal `json:"price"`
	Average   decimal.NullDecimal `json:"average"`
	Amount    decimal.NullDecimal `json:"amount"`
	Cost      decimal.NullDecimal `json:"cost"`
	Filled    decimal.NullDecimal `json:"filled"`
	Remaining decimal.NullDecimal `json:"remaining"`

	TriggerPrice    decimal.NullDecimal `json:"trigger_price"`
	StopLossPrice   decimal.NullDecimal `json:"stop_loss_price"`
	TakeProfitPrice decimal.NullDecimal `json:"take_profit_price"`
	TrailingPercent decimal.NullDecimal `json:"trailing_percent"`
	// AlgoType 策略委托的原始 ordType（trigger/conditional/oco/...）
	AlgoType string `json:"algo_type,omitempty"`

	Fee *Fee `json:"fee,omitempty"`

	Timestamp           int64 `json:"timestamp,omitempty"`
	LastUpdateTimestamp int64 `json:"last_update_timestamp,omitempty"`
	LastTradeTimestamp  int64 `json:"last_trade_timestamp,omitempty"`

	// Rejection 批量/单笔下单被拒绝时的分类错误
	Rejection *ExchangeError `json:"rejection,omitempty"`
}

// IsRejected 是否为拒单快照
func (o *Order) IsRejected() bool {
	return o.Status == OrderStatusRejected
}
