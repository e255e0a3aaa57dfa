package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TargetCurrency 现货市价单 sz 的计价单位
type TargetCurrency string

const (
	TargetBase  TargetCurrency = "base"
	TargetQuote TargetCurrency = "quote"
)

// TriggerPriceType 触发价类型
type TriggerPriceType string

const (
	TriggerLast  TriggerPriceType = "last"
	TriggerIndex TriggerPriceType = "index"
	TriggerMark  TriggerPriceType = "mark"
)

// StopLeg 结构化止盈/止损腿
// Price 为空时按市价（-1）执行
type StopLeg struct {
	TriggerPrice     decimal.Decimal     `json:"trigger_price"`
	Price            decimal.NullDecimal `json:"price"`
	TriggerPriceType TriggerPriceType    `json:"trigger_price_type,omitempty"`
}

// StrategyType 拆单策略
type StrategyType string

const (
	StrategyIceberg StrategyType = "iceberg"
	StrategyTWAP    StrategyType = "twap"
)

// Strategy 冰山 / 时间加权委托参数
// PriceVariance 与 PriceSpread 二选一
type Strategy struct {
	Type          StrategyType        `json:"type"`
	SizeLimit     decimal.Decimal     `json:"size_limit"`
	PriceLimit    decimal.Decimal     `json:"price_limit"`
	PriceVariance decimal.NullDecimal `json:"price_variance"`
	PriceSpread   decimal.NullDecimal `json:"price_spread"`
	// TimeInterval 仅 twap，单位秒
	TimeInterval int `json:"time_interval,omitempty"`
}

// OrderIntent 统一下单意图
//
// 字段与作用：
//
//	TriggerPrice     设置触发腿（trigger 委托）
//	StopLoss         设置结构化止损腿，可单独指定委托价
//	TakeProfit       设置结构化止盈腿，可单独指定委托价
//	StopLossPrice    离散止损触发价（conditional / oco）
//	TakeProfitPrice  离散止盈触发价（conditional / oco）
//	TrailingPercent  移动止盈止损，回调比例的百分数
//	Strategy         冰山 / 时间加权
//	MarginMode       覆盖默认保证金模式
//	TargetCurrency   覆盖现货市价单的计价单位
//	Extra            额外的原样线上字段，不能与上述字段冲突
type OrderIntent struct {
	Symbol string    `json:"symbol"`
	Type   OrderType `json:"type"`
	Side   OrderSide `json:"side"`

	Amount decimal.NullDecimal `json:"amount"`
	Price  decimal.NullDecimal `json:"price"`
	// Cost 现货市价买单按成交额下单
	Cost decimal.NullDecimal `json:"cost"`

	TriggerPrice     decimal.NullDecimal `json:"trigger_price"`
	TriggerPriceType TriggerPriceType    `json:"trigger_price_type,omitempty"`
	StopLoss         *StopLeg            `json:"stop_loss,omitempty"`
	TakeProfit       *StopLeg            `json:"take_profit,omitempty"`
	StopLossPrice    decimal.NullDecimal `json:"stop_loss_price"`
	TakeProfitPrice  decimal.NullDecimal `json:"take_profit_price"`
	TrailingPercent  decimal.NullDecimal `json:"trailing_percent"`
	Strategy         *Strategy           `json:"strategy,omitempty"`

	MarginMode     MarginMode     `json:"margin_mode,omitempty"`
	TargetCurrency TargetCurrency `json:"target_currency,omitempty"`
	PostOnly       bool           `json:"post_only,omitempty"`
	TimeInForce    TimeInForce    `json:"time_in_force,omitempty"`
	ReduceOnly     bool           `json:"reduce_only,omitempty"`
	PositionSide   PositionSide   `json:"position_side,omitempty"`
	// Hedged 双向持仓模式，为空时按单向持仓处理
	Hedged        bool   `json:"hedged,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`

	Extra map[string]string `json:"extra,omitempty"`
}

// IsMarket 市价单
func (i *OrderIntent) IsMarket() bool {
	return i.Type == OrderTypeMarket
}

// HasProtection 是否携带任意止盈/止损腿
func (i *OrderIntent) HasProtection() bool {
	return i.StopLoss != nil || i.TakeProfit != nil || i.StopLossPrice.Valid || i.TakeProfitPrice.Valid
}

// Validate 只做与交易所无关的基本校验
func (i *OrderIntent) Validate() error {
	if i.Symbol == "" {
		return NewError(KindBadRequest, "", "symbol is required")
	}
	switch i.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return NewError(KindInvalidOrder, "", fmt.Sprintf("invalid side %q", i.Side))
	}
	switch i.Type {
	case OrderTypeMarket, OrderTypeLimit:
	default:
		return NewError(KindInvalidOrder, "", fmt.Sprintf("invalid order type %q", i.Type))
	}
	switch i.TimeInForce {
	case "", TimeInForceGTC, TimeInForceIOC, TimeInForceFOK, TimeInForcePO:
	default:
		return NewError(KindInvalidOrder, "", fmt.Sprintf("invalid time in force %q", i.TimeInForce))
	}
	switch i.MarginMode {
	case "", MarginModeCross, MarginModeIsolated:
	default:
		return NewError(KindInvalidOrder, "", fmt.Sprintf("invalid margin mode %q", i.MarginMode))
	}
	if i.Amount.Valid && !i.Amount.Decimal.IsPositive() {
		return NewError(KindInvalidOrder, "", "amount must be positive")
	}
	if !i.Amount.Valid && !i.Cost.Valid {
		return NewError(KindInvalidOrder, "", "amount is required")
	}
	if i.Price.Valid && !i.Price.Decimal.IsPositive() {
		return NewError(KindInvalidOrder, "", "price must be positive")
	}
	if i.Cost.Valid && !i.Cost.Decimal.IsPositive() {
		return NewError(KindInvalidOrder, "", "cost must be positive")
	}
	if i.TrailingPercent.Valid && !i.TrailingPercent.Decimal.IsPositive() {
		return NewError(KindInvalidOrder, "", "trailing percent must be positive")
	}
	if err := ValidateClientOrderID(i.ClientOrderID); err != nil {
		return err
	}
	// 同一保护腿不能同时给出结构化参数和离散触发价
	if i.StopLoss != nil && i.StopLossPrice.Valid {
		return NewError(KindInvalidOrder, CodeConflictingParams, "conflicting protective parameters: stop loss given twice")
	}
	if i.TakeProfit != nil && i.TakeProfitPrice.Valid {
		return NewError(KindInvalidOrder, CodeConflictingParams, "conflicting protective parameters: take profit given twice")
	}
	// 结构化腿与离散触发价不能混用
	if (i.StopLoss != nil || i.TakeProfit != nil) && (i.StopLossPrice.Valid || i.TakeProfitPrice.Valid) {
		return NewError(KindInvalidOrder, CodeConflictingParams, "conflicting protective parameters: structured and discrete legs mixed")
	}
	if i.TriggerPrice.Valid && i.HasProtection() {
		return NewError(KindInvalidOrder, CodeConflictingParams, "conflicting protective parameters: trigger price with stop loss or take profit")
	}
	return nil
}

// ValidateClientOrderID 客户端订单号：1-32 位字母数字，首位为字母，空串表示不提供
func ValidateClientOrderID(id string) error {
	if id == "" {
		return nil
	}
	if len(id) > 32 {
		return NewError(KindInvalidOrder, CodeInvalidClientOrderID, "client order id exceeds 32 characters")
	}
	for n, c := range id {
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if n == 0 && !letter {
			return NewError(KindInvalidOrder, CodeInvalidClientOrderID, "client order id must start with a letter")
		}
		if !letter && !digit {
			return NewError(KindInvalidOrder, CodeInvalidClientOrderID, "client order id must be alphanumeric")
		}
	}
	return nil
}

// ValidateBrokerID 经纪商标识同时用作客户端订单号前缀，规则相同且不超过 16 位
func ValidateBrokerID(id string) error {
	if len(id) > 16 {
		return NewError(KindBadRequest, "", "broker id exceeds 16 characters")
	}
	return ValidateClientOrderID(id)
}

// EditIntent 改单意图
type EditIntent struct {
	Symbol        string              `json:"symbol"`
	ID            string              `json:"id,omitempty"`
	ClientOrderID string              `json:"client_order_id,omitempty"`
	NewAmount     decimal.NullDecimal `json:"new_amount"`
	NewPrice      decimal.NullDecimal `json:"new_price"`
	// CancelOnFail 改单失败时自动撤单
	CancelOnFail bool              `json:"cancel_on_fail,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Validate 改单至少需要订单号与一个新值
func (e *EditIntent) Validate() error {
	if e.Symbol == "" {
		return NewError(KindBadRequest, "", "symbol is required")
	}
	if e.ID == "" && e.ClientOrderID == "" {
		return NewError(KindBadRequest, "", "order id or client order id is required")
	}
	if !e.NewAmount.Valid && !e.NewPrice.Valid {
		return NewError(KindBadRequest, "", "new amount or new price is required")
	}
	return nil
}

// OrderRef 订单引用（撤单、查单）
// Trigger 为 true 时指向策略委托
type OrderRef struct {
	Symbol        string `json:"symbol"`
	ID            string `json:"id,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	Trigger       bool   `json:"trigger,omitempty"`
	// AlgoType 查询/撤销策略委托时的 ordType，为空时使用 conditional
	AlgoType string `json:"algo_type,omitempty"`
}

// Validate 订单引用至少需要一个订单号
func (r *OrderRef) Validate() error {
	if r.Symbol == "" {
		return NewError(KindBadRequest, "", "symbol is required")
	}
	if r.ID == "" && r.ClientOrderID == "" {
		return NewError(KindBadRequest, "", "order id or client order id is required")
	}
	return nil
}

// OrderQuery 订单列表查询
type OrderQuery struct {
	Symbol   string     `json:"symbol,omitempty"`
	Type     MarketType `json:"type,omitempty"`
	Since    int64      `json:"since,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Trigger  bool       `json:"trigger,omitempty"`
	AlgoType string     `json:"algo_type,omitempty"`
}

// TradeQuery 成交记录查询
type TradeQuery struct {
	Symbol  string     `json:"symbol,omitempty"`
	Type    MarketType `json:"type,omitempty"`
	OrderID string     `json:"order_id,omitempty"`
	Since   int64      `json:"since,omitempty"`
	Limit   int        `json:"limit,omitempty"`
}

// LedgerQuery 账单查询
type LedgerQuery struct {
	Currency string `json:"currency,omitempty"`
	Since    int64  `json:"since,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// TransferIntent 资金划转意图
type TransferIntent struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	From     AccountType     `json:"from"`
	To       AccountType     `json:"to"`
	ClientID string          `json:"client_id,omitempty"`
}

// Validate 划转参数校验
func (t *TransferIntent) Validate() error {
	if t.Currency == "" {
		return NewError(KindBadRequest, "", "currency is required")
	}
	if !t.Amount.IsPositive() {
		return NewError(KindBadRequest, "", "amount must be positive")
	}
	for _, a := range []AccountType{t.From, t.To} {
		if a != AccountFunding && a != AccountTrading {
			return NewError(KindBadRequest, "", fmt.Sprintf("unknown account %q", a))
		}
	}
	if t.From == t.To {
		return NewError(KindBadRequest, "", "from and to account must differ")
	}
	return nil
}
