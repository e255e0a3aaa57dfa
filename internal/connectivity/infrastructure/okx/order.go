package okx

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// orderStates 线上状态到统一状态，未列出的状态原样透传
var orderStates = map[string]domain.OrderStatus{
	"live":             domain.OrderStatusOpen,
	"partially_filled": domain.OrderStatusOpen,
	"filled":           domain.OrderStatusClosed,
	"effective":        domain.OrderStatusClosed,
	"canceled":         domain.OrderStatusCanceled,
	"order_failed":     domain.OrderStatusCanceled,
	"mmp_canceled":     domain.OrderStatusCanceled,
}

// ParseOrderStatus 状态映射
func ParseOrderStatus(state string) domain.OrderStatus {
	if s, ok := orderStates[state]; ok {
		return s
	}
	return domain.OrderStatus(state)
}

// ParseOrder 解析单条订单记录
// m 为空时以 instId 作为 symbol
func ParseOrder(w *WireOrder, m *domain.Market) *domain.Order {
	id := optString(w.OrdID)
	if id == "" {
		id = optString(w.AlgoID)
	}
	clientID := optString(w.ClOrdID)
	if clientID == "" {
		clientID = optString(w.AlgoClOrdID)
	}

	// 拒单记录的其他字段通常为空，不再继续解析
	if sCode := string(w.SCode); sCode != "" && sCode != codeOK {
		return &domain.Order{
			ID:            id,
			ClientOrderID: clientID,
			Status:        domain.OrderStatusRejected,
			Rejection:     Classify(sCode, w.SMsg),
		}
	}

	o := &domain.Order{
		ID:                  id,
		ClientOrderID:       clientID,
		Symbol:              symbolOf(w.InstID, m),
		Side:                domain.OrderSide(optString(w.Side)),
		PositionSide:        optString(w.PosSide),
		ReduceOnly:          w.ReduceOnly == "true",
		Timestamp:           optMillis(w.CTime),
		LastUpdateTimestamp: optMillis(w.UTime),
		LastTradeTimestamp:  optMillis(w.FillTime),
	}
	if state := optString(w.State); state != "" {
		o.Status = ParseOrderStatus(state)
	}
	switch w.TdMode {
	case string(domain.MarginModeCross), string(domain.MarginModeIsolated):
		o.MarginMode = domain.MarginMode(w.TdMode)
	}

	parseOrderType(o, w)

	o.Price = optDecimal(w.Px)
	if o.AlgoType != "" {
		o.Price = algoPrice(w)
		o.TriggerPrice = optDecimal(w.TriggerPx)
		o.StopLossPrice = optDecimal(w.SlTriggerPx)
		o.TakeProfitPrice = optDecimal(w.TpTriggerPx)
		if ratio := optDecimal(w.CallbackRatio); ratio.Valid {
			o.TrailingPercent = decimal.NewNullDecimal(ratio.Decimal.Mul(decimal.NewFromInt(100)))
		}
	}

	// 现货市价买单按计价货币下单时 sz 是成交额
	sz := optDecimal(w.Sz)
	quoteSized := m != nil && m.IsSpot() && o.Type == domain.OrderTypeMarket &&
		o.Side == domain.OrderSideBuy && w.TgtCcy == tgtCcyQuote
	if quoteSized {
		o.Cost = sz
	} else {
		o.Amount = sz
	}

	o.Filled = optDecimal(w.AccFillSz)
	o.Average = optDecimal(w.AvgPx)
	if o.Average.Valid && o.Average.Decimal.IsZero() && (!o.Filled.Valid || o.Filled.Decimal.IsZero()) {
		o.Average = decimal.NullDecimal{}
	}
	if o.Amount.Valid && o.Filled.Valid {
		o.Remaining = decimal.NewNullDecimal(o.Amount.Decimal.Sub(o.Filled.Decimal))
	}
	if !quoteSized {
		o.Cost = filledCost(o.Filled, o.Average, m)
	}

	o.Fee = parseFee(w.Fee, w.FeeCcy)
	return o
}

// ParseOrders 逐条解析，拒单不会影响其他记录
func ParseOrders(ws []WireOrder, resolve func(instID string) *domain.Market) []*domain.Order {
	out := make([]*domain.Order, 0, len(ws))
	for i := range ws {
		var m *domain.Market
		if resolve != nil {
			m = resolve(ws[i].InstID)
		}
		out = append(out, ParseOrder(&ws[i], m))
	}
	return out
}

func parseOrderType(o *domain.Order, w *WireOrder) {
	switch ot := optString(w.OrdType); ot {
	case ordTypeMarket:
		o.Type = domain.OrderTypeMarket
	case ordTypeLimit:
		o.Type = domain.OrderTypeLimit
		o.TimeInForce = domain.TimeInForceGTC
	case ordTypePostOnly, "mmp_and_post_only":
		o.Type = domain.OrderTypeLimit
		o.PostOnly = true
		o.TimeInForce = domain.TimeInForcePO
	case ordTypeFOK, "op_fok":
		o.Type = domain.OrderTypeLimit
		o.TimeInForce = domain.TimeInForceFOK
	case ordTypeIOC:
		o.Type = domain.OrderTypeLimit
		o.TimeInForce = domain.TimeInForceIOC
	case ordTypeOptimalLimitIOC:
		o.Type = domain.OrderTypeMarket
		o.TimeInForce = domain.TimeInForceIOC
	case "mmp":
		o.Type = domain.OrderTypeLimit
		o.TimeInForce = domain.TimeInForceGTC
	case "":
	default:
		o.AlgoType = ot
		if algoPrice(w).Valid {
			o.Type = domain.OrderTypeLimit
		} else {
			o.Type = domain.OrderTypeMarket
		}
	}
}

// algoPrice 策略委托触发后的委托价，-1 表示市价
func algoPrice(w *WireOrder) decimal.NullDecimal {
	for _, s := range []string{w.OrderPx, w.SlOrdPx, w.TpOrdPx, w.Px} {
		s = optString(s)
		if s == "" || s == sentinelMarketPx {
			continue
		}
		if d := optDecimal(s); d.Valid {
			return d
		}
	}
	return decimal.NullDecimal{}
}

// filledCost 成交额
// 线性合约与现货为 filled × average × contractSize，反向合约为 filled × contractSize / average
func filledCost(filled, average decimal.NullDecimal, m *domain.Market) decimal.NullDecimal {
	if !filled.Valid {
		return decimal.NullDecimal{}
	}
	if filled.Decimal.IsZero() {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	if !average.Valid || average.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	size := decimal.NewFromInt(1)
	if m != nil && m.Contract && m.ContractSize.Valid {
		size = m.ContractSize.Decimal
	}
	if m != nil && m.Inverse {
		return decimal.NewNullDecimal(filled.Decimal.Mul(size).DivRound(average.Decimal, 16))
	}
	return decimal.NewNullDecimal(filled.Decimal.Mul(average.Decimal).Mul(size))
}

// parseFee 交易所以负数表示扣费，统一为正数成本
func parseFee(fee, ccy string) *domain.Fee {
	f := optDecimal(fee)
	ccy = optString(ccy)
	if !f.Valid || ccy == "" {
		return nil
	}
	return &domain.Fee{Cost: f.Decimal.Neg(), Currency: ccy}
}

func symbolOf(instID string, m *domain.Market) string {
	if m != nil {
		return m.Symbol
	}
	return optString(instID)
}
