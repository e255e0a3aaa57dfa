package domain

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/pkg/precise"
)

// AmountToPrecision 数量按 lot size 向零截断，绝不向上取整，避免超额下单
// 精度未知时原样返回
func AmountToPrecision(m *Market, amount string) (string, error) {
	return toStep(amount, stepOf(m, true), precise.Truncate)
}

// PriceToPrecision 价格按 tick size 四舍五入（恰好一半时远离零）
func PriceToPrecision(m *Market, price string) (string, error) {
	return toStep(price, stepOf(m, false), precise.Round)
}

// CostToPrecision 成交额截断，规则与数量一致
// 现货市价买单按报价货币下单，步长取价格精度
func CostToPrecision(m *Market, cost string) (string, error) {
	return toStep(cost, stepOf(m, false), precise.Truncate)
}

func stepOf(m *Market, amount bool) decimal.NullDecimal {
	if m == nil {
		return decimal.NullDecimal{}
	}
	if amount {
		return m.Precision.Amount
	}
	return m.Precision.Price
}

func toStep(value string, step decimal.NullDecimal, mode precise.RoundingMode) (string, error) {
	if !step.Valid || !step.Decimal.IsPositive() {
		return precise.Normalize(value)
	}
	return precise.ToPrecision(value, step.Decimal.String(), mode)
}
