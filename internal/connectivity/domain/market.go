package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketType 市场类型
type MarketType string

const (
	MarketTypeSpot   MarketType = "spot"
	MarketTypeMargin MarketType = "margin"
	MarketTypeSwap   MarketType = "swap"
	MarketTypeFuture MarketType = "future"
	MarketTypeOption MarketType = "option"
)

// Precision 精度信息，以步长表示（tick size / lot size），而非小数位数
type Precision struct {
	// Amount 数量步长（lot size）
	Amount decimal.NullDecimal `json:"amount"`
	// Price 价格步长（tick size）
	Price decimal.NullDecimal `json:"price"`
}

// MinMax 上下限
type MinMax struct {
	Min decimal.NullDecimal `json:"min"`
	Max decimal.NullDecimal `json:"max"`
}

// Limits 下单限制
type Limits struct {
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
	Leverage MinMax `json:"leverage"`
}

// Market 市场信息
// 缓存加载后只读，任何字段都不会被修改
type Market struct {
	// ID 交易所市场 ID，如 "BTC-USDT-SWAP"
	ID string `json:"id"`
	// Symbol 统一符号，如 "BTC/USDT" 或 "BTC/USDT:USDT"
	Symbol string `json:"symbol"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	// Settle 结算货币（仅合约）
	Settle string     `json:"settle,omitempty"`
	Type   MarketType `json:"type"`
	// Margin 现货是否支持杠杆交易
	Margin   bool `json:"margin"`
	Contract bool `json:"contract"`
	Linear   bool `json:"linear,omitempty"`
	Inverse  bool `json:"inverse,omitempty"`
	Active   bool `json:"active"`
	// ContractSize 每张合约对应的标的数量
	ContractSize decimal.NullDecimal `json:"contract_size"`
	// Expiry 到期时间（毫秒），永续与现货为 0
	Expiry     int64               `json:"expiry,omitempty"`
	Strike     decimal.NullDecimal `json:"strike"`
	OptionType string              `json:"option_type,omitempty"`
	InstFamily string              `json:"inst_family,omitempty"`
	Precision  Precision           `json:"precision"`
	Limits     Limits              `json:"limits"`
}

// IsSpot 现货（含现货杠杆）
func (m *Market) IsSpot() bool {
	return m.Type == MarketTypeSpot || m.Type == MarketTypeMargin
}

// Currency 币种信息
type Currency struct {
	Code      string              `json:"code"`
	ID        string              `json:"id"`
	Name      string              `json:"name,omitempty"`
	Active    bool                `json:"active"`
	Deposit   bool                `json:"deposit"`
	Withdraw  bool                `json:"withdraw"`
	Precision decimal.NullDecimal `json:"precision"`
	Networks  []CurrencyNetwork   `json:"networks,omitempty"`
}

// CurrencyNetwork 币种的链上网络
type CurrencyNetwork struct {
	ID          string              `json:"id"`
	Deposit     bool                `json:"deposit"`
	Withdraw    bool                `json:"withdraw"`
	Fee         decimal.NullDecimal `json:"fee"`
	MinWithdraw decimal.NullDecimal `json:"min_withdraw"`
}

// MarketLookup 市场查询接口
// 实现方负责在首次查询时加载缓存，并发调用共享同一次加载
type MarketLookup interface {
	Market(ctx context.Context, symbol string) (*Market, error)
	MarketByID(ctx context.Context, id string) (*Market, error)
}

// MarketRepository 市场快照仓储（Redis），用于进程重启后的预热
type MarketRepository interface {
	SaveAll(ctx context.Context, markets []*Market) error
	LoadAll(ctx context.Context) ([]*Market, error)
}
