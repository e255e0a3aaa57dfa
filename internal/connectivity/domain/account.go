package domain

import (
	"github.com/shopspring/decimal"
)

// PositionSide 持仓方向
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Position 持仓快照
type Position struct {
	ID           string              `json:"id,omitempty"`
	Symbol       string              `json:"symbol"`
	Side         PositionSide        `json:"side,omitempty"`
	MarginMode   MarginMode          `json:"margin_mode,omitempty"`
	Hedged       bool                `json:"hedged"`
	Contracts    decimal.NullDecimal `json:"contracts"`
	ContractSize decimal.NullDecimal `json:"contract_size"`
	Notional     decimal.NullDecimal `json:"notional"`
	EntryPrice   decimal.NullDecimal `json:"entry_price"`
	MarkPrice    decimal.NullDecimal `json:"mark_price"`
	Leverage     decimal.NullDecimal `json:"leverage"`

	LiquidationPrice  decimal.NullDecimal `json:"liquidation_price"`
	UnrealizedPnl     decimal.NullDecimal `json:"unrealized_pnl"`
	RealizedPnl       decimal.NullDecimal `json:"realized_pnl"`
	Percentage        decimal.NullDecimal `json:"percentage"`
	InitialMargin     decimal.NullDecimal `json:"initial_margin"`
	MaintenanceMargin decimal.NullDecimal `json:"maintenance_margin"`
	Collateral        decimal.NullDecimal `json:"collateral"`
	MarginRatio       decimal.NullDecimal `json:"margin_ratio"`

	Timestamp           int64 `json:"timestamp,omitempty"`
	LastUpdateTimestamp int64 `json:"last_update_timestamp,omitempty"`
}

// AccountType 账户类型
type AccountType string

const (
	AccountFunding AccountType = "funding"
	AccountTrading AccountType = "trading"
)

// BalanceEntry 单币种余额
type BalanceEntry struct {
	Free  decimal.NullDecimal `json:"free"`
	Used  decimal.NullDecimal `json:"used"`
	Total decimal.NullDecimal `json:"total"`
}

// Balance 账户余额快照
type Balance struct {
	Account   AccountType             `json:"account"`
	Timestamp int64                   `json:"timestamp,omitempty"`
	Assets    map[string]BalanceEntry `json:"assets"`
}

// Get 按币种取余额，不存在时返回零值
func (b *Balance) Get(currency string) BalanceEntry {
	if b == nil || b.Assets == nil {
		return BalanceEntry{}
	}
	return b.Assets[currency]
}

// TakerOrMaker 成交角色
type TakerOrMaker string

const (
	Taker TakerOrMaker = "taker"
	Maker TakerOrMaker = "maker"
)

// Trade 成交明细快照
type Trade struct {
	ID            string              `json:"id"`
	OrderID       string              `json:"order_id,omitempty"`
	ClientOrderID string              `json:"client_order_id,omitempty"`
	Symbol        string              `json:"symbol"`
	Side          OrderSide           `json:"side"`
	TakerOrMaker  TakerOrMaker        `json:"taker_or_maker,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	Amount        decimal.Decimal     `json:"amount"`
	Cost          decimal.NullDecimal `json:"cost"`
	Fee           *Fee                `json:"fee,omitempty"`
	Timestamp     int64               `json:"timestamp"`
	// Cursor 分页游标（billId），不对外暴露语义
	Cursor string `json:"-"`
}

// TransferStatus 划转状态
type TransferStatus string

const (
	TransferOK      TransferStatus = "ok"
	TransferPending TransferStatus = "pending"
	TransferFailed  TransferStatus = "failed"
)

// Transfer 资金划转快照
type Transfer struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id,omitempty"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	FromAccount AccountType     `json:"from_account,omitempty"`
	ToAccount   AccountType     `json:"to_account,omitempty"`
	Status      TransferStatus  `json:"status"`
	Timestamp   int64           `json:"timestamp,omitempty"`
}

// LedgerDirection 资金流向
type LedgerDirection string

const (
	LedgerIn  LedgerDirection = "in"
	LedgerOut LedgerDirection = "out"
)

// LedgerEntry 账单流水快照
type LedgerEntry struct {
	ID          string              `json:"id"`
	Currency    string              `json:"currency"`
	Symbol      string              `json:"symbol,omitempty"`
	Type        string              `json:"type"`
	Direction   LedgerDirection     `json:"direction"`
	Amount      decimal.Decimal     `json:"amount"`
	Before      decimal.NullDecimal `json:"before"`
	After       decimal.NullDecimal `json:"after"`
	ReferenceID string              `json:"reference_id,omitempty"`
	Fee         *Fee                `json:"fee,omitempty"`
	Timestamp   int64               `json:"timestamp"`
}
