package okx

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// ParsePosition 解析持仓
// 单向持仓（posSide=net）时方向取自 pos 的符号
func ParsePosition(w *WirePosition, m *domain.Market) *domain.Position {
	pos := optDecimal(w.Pos)
	p := &domain.Position{
		ID:                  optString(w.PosID),
		Symbol:              symbolOf(w.InstID, m),
		EntryPrice:          optDecimal(w.AvgPx),
		MarkPrice:           optDecimal(w.MarkPx),
		Leverage:            optDecimal(w.Lever),
		LiquidationPrice:    optDecimal(w.LiqPx),
		UnrealizedPnl:       optDecimal(w.Upl),
		RealizedPnl:         optDecimal(w.RealizedPnl),
		MaintenanceMargin:   optDecimal(w.Mmr),
		MarginRatio:         optDecimal(w.MgnRatio),
		Timestamp:           optMillis(w.UTime),
		LastUpdateTimestamp: optMillis(w.UTime),
	}
	if p.Timestamp == 0 {
		p.Timestamp = optMillis(w.CTime)
	}

	switch side := optString(w.PosSide); side {
	case string(domain.PositionSideLong), string(domain.PositionSideShort):
		p.Side = domain.PositionSide(side)
		p.Hedged = true
	default:
		if pos.Valid && pos.Decimal.IsPositive() {
			p.Side = domain.PositionSideLong
		} else if pos.Valid && pos.Decimal.IsNegative() {
			p.Side = domain.PositionSideShort
		}
	}
	if pos.Valid {
		p.Contracts = decimal.NewNullDecimal(pos.Decimal.Abs())
	}
	if m != nil {
		p.ContractSize = m.ContractSize
	}

	// 反向合约的面值以计价币表示，名义价值不乘标记价格
	inverse := m != nil && m.Inverse
	switch {
	case inverse && p.Contracts.Valid && p.ContractSize.Valid:
		p.Notional = decimal.NewNullDecimal(p.Contracts.Decimal.Mul(p.ContractSize.Decimal))
	case inverse:
		p.Notional = optDecimal(w.NotionalUsd)
	case p.Contracts.Valid && p.MarkPrice.Valid:
		size := decimal.NewFromInt(1)
		if p.ContractSize.Valid {
			size = p.ContractSize.Decimal
		}
		p.Notional = decimal.NewNullDecimal(p.Contracts.Decimal.Mul(size).Mul(p.MarkPrice.Decimal))
	default:
		p.Notional = optDecimal(w.NotionalUsd)
	}

	if ratio := optDecimal(w.UplRatio); ratio.Valid {
		p.Percentage = decimal.NewNullDecimal(ratio.Decimal.Mul(decimal.NewFromInt(100)))
	}

	// 逐仓的保证金直接给出，全仓需要用初始保证金加未实现盈亏
	switch mode := optString(w.MgnMode); mode {
	case string(domain.MarginModeCross):
		p.MarginMode = domain.MarginModeCross
		p.InitialMargin = optDecimal(w.Imr)
		if p.InitialMargin.Valid && p.UnrealizedPnl.Valid {
			p.Collateral = decimal.NewNullDecimal(p.InitialMargin.Decimal.Add(p.UnrealizedPnl.Decimal))
		}
	case string(domain.MarginModeIsolated):
		p.MarginMode = domain.MarginModeIsolated
		p.Collateral = optDecimal(w.Margin)
		if p.Notional.Valid && p.Leverage.Valid && !p.Leverage.Decimal.IsZero() {
			p.InitialMargin = decimal.NewNullDecimal(p.Notional.Decimal.DivRound(p.Leverage.Decimal, 16))
		}
	}
	return p
}

// ParseTradingBalance 交易账户余额
func ParseTradingBalance(ws []WireTradingBalance) *domain.Balance {
	b := &domain.Balance{Account: domain.AccountTrading, Assets: make(map[string]domain.BalanceEntry)}
	if len(ws) == 0 {
		return b
	}
	b.Timestamp = optMillis(ws[0].UTime)
	for _, d := range ws[0].Details {
		ccy := optString(d.Ccy)
		if ccy == "" {
			continue
		}
		b.Assets[ccy] = domain.BalanceEntry{
			Free:  optDecimal(d.AvailBal),
			Used:  optDecimal(d.FrozenBal),
			Total: optDecimal(d.Eq),
		}
	}
	return b
}

// ParseFundingBalance 资金账户余额
func ParseFundingBalance(ws []WireFundingBalance) *domain.Balance {
	b := &domain.Balance{Account: domain.AccountFunding, Assets: make(map[string]domain.BalanceEntry, len(ws))}
	for _, w := range ws {
		ccy := optString(w.Ccy)
		if ccy == "" {
			continue
		}
		b.Assets[ccy] = domain.BalanceEntry{
			Free:  optDecimal(w.AvailBal),
			Used:  optDecimal(w.FrozenBal),
			Total: optDecimal(w.Bal),
		}
	}
	return b
}

// ParseTrade 解析成交明细，billId 作为分页游标
func ParseTrade(w *WireFill, m *domain.Market) *domain.Trade {
	t := &domain.Trade{
		ID:            optString(w.TradeID),
		OrderID:       optString(w.OrdID),
		ClientOrderID: optString(w.ClOrdID),
		Symbol:        symbolOf(w.InstID, m),
		Side:          domain.OrderSide(optString(w.Side)),
		Timestamp:     optMillis(w.Ts),
		Cursor:        optString(w.BillID),
	}
	switch w.ExecType {
	case "T":
		t.TakerOrMaker = domain.Taker
	case "M":
		t.TakerOrMaker = domain.Maker
	}
	price, amount := optDecimal(w.FillPx), optDecimal(w.FillSz)
	if price.Valid {
		t.Price = price.Decimal
	}
	if amount.Valid {
		t.Amount = amount.Decimal
	}
	if price.Valid && amount.Valid {
		t.Cost = filledCost(amount, price, m)
	}
	t.Fee = parseFee(w.Fee, w.FeeCcy)
	return t
}

// 划转账户编号
const (
	accountIDFunding = "6"
	accountIDTrading = "18"
)

// AccountID 账户类型到线上编号
func AccountID(a domain.AccountType) string {
	switch a {
	case domain.AccountFunding:
		return accountIDFunding
	case domain.AccountTrading:
		return accountIDTrading
	}
	return string(a)
}

func accountOf(id string) domain.AccountType {
	switch id {
	case accountIDFunding:
		return domain.AccountFunding
	case accountIDTrading:
		return domain.AccountTrading
	}
	return domain.AccountType(id)
}

// ParseTransfer 解析划转记录
// 提交接口不返回状态，此时视为 pending，需要通过查询确认
func ParseTransfer(w *WireTransfer) *domain.Transfer {
	t := &domain.Transfer{
		ID:          optString(w.TransID),
		ClientID:    optString(w.ClientID),
		Currency:    optString(w.Ccy),
		FromAccount: accountOf(optString(w.From)),
		ToAccount:   accountOf(optString(w.To)),
		Timestamp:   optMillis(w.Ts),
	}
	if amt := optDecimal(w.Amt); amt.Valid {
		t.Amount = amt.Decimal
	}
	switch optString(w.State) {
	case "success":
		t.Status = domain.TransferOK
	case "failed":
		t.Status = domain.TransferFailed
	default:
		t.Status = domain.TransferPending
	}
	return t
}

// billTypes 账单类型，未列出的原样保留
var billTypes = map[string]string{
	"1":  "transfer",
	"2":  "trade",
	"3":  "trade",
	"4":  "rebate",
	"5":  "trade",
	"6":  "transfer",
	"7":  "trade",
	"8":  "fee",
	"9":  "trade",
	"10": "trade",
	"11": "trade",
}

// ParseLedgerEntry 解析账单流水
// 方向取自 balChg 的符号，变动前余额 = bal - balChg
func ParseLedgerEntry(w *WireBill, m *domain.Market) *domain.LedgerEntry {
	e := &domain.LedgerEntry{
		ID:          optString(w.BillID),
		Currency:    optString(w.Ccy),
		ReferenceID: optString(w.OrdID),
		Timestamp:   optMillis(w.Ts),
		Fee:         parseFee(w.Fee, w.Ccy),
	}
	if id := optString(w.InstID); id != "" {
		e.Symbol = symbolOf(id, m)
	}
	e.Type = optString(w.Type)
	if t, ok := billTypes[e.Type]; ok {
		e.Type = t
	}

	change := optDecimal(w.BalChg)
	after := optDecimal(w.Bal)
	e.After = after
	if change.Valid {
		e.Amount = change.Decimal.Abs()
		if change.Decimal.IsNegative() {
			e.Direction = domain.LedgerOut
		} else {
			e.Direction = domain.LedgerIn
		}
		if after.Valid {
			e.Before = decimal.NewNullDecimal(after.Decimal.Sub(change.Decimal))
		}
	}
	return e
}
