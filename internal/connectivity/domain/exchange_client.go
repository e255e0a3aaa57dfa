package domain

import "context"

// ExchangeClient 交易所客户端接口
// 所有方法只做一次网络往返（分页查询除外），从不自动重试
type ExchangeClient interface {
	CreateOrder(ctx context.Context, intent *OrderIntent) (*Order, error)
	// CreateOrders 批量下单，单笔失败体现在 Order.Rejection 中，不会使整个调用失败
	CreateOrders(ctx context.Context, intents []*OrderIntent) ([]*Order, error)
	EditOrder(ctx context.Context, intent *EditIntent) (*Order, error)
	CancelOrder(ctx context.Context, ref *OrderRef) (*Order, error)
	CancelOrders(ctx context.Context, refs []*OrderRef) ([]*Order, error)

	FetchOrder(ctx context.Context, ref *OrderRef) (*Order, error)
	FetchOpenOrders(ctx context.Context, q *OrderQuery) ([]*Order, error)
	FetchClosedOrders(ctx context.Context, q *OrderQuery) ([]*Order, error)
	FetchMyTrades(ctx context.Context, q *TradeQuery) ([]*Trade, error)

	FetchPositions(ctx context.Context, symbols []string) ([]*Position, error)
	FetchBalance(ctx context.Context, account AccountType) (*Balance, error)
	Transfer(ctx context.Context, intent *TransferIntent) (*Transfer, error)
	FetchTransfer(ctx context.Context, id, currency string) (*Transfer, error)
	FetchLedger(ctx context.Context, q *LedgerQuery) ([]*LedgerEntry, error)
}

// MarketSource 市场元数据来源（公共接口，不依赖市场缓存）
type MarketSource interface {
	FetchMarkets(ctx context.Context) ([]*Market, error)
	FetchCurrencies(ctx context.Context) ([]*Currency, error)
}
