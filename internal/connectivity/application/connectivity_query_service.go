package application

import (
	"context"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// ConnectivityQueryService 处理所有只读查询（Queries）。
type ConnectivityQueryService struct {
	client  domain.ExchangeClient
	markets *MarketService
}

// NewConnectivityQueryService 构造函数。
func NewConnectivityQueryService(client domain.ExchangeClient, markets *MarketService) *ConnectivityQueryService {
	return &ConnectivityQueryService{client: client, markets: markets}
}

// GetOrder 查询单个订单
func (s *ConnectivityQueryService) GetOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.client.FetchOrder(ctx, ref)
}

// ListOpenOrders 未完成订单
func (s *ConnectivityQueryService) ListOpenOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	return s.client.FetchOpenOrders(ctx, orDefault(q))
}

// ListClosedOrders 历史订单
func (s *ConnectivityQueryService) ListClosedOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	return s.client.FetchClosedOrders(ctx, orDefault(q))
}

// ListTrades 成交明细
func (s *ConnectivityQueryService) ListTrades(ctx context.Context, q *domain.TradeQuery) ([]*domain.Trade, error) {
	if q == nil {
		q = &domain.TradeQuery{}
	}
	return s.client.FetchMyTrades(ctx, q)
}

// ListPositions 持仓，symbols 为空时返回全部
func (s *ConnectivityQueryService) ListPositions(ctx context.Context, symbols []string) ([]*domain.Position, error) {
	return s.client.FetchPositions(ctx, symbols)
}

// GetBalance 账户余额，默认交易账户
func (s *ConnectivityQueryService) GetBalance(ctx context.Context, account domain.AccountType) (*domain.Balance, error) {
	if account == "" {
		account = domain.AccountTrading
	}
	return s.client.FetchBalance(ctx, account)
}

// GetTransfer 查询划转状态
func (s *ConnectivityQueryService) GetTransfer(ctx context.Context, id, currency string) (*domain.Transfer, error) {
	if id == "" {
		return nil, domain.NewError(domain.KindBadRequest, "", "transfer id is required")
	}
	return s.client.FetchTransfer(ctx, id, currency)
}

// ListLedger 账单流水
func (s *ConnectivityQueryService) ListLedger(ctx context.Context, q *domain.LedgerQuery) ([]*domain.LedgerEntry, error) {
	if q == nil {
		q = &domain.LedgerQuery{}
	}
	return s.client.FetchLedger(ctx, q)
}

// ListMarkets 缓存中的全部市场
func (s *ConnectivityQueryService) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	return s.markets.Markets(ctx)
}

// GetMarket 按统一符号查询市场
func (s *ConnectivityQueryService) GetMarket(ctx context.Context, symbol string) (*domain.Market, error) {
	return s.markets.Market(ctx, symbol)
}

// ListCurrencies 币种列表
func (s *ConnectivityQueryService) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return s.markets.Currencies(ctx)
}

func orDefault(q *domain.OrderQuery) *domain.OrderQuery {
	if q == nil {
		return &domain.OrderQuery{}
	}
	return q
}
