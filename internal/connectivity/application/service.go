package application

import (
	"context"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// ConnectivityService 连接服务门面。
type ConnectivityService struct {
	Command *ConnectivityCommandService
	Query   *ConnectivityQueryService
	Markets *MarketService
}

// NewConnectivityService 构造函数。
func NewConnectivityService(client domain.ExchangeClient, markets *MarketService, publisher domain.OrderEventPublisher) *ConnectivityService {
	return &ConnectivityService{
		Command: NewConnectivityCommandService(client, publisher),
		Query:   NewConnectivityQueryService(client, markets),
		Markets: markets,
	}
}

// --- Command Facade ---

func (s *ConnectivityService) CreateOrder(ctx context.Context, intent *domain.OrderIntent) (*domain.Order, error) {
	return s.Command.CreateOrder(ctx, intent)
}

func (s *ConnectivityService) CreateOrders(ctx context.Context, intents []*domain.OrderIntent) ([]*domain.Order, error) {
	return s.Command.CreateOrders(ctx, intents)
}

func (s *ConnectivityService) EditOrder(ctx context.Context, intent *domain.EditIntent) (*domain.Order, error) {
	return s.Command.EditOrder(ctx, intent)
}

func (s *ConnectivityService) CancelOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	return s.Command.CancelOrder(ctx, ref)
}

func (s *ConnectivityService) CancelOrders(ctx context.Context, refs []*domain.OrderRef) ([]*domain.Order, error) {
	return s.Command.CancelOrders(ctx, refs)
}

func (s *ConnectivityService) Transfer(ctx context.Context, intent *domain.TransferIntent) (*domain.Transfer, error) {
	return s.Command.Transfer(ctx, intent)
}

func (s *ConnectivityService) ReconcileOrder(ctx context.Context, ref *domain.OrderRef, known domain.OrderStatus) (*domain.Order, error) {
	return s.Command.ReconcileOrder(ctx, ref, known)
}

// ReloadMarkets 强制刷新市场缓存
func (s *ConnectivityService) ReloadMarkets(ctx context.Context) ([]*domain.Market, error) {
	return s.Markets.Reload(ctx)
}

// --- Query Facade ---

func (s *ConnectivityService) GetOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	return s.Query.GetOrder(ctx, ref)
}

func (s *ConnectivityService) ListOpenOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	return s.Query.ListOpenOrders(ctx, q)
}

func (s *ConnectivityService) ListClosedOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	return s.Query.ListClosedOrders(ctx, q)
}

func (s *ConnectivityService) ListTrades(ctx context.Context, q *domain.TradeQuery) ([]*domain.Trade, error) {
	return s.Query.ListTrades(ctx, q)
}

func (s *ConnectivityService) ListPositions(ctx context.Context, symbols []string) ([]*domain.Position, error) {
	return s.Query.ListPositions(ctx, symbols)
}

func (s *ConnectivityService) GetBalance(ctx context.Context, account domain.AccountType) (*domain.Balance, error) {
	return s.Query.GetBalance(ctx, account)
}

func (s *ConnectivityService) GetTransfer(ctx context.Context, id, currency string) (*domain.Transfer, error) {
	return s.Query.GetTransfer(ctx, id, currency)
}

func (s *ConnectivityService) ListLedger(ctx context.Context, q *domain.LedgerQuery) ([]*domain.LedgerEntry, error) {
	return s.Query.ListLedger(ctx, q)
}

func (s *ConnectivityService) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	return s.Query.ListMarkets(ctx)
}

func (s *ConnectivityService) GetMarket(ctx context.Context, symbol string) (*domain.Market, error) {
	return s.Query.GetMarket(ctx, symbol)
}

func (s *ConnectivityService) ListCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	return s.Query.ListCurrencies(ctx)
}
