package application

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func sampleMarkets() []*domain.Market {
	return []*domain.Market{
		{ID: "ETH-USDT", Symbol: "ETH/USDT", Base: "ETH", Quote: "USDT", Type: domain.MarketTypeSpot, Active: true},
		{ID: "BTC-USDT", Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", Type: domain.MarketTypeSpot, Active: true},
		{
			ID: "BTC-USDT-SWAP", Symbol: "BTC/USDT:USDT", Base: "BTC", Quote: "USDT", Settle: "USDT",
			Type: domain.MarketTypeSwap, Contract: true, Linear: true, Active: true, ContractSize: dec("0.01"),
		},
	}
}

// fakeSource 可阻塞的市场来源，用于验证并发加载只发生一次
type fakeSource struct {
	markets    []*domain.Market
	currencies []*domain.Currency
	err        error
	gate       chan struct{}
	started    chan struct{}
	calls      atomic.Int32
	curCalls   atomic.Int32
	once       sync.Once
}

func (f *fakeSource) FetchMarkets(ctx context.Context) ([]*domain.Market, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.markets, f.err
}

func (f *fakeSource) FetchCurrencies(context.Context) ([]*domain.Currency, error) {
	f.curCalls.Add(1)
	return f.currencies, f.err
}

type memoryRepo struct {
	mu      sync.Mutex
	markets []*domain.Market
	saves   int
	loadErr error
}

func (r *memoryRepo) SaveAll(_ context.Context, markets []*domain.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets = markets
	r.saves++
	return nil
}

func (r *memoryRepo) LoadAll(context.Context) ([]*domain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markets, r.loadErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

// fakeClient 只实现测试用到的返回值，其余方法返回零值
type fakeClient struct {
	order     *domain.Order
	orders    []*domain.Order
	transfer  *domain.Transfer
	balance   *domain.Balance
	err       error
	calls     []string
	lastQuery any
}

var _ domain.ExchangeClient = (*fakeClient)(nil)

func (f *fakeClient) record(name string, q any) {
	f.calls = append(f.calls, name)
	f.lastQuery = q
}

func (f *fakeClient) CreateOrder(_ context.Context, in *domain.OrderIntent) (*domain.Order, error) {
	f.record("CreateOrder", in)
	return f.order, f.err
}

func (f *fakeClient) CreateOrders(_ context.Context, in []*domain.OrderIntent) ([]*domain.Order, error) {
	f.record("CreateOrders", in)
	return f.orders, f.err
}

func (f *fakeClient) EditOrder(_ context.Context, in *domain.EditIntent) (*domain.Order, error) {
	f.record("EditOrder", in)
	return f.order, f.err
}

func (f *fakeClient) CancelOrder(_ context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	f.record("CancelOrder", ref)
	return f.order, f.err
}

func (f *fakeClient) CancelOrders(_ context.Context, refs []*domain.OrderRef) ([]*domain.Order, error) {
	f.record("CancelOrders", refs)
	return f.orders, f.err
}

func (f *fakeClient) FetchOrder(_ context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	f.record("FetchOrder", ref)
	return f.order, f.err
}

func (f *fakeClient) FetchOpenOrders(_ context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	f.record("FetchOpenOrders", q)
	return f.orders, f.err
}

func (f *fakeClient) FetchClosedOrders(_ context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	f.record("FetchClosedOrders", q)
	return f.orders, f.err
}

func (f *fakeClient) FetchMyTrades(_ context.Context, q *domain.TradeQuery) ([]*domain.Trade, error) {
	f.record("FetchMyTrades", q)
	return nil, f.err
}

func (f *fakeClient) FetchPositions(_ context.Context, symbols []string) ([]*domain.Position, error) {
	f.record("FetchPositions", symbols)
	return nil, f.err
}

func (f *fakeClient) FetchBalance(_ context.Context, account domain.AccountType) (*domain.Balance, error) {
	f.record("FetchBalance", account)
	return f.balance, f.err
}

func (f *fakeClient) Transfer(_ context.Context, in *domain.TransferIntent) (*domain.Transfer, error) {
	f.record("Transfer", in)
	return f.transfer, f.err
}

func (f *fakeClient) FetchTransfer(_ context.Context, id, _ string) (*domain.Transfer, error) {
	f.record("FetchTransfer", id)
	return f.transfer, f.err
}

func (f *fakeClient) FetchLedger(_ context.Context, q *domain.LedgerQuery) ([]*domain.LedgerEntry, error) {
	f.record("FetchLedger", q)
	return nil, f.err
}
