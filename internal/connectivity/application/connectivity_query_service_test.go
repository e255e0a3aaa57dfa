package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

func TestQueryDefaults(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{balance: &domain.Balance{Account: domain.AccountTrading}}
	svc := NewConnectivityService(client, NewMarketService(&fakeSource{markets: sampleMarkets()}, nil, nil), nil)

	_, err := svc.ListOpenOrders(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, client.lastQuery.(*domain.OrderQuery))

	_, err = svc.ListTrades(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, client.lastQuery.(*domain.TradeQuery))

	_, err = svc.ListLedger(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, client.lastQuery.(*domain.LedgerQuery))

	_, err = svc.GetBalance(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountTrading, client.lastQuery)

	_, err = svc.GetTransfer(ctx, "", "USDT")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.GetOrder(ctx, &domain.OrderRef{ID: "1"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	assert.Equal(t, []string{"FetchOpenOrders", "FetchMyTrades", "FetchLedger", "FetchBalance"}, client.calls)
}

func TestQueryMarkets(t *testing.T) {
	ctx := context.Background()
	svc := NewConnectivityService(&fakeClient{}, NewMarketService(&fakeSource{markets: sampleMarkets()}, nil, nil), nil)

	list, err := svc.ListMarkets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	m, err := svc.GetMarket(ctx, "BTC/USDT:USDT")
	require.NoError(t, err)
	assert.True(t, m.Contract)

	reloaded, err := svc.ReloadMarkets(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 3)
}
