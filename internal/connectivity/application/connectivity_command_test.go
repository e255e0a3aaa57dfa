package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

func limitBuy() *domain.OrderIntent {
	return &domain.OrderIntent{
		Symbol: "BTC/USDT", Type: domain.OrderTypeLimit, Side: domain.OrderSideBuy,
		Amount: dec("0.5"), Price: dec("30000"),
	}
}

func TestCreateOrderPublishesPlaced(t *testing.T) {
	client := &fakeClient{order: &domain.Order{ID: "1", Symbol: "BTC/USDT", Status: domain.OrderStatusOpen}}
	pub := &recordingPublisher{}
	svc := NewConnectivityCommandService(client, pub)

	o, err := svc.CreateOrder(context.Background(), limitBuy())
	require.NoError(t, err)
	assert.Equal(t, "1", o.ID)
	assert.Equal(t, []string{domain.TopicOrderPlaced}, pub.topics())
	assert.Equal(t, "1", pub.events[0].Key())
}

func TestCreateOrderValidatesBeforeCalling(t *testing.T) {
	client := &fakeClient{}
	svc := NewConnectivityCommandService(client, nil)

	in := limitBuy()
	in.StopLoss = &domain.StopLeg{TriggerPrice: decimal.RequireFromString("29000")}
	in.StopLossPrice = dec("28000")
	_, err := svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrConflictingParams)
	assert.Empty(t, client.calls)
}

func TestCreateOrderErrorNotPublished(t *testing.T) {
	client := &fakeClient{err: domain.NewError(domain.KindInsufficientFunds, "51008", "insufficient balance")}
	pub := &recordingPublisher{}
	svc := NewConnectivityCommandService(client, pub)

	_, err := svc.CreateOrder(context.Background(), limitBuy())
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Empty(t, pub.topics())
}

func TestPublishFailureDoesNotFailOrder(t *testing.T) {
	client := &fakeClient{order: &domain.Order{ID: "1", Status: domain.OrderStatusOpen}}
	svc := NewConnectivityCommandService(client, &recordingPublisher{err: errors.New("broker down")})

	o, err := svc.CreateOrder(context.Background(), limitBuy())
	require.NoError(t, err)
	assert.Equal(t, "1", o.ID)
}

func TestCreateOrdersPublishesPerItem(t *testing.T) {
	rej := domain.NewError(domain.KindInsufficientFunds, "51008", "insufficient")
	client := &fakeClient{orders: []*domain.Order{
		{ID: "1", Status: domain.OrderStatusOpen},
		{ClientOrderID: "c2", Status: domain.OrderStatusRejected, Rejection: rej},
	}}
	pub := &recordingPublisher{}
	svc := NewConnectivityCommandService(client, pub)

	orders, err := svc.CreateOrders(context.Background(), []*domain.OrderIntent{limitBuy(), limitBuy()})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, []string{domain.TopicOrderPlaced, domain.TopicOrderRejected}, pub.topics())
	assert.Equal(t, "c2", pub.events[1].Key())

	_, err = svc.CreateOrders(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestCancelAndEditPublish(t *testing.T) {
	pub := &recordingPublisher{}
	client := &fakeClient{order: &domain.Order{ID: "1", Status: domain.OrderStatusCanceled}}
	svc := NewConnectivityCommandService(client, pub)
	ctx := context.Background()

	_, err := svc.CancelOrder(ctx, &domain.OrderRef{Symbol: "BTC/USDT", ID: "1"})
	require.NoError(t, err)

	client.order = &domain.Order{ID: "1", Status: domain.OrderStatusOpen}
	_, err = svc.EditOrder(ctx, &domain.EditIntent{Symbol: "BTC/USDT", ID: "1", NewPrice: dec("31000")})
	require.NoError(t, err)

	client.orders = []*domain.Order{
		{ID: "2", Status: domain.OrderStatusCanceled},
		{ID: "3", Status: domain.OrderStatusRejected, Rejection: domain.NewError(domain.KindOrderNotFound, "51400", "")},
	}
	_, err = svc.CancelOrders(ctx, []*domain.OrderRef{{Symbol: "BTC/USDT", ID: "2"}, {Symbol: "BTC/USDT", ID: "3"}})
	require.NoError(t, err)

	assert.Equal(t, []string{domain.TopicOrderCanceled, domain.TopicOrderAmended, domain.TopicOrderCanceled}, pub.topics())

	_, err = svc.CancelOrder(ctx, &domain.OrderRef{Symbol: "BTC/USDT"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestReconcileOrder(t *testing.T) {
	ctx := context.Background()
	ref := &domain.OrderRef{Symbol: "BTC/USDT", ID: "1"}

	tests := []struct {
		name      string
		known     domain.OrderStatus
		current   domain.OrderStatus
		wantErr   bool
		wantTopic []string
	}{
		{"open to closed", domain.OrderStatusOpen, domain.OrderStatusClosed, false, []string{domain.TopicOrderReconciled}},
		{"unchanged", domain.OrderStatusOpen, domain.OrderStatusOpen, false, []string{}},
		{"unknown start", "", domain.OrderStatusCanceled, false, []string{domain.TopicOrderReconciled}},
		{"canceled back to open", domain.OrderStatusCanceled, domain.OrderStatusOpen, true, []string{}},
		{"open to rejected", domain.OrderStatusOpen, domain.OrderStatusRejected, true, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			client := &fakeClient{order: &domain.Order{ID: "1", Status: tt.current}}
			svc := NewConnectivityCommandService(client, pub)

			o, err := svc.ReconcileOrder(ctx, ref, tt.known)
			if tt.wantErr {
				assert.True(t, IsIllegalTransition(err))
				assert.NotNil(t, o)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantTopic, pub.topics())
		})
	}
}

func TestTransferValidates(t *testing.T) {
	client := &fakeClient{transfer: &domain.Transfer{ID: "9", Status: domain.TransferOK}}
	svc := NewConnectivityCommandService(client, nil)

	_, err := svc.Transfer(context.Background(), &domain.TransferIntent{
		Currency: "USDT", Amount: decimal.RequireFromString("1"), From: domain.AccountFunding, To: domain.AccountFunding,
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	tr, err := svc.Transfer(context.Background(), &domain.TransferIntent{
		Currency: "USDT", Amount: decimal.RequireFromString("1"), From: domain.AccountFunding, To: domain.AccountTrading,
	})
	require.NoError(t, err)
	assert.Equal(t, "9", tr.ID)
}
