package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{"", OrderStatusRejected, true},
		{"", OrderStatusOpen, true},
		{OrderStatusOpen, OrderStatusOpen, true},
		{OrderStatusOpen, OrderStatusClosed, true},
		{OrderStatusOpen, OrderStatusCanceled, true},
		{OrderStatusOpen, OrderStatusRejected, false},
		{OrderStatusClosed, OrderStatusOpen, false},
		{OrderStatusClosed, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusClosed, false},
		{OrderStatusRejected, OrderStatusOpen, false},
		{OrderStatusClosed, OrderStatusClosed, true},
		{OrderStatus("xyz"), OrderStatusClosed, true},
		{OrderStatus("xyz"), OrderStatusRejected, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to))
			err := CheckTransition(tc.from, tc.to)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
		})
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusClosed.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
	assert.False(t, OrderStatusOpen.IsTerminal())
	assert.False(t, OrderStatus("xyz").IsKnown())
}

func TestExchangeErrorMatching(t *testing.T) {
	err := NewError(KindInsufficientFunds, "51008", "Order failed. Insufficient balance")
	wrapped := fmt.Errorf("create order: %w", err)

	assert.ErrorIs(t, wrapped, ErrInsufficientFunds)
	assert.NotErrorIs(t, wrapped, ErrInvalidOrder)
	assert.ErrorIs(t, wrapped, &ExchangeError{Kind: KindInsufficientFunds, Code: "51008"})
	assert.NotErrorIs(t, wrapped, &ExchangeError{Kind: KindInsufficientFunds, Code: "51009"})
	assert.False(t, err.Retryable)
	assert.Equal(t, "InsufficientFunds [51008]: Order failed. Insufficient balance", err.Error())

	var ee *ExchangeError
	require.True(t, errors.As(wrapped, &ee))
	assert.Equal(t, "51008", ee.Code)
}

func TestErrorKindRetryable(t *testing.T) {
	assert.True(t, KindRateLimitExceeded.Retryable())
	assert.True(t, KindDDoSProtection.Retryable())
	assert.True(t, KindOnMaintenance.Retryable())
	assert.True(t, KindNetworkError.Retryable())
	assert.False(t, KindAccountSuspended.Retryable())
	assert.False(t, KindExchangeError.Retryable())

	cause := errors.New("dial tcp: i/o timeout")
	err := WrapError(KindNetworkError, "request failed", cause)
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
}

func TestPrecisionNormalizer(t *testing.T) {
	m := &Market{
		Symbol: "BTC/USDT",
		Type:   MarketTypeSpot,
		Precision: Precision{
			Amount: dec("0.01"),
			Price:  dec("0.1"),
		},
	}

	amt, err := AmountToPrecision(m, "1.239")
	require.NoError(t, err)
	assert.Equal(t, "1.23", amt)

	px, err := PriceToPrecision(m, "100.25")
	require.NoError(t, err)
	assert.Equal(t, "100.3", px)

	again, err := PriceToPrecision(m, px)
	require.NoError(t, err)
	assert.Equal(t, px, again)

	cost, err := CostToPrecision(m, "200.19")
	require.NoError(t, err)
	assert.Equal(t, "200.1", cost)
}

func TestPrecisionUnknownPassesThrough(t *testing.T) {
	m := &Market{Symbol: "X/Y"}
	amt, err := AmountToPrecision(m, "1.23456789")
	require.NoError(t, err)
	assert.Equal(t, "1.23456789", amt)

	px, err := PriceToPrecision(nil, "0.000001")
	require.NoError(t, err)
	assert.Equal(t, "0.000001", px)

	_, err = AmountToPrecision(m, "abc")
	assert.Error(t, err)
}

func TestOrderIntentValidate(t *testing.T) {
	base := func() *OrderIntent {
		return &OrderIntent{
			Symbol: "BTC/USDT",
			Type:   OrderTypeLimit,
			Side:   OrderSideBuy,
			Amount: dec("1"),
			Price:  dec("100"),
		}
	}

	require.NoError(t, base().Validate())

	i := base()
	i.Side = "hold"
	assert.ErrorIs(t, i.Validate(), ErrInvalidOrder)

	i = base()
	i.Symbol = ""
	assert.ErrorIs(t, i.Validate(), ErrBadRequest)

	i = base()
	i.Amount = decimal.NullDecimal{}
	assert.ErrorIs(t, i.Validate(), ErrInvalidOrder)

	i = base()
	i.StopLoss = &StopLeg{TriggerPrice: decimal.RequireFromString("90")}
	i.StopLossPrice = dec("91")
	assert.ErrorIs(t, i.Validate(), ErrConflictingParams)

	i = base()
	i.TriggerPrice = dec("120")
	i.TakeProfitPrice = dec("130")
	assert.ErrorIs(t, i.Validate(), ErrConflictingParams)

	i = base()
	i.StopLoss = &StopLeg{TriggerPrice: decimal.RequireFromString("90")}
	i.TakeProfitPrice = dec("130")
	assert.ErrorIs(t, i.Validate(), ErrConflictingParams)

	i = base()
	i.StopLoss = &StopLeg{TriggerPrice: decimal.RequireFromString("90")}
	i.TakeProfit = &StopLeg{TriggerPrice: decimal.RequireFromString("130")}
	assert.NoError(t, i.Validate())
}

func TestValidateClientOrderID(t *testing.T) {
	assert.NoError(t, ValidateClientOrderID(""))
	assert.NoError(t, ValidateClientOrderID("abc123"))
	assert.Error(t, ValidateClientOrderID("1abc"))
	assert.Error(t, ValidateClientOrderID("abc-123"))
	assert.Error(t, ValidateClientOrderID("a23456789012345678901234567890123"))
}

func TestValidateBrokerID(t *testing.T) {
	assert.NoError(t, ValidateBrokerID(""))
	assert.NoError(t, ValidateBrokerID("e847386590ce4dBC"))
	assert.Error(t, ValidateBrokerID("e847386590ce4dBCx"))
	assert.Error(t, ValidateBrokerID("9broker"))
}

func TestTransferIntentValidate(t *testing.T) {
	ti := &TransferIntent{Currency: "USDT", Amount: decimal.NewFromInt(10), From: AccountFunding, To: AccountTrading}
	assert.NoError(t, ti.Validate())

	ti.To = AccountFunding
	assert.ErrorIs(t, ti.Validate(), ErrBadRequest)

	ti.To = "margin"
	assert.ErrorIs(t, ti.Validate(), ErrBadRequest)
}

func TestOrderEventKey(t *testing.T) {
	ev := NewOrderEvent(TopicOrderPlaced, &Order{ClientOrderID: "abc"})
	assert.Equal(t, "abc", ev.Key())
	ev = NewOrderEvent(TopicOrderPlaced, &Order{ID: "123", ClientOrderID: "abc"})
	assert.Equal(t, "123", ev.Key())
}
