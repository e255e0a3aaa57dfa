package okx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

func TestParseMarketSymbols(t *testing.T) {
	cases := []struct {
		name string
		wire WireInstrument
		want string
		typ  domain.MarketType
	}{
		{
			name: "spot",
			wire: WireInstrument{InstID: "BTC-USDT", InstType: "SPOT", BaseCcy: "BTC", QuoteCcy: "USDT", State: "live", TickSz: "0.1", LotSz: "0.00000001", Lever: "10"},
			want: "BTC/USDT", typ: domain.MarketTypeSpot,
		},
		{
			name: "linear swap",
			wire: WireInstrument{InstID: "BTC-USDT-SWAP", InstType: "SWAP", InstFamily: "BTC-USDT", SettleCcy: "USDT", CtVal: "0.01", CtType: "linear", State: "live"},
			want: "BTC/USDT:USDT", typ: domain.MarketTypeSwap,
		},
		{
			name: "inverse future",
			wire: WireInstrument{InstID: "BTC-USD-250328", InstType: "FUTURES", Uly: "BTC-USD", SettleCcy: "BTC", CtVal: "100", CtType: "inverse", ExpTime: "1743148800000", State: "live"},
			want: "BTC/USD:BTC-250328", typ: domain.MarketTypeFuture,
		},
		{
			name: "option",
			wire: WireInstrument{InstID: "BTC-USD-250328-60000-C", InstType: "OPTION", InstFamily: "BTC-USD", SettleCcy: "BTC", Stk: "60000", OptType: "C", ExpTime: "1743148800000", State: "live"},
			want: "BTC/USD:BTC-250328-60000-C", typ: domain.MarketTypeOption,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ParseMarket(&tc.wire)
			assert.Equal(t, tc.want, m.Symbol)
			assert.Equal(t, tc.typ, m.Type)
			assert.Equal(t, tc.wire.InstID, m.ID)
			assert.True(t, m.Active)
		})
	}
}

func TestParseMarketContractFlags(t *testing.T) {
	m := ParseMarket(&WireInstrument{InstID: "BTC-USDT-SWAP", InstType: "SWAP", InstFamily: "BTC-USDT", SettleCcy: "USDT", CtVal: "0.01", CtType: "linear", TickSz: "0.1", LotSz: "1", MinSz: "1", State: "suspend"})
	assert.True(t, m.Contract)
	assert.True(t, m.Linear)
	assert.False(t, m.Inverse)
	assert.False(t, m.Active)
	assert.Equal(t, "0.01", m.ContractSize.Decimal.String())
	assert.Equal(t, "0.1", m.Precision.Price.Decimal.String())
	assert.Equal(t, "1", m.Limits.Amount.Min.Decimal.String())

	opt := ParseMarket(&WireInstrument{InstID: "BTC-USD-250328-60000-P", InstType: "OPTION", InstFamily: "BTC-USD", SettleCcy: "BTC", OptType: "P", Stk: "60000", ExpTime: "1743148800000"})
	assert.True(t, opt.Inverse)
	assert.Equal(t, int64(1743148800000), opt.Expiry)

	spot := ParseMarket(&WireInstrument{InstID: "DOGE-USDT", InstType: "SPOT", BaseCcy: "DOGE", QuoteCcy: "USDT"})
	assert.False(t, spot.Margin)
	assert.False(t, spot.Contract)
}

func TestParseCurrenciesMergesChains(t *testing.T) {
	cs := ParseCurrencies([]WireCurrency{
		{Ccy: "USDT", Name: "Tether", Chain: "USDT-ERC20", CanDep: true, CanWd: false, MinFee: "3", MinWd: "10", WdTickSz: "6"},
		{Ccy: "USDT", Name: "Tether", Chain: "USDT-TRC20", CanDep: false, CanWd: true, MinFee: "1", MinWd: "2", WdTickSz: "4"},
		{Ccy: "BTC", Chain: "BTC-Bitcoin", WdTickSz: "8"},
		{Ccy: ""},
	})
	assert.Len(t, cs, 2)

	usdt := cs[0]
	assert.Equal(t, "USDT", usdt.Code)
	assert.True(t, usdt.Deposit)
	assert.True(t, usdt.Withdraw)
	assert.True(t, usdt.Active)
	assert.Equal(t, "0.000001", usdt.Precision.Decimal.String())
	assert.Len(t, usdt.Networks, 2)
	assert.Equal(t, "ERC20", usdt.Networks[0].ID)
	assert.Equal(t, "1", usdt.Networks[1].Fee.Decimal.String())

	assert.False(t, cs[1].Active)
}
