package okx

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ParseMarket 解析交易产品
//
// 统一符号：
//
//	现货   BTC/USDT
//	永续   BTC/USDT:USDT
//	交割   BTC/USD:BTC-250328
//	期权   BTC/USD:BTC-250328-60000-C
func ParseMarket(w *WireInstrument) *domain.Market {
	typ := marketTypeOf(w.InstType)
	m := &domain.Market{
		ID:         optString(w.InstID),
		Type:       typ,
		Active:     w.State == "live",
		InstFamily: optString(w.InstFamily),
		Precision: domain.Precision{
			Amount: optDecimal(w.LotSz),
			Price:  optDecimal(w.TickSz),
		},
	}
	m.Limits.Amount.Min = optDecimal(w.MinSz)
	m.Limits.Amount.Max = optDecimal(w.MaxLmtSz)
	m.Limits.Leverage.Max = optDecimal(w.Lever)

	if typ == domain.MarketTypeSpot || typ == domain.MarketTypeMargin {
		m.Base = optString(w.BaseCcy)
		m.Quote = optString(w.QuoteCcy)
		m.Margin = m.Limits.Leverage.Max.Valid && m.Limits.Leverage.Max.Decimal.IsPositive()
		m.Symbol = m.Base + "/" + m.Quote
		return m
	}

	family := m.InstFamily
	if family == "" {
		family = optString(w.Uly)
	}
	if base, quote, ok := strings.Cut(family, "-"); ok {
		m.Base, m.Quote = base, quote
	}
	m.Settle = optString(w.SettleCcy)
	m.Contract = true
	m.ContractSize = optDecimal(w.CtVal)
	switch w.CtType {
	case "linear":
		m.Linear = true
	case "inverse":
		m.Inverse = true
	default:
		// 期权不返回 ctType，以结算币判断
		m.Linear = m.Settle != "" && m.Settle == m.Quote
		m.Inverse = m.Settle != "" && m.Settle == m.Base
	}

	m.Symbol = m.Base + "/" + m.Quote + ":" + m.Settle
	if typ == domain.MarketTypeFuture || typ == domain.MarketTypeOption {
		m.Expiry = optMillis(w.ExpTime)
		if m.Expiry > 0 {
			m.Symbol += "-" + time.UnixMilli(m.Expiry).UTC().Format("060102")
		}
	}
	if typ == domain.MarketTypeOption {
		m.Strike = optDecimal(w.Stk)
		m.OptionType = optString(w.OptType)
		m.Symbol += "-" + nullString(m.Strike) + "-" + m.OptionType
	}
	return m
}

// ParseCurrencies 按币种聚合，每条链作为一个网络
func ParseCurrencies(ws []WireCurrency) []*domain.Currency {
	index := make(map[string]*domain.Currency)
	var out []*domain.Currency
	for _, w := range ws {
		code := optString(w.Ccy)
		if code == "" {
			continue
		}
		c, ok := index[code]
		if !ok {
			c = &domain.Currency{Code: code, ID: code, Name: optString(w.Name)}
			index[code] = c
			out = append(out, c)
		}
		c.Deposit = c.Deposit || w.CanDep
		c.Withdraw = c.Withdraw || w.CanWd
		c.Active = c.Deposit || c.Withdraw

		// wdTickSz 是小数位数，转换为步长
		if places := optDecimal(w.WdTickSz); places.Valid {
			step := decimal.New(1, -int32(places.Decimal.IntPart()))
			if !c.Precision.Valid || step.LessThan(c.Precision.Decimal) {
				c.Precision = decimal.NewNullDecimal(step)
			}
		}
		network := optString(w.Chain)
		if prefix := code + "-"; strings.HasPrefix(network, prefix) {
			network = strings.TrimPrefix(network, prefix)
		}
		c.Networks = append(c.Networks, domain.CurrencyNetwork{
			ID:          network,
			Deposit:     w.CanDep,
			Withdraw:    w.CanWd,
			Fee:         optDecimal(w.MinFee),
			MinWithdraw: optDecimal(w.MinWd),
		})
	}
	return out
}

// MarketFetcher 从交易所拉取市场与币种元数据
type MarketFetcher struct {
	caller         *Caller
	types          []domain.MarketType
	optionFamilies []string
}

// NewMarketFetcher 创建市场拉取器
// 期权必须按 instFamily 查询，每个 family 单独一路请求
func NewMarketFetcher(c *Caller, types []domain.MarketType, optionFamilies []string) *MarketFetcher {
	return &MarketFetcher{caller: c, types: types, optionFamilies: optionFamilies}
}

type instrumentBranch struct {
	typ    domain.MarketType
	family string
}

// FetchMarkets 各市场类型并发拉取，全部完成后按配置顺序合并，重复 ID 以先出现者为准
func (f *MarketFetcher) FetchMarkets(ctx context.Context) ([]*domain.Market, error) {
	var branches []instrumentBranch
	for _, t := range f.types {
		if t == domain.MarketTypeOption {
			for _, fam := range f.optionFamilies {
				branches = append(branches, instrumentBranch{typ: t, family: fam})
			}
			continue
		}
		branches = append(branches, instrumentBranch{typ: t})
	}

	results := make([][]*domain.Market, len(branches))
	g, gctx := errgroup.WithContext(ctx)
	for i, br := range branches {
		g.Go(func() error {
			q := url.Values{"instType": {instType(br.typ)}}
			if br.family != "" {
				q.Set("instFamily", br.family)
			}
			env, err := f.caller.public(gctx, http.MethodGet, pathInstruments, q)
			if err != nil {
				return err
			}
			ws, err := decodeList[WireInstrument](env.Data)
			if err != nil {
				return malformed(pathInstruments, err)
			}
			ms := make([]*domain.Market, 0, len(ws))
			for j := range ws {
				ms = append(ms, ParseMarket(&ws[j]))
			}
			results[i] = ms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []*domain.Market
	for _, ms := range results {
		for _, m := range ms {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	logger.Info(ctx, "markets fetched", "branches", len(branches), "count", len(out))
	return out, nil
}

// FetchCurrencies 币种列表（需要签名）
func (f *MarketFetcher) FetchCurrencies(ctx context.Context) ([]*domain.Currency, error) {
	env, err := f.caller.private(ctx, http.MethodGet, pathCurrencies, nil, nil)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireCurrency](env.Data)
	if err != nil {
		return nil, malformed(pathCurrencies, err)
	}
	return ParseCurrencies(ws), nil
}
