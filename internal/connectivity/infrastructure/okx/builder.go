package okx

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
	"github.com/wyfcoding/exchangegateway/pkg/metrics"
	"github.com/wyfcoding/exchangegateway/pkg/precise"
)

// reservedFields Extra 中不允许出现的线上字段，它们只能由类型化参数生成
var reservedFields = map[string]struct{}{
	"instId": {}, "side": {}, "ordType": {}, "sz": {}, "px": {}, "tdMode": {}, "ccy": {},
	"posSide": {}, "reduceOnly": {}, "clOrdId": {}, "algoClOrdId": {}, "tag": {}, "tgtCcy": {},
	"triggerPx": {}, "orderPx": {}, "triggerPxType": {},
	"tpTriggerPx": {}, "tpOrdPx": {}, "tpTriggerPxType": {},
	"slTriggerPx": {}, "slOrdPx": {}, "slTriggerPxType": {},
	"callbackRatio": {}, "activePx": {},
	"szLimit": {}, "pxLimit": {}, "pxVar": {}, "pxSpread": {}, "timeInterval": {},
	"ordId": {}, "algoId": {}, "newSz": {}, "newPx": {}, "cxlOnFail": {}, "reqId": {},
}

// OrderRequest 构建完成的线上请求
// 构建后不可修改，所有访问器都返回副本
type OrderRequest struct {
	endpoint Endpoint
	fields   map[string]any
}

func newOrderRequest(e Endpoint) *OrderRequest {
	return &OrderRequest{endpoint: e, fields: make(map[string]any)}
}

func (r *OrderRequest) set(key string, value any) {
	r.fields[key] = value
}

// Endpoint 接口族
func (r *OrderRequest) Endpoint() Endpoint { return r.endpoint }

// OrdType 线上 ordType，撤单与改单请求为空
func (r *OrderRequest) OrdType() string { return r.String("ordType") }

// Get 取字段
func (r *OrderRequest) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// String 取字符串字段，不存在时为空串
func (r *OrderRequest) String(key string) string {
	s, _ := r.fields[key].(string)
	return s
}

// Has 字段是否存在
func (r *OrderRequest) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Fields 字段副本
func (r *OrderRequest) Fields() map[string]any {
	return maps.Clone(r.fields)
}

// ClientOrderID 普通委托取 clOrdId，策略委托取 algoClOrdId
func (r *OrderRequest) ClientOrderID() string {
	if id := r.String("clOrdId"); id != "" {
		return id
	}
	return r.String("algoClOrdId")
}

// MarshalJSON 线上 JSON，键按字典序输出
func (r *OrderRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields)
}

func (r *OrderRequest) withEndpoint(e Endpoint) *OrderRequest {
	return &OrderRequest{endpoint: e, fields: maps.Clone(r.fields)}
}

// BuilderConfig 下单构建配置
type BuilderConfig struct {
	BrokerID          string
	DefaultMarginMode domain.MarginMode
	// TargetCurrency 现货市价买单的默认计价单位
	TargetCurrency domain.TargetCurrency
	// MarketBuyRequiresPrice 为 false 时，现货市价买单的 amount 直接视为成交额
	MarketBuyRequiresPrice bool
	// SingleOrderViaBatch 单笔普通委托也走批量接口
	SingleOrderViaBatch bool
}

// Builder 把统一下单意图翻译为线上请求
// 纯函数：不做网络调用，市场信息由调用方传入
type Builder struct {
	cfg      BuilderConfig
	metrics  *metrics.Metrics
	newToken func() string
}

// NewBuilder 创建构建器
// 不合法的 BrokerID 会被忽略，生成的订单号退回默认前缀且不带 tag
func NewBuilder(cfg BuilderConfig, m *metrics.Metrics) *Builder {
	if err := domain.ValidateBrokerID(cfg.BrokerID); err != nil {
		logger.Warn(context.Background(), "ignoring invalid broker id", "broker_id", cfg.BrokerID, "error", err)
		cfg.BrokerID = ""
	}
	if cfg.DefaultMarginMode == "" {
		cfg.DefaultMarginMode = domain.MarginModeCross
	}
	if cfg.TargetCurrency == "" {
		cfg.TargetCurrency = domain.TargetQuote
	}
	return &Builder{cfg: cfg, metrics: m, newToken: randomToken}
}

// WithTokenSource 替换客户端订单号随机段的生成函数
func (b *Builder) WithTokenSource(f func() string) *Builder {
	cp := *b
	cp.newToken = f
	return &cp
}

// randomToken 16 位十六进制随机段
func randomToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// BuildCreateOrder 构建单笔下单请求
//
// 优先级：移动止盈止损 → 止盈止损（conditional/oco）→ 计划委托（trigger）→ 冰山/时间加权 → 普通委托。
func (b *Builder) BuildCreateOrder(m *domain.Market, in *domain.OrderIntent) (*OrderRequest, error) {
	if m == nil {
		return nil, domain.NewError(domain.KindBadSymbol, "", "market is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkExtra(in.Extra); err != nil {
		return nil, err
	}

	req := newOrderRequest(EndpointPlain)
	req.set("instId", m.ID)
	req.set("side", string(in.Side))
	tdMode, ccy := b.tradeMode(m, in)
	req.set("tdMode", tdMode)
	if ccy != "" {
		req.set("ccy", ccy)
	}

	var err error
	closing := in.ReduceOnly
	switch {
	case in.TrailingPercent.Valid:
		err = b.trailing(req, m, in)
		closing = true
	case in.HasProtection():
		err = b.protective(req, m, in)
		closing = true
	case in.TriggerPrice.Valid:
		err = b.trigger(req, m, in)
	case in.Strategy != nil:
		err = b.strategy(req, m, in)
	default:
		err = b.plain(req, m, in)
	}
	if err != nil {
		return nil, err
	}

	sz, tgtCcy, err := b.size(m, in)
	if err != nil {
		return nil, err
	}
	req.set("sz", sz)
	if tgtCcy != "" {
		req.set("tgtCcy", tgtCcy)
	}

	b.positionSide(req, m, in, closing)
	b.clientOrderID(req, in.ClientOrderID)
	for k, v := range in.Extra {
		req.set(k, v)
	}

	if req.endpoint == EndpointPlain && b.cfg.SingleOrderViaBatch {
		req.endpoint = EndpointBatch
	}
	b.metrics.RecordOrderBuilt(req.OrdType(), string(req.endpoint))
	return req, nil
}

// BuildCreateOrders 构建批量下单请求，markets 与 intents 一一对应
// 批量接口只接受普通委托
func (b *Builder) BuildCreateOrders(markets []*domain.Market, intents []*domain.OrderIntent) ([]*OrderRequest, error) {
	if len(markets) != len(intents) {
		return nil, domain.NewError(domain.KindBadRequest, "", "markets and intents length mismatch")
	}
	if len(intents) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "", "at least one order is required")
	}
	if len(intents) > maxBatchSize {
		return nil, domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("at most %d orders per batch", maxBatchSize))
	}
	out := make([]*OrderRequest, 0, len(intents))
	for i, in := range intents {
		req, err := b.BuildCreateOrder(markets[i], in)
		if err != nil {
			return nil, err
		}
		if req.endpoint == EndpointAlgo {
			return nil, domain.NewError(domain.KindBadRequest, domain.CodeUnsupportedInBatch,
				fmt.Sprintf("order %d: %s orders cannot be placed in a batch", i, req.OrdType()))
		}
		out = append(out, req.withEndpoint(EndpointBatch))
	}
	return out, nil
}

// BuildEditOrder 构建改单请求
func (b *Builder) BuildEditOrder(m *domain.Market, in *domain.EditIntent) (*OrderRequest, error) {
	if m == nil {
		return nil, domain.NewError(domain.KindBadSymbol, "", "market is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := checkExtra(in.Extra); err != nil {
		return nil, err
	}
	req := newOrderRequest(EndpointAmend)
	req.set("instId", m.ID)
	setOrderID(req, in.ID, in.ClientOrderID)
	if in.NewAmount.Valid {
		sz, err := domain.AmountToPrecision(m, in.NewAmount.Decimal.String())
		if err != nil {
			return nil, invalidNumber("new amount", err)
		}
		req.set("newSz", sz)
	}
	if in.NewPrice.Valid {
		px, err := domain.PriceToPrecision(m, in.NewPrice.Decimal.String())
		if err != nil {
			return nil, invalidNumber("new price", err)
		}
		req.set("newPx", px)
	}
	if in.CancelOnFail {
		req.set("cxlOnFail", true)
	}
	if in.RequestID != "" {
		req.set("reqId", in.RequestID)
	}
	for k, v := range in.Extra {
		req.set(k, v)
	}
	return req, nil
}

// BuildCancelOrder 构建撤单请求
// 策略委托只能通过 algoId 撤销
func (b *Builder) BuildCancelOrder(m *domain.Market, ref *domain.OrderRef) (*OrderRequest, error) {
	if m == nil {
		return nil, domain.NewError(domain.KindBadSymbol, "", "market is required")
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if ref.Trigger {
		if ref.ID == "" {
			return nil, domain.NewError(domain.KindBadRequest, "", "algo orders can only be canceled by id")
		}
		req := newOrderRequest(EndpointCancelAlgo)
		req.set("instId", m.ID)
		req.set("algoId", ref.ID)
		return req, nil
	}
	req := newOrderRequest(EndpointCancel)
	req.set("instId", m.ID)
	setOrderID(req, ref.ID, ref.ClientOrderID)
	return req, nil
}

// BuildCancelOrders 构建批量撤单请求，同一批只能全是普通委托或全是策略委托
func (b *Builder) BuildCancelOrders(markets []*domain.Market, refs []*domain.OrderRef) ([]*OrderRequest, error) {
	if len(markets) != len(refs) {
		return nil, domain.NewError(domain.KindBadRequest, "", "markets and refs length mismatch")
	}
	if len(refs) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "", "at least one order is required")
	}
	if len(refs) > maxBatchSize {
		return nil, domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("at most %d orders per batch", maxBatchSize))
	}
	trigger := refs[0].Trigger
	out := make([]*OrderRequest, 0, len(refs))
	for i, ref := range refs {
		if ref.Trigger != trigger {
			return nil, domain.NewError(domain.KindBadRequest, domain.CodeUnsupportedInBatch,
				"algo and regular orders cannot be canceled in the same batch")
		}
		req, err := b.BuildCancelOrder(markets[i], ref)
		if err != nil {
			return nil, err
		}
		if !trigger {
			req = req.withEndpoint(EndpointCancelBatch)
		}
		out = append(out, req)
	}
	return out, nil
}

// tradeMode 交易模式
// 现货默认 cash；指定保证金模式或杠杆市场时按杠杆交易，借币币种买入取计价货币、卖出取基础货币
func (b *Builder) tradeMode(m *domain.Market, in *domain.OrderIntent) (string, string) {
	mode := in.MarginMode
	if m.IsSpot() {
		if mode == "" && m.Type != domain.MarketTypeMargin {
			return tdModeCash, ""
		}
		if mode == "" {
			mode = b.cfg.DefaultMarginMode
		}
		if in.Side == domain.OrderSideBuy {
			return string(mode), m.Quote
		}
		return string(mode), m.Base
	}
	if mode == "" {
		mode = b.cfg.DefaultMarginMode
	}
	return string(mode), ""
}

// plain 普通委托，post-only 优先于 IOC/FOK
func (b *Builder) plain(req *OrderRequest, m *domain.Market, in *domain.OrderIntent) error {
	postOnly := in.PostOnly || in.TimeInForce == domain.TimeInForcePO
	if in.IsMarket() {
		switch {
		case postOnly:
			return domain.NewError(domain.KindInvalidOrder, "", "post-only is not available for market orders")
		case in.TimeInForce == domain.TimeInForceFOK:
			return domain.NewError(domain.KindInvalidOrder, "", "fill-or-kill is not available for market orders")
		case in.TimeInForce == domain.TimeInForceIOC && m.Contract:
			req.set("ordType", ordTypeOptimalLimitIOC)
		default:
			req.set("ordType", ordTypeMarket)
		}
		return nil
	}

	switch {
	case postOnly:
		req.set("ordType", ordTypePostOnly)
	case in.TimeInForce == domain.TimeInForceFOK:
		req.set("ordType", ordTypeFOK)
	case in.TimeInForce == domain.TimeInForceIOC:
		req.set("ordType", ordTypeIOC)
	default:
		req.set("ordType", ordTypeLimit)
	}
	px, err := b.limitPrice(m, in)
	if err != nil {
		return err
	}
	req.set("px", px)
	return nil
}

// protective 止盈止损委托：单腿 conditional，双腿 oco
// 结构化腿可单独指定委托价，未指定时按市价（-1）；离散触发价沿用母单的价格类型
func (b *Builder) protective(req *OrderRequest, m *domain.Market, in *domain.OrderIntent) error {
	req.endpoint = EndpointAlgo
	sl, tp := in.StopLoss, in.TakeProfit
	if sl == nil && tp == nil {
		parentPx, err := b.algoOrderPrice(m, in)
		if err != nil {
			return err
		}
		if in.StopLossPrice.Valid {
			sl = &domain.StopLeg{TriggerPrice: in.StopLossPrice.Decimal, TriggerPriceType: in.TriggerPriceType}
		}
		if in.TakeProfitPrice.Valid {
			tp = &domain.StopLeg{TriggerPrice: in.TakeProfitPrice.Decimal, TriggerPriceType: in.TriggerPriceType}
		}
		if parentPx != sentinelMarketPx {
			px := decimal.RequireFromString(parentPx)
			if sl != nil {
				sl.Price = decimal.NewNullDecimal(px)
			}
			if tp != nil {
				tp.Price = decimal.NewNullDecimal(px)
			}
		}
	}
	if sl != nil && tp != nil {
		req.set("ordType", ordTypeOCO)
	} else {
		req.set("ordType", ordTypeConditional)
	}

	legs := []struct {
		prefix string
		leg    *domain.StopLeg
	}{
		{"sl", sl},
		{"tp", tp},
	}
	for _, l := range legs {
		if l.leg == nil {
			continue
		}
		if !l.leg.TriggerPrice.IsPositive() {
			return domain.NewError(domain.KindInvalidOrder, "", l.prefix+" trigger price must be positive")
		}
		trig, err := domain.PriceToPrecision(m, l.leg.TriggerPrice.String())
		if err != nil {
			return invalidNumber(l.prefix+" trigger price", err)
		}
		ordPx := sentinelMarketPx
		if l.leg.Price.Valid {
			if ordPx, err = domain.PriceToPrecision(m, l.leg.Price.Decimal.String()); err != nil {
				return invalidNumber(l.prefix+" order price", err)
			}
		}
		req.set(l.prefix+"TriggerPx", trig)
		req.set(l.prefix+"OrdPx", ordPx)
		req.set(l.prefix+"TriggerPxType", triggerType(l.leg.TriggerPriceType))
	}
	return nil
}

// trigger 计划委托，市价母单的委托价为 -1
func (b *Builder) trigger(req *OrderRequest, m *domain.Market, in *domain.OrderIntent) error {
	req.endpoint = EndpointAlgo
	req.set("ordType", ordTypeTrigger)
	trig, err := domain.PriceToPrecision(m, in.TriggerPrice.Decimal.String())
	if err != nil {
		return invalidNumber("trigger price", err)
	}
	ordPx, err := b.algoOrderPrice(m, in)
	if err != nil {
		return err
	}
	req.set("triggerPx", trig)
	req.set("orderPx", ordPx)
	req.set("triggerPxType", triggerType(in.TriggerPriceType))
	return nil
}

// trailing 移动止盈止损，回调比例 = 百分数 / 100，TriggerPrice 作为激活价
func (b *Builder) trailing(req *OrderRequest, m *domain.Market, in *domain.OrderIntent) error {
	req.endpoint = EndpointAlgo
	req.set("ordType", ordTypeMoveStop)
	ratio, err := precise.Div(in.TrailingPercent.Decimal.String(), "100")
	if err != nil {
		return invalidNumber("trailing percent", err)
	}
	req.set("callbackRatio", ratio)
	if in.TriggerPrice.Valid {
		active, err := domain.PriceToPrecision(m, in.TriggerPrice.Decimal.String())
		if err != nil {
			return invalidNumber("activation price", err)
		}
		req.set("activePx", active)
	}
	return nil
}

// strategy 冰山 / 时间加权委托
func (b *Builder) strategy(req *OrderRequest, m *domain.Market, in *domain.OrderIntent) error {
	s := in.Strategy
	req.endpoint = EndpointAlgo
	switch s.Type {
	case domain.StrategyIceberg:
		req.set("ordType", ordTypeIceberg)
	case domain.StrategyTWAP:
		req.set("ordType", ordTypeTWAP)
		if s.TimeInterval <= 0 {
			return domain.NewError(domain.KindInvalidOrder, "", "twap requires a positive time interval")
		}
		req.set("timeInterval", fmt.Sprintf("%d", s.TimeInterval))
	default:
		return domain.NewError(domain.KindInvalidOrder, "", fmt.Sprintf("unknown strategy %q", s.Type))
	}
	if s.PriceVariance.Valid == s.PriceSpread.Valid {
		return domain.NewError(domain.KindInvalidOrder, domain.CodeConflictingParams, "exactly one of price variance and price spread is required")
	}
	if !s.SizeLimit.IsPositive() || !s.PriceLimit.IsPositive() {
		return domain.NewError(domain.KindInvalidOrder, "", "strategy size limit and price limit must be positive")
	}
	szLimit, err := domain.AmountToPrecision(m, s.SizeLimit.String())
	if err != nil {
		return invalidNumber("size limit", err)
	}
	pxLimit, err := domain.PriceToPrecision(m, s.PriceLimit.String())
	if err != nil {
		return invalidNumber("price limit", err)
	}
	req.set("szLimit", szLimit)
	req.set("pxLimit", pxLimit)
	if s.PriceVariance.Valid {
		req.set("pxVar", s.PriceVariance.Decimal.String())
	} else {
		spread, err := domain.PriceToPrecision(m, s.PriceSpread.Decimal.String())
		if err != nil {
			return invalidNumber("price spread", err)
		}
		req.set("pxSpread", spread)
	}
	return nil
}

// size 计算 sz
// 现货市价买单按计价货币下单时 sz 为成交额：显式 cost → amount×price → amount（不强制价格时）→ 报错
func (b *Builder) size(m *domain.Market, in *domain.OrderIntent) (string, string, error) {
	if m.IsSpot() && in.IsMarket() && in.Side == domain.OrderSideBuy {
		target := in.TargetCurrency
		if target == "" {
			target = b.cfg.TargetCurrency
		}
		if target == domain.TargetQuote {
			cost, err := b.marketBuyCost(m, in)
			return cost, tgtCcyQuote, err
		}
		if !in.Amount.Valid {
			return "", "", domain.NewError(domain.KindInvalidOrder, "", "amount is required when sizing in base currency")
		}
		sz, err := domain.AmountToPrecision(m, in.Amount.Decimal.String())
		if err != nil {
			return "", "", invalidNumber("amount", err)
		}
		return sz, tgtCcyBase, nil
	}
	if !in.Amount.Valid {
		return "", "", domain.NewError(domain.KindInvalidOrder, "", "amount is required")
	}
	sz, err := domain.AmountToPrecision(m, in.Amount.Decimal.String())
	if err != nil {
		return "", "", invalidNumber("amount", err)
	}
	return sz, "", nil
}

func (b *Builder) marketBuyCost(m *domain.Market, in *domain.OrderIntent) (string, error) {
	var raw string
	switch {
	case in.Cost.Valid:
		raw = in.Cost.Decimal.String()
	case in.Price.Valid && in.Amount.Valid:
		v, err := precise.Mul(in.Amount.Decimal.String(), in.Price.Decimal.String())
		if err != nil {
			return "", invalidNumber("cost", err)
		}
		raw = v
	case !b.cfg.MarketBuyRequiresPrice && in.Amount.Valid:
		raw = in.Amount.Decimal.String()
	default:
		return "", domain.NewError(domain.KindInvalidOrder, domain.CodeMissingCost,
			"market buy order requires a price or a cost to compute the quote amount")
	}
	cost, err := domain.CostToPrecision(m, raw)
	if err != nil {
		return "", invalidNumber("cost", err)
	}
	return cost, nil
}

// positionSide 双向持仓模式下推导 posSide；平仓类委托（只减仓、止盈止损、移动止损）方向相反
func (b *Builder) positionSide(req *OrderRequest, m *domain.Market, in *domain.OrderIntent, closing bool) {
	if !m.Contract {
		if in.ReduceOnly {
			req.set("reduceOnly", true)
		}
		return
	}
	switch {
	case in.PositionSide != "":
		req.set("posSide", string(in.PositionSide))
	case in.Hedged:
		long := (in.Side == domain.OrderSideBuy) != closing
		if long {
			req.set("posSide", string(domain.PositionSideLong))
		} else {
			req.set("posSide", string(domain.PositionSideShort))
		}
	default:
		if in.ReduceOnly {
			req.set("reduceOnly", true)
		}
	}
}

// clientOrderID 未指定时生成 brokerId + 16 位随机段，并总是带上 tag
// BrokerID 在 NewBuilder 中已校验，拼接结果不会超过 32 位
func (b *Builder) clientOrderID(req *OrderRequest, given string) {
	id := given
	if id == "" {
		prefix := b.cfg.BrokerID
		if prefix == "" {
			prefix = "gw"
		}
		id = prefix + b.newToken()
	}
	if req.endpoint == EndpointAlgo {
		req.set("algoClOrdId", id)
	} else {
		req.set("clOrdId", id)
	}
	if b.cfg.BrokerID != "" {
		req.set("tag", b.cfg.BrokerID)
	}
}

func (b *Builder) limitPrice(m *domain.Market, in *domain.OrderIntent) (string, error) {
	if !in.Price.Valid {
		return "", domain.NewError(domain.KindInvalidOrder, "", "price is required for limit orders")
	}
	px, err := domain.PriceToPrecision(m, in.Price.Decimal.String())
	if err != nil {
		return "", invalidNumber("price", err)
	}
	return px, nil
}

// algoOrderPrice 策略委托触发后的委托价，市价为 -1
func (b *Builder) algoOrderPrice(m *domain.Market, in *domain.OrderIntent) (string, error) {
	if in.IsMarket() {
		return sentinelMarketPx, nil
	}
	return b.limitPrice(m, in)
}

func setOrderID(req *OrderRequest, id, clientID string) {
	if id != "" {
		req.set("ordId", id)
		return
	}
	req.set("clOrdId", clientID)
}

func triggerType(t domain.TriggerPriceType) string {
	if t == "" {
		return string(domain.TriggerLast)
	}
	return string(t)
}

func checkExtra(extra map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if _, ok := reservedFields[k]; ok {
			return domain.NewError(domain.KindBadRequest, domain.CodeReservedExtraField,
				fmt.Sprintf("extra field %q collides with a typed parameter", k))
		}
	}
	return nil
}

func invalidNumber(field string, err error) error {
	return domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("invalid %s: %v", field, err))
}
