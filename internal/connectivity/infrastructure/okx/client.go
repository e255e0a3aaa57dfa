package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// 单页条数上限
const pageSize = 100

// 一次持仓查询最多 instId 个数
const maxPositionIDs = 10

// Client 实现 domain.ExchangeClient
// 每个方法只做一次往返（分页查询按页顺序请求），不做重试
type Client struct {
	caller  *Caller
	builder *Builder
	markets domain.MarketLookup
}

var _ domain.ExchangeClient = (*Client)(nil)

// NewClient 创建客户端
func NewClient(c *Caller, b *Builder, markets domain.MarketLookup) *Client {
	return &Client{caller: c, builder: b, markets: markets}
}

// CreateOrder 下单
func (c *Client) CreateOrder(ctx context.Context, in *domain.OrderIntent) (*domain.Order, error) {
	m, err := c.markets.Market(ctx, in.Symbol)
	if err != nil {
		return nil, err
	}
	req, err := c.builder.BuildCreateOrder(m, in)
	if err != nil {
		return nil, err
	}
	var body any = req
	if req.Endpoint().Array() {
		body = []*OrderRequest{req}
	}
	env, err := c.caller.private(ctx, http.MethodPost, req.Endpoint().Path(), nil, body)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireOrder](env.Data)
	if err != nil {
		return nil, malformed(req.Endpoint().Path(), err)
	}
	if len(ws) == 0 {
		return nil, malformed(req.Endpoint().Path(), fmt.Errorf("empty order acknowledgement"))
	}
	o := ParseOrder(&ws[0], m)
	if o.IsRejected() {
		return o, nil
	}
	return acknowledge(o, m, in, req), nil
}

// CreateOrders 批量下单，拒单体现在对应位置的 Order.Rejection 中
func (c *Client) CreateOrders(ctx context.Context, intents []*domain.OrderIntent) ([]*domain.Order, error) {
	markets := make([]*domain.Market, len(intents))
	for i, in := range intents {
		m, err := c.markets.Market(ctx, in.Symbol)
		if err != nil {
			return nil, err
		}
		markets[i] = m
	}
	reqs, err := c.builder.BuildCreateOrders(markets, intents)
	if err != nil {
		return nil, err
	}
	env, err := c.caller.privateBatch(ctx, http.MethodPost, pathBatchOrders, reqs)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireOrder](env.Data)
	if err != nil {
		return nil, malformed(pathBatchOrders, err)
	}
	out := make([]*domain.Order, 0, len(ws))
	for i := range ws {
		var m *domain.Market
		if i < len(markets) {
			m = markets[i]
		}
		o := ParseOrder(&ws[i], m)
		if !o.IsRejected() && i < len(intents) {
			o = acknowledge(o, m, intents[i], reqs[i])
		}
		out = append(out, o)
	}
	return out, nil
}

// EditOrder 改单
func (c *Client) EditOrder(ctx context.Context, in *domain.EditIntent) (*domain.Order, error) {
	m, err := c.markets.Market(ctx, in.Symbol)
	if err != nil {
		return nil, err
	}
	req, err := c.builder.BuildEditOrder(m, in)
	if err != nil {
		return nil, err
	}
	o, err := c.single(ctx, req, m)
	if err != nil {
		return nil, err
	}
	if !o.IsRejected() {
		if o.Status == "" {
			o.Status = domain.OrderStatusOpen
		}
		o.Amount = optDecimal(req.String("newSz"))
		o.Price = optDecimal(req.String("newPx"))
	}
	return o, nil
}

// CancelOrder 撤单
func (c *Client) CancelOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	m, err := c.markets.Market(ctx, ref.Symbol)
	if err != nil {
		return nil, err
	}
	req, err := c.builder.BuildCancelOrder(m, ref)
	if err != nil {
		return nil, err
	}
	o, err := c.single(ctx, req, m)
	if err != nil {
		return nil, err
	}
	return canceled(o, m), nil
}

// CancelOrders 批量撤单
func (c *Client) CancelOrders(ctx context.Context, refs []*domain.OrderRef) ([]*domain.Order, error) {
	markets := make([]*domain.Market, len(refs))
	for i, ref := range refs {
		m, err := c.markets.Market(ctx, ref.Symbol)
		if err != nil {
			return nil, err
		}
		markets[i] = m
	}
	reqs, err := c.builder.BuildCancelOrders(markets, refs)
	if err != nil {
		return nil, err
	}
	path := reqs[0].Endpoint().Path()
	env, err := c.caller.privateBatch(ctx, http.MethodPost, path, reqs)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireOrder](env.Data)
	if err != nil {
		return nil, malformed(path, err)
	}
	out := make([]*domain.Order, 0, len(ws))
	for i := range ws {
		var m *domain.Market
		if i < len(markets) {
			m = markets[i]
		}
		out = append(out, canceled(ParseOrder(&ws[i], m), m))
	}
	return out, nil
}

// FetchOrder 查询单个订单
func (c *Client) FetchOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	m, err := c.markets.Market(ctx, ref.Symbol)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	path := pathOrder
	if ref.Trigger {
		path = pathOrderAlgo
		if ref.ID != "" {
			q.Set("algoId", ref.ID)
		} else {
			q.Set("algoClOrdId", ref.ClientOrderID)
		}
	} else {
		q.Set("instId", m.ID)
		if ref.ID != "" {
			q.Set("ordId", ref.ID)
		} else {
			q.Set("clOrdId", ref.ClientOrderID)
		}
	}
	env, err := c.caller.private(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireOrder](env.Data)
	if err != nil {
		return nil, malformed(path, err)
	}
	if len(ws) == 0 {
		return nil, domain.NewError(domain.KindOrderNotFound, "", fmt.Sprintf("order %s%s not found", ref.ID, ref.ClientOrderID))
	}
	return ParseOrder(&ws[0], m), nil
}

// FetchOpenOrders 当前挂单
func (c *Client) FetchOpenOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	path := pathOrdersPending
	if q.Trigger {
		path = pathOrdersAlgoPending
	}
	orders, err := c.fetchOrders(ctx, path, q, false)
	if err != nil {
		return nil, err
	}
	if q.Since <= 0 {
		return orders, nil
	}
	filtered := orders[:0]
	for _, o := range orders {
		if o.Timestamp >= q.Since {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

// FetchClosedOrders 历史订单（已成交与已撤销）
func (c *Client) FetchClosedOrders(ctx context.Context, q *domain.OrderQuery) ([]*domain.Order, error) {
	path := pathOrdersHistory
	if q.Trigger {
		path = pathOrdersAlgoHistory
	}
	return c.fetchOrders(ctx, path, q, true)
}

func (c *Client) fetchOrders(ctx context.Context, path string, q *domain.OrderQuery, history bool) ([]*domain.Order, error) {
	base, m, err := c.scope(ctx, q.Symbol, q.Type, history && !q.Trigger)
	if err != nil {
		return nil, err
	}
	if q.Trigger {
		algoType := q.AlgoType
		if algoType == "" {
			algoType = ordTypeConditional
		}
		base.Set("ordType", algoType)
		if history {
			base.Set("state", "effective")
		}
	} else if history && q.Since > 0 {
		base.Set("begin", strconv.FormatInt(q.Since, 10))
	}
	base.Set("limit", strconv.Itoa(pageLimit(q.Limit)))

	resolve := c.resolver(ctx, m)
	return Paginate(ctx, PaginateOptions{Limit: q.Limit}, func(ctx context.Context, cursor string) (Page[*domain.Order], error) {
		query := cloneValues(base)
		if cursor != "" {
			query.Set("after", cursor)
		}
		env, err := c.caller.private(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return Page[*domain.Order]{}, err
		}
		ws, err := decodeList[WireOrder](env.Data)
		if err != nil {
			return Page[*domain.Order]{}, malformed(path, err)
		}
		orders := ParseOrders(ws, resolve)
		next := ""
		if n := len(orders); n > 0 && n >= pageLimit(q.Limit) {
			next = orders[n-1].ID
		}
		return Page[*domain.Order]{Items: orders, Cursor: next}, nil
	})
}

// FetchMyTrades 成交明细，按 billId 翻页
func (c *Client) FetchMyTrades(ctx context.Context, q *domain.TradeQuery) ([]*domain.Trade, error) {
	base, m, err := c.scope(ctx, q.Symbol, q.Type, true)
	if err != nil {
		return nil, err
	}
	if q.OrderID != "" {
		base.Set("ordId", q.OrderID)
	}
	if q.Since > 0 {
		base.Set("begin", strconv.FormatInt(q.Since, 10))
	}
	base.Set("limit", strconv.Itoa(pageLimit(q.Limit)))

	resolve := c.resolver(ctx, m)
	return Paginate(ctx, PaginateOptions{Limit: q.Limit}, func(ctx context.Context, cursor string) (Page[*domain.Trade], error) {
		query := cloneValues(base)
		if cursor != "" {
			query.Set("after", cursor)
		}
		env, err := c.caller.private(ctx, http.MethodGet, pathFillsHistory, query, nil)
		if err != nil {
			return Page[*domain.Trade]{}, err
		}
		ws, err := decodeList[WireFill](env.Data)
		if err != nil {
			return Page[*domain.Trade]{}, malformed(pathFillsHistory, err)
		}
		trades := make([]*domain.Trade, 0, len(ws))
		for i := range ws {
			trades = append(trades, ParseTrade(&ws[i], resolve(ws[i].InstID)))
		}
		next := ""
		if n := len(trades); n > 0 && n >= pageLimit(q.Limit) {
			next = trades[n-1].Cursor
		}
		return Page[*domain.Trade]{Items: trades, Cursor: next}, nil
	})
}

// FetchPositions 持仓，symbols 为空时返回全部
func (c *Client) FetchPositions(ctx context.Context, symbols []string) ([]*domain.Position, error) {
	if len(symbols) > maxPositionIDs {
		return nil, domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("at most %d symbols per position query", maxPositionIDs))
	}
	q := url.Values{}
	if len(symbols) > 0 {
		ids := make([]string, 0, len(symbols))
		for _, s := range symbols {
			m, err := c.markets.Market(ctx, s)
			if err != nil {
				return nil, err
			}
			ids = append(ids, m.ID)
		}
		q.Set("instId", strings.Join(ids, ","))
	}
	env, err := c.caller.private(ctx, http.MethodGet, pathPositions, q, nil)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WirePosition](env.Data)
	if err != nil {
		return nil, malformed(pathPositions, err)
	}
	resolve := c.resolver(ctx, nil)
	out := make([]*domain.Position, 0, len(ws))
	for i := range ws {
		out = append(out, ParsePosition(&ws[i], resolve(ws[i].InstID)))
	}
	return out, nil
}

// FetchBalance 账户余额
func (c *Client) FetchBalance(ctx context.Context, account domain.AccountType) (*domain.Balance, error) {
	switch account {
	case domain.AccountFunding:
		env, err := c.caller.private(ctx, http.MethodGet, pathFundingBalance, nil, nil)
		if err != nil {
			return nil, err
		}
		ws, err := decodeList[WireFundingBalance](env.Data)
		if err != nil {
			return nil, malformed(pathFundingBalance, err)
		}
		return ParseFundingBalance(ws), nil
	case domain.AccountTrading, "":
		env, err := c.caller.private(ctx, http.MethodGet, pathTradingBalance, nil, nil)
		if err != nil {
			return nil, err
		}
		ws, err := decodeList[WireTradingBalance](env.Data)
		if err != nil {
			return nil, malformed(pathTradingBalance, err)
		}
		return ParseTradingBalance(ws), nil
	}
	return nil, domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("unknown account %q", account))
}

// Transfer 资金账户与交易账户之间划转
func (c *Client) Transfer(ctx context.Context, in *domain.TransferIntent) (*domain.Transfer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	body := map[string]string{
		"ccy":  in.Currency,
		"amt":  in.Amount.String(),
		"from": AccountID(in.From),
		"to":   AccountID(in.To),
		"type": "0",
	}
	if in.ClientID != "" {
		body["clientId"] = in.ClientID
	}
	env, err := c.caller.private(ctx, http.MethodPost, pathTransfer, nil, body)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireTransfer](env.Data)
	if err != nil {
		return nil, malformed(pathTransfer, err)
	}
	if len(ws) == 0 {
		return nil, malformed(pathTransfer, fmt.Errorf("empty transfer acknowledgement"))
	}
	t := ParseTransfer(&ws[0])
	if t.Amount.IsZero() {
		t.Amount = in.Amount
	}
	if t.Currency == "" {
		t.Currency = in.Currency
	}
	if t.FromAccount == "" {
		t.FromAccount = in.From
	}
	if t.ToAccount == "" {
		t.ToAccount = in.To
	}
	return t, nil
}

// FetchTransfer 查询划转状态
func (c *Client) FetchTransfer(ctx context.Context, id, currency string) (*domain.Transfer, error) {
	if id == "" {
		return nil, domain.NewError(domain.KindBadRequest, "", "transfer id is required")
	}
	env, err := c.caller.private(ctx, http.MethodGet, pathTransferState, url.Values{"transId": {id}}, nil)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireTransfer](env.Data)
	if err != nil {
		return nil, malformed(pathTransferState, err)
	}
	if len(ws) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "", fmt.Sprintf("transfer %s not found", id))
	}
	t := ParseTransfer(&ws[0])
	if t.Currency == "" {
		t.Currency = currency
	}
	return t, nil
}

// FetchLedger 账单流水，按 billId 翻页
func (c *Client) FetchLedger(ctx context.Context, q *domain.LedgerQuery) ([]*domain.LedgerEntry, error) {
	base := url.Values{}
	if q.Currency != "" {
		base.Set("ccy", q.Currency)
	}
	if q.Since > 0 {
		base.Set("begin", strconv.FormatInt(q.Since, 10))
	}
	base.Set("limit", strconv.Itoa(pageLimit(q.Limit)))

	resolve := c.resolver(ctx, nil)
	return Paginate(ctx, PaginateOptions{Limit: q.Limit}, func(ctx context.Context, cursor string) (Page[*domain.LedgerEntry], error) {
		query := cloneValues(base)
		if cursor != "" {
			query.Set("after", cursor)
		}
		env, err := c.caller.private(ctx, http.MethodGet, pathBills, query, nil)
		if err != nil {
			return Page[*domain.LedgerEntry]{}, err
		}
		ws, err := decodeList[WireBill](env.Data)
		if err != nil {
			return Page[*domain.LedgerEntry]{}, malformed(pathBills, err)
		}
		entries := make([]*domain.LedgerEntry, 0, len(ws))
		for i := range ws {
			var m *domain.Market
			if ws[i].InstID != "" {
				m = resolve(ws[i].InstID)
			}
			entries = append(entries, ParseLedgerEntry(&ws[i], m))
		}
		next := ""
		if n := len(entries); n > 0 && n >= pageLimit(q.Limit) {
			next = entries[n-1].ID
		}
		return Page[*domain.LedgerEntry]{Items: entries, Cursor: next}, nil
	})
}

// single 单笔撤单/改单，子项失败时交易所返回 code 1，由外壳检查转换为分类错误
func (c *Client) single(ctx context.Context, req *OrderRequest, m *domain.Market) (*domain.Order, error) {
	var body any = req
	if req.Endpoint().Array() {
		body = []*OrderRequest{req}
	}
	path := req.Endpoint().Path()
	env, err := c.caller.private(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	ws, err := decodeList[WireOrder](env.Data)
	if err != nil {
		return nil, malformed(path, err)
	}
	if len(ws) == 0 {
		return nil, malformed(path, fmt.Errorf("empty acknowledgement"))
	}
	o := ParseOrder(&ws[0], m)
	if o.Symbol == "" && m != nil {
		o.Symbol = m.Symbol
	}
	return o, nil
}

// scope 构造 instType/instId 查询参数；requireType 为 true 时缺省 instType 取 SPOT
func (c *Client) scope(ctx context.Context, symbol string, typ domain.MarketType, requireType bool) (url.Values, *domain.Market, error) {
	q := url.Values{}
	var m *domain.Market
	if symbol != "" {
		var err error
		if m, err = c.markets.Market(ctx, symbol); err != nil {
			return nil, nil, err
		}
		q.Set("instId", m.ID)
		typ = m.Type
	}
	if typ != "" {
		q.Set("instType", instType(typ))
	} else if requireType {
		q.Set("instType", instType(domain.MarketTypeSpot))
	}
	return q, m, nil
}

// resolver 按 instId 查市场，查不到时返回 nil 并以 instId 作为 symbol
func (c *Client) resolver(ctx context.Context, known *domain.Market) func(string) *domain.Market {
	return func(id string) *domain.Market {
		if known != nil && known.ID == id {
			return known
		}
		m, err := c.markets.MarketByID(ctx, id)
		if err != nil {
			return nil
		}
		return m
	}
}

// acknowledge 下单回执只有订单号，用请求补全快照
func acknowledge(o *domain.Order, m *domain.Market, in *domain.OrderIntent, req *OrderRequest) *domain.Order {
	if o.Status == "" {
		o.Status = domain.OrderStatusOpen
	}
	if o.ClientOrderID == "" {
		o.ClientOrderID = req.ClientOrderID()
	}
	o.Symbol = m.Symbol
	o.Side = in.Side
	o.Type = in.Type
	o.ReduceOnly = in.ReduceOnly
	o.PostOnly = req.OrdType() == ordTypePostOnly
	switch req.OrdType() {
	case ordTypePostOnly:
		o.TimeInForce = domain.TimeInForcePO
	case ordTypeFOK:
		o.TimeInForce = domain.TimeInForceFOK
	case ordTypeIOC, ordTypeOptimalLimitIOC:
		o.TimeInForce = domain.TimeInForceIOC
	case ordTypeLimit:
		o.TimeInForce = domain.TimeInForceGTC
	}
	if mode := req.String("tdMode"); mode != tdModeCash {
		o.MarginMode = domain.MarginMode(mode)
	}
	if IsAlgoType(req.OrdType()) {
		o.AlgoType = req.OrdType()
		o.TriggerPrice = optDecimal(req.String("triggerPx"))
		o.StopLossPrice = optDecimal(req.String("slTriggerPx"))
		o.TakeProfitPrice = optDecimal(req.String("tpTriggerPx"))
		o.TrailingPercent = in.TrailingPercent
	}
	if px := req.String("px"); px != "" {
		o.Price = optDecimal(px)
	} else if px := req.String("orderPx"); px != "" && px != sentinelMarketPx {
		o.Price = optDecimal(px)
	}
	if req.String("tgtCcy") == tgtCcyQuote {
		o.Cost = optDecimal(req.String("sz"))
	} else {
		o.Amount = optDecimal(req.String("sz"))
	}
	return o
}

// canceled 撤单回执，未被拒绝时状态为 canceled
func canceled(o *domain.Order, m *domain.Market) *domain.Order {
	if m != nil && o.Symbol == "" {
		o.Symbol = m.Symbol
	}
	if !o.IsRejected() && o.Status == "" {
		o.Status = domain.OrderStatusCanceled
	}
	return o
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > pageSize {
		return pageSize
	}
	return limit
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
