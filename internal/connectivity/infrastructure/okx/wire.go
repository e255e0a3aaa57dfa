package okx

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// 交易所响应码
const (
	codeOK             = "0"
	codeFailed         = "1"
	codePartialSuccess = "2"
)

// 线上固定取值
const (
	sentinelMarketPx = "-1"
	tgtCcyQuote      = "quote_ccy"
	tgtCcyBase       = "base_ccy"
	tdModeCash       = "cash"
)

// flexString 兼容数字与字符串两种编码
// 网关层错误偶尔以数字返回 code
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// envelope 统一响应外壳
type envelope struct {
	Code flexString      `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// itemStatus 批量操作的子项状态
type itemStatus struct {
	SCode flexString `json:"sCode"`
	SMsg  string     `json:"sMsg"`
}

func (s itemStatus) failed() bool {
	return s.SCode != "" && s.SCode != codeOK
}

// decodeEnvelope 解析外壳，data 延迟解析
func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// items 尝试把 data 解析为子项状态列表，data 不是对象数组时返回 nil
func (e *envelope) items() []itemStatus {
	if len(e.Data) == 0 || e.Data[0] != '[' {
		return nil
	}
	var out []itemStatus
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil
	}
	return out
}

// decodeList 把 data 解析为记录列表
func decodeList[T any](data json.RawMessage) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WireOrder 普通委托与策略委托共用的订单记录
type WireOrder struct {
	InstID      string `json:"instId"`
	InstType    string `json:"instType"`
	OrdID       string `json:"ordId"`
	ClOrdID     string `json:"clOrdId"`
	AlgoID      string `json:"algoId"`
	AlgoClOrdID string `json:"algoClOrdId"`
	Tag         string `json:"tag"`

	SCode flexString `json:"sCode"`
	SMsg  string     `json:"sMsg"`

	State   string `json:"state"`
	OrdType string `json:"ordType"`
	Side    string `json:"side"`
	PosSide string `json:"posSide"`
	TdMode  string `json:"tdMode"`
	TgtCcy  string `json:"tgtCcy"`

	Px        string `json:"px"`
	Sz        string `json:"sz"`
	AccFillSz string `json:"accFillSz"`
	AvgPx     string `json:"avgPx"`
	FillTime  string `json:"fillTime"`

	Fee    string `json:"fee"`
	FeeCcy string `json:"feeCcy"`

	ReduceOnly string `json:"reduceOnly"`

	TriggerPx     string `json:"triggerPx"`
	OrderPx       string `json:"orderPx"`
	TpTriggerPx   string `json:"tpTriggerPx"`
	TpOrdPx       string `json:"tpOrdPx"`
	SlTriggerPx   string `json:"slTriggerPx"`
	SlOrdPx       string `json:"slOrdPx"`
	CallbackRatio string `json:"callbackRatio"`
	ActualPx      string `json:"actualPx"`
	ActualSz      string `json:"actualSz"`

	CTime string `json:"cTime"`
	UTime string `json:"uTime"`
}

// WirePosition 持仓记录
type WirePosition struct {
	InstID      string `json:"instId"`
	InstType    string `json:"instType"`
	PosID       string `json:"posId"`
	MgnMode     string `json:"mgnMode"`
	PosSide     string `json:"posSide"`
	Pos         string `json:"pos"`
	AvgPx       string `json:"avgPx"`
	MarkPx      string `json:"markPx"`
	Lever       string `json:"lever"`
	LiqPx       string `json:"liqPx"`
	Upl         string `json:"upl"`
	UplRatio    string `json:"uplRatio"`
	RealizedPnl string `json:"realizedPnl"`
	Imr         string `json:"imr"`
	Mmr         string `json:"mmr"`
	Margin      string `json:"margin"`
	MgnRatio    string `json:"mgnRatio"`
	NotionalUsd string `json:"notionalUsd"`
	CTime       string `json:"cTime"`
	UTime       string `json:"uTime"`
}

// WireBalanceDetail 交易账户单币种明细
type WireBalanceDetail struct {
	Ccy       string `json:"ccy"`
	AvailBal  string `json:"availBal"`
	FrozenBal string `json:"frozenBal"`
	Eq        string `json:"eq"`
	CashBal   string `json:"cashBal"`
	UTime     string `json:"uTime"`
}

// WireTradingBalance 交易账户余额
type WireTradingBalance struct {
	UTime   string              `json:"uTime"`
	TotalEq string              `json:"totalEq"`
	Details []WireBalanceDetail `json:"details"`
}

// WireFundingBalance 资金账户单币种余额
type WireFundingBalance struct {
	Ccy       string `json:"ccy"`
	Bal       string `json:"bal"`
	FrozenBal string `json:"frozenBal"`
	AvailBal  string `json:"availBal"`
}

// WireFill 成交明细
type WireFill struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	TradeID  string `json:"tradeId"`
	OrdID    string `json:"ordId"`
	ClOrdID  string `json:"clOrdId"`
	BillID   string `json:"billId"`
	FillPx   string `json:"fillPx"`
	FillSz   string `json:"fillSz"`
	Side     string `json:"side"`
	PosSide  string `json:"posSide"`
	ExecType string `json:"execType"`
	Fee      string `json:"fee"`
	FeeCcy   string `json:"feeCcy"`
	Ts       string `json:"ts"`
}

// WireTransfer 资金划转
type WireTransfer struct {
	TransID  string `json:"transId"`
	ClientID string `json:"clientId"`
	Ccy      string `json:"ccy"`
	Amt      string `json:"amt"`
	From     string `json:"from"`
	To       string `json:"to"`
	State    string `json:"state"`
	Ts       string `json:"ts"`
}

// WireBill 账单流水
type WireBill struct {
	BillID string `json:"billId"`
	Ccy    string `json:"ccy"`
	InstID string `json:"instId"`
	Type   string `json:"type"`
	BalChg string `json:"balChg"`
	Bal    string `json:"bal"`
	OrdID  string `json:"ordId"`
	Fee    string `json:"fee"`
	Ts     string `json:"ts"`
}

// WireInstrument 交易产品
type WireInstrument struct {
	InstID     string `json:"instId"`
	InstType   string `json:"instType"`
	InstFamily string `json:"instFamily"`
	Uly        string `json:"uly"`
	BaseCcy    string `json:"baseCcy"`
	QuoteCcy   string `json:"quoteCcy"`
	SettleCcy  string `json:"settleCcy"`
	CtVal      string `json:"ctVal"`
	CtValCcy   string `json:"ctValCcy"`
	CtType     string `json:"ctType"`
	OptType    string `json:"optType"`
	Stk        string `json:"stk"`
	ExpTime    string `json:"expTime"`
	Lever      string `json:"lever"`
	TickSz     string `json:"tickSz"`
	LotSz      string `json:"lotSz"`
	MinSz      string `json:"minSz"`
	MaxLmtSz   string `json:"maxLmtSz"`
	State      string `json:"state"`
}

// WireCurrency 币种（每条链一条记录）
type WireCurrency struct {
	Ccy      string `json:"ccy"`
	Name     string `json:"name"`
	Chain    string `json:"chain"`
	CanDep   bool   `json:"canDep"`
	CanWd    bool   `json:"canWd"`
	MinFee   string `json:"minFee"`
	MinWd    string `json:"minWd"`
	WdTickSz string `json:"wdTickSz"`
}

// optDecimal 空串或非法数字视为缺失
func optDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// optMillis 毫秒时间戳，缺失时为 0
func optMillis(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// optString 去掉首尾空白，空串即缺失
func optString(s string) string {
	return strings.TrimSpace(s)
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
