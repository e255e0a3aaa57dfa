package okx

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

const (
	kAuth        = domain.KindAuthentication
	kInvalid     = domain.KindInvalidOrder
	kFunds       = domain.KindInsufficientFunds
	kSymbol      = domain.KindBadSymbol
	kBadRequest  = domain.KindBadRequest
	kNotFound    = domain.KindOrderNotFound
	kCancelling  = domain.KindCancelPending
	kRateLimit   = domain.KindRateLimitExceeded
	kSuspended   = domain.KindAccountSuspended
	kDenied      = domain.KindPermissionDenied
	kRestricted  = domain.KindRestrictedLocation
	kUnavailable = domain.KindExchangeNotAvailable
	kMaintenance = domain.KindOnMaintenance
	kNetwork     = domain.KindNetworkError
	kGeneric     = domain.KindExchangeError
)

// exactCodes 精确错误码表，顶层 code 与子项 sCode 共用
var exactCodes = map[string]domain.ErrorKind{
	"1":    kGeneric,
	"1009": kBadRequest,
	"4001": kAuth,
	"4002": kBadRequest,
	"4003": kRateLimit,
	"4004": kNetwork,
	"4005": kUnavailable,
	"4006": kBadRequest,
	"4007": kAuth,
	"4008": kRateLimit,
	"4088": kGeneric,

	// 公共
	"50000": kBadRequest,
	"50001": kMaintenance,
	"50002": kBadRequest,
	"50004": kNetwork,
	"50005": kUnavailable,
	"50006": kBadRequest,
	"50007": kSuspended,
	"50008": kAuth,
	"50009": kSuspended,
	"50010": kGeneric,
	"50011": kRateLimit,
	"50012": kGeneric,
	"50013": kUnavailable,
	"50014": kBadRequest,
	"50015": kGeneric,
	"50016": kGeneric,
	"50017": kGeneric,
	"50018": kGeneric,
	"50019": kGeneric,
	"50020": kGeneric,
	"50021": kGeneric,
	"50022": kGeneric,
	"50023": kGeneric,
	"50024": kBadRequest,
	"50025": kGeneric,
	"50026": kUnavailable,
	"50027": kDenied,
	"50028": kGeneric,
	"50044": kBadRequest,
	"50061": kRateLimit,
	"50062": kGeneric,

	// API 鉴权
	"50100": kGeneric,
	"50101": kAuth,
	"50102": kAuth,
	"50103": kAuth,
	"50104": kAuth,
	"50105": kAuth,
	"50106": kAuth,
	"50107": kAuth,
	"50108": kGeneric,
	"50109": kGeneric,
	"50110": kDenied,
	"50111": kAuth,
	"50112": kAuth,
	"50113": kAuth,
	"50114": kAuth,
	"50115": kBadRequest,
	"50119": kAuth,
	"50120": kDenied,
	"50121": kDenied,

	// 交易
	"51000": kBadRequest,
	"51001": kSymbol,
	"51002": kSymbol,
	"51003": kBadRequest,
	"51004": kInvalid,
	"51005": kInvalid,
	"51006": kInvalid,
	"51007": kInvalid,
	"51008": kFunds,
	"51009": kSuspended,
	"51010": kDenied,
	"51011": kInvalid,
	"51012": kSymbol,
	"51014": kSymbol,
	"51015": kSymbol,
	"51016": kInvalid,
	"51017": kGeneric,
	"51018": kGeneric,
	"51019": kGeneric,
	"51020": kInvalid,
	"51021": kInvalid,
	"51022": kInvalid,
	"51023": kGeneric,
	"51024": kSuspended,
	"51025": kGeneric,
	"51026": kSymbol,
	"51030": kInvalid,
	"51031": kInvalid,
	"51032": kInvalid,
	"51033": kInvalid,
	"51037": kInvalid,
	"51038": kInvalid,
	"51044": kInvalid,
	"51046": kInvalid,
	"51047": kInvalid,
	"51048": kInvalid,
	"51049": kInvalid,
	"51050": kInvalid,
	"51051": kInvalid,
	"51052": kInvalid,
	"51053": kInvalid,
	"51054": kBadRequest,
	"51056": kInvalid,
	"51058": kInvalid,
	"51059": kInvalid,
	"51100": kInvalid,
	"51101": kInvalid,
	"51102": kInvalid,
	"51103": kInvalid,
	"51104": kInvalid,
	"51105": kInvalid,
	"51106": kInvalid,
	"51107": kInvalid,
	"51108": kInvalid,
	"51109": kInvalid,
	"51110": kInvalid,
	"51111": kBadRequest,
	"51112": kInvalid,
	"51113": kRateLimit,
	"51115": kInvalid,
	"51116": kInvalid,
	"51117": kInvalid,
	"51118": kInvalid,
	"51119": kFunds,
	"51120": kInvalid,
	"51121": kInvalid,
	"51122": kInvalid,
	"51124": kInvalid,
	"51125": kInvalid,
	"51126": kInvalid,
	"51127": kFunds,
	"51128": kInvalid,
	"51129": kInvalid,
	"51130": kSymbol,
	"51131": kFunds,
	"51132": kInvalid,
	"51133": kInvalid,
	"51134": kInvalid,
	"51135": kInvalid,
	"51136": kInvalid,
	"51137": kInvalid,
	"51138": kInvalid,
	"51139": kInvalid,
	"51155": kRestricted,
	"51156": kBadRequest,
	"51159": kBadRequest,
	"51162": kInvalid,
	"51163": kInvalid,
	"51166": kInvalid,
	"51174": kInvalid,
	"51185": kInvalid,
	"51201": kInvalid,
	"51202": kInvalid,
	"51203": kInvalid,
	"51204": kInvalid,
	"51205": kInvalid,
	"51250": kInvalid,
	"51251": kInvalid,
	"51252": kInvalid,
	"51253": kInvalid,
	"51254": kInvalid,
	"51255": kInvalid,
	"51256": kInvalid,
	"51257": kInvalid,
	"51258": kInvalid,
	"51259": kInvalid,
	"51260": kInvalid,
	"51261": kInvalid,
	"51262": kInvalid,
	"51263": kInvalid,
	"51264": kInvalid,
	"51265": kInvalid,
	"51267": kInvalid,
	"51268": kInvalid,
	"51269": kInvalid,
	"51270": kInvalid,
	"51271": kInvalid,
	"51272": kInvalid,
	"51273": kInvalid,
	"51274": kInvalid,
	"51275": kInvalid,
	"51276": kInvalid,
	"51277": kInvalid,
	"51278": kInvalid,
	"51279": kInvalid,
	"51280": kInvalid,
	"51321": kInvalid,
	"51322": kInvalid,
	"51323": kBadRequest,
	"51324": kBadRequest,
	"51325": kInvalid,
	"51327": kInvalid,
	"51328": kInvalid,
	"51329": kInvalid,
	"51330": kInvalid,

	// 撤单
	"51400": kNotFound,
	"51401": kNotFound,
	"51402": kNotFound,
	"51403": kInvalid,
	"51404": kInvalid,
	"51405": kGeneric,
	"51406": kGeneric,
	"51407": kBadRequest,
	"51408": kGeneric,
	"51409": kGeneric,
	"51410": kCancelling,

	// 改单
	"51500": kGeneric,
	"51501": kGeneric,
	"51502": kFunds,
	"51503": kNotFound,
	"51506": kGeneric,
	"51508": kGeneric,
	"51509": kGeneric,
	"51510": kGeneric,
	"51511": kGeneric,

	// 查单
	"51600": kGeneric,
	"51601": kGeneric,
	"51602": kGeneric,
	"51603": kNotFound,

	"51732": kAuth,
	"51733": kAuth,
	"51734": kAuth,
	"51735": kGeneric,
	"51736": kFunds,

	"52000": kGeneric,
	"54000": kGeneric,
	"54001": kGeneric,

	// 资金
	"58000": kGeneric,
	"58001": kAuth,
	"58002": kDenied,
	"58003": kGeneric,
	"58004": kSuspended,
	"58005": kGeneric,
	"58006": kGeneric,
	"58007": kGeneric,
	"58100": kGeneric,
	"58101": kSuspended,
	"58102": kRateLimit,
	"58103": kGeneric,
	"58104": kGeneric,
	"58105": kGeneric,
	"58106": kGeneric,
	"58107": kGeneric,
	"58108": kGeneric,
	"58109": kGeneric,
	"58110": kGeneric,
	"58111": kGeneric,
	"58112": kGeneric,
	"58114": kGeneric,
	"58115": kGeneric,
	"58116": kGeneric,
	"58117": kGeneric,
	"58125": kBadRequest,
	"58126": kBadRequest,
	"58127": kBadRequest,
	"58128": kBadRequest,
	"58200": kGeneric,
	"58201": kGeneric,
	"58202": kGeneric,
	"58203": kBadRequest,
	"58204": kSuspended,
	"58205": kGeneric,
	"58206": kGeneric,
	"58207": kBadRequest,
	"58208": kGeneric,
	"58209": kGeneric,
	"58210": kGeneric,
	"58211": kGeneric,
	"58212": kGeneric,
	"58213": kAuth,
	"58221": kBadRequest,
	"58222": kBadRequest,
	"58224": kBadRequest,
	"58227": kBadRequest,
	"58228": kBadRequest,
	"58229": kFunds,
	"58300": kGeneric,
	"58350": kFunds,

	// 账户
	"59000": kGeneric,
	"59001": kGeneric,
	"59100": kGeneric,
	"59101": kGeneric,
	"59102": kGeneric,
	"59103": kFunds,
	"59104": kGeneric,
	"59105": kGeneric,
	"59106": kGeneric,
	"59107": kGeneric,
	"59108": kFunds,
	"59109": kGeneric,
	"59128": kInvalid,
	"59200": kFunds,
	"59201": kFunds,
	"59216": kBadRequest,
	"59300": kGeneric,
	"59301": kGeneric,
	"59313": kGeneric,
	"59401": kGeneric,
	"59500": kGeneric,
	"59501": kGeneric,
	"59502": kGeneric,
	"59503": kGeneric,
	"59504": kGeneric,
	"59505": kGeneric,
	"59506": kGeneric,
	"59507": kGeneric,
	"59508": kSuspended,
	"59642": kBadRequest,
	"59643": kGeneric,

	// WebSocket 登录类错误码在 REST 网关上偶尔出现
	"60001": kAuth,
	"60002": kAuth,
	"60003": kAuth,
	"60004": kAuth,
	"60005": kAuth,
	"60006": kAuth,
	"60007": kAuth,
	"60008": kAuth,
	"60009": kAuth,
	"60010": kAuth,
	"60011": kAuth,
	"60012": kBadRequest,
	"60013": kBadRequest,
	"60014": kRateLimit,
	"60015": kNetwork,
	"60016": kUnavailable,
	"60017": kBadRequest,
	"60018": kBadRequest,
	"60019": kBadRequest,
	"60020": kGeneric,
	"60021": kDenied,
	"60022": kAuth,
	"60023": kRateLimit,
	"60024": kAuth,
	"60025": kGeneric,
	"60026": kBadRequest,
	"60027": kBadRequest,
	"60028": kBadRequest,
	"60029": kDenied,
	"60030": kDenied,
	"60031": kAuth,
	"60032": kAuth,
	"63999": kGeneric,

	"70010": kBadRequest,
	"70013": kBadRequest,
	"70016": kBadRequest,
}

// broadMessages 子串匹配表，按顺序检查，匹配时忽略大小写
var broadMessages = []struct {
	fragment string
	kind     domain.ErrorKind
}{
	{"internal server error", kUnavailable},
	{"server error", kUnavailable},
	{"system is busy", kUnavailable},
	{"service unavailable", kUnavailable},
	{"too many requests", kRateLimit},
	{"request too frequent", kRateLimit},
	{"insufficient", kFunds},
	{"does not exist", kBadRequest},
}

// ExactKind 精确码表查询
func ExactKind(code string) (domain.ErrorKind, bool) {
	k, ok := exactCodes[code]
	return k, ok
}

// BroadKind 子串查询
func BroadKind(msg string) (domain.ErrorKind, bool) {
	if msg == "" {
		return "", false
	}
	lower := strings.ToLower(msg)
	for _, b := range broadMessages {
		if strings.Contains(lower, b.fragment) {
			return b.kind, true
		}
	}
	return "", false
}

// Classify 单个 code/msg 分类：精确码 → 子串 → 通用错误
// 原始 code 与 msg 始终保留
func Classify(code, msg string) *domain.ExchangeError {
	if kind, ok := ExactKind(code); ok {
		return domain.NewError(kind, code, msg)
	}
	if kind, ok := BroadKind(msg); ok {
		return domain.NewError(kind, code, msg)
	}
	return domain.NewError(kGeneric, code, msg)
}

// classifyItem 子项分类，没有命中任何表时返回 nil
func classifyItem(code, msg string) *domain.ExchangeError {
	if kind, ok := ExactKind(code); ok {
		return domain.NewError(kind, code, msg)
	}
	if kind, ok := BroadKind(msg); ok {
		return domain.NewError(kind, code, msg)
	}
	return nil
}

// classifyEnvelope 按优先级分类：子项 sCode 精确 → 子项 sMsg 子串 → 顶层 code 精确 → 顶层 msg 子串 → 通用
func classifyEnvelope(env *envelope) *domain.ExchangeError {
	for _, it := range env.items() {
		if !it.failed() {
			continue
		}
		if e := classifyItem(string(it.SCode), it.SMsg); e != nil {
			return e
		}
	}
	return Classify(string(env.Code), env.Msg)
}

// CheckEnvelope 检查顶层响应码
// code 0 成功；code 2 为批量部分成功，不视为失败，由调用方逐项处理
func CheckEnvelope(env *envelope) error {
	switch string(env.Code) {
	case codeOK, codePartialSuccess:
		return nil
	}
	return classifyEnvelope(env)
}

// checkBatchEnvelope 批量接口全部失败时交易所返回 code 1，
// 只要 data 中带有子项状态就交给逐项解析
func checkBatchEnvelope(env *envelope) error {
	if string(env.Code) == codeFailed {
		for _, it := range env.items() {
			if it.SCode != "" {
				return nil
			}
		}
	}
	return CheckEnvelope(env)
}

const maxMessageBytes = 256

// ClassifyHTTP 非 2xx 响应分类
// 429 优先识别为网关限流，其次解析响应外壳中的交易所错误码，最后按 HTTP 状态码兜底
func ClassifyHTTP(status int, body []byte) *domain.ExchangeError {
	text := http.StatusText(status)
	if status == http.StatusTooManyRequests {
		return domain.NewError(domain.KindDDoSProtection, strconv.Itoa(status), text)
	}
	if env, err := decodeEnvelope(body); err == nil && env.Code != "" && string(env.Code) != codeOK {
		return classifyEnvelope(env)
	}

	code := strconv.Itoa(status)
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageBytes {
		n := maxMessageBytes
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n]
	}
	if msg == "" {
		msg = text
	}
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusProxyAuthRequired,
		status == http.StatusNetworkAuthenticationRequired:
		return domain.NewError(kAuth, code, msg)
	case status == http.StatusForbidden:
		return domain.NewError(kDenied, code, msg)
	case status == http.StatusUnavailableForLegalReasons:
		return domain.NewError(kRestricted, code, msg)
	case status == http.StatusGatewayTimeout:
		return domain.NewError(kNetwork, code, msg)
	case status == http.StatusNotFound,
		status == http.StatusConflict,
		status == http.StatusGone,
		status >= 500:
		return domain.NewError(kUnavailable, code, msg)
	}
	if kind, ok := BroadKind(msg); ok {
		return domain.NewError(kind, code, msg)
	}
	return domain.NewError(kGeneric, code, msg)
}
