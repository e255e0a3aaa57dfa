package domain

// ErrorKind 交易所错误分类
type ErrorKind string

const (
	KindAuthentication       ErrorKind = "AuthenticationError"
	KindInvalidOrder         ErrorKind = "InvalidOrder"
	KindInsufficientFunds    ErrorKind = "InsufficientFunds"
	KindBadSymbol            ErrorKind = "BadSymbol"
	KindBadRequest           ErrorKind = "BadRequest"
	KindOrderNotFound        ErrorKind = "OrderNotFound"
	KindCancelPending        ErrorKind = "CancelPending"
	KindRateLimitExceeded    ErrorKind = "RateLimitExceeded"
	KindDDoSProtection       ErrorKind = "DDoSProtection"
	KindAccountSuspended     ErrorKind = "AccountSuspended"
	KindPermissionDenied     ErrorKind = "PermissionDenied"
	KindRestrictedLocation   ErrorKind = "RestrictedLocation"
	KindExchangeNotAvailable ErrorKind = "ExchangeNotAvailable"
	KindOnMaintenance        ErrorKind = "OnMaintenance"
	KindNetworkError         ErrorKind = "NetworkError"
	KindExchangeError        ErrorKind = "ExchangeError"
)

// Retryable 调用方是否可以在退避后重试
// 只有限流与瞬时不可用类错误可重试，其余均为致命或需要修正请求
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimitExceeded, KindDDoSProtection,
		KindExchangeNotAvailable, KindOnMaintenance, KindNetworkError:
		return true
	default:
		return false
	}
}

// ExchangeError 经过分类的交易所错误
// Code/Message 保留交易所原始返回，不会被丢弃
type ExchangeError struct {
	Kind      ErrorKind `json:"kind"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Retryable bool      `json:"retryable"`
	Wrapped   error     `json:"-"`
}

// NewError 创建分类错误
func NewError(kind ErrorKind, code, message string) *ExchangeError {
	return &ExchangeError{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Retryable: kind.Retryable(),
	}
}

// WrapError 包装底层错误（通常是传输层错误）
func WrapError(kind ErrorKind, message string, wrapped error) *ExchangeError {
	e := NewError(kind, "", message)
	e.Wrapped = wrapped
	return e
}

// Error 实现 error 接口
func (e *ExchangeError) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += " [" + e.Code + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap 实现 errors.Unwrap
func (e *ExchangeError) Unwrap() error {
	return e.Wrapped
}

// Is 支持 errors.Is 按分类匹配
// 目标只设置 Kind 时按分类匹配；目标同时设置 Code 时要求 Code 一致
func (e *ExchangeError) Is(target error) bool {
	t, ok := target.(*ExchangeError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// 分类哨兵，用于 errors.Is(err, domain.ErrInsufficientFunds)
var (
	ErrAuthentication       = &ExchangeError{Kind: KindAuthentication}
	ErrInvalidOrder         = &ExchangeError{Kind: KindInvalidOrder}
	ErrInsufficientFunds    = &ExchangeError{Kind: KindInsufficientFunds}
	ErrBadSymbol            = &ExchangeError{Kind: KindBadSymbol}
	ErrBadRequest           = &ExchangeError{Kind: KindBadRequest}
	ErrOrderNotFound        = &ExchangeError{Kind: KindOrderNotFound}
	ErrCancelPending        = &ExchangeError{Kind: KindCancelPending}
	ErrRateLimitExceeded    = &ExchangeError{Kind: KindRateLimitExceeded}
	ErrDDoSProtection       = &ExchangeError{Kind: KindDDoSProtection}
	ErrAccountSuspended     = &ExchangeError{Kind: KindAccountSuspended}
	ErrPermissionDenied     = &ExchangeError{Kind: KindPermissionDenied}
	ErrRestrictedLocation   = &ExchangeError{Kind: KindRestrictedLocation}
	ErrExchangeNotAvailable = &ExchangeError{Kind: KindExchangeNotAvailable}
	ErrOnMaintenance        = &ExchangeError{Kind: KindOnMaintenance}
	ErrNetworkError         = &ExchangeError{Kind: KindNetworkError}
	ErrExchangeError        = &ExchangeError{Kind: KindExchangeError}
)

// 本地校验错误码
const (
	CodeMissingCost          = "MISSING_COST"
	CodeConflictingParams    = "CONFLICTING_PARAMS"
	CodeIllegalTransition    = "ILLEGAL_TRANSITION"
	CodeMarketsNotLoaded     = "MARKETS_NOT_LOADED"
	CodeUnsupportedInBatch   = "UNSUPPORTED_IN_BATCH"
	CodeReservedExtraField   = "RESERVED_EXTRA_FIELD"
	CodeInvalidClientOrderID = "INVALID_CLIENT_ORDER_ID"
)

// ErrMissingCost 现货市价买单既没有价格也没有成交额时返回，不做猜测
var ErrMissingCost = &ExchangeError{Kind: KindInvalidOrder, Code: CodeMissingCost}

// ErrConflictingParams 同一保护腿同时给出结构化参数与离散触发价
var ErrConflictingParams = &ExchangeError{Kind: KindInvalidOrder, Code: CodeConflictingParams}

// ErrIllegalTransition 订单状态机不允许的迁移
var ErrIllegalTransition = &ExchangeError{Kind: KindExchangeError, Code: CodeIllegalTransition}
