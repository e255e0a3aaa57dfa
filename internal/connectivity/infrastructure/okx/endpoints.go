package okx

import (
	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
)

// REST 路径
const (
	pathInstruments       = "/api/v5/public/instruments"
	pathCurrencies        = "/api/v5/asset/currencies"
	pathOrder             = "/api/v5/trade/order"
	pathBatchOrders       = "/api/v5/trade/batch-orders"
	pathOrderAlgo         = "/api/v5/trade/order-algo"
	pathAmendOrder        = "/api/v5/trade/amend-order"
	pathCancelOrder       = "/api/v5/trade/cancel-order"
	pathCancelBatchOrders = "/api/v5/trade/cancel-batch-orders"
	pathCancelAlgos       = "/api/v5/trade/cancel-algos"
	pathOrdersPending     = "/api/v5/trade/orders-pending"
	pathOrdersAlgoPending = "/api/v5/trade/orders-algo-pending"
	pathOrdersHistory     = "/api/v5/trade/orders-history"
	pathOrdersAlgoHistory = "/api/v5/trade/orders-algo-history"
	pathFillsHistory      = "/api/v5/trade/fills-history"
	pathPositions         = "/api/v5/account/positions"
	pathTradingBalance    = "/api/v5/account/balance"
	pathFundingBalance    = "/api/v5/asset/balances"
	pathTransfer          = "/api/v5/asset/transfer"
	pathTransferState     = "/api/v5/asset/transfer-state"
	pathBills             = "/api/v5/account/bills"
)

// 单次批量操作的上限
const maxBatchSize = 20

// Endpoint 请求所属的接口族
type Endpoint string

const (
	EndpointPlain       Endpoint = "plain"
	EndpointBatch       Endpoint = "batch"
	EndpointAlgo        Endpoint = "algo"
	EndpointAmend       Endpoint = "amend"
	EndpointCancel      Endpoint = "cancel"
	EndpointCancelBatch Endpoint = "cancel_batch"
	EndpointCancelAlgo  Endpoint = "cancel_algo"
)

// Path REST 路径
func (e Endpoint) Path() string {
	switch e {
	case EndpointPlain:
		return pathOrder
	case EndpointBatch:
		return pathBatchOrders
	case EndpointAlgo:
		return pathOrderAlgo
	case EndpointAmend:
		return pathAmendOrder
	case EndpointCancel:
		return pathCancelOrder
	case EndpointCancelBatch:
		return pathCancelBatchOrders
	case EndpointCancelAlgo:
		return pathCancelAlgos
	}
	return ""
}

// Array body 是否为数组
func (e Endpoint) Array() bool {
	return e == EndpointBatch || e == EndpointCancelBatch || e == EndpointCancelAlgo
}

// 策略委托的 ordType
const (
	ordTypeConditional = "conditional"
	ordTypeOCO         = "oco"
	ordTypeTrigger     = "trigger"
	ordTypeMoveStop    = "move_order_stop"
	ordTypeIceberg     = "iceberg"
	ordTypeTWAP        = "twap"
)

// 普通委托的 ordType
const (
	ordTypeMarket          = "market"
	ordTypeLimit           = "limit"
	ordTypePostOnly        = "post_only"
	ordTypeFOK             = "fok"
	ordTypeIOC             = "ioc"
	ordTypeOptimalLimitIOC = "optimal_limit_ioc"
)

// IsAlgoType 是否走策略委托接口
func IsAlgoType(ordType string) bool {
	switch ordType {
	case ordTypeConditional, ordTypeOCO, ordTypeTrigger, ordTypeMoveStop, ordTypeIceberg, ordTypeTWAP:
		return true
	}
	return false
}

// instType 市场类型到线上 instType
func instType(t domain.MarketType) string {
	switch t {
	case domain.MarketTypeSpot:
		return "SPOT"
	case domain.MarketTypeMargin:
		return "MARGIN"
	case domain.MarketTypeSwap:
		return "SWAP"
	case domain.MarketTypeFuture:
		return "FUTURES"
	case domain.MarketTypeOption:
		return "OPTION"
	}
	return ""
}

// marketTypeOf 线上 instType 到市场类型
func marketTypeOf(instType string) domain.MarketType {
	switch instType {
	case "SPOT":
		return domain.MarketTypeSpot
	case "MARGIN":
		return domain.MarketTypeMargin
	case "SWAP":
		return domain.MarketTypeSwap
	case "FUTURES":
		return domain.MarketTypeFuture
	case "OPTION":
		return domain.MarketTypeOption
	}
	return ""
}
