package domain

import (
	"context"
	"time"
)

// 订单事件主题
const (
	TopicOrderPlaced     = "connectivity.order.placed"
	TopicOrderRejected   = "connectivity.order.rejected"
	TopicOrderCanceled   = "connectivity.order.canceled"
	TopicOrderAmended    = "connectivity.order.amended"
	TopicOrderReconciled = "connectivity.order.reconciled"
)

// OrderEvent 订单快照事件
type OrderEvent struct {
	Topic     string    `json:"topic"`
	Order     *Order    `json:"order"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent 以当前时间构造事件
func NewOrderEvent(topic string, order *Order) OrderEvent {
	return OrderEvent{Topic: topic, Order: order, Timestamp: time.Now()}
}

// Key 分区键：优先使用交易所订单号
func (e OrderEvent) Key() string {
	if e.Order == nil {
		return ""
	}
	if e.Order.ID != "" {
		return e.Order.ID
	}
	return e.Order.ClientOrderID
}

// OrderEventPublisher 订单事件发布接口
type OrderEventPublisher interface {
	// PublishOrderEvent 发布订单快照事件
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
