package messaging

import (
	"context"
	"fmt"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/mq"
)

// Sender 消息发送接口，由 mq.KafkaProducer 实现
type Sender interface {
	SendMessage(ctx context.Context, topic string, key string, value any) error
}

var _ Sender = (*mq.KafkaProducer)(nil)

// KafkaOrderPublisher 把订单快照事件写入 Kafka
// 配置了固定主题时所有事件写入该主题，事件类型保留在消息体的 topic 字段
type KafkaOrderPublisher struct {
	sender Sender
	topic  string
}

// NewKafkaOrderPublisher 创建发布器，topic 为空时按事件自身的主题路由
func NewKafkaOrderPublisher(sender Sender, topic string) *KafkaOrderPublisher {
	return &KafkaOrderPublisher{sender: sender, topic: topic}
}

// PublishOrderEvent 发布订单事件，分区键为订单号
func (p *KafkaOrderPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	if event.Order == nil {
		return nil
	}
	topic := p.topic
	if topic == "" {
		topic = event.Topic
	}
	if err := p.sender.SendMessage(ctx, topic, event.Key(), event); err != nil {
		return fmt.Errorf("publish order event %s: %w", event.Topic, err)
	}
	return nil
}

// NopOrderPublisher 未启用 Kafka 时使用
type NopOrderPublisher struct{}

// PublishOrderEvent 丢弃事件
func (NopOrderPublisher) PublishOrderEvent(context.Context, domain.OrderEvent) error { return nil }
