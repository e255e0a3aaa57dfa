package application

import (
	"context"
	"errors"

	"github.com/wyfcoding/exchangegateway/internal/connectivity/domain"
	"github.com/wyfcoding/exchangegateway/pkg/logger"
)

// ConnectivityCommandService 处理所有写操作（下单、改单、撤单、划转）。
// 每次成功的写操作都会把订单快照作为事件发布出去，发布失败只记录日志。
type ConnectivityCommandService struct {
	client    domain.ExchangeClient
	publisher domain.OrderEventPublisher
}

// NewConnectivityCommandService 构造函数。publisher 为 nil 时不发布事件。
func NewConnectivityCommandService(client domain.ExchangeClient, publisher domain.OrderEventPublisher) *ConnectivityCommandService {
	return &ConnectivityCommandService{client: client, publisher: publisher}
}

// CreateOrder 下单
func (s *ConnectivityCommandService) CreateOrder(ctx context.Context, intent *domain.OrderIntent) (*domain.Order, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	order, err := s.client.CreateOrder(ctx, intent)
	if err != nil {
		logger.Warn(ctx, "create order failed", "symbol", intent.Symbol, "side", intent.Side, "type", intent.Type, "error", err)
		return nil, err
	}
	s.publish(ctx, placedTopic(order), order)
	logger.Info(ctx, "order placed", "symbol", order.Symbol, "id", order.ID, "client_order_id", order.ClientOrderID, "status", order.Status)
	return order, nil
}

// CreateOrders 批量下单，单笔拒单不影响其它订单
func (s *ConnectivityCommandService) CreateOrders(ctx context.Context, intents []*domain.OrderIntent) ([]*domain.Order, error) {
	if len(intents) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "", "at least one order is required")
	}
	for _, in := range intents {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}
	orders, err := s.client.CreateOrders(ctx, intents)
	if err != nil {
		logger.Warn(ctx, "create orders failed", "count", len(intents), "error", err)
		return nil, err
	}
	rejected := 0
	for _, o := range orders {
		if o.IsRejected() {
			rejected++
		}
		s.publish(ctx, placedTopic(o), o)
	}
	logger.Info(ctx, "batch orders placed", "count", len(orders), "rejected", rejected)
	return orders, nil
}

// EditOrder 改单
func (s *ConnectivityCommandService) EditOrder(ctx context.Context, intent *domain.EditIntent) (*domain.Order, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	order, err := s.client.EditOrder(ctx, intent)
	if err != nil {
		logger.Warn(ctx, "edit order failed", "symbol", intent.Symbol, "id", intent.ID, "error", err)
		return nil, err
	}
	if !order.IsRejected() {
		s.publish(ctx, domain.TopicOrderAmended, order)
	}
	return order, nil
}

// CancelOrder 撤单
func (s *ConnectivityCommandService) CancelOrder(ctx context.Context, ref *domain.OrderRef) (*domain.Order, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	order, err := s.client.CancelOrder(ctx, ref)
	if err != nil {
		logger.Warn(ctx, "cancel order failed", "symbol", ref.Symbol, "id", ref.ID, "error", err)
		return nil, err
	}
	if !order.IsRejected() {
		s.publish(ctx, domain.TopicOrderCanceled, order)
	}
	return order, nil
}

// CancelOrders 批量撤单
func (s *ConnectivityCommandService) CancelOrders(ctx context.Context, refs []*domain.OrderRef) ([]*domain.Order, error) {
	if len(refs) == 0 {
		return nil, domain.NewError(domain.KindBadRequest, "", "at least one order is required")
	}
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return nil, err
		}
	}
	orders, err := s.client.CancelOrders(ctx, refs)
	if err != nil {
		logger.Warn(ctx, "cancel orders failed", "count", len(refs), "error", err)
		return nil, err
	}
	for _, o := range orders {
		if !o.IsRejected() {
			s.publish(ctx, domain.TopicOrderCanceled, o)
		}
	}
	return orders, nil
}

// Transfer 资金账户与交易账户之间划转
func (s *ConnectivityCommandService) Transfer(ctx context.Context, intent *domain.TransferIntent) (*domain.Transfer, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	t, err := s.client.Transfer(ctx, intent)
	if err != nil {
		logger.Warn(ctx, "transfer failed", "currency", intent.Currency, "from", intent.From, "to", intent.To, "error", err)
		return nil, err
	}
	logger.Info(ctx, "transfer submitted", "id", t.ID, "currency", t.Currency, "amount", t.Amount.String(), "status", t.Status)
	return t, nil
}

// ReconcileOrder 重新查询订单，并校验从调用方已知状态到最新状态的迁移是否合法。
// 非法迁移（例如 canceled 变回 open）返回 ErrIllegalTransition，不发布事件。
func (s *ConnectivityCommandService) ReconcileOrder(ctx context.Context, ref *domain.OrderRef, known domain.OrderStatus) (*domain.Order, error) {
	order, err := s.client.FetchOrder(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(known, order.Status); err != nil {
		logger.Error(ctx, "order status regressed", "id", order.ID, "known", known, "current", order.Status)
		return order, err
	}
	if order.Status != known {
		s.publish(ctx, domain.TopicOrderReconciled, order)
	}
	return order, nil
}

func (s *ConnectivityCommandService) publish(ctx context.Context, topic string, order *domain.Order) {
	if s.publisher == nil || order == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(ctx, domain.NewOrderEvent(topic, order)); err != nil {
		logger.Warn(ctx, "publish order event failed", "topic", topic, "id", order.ID, "error", err)
	}
}

func placedTopic(o *domain.Order) string {
	if o.IsRejected() {
		return domain.TopicOrderRejected
	}
	return domain.TopicOrderPlaced
}

// IsIllegalTransition 判断错误是否为状态回退
func IsIllegalTransition(err error) bool {
	return errors.Is(err, domain.ErrIllegalTransition)
}
