package payment

import (
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/ticketflow/internal/domain/payment"
	"github.com/xiebiao/ticketflow/pkg/logger"
	"github.com/xiebiao/ticketflow/pkg/metrics"
)

// 支付生命周期事件路由键(Topic Exchange,下游按payment.*订阅)
const (
	RoutingKeyPaymentReady    = "payment.ready"
	RoutingKeyPaymentApproved = "payment.approved"
	RoutingKeyPaymentCanceled = "payment.canceled"
	RoutingKeyPaymentFailed   = "payment.failed"
)

// EventPublisher 事件发布接口(pkg/mq的Publisher满足该接口)
type EventPublisher interface {
	Publish(routingKey string, message interface{}) error
}

// LifecycleEvent 支付生命周期事件载荷
type LifecycleEvent struct {
	PaymentID      uint      `json:"payment_id"`
	PartnerOrderID string    `json:"partner_order_id"`
	TID            string    `json:"tid"`
	UserID         uint      `json:"user_id"`
	EventID        uint      `json:"event_id"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// publishLifecycleEvent 发布生命周期事件(尽力而为)
// 设计说明:事件是给下游(核销、对账、通知)的异步通知,
// 发布失败只记日志,绝不反过来让已提交的支付操作失败
func publishLifecycleEvent(publisher EventPublisher, routingKey string, p *payment.Payment) {
	if publisher == nil {
		return
	}

	evt := LifecycleEvent{
		PaymentID:      p.ID,
		PartnerOrderID: p.PartnerOrderID,
		TID:            p.TID,
		UserID:         p.UserID,
		EventID:        p.EventID,
		Amount:         p.DiscountedAmount,
		Status:         p.Status.String(),
		OccurredAt:     time.Now(),
	}

	result := "success"
	if err := publisher.Publish(routingKey, evt); err != nil {
		result = "failure"
		logger.L().Warn("支付事件发布失败",
			zap.String("routing_key", routingKey),
			zap.Uint("payment_id", p.ID),
			zap.Error(err),
		)
	}
	if metrics.MessagesPublishedTotal != nil {
		metrics.IncCounterVec(metrics.MessagesPublishedTotal,
			map[string]string{"routing_key": routingKey, "result": result})
	}
}
