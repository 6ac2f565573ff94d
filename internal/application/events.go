package application

import (
	"context"
	"time"

	"github.com/bafain/orders-service/internal/domain"
)

// OrderEvent is emitted on creation and on every status transition.
type OrderEvent struct {
	OrderID       string               `json:"order_id"`
	OwnerID       string               `json:"owner_id"`
	Status        domain.Status        `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	At            time.Time            `json:"at"`
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent) error
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) error { return nil }
