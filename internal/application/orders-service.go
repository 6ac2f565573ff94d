package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/logger"
	"github.com/bafain/orders-service/internal/repository"
)

const (
	// TaxRate is applied once, at creation, over subtotal+shipping.
	TaxRate = 0.11

	// PaymentWindow is the deadline for CheckPayment to succeed.
	PaymentWindow = 24 * time.Hour

	MsgPaymentVerified = "Payment verified"
	MsgPaymentExpired  = "Payment expired"
)

// OrdersService owns the customer-facing order state machine. There is
// no payment gateway behind CheckPayment: the call itself is treated as
// proof of payment, subject only to the expiry deadline.
type OrdersService struct {
	store  repository.OrderStore
	clock  Clock
	events EventPublisher
}

func NewOrdersService(store repository.OrderStore, clock Clock, events EventPublisher) *OrdersService {
	return &OrdersService{
		store:  store,
		clock:  clock,
		events: events,
	}
}

type CreateOrderInput struct {
	Address        json.RawMessage
	ShippingOption json.RawMessage
	PaymentMethod  json.RawMessage
	Items          json.RawMessage
	CustomerNote   string
	Subtotal       int64
	ShippingFee    int64
	// TaxAmount overrides the computed tax when non-nil.
	TaxAmount *int64
}

// TaxAmount computes the flat-rate tax over subtotal plus shipping.
func TaxAmount(subtotal, shippingFee int64) int64 {
	return int64(math.Round(TaxRate * float64(subtotal+shippingFee)))
}

func (s *OrdersService) CreateOrder(ctx context.Context, ownerID string, in CreateOrderInput) (*domain.Order, error) {
	now := s.clock.Now()

	tax := TaxAmount(in.Subtotal, in.ShippingFee)
	if in.TaxAmount != nil {
		tax = *in.TaxAmount
	}

	o := &domain.Order{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Status:         domain.StatusAwaitingPayment,
		PaymentStatus:  domain.PaymentPending,
		Subtotal:       in.Subtotal,
		ShippingFee:    in.ShippingFee,
		TaxAmount:      tax,
		Total:          in.Subtotal + in.ShippingFee + tax,
		Address:        in.Address,
		ShippingOption: in.ShippingOption,
		PaymentMethod:  in.PaymentMethod,
		Items:          in.Items,
		CustomerNote:   in.CustomerNote,
		CreatedAt:      now,
		ExpiresAt:      now.Add(PaymentWindow),
		UpdatedAt:      now,
	}

	if err := s.store.Put(ctx, o); err != nil {
		return nil, fmt.Errorf("store.Put: %w", err)
	}

	s.publish(ctx, o)
	return o, nil
}

func (s *OrdersService) GetOrderDetail(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	return s.ownedOrder(ctx, ownerID, orderID)
}

func (s *OrdersService) ListOrders(ctx context.Context, ownerID string, in ListOrdersInput) ([]domain.Order, int, error) {
	orders, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListByOwner: %w", err)
	}

	page, total := listOrders(orders, in)
	return page, total, nil
}

func (s *OrdersService) CancelOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	return s.applyOp(ctx, ownerID, orderID, domain.OpCancel)
}

func (s *OrdersService) ConfirmReceived(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	return s.applyOp(ctx, ownerID, orderID, domain.OpConfirmReceived)
}

func (s *OrdersService) applyOp(ctx context.Context, ownerID, orderID string, op domain.Op) (*domain.Order, error) {
	o, err := s.ownedOrder(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}

	next, ok := domain.Transition(o.Status, op)
	if !ok {
		return nil, fmt.Errorf("%w: op %q from %q", domain.ErrInvalidStatus, op, o.Status)
	}

	upd, err := s.store.UpdateFields(ctx, o.ID, repository.OrderPatch{
		Status:    &next,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store.UpdateFields: %w", err)
	}

	s.publish(ctx, upd)
	return upd, nil
}

// CheckPayment reconciles the payment state. Evaluation order matters:
// expiry wins over an unpaid order, an already-paid order is immune to
// expiry, and a second verification is a no-op.
func (s *OrdersService) CheckPayment(ctx context.Context, ownerID, orderID string) (*domain.Order, string, error) {
	o, err := s.ownedOrder(ctx, ownerID, orderID)
	if err != nil {
		return nil, "", err
	}

	now := s.clock.Now()

	switch {
	case o.PaymentStatus != domain.PaymentPaid && now.After(o.ExpiresAt):
		upd, err := s.patchPayment(ctx, o.ID, domain.StatusExpired, domain.PaymentExpired, now)
		if err != nil {
			return nil, "", err
		}
		return upd, MsgPaymentExpired, nil

	case o.PaymentStatus != domain.PaymentPaid:
		upd, err := s.patchPayment(ctx, o.ID, domain.StatusInQueue, domain.PaymentPaid, now)
		if err != nil {
			return nil, "", err
		}
		return upd, MsgPaymentVerified, nil

	default:
		return o, MsgPaymentVerified, nil
	}
}

func (s *OrdersService) patchPayment(ctx context.Context, orderID string, status domain.Status, payment domain.PaymentStatus, now time.Time) (*domain.Order, error) {
	upd, err := s.store.UpdateFields(ctx, orderID, repository.OrderPatch{
		Status:        &status,
		PaymentStatus: &payment,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("store.UpdateFields: %w", err)
	}

	s.publish(ctx, upd)
	return upd, nil
}

func (s *OrdersService) AddOrderNote(ctx context.Context, ownerID, orderID, text string) ([]domain.Note, error) {
	o, err := s.ownedOrder(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	notes := append(append([]domain.Note(nil), o.Notes...), domain.Note{
		ID:        uuid.NewString(),
		Note:      text,
		CreatedAt: now,
	})

	upd, err := s.store.UpdateFields(ctx, o.ID, repository.OrderPatch{
		Notes:     &notes,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("store.UpdateFields: %w", err)
	}

	return upd.Notes, nil
}

func (s *OrdersService) ListOrderNotes(ctx context.Context, ownerID, orderID string) ([]domain.Note, error) {
	o, err := s.ownedOrder(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	return o.Notes, nil
}

// ownedOrder loads the freshest copy of the order. A foreign order is
// indistinguishable from a missing one on purpose: callers must not be
// able to probe for the existence of other users' orders.
func (s *OrdersService) ownedOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (s *OrdersService) publish(ctx context.Context, o *domain.Order) {
	ev := OrderEvent{
		OrderID:       o.ID,
		OwnerID:       o.OwnerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		At:            s.clock.Now(),
	}
	if err := s.events.PublishOrderEvent(ctx, ev); err != nil {
		logger.Warn("order event publish failed", "order_id", o.ID, "err", err)
	}
}
