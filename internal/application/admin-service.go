package application

import (
	"context"
	"fmt"

	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/repository"
)

// AdminService is the privileged path: it bypasses both the customer
// state machine and the ownership check. Role checks happen in the
// transport layer via the admin gate.
type AdminService struct {
	store  repository.OrderStore
	clock  Clock
	events EventPublisher
}

func NewAdminService(store repository.OrderStore, clock Clock, events EventPublisher) *AdminService {
	return &AdminService{
		store:  store,
		clock:  clock,
		events: events,
	}
}

func (s *AdminService) ListOrders(ctx context.Context, in ListOrdersInput) ([]domain.Order, int, error) {
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("store.ListAll: %w", err)
	}

	page, total := listOrders(orders, in)
	return page, total, nil
}

// UpdateStatus sets the order status to the given value, defaulting to
// diproses when empty.
func (s *AdminService) UpdateStatus(ctx context.Context, orderID, rawStatus string) (*domain.Order, error) {
	status := domain.StatusDiproses
	if rawStatus != "" {
		st, err := domain.ToStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		status = st
	}

	upd, err := s.store.UpdateFields(ctx, orderID, repository.OrderPatch{
		Status:    &status,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store.UpdateFields: %w", err)
	}

	s.publishUpdate(ctx, upd)
	return upd, nil
}

// UpdateShipment attaches the shipment annotation; status is untouched.
func (s *AdminService) UpdateShipment(ctx context.Context, orderID string, sh domain.Shipment) (*domain.Order, error) {
	upd, err := s.store.UpdateFields(ctx, orderID, repository.OrderPatch{
		Shipment:  &sh,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("store.UpdateFields: %w", err)
	}

	return upd, nil
}

func (s *AdminService) publishUpdate(ctx context.Context, o *domain.Order) {
	ev := OrderEvent{
		OrderID:       o.ID,
		OwnerID:       o.OwnerID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		At:            s.clock.Now(),
	}
	// Best effort only, same as the customer path.
	_ = s.events.PublishOrderEvent(ctx, ev)
}
