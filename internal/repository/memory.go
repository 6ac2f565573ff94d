package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bafain/orders-service/internal/domain"
)

// MemoryStore is the single-instance OrderStore. It hands out deep
// copies so callers can never mutate stored state behind the lock.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]*domain.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]*domain.Order)}
}

func (s *MemoryStore) Put(ctx context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.m[id]
	if !ok {
		return nil, fmt.Errorf("get order: %w", ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, id string, patch OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.m[id]
	if !ok {
		return nil, fmt.Errorf("update order: %w", ErrNotFound)
	}

	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.PaymentStatus != nil {
		o.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Notes != nil {
		o.Notes = append([]domain.Note(nil), *patch.Notes...)
	}
	if patch.Shipment != nil {
		sh := *patch.Shipment
		o.Shipment = &sh
	}
	o.UpdatedAt = patch.UpdatedAt

	return cloneOrder(o), nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []domain.Order
	for _, o := range s.m {
		if o.OwnerID == ownerID {
			orders = append(orders, *cloneOrder(o))
		}
	}
	return orders, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.Order, 0, len(s.m))
	for _, o := range s.m {
		orders = append(orders, *cloneOrder(o))
	}
	return orders, nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Address = append(json.RawMessage(nil), o.Address...)
	c.ShippingOption = append(json.RawMessage(nil), o.ShippingOption...)
	c.PaymentMethod = append(json.RawMessage(nil), o.PaymentMethod...)
	c.Items = append(json.RawMessage(nil), o.Items...)
	c.Notes = append([]domain.Note(nil), o.Notes...)
	if o.Shipment != nil {
		sh := *o.Shipment
		c.Shipment = &sh
	}
	return &c
}
