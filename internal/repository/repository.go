package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bafain/orders-service/internal/domain"
)

var ErrNotFound = errors.New("order not found")

// OrderPatch is a partial update; nil fields are left untouched.
// UpdatedAt is always written.
type OrderPatch struct {
	Status        *domain.Status
	PaymentStatus *domain.PaymentStatus
	Notes         *[]domain.Note
	Shipment      *domain.Shipment
	UpdatedAt     time.Time
}

type OrderStore interface {
	Put(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// UpdateFields applies the patch atomically for a single order key
	// and returns the resulting order.
	UpdateFields(ctx context.Context, id string, patch OrderPatch) (*domain.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}
