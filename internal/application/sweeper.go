package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/logger"
	"github.com/bafain/orders-service/internal/repository"
)

// Sweeper periodically applies the payment deadline to orders still
// awaiting payment. Expiry is otherwise evaluated lazily, on the next
// CheckPayment call; the sweep is opt-in (interval > 0) and applies the
// exact same rule, so enabling it changes no per-order semantics.
type Sweeper struct {
	store    repository.OrderStore
	clock    Clock
	events   EventPublisher
	interval time.Duration
}

func NewSweeper(store repository.OrderStore, clock Clock, events EventPublisher, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		clock:    clock,
		events:   events,
		interval: interval,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	logger.Info("expiry sweep enabled", "interval", s.interval.String())
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.Sweep(ctx); err != nil {
				logger.Warn("expiry sweep failed", "err", err)
			} else if n > 0 {
				logger.Info("expiry sweep", "expired", n)
			}
		}
	}
}

// Sweep expires every unpaid awaiting-payment order past its deadline
// and reports how many it touched.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	orders, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("store.ListAll: %w", err)
	}

	now := s.clock.Now()
	expired := 0
	for _, o := range orders {
		if o.Status != domain.StatusAwaitingPayment ||
			o.PaymentStatus == domain.PaymentPaid ||
			!now.After(o.ExpiresAt) {
			continue
		}

		status := domain.StatusExpired
		payment := domain.PaymentExpired
		upd, err := s.store.UpdateFields(ctx, o.ID, repository.OrderPatch{
			Status:        &status,
			PaymentStatus: &payment,
			UpdatedAt:     now,
		})
		if err != nil {
			return expired, fmt.Errorf("store.UpdateFields: %w", err)
		}
		expired++

		_ = s.events.PublishOrderEvent(ctx, OrderEvent{
			OrderID:       upd.ID,
			OwnerID:       upd.OwnerID,
			Status:        upd.Status,
			PaymentStatus: upd.PaymentStatus,
			At:            now,
		})
	}
	return expired, nil
}
