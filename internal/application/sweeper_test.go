package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bafain/orders-service/internal/domain"
	"github.com/bafain/orders-service/internal/repository"
)

func TestSweepExpiresOnlyOverdueUnpaidOrders(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	overdue := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 1000})

	clock.Advance(2 * time.Hour)
	paid := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 2000})
	_, _, err := svc.CheckPayment(ctx, "user-1", paid.ID)
	require.NoError(t, err)

	clock.Advance(PaymentWindow - time.Hour)
	fresh := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 3000})

	// overdue is now past its deadline, paid is past its deadline but
	// paid, fresh is still within its window.
	sweeper := NewSweeper(store, clock, NoopPublisher{}, time.Minute)
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := store.Get(ctx, overdue.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, got.Status)
	require.Equal(t, domain.PaymentExpired, got.PaymentStatus)

	got, err = store.Get(ctx, paid.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPaid, got.PaymentStatus)

	got, err = store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAwaitingPayment, got.Status)

	// A second sweep finds nothing left to expire.
	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestSweepLeavesCancelledOrdersAlone(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	o := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 1000})
	_, err := svc.CancelOrder(ctx, "user-1", o.ID)
	require.NoError(t, err)

	clock.Advance(PaymentWindow + time.Hour)

	n, err := NewSweeper(store, clock, NoopPublisher{}, time.Minute).Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	got, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, got.Status)
}

func TestAdminUpdateStatus(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 9, 11, 10, 0, 0, 0, time.UTC)}
	svc := NewOrdersService(store, clock, NoopPublisher{})
	admin := NewAdminService(store, clock, NoopPublisher{})
	ctx := context.Background()

	o := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 1000})

	// Default status when none supplied.
	upd, err := admin.UpdateStatus(ctx, o.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDiproses, upd.Status)

	upd, err = admin.UpdateStatus(ctx, o.ID, "selesai")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSelesai, upd.Status)

	_, err = admin.UpdateStatus(ctx, o.ID, "not-a-status")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = admin.UpdateStatus(ctx, "missing", "selesai")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdminUpdateShipment(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 9, 11, 10, 0, 0, 0, time.UTC)}
	svc := NewOrdersService(store, clock, NoopPublisher{})
	admin := NewAdminService(store, clock, NoopPublisher{})
	ctx := context.Background()

	o := mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 1000})

	upd, err := admin.UpdateShipment(ctx, o.ID, domain.Shipment{
		Carrier:        "jne",
		TrackingNumber: "JNE123",
		ETA:            "2025-09-15",
	})
	require.NoError(t, err)
	require.NotNil(t, upd.Shipment)
	require.Equal(t, "JNE123", upd.Shipment.TrackingNumber)
	// Shipment annotation never moves the status.
	require.Equal(t, o.Status, upd.Status)
}

func TestAdminListOrdersSpansOwners(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 9, 11, 10, 0, 0, 0, time.UTC)}
	svc := NewOrdersService(store, clock, NoopPublisher{})
	admin := NewAdminService(store, clock, NoopPublisher{})
	ctx := context.Background()

	mustCreate(t, svc, "user-1", CreateOrderInput{Subtotal: 1000})
	clock.Advance(time.Minute)
	mustCreate(t, svc, "user-2", CreateOrderInput{Subtotal: 2000})

	orders, total, err := admin.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, orders, 2)
	require.Equal(t, "user-2", orders[0].OwnerID)
}
