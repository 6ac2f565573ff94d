package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bafain/orders-service/internal/domain"
)

const orderColumns = `id, owner_id, status, payment_status,
		subtotal, shipping_fee, tax_amount, total,
		address, shipping_option, payment_method, items, customer_note,
		notes, shipment, created_at, expires_at, updated_at`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Put(ctx context.Context, o *domain.Order) error {
	notes, err := json.Marshal(notesOrEmpty(o.Notes))
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}

	var shipment []byte
	if o.Shipment != nil {
		shipment, err = json.Marshal(o.Shipment)
		if err != nil {
			return fmt.Errorf("marshal shipment: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO orders
			(id, owner_id, status, payment_status,
			 subtotal, shipping_fee, tax_amount, total,
			 address, shipping_option, payment_method, items, customer_note,
			 notes, shipment, created_at, expires_at, updated_at)
		 VALUES
			($1, $2, $3, $4,
			 $5, $6, $7, $8,
			 $9, $10, $11, $12, $13,
			 $14, $15, $16, $17, $18)
		`,
		o.ID,
		o.OwnerID,
		o.Status,
		o.PaymentStatus,
		o.Subtotal,
		o.ShippingFee,
		o.TaxAmount,
		o.Total,
		emptyJSONIfNil(o.Address),
		emptyJSONIfNil(o.ShippingOption),
		emptyJSONIfNil(o.PaymentMethod),
		emptyJSONIfNil(o.Items),
		o.CustomerNote,
		notes,
		shipment,
		o.CreatedAt,
		o.ExpiresAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) UpdateFields(ctx context.Context, id string, patch OrderPatch) (*domain.Order, error) {
	sets := []string{"updated_at = $1"}
	args := []any{patch.UpdatedAt}

	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.PaymentStatus != nil {
		args = append(args, *patch.PaymentStatus)
		sets = append(sets, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if patch.Notes != nil {
		notes, err := json.Marshal(notesOrEmpty(*patch.Notes))
		if err != nil {
			return nil, fmt.Errorf("marshal notes: %w", err)
		}
		args = append(args, notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}
	if patch.Shipment != nil {
		shipment, err := json.Marshal(patch.Shipment)
		if err != nil {
			return nil, fmt.Errorf("marshal shipment: %w", err)
		}
		args = append(args, shipment)
		sets = append(sets, fmt.Sprintf("shipment = $%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE orders SET %s WHERE id = $%d RETURNING `+orderColumns,
		strings.Join(sets, ", "), len(args))

	o, err := scanOrder(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list orders by owner: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	return collectOrders(rows)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrder(row scannable) (*domain.Order, error) {
	var (
		o        domain.Order
		notes    []byte
		shipment []byte
	)
	err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.ShippingFee,
		&o.TaxAmount,
		&o.Total,
		&o.Address,
		&o.ShippingOption,
		&o.PaymentMethod,
		&o.Items,
		&o.CustomerNote,
		&notes,
		&shipment,
		&o.CreatedAt,
		&o.ExpiresAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &o.Notes); err != nil {
			return nil, fmt.Errorf("unmarshal notes: %w", err)
		}
	}
	if len(shipment) > 0 {
		var sh domain.Shipment
		if err := json.Unmarshal(shipment, &sh); err != nil {
			return nil, fmt.Errorf("unmarshal shipment: %w", err)
		}
		o.Shipment = &sh
	}

	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}

func notesOrEmpty(notes []domain.Note) []domain.Note {
	if notes == nil {
		return []domain.Note{}
	}
	return notes
}

func emptyJSONIfNil(j []byte) []byte {
	if j == nil {
		return []byte(`{}`)
	}
	return j
}
