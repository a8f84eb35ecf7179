package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// OrderRepository handles database operations for orders.
type OrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new order. Called before any gateway dispatch so that
// failed attempts remain auditable.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	items, err := json.Marshal(o.LineItems)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	query := `
		INSERT INTO orders (id, checkout_id, user_id, customer_name, customer_email, customer_document,
			amount_cents, status, payment_method, line_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query,
		o.ID, o.CheckoutID, o.UserID, o.CustomerName, o.CustomerEmail, o.CustomerDocument,
		o.AmountCents, o.Status, o.PaymentMethod, items, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByID returns an order by ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, checkout_id, user_id, customer_name, customer_email, customer_document,
			amount_cents, status, payment_method, line_items, created_at, updated_at
		FROM orders WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)

	var o domain.Order
	var items []byte
	err := row.Scan(
		&o.ID, &o.CheckoutID, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerDocument,
		&o.AmountCents, &o.Status, &o.PaymentMethod, &items, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if err := json.Unmarshal(items, &o.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return &o, nil
}

// UpdateStatus sets an order's status unconditionally. Used for best-effort
// FAILED marks where the caller logs and continues on error.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// Transition moves an order from one status to another only if it is still in
// the expected status. The returned bool reports whether this caller won the
// transition; racing webhook/poller/checkout paths rely on it for
// exactly-once side effects without in-process locking.
func (r *OrderRepository) Transition(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition order: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
