package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// PaymentRepository handles database operations for payment attempts.
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment attempt with the provider's raw response.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, gateway_id, provider_tx_id, status, provider_status,
			status_detail, raw_response, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.OrderID, p.GatewayID, p.ProviderTxID, p.Status, p.ProviderStatus,
		p.StatusDetail, p.RawResponse, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindByProviderTxID resolves a payment by the provider transaction id. This
// is the webhook lookup path: the inbound event only carries this id.
func (r *PaymentRepository) FindByProviderTxID(ctx context.Context, providerTxID string) (*domain.Payment, error) {
	return r.findOne(ctx, `WHERE provider_tx_id = $1`, providerTxID)
}

// FindLatestByOrderID returns the most recent payment attempt for an order.
func (r *PaymentRepository) FindLatestByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.findOne(ctx, `WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`, orderID)
}

func (r *PaymentRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, gateway_id, provider_tx_id, status, provider_status,
			status_detail, raw_response, created_at, updated_at
		FROM payments ` + where
	row := r.db.QueryRow(ctx, query, arg)

	var p domain.Payment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.GatewayID, &p.ProviderTxID, &p.Status, &p.ProviderStatus,
		&p.StatusDetail, &p.RawResponse, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return &p, nil
}

// UpdateStatus applies a freshly fetched canonical status. The applied value
// is absolute, not a diff, so replays and out-of-order deliveries converge.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, providerStatus, detail string, raw []byte) error {
	query := `
		UPDATE payments
		SET status = $1, provider_status = $2, status_detail = $3, raw_response = COALESCE($4, raw_response), updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, status, providerStatus, detail, raw, id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}
