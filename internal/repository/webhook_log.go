package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// WebhookLogRepository handles the append-only webhook audit log.
type WebhookLogRepository struct {
	db *pgxpool.Pool
}

// NewWebhookLogRepository creates a new WebhookLogRepository.
func NewWebhookLogRepository(db *pgxpool.Pool) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

// Append writes one audit row. Rows are never updated or deleted.
func (r *WebhookLogRepository) Append(ctx context.Context, l *domain.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (id, provider, request_id, event_type, action, provider_tx_id,
			payload, processed, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.Provider, l.RequestID, l.EventType, l.Action, l.ProviderTxID,
		l.Payload, l.Processed, l.Detail, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append webhook log: %w", err)
	}
	return nil
}
