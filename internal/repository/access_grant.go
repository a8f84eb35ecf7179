package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// AccessGrantRepository handles database operations for access grants.
type AccessGrantRepository struct {
	db *pgxpool.Pool
}

// NewAccessGrantRepository creates a new AccessGrantRepository.
func NewAccessGrantRepository(db *pgxpool.Pool) *AccessGrantRepository {
	return &AccessGrantRepository{db: db}
}

// Upsert grants access for (user, kind, ref). On conflict the existing row is
// refreshed instead of duplicated, which makes concurrent and repeated grant
// invocations converge to a single row per pair.
func (r *AccessGrantRepository) Upsert(ctx context.Context, userID, kind, refID string) error {
	query := `
		INSERT INTO access_grants (id, user_id, kind, ref_id, status, granted_at)
		VALUES ($1, $2, $3, $4, 'active', NOW())
		ON CONFLICT (user_id, kind, ref_id) DO UPDATE
		SET status = 'active', granted_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, uuid.New().String(), userID, kind, refID)
	if err != nil {
		return fmt.Errorf("failed to upsert access grant: %w", err)
	}
	return nil
}

// ListByUser returns all grants for a user ordered by grant time.
func (r *AccessGrantRepository) ListByUser(ctx context.Context, userID string) ([]*domain.AccessGrant, error) {
	query := `
		SELECT id, user_id, kind, ref_id, status, granted_at, expires_at
		FROM access_grants WHERE user_id = $1 ORDER BY granted_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access grants: %w", err)
	}
	defer rows.Close()

	var grants []*domain.AccessGrant
	for rows.Next() {
		var g domain.AccessGrant
		if err := rows.Scan(&g.ID, &g.UserID, &g.Kind, &g.RefID, &g.Status, &g.GrantedAt, &g.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan access grant: %w", err)
		}
		grants = append(grants, &g)
	}
	return grants, nil
}
