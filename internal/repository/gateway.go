package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// GatewayRepository handles database operations for gateway accounts.
type GatewayRepository struct {
	db *pgxpool.Pool
}

// NewGatewayRepository creates a new GatewayRepository.
func NewGatewayRepository(db *pgxpool.Pool) *GatewayRepository {
	return &GatewayRepository{db: db}
}

// FindActive returns the active gateway for a provider, or nil if none is
// configured.
func (r *GatewayRepository) FindActive(ctx context.Context, provider string) (*domain.Gateway, error) {
	query := `
		SELECT id, provider, environment, public_key, access_token, webhook_secret, active, created_at
		FROM gateways WHERE provider = $1 AND active ORDER BY created_at DESC LIMIT 1
	`
	row := r.db.QueryRow(ctx, query, provider)

	var g domain.Gateway
	err := row.Scan(&g.ID, &g.Provider, &g.Environment, &g.PublicKey, &g.AccessToken,
		&g.WebhookSecret, &g.Active, &g.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find gateway: %w", err)
	}
	return &g, nil
}

// EnsureDefault seeds a gateway row from environment credentials on first
// startup, so a fresh deployment can take payments without manual setup.
func (r *GatewayRepository) EnsureDefault(ctx context.Context, g *domain.Gateway) error {
	existing, err := r.FindActive(ctx, g.Provider)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	query := `
		INSERT INTO gateways (id, provider, environment, public_key, access_token, webhook_secret, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query,
		g.ID, g.Provider, g.Environment, g.PublicKey, g.AccessToken, g.WebhookSecret, g.Active, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to seed gateway: %w", err)
	}
	return nil
}
