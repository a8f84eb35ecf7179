package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the initial schema migration.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			name       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS gateways (
			id             TEXT PRIMARY KEY,
			provider       TEXT NOT NULL,
			environment    TEXT NOT NULL DEFAULT 'sandbox',
			public_key     TEXT NOT NULL DEFAULT '',
			access_token   TEXT NOT NULL DEFAULT '',
			webhook_secret TEXT NOT NULL DEFAULT '',
			active         BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_gateways_active_provider ON gateways(provider) WHERE active;

		CREATE TABLE IF NOT EXISTS orders (
			id                TEXT PRIMARY KEY,
			checkout_id       TEXT NOT NULL,
			user_id           TEXT,
			customer_name     TEXT NOT NULL,
			customer_email    TEXT NOT NULL,
			customer_document TEXT NOT NULL DEFAULT '',
			amount_cents      BIGINT NOT NULL CHECK (amount_cents > 0),
			status            TEXT NOT NULL DEFAULT 'PENDING',
			payment_method    TEXT NOT NULL,
			line_items        JSONB NOT NULL DEFAULT '[]',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_orders_checkout_id ON orders(checkout_id);
		CREATE INDEX IF NOT EXISTS idx_orders_customer_email ON orders(customer_email);

		CREATE TABLE IF NOT EXISTS payments (
			id              TEXT PRIMARY KEY,
			order_id        TEXT NOT NULL REFERENCES orders(id),
			gateway_id      TEXT NOT NULL,
			provider_tx_id  TEXT NOT NULL UNIQUE,
			status          TEXT NOT NULL DEFAULT 'PENDING',
			provider_status TEXT NOT NULL DEFAULT '',
			status_detail   TEXT NOT NULL DEFAULT '',
			raw_response    JSONB,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id);

		CREATE TABLE IF NOT EXISTS products (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			checkout_id TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_products_checkout_id ON products(checkout_id);
		CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

		CREATE TABLE IF NOT EXISTS contents (
			id         TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			title      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_contents_product_id ON contents(product_id);

		CREATE TABLE IF NOT EXISTS access_grants (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			ref_id     TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'active',
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ,
			UNIQUE (user_id, kind, ref_id)
		);
		CREATE INDEX IF NOT EXISTS idx_access_grants_user_id ON access_grants(user_id);

		CREATE TABLE IF NOT EXISTS webhook_logs (
			id             TEXT PRIMARY KEY,
			provider       TEXT NOT NULL,
			request_id     TEXT NOT NULL DEFAULT '',
			event_type     TEXT NOT NULL DEFAULT '',
			action         TEXT NOT NULL DEFAULT '',
			provider_tx_id TEXT NOT NULL DEFAULT '',
			payload        JSONB,
			processed      BOOLEAN NOT NULL DEFAULT FALSE,
			detail         TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_webhook_logs_provider_tx_id ON webhook_logs(provider_tx_id);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
