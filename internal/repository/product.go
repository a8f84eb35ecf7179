package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopforge/backend/internal/domain"
)

// ProductRepository reads the product catalog. Catalog CRUD lives in another
// service; this side only resolves entitlements.
type ProductRepository struct {
	db *pgxpool.Pool
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindByCheckoutID returns the main product sold through a checkout page.
func (r *ProductRepository) FindByCheckoutID(ctx context.Context, checkoutID string) (*domain.Product, error) {
	query := `SELECT id, name, checkout_id, created_at FROM products WHERE checkout_id = $1 LIMIT 1`
	row := r.db.QueryRow(ctx, query, checkoutID)

	var p domain.Product
	var cid *string
	err := row.Scan(&p.ID, &p.Name, &cid, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if cid != nil {
		p.CheckoutID = *cid
	}
	return &p, nil
}

// FindByNames resolves order-bump products by line-item name. Line items
// carry no product id, so name matching is the only available join.
func (r *ProductRepository) FindByNames(ctx context.Context, names []string) ([]*domain.Product, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, checkout_id, created_at FROM products WHERE name = ANY($1)`
	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		var cid *string
		if err := rows.Scan(&p.ID, &p.Name, &cid, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if cid != nil {
			p.CheckoutID = *cid
		}
		products = append(products, &p)
	}
	return products, nil
}

// ListContents returns the content items bound to a product.
func (r *ProductRepository) ListContents(ctx context.Context, productID string) ([]*domain.Content, error) {
	query := `SELECT id, product_id, title, created_at FROM contents WHERE product_id = $1`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents: %w", err)
	}
	defer rows.Close()

	var contents []*domain.Content
	for rows.Next() {
		var c domain.Content
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, &c)
	}
	return contents, nil
}
