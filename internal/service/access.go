package service

import (
	"context"
	"log"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/metrics"
)

// AccessService derives entitled content from a paid order and grants access.
// Grants are upserts keyed by (user, kind, ref), so concurrent or repeated
// invocations from the synchronous and asynchronous paths converge to one
// grant per pair.
type AccessService struct {
	users    UserStore
	products ProductStore
	grants   GrantStore
}

// NewAccessService creates a new AccessService.
func NewAccessService(users UserStore, products ProductStore, grants GrantStore) *AccessService {
	return &AccessService{users: users, products: products, grants: grants}
}

// Grant resolves the purchased product set and upserts access for the order's
// user. Orders without a resolvable user are skipped; an out-of-scope claim
// flow picks those up later.
func (s *AccessService) Grant(ctx context.Context, order *domain.Order) error {
	userID, err := s.resolveUser(ctx, order)
	if err != nil {
		return err
	}
	if userID == "" {
		log.Printf("access grant skipped for order %s: no resolvable user", order.ID)
		return nil
	}

	products, err := s.resolveProducts(ctx, order)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		log.Printf("access grant skipped for order %s: no products matched", order.ID)
		return nil
	}

	for _, p := range products {
		if err := s.grants.Upsert(ctx, userID, domain.GrantProduct, p.ID); err != nil {
			return err
		}
		metrics.AccessGrantsTotal.Inc()

		contents, err := s.products.ListContents(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, c := range contents {
			if err := s.grants.Upsert(ctx, userID, domain.GrantContent, c.ID); err != nil {
				return err
			}
			metrics.AccessGrantsTotal.Inc()
		}
	}
	return nil
}

func (s *AccessService) resolveUser(ctx context.Context, order *domain.Order) (string, error) {
	if order.UserID != nil && *order.UserID != "" {
		user, err := s.users.FindByID(ctx, *order.UserID)
		if err != nil {
			return "", err
		}
		if user != nil {
			return user.ID, nil
		}
		// Stale link; fall back to the purchase email.
	}
	user, err := s.users.FindByEmail(ctx, order.CustomerEmail)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.ID, nil
}

// resolveProducts returns the main product for the checkout plus any
// order-bump products matched against line-item names. Items carry no product
// id, so name matching is the only join available for bumps.
func (s *AccessService) resolveProducts(ctx context.Context, order *domain.Order) ([]*domain.Product, error) {
	seen := make(map[string]bool)
	var products []*domain.Product

	main, err := s.products.FindByCheckoutID(ctx, order.CheckoutID)
	if err != nil {
		return nil, err
	}
	if main != nil {
		seen[main.ID] = true
		products = append(products, main)
	}

	names := make([]string, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		names = append(names, item.Name)
	}
	bumps, err := s.products.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	for _, p := range bumps {
		if !seen[p.ID] {
			seen[p.ID] = true
			products = append(products, p)
		}
	}
	return products, nil
}
