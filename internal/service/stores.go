package service

import (
	"context"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/pkg/gateway"
)

// Store interfaces over the repository layer. Services depend on these so
// tests can substitute in-memory implementations; the pgx repositories
// satisfy them as-is.

type OrderStore interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Transition(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	FindByProviderTxID(ctx context.Context, providerTxID string) (*domain.Payment, error)
	FindLatestByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, providerStatus, detail string, raw []byte) error
}

type GatewayStore interface {
	FindActive(ctx context.Context, provider string) (*domain.Gateway, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ProductStore interface {
	FindByCheckoutID(ctx context.Context, checkoutID string) (*domain.Product, error)
	FindByNames(ctx context.Context, names []string) ([]*domain.Product, error)
	ListContents(ctx context.Context, productID string) ([]*domain.Content, error)
}

type GrantStore interface {
	Upsert(ctx context.Context, userID, kind, refID string) error
}

type WebhookLogStore interface {
	Append(ctx context.Context, l *domain.WebhookLog) error
}

// DeliveryCache short-circuits webhook deliveries already fully processed
// by some process. Marked only after a successful apply, so a transient
// failure never suppresses the provider's redelivery. Best-effort only.
type DeliveryCache interface {
	Seen(ctx context.Context, requestID string) bool
	Mark(ctx context.Context, requestID string)
}

// GatewayClient is the provider adapter used by the orchestrator and
// reconciler.
type GatewayClient interface {
	CreateCardToken(ctx context.Context, card gateway.CardData) (string, error)
	CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error)
	GetPayment(ctx context.Context, id string) (*gateway.PaymentResult, error)
}

// ClientFactory builds a gateway client from a resolved gateway row, so
// credentials are read from storage per attempt rather than held in a
// package singleton.
type ClientFactory func(g *domain.Gateway) GatewayClient
