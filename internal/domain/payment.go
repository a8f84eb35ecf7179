package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment is one gateway attempt for an order. An order may accumulate
// multiple attempts; the provider transaction id is unique and is the lookup
// key for webhook reconciliation.
type Payment struct {
	ID             string      `json:"id"`
	OrderID        string      `json:"orderId"`
	GatewayID      string      `json:"gatewayId"`
	ProviderTxID   string      `json:"providerTxId"`
	Status         OrderStatus `json:"status"`
	ProviderStatus string      `json:"providerStatus"`
	StatusDetail   string      `json:"statusDetail,omitempty"`
	// RawResponse is the provider payload stored verbatim for audit. The
	// parsed fields above are the working copy; this is the evidence.
	RawResponse []byte    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewPaymentID generates a new UUID for a payment attempt.
func NewPaymentID() string {
	return uuid.New().String()
}
