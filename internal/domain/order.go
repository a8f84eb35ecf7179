package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the internal lifecycle status of an order. Transitions are
// monotonic: PENDING may move to PAID, FAILED or CANCELED; PAID may move to
// REFUNDED; everything else is final.
type OrderStatus string

const (
	StatusPending  OrderStatus = "PENDING"
	StatusPaid     OrderStatus = "PAID"
	StatusFailed   OrderStatus = "FAILED"
	StatusCanceled OrderStatus = "CANCELED"
	StatusRefunded OrderStatus = "REFUNDED"
)

// Order is a single purchase attempt created before any gateway call so that
// failed dispatches remain auditable. Orders are never deleted.
type Order struct {
	ID               string      `json:"id"`
	CheckoutID       string      `json:"checkoutId"`
	UserID           *string     `json:"userId,omitempty"`
	CustomerName     string      `json:"customerName"`
	CustomerEmail    string      `json:"customerEmail"`
	CustomerDocument string      `json:"customerDocument,omitempty"`
	AmountCents      int64       `json:"amountCents"`
	Status           OrderStatus `json:"status"`
	PaymentMethod    string      `json:"paymentMethod"` // card, pix
	LineItems        []LineItem  `json:"lineItems"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// LineItem is a purchased item as captured at checkout time. Items carry no
// product id; order-bump products are matched back by name.
type LineItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// NewOrderID generates a new UUID for an order.
func NewOrderID() string {
	return uuid.New().String()
}

// CheckoutRequest is the input for a payment submission.
type CheckoutRequest struct {
	CheckoutID string          `json:"checkoutId" validate:"required"`
	Amount     float64         `json:"amount" validate:"required,gt=0"`
	Method     string          `json:"method" validate:"required,oneof=card pix"`
	Customer   CustomerInput   `json:"customer" validate:"required"`
	Card       *CardInput      `json:"card,omitempty"`
	Items      []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// CustomerInput identifies the buyer. Email is mandatory: it is the only
// handle for linking anonymous purchases to an account later.
type CustomerInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Document string `json:"document"`
}

// CardInput is raw card data, tokenized immediately and never persisted.
type CardInput struct {
	Number       string `json:"number" validate:"required"`
	HolderName   string `json:"holderName" validate:"required"`
	ExpMonth     int    `json:"expMonth" validate:"required,min=1,max=12"`
	ExpYear      int    `json:"expYear" validate:"required"`
	CVV          string `json:"cvv" validate:"required"`
	Installments int    `json:"installments"`
}

// LineItemInput is one purchased item as submitted by the checkout page.
type LineItemInput struct {
	Name      string  `json:"name" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// CheckoutResponse is the synchronous result of a payment submission.
type CheckoutResponse struct {
	Success bool        `json:"success"`
	OrderID string      `json:"orderId,omitempty"`
	Status  OrderStatus `json:"status,omitempty"`
	PixData *PixData    `json:"pixData,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PixData is the pending-payment artifact returned for pix charges. Side
// effects are deferred until the webhook or poller confirms the payment.
type PixData struct {
	QRCode       string     `json:"qrCode"`
	QRCodeBase64 string     `json:"qrCodeBase64,omitempty"`
	TicketURL    string     `json:"ticketUrl,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// StatusResponse is the payload of the client-facing status poll.
type StatusResponse struct {
	Status         OrderStatus `json:"status"`
	ProviderStatus string      `json:"providerStatus,omitempty"`
}
