package gateway

import (
	"errors"
	"fmt"
	"time"
)

// Config is the explicit per-environment configuration for one provider
// account, resolved once at construction from the stored gateway row.
type Config struct {
	BaseURL       string
	PublicKey     string
	AccessToken   string
	WebhookSecret string
	Environment   string // sandbox, production
	Timeout       time.Duration
}

// DefaultTimeout bounds every outbound gateway call. A slow provider aborts
// the in-flight request rather than blocking the checkout.
const DefaultTimeout = 15 * time.Second

// ErrTimeout reports that a bounded gateway call expired before the provider
// answered. Distinguished from Error so operators can tell a slow provider
// from a rejecting one.
var ErrTimeout = errors.New("gateway: request timed out")

// Error is a non-success provider response.
type Error struct {
	Op         string // create_token, create_payment, get_payment
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s: %s (http %d)", e.Op, e.Message, e.StatusCode)
}

// IsTokenization reports whether the failure happened while tokenizing card
// data. The provider's reason is surfaced to the buyer verbatim.
func (e *Error) IsTokenization() bool {
	return e.Op == "create_token"
}

// CardData is raw card input handed to the provider for tokenization. Never
// persisted, never logged.
type CardData struct {
	Number     string
	HolderName string
	ExpMonth   int
	ExpYear    int
	CVV        string
}

// PaymentRequest describes one charge attempt. Every dispatch carries a fresh
// idempotency key so client or network retries cannot double-charge.
type PaymentRequest struct {
	AmountCents       int64
	Description       string
	Method            string // card, pix
	Token             string // card token, empty for pix
	Installments      int
	PayerEmail        string
	PayerName         string
	PayerDocument     string
	ExternalReference string // our order id
	NotificationURL   string
}

// PaymentResult is the parsed provider response. Raw keeps the body verbatim
// for audit next to the parsed fields.
type PaymentResult struct {
	ID           string
	Status       string
	StatusDetail string
	QRCode       string
	QRCodeBase64 string
	TicketURL    string
	ExpiresAt    *time.Time
	Raw          []byte
}
