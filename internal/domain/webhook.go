package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookLog is an append-only audit row for every inbound gateway event.
// Written unconditionally: the HTTP handler always acknowledges the provider,
// so this log is the only place failures are visible.
type WebhookLog struct {
	ID           string    `json:"id"`
	Provider     string    `json:"provider"`
	RequestID    string    `json:"requestId"`
	EventType    string    `json:"eventType"`
	Action       string    `json:"action"`
	ProviderTxID string    `json:"providerTxId"`
	Payload      []byte    `json:"-"`
	Processed    bool      `json:"processed"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewWebhookLogID generates a new UUID for a webhook log row.
func NewWebhookLogID() string {
	return uuid.New().String()
}

// WebhookEvent is the parsed inbound notification. Only data.id is trusted;
// everything else is re-derived from the provider.
type WebhookEvent struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}
