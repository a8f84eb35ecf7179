package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Message is one outbound notification handed to the delivery collaborator.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier is the notification port. Delivery is best-effort: callers log
// failures and move on once the gateway itself has confirmed the payment.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPNotifier posts messages to an external delivery service.
type HTTPNotifier struct {
	url  string
	http *http.Client
}

// NewHTTPNotifier creates a notifier that POSTs to the given URL.
func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *HTTPNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("notification dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier drops messages into the log. Used when no delivery service is
// configured (local development).
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, msg Message) error {
	log.Printf("[notify] to=%s subject=%q (no delivery service configured)", msg.To, msg.Subject)
	return nil
}
