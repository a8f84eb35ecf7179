package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client is an HTTP client for one configured provider account. Construct one
// per resolved gateway; there is no package-level singleton.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a gateway client from an explicit configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

// CreateCardToken exchanges raw card data for a single-use token. A
// non-success response surfaces the provider's reason as a tokenization error.
func (c *Client) CreateCardToken(ctx context.Context, card CardData) (string, error) {
	body := map[string]interface{}{
		"card_number":      card.Number,
		"cardholder":       map[string]string{"name": card.HolderName},
		"expiration_month": card.ExpMonth,
		"expiration_year":  card.ExpYear,
		"security_code":    card.CVV,
	}

	url := fmt.Sprintf("%s/v1/card_tokens?public_key=%s", c.cfg.BaseURL, c.cfg.PublicKey)
	respBody, status, err := c.do(ctx, http.MethodPost, url, body, nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &Error{Op: "create_token", StatusCode: status, Message: providerMessage(respBody)}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.ID == "" {
		return "", &Error{Op: "create_token", StatusCode: status, Message: "malformed token response"}
	}
	return parsed.ID, nil
}

// CreatePayment dispatches one charge attempt. Each call carries a fresh
// X-Idempotency-Key so retries perform the underlying charge at most once.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	body := map[string]interface{}{
		"transaction_amount": float64(req.AmountCents) / 100,
		"description":        req.Description,
		"payment_method_id":  req.Method,
		"external_reference": req.ExternalReference,
		"payer": map[string]interface{}{
			"email":      req.PayerEmail,
			"first_name": req.PayerName,
			"identification": map[string]string{
				"type":   "CPF",
				"number": req.PayerDocument,
			},
		},
	}
	if req.Token != "" {
		body["token"] = req.Token
		installments := req.Installments
		if installments <= 0 {
			installments = 1
		}
		body["installments"] = installments
	}
	if req.NotificationURL != "" {
		body["notification_url"] = req.NotificationURL
	}

	headers := map[string]string{
		"Authorization":     "Bearer " + c.cfg.AccessToken,
		"X-Idempotency-Key": uuid.New().String(),
	}

	respBody, status, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/payments", body, headers)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &Error{Op: "create_payment", StatusCode: status, Message: providerMessage(respBody)}
	}
	return parsePayment(respBody, "create_payment", status)
}

// GetPayment fetches the canonical payment snapshot by provider id. This is
// the sole source of truth for reconciliation; webhook bodies are never
// trusted directly.
func (c *Client) GetPayment(ctx context.Context, id string) (*PaymentResult, error) {
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.AccessToken}

	respBody, status, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/payments/"+id, nil, headers)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &Error{Op: "get_payment", StatusCode: status, Message: providerMessage(respBody)}
	}
	return parsePayment(respBody, "get_payment", status)
}

// do performs one bounded HTTP call. Deadline expiry surfaces as ErrTimeout.
func (c *Client) do(ctx context.Context, method, url string, body interface{}, headers map[string]string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
		}
		return nil, 0, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// providerPayment mirrors the provider's payment resource shape.
type providerPayment struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	DateOfExpiration   string      `json:"date_of_expiration"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func parsePayment(body []byte, op string, status int) (*PaymentResult, error) {
	var p providerPayment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &Error{Op: op, StatusCode: status, Message: "malformed payment response"}
	}
	if p.ID.String() == "" {
		return nil, &Error{Op: op, StatusCode: status, Message: "payment response missing id"}
	}

	result := &PaymentResult{
		ID:           p.ID.String(),
		Status:       p.Status,
		StatusDetail: p.StatusDetail,
		QRCode:       p.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: p.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:    p.PointOfInteraction.TransactionData.TicketURL,
		Raw:          body,
	}
	if p.DateOfExpiration != "" {
		for _, layout := range []string{"2006-01-02T15:04:05.000-07:00", time.RFC3339} {
			if t, err := time.Parse(layout, p.DateOfExpiration); err == nil {
				result.ExpiresAt = &t
				break
			}
		}
	}
	return result, nil
}

// providerMessage extracts a human-readable reason from an error body.
func providerMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return "provider returned an error"
}
