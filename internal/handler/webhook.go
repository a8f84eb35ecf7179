package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/service"
)

// WebhookHandler receives asynchronous gateway notifications.
type WebhookHandler struct {
	svc *service.ReconcileService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(svc *service.ReconcileService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleGatewayEvent handles POST /api/payment/webhook. The response is
// always success-shaped: an error status would only trigger provider retry
// storms, and unverified or unprocessable events are already recorded in the
// audit log.
func (h *WebhookHandler) HandleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		// Still handed to the service: every inbound delivery gets an audit
		// row, and verification fails closed on the empty event.
		body = nil
	}

	in := &service.WebhookInput{
		Signature: r.Header.Get("x-signature"),
		RequestID: r.Header.Get("x-request-id"),
		Body:      body,
	}
	// A malformed body still gets logged by the service with an empty event.
	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err == nil {
		in.Event = event
	}

	h.svc.HandleWebhook(r.Context(), in)

	JSON(w, http.StatusOK, map[string]bool{"received": true})
}
