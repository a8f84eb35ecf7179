package handler

import (
	"net/http"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/service"
)

// StatusHandler is the client-facing payment status poll.
type StatusHandler struct {
	svc *service.ReconcileService
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(svc *service.ReconcileService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

// Check handles GET /api/payment/status?orderId=<id>. Calling it triggers a
// reconciliation pass for pending orders, which covers deployments where
// webhooks cannot be delivered.
func (h *StatusHandler) Check(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		Error(w, domain.ErrBadRequest("missing orderId query param"))
		return
	}

	resp, err := h.svc.Poll(r.Context(), orderID)
	if err != nil {
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}
