package handler

import (
	"net/http"

	"github.com/shopforge/backend/internal/contextkeys"
	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/service"
)

// CheckoutHandler exposes the synchronous payment submission path.
type CheckoutHandler struct {
	svc *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

// Pay handles POST /api/checkout/pay. Anonymous buyers are allowed; a bearer
// token, when present, links the order to the user.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(contextkeys.UserID).(string)

	var req domain.CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.svc.Pay(r.Context(), userID, &req)
	if err != nil {
		if appErr, ok := domain.AsAppError(err); ok {
			JSON(w, appErr.Code, &domain.CheckoutResponse{Success: false, Error: appErr.Message})
			return
		}
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, resp)
}
