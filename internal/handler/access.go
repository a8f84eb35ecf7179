package handler

import (
	"context"
	"net/http"

	"github.com/shopforge/backend/internal/contextkeys"
	"github.com/shopforge/backend/internal/domain"
)

// GrantLister lists a user's access grants.
type GrantLister interface {
	ListByUser(ctx context.Context, userID string) ([]*domain.AccessGrant, error)
}

// AccessHandler exposes the buyer-facing entitlement listing.
type AccessHandler struct {
	grants GrantLister
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(grants GrantLister) *AccessHandler {
	return &AccessHandler{grants: grants}
}

// List handles GET /api/access/grants. Unlike checkout, this endpoint has no
// anonymous mode: grants are keyed by user.
func (h *AccessHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(contextkeys.UserID).(string)
	if userID == "" {
		Error(w, domain.ErrUnauthorized("authentication required"))
		return
	}

	grants, err := h.grants.ListByUser(r.Context(), userID)
	if err != nil {
		Error(w, domain.ErrInternal("failed to list access grants", err))
		return
	}
	if grants == nil {
		grants = []*domain.AccessGrant{}
	}
	JSON(w, http.StatusOK, grants)
}
