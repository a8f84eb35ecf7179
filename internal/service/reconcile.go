package service

import (
	"context"
	"log"
	"time"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/metrics"
	"github.com/shopforge/backend/pkg/gateway"
)

// WebhookInput is one inbound gateway notification as received over HTTP.
type WebhookInput struct {
	Signature string
	RequestID string
	Body      []byte
	Event     domain.WebhookEvent
}

// ReconcileService converges local order/payment state with canonical
// provider state. Both the webhook path and the client status poll run
// through the same applyCanonical, so replays, out-of-order deliveries and
// racing entry points all land on the same final state.
type ReconcileService struct {
	orders   OrderStore
	payments PaymentStore
	gateways GatewayStore
	logs     WebhookLogStore
	cache    DeliveryCache
	effects  *SideEffects
	clients  ClientFactory
	provider string
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(orders OrderStore, payments PaymentStore, gateways GatewayStore,
	logs WebhookLogStore, cache DeliveryCache, effects *SideEffects, clients ClientFactory,
	provider string) *ReconcileService {
	return &ReconcileService{
		orders:   orders,
		payments: payments,
		gateways: gateways,
		logs:     logs,
		cache:    cache,
		effects:  effects,
		clients:  clients,
		provider: provider,
	}
}

// HandleWebhook verifies and applies one asynchronous gateway notification.
// It never returns an error: the HTTP handler always acknowledges the
// provider, and failures are visible only through the audit log.
func (s *ReconcileService) HandleWebhook(ctx context.Context, in *WebhookInput) {
	metrics.WebhookEventsTotal.Inc()

	row := &domain.WebhookLog{
		ID:           domain.NewWebhookLogID(),
		Provider:     s.provider,
		RequestID:    in.RequestID,
		EventType:    in.Event.Type,
		Action:       in.Event.Action,
		ProviderTxID: in.Event.Data.ID,
		Payload:      in.Body,
		CreatedAt:    time.Now(),
	}
	// Appended whatever happens below: the audit log is the only failure
	// surface for this path.
	defer func() {
		if err := s.logs.Append(ctx, row); err != nil {
			log.Printf("failed to append webhook log: %v", err)
		}
	}()

	gw, err := s.gateways.FindActive(ctx, s.provider)
	if err != nil {
		row.Detail = "gateway lookup failed: " + err.Error()
		return
	}
	if gw == nil {
		row.Detail = "no active gateway for provider"
		metrics.WebhookEventsRejectedTotal.Inc()
		return
	}

	// Fails closed: unverifiable events are acknowledged but never applied.
	if !gateway.VerifySignature(in.Event.Data.ID, in.Signature, in.RequestID, gw.WebhookSecret) {
		row.Detail = "invalid signature"
		metrics.WebhookEventsRejectedTotal.Inc()
		return
	}

	if s.cache != nil && s.cache.Seen(ctx, in.RequestID) {
		row.Processed = true
		row.Detail = "duplicate delivery"
		return
	}

	payment, err := s.payments.FindByProviderTxID(ctx, in.Event.Data.ID)
	if err != nil {
		row.Detail = "payment lookup failed: " + err.Error()
		return
	}
	if payment == nil {
		row.Detail = "no payment for provider transaction id"
		metrics.WebhookEventsRejectedTotal.Inc()
		return
	}

	// Never trust the webhook body: re-fetch the canonical payment state.
	res, err := s.clients(gw).GetPayment(ctx, payment.ProviderTxID)
	if err != nil {
		row.Detail = "canonical fetch failed: " + err.Error()
		return
	}

	if err := s.applyCanonical(ctx, payment, res); err != nil {
		row.Detail = err.Error()
		return
	}
	row.Processed = true
	// Marked only now: a failed delivery above stays eligible for redelivery.
	if s.cache != nil {
		s.cache.Mark(ctx, in.RequestID)
	}
}

// Poll is the client-triggered reconciliation path. It compensates for
// deployments where webhooks never arrive: same canonical fetch, same apply,
// same idempotency guarantees. Reconciliation failures are logged, not
// surfaced; the caller still gets the current local state.
func (s *ReconcileService) Poll(ctx context.Context, orderID string) (*domain.StatusResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load order", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound("order not found")
	}

	payment, err := s.payments.FindLatestByOrderID(ctx, orderID)
	if err != nil {
		log.Printf("status poll: payment lookup failed for order %s: %v", orderID, err)
		payment = nil
	}

	if order.Status == domain.StatusPending && payment != nil {
		if fresh := s.reconcilePending(ctx, payment); fresh != nil {
			order = fresh
		}
	}

	resp := &domain.StatusResponse{Status: order.Status}
	if payment != nil {
		resp.ProviderStatus = payment.ProviderStatus
	}
	return resp, nil
}

func (s *ReconcileService) reconcilePending(ctx context.Context, payment *domain.Payment) *domain.Order {
	gw, err := s.gateways.FindActive(ctx, s.provider)
	if err != nil || gw == nil {
		log.Printf("status poll: no usable gateway: %v", err)
		return nil
	}

	res, err := s.clients(gw).GetPayment(ctx, payment.ProviderTxID)
	if err != nil {
		log.Printf("status poll: canonical fetch failed for payment %s: %v", payment.ID, err)
		return nil
	}
	payment.ProviderStatus = res.Status

	if err := s.applyCanonical(ctx, payment, res); err != nil {
		log.Printf("status poll: apply failed for payment %s: %v", payment.ID, err)
	}

	fresh, err := s.orders.FindByID(ctx, payment.OrderID)
	if err != nil {
		log.Printf("status poll: reload failed for order %s: %v", payment.OrderID, err)
		return nil
	}
	return fresh
}

// applyCanonical translates a freshly fetched provider snapshot and applies
// it. The applied value is absolute, never a diff, and the order transition
// is conditional on the current status, so whichever racing path runs first
// wins the PENDING to PAID boundary and fires side effects exactly once.
func (s *ReconcileService) applyCanonical(ctx context.Context, payment *domain.Payment, res *gateway.PaymentResult) error {
	status := domain.OrderStatus(gateway.TranslateStatus(res.Status))

	if err := s.payments.UpdateStatus(ctx, payment.ID, status, res.Status, res.StatusDetail, res.Raw); err != nil {
		// The order transition below is the authoritative part.
		log.Printf("failed to update payment %s: %v", payment.ID, err)
	}

	switch status {
	case domain.StatusPaid:
		won, err := s.orders.Transition(ctx, payment.OrderID, domain.StatusPending, domain.StatusPaid)
		if err != nil {
			return err
		}
		if won {
			metrics.PaymentsApprovedTotal.Inc()
			order, err := s.orders.FindByID(ctx, payment.OrderID)
			if err != nil || order == nil {
				log.Printf("order %s paid but reload failed: %v", payment.OrderID, err)
				return nil
			}
			s.effects.OnPaid(ctx, order)
		}

	case domain.StatusFailed, domain.StatusCanceled:
		won, err := s.orders.Transition(ctx, payment.OrderID, domain.StatusPending, status)
		if err != nil {
			return err
		}
		if won {
			metrics.PaymentsFailedTotal.Inc()
		}

	case domain.StatusRefunded:
		if _, err := s.orders.Transition(ctx, payment.OrderID, domain.StatusPaid, domain.StatusRefunded); err != nil {
			return err
		}
	}
	return nil
}
