package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/metrics"
	"github.com/shopforge/backend/pkg/gateway"
)

// CheckoutService orchestrates one payment attempt: validate, persist a
// PENDING order, dispatch to the gateway, apply the synchronous result.
type CheckoutService struct {
	orders   OrderStore
	payments PaymentStore
	gateways GatewayStore
	effects  *SideEffects
	clients  ClientFactory
	provider string
	// notificationURL is handed to the provider so webhooks come back to us.
	notificationURL string
	validate        *validator.Validate
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(orders OrderStore, payments PaymentStore, gateways GatewayStore,
	effects *SideEffects, clients ClientFactory, provider, notificationURL string) *CheckoutService {
	return &CheckoutService{
		orders:          orders,
		payments:        payments,
		gateways:        gateways,
		effects:         effects,
		clients:         clients,
		provider:        provider,
		notificationURL: notificationURL,
		validate:        validator.New(),
	}
}

// Pay processes a payment submission. userID is empty for anonymous buyers.
func (s *CheckoutService) Pay(ctx context.Context, userID string, req *domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	metrics.PaymentAttemptsTotal.Inc()

	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(validationMessage(err))
	}
	amountCents := int64(math.Round(req.Amount * 100))
	if amountCents <= 0 {
		return nil, domain.ErrValidation("amount must be positive")
	}
	if req.Method == "card" && req.Card == nil {
		return nil, domain.ErrValidation("card data is required for card payments")
	}

	gw, err := s.gateways.FindActive(ctx, s.provider)
	if err != nil {
		return nil, domain.ErrInternal("failed to resolve gateway", err)
	}
	if gw == nil {
		return nil, domain.ErrConfiguration("no active payment gateway configured")
	}
	if !gw.Valid() {
		return nil, domain.ErrConfiguration("payment gateway credentials are incomplete")
	}

	// The order is persisted PENDING before any gateway call so a failed
	// dispatch still leaves an auditable row.
	order := s.buildOrder(userID, req, amountCents)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, domain.ErrInternal("failed to create order", err)
	}

	client := s.clients(gw)

	var token string
	if req.Method == "card" {
		token, err = client.CreateCardToken(ctx, gateway.CardData{
			Number:     req.Card.Number,
			HolderName: req.Card.HolderName,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVV:        req.Card.CVV,
		})
		if err != nil {
			s.markFailed(ctx, order.ID)
			metrics.PaymentsFailedTotal.Inc()
			return nil, gatewayError("card tokenization failed", err)
		}
	}

	start := time.Now()
	res, err := client.CreatePayment(ctx, gateway.PaymentRequest{
		AmountCents:       amountCents,
		Description:       fmt.Sprintf("Order %s", order.ID),
		Method:            req.Method,
		Token:             token,
		Installments:      installments(req.Card),
		PayerEmail:        req.Customer.Email,
		PayerName:         req.Customer.Name,
		PayerDocument:     req.Customer.Document,
		ExternalReference: order.ID,
		NotificationURL:   s.notificationURL,
	})
	metrics.GatewayRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.markFailed(ctx, order.ID)
		metrics.PaymentsFailedTotal.Inc()
		return nil, gatewayError("payment was not accepted", err)
	}

	status := domain.OrderStatus(gateway.TranslateStatus(res.Status))
	now := time.Now()
	payment := &domain.Payment{
		ID:             domain.NewPaymentID(),
		OrderID:        order.ID,
		GatewayID:      gw.ID,
		ProviderTxID:   res.ID,
		Status:         status,
		ProviderStatus: res.Status,
		StatusDetail:   res.StatusDetail,
		RawResponse:    res.Raw,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		// The gateway already confirmed an outcome; a rejected write must not
		// mask it to the buyer.
		log.Printf("failed to persist payment %s for order %s: %v", res.ID, order.ID, err)
	}

	switch status {
	case domain.StatusPaid:
		won, err := s.orders.Transition(ctx, order.ID, domain.StatusPending, domain.StatusPaid)
		if err != nil {
			log.Printf("failed to mark order %s PAID: %v", order.ID, err)
		}
		metrics.PaymentsApprovedTotal.Inc()
		if won {
			// Webhooks cannot be relied upon to ever arrive; an
			// immediately-final success fires side effects before returning.
			order.Status = domain.StatusPaid
			s.effects.OnPaid(ctx, order)
		}
		return &domain.CheckoutResponse{Success: true, OrderID: order.ID, Status: domain.StatusPaid}, nil

	case domain.StatusFailed, domain.StatusCanceled:
		s.markFailed(ctx, order.ID)
		metrics.PaymentsFailedTotal.Inc()
		detail := res.StatusDetail
		if detail == "" {
			detail = "payment rejected by provider"
		}
		return nil, domain.ErrGateway(detail, nil)

	default:
		// Pending with an artifact (pix QR): hand it back and let the
		// webhook or poller finish the job.
		resp := &domain.CheckoutResponse{Success: true, OrderID: order.ID, Status: domain.StatusPending}
		if res.QRCode != "" || res.QRCodeBase64 != "" || res.TicketURL != "" {
			resp.PixData = &domain.PixData{
				QRCode:       res.QRCode,
				QRCodeBase64: res.QRCodeBase64,
				TicketURL:    res.TicketURL,
				ExpiresAt:    res.ExpiresAt,
			}
		}
		return resp, nil
	}
}

func (s *CheckoutService) buildOrder(userID string, req *domain.CheckoutRequest, amountCents int64) *domain.Order {
	now := time.Now()
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: int64(math.Round(item.UnitPrice * 100)),
		})
	}

	order := &domain.Order{
		ID:               domain.NewOrderID(),
		CheckoutID:       req.CheckoutID,
		CustomerName:     req.Customer.Name,
		CustomerEmail:    req.Customer.Email,
		CustomerDocument: req.Customer.Document,
		AmountCents:      amountCents,
		Status:           domain.StatusPending,
		PaymentMethod:    req.Method,
		LineItems:        items,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if userID != "" {
		order.UserID = &userID
	}
	return order
}

// markFailed is best-effort: anonymous callers may lack write permission, and
// a secondary persistence failure must never mask the primary payment failure.
func (s *CheckoutService) markFailed(ctx context.Context, orderID string) {
	if err := s.orders.UpdateStatus(ctx, orderID, domain.StatusFailed); err != nil {
		log.Printf("failed to mark order %s FAILED: %v", orderID, err)
	}
}

func installments(card *domain.CardInput) int {
	if card == nil || card.Installments <= 0 {
		return 1
	}
	return card.Installments
}

// gatewayError maps adapter errors onto the application taxonomy. Timeouts
// stay distinguishable from provider rejections.
func gatewayError(fallback string, err error) error {
	if errors.Is(err, gateway.ErrTimeout) {
		return domain.ErrTimeout("payment provider timed out", err)
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return domain.ErrGateway(gwErr.Message, err)
	}
	return domain.ErrGateway(fallback, err)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		return "invalid or missing fields: " + strings.Join(fields, ", ")
	}
	return "invalid request"
}
