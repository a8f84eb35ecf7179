package service

import (
	"context"
	"fmt"
	"log"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/internal/metrics"
	"github.com/shopforge/backend/pkg/notify"
)

// AccessGranter is the part of AccessService the paid-order effects need.
type AccessGranter interface {
	Grant(ctx context.Context, order *domain.Order) error
}

// SideEffects runs the post-payment work: access grants and the confirmation
// notification. Invoked from every path that can win the PENDING to PAID
// transition. Failures are logged, never surfaced; the gateway has already
// confirmed the money moved.
type SideEffects struct {
	access   AccessGranter
	notifier notify.Notifier
}

// NewSideEffects creates a SideEffects dispatcher.
func NewSideEffects(access AccessGranter, notifier notify.Notifier) *SideEffects {
	return &SideEffects{access: access, notifier: notifier}
}

// OnPaid grants access and sends the purchase confirmation. Both steps are
// safe to run more than once for the same order.
func (e *SideEffects) OnPaid(ctx context.Context, order *domain.Order) {
	if err := e.access.Grant(ctx, order); err != nil {
		log.Printf("access grant failed for order %s: %v", order.ID, err)
	}

	msg := confirmationMessage(order)
	if err := e.notifier.Send(ctx, msg); err != nil {
		log.Printf("confirmation dispatch failed for order %s: %v", order.ID, err)
		return
	}
	metrics.NotificationsTotal.Inc()
}

func confirmationMessage(order *domain.Order) notify.Message {
	return notify.Message{
		To:      order.CustomerEmail,
		Subject: "Your payment was confirmed",
		HTML: fmt.Sprintf(
			"<p>Hi %s,</p><p>We received your payment of %s for order <strong>%s</strong>. Your access has been released.</p>",
			order.CustomerName, formatAmount(order.AmountCents), order.ID,
		),
	}
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
