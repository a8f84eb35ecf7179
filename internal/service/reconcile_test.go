package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/pkg/gateway"
)

type reconcileEnv struct {
	orders   *memOrders
	payments *memPayments
	logs     *memLogs
	grants   *memGrants
	notifier *countNotifier
	client   *fakeClient
	svc      *ReconcileService
	orderID  string
}

func newReconcileEnv(t *testing.T, client *fakeClient, cache DeliveryCache) *reconcileEnv {
	t.Helper()

	orders := newMemOrders()
	payments := newMemPayments()
	logs := &memLogs{}
	grants := newMemGrants()
	notifier := &countNotifier{}

	users := &memUsers{byEmail: map[string]*domain.User{
		"buyer@example.com": {ID: "user-1", Email: "buyer@example.com"},
	}}
	products := &memProducts{
		products: []*domain.Product{
			{ID: "prod-main", Name: "Go Course", CheckoutID: "chk-1"},
		},
		contents: map[string][]*domain.Content{
			"prod-main": {{ID: "content-1", ProductID: "prod-main", Title: "Module 1"}},
		},
	}

	order := &domain.Order{
		ID:            "order-1",
		CheckoutID:    "chk-1",
		CustomerName:  "Ana",
		CustomerEmail: "buyer@example.com",
		AmountCents:   15000,
		Status:        domain.StatusPending,
		PaymentMethod: "pix",
		LineItems:     []domain.LineItem{{Name: "Go Course", Quantity: 1, UnitPriceCents: 15000}},
		CreatedAt:     time.Now(),
	}
	require.NoError(t, orders.Create(context.Background(), order))
	require.NoError(t, payments.Create(context.Background(), &domain.Payment{
		ID:             "pay-1",
		OrderID:        "order-1",
		GatewayID:      "gw-1",
		ProviderTxID:   "9001",
		Status:         domain.StatusPending,
		ProviderStatus: "pending",
		CreatedAt:      time.Now(),
	}))

	access := NewAccessService(users, products, grants)
	effects := NewSideEffects(access, notifier)
	svc := NewReconcileService(orders, payments, &memGateways{gateway: testGateway()},
		logs, cache, effects, factoryFor(client), "mercadopago")

	return &reconcileEnv{
		orders: orders, payments: payments, logs: logs, grants: grants,
		notifier: notifier, client: client, svc: svc, orderID: "order-1",
	}
}

func signedHeader(paymentID, requestID, secret string) string {
	ts := "1700000000"
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(paymentID), requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func webhookFor(paymentID, requestID, secret string) *WebhookInput {
	body := []byte(fmt.Sprintf(`{"type":"payment","action":"payment.updated","data":{"id":"%s"}}`, paymentID))
	in := &WebhookInput{
		Signature: signedHeader(paymentID, requestID, secret),
		RequestID: requestID,
		Body:      body,
	}
	in.Event.Type = "payment"
	in.Event.Action = "payment.updated"
	in.Event.Data.ID = paymentID
	return in
}

func approvedClient() *fakeClient {
	return &fakeClient{
		getFn: func(_ context.Context, id string) (*gateway.PaymentResult, error) {
			return &gateway.PaymentResult{
				ID:     id,
				Status: "approved",
				Raw:    []byte(`{"id":9001,"status":"approved"}`),
			}, nil
		},
	}
}

func TestWebhookApprovedTransitionsOrderAndFiresEffectsOnce(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))

	assert.Equal(t, domain.StatusPaid, env.orders.status(env.orderID))
	assert.Equal(t, 2, env.grants.count())
	assert.Equal(t, 1, env.notifier.count())

	row := env.logs.last()
	require.NotNil(t, row)
	assert.True(t, row.Processed)
	assert.Equal(t, "9001", row.ProviderTxID)

	p, err := env.payments.FindByProviderTxID(context.Background(), "9001")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, p.Status)
	assert.Equal(t, "approved", p.ProviderStatus)
}

func TestWebhookReplayConvergesWithoutDuplicateEffects(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))
	// Same event redelivered with a new request id: full reprocessing, but
	// the PENDING to PAID boundary was already crossed.
	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-2", "whsec-test"))

	assert.Equal(t, domain.StatusPaid, env.orders.status(env.orderID))
	assert.Equal(t, 2, env.grants.count())
	assert.Equal(t, 1, env.notifier.count())
	assert.Len(t, env.logs.rows, 2)
	assert.True(t, env.logs.rows[1].Processed)
}

func TestWebhookDuplicateDeliveryShortCircuits(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), &memCache{})

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))
	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))

	assert.Equal(t, 1, env.client.getCalls)
	assert.Equal(t, 1, env.notifier.count())
	require.Len(t, env.logs.rows, 2)
	assert.Equal(t, "duplicate delivery", env.logs.rows[1].Detail)
}

func TestWebhookRedeliveryAfterTransientFailureIsProcessed(t *testing.T) {
	// First canonical fetch fails; the provider redelivers with the same
	// request id. The dedup marker must not swallow the retry.
	calls := 0
	client := &fakeClient{
		getFn: func(_ context.Context, id string) (*gateway.PaymentResult, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("%w after 15s", gateway.ErrTimeout)
			}
			return &gateway.PaymentResult{ID: id, Status: "approved"}, nil
		},
	}
	env := newReconcileEnv(t, client, &memCache{})

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))
	assert.Equal(t, domain.StatusPending, env.orders.status(env.orderID))
	assert.False(t, env.logs.rows[0].Processed)

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))

	assert.Equal(t, domain.StatusPaid, env.orders.status(env.orderID))
	assert.Equal(t, 1, env.notifier.count())
	require.Len(t, env.logs.rows, 2)
	assert.True(t, env.logs.rows[1].Processed)
	assert.NotEqual(t, "duplicate delivery", env.logs.rows[1].Detail)
}

func TestWebhookForgedSignatureIsLoggedNotApplied(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	in := webhookFor("9001", "req-1", "wrong-secret")
	env.svc.HandleWebhook(context.Background(), in)

	assert.Equal(t, domain.StatusPending, env.orders.status(env.orderID))
	assert.Equal(t, 0, env.grants.count())
	assert.Equal(t, 0, env.notifier.count())
	assert.Equal(t, 0, env.client.getCalls)

	row := env.logs.last()
	require.NotNil(t, row)
	assert.False(t, row.Processed)
	assert.Equal(t, "invalid signature", row.Detail)
}

func TestWebhookUnknownPaymentIsLogged(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	env.svc.HandleWebhook(context.Background(), webhookFor("does-not-exist", "req-1", "whsec-test"))

	row := env.logs.last()
	require.NotNil(t, row)
	assert.False(t, row.Processed)
	assert.Equal(t, "no payment for provider transaction id", row.Detail)
	assert.Equal(t, domain.StatusPending, env.orders.status(env.orderID))
}

func TestWebhookBodyStatusIsNeverTrusted(t *testing.T) {
	// Canonical fetch says pending, whatever the webhook delivery implied.
	client := &fakeClient{
		getFn: func(_ context.Context, id string) (*gateway.PaymentResult, error) {
			return &gateway.PaymentResult{ID: id, Status: "pending"}, nil
		},
	}
	env := newReconcileEnv(t, client, nil)

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))

	assert.Equal(t, domain.StatusPending, env.orders.status(env.orderID))
	assert.Equal(t, 0, env.notifier.count())
	assert.True(t, env.logs.last().Processed)
}

func TestPollAppliesCanonicalStateAndThenWebhookIsNoop(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	resp, err := env.svc.Poll(context.Background(), env.orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, resp.Status)
	assert.Equal(t, "approved", resp.ProviderStatus)
	assert.Equal(t, 1, env.notifier.count())

	// The webhook arriving later for the same transition must not re-fire.
	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-9", "whsec-test"))
	assert.Equal(t, 1, env.notifier.count())
	assert.Equal(t, 2, env.grants.count())
}

func TestPollLeavesPaidOrdersAlone(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)
	_, err := env.orders.Transition(context.Background(), env.orderID, domain.StatusPending, domain.StatusPaid)
	require.NoError(t, err)

	resp, err := env.svc.Poll(context.Background(), env.orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, resp.Status)
	assert.Equal(t, 0, env.client.getCalls)
}

func TestPollUnknownOrder(t *testing.T) {
	env := newReconcileEnv(t, approvedClient(), nil)

	_, err := env.svc.Poll(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := domain.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestPollSurvivesProviderOutage(t *testing.T) {
	client := &fakeClient{
		getFn: func(_ context.Context, _ string) (*gateway.PaymentResult, error) {
			return nil, fmt.Errorf("%w after 15s", gateway.ErrTimeout)
		},
	}
	env := newReconcileEnv(t, client, nil)

	resp, err := env.svc.Poll(context.Background(), env.orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, "pending", resp.ProviderStatus)
}

func TestWebhookRefundOnlyAppliesToPaidOrders(t *testing.T) {
	refunded := &fakeClient{
		getFn: func(_ context.Context, id string) (*gateway.PaymentResult, error) {
			return &gateway.PaymentResult{ID: id, Status: "refunded"}, nil
		},
	}
	env := newReconcileEnv(t, refunded, nil)

	// Still PENDING: a refund event cannot move it.
	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-1", "whsec-test"))
	assert.Equal(t, domain.StatusPending, env.orders.status(env.orderID))

	_, err := env.orders.Transition(context.Background(), env.orderID, domain.StatusPending, domain.StatusPaid)
	require.NoError(t, err)

	env.svc.HandleWebhook(context.Background(), webhookFor("9001", "req-2", "whsec-test"))
	assert.Equal(t, domain.StatusRefunded, env.orders.status(env.orderID))
}
