package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopforge/backend/internal/domain"
	"github.com/shopforge/backend/pkg/gateway"
	"github.com/shopforge/backend/pkg/notify"
)

// In-memory store fakes shared by the service tests.

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	// updateErr forces UpdateStatus to fail, simulating a rejected
	// best-effort write.
	updateErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*domain.Order)}
}

func (m *memOrders) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) FindByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (m *memOrders) Transition(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (m *memOrders) status(id string) domain.OrderStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		return o.Status
	}
	return ""
}

type memPayments struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newMemPayments() *memPayments {
	return &memPayments{payments: make(map[string]*domain.Payment)}
}

func (m *memPayments) Create(_ context.Context, p *domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *memPayments) FindByProviderTxID(_ context.Context, providerTxID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ProviderTxID == providerTxID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPayments) FindLatestByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.Payment
	for _, p := range m.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *memPayments) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, providerStatus, detail string, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		p.Status = status
		p.ProviderStatus = providerStatus
		p.StatusDetail = detail
		if raw != nil {
			p.RawResponse = raw
		}
	}
	return nil
}

type memGateways struct {
	gateway *domain.Gateway
}

func (m *memGateways) FindActive(_ context.Context, _ string) (*domain.Gateway, error) {
	return m.gateway, nil
}

type memUsers struct {
	byEmail map[string]*domain.User
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.byEmail[email], nil
}

type memProducts struct {
	products []*domain.Product
	contents map[string][]*domain.Content
}

func (m *memProducts) FindByCheckoutID(_ context.Context, checkoutID string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.CheckoutID == checkoutID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *memProducts) FindByNames(_ context.Context, names []string) ([]*domain.Product, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []*domain.Product
	for _, p := range m.products {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) ListContents(_ context.Context, productID string) ([]*domain.Content, error) {
	return m.contents[productID], nil
}

type memGrants struct {
	mu    sync.Mutex
	rows  map[string]bool
	calls int
}

func newMemGrants() *memGrants {
	return &memGrants{rows: make(map[string]bool)}
}

func (m *memGrants) Upsert(_ context.Context, userID, kind, refID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.rows[fmt.Sprintf("%s|%s|%s", userID, kind, refID)] = true
	return nil
}

func (m *memGrants) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memLogs struct {
	mu   sync.Mutex
	rows []*domain.WebhookLog
}

func (m *memLogs) Append(_ context.Context, l *domain.WebhookLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memLogs) last() *domain.WebhookLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.rows) == 0 {
		return nil
	}
	return m.rows[len(m.rows)-1]
}

type countNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *countNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *countNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeClient struct {
	tokenFn  func(ctx context.Context, card gateway.CardData) (string, error)
	createFn func(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error)
	getFn    func(ctx context.Context, id string) (*gateway.PaymentResult, error)
	getCalls int
}

func (c *fakeClient) CreateCardToken(ctx context.Context, card gateway.CardData) (string, error) {
	return c.tokenFn(ctx, card)
}

func (c *fakeClient) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error) {
	return c.createFn(ctx, req)
}

func (c *fakeClient) GetPayment(ctx context.Context, id string) (*gateway.PaymentResult, error) {
	c.getCalls++
	return c.getFn(ctx, id)
}

func factoryFor(c *fakeClient) ClientFactory {
	return func(_ *domain.Gateway) GatewayClient { return c }
}

// memCache remembers marked request ids.
type memCache struct {
	seen map[string]bool
}

func (c *memCache) Seen(_ context.Context, requestID string) bool {
	return c.seen[requestID]
}

func (c *memCache) Mark(_ context.Context, requestID string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	c.seen[requestID] = true
}

func testGateway() *domain.Gateway {
	return &domain.Gateway{
		ID:            "gw-1",
		Provider:      "mercadopago",
		Environment:   domain.EnvSandbox,
		PublicKey:     "TEST-public",
		AccessToken:   "TEST-token",
		WebhookSecret: "whsec-test",
		Active:        true,
	}
}
