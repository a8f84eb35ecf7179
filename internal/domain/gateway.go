package domain

import "time"

// Gateway environments.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Gateway is a configured payment-provider account. Credentials are scoped to
// one environment; exactly one gateway per provider should be active.
type Gateway struct {
	ID            string    `json:"id"`
	Provider      string    `json:"provider"`
	Environment   string    `json:"environment"` // sandbox, production
	PublicKey     string    `json:"-"`
	AccessToken   string    `json:"-"`
	WebhookSecret string    `json:"-"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Valid reports whether the gateway carries the credentials required to
// dispatch payments. A gateway missing its access token is a configuration
// error, not a runtime one.
func (g *Gateway) Valid() bool {
	return g.AccessToken != "" && g.PublicKey != ""
}
