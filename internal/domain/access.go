package domain

import "time"

// Grant kinds. A paid order yields one product grant per entitled product and
// one content grant per content item bound to it.
const (
	GrantProduct = "product"
	GrantContent = "content"
)

// AccessGrant links a user to purchasable content or a product. Unique per
// (user, kind, ref); always written as an upsert, never a plain insert.
type AccessGrant struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Kind      string     `json:"kind"` // product, content
	RefID     string     `json:"refId"`
	Status    string     `json:"status"` // active, revoked
	GrantedAt time.Time  `json:"grantedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}
