package domain

import "time"

// Product is a purchasable product. The main product of a checkout resolves
// by checkout id; order-bump products resolve by line-item name.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CheckoutID string    `json:"checkoutId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Content is a deliverable content item bound to a product (course module,
// download, community invite). Catalog CRUD lives outside this service; we
// only read.
type Content struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
