package domain

import "time"

// User is the minimal identity read model this service needs for linking
// orders and granting access. Account management lives elsewhere.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
