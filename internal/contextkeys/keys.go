package contextkeys

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// UserID is the context key for the authenticated user's ID.
const UserID contextKey = "userID"
