package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopforge/backend/internal/contextkeys"
)

// OptionalAuth resolves a bearer JWT into a user identity when one is
// present. Checkout is open to anonymous buyers, so a missing or invalid
// token never blocks the request; it only means the order stays unlinked.
// Session issuance lives in the account service; we only verify.
func OptionalAuth(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if secret == "" || authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				log.Printf("ignoring invalid bearer token: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if sub, ok := claims["sub"].(string); ok && sub != "" {
				ctx = context.WithValue(ctx, contextkeys.UserID, sub)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
