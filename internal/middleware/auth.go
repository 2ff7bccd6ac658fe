// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"birdatlas/internal/auth"
	"birdatlas/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// ClaimsKey is the context key for validated token claims.
	ClaimsKey contextKey = "claims"

	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
)

// Authenticate validates the Authorization bearer token and stores the
// claims in the request context. Requests without a token pass through
// unauthenticated; requests with an invalid token are rejected so a
// client never silently loses its identity.
func Authenticate(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w, "malformed authorization header")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireEditor rejects requests that carry no validated editor or admin
// claims. Must be applied after Authenticate.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromCtx(r.Context())
		if claims == nil {
			unauthorized(w, "authentication required")
			return
		}
		if !claims.IsEditor() {
			forbidden(w, "editor role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose claims are not an admin.
// Must be applied after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromCtx(r.Context())
		if claims == nil {
			unauthorized(w, "authentication required")
			return
		}
		if claims.Role != auth.RoleAdmin {
			forbidden(w, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoadSession retrieves the dashboard session from Valkey and stores it
// in the request context. It does NOT enforce authentication, it just
// loads the session if one exists.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Treat a lookup failure as unauthenticated.
				next.ServeHTTP(w, r)
				return
			}

			if data != nil {
				ctx := context.WithValue(r.Context(), SessionKey, data)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromCtx extracts validated token claims from the request context.
// Returns nil if the request is unauthenticated.
func ClaimsFromCtx(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ClaimsKey).(*auth.Claims)
	return claims
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", msg)
}

func forbidden(w http.ResponseWriter, msg string) {
	writeAuthError(w, http.StatusForbidden, "forbidden", msg)
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
