// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies identity-provider bearer tokens and implements the
// region-scope authorization policy. The provider issues HS256 JWTs whose
// claims carry the user's role and assigned region codes; this package
// never issues credentials of its own beyond test helpers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"birdatlas/internal/region"
)

// Roles recognized in token claims. An empty role is a plain
// authenticated user with no editorial rights.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// Claims is the verified identity attached to a request.
type Claims struct {
	Subject string
	Name    string
	Email   string
	Role    string
	Regions []string // region codes the user may edit, e.g. ["US-OH", "CA-ON-TO"]
}

// IsEditor reports whether the user holds any editorial role.
func (c *Claims) IsEditor() bool {
	return c.Role == RoleAdmin || c.Role == RoleEditor
}

// CanEdit decides whether the user may mutate content in the target
// region. Admins may edit anywhere; editors may edit regions equal to or
// underneath one of their assigned codes. Matching is segment-wise — an
// assignment of "US-O" does not authorize "US-OH".
func (c *Claims) CanEdit(target region.Code) bool {
	if c.Role == RoleAdmin {
		return true
	}
	if c.Role != RoleEditor {
		return false
	}
	for _, assigned := range c.Regions {
		code, err := region.ParseCode(assigned)
		if err != nil {
			continue
		}
		if code.Contains(target) {
			return true
		}
	}
	return false
}

// tokenClaims is the wire shape of the provider's JWT payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Name    string   `json:"name,omitempty"`
	Email   string   `json:"email,omitempty"`
	Role    string   `json:"role,omitempty"`
	Regions []string `json:"regions,omitempty"`
}

// TokenService validates bearer tokens against the shared HMAC secret.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a TokenService. The secret must match the one
// configured at the identity provider.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// Validate parses and verifies a bearer token, returning its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("auth: token validation: %w", err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("auth: invalid token claims")
	}

	return &Claims{
		Subject: tc.Subject,
		Name:    tc.Name,
		Email:   tc.Email,
		Role:    tc.Role,
		Regions: tc.Regions,
	}, nil
}

// Issue signs a token for the given claims with the given lifetime.
// The real provider issues production tokens; this exists for the test
// suites and local development.
func (s *TokenService) Issue(c *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:    c.Name,
		Email:   c.Email,
		Role:    c.Role,
		Regions: c.Regions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tc)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: token signing: %w", err)
	}
	return signed, nil
}
