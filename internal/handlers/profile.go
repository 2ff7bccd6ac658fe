// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"birdatlas/internal/apperror"
	"birdatlas/internal/middleware"
	"birdatlas/internal/models"
	"birdatlas/internal/region"
	"birdatlas/internal/store"
)

// Account serves the signed-in editor's own profile: digest subscriptions
// and notification frequency. The profile is keyed by the identity
// provider's subject, never by anything the client sends.
type Account struct {
	regions  *region.Registry
	profiles *store.ProfileStore
}

// NewAccount creates the account handler group.
func NewAccount(regions *region.Registry, profiles *store.ProfileStore) *Account {
	return &Account{regions: regions, profiles: profiles}
}

// GetProfile serves the caller's profile, or a defaulted one if they have
// never saved it.
func (a *Account) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())

	p, err := a.profiles.Get(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		p = &models.Profile{
			Subject: claims.Subject,
			Name:    claims.Name,
			Email:   claims.Email,
		}
		p.ApplyDefaults()
	}
	writeJSON(w, http.StatusOK, p)
}

// profileRequest is the writable part of a profile.
type profileRequest struct {
	Subscriptions []string `json:"subscriptions"`
	Frequency     string   `json:"frequency"`
}

// UpdateProfile replaces the caller's subscriptions and frequency.
func (a *Account) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	switch req.Frequency {
	case models.FrequencyDaily, models.FrequencyNone, "":
	default:
		writeError(w, apperror.Validation("frequency", "frequency must be daily or none"))
		return
	}
	for _, code := range req.Subscriptions {
		if _, ok := a.regions.Get(code); !ok {
			writeError(w, apperror.Validation("subscriptions", "unknown region "+code))
			return
		}
	}

	p := models.Profile{
		Subject:       claims.Subject,
		Name:          claims.Name,
		Email:         claims.Email,
		Subscriptions: req.Subscriptions,
		Frequency:     req.Frequency,
	}
	p.ApplyDefaults()

	if err := a.profiles.Upsert(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}
