// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"

	"github.com/placementlabs/archivus/internal/validation"
)

func (rt *Router) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	// Read through to the store so role upgrades show up immediately,
	// not after the principal cache expires.
	user, err := rt.auth.User(r.Context(), principal.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(user)
}

func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())
	user, err := rt.auth.User(r.Context(), principal.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	stats := rt.analytics.GetOrCompute(r.Context())
	impact := rt.analytics.ContributionFor(r.Context(), principal.UID, stats.TotalExperiences)
	NewResponseWriter(w, r).Success(map[string]any{
		"user":   user,
		"impact": impact,
	})
}

type updateNameRequest struct {
	Name string `json:"name" validate:"required,min=2,max=80"`
}

func (rt *Router) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFrom(r.Context())

	var req updateNameRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	user, err := rt.auth.UpdateName(r.Context(), principal.UID, req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(user)
}
