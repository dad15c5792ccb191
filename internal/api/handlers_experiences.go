// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/placementlabs/archivus/internal/experience"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/validation"
)

type createExperienceRequest struct {
	Company         string   `json:"company" validate:"required,max=120"`
	Role            string   `json:"role" validate:"required,max=120"`
	Year            int      `json:"year" validate:"required,gte=2000,lte=2035"`
	Round           string   `json:"round" validate:"max=120"`
	Difficulty      string   `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard 'Very Hard'"`
	RawText         string   `json:"raw_text" validate:"required,min=20,max=20000"`
	Questions       []string `json:"questions" validate:"max=50,dive,max=500"`
	IsAnonymous     bool     `json:"is_anonymous"`
	ShowName        bool     `json:"show_name"`
	AllowContact    bool     `json:"allow_contact"`
	ContactLinkedIn string   `json:"contact_linkedin" validate:"omitempty,url,max=300"`
	ContactEmail    string   `json:"contact_email" validate:"omitempty,email"`
}

func (rt *Router) handleCreateExperience(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req createExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	exp, err := rt.experiences.Create(r.Context(), user, experience.CreateInput{
		Company:         req.Company,
		Role:            req.Role,
		Year:            req.Year,
		Round:           req.Round,
		Difficulty:      req.Difficulty,
		RawText:         req.RawText,
		Questions:       req.Questions,
		IsAnonymous:     req.IsAnonymous,
		ShowName:        req.ShowName,
		AllowContact:    req.AllowContact,
		ContactLinkedIn: req.ContactLinkedIn,
		ContactEmail:    req.ContactEmail,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(exp)
}

func (rt *Router) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	exp, err := rt.experiences.Get(r.Context(), chi.URLParam(r, "id"), user.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(exp)
}

func (rt *Router) handleMyExperiences(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	list, err := rt.experiences.Mine(r.Context(), user.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithTotal(list, len(list))
}

type patchExperienceRequest struct {
	Role       *string `json:"role" validate:"omitempty,max=120"`
	Year       *int    `json:"year" validate:"omitempty,gte=2000,lte=2035"`
	Round      *string `json:"round" validate:"omitempty,max=120"`
	Difficulty *string `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard 'Very Hard'"`
}

func (rt *Router) handlePatchExperience(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req patchExperienceRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	exp, err := rt.experiences.PatchMetadata(r.Context(), chi.URLParam(r, "id"), user.UID, experience.MetadataPatch{
		Role:       req.Role,
		Year:       req.Year,
		Round:      req.Round,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(exp)
}

func (rt *Router) handleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	if err := rt.experiences.SoftDelete(r.Context(), chi.URLParam(r, "id"), user.UID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

func (rt *Router) handleRestoreExperience(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	id := chi.URLParam(r, "id")
	if err := rt.experiences.Restore(r.Context(), id, user.UID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	exp, err := rt.experiences.Get(r.Context(), id, user.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(exp)
}

type addQuestionsRequest struct {
	Questions []string `json:"questions" validate:"required,min=1,max=50,dive,max=500"`
}

func (rt *Router) handleAddQuestions(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req addQuestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	exp, err := rt.experiences.AddQuestions(r.Context(), chi.URLParam(r, "id"), user.UID, req.Questions)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(exp)
}

// handleReindex re-embeds the whole corpus synchronously; admin only.
func (rt *Router) handleReindex(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	if user.Role != models.RoleAdmin {
		logging.Warn().Str("uid", user.UID).Msg("reindex denied for non-admin")
		NewResponseWriter(w, r).Forbidden("reindex requires the admin role")
		return
	}
	logging.Info().Str("uid", user.UID).Msg("full corpus reindex requested")

	indexed, err := rt.experiences.RebuildIndex(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(map[string]int{"indexed": indexed})
}
