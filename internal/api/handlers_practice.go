// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/placementlabs/archivus/internal/practice"
	"github.com/placementlabs/archivus/internal/validation"
)

type practiceListRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (rt *Router) handleCreatePracticeList(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req practiceListRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	list, err := rt.practice.CreateList(r.Context(), user.UID, req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(list)
}

func (rt *Router) handleListPracticeLists(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	lists, err := rt.practice.ListsFor(r.Context(), user.UID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithTotal(lists, len(lists))
}

func (rt *Router) handleRenamePracticeList(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req practiceListRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	list, err := rt.practice.RenameList(r.Context(), user.UID, chi.URLParam(r, "listID"), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(list)
}

func (rt *Router) handleDeletePracticeList(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	if err := rt.practice.DeleteList(r.Context(), user.UID, chi.URLParam(r, "listID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

func (rt *Router) handleListPracticeQuestions(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	questions, err := rt.practice.Questions(r.Context(), user.UID, chi.URLParam(r, "listID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithTotal(questions, len(questions))
}

type addPracticeQuestionRequest struct {
	QuestionText       string `json:"question_text" validate:"required,min=5,max=500"`
	Topic              string `json:"topic" validate:"max=50"`
	Difficulty         string `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard 'Very Hard'"`
	Source             string `json:"source" validate:"omitempty,oneof=manual experience"`
	SourceExperienceID string `json:"source_experience_id" validate:"max=64"`
	SourceCompany      string `json:"source_company" validate:"max=120"`
}

func (rt *Router) handleAddPracticeQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req addPracticeQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	question, err := rt.practice.AddQuestion(r.Context(), user.UID, chi.URLParam(r, "listID"), practice.QuestionInput{
		QuestionText:       req.QuestionText,
		Topic:              req.Topic,
		Difficulty:         req.Difficulty,
		Source:             req.Source,
		SourceExperienceID: req.SourceExperienceID,
		SourceCompany:      req.SourceCompany,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(question)
}

type updatePracticeQuestionRequest struct {
	QuestionText *string `json:"question_text" validate:"omitempty,min=5,max=500"`
	Topic        *string `json:"topic" validate:"omitempty,max=50"`
	Difficulty   *string `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard 'Very Hard'"`
	Status       *string `json:"status" validate:"omitempty,oneof=unvisited practicing revised"`
}

func (rt *Router) handleUpdatePracticeQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())

	var req updatePracticeQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		NewResponseWriter(w, r).BadRequest("invalid JSON body")
		return
	}
	if msgs := validation.Struct(req); msgs != nil {
		NewResponseWriter(w, r).ValidationError("validation failed", msgs)
		return
	}

	question, err := rt.practice.UpdateQuestion(r.Context(), user.UID,
		chi.URLParam(r, "listID"), chi.URLParam(r, "questionID"), practice.QuestionUpdate{
			QuestionText: req.QuestionText,
			Topic:        req.Topic,
			Difficulty:   req.Difficulty,
			Status:       req.Status,
		})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(question)
}

func (rt *Router) handleDeletePracticeQuestion(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	err := rt.practice.DeleteQuestion(r.Context(), user.UID, chi.URLParam(r, "listID"), chi.URLParam(r, "questionID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}
