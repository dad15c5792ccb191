// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/placementlabs/archivus/internal/analytics"
	"github.com/placementlabs/archivus/internal/auth"
	"github.com/placementlabs/archivus/internal/experience"
	"github.com/placementlabs/archivus/internal/practice"
	"github.com/placementlabs/archivus/internal/search"
)

// Config holds router-level settings.
type Config struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// Router binds the HTTP surface to the services.
type Router struct {
	auth        *auth.Authenticator
	experiences *experience.Service
	search      *search.Orchestrator
	analytics   *analytics.Engine
	practice    *practice.Service
	config      Config
}

// NewRouter wires every service into a chi handler.
func NewRouter(
	authenticator *auth.Authenticator,
	experiences *experience.Service,
	searcher *search.Orchestrator,
	engine *analytics.Engine,
	practiceSvc *practice.Service,
	cfg Config,
) *Router {
	return &Router{
		auth:        authenticator,
		experiences: experiences,
		search:      searcher,
		analytics:   engine,
		practice:    practiceSvc,
		config:      cfg,
	}
}

// Handler builds the full route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID())
	r.Use(AccessLog())
	r.Use(SecurityHeaders())

	r.Get("/healthz", rt.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(CORS(rt.config.CORSOrigins))
		r.Use(RateLimit(rt.config.RateLimitRequests, rt.config.RateLimitWindow, rt.config.RateLimitDisabled))
		r.Use(RequireAuth(rt.auth))

		r.Route("/experiences", func(r chi.Router) {
			r.Post("/", rt.handleCreateExperience)
			r.Get("/mine", rt.handleMyExperiences)
			r.Post("/reindex", rt.handleReindex)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.handleGetExperience)
				r.Patch("/", rt.handlePatchExperience)
				r.Delete("/", rt.handleDeleteExperience)
				r.Post("/restore", rt.handleRestoreExperience)
				r.Post("/questions", rt.handleAddQuestions)
			})
		})

		r.Get("/search", rt.handleSearch)

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", rt.handleDashboard)
			r.Get("/stats", rt.handleDashboardStats)
			r.Get("/charts", rt.handleDashboardCharts)
			r.Get("/questions", rt.handleDashboardQuestions)
			r.Get("/flows", rt.handleDashboardFlows)
			r.Get("/impact", rt.handleDashboardImpact)
		})

		r.Route("/practice-lists", func(r chi.Router) {
			r.Get("/", rt.handleListPracticeLists)
			r.Post("/", rt.handleCreatePracticeList)
			r.Route("/{listID}", func(r chi.Router) {
				r.Patch("/", rt.handleRenamePracticeList)
				r.Delete("/", rt.handleDeletePracticeList)
				r.Get("/questions", rt.handleListPracticeQuestions)
				r.Post("/questions", rt.handleAddPracticeQuestion)
				r.Route("/questions/{questionID}", func(r chi.Router) {
					r.Patch("/", rt.handleUpdatePracticeQuestion)
					r.Delete("/", rt.handleDeletePracticeQuestion)
				})
			})
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", rt.handleCurrentUser)
			r.Get("/profile", rt.handleProfile)
			r.Patch("/name", rt.handleUpdateName)
		})
	})

	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
