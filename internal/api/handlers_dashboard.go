// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"

	"github.com/placementlabs/archivus/internal/analytics"
)

// handleDashboard returns the full aggregate snapshot plus derived
// insight strings. Analytics never fail the request; an empty corpus
// just yields zeroed stats.
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats := rt.analytics.GetOrCompute(r.Context())
	NewResponseWriter(w, r).Success(map[string]any{
		"stats":    stats,
		"insights": analytics.Insights(stats),
	})
}

func (rt *Router) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats := rt.analytics.GetOrCompute(r.Context())
	NewResponseWriter(w, r).Success(map[string]any{
		"total_experiences": stats.TotalExperiences,
		"top_company":       stats.TopCompany,
		"top_topic":         stats.TopTopic,
		"computed_at":       stats.ComputedAt,
	})
}

func (rt *Router) handleDashboardCharts(w http.ResponseWriter, r *http.Request) {
	stats := rt.analytics.GetOrCompute(r.Context())
	NewResponseWriter(w, r).Success(map[string]any{
		"difficulty_distribution": stats.DifficultyDistribution,
		"topic_totals":            stats.TopicTotals,
		"company_topic_counts":    stats.CompanyTopicCounts,
	})
}

func (rt *Router) handleDashboardQuestions(w http.ResponseWriter, r *http.Request) {
	stats := rt.analytics.GetOrCompute(r.Context())
	NewResponseWriter(w, r).SuccessWithTotal(stats.FrequentQuestions, len(stats.FrequentQuestions))
}

func (rt *Router) handleDashboardFlows(w http.ResponseWriter, r *http.Request) {
	stats := rt.analytics.GetOrCompute(r.Context())
	NewResponseWriter(w, r).Success(stats.InterviewProgression)
}

func (rt *Router) handleDashboardImpact(w http.ResponseWriter, r *http.Request) {
	user, _ := PrincipalFrom(r.Context())
	stats := rt.analytics.GetOrCompute(r.Context())
	impact := rt.analytics.ContributionFor(r.Context(), user.UID, stats.TotalExperiences)
	NewResponseWriter(w, r).Success(impact)
}
