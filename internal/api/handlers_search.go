// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/placementlabs/archivus/internal/metrics"
	"github.com/placementlabs/archivus/internal/search"
)

func (rt *Router) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := search.Params{
		Query:      q.Get("q"),
		Mode:       q.Get("mode"),
		Company:    q.Get("company"),
		Role:       q.Get("role"),
		Difficulty: q.Get("difficulty"),
	}
	if year := q.Get("year"); year != "" {
		n, err := strconv.Atoi(year)
		if err != nil {
			NewResponseWriter(w, r).BadRequest("year must be an integer")
			return
		}
		params.Year = n
	}
	if topics := q.Get("topics"); topics != "" {
		params.Topics = strings.Split(topics, ",")
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			NewResponseWriter(w, r).BadRequest("limit must be an integer")
			return
		}
		params.Limit = n
	}

	mode := params.Mode
	if mode == "" {
		mode = search.ModeSemantic
	}
	metrics.SearchesTotal.WithLabelValues(mode).Inc()

	page, err := rt.search.Search(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).SuccessWithTotal(page.Results, page.Total)
}
