// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/placementlabs/archivus/internal/auth"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
)

// respondServiceError maps service errors onto the envelope. Internal
// failures are logged with their cause but reported generically.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	switch {
	case errors.Is(err, models.ErrNotFound):
		rw.NotFound("record not found")
	case errors.Is(err, models.ErrForbidden):
		rw.Forbidden("you do not own this record")
	case errors.Is(err, auth.ErrNameCooldown):
		rw.TooManyRequests(err.Error())
	case errors.Is(err, models.ErrValidation):
		rw.BadRequest(err.Error())
	default:
		logging.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("handler error")
		rw.InternalError("an internal error occurred")
	}
}

// decodeJSON decodes a request body into out, rejecting empty bodies.
func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(out)
}
