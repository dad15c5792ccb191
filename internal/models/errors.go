// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package models

import "errors"

// Error taxonomy shared by the services. Only these reach a caller on the
// synchronous path; background and caching failures are absorbed locally.
var (
	// ErrNotFound indicates the referenced record or parent does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden indicates the caller does not own the record being mutated.
	ErrForbidden = errors.New("access denied")

	// ErrValidation indicates malformed input rejected before any write.
	ErrValidation = errors.New("validation failed")
)
