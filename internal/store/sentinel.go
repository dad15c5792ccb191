// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package store

// Field sentinels carry write-time semantics through an Update or
// batch operation. They are resolved inside the transaction and are
// never stored themselves.

type deleteSentinel struct{}

type incrementSentinel struct{ delta int64 }

type serverTimestampSentinel struct{}

// Delete marks a field for removal in a merge update.
func Delete() any { return deleteSentinel{} }

// Increment adjusts a numeric field by delta within the transaction.
// An absent or non-numeric field is treated as zero.
func Increment(delta int64) any { return incrementSentinel{delta: delta} }

// ServerTimestamp sets the field to the commit-time wall clock.
func ServerTimestamp() any { return serverTimestampSentinel{} }
