// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package models

import "strings"

// User roles. Admin is assigned out of band; nothing in the API
// promotes to it.
const (
	RoleViewer      = "viewer"
	RoleContributor = "contributor"
	RoleAdmin       = "admin"
)

// User is a persisted account record keyed by the token subject.
type User struct {
	UID               string `json:"uid"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	DisplayName       string `json:"display_name,omitempty"`
	CreatedAt         string `json:"created_at"`
	NameLastUpdatedAt string `json:"name_last_updated_at,omitempty"`
}

// DeriveDisplayName builds a public display name from a full name:
// "Abhishek Sharma" -> "Abhishek S.", "Ravi" -> "Ravi".
func DeriveDisplayName(fullName string) string {
	parts := strings.Fields(strings.TrimSpace(fullName))
	switch {
	case len(parts) >= 2:
		last := parts[len(parts)-1]
		return parts[0] + " " + strings.ToUpper(last[:1]) + "."
	case len(parts) == 1:
		return parts[0]
	default:
		return ""
	}
}
