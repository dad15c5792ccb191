// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package store

import (
	"fmt"

	"github.com/goccy/go-json"
)

// DocumentFrom converts a struct into a field map via its JSON tags,
// suitable for Set or batch writes.
func DocumentFrom(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return doc, nil
}

// Decode populates out, a struct pointer, from a fetched document.
func Decode(doc Document, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode into %T: %w", out, err)
	}
	return nil
}
