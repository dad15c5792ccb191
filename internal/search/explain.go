// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package search

import (
	"fmt"
	"strings"

	"github.com/placementlabs/archivus/internal/models"
)

// explain builds the human-readable reason a result matched. A
// question-level match leads; scored semantic hits add a similarity
// tier; active filters add their own reasons; metadata fills in when
// nothing else applies.
func explain(exp *models.Experience, p Params, score float64, matchedQ string) string {
	var reasons []string

	if matchedQ != "" {
		// Truncate on a rune boundary so multibyte text stays valid.
		if runes := []rune(matchedQ); len(runes) > 80 {
			matchedQ = string(runes[:80])
		}
		reasons = append(reasons, fmt.Sprintf("question matches: %q", matchedQ))
	}

	if p.Mode == ModeSemantic && p.Query != "" && score > 0 {
		switch {
		case score > 0.7:
			reasons = append(reasons, fmt.Sprintf("highly similar to %q", p.Query))
		case score > 0.5:
			reasons = append(reasons, fmt.Sprintf("related to %q", p.Query))
		case matchedQ == "":
			reasons = append(reasons, fmt.Sprintf("partial match for %q", p.Query))
		}
	}

	if p.Mode == ModeKeyword && p.Query != "" {
		reasons = append(reasons, fmt.Sprintf("contains %q", p.Query))
	}

	if len(p.Topics) > 0 {
		upper := make(map[string]struct{}, len(exp.Topics))
		for _, t := range exp.Topics {
			upper[strings.ToUpper(t)] = struct{}{}
		}
		var matched []string
		for _, t := range p.Topics {
			if _, ok := upper[t]; ok {
				matched = append(matched, t)
			}
		}
		if len(matched) > 0 {
			reasons = append(reasons, "covers "+strings.Join(matched, ", "))
		}
	} else if len(exp.Topics) > 0 && p.Query == "" {
		n := len(exp.Topics)
		if n > 3 {
			n = 3
		}
		reasons = append(reasons, "topics: "+strings.Join(exp.Topics[:n], ", "))
	}

	if p.Company != "" && strings.Contains(strings.ToLower(exp.Company), strings.ToLower(p.Company)) {
		reasons = append(reasons, "from "+exp.Company)
	}
	if p.Difficulty != "" && exp.Difficulty == p.Difficulty {
		reasons = append(reasons, p.Difficulty+" difficulty")
	}

	if len(reasons) == 0 {
		if exp.Company != "" {
			reasons = append(reasons, "experience at "+exp.Company)
		}
		if len(exp.Topics) > 0 {
			n := len(exp.Topics)
			if n > 2 {
				n = 2
			}
			reasons = append(reasons, "covers "+strings.Join(exp.Topics[:n], ", "))
		}
	}
	if len(reasons) == 0 {
		return ""
	}
	return "Matched: " + strings.Join(reasons, "; ")
}
