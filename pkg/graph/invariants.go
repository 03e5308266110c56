// Copyright 2025 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "fmt"

// CheckContainmentClosure verifies spec invariant #2: every current
// FUNCTION/CLASS/SECTION has exactly one current CONTAINS predecessor, and
// that predecessor is a current FILE/DOCUMENT.
func CheckContainmentClosure(idx *Index) []error {
	var errs []error
	for _, kind := range []Kind{KindFunction, KindClass, KindSection} {
		for _, n := range idx.AllCurrent(kind) {
			parents := idx.In(EdgeContains, n.ID)
			if len(parents) != 1 {
				errs = append(errs, fmt.Errorf("node %s: expected exactly one CONTAINS predecessor, got %d", n.ID, len(parents)))
				continue
			}
			parent, ok := idx.GetCurrent(parents[0])
			if !ok || (parent.Kind != KindFile && parent.Kind != KindDocument) {
				errs = append(errs, fmt.Errorf("node %s: CONTAINS predecessor %s is not a current FILE/DOCUMENT", n.ID, parents[0]))
			}
		}
	}
	return errs
}

// CheckClaimExclusivity verifies spec invariant #3: at most one active CLAIM
// per targetId.
func CheckClaimExclusivity(idx *Index) []error {
	var errs []error
	seen := make(map[string]string)
	for _, n := range idx.AllCurrent(KindClaim) {
		if n.Str("state") != string(ClaimActive) {
			continue
		}
		target := n.Str("targetId")
		if prev, ok := seen[target]; ok {
			errs = append(errs, fmt.Errorf("target %s has multiple active claims: %s and %s", target, prev, n.ID))
			continue
		}
		seen[target] = n.ID
	}
	return errs
}

// CheckDecisionRationale verifies spec invariant #7: every DECISION episode
// has a non-empty rationale.
func CheckDecisionRationale(idx *Index) []error {
	var errs []error
	for _, n := range idx.AllCurrent(KindEpisode) {
		if n.Str("type") == string(EpisodeDecision) && n.Str("rationale") == "" {
			errs = append(errs, fmt.Errorf("episode %s: DECISION without rationale", n.ID))
		}
	}
	return errs
}

// CheckIDUniqueness verifies spec invariant #1: no two current nodes in the
// same project share an ID. Because Index stores nodes by a map keyed on ID,
// this is true by construction for any single project's Index; this check
// exists for multi-project indices (or store-backed rehydration) where IDs
// from different rebuild generations might collide after a bug.
func CheckIDUniqueness(nodes []*Node) []error {
	var errs []error
	current := make(map[string]bool)
	for _, n := range nodes {
		if !n.IsCurrent() {
			continue
		}
		if current[n.ID] {
			errs = append(errs, fmt.Errorf("duplicate current node id: %s", n.ID))
			continue
		}
		current[n.ID] = true
	}
	return errs
}
