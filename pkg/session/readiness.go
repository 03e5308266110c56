// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/kraklabs/graphmind/pkg/apierr"

// ReadinessRequirement describes what an analysis operation needs from the
// graph before it may run, per spec §4.9.
type ReadinessRequirement struct {
	// NeedsVector is true for vector-using operations (semantic*,
	// findSimilar*); when true and embeddingCoverage is 0, the caller should
	// degrade to lexical-only instead of failing outright.
	NeedsVector bool

	// StaleOK mirrors a request's mode=stale-ok override: when true, an
	// in-flight rebuild does not block the call.
	StaleOK bool
}

// DegradationHint is returned (non-nil) when a vector-using operation is
// allowed to proceed but should fall back to lexical-only retrieval.
type DegradationHint struct {
	Reason string
}

// CheckReady runs the readiness gate every analysis operation (explain,
// impact, testSelect, findSimilar*, semantic*, contextPack) begins with.
// It returns an apierr.Error (code NOT_READY) when the call must be
// rejected, or a non-nil *DegradationHint when the call may proceed but
// should skip the vector tier.
func CheckReady(sess *Session, req ReadinessRequirement) (*DegradationHint, *apierr.Error) {
	if !req.StaleOK && sess.IsRebuildInProgress() {
		return nil, apierr.NotReadyf(
			"run graph_rebuild then poll graph_health",
			"graph is stale: a rebuild is in progress for project %s", sess.ProjectID,
		)
	}

	if req.NeedsVector && sess.EmbeddingCoverage() <= 0 {
		return &DegradationHint{
			Reason: "embeddingCoverage is 0; falling back to lexical-only retrieval",
		}, nil
	}

	return nil, nil
}
