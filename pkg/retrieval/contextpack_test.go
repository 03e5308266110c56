// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphmind/pkg/graph"
	"github.com/kraklabs/graphmind/pkg/shape"
)

func TestBuildContextPack_AttachesActiveClaimsAndEpisodes(t *testing.T) {
	idx := buildSampleIndex()
	now := time.Now()

	idx.UpsertNode(&graph.Node{
		ID: "claim:1", Kind: graph.KindClaim, ProjectID: "p1", ValidFrom: now,
		Props: map[string]any{"targetId": "func:foo", "claimType": "function", "actor": "agent-1", "intent": "refactor", "state": string(graph.ClaimActive)},
	})
	idx.UpsertNode(&graph.Node{
		ID: "episode:1", Kind: graph.KindEpisode, ProjectID: "p1", ValidFrom: now,
		Props: map[string]any{"type": string(graph.EpisodeDecision), "content": "Foo uses a local cache", "rationale": "perf"},
	})

	engine := NewEngine(idx, nil, nil, "p1")
	pack := BuildContextPack(context.Background(), engine, idx, "Foo")

	require.NotEmpty(t, pack.CoreSymbols)
	var blockedFoo bool
	for _, b := range pack.ActiveBlockers {
		if b.NodeID == "func:foo" {
			blockedFoo = true
		}
	}
	assert.True(t, blockedFoo, "claim on func:foo should surface as an active blocker once foo is in the expanded set")
}

func TestPackShape_ProducesEnvelopeWithRequiredFields(t *testing.T) {
	pack := &Pack{Summary: "context for: foo", EntryPoint: "func:foo", CoreSymbols: []string{"func:foo"}}
	env := pack.Shape(shape.Compact, "")
	assert.True(t, env.OK)
	data := env.Data.(map[string]any)
	assert.Contains(t, data, "summary")
	assert.Contains(t, data, "entryPoint")
}
