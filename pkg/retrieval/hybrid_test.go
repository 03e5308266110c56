// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphmind/pkg/vector"
)

func TestReciprocalRankFusion_CombinesMultipleRankings(t *testing.T) {
	a := []string{"x", "y", "z"}
	b := []string{"y", "x", "w"}
	hits := reciprocalRankFusion([][]string{a, b}, 10)
	require.NotEmpty(t, hits)
	// y is rank 0 in b and rank 1 in a; x is rank 0 in a and rank 1 in b -
	// both should outscore z and w, which appear in only one ranking.
	top := map[string]bool{hits[0].NodeID: true, hits[1].NodeID: true}
	assert.True(t, top["x"] && top["y"])
}

func TestReciprocalRankFusion_RespectsLimit(t *testing.T) {
	hits := reciprocalRankFusion([][]string{{"a", "b", "c", "d"}}, 2)
	assert.Len(t, hits, 2)
}

func TestEngine_SearchDegradesWithoutVectorStore(t *testing.T) {
	idx := buildSampleIndex()
	engine := NewEngine(idx, nil, nil, "p1")
	hits, contrib := engine.Search(context.Background(), "Foo", vector.KindFunctions, nil, 5)
	assert.False(t, contrib.Vector)
	// Lexical or PageRank should still contribute something.
	assert.True(t, contrib.Lexical || contrib.PageRank)
	_ = hits
}
