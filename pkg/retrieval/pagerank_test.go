// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalizedPageRank_RanksSeedNeighborsHigher(t *testing.T) {
	idx := buildSampleIndex()
	scores := PersonalizedPageRank(idx, []string{"func:bar"})
	require.NotEmpty(t, scores)
	// bar calls foo, so foo should outrank an unrelated node reachable only
	// by teleport (func:foohelper has no edges to or from bar).
	assert.Greater(t, scores["func:foo"], scores["func:foohelper"])
}

func TestPersonalizedPageRank_EmptySeedsFallsBackToUniformTeleport(t *testing.T) {
	idx := buildSampleIndex()
	scores := PersonalizedPageRank(idx, nil)
	require.NotEmpty(t, scores)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestPersonalizedPageRank_EmptyGraphReturnsNil(t *testing.T) {
	assert.Nil(t, PersonalizedPageRank(emptyIndex(), []string{"x"}))
}
