// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVec(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1.0
	return v
}

func TestStore_UpsertAndFindSimilar_UsesStore(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	points := []Point{
		{ScopedID: "proj1:function:foo", ProjectID: "proj1", Text: "foo", Embedding: unitVec(4, 0)},
		{ScopedID: "proj1:function:bar", ProjectID: "proj1", Text: "bar", Embedding: unitVec(4, 1)},
	}
	require.NoError(t, s.Upsert(ctx, KindFunctions, points))
	assert.Equal(t, 2, s.Count(KindFunctions))

	results, usedStore, err := s.FindSimilar(ctx, KindFunctions, unitVec(4, 0), 1, "proj1")
	require.NoError(t, err)
	assert.True(t, usedStore)
	require.Len(t, results, 1)
	assert.Equal(t, "proj1:function:foo", results[0].ScopedID)
}

func TestStore_Upsert_SkipsPointsWithoutEmbedding(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	err := s.Upsert(ctx, KindFunctions, []Point{
		{ScopedID: "proj1:function:noembed", ProjectID: "proj1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count(KindFunctions))
}

func TestStore_PurgeProject_RemovesOnlyThatProjectsPoints(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, KindFunctions, []Point{
		{ScopedID: "proj1:function:foo", ProjectID: "proj1", Text: "foo", Embedding: unitVec(4, 0)},
		{ScopedID: "proj2:function:foo", ProjectID: "proj2", Text: "foo", Embedding: unitVec(4, 0)},
	}))
	assert.Equal(t, 2, s.Count(KindFunctions))

	require.NoError(t, s.PurgeProject(ctx, KindFunctions, "proj1"))
	assert.Equal(t, 1, s.Count(KindFunctions))

	results, _, err := s.FindSimilar(ctx, KindFunctions, unitVec(4, 0), 5, "proj1")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, _, err = s.FindSimilar(ctx, KindFunctions, unitVec(4, 0), 5, "proj2")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "proj2:function:foo", results[0].ScopedID)
}

// TestStore_GhostPointFiltering models scenario #3 of §8.4: a point still
// present in the backing store no longer has a live entry (e.g. the node it
// represented was deleted and a purge ran before this particular rebuild's
// upsert). FindSimilar must drop it rather than surface a dangling result,
// and since no live candidate remains, the fallback path also comes back
// empty.
func TestStore_GhostPointFiltering(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, KindFunctions, []Point{
		{ScopedID: "proj1:function:foo", ProjectID: "proj1", Text: "foo", Embedding: unitVec(4, 0)},
	}))

	// Simulate the live node disappearing without a store-side purge: the
	// chromem-go point still exists, but it's no longer tracked as live.
	s.mu.Lock()
	delete(s.live[KindFunctions], "proj1:function:foo")
	s.mu.Unlock()

	results, usedStore, err := s.FindSimilar(ctx, KindFunctions, unitVec(4, 0), 5, "proj1")
	require.NoError(t, err)
	assert.False(t, usedStore)
	assert.Empty(t, results)
}

// TestStore_FindSimilar_FallsBackWhenCollectionEmpty covers the case where
// the collection has never been populated at all: storeSearch short-circuits
// with no results, and FindSimilar reports the fallback was used (trivially
// empty, since nothing is live either).
func TestStore_FindSimilar_FallsBackWhenCollectionEmpty(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()

	results, usedStore, err := s.FindSimilar(ctx, KindFunctions, unitVec(4, 0), 5, "proj1")
	require.NoError(t, err)
	assert.False(t, usedStore)
	assert.Empty(t, results)
}

func TestStore_EnsureCollection_IsIdempotent(t *testing.T) {
	s := NewStore(nil)
	c1, err := s.ensureCollection(KindClasses)
	require.NoError(t, err)
	c2, err := s.ensureCollection(KindClasses)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity(unitVec(4, 0), unitVec(4, 0)), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity(unitVec(4, 0), unitVec(4, 1)), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
}
