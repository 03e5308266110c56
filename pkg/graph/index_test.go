// Copyright 2025 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_UpsertAndSupersede(t *testing.T) {
	idx := NewIndex()
	fileNode := &Node{ID: "p1:file:a.go", Kind: KindFile, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"path": "a.go", "contentHash": "h1"}}
	idx.UpsertNode(fileNode)

	got, ok := idx.GetCurrent(fileNode.ID)
	require.True(t, ok)
	assert.Equal(t, "h1", got.Str("contentHash"))

	idx.Supersede(fileNode.ID, time.Now())
	_, ok = idx.GetCurrent(fileNode.ID)
	assert.False(t, ok, "superseded node must not appear as current")

	historical, ok := idx.Get(fileNode.ID)
	require.True(t, ok, "superseded node must remain addressable by id")
	assert.NotNil(t, historical.ValidTo)
}

func TestIndex_ContainmentClosure(t *testing.T) {
	idx := NewIndex()
	file := &Node{ID: "p1:file:a.go", Kind: KindFile, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"path": "a.go"}}
	fn := &Node{ID: "p1:function:a.go:Foo", Kind: KindFunction, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"name": "Foo", "filePath": "a.go"}}
	idx.UpsertNode(file)
	idx.UpsertNode(fn)
	idx.AddEdge(Edge{Kind: EdgeContains, SrcID: file.ID, DstID: fn.ID, ProjectID: "p1"})

	errs := CheckContainmentClosure(idx)
	assert.Empty(t, errs)

	contained := idx.ContainedBy("a.go")
	assert.Contains(t, contained, fn.ID)
}

func TestIndex_ContainmentClosure_MissingParentFails(t *testing.T) {
	idx := NewIndex()
	fn := &Node{ID: "p1:function:a.go:Foo", Kind: KindFunction, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"name": "Foo", "filePath": "a.go"}}
	idx.UpsertNode(fn)

	errs := CheckContainmentClosure(idx)
	assert.NotEmpty(t, errs)
}

func TestIndex_ClaimExclusivity(t *testing.T) {
	idx := NewIndex()
	c1 := &Node{ID: "p1:claim:1", Kind: KindClaim, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"targetId": "p1:file:a.go", "state": string(ClaimActive)}}
	c2 := &Node{ID: "p1:claim:2", Kind: KindClaim, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"targetId": "p1:file:a.go", "state": string(ClaimActive)}}
	idx.UpsertNode(c1)
	idx.UpsertNode(c2)

	errs := CheckClaimExclusivity(idx)
	assert.Len(t, errs, 1)
}

func TestIndex_DecisionRationale(t *testing.T) {
	idx := NewIndex()
	bad := &Node{ID: "p1:episode:1", Kind: KindEpisode, ProjectID: "p1", ValidFrom: time.Now(),
		Props: map[string]any{"type": string(EpisodeDecision), "rationale": ""}}
	idx.UpsertNode(bad)

	errs := CheckDecisionRationale(idx)
	assert.Len(t, errs, 1)
}

func TestIndex_EdgeAdjacency_BothDirections(t *testing.T) {
	idx := NewIndex()
	idx.AddEdge(Edge{Kind: EdgeReferences, SrcID: "a", DstID: "b", ProjectID: "p1"})
	idx.AddEdge(Edge{Kind: EdgeReferences, SrcID: "a", DstID: "c", ProjectID: "p1"})

	assert.ElementsMatch(t, []string{"b", "c"}, idx.Out(EdgeReferences, "a"))
	assert.ElementsMatch(t, []string{"a"}, idx.In(EdgeReferences, "b"))
}

func TestIndex_NodeCounts(t *testing.T) {
	idx := NewIndex()
	idx.UpsertNode(&Node{ID: "p1:file:a.go", Kind: KindFile, ProjectID: "p1", ValidFrom: time.Now()})
	idx.UpsertNode(&Node{ID: "p1:file:b.go", Kind: KindFile, ProjectID: "p1", ValidFrom: time.Now()})
	idx.UpsertNode(&Node{ID: "p1:function:a.go:Foo", Kind: KindFunction, ProjectID: "p1", ValidFrom: time.Now()})

	counts := idx.NodeCounts()
	assert.Equal(t, 2, counts[KindFile])
	assert.Equal(t, 1, counts[KindFunction])
}
