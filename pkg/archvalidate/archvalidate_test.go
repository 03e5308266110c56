// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package archvalidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphmind/pkg/config"
	"github.com/kraklabs/graphmind/pkg/graph"
)

func buildIndex(projectID string) *graph.Index {
	idx := graph.NewIndex()
	now := time.Now()

	db := graph.FileID(projectID, "internal/db/store.go")
	api := graph.FileID(projectID, "internal/api/handler.go")
	idx.UpsertNode(&graph.Node{ID: db, Kind: graph.KindFile, ProjectID: projectID, ValidFrom: now, Props: map[string]any{"filePath": "internal/db/store.go"}})
	idx.UpsertNode(&graph.Node{ID: api, Kind: graph.KindFile, ProjectID: projectID, ValidFrom: now, Props: map[string]any{"filePath": "internal/api/handler.go"}})
	idx.AddEdge(graph.Edge{Kind: graph.EdgeReferences, SrcID: db, DstID: api, ProjectID: projectID})
	return idx
}

func testConfig() *config.Config {
	return &config.Config{
		Architecture: config.ArchitectureConfig{
			Layers: []config.Layer{
				{Name: "db", Sources: []string{"internal/db/**"}},
				{Name: "api", Sources: []string{"internal/api/**"}},
			},
			Rules: []config.Rule{
				{From: "db", To: "api", Severity: "error"},
			},
		},
	}
}

func TestRun_DetectsDeniedReference(t *testing.T) {
	projectID := "proj1"
	idx := buildIndex(projectID)
	cfg := testConfig()

	violations, err := Run(cfg, idx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, "internal/db/store.go", v.SourceFile)
	assert.Equal(t, "internal/api/handler.go", v.TargetFile)
	assert.Equal(t, "db", v.FromLayer)
	assert.Equal(t, "api", v.ToLayer)
	assert.Equal(t, "error", v.Severity)
	assert.Equal(t, "violation:db->api:internal/db/store.go", v.ID())
}

func TestRun_NoRuleNoViolation(t *testing.T) {
	projectID := "proj1"
	idx := buildIndex(projectID)
	cfg := testConfig()
	cfg.Architecture.Rules = nil

	violations, err := Run(cfg, idx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestApply_IsIdempotentAcrossNoOpReruns(t *testing.T) {
	projectID := "proj1"
	idx := buildIndex(projectID)
	cfg := testConfig()
	now := time.Now()

	added, removed, err := Apply(cfg, idx, projectID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)

	current := idx.AllCurrent(graph.KindViolation)
	require.Len(t, current, 1)
	firstValidFrom := current[0].ValidFrom

	later := now.Add(time.Minute)
	added, removed, err = Apply(cfg, idx, projectID, later)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 0, removed)

	current = idx.AllCurrent(graph.KindViolation)
	require.Len(t, current, 1)
	assert.True(t, firstValidFrom.Equal(current[0].ValidFrom), "unchanged violation must keep its original validFrom")
}

func TestApply_SupersedesResolvedViolation(t *testing.T) {
	projectID := "proj1"
	idx := buildIndex(projectID)
	cfg := testConfig()
	now := time.Now()

	_, _, err := Apply(cfg, idx, projectID, now)
	require.NoError(t, err)
	require.Len(t, idx.AllCurrent(graph.KindViolation), 1)

	cfg.Architecture.Rules = nil
	added, removed, err := Apply(cfg, idx, projectID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, removed)
	assert.Empty(t, idx.AllCurrent(graph.KindViolation))
}
