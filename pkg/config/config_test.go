// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, defaultVectorDim, cfg.VectorDim)
	assert.Equal(t, defaultMaxParallelism, cfg.Rebuild.MaxParallelism)
	assert.Equal(t, ".go", cfg.Testing.DefaultExtension)
}

func TestLoad_PartialFileMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := "vectorDim: 256\narchitecture:\n  layers:\n    - name: api\n      sources: [\"api/**\"]\n      allowedTargets: [\"domain\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.VectorDim)
	assert.Equal(t, defaultMaxParallelism, cfg.Rebuild.MaxParallelism, "unset sections still default")
	require.Len(t, cfg.Architecture.Layers, 1)
	assert.Equal(t, "api", cfg.Architecture.Layers[0].Name)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Embeddings.SummarizerURL = "http://localhost:9000/embed"
	cfg.Architecture.Rules = []Rule{{From: "api", To: "domain", Severity: "error"}}
	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.Embeddings.SummarizerURL, loaded.Embeddings.SummarizerURL)
	require.Len(t, loaded.Architecture.Rules, 1)
	assert.Equal(t, "error", loaded.Architecture.Rules[0].Severity)
}

func TestValidate_RejectsUnknownLayerInRule(t *testing.T) {
	cfg := Default()
	cfg.Architecture.Layers = []Layer{{Name: "api"}}
	cfg.Architecture.Rules = []Rule{{From: "api", To: "ghost", Severity: "error"}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "ghost")
}

func TestValidate_RejectsBadSeverity(t *testing.T) {
	cfg := Default()
	cfg.Architecture.Layers = []Layer{{Name: "api"}, {Name: "domain"}}
	cfg.Architecture.Rules = []Rule{{From: "api", To: "domain", Severity: "critical"}}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "severity")
}

func TestLayerFor_MatchesDoubleStarGlob(t *testing.T) {
	cfg := Default()
	cfg.Architecture.Layers = []Layer{
		{Name: "api", Sources: []string{"internal/api/**"}},
		{Name: "domain", Sources: []string{"internal/domain/*.go"}},
	}
	assert.Equal(t, "api", cfg.LayerFor("internal/api/handlers/user.go"))
	assert.Equal(t, "domain", cfg.LayerFor("internal/domain/order.go"))
	assert.Equal(t, "", cfg.LayerFor("internal/other/x.go"))
}
