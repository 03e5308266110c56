// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads the workspace-level configuration file. Every entry is
// optional: a workspace with no config file (or an empty one) runs under the
// defaults returned by Default().
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file graphmind looks for at the workspace root.
const FileName = ".graphmind.yaml"

// Config is the full workspace configuration.
type Config struct {
	Architecture ArchitectureConfig `yaml:"architecture"`
	Testing      TestingConfig      `yaml:"testing"`
	VectorDim    int                `yaml:"vectorDim"`
	Embeddings   EmbeddingsConfig   `yaml:"embeddings"`
	Rebuild      RebuildConfig      `yaml:"rebuild"`
}

// ArchitectureConfig declares the layer/rule vocabulary consumed by the
// architecture validator (pkg/archvalidate).
type ArchitectureConfig struct {
	Layers []Layer `yaml:"layers"`
	Rules  []Rule  `yaml:"rules"`
}

// Layer names a set of source path globs and the layers it may reference.
type Layer struct {
	Name           string   `yaml:"name"`
	Sources        []string `yaml:"sources"`
	AllowedTargets []string `yaml:"allowedTargets"`
}

// Rule denies or warns on references from one layer to another.
type Rule struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Severity string `yaml:"severity"` // "error" or "warn"
}

// TestingConfig controls how the ingestion pipeline recognizes test files.
type TestingConfig struct {
	SourceGlobs      []string `yaml:"sourceGlobs"`
	DefaultExtension string   `yaml:"defaultExtension"`
}

// EmbeddingsConfig controls the vector subsystem's optional remote tier.
type EmbeddingsConfig struct {
	SummarizerURL string `yaml:"summarizerUrl"`
}

// RebuildConfig controls the ingestion pipeline's worker-pool fan-out.
type RebuildConfig struct {
	MaxParallelism int `yaml:"maxParallelism"`
}

// defaultVectorDim matches spec's default embedding dimension.
const defaultVectorDim = 128

// defaultMaxParallelism matches the number of CPUs graphmind assumes absent
// an explicit override; Default() does not read runtime.NumCPU() so that the
// zero-value config is reproducible across machines.
const defaultMaxParallelism = 4

// Default returns the configuration a workspace with no config file runs
// under.
func Default() *Config {
	return &Config{
		Testing: TestingConfig{
			SourceGlobs:      []string{"**/*_test.go", "**/*.test.ts", "**/*.spec.ts"},
			DefaultExtension: ".go",
		},
		VectorDim: defaultVectorDim,
		Rebuild: RebuildConfig{
			MaxParallelism: defaultMaxParallelism,
		},
	}
}

// Load reads the config file at workspaceRoot/.graphmind.yaml, returning
// Default() unmodified if the file does not exist. A present file is merged
// onto the default so that omitted sections keep their defaults.
func Load(workspaceRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspaceRoot, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes cfg to workspaceRoot/.graphmind.yaml.
func Save(workspaceRoot string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	path := filepath.Join(workspaceRoot, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyDefaults fills in zero-valued fields left unset by a partial config
// file, so a config that only overrides e.g. vectorDim still gets sensible
// defaults everywhere else.
func (c *Config) applyDefaults() {
	if c.VectorDim == 0 {
		c.VectorDim = defaultVectorDim
	}
	if c.Rebuild.MaxParallelism == 0 {
		c.Rebuild.MaxParallelism = defaultMaxParallelism
	}
	if c.Testing.DefaultExtension == "" {
		c.Testing.DefaultExtension = ".go"
	}
	if len(c.Testing.SourceGlobs) == 0 {
		c.Testing.SourceGlobs = []string{"**/*_test.go", "**/*.test.ts", "**/*.spec.ts"}
	}
}

// Validate checks architecture.rules[] reference layers that are actually
// declared, surfacing a misconfiguration at load time instead of silently
// matching nothing during validation.
func (c *Config) Validate() error {
	known := make(map[string]bool, len(c.Architecture.Layers))
	for _, l := range c.Architecture.Layers {
		if l.Name == "" {
			return fmt.Errorf("architecture.layers: layer with empty name")
		}
		known[l.Name] = true
	}
	for _, r := range c.Architecture.Rules {
		if !known[r.From] {
			return fmt.Errorf("architecture.rules: unknown layer %q in 'from'", r.From)
		}
		if !known[r.To] {
			return fmt.Errorf("architecture.rules: unknown layer %q in 'to'", r.To)
		}
		if r.Severity != "error" && r.Severity != "warn" {
			return fmt.Errorf("architecture.rules: invalid severity %q for rule %s->%s", r.Severity, r.From, r.To)
		}
	}
	return nil
}

// LayerFor returns the name of the layer whose sources glob matches relPath,
// or "" if no layer claims it.
func (c *Config) LayerFor(relPath string) string {
	for _, l := range c.Architecture.Layers {
		for _, glob := range l.Sources {
			if MatchGlob(glob, relPath) {
				return l.Name
			}
		}
	}
	return ""
}
