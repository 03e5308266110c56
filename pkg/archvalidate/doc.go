// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package archvalidate evaluates the workspace's declarative layer/rule
// configuration (pkg/config.ArchitectureConfig) against the current
// REFERENCES edges of the graph (spec §4.8), producing VIOLATION nodes.
//
// Facts and rules are compiled into a Google Mangle (github.com/google/mangle)
// Datalog program: a FILE's layer membership and its current REFERENCES
// edges become facts, the configured deny rules become facts too, and a
// single non-recursive rule (violates/5) derives every reference that crosses a
// denied layer boundary. Grounded on
// _examples/theRebelliousNerd-codenerd/internal/mangle/engine.go, the one
// reference in the example pack that drives the real google/mangle API
// (parse.Unit, analysis.AnalyzeOneUnit, engine.EvalProgramWithStats,
// factstore.GetFacts) end to end; reconstructed rather than copied, since
// that file wraps the engine in its own Fact/QueryResult types tailored to a
// different domain.
package archvalidate
