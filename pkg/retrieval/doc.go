// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package retrieval implements the Retrieval & Query Layer (C6, spec §4.6):
// natural-language intent routing, direct graph operations (explain,
// impact_analyze, test_select, find_pattern, arch_suggest, diff_since),
// hybrid retrieval (vector + BM25 + Personalized PageRank fused by
// Reciprocal Rank Fusion), and context_pack.
//
// Grounded on the teacher's pkg/tools query surface (endpoints.go,
// search.go, semantic.go, trace.go) for the shape of a tool operation -
// resolve target, walk the graph, shape the result - generalized from the
// teacher's own fixed grep/trace domain to this spec's node/edge schema.
// PageRank and Reciprocal Rank Fusion have no teacher precedent and are
// implemented from the published algorithms directly (see pagerank.go and
// hybrid.go doc comments for the justification this pack's grounding
// ledger requires for non-teacher-sourced code).
package retrieval
