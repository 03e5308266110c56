// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package coordination implements C7 (spec §4.7): multi-agent claims,
// episodic memory, and task/feature progress tracking, all written through
// pkg/graph as first-class node kinds (CLAIM, EPISODE, TASK, FEATURE)
// rather than a side table, so they participate in the same bitemporal
// supersession discipline as code entities and show up in diff_since like
// anything else in the graph.
//
// Grounded on pkg/graph's existing Kind/EdgeKind/ClaimState/TaskStatus
// enums (schema.go), which already anticipated this package, and on
// pkg/session's Session/Manager lock discipline for the single-writer CAS
// check claim exclusivity needs.
package coordination
