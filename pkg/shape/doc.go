// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package shape implements the Response Shaper (spec §4.6.5): every tool
// call's result is wrapped in a uniform envelope, truncated under profile-
// specific string/array/object-key/depth caps, and then field-dropped in
// priority order (low, then medium, then high, never required) until its
// estimated token size fits the profile's budget.
//
// Grounded on the teacher's internal/output package (json.go), which
// formats every CLI command's result through one shared envelope type;
// this package generalizes that idea from a fixed CLI envelope to a
// per-tool, priority-aware one, since the teacher never had a token budget
// to shape against.
package shape
