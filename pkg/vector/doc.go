// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package vector implements the vector subsystem (C5): one collection per
// node kind (functions, classes, files, and sections when documentation
// indexing is enabled), backed by github.com/philippgille/chromem-go as the
// embedded ANN engine. Store satisfies the HTTP-store-shaped contract spec
// §6.4 describes (create/delete collection, upsert point, filtered nearest-
// neighbor search, payload-filter delete); chromem-go is wired behind it the
// way the teacher wires CozoDB behind pkg/storage.Backend.
//
// Point IDs handed to chromem-go are deterministic FNV-1a hashes of the
// scoped node ID, carried back in the point payload as "originalId" so a
// search result can be resolved to its graph node without ever reversing
// the hash (§9 Design Notes, "string-IDed points in integer-keyed store").
// FindSimilar additionally filters "ghost points" — results whose
// originalId no longer exists in the current in-memory embedding map,
// left behind by a prior rebuild that issued different IDs — and falls
// back to an in-process cosine search over that map when the store is
// unreachable or every result is a ghost.
//
// LocalEmbedder is the always-available deterministic embedding tier: text
// features built from a symbol's kind, name, parameters, and path are
// hashed into a fixed-dimension vector with a deterministic sign/magnitude
// scheme and L2-normalized, guaranteeing non-zero embedding coverage even
// with no remote summarizer configured.
package vector
