// Copyright 2025 Graphmind Authors
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"

	"github.com/kraklabs/graphmind/pkg/apierr"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// MemoryBackend is the default Backend: an in-process store over
// pkg/graph.Index. It is what a standalone, open-source deployment runs
// with out of the box; EmbeddedBackend (embedded.go) is the persistent
// alternative for deployments that need data to survive a restart.
type MemoryBackend struct {
	idx *graph.Index
}

// NewMemoryBackend wraps an existing graph.Index as a Backend. Passing the
// session's own index means reads via ExecuteCypher observe writes from
// WriteBatch with no serialization round-trip.
func NewMemoryBackend(idx *graph.Index) *MemoryBackend {
	return &MemoryBackend{idx: idx}
}

// WriteBatch applies every node then every edge from one ingestion phase's
// batch. Nodes that supersede a prior version (Node.ValidFrom newer than an
// existing current node with the same ID) are expected to have already been
// superseded by the caller per spec §4.3 phase 4; WriteBatch itself performs
// the final idempotent upsert.
func (b *MemoryBackend) WriteBatch(ctx context.Context, nodes []*graph.Node, edges []graph.Edge) error {
	return withRetry(ctx, classifyMemoryErr, func() error {
		// Validate the whole batch first so a rejected batch writes nothing.
		for _, n := range nodes {
			if n.ID == "" {
				return apierr.ConstraintViolationf(nil, "node missing id (kind=%s)", n.Kind)
			}
		}
		for _, e := range edges {
			if e.SrcID == "" || e.DstID == "" {
				return apierr.ConstraintViolationf(nil, "edge %s missing endpoint", e.Kind)
			}
		}
		for _, n := range nodes {
			b.idx.UpsertNode(n)
		}
		for _, e := range edges {
			b.idx.AddEdge(e)
		}
		return nil
	})
}

// ExecuteCypher parses and runs query against the in-memory index.
func (b *MemoryBackend) ExecuteCypher(ctx context.Context, query string, params map[string]any) (*QueryResult, error) {
	cq, err := parseCypher(query)
	if err != nil {
		return nil, apierr.ValidationFailedf("%v", err)
	}
	var result *QueryResult
	runErr := withRetry(ctx, classifyMemoryErr, func() error {
		r, err := runCypher(b.idx, cq, params)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

// Health always succeeds for an in-process backend; it exists to satisfy
// the Backend contract uniformly with store implementations that do real
// network round-trips.
func (b *MemoryBackend) Health(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Close is a no-op: the in-memory index's lifetime is owned by the session.
func (b *MemoryBackend) Close() error {
	return nil
}

// Index exposes the backing graph.Index directly, for callers that hold a
// concrete *MemoryBackend (or type-assert a storage.Backend against this
// optional interface) and need more than WriteBatch/ExecuteCypher can
// express - e.g. pkg/archvalidate's Phase 6 reconciliation, which supersedes
// and upserts VIOLATION nodes in place.
func (b *MemoryBackend) Index() *graph.Index {
	return b.idx
}

// classifyMemoryErr treats apierr.ConstraintViolation/ValidationFailed as
// fatal (retrying a bad write or bad query can't help) and everything else
// as transient, mirroring how a real network-backed store would classify
// errors (connection reset vs. schema violation).
func classifyMemoryErr(err error) retryClass {
	if e, ok := apierr.As(err); ok {
		switch e.Code {
		case apierr.ConstraintViolation, apierr.ValidationFailed:
			return classFatal
		}
	}
	return classTransient
}
