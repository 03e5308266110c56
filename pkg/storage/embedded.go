// Copyright 2025 Graphmind Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// EmbeddedBackend is the persistent Backend implementation, backed by
// pkg/cozodb's on-disk relation store. The in-process MemoryBackend in
// memory_backend.go is faster and is what a session uses by default; this
// file is for deployments that want the graph to survive a process restart
// without re-ingesting the whole workspace.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kraklabs/graphmind/pkg/apierr"
	cozo "github.com/kraklabs/graphmind/pkg/cozodb"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// EmbeddedBackend implements Backend using a local CozoDB instance.
type EmbeddedBackend struct {
	db        *cozo.CozoDB
	vectorDim int
	mu        sync.RWMutex
	closed    bool
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// DataDir is the directory where CozoDB stores its data. Defaults to
	// ~/.graphmind/data/<project_id>.
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb" for persistence.
	Engine string

	// ProjectID namespaces the data directory.
	ProjectID string

	// VectorDim is the embedding dimension used by the HNSW index; defaults
	// to 128 per spec's default vectorDim.
	VectorDim int
}

// NewEmbeddedBackend creates a new embedded CozoDB backend.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	if config.Engine == "" {
		config.Engine = "rocksdb"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 128
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".graphmind", "data")
		if config.ProjectID != "" {
			config.DataDir = filepath.Join(config.DataDir, config.ProjectID)
		}
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := cozo.New(config.Engine, config.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("open cozodb: %w", err)
	}

	return &EmbeddedBackend{db: &db, vectorDim: config.VectorDim}, nil
}

// WriteBatch translates a node/edge batch into one `:put` per node (into
// graphmind_node) and one per edge (into graphmind_edge), run one after
// another under the write lock. The batch is not atomic: a failure part-way
// leaves the earlier puts in place, and a retry re-runs every put.
func (b *EmbeddedBackend) WriteBatch(ctx context.Context, nodes []*graph.Node, edges []graph.Edge) error {
	if b.isClosed() {
		return apierr.StoreUnavailablef(nil, "backend is closed")
	}
	return withRetry(ctx, classifyCozoErr, func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, n := range nodes {
			script, params := putNodeScript(n)
			if _, err := b.db.Run(script, params); err != nil {
				return fmt.Errorf("write node %s: %w", n.ID, err)
			}
		}
		for _, e := range edges {
			script, params := putEdgeScript(e)
			if _, err := b.db.Run(script, params); err != nil {
				return fmt.Errorf("write edge %s->%s: %w", e.SrcID, e.DstID, err)
			}
		}
		return nil
	})
}

// ExecuteCypher translates the small Cypher-like vocabulary (see cypher.go)
// down to one or two Datalog scans against the `graphmind_node`/
// `graphmind_edge` relations and runs them read-only. Edge patterns are
// evaluated as a node scan over the edge relation followed by a per-row
// lookup into graphmind_node: this backend is the optional "survive a
// restart" path, not the hot query path (MemoryBackend's in-process
// adjacency lists serve that), so the extra round trips are an acceptable
// trade for keeping the embedded interpreter to a single-relation-scan
// vocabulary.
func (b *EmbeddedBackend) ExecuteCypher(ctx context.Context, query string, params map[string]any) (*QueryResult, error) {
	if b.isClosed() {
		return nil, apierr.StoreUnavailablef(nil, "backend is closed")
	}
	cq, err := parseCypher(query)
	if err != nil {
		return nil, apierr.ValidationFailedf("%v", err)
	}

	var result *QueryResult
	runErr := withRetry(ctx, classifyCozoErr, func() error {
		b.mu.RLock()
		defer b.mu.RUnlock()
		r, err := b.runCypherQuery(cq, params)
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

func (b *EmbeddedBackend) runCypherQuery(cq *cypherQuery, params map[string]any) (*QueryResult, error) {
	headers := make([]string, len(cq.returns))
	for i, f := range cq.returns {
		headers[i] = f.varName + "." + f.prop
	}
	result := &QueryResult{Headers: headers}

	if cq.edge == "" {
		nodes, err := b.scanNodes(cq.srcKind, cq.whereVar, cq.srcVar, cq.whereProp, cq.whereParam, params)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			result.Rows = append(result.Rows, emitRow(cq.returns, map[string]map[string]any{cq.srcVar: n}))
		}
		return result, nil
	}

	srcs, err := b.scanNodes(cq.srcKind, cq.whereVar, cq.srcVar, cq.whereProp, cq.whereParam, params)
	if err != nil {
		return nil, err
	}
	edgeRows, err := b.db.RunReadOnly(`?[kind, src_id, dst_id] := *graphmind_edge{kind, src_id, dst_id}`, nil)
	if err != nil {
		return nil, fmt.Errorf("scan edges: %w", err)
	}
	for _, src := range srcs {
		srcID := fmt.Sprintf("%v", src["id"])
		for _, row := range edgeRows.Rows {
			if fmt.Sprintf("%v", row[0]) != cq.edge || fmt.Sprintf("%v", row[1]) != srcID {
				continue
			}
			dst, err := b.nodeByID(fmt.Sprintf("%v", row[2]))
			if err != nil || dst == nil || fmt.Sprintf("%v", dst["kind"]) != cq.dstKind {
				continue
			}
			if cq.whereVar == cq.dstVar && !matchesWhereRow(dst, cq.whereProp, cq.whereParam, params) {
				continue
			}
			result.Rows = append(result.Rows, emitRow(cq.returns, map[string]map[string]any{cq.srcVar: src, cq.dstVar: dst}))
		}
	}
	return result, nil
}

// scanNodes scans graphmind_node for the given kind, optionally filtered by
// a single equality predicate on whereProp when whereVar == forVar.
func (b *EmbeddedBackend) scanNodes(kind, whereVar, forVar, whereProp, whereParam string, params map[string]any) ([]map[string]any, error) {
	script := `?[id, kind, project_id, valid_from, valid_to, props] := *graphmind_node{id, kind, project_id, valid_from, valid_to, props}, kind = $kind`
	queryParams := map[string]any{"kind": kind}
	nr, err := b.db.RunReadOnly(script, queryParams)
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	var out []map[string]any
	for _, row := range nr.Rows {
		n := map[string]any{
			"id": row[0], "kind": row[1], "project_id": row[2],
			"valid_from": row[3], "valid_to": row[4], "props": row[5],
		}
		if whereVar == forVar && !matchesWhereRow(n, whereProp, whereParam, params) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *EmbeddedBackend) nodeByID(id string) (map[string]any, error) {
	nr, err := b.db.RunReadOnly(`?[id, kind, project_id, valid_from, valid_to, props] := *graphmind_node{id, kind, project_id, valid_from, valid_to, props}, id = $id`, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(nr.Rows) == 0 {
		return nil, nil
	}
	row := nr.Rows[0]
	return map[string]any{
		"id": row[0], "kind": row[1], "project_id": row[2],
		"valid_from": row[3], "valid_to": row[4], "props": row[5],
	}, nil
}

func matchesWhereRow(n map[string]any, prop, param string, params map[string]any) bool {
	if prop == "" {
		return true
	}
	want, ok := params[param]
	if !ok {
		return false
	}
	return fmt.Sprintf("%v", nodeFieldFromRow(n, prop)) == fmt.Sprintf("%v", want)
}

func nodeFieldFromRow(n map[string]any, prop string) any {
	switch prop {
	case "id", "kind", "projectId":
		if prop == "projectId" {
			return n["project_id"]
		}
		return n[prop]
	default:
		props, _ := n["props"].(map[string]any)
		if props == nil {
			return nil
		}
		return props[prop]
	}
}

func emitRow(returns []returnField, vars map[string]map[string]any) []any {
	row := make([]any, len(returns))
	for i, f := range returns {
		if n, ok := vars[f.varName]; ok {
			row[i] = nodeFieldFromRow(n, f.prop)
		}
	}
	return row
}

// Health runs a trivial read-only query to confirm the connection is alive.
func (b *EmbeddedBackend) Health(ctx context.Context) error {
	if b.isClosed() {
		return apierr.StoreUnavailablef(nil, "backend is closed")
	}
	return withRetry(ctx, classifyCozoErr, func() error {
		b.mu.RLock()
		defer b.mu.RUnlock()
		_, err := b.db.RunReadOnly(`?[x] := x = 1`, nil)
		return err
	})
}

// isClosed reports whether Close has already been called. Checked before
// entering the retry loop so calls against a closed backend fail fast
// instead of burning through the full backoff schedule for an error that
// can never resolve.
func (b *EmbeddedBackend) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Close closes the database connection.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.db.Close()
	return nil
}

// DB returns the underlying CozoDB instance for advanced operations
// (backup/restore, schema inspection). Prefer the Backend interface for
// normal reads and writes.
func (b *EmbeddedBackend) DB() *cozo.CozoDB {
	return b.db
}

// EnsureSchema creates the graphmind relations if they don't exist. Two
// relations hold the entire property graph regardless of Kind/EdgeKind,
// keeping the schema stable as spec's node/edge vocabulary evolves: adding a
// Kind never requires a migration.
func (b *EmbeddedBackend) EnsureSchema() error {
	tables := []string{
		`:create graphmind_node { id: String => kind: String, project_id: String, valid_from: Float, valid_to: Float?, props: Json }`,
		`:create graphmind_edge { kind: String, src_id: String, dst_id: String => project_id: String }`,
		fmt.Sprintf(`:create graphmind_embedding { node_id: String => collection: String, vector: <F32; %d> }`, b.vectorDim),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tables {
		if _, err := b.db.Run(t, nil); err != nil {
			continue // already exists
		}
	}
	return nil
}

// CreateHNSWIndex creates the HNSW index for semantic search over
// graphmind_embedding, sized to the configured vectorDim.
func (b *EmbeddedBackend) CreateHNSWIndex() error {
	idx := fmt.Sprintf(`::hnsw create graphmind_embedding:hnsw_idx { dim: %d, m: 16, ef_construction: 200, fields: [vector] }`, b.vectorDim)

	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.db.Run(idx, nil)
	return err
}

func putNodeScript(n *graph.Node) (string, map[string]any) {
	validTo := any(nil)
	if n.ValidTo != nil {
		validTo = n.ValidTo.Unix()
	}
	return `?[id, kind, project_id, valid_from, valid_to, props] <- [[$id, $kind, $project_id, $valid_from, $valid_to, $props]]
:put graphmind_node { id => kind, project_id, valid_from, valid_to, props }`,
		map[string]any{
			"id":         n.ID,
			"kind":       string(n.Kind),
			"project_id": n.ProjectID,
			"valid_from": n.ValidFrom.Unix(),
			"valid_to":   validTo,
			"props":      n.Props,
		}
}

func putEdgeScript(e graph.Edge) (string, map[string]any) {
	return `?[kind, src_id, dst_id, project_id] <- [[$kind, $src_id, $dst_id, $project_id]]
:put graphmind_edge { kind, src_id, dst_id => project_id }`,
		map[string]any{
			"kind":       string(e.Kind),
			"src_id":     e.SrcID,
			"dst_id":     e.DstID,
			"project_id": e.ProjectID,
		}
}

// classifyCozoErr treats any wrapped apierr with a fatal code as fatal;
// everything else (connection errors, transient CozoDB busy states) is
// retried.
func classifyCozoErr(err error) retryClass {
	if e, ok := apierr.As(err); ok {
		switch e.Code {
		case apierr.ConstraintViolation, apierr.ValidationFailed:
			return classFatal
		}
	}
	return classTransient
}
