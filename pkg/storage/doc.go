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

// Package storage is the graph store adapter (C4): it defines Backend, the
// fixed interface the rest of graphmind uses to read and write the property
// graph, and two implementations of it.
//
// # Available backends
//
//   - MemoryBackend: wraps a pkg/graph.Index directly. This is the default;
//     every session gets one, and it requires no setup.
//   - EmbeddedBackend: persists the graph to disk via pkg/cozodb, a small
//     embedded relation store. Use this when the graph needs to survive a
//     process restart without a full re-ingest.
//
// # Quick start
//
//	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",
//	    Engine:    "rocksdb",
//	    ProjectID: "myproject",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	if err := backend.EnsureSchema(); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := backend.ExecuteCypher(ctx, "MATCH (n:Function) RETURN n.name, n.filePath", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range result.Rows {
//	    fmt.Printf("%s in %s\n", row[0], row[1])
//	}
//
// # Schema
//
// EnsureSchema creates three relations that hold the entire property graph
// regardless of Kind/EdgeKind: graphmind_node, graphmind_edge, and
// graphmind_embedding. Adding a new Kind never requires a schema migration.
// CreateHNSWIndex additionally builds the vector index used for semantic
// search over graphmind_embedding.
//
// # Query vocabulary
//
// ExecuteCypher accepts graphmind's small, fixed Cypher-like vocabulary (see
// cypher.go) — not general Cypher:
//
//	MATCH (n:Function) RETURN n.name, n.filePath
//	MATCH (n:Function) WHERE n.name = $name RETURN n.id
//	MATCH (a:Function)-[:CALLS]->(b:Function) RETURN a.name, b.name
//
// # Configuration
//
// EmbeddedConfig controls backend behavior:
//
//	config := storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",  // where the relation snapshot lives
//	    Engine:    "rocksdb",        // "mem", "sqlite", or "rocksdb"
//	    ProjectID: "myproject",      // namespaces the data directory
//	    VectorDim: 128,
//	}
//
// Defaults: DataDir is ~/.graphmind/data/<project_id>, Engine is "rocksdb",
// VectorDim is 128.
//
// # Thread safety
//
// Both backends are safe for concurrent use. EmbeddedBackend takes a read
// lock for queries and an exclusive lock for writes, allowing concurrent
// reads but exclusive writes.
//
// # Direct database access
//
// For advanced operations (backup/restore, relation inspection), access the
// underlying store directly:
//
//	db := backend.DB()
//	if err := db.Backup("/path/to/backup.json"); err != nil {
//	    log.Fatal(err)
//	}
//
// Prefer the Backend interface methods for normal reads and writes.
package storage
