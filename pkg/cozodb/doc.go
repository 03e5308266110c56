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
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cozodb is a pure-Go embedded relation store that accepts a small
// CozoScript-like vocabulary. It does not link the CozoDB C library and
// needs no CGO. The supported script forms are listed in cozodb.go.
//
// # Storage Engines
//
// New takes an engine name:
//   - "mem": in memory only, nothing is written to disk (good for testing)
//   - "sqlite" and "rocksdb": both persist every relation to the same JSON
//     snapshot file (snapshot.json) under the data directory
//
// # Quick Start
//
// Open a database and run queries:
//
//	db, err := cozodb.New("rocksdb", "/path/to/data", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// The literal script `?[x] := x = 1` is the one accepted query that
//	// does not scan a relation; it serves as a health check.
//	result, err := db.Run(`?[x] := x = 1`, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("x = %v\n", result.Rows[0][0])
//
// # Read-Only Queries
//
// RunReadOnly rejects `:create` and `:put` scripts:
//
//	result, err := db.RunReadOnly(`?[id, kind] := *graphmind_node{id, kind}`, nil)
//
// # Parameterized Queries
//
// A single-relation scan may be followed by comma-separated equality
// filters, each comparing a column with a quoted literal or a $parameter:
//
//	result, err := db.Run(
//	    `?[id, props] := *graphmind_node{id, props}, id = $id`,
//	    map[string]any{"id": "a1b2:file:main.go"},
//	)
//
// A `:put` script takes the row's column values from params, keyed by
// column name.
//
// # Backup and Restore
//
//	err := db.Backup("/path/to/backup.json") // writes the current snapshot
//	err = db.Restore("/path/to/backup.json") // replaces all relations
//
// # Data Model
//
// pkg/storage's EmbeddedBackend creates three relations:
//
//	graphmind_node      - every node, keyed by id
//	graphmind_edge      - every edge, keyed by (kind, src_id, dst_id)
//	graphmind_embedding - embedding vectors, keyed by node_id
//
// `::hnsw create` scripts are accepted and do nothing; scans are linear.
package cozodb
