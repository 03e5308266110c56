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

// Package cozodb is a small embedded relation store speaking the reduced
// CozoScript-like vocabulary pkg/storage's EmbeddedBackend emits
// (`:create`, `:put`, `::hnsw create`, and single-relation-scan `?[...] :=
// *rel{...}` reads). It is not a general Datalog engine and does not wrap
// the real CozoDB C library: it persists relations as a JSON snapshot on
// disk, giving EmbeddedBackend's "survive a restart" story real on-disk
// durability without a CGO dependency.
package cozodb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// NamedRows is the tabular result of a query, matching the shape the
// storage package converts to/from QueryResult.
type NamedRows struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// relationSchema records which declared columns are keys vs values, parsed
// once from a `:create` script.
type relationSchema struct {
	KeyCols []string `json:"keyCols"`
	ValCols []string `json:"valCols"`
}

// relation holds a schema plus its rows, keyed by the joined key-column
// values.
type relation struct {
	Schema relationSchema            `json:"schema"`
	Rows   map[string]map[string]any `json:"rows"`
}

// CozoDB is the embedded store. Safe for concurrent use.
type CozoDB struct {
	mu        sync.Mutex
	engine    string
	dataDir   string
	relations map[string]*relation
}

type snapshot struct {
	Relations map[string]*relation `json:"relations"`
}

func (db *CozoDB) snapshotPath() string {
	return filepath.Join(db.dataDir, "snapshot.json")
}

// New opens (or creates) a database at dataDir using the given engine.
// engine == "mem" skips on-disk persistence entirely; "sqlite" and
// "rocksdb" both resolve to the same JSON-snapshot persistence, since this
// package has no C dependency to pick a real storage engine with — the
// distinction is kept only so EmbeddedConfig.Engine round-trips.
func New(engine, dataDir string, _ map[string]any) (CozoDB, error) {
	db := CozoDB{
		engine:    engine,
		dataDir:   dataDir,
		relations: make(map[string]*relation),
	}
	if engine == "mem" || dataDir == "" {
		return db, nil
	}

	data, err := os.ReadFile(db.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return db, nil
		}
		return CozoDB{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return CozoDB{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Relations != nil {
		db.relations = snap.Relations
	}
	return db, nil
}

// Run executes a mutating or read script. See the package doc for the
// supported script forms.
func (db *CozoDB) Run(script string, params map[string]any) (NamedRows, error) {
	return db.exec(script, params, false)
}

// RunReadOnly executes a non-mutating script, rejecting `:create`/`:put`.
func (db *CozoDB) RunReadOnly(script string, params map[string]any) (NamedRows, error) {
	return db.exec(script, params, true)
}

func (db *CozoDB) exec(script string, params map[string]any, readOnly bool) (NamedRows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	script = strings.TrimSpace(script)
	switch {
	case strings.HasPrefix(script, ":create "):
		if readOnly {
			return NamedRows{}, fmt.Errorf("read-only run cannot execute :create")
		}
		return NamedRows{}, db.create(script)
	case strings.HasPrefix(script, "::hnsw"):
		return NamedRows{}, nil // index creation is a no-op; scans are linear
	case strings.Contains(script, ":put "):
		if readOnly {
			return NamedRows{}, fmt.Errorf("read-only run cannot execute :put")
		}
		return NamedRows{}, db.put(script, params)
	case script == "?[x] := x = 1":
		return NamedRows{Headers: []string{"x"}, Rows: [][]any{{1}}}, nil
	case strings.HasPrefix(script, "?["):
		return db.scan(script, params)
	default:
		return NamedRows{}, fmt.Errorf("unsupported script: %q", script)
	}
}

var createRE = regexp.MustCompile(`^:create\s+(\w+)\s*\{\s*(.*?)\s*=>\s*(.*?)\s*\}\s*$`)

func (db *CozoDB) create(script string) error {
	m := createRE.FindStringSubmatch(script)
	if m == nil {
		return fmt.Errorf("malformed :create script: %q", script)
	}
	name := m[1]
	if _, exists := db.relations[name]; exists {
		return fmt.Errorf("relation %s already exists", name)
	}
	db.relations[name] = &relation{
		Schema: relationSchema{
			KeyCols: columnNames(m[2]),
			ValCols: columnNames(m[3]),
		},
		Rows: make(map[string]map[string]any),
	}
	return db.flush()
}

// columnNames extracts bare column identifiers from a `col: Type, col2:
// Type2` spec, ignoring the type annotations entirely (including vector
// types like `<F32; 128>`).
func columnNames(spec string) []string {
	var names []string
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if colon := strings.IndexByte(part, ':'); colon >= 0 {
			part = part[:colon]
		}
		names = append(names, strings.TrimSpace(part))
	}
	return names
}

var putRE = regexp.MustCompile(`:put\s+(\w+)\s*\{`)

func (db *CozoDB) put(script string, params map[string]any) error {
	m := putRE.FindStringSubmatch(script)
	if m == nil {
		return fmt.Errorf("malformed :put script: %q", script)
	}
	rel, ok := db.relations[m[1]]
	if !ok {
		return fmt.Errorf("relation %s does not exist", m[1])
	}

	key := rowKey(rel.Schema.KeyCols, params)
	row := make(map[string]any, len(rel.Schema.KeyCols)+len(rel.Schema.ValCols))
	for _, c := range rel.Schema.KeyCols {
		row[c] = params[c]
	}
	for _, c := range rel.Schema.ValCols {
		row[c] = params[c]
	}
	rel.Rows[key] = row
	return db.flush()
}

func rowKey(keyCols []string, params map[string]any) string {
	parts := make([]string, len(keyCols))
	for i, c := range keyCols {
		parts[i] = fmt.Sprintf("%v", params[c])
	}
	return strings.Join(parts, "\x00")
}

var scanRE = regexp.MustCompile(`^\?\[([^\]]*)\]\s*:=\s*\*(\w+)\{([^}]*)\}(?:,\s*(.*))?$`)

// scan handles `?[cols] := *relation{cols}[, col = "literal" | col = $param]`
// — the only read shape this package supports.
func (db *CozoDB) scan(script string, params map[string]any) (NamedRows, error) {
	m := scanRE.FindStringSubmatch(script)
	if m == nil {
		return NamedRows{}, fmt.Errorf("unsupported read script: %q", script)
	}
	returnCols := columnNames(m[1])
	relName := m[2]
	rel, ok := db.relations[relName]
	if !ok {
		return NamedRows{Headers: returnCols}, nil
	}

	filters := parseFilters(m[4])

	result := NamedRows{Headers: returnCols}
	for _, row := range rel.Rows {
		if !matchesFilters(row, filters, params) {
			continue
		}
		out := make([]any, len(returnCols))
		for i, c := range returnCols {
			out[i] = row[c]
		}
		result.Rows = append(result.Rows, out)
	}
	return result, nil
}

type filter struct {
	col, literal, param string
}

func parseFilters(clause string) []filter {
	if clause == "" {
		return nil
	}
	var filters []filter
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		eq := strings.Index(part, "=")
		if eq < 0 {
			continue
		}
		col := strings.TrimSpace(part[:eq])
		val := strings.TrimSpace(part[eq+1:])
		switch {
		case strings.HasPrefix(val, "$"):
			filters = append(filters, filter{col: col, param: strings.TrimPrefix(val, "$")})
		default:
			filters = append(filters, filter{col: col, literal: strings.Trim(val, `"`)})
		}
	}
	return filters
}

func matchesFilters(row map[string]any, filters []filter, params map[string]any) bool {
	for _, f := range filters {
		var want any
		if f.param != "" {
			want = params[f.param]
		} else {
			want = f.literal
		}
		if fmt.Sprintf("%v", row[f.col]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func (db *CozoDB) flush() error {
	if db.engine == "mem" || db.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(db.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(snapshot{Relations: db.relations}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(db.snapshotPath(), data, 0o644)
}

// Close flushes the relations to the snapshot. The in-memory relations are
// left in place; a fresh New() call reloads from the snapshot.
func (db *CozoDB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	_ = db.flush()
}

// Backup copies the current snapshot file to path.
func (db *CozoDB) Backup(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err := db.flush(); err != nil {
		return err
	}
	data, err := os.ReadFile(db.snapshotPath())
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Restore replaces the current relations with those in the snapshot at
// path.
func (db *CozoDB) Restore(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse backup: %w", err)
	}
	db.relations = snap.Relations
	return db.flush()
}
