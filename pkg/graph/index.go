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

package graph

import (
	"sort"
	"sync"
	"time"
)

// edgeKey is the adjacency-list key: one bucket per (edge kind, source id),
// per spec §9 Design Notes ("two maps... addresses [cycles] by ID").
type edgeKey struct {
	kind EdgeKind
	src  string
}

// Index is the in-memory mirror of the property graph: authoritative for
// reads during a rebuild, flushed to the external store at phase boundaries,
// and rehydrated lazily from the store on restart (spec §4.4).
//
// Readers-writer discipline: many concurrent query-layer readers, one
// rebuild-worker writer at a time (spec §5).
type Index struct {
	mu       sync.RWMutex
	nodes    map[string]*Node            // id -> current-or-historical node (by id, last write wins per id+validTo)
	outEdges map[edgeKey][]string        // (kind, srcId) -> []dstId
	inEdges  map[edgeKey][]string        // (kind, dstId) -> []srcId, mirrored for fast predecessor lookups
	byKind   map[Kind]map[string]*Node   // kind -> id -> node, current only
	byFile   map[string][]string         // file path -> contained node ids (functions/classes/sections), current only
}

// NewIndex creates an empty in-memory graph index.
func NewIndex() *Index {
	return &Index{
		nodes:    make(map[string]*Node),
		outEdges: make(map[edgeKey][]string),
		inEdges:  make(map[edgeKey][]string),
		byKind:   make(map[Kind]map[string]*Node),
		byFile:   make(map[string][]string),
	}
}

// UpsertNode inserts or replaces the current version of a node. Callers are
// responsible for having already superseded (validTo := now) any prior
// current version with the same ID before calling this (spec §3.4 bi-temporal
// invariant: at most one version per ID with validTo == nil).
func (idx *Index) UpsertNode(n *Node) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.nodes[n.ID] = n
	if n.IsCurrent() {
		m, ok := idx.byKind[n.Kind]
		if !ok {
			m = make(map[string]*Node)
			idx.byKind[n.Kind] = m
		}
		m[n.ID] = n
		if path := n.Str("filePath"); path != "" {
			idx.byFile[path] = appendUnique(idx.byFile[path], n.ID)
		}
	}
}

// Supersede marks the current version of id as historical as of validTo,
// removing it from the "current" views while keeping it addressable by ID
// for historical (diff_since) queries.
func (idx *Index) Supersede(id string, validTo time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n, ok := idx.nodes[id]
	if !ok || !n.IsCurrent() {
		return
	}
	vt := validTo
	n.ValidTo = &vt
	if m, ok := idx.byKind[n.Kind]; ok {
		delete(m, id)
	}
	if path := n.Str("filePath"); path != "" {
		idx.byFile[path] = removeValue(idx.byFile[path], id)
	}
}

// Get returns the node by ID regardless of current/historical state.
func (idx *Index) Get(id string) (*Node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, ok := idx.nodes[id]
	return n, ok
}

// GetCurrent returns the node by ID only if it is the current version.
func (idx *Index) GetCurrent(id string) (*Node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n, ok := idx.nodes[id]
	if !ok || !n.IsCurrent() {
		return nil, false
	}
	return n, true
}

// AllCurrent returns every current node of the given kind, sorted by ID for
// deterministic iteration (needed for byte-identical rebuild snapshots,
// spec §8.2).
func (idx *Index) AllCurrent(kind Kind) []*Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m := idx.byKind[kind]
	out := make([]*Node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AllNodes returns every node (current and historical), sorted by ID.
func (idx *Index) AllNodes() []*Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*Node, 0, len(idx.nodes))
	for _, n := range idx.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ContainedBy returns the ids of the current nodes whose filePath property is
// path; a FILE node that carries filePath is among them.
func (idx *Index) ContainedBy(path string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, len(idx.byFile[path]))
	copy(out, idx.byFile[path])
	return out
}

// AddEdge records a directed edge in both adjacency directions.
func (idx *Index) AddEdge(e Edge) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	outKey := edgeKey{kind: e.Kind, src: e.SrcID}
	idx.outEdges[outKey] = appendUnique(idx.outEdges[outKey], e.DstID)
	inKey := edgeKey{kind: e.Kind, src: e.DstID}
	idx.inEdges[inKey] = appendUnique(idx.inEdges[inKey], e.SrcID)
}

// Out returns the destination IDs reachable from src via edges of kind k,
// sorted for deterministic iteration.
func (idx *Index) Out(kind EdgeKind, src string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := append([]string(nil), idx.outEdges[edgeKey{kind: kind, src: src}]...)
	sort.Strings(out)
	return out
}

// In returns the source IDs that reach dst via edges of kind k, sorted for
// deterministic iteration.
func (idx *Index) In(kind EdgeKind, dst string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := append([]string(nil), idx.inEdges[edgeKey{kind: kind, src: dst}]...)
	sort.Strings(out)
	return out
}

// NodeCounts returns the number of current nodes per kind, for health().
func (idx *Index) NodeCounts() map[Kind]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[Kind]int, len(idx.byKind))
	for k, m := range idx.byKind {
		out[k] = len(m)
	}
	return out
}

func appendUnique(ss []string, v string) []string {
	for _, s := range ss {
		if s == v {
			return ss
		}
	}
	return append(ss, v)
}

func removeValue(ss []string, v string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
