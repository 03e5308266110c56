// Copyright 2025 Graphmind Authors
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kraklabs/graphmind/pkg/graph"
)

// cypherQuery is the parsed shape of graphmind's small Cypher-like
// vocabulary. Only the subset actually needed by pkg/retrieval's graph
// operations is supported:
//
//	MATCH (n:KIND) RETURN n.prop1, n.prop2
//	MATCH (n:KIND) WHERE n.prop = $param RETURN n.prop1
//	MATCH (a:KINDA)-[:EDGE]->(b:KINDB) RETURN a.prop, b.prop
//	MATCH (a:KINDA)-[:EDGE]->(b:KINDB) WHERE a.prop = $param RETURN b.prop
//
// This is not a general Cypher implementation; it is the fixed,
// purpose-built vocabulary the query layer emits, translated directly
// against the in-memory graph.Index (or, in EmbeddedBackend, into scans of
// the pkg/cozodb relations).
type cypherQuery struct {
	srcVar, srcKind string
	edge            string // "" for a single-node pattern
	dstVar, dstKind string
	whereVar        string
	whereProp       string
	whereParam      string
	returns         []returnField
}

type returnField struct {
	varName, prop string
}

var (
	singleNodeRE = regexp.MustCompile(`^MATCH\s+\((\w+):(\w+)\)\s*(?:WHERE\s+(\w+)\.(\w+)\s*=\s*\$(\w+)\s*)?RETURN\s+(.+)$`)
	edgeRE       = regexp.MustCompile(`^MATCH\s+\((\w+):(\w+)\)-\[:(\w+)\]->\((\w+):(\w+)\)\s*(?:WHERE\s+(\w+)\.(\w+)\s*=\s*\$(\w+)\s*)?RETURN\s+(.+)$`)
)

// parseCypher parses one query string into a cypherQuery, or returns an
// error if it does not match the supported vocabulary.
func parseCypher(query string) (*cypherQuery, error) {
	q := strings.TrimSpace(query)

	if m := edgeRE.FindStringSubmatch(q); m != nil {
		cq := &cypherQuery{
			srcVar: m[1], srcKind: m[2],
			edge:   m[3],
			dstVar: m[4], dstKind: m[5],
		}
		if m[6] != "" {
			cq.whereVar, cq.whereProp, cq.whereParam = m[6], m[7], m[8]
		}
		fields, err := parseReturn(m[9])
		if err != nil {
			return nil, err
		}
		cq.returns = fields
		return cq, nil
	}

	if m := singleNodeRE.FindStringSubmatch(q); m != nil {
		cq := &cypherQuery{srcVar: m[1], srcKind: m[2]}
		if m[3] != "" {
			cq.whereVar, cq.whereProp, cq.whereParam = m[3], m[4], m[5]
		}
		fields, err := parseReturn(m[6])
		if err != nil {
			return nil, err
		}
		cq.returns = fields
		return cq, nil
	}

	return nil, fmt.Errorf("unsupported query form: %q", query)
}

func parseReturn(clause string) ([]returnField, error) {
	parts := strings.Split(clause, ",")
	fields := make([]returnField, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		dot := strings.IndexByte(p, '.')
		if dot < 0 {
			return nil, fmt.Errorf("RETURN clause %q: expected var.prop", p)
		}
		fields = append(fields, returnField{varName: p[:dot], prop: p[dot+1:]})
	}
	return fields, nil
}

// fieldValue resolves a node property, special-casing "id" and "kind" which
// live on the Node struct rather than in Props.
func fieldValue(n *graph.Node, prop string) any {
	switch prop {
	case "id":
		return n.ID
	case "kind":
		return string(n.Kind)
	case "projectId":
		return n.ProjectID
	default:
		if v, ok := n.Props[prop]; ok {
			return v
		}
		return nil
	}
}

// runCypher executes a parsed query against an in-memory graph.Index.
func runCypher(idx *graph.Index, cq *cypherQuery, params map[string]any) (*QueryResult, error) {
	headers := make([]string, len(cq.returns))
	for i, f := range cq.returns {
		headers[i] = f.varName + "." + f.prop
	}
	result := &QueryResult{Headers: headers}

	emit := func(vars map[string]*graph.Node) {
		row := make([]any, len(cq.returns))
		for i, f := range cq.returns {
			if n, ok := vars[f.varName]; ok {
				row[i] = fieldValue(n, f.prop)
			}
		}
		result.Rows = append(result.Rows, row)
	}

	matchesWhere := func(n *graph.Node, varName string) bool {
		if cq.whereVar == "" || cq.whereVar != varName {
			return true
		}
		want, ok := params[cq.whereParam]
		if !ok {
			return false
		}
		return fmt.Sprintf("%v", fieldValue(n, cq.whereProp)) == fmt.Sprintf("%v", want)
	}

	if cq.edge == "" {
		for _, n := range idx.AllCurrent(graph.Kind(cq.srcKind)) {
			if !matchesWhere(n, cq.srcVar) {
				continue
			}
			emit(map[string]*graph.Node{cq.srcVar: n})
		}
		return result, nil
	}

	for _, src := range idx.AllCurrent(graph.Kind(cq.srcKind)) {
		if !matchesWhere(src, cq.srcVar) {
			continue
		}
		for _, dstID := range idx.Out(graph.EdgeKind(cq.edge), src.ID) {
			dst, ok := idx.GetCurrent(dstID)
			if !ok || dst.Kind != graph.Kind(cq.dstKind) {
				continue
			}
			if !matchesWhere(dst, cq.dstVar) {
				continue
			}
			emit(map[string]*graph.Node{cq.srcVar: src, cq.dstVar: dst})
		}
	}
	return result, nil
}
