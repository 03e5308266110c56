// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package archvalidate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"

	"github.com/kraklabs/graphmind/pkg/config"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// schema declares the four predicates the validator reasons over and the
// single rule deriving a forbidden reference from a layer's current edges
// (spec §4.8): references between files whose owning layers match a
// configured deny rule are violations. Allowed targets are not consulted.
const schema = `
Decl layer(file: string, layername: string).
Decl references(src: string, dst: string).
Decl denyrule(fromlayer: string, tolayer: string, severity: string).
Decl violates(src: string, dst: string, fromlayer: string, tolayer: string, severity: string).

violates(Src, Dst, From, To, Severity) :-
  references(Src, Dst),
  layer(Src, From),
  layer(Dst, To),
  denyrule(From, To, Severity).
`

// Violation is one current architecture-rule breach: a REFERENCES edge whose
// endpoints fall in layers joined by a deny rule.
type Violation struct {
	SourceFile string
	TargetFile string
	FromLayer  string
	ToLayer    string
	Severity   string
}

// ID returns the stable identifier spec §4.8 requires: violation:<rule>:<file>,
// where <rule> names the layer pair the deny rule covers.
func (v Violation) ID() string {
	return fmt.Sprintf("violation:%s->%s:%s", v.FromLayer, v.ToLayer, v.SourceFile)
}

// program is one compiled schema, reusable across Run calls since the
// predicate/rule vocabulary never changes at runtime (only the config-
// derived facts do).
type program struct {
	info       *analysis.ProgramInfo
	predByName map[string]ast.PredicateSym
}

func compile() (*program, error) {
	unit, err := parse.Unit(strings.NewReader(schema))
	if err != nil {
		return nil, fmt.Errorf("archvalidate: parse schema: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("archvalidate: analyze schema: %w", err)
	}
	byName := make(map[string]ast.PredicateSym, len(info.Decls))
	for sym := range info.Decls {
		byName[sym.Symbol] = sym
	}
	return &program{info: info, predByName: byName}, nil
}

// Run evaluates cfg's layers and rules against idx's current FILE nodes and
// REFERENCES edges, without mutating idx (spec §4.8's archValidate operation:
// "re-runs validation in scope, returns violations without persisting").
func Run(cfg *config.Config, idx *graph.Index) ([]Violation, error) {
	prog, err := compile()
	if err != nil {
		return nil, err
	}

	base := factstore.NewSimpleInMemoryStore()
	store := factstore.NewConcurrentFactStore(base)

	layerSym := prog.predByName["layer"]
	refSym := prog.predByName["references"]
	denySym := prog.predByName["denyrule"]
	violSym := prog.predByName["violates"]

	pathByID := make(map[string]string)
	files := idx.AllCurrent(graph.KindFile)
	for _, f := range files {
		path := f.Str("filePath")
		pathByID[f.ID] = path
		layer := cfg.LayerFor(path)
		if layer == "" {
			continue
		}
		store.Add(ast.Atom{Predicate: layerSym, Args: []ast.BaseTerm{ast.String(path), ast.String(layer)}})
	}

	for _, f := range files {
		srcPath := pathByID[f.ID]
		for _, dstID := range idx.Out(graph.EdgeReferences, f.ID) {
			dstPath, ok := pathByID[dstID]
			if !ok {
				continue
			}
			store.Add(ast.Atom{Predicate: refSym, Args: []ast.BaseTerm{ast.String(srcPath), ast.String(dstPath)}})
		}
	}

	for _, r := range cfg.Architecture.Rules {
		store.Add(ast.Atom{Predicate: denySym, Args: []ast.BaseTerm{ast.String(r.From), ast.String(r.To), ast.String(r.Severity)}})
	}

	if _, err := mengine.EvalProgramWithStats(prog.info, store); err != nil {
		return nil, fmt.Errorf("archvalidate: evaluate: %w", err)
	}

	var violations []Violation
	err = store.GetFacts(ast.NewQuery(violSym), func(atom ast.Atom) error {
		args := atom.Args
		if len(args) != 5 {
			return nil
		}
		violations = append(violations, Violation{
			SourceFile: argString(args[0]),
			TargetFile: argString(args[1]),
			FromLayer:  argString(args[2]),
			ToLayer:    argString(args[3]),
			Severity:   argString(args[4]),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archvalidate: read violations: %w", err)
	}
	return violations, nil
}

// Apply runs Run and reconciles idx's current VIOLATION nodes against the
// result: violations no longer derived are superseded, newly derived ones
// are added, and violations present in both runs are left untouched so their
// validFrom stays stable across a no-op rebuild (spec §8.2 idempotence).
// This is the Phase 6 entry point pkg/ingestion calls after edges are
// written for a rebuild.
func Apply(cfg *config.Config, idx *graph.Index, projectID string, now time.Time) (added, removed int, err error) {
	violations, err := Run(cfg, idx)
	if err != nil {
		return 0, 0, err
	}

	current := make(map[string]*graph.Node)
	for _, n := range idx.AllCurrent(graph.KindViolation) {
		current[n.ID] = n
	}

	seen := make(map[string]bool, len(violations))
	for _, v := range violations {
		id := v.ID()
		seen[id] = true
		if _, ok := current[id]; ok {
			continue // unchanged: keep its original validFrom
		}
		idx.UpsertNode(&graph.Node{
			ID:        id,
			Kind:      graph.KindViolation,
			ProjectID: projectID,
			ValidFrom: now,
			Props: map[string]any{
				"sourceFile": v.SourceFile,
				"targetFile": v.TargetFile,
				"fromLayer":  v.FromLayer,
				"toLayer":    v.ToLayer,
				"severity":   v.Severity,
			},
		})
		if srcID, ok := fileIDByPath(idx, projectID, v.SourceFile); ok {
			idx.AddEdge(graph.Edge{Kind: graph.EdgeViolates, SrcID: srcID, DstID: id, ProjectID: projectID})
		}
		added++
	}

	for id := range current {
		if !seen[id] {
			idx.Supersede(id, now)
			removed++
		}
	}

	return added, removed, nil
}

func fileIDByPath(idx *graph.Index, projectID, path string) (string, bool) {
	id := graph.FileID(projectID, path)
	if _, ok := idx.GetCurrent(id); ok {
		return id, true
	}
	return "", false
}

func argString(t ast.BaseTerm) string {
	c, ok := t.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", t)
	}
	return c.Symbol
}
