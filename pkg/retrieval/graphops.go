// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/graphmind/pkg/apierr"
	"github.com/kraklabs/graphmind/pkg/archvalidate"
	"github.com/kraklabs/graphmind/pkg/config"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// defaultImpactDepth is spec §4.6.2's default forward-closure depth for
// impact_analyze / test_select.
const defaultImpactDepth = 3

// EdgeGroup is one kind's worth of edges attached to a resolved node, as
// explain returns them.
type EdgeGroup struct {
	Kind  graph.EdgeKind
	Nodes []*graph.Node
}

// Explanation is explain(symbolOrFile)'s result.
type Explanation struct {
	Node            *graph.Node
	Incoming        []EdgeGroup
	Outgoing        []EdgeGroup
	OwningFile      *graph.Node
	SameFileSibling []*graph.Node
}

// Explain resolves name to the best-matching current node - preferring an
// exact name/path match, then case-insensitive, then same-basename - and
// returns its neighborhood (spec §4.6.2).
func Explain(idx *graph.Index, name string) (*Explanation, *apierr.Error) {
	n, ok := resolveNode(idx, name)
	if !ok {
		return nil, apierr.ValidationFailedf("no node matches %q", name)
	}

	exp := &Explanation{Node: n}
	exp.Incoming = groupEdges(idx, n.ID, true)
	exp.Outgoing = groupEdges(idx, n.ID, false)

	if n.Kind == graph.KindFunction || n.Kind == graph.KindClass {
		path := n.Str("filePath")
		if file, ok := resolveNode(idx, path); ok && file.Kind == graph.KindFile {
			exp.OwningFile = file
		}
		for _, id := range idx.ContainedBy(path) {
			if id == n.ID {
				continue
			}
			if sib, ok := idx.GetCurrent(id); ok && sib.Kind != graph.KindFile {
				exp.SameFileSibling = append(exp.SameFileSibling, sib)
			}
		}
		sort.Slice(exp.SameFileSibling, func(i, j int) bool { return exp.SameFileSibling[i].ID < exp.SameFileSibling[j].ID })
	}
	return exp, nil
}

var allEdgeKinds = []graph.EdgeKind{
	graph.EdgeContains, graph.EdgeReferences, graph.EdgeCalls, graph.EdgeExtends,
	graph.EdgeImplements, graph.EdgeTests, graph.EdgeDescribes, graph.EdgeViolates,
	graph.EdgeClaims, graph.EdgeAuthored, graph.EdgeBlocks,
}

func groupEdges(idx *graph.Index, id string, incoming bool) []EdgeGroup {
	var groups []EdgeGroup
	for _, ek := range allEdgeKinds {
		var ids []string
		if incoming {
			ids = idx.In(ek, id)
		} else {
			ids = idx.Out(ek, id)
		}
		if len(ids) == 0 {
			continue
		}
		g := EdgeGroup{Kind: ek}
		for _, nid := range ids {
			if n, ok := idx.GetCurrent(nid); ok {
				g.Nodes = append(g.Nodes, n)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// resolveNode finds the best-matching current node for a free-text name or
// path: exact ID/name/path match first, then case-insensitive, then
// same-basename (spec §4.6.2).
func resolveNode(idx *graph.Index, name string) (*graph.Node, bool) {
	if n, ok := idx.GetCurrent(name); ok {
		return n, true
	}

	var ciMatch, baseMatch *graph.Node
	lowerName := strings.ToLower(name)
	base := basename(name)

	for _, n := range idx.AllNodes() {
		if !n.IsCurrent() {
			continue
		}
		candidates := []string{n.ID, n.Str("name"), n.Str("filePath")}
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if c == name {
				return n, true
			}
			if ciMatch == nil && strings.EqualFold(c, name) {
				ciMatch = n
			}
			if baseMatch == nil && strings.EqualFold(basename(c), base) {
				baseMatch = n
			}
		}
	}
	if ciMatch != nil {
		return ciMatch, true
	}
	if baseMatch != nil {
		return baseMatch, true
	}
	_ = lowerName
	return nil, false
}

func basename(p string) string {
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Impact is impact_analyze's result (spec §4.6.2).
type Impact struct {
	DirectDependents     []*graph.Node
	TransitiveDependents []*graph.Node
	AffectedTests        []*graph.Node
}

// ImpactAnalyze computes the forward closure over REFERENCES edges from the
// FILE nodes named by filesChanged, up to depth levels (default
// defaultImpactDepth), deduped.
func ImpactAnalyze(idx *graph.Index, filesChanged []string, depth int) *Impact {
	if depth <= 0 {
		depth = defaultImpactDepth
	}

	seeds := make([]string, 0, len(filesChanged))
	for _, f := range filesChanged {
		if n, ok := resolveNode(idx, f); ok {
			seeds = append(seeds, n.ID)
		}
	}

	visited := make(map[string]bool)
	for _, s := range seeds {
		visited[s] = true
	}
	frontier := append([]string(nil), seeds...)

	var direct, transitive []*graph.Node
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, id := range frontier {
			for _, dep := range idx.In(graph.EdgeReferences, id) {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				n, ok := idx.GetCurrent(dep)
				if !ok {
					continue
				}
				if level == 0 {
					direct = append(direct, n)
				} else {
					transitive = append(transitive, n)
				}
				next = append(next, dep)
			}
		}
		frontier = next
	}

	var tests []*graph.Node
	for id := range visited {
		for _, t := range idx.In(graph.EdgeTests, id) {
			if n, ok := idx.GetCurrent(t); ok {
				tests = append(tests, n)
			}
		}
	}

	sortNodes(direct)
	sortNodes(transitive)
	sortNodes(tests)
	return &Impact{DirectDependents: direct, TransitiveDependents: transitive, AffectedTests: dedupeNodes(tests)}
}

// TestSelect is impact_analyze intersected with TEST_SUITE/TEST_CASE nodes,
// expanded through TESTS edges (spec §4.6.2).
func TestSelect(idx *graph.Index, filesChanged []string, depth int) []*graph.Node {
	impact := ImpactAnalyze(idx, filesChanged, depth)
	return impact.AffectedTests
}

// PatternType enumerates find_pattern's type argument.
type PatternType string

const (
	PatternCircular  PatternType = "circular"
	PatternUnused    PatternType = "unused"
	PatternViolation PatternType = "violation"
	PatternGeneric   PatternType = "pattern"
)

// FindPattern implements spec §4.6.2's find_pattern dispatch.
func FindPattern(idx *graph.Index, pattern string, typ PatternType) ([]*graph.Node, *apierr.Error) {
	switch typ {
	case PatternCircular:
		return nil, apierr.New(apierr.NotImplemented, "circular-dependency detection is not implemented", "use impact_analyze to inspect a specific file's dependents instead", nil)

	case PatternUnused:
		var unused []*graph.Node
		for _, kind := range []graph.Kind{graph.KindFunction, graph.KindClass, graph.KindFile} {
			for _, n := range idx.AllCurrent(kind) {
				if len(idx.In(graph.EdgeReferences, n.ID)) > 0 || len(idx.In(graph.EdgeCalls, n.ID)) > 0 || len(idx.In(graph.EdgeTests, n.ID)) > 0 {
					continue
				}
				unused = append(unused, n)
			}
		}
		sortNodes(unused)
		return unused, nil

	case PatternViolation:
		v := idx.AllCurrent(graph.KindViolation)
		sortNodes(v)
		return v, nil

	case PatternGeneric:
		var out []*graph.Node
		needle := strings.ToLower(pattern)
		for _, n := range idx.AllNodes() {
			if !n.IsCurrent() {
				continue
			}
			if strings.Contains(strings.ToLower(n.Str("name")), needle) || strings.Contains(strings.ToLower(n.ID), needle) {
				out = append(out, n)
			}
		}
		sortNodes(out)
		return out, nil

	default:
		return nil, apierr.ValidationFailedf("unknown find_pattern type %q", typ)
	}
}

// Suggestion is one arch_suggest candidate.
type Suggestion struct {
	Path      string
	Rationale string
}

// ArchSuggest matches a proposed element against configured layer rules and
// historically similar current node names, returning ranked candidates
// (spec §4.6.2).
func ArchSuggest(idx *graph.Index, cfg *config.Config, name, elemType string, dependencies []string) []Suggestion {
	var out []Suggestion
	if cfg != nil {
		for _, layer := range cfg.Architecture.Layers {
			allowed := true
			for _, dep := range dependencies {
				depLayer := cfg.LayerFor(dep)
				if depLayer == "" {
					continue
				}
				ok := false
				for _, allow := range layer.AllowedTargets {
					if allow == depLayer {
						ok = true
						break
					}
				}
				if !ok {
					for _, rule := range cfg.Architecture.Rules {
						if rule.From == layer.Name && rule.To == depLayer && rule.Severity == string(graph.SeverityError) {
							allowed = false
						}
					}
				}
			}
			if allowed && len(layer.Sources) > 0 {
				out = append(out, Suggestion{
					Path:      layer.Sources[0],
					Rationale: "layer " + layer.Name + " permits the given dependencies",
				})
			}
		}
	}

	needle := strings.ToLower(name)
	for _, kind := range []graph.Kind{graph.KindFunction, graph.KindClass, graph.KindFile} {
		for _, n := range idx.AllCurrent(kind) {
			if n.Str("name") == "" {
				continue
			}
			if strings.Contains(strings.ToLower(n.Str("name")), needle) || strings.Contains(needle, strings.ToLower(n.Str("name"))) {
				out = append(out, Suggestion{
					Path:      n.Str("filePath"),
					Rationale: "similarly named existing " + string(n.Kind) + " " + n.Str("name") + " already lives here",
				})
			}
		}
	}
	return out
}

// ArchValidate re-runs architecture validation in scope without persisting
// violations (spec §4.6.2's read-only variant of pkg/archvalidate.Apply).
func ArchValidate(cfg *config.Config, idx *graph.Index) ([]archvalidate.Violation, error) {
	return archvalidate.Run(cfg, idx)
}

// Diff is diff_since's result (spec §4.6.2).
type Diff struct {
	Added    []*graph.Node
	Removed  []*graph.Node
	Modified []*graph.Node
}

// DiffSince returns every node with validFrom > anchor (added or modified)
// or validTo in (anchor, now] (removed), per spec §4.6.2 / §9 bi-temporality.
func DiffSince(idx *graph.Index, anchor time.Time) *Diff {
	d := &Diff{}
	now := time.Now()
	for _, n := range idx.AllNodes() {
		if n.ValidTo != nil && n.ValidTo.After(anchor) && !n.ValidTo.After(now) {
			d.Removed = append(d.Removed, n)
			continue
		}
		if n.ValidFrom.After(anchor) {
			if n.IsCurrent() {
				d.Added = append(d.Added, n)
			} else {
				d.Modified = append(d.Modified, n)
			}
		}
	}
	sortNodes(d.Added)
	sortNodes(d.Removed)
	sortNodes(d.Modified)
	return d
}

func sortNodes(nodes []*graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

func dedupeNodes(nodes []*graph.Node) []*graph.Node {
	seen := make(map[string]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		out = append(out, n)
	}
	return out
}
