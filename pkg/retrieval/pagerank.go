// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import "github.com/kraklabs/graphmind/pkg/graph"

// ppr tuning constants. No teacher or pack example implements PageRank;
// these are the standard published values (damping 0.85, Haveliwala 2002
// for the personalization vector) rather than anything grounded in the
// example corpus.
const (
	pprDamping    = 0.85
	pprIterations = 20
	pprTolerance  = 1e-6
)

// edgeKindsForPPR is the set of edge kinds the random walk follows; CONTAINS
// is structural rather than a "relevance" signal and is excluded so PPR
// reflects reference/call/test relationships, not file layout.
var edgeKindsForPPR = []graph.EdgeKind{
	graph.EdgeReferences,
	graph.EdgeCalls,
	graph.EdgeExtends,
	graph.EdgeImplements,
	graph.EdgeTests,
	graph.EdgeDescribes,
}

// PersonalizedPageRank runs the power-iteration method over idx's current
// nodes, teleporting to seeds (uniformly) instead of to the whole graph.
// Returns a score per node ID. When at least one seed resolves, teleport
// mass goes to the seeds only, so a node unreachable from every seed
// scores 0.
func PersonalizedPageRank(idx *graph.Index, seeds []string) map[string]float64 {
	var all []*graph.Node
	for _, k := range []graph.Kind{graph.KindFile, graph.KindFunction, graph.KindClass, graph.KindTestSuite, graph.KindTestCase, graph.KindDocument, graph.KindSection} {
		all = append(all, idx.AllCurrent(k)...)
	}
	if len(all) == 0 {
		return nil
	}

	ids := make([]string, len(all))
	idxOf := make(map[string]int, len(all))
	for i, n := range all {
		ids[i] = n.ID
		idxOf[n.ID] = i
	}

	out := make([][]int, len(ids))
	outDeg := make([]int, len(ids))
	for i, id := range ids {
		var targets []int
		for _, ek := range edgeKindsForPPR {
			for _, dst := range idx.Out(ek, id) {
				if j, ok := idxOf[dst]; ok {
					targets = append(targets, j)
				}
			}
		}
		out[i] = targets
		outDeg[i] = len(targets)
	}

	teleport := make([]float64, len(ids))
	seedSet := 0
	for _, s := range seeds {
		if _, ok := idxOf[s]; ok {
			seedSet++
		}
	}
	if seedSet == 0 {
		// No resolvable seeds: fall back to a uniform teleport vector, i.e.
		// plain (non-personalized) PageRank.
		for i := range teleport {
			teleport[i] = 1.0 / float64(len(ids))
		}
	} else {
		mass := 1.0 / float64(seedSet)
		for _, s := range seeds {
			if j, ok := idxOf[s]; ok {
				teleport[j] = mass
			}
		}
	}

	rank := make([]float64, len(ids))
	copy(rank, teleport)

	for iter := 0; iter < pprIterations; iter++ {
		next := make([]float64, len(ids))
		var danglingMass float64
		for i, r := range rank {
			if outDeg[i] == 0 {
				danglingMass += r
				continue
			}
			share := r / float64(outDeg[i])
			for _, j := range out[i] {
				next[j] += share
			}
		}
		var delta float64
		for i := range next {
			v := pprDamping*(next[i]+danglingMass*teleport[i]) + (1-pprDamping)*teleport[i]
			delta += abs(v - rank[i])
			next[i] = v
		}
		rank = next
		if delta < pprTolerance {
			break
		}
	}

	scores := make(map[string]float64, len(ids))
	for i, id := range ids {
		scores[id] = rank[i]
	}
	return scores
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
