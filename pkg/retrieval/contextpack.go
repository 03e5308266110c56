// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/kraklabs/graphmind/pkg/bm25"
	"github.com/kraklabs/graphmind/pkg/graph"
	"github.com/kraklabs/graphmind/pkg/shape"
)

// contextPackSeedLimit bounds how many hybrid-retrieval seed nodes expand
// into the pack, keeping the one-hop expansion from blowing up on a large
// graph before the response shaper gets a chance to trim it.
const contextPackSeedLimit = 15

var expansionEdges = []graph.EdgeKind{graph.EdgeContains, graph.EdgeReferences, graph.EdgeCalls, graph.EdgeDescribes}

// ActiveClaim is one CLAIM attached to a node in the assembled context.
type ActiveClaim struct {
	NodeID    string
	ClaimID   string
	ClaimType string
	Actor     string
	Intent    string
}

// Pack is context_pack's assembled result before response shaping.
type Pack struct {
	Summary        string
	EntryPoint     string
	CoreSymbols    []string
	ActiveBlockers []ActiveClaim
	Decisions      []*graph.Node
	Learnings      []*graph.Node
	PPRScores      map[string]float64
}

// BuildContextPack assembles the task-scoped summary spec §4.6.4 describes:
// hybrid-retrieval seeds, a one-hop expansion, attached active claims, and
// BM25-matched DECISION/LEARNING episodes.
func BuildContextPack(ctx context.Context, engine *Engine, idx *graph.Index, task string) *Pack {
	hits, _ := engine.Search(ctx, task, "", nil, contextPackSeedLimit)

	seen := make(map[string]bool, len(hits)*3)
	var core []string
	var entry string
	for _, h := range hits {
		if !seen[h.NodeID] {
			seen[h.NodeID] = true
			core = append(core, h.NodeID)
			if entry == "" {
				entry = h.NodeID
			}
		}
	}

	frontier := append([]string(nil), core...)
	for _, id := range frontier {
		for _, ek := range expansionEdges {
			for _, dst := range idx.Out(ek, id) {
				if !seen[dst] {
					seen[dst] = true
				}
			}
			for _, src := range idx.In(ek, id) {
				if !seen[src] {
					seen[src] = true
				}
			}
		}
	}

	var blockers []ActiveClaim
	for _, claim := range idx.AllCurrent(graph.KindClaim) {
		if graph.ClaimState(claim.Str("state")) != graph.ClaimActive {
			continue
		}
		target := claim.Str("targetId")
		if seen[target] {
			blockers = append(blockers, ActiveClaim{
				NodeID:    target,
				ClaimID:   claim.ID,
				ClaimType: claim.Str("claimType"),
				Actor:     claim.Str("actor"),
				Intent:    claim.Str("intent"),
			})
		}
	}
	sort.Slice(blockers, func(i, j int) bool { return blockers[i].ClaimID < blockers[j].ClaimID })

	decisions, learnings := matchingEpisodes(idx, task)
	ppr := PersonalizedPageRank(idx, core)

	return &Pack{
		Summary:        summarize(task, len(core), len(blockers)),
		EntryPoint:     entry,
		CoreSymbols:    core,
		ActiveBlockers: blockers,
		Decisions:      decisions,
		Learnings:      learnings,
		PPRScores:      ppr,
	}
}

func summarize(task string, coreCount, blockerCount int) string {
	s := "context for: " + task
	if blockerCount > 0 {
		s += " (has active claims in scope)"
	}
	_ = coreCount
	return s
}

func matchingEpisodes(idx *graph.Index, task string) (decisions, learnings []*graph.Node) {
	episodes := idx.AllCurrent(graph.KindEpisode)
	docs := make(map[string]string, len(episodes))
	byID := make(map[string]*graph.Node, len(episodes))
	for _, n := range episodes {
		t := graph.EpisodeType(n.Str("type"))
		if t != graph.EpisodeDecision && t != graph.EpisodeLearning {
			continue
		}
		docs[n.ID] = n.Str("content") + " " + n.Str("rationale")
		byID[n.ID] = n
	}
	if len(docs) == 0 {
		return nil, nil
	}
	results := bm25.NewIndex(docs).Search(task, len(docs))
	for _, r := range results {
		n := byID[r.DocID]
		if graph.EpisodeType(n.Str("type")) == graph.EpisodeDecision {
			decisions = append(decisions, n)
		} else {
			learnings = append(learnings, n)
		}
	}
	return decisions, learnings
}

// contextPackSchema sets the drop order: decisions, learnings and pprScores
// (Low) are dropped together first, then activeBlockers (Medium), then
// entryPoint/coreSymbols (High); summary is never dropped.
var contextPackSchema = shape.Schema{
	"summary":        shape.Required,
	"entryPoint":     shape.High,
	"coreSymbols":    shape.High,
	"activeBlockers": shape.Medium,
	"decisions":      shape.Low,
	"learnings":      shape.Low,
	"pprScores":      shape.Low,
}

// Shape renders p through the response shaper under profile's budget,
// preserving summary/entryPoint/coreSymbols longest by dropping
// decisions/learnings/pprScores first (spec §4.6.4 step 5).
func (p *Pack) Shape(profile shape.Profile, hint string) shape.Envelope {
	blockers := make([]any, len(p.ActiveBlockers))
	for i, b := range p.ActiveBlockers {
		blockers[i] = map[string]any{
			"nodeId": b.NodeID, "claimId": b.ClaimID, "claimType": b.ClaimType,
			"actor": b.Actor, "intent": b.Intent,
		}
	}
	decisions := make([]any, len(p.Decisions))
	for i, n := range p.Decisions {
		decisions[i] = map[string]any{"id": n.ID, "content": n.Str("content"), "rationale": n.Str("rationale")}
	}
	learnings := make([]any, len(p.Learnings))
	for i, n := range p.Learnings {
		learnings[i] = map[string]any{"id": n.ID, "content": n.Str("content")}
	}

	data := map[string]any{
		"summary":        p.Summary,
		"entryPoint":     p.EntryPoint,
		"coreSymbols":    p.CoreSymbols,
		"activeBlockers": blockers,
		"decisions":      decisions,
		"learnings":      learnings,
		"pprScores":      p.PPRScores,
	}
	return shape.Ok(profile, summaryLine(p), data, contextPackSchema, hint)
}

func summaryLine(p *Pack) string {
	parts := []string{p.Summary}
	if p.EntryPoint != "" {
		parts = append(parts, "entry: "+p.EntryPoint)
	}
	return strings.Join(parts, "; ")
}
