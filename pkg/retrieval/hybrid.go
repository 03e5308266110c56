// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"context"
	"sort"

	"github.com/kraklabs/graphmind/pkg/bm25"
	"github.com/kraklabs/graphmind/pkg/graph"
	"github.com/kraklabs/graphmind/pkg/vector"
)

// rrfK is spec §4.6.3's fixed Reciprocal Rank Fusion constant.
const rrfK = 60

// QueryEmbedder matches pkg/ingestion.EmbeddingProvider's shape structurally
// so retrieval can embed a free-text query without importing pkg/ingestion
// (which would otherwise create an ingestion <-> retrieval import cycle once
// ingestion's pipeline starts calling into retrieval for post-rebuild
// archvalidate/contextPack hooks).
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hit is one fused hybrid-retrieval result.
type Hit struct {
	NodeID string
	Score  float64
}

// Engine runs hybrid retrieval (spec §4.6.3) over one session's graph and
// vector store.
type Engine struct {
	idx       *graph.Index
	vectors   *vector.Store
	embedder  QueryEmbedder
	projectID string
}

// NewEngine builds a hybrid retrieval engine. embedder may be nil, in which
// case the vector ranker is skipped (spec's "vector store down" degradation
// path).
func NewEngine(idx *graph.Index, vectors *vector.Store, embedder QueryEmbedder, projectID string) *Engine {
	return &Engine{idx: idx, vectors: vectors, embedder: embedder, projectID: projectID}
}

// Contributions records which sub-rankers actually produced a ranked list,
// for the response shaper's hint field.
type Contributions struct {
	Vector   bool
	Lexical  bool
	PageRank bool
}

// Search fuses vector similarity, BM25, and Personalized PageRank into one
// ranked list capped at limit. seedIDs personalizes PageRank (falls back to
// the top vector hits, then to an unpersonalized walk, if empty). kind
// selects the vector collection to search; pass "" to skip the vector leg
// entirely (e.g. for text not naturally tied to one collection).
func (e *Engine) Search(ctx context.Context, query string, kind vector.Kind, seedIDs []string, limit int) ([]Hit, Contributions) {
	var contrib Contributions
	rankings := make([][]string, 0, 3)

	docs := e.textCorpus(kind)
	if len(docs) > 0 {
		lex := bm25.NewIndex(docs).Search(query, max(limit*3, 50))
		if len(lex) > 0 {
			ids := make([]string, len(lex))
			for i, r := range lex {
				ids[i] = r.DocID
			}
			rankings = append(rankings, ids)
			contrib.Lexical = true
		}
	}

	var vecIDs []string
	if e.embedder != nil && e.vectors != nil && kind != "" {
		if qv, err := e.embedder.Embed(ctx, query); err == nil {
			if results, _, err := e.vectors.FindSimilar(ctx, kind, qv, max(limit*3, 50), e.projectID); err == nil && len(results) > 0 {
				vecIDs = make([]string, len(results))
				for i, r := range results {
					vecIDs[i] = r.ScopedID
				}
				rankings = append(rankings, vecIDs)
				contrib.Vector = true
			}
		}
	}

	seeds := seedIDs
	if len(seeds) == 0 {
		if len(vecIDs) > 0 {
			n := 5
			if len(vecIDs) < n {
				n = len(vecIDs)
			}
			seeds = vecIDs[:n]
		}
	}
	if ppr := PersonalizedPageRank(e.idx, seeds); len(ppr) > 0 {
		type scored struct {
			id    string
			score float64
		}
		list := make([]scored, 0, len(ppr))
		for id, s := range ppr {
			list = append(list, scored{id, s})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].score != list[j].score {
				return list[i].score > list[j].score
			}
			return list[i].id < list[j].id
		})
		n := max(limit*3, 50)
		if n > len(list) {
			n = len(list)
		}
		ids := make([]string, n)
		for i := 0; i < n; i++ {
			ids[i] = list[i].id
		}
		rankings = append(rankings, ids)
		contrib.PageRank = true
	}

	hits := reciprocalRankFusion(rankings, limit)
	return hits, contrib
}

// textCorpus builds the BM25 document set over node text fields (name,
// description, path, section headings) for the node kind(s) kind implies;
// kind=="" searches every text-bearing kind.
func (e *Engine) textCorpus(kind vector.Kind) map[string]string {
	var kinds []graph.Kind
	switch kind {
	case vector.KindFunctions:
		kinds = []graph.Kind{graph.KindFunction}
	case vector.KindClasses:
		kinds = []graph.Kind{graph.KindClass}
	case vector.KindFiles:
		kinds = []graph.Kind{graph.KindFile}
	case vector.KindSections:
		kinds = []graph.Kind{graph.KindSection, graph.KindDocument}
	default:
		kinds = []graph.Kind{graph.KindFile, graph.KindFunction, graph.KindClass, graph.KindSection, graph.KindDocument}
	}

	docs := make(map[string]string)
	for _, k := range kinds {
		for _, n := range e.idx.AllCurrent(k) {
			docs[n.ID] = n.Str("name") + " " + n.Str("description") + " " + n.Str("filePath") + " " + n.Str("heading")
		}
	}
	return docs
}

// reciprocalRankFusion combines any number of ranked ID lists into one list
// ordered by sum(1/(k+rank)) across the lists that contain each ID, per
// spec §4.6.3 / glossary "Hybrid retrieval".
func reciprocalRankFusion(rankings [][]string, limit int) []Hit {
	scores := make(map[string]float64)
	for _, ranking := range rankings {
		for rank, id := range ranking {
			scores[id] += 1.0 / float64(rrfK+rank+1)
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, s := range scores {
		hits = append(hits, Hit{NodeID: id, Score: s})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NodeID < hits[j].NodeID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
