// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package vector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
)

// Kind names one of the spec's vector collections. All collections use
// cosine distance over a fixed dimension.
type Kind string

const (
	KindFunctions Kind = "functions"
	KindClasses   Kind = "classes"
	KindFiles     Kind = "files"
	KindSections  Kind = "sections"
)

// Point is one embeddable entity offered to the store for upsert.
type Point struct {
	ScopedID  string
	ProjectID string
	Text      string
	Embedding []float32
	Payload   map[string]string
}

// SearchResult is one resolved hit from Search or FindSimilar: the original
// scoped node ID (never the store's opaque point ID) and its similarity
// score.
type SearchResult struct {
	ScopedID string
	Score    float32
	Payload  map[string]string
}

type liveEmbedding struct {
	projectID string
	embedding []float32
}

// Store is the embedded vector subsystem (C5): a chromem-go collection per
// Kind, fronted by the HTTP-store-shaped contract spec §6.4 describes. The
// zero value is not usable; construct with NewStore.
type Store struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collections map[Kind]*chromem.Collection
	// live mirrors, per kind, the scoped IDs currently embedded — used to
	// detect ghost points on read and to serve the in-process cosine
	// fallback when the store is unreachable or every store hit is a ghost.
	live   map[Kind]map[string]liveEmbedding
	logger *slog.Logger
}

// NewStore creates an empty, in-process vector store. Collections are
// created on demand and that creation is idempotent (§4.5).
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:          chromem.NewDB(),
		collections: make(map[Kind]*chromem.Collection),
		live:        make(map[Kind]map[string]liveEmbedding),
		logger:      logger,
	}
}

// noEmbeddingFunc rejects any attempt to have chromem-go compute an
// embedding itself: every document graphmind adds already carries a
// precomputed vector from pkg/ingestion.EmbeddingGenerator or LocalEmbedder,
// and every query is issued via QueryEmbedding with a precomputed query
// vector, so this function is never expected to run.
func noEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("vector: embeddings must be precomputed, got a request to compute one")
}

func (s *Store) ensureCollection(kind Kind) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[kind]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(string(kind), nil, noEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("vector: create collection %s: %w", kind, err)
	}
	s.collections[kind] = c
	s.live[kind] = make(map[string]liveEmbedding)
	return c, nil
}

// PurgeProject deletes every point belonging to projectID from a
// collection. The pipeline calls this before upserting a rebuild's fresh
// batch, so ghost points from a prior run that assigned different IDs to
// the same scoped node never accumulate (§4.5).
func (s *Store) PurgeProject(ctx context.Context, kind Kind, projectID string) error {
	c, err := s.ensureCollection(kind)
	if err != nil {
		return err
	}
	if c.Count() > 0 {
		if err := c.Delete(ctx, map[string]string{"projectId": projectID}, nil); err != nil {
			return fmt.Errorf("vector: purge project %s from %s: %w", projectID, kind, err)
		}
	}

	s.mu.Lock()
	for id, e := range s.live[kind] {
		if e.projectID == projectID {
			delete(s.live[kind], id)
		}
	}
	s.mu.Unlock()
	return nil
}

// Upsert writes a batch of points to a collection. Point IDs passed to the
// store are deterministic hashes of ScopedID (vector.PointID); the original
// scoped ID travels in the payload as "originalId" for round-trip recovery.
func (s *Store) Upsert(ctx context.Context, kind Kind, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	c, err := s.ensureCollection(kind)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(points))
	s.mu.Lock()
	for _, p := range points {
		if len(p.Embedding) == 0 {
			continue
		}
		payload := map[string]string{
			"originalId": p.ScopedID,
			"projectId":  p.ProjectID,
		}
		for k, v := range p.Payload {
			payload[k] = v
		}
		docs = append(docs, chromem.Document{
			ID:        strconv.FormatUint(uint64(PointID(p.ScopedID)), 10),
			Content:   p.Text,
			Embedding: p.Embedding,
			Metadata:  payload,
		})
		s.live[kind][p.ScopedID] = liveEmbedding{projectID: p.ProjectID, embedding: p.Embedding}
	}
	s.mu.Unlock()

	if len(docs) == 0 {
		return nil
	}
	if err := c.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("vector: upsert %d points into %s: %w", len(docs), kind, err)
	}
	return nil
}

// FindSimilar implements the search contract of §4.5: issue a store search
// filtered to projectID, resolve each hit's originalId against the current
// in-memory embedding map, and drop any hit whose originalId is no longer
// live (a ghost point). If every hit is a ghost, or the store call itself
// fails, fall back to an in-process cosine search over the current map.
func (s *Store) FindSimilar(ctx context.Context, kind Kind, queryEmbedding []float32, k int, projectID string) ([]SearchResult, bool, error) {
	results, err := s.storeSearch(ctx, kind, queryEmbedding, k, projectID)
	if err != nil {
		s.logger.Warn("vector.store_unreachable", "kind", kind, "error", err)
		return s.fallbackSearch(kind, queryEmbedding, k, projectID), false, nil
	}
	if len(results) == 0 {
		return s.fallbackSearch(kind, queryEmbedding, k, projectID), false, nil
	}
	return results, true, nil
}

func (s *Store) storeSearch(ctx context.Context, kind Kind, queryEmbedding []float32, k int, projectID string) ([]SearchResult, error) {
	c, err := s.ensureCollection(kind)
	if err != nil {
		return nil, err
	}
	count := c.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}

	// Overfetch: some hits may resolve to ghost points and be dropped.
	n := k * 3
	if n > count {
		n = count
	}

	docs, err := c.QueryEmbedding(ctx, queryEmbedding, n, map[string]string{"projectId": projectID}, nil)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	live := s.live[kind]
	out := make([]SearchResult, 0, k)
	for _, d := range docs {
		originalID := d.Metadata["originalId"]
		if _, ok := live[originalID]; !ok {
			continue
		}
		out = append(out, SearchResult{ScopedID: originalID, Score: d.Similarity, Payload: d.Metadata})
		if len(out) >= k {
			break
		}
	}
	s.mu.RUnlock()
	return out, nil
}

// fallbackSearch runs an in-process cosine search over the current
// embedding map, used when the store is unreachable or returned nothing
// but ghosts.
func (s *Store) fallbackSearch(kind Kind, queryEmbedding []float32, k int, projectID string) []SearchResult {
	if k <= 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id    string
		score float32
	}
	var candidates []scored
	for id, e := range s.live[kind] {
		if e.projectID != projectID {
			continue
		}
		candidates = append(candidates, scored{id: id, score: cosineSimilarity(queryEmbedding, e.embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]SearchResult, len(candidates))
	for i, c := range candidates {
		out[i] = SearchResult{ScopedID: c.id, Score: c.score}
	}
	return out
}

// Count returns the number of live points tracked for a collection,
// across all projects.
func (s *Store) Count(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.live[kind])
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
