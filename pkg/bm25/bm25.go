// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package bm25

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// k1 and b are the standard Okapi BM25 tuning constants.
const (
	k1 = 1.2
	b  = 0.75
)

var tokenRE = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokenize lowercases and splits text on non-alphanumeric runs, the same
// coarse tokenization used for every document added to an Index.
func Tokenize(text string) []string {
	matches := tokenRE.FindAllString(strings.ToLower(text), -1)
	return matches
}

// Index is an in-memory inverted index over a fixed document set, built
// fresh per query in practice (rebuilds are cheap at the node counts this
// server handles) rather than incrementally maintained.
type Index struct {
	docs       map[string][]string   // docID -> tokens
	docLen     map[string]int        // docID -> len(tokens)
	postings   map[string]map[string]int // token -> docID -> term frequency
	totalLen   int
	avgDocLen  float64
}

// NewIndex builds a BM25 index over docs (docID -> raw text).
func NewIndex(docs map[string]string) *Index {
	idx := &Index{
		docs:     make(map[string][]string, len(docs)),
		docLen:   make(map[string]int, len(docs)),
		postings: make(map[string]map[string]int),
	}
	for id, text := range docs {
		tokens := Tokenize(text)
		idx.docs[id] = tokens
		idx.docLen[id] = len(tokens)
		idx.totalLen += len(tokens)

		seen := make(map[string]int, len(tokens))
		for _, t := range tokens {
			seen[t]++
		}
		for t, tf := range seen {
			m, ok := idx.postings[t]
			if !ok {
				m = make(map[string]int)
				idx.postings[t] = m
			}
			m[id] = tf
		}
	}
	if len(docs) > 0 {
		idx.avgDocLen = float64(idx.totalLen) / float64(len(docs))
	}
	return idx
}

// Result is one scored document from a Search call.
type Result struct {
	DocID string
	Score float64
}

// Search scores every document containing at least one query term and
// returns the results sorted by descending score (ties broken by docID for
// determinism), truncated to limit (0 or negative means unlimited).
func (idx *Index) Search(query string, limit int) []Result {
	n := len(idx.docs)
	if n == 0 {
		return nil
	}
	terms := Tokenize(query)
	scores := make(map[string]float64)

	for _, term := range terms {
		posting, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := len(posting)
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		for docID, tf := range posting {
			dl := float64(idx.docLen[docID])
			denom := float64(tf) + k1*(1-b+b*dl/idx.avgDocLen)
			scores[docID] += idf * (float64(tf) * (k1 + 1)) / denom
		}
	}

	results := make([]Result, 0, len(scores))
	for id, s := range scores {
		if s <= 0 {
			continue
		}
		results = append(results, Result{DocID: id, Score: s})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
