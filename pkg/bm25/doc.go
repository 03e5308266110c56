// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bm25 implements Okapi BM25 lexical scoring over an in-memory
// document set (spec §4.6.3's BM25 leg of hybrid retrieval, and §4.7's
// episodeRecall/decisionQuery search). No example in the retrieval pack
// ships a ranking/search library (no Bleve, no Elasticsearch client); the
// whole corpus's text search is either a substring grep (pkg/tools'
// teacher-era grep.go) or a vector store. BM25 over a hand-built inverted
// index is the standard from-scratch approach and is small enough that
// reaching for an external dependency here would mean adopting a
// general-purpose search engine just to rank a few hundred in-memory
// documents - so this one corner of the retrieval stack is deliberately
// stdlib-only; see DESIGN.md.
package bm25
