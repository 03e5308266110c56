// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_RanksMoreRelevantDocHigher(t *testing.T) {
	idx := NewIndex(map[string]string{
		"a": "parse the markdown document into pages",
		"b": "the quick brown fox jumps over the lazy dog",
		"c": "markdown parsing handles sections and headings",
	})

	results := idx.Search("markdown sections", 0)
	require.NotEmpty(t, results)
	assert.Equal(t, "c", results[0].DocID)
	for _, r := range results {
		assert.NotEqual(t, "b", r.DocID)
	}
}

func TestSearch_RespectsLimit(t *testing.T) {
	idx := NewIndex(map[string]string{
		"a": "graph node file",
		"b": "graph node file",
		"c": "graph node file",
	})
	results := idx.Search("graph node", 2)
	assert.Len(t, results, 2)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, idx.Search("anything", 0))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"http_client", "v2"}, Tokenize("HTTP_Client-v2"))
}
