// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package vector

import (
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"
)

// LocalEmbedder is the always-available embedding tier (§4.5): text
// features built from a symbol's kind, name, parameters, and path are
// mapped to a fixed-dimension vector via the hashing trick, each feature
// contributing a deterministic sign and unit magnitude to its hashed slot,
// then the whole vector is L2-normalized. Grounded on the teacher's
// pkg/ingestion.MockEmbeddingProvider deterministic-hash approach, widened
// from a single opaque text blob to named structural features so that two
// symbols sharing a kind, package path, or parameter type land closer in
// vector space than two random hashes of their full source text would.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder creates a local embedder producing dim-dimensional
// vectors. A non-positive dim defaults to 128, spec's default vectorDim.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 128
	}
	return &LocalEmbedder{dim: dim}
}

// Dim returns the embedder's output dimension.
func (l *LocalEmbedder) Dim() int {
	return l.dim
}

// Embed builds a deterministic embedding from a symbol's kind, name, path,
// and parameter type names. The same inputs always produce the same
// output vector (spec §8.1's parsing-determinism property extended to
// embedding generation).
func (l *LocalEmbedder) Embed(kind, name, path string, parameters []string) []float32 {
	v := make([]float32, l.dim)

	addFeature := func(feature string, weight float32) {
		if feature == "" {
			return
		}
		idx, sign := hashFeature(feature, l.dim)
		v[idx] += sign * weight
	}

	addFeature("kind:"+kind, 3.0)

	for _, tok := range splitIdentifier(name) {
		addFeature("name:"+tok, 2.0)
	}

	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		addFeature("path:"+seg, 1.0)
	}
	addFeature("ext:"+filepath.Ext(path), 1.0)

	for _, p := range parameters {
		for _, tok := range splitIdentifier(p) {
			addFeature("param:"+tok, 1.5)
		}
	}

	return l2Normalize(v)
}

// hashFeature maps a feature string to a vector slot and a deterministic
// sign, so semantically unrelated features are unlikely to cancel out
// systematically.
func hashFeature(feature string, dim int) (idx int, sign float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx = int(sum % uint64(dim))
	if sum&(1<<63) != 0 {
		sign = -1.0
	} else {
		sign = 1.0
	}
	return idx, sign
}

// splitIdentifier breaks a camelCase, PascalCase, or snake_case identifier
// into lowercase tokens, treating a run of uppercase letters followed by a
// lowercase one as an acronym boundary (e.g. "HTTPClient" -> "http",
// "client").
func splitIdentifier(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.':
			flush()
			continue
		case i > 0 && isUpper(r) && !isUpper(runes[i-1]):
			flush()
		case i > 0 && isUpper(r) && isUpper(runes[i-1]) && i+1 < len(runes) && isLower(runes[i+1]):
			flush()
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// l2Normalize scales v to unit length; the zero vector is returned as-is.
func l2Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
	return v
}
