// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_DeterministicAndNormalized(t *testing.T) {
	e := NewLocalEmbedder(64)

	v1 := e.Embed("function", "ParseGoSignatureParams", "pkg/ingestion/sigparse.go", []string{"signature string"})
	v2 := e.Embed("function", "ParseGoSignatureParams", "pkg/ingestion/sigparse.go", []string{"signature string"})

	require.Len(t, v1, 64)
	assert.Equal(t, v1, v2)

	var normSq float64
	for _, x := range v1 {
		normSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(normSq), 1e-6)
}

func TestLocalEmbedder_DifferentInputsProduceDifferentVectors(t *testing.T) {
	e := NewLocalEmbedder(64)

	v1 := e.Embed("function", "Foo", "a.go", nil)
	v2 := e.Embed("function", "Bar", "b.go", nil)

	assert.NotEqual(t, v1, v2)
}

func TestLocalEmbedder_DefaultDimension(t *testing.T) {
	e := NewLocalEmbedder(0)
	assert.Equal(t, 128, e.Dim())

	e = NewLocalEmbedder(-10)
	assert.Equal(t, 128, e.Dim())
}

func TestSplitIdentifier(t *testing.T) {
	assert.Equal(t, []string{"parse", "go", "signature", "params"}, splitIdentifier("ParseGoSignatureParams"))
	assert.Equal(t, []string{"my", "var", "name"}, splitIdentifier("my_var_name"))
	assert.Equal(t, []string{"http", "client"}, splitIdentifier("HTTPClient"))
}
