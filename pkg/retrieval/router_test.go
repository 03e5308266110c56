// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_CypherPassthrough(t *testing.T) {
	c := Classify("MATCH (n:FILE) RETURN n.filePath")
	assert.Equal(t, IntentCypher, c.Intent)
	assert.Contains(t, c.Cypher, "MATCH")
}

func TestClassify_Structure(t *testing.T) {
	c := Classify("list all functions in this repo")
	assert.Equal(t, IntentStructure, c.Intent)
	assert.NotEmpty(t, c.Cypher)
}

func TestClassify_Dependency(t *testing.T) {
	c := Classify("what depends on auth.go")
	assert.Equal(t, IntentDependency, c.Intent)
}

func TestClassify_TestImpact(t *testing.T) {
	c := Classify("tests for parser.go")
	assert.Equal(t, IntentTestImpact, c.Intent)
}

func TestClassify_Progress(t *testing.T) {
	c := Classify("what tasks are blocked")
	assert.Equal(t, IntentProgress, c.Intent)
}

func TestClassify_FallsBackToSemantic(t *testing.T) {
	c := Classify("how does the retry backoff work")
	assert.Equal(t, IntentSemantic, c.Intent)
}
