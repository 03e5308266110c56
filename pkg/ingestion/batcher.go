// Copyright 2025 Graphmind Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import "github.com/kraklabs/graphmind/pkg/graph"

// Batcher splits one rebuild's nodes/edges into bounded-size groups for
// storage.Backend.WriteBatch, so a single oversized project never produces
// one multi-hundred-thousand-entity call that could exceed a backend's
// transaction limits. Each batch targets targetEntities total nodes+edges.
type Batcher struct {
	targetEntities int
}

// NewBatcher creates a batcher targeting the given entity count per batch.
// A non-positive target falls back to the default of 5000 entities per batch.
func NewBatcher(targetEntities int) *Batcher {
	if targetEntities <= 0 {
		targetEntities = 5000
	}
	return &Batcher{targetEntities: targetEntities}
}

// WriteBatch is one bounded group of nodes and edges destined for a single
// storage.Backend.WriteBatch call.
type WriteBatch struct {
	Nodes []*graph.Node
	Edges []graph.Edge
}

// Batch groups nodes and edges into WriteBatch chunks. Nodes are chunked
// first (edges reference nodes by ID, not by batch membership, so it is
// always safe for an edge to land in an earlier or later batch than either
// endpoint's node - the backend's WriteBatch is not required to see both
// endpoints in the same call).
func (b *Batcher) Batch(nodes []*graph.Node, edges []graph.Edge) []WriteBatch {
	if len(nodes) == 0 && len(edges) == 0 {
		return nil
	}

	var batches []WriteBatch
	var cur WriteBatch

	flush := func() {
		if len(cur.Nodes) > 0 || len(cur.Edges) > 0 {
			batches = append(batches, cur)
			cur = WriteBatch{}
		}
	}

	for _, n := range nodes {
		if len(cur.Nodes)+len(cur.Edges) >= b.targetEntities {
			flush()
		}
		cur.Nodes = append(cur.Nodes, n)
	}
	for _, e := range edges {
		if len(cur.Nodes)+len(cur.Edges) >= b.targetEntities {
			flush()
		}
		cur.Edges = append(cur.Edges, e)
	}
	flush()

	return batches
}
