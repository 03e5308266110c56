// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package vector

import "hash/fnv"

// PointID derives the unsigned 32-bit point ID the vector store sees from a
// scoped node ID. The store's id field is treated as opaque (§4.5); the
// original scoped ID always travels in the point payload as "originalId"
// so a search result resolves back to a graph node without reversing this
// hash.
func PointID(scopedID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(scopedID))
	return h.Sum32()
}
