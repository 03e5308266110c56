// Copyright 2025 Graphmind Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"crypto/sha256"
	"encoding/base32"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
)

// ProjectFingerprint derives the deterministic 4-character base-36 project ID
// from an absolute workspace root path (spec §3.1, §6.3).
func ProjectFingerprint(absWorkspaceRoot string) string {
	normalized := normalizePath(absWorkspaceRoot)
	sum := sha256.Sum256([]byte(normalized))

	// Use the first 8 bytes of the hash as an unsigned integer and render it
	// in base-36, then left-pad/truncate to exactly 4 characters. Base-36
	// gives a dense alphanumeric fingerprint namespace (36^4 ~= 1.7M values)
	// while staying filesystem- and URL-safe.
	n := new(big.Int).SetBytes(sum[:8])
	base36 := n.Text(36)
	if len(base36) < 4 {
		base36 = strings.Repeat("0", 4-len(base36)) + base36
	}
	return base36[len(base36)-4:]
}

// normalizePath normalizes a path for hashing: forward slashes, no leading
// "./", no trailing slash, cleaned of redundant separators (spec §3.3
// "Path canonicalization"). Letter case is preserved.
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	return path
}

// localKey computes the localKey component of a scoped ID for a given node
// kind, following spec §3.1's per-kind rules.
func localKey(kind Kind, parts ...string) string {
	switch kind {
	case KindFile, KindDocument:
		return normalizePath(parts[0])
	case KindClass, KindFunction:
		// <relativePath>:<symbolName>[:<startLine>]
		rel, name := normalizePath(parts[0]), parts[1]
		if len(parts) > 2 && parts[2] != "" {
			return fmt.Sprintf("%s:%s:%s", rel, name, parts[2])
		}
		return fmt.Sprintf("%s:%s", rel, name)
	case KindTestCase:
		// <relativePath>:it:<startLine>:<name>
		rel, startLine, name := normalizePath(parts[0]), parts[1], parts[2]
		return fmt.Sprintf("%s:it:%s:%s", rel, startLine, name)
	case KindSection:
		// <relativePath>[#<sectionIndex>]
		rel := normalizePath(parts[0])
		if len(parts) > 1 && parts[1] != "" {
			return fmt.Sprintf("%s#%s", rel, parts[1])
		}
		return rel
	default:
		return strings.Join(parts, ":")
	}
}

// ScopedID builds the immutable `<projectId>:<kind>:<localKey>` identifier
// described in spec §3.1 for deterministic (non-opaque-UUID) node kinds.
func ScopedID(projectID string, kind Kind, parts ...string) string {
	return fmt.Sprintf("%s:%s:%s", projectID, strings.ToLower(string(kind)), localKey(kind, parts...))
}

// FileID builds a FILE node's scoped ID from its workspace-relative path.
func FileID(projectID, relPath string) string {
	return ScopedID(projectID, KindFile, relPath)
}

// DocumentID builds a DOCUMENT node's scoped ID from its workspace-relative path.
func DocumentID(projectID, relPath string) string {
	return ScopedID(projectID, KindDocument, relPath)
}

// SectionID builds a SECTION node's scoped ID.
func SectionID(projectID, relPath string, sectionIndex int) string {
	if sectionIndex == 0 {
		return ScopedID(projectID, KindSection, relPath)
	}
	return ScopedID(projectID, KindSection, relPath, fmt.Sprintf("%d", sectionIndex))
}

// FunctionID builds a FUNCTION node's scoped ID. startLine is included only
// when disambiguation is required by the caller (e.g. overloaded/anonymous
// functions at the same name); pass 0 to omit it.
func FunctionID(projectID, relPath, name string, startLine int) string {
	if startLine <= 0 {
		return ScopedID(projectID, KindFunction, relPath, name)
	}
	return ScopedID(projectID, KindFunction, relPath, name, fmt.Sprintf("%d", startLine))
}

// ClassID builds a CLASS node's scoped ID.
func ClassID(projectID, relPath, name string, startLine int) string {
	if startLine <= 0 {
		return ScopedID(projectID, KindClass, relPath, name)
	}
	return ScopedID(projectID, KindClass, relPath, name, fmt.Sprintf("%d", startLine))
}

// TestCaseID builds a TEST_CASE node's scoped ID.
func TestCaseID(projectID, relPath string, startLine int, name string) string {
	return ScopedID(projectID, KindTestCase, relPath, fmt.Sprintf("%d", startLine), name)
}

// opaqueEncoding is used only for deterministic test fixtures; production
// opaque IDs (episode/decision/claim/task) are minted with google/uuid.
var opaqueEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ContentHash computes the 64-char hex content hash required for every file
// regardless of size (spec §8.3).
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)
}

// deterministicOpaqueID is a helper for tests that need a reproducible
// "opaque" ID instead of a random UUID; production code mints UUIDs via
// github.com/google/uuid directly (see pkg/coordination).
func deterministicOpaqueID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return strings.ToLower(opaqueEncoding.EncodeToString(sum[:10]))
}
