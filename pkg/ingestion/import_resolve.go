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
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"path"
	"strings"
)

// tsCandidateExtensions are probed, in order, against a relative import
// specifier with its extension stripped (spec §4.3 Phase 5).
var tsCandidateExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// tsIndexCandidates are probed against the specifier treated as a directory,
// i.e. `./foo` resolving to `./foo/index.ts`.
var tsIndexCandidates = []string{"index.ts", "index.tsx", "index.js", "index.jsx"}

// ResolveImportTarget resolves a single IMPORT node to the workspace-relative
// path of the file it references, or "" if no candidate exists in
// filesByPath (spec §3.4 invariant 5: a REFERENCES edge is only contributed
// for imports that resolve against files present in the graph at rebuild
// time; this function is the probe, the pipeline decides the edge).
//
// Only relative specifiers ("./x", "../x") are resolvable against the
// workspace; bare specifiers ("react", "lodash/fp") are npm-package
// references and never produce a REFERENCES edge.
//
// Trailing ".js"/".jsx" must be stripped from the specifier before probing:
// a node16/bundler-resolution codebase writes `import "./foo.js"` for a
// source file that is actually "./foo.ts", and probing the literal
// specifier first would find nothing (or the wrong sibling) every time.
func ResolveImportTarget(importerPath, specifier string, filesByPath map[string]bool) string {
	if !strings.HasPrefix(specifier, ".") {
		return ""
	}

	stripped := specifier
	switch {
	case strings.HasSuffix(stripped, ".js"):
		stripped = strings.TrimSuffix(stripped, ".js")
	case strings.HasSuffix(stripped, ".jsx"):
		stripped = strings.TrimSuffix(stripped, ".jsx")
	}

	base := path.Join(path.Dir(importerPath), stripped)

	for _, ext := range tsCandidateExtensions {
		candidate := base + ext
		if filesByPath[candidate] {
			return candidate
		}
	}
	for _, idx := range tsIndexCandidates {
		candidate := path.Join(base, idx)
		if filesByPath[candidate] {
			return candidate
		}
	}
	// The stripped specifier might already carry the correct extension
	// (e.g. a .proto or other non-JS import written verbatim).
	if filesByPath[base] {
		return base
	}
	return ""
}
