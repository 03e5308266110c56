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

import (
	"regexp"
	"strings"
)

// tsImportRE matches ES module import/export-from and bare side-effect
// imports: `import x from '...'`, `import {a, b} from "..."`,
// `import * as ns from '...'`, `export {a} from '...'`, `import '...'`.
var tsImportRE = regexp.MustCompile(`(?m)^\s*(?:import|export)\s+(?:([\w$]+)\s*,?\s*)?(?:\*\s*as\s+([\w$]+)\s*,?\s*)?(?:\{([^}]*)\}\s*)?(?:from\s+)?['"]([^'"]+)['"]`)

// tsRequireRE matches CommonJS `require('...')` calls.
var tsRequireRE = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)

// extractTSImports extracts import specifiers from TypeScript/JavaScript
// source using line-oriented regexes (tree-sitter's TS grammar is used only
// for symbol extraction; imports are resolved later by specifier string, so
// a full AST walk buys nothing extra here).
func extractTSImports(content []byte, filePath string) []ImportEntity {
	var imports []ImportEntity

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lineNum := i + 1

		if m := tsImportRE.FindStringSubmatch(line); m != nil {
			specifier := m[4]
			alias := m[1]
			if alias == "" {
				alias = m[2]
			}
			var specifiers []string
			if m[3] != "" {
				specifiers = splitNamedImports(m[3])
			}
			imports = append(imports, ImportEntity{
				ID:         GenerateImportID(filePath, specifier),
				FilePath:   filePath,
				ImportPath: specifier,
				Specifiers: specifiers,
				Alias:      alias,
				StartLine:  lineNum,
			})
			continue
		}

		if m := tsRequireRE.FindStringSubmatch(line); m != nil {
			specifier := m[1]
			imports = append(imports, ImportEntity{
				ID:         GenerateImportID(filePath, specifier),
				FilePath:   filePath,
				ImportPath: specifier,
				StartLine:  lineNum,
			})
		}
	}

	return imports
}

func splitNamedImports(raw string) []string {
	var out []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		// "Foo as Bar" -> keep the local alias name
		if idx := strings.Index(piece, " as "); idx >= 0 {
			piece = strings.TrimSpace(piece[idx+4:])
		}
		out = append(out, piece)
	}
	return out
}
