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
	"bytes"
	"os"

	"github.com/kraklabs/graphmind/pkg/graph"
)

// readFileContent reads a source file's full content. Extracted as its own
// function so tests can exercise ParseFile against synthetic FileInfo values
// pointing at temp-dir fixtures.
func readFileContent(fullPath string) ([]byte, error) {
	return os.ReadFile(fullPath)
}

// countLines counts newline-delimited lines, matching the `loc` attribute
// spec §3.2 requires on every FILE node. A trailing partial line (no final
// newline) still counts, matching common line-count tooling.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// contentHashHex computes the FILE node's contentHash attribute (spec §3.2,
// §8.3: required regardless of file size). Delegates to pkg/graph so the
// ingestion pipeline and the graph index agree on exactly one hash function.
func contentHashHex(content []byte) string {
	return graph.ContentHash(content)
}
