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

import "fmt"

// ValidateEntities checks the cross-referential integrity of one rebuild's
// extracted entities before they are written to the graph store: every
// DEFINES edge's endpoints must exist among the parsed files/functions, and
// every CALLS edge's endpoints must resolve to a known function ID. This
// catches parser bugs (a malformed ID, a dangling edge) before they corrupt
// the store's containment closure invariant (spec §3.4 invariant #2).
func ValidateEntities(files []FileEntity, functions []FunctionEntity, defines []DefinesEdge, calls []CallsEdge) error {
	fileIDs := make(map[string]bool, len(files))
	for _, f := range files {
		if f.ID == "" {
			return fmt.Errorf("file entity with empty ID: path=%q", f.Path)
		}
		fileIDs[f.ID] = true
	}

	funcIDs := make(map[string]bool, len(functions))
	for _, fn := range functions {
		if fn.ID == "" {
			return fmt.Errorf("function entity with empty ID: name=%q path=%q", fn.Name, fn.FilePath)
		}
		funcIDs[fn.ID] = true
	}

	for _, d := range defines {
		if !fileIDs[d.FileID] {
			return fmt.Errorf("defines edge references unknown file ID %q", d.FileID)
		}
		if !funcIDs[d.FunctionID] {
			return fmt.Errorf("defines edge references unknown function ID %q", d.FunctionID)
		}
	}

	for _, c := range calls {
		if !funcIDs[c.CallerID] {
			return fmt.Errorf("calls edge references unknown caller ID %q", c.CallerID)
		}
		if !funcIDs[c.CalleeID] {
			return fmt.Errorf("calls edge references unknown callee ID %q", c.CalleeID)
		}
	}

	return nil
}
