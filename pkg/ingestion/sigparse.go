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

import "strings"

// ParamInfo holds a parsed parameter's name and base type.
type ParamInfo struct {
	Name string
	Type string
}

// ParseGoSignatureParams parses a Go function or method signature string and
// returns the parameter names and their normalized base types. A method
// receiver, if present, is excluded.
func ParseGoSignatureParams(signature string) []ParamInfo {
	paramStr := ExtractParamString(signature)
	if paramStr == "" {
		return nil
	}

	var params []ParamInfo
	var pendingNames []string
	for _, field := range splitTopLevel(paramStr, ',') {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		name, typ, ok := splitNameAndType(field)
		if !ok {
			// A grouped name sharing a following type, e.g. "a, b int".
			pendingNames = append(pendingNames, field)
			continue
		}

		normalized := NormalizeType(typ)
		for _, n := range pendingNames {
			params = append(params, ParamInfo{Name: n, Type: normalized})
		}
		pendingNames = nil
		params = append(params, ParamInfo{Name: name, Type: normalized})
	}

	return params
}

// ExtractParamString extracts the substring between the parentheses of a
// function's parameter list, skipping a leading method receiver group if
// one is present. Returns "" for a zero-arg function or an empty signature.
func ExtractParamString(signature string) string {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "func")
	signature = strings.TrimSpace(signature)

	groups := topLevelParenGroups(signature)
	if len(groups) == 0 {
		return ""
	}

	g := groups[0]
	content := strings.TrimSpace(signature[g[0]+1 : g[1]])
	if len(groups) > 1 && g[0] == 0 && looksLikeReceiver(content) {
		g = groups[1]
		content = strings.TrimSpace(signature[g[0]+1 : g[1]])
	}
	return content
}

// NormalizeType strips pointer, slice, and variadic markers and any package
// qualifier down to the bare type name. A function-typed parameter (e.g.
// "func(int) error") normalizes to the literal "func".
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "...")
	for strings.HasPrefix(t, "*") || strings.HasPrefix(t, "[]") {
		t = strings.TrimPrefix(t, "*")
		t = strings.TrimPrefix(t, "[]")
	}

	if strings.HasPrefix(t, "func(") {
		return "func"
	}

	if idx := strings.LastIndex(t, "."); idx >= 0 {
		t = t[idx+1:]
	}

	return t
}

// topLevelParenGroups returns the byte-offset spans of every top-level
// "(...)" group in s, in order.
func topLevelParenGroups(s string) [][2]int {
	var groups [][2]int
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				groups = append(groups, [2]int{start, i})
				start = -1
			}
		}
	}
	return groups
}

// looksLikeReceiver reports whether a parenthesized group's contents look
// like a method receiver ("r *Type" or "r Type") rather than a parameter
// list: exactly one field with a name and a type, no comma.
func looksLikeReceiver(group string) bool {
	group = strings.TrimSpace(group)
	if group == "" || strings.Contains(group, ",") {
		return false
	}
	_, _, ok := splitNameAndType(group)
	return ok
}

// splitNameAndType splits a single parameter field ("name Type" or
// "name *Type") into its name and type. Returns ok=false for a field with
// no name, such as a grouped parameter awaiting its type ("a" in "a, b int").
func splitNameAndType(field string) (name, typ string, ok bool) {
	field = strings.TrimSpace(field)
	idx := strings.IndexAny(field, " \t")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(field[:idx]), strings.TrimSpace(field[idx+1:]), true
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// parentheses or brackets (so "fn func(int) error, val int" splits into two
// fields rather than three).
func splitTopLevel(s string, sep byte) []string {
	var fields []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				fields = append(fields, s[last:i])
				last = i + 1
			}
		}
	}
	fields = append(fields, s[last:])
	return fields
}
