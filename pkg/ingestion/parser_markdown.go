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
	"regexp"
	"strings"
)

var (
	prefixHeadingRE   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	underlineH1RE     = regexp.MustCompile(`^=+\s*$`)
	underlineH2RE     = regexp.MustCompile(`^-+\s*$`)
	backtickRefRE     = regexp.MustCompile("`([^`]+)`")
	markdownLinkRE    = regexp.MustCompile(`\[[^\]]*\]\(([^)]+)\)`)
	codeFenceMarkerRE = regexp.MustCompile("^```\\s*([a-zA-Z0-9_+-]*)\\s*$")
)

// buildingSection accumulates a SECTION node's word/link/fence counts while
// the file is scanned line by line.
type buildingSection struct {
	entity SectionEntity
}

// parseMarkdownFile produces the DOCUMENT + SECTION nodes for one markdown
// file (spec §4.2): heading detection recognizes both prefix (#..###) and
// underline (===/---) forms; H4+ headings become body content of the
// nearest ancestor section instead of new SECTION nodes; code fences are
// tracked (language tag + first content line) and heading-like lines inside
// a fence are ignored; a document with no headings gets one implicit root
// section (empty heading, level 1).
func parseMarkdownFile(file FileEntity, content []byte) (*ParseResult, error) {
	lines := strings.Split(string(content), "\n")

	var sections []buildingSection
	current := &buildingSection{entity: SectionEntity{FilePath: file.Path, Heading: "", Level: 1, StartLine: 1}}
	sections = append(sections, *current)
	curIdx := 0

	inFence := false
	var fenceLang, fenceFirstLine string
	fenceJustOpened := false

	flushFence := func() {
		if fenceLang != "" || fenceFirstLine != "" {
			sections[curIdx].entity.CodeFences = append(sections[curIdx].entity.CodeFences, CodeFenceRef{
				Language:  fenceLang,
				FirstLine: fenceFirstLine,
			})
		}
		fenceLang, fenceFirstLine = "", ""
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := codeFenceMarkerRE.FindStringSubmatch(line); m != nil {
			if inFence {
				flushFence()
				inFence = false
			} else {
				inFence = true
				fenceJustOpened = true
				fenceLang = m[1]
			}
			continue
		}
		if inFence {
			if fenceJustOpened {
				fenceFirstLine = line
				fenceJustOpened = false
			}
			countSectionLine(&sections[curIdx].entity, line)
			continue
		}

		if m := prefixHeadingRE.FindStringSubmatch(line); m != nil {
			level := len(m[1])
			heading := strings.TrimSpace(m[2])
			if level <= 3 {
				sections = append(sections, buildingSection{entity: SectionEntity{
					FilePath:  file.Path,
					Heading:   heading,
					Level:     level,
					StartLine: i + 1,
				}})
				curIdx = len(sections) - 1
				continue
			}
			// H4+: stays in the current section as body content.
			countSectionLine(&sections[curIdx].entity, line)
			continue
		}

		// Underline headings reclassify the *previous* non-blank line.
		if i > 0 && strings.TrimSpace(lines[i-1]) != "" {
			if underlineH1RE.MatchString(line) {
				heading := strings.TrimSpace(lines[i-1])
				sections = append(sections, buildingSection{entity: SectionEntity{
					FilePath:  file.Path,
					Heading:   heading,
					Level:     1,
					StartLine: i,
				}})
				curIdx = len(sections) - 1
				continue
			}
			if underlineH2RE.MatchString(line) {
				heading := strings.TrimSpace(lines[i-1])
				sections = append(sections, buildingSection{entity: SectionEntity{
					FilePath:  file.Path,
					Heading:   heading,
					Level:     2,
					StartLine: i,
				}})
				curIdx = len(sections) - 1
				continue
			}
		}

		countSectionLine(&sections[curIdx].entity, line)
	}
	if inFence {
		flushFence()
	}

	doc := &DocumentEntity{
		ID:       GenerateFileID(file.Path),
		FilePath: file.Path,
		Kind:     classifyDocumentKind(file.Path),
		Title:    documentTitle(sections),
		Hash:     file.ContentHash,
	}

	totalWords := 0
	for _, s := range sections {
		s.entity.ID = GenerateTypeID(file.Path, s.entity.Heading, s.entity.StartLine, s.entity.StartLine)
		totalWords += s.entity.WordCount
		doc.Sections = append(doc.Sections, s.entity)
	}
	doc.WordCount = totalWords

	return &ParseResult{File: file, Document: doc}, nil
}

// countSectionLine folds one non-heading, non-fence line's words, backtick
// references, and markdown links into the section currently being built.
func countSectionLine(s *SectionEntity, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	s.WordCount += len(strings.Fields(trimmed))
	for _, m := range backtickRefRE.FindAllStringSubmatch(line, -1) {
		s.BacktickRefs = append(s.BacktickRefs, m[1])
	}
	for _, m := range markdownLinkRE.FindAllStringSubmatch(line, -1) {
		s.Links = append(s.Links, m[1])
	}
}

func documentTitle(sections []buildingSection) string {
	for _, s := range sections {
		if s.entity.Heading != "" {
			return s.entity.Heading
		}
	}
	return ""
}

// classifyDocumentKind maps a doc's path/filename to spec §3.2's DOCUMENT
// kind enum.
func classifyDocumentKind(p string) string {
	lower := strings.ToLower(p)
	base := lower
	if idx := strings.LastIndex(lower, "/"); idx >= 0 {
		base = lower[idx+1:]
	}
	switch {
	case base == "readme.md" || base == "readme":
		return "readme"
	case strings.Contains(lower, "changelog"):
		return "changelog"
	case strings.Contains(lower, "/adr/") || strings.HasPrefix(base, "adr-"):
		return "adr"
	case strings.Contains(lower, "architecture"):
		return "architecture"
	case strings.Contains(lower, "guide") || strings.Contains(lower, "/docs/"):
		return "guide"
	default:
		return "other"
	}
}
