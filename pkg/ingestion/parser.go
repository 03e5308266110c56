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
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// defaultMaxCodeTextSize caps CodeText at 32KB per symbol unless the caller
// configures a different limit (spec §6.5 MaxCodeTextBytes).
const defaultMaxCodeTextSize = 32 * 1024

// TreeSitterParser is the AST tier of the parser registry (C2): Go and
// TypeScript/JavaScript source is parsed with tree-sitter for
// scopePath/kind-accurate symbol extraction; protobuf and markdown use their
// dedicated regex/line-based extractors since no bundled grammar covers them.
type TreeSitterParser struct {
	goParser *sitter.Parser
	tsParser *sitter.Parser

	logger *slog.Logger

	maxCodeTextSize int64
	truncatedCount  int64
}

var _ CodeParser = (*TreeSitterParser)(nil)

// NewTreeSitterParser builds an AST-tier parser with Go and TypeScript
// grammars loaded. Construction never fails: both grammars are compiled
// into the binary (no external process), so there is no runtime condition
// under which tree-sitter is "unavailable" in this build.
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}

	goParser := sitter.NewParser()
	goParser.SetLanguage(golang.GetLanguage())

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())

	return &TreeSitterParser{
		goParser:        goParser,
		tsParser:        tsParser,
		logger:          logger,
		maxCodeTextSize: defaultMaxCodeTextSize,
	}
}

// SetMaxCodeTextSize implements CodeParser.
func (p *TreeSitterParser) SetMaxCodeTextSize(size int64) {
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

// GetTruncatedCount implements CodeParser.
func (p *TreeSitterParser) GetTruncatedCount() int {
	return int(atomic.LoadInt64(&p.truncatedCount))
}

// ResetTruncatedCount implements CodeParser.
func (p *TreeSitterParser) ResetTruncatedCount() {
	atomic.StoreInt64(&p.truncatedCount, 0)
}

// truncateCodeText caps text at maxCodeTextSize bytes, counting truncations
// for IngestionResult.CodeTextTruncated.
func (p *TreeSitterParser) truncateCodeText(text string) string {
	if int64(len(text)) <= p.maxCodeTextSize {
		return text
	}
	atomic.AddInt64(&p.truncatedCount, 1)
	return text[:p.maxCodeTextSize]
}

// ParseFile implements CodeParser: it dispatches on file extension to the
// Go, TypeScript/JavaScript, protobuf, or markdown extractor and assembles
// a ParseResult, including the FILE node, CONTAINS (Defines/DefinesTypes)
// edges, and any import/call data the language extractor produced.
func (p *TreeSitterParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := readFileContent(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileInfo.Path, err)
	}

	file := FileEntity{
		ID:          GenerateFileID(fileInfo.Path),
		Path:        fileInfo.Path,
		Language:    fileInfo.Language,
		LOC:         countLines(content),
		ContentHash: contentHashHex(content),
	}

	ext := strings.ToLower(filepath.Ext(fileInfo.Path))

	switch {
	case ext == ".go":
		return p.parseGoFile(file, content)
	case ext == ".ts" || ext == ".tsx" || ext == ".js" || ext == ".jsx" || ext == ".mjs" || ext == ".cjs":
		return p.parseTSFile(file, content)
	case ext == ".proto":
		return p.parseProtoFile(file, content)
	case ext == ".md" || ext == ".markdown":
		return parseMarkdownFile(file, content)
	default:
		// Unsupported language: still emit the FILE node so Discovery/Diff
		// tracks it, with no symbols.
		return &ParseResult{File: file}, nil
	}
}

func (p *TreeSitterParser) parseGoFile(file FileEntity, content []byte) (*ParseResult, error) {
	gr, err := p.parseGoAST(content, file.Path)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		File:            file,
		Functions:       gr.Functions,
		Types:           gr.Types,
		Calls:           gr.Calls,
		Imports:         gr.Imports,
		UnresolvedCalls: gr.UnresolvedCalls,
		PackageName:     gr.PackageName,
	}
	for _, fn := range gr.Functions {
		result.Defines = append(result.Defines, DefinesEdge{FileID: file.ID, FunctionID: fn.ID})
	}
	for _, t := range gr.Types {
		result.DefinesTypes = append(result.DefinesTypes, DefinesTypeEdge{FileID: file.ID, TypeID: t.ID})
	}
	return result, nil
}

func (p *TreeSitterParser) parseTSFile(file FileEntity, content []byte) (*ParseResult, error) {
	functions, types, calls, err := p.parseTypeScriptAST(content, file.Path)
	if err != nil {
		return nil, err
	}
	imports := extractTSImports(content, file.Path)

	result := &ParseResult{
		File:      file,
		Functions: functions,
		Types:     types,
		Calls:     calls,
		Imports:   imports,
	}
	for _, fn := range functions {
		result.Defines = append(result.Defines, DefinesEdge{FileID: file.ID, FunctionID: fn.ID})
	}
	for _, t := range types {
		result.DefinesTypes = append(result.DefinesTypes, DefinesTypeEdge{FileID: file.ID, TypeID: t.ID})
	}
	return result, nil
}

func (p *TreeSitterParser) parseProtoFile(file FileEntity, content []byte) (*ParseResult, error) {
	functions, calls := parseProtobufContent(string(content), file.Path, p.truncateCodeText)
	result := &ParseResult{File: file, Functions: functions, Calls: calls}
	for _, fn := range functions {
		result.Defines = append(result.Defines, DefinesEdge{FileID: file.ID, FunctionID: fn.ID})
	}
	return result, nil
}

// Parser is the syntactic tier of the parser registry (C2): a
// pattern/regex-based parser used when ParserModeSimplified is selected
// explicitly (e.g. for faster, lower-fidelity indexing of very large
// repositories). TreeSitterParser does not delegate to it: a file with no
// loaded grammar gets a FILE node with no symbols there.
type Parser struct {
	logger *slog.Logger

	maxCodeTextSize int64
	truncatedCount  int64
}

var _ CodeParser = (*Parser)(nil)

// NewParser builds a syntactic-tier parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, maxCodeTextSize: defaultMaxCodeTextSize}
}

// SetMaxCodeTextSize implements CodeParser.
func (p *Parser) SetMaxCodeTextSize(size int64) {
	if size > 0 {
		p.maxCodeTextSize = size
	}
}

// GetTruncatedCount implements CodeParser.
func (p *Parser) GetTruncatedCount() int {
	return int(atomic.LoadInt64(&p.truncatedCount))
}

// ResetTruncatedCount implements CodeParser.
func (p *Parser) ResetTruncatedCount() {
	atomic.StoreInt64(&p.truncatedCount, 0)
}

func (p *Parser) truncateCodeText(text string) string {
	if int64(len(text)) <= p.maxCodeTextSize {
		return text
	}
	atomic.AddInt64(&p.truncatedCount, 1)
	return text[:p.maxCodeTextSize]
}

// ParseFile implements CodeParser using only line/regex heuristics - no AST.
func (p *Parser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := readFileContent(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileInfo.Path, err)
	}

	file := FileEntity{
		ID:          GenerateFileID(fileInfo.Path),
		Path:        fileInfo.Path,
		Language:    fileInfo.Language,
		LOC:         countLines(content),
		ContentHash: contentHashHex(content),
	}

	ext := strings.ToLower(filepath.Ext(fileInfo.Path))

	var functions []FunctionEntity
	var calls []CallsEdge

	switch {
	case ext == ".go":
		functions, calls = p.parseGoFile(string(content), file.Path)
	case ext == ".proto":
		functions, calls = parseProtobufContent(string(content), file.Path, p.truncateCodeText)
	case ext == ".md" || ext == ".markdown":
		return parseMarkdownFile(file, content)
	default:
		return &ParseResult{File: file}, nil
	}

	result := &ParseResult{File: file, Functions: functions, Calls: calls}
	for _, fn := range functions {
		result.Defines = append(result.Defines, DefinesEdge{FileID: file.ID, FunctionID: fn.ID})
	}
	return result, nil
}

// countErrors counts ERROR nodes in a tree-sitter parse tree, used to decide
// whether a syntax-error warning is worth logging for a file whose root node
// reports HasError() (a single missing semicolon can mark the whole tree
// erroneous without producing any ERROR nodes worth surfacing).
func countErrors(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}
