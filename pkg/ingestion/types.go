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

// This file defines the parse-time intermediate representation produced by
// the parser registry (C2) and consumed by the ingestion pipeline (C3)
// before it is converted to *graph.Node / graph.Edge values in pipeline.go.
// IDs here are content-addressed (see ids.go) so that re-parsing an
// unchanged symbol yields the same entity, letting the pipeline diff against
// the previous rebuild's nodes instead of always superseding.

// FileEntity represents one parsed source or documentation file.
type FileEntity struct {
	ID          string
	Path        string // workspace-relative, forward-slashed
	Language    string
	LOC         int
	ContentHash string
}

// FunctionEntity represents a function, method, arrow function, or generator.
type FunctionEntity struct {
	ID         string
	Name       string
	Signature  string
	FilePath   string
	CodeText   string
	Kind       string // function | method | arrow | generator
	IsExported bool
	Parameters []ParamInfo
	StartLine  int
	EndLine    int
	StartCol   int
	EndCol     int

	// Embedding is populated by EmbeddingGenerator during Phase 7; empty
	// until then.
	Embedding []float32
}

// TypeEntity represents a class, interface, type alias, enum, or trait.
type TypeEntity struct {
	ID         string
	Name       string
	Kind       string // class | interface | type | enum | trait
	FilePath   string
	CodeText   string
	Extends    string
	Implements []string
	StartLine  int
	EndLine    int
	StartCol   int
	EndCol     int

	Embedding []float32
}

// ImportEntity represents a single import/require statement.
type ImportEntity struct {
	ID          string
	FilePath    string
	ImportPath  string // the raw specifier as written in source
	Specifiers  []string
	Alias       string
	StartLine   int
}

// CallsEdge is a caller->callee relationship discovered during parsing or
// cross-package resolution. It deliberately carries no ID: multiple call
// sites between the same two functions collapse to one edge at write time.
type CallsEdge struct {
	CallerID string
	CalleeID string
}

// UnresolvedCall is a call site whose callee could not be matched against
// any function known to the current file, to be resolved cross-package by
// CallResolver once every file in the rebuild has been parsed.
type UnresolvedCall struct {
	CallerID   string
	CalleeName string
	FilePath   string
	Line       int
}

// PackageInfo describes one Go package directory discovered during a
// rebuild: its declared package name and the set of files it contains,
// built by CallResolver.BuildIndex for cross-package call resolution.
type PackageInfo struct {
	PackagePath string // directory path relative to the workspace root
	PackageName string
	Files       []string
}

// DefinesEdge links a FILE to a FUNCTION it contains (the CONTAINS edge of
// spec §3.3, named for the teacher's historical "defines" terminology).
type DefinesEdge struct {
	FileID     string
	FunctionID string
}

// DefinesTypeEdge links a FILE to a CLASS/interface/type it contains.
type DefinesTypeEdge struct {
	FileID string
	TypeID string
}

// TestEntity represents a TEST_SUITE or TEST_CASE discovered in a test file.
type TestEntity struct {
	ID             string
	Name           string
	FilePath       string
	IsSuite        bool
	Category       string // unit | integration | performance | e2e
	StartLine      int
	ParentSuiteID  string
}

// SectionEntity represents a markdown DOCUMENT's heading-delimited section.
type SectionEntity struct {
	ID           string
	FilePath     string
	Heading      string
	Level        int
	StartLine    int
	WordCount    int
	BacktickRefs []string
	CodeFences   []CodeFenceRef
	Links        []string
}

// CodeFenceRef records a fenced code block's language tag and first content line.
type CodeFenceRef struct {
	Language  string
	FirstLine string
}

// DocumentEntity represents one parsed markdown/doc file, the DOCUMENT
// counterpart to FileEntity for doc-kind files.
type DocumentEntity struct {
	ID        string
	FilePath  string
	Kind      string // readme | adr | changelog | guide | architecture | other
	Title     string
	Hash      string
	WordCount int
	Sections  []SectionEntity
}

// ParseResult is the full set of entities extracted from a single file by
// the parser registry (C2). CodeParser.ParseFile returns one of these per
// file; the pipeline concatenates them across the worker pool.
type ParseResult struct {
	File            FileEntity
	Functions       []FunctionEntity
	Types           []TypeEntity
	Defines         []DefinesEdge
	DefinesTypes    []DefinesTypeEdge
	Calls           []CallsEdge
	Imports         []ImportEntity
	UnresolvedCalls []UnresolvedCall
	Tests           []TestEntity
	Document        *DocumentEntity
	PackageName     string
}

// RepoSource identifies where a repository's contents should be loaded
// from: either a local filesystem path or a git remote to be cloned to a
// temporary directory.
type RepoSource struct {
	Type  string // "local_path" | "git_url"
	Value string
}

// ConcurrencyConfig bounds the worker pools used by each pipeline phase.
type ConcurrencyConfig struct {
	ParseWorkers int
	EmbedWorkers int
}

// IngestionConfig configures a single ingestion pipeline run (spec §4.3,
// §6.5 "Configuration").
type IngestionConfig struct {
	ParserMode           ParserMode
	MaxCodeTextBytes     int64
	MaxFileSizeBytes     int64
	ExcludeGlobs         []string
	IncludeTestFiles     bool
	EmbeddingProvider    string
	Concurrency          ConcurrencyConfig
	LocalDataDir         string
	LocalEngine          string
	CheckpointPath       string
	EnableDocIndexing    bool
	EnableGitDeltaHint   bool
	ArchRulesPath        string
}

// Config is the top-level configuration for one local ingestion pipeline
// instance: which project it indexes and how.
type Config struct {
	ProjectID       string
	RepoSource      RepoSource
	IngestionConfig IngestionConfig
}
