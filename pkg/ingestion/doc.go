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

// Package ingestion implements the parser registry (C2) and the graph
// ingestion pipeline (C3) of the code-intelligence server: it walks a
// workspace, parses every source and documentation file into the
// intermediate entity types in types.go, resolves cross-file/package call
// edges, refreshes embeddings, and converts the result into *graph.Node and
// graph.Edge values written through storage.Backend.WriteBatch.
//
// # Pipeline Overview
//
// Pipeline.Run executes seven ordered phases per rebuild:
//
//  1. Discovery: walk the workspace (RepoLoader), honoring ExcludeGlobs and
//     MaxFileSizeBytes.
//  2. Diff: compare each discovered file's content hash against the
//     project's current FILE nodes; unchanged files are skipped entirely.
//  3. Parse: run CodeParser.ParseFile over every changed file, in parallel
//     above a worker-pool size threshold, sequentially below it.
//  4. Node write: convert FileEntity/FunctionEntity/TypeEntity/TestEntity/
//     DocumentEntity/SectionEntity into *graph.Node values with stable
//     ScopedID identifiers.
//  5. Edge write: convert DefinesEdge/DefinesTypeEdge/CallsEdge/ImportEntity
//     into graph.Edge values (CONTAINS/CALLS/REFERENCES/EXTENDS/IMPLEMENTS),
//     including the .js/.jsx-stripping fix for bundler-style TS imports.
//  6. Architecture validation: Run calls archvalidate.Apply after the write
//     when SetArchConfig was called and the backend exposes its graph.Index;
//     otherwise this phase is skipped.
//  7. Embedding refresh: attach vector embeddings to FUNCTION/CLASS nodes
//     before they are written, so a rebuild never leaves a window where
//     hybrid retrieval's vector leg misses newly-indexed code.
//
// # Supported Languages
//
// Go and TypeScript/JavaScript are parsed via Tree-sitter grammars
// (TreeSitterParser); Protocol Buffers use a line-based extractor shared by
// both parsers. Files in any other language, Python included, yield a FILE
// node with no symbols. The regex-based Parser (Go, Protocol Buffers and
// markdown only) is used when ParserModeSimplified is selected.
// Markdown documentation is parsed separately (parser_markdown.go) into
// DOCUMENT/SECTION entities rather than FUNCTION/CLASS ones.
//
// # Quick Start
//
//	config := ingestion.Config{
//	    ProjectID: "my-project",
//	    RepoSource: ingestion.RepoSource{Type: "local_path", Value: "/path/to/code"},
//	    IngestionConfig: ingestion.IngestionConfig{
//	        ParserMode:        ingestion.ParserModeAuto,
//	        EmbeddingProvider: "mock",
//	    },
//	}
//
//	pipeline, err := ingestion.NewPipeline(config, backend, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Close()
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("indexed %d files, %d functions\n", result.FilesProcessed, result.FunctionsExtracted)
//
// # Key Components
//
// Batcher bounds how many nodes/edges one storage.Backend.WriteBatch call
// carries, so an oversized rebuild never produces a single call large enough
// to threaten a backend's transaction limits:
//
//	batcher := ingestion.NewBatcher(5000)
//	batches := batcher.Batch(nodes, edges)
//
// CallResolver resolves cross-package Go calls left unresolved by
// single-file parsing, and ResolveImportTarget resolves TypeScript/
// JavaScript import specifiers to workspace-relative file paths:
//
//	resolver := ingestion.NewCallResolver()
//	resolver.BuildIndex(files, functions, imports, packageNames)
//	resolved := resolver.ResolveCalls(unresolvedCalls)
//
// EmbeddingGenerator produces vector embeddings concurrently across
// multiple providers (mock, OpenAI, Nomic, Ollama, local model servers):
//
//	embeddingGen := ingestion.NewEmbeddingGenerator(provider, concurrency, logger)
//	result, err := embeddingGen.EmbedFunctions(ctx, functions)
//
// RepoLoader loads code from a local path or a cloned git remote:
//
//	repoLoader := ingestion.NewRepoLoader(logger)
//	result, err := repoLoader.LoadRepository(repoSource, excludeGlobs, maxFileSizeBytes)
//	defer repoLoader.Close()
//
// # Incremental rebuilds
//
// A project's FILE nodes carry a contentHash property; Phase 2 diffs every
// discovered file's current hash against it before parsing, so an unchanged
// file costs one hash comparison instead of a full re-parse. CheckpointManager
// persists a run's progress to disk (Config.CheckpointPath) for restartability
// after an interrupted rebuild.
package ingestion
