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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/graphmind/pkg/archvalidate"
	"github.com/kraklabs/graphmind/pkg/config"
	"github.com/kraklabs/graphmind/pkg/graph"
	"github.com/kraklabs/graphmind/pkg/storage"
	"github.com/kraklabs/graphmind/pkg/vector"
)

// Pipeline orchestrates one ingestion rebuild against a storage.Backend
// (spec §4.3's seven phases: Discovery, Diff, Parse, Node write, Edge write,
// Architecture validation, Embedding refresh). It replaces the teacher's
// LocalPipeline, which wrote through a CozoDB-specific Datalog mutation
// builder; this version targets the backend-agnostic WriteBatch contract so
// the same pipeline runs against MemoryBackend in a session and
// EmbeddedBackend for a persistent rebuild.
type Pipeline struct {
	config        Config
	logger        *slog.Logger
	repoLoader    *RepoLoader
	parser        CodeParser
	embeddingGen  *EmbeddingGenerator
	backend       storage.Backend
	checkpointMgr *CheckpointManager
	batcher       *Batcher

	// archConfig and vectorStore are optional, set via SetArchConfig and
	// SetVectorStore once the caller has a workspace config / vector store
	// available. Both are nil for a pipeline run that only cares about the
	// graph (e.g. most tests): Phase 6 and the vector half of Phase 7 are
	// skipped whenever their dependency is unset, rather than failing.
	archConfig  *config.Config
	vectorStore *vector.Store
}

// SetArchConfig attaches the workspace's architecture layers/rules, enabling
// Phase 6 (architecture validation, spec §4.8). Without it, Run skips Phase
// 6 entirely rather than validating against an empty rule set.
func (p *Pipeline) SetArchConfig(cfg *config.Config) {
	p.archConfig = cfg
}

// SetVectorStore attaches the vector subsystem (C5), enabling the
// store-upsert half of Phase 7: functions and types embedded during parsing
// are pushed into vectorStore so pkg/retrieval's hybrid search and
// findSimilarCode can see them. Without it, Run still computes local
// embeddings and stores them on the FUNCTION/CLASS nodes, but nothing is
// upserted into a searchable vector collection.
func (p *Pipeline) SetVectorStore(v *vector.Store) {
	p.vectorStore = v
}

// Result summarizes one pipeline run (spec §4.3's "Response Shaper" ingestion
// summary fields).
type Result struct {
	ProjectID          string
	RunID              string
	FilesProcessed     int
	FilesUnchanged     int
	FunctionsExtracted int
	TypesExtracted     int
	TestsExtracted     int
	DocumentsExtracted int
	ContainsEdges      int
	CallsEdges         int
	ReferencesEdges    int
	NodesWritten       int
	EdgesWritten       int
	ParseErrors        int
	ParseErrorRate     float64
	EmbeddingErrors    int
	CodeTextTruncated  int
	ViolationsAdded    int
	ViolationsResolved int
	VectorsUpserted    int
	TopSkipReasons     map[string]int
	ParseDuration      time.Duration
	EmbedDuration      time.Duration
	WriteDuration      time.Duration
	TotalDuration      time.Duration
}

// NewPipeline creates a pipeline against the given backend. The backend is
// supplied by the caller (C1 Session Manager picks MemoryBackend for a live
// session, a CLI rebuild picks storage.NewEmbeddedBackend) rather than
// constructed here, so the same pipeline code serves both.
func NewPipeline(config Config, backend storage.Backend, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repoLoader := NewRepoLoader(logger)

	var parser CodeParser
	parserMode := config.IngestionConfig.ParserMode
	if parserMode == "" {
		parserMode = ParserModeAuto
	}

	switch parserMode {
	case ParserModeTreeSitter:
		logger.Info("parser.mode", "mode", "treesitter")
		parser = NewTreeSitterParser(logger)
	case ParserModeSimplified:
		logger.Info("parser.mode", "mode", "simplified")
		parser = NewParser(logger)
	case ParserModeAuto:
		logger.Info("parser.mode", "mode", "treesitter", "selected_by", "auto")
		parser = NewTreeSitterParser(logger)
	default:
		logger.Warn("parser.mode.unknown", "mode", parserMode, "fallback", "treesitter")
		parser = NewTreeSitterParser(logger)
	}

	if config.IngestionConfig.MaxCodeTextBytes > 0 {
		parser.SetMaxCodeTextSize(config.IngestionConfig.MaxCodeTextBytes)
	}

	embeddingProvider, err := CreateEmbeddingProvider(config.IngestionConfig.EmbeddingProvider, logger)
	if err != nil {
		return nil, fmt.Errorf("create embedding provider: %w", err)
	}
	embeddingGen := NewEmbeddingGenerator(embeddingProvider, config.IngestionConfig.Concurrency.EmbedWorkers, logger)

	return &Pipeline{
		config:        config,
		logger:        logger,
		repoLoader:    repoLoader,
		parser:        parser,
		embeddingGen:  embeddingGen,
		backend:       backend,
		checkpointMgr: NewCheckpointManager(config.IngestionConfig.CheckpointPath),
		batcher:       NewBatcher(5000),
	}, nil
}

// Close releases the repo loader's resources (e.g. a cloned git tempdir).
// The backend is owned by the caller and is not closed here.
func (p *Pipeline) Close() error {
	if p.repoLoader != nil {
		return p.repoLoader.Close()
	}
	return nil
}

func (p *Pipeline) generateRunID(startTime time.Time) string {
	roundedTime := startTime.Truncate(time.Second)
	baseID := fmt.Sprintf("run-%s-%d", p.config.ProjectID, roundedTime.Unix())
	hash := sha256.Sum256([]byte(baseID))
	return hex.EncodeToString(hash[:16])
}

// Run executes the full seven-phase ingestion pipeline (spec §4.3).
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	runID := p.generateRunID(startTime)
	projectID := p.config.ProjectID
	p.logger.Info("ingestion.start", "project_id", projectID, "run_id", runID)

	// Phase 1: Discovery.
	loadResult, err := p.repoLoader.LoadRepository(
		p.config.RepoSource,
		p.config.IngestionConfig.ExcludeGlobs,
		p.config.IngestionConfig.MaxFileSizeBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	sort.Slice(loadResult.Files, func(i, j int) bool {
		return loadResult.Files[i].Path < loadResult.Files[j].Path
	})

	// Phase 2: Diff against the current FILE nodes' contentHash. A file
	// whose content hash is unchanged from the last rebuild is skipped
	// entirely - its FILE/FUNCTION/CLASS/etc. nodes and their edges stay
	// valid as-is (spec §3.4 bitemporal supersession only fires on an
	// actual content change, never a re-walk of an untouched file).
	existingHashes, err := p.loadExistingFileHashes(ctx, projectID)
	if err != nil {
		p.logger.Warn("ingestion.diff.load_hashes.failed", "err", err)
		existingHashes = map[string]string{}
	}

	var changedFiles []FileInfo
	unchanged := 0
	for _, f := range loadResult.Files {
		content, err := readFileContent(f.FullPath)
		if err != nil {
			p.logger.Warn("ingestion.diff.read.failed", "path", f.Path, "err", err)
			continue
		}
		hash := contentHashHex(content)
		if existingHashes[f.Path] == hash {
			unchanged++
			continue
		}
		changedFiles = append(changedFiles, f)
	}
	p.logger.Info("ingestion.diff.complete", "total", len(loadResult.Files), "changed", len(changedFiles), "unchanged", unchanged)

	// Phase 3: Parse.
	parseStart := time.Now()
	parseWorkers := p.config.IngestionConfig.Concurrency.ParseWorkers
	if parseWorkers <= 0 {
		parseWorkers = 4
	}
	parseResult, parseErrors := p.parseFilesParallel(ctx, changedFiles, parseWorkers)
	parseDuration := time.Since(parseStart)
	codeTextTruncated := p.parser.GetTruncatedCount()

	// Resolve cross-file/package calls left unresolved by single-file parsing.
	allCalls := parseResult.calls
	if len(parseResult.unresolvedCalls) > 0 {
		resolver := NewCallResolver()
		resolver.BuildIndex(parseResult.files, parseResult.functions, parseResult.imports, parseResult.packageNames)
		resolvedCalls := resolver.ResolveCalls(parseResult.unresolvedCalls)
		allCalls = append(allCalls, resolvedCalls...)
		p.logger.Info("ingestion.calls.resolved", "direct", len(parseResult.calls), "cross_file", len(resolvedCalls))
	}

	parseErrorRate := 0.0
	if len(changedFiles) > 0 {
		parseErrorRate = float64(parseErrors) / float64(len(changedFiles)) * 100.0
	}
	p.logger.Info("ingestion.parse.complete",
		"files", len(parseResult.files), "functions", len(parseResult.functions),
		"types", len(parseResult.types), "calls", len(allCalls),
		"parse_errors", parseErrors, "code_text_truncated", codeTextTruncated,
		"duration_ms", parseDuration.Milliseconds())

	// Phase 7 (embedding refresh) runs before the write so every FUNCTION/
	// CLASS node lands in the graph with its vector already attached; the
	// alternative (write, then patch in embeddings later) would leave a
	// window where hybrid retrieval's vector leg silently misses new code.
	embedStart := time.Now()
	embeddingErrors := 0
	if embedResult, err := p.embeddingGen.EmbedFunctions(ctx, parseResult.functions); err != nil {
		return nil, fmt.Errorf("embed functions: %w", err)
	} else {
		parseResult.functions = embedResult.Functions
		embeddingErrors += embedResult.ErrorCount
	}
	if len(parseResult.types) > 0 {
		typeEmbedResult, err := p.embeddingGen.EmbedTypes(ctx, parseResult.types)
		if err != nil {
			return nil, fmt.Errorf("embed types: %w", err)
		}
		parseResult.types = typeEmbedResult.Types
		embeddingErrors += typeEmbedResult.ErrorCount
	}
	embedDuration := time.Since(embedStart)

	if err := ValidateEntities(parseResult.files, parseResult.functions, parseResult.defines, allCalls); err != nil {
		return nil, fmt.Errorf("validate entities: %w", err)
	}

	// Phases 4-5: convert entities to *graph.Node / graph.Edge and write.
	writeStart := time.Now()
	nodes, edges := p.buildGraph(projectID, parseResult, allCalls, loadResult.Files)

	for _, batch := range p.batcher.Batch(nodes, edges) {
		if err := p.backend.WriteBatch(ctx, batch.Nodes, batch.Edges); err != nil {
			return nil, fmt.Errorf("write batch: %w", err)
		}
	}
	writeDuration := time.Since(writeStart)

	// Phase 6: architecture validation. Only available when the backend
	// exposes its in-process graph.Index (true for the MemoryBackend a
	// session wraps around its own index; an external/persistent backend
	// validated this way would need a Cypher-driven variant of
	// archvalidate.Run, not yet built - see DESIGN.md).
	var violationsAdded, violationsResolved int
	if p.archConfig != nil {
		if ib, ok := p.backend.(interface{ Index() *graph.Index }); ok {
			violationsAdded, violationsResolved, err = archvalidate.Apply(p.archConfig, ib.Index(), projectID, time.Now())
			if err != nil {
				p.logger.Warn("ingestion.archvalidate.failed", "err", err)
			} else {
				p.logger.Info("ingestion.archvalidate.complete", "added", violationsAdded, "resolved", violationsResolved)
			}
		}
	}

	// Phase 7 (vector store half): push every freshly embedded FUNCTION/CLASS
	// into the vector subsystem so semantic_search and find_similar_code see
	// this rebuild's code immediately.
	var vectorsUpserted int
	if p.vectorStore != nil {
		ctx7 := ctx
		if pts := functionPoints(projectID, parseResult.functions); len(pts) > 0 {
			if err := p.vectorStore.Upsert(ctx7, vector.KindFunctions, pts); err != nil {
				p.logger.Warn("ingestion.vector.upsert.failed", "kind", "functions", "err", err)
			} else {
				vectorsUpserted += len(pts)
			}
		}
		if pts := typePoints(projectID, parseResult.types); len(pts) > 0 {
			if err := p.vectorStore.Upsert(ctx7, vector.KindClasses, pts); err != nil {
				p.logger.Warn("ingestion.vector.upsert.failed", "kind", "classes", "err", err)
			} else {
				vectorsUpserted += len(pts)
			}
		}
	}

	totalDuration := time.Since(startTime)

	result := &Result{
		ProjectID:          projectID,
		RunID:              runID,
		FilesProcessed:     len(parseResult.files),
		FilesUnchanged:     unchanged,
		FunctionsExtracted: len(parseResult.functions),
		TypesExtracted:     len(parseResult.types),
		TestsExtracted:     len(parseResult.tests),
		DocumentsExtracted: len(parseResult.documents),
		ContainsEdges:      len(parseResult.defines) + len(parseResult.definesTypes),
		CallsEdges:         len(allCalls),
		NodesWritten:       len(nodes),
		EdgesWritten:       len(edges),
		ParseErrors:        parseErrors,
		ParseErrorRate:     parseErrorRate,
		EmbeddingErrors:    embeddingErrors,
		CodeTextTruncated:  codeTextTruncated,
		ViolationsAdded:    violationsAdded,
		ViolationsResolved: violationsResolved,
		VectorsUpserted:    vectorsUpserted,
		TopSkipReasons:     loadResult.SkipReasons,
		ParseDuration:      parseDuration,
		EmbedDuration:      embedDuration,
		WriteDuration:      writeDuration,
		TotalDuration:      totalDuration,
	}
	p.logger.Info("ingestion.complete",
		"project_id", projectID, "run_id", runID,
		"files", result.FilesProcessed, "functions", result.FunctionsExtracted,
		"nodes_written", result.NodesWritten, "edges_written", result.EdgesWritten,
		"parse_errors", result.ParseErrors, "embedding_errors", result.EmbeddingErrors,
		"total_duration_ms", result.TotalDuration.Milliseconds())

	return result, nil
}

// functionPoints converts freshly embedded functions into vector.Points,
// skipping any function whose embedding is empty (either embedding was
// disabled for this provider or it genuinely failed - Upsert itself also
// skips these, but filtering here avoids walking the graph.FunctionID
// computation for points that would be dropped anyway).
func functionPoints(projectID string, fns []FunctionEntity) []vector.Point {
	pts := make([]vector.Point, 0, len(fns))
	for _, fn := range fns {
		if len(fn.Embedding) == 0 {
			continue
		}
		gid := graph.FunctionID(projectID, fn.FilePath, fn.Name, fn.StartLine)
		pts = append(pts, vector.Point{
			ScopedID:  gid,
			ProjectID: projectID,
			Text:      fn.Name + " " + fn.Signature,
			Embedding: fn.Embedding,
			Payload:   map[string]any{"name": fn.Name, "filePath": fn.FilePath, "kind": fn.Kind},
		})
	}
	return pts
}

// typePoints is functionPoints' counterpart for CLASS/interface/type nodes.
func typePoints(projectID string, types []TypeEntity) []vector.Point {
	pts := make([]vector.Point, 0, len(types))
	for _, t := range types {
		if len(t.Embedding) == 0 {
			continue
		}
		gid := graph.ClassID(projectID, t.FilePath, t.Name, t.StartLine)
		pts = append(pts, vector.Point{
			ScopedID:  gid,
			ProjectID: projectID,
			Text:      t.Name,
			Embedding: t.Embedding,
			Payload:   map[string]any{"name": t.Name, "filePath": t.FilePath, "kind": t.Kind},
		})
	}
	return pts
}

// loadExistingFileHashes queries the current (ValidTo == nil) FILE nodes for
// a project and returns path -> contentHash, the input to Phase 2's diff.
func (p *Pipeline) loadExistingFileHashes(ctx context.Context, projectID string) (map[string]string, error) {
	res, err := p.backend.ExecuteCypher(ctx, `MATCH (f:FILE) WHERE f.projectId = $projectId RETURN f.path, f.contentHash`, map[string]any{
		"projectId": projectID,
	})
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) < 2 {
			continue
		}
		path, _ := row[0].(string)
		hash, _ := row[1].(string)
		if path != "" {
			hashes[path] = hash
		}
	}
	return hashes, nil
}

// parsedEntities is the aggregated output of Phase 3 across every worker,
// the input to call resolution and graph conversion.
type parsedEntities struct {
	files           []FileEntity
	functions       []FunctionEntity
	types           []TypeEntity
	defines         []DefinesEdge
	definesTypes    []DefinesTypeEdge
	calls           []CallsEdge
	imports         []ImportEntity
	unresolvedCalls []UnresolvedCall
	tests           []TestEntity
	documents       []DocumentEntity
	packageNames    map[string]string
}

// parseFilesParallel parses files with a worker pool, falling back to
// sequential parsing for small file sets where pool setup costs more than it
// saves (mirrors the teacher's threshold).
func (p *Pipeline) parseFilesParallel(ctx context.Context, files []FileInfo, numWorkers int) (*parsedEntities, int) {
	if len(files) == 0 {
		return &parsedEntities{packageNames: make(map[string]string)}, 0
	}
	if len(files) < 10 || numWorkers <= 1 {
		return p.parseFilesSequential(ctx, files)
	}

	type fileResult struct {
		result      *ParseResult
		err         error
		packageName string
		filePath    string
	}

	jobs := make(chan FileInfo, len(files))
	resultsChan := make(chan fileResult, len(files))
	var errorCount int32

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fileInfo := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				pr, err := p.parser.ParseFile(fileInfo)
				if err != nil {
					atomic.AddInt32(&errorCount, 1)
					p.logger.Warn("ingestion.parse_file.error", "path", fileInfo.Path, "err", err)
					resultsChan <- fileResult{err: err, filePath: fileInfo.Path}
					continue
				}
				resultsChan <- fileResult{result: pr, packageName: pr.PackageName, filePath: fileInfo.Path}
			}
		}()
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	agg := &parsedEntities{packageNames: make(map[string]string)}
	for fr := range resultsChan {
		if fr.err != nil {
			continue
		}
		p.foldParseResult(agg, fr.result)
	}
	return agg, int(errorCount)
}

// parseFilesSequential parses files one at a time, in the order given -
// used for rebuilds with fewer than 10 changed files or at most one worker.
// It stops early, returning what it has, once ctx is cancelled.
func (p *Pipeline) parseFilesSequential(ctx context.Context, files []FileInfo) (*parsedEntities, int) {
	agg := &parsedEntities{packageNames: make(map[string]string)}
	errorCount := 0

	for _, fileInfo := range files {
		select {
		case <-ctx.Done():
			return agg, errorCount
		default:
		}
		pr, err := p.parser.ParseFile(fileInfo)
		if err != nil {
			errorCount++
			p.logger.Warn("ingestion.parse_file.error", "path", fileInfo.Path, "err", err)
			continue
		}
		p.foldParseResult(agg, pr)
	}
	return agg, errorCount
}

func (p *Pipeline) foldParseResult(agg *parsedEntities, pr *ParseResult) {
	agg.files = append(agg.files, pr.File)
	agg.functions = append(agg.functions, pr.Functions...)
	agg.types = append(agg.types, pr.Types...)
	agg.defines = append(agg.defines, pr.Defines...)
	agg.definesTypes = append(agg.definesTypes, pr.DefinesTypes...)
	agg.calls = append(agg.calls, pr.Calls...)
	agg.imports = append(agg.imports, pr.Imports...)
	agg.unresolvedCalls = append(agg.unresolvedCalls, pr.UnresolvedCalls...)
	agg.tests = append(agg.tests, pr.Tests...)
	if pr.Document != nil {
		agg.documents = append(agg.documents, *pr.Document)
	}
	if pr.PackageName != "" {
		agg.packageNames[pr.File.Path] = pr.PackageName
	}
}

// buildGraph converts one rebuild's parsed entities into *graph.Node /
// graph.Edge values, using pkg/graph's ScopedID builders so a node's ID is
// stable across rebuilds (spec §3.1) even though the parser's own
// content-hash entity IDs (ids.go) are a different, parse-time-only
// namespace used solely to correlate edges during this function and during
// cross-file call resolution.
func (p *Pipeline) buildGraph(projectID string, pe *parsedEntities, calls []CallsEdge, discovered []FileInfo) ([]*graph.Node, []graph.Edge) {
	now := time.Now()
	var nodes []*graph.Node
	var edges []graph.Edge

	// entityIDToGraphID maps a parser entity ID (file:/func:/type:/...) to
	// the graph-layer ScopedID of the node it became, so CALLS/CONTAINS/
	// REFERENCES edges (which are expressed in terms of entity IDs coming
	// out of the parser) can be translated to graph IDs.
	entityIDToGraphID := make(map[string]string, len(pe.files)+len(pe.functions)+len(pe.types))
	pathByFile := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		pathByFile[f.Path] = true
	}

	for i := range pe.files {
		f := &pe.files[i]
		gid := graph.FileID(projectID, f.Path)
		entityIDToGraphID[f.ID] = gid
		nodes = append(nodes, &graph.Node{
			ID: gid, Kind: graph.KindFile, ProjectID: projectID, ValidFrom: now,
			Props: map[string]any{
				"path":        f.Path,
				"language":    f.Language,
				"loc":         f.LOC,
				"contentHash": f.ContentHash,
			},
		})
	}

	for i := range pe.functions {
		fn := &pe.functions[i]
		gid := graph.FunctionID(projectID, fn.FilePath, fn.Name, fn.StartLine)
		entityIDToGraphID[fn.ID] = gid
		nodes = append(nodes, &graph.Node{
			ID: gid, Kind: graph.KindFunction, ProjectID: projectID, ValidFrom: now,
			Props: map[string]any{
				"name":       fn.Name,
				"signature":  fn.Signature,
				"filePath":   fn.FilePath,
				"codeText":   fn.CodeText,
				"kind":       fn.Kind,
				"isExported": fn.IsExported,
				"startLine":  fn.StartLine,
				"endLine":    fn.EndLine,
				"embedding":  fn.Embedding,
			},
		})
	}

	// typeGIDByName indexes every type's graph ID by name so EXTENDS/
	// IMPLEMENTS (which the parser records as a bare name, not an entity ID -
	// tree-sitter sees `class Foo extends Bar`, never Bar's own node) can be
	// resolved after every type in the rebuild has a graph ID assigned. Name
	// collisions across files keep the last writer, matching the common case
	// of a project having one definition per exported type name.
	typeGIDByName := make(map[string]string, len(pe.types))

	for i := range pe.types {
		t := &pe.types[i]
		gid := graph.ClassID(projectID, t.FilePath, t.Name, t.StartLine)
		entityIDToGraphID[t.ID] = gid
		typeGIDByName[t.Name] = gid
		nodes = append(nodes, &graph.Node{
			ID: gid, Kind: graph.KindClass, ProjectID: projectID, ValidFrom: now,
			Props: map[string]any{
				"name":       t.Name,
				"kind":       t.Kind,
				"filePath":   t.FilePath,
				"codeText":   t.CodeText,
				"extends":    t.Extends,
				"implements": t.Implements,
				"startLine":  t.StartLine,
				"endLine":    t.EndLine,
				"embedding":  t.Embedding,
			},
		})
	}
	for i := range pe.types {
		t := &pe.types[i]
		gid := entityIDToGraphID[t.ID]
		if t.Extends != "" {
			if dstGID, ok := typeGIDByName[t.Extends]; ok {
				edges = append(edges, graph.Edge{Kind: graph.EdgeExtends, SrcID: gid, DstID: dstGID, ProjectID: projectID})
			}
		}
		for _, iface := range t.Implements {
			if dstGID, ok := typeGIDByName[iface]; ok {
				edges = append(edges, graph.Edge{Kind: graph.EdgeImplements, SrcID: gid, DstID: dstGID, ProjectID: projectID})
			}
		}
	}

	for i := range pe.tests {
		tc := &pe.tests[i]
		gid := graph.TestCaseID(projectID, tc.FilePath, tc.StartLine, tc.Name)
		entityIDToGraphID[tc.ID] = gid
		kind := graph.KindTestCase
		if tc.IsSuite {
			kind = graph.KindTestSuite
		}
		nodes = append(nodes, &graph.Node{
			ID: gid, Kind: kind, ProjectID: projectID, ValidFrom: now,
			Props: map[string]any{
				"name":      tc.Name,
				"filePath":  tc.FilePath,
				"category":  tc.Category,
				"startLine": tc.StartLine,
			},
		})
		if tc.ParentSuiteID != "" {
			if parentGID, ok := entityIDToGraphID[tc.ParentSuiteID]; ok {
				edges = append(edges, graph.Edge{Kind: graph.EdgeContains, SrcID: parentGID, DstID: gid, ProjectID: projectID})
			}
		}
	}

	for i := range pe.documents {
		d := &pe.documents[i]
		docGID := graph.DocumentID(projectID, d.FilePath)
		nodes = append(nodes, &graph.Node{
			ID: docGID, Kind: graph.KindDocument, ProjectID: projectID, ValidFrom: now,
			Props: map[string]any{
				"filePath":  d.FilePath,
				"kind":      d.Kind,
				"title":     d.Title,
				"hash":      d.Hash,
				"wordCount": d.WordCount,
			},
		})
		for secIdx, s := range d.Sections {
			secGID := graph.SectionID(projectID, d.FilePath, secIdx)
			nodes = append(nodes, &graph.Node{
				ID: secGID, Kind: graph.KindSection, ProjectID: projectID, ValidFrom: now,
				Props: map[string]any{
					"heading":      s.Heading,
					"level":        s.Level,
					"startLine":    s.StartLine,
					"wordCount":    s.WordCount,
					"backtickRefs": s.BacktickRefs,
					"links":        s.Links,
				},
			})
			edges = append(edges, graph.Edge{Kind: graph.EdgeContains, SrcID: docGID, DstID: secGID, ProjectID: projectID})
		}
	}

	for _, d := range pe.defines {
		srcGID, ok1 := entityIDToGraphID[d.FileID]
		dstGID, ok2 := entityIDToGraphID[d.FunctionID]
		if ok1 && ok2 {
			edges = append(edges, graph.Edge{Kind: graph.EdgeContains, SrcID: srcGID, DstID: dstGID, ProjectID: projectID})
		}
	}
	for _, d := range pe.definesTypes {
		srcGID, ok1 := entityIDToGraphID[d.FileID]
		dstGID, ok2 := entityIDToGraphID[d.TypeID]
		if ok1 && ok2 {
			edges = append(edges, graph.Edge{Kind: graph.EdgeContains, SrcID: srcGID, DstID: dstGID, ProjectID: projectID})
		}
	}
	for _, c := range calls {
		srcGID, ok1 := entityIDToGraphID[c.CallerID]
		dstGID, ok2 := entityIDToGraphID[c.CalleeID]
		if ok1 && ok2 {
			edges = append(edges, graph.Edge{Kind: graph.EdgeCalls, SrcID: srcGID, DstID: dstGID, ProjectID: projectID})
		}
	}

	// Phase 5: IMPORT -> REFERENCES, applying the .js/.jsx-stripping fix
	// before probing candidate files (spec §4.3 Phase 5).
	for _, imp := range pe.imports {
		target := ResolveImportTarget(imp.FilePath, imp.ImportPath, pathByFile)
		if target == "" {
			continue
		}
		srcGID, ok1 := entityIDToGraphID[GenerateFileID(imp.FilePath)]
		dstGID, ok2 := entityIDToGraphID[GenerateFileID(target)]
		if ok1 && ok2 {
			edges = append(edges, graph.Edge{Kind: graph.EdgeReferences, SrcID: srcGID, DstID: dstGID, ProjectID: projectID})
		}
	}

	return nodes, edges
}
