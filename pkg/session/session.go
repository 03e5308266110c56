// Copyright 2026 Graphmind Authors
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
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns per-session workspace context: binding a workspace
// root to a project fingerprint and source directory, and reporting the
// session's current readiness (pkg/session/readiness.go).
//
// Sessions are independent: two concurrent sessions may bind different
// workspaces and never see each other's graph state, even within the same
// process, matching spec's session-isolation rule.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kraklabs/graphmind/pkg/apierr"
	"github.com/kraklabs/graphmind/pkg/config"
	"github.com/kraklabs/graphmind/pkg/graph"
	"github.com/kraklabs/graphmind/pkg/storage"
	"github.com/kraklabs/graphmind/pkg/vector"
)

// recognizedSourceDirs are probed, in order, by bindWorkspace when sourceDir
// is not supplied explicitly; the first one that exists under workspaceRoot
// wins, falling back to "src".
var recognizedSourceDirs = []string{"src", "lib", "app", "packages", "source"}

// Session is the state bound to one opaque session token: a workspace root,
// its project fingerprint, the in-memory graph mirror, and rebuild/embedding
// bookkeeping used by health() and the readiness gate.
type Session struct {
	mu sync.RWMutex

	Token         string
	ProjectID     string
	WorkspaceRoot string
	SourceDir     string
	Config        *config.Config
	Graph         *graph.Index
	Backend       storage.Backend
	Vectors       *vector.Store

	pendingRebuildID   string
	rebuildIsFull      bool
	lastRebuildAt      time.Time
	pendingFileChanges int
	embeddingCoverage  float64 // fraction of embeddable symbols with a current vector, [0,1]
}

// Health is the snapshot returned by health().
type Health struct {
	ProjectID          string         `json:"projectId"`
	WorkspaceRoot      string         `json:"workspaceRoot"`
	GraphNodeCounts    map[string]int `json:"graphNodeCounts"`
	EmbeddingCoverage  float64        `json:"embeddingCoverage"`
	PendingFileChanges int            `json:"pendingFileChanges"`
	LastRebuildAt      *time.Time     `json:"lastRebuildAt,omitempty"`
	PendingRebuildID   string         `json:"pendingRebuildId,omitempty"`
}

// Manager tracks every bound session, keyed by its opaque token.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// BindWorkspace validates workspaceRoot, resolves the project fingerprint and
// source directory, and registers a new session for it, returning the opaque
// token callers must present on every subsequent call.
func (m *Manager) BindWorkspace(workspaceRoot, sourceDir, projectID string) (*Session, error) {
	info, err := os.Stat(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace root %s: %w", workspaceRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", workspaceRoot)
	}

	absRoot, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", workspaceRoot, err)
	}

	if projectID == "" {
		projectID = graph.ProjectFingerprint(absRoot)
	}

	if sourceDir == "" {
		sourceDir = resolveSourceDir(absRoot)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	idx := graph.NewIndex()
	sess := &Session{
		Token:         uuid.NewString(),
		ProjectID:     projectID,
		WorkspaceRoot: absRoot,
		SourceDir:     sourceDir,
		Config:        cfg,
		Graph:         idx,
		Backend:       storage.NewMemoryBackend(idx),
		Vectors:       vector.NewStore(m.logger),
	}

	m.mu.Lock()
	m.sessions[sess.Token] = sess
	m.mu.Unlock()

	m.logger.Info("session.bind",
		"token", sess.Token,
		"project_id", projectID,
		"workspace_root", absRoot,
		"source_dir", sourceDir,
	)
	return sess, nil
}

// resolveSourceDir picks the first recognized source directory that exists
// under root, defaulting to "src" per spec §4.1.
func resolveSourceDir(root string) string {
	for _, candidate := range recognizedSourceDirs {
		if info, err := os.Stat(filepath.Join(root, candidate)); err == nil && info.IsDir() {
			return candidate
		}
	}
	return "src"
}

// Get looks up a session by its opaque token, returning SESSION_UNBOUND when
// absent or empty.
func (m *Manager) Get(token string) (*Session, error) {
	if token == "" {
		return nil, apierr.SessionUnboundf("no session token supplied")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[token]
	if !ok {
		return nil, apierr.SessionUnboundf("no session bound for token %s", token)
	}
	return sess, nil
}

// Unbind drops a session, releasing its in-memory graph mirror.
func (m *Manager) Unbind(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Health returns the current {projectId, workspaceRoot, graphNodeCounts,
// embeddingCoverage, pendingFileChanges, lastRebuildAt} snapshot.
func (s *Session) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for k, n := range s.Graph.NodeCounts() {
		counts[string(k)] = n
	}

	h := Health{
		ProjectID:          s.ProjectID,
		WorkspaceRoot:      s.WorkspaceRoot,
		GraphNodeCounts:    counts,
		EmbeddingCoverage:  s.embeddingCoverage,
		PendingFileChanges: s.pendingFileChanges,
		PendingRebuildID:   s.pendingRebuildID,
	}
	if !s.lastRebuildAt.IsZero() {
		t := s.lastRebuildAt
		h.LastRebuildAt = &t
	}
	return h
}

// BeginRebuild records a rebuild as in-flight, returning false if one is
// already running and the new request is a full rebuild (which must be
// rejected with REBUILD_IN_PROGRESS rather than coalesced).
func (s *Session) BeginRebuild(rebuildID string, full bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingRebuildID != "" && full {
		return false
	}
	s.pendingRebuildID = rebuildID
	s.rebuildIsFull = full
	return true
}

// CompleteRebuild clears the in-flight marker and stamps lastRebuildAt.
func (s *Session) CompleteRebuild(completedAt time.Time, pendingFileChanges int, embeddingCoverage float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingRebuildID = ""
	s.rebuildIsFull = false
	s.lastRebuildAt = completedAt
	s.pendingFileChanges = pendingFileChanges
	s.embeddingCoverage = embeddingCoverage
}

// IsRebuildInProgress reports whether a rebuild currently owns the write path.
func (s *Session) IsRebuildInProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingRebuildID != ""
}

// EmbeddingCoverage returns the fraction of embeddable symbols with a current
// vector.
func (s *Session) EmbeddingCoverage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingCoverage
}
