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

// Package storage provides the graph store adapter (C4): a fixed, external-
// store-shaped interface (WriteBatch / ExecuteCypher) with one concrete
// in-process implementation (MemoryBackend) used by default, and an optional
// pkg/cozodb-backed implementation (EmbeddedBackend) for a persistent
// deployment where the graph should survive a process restart.
package storage

import (
	"context"
	"math/rand"
	"time"

	"github.com/kraklabs/graphmind/pkg/apierr"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// Backend is the fixed interface every graph store implementation satisfies,
// matching spec's "external store, fixed contract" framing for C4.
type Backend interface {
	// WriteBatch applies the node/edge writes for one ingestion phase.
	// MemoryBackend applies a batch all-or-nothing; EmbeddedBackend runs its
	// puts one by one, so a failure part-way leaves the earlier ones in place.
	WriteBatch(ctx context.Context, nodes []*graph.Node, edges []graph.Edge) error

	// ExecuteCypher runs a query expressed in graphmind's small Cypher-like
	// vocabulary (see cypher.go) and returns its rows.
	ExecuteCypher(ctx context.Context, query string, params map[string]any) (*QueryResult, error)

	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error

	// Close releases any resources held by the backend.
	Close() error
}

// QueryResult represents the tabular result of an ExecuteCypher call.
type QueryResult struct {
	Headers []string
	Rows    [][]any
}

// retryClass classifies a store error for the exponential-backoff retry
// loop every Backend call goes through.
type retryClass int

const (
	classFatal     retryClass = iota // do not retry (e.g. constraint violation, bad query)
	classTransient                   // retry with backoff (e.g. connection reset)
)

// backoffConfig matches spec §4.4's store-call retry policy: base 200ms,
// factor 2, cap 5s, at most 5 attempts.
var backoffConfig = struct {
	base       time.Duration
	factor     float64
	cap        time.Duration
	maxAttempt int
}{
	base:       200 * time.Millisecond,
	factor:     2,
	cap:        5 * time.Second,
	maxAttempt: 5,
}

// withRetry runs op, retrying on transient failures with exponential
// backoff and jitter up to backoffConfig.maxAttempt attempts. classify
// determines whether a given error is worth retrying; fatal errors return
// immediately.
func withRetry(ctx context.Context, classify func(error) retryClass, op func() error) error {
	var lastErr error
	delay := backoffConfig.base
	for attempt := 1; attempt <= backoffConfig.maxAttempt; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if classify(lastErr) == classFatal {
			return lastErr
		}
		if attempt == backoffConfig.maxAttempt {
			break
		}
		jittered := delay + time.Duration(rand.Int63n(int64(delay)/2+1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}
		delay = time.Duration(float64(delay) * backoffConfig.factor)
		if delay > backoffConfig.cap {
			delay = backoffConfig.cap
		}
	}
	return apierr.StoreUnavailablef(lastErr, "store call failed after %d attempts", backoffConfig.maxAttempt)
}
