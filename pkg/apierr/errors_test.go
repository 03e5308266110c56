// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageIncludesWrappedCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	e := StoreUnavailablef(cause, "cannot reach graph store")
	assert.Contains(t, e.Error(), "STORE_UNAVAILABLE")
	assert.Contains(t, e.Error(), "connection refused")
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	e := Internalf(cause, "unexpected nil")
	assert.True(t, errors.Is(e, cause))
}

func TestError_RetryableFlags(t *testing.T) {
	assert.True(t, RebuildInProgressf("busy").Retryable)
	assert.True(t, StoreUnavailablef(nil, "down").Retryable)
	assert.True(t, Timeoutf(nil, "slow").Retryable)
	assert.False(t, ValidationFailedf("bad field").Retryable)
	assert.False(t, SessionUnboundf("no session").Retryable)
}

func TestError_As(t *testing.T) {
	var err error = AlreadyClaimedf("agent-7", "claim held on %s", "p1:file:a.go")
	wrapped := fmt.Errorf("agent_claim failed: %w", err)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, AlreadyClaimed, got.Code)
	assert.Contains(t, got.Remediation, "agent-7")
}

func TestError_JSONShape(t *testing.T) {
	e := ValidationFailedf("targetId is required")
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "VALIDATION_FAILED", decoded["code"])
	assert.Equal(t, "targetId is required", decoded["message"])
	assert.Equal(t, false, decoded["retryable"])
	_, hasErrField := decoded["Err"]
	assert.False(t, hasErrField, "Err must not be marshaled")
}

func TestError_NotReadyRemediationPreserved(t *testing.T) {
	e := NotReadyf("call rebuild_graph first", "project has not completed initial ingestion")
	assert.Equal(t, "call rebuild_graph first", e.Remediation)
	assert.Equal(t, NotReady, e.Code)
}
