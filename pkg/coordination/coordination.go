// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordination

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/graphmind/pkg/apierr"
	"github.com/kraklabs/graphmind/pkg/bm25"
	"github.com/kraklabs/graphmind/pkg/graph"
)

// Coordinator implements C7's claim/episode/task operations against one
// session's graph index. mu serializes Claim so the "no active claim for
// this target" check and the new CLAIM node's write happen atomically -
// the single-writer CAS discipline spec §3.4.6 requires (without it, two
// concurrent agent_claim calls for the same target could both observe no
// active claim and both succeed).
type Coordinator struct {
	mu        sync.Mutex
	idx       *graph.Index
	projectID string
}

// New creates a Coordinator writing through idx for projectID.
func New(idx *graph.Index, projectID string) *Coordinator {
	return &Coordinator{idx: idx, projectID: projectID}
}

// Claim creates a new active CLAIM node over targetID, failing with
// ALREADY_CLAIMED if any current claim on that target is still active
// (spec §3.4.6, §4.7's claim exclusivity invariant).
func (c *Coordinator) Claim(targetID string, claimType graph.ClaimType, intent, actor string, now time.Time) (string, *apierr.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.idx.AllCurrent(graph.KindClaim) {
		if n.Str("targetId") == targetID && graph.ClaimState(n.Str("state")) == graph.ClaimActive {
			return "", apierr.AlreadyClaimedf(n.Str("actor"), "target %s is already claimed", targetID)
		}
	}

	id := "claim:" + uuid.NewString()
	c.idx.UpsertNode(&graph.Node{
		ID: id, Kind: graph.KindClaim, ProjectID: c.projectID, ValidFrom: now,
		Props: map[string]any{
			"targetId":  targetID,
			"claimType": string(claimType),
			"intent":    intent,
			"actor":     actor,
			"state":     string(graph.ClaimActive),
			"claimedAt": now,
		},
	})
	return id, nil
}

// Release marks claimID released. Releasing an unknown or already-released
// claim is a no-op, matching spec §4.7's idempotence requirement.
func (c *Coordinator) Release(claimID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.idx.GetCurrent(claimID)
	if !ok || graph.ClaimState(n.Str("state")) == graph.ClaimReleased {
		return
	}

	props := cloneProps(n.Props)
	props["state"] = string(graph.ClaimReleased)
	props["releasedAt"] = now

	c.idx.Supersede(claimID, now)
	c.idx.UpsertNode(&graph.Node{
		ID: claimID, Kind: graph.KindClaim, ProjectID: c.projectID, ValidFrom: now,
		Props: props,
	})
}

// ClaimView is one active claim as coordinationOverview reports it.
type ClaimView struct {
	ClaimID   string
	TargetID  string
	ClaimType string
	Intent    string
	Actor     string
	Age       time.Duration
}

// Overview returns every active claim, sorted by claim id for determinism.
func (c *Coordinator) Overview(now time.Time) []ClaimView {
	var views []ClaimView
	for _, n := range c.idx.AllCurrent(graph.KindClaim) {
		if graph.ClaimState(n.Str("state")) != graph.ClaimActive {
			continue
		}
		claimedAt, _ := n.Props["claimedAt"].(time.Time)
		views = append(views, ClaimView{
			ClaimID:   n.ID,
			TargetID:  n.Str("targetId"),
			ClaimType: n.Str("claimType"),
			Intent:    n.Str("intent"),
			Actor:     n.Str("actor"),
			Age:       now.Sub(claimedAt),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ClaimID < views[j].ClaimID })
	return views
}

// EpisodeAdd appends an EPISODE node. A DECISION episode is rejected without
// a non-empty rationale (spec §3.4.7, §4.7).
func (c *Coordinator) EpisodeAdd(epType graph.EpisodeType, content, rationale, actor string, metadata map[string]any, now time.Time) (string, *apierr.Error) {
	if epType == graph.EpisodeDecision && strings.TrimSpace(rationale) == "" {
		return "", apierr.ValidationFailedf("a DECISION episode requires a non-empty rationale")
	}

	id := "episode:" + uuid.NewString()
	c.idx.UpsertNode(&graph.Node{
		ID: id, Kind: graph.KindEpisode, ProjectID: c.projectID, ValidFrom: now,
		Props: map[string]any{
			"type":      string(epType),
			"content":   content,
			"rationale": rationale,
			"actor":     actor,
			"metadata":  metadata,
			"createdAt": now,
		},
	})
	return id, nil
}

// EpisodeRecall searches every current EPISODE node (any type) for query,
// ranked by BM25 over its content+rationale text.
func (c *Coordinator) EpisodeRecall(query string, limit int) []*graph.Node {
	return c.searchEpisodes(query, "", limit)
}

// DecisionQuery is EpisodeRecall restricted to type==DECISION.
func (c *Coordinator) DecisionQuery(topic string, limit int) []*graph.Node {
	return c.searchEpisodes(topic, graph.EpisodeDecision, limit)
}

func (c *Coordinator) searchEpisodes(query string, onlyType graph.EpisodeType, limit int) []*graph.Node {
	episodes := c.idx.AllCurrent(graph.KindEpisode)
	byID := make(map[string]*graph.Node, len(episodes))
	docs := make(map[string]string, len(episodes))
	for _, n := range episodes {
		if onlyType != "" && n.Str("type") != string(onlyType) {
			continue
		}
		byID[n.ID] = n
		docs[n.ID] = n.Str("content") + " " + n.Str("rationale")
	}
	if len(docs) == 0 {
		return nil
	}
	results := bm25.NewIndex(docs).Search(query, limit)
	out := make([]*graph.Node, 0, len(results))
	for _, r := range results {
		out = append(out, byID[r.DocID])
	}
	return out
}

// validTaskTransitions is spec §4.7's strict task state machine: every
// status change not listed here is rejected.
var validTaskTransitions = map[graph.TaskStatus][]graph.TaskStatus{
	graph.TaskPending:    {graph.TaskInProgress},
	graph.TaskInProgress: {graph.TaskBlocked, graph.TaskCompleted},
	graph.TaskBlocked:    {graph.TaskInProgress},
}

// TaskUpdate transitions taskID to newStatus if the move is legal, writing
// notes onto the task's current version. taskID may name a TASK or FEATURE
// node; both share the same status vocabulary.
func (c *Coordinator) TaskUpdate(taskID string, newStatus graph.TaskStatus, notes string, now time.Time) *apierr.Error {
	n, ok := c.idx.GetCurrent(taskID)
	if !ok {
		return apierr.ValidationFailedf("no current task/feature with id %s", taskID)
	}
	current := graph.TaskStatus(n.Str("status"))

	allowed := false
	for _, s := range validTaskTransitions[current] {
		if s == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return apierr.ValidationFailedf("illegal task transition %s -> %s", current, newStatus)
	}

	props := cloneProps(n.Props)
	props["status"] = string(newStatus)
	if notes != "" {
		props["notes"] = notes
	}
	props["updatedAt"] = now

	c.idx.Supersede(taskID, now)
	c.idx.UpsertNode(&graph.Node{ID: taskID, Kind: n.Kind, ProjectID: c.projectID, ValidFrom: now, Props: props})
	return nil
}

// BlockingIssues returns every current TASK/FEATURE node with status==blocked
// whose scope property matches scope (empty scope matches everything),
// grouped by scope.
func (c *Coordinator) BlockingIssues(scope string) map[string][]*graph.Node {
	out := make(map[string][]*graph.Node)
	for _, kind := range []graph.Kind{graph.KindTask, graph.KindFeature} {
		for _, n := range c.idx.AllCurrent(kind) {
			if graph.TaskStatus(n.Str("status")) != graph.TaskBlocked {
				continue
			}
			s := n.Str("scope")
			if scope != "" && s != scope {
				continue
			}
			out[s] = append(out[s], n)
		}
	}
	return out
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
