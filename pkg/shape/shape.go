// Copyright 2026 Graphmind Authors
//
// SPDX-License-Identifier: AGPL-3.0-only

package shape

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Profile names one of the three response profiles a tool call may request
// (spec §6.1, default "compact").
type Profile string

const (
	Compact  Profile = "compact"
	Balanced Profile = "balanced"
	Debug    Profile = "debug"
)

// Priority is a field-priority schema's drop order classification.
type Priority string

const (
	Required Priority = "required"
	High     Priority = "high"
	Medium   Priority = "medium"
	Low      Priority = "low"
)

// Schema maps a tool response's top-level field names to their drop
// priority; fields absent from the schema default to Medium.
type Schema map[string]Priority

// limits bundles the per-profile caps spec §4.6.5 names.
type limits struct {
	tokenBudget int // 0 means unbounded
	stringCap   int
	arrayCap    int
	keyCap      int
	depthCap    int
}

var profileLimits = map[Profile]limits{
	Compact:  {tokenBudget: 300, stringCap: 1200, arrayCap: 20, keyCap: 20, depthCap: 6},
	Balanced: {tokenBudget: 1200, stringCap: 4000, arrayCap: 100, keyCap: 100, depthCap: 20},
	Debug:    {tokenBudget: 0, stringCap: 0, arrayCap: 0, keyCap: 0, depthCap: 20},
}

// Envelope is the uniform shape every tool call response takes (spec §4.6.5
// / §6.1): {ok, profile, summary, data, _tokenEstimate, hint?, errorCode?}.
type Envelope struct {
	OK            bool   `json:"ok"`
	Profile       string `json:"profile"`
	Summary       string `json:"summary,omitempty"`
	Data          any    `json:"data,omitempty"`
	TokenEstimate int    `json:"_tokenEstimate"`
	Hint          string `json:"hint,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
}

// Ok builds a successful envelope, shaping data under profile's budget using
// schema's field priorities. hint is set when upstream degraded (e.g. a
// readiness gate fell back to lexical-only search).
func Ok(profile Profile, summary string, data map[string]any, schema Schema, hint string) Envelope {
	lim, ok := profileLimits[profile]
	if !ok {
		lim = profileLimits[Compact]
		profile = Compact
	}

	truncated := truncateValue(data, lim, 0).(map[string]any)
	shaped := dropFields(truncated, schema, lim.tokenBudget)

	return Envelope{
		OK:            true,
		Profile:       string(profile),
		Summary:       summary,
		Data:          shaped,
		TokenEstimate: tokenEstimate(shaped),
		Hint:          hint,
	}
}

// Err builds a failed envelope carrying apierr's code and a remediation hint.
func Err(profile Profile, errorCode, hint string) Envelope {
	return Envelope{OK: false, Profile: string(profile), ErrorCode: errorCode, Hint: hint}
}

// tokenEstimate mirrors spec's ceil(length(JSONEncode(data))/4).
func tokenEstimate(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return int(math.Ceil(float64(len(b)) / 4.0))
}

// dropFields repeatedly removes low, then medium, then high priority
// top-level fields from data until its token estimate is within budget or
// only required fields remain. budget==0 means unbounded (debug profile):
// nothing is dropped.
func dropFields(data map[string]any, schema Schema, budget int) map[string]any {
	if budget == 0 {
		return data
	}
	if tokenEstimate(data) <= budget {
		return data
	}

	for _, tier := range []Priority{Low, Medium, High} {
		changed := false
		for field := range data {
			if priorityOf(schema, field) == tier {
				delete(data, field)
				changed = true
			}
		}
		if changed && tokenEstimate(data) <= budget {
			break
		}
	}
	return data
}

func priorityOf(schema Schema, field string) Priority {
	if schema == nil {
		return Medium
	}
	if p, ok := schema[field]; ok {
		return p
	}
	return Medium
}

// truncateValue recursively applies the string/array/object-key/depth caps
// to v, independent of field priority - this runs before dropFields and
// bounds the size of whatever survives it.
func truncateValue(v any, lim limits, depth int) any {
	if lim.depthCap > 0 && depth > lim.depthCap {
		return "…depth limit reached"
	}

	switch val := v.(type) {
	case string:
		if lim.stringCap > 0 && len(val) > lim.stringCap {
			return val[:lim.stringCap] + fmt.Sprintf("…[truncated, %d more bytes]", len(val)-lim.stringCap)
		}
		return val

	case []any:
		out := make([]any, 0, len(val))
		n := len(val)
		capN := lim.arrayCap
		if capN > 0 && n > capN {
			n = capN
		}
		for i := 0; i < n; i++ {
			out = append(out, truncateValue(val[i], lim, depth+1))
		}
		if capN > 0 && len(val) > capN {
			out = append(out, fmt.Sprintf("…%d more items", len(val)-capN))
		}
		return out

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(keys))
		n := len(keys)
		capN := lim.keyCap
		if capN > 0 && n > capN {
			n = capN
		}
		for i := 0; i < n; i++ {
			out[keys[i]] = truncateValue(val[keys[i]], lim, depth+1)
		}
		if capN > 0 && len(keys) > capN {
			out["…omitted"] = fmt.Sprintf("%d more keys", len(keys)-capN)
		}
		return out

	default:
		return val
	}
}
