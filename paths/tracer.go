// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package paths

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/graph"
)

// MaxTraceDepth is the hard ceiling on path enumeration depth.
const MaxTraceDepth = 15

// Name fragments that mark a target as a processing/handling entry point
// for the CRITICAL_PATH strategy.
var criticalTargetRoles = []string{"process", "handle", "execute", "run"}

// TraceStats summarizes one completed trace for metadata and metrics.
type TraceStats struct {
	// Strategy is the trace strategy name.
	Strategy string `json:"strategy"`

	// PathsEmitted is the number of execution paths produced.
	PathsEmitted int `json:"pathsEmitted"`

	// PathCapHit is true if the global path cap stopped enumeration.
	PathCapHit bool `json:"pathCapHit"`

	// FetchGaps counts fetches that failed and were absorbed.
	FetchGaps int `json:"fetchGaps"`

	// Duration is the wall-clock trace time.
	Duration time.Duration `json:"duration"`
}

// Tracer enumerates execution paths from starting method nodes.
//
// Thread Safety: a Tracer holds only the provider handle and configuration;
// every Trace call owns its own stack, caches and visited sets, so a single
// Tracer serves concurrent requests.
type Tracer struct {
	provider graph.Provider
	cfg      config.TraceConfig
	weights  config.StepWeights
}

// NewTracer creates a path tracer backed by the given provider.
//
// Outputs:
//
//	*Tracer - The tracer.
//	error - graph.ErrProviderNil if provider is nil.
func NewTracer(provider graph.Provider, cfg config.TraceConfig, weights config.StepWeights) (*Tracer, error) {
	if provider == nil {
		return nil, graph.ErrProviderNil
	}
	return &Tracer{provider: provider, cfg: cfg, weights: weights}, nil
}

// traceRun is the request-scoped state for one Trace call: the node and
// edge caches plus running statistics. Nothing in a traceRun is shared
// between requests.
type traceRun struct {
	provider  graph.Provider
	relations []graph.RelationType
	edgeLimit int

	nodeCache map[string]*graph.NodeRecord
	edgeCache map[string][]graph.EdgeRecord

	stats TraceStats
}

// ErrNoStartingPoints indicates the caller supplied an empty start list.
var ErrNoStartingPoints = errors.New("no starting points provided")

// Trace enumerates execution paths from the starting node IDs.
//
// Description:
//
//	Explicit-stack DFS per start ID. A branch is emitted as non-terminal
//	when the depth limit cuts it off, and as terminal when its last node
//	has zero eligible next steps (no outgoing edges under the strategy,
//	or every target already on this branch's visited set). Enumeration
//	stops globally once the configured path cap is reached. The context
//	is checked on every pop.
//
//	Fetch failures are absorbed: a node whose edges cannot be fetched is
//	treated as a dead end, never as a request failure.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	startIDs - Starting method node IDs. Must be non-empty.
//	strategy - Which edges to follow (TraceDefault when empty).
//	maxDepth - Depth limit (<=0 uses the configured default, clamped to MaxTraceDepth).
//
// Outputs:
//
//	[]ExecutionPath - Up to the configured cap of enumerated paths.
//	TraceStats - Enumeration metadata.
//	error - ErrNoStartingPoints for empty input, ctx.Err() on cancellation.
func (t *Tracer) Trace(ctx context.Context, startIDs []string, strategy TraceStrategy, maxDepth int) ([]ExecutionPath, TraceStats, error) {
	start := time.Now()

	if len(startIDs) == 0 {
		return nil, TraceStats{}, ErrNoStartingPoints
	}
	if strategy == "" {
		strategy = TraceDefault
	}
	if maxDepth <= 0 {
		maxDepth = t.cfg.MaxDepth
	}
	if maxDepth > MaxTraceDepth {
		maxDepth = MaxTraceDepth
	}

	ctx, span := tracer.Start(ctx, "paths.Trace")
	defer span.End()
	span.SetAttributes(
		attribute.Int("start_count", len(startIDs)),
		attribute.String("strategy", string(strategy)),
		attribute.Int("max_depth", maxDepth),
	)

	run := &traceRun{
		provider:  t.provider,
		relations: strategy.relations(),
		edgeLimit: t.cfg.EdgeLimit,
		nodeCache: make(map[string]*graph.NodeRecord),
		edgeCache: make(map[string][]graph.EdgeRecord),
		stats:     TraceStats{Strategy: string(strategy)},
	}

	result := make([]ExecutionPath, 0)

	for _, startID := range startIDs {
		if len(result) >= t.cfg.MaxPaths {
			run.stats.PathCapHit = true
			break
		}

		stack := []*pathState{{
			current: startID,
			steps:   nil,
			depth:   0,
			visited: map[string]bool{startID: true},
		}}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "cancelled")
				return nil, run.stats, err
			}
			if len(result) >= t.cfg.MaxPaths {
				run.stats.PathCapHit = true
				break
			}

			state := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if state.depth >= maxDepth {
				result = append(result, t.emit(startID, state, false))
				continue
			}

			next := run.nextSteps(ctx, state, strategy)
			if len(next) == 0 {
				result = append(result, t.emit(startID, state, true))
				continue
			}

			// Push in reverse so the first candidate is explored first.
			for i := len(next) - 1; i >= 0; i-- {
				stack = append(stack, state.fanOut(next[i]))
			}
		}
	}

	run.stats.PathsEmitted = len(result)
	run.stats.Duration = time.Since(start)
	recordTrace(ctx, run.stats)

	slog.Info("Path trace complete",
		"strategy", strategy,
		"paths", run.stats.PathsEmitted,
		"path_cap_hit", run.stats.PathCapHit,
		"fetch_gaps", run.stats.FetchGaps,
		"duration", run.stats.Duration)

	return result, run.stats, nil
}

// emit finalizes one branch into an immutable ExecutionPath.
func (t *Tracer) emit(startID string, state *pathState, terminal bool) ExecutionPath {
	counts := make(map[StepType]int, len(state.steps))
	complexity := 0.0
	for _, step := range state.steps {
		counts[step.StepType]++
		complexity += weightFor(t.weights, step.StepType)
	}
	return ExecutionPath{
		ID:             uuid.NewString(),
		StartNode:      startID,
		Steps:          state.steps,
		Depth:          state.depth,
		IsTerminal:     terminal,
		Complexity:     complexity,
		StepTypeCounts: counts,
	}
}

// nextSteps fetches, classifies and filters the eligible steps out of the
// branch's current node.
//
// The visited-set guard drops targets already on this branch, which both
// prevents infinite revisits on cyclic graphs and leaves sibling branches
// free to visit the same node.
func (r *traceRun) nextSteps(ctx context.Context, state *pathState, strategy TraceStrategy) []PathStep {
	edges := r.fetchEdges(ctx, state.current)

	steps := make([]PathStep, 0, len(edges))
	for _, edge := range edges {
		if state.visited[edge.TargetID] {
			continue
		}
		target := r.fetchNode(ctx, edge.TargetID)
		step := PathStep{
			SourceNode: edge.SourceID,
			TargetNode: edge.TargetID,
			StepType:   classifyStep(edge, target),
			Properties: edge.Properties,
		}
		if target != nil {
			step.TargetName = target.Name
		}
		steps = append(steps, step)
	}

	if strategy == TraceCriticalPath {
		// Stable sort keeps store order within each priority class.
		sort.SliceStable(steps, func(i, j int) bool {
			return stepPriority(steps[i]) < stepPriority(steps[j])
		})
	}
	return steps
}

// fetchEdges returns outgoing edges for a node, consulting the per-request
// cache first. Failures are absorbed as gaps.
func (r *traceRun) fetchEdges(ctx context.Context, id string) []graph.EdgeRecord {
	if edges, ok := r.edgeCache[id]; ok {
		return edges
	}
	edges, err := r.provider.FetchEdges(ctx, id, r.relations, r.edgeLimit)
	if err != nil {
		r.stats.FetchGaps++
		slog.Warn("Treating node as dead end after edge fetch failure",
			"node_id", id,
			"error", err)
		edges = nil
	}
	r.edgeCache[id] = edges
	return edges
}

// fetchNode resolves a node record through the per-request cache. A nil
// return means the node is unknown; classification falls back to the ID.
func (r *traceRun) fetchNode(ctx context.Context, id string) *graph.NodeRecord {
	if node, ok := r.nodeCache[id]; ok {
		return node
	}
	node, err := r.provider.FetchNode(ctx, id)
	if err != nil {
		r.stats.FetchGaps++
		node = nil
	}
	r.nodeCache[id] = node
	return node
}

// stepPriority orders steps for the CRITICAL_PATH strategy: processing or
// handling targets first, then heavy step types, then the rest.
func stepPriority(step PathStep) int {
	name := strings.ToLower(step.TargetName)
	if name == "" {
		name = strings.ToLower(step.TargetNode)
	}
	for _, role := range criticalTargetRoles {
		if strings.Contains(name, role) {
			return 0
		}
	}
	switch step.StepType {
	case StepDatabaseAccess, StepExternalAPICall:
		return 1
	default:
		return 2
	}
}

// classifyStep derives the step classification from the edge type and the
// target's name. The graph store does not label semantics, so name
// fragments are the only available signal.
func classifyStep(edge graph.EdgeRecord, target *graph.NodeRecord) StepType {
	if edge.RelationType == graph.RelationThrows {
		return StepExceptionHandling
	}

	name := edge.TargetID
	if target != nil {
		name = target.Name
		if target.QualifiedName != "" {
			name = name + " " + target.QualifiedName
		}
	}
	lower := strings.ToLower(name)

	switch {
	case containsAny(lower, "validate", "check", "verify", "sanitize"):
		return StepDataValidation
	case containsAny(lower, "repository", "dao", "save", "persist", "query", "find"):
		return StepDatabaseAccess
	case containsAny(lower, "client", "api", "http", "request", "fetch"):
		return StepExternalAPICall
	case containsAny(lower, "exception", "catch", "recover", "fallback"):
		return StepExceptionHandling
	case containsAny(lower, "transform", "convert", "map", "parse", "serialize"):
		return StepDataTransformation
	default:
		return StepMethodCall
	}
}

// containsAny reports whether s contains any of the given fragments.
func containsAny(s string, fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
