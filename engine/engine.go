// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine assembles the exploration and tracing operations into the
// structured responses consumed by the orchestration layer.
//
// The engine owns no cross-request state: the only process-wide handle is
// the graph provider, set once at construction and read-only thereafter.
// Every operation builds its result fresh and reports failures as
// structured error envelopes, never as raw panics or stack traces.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/archscope/analysis"
	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/explore"
	"github.com/AleutianAI/archscope/graph"
	"github.com/AleutianAI/archscope/paths"
	"github.com/AleutianAI/archscope/patterns"
)

// Operation names used in response envelopes.
const (
	OpExploreStructure = "explore_structure"
	OpTracePath        = "trace_path"
)

// ExploreRequest is the input to ExploreStructure.
type ExploreRequest struct {
	// SeedIDs are the starting entity IDs. Must be non-empty.
	SeedIDs []string `json:"seedIds" binding:"required,min=1"`

	// Scope optionally names an exploration strategy (FOCUSED, LAYERED,
	// COMPREHENSIVE). Empty selects one from the seed count.
	Scope string `json:"scope,omitempty"`

	// MaxDepth bounds the traversal depth (0 = default).
	MaxDepth int `json:"maxDepth,omitempty"`

	// MaxNodes bounds the explored node count (0 = default).
	MaxNodes int `json:"maxNodes,omitempty"`
}

// TraceRequest is the input to TracePath.
type TraceRequest struct {
	// StartingPoints are the starting method node IDs. Must be non-empty.
	StartingPoints []string `json:"startingPoints" binding:"required,min=1"`

	// TraceType optionally names a trace strategy (DEFAULT, DATA_FLOW,
	// CRITICAL_PATH).
	TraceType string `json:"traceType,omitempty"`

	// MaxDepth bounds the enumeration depth (0 = default).
	MaxDepth int `json:"maxDepth,omitempty"`

	// IncludeDataFlow switches an unspecified TraceType to DATA_FLOW.
	IncludeDataFlow bool `json:"includeDataFlow,omitempty"`

	// TrackPerformance attaches performance estimates to critical paths.
	TrackPerformance bool `json:"trackPerformance,omitempty"`
}

// Engine is the bounded graph-traversal and pattern-detection engine.
//
// Thread Safety: Engine is immutable after New and safe for concurrent use;
// each request owns its own traversal state.
type Engine struct {
	builder  *explore.Builder
	tracer   *paths.Tracer
	detector *patterns.Detector
	cfg      config.Config
}

// New creates an engine on top of a graph provider.
//
// Outputs:
//
//	*Engine - The engine.
//	error - graph.ErrProviderNil if provider is nil.
func New(provider graph.Provider, cfg config.Config) (*Engine, error) {
	builder, err := explore.NewBuilder(provider)
	if err != nil {
		return nil, err
	}
	tracer, err := paths.NewTracer(provider, cfg.Trace, cfg.Weights)
	if err != nil {
		return nil, err
	}
	return &Engine{
		builder:  builder,
		tracer:   tracer,
		detector: patterns.NewDetector(cfg.Patterns),
		cfg:      cfg,
	}, nil
}

// ExploreStructure builds a bounded subgraph around the seed entities and
// derives architectural findings from it.
//
// Description:
//
//	Selects an exploration strategy from the request scope and seed
//	count, runs the bounded BFS builder, runs the pattern detectors over
//	the frozen result, and assembles the response envelope with insights
//	and advisory next actions. All failures are reported in the envelope;
//	this method never returns an error value.
func (e *Engine) ExploreStructure(ctx context.Context, req ExploreRequest) *ExploreResponse {
	fail := func(err error) *ExploreResponse {
		slog.Warn("Explore request failed", "error", err)
		return &ExploreResponse{Status: StatusError, Operation: OpExploreStructure, Error: errorInfoFor(err)}
	}

	if len(req.SeedIDs) == 0 {
		return fail(explore.ErrNoSeeds)
	}
	strategy, err := graph.StrategyForScope(req.Scope, len(req.SeedIDs))
	if err != nil {
		return fail(err)
	}

	g, stats, err := e.builder.Build(ctx, req.SeedIDs, strategy, req.MaxDepth, req.MaxNodes)
	if err != nil {
		return fail(err)
	}

	found, err := e.detector.Detect(ctx, g)
	if err != nil {
		return fail(err)
	}

	return &ExploreResponse{
		Status:      StatusOK,
		Operation:   OpExploreStructure,
		Graph:       graphDTO(g),
		Patterns:    found,
		Insights:    exploreInsights(stats, found),
		NextActions: exploreNextActions(stats, found),
		Metadata: &ExploreMetadata{
			Strategy:     stats.Strategy,
			NodeCount:    stats.NodesVisited,
			EdgeCount:    stats.EdgesFetched,
			DepthReached: stats.DepthReached,
			NodeLimitHit: stats.NodeLimitHit,
			FetchGaps:    stats.FetchGaps,
			DurationMS:   stats.Duration.Milliseconds(),
		},
	}
}

// TracePath enumerates execution paths from the starting points and ranks
// their criticality and security posture.
func (e *Engine) TracePath(ctx context.Context, req TraceRequest) *TraceResponse {
	fail := func(err error) *TraceResponse {
		slog.Warn("Trace request failed", "error", err)
		return &TraceResponse{Status: StatusError, Operation: OpTracePath, Error: errorInfoFor(err)}
	}

	if len(req.StartingPoints) == 0 {
		return fail(paths.ErrNoStartingPoints)
	}

	traceType := req.TraceType
	if traceType == "" && req.IncludeDataFlow {
		traceType = string(paths.TraceDataFlow)
	}
	strategy, err := paths.TraceStrategyByName(traceType)
	if err != nil {
		return fail(err)
	}

	maxDepth := req.MaxDepth
	if maxDepth <= 0 {
		maxDepth = e.cfg.Trace.MaxDepth
	}

	enumerated, stats, err := e.tracer.Trace(ctx, req.StartingPoints, strategy, maxDepth)
	if err != nil {
		return fail(err)
	}

	critical := analysis.RankCritical(enumerated, req.TrackPerformance, e.cfg.Critical)
	security := analysis.ScanSecurity(enumerated)

	return &TraceResponse{
		Status:         StatusOK,
		Operation:      OpTracePath,
		Paths:          enumerated,
		CriticalPaths:  critical,
		SecurityIssues: security,
		Insights:       traceInsights(stats, critical, security),
		NextActions:    traceNextActions(stats, critical, security),
		Metadata: &TraceMetadata{
			Strategy:     stats.Strategy,
			PathCount:    stats.PathsEmitted,
			PathCapHit:   stats.PathCapHit,
			FetchGaps:    stats.FetchGaps,
			DurationMS:   stats.Duration.Milliseconds(),
			MaxDepthUsed: maxDepth,
		},
	}
}

// exploreInsights derives the textual findings for an explore response.
func exploreInsights(stats explore.BuildStats, found []patterns.ArchitecturalPattern) []string {
	insights := []string{
		fmt.Sprintf("Explored %d nodes and %d edges in %d level(s) using the %s strategy",
			stats.NodesVisited, stats.EdgesFetched, stats.DepthReached, stats.Strategy),
	}
	if stats.NodeLimitHit {
		insights = append(insights, "Exploration stopped at the node cap; the subgraph is a sample of the full neighborhood")
	}
	if stats.FetchGaps > 0 {
		insights = append(insights, fmt.Sprintf("%d fetch gap(s) were skipped; the graph store has referential holes here", stats.FetchGaps))
	}
	for _, p := range found {
		insights = append(insights, fmt.Sprintf("%s (confidence %.2f): %s", p.Type, p.Confidence, p.Description))
	}
	return insights
}

// exploreNextActions derives advisory tokens for an explore response.
func exploreNextActions(stats explore.BuildStats, found []patterns.ArchitecturalPattern) []string {
	actions := make([]string, 0, 3)
	for _, p := range found {
		switch p.Type {
		case patterns.PatternCircularDependency:
			actions = append(actions, ActionResolveCycles)
		case patterns.PatternHighCoupling:
			actions = append(actions, ActionReduceCoupling)
		}
	}
	if len(found) > 0 {
		actions = append(actions, ActionReviewPatterns)
	}
	if stats.NodeLimitHit {
		actions = append(actions, ActionExploreDeeper)
	}
	return actions
}

// traceInsights derives the textual findings for a trace response.
func traceInsights(stats paths.TraceStats, critical []analysis.CriticalPath, security []analysis.SecurityFinding) []string {
	insights := []string{
		fmt.Sprintf("Enumerated %d execution path(s) using the %s strategy", stats.PathsEmitted, stats.Strategy),
	}
	if stats.PathCapHit {
		insights = append(insights, "Enumeration stopped at the path cap; highly branching code may have unexplored paths")
	}
	if len(critical) > 0 {
		insights = append(insights, fmt.Sprintf("%d path(s) rank as critical; the worst has complexity %.1f",
			len(critical), critical[0].CriticalityScore))
	}
	high := 0
	for _, f := range security {
		if f.Severity == analysis.SeverityHigh {
			high++
		}
	}
	if len(security) > 0 {
		insights = append(insights, fmt.Sprintf("%d security finding(s), %d HIGH severity", len(security), high))
	}
	return insights
}

// traceNextActions derives advisory tokens for a trace response.
func traceNextActions(stats paths.TraceStats, critical []analysis.CriticalPath, security []analysis.SecurityFinding) []string {
	actions := make([]string, 0, 3)
	if len(security) > 0 {
		actions = append(actions, ActionFixSecurityIssues)
	}
	if len(critical) > 0 {
		actions = append(actions, ActionOptimizeCriticalPaths)
	}
	if stats.PathCapHit {
		actions = append(actions, ActionNarrowTraceScope)
	}
	return actions
}
