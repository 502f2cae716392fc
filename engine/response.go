// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"errors"
	"sort"

	"github.com/AleutianAI/archscope/analysis"
	"github.com/AleutianAI/archscope/explore"
	"github.com/AleutianAI/archscope/graph"
	"github.com/AleutianAI/archscope/paths"
	"github.com/AleutianAI/archscope/patterns"
)

// Status values for response envelopes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Error codes surfaced to the orchestration layer.
const (
	// CodeInputError covers empty/invalid seed lists and unknown strategies.
	CodeInputError = "INPUT_ERROR"

	// CodeDependencyUnavailable covers an uninitialized graph provider.
	CodeDependencyUnavailable = "DEPENDENCY_UNAVAILABLE"

	// CodeCancelled covers caller-imposed deadlines and cancellation.
	CodeCancelled = "CANCELLED"

	// CodeInternal covers everything else.
	CodeInternal = "INTERNAL"
)

// Advisory next-action tokens. These are hints for downstream orchestration,
// not commands.
const (
	ActionOptimizeCriticalPaths = "OPTIMIZE_CRITICAL_PATHS"
	ActionFixSecurityIssues     = "FIX_SECURITY_ISSUES"
	ActionResolveCycles         = "RESOLVE_CIRCULAR_DEPENDENCIES"
	ActionReduceCoupling        = "REDUCE_COUPLING"
	ActionReviewPatterns        = "REVIEW_PATTERNS"
	ActionExploreDeeper         = "EXPLORE_DEEPER"
	ActionNarrowTraceScope      = "NARROW_TRACE_SCOPE"
)

// ErrorInfo describes a failed operation in a response envelope.
type ErrorInfo struct {
	// Code is one of the Code* constants.
	Code string `json:"code"`

	// Message is the human-readable failure description.
	Message string `json:"message"`
}

// GraphDTO is the wire representation of an explored subgraph. Nodes are
// sorted by ID so identical explorations serialize identically.
type GraphDTO struct {
	Nodes []graph.NodeRecord `json:"nodes"`
	Edges []graph.EdgeRecord `json:"edges"`
}

// ExploreMetadata carries traversal bookkeeping for the caller.
type ExploreMetadata struct {
	Strategy     string `json:"strategy"`
	NodeCount    int    `json:"nodeCount"`
	EdgeCount    int    `json:"edgeCount"`
	DepthReached int    `json:"depthReached"`
	NodeLimitHit bool   `json:"nodeLimitHit"`
	FetchGaps    int    `json:"fetchGaps"`
	DurationMS   int64  `json:"durationMs"`
}

// ExploreResponse is the structured result of ExploreStructure.
type ExploreResponse struct {
	Status      string                          `json:"status"`
	Operation   string                          `json:"operation"`
	Error       *ErrorInfo                      `json:"error,omitempty"`
	Graph       *GraphDTO                       `json:"graph,omitempty"`
	Patterns    []patterns.ArchitecturalPattern `json:"patterns,omitempty"`
	Insights    []string                        `json:"insights,omitempty"`
	NextActions []string                        `json:"nextActions,omitempty"`
	Metadata    *ExploreMetadata                `json:"metadata,omitempty"`
}

// TraceMetadata carries enumeration bookkeeping for the caller.
type TraceMetadata struct {
	Strategy     string `json:"strategy"`
	PathCount    int    `json:"pathCount"`
	PathCapHit   bool   `json:"pathCapHit"`
	FetchGaps    int    `json:"fetchGaps"`
	DurationMS   int64  `json:"durationMs"`
	MaxDepthUsed int    `json:"maxDepthUsed"`
}

// TraceResponse is the structured result of TracePath.
type TraceResponse struct {
	Status         string                     `json:"status"`
	Operation      string                     `json:"operation"`
	Error          *ErrorInfo                 `json:"error,omitempty"`
	Paths          []paths.ExecutionPath      `json:"paths,omitempty"`
	CriticalPaths  []analysis.CriticalPath    `json:"criticalPaths,omitempty"`
	SecurityIssues []analysis.SecurityFinding `json:"securityIssues,omitempty"`
	Insights       []string                   `json:"insights,omitempty"`
	NextActions    []string                   `json:"nextActions,omitempty"`
	Metadata       *TraceMetadata             `json:"metadata,omitempty"`
}

// errorInfoFor maps an error to the envelope taxonomy.
func errorInfoFor(err error) *ErrorInfo {
	code := CodeInternal
	switch {
	case errors.Is(err, explore.ErrNoSeeds),
		errors.Is(err, paths.ErrNoStartingPoints),
		errors.Is(err, graph.ErrUnknownStrategy):
		code = CodeInputError
	case errors.Is(err, graph.ErrProviderNil):
		code = CodeDependencyUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCancelled
	}
	return &ErrorInfo{Code: code, Message: err.Error()}
}

// graphDTO flattens a subgraph into the wire shape, sorting nodes by ID.
func graphDTO(g *graph.SubgraphResult) *GraphDTO {
	nodes := make([]graph.NodeRecord, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return &GraphDTO{Nodes: nodes, Edges: g.Edges()}
}
