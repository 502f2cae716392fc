// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package paths implements depth-limited execution path enumeration.
//
// The tracer walks CALLS (and, depending on strategy, data-flow) edges
// outward from one or more starting method nodes using an explicit-stack
// DFS. Each branch owns an independent copy of its step list and visited
// set, so sibling branches may legitimately revisit the same node while no
// single path ever contains a node twice. Output is a bounded set of linear
// path records annotated with step classification and an additive
// complexity score.
package paths

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/graph"
)

// StepType classifies one step of an execution path.
type StepType string

const (
	// StepMethodCall is a plain method invocation.
	StepMethodCall StepType = "METHOD_CALL"

	// StepDataValidation is a call into validation/checking logic.
	StepDataValidation StepType = "DATA_VALIDATION"

	// StepDatabaseAccess is a call into persistence logic.
	StepDatabaseAccess StepType = "DATABASE_ACCESS"

	// StepExternalAPICall is a call into an external service client.
	StepExternalAPICall StepType = "EXTERNAL_API_CALL"

	// StepExceptionHandling is a call into error/exception handling logic.
	StepExceptionHandling StepType = "EXCEPTION_HANDLING"

	// StepDataTransformation is a call into mapping/conversion logic.
	StepDataTransformation StepType = "DATA_TRANSFORMATION"
)

// TraceStrategy selects which edges path enumeration follows.
type TraceStrategy string

const (
	// TraceDefault follows plain CALLS edges.
	TraceDefault TraceStrategy = "DEFAULT"

	// TraceDataFlow additionally follows field-usage and access edges.
	TraceDataFlow TraceStrategy = "DATA_FLOW"

	// TraceCriticalPath follows CALLS edges, prioritizing targets that
	// look like processing or handling entry points.
	TraceCriticalPath TraceStrategy = "CRITICAL_PATH"
)

// TraceStrategyByName resolves a trace strategy from its name.
//
// Outputs:
//
//	TraceStrategy - The matching strategy.
//	error - graph.ErrUnknownStrategy (wrapped) if no match. An empty name
//	        resolves to TraceDefault.
func TraceStrategyByName(name string) (TraceStrategy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DEFAULT", "EXECUTION":
		return TraceDefault, nil
	case "DATA_FLOW", "DATAFLOW":
		return TraceDataFlow, nil
	case "CRITICAL_PATH", "CRITICAL":
		return TraceCriticalPath, nil
	default:
		return "", fmt.Errorf("%w: %q", graph.ErrUnknownStrategy, name)
	}
}

// relations returns the relationship allowlist for the strategy.
func (s TraceStrategy) relations() []graph.RelationType {
	switch s {
	case TraceDataFlow:
		return []graph.RelationType{
			graph.RelationUsesField, graph.RelationAccesses,
			graph.RelationReturns, graph.RelationCalls,
		}
	default:
		return []graph.RelationType{graph.RelationCalls}
	}
}

// PathStep is one hop in an execution path.
type PathStep struct {
	// SourceNode is the ID of the step's source method.
	SourceNode string `json:"sourceNode"`

	// TargetNode is the ID of the invoked method or accessed entity.
	TargetNode string `json:"targetNode"`

	// TargetName is the resolved simple name of the target, when known.
	TargetName string `json:"targetName,omitempty"`

	// StepType is the heuristic classification of this step.
	StepType StepType `json:"stepType"`

	// Properties carries edge attributes from the graph store.
	Properties map[string]any `json:"properties,omitempty"`
}

// ExecutionPath is one linear sequence of steps from a start node to either
// a dead end or a depth cutoff. Immutable once emitted.
type ExecutionPath struct {
	// ID uniquely identifies the path within the request.
	ID string `json:"id"`

	// StartNode is the ID of the starting method node.
	StartNode string `json:"startNode"`

	// Steps is the ordered hop sequence.
	Steps []PathStep `json:"steps"`

	// Depth is the number of steps.
	Depth int `json:"depth"`

	// IsTerminal is true when the last node had zero eligible outgoing
	// steps under the active strategy; false means the depth limit cut
	// the path off.
	IsTerminal bool `json:"isTerminal"`

	// Complexity is the additive heuristic complexity score.
	Complexity float64 `json:"complexity"`

	// StepTypeCounts tallies steps by classification.
	StepTypeCounts map[StepType]int `json:"stepTypeCounts,omitempty"`
}

// CountSteps returns how many steps of the given type the path contains.
func (p *ExecutionPath) CountSteps(t StepType) int {
	return p.StepTypeCounts[t]
}

// pathState is the transient DFS bookkeeping for one branch.
//
// A pathState is owned exclusively by the stack frame that created it. On
// fan-out each child receives copies of the step list and visited set, so
// sibling branches never alias shared mutable state.
type pathState struct {
	current string
	steps   []PathStep
	depth   int
	visited map[string]bool
}

// fanOut creates the child state for one next step, copying the step list
// and visited set.
func (s *pathState) fanOut(step PathStep) *pathState {
	steps := make([]PathStep, len(s.steps), len(s.steps)+1)
	copy(steps, s.steps)
	steps = append(steps, step)

	visited := make(map[string]bool, len(s.visited)+1)
	for id := range s.visited {
		visited[id] = true
	}
	visited[step.TargetNode] = true

	return &pathState{
		current: step.TargetNode,
		steps:   steps,
		depth:   s.depth + 1,
		visited: visited,
	}
}

// weightFor returns the configured additive cost of a step type.
func weightFor(w config.StepWeights, t StepType) float64 {
	switch t {
	case StepDataValidation:
		return w.DataValidation
	case StepDatabaseAccess:
		return w.DatabaseAccess
	case StepExternalAPICall:
		return w.ExternalAPICall
	case StepExceptionHandling:
		return w.ExceptionHandling
	case StepDataTransformation:
		return w.DataTransformation
	default:
		return w.MethodCall
	}
}
