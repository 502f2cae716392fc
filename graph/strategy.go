// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"strings"
)

// Per-node edge caps for the built-in exploration strategies.
const (
	// FocusedEdgeLimit caps edges fetched per node under the FOCUSED strategy.
	FocusedEdgeLimit = 10

	// LayeredEdgeLimit caps edges fetched per node under the LAYERED strategy.
	LayeredEdgeLimit = 25

	// ComprehensiveEdgeLimit caps edges fetched per node under COMPREHENSIVE.
	ComprehensiveEdgeLimit = 50

	// focusedSeedThreshold is the seed count above which scope selection
	// falls back to FOCUSED to keep the frontier narrow.
	focusedSeedThreshold = 3
)

// ExplorationStrategy is a named traversal policy: which relationship types
// a traversal follows and how many edges it fetches per node.
//
// Strategies are immutable; a request selects one up front and uses it for
// the whole traversal.
type ExplorationStrategy struct {
	// Name identifies the strategy (FOCUSED, LAYERED, COMPREHENSIVE).
	Name string

	// Relations is the relationship-type allowlist.
	Relations []RelationType

	// EdgeLimit is the per-node result cap passed to the provider.
	EdgeLimit int
}

// Built-in exploration strategies.
//
// FOCUSED follows only direct structural edges. LAYERED adds usage edges.
// COMPREHENSIVE adds type and override edges on top of that.
var (
	StrategyFocused = ExplorationStrategy{
		Name: "FOCUSED",
		Relations: []RelationType{
			RelationCalls, RelationExtends, RelationImplements, RelationContains,
		},
		EdgeLimit: FocusedEdgeLimit,
	}

	StrategyLayered = ExplorationStrategy{
		Name: "LAYERED",
		Relations: []RelationType{
			RelationCalls, RelationExtends, RelationImplements, RelationContains,
			RelationDependsOn, RelationHasField, RelationUsesField,
		},
		EdgeLimit: LayeredEdgeLimit,
	}

	StrategyComprehensive = ExplorationStrategy{
		Name: "COMPREHENSIVE",
		Relations: []RelationType{
			RelationCalls, RelationExtends, RelationImplements, RelationContains,
			RelationDependsOn, RelationHasField, RelationUsesField,
			RelationReturns, RelationThrows, RelationAnnotatedBy,
			RelationOverrides, RelationInstantiates,
		},
		EdgeLimit: ComprehensiveEdgeLimit,
	}
)

// StrategyByName resolves a strategy from its name (case-insensitive).
//
// Outputs:
//
//	ExplorationStrategy - The matching strategy.
//	error - ErrUnknownStrategy (wrapped with the offending name) if no match.
func StrategyByName(name string) (ExplorationStrategy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "FOCUSED":
		return StrategyFocused, nil
	case "LAYERED":
		return StrategyLayered, nil
	case "COMPREHENSIVE":
		return StrategyComprehensive, nil
	default:
		return ExplorationStrategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// StrategyForScope selects a strategy from the request scope and seed count.
//
// Description:
//
//	An explicit scope name always wins. With no scope, a request with many
//	seeds gets FOCUSED (each seed already widens the frontier), otherwise
//	LAYERED as the balanced default.
//
// Outputs:
//
//	ExplorationStrategy - The selected strategy.
//	error - ErrUnknownStrategy if scope names a strategy that does not exist.
func StrategyForScope(scope string, seedCount int) (ExplorationStrategy, error) {
	if strings.TrimSpace(scope) != "" {
		return StrategyByName(scope)
	}
	if seedCount > focusedSeedThreshold {
		return StrategyFocused, nil
	}
	return StrategyLayered, nil
}
