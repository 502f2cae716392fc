// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph defines the data model shared by all ArchScope traversals.
//
// The graph package contains the record types for code entities and their
// relationships as returned by the graph store (nodes are classes, methods,
// fields and interfaces; edges are typed relationships such as CALLS or
// IMPLEMENTS), the Provider interface that abstracts the store, and the
// exploration strategies that bound what a traversal may fetch.
//
// # Ownership Model
//
// NodeRecord and EdgeRecord values are snapshots: they are immutable once
// fetched from the Provider. A SubgraphResult owns its node map and edge
// slice; callers MUST NOT mutate records reachable from a frozen result.
//
// # Thread Safety
//
// SubgraphResult is NOT safe for concurrent use during accumulation. It is
// designed for single-writer access while a builder fills it, and read-only
// access from any number of goroutines after Freeze() is called.
//
// # Lifecycle
//
// A typical subgraph lifecycle:
//  1. Create with NewSubgraph()
//  2. Fill with AddNode() and AddEdge() calls during traversal
//  3. Call Freeze() when the traversal returns
//  4. Hand to detectors and the response assembler (read-only)
package graph

import "errors"

// Sentinel errors for graph data model operations.
var (
	// ErrSubgraphFrozen is returned when attempting to modify a frozen
	// subgraph. Once Freeze() is called, the result becomes read-only.
	ErrSubgraphFrozen = errors.New("subgraph is frozen and cannot be modified")

	// ErrUnknownStrategy is returned when a strategy name does not match
	// any registered exploration strategy.
	ErrUnknownStrategy = errors.New("unknown exploration strategy")

	// ErrInvalidNode is returned when attempting to add a nil node or a
	// node with an empty ID.
	ErrInvalidNode = errors.New("invalid node")

	// ErrProviderNil is returned when a traversal is constructed without
	// a graph query provider.
	ErrProviderNil = errors.New("graph query provider is not initialized")
)
