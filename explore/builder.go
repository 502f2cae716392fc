// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explore

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/archscope/graph"
)

// Traversal bound defaults and clamps.
const (
	// DefaultMaxDepth is used when the caller supplies no depth limit.
	DefaultMaxDepth = 3

	// MaxTraversalDepth is the hard ceiling on traversal depth.
	MaxTraversalDepth = 10

	// DefaultMaxNodes is used when the caller supplies no node cap.
	DefaultMaxNodes = 50

	// MaxNodeCap is the hard ceiling on the global node cap.
	MaxNodeCap = 1000
)

// BuildStats summarizes one completed build for metadata and metrics.
type BuildStats struct {
	// Strategy is the name of the exploration strategy used.
	Strategy string `json:"strategy"`

	// NodesVisited is the number of distinct nodes added to the result.
	NodesVisited int `json:"nodesVisited"`

	// EdgesFetched is the number of edges added to the result.
	EdgesFetched int `json:"edgesFetched"`

	// DepthReached is the number of fully drained BFS levels. A level cut
	// short by the node cap does not count.
	DepthReached int `json:"depthReached"`

	// NodeLimitHit is true if traversal stopped because the node cap was reached.
	NodeLimitHit bool `json:"nodeLimitHit"`

	// FetchGaps counts node/edge fetches that failed or returned nothing
	// and were skipped.
	FetchGaps int `json:"fetchGaps"`

	// Duration is the wall-clock build time.
	Duration time.Duration `json:"duration"`
}

// Builder performs bounded breadth-first subgraph construction.
//
// Thread Safety: a Builder holds only the provider handle and is safe for
// concurrent use; every Build call owns its own frontier, visited set and
// result.
type Builder struct {
	provider graph.Provider
}

// NewBuilder creates a subgraph builder backed by the given provider.
//
// Outputs:
//
//	*Builder - The builder.
//	error - graph.ErrProviderNil if provider is nil.
func NewBuilder(provider graph.Provider) (*Builder, error) {
	if provider == nil {
		return nil, graph.ErrProviderNil
	}
	return &Builder{provider: provider}, nil
}

// Build explores the graph outward from the seed IDs.
//
// Description:
//
//	Level-synchronous BFS: the frontier is drained one depth level at a
//	time, so every node is reached via a shortest path no longer than
//	maxDepth edges from some seed. Traversal stops when the frontier is
//	empty, the depth limit is reached, the global node cap is reached, or
//	the context is cancelled (checked at each level boundary).
//
//	Individual fetch failures and referential gaps are logged and skipped;
//	they never abort the build. A node with more eligible edges than the
//	strategy's per-node cap is silently truncated, so the result is a
//	sample of the true neighborhood, not an exhaustive one.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	seedIDs - Starting node IDs. Must be non-empty.
//	strategy - Relationship allowlist and per-node edge cap.
//	maxDepth - Depth limit (<=0 uses DefaultMaxDepth, clamped to MaxTraversalDepth).
//	maxNodes - Global node cap (<=0 uses DefaultMaxNodes, clamped to MaxNodeCap).
//
// Outputs:
//
//	*graph.SubgraphResult - The frozen explored subgraph.
//	BuildStats - Traversal metadata.
//	error - ErrNoSeeds for empty input, ctx.Err() on cancellation. Fetch
//	        failures are absorbed, never returned.
func (b *Builder) Build(ctx context.Context, seedIDs []string, strategy graph.ExplorationStrategy, maxDepth, maxNodes int) (*graph.SubgraphResult, BuildStats, error) {
	start := time.Now()

	if len(seedIDs) == 0 {
		return nil, BuildStats{}, ErrNoSeeds
	}
	maxDepth = clamp(maxDepth, DefaultMaxDepth, MaxTraversalDepth)
	maxNodes = clamp(maxNodes, DefaultMaxNodes, MaxNodeCap)

	ctx, span := tracer.Start(ctx, "explore.Build")
	defer span.End()
	span.SetAttributes(
		attribute.Int("seed_count", len(seedIDs)),
		attribute.String("strategy", strategy.Name),
		attribute.Int("max_depth", maxDepth),
		attribute.Int("max_nodes", maxNodes),
	)

	result := graph.NewSubgraph()
	stats := BuildStats{Strategy: strategy.Name}
	visited := make(map[string]bool, maxNodes)

	frontier := make([]string, 0, len(seedIDs))
	frontier = append(frontier, seedIDs...)

	depth := 0
	for len(frontier) > 0 && depth < maxDepth && result.NodeCount() < maxNodes {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, stats, err
		}

		// Snapshot the level size so children enqueued below are
		// processed at the next level, not this one.
		levelSize := len(frontier)
		levelDrained := true
		for i := 0; i < levelSize; i++ {
			id := frontier[i]
			if visited[id] {
				continue
			}
			visited[id] = true

			if result.NodeCount() >= maxNodes {
				stats.NodeLimitHit = true
				levelDrained = false
				break
			}

			node, err := b.provider.FetchNode(ctx, id)
			if err != nil {
				stats.FetchGaps++
				slog.Warn("Skipping node after fetch failure",
					"node_id", id,
					"depth", depth,
					"error", err)
				continue
			}
			if node == nil {
				// Referential gap: an edge pointed at an ID the
				// store has no record for.
				stats.FetchGaps++
				continue
			}

			if _, err := result.AddNode(node); err != nil {
				slog.Warn("Dropping invalid node record", "node_id", id, "error", err)
				continue
			}

			edges, err := b.provider.FetchEdges(ctx, id, strategy.Relations, strategy.EdgeLimit)
			if err != nil {
				stats.FetchGaps++
				slog.Warn("Skipping edges after fetch failure",
					"node_id", id,
					"depth", depth,
					"error", err)
				continue
			}

			for _, edge := range edges {
				if err := result.AddEdge(edge); err != nil {
					// Only possible if the result was frozen early; bail out.
					break
				}
				stats.EdgesFetched++
				if !visited[edge.TargetID] && result.NodeCount() < maxNodes {
					frontier = append(frontier, edge.TargetID)
				}
			}
		}

		frontier = frontier[levelSize:]
		if levelDrained {
			depth++
		}
	}

	if len(frontier) > 0 && result.NodeCount() >= maxNodes {
		stats.NodeLimitHit = true
	}

	result.Freeze()
	stats.NodesVisited = result.NodeCount()
	stats.DepthReached = depth
	stats.Duration = time.Since(start)

	recordBuild(ctx, stats)
	span.SetAttributes(
		attribute.Int("nodes", stats.NodesVisited),
		attribute.Int("edges", stats.EdgesFetched),
		attribute.Int("fetch_gaps", stats.FetchGaps),
	)

	slog.Info("Subgraph build complete",
		"strategy", strategy.Name,
		"nodes", stats.NodesVisited,
		"edges", stats.EdgesFetched,
		"depth", stats.DepthReached,
		"node_limit_hit", stats.NodeLimitHit,
		"duration", stats.Duration)

	return result, stats, nil
}

// clamp applies a default for non-positive values and a hard ceiling.
func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
