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
	"errors"
	"fmt"
	"testing"

	"github.com/AleutianAI/archscope/graph"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// mockProvider serves a fixed in-memory graph.
type mockProvider struct {
	nodes map[string]*graph.NodeRecord
	edges map[string][]graph.EdgeRecord

	nodeErrs map[string]error
	edgeErrs map[string]error

	nodeFetches int
	edgeFetches int
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		nodes:    make(map[string]*graph.NodeRecord),
		edges:    make(map[string][]graph.EdgeRecord),
		nodeErrs: make(map[string]error),
		edgeErrs: make(map[string]error),
	}
}

func (m *mockProvider) addNode(id string, labels ...string) {
	m.nodes[id] = &graph.NodeRecord{ID: id, Name: id, Labels: labels}
}

func (m *mockProvider) addEdge(source, target string, rt graph.RelationType) {
	m.edges[source] = append(m.edges[source], graph.EdgeRecord{
		SourceID:     source,
		TargetID:     target,
		RelationType: rt,
		Weight:       graph.DefaultEdgeWeight,
	})
}

func (m *mockProvider) FetchNode(ctx context.Context, id string) (*graph.NodeRecord, error) {
	m.nodeFetches++
	if err := m.nodeErrs[id]; err != nil {
		return nil, err
	}
	return m.nodes[id], nil
}

func (m *mockProvider) FetchEdges(ctx context.Context, id string, relTypes []graph.RelationType, limit int) ([]graph.EdgeRecord, error) {
	m.edgeFetches++
	if err := m.edgeErrs[id]; err != nil {
		return nil, err
	}
	out := make([]graph.EdgeRecord, 0)
	for _, e := range m.edges[id] {
		if len(relTypes) > 0 && !hasRelation(relTypes, e.RelationType) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func hasRelation(types []graph.RelationType, rt graph.RelationType) bool {
	for _, t := range types {
		if t == rt {
			return true
		}
	}
	return false
}

// buildChain wires a->b->c->... call chain of the given length.
func buildChain(t *testing.T, length int) *mockProvider {
	t.Helper()
	p := newMockProvider()
	for i := 0; i < length; i++ {
		id := fmt.Sprintf("n%d", i)
		p.addNode(id, "Method")
		if i > 0 {
			p.addEdge(fmt.Sprintf("n%d", i-1), id, graph.RelationCalls)
		}
	}
	return p
}

func mustBuilder(t *testing.T, p graph.Provider) *Builder {
	t.Helper()
	b, err := NewBuilder(p)
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	return b
}

// =============================================================================
// Builder Tests
// =============================================================================

func TestNewBuilderNilProvider(t *testing.T) {
	if _, err := NewBuilder(nil); !errors.Is(err, graph.ErrProviderNil) {
		t.Errorf("err = %v, want ErrProviderNil", err)
	}
}

func TestBuildRequiresSeeds(t *testing.T) {
	b := mustBuilder(t, newMockProvider())
	if _, _, err := b.Build(context.Background(), nil, graph.StrategyLayered, 0, 0); !errors.Is(err, ErrNoSeeds) {
		t.Errorf("err = %v, want ErrNoSeeds", err)
	}
}

func TestBuildRespectsDepthLimit(t *testing.T) {
	p := buildChain(t, 10)
	b := mustBuilder(t, p)

	g, stats, err := b.Build(context.Background(), []string{"n0"}, graph.StrategyLayered, 2, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Depth 2 visits two BFS levels: n0 and n1. n2 was enqueued but the
	// level loop exits before processing it.
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
	if stats.DepthReached != 2 {
		t.Errorf("DepthReached = %d, want 2", stats.DepthReached)
	}
	if !g.HasNode("n0") || !g.HasNode("n1") {
		t.Error("expected n0 and n1 in the explored set")
	}
	if g.State() != graph.SubgraphStateFrozen {
		t.Error("result should be frozen")
	}
}

func TestBuildRespectsNodeCap(t *testing.T) {
	// A hub with many children: the cap cuts the first level short.
	p := newMockProvider()
	p.addNode("hub", "Class")
	for i := 0; i < 20; i++ {
		child := fmt.Sprintf("child%02d", i)
		p.addNode(child, "Method")
		p.addEdge("hub", child, graph.RelationCalls)
	}
	b := mustBuilder(t, p)

	g, stats, err := b.Build(context.Background(), []string{"hub"}, graph.StrategyComprehensive, 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.NodeCount() > 5 {
		t.Errorf("NodeCount = %d, want <= 5", g.NodeCount())
	}
	if !stats.NodeLimitHit {
		t.Error("NodeLimitHit = false, want true")
	}
}

func TestBuildAbsorbsFetchFailures(t *testing.T) {
	p := buildChain(t, 3)
	// n1's edges cannot be fetched; the build must still complete.
	p.edgeErrs["n1"] = errors.New("store timeout")
	b := mustBuilder(t, p)

	g, stats, err := b.Build(context.Background(), []string{"n0"}, graph.StrategyLayered, 5, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats.FetchGaps != 1 {
		t.Errorf("FetchGaps = %d, want 1", stats.FetchGaps)
	}
	// n2 is unreachable because n1's edge list was lost.
	if g.HasNode("n2") {
		t.Error("n2 should be unreachable after the edge fetch failure")
	}
	if !g.HasNode("n0") || !g.HasNode("n1") {
		t.Error("nodes before the gap should still be explored")
	}
}

func TestBuildSkipsReferentialGaps(t *testing.T) {
	p := newMockProvider()
	p.addNode("a", "Method")
	// Edge to an ID the store has no record for.
	p.addEdge("a", "missing", graph.RelationCalls)
	b := mustBuilder(t, p)

	g, stats, err := b.Build(context.Background(), []string{"a"}, graph.StrategyLayered, 3, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.HasNode("missing") {
		t.Error("missing node must not be materialized")
	}
	if stats.FetchGaps != 1 {
		t.Errorf("FetchGaps = %d, want 1", stats.FetchGaps)
	}
	// The edge itself is kept: dangling targets are legitimate.
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestBuildRepeatedRunsMatch(t *testing.T) {
	// Two builds with identical inputs against an unchanged store must
	// yield the same node set and the same edge multiset.
	p := newMockProvider()
	for _, id := range []string{"a", "b", "c", "d"} {
		p.addNode(id, "Method")
	}
	p.addEdge("a", "b", graph.RelationCalls)
	p.addEdge("a", "c", graph.RelationCalls)
	p.addEdge("b", "d", graph.RelationCalls)
	p.addEdge("c", "d", graph.RelationCalls)
	b := mustBuilder(t, p)

	first, firstStats, err := b.Build(context.Background(), []string{"a"}, graph.StrategyLayered, 5, 0)
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	second, secondStats, err := b.Build(context.Background(), []string{"a"}, graph.StrategyLayered, 5, 0)
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	if first.NodeCount() != second.NodeCount() {
		t.Fatalf("node counts differ: %d vs %d", first.NodeCount(), second.NodeCount())
	}
	for id := range first.Nodes() {
		if !second.HasNode(id) {
			t.Errorf("node %q present in first build only", id)
		}
	}

	edgeKey := func(e graph.EdgeRecord) string {
		return fmt.Sprintf("%s->%s:%s", e.SourceID, e.TargetID, e.RelationType)
	}
	firstEdges := make(map[string]int)
	for _, e := range first.Edges() {
		firstEdges[edgeKey(e)]++
	}
	for _, e := range second.Edges() {
		firstEdges[edgeKey(e)]--
	}
	for key, count := range firstEdges {
		if count != 0 {
			t.Errorf("edge %q count differs between builds by %d", key, count)
		}
	}

	if firstStats.NodesVisited != secondStats.NodesVisited ||
		firstStats.EdgesFetched != secondStats.EdgesFetched ||
		firstStats.DepthReached != secondStats.DepthReached {
		t.Errorf("stats differ: %+v vs %+v", firstStats, secondStats)
	}
}

func TestBuildDepthCountsOnlyDrainedLevels(t *testing.T) {
	// The node cap cuts the second level short, so only the seed level
	// counts as reached.
	p := newMockProvider()
	p.addNode("hub", "Class")
	for i := 0; i < 20; i++ {
		child := fmt.Sprintf("child%02d", i)
		p.addNode(child, "Method")
		p.addEdge("hub", child, graph.RelationCalls)
	}
	b := mustBuilder(t, p)

	_, stats, err := b.Build(context.Background(), []string{"hub"}, graph.StrategyComprehensive, 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !stats.NodeLimitHit {
		t.Fatal("NodeLimitHit = false, want true")
	}
	if stats.DepthReached != 1 {
		t.Errorf("DepthReached = %d, want 1 (partial level must not count)", stats.DepthReached)
	}
}

func TestBuildDeduplicatesDiamond(t *testing.T) {
	// a -> b, a -> c, b -> d, c -> d: d must be visited once.
	p := newMockProvider()
	for _, id := range []string{"a", "b", "c", "d"} {
		p.addNode(id, "Method")
	}
	p.addEdge("a", "b", graph.RelationCalls)
	p.addEdge("a", "c", graph.RelationCalls)
	p.addEdge("b", "d", graph.RelationCalls)
	p.addEdge("c", "d", graph.RelationCalls)
	b := mustBuilder(t, p)

	g, _, err := b.Build(context.Background(), []string{"a"}, graph.StrategyLayered, 5, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", g.NodeCount())
	}
	// Both b->d and c->d survive even though d is deduplicated.
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
}

func TestBuildTerminatesOnCycle(t *testing.T) {
	p := newMockProvider()
	for _, id := range []string{"a", "b", "c"} {
		p.addNode(id, "Method")
	}
	p.addEdge("a", "b", graph.RelationCalls)
	p.addEdge("b", "c", graph.RelationCalls)
	p.addEdge("c", "a", graph.RelationCalls)
	b := mustBuilder(t, p)

	g, _, err := b.Build(context.Background(), []string{"a"}, graph.StrategyLayered, 10, 100)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
}

func TestBuildFiltersByStrategyRelations(t *testing.T) {
	p := newMockProvider()
	p.addNode("a", "Method")
	p.addNode("b", "Method")
	p.addNode("c", "Type")
	p.addEdge("a", "b", graph.RelationCalls)
	// RETURNS is outside the FOCUSED allowlist.
	p.addEdge("a", "c", graph.RelationReturns)
	b := mustBuilder(t, p)

	g, _, err := b.Build(context.Background(), []string{"a"}, graph.StrategyFocused, 3, 0)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if g.HasNode("c") {
		t.Error("RETURNS edge should not be followed under FOCUSED")
	}
	if !g.HasNode("b") {
		t.Error("CALLS edge should be followed under FOCUSED")
	}
}

func TestBuildHonorsCancellation(t *testing.T) {
	p := buildChain(t, 5)
	b := mustBuilder(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := b.Build(ctx, []string{"n0"}, graph.StrategyLayered, 5, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBuildClampsBounds(t *testing.T) {
	p := buildChain(t, 2)
	b := mustBuilder(t, p)

	// Absurd depth and node requests clamp to the hard ceilings instead of
	// erroring.
	_, stats, err := b.Build(context.Background(), []string{"n0"}, graph.StrategyLayered, 10_000, 1_000_000)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if stats.DepthReached > MaxTraversalDepth {
		t.Errorf("DepthReached = %d, want <= %d", stats.DepthReached, MaxTraversalDepth)
	}
}
