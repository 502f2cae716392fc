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
	"errors"
	"testing"
)

// =============================================================================
// SubgraphResult Lifecycle
// =============================================================================

func TestSubgraphAddNodeDeduplicates(t *testing.T) {
	g := NewSubgraph()

	added, err := g.AddNode(&NodeRecord{ID: "a", Name: "A"})
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if !added {
		t.Error("first AddNode should report newly added")
	}

	added, err = g.AddNode(&NodeRecord{ID: "a", Name: "A again"})
	if err != nil {
		t.Fatalf("duplicate AddNode errored: %v", err)
	}
	if added {
		t.Error("duplicate AddNode should report not added")
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount = %d, want 1", g.NodeCount())
	}

	// The first record wins.
	node, ok := g.GetNode("a")
	if !ok {
		t.Fatal("GetNode did not find node a")
	}
	if node.Name != "A" {
		t.Errorf("duplicate insert replaced record, Name = %q", node.Name)
	}
}

func TestSubgraphAddNodeRejectsInvalid(t *testing.T) {
	g := NewSubgraph()

	if _, err := g.AddNode(nil); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("nil node: err = %v, want ErrInvalidNode", err)
	}
	if _, err := g.AddNode(&NodeRecord{}); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("empty ID: err = %v, want ErrInvalidNode", err)
	}
}

func TestSubgraphFreezeBlocksMutation(t *testing.T) {
	g := NewSubgraph()
	if _, err := g.AddNode(&NodeRecord{ID: "a"}); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	g.Freeze()
	if g.State() != SubgraphStateFrozen {
		t.Errorf("State = %v, want frozen", g.State())
	}

	if _, err := g.AddNode(&NodeRecord{ID: "b"}); !errors.Is(err, ErrSubgraphFrozen) {
		t.Errorf("AddNode after Freeze: err = %v, want ErrSubgraphFrozen", err)
	}
	if err := g.AddEdge(EdgeRecord{SourceID: "a", TargetID: "b"}); !errors.Is(err, ErrSubgraphFrozen) {
		t.Errorf("AddEdge after Freeze: err = %v, want ErrSubgraphFrozen", err)
	}
}

func TestSubgraphAddEdgeNormalizesWeight(t *testing.T) {
	g := NewSubgraph()

	if err := g.AddEdge(EdgeRecord{SourceID: "a", TargetID: "b", RelationType: RelationCalls}); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if err := g.AddEdge(EdgeRecord{SourceID: "a", TargetID: "c", RelationType: RelationCalls, Weight: 2.5}); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	edges := g.Edges()
	if edges[0].Weight != DefaultEdgeWeight {
		t.Errorf("unset weight = %v, want %v", edges[0].Weight, DefaultEdgeWeight)
	}
	if edges[1].Weight != 2.5 {
		t.Errorf("explicit weight = %v, want 2.5", edges[1].Weight)
	}
}

func TestSubgraphToleratesDanglingTargets(t *testing.T) {
	g := NewSubgraph()
	if _, err := g.AddNode(&NodeRecord{ID: "a"}); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	// Edge to a node that was never added (frontier boundary).
	if err := g.AddEdge(EdgeRecord{SourceID: "a", TargetID: "ghost", RelationType: RelationCalls}); err != nil {
		t.Fatalf("AddEdge to dangling target failed: %v", err)
	}
	if g.HasNode("ghost") {
		t.Error("dangling target should not appear in the node set")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestSubgraphOutgoingEdgesFilters(t *testing.T) {
	g := NewSubgraph()
	edges := []EdgeRecord{
		{SourceID: "a", TargetID: "b", RelationType: RelationCalls},
		{SourceID: "a", TargetID: "c", RelationType: RelationHasField},
		{SourceID: "b", TargetID: "c", RelationType: RelationCalls},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge failed: %v", err)
		}
	}

	all := g.OutgoingEdges("a", nil)
	if len(all) != 2 {
		t.Errorf("unfiltered outgoing edges = %d, want 2", len(all))
	}

	calls := g.OutgoingEdges("a", []RelationType{RelationCalls})
	if len(calls) != 1 || calls[0].TargetID != "b" {
		t.Errorf("filtered outgoing edges = %+v, want single a->b CALLS", calls)
	}
}

func TestNodeRecordHasLabel(t *testing.T) {
	n := &NodeRecord{ID: "a", Labels: []string{"Class", "Entity"}}
	if !n.HasLabel("Class") {
		t.Error("HasLabel(Class) = false, want true")
	}
	if n.HasLabel("Method") {
		t.Error("HasLabel(Method) = true, want false")
	}
}
