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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/graph"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// mockProvider serves a fixed in-memory graph.
type mockProvider struct {
	nodes map[string]*graph.NodeRecord
	edges map[string][]graph.EdgeRecord
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		nodes: make(map[string]*graph.NodeRecord),
		edges: make(map[string][]graph.EdgeRecord),
	}
}

func (m *mockProvider) addNode(id, name string, labels ...string) {
	m.nodes[id] = &graph.NodeRecord{ID: id, Name: name, Labels: labels}
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
	return m.nodes[id], nil
}

func (m *mockProvider) FetchEdges(ctx context.Context, id string, relTypes []graph.RelationType, limit int) ([]graph.EdgeRecord, error) {
	out := make([]graph.EdgeRecord, 0)
	for _, e := range m.edges[id] {
		keep := len(relTypes) == 0
		for _, rt := range relTypes {
			if rt == e.RelationType {
				keep = true
				break
			}
		}
		if keep && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

// orderFixture wires a small service/repository shape with a cycle.
func orderFixture() *mockProvider {
	p := newMockProvider()
	p.addNode("svc", "OrderService", "Class")
	p.addNode("repo", "OrderRepository", "Class")
	p.addNode("m1", "handleOrder", "Method")
	p.addNode("m2", "saveOrder", "Method")
	p.addEdge("svc", "repo", graph.RelationCalls)
	p.addEdge("repo", "svc", graph.RelationCalls)
	p.addEdge("m1", "m2", graph.RelationCalls)
	return p
}

func mustEngine(t *testing.T, p graph.Provider) *Engine {
	t.Helper()
	eng, err := New(p, config.Default())
	require.NoError(t, err)
	return eng
}

// =============================================================================
// Engine Construction
// =============================================================================

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(nil, config.Default())
	assert.ErrorIs(t, err, graph.ErrProviderNil)
}

// =============================================================================
// ExploreStructure Envelopes
// =============================================================================

func TestExploreStructureSuccess(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.ExploreStructure(context.Background(), ExploreRequest{
		SeedIDs: []string{"svc"},
	})

	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, OpExploreStructure, resp.Operation)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Graph)
	assert.NotEmpty(t, resp.Graph.Nodes)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, "LAYERED", resp.Metadata.Strategy)
	assert.NotEmpty(t, resp.Insights)
}

func TestExploreStructureEmptySeeds(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.ExploreStructure(context.Background(), ExploreRequest{})

	require.Equal(t, StatusError, resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInputError, resp.Error.Code)
	assert.Nil(t, resp.Graph)
}

func TestExploreStructureUnknownScope(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.ExploreStructure(context.Background(), ExploreRequest{
		SeedIDs: []string{"svc"},
		Scope:   "TURBO",
	})

	require.Equal(t, StatusError, resp.Status)
	assert.Equal(t, CodeInputError, resp.Error.Code)
}

func TestExploreStructureCancelled(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := eng.ExploreStructure(ctx, ExploreRequest{SeedIDs: []string{"svc"}})

	require.Equal(t, StatusError, resp.Status)
	assert.Equal(t, CodeCancelled, resp.Error.Code)
}

func TestExploreStructureNextActionsForCycle(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.ExploreStructure(context.Background(), ExploreRequest{
		SeedIDs: []string{"svc"},
	})

	require.Equal(t, StatusOK, resp.Status)
	// svc <-> repo is a cycle; the advisory token must surface.
	assert.Contains(t, resp.NextActions, ActionResolveCycles)
	assert.Contains(t, resp.NextActions, ActionReviewPatterns)
}

func TestExploreStructureGraphSortedByID(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.ExploreStructure(context.Background(), ExploreRequest{
		SeedIDs: []string{"svc", "m1"},
	})

	require.Equal(t, StatusOK, resp.Status)
	nodes := resp.Graph.Nodes
	for i := 1; i < len(nodes); i++ {
		assert.Less(t, nodes[i-1].ID, nodes[i].ID, "nodes must be sorted by ID")
	}
}

// =============================================================================
// TracePath Envelopes
// =============================================================================

func TestTracePathSuccess(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.TracePath(context.Background(), TraceRequest{
		StartingPoints: []string{"m1"},
	})

	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, OpTracePath, resp.Operation)
	require.Len(t, resp.Paths, 1)
	assert.True(t, resp.Paths[0].IsTerminal)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, string("DEFAULT"), resp.Metadata.Strategy)
	assert.Equal(t, 1, resp.Metadata.PathCount)
}

func TestTracePathEmptyStartingPoints(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.TracePath(context.Background(), TraceRequest{})

	require.Equal(t, StatusError, resp.Status)
	assert.Equal(t, CodeInputError, resp.Error.Code)
}

func TestTracePathUnknownStrategy(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.TracePath(context.Background(), TraceRequest{
		StartingPoints: []string{"m1"},
		TraceType:      "SIDEWAYS",
	})

	require.Equal(t, StatusError, resp.Status)
	assert.Equal(t, CodeInputError, resp.Error.Code)
}

func TestTracePathIncludeDataFlowSwitchesStrategy(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.TracePath(context.Background(), TraceRequest{
		StartingPoints:  []string{"m1"},
		IncludeDataFlow: true,
	})

	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "DATA_FLOW", resp.Metadata.Strategy)
}

func TestTracePathExplicitTypeBeatsDataFlowFlag(t *testing.T) {
	eng := mustEngine(t, orderFixture())

	resp := eng.TracePath(context.Background(), TraceRequest{
		StartingPoints:  []string{"m1"},
		TraceType:       "CRITICAL_PATH",
		IncludeDataFlow: true,
	})

	require.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "CRITICAL_PATH", resp.Metadata.Strategy)
}

func TestTracePathSecurityNextAction(t *testing.T) {
	p := newMockProvider()
	p.addNode("m1", "handleOrder", "Method")
	p.addNode("m2", "saveOrder", "Method")
	p.addEdge("m1", "m2", graph.RelationCalls)
	eng := mustEngine(t, p)

	resp := eng.TracePath(context.Background(), TraceRequest{
		StartingPoints: []string{"m1"},
	})

	require.Equal(t, StatusOK, resp.Status)
	// saveOrder classifies as an unvalidated database access.
	assert.NotEmpty(t, resp.SecurityIssues)
	assert.Contains(t, resp.NextActions, ActionFixSecurityIssues)
}
