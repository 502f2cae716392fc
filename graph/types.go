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

// DefaultEdgeWeight is the weight assigned to edges whose stored weight is
// missing or non-positive.
const DefaultEdgeWeight = 1.0

// SubgraphState represents the lifecycle state of a SubgraphResult.
type SubgraphState int

const (
	// SubgraphStateBuilding indicates the result is accepting AddNode/AddEdge calls.
	SubgraphStateBuilding SubgraphState = iota

	// SubgraphStateFrozen indicates the result is finalized and read-only.
	SubgraphStateFrozen
)

// String returns the string representation of the SubgraphState.
func (s SubgraphState) String() string {
	switch s {
	case SubgraphStateBuilding:
		return "building"
	case SubgraphStateFrozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// RelationType identifies the kind of relationship an edge represents.
//
// The values mirror the relationship labels stored in the graph store so
// that records round-trip without translation.
type RelationType string

const (
	// RelationContains indicates structural containment (package→class, class→method).
	RelationContains RelationType = "CONTAINS"

	// RelationExtends indicates class inheritance.
	RelationExtends RelationType = "EXTENDS"

	// RelationImplements indicates a type implementing an interface.
	RelationImplements RelationType = "IMPLEMENTS"

	// RelationCalls indicates a method invoking another method.
	RelationCalls RelationType = "CALLS"

	// RelationDependsOn indicates a general dependency between entities.
	RelationDependsOn RelationType = "DEPENDS_ON"

	// RelationHasField indicates a class declaring a field.
	RelationHasField RelationType = "HAS_FIELD"

	// RelationUsesField indicates a method reading or writing a field.
	RelationUsesField RelationType = "USES_FIELD"

	// RelationReturns indicates a method returning a type.
	RelationReturns RelationType = "RETURNS"

	// RelationThrows indicates a method declaring a thrown exception type.
	RelationThrows RelationType = "THROWS"

	// RelationAnnotatedBy indicates an entity carrying an annotation.
	RelationAnnotatedBy RelationType = "ANNOTATED_BY"

	// RelationOverrides indicates a method overriding a supertype method.
	RelationOverrides RelationType = "OVERRIDES"

	// RelationInstantiates indicates a method constructing a type.
	RelationInstantiates RelationType = "INSTANTIATES"

	// RelationAccesses indicates a method accessing external data or state.
	RelationAccesses RelationType = "ACCESSES"
)

// NodeRecord is a snapshot of one code entity as stored in the graph.
//
// Identity is ID; all other fields are descriptive. Records are immutable
// once fetched.
type NodeRecord struct {
	// ID is the opaque stable identifier assigned by the graph store.
	ID string `json:"id"`

	// Labels are the category tags for the entity (e.g. "Class", "Method").
	Labels []string `json:"labels,omitempty"`

	// Name is the simple name of the entity.
	Name string `json:"name"`

	// DeclaredType is the declared type for fields and method returns.
	DeclaredType string `json:"declaredType,omitempty"`

	// ContainingClass is the enclosing class, if any.
	ContainingClass string `json:"containingClass,omitempty"`

	// ContainingPackage is the enclosing package, if any.
	ContainingPackage string `json:"containingPackage,omitempty"`

	// QualifiedName is the fully qualified name of the entity.
	QualifiedName string `json:"qualifiedName,omitempty"`

	// Signature is the method signature, when the entity is a method.
	Signature string `json:"signature,omitempty"`

	// SourceFile is the file the entity was parsed from.
	SourceFile string `json:"sourceFile,omitempty"`

	// LineNumber is the declaration line within SourceFile.
	LineNumber int `json:"lineNumber,omitempty"`
}

// HasLabel reports whether the record carries the given category tag.
func (n *NodeRecord) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// EdgeRecord is a directed, typed relationship between two entities.
//
// Multiple edges may exist between the same pair of nodes with different
// relation types.
type EdgeRecord struct {
	// SourceID is the ID of the source node.
	SourceID string `json:"sourceId"`

	// TargetID is the ID of the target node. The target may lie outside
	// the explored set (frontier boundary); consumers must tolerate
	// dangling targets.
	TargetID string `json:"targetId"`

	// RelationType is the relationship kind.
	RelationType RelationType `json:"relationType"`

	// Weight is the edge weight (DefaultEdgeWeight when unset).
	Weight float64 `json:"weight"`

	// Properties carries open store-specific attributes.
	Properties map[string]any `json:"properties,omitempty"`
}

// SubgraphResult accumulates the nodes and edges discovered by one bounded
// traversal. Nodes are deduplicated by ID; edges are kept in discovery order.
type SubgraphResult struct {
	nodes map[string]*NodeRecord
	edges []EdgeRecord
	state SubgraphState
}

// NewSubgraph creates an empty subgraph result in the building state.
func NewSubgraph() *SubgraphResult {
	return &SubgraphResult{
		nodes: make(map[string]*NodeRecord),
		edges: make([]EdgeRecord, 0),
		state: SubgraphStateBuilding,
	}
}

// AddNode inserts a node, deduplicating by ID.
//
// Outputs:
//
//	bool - True if the node was newly added, false if it was a duplicate.
//	error - ErrSubgraphFrozen after Freeze(), ErrInvalidNode for nil/empty-ID nodes.
func (s *SubgraphResult) AddNode(node *NodeRecord) (bool, error) {
	if s.state == SubgraphStateFrozen {
		return false, ErrSubgraphFrozen
	}
	if node == nil || node.ID == "" {
		return false, ErrInvalidNode
	}
	if _, ok := s.nodes[node.ID]; ok {
		return false, nil
	}
	s.nodes[node.ID] = node
	return true, nil
}

// AddEdge appends an edge. Edge endpoints are not required to exist in the
// node map: targets at the traversal frontier legitimately dangle.
func (s *SubgraphResult) AddEdge(edge EdgeRecord) error {
	if s.state == SubgraphStateFrozen {
		return ErrSubgraphFrozen
	}
	if edge.Weight <= 0 {
		edge.Weight = DefaultEdgeWeight
	}
	s.edges = append(s.edges, edge)
	return nil
}

// Freeze finalizes the result. After Freeze the result is read-only and
// safe for concurrent readers.
func (s *SubgraphResult) Freeze() {
	s.state = SubgraphStateFrozen
}

// State returns the current lifecycle state.
func (s *SubgraphResult) State() SubgraphState {
	return s.state
}

// GetNode returns the node with the given ID, if present.
func (s *SubgraphResult) GetNode(id string) (*NodeRecord, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID is in the explored set.
func (s *SubgraphResult) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Nodes returns the deduplicated node map. The returned map must be treated
// as read-only.
func (s *SubgraphResult) Nodes() map[string]*NodeRecord {
	return s.nodes
}

// Edges returns all accumulated edges in discovery order. The returned slice
// must be treated as read-only.
func (s *SubgraphResult) Edges() []EdgeRecord {
	return s.edges
}

// NodeCount returns the number of distinct nodes.
func (s *SubgraphResult) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *SubgraphResult) EdgeCount() int {
	return len(s.edges)
}

// OutgoingEdges returns the edges whose source is the given node, optionally
// filtered to a set of relation types (nil = all types).
func (s *SubgraphResult) OutgoingEdges(sourceID string, relTypes []RelationType) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range s.edges {
		if e.SourceID != sourceID {
			continue
		}
		if relTypes != nil && !containsRelation(relTypes, e.RelationType) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// containsRelation reports whether rt appears in types.
func containsRelation(types []RelationType, rt RelationType) bool {
	for _, t := range types {
		if t == rt {
			return true
		}
	}
	return false
}
