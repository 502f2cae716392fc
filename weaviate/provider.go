// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/AleutianAI/archscope/graph"
)

// Class names for the code property graph.
const (
	// CodeEntityClassName stores one object per code entity (package,
	// class, method, field).
	CodeEntityClassName = "CodeEntity"

	// CodeRelationClassName stores one object per directed, typed edge
	// between two entities.
	CodeRelationClassName = "CodeRelation"
)

// Provider implements graph.Provider on top of the Weaviate store.
//
// Description:
//
//	Each lookup is one GraphQL Get query routed through the resilient
//	client, so retries, rate limiting and the circuit breaker apply
//	uniformly. The provider holds no per-request state.
//
// Thread Safety: Safe for concurrent use.
type Provider struct {
	client *Client
	logger *slog.Logger
}

// NewProvider creates a graph provider over a resilient store client.
func NewProvider(client *Client) (*Provider, error) {
	if client == nil {
		return nil, graph.ErrProviderNil
	}
	return &Provider{
		client: client,
		logger: slog.Default().With(slog.String("component", "weaviate_provider")),
	}, nil
}

// entityFields are the CodeEntity properties every node fetch requests.
var entityFields = []graphql.Field{
	{Name: "entityId"},
	{Name: "labels"},
	{Name: "name"},
	{Name: "declaredType"},
	{Name: "containingClass"},
	{Name: "containingPackage"},
	{Name: "qualifiedName"},
	{Name: "signature"},
	{Name: "sourceFile"},
	{Name: "lineNumber"},
}

// relationFields are the CodeRelation properties every edge fetch requests.
var relationFields = []graphql.Field{
	{Name: "sourceId"},
	{Name: "targetId"},
	{Name: "relationType"},
	{Name: "weight"},
	{Name: "propertiesJson"},
}

// FetchNode looks up a single code entity by its stable ID.
//
// Outputs:
//
//	*graph.NodeRecord - The node, or nil when no entity carries the ID.
//	error - Non-nil on store failure after retries.
func (p *Provider) FetchNode(ctx context.Context, id string) (*graph.NodeRecord, error) {
	if id == "" {
		return nil, nil
	}

	whereFilter := filters.Where().
		WithPath([]string{"entityId"}).
		WithOperator(filters.Equal).
		WithValueString(id)

	var result *models.GraphQLResponse
	err := p.client.Execute(ctx, func() error {
		var qerr error
		result, qerr = p.client.Raw().GraphQL().Get().
			WithClassName(CodeEntityClassName).
			WithFields(entityFields...).
			WithWhere(whereFilter).
			WithLimit(1).
			Do(ctx)
		if qerr != nil {
			return qerr
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("node query: %s", result.Errors[0].Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch node %q: %w", id, err)
	}

	objects := getObjects(result, CodeEntityClassName)
	if len(objects) == 0 {
		return nil, nil
	}
	return parseNode(objects[0]), nil
}

// FetchEdges returns outgoing relationship edges for a node.
//
// Inputs:
//
//	relTypes - Relationship-type allowlist (nil or empty = all types).
//	limit - Server-side truncation limit.
func (p *Provider) FetchEdges(ctx context.Context, id string, relTypes []graph.RelationType, limit int) ([]graph.EdgeRecord, error) {
	if id == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 1
	}

	operands := []*filters.WhereBuilder{
		filters.Where().
			WithPath([]string{"sourceId"}).
			WithOperator(filters.Equal).
			WithValueString(id),
	}
	if len(relTypes) > 0 {
		names := make([]string, len(relTypes))
		for i, rt := range relTypes {
			names[i] = string(rt)
		}
		operands = append(operands, filters.Where().
			WithPath([]string{"relationType"}).
			WithOperator(filters.ContainsAny).
			WithValueText(names...))
	}
	whereFilter := filters.Where().
		WithOperator(filters.And).
		WithOperands(operands)

	var result *models.GraphQLResponse
	err := p.client.Execute(ctx, func() error {
		var qerr error
		result, qerr = p.client.Raw().GraphQL().Get().
			WithClassName(CodeRelationClassName).
			WithFields(relationFields...).
			WithWhere(whereFilter).
			WithLimit(limit).
			Do(ctx)
		if qerr != nil {
			return qerr
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("edge query: %s", result.Errors[0].Message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch edges for %q: %w", id, err)
	}

	objects := getObjects(result, CodeRelationClassName)
	edges := make([]graph.EdgeRecord, 0, len(objects))
	for _, obj := range objects {
		edge := parseEdge(obj)
		if edge.SourceID == "" || edge.TargetID == "" {
			p.logger.Warn("Skipping malformed relation object",
				slog.String("source_id", edge.SourceID),
				slog.String("target_id", edge.TargetID))
			continue
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// -----------------------------------------------------------------------------
// Response parsing
// -----------------------------------------------------------------------------

// getObjects extracts the object list for a class from a GraphQL response.
func getObjects(result *models.GraphQLResponse, className string) []map[string]interface{} {
	if result == nil {
		return nil
	}
	data, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := data[className].([]interface{})
	if !ok {
		return nil
	}
	objects := make([]map[string]interface{}, 0, len(raw))
	for _, obj := range raw {
		if m, ok := obj.(map[string]interface{}); ok {
			objects = append(objects, m)
		}
	}
	return objects
}

// parseNode converts one CodeEntity object into a NodeRecord.
func parseNode(m map[string]interface{}) *graph.NodeRecord {
	return &graph.NodeRecord{
		ID:                getString(m, "entityId"),
		Labels:            getStringSlice(m, "labels"),
		Name:              getString(m, "name"),
		DeclaredType:      getString(m, "declaredType"),
		ContainingClass:   getString(m, "containingClass"),
		ContainingPackage: getString(m, "containingPackage"),
		QualifiedName:     getString(m, "qualifiedName"),
		Signature:         getString(m, "signature"),
		SourceFile:        getString(m, "sourceFile"),
		LineNumber:        int(getNumber(m, "lineNumber")),
	}
}

// parseEdge converts one CodeRelation object into an EdgeRecord.
func parseEdge(m map[string]interface{}) graph.EdgeRecord {
	edge := graph.EdgeRecord{
		SourceID:     getString(m, "sourceId"),
		TargetID:     getString(m, "targetId"),
		RelationType: graph.RelationType(getString(m, "relationType")),
		Weight:       getNumber(m, "weight"),
	}
	if edge.Weight <= 0 {
		edge.Weight = graph.DefaultEdgeWeight
	}
	if raw := getString(m, "propertiesJson"); raw != "" {
		var props map[string]any
		if err := json.Unmarshal([]byte(raw), &props); err == nil {
			edge.Properties = props
		}
	}
	return edge
}

// getString safely extracts a string field.
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getNumber safely extracts a numeric field.
func getNumber(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// getStringSlice safely extracts a text-array field.
func getStringSlice(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
