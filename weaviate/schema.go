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
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate/entities/models"
)

// GetCodeEntitySchema returns the class definition for code entities.
func GetCodeEntitySchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       CodeEntityClassName,
		Description: "One code entity (package, class, method, field) in the knowledge graph.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "entityId",
				DataType:        []string{"text"},
				Description:     "Stable opaque identifier for the entity.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "labels",
				DataType:        []string{"text[]"},
				Description:     "Category tags (e.g., 'Class', 'Method').",
				IndexFilterable: indexFilterable,
			},
			{
				Name:         "name",
				DataType:     []string{"text"},
				Description:  "Simple name of the entity.",
				Tokenization: "word",
			},
			{
				Name:        "declaredType",
				DataType:    []string{"text"},
				Description: "Declared type for fields and method returns.",
			},
			{
				Name:        "containingClass",
				DataType:    []string{"text"},
				Description: "Enclosing class, if any.",
			},
			{
				Name:        "containingPackage",
				DataType:    []string{"text"},
				Description: "Enclosing package, if any.",
			},
			{
				Name:         "qualifiedName",
				DataType:     []string{"text"},
				Description:  "Fully qualified name of the entity.",
				Tokenization: "field",
			},
			{
				Name:        "signature",
				DataType:    []string{"text"},
				Description: "Method signature, when the entity is a method.",
			},
			{
				Name:        "sourceFile",
				DataType:    []string{"text"},
				Description: "File the entity was parsed from.",
			},
			{
				Name:        "lineNumber",
				DataType:    []string{"int"},
				Description: "Declaration line within sourceFile.",
			},
		},
	}
}

// GetCodeRelationSchema returns the class definition for relationship edges.
func GetCodeRelationSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       CodeRelationClassName,
		Description: "One directed, typed relationship edge between two code entities.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:            "sourceId",
				DataType:        []string{"text"},
				Description:     "Entity ID of the edge source.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "targetId",
				DataType:        []string{"text"},
				Description:     "Entity ID of the edge target.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "relationType",
				DataType:        []string{"text"},
				Description:     "Relationship kind (CALLS, CONTAINS, ...).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:        "weight",
				DataType:    []string{"number"},
				Description: "Edge weight. Non-positive values are normalized on read.",
			},
			{
				Name:        "propertiesJson",
				DataType:    []string{"text"},
				Description: "JSON-encoded open attribute map for the edge.",
			},
		},
	}
}

// EnsureSchema creates the graph classes if they do not already exist.
//
// Outputs:
//
//	error - Non-nil if a missing class could not be created.
func EnsureSchema(ctx context.Context, client *Client) error {
	schemaGetters := []func() *models.Class{
		GetCodeEntitySchema,
		GetCodeRelationSchema,
	}

	for _, getSchema := range schemaGetters {
		class := getSchema()
		slog.Info("Checking schema", "class", class.Class)

		_, err := client.Raw().Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
		if err == nil {
			slog.Info("Schema already exists", "class", class.Class)
			continue
		}

		slog.Info("Schema not found, creating it", "class", class.Class)
		if err := client.Raw().Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("create schema for class %s: %w", class.Class, err)
		}
		slog.Info("Successfully created schema", "class", class.Class)
	}
	return nil
}
