// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patterns provides architectural pattern detection over explored
// subgraphs.
//
// # Description
//
// The detector runs a fixed battery of heuristic scans over an immutable
// graph.SubgraphResult: layering shape, dependency-injection wiring,
// circular dependencies and coupling hot-spots. Detection is heuristic with
// confidence scores indicating certainty; findings are observations about
// the explored sample, not static-analysis proofs.
//
// # Thread Safety
//
// All detector types are safe for concurrent use. The four scans read the
// same frozen subgraph and run concurrently.
package patterns

// PatternType identifies the architectural pattern.
type PatternType string

const (
	// PatternLayeredArchitecture indicates service→repository layering.
	PatternLayeredArchitecture PatternType = "LAYERED_ARCHITECTURE"

	// PatternDependencyInjection indicates field-based dependency wiring.
	PatternDependencyInjection PatternType = "DEPENDENCY_INJECTION"

	// PatternCircularDependency indicates at least one call/dependency cycle.
	PatternCircularDependency PatternType = "CIRCULAR_DEPENDENCY"

	// PatternHighCoupling indicates a disproportionate share of high
	// fan-out nodes.
	PatternHighCoupling PatternType = "HIGH_COUPLING"
)

// ArchitecturalPattern is one confidence-scored finding about the shape of
// an explored subgraph. Produced once, never mutated.
type ArchitecturalPattern struct {
	// Type identifies the pattern.
	Type PatternType `json:"type"`

	// Description explains the finding in plain language.
	Description string `json:"description"`

	// Confidence is how certain the detector is (0.0 - 1.0).
	Confidence float64 `json:"confidence"`

	// Evidence carries the key metrics that triggered the finding.
	Evidence map[string]any `json:"evidence,omitempty"`
}
