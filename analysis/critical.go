// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis post-processes enumerated execution paths.
//
// It ranks paths by criticality (complexity above a configured floor, with
// qualitative factors and recommendations), optionally attaches a coarse
// performance estimate, and scans step sequences for security-relevant
// gaps. All checks are heuristics over the enumerated sample, not
// static-analysis proofs.
package analysis

import (
	"fmt"
	"sort"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/paths"
)

// PerformanceEstimate is a coarse latency/resource model for one path.
//
// The numbers are illustrative budget figures, not measurements.
type PerformanceEstimate struct {
	// EstimatedLatencyMS is steps*step + db*db + api*api latency.
	EstimatedLatencyMS int `json:"estimatedLatencyMs"`

	// DBRoundTrips is the count of database access steps.
	DBRoundTrips int `json:"dbRoundTrips"`

	// APICallCount is the count of external API call steps.
	APICallCount int `json:"apiCallCount"`
}

// CriticalPath annotates one execution path selected as disproportionately
// complex or risky.
type CriticalPath struct {
	// Path is the underlying execution path.
	Path paths.ExecutionPath `json:"path"`

	// CriticalityScore is the ranking score (currently the path complexity).
	CriticalityScore float64 `json:"criticalityScore"`

	// Factors are the human-readable triggers that made the path critical.
	Factors []string `json:"factors"`

	// Recommendations pair one suggested action with each factor.
	Recommendations []string `json:"recommendations"`

	// PerformanceEstimate is attached when performance tracking was requested.
	PerformanceEstimate *PerformanceEstimate `json:"performanceEstimate,omitempty"`
}

// RankCritical selects and annotates the most critical execution paths.
//
// Description:
//
//	Paths are sorted by complexity descending (ties broken by shallower
//	depth, then path ID, so identical inputs rank identically), the top K
//	are taken, and only those at or above the configured complexity floor
//	survive. Each survivor gets qualitative factors with matching
//	recommendations and, optionally, a coarse performance estimate.
//
// Inputs:
//
//	pathList - Enumerated execution paths.
//	trackPerformance - Attach PerformanceEstimate when true.
//	cfg - Ranking thresholds and latency budget figures.
//
// Outputs:
//
//	[]CriticalPath - At most cfg.TopK annotated paths, most critical first.
func RankCritical(pathList []paths.ExecutionPath, trackPerformance bool, cfg config.CriticalConfig) []CriticalPath {
	ranked := make([]paths.ExecutionPath, len(pathList))
	copy(ranked, pathList)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Complexity != ranked[j].Complexity {
			return ranked[i].Complexity > ranked[j].Complexity
		}
		if ranked[i].Depth != ranked[j].Depth {
			return ranked[i].Depth < ranked[j].Depth
		}
		return ranked[i].ID < ranked[j].ID
	})

	if len(ranked) > cfg.TopK {
		ranked = ranked[:cfg.TopK]
	}

	out := make([]CriticalPath, 0, len(ranked))
	for _, p := range ranked {
		if p.Complexity < cfg.ComplexityFloor {
			continue
		}
		cp := CriticalPath{
			Path:             p,
			CriticalityScore: p.Complexity,
		}
		cp.Factors, cp.Recommendations = deriveFactors(p, cfg)
		if trackPerformance {
			cp.PerformanceEstimate = estimatePerformance(p, cfg)
		}
		out = append(out, cp)
	}
	return out
}

// deriveFactors computes the qualitative triggers for one path.
func deriveFactors(p paths.ExecutionPath, cfg config.CriticalConfig) (factors, recommendations []string) {
	if db := p.CountSteps(paths.StepDatabaseAccess); db >= cfg.MultipleDBThreshold {
		factors = append(factors, fmt.Sprintf("multiple database round-trips (%d)", db))
		recommendations = append(recommendations, "Batch the queries or cache repeated reads")
	}
	if api := p.CountSteps(paths.StepExternalAPICall); api > 0 {
		factors = append(factors, fmt.Sprintf("external API dependency (%d call(s))", api))
		recommendations = append(recommendations, "Add timeouts and a circuit breaker around the external calls")
	}
	if p.Depth > cfg.DeepStackDepth {
		factors = append(factors, fmt.Sprintf("deep call stack (depth %d)", p.Depth))
		recommendations = append(recommendations, "Flatten the call chain or split the operation")
	}
	if p.Complexity > cfg.VeryHighComplexity {
		factors = append(factors, fmt.Sprintf("very high complexity (%.1f)", p.Complexity))
		recommendations = append(recommendations, "Break the operation into smaller, independently testable units")
	}
	if len(factors) == 0 {
		factors = append(factors, fmt.Sprintf("complexity %.1f above floor %.1f", p.Complexity, cfg.ComplexityFloor))
		recommendations = append(recommendations, "Profile this path before optimizing elsewhere")
	}
	return factors, recommendations
}

// estimatePerformance builds the coarse latency model for one path.
func estimatePerformance(p paths.ExecutionPath, cfg config.CriticalConfig) *PerformanceEstimate {
	db := p.CountSteps(paths.StepDatabaseAccess)
	api := p.CountSteps(paths.StepExternalAPICall)
	return &PerformanceEstimate{
		EstimatedLatencyMS: len(p.Steps)*cfg.StepLatencyMS + db*cfg.DBLatencyMS + api*cfg.APILatencyMS,
		DBRoundTrips:       db,
		APICallCount:       api,
	}
}
