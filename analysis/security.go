// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/archscope/paths"
)

// FindingKind enumerates the security rules the scanner applies.
type FindingKind string

const (
	// FindingUnvalidatedDataAccess flags a database access with no prior
	// validation step on the same path.
	FindingUnvalidatedDataAccess FindingKind = "UNVALIDATED_DATA_ACCESS"

	// FindingMissingErrorHandling flags a processing step on a path with
	// no exception handling anywhere.
	FindingMissingErrorHandling FindingKind = "MISSING_ERROR_HANDLING"

	// FindingUnboundedExternalCall flags an external API call, on the
	// assumption that no timeout is configured.
	FindingUnboundedExternalCall FindingKind = "UNBOUNDED_EXTERNAL_CALL"
)

// Severity grades a security finding.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// SecurityFinding is one heuristic flag raised on a risky step sequence.
// Findings are deduplicated by (Location, Kind) within a request.
type SecurityFinding struct {
	// Kind identifies the rule that fired.
	Kind FindingKind `json:"kind"`

	// Severity grades the finding.
	Severity Severity `json:"severity"`

	// Description explains what was observed.
	Description string `json:"description"`

	// Location is the node ID of the offending step target.
	Location string `json:"location"`

	// Recommendation suggests a fix.
	Recommendation string `json:"recommendation"`
}

// Name fragments that mark a step target as processing/handling logic for
// the missing-error-handling rule.
var processingRoles = []string{"process", "handle", "execute"}

// ScanSecurity applies the fixed security rules to every step of every path.
//
// Description:
//
//	Three rules:
//	 (a) a DATABASE_ACCESS step with no DATA_VALIDATION step earlier on
//	     the same path → HIGH;
//	 (b) a processing/handling-named step on a path with no
//	     EXCEPTION_HANDLING step anywhere → MEDIUM;
//	 (c) any EXTERNAL_API_CALL step → MEDIUM (missing-timeout assumption).
//
//	A repeated (location, kind) trigger across paths is reported once.
//	Output is sorted by severity (HIGH first), then location, so identical
//	inputs yield identical reports.
//
// Outputs:
//
//	[]SecurityFinding - Deduplicated findings (empty slice if none).
func ScanSecurity(pathList []paths.ExecutionPath) []SecurityFinding {
	type key struct {
		location string
		kind     FindingKind
	}
	seen := make(map[key]bool)
	findings := make([]SecurityFinding, 0)

	add := func(f SecurityFinding) {
		k := key{location: f.Location, kind: f.Kind}
		if seen[k] {
			return
		}
		seen[k] = true
		findings = append(findings, f)
	}

	for _, p := range pathList {
		hasExceptionHandling := p.CountSteps(paths.StepExceptionHandling) > 0

		validated := false
		for _, step := range p.Steps {
			switch step.StepType {
			case paths.StepDataValidation:
				validated = true

			case paths.StepDatabaseAccess:
				if !validated {
					add(SecurityFinding{
						Kind:           FindingUnvalidatedDataAccess,
						Severity:       SeverityHigh,
						Description:    fmt.Sprintf("database access %q reached without a prior validation step", stepName(step)),
						Location:       step.TargetNode,
						Recommendation: "Validate and sanitize inputs before they reach the data layer",
					})
				}

			case paths.StepExternalAPICall:
				add(SecurityFinding{
					Kind:           FindingUnboundedExternalCall,
					Severity:       SeverityMedium,
					Description:    fmt.Sprintf("external call %q has no visible timeout guard", stepName(step)),
					Location:       step.TargetNode,
					Recommendation: "Configure an explicit timeout and handle the failure path",
				})
			}

			if !hasExceptionHandling && isProcessingStep(step) {
				add(SecurityFinding{
					Kind:           FindingMissingErrorHandling,
					Severity:       SeverityMedium,
					Description:    fmt.Sprintf("processing step %q runs on a path with no exception handling", stepName(step)),
					Location:       step.TargetNode,
					Recommendation: "Add error handling around the processing logic",
				})
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return severityRank(findings[i].Severity) < severityRank(findings[j].Severity)
		}
		if findings[i].Location != findings[j].Location {
			return findings[i].Location < findings[j].Location
		}
		return findings[i].Kind < findings[j].Kind
	})
	return findings
}

// isProcessingStep reports whether the step target looks like processing or
// handling logic.
func isProcessingStep(step paths.PathStep) bool {
	name := strings.ToLower(stepName(step))
	for _, role := range processingRoles {
		if strings.Contains(name, role) {
			return true
		}
	}
	return false
}

// stepName prefers the resolved target name, falling back to the raw ID.
func stepName(step paths.PathStep) string {
	if step.TargetName != "" {
		return step.TargetName
	}
	return step.TargetNode
}

// severityRank orders severities for report sorting.
func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}
