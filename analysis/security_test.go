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
	"testing"

	"github.com/AleutianAI/archscope/paths"
)

// stepOf builds one path step with explicit target identity.
func stepOf(target, name string, st paths.StepType) paths.PathStep {
	return paths.PathStep{
		SourceNode: "src",
		TargetNode: target,
		TargetName: name,
		StepType:   st,
	}
}

// pathOf wraps steps into an ExecutionPath with correct counts.
func pathOf(id string, steps ...paths.PathStep) paths.ExecutionPath {
	counts := make(map[paths.StepType]int)
	for _, s := range steps {
		counts[s.StepType]++
	}
	return paths.ExecutionPath{
		ID:             id,
		StartNode:      "src",
		Steps:          steps,
		Depth:          len(steps),
		IsTerminal:     true,
		StepTypeCounts: counts,
	}
}

func findingsOfKind(findings []SecurityFinding, kind FindingKind) []SecurityFinding {
	var out []SecurityFinding
	for _, f := range findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// ScanSecurity Tests
// =============================================================================

func TestScanUnvalidatedDataAccess(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-save", "saveOrder", paths.StepDatabaseAccess),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	hits := findingsOfKind(findings, FindingUnvalidatedDataAccess)
	if len(hits) != 1 {
		t.Fatalf("unvalidated-access findings = %d, want 1", len(hits))
	}
	if hits[0].Severity != SeverityHigh {
		t.Errorf("Severity = %s, want HIGH", hits[0].Severity)
	}
	if hits[0].Location != "m-save" {
		t.Errorf("Location = %q, want m-save", hits[0].Location)
	}
}

func TestScanValidationBeforeAccessClearsFinding(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-check", "checkInput", paths.StepDataValidation),
		stepOf("m-save", "saveOrder", paths.StepDatabaseAccess),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	if hits := findingsOfKind(findings, FindingUnvalidatedDataAccess); len(hits) != 0 {
		t.Errorf("validated access still flagged: %+v", hits)
	}
}

func TestScanValidationAfterAccessStillFlags(t *testing.T) {
	// Validation downstream of the access does not protect it.
	p := pathOf("p1",
		stepOf("m-save", "saveOrder", paths.StepDatabaseAccess),
		stepOf("m-check", "checkInput", paths.StepDataValidation),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	if hits := findingsOfKind(findings, FindingUnvalidatedDataAccess); len(hits) != 1 {
		t.Errorf("late validation must not clear the finding, got %d", len(hits))
	}
}

func TestScanMissingErrorHandling(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-proc", "processPayment", paths.StepMethodCall),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	hits := findingsOfKind(findings, FindingMissingErrorHandling)
	if len(hits) != 1 {
		t.Fatalf("missing-error-handling findings = %d, want 1", len(hits))
	}
	if hits[0].Severity != SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM", hits[0].Severity)
	}
}

func TestScanErrorHandlingPresenceClearsFinding(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-proc", "processPayment", paths.StepMethodCall),
		stepOf("m-catch", "catchFailure", paths.StepExceptionHandling),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	if hits := findingsOfKind(findings, FindingMissingErrorHandling); len(hits) != 0 {
		t.Errorf("path with exception handling still flagged: %+v", hits)
	}
}

func TestScanUnboundedExternalCall(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-api", "httpFetch", paths.StepExternalAPICall),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	hits := findingsOfKind(findings, FindingUnboundedExternalCall)
	if len(hits) != 1 {
		t.Fatalf("unbounded-call findings = %d, want 1", len(hits))
	}
	if hits[0].Severity != SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM", hits[0].Severity)
	}
}

func TestScanDeduplicatesAcrossPaths(t *testing.T) {
	// The same risky step reached via two different paths reports once.
	step := stepOf("m-save", "saveOrder", paths.StepDatabaseAccess)
	findings := ScanSecurity([]paths.ExecutionPath{
		pathOf("p1", step),
		pathOf("p2", stepOf("m-other", "doWork", paths.StepMethodCall), step),
	})

	if hits := findingsOfKind(findings, FindingUnvalidatedDataAccess); len(hits) != 1 {
		t.Errorf("duplicate (location, kind) reported %d times, want 1", len(hits))
	}
}

func TestScanSortsBySeverity(t *testing.T) {
	findings := ScanSecurity([]paths.ExecutionPath{
		pathOf("p1",
			stepOf("zz-api", "httpFetch", paths.StepExternalAPICall),
			stepOf("aa-save", "saveOrder", paths.StepDatabaseAccess),
		),
	})

	if len(findings) < 2 {
		t.Fatalf("findings = %d, want >= 2", len(findings))
	}
	if findings[0].Severity != SeverityHigh {
		t.Errorf("first finding severity = %s, want HIGH", findings[0].Severity)
	}
	for i := 1; i < len(findings); i++ {
		if severityRank(findings[i-1].Severity) > severityRank(findings[i].Severity) {
			t.Errorf("findings out of severity order at %d", i)
		}
	}
}

func TestScanCleanPath(t *testing.T) {
	p := pathOf("p1",
		stepOf("m-check", "checkInput", paths.StepDataValidation),
		stepOf("m-save", "saveOrder", paths.StepDatabaseAccess),
		stepOf("m-catch", "recoverFromFailure", paths.StepExceptionHandling),
	)

	findings := ScanSecurity([]paths.ExecutionPath{p})
	if len(findings) != 0 {
		t.Errorf("clean path produced findings: %+v", findings)
	}
}
