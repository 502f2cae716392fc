// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patterns

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/archscope/config"
	"github.com/AleutianAI/archscope/graph"
)

// Role-name fragments used by the layering scan.
var (
	serviceRoles    = []string{"service", "manager", "handler"}
	repositoryRoles = []string{"repository", "dao", "store"}
)

// Detector runs the architectural pattern scans.
//
// Thread Safety: Detector is immutable after construction and safe for
// concurrent use.
type Detector struct {
	cfg config.PatternConfig
}

// NewDetector creates a pattern detector with the given thresholds.
func NewDetector(cfg config.PatternConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs all pattern scans over the explored subgraph.
//
// Description:
//
//	The four scans are independent and side-effect-free; each may emit
//	zero or one finding. They run concurrently since the subgraph is
//	frozen. Output order is fixed (layering, injection, cycles, coupling)
//	so identical inputs yield identical output.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	g - The frozen subgraph to scan.
//
// Outputs:
//
//	[]ArchitecturalPattern - Zero to four findings.
//	error - Non-nil only on context cancellation.
func (d *Detector) Detect(ctx context.Context, g *graph.SubgraphResult) ([]ArchitecturalPattern, error) {
	if g == nil || g.NodeCount() == 0 {
		return nil, nil
	}

	slots := make([]*ArchitecturalPattern, 4)
	eg, egCtx := errgroup.WithContext(ctx)

	scans := []func(*graph.SubgraphResult) *ArchitecturalPattern{
		d.detectLayering,
		d.detectInjection,
		d.detectCycles,
		d.detectCoupling,
	}
	for i, scan := range scans {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			slots[i] = scan(g)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	findings := make([]ArchitecturalPattern, 0, len(slots))
	for _, p := range slots {
		if p != nil {
			findings = append(findings, *p)
		}
	}
	return findings, nil
}

// detectLayering checks whether service-like nodes call repository-like nodes.
//
// Confidence is the fraction of service-like nodes with at least one CALLS
// edge into a repository-like target.
func (d *Detector) detectLayering(g *graph.SubgraphResult) *ArchitecturalPattern {
	services := 0
	layered := 0

	for id, node := range g.Nodes() {
		if !matchesRole(node, serviceRoles) {
			continue
		}
		services++

		for _, edge := range g.OutgoingEdges(id, []graph.RelationType{graph.RelationCalls}) {
			if target, ok := g.GetNode(edge.TargetID); ok {
				if matchesRole(target, repositoryRoles) {
					layered++
					break
				}
			} else if matchesRoleName(edge.TargetID, repositoryRoles) {
				// Frontier target: fall back to matching the raw ID.
				layered++
				break
			}
		}
	}

	if services == 0 {
		return nil
	}
	confidence := float64(layered) / float64(services)
	if confidence <= d.cfg.LayeringMinConfidence {
		return nil
	}

	return &ArchitecturalPattern{
		Type: PatternLayeredArchitecture,
		Description: fmt.Sprintf(
			"%d of %d service-like components call into repository-like components", layered, services),
		Confidence: confidence,
		Evidence: map[string]any{
			"serviceNodes": services,
			"layeredNodes": layered,
		},
	}
}

// detectInjection checks class-labeled nodes for field-based wiring.
func (d *Detector) detectInjection(g *graph.SubgraphResult) *ArchitecturalPattern {
	classes := 0
	wired := 0
	fieldRelations := []graph.RelationType{graph.RelationHasField, graph.RelationUsesField}

	for id, node := range g.Nodes() {
		if !node.HasLabel("Class") {
			continue
		}
		classes++
		if len(g.OutgoingEdges(id, fieldRelations)) > 0 {
			wired++
		}
	}

	if classes == 0 {
		return nil
	}
	confidence := float64(wired) / float64(classes)
	if confidence > 1 {
		confidence = 1
	}
	if confidence <= d.cfg.InjectionMinConfidence {
		return nil
	}

	return &ArchitecturalPattern{
		Type: PatternDependencyInjection,
		Description: fmt.Sprintf(
			"%d of %d classes are wired through declared fields", wired, classes),
		Confidence: confidence,
		Evidence: map[string]any{
			"totalClasses":  classes,
			"diConnections": wired,
		},
	}
}

// detectCycles runs three-color DFS cycle detection over the CALLS and
// DEPENDS_ON edge subset.
//
// A back-edge into a node currently on the recursion stack signals a cycle.
// The finding reports the count of distinct cycle roots with confidence 1.0:
// a witnessed back-edge is not a heuristic.
func (d *Detector) detectCycles(g *graph.SubgraphResult) *ArchitecturalPattern {
	adjacency := make(map[string][]string, g.NodeCount())
	for _, edge := range g.Edges() {
		if edge.RelationType != graph.RelationCalls && edge.RelationType != graph.RelationDependsOn {
			continue
		}
		// Dangling frontier targets have no outgoing edges and cannot
		// close a cycle inside the explored set.
		if !g.HasNode(edge.TargetID) {
			continue
		}
		adjacency[edge.SourceID] = append(adjacency[edge.SourceID], edge.TargetID)
	}

	visited := make(map[string]bool, g.NodeCount())
	onStack := make(map[string]bool)
	rootSet := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = true
		for _, next := range adjacency[id] {
			if onStack[next] {
				rootSet[next] = true
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}
		onStack[id] = false
	}

	ids := make([]string, 0, g.NodeCount())
	for id := range g.Nodes() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !visited[id] {
			visit(id)
		}
	}

	if len(rootSet) == 0 {
		return nil
	}
	cycleRoots := make([]string, 0, len(rootSet))
	for id := range rootSet {
		cycleRoots = append(cycleRoots, id)
	}
	sort.Strings(cycleRoots)

	return &ArchitecturalPattern{
		Type: PatternCircularDependency,
		Description: fmt.Sprintf(
			"%d circular dependency root(s) detected in call/dependency edges", len(cycleRoots)),
		Confidence: 1.0,
		Evidence: map[string]any{
			"cycleCount": len(cycleRoots),
			"cycleRoots": cycleRoots,
		},
	}
}

// detectCoupling flags nodes whose outgoing fan-out exceeds the configured
// threshold.
func (d *Detector) detectCoupling(g *graph.SubgraphResult) *ArchitecturalPattern {
	fanOut := make(map[string]int)
	for _, edge := range g.Edges() {
		fanOut[edge.SourceID]++
	}

	total := g.NodeCount()
	if total == 0 {
		return nil
	}

	type coupled struct {
		id  string
		out int
	}
	hot := make([]coupled, 0)
	for id, out := range fanOut {
		if out > d.cfg.CouplingFanOut {
			hot = append(hot, coupled{id: id, out: out})
		}
	}
	confidence := float64(len(hot)) / float64(total)
	if confidence <= d.cfg.CouplingMinRatio {
		return nil
	}

	// Worst offenders first; ties broken by ID for stable output.
	sort.Slice(hot, func(i, j int) bool {
		if hot[i].out != hot[j].out {
			return hot[i].out > hot[j].out
		}
		return hot[i].id < hot[j].id
	})
	samples := make([]string, 0, 5)
	for _, c := range hot {
		if len(samples) == 5 {
			break
		}
		samples = append(samples, fmt.Sprintf("%s (%d)", c.id, c.out))
	}

	return &ArchitecturalPattern{
		Type: PatternHighCoupling,
		Description: fmt.Sprintf(
			"%d of %d nodes exceed fan-out threshold %d", len(hot), total, d.cfg.CouplingFanOut),
		Confidence: confidence,
		Evidence: map[string]any{
			"highCouplingNodes": len(hot),
			"totalNodes":        total,
			"fanOutThreshold":   d.cfg.CouplingFanOut,
			"worstOffenders":    samples,
		},
	}
}

// matchesRole reports whether a node's name or qualified name contains any
// of the role fragments.
func matchesRole(node *graph.NodeRecord, roles []string) bool {
	return matchesRoleName(node.Name, roles) || matchesRoleName(node.QualifiedName, roles)
}

// matchesRoleName matches a raw name against role fragments, case-insensitively.
func matchesRoleName(name string, roles []string) bool {
	lower := strings.ToLower(name)
	for _, role := range roles {
		if strings.Contains(lower, role) {
			return true
		}
	}
	return false
}
