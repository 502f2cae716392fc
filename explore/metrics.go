// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explore

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for subgraph exploration.
var (
	tracer = otel.Tracer("archscope.explore")
	meter  = otel.Meter("archscope.explore")
)

// Metrics for subgraph build operations.
var (
	buildLatency  metric.Float64Histogram
	buildTotal    metric.Int64Counter
	nodesExplored metric.Int64Histogram
	edgesExplored metric.Int64Histogram
	fetchGaps     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"explore_build_duration_seconds",
			metric.WithDescription("Duration of bounded subgraph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"explore_build_total",
			metric.WithDescription("Total number of subgraph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesExplored, err = meter.Int64Histogram(
			"explore_nodes_per_build",
			metric.WithDescription("Number of nodes accumulated per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesExplored, err = meter.Int64Histogram(
			"explore_edges_per_build",
			metric.WithDescription("Number of edges accumulated per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fetchGaps, err = meter.Int64Counter(
			"explore_fetch_gaps_total",
			metric.WithDescription("Node or edge fetches absorbed as referential gaps"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuild records metrics for one completed build.
//
// Metric registration failures are ignored: exploration must not fail
// because telemetry is misconfigured.
func recordBuild(ctx context.Context, stats BuildStats) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("strategy", stats.Strategy),
		attribute.Bool("node_limit_hit", stats.NodeLimitHit),
	)

	buildTotal.Add(ctx, 1, attrs)
	buildLatency.Record(ctx, stats.Duration.Seconds(), attrs)
	nodesExplored.Record(ctx, int64(stats.NodesVisited), attrs)
	edgesExplored.Record(ctx, int64(stats.EdgesFetched), attrs)
	if stats.FetchGaps > 0 {
		fetchGaps.Add(ctx, int64(stats.FetchGaps), attrs)
	}
}
