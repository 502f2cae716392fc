// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package paths

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for path enumeration.
var (
	tracer = otel.Tracer("archscope.paths")
	meter  = otel.Meter("archscope.paths")
)

// Metrics for trace operations.
var (
	traceLatency metric.Float64Histogram
	traceTotal   metric.Int64Counter
	pathsEmitted metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		traceLatency, err = meter.Float64Histogram(
			"paths_trace_duration_seconds",
			metric.WithDescription("Duration of execution path enumeration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		traceTotal, err = meter.Int64Counter(
			"paths_trace_total",
			metric.WithDescription("Total number of trace operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		pathsEmitted, err = meter.Int64Histogram(
			"paths_emitted_per_trace",
			metric.WithDescription("Execution paths emitted per trace"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordTrace records metrics for one completed trace. Telemetry failures
// never fail the trace.
func recordTrace(ctx context.Context, stats TraceStats) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("strategy", stats.Strategy),
		attribute.Bool("path_cap_hit", stats.PathCapHit),
	)

	traceTotal.Add(ctx, 1, attrs)
	traceLatency.Record(ctx, stats.Duration.Seconds(), attrs)
	pathsEmitted.Record(ctx, int64(stats.PathsEmitted), attrs)
}
