// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/archscope/engine"
)

// runTrace runs one execution path trace and prints the envelope.
func runTrace(cmd *cobra.Command, args []string) {
	_, eng := bootstrap()

	resp := eng.TracePath(context.Background(), engine.TraceRequest{
		StartingPoints:   args,
		TraceType:        traceType,
		MaxDepth:         maxDepth,
		IncludeDataFlow:  includeDataFlow,
		TrackPerformance: trackPerformance,
	})
	printJSON(resp)

	if resp.Status != engine.StatusOK {
		os.Exit(1)
	}
}
