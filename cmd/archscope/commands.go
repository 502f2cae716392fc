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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	weaviateURL      string
	configPath       string
	port             string
	scope            string
	maxDepth         int
	maxNodes         int
	traceType        string
	includeDataFlow  bool
	trackPerformance bool
	ensureSchema     bool

	rootCmd = &cobra.Command{
		Use:   "archscope",
		Short: "A bounded traversal and pattern-detection engine for code knowledge graphs",
		Long: `Archscope explores a Weaviate-backed code property graph: it builds
bounded subgraphs around seed entities, detects architectural patterns,
enumerates execution paths, and ranks their criticality and security posture.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Run:   runServe, // Defined in cmd_serve.go
	}

	exploreCmd = &cobra.Command{
		Use:   "explore [seed-id...]",
		Short: "Build a bounded subgraph around seed entities and detect patterns",
		Args:  cobra.MinimumNArgs(1),
		Run:   runExplore, // Defined in cmd_explore.go
	}

	traceCmd = &cobra.Command{
		Use:   "trace [start-id...]",
		Short: "Enumerate execution paths from starting methods and rank them",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTrace, // Defined in cmd_trace.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&weaviateURL, "weaviate-url", "http://localhost:8080",
		"URL of the Weaviate graph store")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config overlay (empty = embedded defaults)")

	serveCmd.Flags().StringVar(&port, "port", "8085", "Port for the HTTP server")
	serveCmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false,
		"Create the graph classes on startup if missing")

	exploreCmd.Flags().StringVar(&scope, "scope", "", "Exploration strategy (FOCUSED, LAYERED, COMPREHENSIVE)")
	exploreCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Traversal depth bound (0 = default)")
	exploreCmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "Explored node bound (0 = default)")

	traceCmd.Flags().StringVar(&traceType, "trace-type", "", "Trace strategy (DEFAULT, DATA_FLOW, CRITICAL_PATH)")
	traceCmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Enumeration depth bound (0 = default)")
	traceCmd.Flags().BoolVar(&includeDataFlow, "include-data-flow", false, "Follow data-flow relations")
	traceCmd.Flags().BoolVar(&trackPerformance, "track-performance", false, "Attach performance estimates to critical paths")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(traceCmd)
}
