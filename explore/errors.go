// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explore implements the bounded subgraph builder.
//
// The builder performs a level-synchronous breadth-first traversal from a
// set of seed node IDs, accumulating a graph.SubgraphResult subject to a
// max depth, a global node cap and a per-strategy relationship allowlist.
// Individual fetch failures are absorbed as referential gaps; only invalid
// input aborts a build.
package explore

import "errors"

// Sentinel errors for the explore package.
var (
	// ErrNoSeeds indicates the caller supplied an empty seed list.
	ErrNoSeeds = errors.New("no seed entities provided")
)
