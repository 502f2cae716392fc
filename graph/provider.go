// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "context"

// Provider is the read-only interface to the property graph store.
//
// Description:
//
//	Provider abstracts the storage engine behind the two lookups every
//	traversal needs: a single-node fetch and an outgoing-edge fetch with
//	server-side truncation. Implementations must be safe for concurrent
//	use by multiple in-flight requests; the engine treats the provider as
//	a stateless, reentrant dependency.
//
//	Both methods may fail (timeout, not-found, transient error). Callers
//	in the traversal core absorb failures as gaps: a failed fetch means
//	"no data for this node", never an aborted request.
type Provider interface {
	// FetchNode looks up a single node by ID.
	//
	// Outputs:
	//   *NodeRecord - The node, or nil if it does not exist.
	//   error - Non-nil on store failure. A nil record with nil error
	//           means the node was not found (a referential gap, not
	//           an error).
	FetchNode(ctx context.Context, id string) (*NodeRecord, error)

	// FetchEdges returns outgoing relationship edges for a node.
	//
	// Inputs:
	//   ctx - Context for cancellation.
	//   id - Source node ID.
	//   relTypes - Relationship-type allowlist (nil or empty = all types).
	//   limit - Server-side truncation limit (must be > 0).
	//
	// Outputs:
	//   []EdgeRecord - At most limit outgoing edges (empty if none).
	//   error - Non-nil on store failure.
	FetchEdges(ctx context.Context, id string, relTypes []RelationType, limit int) ([]EdgeRecord, error)
}
