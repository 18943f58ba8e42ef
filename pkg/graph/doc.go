// Package graph provides graph algorithms and utilities for workflow execution.
//
// # Overview
//
// The graph package implements essential graph algorithms used by the workflow
// engine for dependency resolution, cycle detection, and execution ordering.
// It provides a foundation for DAG-based workflow execution.
//
// # Key Algorithms
//
// Level Assignment:
//   - BFS leveling in the style of Kahn's algorithm
//   - Ensures nodes execute in dependency order
//   - Nodes left without a level indicate a cycle
//   - Ids within a level are sorted, so ordering is deterministic
//
// Cycle Detection:
//   - Identifies circular dependencies with a DFS and a recursion set
//   - Names the nodes at either end of each back edge found; on a longer
//     cycle the nodes in between are not named as cycle members
//   - Prevents infinite execution loops
//
// Dependency Queries:
//   - Direct dependencies and dependents of a node (Deps, Dependents)
//   - Nodes sharing a level, which can run concurrently (GetParallelGroups)
//
// # Graph Representation
//
// Workflows are represented as directed graphs where:
//
//   - Nodes represent workflow operations
//   - Edges represent data dependencies
//   - Direction indicates data flow (source → target)
//   - Multiple edges can connect the same nodes
//
// # Usage
//
//	import "github.com/flowcraft/dagrunner/pkg/graph"
//
//	g := graph.New([]string{"A", "B", "C"}, []graph.Connection{
//	    {From: "A", To: "B"},
//	    {From: "B", To: "C"},
//	})
//	if errs := g.Validate(); len(errs) != 0 {
//	    // cycle, and nodes left unleveled by it
//	}
//
// # Parallel Execution Analysis
//
//	// Nodes in the same parallel group can execute concurrently
//	for _, group := range g.GetParallelGroups() {
//	    executeParallel(group.IDs)
//	}
//
// # Performance Characteristics
//
//   - Topological sort: O(V + E) where V=nodes, E=edges
//   - Cycle detection: O(V + E) using DFS
//   - Parallel levels: O(V + E) single pass
//   - Memory efficient: Uses sparse graph representation
//
// # Error Handling
//
// Validate returns errors only for:
//
//   - Cycles: "cycle involving <id>" for the nodes at the ends of back edges
//   - Unleveled nodes: "unreferenced node <id>" for every node on or
//     downstream of a cycle
//
// An empty graph is valid, and isolated nodes are valid (they sit at level
// 0). Checking that connection endpoints name existing nodes is the
// workflow package's job (workflow.Validate), not this package's.
//
// # Algorithm Details
//
// BFS Level Assignment:
//  1. Nodes with no dependencies form level 0
//  2. Process queue: a dependent is enqueued once all of its dependencies
//     have a level, at one past the deepest of them
//  3. If some nodes never receive a level, a cycle exists
//
// DFS Cycle Detection:
//  1. Track visiting state for each node
//  2. Recursive DFS from each unvisited node
//  3. If visiting node encountered, cycle found
//  4. Otherwise, mark as visited
//
// # Use Cases
//
//   - Workflow execution ordering
//   - Dependency resolution
//   - Build systems
//   - Task scheduling
//   - Data pipeline orchestration
//
// # Design Principles
//
//   - Efficiency: Optimized for large graphs
//   - Clarity: Clear, well-documented algorithms
//   - Correctness: Extensively tested edge cases
//   - Flexibility: Generic graph operations
//
// # Thread Safety
//
// Graph algorithms are stateless and safe for concurrent use.
// Multiple goroutines can analyze the same graph simultaneously.
package graph
