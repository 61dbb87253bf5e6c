// Package dag holds the dependency graph between build types. An edge from
// A to B means B depends on A (B consumes A's artifacts or waits for it to
// finish).
//
// Cycles are reported with the full path that closes them, and the graph can
// produce a deterministic topological order for consumers that need to walk
// build types upstream first.
package dag
