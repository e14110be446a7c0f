// Package dag implements a small directed acyclic graph over string IDs.
// Nodes remember the order they were added in, and that order breaks ties
// everywhere the graph has to choose, so every traversal is deterministic.
package dag
