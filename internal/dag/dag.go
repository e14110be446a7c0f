package dag

import (
	"container/heap"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle matches every *CycleError through errors.Is.
var ErrCycle = errors.New("cycle detected")

// CycleError names one cycle found in the graph. Path starts and ends with
// the same node and follows dependency edges: each element depends on the
// next one.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCycle.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing and the node keeps
// its original position.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	n := &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// DetectCycles checks the graph for cycles and returns a *CycleError naming
// the first one found, walking nodes in insertion order.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if path := g.findCycle(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

// TopologicalSort orders the nodes so that every node comes after all of
// its dependencies. Among nodes that are ready at the same time the one
// added first wins, so identical graphs always sort identically. A graph
// with a cycle yields a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indegree := make(map[string]int, len(g.order))
	ready := &readyQueue{}
	for _, n := range g.order {
		indegree[n.id] = len(n.deps)
		if len(n.deps) == 0 {
			heap.Push(ready, n)
		}
	}

	result := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*node)
		result = append(result, n.id)
		for _, dependent := range n.dependents {
			indegree[dependent.id]--
			if indegree[dependent.id] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(result) != len(g.order) {
		return nil, &CycleError{Path: g.findCycle()}
	}
	return result, nil
}

// findCycle runs a depth-first search over dependency edges and returns the
// first cycle's path, or nil. Callers must hold the read lock.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.order))
	var stack []string

	var visit func(n *node) []string
	visit = func(n *node) []string {
		state[n.id] = visiting
		stack = append(stack, n.id)

		for _, dep := range sorted(n.deps) {
			switch state[dep.id] {
			case visiting:
				start := slices.Index(stack, dep.id)
				path := append([]string(nil), stack[start:]...)
				return append(path, dep.id)
			case unvisited:
				if path := visit(dep); path != nil {
					return path
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n.id] = done
		return nil
	}

	for _, n := range g.order {
		if state[n.id] == unvisited {
			if path := visit(n); path != nil {
				return path
			}
		}
	}
	return nil
}

func sorted(set map[string]*node) []*node {
	nodes := make([]*node, 0, len(set))
	for _, n := range set {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *node) int { return a.index - b.index })
	return nodes
}
