package di

import (
	"github.com/gantrykit/gantry/errors"
)

// DependencyGraph orders bindings for lifecycle operations.
type DependencyGraph struct {
	nodes map[string]*node
	order []string // preserve registration order
}

type node struct {
	name         string
	dependencies []string
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*node),
		order: make([]string, 0),
	}
}

// AddNode adds a node with its dependencies.
// Nodes without dependencies keep their insertion order (FIFO).
func (g *DependencyGraph) AddNode(name string, dependencies []string) {
	g.nodes[name] = &node{
		name:         name,
		dependencies: dependencies,
	}
	g.order = append(g.order, name)
}

// TopologicalSort returns nodes in dependency order.
// Returns an error naming the cycle if one exists.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	for _, name := range g.order {
		if err := g.visit(name, visited, visiting, nil, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal, carrying the current stack for cycle reporting.
func (g *DependencyGraph) visit(name string, visited, visiting map[string]bool, stack []string, result *[]string) error {
	if visited[name] {
		return nil
	}

	if visiting[name] {
		cycle := append(trimToCycle(stack, name), name)

		return errors.ErrCircularDependency(cycle)
	}

	node := g.nodes[name]
	if node == nil {
		// Dependency not in graph; resolution will surface it, not ordering.
		return nil
	}

	visiting[name] = true
	stack = append(stack, name)

	for _, dep := range node.dependencies {
		if err := g.visit(dep, visited, visiting, stack, result); err != nil {
			return err
		}
	}

	visiting[name] = false
	visited[name] = true
	*result = append(*result, name)

	return nil
}

// trimToCycle cuts the DFS stack down to the segment that forms the cycle.
func trimToCycle(stack []string, name string) []string {
	for i, n := range stack {
		if n == name {
			return append([]string{}, stack[i:]...)
		}
	}

	return append([]string{}, stack...)
}
