package router

import (
	"net/http"
	"strings"
)

// tree is the native match engine: a segment trie where a literal segment
// always beats a parameter placeholder at the same position, and a trailing
// wildcard has the lowest precedence. Two routes with identical shape
// tie-break by registration order: the first one wins, the second is
// rejected at insert.
type tree struct {
	root *treeNode
}

type treeNode struct {
	literals map[string]*treeNode
	param    *treeNode

	// routes terminating at this node, by HTTP method
	routes map[string]*treeRoute

	// wildcard routes capturing the remaining path, by HTTP method
	wildcards map[string]*treeRoute
}

type treeRoute struct {
	pattern      string
	handler      http.Handler
	paramNames   []string
	wildcardName string
}

func newTree() *tree {
	return &tree{root: newTreeNode()}
}

func newTreeNode() *treeNode {
	return &treeNode{}
}

// add inserts a route. Returns false when an identical-shape route for the
// method already exists; the earlier registration keeps the slot.
func (t *tree) add(method, pattern string, handler http.Handler) bool {
	segments := splitPath(pattern)
	node := t.root

	route := &treeRoute{pattern: pattern, handler: handler}

	for i, segment := range segments {
		if name, ok := wildcardSegment(segment); ok {
			// A wildcard only makes sense as the last segment.
			if i != len(segments)-1 {
				return false
			}

			route.wildcardName = name

			if node.wildcards == nil {
				node.wildcards = make(map[string]*treeRoute)
			}

			if _, exists := node.wildcards[method]; exists {
				return false
			}

			node.wildcards[method] = route

			return true
		}

		if name, ok := paramSegment(segment); ok {
			route.paramNames = append(route.paramNames, name)

			if node.param == nil {
				node.param = newTreeNode()
			}

			node = node.param

			continue
		}

		if node.literals == nil {
			node.literals = make(map[string]*treeNode)
		}

		child := node.literals[segment]
		if child == nil {
			child = newTreeNode()
			node.literals[segment] = child
		}

		node = child
	}

	if node.routes == nil {
		node.routes = make(map[string]*treeRoute)
	}

	if _, exists := node.routes[method]; exists {
		return false
	}

	node.routes[method] = route

	return true
}

// match finds the route for (method, path) and extracts its path parameters.
func (t *tree) match(method, path string) (*treeRoute, map[string]string, bool) {
	segments := splitPath(path)

	route, values := matchNode(t.root, method, segments, nil)
	if route == nil {
		return nil, nil, false
	}

	params := make(map[string]string, len(route.paramNames)+1)
	for i, name := range route.paramNames {
		params[name] = values[i]
	}

	if route.wildcardName != "" {
		params[route.wildcardName] = values[len(values)-1]
	}

	return route, params, true
}

// matchNode walks the trie preferring literal edges, then the parameter
// edge, then a wildcard capture. Backtracks when a branch dead-ends.
func matchNode(node *treeNode, method string, segments []string, values []string) (*treeRoute, []string) {
	if len(segments) == 0 {
		if route := node.routes[method]; route != nil {
			return route, values
		}

		// A trailing wildcard accepts an empty remainder.
		if route := node.wildcards[method]; route != nil {
			return route, append(values, "")
		}

		return nil, nil
	}

	head, tail := segments[0], segments[1:]

	if child := node.literals[head]; child != nil {
		if route, vals := matchNode(child, method, tail, values); route != nil {
			return route, vals
		}
	}

	if node.param != nil {
		if route, vals := matchNode(node.param, method, tail, append(values, head)); route != nil {
			return route, vals
		}
	}

	if route := node.wildcards[method]; route != nil {
		return route, append(values, strings.Join(segments, "/"))
	}

	return nil, nil
}

// splitPath breaks a path into segments, treating "/" as empty.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}

	return strings.Split(path, "/")
}

// paramSegment recognizes "{name}" and ":name" placeholders.
func paramSegment(segment string) (string, bool) {
	if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
		return segment[1 : len(segment)-1], true
	}

	if strings.HasPrefix(segment, ":") {
		return segment[1:], true
	}

	return "", false
}

// wildcardSegment recognizes "*" and "*name" captures.
func wildcardSegment(segment string) (string, bool) {
	if segment == "*" {
		return "*", true
	}

	if strings.HasPrefix(segment, "*") {
		return segment[1:], true
	}

	return "", false
}
