// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"fmt"
	"strings"

	"github.com/gomlx/squeezenet/pkg/support/sets"
)

// TopologicalSort returns all nodes reachable from roots, each once, ordered such that
// every node comes after all of its inputs.
//
// The order is deterministic: a depth-first post-order that visits inputs in their declared order.
func TopologicalSort(roots ...*Node) []*Node {
	visited := sets.Make[*Node]()
	var sorted []*Node
	var visit func(node *Node)
	visit = func(node *Node) {
		if !visited.Visit(node) {
			return
		}
		for _, input := range node.inputs {
			visit(input)
		}
		sorted = append(sorted, node)
	}
	for _, root := range roots {
		visit(root)
	}
	return sorted
}

// Walk calls fn for each node of the graph rooted at root, in topological order.
func Walk(root *Node, fn func(node *Node)) {
	for _, node := range TopologicalSort(root) {
		fn(node)
	}
}

// Filter returns the nodes of the graph rooted at root for which keep returns true, in topological order.
func Filter(root *Node, keep func(node *Node) bool) (nodes []*Node) {
	Walk(root, func(node *Node) {
		if keep(node) {
			nodes = append(nodes, node)
		}
	})
	return
}

// Count returns the number of nodes of the given type in the graph rooted at root.
func Count(root *Node, op OpType) int {
	return len(Filter(root, func(node *Node) bool { return node.op == op }))
}

// Variables returns the Variable nodes of the graph rooted at root, in topological order.
func Variables(root *Node) []*Node {
	return Filter(root, func(node *Node) bool { return node.op == OpTypeVariable })
}

// Consumers maps each node of the graph rooted at root to the nodes that take it as input.
// A node consuming the same input twice is listed twice.
func Consumers(root *Node) map[*Node][]*Node {
	consumers := make(map[*Node][]*Node)
	Walk(root, func(node *Node) {
		for _, input := range node.inputs {
			consumers[input] = append(consumers[input], node)
		}
	})
	return consumers
}

// Terminals returns the nodes of the graph rooted at root that are not consumed by any other node.
// For a graph built from a single root, that is only the root itself.
func Terminals(roots ...*Node) []*Node {
	consumed := sets.Make[*Node]()
	sorted := TopologicalSort(roots...)
	for _, node := range sorted {
		consumed.Insert(node.inputs...)
	}
	var terminals []*Node
	for _, node := range sorted {
		if !consumed.Has(node) {
			terminals = append(terminals, node)
		}
	}
	return terminals
}

// AssignNames returns a name for every node in nodes: its own name if set, otherwise a generated
// name made of the lowercase operator name and a per-operator counter, e.g. "convolution0", "pooling3".
//
// Generated names depend only on the order of nodes, so the same graph is always named the same way.
// A generated name never repeats an explicit name: the counter skips names already taken.
func AssignNames(nodes []*Node) map[*Node]string {
	names := make(map[*Node]string, len(nodes))
	taken := sets.Make[string]()
	for _, node := range nodes {
		if node.name != "" {
			names[node] = node.name
			taken.Insert(node.name)
		}
	}
	counters := make(map[OpType]int)
	for _, node := range nodes {
		if node.name != "" {
			continue
		}
		for {
			name := fmt.Sprintf("%s%d", node.op.autoNamePrefix(), counters[node.op])
			counters[node.op]++
			if taken.Visit(name) {
				names[node] = name
				break
			}
		}
	}
	return names
}

// Format pretty-prints the graph rooted at root, one node per line in topological order, e.g.:
//
//	#0 data = Variable()
//	#1 conv_1 = Convolution(#0, kernel=(7, 7), ...)
func Format(root *Node) string {
	sorted := TopologicalSort(root)
	names := AssignNames(sorted)
	ids := make(map[*Node]int, len(sorted))
	var sb strings.Builder
	for id, node := range sorted {
		ids[node] = id
		parts := make([]string, 0, len(node.inputs)+1)
		for _, input := range node.inputs {
			parts = append(parts, fmt.Sprintf("#%d", ids[input]))
		}
		if params := node.paramsString(); params != "" {
			parts = append(parts, params)
		}
		_, _ = fmt.Fprintf(&sb, "#%d %s = %s(%s)\n", id, names[node], node.op, strings.Join(parts, ", "))
	}
	return sb.String()
}
