// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/pkg/errors"
)

// This file implements the symbol JSON interchange format: the graph description
// read by MXNet-compatible training engines (`mx.sym.load`).

// JSONFormatVersion is the format version written in the "mxnet_version" graph attribute.
const JSONFormatVersion = 10500

// shapeAttr is the Variable attribute holding its declared shape.
const shapeAttr = "__shape__"

type jsonGraph struct {
	Nodes      []jsonNode       `json:"nodes"`
	ArgNodes   []int            `json:"arg_nodes"`
	NodeRowPtr []int            `json:"node_row_ptr"`
	Heads      [][]int          `json:"heads"`
	Attrs      map[string][]any `json:"attrs,omitempty"`
}

type jsonNode struct {
	Op     string            `json:"op"`
	Name   string            `json:"name"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Inputs [][]int           `json:"inputs"`
}

// toJSONGraph lays out the graph rooted at root: nodes in topological order, each operation preceded by
// the "null" nodes of its implied arguments (weights, biases, labels).
func toJSONGraph(root *Node) *jsonGraph {
	sorted := TopologicalSort(root)
	names := AssignNames(sorted)
	g := &jsonGraph{
		ArgNodes: []int{},
		Attrs:    map[string][]any{"mxnet_version": {"int", JSONFormatVersion}},
	}
	ids := make(map[*Node]int, len(sorted))
	addNode := func(jn jsonNode) int {
		if jn.Inputs == nil {
			jn.Inputs = [][]int{}
		}
		g.Nodes = append(g.Nodes, jn)
		return len(g.Nodes) - 1
	}
	addArgument := func(name string, attrs map[string]string) int {
		id := addNode(jsonNode{Op: OpTypeVariable.OpName(), Name: name, Attrs: attrs})
		g.ArgNodes = append(g.ArgNodes, id)
		return id
	}

	for _, node := range sorted {
		if node.op == OpTypeVariable {
			var attrs map[string]string
			if node.shape.Ok() {
				attrs = map[string]string{shapeAttr: FormatParam(node.shape)}
			}
			ids[node] = addArgument(names[node], attrs)
			continue
		}
		inputs := make([][]int, 0, len(node.inputs)+2)
		for _, input := range node.inputs {
			inputs = append(inputs, []int{ids[input], 0, 0})
		}
		for _, suffix := range implicitArguments(node) {
			inputs = append(inputs, []int{addArgument(names[node]+"_"+suffix, nil), 0, 0})
		}
		var attrs map[string]string
		if len(node.params) > 0 {
			attrs = make(map[string]string, len(node.params))
			for key, value := range node.params {
				attrs[key] = FormatParam(value)
			}
		}
		ids[node] = addNode(jsonNode{Op: node.op.OpName(), Name: names[node], Attrs: attrs, Inputs: inputs})
	}

	g.NodeRowPtr = make([]int, len(g.Nodes)+1)
	for ii := range g.NodeRowPtr {
		g.NodeRowPtr[ii] = ii
	}
	g.Heads = [][]int{{ids[root], 0, 0}}
	return g
}

// MarshalJSON serializes the graph rooted at root in the symbol JSON format.
//
// Unnamed nodes are named as in AssignNames, and the arguments implied by operations are
// written as "null" nodes named "<node name>_<suffix>", e.g. "conv_1_weight" or "softmax_label".
func MarshalJSON(root *Node) ([]byte, error) {
	if root == nil {
		return nil, errors.New("MarshalJSON: nil root node")
	}
	data, err := json.MarshalIndent(toJSONGraph(root), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "MarshalJSON: failed to encode graph")
	}
	return data, nil
}

// WriteJSON writes the graph rooted at root in the symbol JSON format to w. See MarshalJSON.
func WriteJSON(w io.Writer, root *Node) error {
	data, err := MarshalJSON(root)
	if err != nil {
		return err
	}
	if _, err = w.Write(data); err != nil {
		return errors.Wrap(err, "WriteJSON: failed to write graph")
	}
	return nil
}

// ListArguments returns the names of the arguments of the graph rooted at root, in the order they appear in
// its JSON serialization: variables and implied arguments (weights, biases, labels).
func ListArguments(root *Node) []string {
	g := toJSONGraph(root)
	names := make([]string, len(g.ArgNodes))
	for ii, id := range g.ArgNodes {
		names[ii] = g.Nodes[id].Name
	}
	return names
}

// ParseJSON rebuilds a graph from its symbol JSON serialization, and returns its root (the single head).
//
// Arguments implied by operations (weights, biases, labels) are not turned into nodes: they are
// implied again by the rebuilt operations. Nodes keep the names found in the JSON.
func ParseJSON(data []byte) (*Node, error) {
	var g jsonGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrap(err, "ParseJSON: invalid JSON")
	}
	if len(g.Heads) != 1 || len(g.Heads[0]) == 0 {
		return nil, errors.Errorf("ParseJSON: graph must have exactly one head, got %v", g.Heads)
	}

	nodes := make([]*Node, len(g.Nodes))
	for id, jn := range g.Nodes {
		node, err := parseJSONNode(jn, id, nodes)
		if err != nil {
			return nil, errors.WithMessagef(err, "ParseJSON: node #%d %q", id, jn.Name)
		}
		nodes[id] = node
	}

	headID := g.Heads[0][0]
	if headID < 0 || headID >= len(nodes) {
		return nil, errors.Errorf("ParseJSON: head references node #%d, but there are only %d nodes", headID, len(nodes))
	}
	return nodes[headID], nil
}

// ReadJSON reads a graph serialized in the symbol JSON format. See ParseJSON.
func ReadJSON(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "ReadJSON: failed to read graph")
	}
	return ParseJSON(data)
}

func parseJSONNode(jn jsonNode, id int, parsed []*Node) (*Node, error) {
	op, err := OpTypeFromName(jn.Op)
	if err != nil {
		return nil, err
	}
	if jn.Name == "" {
		return nil, errors.New("node has no name")
	}
	if op == OpTypeVariable {
		shapeStr, found := jn.Attrs[shapeAttr]
		if !found {
			return Variable(jn.Name), nil
		}
		dims, err := parseTuple(shapeStr)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid %s attribute", shapeAttr)
		}
		for _, dim := range dims {
			if dim <= 0 {
				return nil, errors.Errorf("invalid %s attribute %q", shapeAttr, shapeStr)
			}
		}
		return VariableWithShape(jn.Name, shapes.Make(dtypes.Float32, dims...)), nil
	}

	params := make(map[string]any, len(jn.Attrs))
	for key, valueStr := range jn.Attrs {
		params[key], err = parseParam(key, valueStr)
		if err != nil {
			return nil, errors.WithMessagef(err, "invalid attribute %s=%q", key, valueStr)
		}
	}

	inputs := make([]*Node, 0, len(jn.Inputs))
	for _, entry := range jn.Inputs {
		if len(entry) == 0 || entry[0] < 0 || entry[0] >= id {
			return nil, errors.Errorf("invalid input reference %v: inputs must refer to previous nodes", entry)
		}
		inputs = append(inputs, parsed[entry[0]])
	}
	numImplicit := len(implicitArguments(&Node{op: op, params: params}))
	numData := len(inputs) - numImplicit
	if numData < 1 {
		return nil, errors.Errorf("%s expects at least %d inputs, got %d", op, numImplicit+1, len(inputs))
	}
	for _, implicit := range inputs[numData:] {
		if implicit.op != OpTypeVariable {
			return nil, errors.Errorf("%s argument input must be a null node, got %s", op, implicit)
		}
	}
	if op != OpTypeConcat && numData != 1 {
		return nil, errors.Errorf("%s expects 1 data input, got %d", op, numData)
	}
	return newNode(op, jn.Name, params, inputs[:numData]...), nil
}

// parseParam converts a JSON attribute to the typed value used by the nodes. Unknown keys are kept as strings.
func parseParam(key, valueStr string) (any, error) {
	switch key {
	case ParamKernel, ParamStride, ParamPad:
		values, err := parseTuple(valueStr)
		if err != nil {
			return nil, err
		}
		if len(values) != 2 {
			return nil, errors.Errorf("expected 2 values, got %d", len(values))
		}
		return [2]int{values[0], values[1]}, nil
	case ParamNumFilter, ParamDim, ParamNumArgs:
		value, err := strconv.Atoi(valueStr)
		return value, errors.WithStack(err)
	case ParamSlope, ParamP:
		value, err := strconv.ParseFloat(valueStr, 64)
		return value, errors.WithStack(err)
	case ParamNoBias, ParamGlobalPool:
		switch strings.ToLower(valueStr) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, errors.Errorf("invalid boolean")
	case ParamActType:
		return ActType(valueStr), nil
	case ParamPoolType:
		return PoolType(valueStr), nil
	}
	return valueStr, nil
}

// parseTuple parses tuples formatted like "(7, 7)".
func parseTuple(tuple string) ([]int, error) {
	tuple = strings.TrimSpace(tuple)
	if !strings.HasPrefix(tuple, "(") || !strings.HasSuffix(tuple, ")") {
		return nil, errors.Errorf("tuple %q must be enclosed in parenthesis", tuple)
	}
	tuple = strings.TrimSpace(tuple[1 : len(tuple)-1])
	if tuple == "" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimSuffix(tuple, ","), ",")
	values := make([]int, len(parts))
	for ii, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid tuple element #%d", ii)
		}
		values[ii] = value
	}
	return values, nil
}
