// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package symbol builds symbolic computation graphs: directed acyclic graphs of immutable Node
// objects, each describing one tensor-producing operation, its hyperparameters and its inputs.
//
// Nothing is computed here. A graph is built bottom-up by the node constructors (Variable,
// Convolution, LeakyReLU, Pooling, Concat, Dropout, Flatten and SoftmaxOutput), and then handed
// to a training engine, usually serialized with WriteJSON. InferShapes runs the same shape
// checks a runtime performs when compiling the graph.
//
// Example:
//
//	data := symbol.Variable("data")
//	x := symbol.Convolution(data).Filters(96).KernelSize(7).Strides(2).Done()
//	x = symbol.LeakyReLU(x, symbol.ActTypeELU, 0.25)
//	x = symbol.Pooling(x).Max().WindowSize(3).Strides(2).Done()
//
// Nodes are never modified after creation, so graphs can be freely shared, including across goroutines.
package symbol

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/support/xslices"
)

// Node represents one operation of the computation graph, and can be used as input to further operations.
//
// A Node holds its operation type, an optional name, its hyperparameters (see Params) and the ordered
// list of its input nodes. The graph is acyclic by construction: inputs always exist before the node.
//
// Node.String allows for a pretty-printing of node. To see the full graph, use Format.
type Node struct {
	op     OpType
	name   string
	params map[string]any
	inputs []*Node

	// shape is the declared shape of a Variable, if any.
	shape shapes.Shape
}

// newNode is used by all node constructors. It panics on nil inputs.
func newNode(op OpType, name string, params map[string]any, inputs ...*Node) *Node {
	for ii, input := range inputs {
		if input == nil {
			exceptions.Panicf("%s: input #%d is nil", op, ii)
		}
	}
	if params == nil {
		params = make(map[string]any)
	}
	return &Node{
		op:     op,
		name:   name,
		params: params,
		inputs: slices.Clone(inputs),
	}
}

// Op returns the type of the operation.
func (n *Node) Op() OpType {
	if n == nil {
		return OpTypeInvalid
	}
	return n.op
}

// Name of the node. It may be empty, in which case a name is generated when
// the graph is serialized or formatted (see AssignNames).
func (n *Node) Name() string { return n.name }

// WithName returns a copy of the node with the given name. The node itself is not changed.
func (n *Node) WithName(name string) *Node {
	n2 := *n
	n2.name = name
	return &n2
}

// Inputs returns a copy of the list of direct inputs to the node.
func (n *Node) Inputs() []*Node { return slices.Clone(n.inputs) }

// NumInputs returns the number of direct inputs to the node.
func (n *Node) NumInputs() int { return len(n.inputs) }

// Input returns the ii-th input of the node.
func (n *Node) Input(ii int) *Node {
	if ii < 0 || ii >= len(n.inputs) {
		exceptions.Panicf("%s: input #%d out of range, node has %d inputs", n, ii, len(n.inputs))
	}
	return n.inputs[ii]
}

// Params returns a copy of the hyperparameters of the node, indexed by the Param* keys.
// Values are int, [2]int, float64, bool, ActType, PoolType or string.
func (n *Node) Params() map[string]any { return maps.Clone(n.params) }

// Param returns the hyperparameter value for key, and whether it was set.
func (n *Node) Param(key string) (value any, found bool) {
	value, found = n.params[key]
	return
}

func paramOr[T any](n *Node, key string, defaultValue T) T {
	value, found := n.params[key]
	if !found {
		return defaultValue
	}
	typed, ok := value.(T)
	if !ok {
		return defaultValue
	}
	return typed
}

// NumFilter is the number of output channels of a Convolution node, or 0.
func (n *Node) NumFilter() int { return paramOr(n, ParamNumFilter, 0) }

// Kernel returns the spatial window (height, width) of a Convolution or Pooling node.
func (n *Node) Kernel() [2]int { return paramOr(n, ParamKernel, [2]int{}) }

// Stride returns the stride (height, width) of a Convolution or Pooling node.
func (n *Node) Stride() [2]int { return paramOr(n, ParamStride, [2]int{1, 1}) }

// Pad returns the padding added to each side (height, width) of a Convolution or Pooling node.
func (n *Node) Pad() [2]int { return paramOr(n, ParamPad, [2]int{}) }

// NoBias returns whether a Convolution node has no bias term.
func (n *Node) NoBias() bool { return paramOr(n, ParamNoBias, false) }

// ActType of a LeakyReLU node.
func (n *Node) ActType() ActType { return paramOr(n, ParamActType, ActType("")) }

// Slope of a LeakyReLU node, DefaultSlope if not set.
func (n *Node) Slope() float64 { return paramOr(n, ParamSlope, DefaultSlope) }

// PoolType of a Pooling node.
func (n *Node) PoolType() PoolType { return paramOr(n, ParamPoolType, PoolType("")) }

// GlobalPool returns whether a Pooling node aggregates the whole spatial extent.
func (n *Node) GlobalPool() bool { return paramOr(n, ParamGlobalPool, false) }

// Probability returns the dropout probability of a Dropout node.
func (n *Node) Probability() float64 { return paramOr(n, ParamP, 0.0) }

// Axis returns the concatenation axis of a Concat node.
func (n *Node) Axis() int { return paramOr(n, ParamDim, 0) }

// DeclaredShape returns the shape declared for a Variable, or an invalid shape if none was declared.
func (n *Node) DeclaredShape() shapes.Shape { return n.shape }

// OutputChannels returns the number of output channels the node declares, without running shape inference.
// It returns false if the graph doesn't declare it: e.g. a Variable without a shape, or nodes after Flatten.
func (n *Node) OutputChannels() (int, bool) {
	switch n.op {
	case OpTypeVariable:
		if n.shape.Ok() && n.shape.Rank() > shapes.ChannelsAxis {
			return n.shape.Dim(shapes.ChannelsAxis), true
		}
		return 0, false
	case OpTypeConvolution:
		return n.NumFilter(), true
	case OpTypeLeakyReLU, OpTypeDropout, OpTypePooling:
		return n.inputs[0].OutputChannels()
	case OpTypeConcat:
		if n.Axis() != shapes.ChannelsAxis {
			return n.inputs[0].OutputChannels()
		}
		total := 0
		for _, input := range n.inputs {
			channels, ok := input.OutputChannels()
			if !ok {
				return 0, false
			}
			total += channels
		}
		return total, true
	}
	return 0, false
}

// String implements fmt.Stringer. It prints the operation, its name (if any) and its parameters.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	parts := make([]string, 0, 2)
	if n.name != "" {
		parts = append(parts, strconv.Quote(n.name))
	}
	if params := n.paramsString(); params != "" {
		parts = append(parts, params)
	}
	return fmt.Sprintf("%s(%s)", n.op, strings.Join(parts, ", "))
}

// paramsString lists the parameters sorted by key, e.g. "kernel=(3, 3), num_filter=64".
func (n *Node) paramsString() string {
	parts := make([]string, 0, len(n.params)+1)
	if n.op == OpTypeVariable && n.shape.Ok() {
		parts = append(parts, "shape="+n.shape.String())
	}
	for _, key := range xslices.SortedKeys(n.params) {
		parts = append(parts, fmt.Sprintf("%s=%s", key, FormatParam(n.params[key])))
	}
	return strings.Join(parts, ", ")
}

// FormatParam formats a hyperparameter value the way it is written in the symbol JSON attributes:
// tuples as "(3, 3)" and booleans as "True"/"False".
func FormatParam(value any) string {
	switch v := value.(type) {
	case [2]int:
		return fmt.Sprintf("(%d, %d)", v[0], v[1])
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case shapes.Shape:
		parts := xslices.Map(v.Dimensions, strconv.Itoa)
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return fmt.Sprintf("%v", v)
	}
}
