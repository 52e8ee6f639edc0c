// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"slices"

	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/support/sets"
	"github.com/gomlx/squeezenet/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Argument is a value the training engine feeds to the graph: either a Variable, or a value implied
// by an operation, like the weights of a Convolution or the label of a SoftmaxOutput.
type Argument struct {
	// Name of the argument: the Variable name, or "<node name>_<suffix>" for implied arguments,
	// e.g. "conv_1_weight".
	Name string

	// Shape of the argument, set by InferShapes.
	Shape shapes.Shape

	// Learnable is true for weights, biases and other trained parameters.
	Learnable bool

	// Owner is the node that introduces the argument: the Variable itself, or the operation.
	Owner *Node
}

// implicitArguments returns the suffixes of the arguments implied by the node, in the order
// they follow the node's data inputs.
func implicitArguments(n *Node) []string {
	switch n.op {
	case OpTypeConvolution:
		if n.NoBias() {
			return []string{"weight"}
		}
		return []string{"weight", "bias"}
	case OpTypeLeakyReLU:
		if n.ActType() == ActTypePReLU {
			return []string{"gamma"}
		}
	case OpTypeSoftmaxOutput:
		return []string{"label"}
	}
	return nil
}

// Inference holds the result of InferShapes.
type Inference struct {
	// Nodes of the graph in topological order.
	Nodes []*Node

	// Names of the nodes, see AssignNames.
	Names map[*Node]string

	// Arguments of the graph, in the order a training engine lists them:
	// variables and implied arguments interleaved in topological order.
	Arguments []Argument

	outputs      map[*Node]shapes.Shape
	nodeArgIndex map[*Node][]int
}

// Shape returns the inferred output shape of node, or an invalid shape if node is not part of the graph.
func (inf *Inference) Shape(node *Node) shapes.Shape {
	shape, found := inf.outputs[node]
	if !found {
		return shapes.Invalid()
	}
	return shape
}

// Output returns the shape of the graph root.
func (inf *Inference) Output() shapes.Shape {
	return inf.Shape(inf.Nodes[len(inf.Nodes)-1])
}

// NodeArguments returns the implied arguments introduced by node (e.g. its weights), if any.
func (inf *Inference) NodeArguments(node *Node) []Argument {
	indices := inf.nodeArgIndex[node]
	args := make([]Argument, len(indices))
	for ii, idx := range indices {
		args[ii] = inf.Arguments[idx]
	}
	return args
}

// NumParameters returns the total number of learnable scalars.
func (inf *Inference) NumParameters() (total int) {
	for _, arg := range inf.Arguments {
		if arg.Learnable {
			total += arg.Shape.Size()
		}
	}
	return
}

// ParametersMemory returns the memory used by the learnable parameters, in bytes.
func (inf *Inference) ParametersMemory() (total uintptr) {
	for _, arg := range inf.Arguments {
		if arg.Learnable {
			total += arg.Shape.Memory()
		}
	}
	return
}

// InferShapes computes the output shape of every node of the graph rooted at root, and the shapes
// of all its arguments, from the shapes of its variables.
//
// Variable shapes are taken from inputs (indexed by variable name) or, if missing there, from the shape declared
// with VariableWithShape.
//
// It reports the errors a runtime would report when compiling the graph: invalid hyperparameters
// (non-positive filter counts, kernels or strides, dropout probability outside [0, 1)), windows larger than
// their padded input, or mismatched shapes in a Concat. Errors name the offending node.
func InferShapes(root *Node, inputs map[string]shapes.Shape) (*Inference, error) {
	if root == nil {
		return nil, errors.New("InferShapes: nil root node")
	}
	inf := &Inference{
		Nodes:        TopologicalSort(root),
		outputs:      make(map[*Node]shapes.Shape),
		nodeArgIndex: make(map[*Node][]int),
	}
	inf.Names = AssignNames(inf.Nodes)

	usedInputs := sets.Make[string]()
	for id, node := range inf.Nodes {
		name := inf.Names[node]
		var (
			output   shapes.Shape
			implicit []shapes.Shape
			err      error
		)
		if node.op == OpTypeVariable {
			usedInputs.Insert(node.name)
			output, err = variableShape(node, inputs)
			if err == nil {
				inf.Arguments = append(inf.Arguments, Argument{Name: name, Shape: output, Owner: node})
			}
		} else {
			inputShapes := make([]shapes.Shape, len(node.inputs))
			for ii, input := range node.inputs {
				inputShapes[ii] = inf.outputs[input]
			}
			output, implicit, err = inferNode(node, inputShapes)
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "InferShapes: node #%d %q (%s)", id, name, node.op)
		}
		inf.outputs[node] = output

		for ii, suffix := range implicitArguments(node) {
			inf.nodeArgIndex[node] = append(inf.nodeArgIndex[node], len(inf.Arguments))
			inf.Arguments = append(inf.Arguments, Argument{
				Name:      name + "_" + suffix,
				Shape:     implicit[ii],
				Learnable: suffix != "label",
				Owner:     node,
			})
		}
	}

	if unknown := sets.Sorted(sets.KeysOf(inputs).Sub(usedInputs)); len(unknown) > 0 {
		return nil, errors.Errorf("InferShapes: inputs %q are not variables of the graph", unknown)
	}
	if klog.V(1).Enabled() {
		klog.Infof("InferShapes: %d nodes, %d arguments, %d parameters, output %s",
			len(inf.Nodes), len(inf.Arguments), inf.NumParameters(), inf.Output())
	}
	return inf, nil
}

func variableShape(node *Node, inputs map[string]shapes.Shape) (shapes.Shape, error) {
	if shape, found := inputs[node.name]; found {
		if !shape.Ok() {
			return shapes.Invalid(), errors.Errorf("invalid shape given for variable %q", node.name)
		}
		return shape.Clone(), nil
	}
	if node.shape.Ok() {
		return node.shape.Clone(), nil
	}
	return shapes.Invalid(), errors.Errorf("no shape given for variable %q", node.name)
}

// inferNode returns the output shape of the node and the shapes of its implicit arguments.
func inferNode(node *Node, inputs []shapes.Shape) (output shapes.Shape, implicit []shapes.Shape, err error) {
	switch node.op {
	case OpTypeConvolution:
		return inferConvolution(node, inputs[0])
	case OpTypeLeakyReLU:
		return inferLeakyReLU(node, inputs[0])
	case OpTypePooling:
		output, err = inferPooling(node, inputs[0])
	case OpTypeConcat:
		output, err = inferConcat(node, inputs)
	case OpTypeDropout:
		p := node.Probability()
		if p < 0 || p >= 1 {
			err = errors.Errorf("dropout probability must be in [0, 1), got %g", p)
		}
		output = inputs[0]
	case OpTypeFlatten:
		x := inputs[0]
		if x.Rank() < 2 {
			err = errors.Errorf("Flatten requires an input of rank >= 2, got %s", x)
			break
		}
		output = shapes.Make(x.DType, x.Dim(shapes.BatchAxis), xslices.Product(x.Dimensions[1:]))
	case OpTypeSoftmaxOutput:
		x := inputs[0]
		if x.Rank() < 2 {
			err = errors.Errorf("SoftmaxOutput requires an input of rank >= 2 ([batch, classes...]), got %s", x)
			break
		}
		output = x
		implicit = []shapes.Shape{shapes.Make(x.DType, x.Dim(shapes.BatchAxis))}
	default:
		err = errors.Errorf("shape inference not implemented for %s", node.op)
	}
	return
}

// checkImage checks x is shaped [batch, channels, height, width].
func checkImage(x shapes.Shape) error {
	if x.Rank() != 4 {
		return errors.Errorf("input must be rank-4 shaped [batch, channels, height, width], got %s", x)
	}
	return nil
}

// outputSize returns the "valid" convention output size of a window sliding over an axis.
func outputSize(in, window, stride, pad int) (int, bool) {
	padded := in + 2*pad
	if padded < window {
		return 0, false
	}
	return (padded-window)/stride + 1, true
}

// spatialOutput applies outputSize to both spatial axes of x.
func spatialOutput(x shapes.Shape, window, stride, pad [2]int) (shapes.Shape, error) {
	output := x.Clone()
	for ii, axis := range shapes.SpatialAxes {
		if window[ii] <= 0 || stride[ii] <= 0 || pad[ii] < 0 {
			return shapes.Invalid(), errors.Errorf("kernel (%v) and stride (%v) must be > 0, and pad (%v) >= 0",
				window, stride, pad)
		}
		size, ok := outputSize(x.Dim(axis), window[ii], stride[ii], pad[ii])
		if !ok {
			return shapes.Invalid(), errors.Errorf("window %v is larger than the padded input %s (pad=%v)",
				window, x, pad)
		}
		output.Dimensions[axis] = size
	}
	return output, nil
}

func inferConvolution(node *Node, x shapes.Shape) (output shapes.Shape, implicit []shapes.Shape, err error) {
	if err = checkImage(x); err != nil {
		return
	}
	numFilter := node.NumFilter()
	if numFilter <= 0 {
		err = errors.Errorf("num_filter must be > 0, got %d", numFilter)
		return
	}
	kernel := node.Kernel()
	output, err = spatialOutput(x, kernel, node.Stride(), node.Pad())
	if err != nil {
		return
	}
	output.Dimensions[shapes.ChannelsAxis] = numFilter
	implicit = []shapes.Shape{shapes.Make(x.DType, numFilter, x.Dim(shapes.ChannelsAxis), kernel[0], kernel[1])}
	if !node.NoBias() {
		implicit = append(implicit, shapes.Make(x.DType, numFilter))
	}
	return
}

func inferLeakyReLU(node *Node, x shapes.Shape) (output shapes.Shape, implicit []shapes.Shape, err error) {
	actType := node.ActType()
	if !slices.Contains(ActTypes, actType) {
		err = errors.Errorf("unknown act_type %q", actType)
		return
	}
	if actType == ActTypePReLU {
		if x.Rank() < 2 {
			err = errors.Errorf("prelu requires an input with a channels axis, got %s", x)
			return
		}
		implicit = []shapes.Shape{shapes.Make(x.DType, x.Dim(shapes.ChannelsAxis))}
	}
	return x, implicit, nil
}

func inferPooling(node *Node, x shapes.Shape) (shapes.Shape, error) {
	if err := checkImage(x); err != nil {
		return shapes.Invalid(), err
	}
	switch node.PoolType() {
	case PoolTypeMax, PoolTypeAvg, PoolTypeSum:
	default:
		return shapes.Invalid(), errors.Errorf("unknown pool_type %q", node.PoolType())
	}
	if node.GlobalPool() {
		return shapes.Make(x.DType, x.Dim(shapes.BatchAxis), x.Dim(shapes.ChannelsAxis), 1, 1), nil
	}
	return spatialOutput(x, node.Kernel(), node.Stride(), node.Pad())
}

func inferConcat(node *Node, inputs []shapes.Shape) (shapes.Shape, error) {
	first := inputs[0]
	axis := node.Axis()
	if axis < 0 || axis >= first.Rank() {
		return shapes.Invalid(), errors.Errorf("concat axis %d out of range for input %s", axis, first)
	}
	output := first.Clone()
	for ii, x := range inputs[1:] {
		if x.DType != first.DType || x.Rank() != first.Rank() {
			return shapes.Invalid(), errors.Errorf("input #%d %s incompatible with input #0 %s", ii+1, x, first)
		}
		for otherAxis := range x.Rank() {
			if otherAxis != axis && x.Dim(otherAxis) != first.Dim(otherAxis) {
				return shapes.Invalid(), errors.Errorf("input #%d %s has a different dimension on axis %d than input #0 %s",
					ii+1, x, otherAxis, first)
			}
		}
		output.Dimensions[axis] += x.Dim(axis)
	}
	return output, nil
}
