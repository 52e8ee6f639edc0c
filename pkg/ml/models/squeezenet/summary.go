// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package squeezenet

import (
	"fmt"

	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"github.com/pkg/errors"
)

// Layer is one row of a Summary.
type Layer struct {
	Node *symbol.Node

	// Name of the node, as exported.
	Name string

	// Block is the name of the fire module the node is part of, or empty.
	Block string

	// Details is a short description of the hyperparameters of the node, e.g. "3x3/2 max".
	Details string

	// Output shape of the node.
	Output shapes.Shape

	// NumParameters is the number of learnable scalars of the node.
	NumParameters int
}

// Summary of a SqueezeNet graph, see Summarize.
type Summary struct {
	// Layers has one entry per operation (variables are not included), in topological order.
	Layers []Layer

	// FireModules found in the graph, see FindFireModules.
	FireModules []FireModule

	// Inputs maps the name of each variable to its shape.
	Inputs map[string]shapes.Shape

	// Output shape of the graph.
	Output shapes.Shape

	// NumParameters is the total number of learnable scalars, and ParametersMemory the bytes they use.
	NumParameters    int
	ParametersMemory uintptr
}

// Summarize infers the shapes of the graph rooted at root, given the shapes of its variables, and returns a
// per-layer report of the output shapes and parameter counts.
//
// It returns an error if the shapes are not compatible, e.g.: with DefaultConfig, images of 224x224 don't
// leave a 13x13 output for the final average pooling, while images of 227x227 do.
func Summarize(root *symbol.Node, inputs map[string]shapes.Shape) (*Summary, error) {
	inf, err := symbol.InferShapes(root, inputs)
	if err != nil {
		return nil, errors.WithMessage(err, "squeezenet: failed to summarize graph")
	}
	summary := &Summary{
		FireModules:      FindFireModules(root),
		Inputs:           make(map[string]shapes.Shape),
		Output:           inf.Output(),
		NumParameters:    inf.NumParameters(),
		ParametersMemory: inf.ParametersMemory(),
	}

	blocks := make(map[*symbol.Node]string)
	for _, fire := range summary.FireModules {
		for _, node := range fire.Nodes() {
			blocks[node] = inf.Names[fire.Output]
		}
	}

	for _, node := range inf.Nodes {
		if node.Op() == symbol.OpTypeVariable {
			summary.Inputs[inf.Names[node]] = inf.Shape(node)
			continue
		}
		layer := Layer{
			Node:    node,
			Name:    inf.Names[node],
			Block:   blocks[node],
			Details: describe(node),
			Output:  inf.Shape(node),
		}
		for _, arg := range inf.NodeArguments(node) {
			if arg.Learnable {
				layer.NumParameters += arg.Shape.Size()
			}
		}
		summary.Layers = append(summary.Layers, layer)
	}
	return summary, nil
}

// window formats kernel and stride, e.g. "3x3/2".
func window(kernel, stride [2]int) string {
	if stride[0] == stride[1] {
		return fmt.Sprintf("%dx%d/%d", kernel[0], kernel[1], stride[0])
	}
	return fmt.Sprintf("%dx%d/%dx%d", kernel[0], kernel[1], stride[0], stride[1])
}

func withPadding(s string, pad [2]int) string {
	switch {
	case pad == [2]int{}:
		return s
	case pad[0] == pad[1]:
		return fmt.Sprintf("%s pad %d", s, pad[0])
	default:
		return fmt.Sprintf("%s pad %dx%d", s, pad[0], pad[1])
	}
}

func describe(node *symbol.Node) string {
	switch node.Op() {
	case symbol.OpTypeConvolution:
		s := withPadding(window(node.Kernel(), node.Stride()), node.Pad())
		s = fmt.Sprintf("%s, %d filters", s, node.NumFilter())
		if node.NoBias() {
			s += ", no bias"
		}
		return s
	case symbol.OpTypeLeakyReLU:
		return fmt.Sprintf("%s(%g)", node.ActType(), node.Slope())
	case symbol.OpTypePooling:
		if node.GlobalPool() {
			return fmt.Sprintf("global %s", node.PoolType())
		}
		return withPadding(fmt.Sprintf("%s %s", window(node.Kernel(), node.Stride()), node.PoolType()), node.Pad())
	case symbol.OpTypeConcat:
		return fmt.Sprintf("axis %d", node.Axis())
	case symbol.OpTypeDropout:
		return fmt.Sprintf("p=%g", node.Probability())
	}
	return ""
}
