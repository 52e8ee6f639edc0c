// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package squeezenet

import (
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/core/symbol"
)

// FireModule points to the nodes of a fire module found in a graph.
type FireModule struct {
	// Squeeze is the activation of the squeeze convolution: the input of both expand convolutions.
	Squeeze *symbol.Node

	// Expand1x1 and Expand3x3 are the activations of the expand convolutions.
	Expand1x1, Expand3x3 *symbol.Node

	// Output is the concatenation of the expand activations.
	Output *symbol.Node
}

// Nodes returns all the nodes of the fire module, in topological order.
func (f FireModule) Nodes() []*symbol.Node {
	return []*symbol.Node{
		f.Squeeze.Input(0), f.Squeeze,
		f.Expand1x1.Input(0), f.Expand1x1,
		f.Expand3x3.Input(0), f.Expand3x3,
		f.Output,
	}
}

// Input returns the node the fire module is applied to.
func (f FireModule) Input() *symbol.Node {
	return f.Squeeze.Input(0).Input(0)
}

// SqueezeFilters returns the number of output channels of the squeeze convolution.
func (f FireModule) SqueezeFilters() int {
	return f.Squeeze.Input(0).NumFilter()
}

// ExpandFilters returns the number of output channels of each of the expand convolutions.
func (f FireModule) ExpandFilters() int {
	return f.Expand1x1.Input(0).NumFilter()
}

// FindFireModules returns the fire modules of the graph rooted at root, in topological order.
//
// A fire module is recognized by its structure, regardless of node names: a Concat on the channels axis of
// two activated convolutions, 1x1 and 3x3, that share the same activated 1x1 (squeeze) convolution as input.
func FindFireModules(root *symbol.Node) []FireModule {
	var modules []FireModule
	symbol.Walk(root, func(node *symbol.Node) {
		if fire, ok := matchFireModule(node); ok {
			modules = append(modules, fire)
		}
	})
	return modules
}

// activatedConvolution returns the convolution activated by node, if node is a LeakyReLU of a Convolution
// with the given square kernel size.
func activatedConvolution(node *symbol.Node, kernel int) (*symbol.Node, bool) {
	if node.Op() != symbol.OpTypeLeakyReLU {
		return nil, false
	}
	conv := node.Input(0)
	if conv.Op() != symbol.OpTypeConvolution || conv.Kernel() != [2]int{kernel, kernel} {
		return nil, false
	}
	return conv, true
}

func matchFireModule(node *symbol.Node) (fire FireModule, ok bool) {
	if node.Op() != symbol.OpTypeConcat || node.NumInputs() != 2 || node.Axis() != shapes.ChannelsAxis {
		return
	}
	expand1x1, ok1 := activatedConvolution(node.Input(0), 1)
	expand3x3, ok3 := activatedConvolution(node.Input(1), 3)
	if !ok1 || !ok3 || expand1x1.Input(0) != expand3x3.Input(0) {
		return
	}
	squeeze := expand1x1.Input(0)
	if _, isSqueeze := activatedConvolution(squeeze, 1); !isSqueeze {
		return FireModule{}, false
	}
	return FireModule{
		Squeeze:   squeeze,
		Expand1x1: node.Input(0),
		Expand3x3: node.Input(1),
		Output:    node,
	}, true
}
