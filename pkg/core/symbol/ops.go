// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
)

// Variable creates a placeholder for a value fed by the training engine, for instance the "data" input.
// Its shape is given at shape inference time.
func Variable(name string) *Node {
	if name == "" {
		exceptions.Panicf("Variable requires a name")
	}
	n := newNode(OpTypeVariable, name, nil)
	n.shape = shapes.Invalid()
	return n
}

// VariableWithShape creates a placeholder with a declared shape, which InferShapes uses when no
// other shape is given for it.
func VariableWithShape(name string, shape shapes.Shape) *Node {
	n := Variable(name)
	n.shape = shape.Clone()
	return n
}

// LeakyReLU applies the leaky rectifier nonlinearity of the given flavor to x.
// For ActTypeLeaky and ActTypeELU the slope is the negative-side scale; see ActType for details.
func LeakyReLU(x *Node, actType ActType, slope float64) *Node {
	return newNode(OpTypeLeakyReLU, "", map[string]any{
		ParamActType: actType,
		ParamSlope:   slope,
	}, x)
}

// Concat concatenates the inputs along the given axis. With the channels-first layout,
// use shapes.ChannelsAxis to concatenate feature maps.
func Concat(axis int, inputs ...*Node) *Node {
	if len(inputs) == 0 {
		exceptions.Panicf("Concat requires at least one input")
	}
	return newNode(OpTypeConcat, "", map[string]any{
		ParamDim:     axis,
		ParamNumArgs: len(inputs),
	}, inputs...)
}

// Dropout zeroes each activation of x with probability p during training, and scales the remaining
// ones by 1/(1-p). It is the identity at inference time.
func Dropout(x *Node, p float64) *Node {
	return newNode(OpTypeDropout, "", map[string]any{ParamP: p}, x)
}

// Flatten collapses all axes but the batch axis into one.
func Flatten(x *Node) *Node {
	return newNode(OpTypeFlatten, "", nil, x)
}

// SoftmaxOutput converts x into a class-probability distribution, and when a "<name>_label" argument
// is given by the training engine, computes the cross-entropy loss gradient against it.
func SoftmaxOutput(x *Node, name string) *Node {
	return newNode(OpTypeSoftmaxOutput, name, nil, x)
}
