// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package squeezenet defines the symbolic graph of SqueezeNet, an image classifier built from "fire modules".
//
// A fire module squeezes the channels of its input with a 1x1 convolution, and then expands them again with
// two parallel convolutions, 1x1 and 3x3, whose outputs are concatenated. It keeps most of the representational
// capacity of a plain 3x3 convolution stack with a fraction of its parameters.
//
// The graph is only declared here: use symbol.WriteJSON to hand it over to a training engine, or
// symbol.InferShapes / Summarize to check it.
//
// Example:
//
//	model := squeezenet.Build(1000)
//	err := symbol.WriteJSON(f, model)
//
// Build, Fire and Squeeze use DefaultConfig. To change the activation, dropout or the table of fire modules,
// create a Config (or load one with LoadConfig) and use its methods.
package squeezenet

import (
	"fmt"

	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"k8s.io/klog/v2"
)

// Squeeze returns a 1x1 convolution of x with numFilter output channels, followed by the activation.
// It is the first half of a fire module.
func Squeeze(x *symbol.Node, numFilter int) *symbol.Node {
	return DefaultConfig(0).Squeeze(x, numFilter)
}

// Fire returns a fire module on x: one Squeeze with numSqueezeFilter channels, feeding two expand convolutions
// (1x1 and 3x3) with numExpandFilter channels each, concatenated along the channels axis.
// The output has 2*numExpandFilter channels.
func Fire(x *symbol.Node, numSqueezeFilter, numExpandFilter int) *symbol.Node {
	return DefaultConfig(0).Fire(x, numSqueezeFilter, numExpandFilter)
}

// Build returns the SqueezeNet graph for the given number of classes, as described in DefaultConfig.
// The root is a SoftmaxOutput node named "softmax".
//
// The number of classes is not validated: invalid values are reported by symbol.InferShapes,
// or by the training engine.
func Build(classes int) *symbol.Node {
	return DefaultConfig(classes).build()
}

// Squeeze is like the package function Squeeze, but uses the activation of the configuration.
func (c Config) Squeeze(x *symbol.Node, numFilter int) *symbol.Node {
	return c.squeeze(x, numFilter, "")
}

// Fire is like the package function Fire, but uses the activation of the configuration.
func (c Config) Fire(x *symbol.Node, numSqueezeFilter, numExpandFilter int) *symbol.Node {
	return c.fire(x, numSqueezeFilter, numExpandFilter, "")
}

// Build validates the configuration and returns the SqueezeNet graph it describes.
func (c Config) Build() (*symbol.Node, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.build(), nil
}

// scopedName returns "<scope>_<name>", or "" for unnamed scopes, so nodes built outside of
// Build are left for symbol.AssignNames to name.
func scopedName(scope, name string) string {
	if scope == "" {
		return ""
	}
	return scope + "_" + name
}

func (c Config) activation(x *symbol.Node, name string) *symbol.Node {
	act := symbol.LeakyReLU(x, c.Activation, c.Slope)
	if name != "" {
		act = act.WithName(name)
	}
	return act
}

func (c Config) squeeze(x *symbol.Node, numFilter int, scope string) *symbol.Node {
	squeeze1x1 := symbol.Convolution(x).Filters(numFilter).KernelSize(1).Strides(1).
		Name(scopedName(scope, "squeeze_1x1")).Done()
	return c.activation(squeeze1x1, scopedName(scope, "relu_squeeze_1x1"))
}

func (c Config) fire(x *symbol.Node, numSqueezeFilter, numExpandFilter int, scope string) *symbol.Node {
	squeezed := c.squeeze(x, numSqueezeFilter, scope)

	expand1x1 := symbol.Convolution(squeezed).Filters(numExpandFilter).KernelSize(1).Strides(1).
		Name(scopedName(scope, "expand_1x1")).Done()
	expand1x1 = c.activation(expand1x1, scopedName(scope, "relu_expand_1x1"))

	expand3x3 := symbol.Convolution(squeezed).Filters(numExpandFilter).KernelSize(3).Strides(1).Padding(1).
		Name(scopedName(scope, "expand_3x3")).Done()
	expand3x3 = c.activation(expand3x3, scopedName(scope, "relu_expand_3x3"))

	output := symbol.Concat(shapes.ChannelsAxis, expand1x1, expand3x3)
	if scope != "" {
		output = output.WithName(scope)
	}
	return output
}

func (c Config) maxPool(x *symbol.Node, name string) *symbol.Node {
	return symbol.Pooling(x).Max().WindowSize(3).Strides(2).Name(name).Done()
}

// build assembles the graph without validating the configuration. Layers are numbered as in the
// SqueezeNet paper: conv_1, fire_2 ... fire_9, conv_10.
func (c Config) build() *symbol.Node {
	data := symbol.Variable(c.InputName)

	// Block #1: CONV => ACT => POOL
	x := symbol.Convolution(data).Filters(c.StemFilters).KernelSize(7).Strides(2).Name("conv_1").Done()
	x = c.activation(x, "relu_1")
	x = c.maxPool(x, "pool_1")

	// Fire stages, separated by pooling.
	layer := 1
	for stageIdx, stage := range c.Stages {
		for _, spec := range stage {
			layer++
			x = c.fire(x, spec.Squeeze, spec.Expand, fmt.Sprintf("fire_%d", layer))
		}
		if stageIdx < len(c.Stages)-1 {
			x = c.maxPool(x, fmt.Sprintf("pool_%d", layer))
		}
	}

	// Classifier: DROPOUT => CONV => ACT => global AVG POOL => SOFTMAX
	x = symbol.Dropout(x, c.DropoutProbability).WithName(fmt.Sprintf("do_%d", layer))
	layer++
	x = symbol.Convolution(x).Filters(c.Classes).KernelSize(1).Strides(1).
		Name(fmt.Sprintf("conv_%d", layer)).Done()
	x = c.activation(x, fmt.Sprintf("relu_%d", layer))
	x = symbol.Pooling(x).Avg().WindowSize(c.AvgPoolSize).Name(fmt.Sprintf("pool_%d", layer)).Done()
	x = symbol.Flatten(x).WithName("flatten")
	model := symbol.SoftmaxOutput(x, c.OutputName)

	klog.V(1).Infof("squeezenet: built graph with %d classes, %d fire modules (%s activation, dropout %g)",
		c.Classes, c.NumFireModules(), c.Activation, c.DropoutProbability)
	return model
}
