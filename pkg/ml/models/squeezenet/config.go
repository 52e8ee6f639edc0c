// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package squeezenet

import (
	"math"
	"slices"

	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"github.com/pkg/errors"
)

// FireSpec is the number of channels of the squeeze and of each of the expand convolutions of a fire module.
type FireSpec struct {
	Squeeze, Expand int
}

// Config holds the hyperparameters of the SqueezeNet graph. Create it with DefaultConfig and modify
// as needed, or load it from an HCL file with LoadConfig.
type Config struct {
	// Classes is the number of output classes.
	Classes int

	// InputName and OutputName are the names of the data variable and of the SoftmaxOutput node.
	InputName, OutputName string

	// Activation and Slope configure the LeakyReLU nodes that follow every convolution.
	Activation symbol.ActType
	Slope      float64

	// DropoutProbability is applied after the last fire module.
	DropoutProbability float64

	// StemFilters is the number of channels of the initial 7x7 convolution.
	StemFilters int

	// Stages lists the fire modules, grouped in stages: a 3x3/2 max-pooling separates consecutive stages.
	Stages [][]FireSpec

	// AvgPoolSize is the window of the final average pooling. It should match the spatial size of the
	// last stage (13 for 227x227 images), so the classifier outputs one value per class.
	AvgPoolSize int
}

// DefaultConfig returns the configuration of the original SqueezeNet (v1.0) model:
//
//   - conv 7x7/2 with 96 filters, followed by a max-pooling;
//   - fire modules 16/64, 16/64, 32/128, followed by a max-pooling;
//   - fire modules 32/128, 48/192, 48/192, 64/256, followed by a max-pooling;
//   - fire module 64/256, dropout of 0.5 and a conv 1x1 with one channel per class;
//   - average pooling 13x13, flatten and softmax.
//
// The activation is "elu" with slope 0.25.
func DefaultConfig(classes int) Config {
	return Config{
		Classes:            classes,
		InputName:          "data",
		OutputName:         "softmax",
		Activation:         symbol.ActTypeELU,
		Slope:              0.25,
		DropoutProbability: 0.5,
		StemFilters:        96,
		Stages: [][]FireSpec{
			{{16, 64}, {16, 64}, {32, 128}},
			{{32, 128}, {48, 192}, {48, 192}, {64, 256}},
			{{64, 256}},
		},
		AvgPoolSize: 13,
	}
}

// NumFireModules returns the total number of fire modules in all stages.
func (c Config) NumFireModules() int {
	var count int
	for _, stage := range c.Stages {
		count += len(stage)
	}
	return count
}

// Validate returns an error if the configuration can't describe a valid graph.
func (c Config) Validate() error {
	if c.Classes <= 0 {
		return errors.Errorf("squeezenet: classes must be > 0, got %d", c.Classes)
	}
	if c.InputName == "" || c.OutputName == "" {
		return errors.Errorf("squeezenet: input and output names must be set, got %q and %q",
			c.InputName, c.OutputName)
	}
	if c.InputName == c.OutputName {
		return errors.Errorf("squeezenet: input and output can't have the same name %q", c.InputName)
	}
	if !slices.Contains(symbol.ActTypes, c.Activation) {
		return errors.Errorf("squeezenet: unknown activation %q, valid values are %q", c.Activation, symbol.ActTypes)
	}
	if c.Slope < 0 || math.IsNaN(c.Slope) || math.IsInf(c.Slope, 0) {
		return errors.Errorf("squeezenet: activation slope must be a finite value >= 0, got %g", c.Slope)
	}
	if !(c.DropoutProbability >= 0 && c.DropoutProbability < 1) {
		return errors.Errorf("squeezenet: dropout probability must be in [0, 1), got %g", c.DropoutProbability)
	}
	if c.StemFilters <= 0 {
		return errors.Errorf("squeezenet: stem filters must be > 0, got %d", c.StemFilters)
	}
	if c.AvgPoolSize <= 0 {
		return errors.Errorf("squeezenet: average pooling size must be > 0, got %d", c.AvgPoolSize)
	}
	if len(c.Stages) == 0 {
		return errors.New("squeezenet: at least one stage of fire modules is required")
	}
	for stageIdx, stage := range c.Stages {
		if len(stage) == 0 {
			return errors.Errorf("squeezenet: stage #%d has no fire modules", stageIdx)
		}
		for fireIdx, spec := range stage {
			if spec.Squeeze <= 0 || spec.Expand <= 0 {
				return errors.Errorf("squeezenet: stage #%d fire #%d: squeeze and expand filters must be > 0, got %d/%d",
					stageIdx, fireIdx, spec.Squeeze, spec.Expand)
			}
		}
	}
	return nil
}
