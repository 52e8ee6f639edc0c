// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package squeezenet

import (
	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"k8s.io/klog/v2"
)

// Number of classes of well known datasets, available as variables in configuration files.
const (
	ImageNetClasses = 1000
	CIFARClasses    = 10
)

// hclConfigFile is the top-level structure of an architecture file.
// Attributes left out keep the values of DefaultConfig.
type hclConfigFile struct {
	Classes     *int           `hcl:"classes,optional"`
	Input       *string        `hcl:"input,optional"`
	Output      *string        `hcl:"output,optional"`
	Dropout     *float64       `hcl:"dropout,optional"`
	StemFilters *int           `hcl:"stem_filters,optional"`
	AvgPoolSize *int           `hcl:"avg_pool_size,optional"`
	Activation  *hclActivation `hcl:"activation,block"`
	Stages      []*hclStage    `hcl:"stage,block"`
}

type hclActivation struct {
	Type  *string  `hcl:"type,optional"`
	Slope *float64 `hcl:"slope,optional"`
}

// hclStage lists fire modules as [squeeze, expand] pairs.
type hclStage struct {
	Fires [][]int `hcl:"fires"`
}

// evalContext holds the variables that can be used in expressions of an architecture file.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"imagenet_classes": cty.NumberIntVal(ImageNetClasses),
			"cifar_classes":    cty.NumberIntVal(CIFARClasses),
		},
	}
}

// LoadConfig reads an architecture file in HCL format and returns the validated configuration. Example:
//
//	classes = cifar_classes
//	dropout = 0.5
//	activation {
//	  type  = "leaky"
//	  slope = 0.1
//	}
//	stage { fires = [[16, 64], [16, 64]] }
//	stage { fires = [[32, 128]] }
//
// Attributes not given keep the values of DefaultConfig(ImageNetClasses). If any stage block is given,
// they replace all the default stages.
func LoadConfig(filePath string) (Config, error) {
	hclFile, diags := hclparse.NewParser().ParseHCLFile(filePath)
	if diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "failed to parse architecture file %s", filePath)
	}
	return decodeConfig(hclFile, filePath)
}

// ParseConfig is like LoadConfig, but parses the contents of an architecture file. The filename is only
// used in error messages.
func ParseConfig(src []byte, filename string) (Config, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "failed to parse architecture file %s", filename)
	}
	return decodeConfig(hclFile, filename)
}

func decodeConfig(hclFile *hcl.File, filename string) (Config, error) {
	var parsed hclConfigFile
	diags := gohcl.DecodeBody(hclFile.Body, evalContext(), &parsed)
	if diags.HasErrors() {
		return Config{}, errors.Wrapf(diags, "failed to decode architecture file %s", filename)
	}

	cfg := DefaultConfig(ImageNetClasses)
	setIfPresent(&cfg.Classes, parsed.Classes)
	setIfPresent(&cfg.InputName, parsed.Input)
	setIfPresent(&cfg.OutputName, parsed.Output)
	setIfPresent(&cfg.DropoutProbability, parsed.Dropout)
	setIfPresent(&cfg.StemFilters, parsed.StemFilters)
	setIfPresent(&cfg.AvgPoolSize, parsed.AvgPoolSize)
	if parsed.Activation != nil {
		if parsed.Activation.Type != nil {
			cfg.Activation = symbol.ActType(*parsed.Activation.Type)
		}
		setIfPresent(&cfg.Slope, parsed.Activation.Slope)
	}
	if len(parsed.Stages) > 0 {
		cfg.Stages = make([][]FireSpec, len(parsed.Stages))
		for stageIdx, stage := range parsed.Stages {
			cfg.Stages[stageIdx] = make([]FireSpec, len(stage.Fires))
			for fireIdx, fire := range stage.Fires {
				if len(fire) != 2 {
					return Config{}, errors.Errorf("%s: stage #%d fire #%d must be a [squeeze, expand] pair, got %v",
						filename, stageIdx, fireIdx, fire)
				}
				cfg.Stages[stageIdx][fireIdx] = FireSpec{Squeeze: fire[0], Expand: fire[1]}
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.WithMessagef(err, "invalid architecture file %s", filename)
	}
	klog.V(1).Infof("squeezenet: loaded %s: %d classes, %d stages, %d fire modules",
		filename, cfg.Classes, len(cfg.Stages), cfg.NumFireModules())
	return cfg, nil
}

func setIfPresent[T any](field *T, value *T) {
	if value != nil {
		*field = *value
	}
}
