// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"strings"

	"github.com/pkg/errors"
)

// OpType is the kind of operation a Node represents.
type OpType int

const (
	OpTypeInvalid OpType = iota
	OpTypeVariable
	OpTypeConvolution
	OpTypeLeakyReLU
	OpTypePooling
	OpTypeConcat
	OpTypeDropout
	OpTypeFlatten
	OpTypeSoftmaxOutput
)

// opNames are the operator names used in the symbol JSON format.
// Variables are serialized as the "null" operator.
var opNames = map[OpType]string{
	OpTypeVariable:      "null",
	OpTypeConvolution:   "Convolution",
	OpTypeLeakyReLU:     "LeakyReLU",
	OpTypePooling:       "Pooling",
	OpTypeConcat:        "Concat",
	OpTypeDropout:       "Dropout",
	OpTypeFlatten:       "Flatten",
	OpTypeSoftmaxOutput: "SoftmaxOutput",
}

// String implements fmt.Stringer.
func (op OpType) String() string {
	switch op {
	case OpTypeInvalid:
		return "Invalid"
	case OpTypeVariable:
		return "Variable"
	}
	if name, found := opNames[op]; found {
		return name
	}
	return "OpType(?)"
}

// OpName returns the operator name used in the symbol JSON format.
func (op OpType) OpName() string {
	return opNames[op]
}

// autoNamePrefix is the prefix of names generated for unnamed nodes, e.g. "convolution" for "convolution3".
func (op OpType) autoNamePrefix() string {
	return strings.ToLower(op.OpName())
}

// OpTypeFromName is the inverse of OpType.OpName.
func OpTypeFromName(name string) (OpType, error) {
	for op, opName := range opNames {
		if opName == name {
			return op, nil
		}
	}
	return OpTypeInvalid, errors.Errorf("unknown operator %q", name)
}

// ActType is the flavor of the leaky rectifier nonlinearity.
type ActType string

const (
	// ActTypeLeaky is `x > 0 ? x : slope*x`.
	ActTypeLeaky ActType = "leaky"
	// ActTypeELU is `x > 0 ? x : slope*(exp(x)-1)`.
	ActTypeELU ActType = "elu"
	// ActTypeSELU is the self-normalizing ELU. The slope is ignored.
	ActTypeSELU ActType = "selu"
	// ActTypeGELU is the gaussian error linear unit. The slope is ignored.
	ActTypeGELU ActType = "gelu"
	// ActTypePReLU learns a per-channel slope, stored in an extra "gamma" argument.
	ActTypePReLU ActType = "prelu"
	// ActTypeRReLU samples the slope at training time.
	ActTypeRReLU ActType = "rrelu"
)

// ActTypes lists all supported activation types.
var ActTypes = []ActType{ActTypeLeaky, ActTypeELU, ActTypeSELU, ActTypeGELU, ActTypePReLU, ActTypeRReLU}

// DefaultSlope is the slope of a LeakyReLU node that doesn't set one.
const DefaultSlope = 0.25

// PoolType is the aggregation used by a Pooling node.
type PoolType string

const (
	PoolTypeMax PoolType = "max"
	PoolTypeAvg PoolType = "avg"
	PoolTypeSum PoolType = "sum"
)

// Parameter keys of the nodes. They match the attribute names in the symbol JSON format.
const (
	ParamKernel     = "kernel"
	ParamStride     = "stride"
	ParamPad        = "pad"
	ParamNumFilter  = "num_filter"
	ParamNoBias     = "no_bias"
	ParamActType    = "act_type"
	ParamSlope      = "slope"
	ParamPoolType   = "pool_type"
	ParamGlobalPool = "global_pool"
	ParamDim        = "dim"
	ParamNumArgs    = "num_args"
	ParamP          = "p"
)
