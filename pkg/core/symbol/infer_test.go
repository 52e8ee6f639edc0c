// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image(batch, channels, size int) shapes.Shape {
	return shapes.Make(dtypes.Float32, batch, channels, size, size)
}

func TestInferConvolutionAndPooling(t *testing.T) {
	data := Variable("data")
	conv := Convolution(data).Filters(96).KernelSize(7).Strides(2).Name("conv_1").Done()
	pool := Pooling(LeakyReLU(conv, ActTypeELU, 0.25)).WindowSize(3).Strides(2).Done()

	inf, err := InferShapes(pool, map[string]shapes.Shape{"data": image(8, 3, 227)})
	require.NoError(t, err)
	assert.Equal(t, []int{8, 96, 111, 111}, inf.Shape(conv).Dimensions)
	assert.Equal(t, []int{8, 96, 55, 55}, inf.Output().Dimensions)

	args := inf.NodeArguments(conv)
	require.Len(t, args, 2)
	assert.Equal(t, "conv_1_weight", args[0].Name)
	assert.Equal(t, []int{96, 3, 7, 7}, args[0].Shape.Dimensions)
	assert.Equal(t, "conv_1_bias", args[1].Name)
	assert.Equal(t, []int{96}, args[1].Shape.Dimensions)
	assert.Equal(t, 96*3*7*7+96, inf.NumParameters())
	assert.Equal(t, uintptr(4*(96*3*7*7+96)), inf.ParametersMemory())

	// Node not in the graph.
	assert.False(t, inf.Shape(Variable("other")).Ok())
}

func TestInferPadding(t *testing.T) {
	data := VariableWithShape("data", image(1, 16, 55))
	conv := Convolution(data).Filters(64).KernelSize(3).Padding(1).UseBias(false).Done()
	inf, err := InferShapes(conv, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 64, 55, 55}, inf.Output().Dimensions)
	require.Len(t, inf.NodeArguments(conv), 1)
	assert.Equal(t, 64*16*3*3, inf.NumParameters())
}

func TestInferGlobalAndConcat(t *testing.T) {
	data := Variable("data")
	a := Convolution(data).Filters(64).KernelSize(1).Done()
	b := Convolution(data).Filters(64).KernelSize(3).Padding(1).Done()
	concat := Concat(shapes.ChannelsAxis, a, b)
	global := Pooling(concat).Avg().Global(true).Done()
	out := SoftmaxOutput(Flatten(global), "softmax")

	inf, err := InferShapes(out, map[string]shapes.Shape{"data": image(2, 16, 13)})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 128, 13, 13}, inf.Shape(concat).Dimensions)
	assert.Equal(t, []int{2, 128, 1, 1}, inf.Shape(global).Dimensions)
	assert.Equal(t, []int{2, 128}, inf.Output().Dimensions)

	label := inf.NodeArguments(out)
	require.Len(t, label, 1)
	assert.Equal(t, "softmax_label", label[0].Name)
	assert.Equal(t, []int{2}, label[0].Shape.Dimensions)
	assert.False(t, label[0].Learnable)

	names := make([]string, len(inf.Arguments))
	for ii, arg := range inf.Arguments {
		names[ii] = arg.Name
	}
	assert.Equal(t, []string{"data", "convolution0_weight", "convolution0_bias",
		"convolution1_weight", "convolution1_bias", "softmax_label"}, names)
	assert.Equal(t, ListArguments(out), names)
}

func TestInferFlatten(t *testing.T) {
	data := Variable("data")
	flat := Flatten(Pooling(data).Max().WindowSize(3).Strides(2).Done())
	inf, err := InferShapes(flat, map[string]shapes.Shape{"data": image(4, 96, 111)})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 96 * 55 * 55}, inf.Output().Dimensions)
}

func TestInferPReLU(t *testing.T) {
	data := Variable("data")
	act := LeakyReLU(data, ActTypePReLU, 0.25).WithName("act")
	inf, err := InferShapes(act, map[string]shapes.Shape{"data": image(1, 32, 8)})
	require.NoError(t, err)
	args := inf.NodeArguments(act)
	require.Len(t, args, 1)
	assert.Equal(t, "act_gamma", args[0].Name)
	assert.Equal(t, 32, inf.NumParameters())
}

func TestInferErrors(t *testing.T) {
	data := Variable("data")
	input := map[string]shapes.Shape{"data": image(1, 3, 12)}

	testCases := []struct {
		name string
		root *Node
		want string
	}{
		{"zero filters", Convolution(data).Filters(0).KernelSize(1).Done(), "num_filter must be > 0"},
		{"missing kernel", Convolution(data).Filters(8).Done(), "must be > 0"},
		{"window too large", Pooling(data).Avg().WindowSize(13).Done(), "larger than the padded input"},
		{"dropout", Dropout(data, 1.0), "dropout probability"},
		{"act type", LeakyReLU(data, ActType("swish"), 0), "unknown act_type"},
		{"pool type", Pooling(data).Type(PoolType("median")).WindowSize(2).Done(), "unknown pool_type"},
		{"concat mismatch", Concat(shapes.ChannelsAxis, data,
			Convolution(data).Filters(3).KernelSize(3).Done()), "different dimension on axis 2"},
		{"concat axis", Concat(4, data, data), "concat axis 4 out of range"},
		{"rank", Convolution(Flatten(data)).Filters(3).KernelSize(1).Done(), "rank-4"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InferShapes(tc.root, input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := InferShapes(data, nil)
	require.ErrorContains(t, err, `no shape given for variable "data"`)
	_, err = InferShapes(data, map[string]shapes.Shape{"data": image(1, 3, 8), "label": image(1, 1, 1)})
	require.ErrorContains(t, err, `inputs ["label"] are not variables`)
	_, err = InferShapes(data, map[string]shapes.Shape{"data": image(1, 3, 8), "mask": image(1, 1, 1), "label": image(1, 1, 1)})
	require.ErrorContains(t, err, `inputs ["label" "mask"] are not variables`)
	_, err = InferShapes(nil, nil)
	require.Error(t, err)
}

func TestInferErrorNamesNode(t *testing.T) {
	data := Variable("data")
	pool := Pooling(data).WindowSize(3).Strides(2).Name("pool_4").Done()
	_, err := InferShapes(pool, map[string]shapes.Shape{"data": image(1, 8, 2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node #1 "pool_4" (Pooling)`)
}
