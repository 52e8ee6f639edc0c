// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package symbol

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallClassifier() *Node {
	data := VariableWithShape("data", shapes.Make(dtypes.Float32, 1, 3, 32, 32))
	x := Convolution(data).Filters(8).KernelSize(3).Padding(1).Name("conv_1").Done()
	x = LeakyReLU(x, ActTypeELU, 0.25)
	x = Concat(shapes.ChannelsAxis, x, LeakyReLU(x, ActTypePReLU, 0.25))
	x = Dropout(x, 0.5)
	x = Pooling(x).Avg().Global(true).Done()
	return SoftmaxOutput(Flatten(x), "softmax")
}

func TestMarshalJSON(t *testing.T) {
	root := smallClassifier()
	data, err := MarshalJSON(root)
	require.NoError(t, err)

	var g struct {
		Nodes []struct {
			Op     string            `json:"op"`
			Name   string            `json:"name"`
			Attrs  map[string]string `json:"attrs"`
			Inputs [][]int           `json:"inputs"`
		} `json:"nodes"`
		ArgNodes   []int            `json:"arg_nodes"`
		NodeRowPtr []int            `json:"node_row_ptr"`
		Heads      [][]int          `json:"heads"`
		Attrs      map[string][]any `json:"attrs"`
	}
	require.NoError(t, json.Unmarshal(data, &g))

	names := make([]string, len(g.Nodes))
	for ii, node := range g.Nodes {
		names[ii] = node.Name
	}
	assert.Equal(t, []string{"data", "conv_1_weight", "conv_1_bias", "conv_1", "leakyrelu0",
		"leakyrelu1_gamma", "leakyrelu1", "concat0", "dropout0", "pooling0", "flatten0",
		"softmax_label", "softmax"}, names)
	assert.Equal(t, []int{0, 1, 2, 5, 11}, g.ArgNodes)
	assert.Len(t, g.NodeRowPtr, len(g.Nodes)+1)
	assert.Equal(t, [][]int{{12, 0, 0}}, g.Heads)
	assert.Equal(t, []any{"int", float64(JSONFormatVersion)}, g.Attrs["mxnet_version"])

	assert.Equal(t, "null", g.Nodes[0].Op)
	assert.Equal(t, "(1, 3, 32, 32)", g.Nodes[0].Attrs["__shape__"])
	assert.NotNil(t, g.Nodes[0].Inputs)

	conv := g.Nodes[3]
	assert.Equal(t, "Convolution", conv.Op)
	assert.Equal(t, map[string]string{"kernel": "(3, 3)", "stride": "(1, 1)", "pad": "(1, 1)",
		"num_filter": "8", "no_bias": "False"}, conv.Attrs)
	assert.Equal(t, [][]int{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, conv.Inputs)
	assert.Equal(t, "0.5", g.Nodes[8].Attrs["p"])
	assert.Equal(t, "True", g.Nodes[9].Attrs["global_pool"])
	assert.Equal(t, [][]int{{10, 0, 0}, {11, 0, 0}}, g.Nodes[12].Inputs)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, root))
	assert.Equal(t, data, buf.Bytes())

	_, err = MarshalJSON(nil)
	assert.Error(t, err)
}

func TestParseJSONRoundTrip(t *testing.T) {
	root := smallClassifier()
	data, err := MarshalJSON(root)
	require.NoError(t, err)

	parsed, err := ReadJSON(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, OpTypeSoftmaxOutput, parsed.Op())
	assert.Equal(t, "softmax", parsed.Name())
	assert.Equal(t, len(TopologicalSort(root)), len(TopologicalSort(parsed)))

	// Implied arguments are not nodes.
	variables := Variables(parsed)
	require.Len(t, variables, 1)
	assert.Equal(t, "data", variables[0].Name())
	assert.True(t, variables[0].DeclaredShape().Equal(shapes.Make(dtypes.Float32, 1, 3, 32, 32)))

	conv := Filter(parsed, func(n *Node) bool { return n.Op() == OpTypeConvolution })
	require.Len(t, conv, 1)
	assert.Equal(t, 8, conv[0].NumFilter())
	assert.Equal(t, [2]int{1, 1}, conv[0].Pad())
	assert.Equal(t, 1, conv[0].NumInputs())

	// Serializing again gives the same bytes.
	data2, err := MarshalJSON(parsed)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))

	// Same shapes.
	inf, err := InferShapes(parsed, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 16}, inf.Output().Dimensions)
}

func TestParseJSONDefaultSlope(t *testing.T) {
	root, err := ParseJSON([]byte(`{"nodes": [{"op": "null", "name": "data", "inputs": []},
		{"op": "LeakyReLU", "name": "act", "attrs": {"act_type": "elu"}, "inputs": [[0, 0, 0]]}],
		"heads": [[1, 0, 0]]}`))
	require.NoError(t, err)
	assert.Equal(t, OpTypeLeakyReLU, root.Op())
	assert.Equal(t, ActTypeELU, root.ActType())
	assert.Equal(t, DefaultSlope, root.Slope())
}

func TestParseJSONErrors(t *testing.T) {
	testCases := []struct {
		name, json, want string
	}{
		{"invalid json", `{`, "invalid JSON"},
		{"no heads", `{"nodes": [], "heads": []}`, "exactly one head"},
		{"unknown op", `{"nodes": [{"op": "BatchNorm", "name": "bn", "inputs": []}], "heads": [[0, 0, 0]]}`,
			"unknown operator"},
		{"forward reference", `{"nodes": [{"op": "Flatten", "name": "f", "inputs": [[1, 0, 0]]},
			{"op": "null", "name": "data", "inputs": []}], "heads": [[0, 0, 0]]}`, "must refer to previous nodes"},
		{"missing weight", `{"nodes": [{"op": "null", "name": "data", "inputs": []},
			{"op": "Convolution", "name": "c", "attrs": {"kernel": "(1, 1)", "num_filter": "2"},
			"inputs": [[0, 0, 0]]}], "heads": [[1, 0, 0]]}`, "expects at least 3 inputs"},
		{"bad tuple", `{"nodes": [{"op": "null", "name": "data", "inputs": []},
			{"op": "Pooling", "name": "p", "attrs": {"kernel": "3, 3"}, "inputs": [[0, 0, 0]]}],
			"heads": [[1, 0, 0]]}`, "parenthesis"},
		{"head out of range", `{"nodes": [{"op": "null", "name": "data", "inputs": []}], "heads": [[3, 0, 0]]}`,
			"head references node #3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tc.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseParam(t *testing.T) {
	value, err := parseParam(ParamKernel, "(3,3)")
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 3}, value)

	value, err = parseParam(ParamNoBias, "true")
	require.NoError(t, err)
	assert.Equal(t, true, value)

	value, err = parseParam("cudnn_tune", "off")
	require.NoError(t, err)
	assert.Equal(t, "off", value)

	_, err = parseParam(ParamStride, "(1, 1, 1)")
	assert.Error(t, err)
	_, err = parseParam(ParamNumFilter, "many")
	assert.Error(t, err)
}
