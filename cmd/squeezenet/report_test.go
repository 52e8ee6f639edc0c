// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"github.com/gomlx/squeezenet/pkg/ml/models/squeezenet"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestInputShape(t *testing.T) {
	shape, err := inputShape(8, []int{3, 227, 227})
	require.NoError(t, err)
	assert.Equal(t, []int{8, 3, 227, 227}, shape.Dimensions)

	_, err = inputShape(8, []int{227, 227})
	assert.ErrorContains(t, err, "channels,height,width")
	_, err = inputShape(0, []int{3, 227, 227})
	assert.ErrorContains(t, err, "invalid batch size 0")
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	run(&buf)
	out := buf.String()
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "1,248,424")
	assert.Contains(t, out, "fire_9_expand_3x3")
	assert.Contains(t, out, "3x3/1 pad 1, 256 filters")
	assert.Contains(t, out, "[1 1000]")
	assert.NotContains(t, out, "Graph")
}

func TestLayersTableShading(t *testing.T) {
	table := newLayersTable([]string{"Block", "Layer", "Output"}, lipgloss.Left, lipgloss.Left)
	table.AddLayer("", false, "", "pool_1", "[1 96 55 55]")
	table.AddLayer("fire_2", false, "fire_2", "fire_2_squeeze_1x1", "[1 16 55 55]")
	table.AddLayer("fire_2", false, "fire_2", "fire_2_expand_1x1", "[1 64 55 55]")
	table.AddLayer("fire_2", true, "fire_2", "fire_2", "[1 128 55 55]")
	table.AddLayer("fire_3", false, "fire_3", "fire_3_squeeze_1x1", "[1 16 55 55]")
	table.AddLayer("", false, "", "pool_4", "[1 256 27 27]")
	table.AddLayer("", false, "", "do_9", "[1 512 13 13]")

	assert.True(t, table.styleAt(lgtable.HeaderRow, 0).GetReverse())
	var faint []bool
	for row := range 7 {
		faint = append(faint, table.styleAt(row, 0).GetFaint())
	}
	assert.Equal(t, []bool{false, true, true, false, false, true, false}, faint)
	assert.True(t, table.styleAt(3, 0).GetBold(), "block output is highlighted")
	assert.Equal(t, lipgloss.Left, table.styleAt(0, 1).GetAlign())
	assert.Equal(t, lipgloss.Right, table.styleAt(0, 2).GetAlign())

	var buf bytes.Buffer
	renderSection(&buf, "Layers", table.Table)
	assert.Contains(t, buf.String(), "Layers")
	assert.Contains(t, buf.String(), "fire_2_expand_1x1")
}

func TestPrintGraph(t *testing.T) {
	var buf bytes.Buffer
	printGraph(&buf, squeezenet.Build(10))
	assert.Contains(t, buf.String(), "conv_10 = Convolution(")
	assert.Contains(t, buf.String(), "softmax = SoftmaxOutput(")
}

func TestWriteJSON(t *testing.T) {
	model := squeezenet.Build(10)
	filePath := filepath.Join(t.TempDir(), "squeezenet-symbol.json")
	require.NoError(t, writeJSON(nil, filePath, model))
	contents, err := os.ReadFile(filePath)
	require.NoError(t, err)
	parsed, err := symbol.ParseJSON(contents)
	require.NoError(t, err)
	assert.Equal(t, "softmax", parsed.Name())

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, "-", model))
	assert.Equal(t, contents, buf.Bytes())

	assert.Error(t, writeJSON(nil, filepath.Join(t.TempDir(), "missing", "x.json"), model))
}

func TestLoadConfig(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "cifar.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte("classes = cifar_classes\ndropout = 0.25\n"), 0o644))
	require.NoError(t, flag.Set("config", filePath))
	defer func() { require.NoError(t, flag.Set("config", "")) }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, squeezenet.CIFARClasses, cfg.Classes)
	assert.Equal(t, 0.25, cfg.DropoutProbability)

	// An explicit -classes overrides the file.
	require.NoError(t, flag.Set("classes", "100"))
	defer func() { require.NoError(t, flag.Set("classes", "1000")) }()
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Classes)
}
