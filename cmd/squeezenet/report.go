// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/core/symbol"
	"github.com/gomlx/squeezenet/pkg/ml/models/squeezenet"
	"github.com/gomlx/squeezenet/pkg/support/fsutil"
	"github.com/gomlx/squeezenet/pkg/support/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// inputShape returns the shape of a batch of images with the given channels, height and width.
func inputShape(batchSize int, dims []int) (shape shapes.Shape, err error) {
	if len(dims) != 3 {
		return shapes.Invalid(), errors.Errorf("input shape must be given as channels,height,width, got %v", dims)
	}
	err = exceptions.TryCatch[error](func() {
		shape = shapes.Make(dtypes.Float32, append([]int{batchSize}, dims...)...)
	})
	if err != nil {
		return shapes.Invalid(), errors.WithMessagef(err, "invalid batch size %d or input shape %v", batchSize, dims)
	}
	return shape, nil
}

// printGraph writes the graph, one node per line.
func printGraph(w io.Writer, model *symbol.Node) {
	fmt.Fprintln(w, titleStyle.Render("Graph"))
	fmt.Fprint(w, symbol.Format(model))
}

// writeJSON writes the graph in symbol JSON format to filePath, or to w if filePath is "-".
func writeJSON(w io.Writer, filePath string, model *symbol.Node) error {
	if filePath == "-" {
		return symbol.WriteJSON(w, model)
	}
	filePath, err := fsutil.ExpandHome(filePath)
	if err != nil {
		return err
	}
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}
	if err = symbol.WriteJSON(f, model); err != nil {
		_ = f.Close()
		return errors.WithMessagef(err, "failed to write %q", filePath)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", filePath)
	}
	klog.V(1).Infof("Graph saved to %q", filePath)
	return nil
}

// reportSummary writes the model hyperparameters and totals.
func reportSummary(w io.Writer, cfg squeezenet.Config, summary *squeezenet.Summary) {
	table := newSummaryTable()
	table.Row("classes", humanize.Comma(int64(cfg.Classes)))
	table.Row("activation", fmt.Sprintf("%s(%g)", cfg.Activation, cfg.Slope))
	table.Row("dropout", fmt.Sprintf("%g", cfg.DropoutProbability))
	table.Row("# fire modules", humanize.Comma(int64(len(summary.FireModules))))
	for _, name := range xslices.SortedKeys(summary.Inputs) {
		table.Row(name, summary.Inputs[name].String())
	}
	table.Row(cfg.OutputName, summary.Output.String())
	table.Row("# layers", humanize.Comma(int64(len(summary.Layers))))
	table.Row("# parameters", humanize.Comma(int64(summary.NumParameters)))
	table.Row("# bytes", humanize.Bytes(uint64(summary.ParametersMemory)))
	renderSection(w, "Summary", table)
}

// reportLayers writes one row per layer, grouped by fire module.
func reportLayers(w io.Writer, summary *squeezenet.Summary) {
	table := newLayersTable([]string{"Block", "Layer", "Op", "Details", "Output", "Parameters"},
		lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Left)
	for _, layer := range summary.Layers {
		params := ""
		if layer.NumParameters > 0 {
			params = humanize.Comma(int64(layer.NumParameters))
		}
		isBlockOutput := layer.Block != "" && layer.Block == layer.Name
		table.AddLayer(layer.Block, isBlockOutput, layer.Block, layer.Name, layer.Node.Op().String(), layer.Details,
			fmt.Sprintf("%v", layer.Output.Dimensions), params)
	}
	renderSection(w, "Layers", table.Table)
}
