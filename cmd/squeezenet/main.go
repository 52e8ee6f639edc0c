// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// squeezenet builds the SqueezeNet graph, reports its layers, shapes and parameters,
// and exports it in symbol JSON format for a training engine.
//
// Examples:
//
//	squeezenet -summary
//	squeezenet -classes=10 -input=3,227,227 -json=squeezenet-symbol.json
//	squeezenet -config=cifar.hcl -input=3,32,32 -print
package main

import (
	"flag"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/squeezenet/pkg/core/shapes"
	"github.com/gomlx/squeezenet/pkg/ml/models/squeezenet"
	"github.com/gomlx/squeezenet/pkg/support/fsutil"
	"github.com/gomlx/squeezenet/pkg/support/xslices"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"k8s.io/klog/v2"
)

var (
	flagClasses = flag.Int("classes", squeezenet.ImageNetClasses,
		"Number of classes. If -config is given, it overrides the value in the file only if set explicitly.")
	flagConfig = flag.String("config", "", "Architecture file in HCL format. "+
		"If empty, the original SqueezeNet architecture is used.")
	flagInput = xslices.Flag("input", []int{3, 227, 227},
		"Shape of the input images, as channels,height,width.", strconv.Atoi)
	flagBatch   = flag.Int("batch", 1, "Batch size used to report shapes.")
	flagSummary = flag.Bool("summary", false, "Display a summary of the model and its layers. "+
		"This is the default if no other output is requested.")
	flagPrint   = flag.Bool("print", false, "Prints the graph, one node per line.")
	flagJSON    = flag.String("json", "", "Writes the graph in symbol JSON format to the given file, or to stdout if \"-\".")
	flagNoColor = flag.Bool("no_color", false, "Disable colors in the tables.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Fatalf("Unexpected arguments %q. See 'squeezenet -help'.", flag.Args())
	}
	if *flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	err := exceptions.TryCatch[error](func() { run(os.Stdout) })
	if err != nil {
		klog.Fatalf("Failed with error: %+v", err)
	}
}

// run builds the model and writes the requested outputs to w. Errors are thrown as panics.
func run(w io.Writer) {
	cfg := must.M1(loadConfig())
	model := must.M1(cfg.Build())
	input := must.M1(inputShape(*flagBatch, *flagInput))

	if *flagPrint {
		printGraph(w, model)
	}
	if *flagJSON != "" {
		must.M(writeJSON(w, *flagJSON, model))
	}
	if *flagSummary || (!*flagPrint && *flagJSON == "") {
		summary := must.M1(squeezenet.Summarize(model, map[string]shapes.Shape{cfg.InputName: input}))
		reportSummary(w, cfg, summary)
		reportLayers(w, summary)
	}
}

// loadConfig returns the configuration selected by -config and -classes.
func loadConfig() (squeezenet.Config, error) {
	if *flagConfig == "" {
		return squeezenet.DefaultConfig(*flagClasses), nil
	}
	configPath, err := fsutil.ResolveInput(*flagConfig)
	if err != nil {
		return squeezenet.Config{}, err
	}
	cfg, err := squeezenet.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if isFlagSet("classes") {
		cfg.Classes = *flagClasses
	}
	return cfg, nil
}

func isFlagSet(name string) (found bool) {
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return
}
