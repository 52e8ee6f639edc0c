// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"flag"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	assert.Equal(t, 3*227*227, Product([]int{3, 227, 227}))
	assert.Equal(t, 1, Product([]int{}))
	assert.Equal(t, 0.5, Product([]float64{0.25, 2}))
	assert.Equal(t, []string{"1", "2"}, Map([]int{1, 2}, strconv.Itoa))
	assert.Equal(t, []string{"kernel", "pad", "stride"}, SortedKeys(map[string]int{"stride": 1, "kernel": 3, "pad": 0}))
}

func TestFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dims := FlagSet(fs, "input", []int{3, 227, 227}, "input dimensions", strconv.Atoi)
	assert.Equal(t, []int{3, 227, 227}, *dims)

	require.NoError(t, fs.Parse([]string{"-input", "1, 32,32"}))
	assert.Equal(t, []int{1, 32, 32}, *dims)

	// A failed parse leaves the previous value untouched.
	require.Error(t, fs.Parse([]string{"-input", "1,x"}))
	assert.Equal(t, []int{1, 32, 32}, *dims)
	assert.Equal(t, "1,32,32", fs.Lookup("input").Value.String())
}
