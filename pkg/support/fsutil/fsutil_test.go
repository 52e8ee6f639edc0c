// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)
	home := filepath.Clean(usr.HomeDir)

	for input, want := range map[string]string{
		"":                 "",
		"config.hcl":       "config.hcl",
		"/tmp/config.hcl":  "/tmp/config.hcl",
		"~":                home,
		"~/models/sq.hcl":  filepath.Join(home, "models/sq.hcl"),
		"~" + usr.Username: home,
	} {
		got, err := ExpandHome(input)
		require.NoError(t, err, "ExpandHome(%q)", input)
		assert.Equal(t, want, got, "ExpandHome(%q)", input)
	}

	_, err = ExpandHome("~user_that_does_not_exist_42/x")
	assert.Error(t, err)
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "squeezenet.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte("classes = 10\n"), 0o644))

	resolved, err := ResolveInput(filePath)
	require.NoError(t, err)
	assert.Equal(t, filePath, resolved)

	_, err = ResolveInput(filepath.Join(dir, "missing.hcl"))
	assert.ErrorContains(t, err, "not found")

	// Directories are not files.
	_, err = ResolveInput(dir)
	assert.Error(t, err)
}
