// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fsutil contains utilities for working with file paths given in the command line.
package fsutil

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileExists returns whether the file exists and is not a directory, or an error if something went wrong
// in the filesystem.
func FileExists(filePath string) (bool, error) {
	info, err := os.Stat(filePath)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat %q", filePath)
}

// ExpandHome replaces a leading "~" or "~user" in filePath by the corresponding home directory.
// Other paths are returned unchanged.
func ExpandHome(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	userName, rest, _ := strings.Cut(filePath[1:], "/")
	var (
		usr *user.User
		err error
	)
	if userName == "" {
		usr, err = user.Current()
	} else {
		usr, err = user.Lookup(userName)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to lookup home directory in path %q", filePath)
	}
	return filepath.Join(usr.HomeDir, rest), nil
}

// ResolveInput expands the home directory in filePath and checks that the file exists.
func ResolveInput(filePath string) (string, error) {
	resolved, err := ExpandHome(filePath)
	if err != nil {
		return "", err
	}
	exists, err := FileExists(resolved)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errors.Errorf("file %q not found", resolved)
	}
	return resolved, nil
}
