// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

// Package xdg provides XDG Base Directory paths for Keycroft.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "keycroft"

// ConfigDir returns the XDG config directory for keycroft.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the conventional config file location. The file
// may not exist; callers decide whether that matters.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "keycroft.yaml")
}
