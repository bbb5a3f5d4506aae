// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Keycroft CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keycroft",
		Short: "Keycroft - credential-based user authentication service",
		Long: `Keycroft is a user authentication service: registration, login,
and password changes over a JSON HTTP API, backed by PostgreSQL,
with argon2id password digests and stateless JWT bearer tokens.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
