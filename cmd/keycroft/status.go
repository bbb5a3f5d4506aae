// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// statusConfig holds configuration for the status command.
type statusConfig struct {
	addr    string
	timeout time.Duration
}

const defaultStatusAddr = "127.0.0.1:8080"

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether a running Keycroft server is up",
		Long:  `Query the /status endpoint of a running Keycroft API server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.addr, "addr", defaultStatusAddr, "API server address")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 5*time.Second, "request timeout")

	return cmd
}

// runStatus queries the server and reports the result.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	url := fmt.Sprintf("http://%s/status", cfg.addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return oops.Code("STATUS_FAILED").With("addr", cfg.addr).Wrap(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return oops.Code("STATUS_FAILED").With("addr", cfg.addr).
			Hint("is the server running?").Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return oops.Code("STATUS_FAILED").With("addr", cfg.addr).
			Errorf("unexpected status code %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return oops.Code("STATUS_FAILED").With("addr", cfg.addr).Wrap(err)
	}

	cmd.Printf("keycroft at %s: %s\n", cfg.addr, body.Status)
	return nil
}
