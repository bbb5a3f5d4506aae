// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestServer_Metrics(t *testing.T) {
	server := NewServer("127.0.0.1:0", func() bool { return true })

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	addr := server.Addr()
	if addr == "" {
		t.Fatal("server address is empty")
	}

	// Increment custom metrics so they appear in output
	metrics := server.Metrics()
	metrics.AuthRequestsTotal.WithLabelValues("register", "ok").Inc()
	metrics.HTTPRequestsTotal.WithLabelValues("/status", "200").Inc()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("failed to GET /metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	bodyStr := string(body)
	for _, want := range []string{"# HELP", "# TYPE", "go_", "process_", "keycroft_auth_requests_total", "keycroft_http_requests_total"} {
		if !strings.Contains(bodyStr, want) {
			t.Errorf("expected metrics output to contain %q", want)
		}
	}
}

func TestServer_HealthProbes(t *testing.T) {
	var ready atomic.Bool
	server := NewServer("127.0.0.1:0", ready.Load)

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	addr := server.Addr()

	resp, err := http.Get("http://" + addr + "/healthz/liveness")
	if err != nil {
		t.Fatalf("failed to GET liveness: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get("http://" + addr + "/healthz/readiness")
	if err != nil {
		t.Fatalf("failed to GET readiness: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readiness (not ready): expected 503, got %d", resp.StatusCode)
	}

	ready.Store(true)
	resp, err = http.Get("http://" + addr + "/healthz/readiness")
	if err != nil {
		t.Fatalf("failed to GET readiness: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("readiness (ready): expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_DoubleStart(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)

	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	}()

	if _, err := server.Start(); err == nil {
		t.Error("expected second Start to fail")
	}
}
