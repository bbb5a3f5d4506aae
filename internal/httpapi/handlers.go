// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/keycroft/keycroft/internal/auth"
	"github.com/keycroft/keycroft/internal/observability"
)

// AuthService is the subset of the auth service the API layer depends on.
type AuthService interface {
	Register(ctx context.Context, req auth.CreateUserRequest) (*auth.AuthResult, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResult, error)
	ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) error
}

// Handler serves the user API endpoints.
type Handler struct {
	svc     AuthService
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates the API handler. All dependencies are required.
func NewHandler(svc AuthService, logger *slog.Logger, metrics *observability.Metrics) (*Handler, error) {
	errb := oops.Code("API_INVALID_DEPS")
	if svc == nil {
		return nil, errb.Errorf("auth service is required")
	}
	if logger == nil {
		return nil, errb.Errorf("logger is required")
	}
	if metrics == nil {
		return nil, errb.Errorf("metrics are required")
	}
	return &Handler{svc: svc, logger: logger, metrics: metrics}, nil
}

// Routes builds the route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", h.handleRegister)
	mux.HandleFunc("POST /api/users/login", h.handleLogin)
	mux.HandleFunc("PUT /api/users/password", h.handleChangePassword)
	mux.HandleFunc("GET /status", h.handleStatus)
	return mux
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.CreateUserRequest
	if !h.decode(w, r, "register", &req) {
		return
	}

	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}

	h.metrics.AuthRequestsTotal.WithLabelValues("register", outcomeOK).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !h.decode(w, r, "login", &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "login", err)
		return
	}

	h.metrics.AuthRequestsTotal.WithLabelValues("login", outcomeOK).Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.ChangePasswordRequest
	if !h.decode(w, r, "change_password", &req) {
		return
	}

	if err := h.svc.ChangePassword(r.Context(), req); err != nil {
		h.writeError(w, r, "change_password", err)
		return
	}

	h.metrics.AuthRequestsTotal.WithLabelValues("change_password", outcomeOK).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// handleStatus reports liveness of the API listener itself.
func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// decode parses the JSON request body into dst. On failure it writes a 400
// response and returns false; malformed bodies never reach the service.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, operation string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.metrics.AuthRequestsTotal.WithLabelValues(operation, outcomeBadInput).Inc()
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid request body"})
		return false
	}
	return true
}
