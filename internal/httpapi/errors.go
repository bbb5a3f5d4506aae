// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/keycroft/keycroft/internal/auth"
	"github.com/keycroft/keycroft/pkg/errutil"
)

// errorBody is the error response shape: {message, error?:{fields?}}.
type errorBody struct {
	Message string       `json:"message"`
	Error   *errorObject `json:"error,omitempty"`
}

type errorObject struct {
	Fields map[string]string `json:"fields,omitempty"`
}

// Outcome labels recorded per auth operation.
const (
	outcomeOK             = "ok"
	outcomeBadInput       = "bad_input"
	outcomeConflict       = "conflict"
	outcomeBadCredentials = "bad_credentials"
	outcomeError          = "error"
)

// mapError translates a service error into its externally observable status,
// body, and metric outcome. The mapping is total over the closed error set;
// anything unrecognized is an internal failure and leaks no detail.
func mapError(err error) (int, errorBody, string) {
	var fields auth.FieldErrors
	switch {
	case errors.As(err, &fields):
		return http.StatusBadRequest, errorBody{
			Message: "error validating fields",
			Error:   &errorObject{Fields: fields},
		}, outcomeBadInput
	case errors.Is(err, auth.ErrAlreadyRegistered):
		return http.StatusConflict, errorBody{Message: "user already registered"}, outcomeConflict
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrNotFound):
		// Uniform response: must not reveal whether the username exists.
		return http.StatusNotAcceptable, errorBody{Message: "bad credentials"}, outcomeBadCredentials
	default:
		return http.StatusInternalServerError, errorBody{Message: "internal server error"}, outcomeError
	}
}

// writeError maps err and writes the JSON error body. Internal failures are
// logged for operators; user errors are not.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, body, outcome := mapError(err)
	if status == http.StatusInternalServerError {
		errutil.LogError(h.logger.With(
			slog.String("operation", operation),
			slog.String("request_id", r.Header.Get(requestIDHeader)),
		), "request failed", err)
	}
	h.metrics.AuthRequestsTotal.WithLabelValues(operation, outcome).Inc()
	writeJSON(w, status, body)
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", slog.Any("error", err))
	}
}
