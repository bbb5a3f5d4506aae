// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keycroft/keycroft/internal/auth"
	"github.com/keycroft/keycroft/internal/logging"
	"github.com/keycroft/keycroft/internal/observability"
)

// stubAuthService lets each test script the service outcome directly.
type stubAuthService struct {
	registerFn       func(ctx context.Context, req auth.CreateUserRequest) (*auth.AuthResult, error)
	loginFn          func(ctx context.Context, req auth.LoginRequest) (*auth.AuthResult, error)
	changePasswordFn func(ctx context.Context, req auth.ChangePasswordRequest) error
}

func (s *stubAuthService) Register(ctx context.Context, req auth.CreateUserRequest) (*auth.AuthResult, error) {
	return s.registerFn(ctx, req)
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResult, error) {
	return s.loginFn(ctx, req)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) error {
	return s.changePasswordFn(ctx, req)
}

func newTestHandler(t *testing.T, svc AuthService) (*Handler, *observability.Metrics) {
	t.Helper()

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := logging.Setup("keycroft", "test", "json", io.Discard)

	h, err := NewHandler(svc, logger, metrics)
	require.NoError(t, err)
	return h, metrics
}

func doJSON(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleResult() *auth.AuthResult {
	return &auth.AuthResult{
		Token: "header.payload.signature",
		User: &auth.User{
			ID:        uuid.New(),
			Username:  "validuser",
			Email:     "valid@example.com",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		},
	}
}

func TestHandleRegister_Success(t *testing.T) {
	want := sampleResult()
	h, metrics := newTestHandler(t, &stubAuthService{
		registerFn: func(_ context.Context, req auth.CreateUserRequest) (*auth.AuthResult, error) {
			assert.Equal(t, "validuser", req.Username)
			assert.Equal(t, "valid@example.com", req.Email)
			return want, nil
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/register",
		`{"username":"validuser","email":"valid@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got auth.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.User.Username, got.User.Username)
	assert.NotContains(t, rec.Body.String(), "password",
		"response must not carry any password material")

	counter := metrics.AuthRequestsTotal.WithLabelValues("register", outcomeOK)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestHandleRegister_ValidationFailure(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{
		registerFn: func(_ context.Context, _ auth.CreateUserRequest) (*auth.AuthResult, error) {
			return nil, auth.FieldErrors{
				"username": auth.ReasonInvalidLength,
				"email":    auth.ReasonInvalidEmail,
			}
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/register",
		`{"username":"us","email":"testemail.com","password":"secret1"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "error validating fields", body.Message)
	require.NotNil(t, body.Error)
	assert.Equal(t, map[string]string{
		"username": "invalid length",
		"email":    "invalid email",
	}, body.Error.Fields)
}

func TestHandleRegister_AlreadyRegistered(t *testing.T) {
	h, metrics := newTestHandler(t, &stubAuthService{
		registerFn: func(_ context.Context, _ auth.CreateUserRequest) (*auth.AuthResult, error) {
			return nil, auth.ErrAlreadyRegistered
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/register",
		`{"username":"validuser","email":"valid@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "user already registered", body.Message)
	assert.Nil(t, body.Error)

	counter := metrics.AuthRequestsTotal.WithLabelValues("register", outcomeConflict)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestHandleRegister_InternalError(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{
		registerFn: func(_ context.Context, _ auth.CreateUserRequest) (*auth.AuthResult, error) {
			return nil, errors.New("connection refused")
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/register",
		`{"username":"validuser","email":"valid@example.com","password":"secret1"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "internal server error", body.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused",
		"internal detail must not leak to the client")
}

func TestHandleRegister_MalformedBody(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{
		registerFn: func(_ context.Context, _ auth.CreateUserRequest) (*auth.AuthResult, error) {
			t.Fatal("service must not be called for a malformed body")
			return nil, nil
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/register", `{"username":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeError(t, rec).Message)
}

func TestHandleLogin_Success(t *testing.T) {
	want := sampleResult()
	h, _ := newTestHandler(t, &stubAuthService{
		loginFn: func(_ context.Context, req auth.LoginRequest) (*auth.AuthResult, error) {
			assert.Equal(t, "validuser", req.Username)
			return want, nil
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/login",
		`{"username":"validuser","password":"secret1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got auth.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want.Token, got.Token)
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	h, metrics := newTestHandler(t, &stubAuthService{
		loginFn: func(_ context.Context, _ auth.LoginRequest) (*auth.AuthResult, error) {
			return nil, auth.ErrBadCredentials
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/login",
		`{"username":"validuser","password":"wrongpass"}`)

	require.Equal(t, http.StatusNotAcceptable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "bad credentials", body.Message)
	assert.Nil(t, body.Error)

	counter := metrics.AuthRequestsTotal.WithLabelValues("login", outcomeBadCredentials)
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestHandleLogin_UnknownUserLooksLikeBadCredentials(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{
		loginFn: func(_ context.Context, _ auth.LoginRequest) (*auth.AuthResult, error) {
			return nil, auth.ErrNotFound
		},
	})

	rec := doJSON(t, h, http.MethodPost, "/api/users/login",
		`{"username":"nosuchuser","password":"secret1"}`)

	require.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Equal(t, "bad credentials", decodeError(t, rec).Message)
}

func TestHandleChangePassword(t *testing.T) {
	called := false
	h, _ := newTestHandler(t, &stubAuthService{
		changePasswordFn: func(_ context.Context, req auth.ChangePasswordRequest) error {
			called = true
			assert.Equal(t, "validuser", req.Username)
			assert.Equal(t, "newsecret", req.NewPassword)
			return nil
		},
	})

	rec := doJSON(t, h, http.MethodPut, "/api/users/password",
		`{"username":"validuser","oldPassword":"secret1","newPassword":"newsecret"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Contains(t, rec.Body.String(), "password updated")
}

func TestHandleChangePassword_BadOldPassword(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{
		changePasswordFn: func(_ context.Context, _ auth.ChangePasswordRequest) error {
			return auth.ErrBadCredentials
		},
	})

	rec := doJSON(t, h, http.MethodPut, "/api/users/password",
		`{"username":"validuser","oldPassword":"wrongpass","newPassword":"newsecret"}`)

	require.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Equal(t, "bad credentials", decodeError(t, rec).Message)
}

func TestHandleStatus(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{})

	rec := doJSON(t, h, http.MethodGet, "/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, &stubAuthService{})

	rec := doJSON(t, h, http.MethodGet, "/api/users/register", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := logging.Setup("keycroft", "test", "json", io.Discard)

	_, err := NewHandler(nil, logger, metrics)
	assert.Error(t, err)

	_, err = NewHandler(&stubAuthService{}, nil, metrics)
	assert.Error(t, err)

	_, err = NewHandler(&stubAuthService{}, logger, nil)
	assert.Error(t, err)
}
