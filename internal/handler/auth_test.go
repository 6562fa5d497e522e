package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leaseiq/leaseiq/internal/auth"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/store"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

type fakeUsers struct {
	CreateUserFunc  func(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	UserByEmailFunc func(ctx context.Context, email string) (*model.User, string, error)
}

func (f *fakeUsers) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	return f.CreateUserFunc(ctx, name, email, passwordHash)
}

func (f *fakeUsers) UserByEmail(ctx context.Context, email string) (*model.User, string, error) {
	return f.UserByEmailFunc(ctx, email)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestSignupSuccess(t *testing.T) {
	users := &fakeUsers{
		CreateUserFunc: func(ctx context.Context, name, email, hash string) (*model.User, error) {
			require.Equal(t, "Dana", name)
			require.True(t, auth.CheckPassword(hash, "hunter22"), "password stored hashed")
			return &model.User{ID: 1, Name: name, Email: email}, nil
		},
	}
	h := NewAuthHandler(users, "secret", 24*time.Hour, logger.Nop())

	rec := postJSON(t, h.Signup, "/api/auth/signup", model.SignupRequest{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "hunter22",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, 1, resp.User.ID)

	claims, err := auth.ParseToken("secret", resp.Token)
	require.NoError(t, err)
	require.Equal(t, 1, claims.UserID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := &fakeUsers{
		CreateUserFunc: func(ctx context.Context, name, email, hash string) (*model.User, error) {
			return nil, store.ErrDuplicateEmail
		},
	}
	h := NewAuthHandler(users, "secret", 24*time.Hour, logger.Nop())

	rec := postJSON(t, h.Signup, "/api/auth/signup", model.SignupRequest{
		Name: "Dana", Email: "dana@example.com", Password: "x",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "User already exists.", messageOf(t, rec))
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)

	users := &fakeUsers{
		UserByEmailFunc: func(ctx context.Context, email string) (*model.User, string, error) {
			return &model.User{ID: 9, Name: "Dana", Email: email}, hash, nil
		},
	}
	h := NewAuthHandler(users, "secret", 24*time.Hour, logger.Nop())

	rec := postJSON(t, h.Login, "/api/auth/login", model.LoginRequest{
		Email: "dana@example.com", Password: "hunter22",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 9, resp.User.ID)
	require.NotEmpty(t, resp.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct")
	require.NoError(t, err)

	users := &fakeUsers{
		UserByEmailFunc: func(ctx context.Context, email string) (*model.User, string, error) {
			return &model.User{ID: 9}, hash, nil
		},
	}
	h := NewAuthHandler(users, "secret", 24*time.Hour, logger.Nop())

	rec := postJSON(t, h.Login, "/api/auth/login", model.LoginRequest{
		Email: "dana@example.com", Password: "wrong",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid credentials.", messageOf(t, rec))
}

func TestLoginUnknownEmail(t *testing.T) {
	users := &fakeUsers{
		UserByEmailFunc: func(ctx context.Context, email string) (*model.User, string, error) {
			return nil, "", store.ErrNotFound
		},
	}
	h := NewAuthHandler(users, "secret", 24*time.Hour, logger.Nop())

	rec := postJSON(t, h.Login, "/api/auth/login", model.LoginRequest{
		Email: "nobody@example.com", Password: "x",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid credentials.", messageOf(t, rec))
}
