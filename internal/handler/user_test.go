package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/internal/service"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in model.RegisterUserInput) (model.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func setupUserRouter(srv UserService) http.Handler {
	h := NewUserHandler(srv, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/api/users", h.Routes)
	return r
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("created without password hash", func(t *testing.T) {
		in := model.RegisterUserInput{Email: "ada@example.com", Password: "secret1", Name: "Ada"}
		srv := new(MockUserService)
		srv.On("Register", mock.Anything, in).Return(model.User{
			ID: "u1", Email: "ada@example.com", Name: "Ada", PasswordHash: "$2a$hash",
		}, nil)

		w, env := doRequest(t, setupUserRouter(srv), http.MethodPost, "/api/users",
			`{"email":"ada@example.com","password":"secret1","name":"Ada"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "User registered successfully", env.Message)
		assert.Equal(t, "/api/users/u1", w.Header().Get("Location"))
		assert.NotContains(t, string(env.Data), "hash")
		assert.NotContains(t, string(env.Data), "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		srv := new(MockUserService)
		srv.On("Register", mock.Anything, mock.Anything).Return(model.User{}, repo.ErrorConflict)

		w, env := doRequest(t, setupUserRouter(srv), http.MethodPost, "/api/users",
			`{"email":"ada@example.com","password":"secret1","name":"Ada"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Duplicate field value", env.Message)
	})

	t.Run("validation", func(t *testing.T) {
		srv := new(MockUserService)
		srv.On("Register", mock.Anything, mock.Anything).Return(model.User{},
			&service.ValidationError{Messages: []string{"Please provide a valid email"}})

		w, env := doRequest(t, setupUserRouter(srv), http.MethodPost, "/api/users",
			`{"email":"nope","password":"secret1","name":"Ada"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please provide a valid email", env.Message)
	})
}

func TestUserHandler_Get(t *testing.T) {
	srv := new(MockUserService)
	srv.On("Get", mock.Anything, "u1").Return(model.User{ID: "u1", Name: "Ada"}, nil)
	srv.On("Get", mock.Anything, "nobody").Return(model.User{}, repo.ErrorNotFound)
	router := setupUserRouter(srv)

	w, env := doRequest(t, router, http.MethodGet, "/api/users/u1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var u model.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Ada", u.Name)

	w, env = doRequest(t, router, http.MethodGet, "/api/users/nobody", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", env.Message)
}
