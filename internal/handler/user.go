package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
	"github.com/BuzzLyutic/taskflow-api/pkg/respond"
)

type UserService interface {
	Register(ctx context.Context, in model.RegisterUserInput) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
}

type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

func NewUserHandler(srv UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: srv, logger: logger}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Post("/", h.Register)
	r.Get("/{id}", h.Get)
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterUserInput
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err, "User not found")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%s", user.ID))
	respond.Data(w, r, http.StatusCreated, user, "User registered successfully")
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err, "User not found")
		return
	}
	respond.Data(w, r, http.StatusOK, user, "")
}
