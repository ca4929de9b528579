package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow-api/internal/auth"
	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/internal/service"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
	"github.com/BuzzLyutic/taskflow-api/pkg/respond"
)

type TaskService interface {
	Create(ctx context.Context, ownerID string, in model.CreateTaskInput) (model.Task, error)
	Get(ctx context.Context, ownerID, id string) (model.Task, error)
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, ownerID, id string) (model.Task, error)
	GetStats(ctx context.Context, ownerID string) (model.TaskStats, error)
}

type TaskHandler struct {
	service TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

// Routes mounts the task endpoints. The stats route is registered ahead of /{id}.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/stats/overview", h.Stats)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskInput
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.Create(r.Context(), auth.OwnerID(r.Context()), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", task.ID))
	respond.Data(w, r, http.StatusCreated, task, "Task created successfully")
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Get(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, task, "")
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		s := model.Status(status)
		filter.Status = &s
	}
	if priority := q.Get("priority"); priority != "" {
		p := model.Priority(priority)
		filter.Priority = &p
	}
	if category := q.Get("category"); category != "" {
		filter.Category = &category
	}

	tasks, err := h.service.List(r.Context(), auth.OwnerID(r.Context()), filter)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.List(w, r, tasks)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.TaskPatch
	if !h.decode(w, r, &req) {
		return
	}

	task, err := h.service.Update(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Delete(r.Context(), auth.OwnerID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, task, "Task deleted successfully")
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), auth.OwnerID(r.Context()))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.Data(w, r, http.StatusOK, stats, "")
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return decodeJSON(w, r, h.logger, dst)
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	handleErrors(w, r, h.logger, err, "Task not found")
}

// maxBodyBytes caps JSON request bodies at 100kb.
const maxBodyBytes = 100 << 10

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			respond.Error(w, r, http.StatusBadRequest, "empty request body")
			return false
		case errors.As(err, &tooLarge):
			respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, notFound string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrValidation):
		respond.Error(w, r, http.StatusBadRequest, "Validation error")
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, notFound)
	case errors.Is(err, repo.ErrorVersionConflict):
		respond.Error(w, r, http.StatusConflict, "Task was modified concurrently, please retry")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "Duplicate field value")
	default:
		logger.Error("internal error",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		respond.Error(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
