package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

// TaskCache is a read-through cache for owner-scoped list and stats results.
// Entries are stored under the owner's current generation; Invalidate bumps it,
// so results computed before a write can never be served after it.
// Get methods return nil on a miss.
type TaskCache interface {
	Generation(ctx context.Context, ownerID string) (int64, error)
	GetList(ctx context.Context, ownerID string, gen int64, filter model.TaskFilter) ([]model.Task, error)
	SetList(ctx context.Context, ownerID string, gen int64, filter model.TaskFilter, tasks []model.Task) error
	GetStats(ctx context.Context, ownerID string, gen int64) (*model.TaskStats, error)
	SetStats(ctx context.Context, ownerID string, gen int64, stats model.TaskStats) error
	Invalidate(ctx context.Context, ownerID string) error
}

// maxUpdateAttempts bounds the re-read and merge loop when concurrent writers race on one task.
const maxUpdateAttempts = 5

type TaskService struct {
	repo     repo.TaskRepository
	cache    TaskCache
	sf       singleflight.Group
	validate *validator.Validate
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*TaskService)

// WithCache enables the read cache. A nil cache keeps caching disabled.
func WithCache(c TaskCache) Option {
	return func(s *TaskService) {
		s.cache = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *TaskService) {
		s.logger = logger
	}
}

func NewTaskService(repo repo.TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo:     repo,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in model.CreateTaskInput) (model.Task, error) {
	now := s.now()
	t := model.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      model.StatusPending,
		Priority:    model.PriorityMedium,
		DueDate:     in.DueDate.Ptr(),
		Category:    strings.TrimSpace(in.Category),
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}

	if err := s.validateTask(t, t.DueDate != nil, now); err != nil { // Валидация модели на корректность введенных данных
		return model.Task{}, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx, ownerID)
	return s.decorate(created), nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (model.Task, error) {
	t, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return model.Task{}, err
	}
	return s.decorate(t), nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	gen, ok := s.generation(ctx, ownerID)
	if !ok {
		tasks, err := s.repo.List(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		return s.decorateAll(tasks), nil
	}

	key := fmt.Sprintf("list:%s:%d:%s", ownerID, gen, filter.Key())
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// shared by every caller that joins the flight
		ctx := context.WithoutCancel(ctx)
		if tasks, err := s.cache.GetList(ctx, ownerID, gen, filter); err == nil && tasks != nil {
			return tasks, nil
		}
		tasks, err := s.repo.List(ctx, ownerID, filter)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, ownerID, gen, filter, tasks); err != nil {
			s.logger.Warn("failed to cache task list", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return s.decorateAll(v.([]model.Task)), nil
}

// Update merges the supplied fields into the stored task and re-validates the result.
// The future-due-date rule only applies when the patch sets a due date.
// The write is conditional on the version that was read; on a concurrent change
// the task is re-read and the patch merged again, so no writer's fields are lost.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (model.Task, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		existing, err := s.repo.Get(ctx, ownerID, id)
		if err != nil {
			return model.Task{}, err
		}

		merged, err := s.merge(existing, patch)
		if err != nil {
			return model.Task{}, err
		}

		updated, err := s.repo.Update(ctx, merged)
		if errors.Is(err, repo.ErrorVersionConflict) {
			s.logger.Debug("task changed concurrently, retrying update",
				zap.String("task_id", id), zap.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return model.Task{}, err
		}
		s.invalidate(ctx, ownerID)
		return s.decorate(updated), nil
	}
	return model.Task{}, fmt.Errorf("update task %s: %w", id, repo.ErrorVersionConflict)
}

func (s *TaskService) merge(existing model.Task, patch model.TaskPatch) (model.Task, error) {
	merged := existing
	if patch.Title != nil {
		merged.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		merged.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Priority != nil {
		merged.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		merged.DueDate = patch.DueDate.Ptr()
	}
	if patch.Category != nil {
		merged.Category = strings.TrimSpace(*patch.Category)
	}

	now := s.now()
	if err := s.validateTask(merged, patch.DueDate.Ptr() != nil, now); err != nil {
		return model.Task{}, err
	}

	merged.UpdatedAt = now
	if merged.UpdatedAt.Before(existing.UpdatedAt) {
		merged.UpdatedAt = existing.UpdatedAt
	}
	return merged, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (model.Task, error) {
	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx, ownerID)
	return s.decorate(deleted), nil
}

func (s *TaskService) GetStats(ctx context.Context, ownerID string) (model.TaskStats, error) {
	gen, ok := s.generation(ctx, ownerID)
	if !ok {
		return s.repo.GetStats(ctx, ownerID)
	}

	v, err, _ := s.sf.Do(fmt.Sprintf("stats:%s:%d", ownerID, gen), func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if stats, err := s.cache.GetStats(ctx, ownerID, gen); err == nil && stats != nil {
			return *stats, nil
		}
		stats, err := s.repo.GetStats(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetStats(ctx, ownerID, gen, stats); err != nil {
			s.logger.Warn("failed to cache task stats", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return stats, nil
	})
	if err != nil {
		return model.TaskStats{}, err
	}
	return v.(model.TaskStats), nil
}

func (s *TaskService) validateTask(t model.Task, checkDue bool, now time.Time) error {
	msgs, err := collect(s.validate, t, nil)
	if err != nil {
		return err
	}
	if checkDue && t.DueDate != nil && !t.DueDate.After(now) {
		msgs = append(msgs, "Due date must be in the future")
	}
	if len(msgs) > 0 {
		return newValidationError(msgs...)
	}
	return nil
}

func validateFilter(f model.TaskFilter) error {
	var msgs []string
	if f.Status != nil && !validStatus(*f.Status) {
		msgs = append(msgs, fmt.Sprintf("Invalid status filter: %q", *f.Status))
	}
	if f.Priority != nil && !validPriority(*f.Priority) {
		msgs = append(msgs, fmt.Sprintf("Invalid priority filter: %q", *f.Priority))
	}
	if len(msgs) > 0 {
		return newValidationError(msgs...)
	}
	return nil
}

func validStatus(st model.Status) bool {
	for _, v := range model.Statuses {
		if v == st {
			return true
		}
	}
	return false
}

func validPriority(p model.Priority) bool {
	for _, v := range model.Priorities {
		if v == p {
			return true
		}
	}
	return false
}

func (s *TaskService) decorate(t model.Task) model.Task {
	t.IsOverdue = t.Overdue(s.now())
	return t
}

// decorateAll copies the slice; cached and singleflight results are shared between callers.
func (s *TaskService) decorateAll(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	now := s.now()
	for i, t := range tasks {
		t.IsOverdue = t.Overdue(now)
		out[i] = t
	}
	return out
}

// generation returns the owner's cache generation, or false when the cache is
// disabled or unreachable and the store must be read directly.
func (s *TaskService) generation(ctx context.Context, ownerID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Generation(ctx, ownerID)
	if err != nil {
		s.logger.Warn("task cache unavailable, reading store", zap.String("owner_id", ownerID), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// invalidate is detached from ctx: the write has already committed.
func (s *TaskService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), ownerID); err != nil {
		s.logger.Error("failed to invalidate task cache", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
