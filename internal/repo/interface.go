package repo

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
	// ErrorVersionConflict means the task changed since it was read.
	ErrorVersionConflict = errors.New("version conflict")
)

// TaskRepository определяет интерфейс для работы с задачами.
// Every read and write is scoped by the owner id.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, ownerID, id string) (model.Task, error)
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error)
	// Update writes t over the stored task matching t.ID, t.UserID and t.Version
	// and bumps the version. A task that exists with another version yields ErrorVersionConflict.
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, ownerID, id string) (model.Task, error)
	GetStats(ctx context.Context, ownerID string) (model.TaskStats, error)
}

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
}
