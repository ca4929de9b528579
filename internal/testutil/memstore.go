package testutil

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

// MemTaskRepo is an in-memory repo.TaskRepository with the same owner scoping
// and ordering rules as the real stores.
type MemTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]model.Task
}

func NewMemTaskRepo() *MemTaskRepo {
	return &MemTaskRepo{tasks: make(map[string]model.Task)}
}

func (r *MemTaskRepo) Create(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = primitive.NewObjectID().Hex()
	t.Version = 1
	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemTaskRepo) Get(_ context.Context, ownerID, id string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return model.Task{}, repo.ErrorNotFound
	}
	return t, nil
}

func (r *MemTaskRepo) List(_ context.Context, ownerID string, f model.TaskFilter) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Task{}
	for _, t := range r.tasks {
		if t.UserID != ownerID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.Category != nil && t.Category != *f.Category {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemTaskRepo) Update(_ context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.tasks[t.ID]
	if !ok || old.UserID != t.UserID {
		return model.Task{}, repo.ErrorNotFound
	}
	if old.Version != t.Version {
		return model.Task{}, repo.ErrorVersionConflict
	}
	t.CreatedAt = old.CreatedAt
	t.Version++
	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemTaskRepo) Delete(_ context.Context, ownerID, id string) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != ownerID {
		return model.Task{}, repo.ErrorNotFound
	}
	delete(r.tasks, id)
	return t, nil
}

func (r *MemTaskRepo) GetStats(_ context.Context, ownerID string) (model.TaskStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	byStatus := map[string]int{}
	byPriority := map[string]int{}
	for _, t := range r.tasks {
		if t.UserID != ownerID {
			continue
		}
		total++
		byStatus[string(t.Status)]++
		byPriority[string(t.Priority)]++
	}
	return model.NewTaskStats(total, byStatus, byPriority), nil
}

// MemUserRepo is an in-memory repo.UserRepository enforcing unique emails.
type MemUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[string]model.User)}
}

func (r *MemUserRepo) Create(_ context.Context, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.User{}, repo.ErrorConflict
		}
	}
	u.ID = primitive.NewObjectID().Hex()
	r.users[u.ID] = u
	return u, nil
}

func (r *MemUserRepo) Get(_ context.Context, id string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repo.ErrorNotFound
	}
	return u, nil
}
