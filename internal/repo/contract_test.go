package repo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

// taskRepoSuite holds what differs between store implementations.
type taskRepoSuite struct {
	repo repo.TaskRepository
	// well-formed id that matches nothing
	missingID string
	// id the store cannot parse
	malformedID string
}

var base = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func newTask(owner, title string, status model.Status, priority model.Priority, category string, created time.Time) model.Task {
	return model.Task{
		Title:       title,
		Description: "Description for " + title,
		Status:      status,
		Priority:    priority,
		Category:    category,
		UserID:      owner,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func runTaskRepoContract(t *testing.T, s taskRepoSuite) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		owner := uuid.NewString()
		due := base.Add(72 * time.Hour)
		in := newTask(owner, "Create me", model.StatusPending, model.PriorityHigh, "work", base)
		in.DueDate = &due

		created, err := s.repo.Create(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "Create me", created.Title)
		assert.Equal(t, owner, created.UserID)
		require.NotNil(t, created.DueDate)
		assert.True(t, created.DueDate.Equal(due))

		got, err := s.repo.Get(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, model.PriorityHigh, got.Priority)
		assert.Equal(t, "work", got.Category)
		assert.True(t, got.CreatedAt.Equal(base))

		_, err = s.repo.Get(ctx, "someone-else", created.ID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
		_, err = s.repo.Get(ctx, owner, s.missingID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
		_, err = s.repo.Get(ctx, owner, s.malformedID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("list filters and ordering", func(t *testing.T) {
		owner := uuid.NewString()
		seed := []model.Task{
			newTask(owner, "Oldest", model.StatusPending, model.PriorityLow, "home", base),
			newTask(owner, "Middle", model.StatusCompleted, model.PriorityHigh, "work", base.Add(time.Minute)),
			newTask(owner, "Newest", model.StatusPending, model.PriorityHigh, "work", base.Add(2*time.Minute)),
			newTask(uuid.NewString(), "Foreign", model.StatusPending, model.PriorityHigh, "work", base.Add(3*time.Minute)),
		}
		for _, task := range seed {
			_, err := s.repo.Create(ctx, task)
			require.NoError(t, err)
		}

		pending := model.StatusPending
		high := model.PriorityHigh
		work := "work"
		nothing := "nothing"

		tests := []struct {
			name   string
			filter model.TaskFilter
			want   []string
		}{
			{"no filter newest first", model.TaskFilter{}, []string{"Newest", "Middle", "Oldest"}},
			{"status", model.TaskFilter{Status: &pending}, []string{"Newest", "Oldest"}},
			{"priority and category", model.TaskFilter{Priority: &high, Category: &work}, []string{"Newest", "Middle"}},
			{"all three", model.TaskFilter{Status: &pending, Priority: &high, Category: &work}, []string{"Newest"}},
			{"no match", model.TaskFilter{Category: &nothing}, []string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tasks, err := s.repo.List(ctx, owner, tt.filter)
				require.NoError(t, err)
				titles := make([]string, 0, len(tasks))
				for _, task := range tasks {
					titles = append(titles, task.Title)
				}
				assert.Equal(t, tt.want, titles)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		owner := uuid.NewString()
		due := base.Add(time.Hour)
		in := newTask(owner, "Before", model.StatusPending, model.PriorityLow, "home", base)
		in.DueDate = &due
		created, err := s.repo.Create(ctx, in)
		require.NoError(t, err)

		changed := created
		changed.Title = "After"
		changed.Status = model.StatusCompleted
		changed.DueDate = nil
		changed.Category = ""
		changed.UpdatedAt = base.Add(time.Hour)

		updated, err := s.repo.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, "After", updated.Title)
		assert.Equal(t, model.StatusCompleted, updated.Status)
		assert.Nil(t, updated.DueDate)
		assert.Equal(t, "", updated.Category)
		assert.True(t, updated.CreatedAt.Equal(base))
		assert.True(t, updated.UpdatedAt.Equal(base.Add(time.Hour)))

		foreign := changed
		foreign.UserID = "someone-else"
		_, err = s.repo.Update(ctx, foreign)
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		assert.Equal(t, created.Version+1, updated.Version)
		stale := changed
		stale.Title = "Lost write"
		_, err = s.repo.Update(ctx, stale)
		assert.ErrorIs(t, err, repo.ErrorVersionConflict)

		missing := changed
		missing.ID = s.missingID
		_, err = s.repo.Update(ctx, missing)
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		got, err := s.repo.Get(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Title)
	})

	t.Run("delete twice", func(t *testing.T) {
		owner := uuid.NewString()
		created, err := s.repo.Create(ctx, newTask(owner, "Doomed", model.StatusPending, model.PriorityMedium, "", base))
		require.NoError(t, err)

		_, err = s.repo.Delete(ctx, "someone-else", created.ID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)

		deleted, err := s.repo.Delete(ctx, owner, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Doomed", deleted.Title)

		_, err = s.repo.Delete(ctx, owner, created.ID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
		_, err = s.repo.Get(ctx, owner, created.ID)
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("stats", func(t *testing.T) {
		owner := uuid.NewString()

		empty, err := s.repo.GetStats(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, model.NewTaskStats(0, nil, nil), empty)

		for i, st := range []model.Status{model.StatusPending, model.StatusPending, model.StatusCompleted} {
			_, err := s.repo.Create(ctx, newTask(owner, fmt.Sprintf("Stat %d", i), st, model.PriorityHigh, "", base))
			require.NoError(t, err)
		}
		_, err = s.repo.Create(ctx, newTask(uuid.NewString(), "Foreign", model.StatusInProgress, model.PriorityLow, "", base))
		require.NoError(t, err)

		stats, err := s.repo.GetStats(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, model.NewTaskStats(3,
			map[string]int{"pending": 2, "completed": 1},
			map[string]int{"high": 3},
		), stats)
	})
}

func runUserRepoContract(t *testing.T, r repo.UserRepository, missingID, malformedID string) {
	ctx := context.Background()
	email := uuid.NewString() + "@example.com"

	created, err := r.Create(ctx, model.User{
		Email: email, Name: "Ada", PasswordHash: "$2a$10$hash", CreatedAt: base, UpdatedAt: base,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	_, err = r.Create(ctx, model.User{Email: email, Name: "Other", PasswordHash: "x", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, repo.ErrorConflict)

	_, err = r.Get(ctx, missingID)
	assert.ErrorIs(t, err, repo.ErrorNotFound)
	_, err = r.Get(ctx, malformedID)
	assert.ErrorIs(t, err, repo.ErrorNotFound)
}
