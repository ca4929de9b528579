package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

const taskColumns = `id, title, description, status, priority, due_date, category, user_id, created_at, updated_at, version`

type PGTaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewPGTaskRepo(pool *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{
		pool: pool,
	}
}

func (r *PGTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, due_date, category, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+taskColumns,
		uuid.NewString(), t.Title, t.Description, string(t.Status), string(t.Priority),
		t.DueDate, t.Category, t.UserID, t.CreatedAt, t.UpdatedAt,
	)
	out, err := scanTask(row)
	return out, r.mapError(err)
}

func (r *PGTaskRepo) Get(ctx context.Context, ownerID, id string) (model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Task{}, ErrorNotFound
	}

	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	out, err := scanTask(row)
	return out, r.mapError(err)
}

func (r *PGTaskRepo) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::text IS NULL OR priority = $3)
		  AND ($4::text IS NULL OR category = $4)
		ORDER BY created_at DESC, id DESC
	`

	var status, priority *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	if filter.Priority != nil {
		p := string(*filter.Priority)
		priority = &p
	}

	rows, err := r.pool.Query(ctx, query, ownerID, status, priority, filter.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *PGTaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	if _, err := uuid.Parse(t.ID); err != nil {
		return model.Task{}, ErrorNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6,
		    due_date = $7, category = $8, updated_at = $9, version = version + 1
		WHERE id = $1 AND user_id = $2 AND version = $10
		RETURNING `+taskColumns,
		t.ID, t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.DueDate, t.Category, t.UpdatedAt, t.Version,
	)
	out, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`, t.ID, t.UserID,
		).Scan(&exists); err != nil {
			return model.Task{}, err
		}
		if exists {
			return model.Task{}, ErrorVersionConflict
		}
		return model.Task{}, ErrorNotFound
	}
	return out, r.mapError(err)
}

func (r *PGTaskRepo) Delete(ctx context.Context, ownerID, id string) (model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Task{}, ErrorNotFound
	}

	row := r.pool.QueryRow(ctx, `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns, id, ownerID)
	out, err := scanTask(row)
	return out, r.mapError(err)
}

func (r *PGTaskRepo) GetStats(ctx context.Context, ownerID string) (model.TaskStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT 'status' AS kind, status AS value, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status
		UNION ALL
		SELECT 'priority', priority, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY priority
	`, ownerID)
	if err != nil {
		return model.TaskStats{}, err
	}
	defer rows.Close()

	byStatus := map[string]int{}
	byPriority := map[string]int{}
	total := 0
	for rows.Next() {
		var kind, value string
		var count int
		if err := rows.Scan(&kind, &value, &count); err != nil {
			return model.TaskStats{}, err
		}
		if kind == "status" {
			byStatus[value] = count
			total += count
		} else {
			byPriority[value] = count
		}
	}
	if err := rows.Err(); err != nil {
		return model.TaskStats{}, err
	}
	return model.NewTaskStats(total, byStatus, byPriority), nil
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var status, priority string
	var due *time.Time
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority, &due, &t.Category, &t.UserID, &t.CreatedAt, &t.UpdatedAt, &t.Version,
	)
	if err != nil {
		return model.Task{}, err
	}
	t.Status = model.Status(status)
	t.Priority = model.Priority(priority)
	if due != nil {
		d := due.UTC()
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func (r *PGTaskRepo) mapError(err error) error {
	return mapPGError(err)
}

func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
