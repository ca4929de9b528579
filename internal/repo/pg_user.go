package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

type PGUserRepo struct {
	pool *pgxpool.Pool
}

func NewPGUserRepo(pool *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{pool: pool}
}

func (r *PGUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	var out model.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, name, password_hash, created_at, updated_at
	`, uuid.NewString(), u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt).Scan(
		&out.ID, &out.Email, &out.Name, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return model.User{}, mapPGError(err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return out, nil
}

func (r *PGUserRepo) Get(ctx context.Context, id string) (model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.User{}, ErrorNotFound
	}

	var out model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&out.ID, &out.Email, &out.Name, &out.PasswordHash, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return model.User{}, mapPGError(err)
	}
	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()
	return out, nil
}
