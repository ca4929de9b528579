package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/BuzzLyutic/taskflow-api/internal/repo"
	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

// UserService registers and loads users. Duplicate emails surface as repo.ErrorConflict.
type UserService struct {
	repo     repo.UserRepository
	validate *validator.Validate
	now      func() time.Time
	cost     int
}

func NewUserService(repo repo.UserRepository) *UserService {
	return &UserService{
		repo:     repo,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		cost:     bcrypt.DefaultCost,
	}
}

func (s *UserService) Register(ctx context.Context, in model.RegisterUserInput) (model.User, error) {
	now := s.now()
	u := model.User{
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	msgs, err := collect(s.validate, u, nil)
	if err != nil {
		return model.User{}, err
	}
	if msgs, err = collect(s.validate, in, msgs); err != nil {
		return model.User{}, err
	}
	if len(msgs) > 0 {
		return model.User{}, newValidationError(msgs...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return model.User{}, err
	}
	u.PasswordHash = string(hash)

	return s.repo.Create(ctx, u)
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.repo.Get(ctx, id)
}

