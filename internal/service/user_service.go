package service

import (
	"context"

	"opensails/internal/cache"
	"opensails/internal/model"
	"opensails/internal/repository"
)

// UserService exposes user lookups.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type userService struct {
	repo    repository.UserRepository
	caching Caching
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, caching Caching) UserService {
	return &userService{repo: repo, caching: caching}
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return readThrough(ctx, s.caching, cache.UserKey(id), func() (*model.User, error) {
		return s.repo.FindByID(ctx, id)
	})
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}
