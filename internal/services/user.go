package services

import (
	"context"

	"github.com/contactbox/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateRefreshToken(ctx context.Context, email string, token *string) error
	ConfirmEmail(ctx context.Context, email string) error
	UpdateAvatar(ctx context.Context, email, url string) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *UserService) UpdateRefreshToken(ctx context.Context, email string, token *string) error {
	return s.repo.UpdateRefreshToken(ctx, email, token)
}

func (s *UserService) ConfirmEmail(ctx context.Context, email string) error {
	return s.repo.ConfirmEmail(ctx, email)
}

func (s *UserService) UpdateAvatar(ctx context.Context, email, url string) (types.User, error) {
	return s.repo.UpdateAvatar(ctx, email, url)
}
