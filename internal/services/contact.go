package services

import (
	"context"

	"github.com/contactbox/apiserver/types"
)

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	List(ctx context.Context, limit, offset int) ([]types.Contact, error)
	Get(ctx context.Context, id int) (types.Contact, error)
	Create(ctx context.Context, contact types.Contact) (types.Contact, error)
	Update(ctx context.Context, id int, patch types.ContactPatch) (types.Contact, error)
	Delete(ctx context.Context, id int) (types.Contact, error)
	Search(ctx context.Context, text string, limit, offset int) ([]types.Contact, error)
	Birthdays(ctx context.Context, days, limit, offset int) ([]types.Contact, error)
}

// ContactService encapsulates contact use-cases.
type ContactService struct {
	repo ContactRepository
}

func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) List(ctx context.Context, limit, offset int) ([]types.Contact, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *ContactService) Get(ctx context.Context, id int) (types.Contact, error) {
	return s.repo.Get(ctx, id)
}

func (s *ContactService) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	return s.repo.Create(ctx, contact)
}

func (s *ContactService) Update(ctx context.Context, id int, patch types.ContactPatch) (types.Contact, error) {
	return s.repo.Update(ctx, id, patch)
}

func (s *ContactService) Delete(ctx context.Context, id int) (types.Contact, error) {
	return s.repo.Delete(ctx, id)
}

func (s *ContactService) Search(ctx context.Context, text string, limit, offset int) ([]types.Contact, error) {
	return s.repo.Search(ctx, text, limit, offset)
}

func (s *ContactService) Birthdays(ctx context.Context, days, limit, offset int) ([]types.Contact, error) {
	return s.repo.Birthdays(ctx, days, limit, offset)
}
