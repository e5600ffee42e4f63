package profile

import (
	"context"
	"errors"

	"github.com/poibms/next-meal/internal/models"
)

var ErrMissingUserID = errors.New("user id is required")

type Service interface {
	GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error)
}

type ProfileService struct {
	repo Repository
}

func NewProfileService(repo Repository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetOrCreate provisions an unsubscribed profile the first time a user is seen.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID, email string) (*models.Profile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	return s.repo.GetOrCreate(ctx, userID, email)
}
