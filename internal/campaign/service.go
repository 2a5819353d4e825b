package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/organizer"
)

// Service exposes campaign operations. Creating a campaign lazily
// materializes an organizer profile for the acting account.
type Service struct {
	repo       Repository
	organizers organizer.Repository
	cache      *ListCache
}

// NewService builds a campaign service instance.
func NewService(repo Repository, organizers organizer.Repository, cache *ListCache) *Service {
	return &Service{repo: repo, organizers: organizers, cache: cache}
}

// CreateInput captures data required to create a campaign.
type CreateInput struct {
	AccountID   string
	Title       string
	Description string
	GoalCents   int64
}

// Create provisions a campaign under the acting account's organizer
// profile, creating the profile on first use.
func (s *Service) Create(ctx context.Context, input CreateInput) (Campaign, error) {
	if input.Title == "" {
		return Campaign{}, fmt.Errorf("%w: title is required", account.ErrValidation)
	}
	if input.GoalCents <= 0 {
		return Campaign{}, fmt.Errorf("%w: goal must be positive", account.ErrValidation)
	}

	profile, _, err := s.organizers.Ensure(ctx, input.AccountID)
	if err != nil {
		return Campaign{}, err
	}

	c := Campaign{
		ID:          uuid.NewString(),
		OrganizerID: profile.ID,
		Title:       input.Title,
		Description: input.Description,
		GoalCents:   input.GoalCents,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return Campaign{}, err
	}

	s.cache.Invalidate(ctx)
	return c, nil
}

// Get fetches one campaign.
func (s *Service) Get(ctx context.Context, id string) (Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns all campaigns, served from the cache when warm.
func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	if campaigns, ok := s.cache.Get(ctx); ok {
		return campaigns, nil
	}
	campaigns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, campaigns)
	return campaigns, nil
}
