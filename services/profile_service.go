package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
)

// InitialRating is the rating every new profile starts at.
const InitialRating = 1500

type ProfileService interface {
	Create(ctx context.Context, name string, provisionalMatches int) (*models.Profile, error)
	Get(ctx context.Context, id int) (*models.Profile, error)
}

type profileService struct {
	profileRepo repositories.ProfileRepository
}

func NewProfileService(profileRepo repositories.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) Create(ctx context.Context, name string, provisionalMatches int) (*models.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: profile name is required", ErrValidationFailed)
	}
	profile := &models.Profile{
		Name:               name,
		Rating:             InitialRating,
		ProvisionalMatches: provisionalMatches,
	}
	if err := s.profileRepo.Create(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) Get(ctx context.Context, id int) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile %d: %w", id, err)
	}
	return profile, nil
}
