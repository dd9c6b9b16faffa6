package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/metrics"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
)

// ProfileService serves public profiles and the follow graph between them.
type ProfileService interface {
	ListProfiles(ctx context.Context, viewerID uuid.UUID, page, limit int64) ([]models.ProfileView, error)
	GetProfile(ctx context.Context, viewerID, profileID uuid.UUID) (*models.ProfileView, error)
	GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.ProfileView, error)
	// Follow makes userID a follower of the profile's owner. Following
	// again is a no-op.
	Follow(ctx context.Context, userID, profileID uuid.UUID) error
	Unfollow(ctx context.Context, userID, profileID uuid.UUID) error
}

type profileService struct {
	db      dbx.DBTX
	repos   repositories.Manager
	follows repositories.FollowRepository
}

func NewProfileService(db dbx.DBTX, repos repositories.Manager, follows repositories.FollowRepository) ProfileService {
	return &profileService{db: db, repos: repos, follows: follows}
}

func (s *profileService) ListProfiles(ctx context.Context, viewerID uuid.UUID, page, limit int64) ([]models.ProfileView, error) {
	page, limit = normalizePage(page, limit)
	profiles, err := s.repos.Profiles(s.db).List(ctx, limit, page)
	if err != nil {
		return nil, err
	}

	views := make([]models.ProfileView, 0, len(profiles))
	for i := range profiles {
		v, err := s.view(ctx, viewerID, &profiles[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func (s *profileService) GetProfile(ctx context.Context, viewerID, profileID uuid.UUID) (*models.ProfileView, error) {
	profile, err := s.repos.Profiles(s.db).FindByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewerID, profile)
}

func (s *profileService) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.ProfileView, error) {
	profile, err := ensureProfile(ctx, s.repos.Profiles(s.db), userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, profile)
}

func (s *profileService) Follow(ctx context.Context, userID, profileID uuid.UUID) error {
	profile, err := s.repos.Profiles(s.db).FindByID(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.UserID == userID {
		return common.NewValidationError("profile", "You cannot follow yourself")
	}

	created, err := s.follows.Add(ctx, userID.String(), profile.UserID.String())
	if err != nil {
		return err
	}
	if created {
		metrics.FollowChangesTotal.WithLabelValues("added").Inc()
		log.Info().Str("follower_id", userID.String()).Str("followee_id", profile.UserID.String()).Msg("User followed")
	}
	return nil
}

func (s *profileService) Unfollow(ctx context.Context, userID, profileID uuid.UUID) error {
	profile, err := s.repos.Profiles(s.db).FindByID(ctx, profileID)
	if err != nil {
		return err
	}

	removed, err := s.follows.Remove(ctx, userID.String(), profile.UserID.String())
	if err != nil {
		return err
	}
	if removed {
		metrics.FollowChangesTotal.WithLabelValues("removed").Inc()
	}
	return nil
}

func (s *profileService) view(ctx context.Context, viewerID uuid.UUID, p *models.UserProfile) (*models.ProfileView, error) {
	user, err := s.repos.Users(s.db).FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	ownerID := p.UserID.String()
	v := &models.ProfileView{
		ID:             p.ID,
		User:           user.Summary(),
		Username:       user.Username,
		Email:          user.Email,
		Bio:            p.Bio,
		ProfilePicture: p.ProfilePicture,
		Location:       p.Location,
		Website:        p.Website,
	}
	if v.FollowersCount, err = s.follows.CountFollowers(ctx, ownerID); err != nil {
		return nil, err
	}
	if v.FollowingCount, err = s.follows.CountFollowing(ctx, ownerID); err != nil {
		return nil, err
	}
	if viewerID != uuid.Nil && viewerID != p.UserID {
		if v.IsFollowing, err = s.follows.Exists(ctx, viewerID.String(), ownerID); err != nil {
			return nil, err
		}
	}
	return v, nil
}
