package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/metrics"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
)

// SessionService records sign-ins and hands out token pairs.
type SessionService interface {
	// Establish records a successful sign-in on the user's profile through
	// db, which may be an open transaction, and mints a token pair.
	Establish(ctx context.Context, db dbx.DBTX, user *models.User, method models.LoginMethod) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

type sessionService struct {
	db     dbx.DBTX
	repos  repositories.Manager
	tokens TokenService
	now    func() time.Time
}

func NewSessionService(db dbx.DBTX, repos repositories.Manager, tokens TokenService) SessionService {
	return &sessionService{db: db, repos: repos, tokens: tokens, now: time.Now}
}

func (s *sessionService) Establish(ctx context.Context, db dbx.DBTX, user *models.User, method models.LoginMethod) (*models.Session, error) {
	if err := s.repos.Profiles(db).RecordLogin(ctx, user.ID, method, s.now()); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	tokens, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues(string(method), "success").Inc()
	log.Info().Str("user_id", user.ID.String()).Str("method", string(method)).Msg("User signed in")
	return &models.Session{User: user, Tokens: tokens}, nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	if _, err := s.repos.Users(s.db).FindByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.TokenPair{}, fmt.Errorf("%w: user no longer exists", common.ErrInvalidToken)
		}
		return models.TokenPair{}, err
	}
	return s.tokens.IssuePair(userID)
}

// Logout only clears the logged-in flag; issued tokens keep working until
// they expire.
func (s *sessionService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.repos.Profiles(s.db).SetLoggedOut(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	log.Info().Str("user_id", userID.String()).Msg("User logged out")
	return nil
}
