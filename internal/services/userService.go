package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/metrics"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
	"konnectia/internal/utils"
)

const profilePictureFolder = "konnectia/profile_pics"

// UserService defines the interface for the signed-in user's own account.
type UserService interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID uuid.UUID, upd models.AccountUpdate) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, file io.Reader) (string, error)
	GetTotalUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, page, limit int64) ([]models.UserSummary, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.UserSummary, error)
	// TrackTotalUsers refreshes the total users gauge every interval until
	// ctx is cancelled.
	TrackTotalUsers(ctx context.Context, interval time.Duration)
}

type userService struct {
	db      dbx.DBTX
	tx      dbx.Transactor
	repos   repositories.Manager
	follows repositories.FollowRepository
	media   MediaService
}

func NewUserService(db dbx.DBTX, tx dbx.Transactor, repos repositories.Manager, follows repositories.FollowRepository, media MediaService) UserService {
	return &userService{db: db, tx: tx, repos: repos, follows: follows, media: media}
}

func (s *userService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.repos.Users(s.db).CountAll(ctx)
}

func (s *userService) TrackTotalUsers(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.refreshTotalUsers(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *userService) refreshTotalUsers(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	count, err := s.GetTotalUsers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Error updating total users gauge")
		}
		return
	}
	metrics.TotalUsers.Set(float64(count))
}

func (s *userService) ListUsers(ctx context.Context, page, limit int64) ([]models.UserSummary, error) {
	page, limit = normalizePage(page, limit)
	users, err := s.repos.Users(s.db).List(ctx, limit, page)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.UserSummary, error) {
	user, err := s.repos.Users(s.db).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *userService) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	log.Debug().Str("user_id", userID.String()).Msg("Attempting to retrieve account")
	user, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := ensureProfile(ctx, s.repos.Profiles(s.db), userID)
	if err != nil {
		return nil, err
	}
	return &models.Account{User: *user, Profile: profile}, nil
}

func (s *userService) UpdateAccount(ctx context.Context, userID uuid.UUID, upd models.AccountUpdate) (*models.Account, error) {
	if err := s.validateUpdate(ctx, userID, &upd); err != nil {
		return nil, err
	}

	var account models.Account
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.repos.Users(tx).Update(ctx, userID, upd.UserUpdate)
		if err != nil {
			return err
		}
		if _, err := ensureProfile(ctx, s.repos.Profiles(tx), userID); err != nil {
			return err
		}
		profile, err := s.repos.Profiles(tx).Update(ctx, userID, upd.ProfileUpdate)
		if err != nil {
			return err
		}
		account = models.Account{User: *user, Profile: profile}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Msg("Account updated successfully")
	return &account, nil
}

func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.repos.Users(s.db).Delete(ctx, userID); err != nil {
		return err
	}
	if _, err := s.follows.DeleteByUser(ctx, userID.String()); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to remove follows of deleted account")
	}
	log.Info().Str("user_id", userID.String()).Msg("Account deleted")
	return nil
}

func (s *userService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, file io.Reader) (string, error) {
	url, err := s.media.Upload(ctx, file, profilePictureFolder)
	if err != nil {
		return "", err
	}

	if _, err := ensureProfile(ctx, s.repos.Profiles(s.db), userID); err != nil {
		return "", err
	}
	if err := s.repos.Profiles(s.db).SetProfilePicture(ctx, userID, url); err != nil {
		return "", err
	}
	return url, nil
}

// ensureProfile returns the user's profile, creating an empty one for
// accounts that predate profiles.
func ensureProfile(ctx context.Context, profiles repositories.ProfileRepository, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := profiles.FindByUserID(ctx, userID)
	if err == nil || !errors.Is(err, common.ErrNotFound) {
		return profile, err
	}

	profile, err = profiles.Create(ctx, &models.UserProfile{UserID: userID})
	if errors.Is(err, common.ErrConflict) {
		return profiles.FindByUserID(ctx, userID)
	}
	return profile, err
}

var updateMessages = utils.Messages{
	"username.required": "Username cannot be empty",
	"username.max":      "Username must be under 20 characters!",
	"username.alphanum": "Username must be Alpha-Numeric!",
	"email.required":    "Enter a valid email address.",
}

// validateUpdate trims and checks the submitted fields, then the uniqueness
// of a changed username or email.
func (s *userService) validateUpdate(ctx context.Context, userID uuid.UUID, upd *models.AccountUpdate) error {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	upd.Username = trim(upd.Username)
	upd.Email = trim(upd.Email)

	if err := utils.Validate(upd.UserUpdate, updateMessages); err != nil {
		return err
	}
	if err := utils.Validate(upd.ProfileUpdate, nil); err != nil {
		return err
	}

	users := s.repos.Users(s.db)
	if upd.Username != nil {
		existing, err := users.FindByUsername(ctx, *upd.Username)
		if err == nil && existing.ID != userID {
			return common.NewConflictError("Username already exists! Please try some other username.")
		} else if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}
	if upd.Email != nil {
		existing, err := users.FindByEmail(ctx, *upd.Email)
		if err == nil && existing.ID != userID {
			return common.NewConflictError("Email already registered!")
		} else if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}
	return nil
}
