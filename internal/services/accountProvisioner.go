package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
	"konnectia/internal/utils"
)

const maxUsernameAttempts = 20

// errProfileRace means another request bound the mobile number to an
// account after our lookup. The caller rolls back and starts over.
var errProfileRace = errors.New("mobile number was claimed concurrently")

type accountProvisioner struct {
	repos repositories.Manager
}

// Provision returns the account bound to mobile, creating an inactive one
// with a derived username when none exists. It must run inside tx.
func (p *accountProvisioner) Provision(ctx context.Context, tx dbx.DBTX, mobile string) (*models.User, bool, error) {
	profiles := p.repos.Profiles(tx)
	users := p.repos.Users(tx)

	profile, err := profiles.FindByMobile(ctx, mobile)
	if err == nil {
		user, err := users.FindByID(ctx, profile.UserID)
		return user, false, err
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	password, err := unusablePassword()
	if err != nil {
		return nil, false, err
	}

	base := utils.UsernameFromMobile(mobile)
	user := &models.User{Password: password}
	created := false
	for i := 0; i < maxUsernameAttempts && !created; i++ {
		user.ID = uuid.New()
		user.Username = base
		if i > 0 {
			user.Username = fmt.Sprintf("%s_%d", base, i)
		}
		if created, err = users.CreateIfUsernameFree(ctx, user); err != nil {
			return nil, false, err
		}
	}
	if !created {
		return nil, false, fmt.Errorf("no free username derived from %q after %d attempts", base, maxUsernameAttempts)
	}

	if _, err := profiles.Create(ctx, &models.UserProfile{UserID: user.ID, Mobile: &mobile}); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, false, errProfileRace
		}
		return nil, false, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("Provisioned account for mobile number")
	return user, true, nil
}

func unusablePassword() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return models.UnusablePasswordPrefix + hex.EncodeToString(b), nil
}
