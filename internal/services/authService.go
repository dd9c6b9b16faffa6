package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/metrics"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
	"konnectia/internal/utils"
)

const passwordHashCost = 8

// AuthService covers password accounts: registration, email activation and
// password sign-in.
type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Activate(ctx context.Context, token string) (*models.User, error)
	PasswordLogin(ctx context.Context, username, password string) (*models.Session, error)
}

type authService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repos       repositories.Manager
	sessions    SessionService
	tokens      TokenService
	email       EmailService
	countryCode string
	publicURL   string
}

func NewAuthService(db dbx.DBTX, tx dbx.Transactor, repos repositories.Manager, sessions SessionService, tokens TokenService, email EmailService, countryCode, publicURL string) AuthService {
	return &authService{
		db:          db,
		tx:          tx,
		repos:       repos,
		sessions:    sessions,
		tokens:      tokens,
		email:       email,
		countryCode: countryCode,
		publicURL:   publicURL,
	}
}

var signupMessages = utils.Messages{
	"username.required":        "Username, email and password are required!",
	"email.required":           "Username, email and password are required!",
	"password.required":        "Username, email and password are required!",
	"username.max":             "Username must be under 20 characters!",
	"username.alphanum":        "Username must be Alpha-Numeric!",
	"confirm_password.eqfield": "Passwords didn't match!",
	"email.email":              "Enter a valid email address.",
}

func (s *authService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	log.Debug().Str("username", req.Username).Msg("Attempting to register user")
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Missing fields are reported before the uniqueness checks, every other
	// rule after them.
	invalid := utils.Validate(req, signupMessages)
	if common.HasRule(invalid, "required") {
		return nil, invalid
	}

	users := s.repos.Users(s.db)
	if _, err := users.FindByUsername(ctx, req.Username); err == nil {
		return nil, common.NewConflictError("Username already exists! Please try some other username.")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if _, err := users.FindByEmail(ctx, req.Email); err == nil {
		return nil, common.NewConflictError("Email already registered!")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if invalid != nil {
		return nil, invalid
	}

	var mobile *string
	if strings.TrimSpace(req.Mobile) != "" {
		normalized := utils.NormalizeMobile(req.Mobile, s.countryCode)
		if err := utils.ValidateMobile(normalized); err != nil {
			return nil, err
		}
		mobile = &normalized
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password during registration")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:        uuid.New(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hashedPassword),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	profile := &models.UserProfile{UserID: user.ID, Mobile: mobile}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		_, err := s.repos.Profiles(tx).Create(ctx, profile)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.NewUsersTotal.WithLabelValues("signup").Inc()
	log.Info().Str("user_id", user.ID.String()).Str("username", user.Username).Msg("User registered successfully")

	s.sendWelcome(user)
	s.sendActivation(user)
	return user, nil
}

func (s *authService) Activate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.ParseActivation(token)
	if err != nil {
		return nil, err
	}

	users := s.repos.Users(s.db)
	if err := users.Activate(ctx, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", common.ErrInvalidToken)
		}
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Msg("Account activated")
	return users.FindByID(ctx, userID)
}

func (s *authService) PasswordLogin(ctx context.Context, username, password string) (*models.Session, error) {
	log.Debug().Str("username", username).Msg("Attempting user login")
	user, err := s.repos.Users(s.db).FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, s.loginFailed(username)
		}
		log.Error().Err(err).Str("username", username).Msg("Error finding user for login")
		return nil, err
	}

	if !user.HasUsablePassword() || password == "" {
		return nil, s.loginFailed(username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, s.loginFailed(username)
	}
	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues(string(models.LoginMethodPassword), "inactive").Inc()
		return nil, common.ErrAccountInactive
	}

	return s.sessions.Establish(ctx, s.db, user, models.LoginMethodPassword)
}

func (s *authService) loginFailed(username string) error {
	log.Warn().Str("username", username).Msg("Invalid credentials during login attempt")
	metrics.LoginAttemptsTotal.WithLabelValues(string(models.LoginMethodPassword), "failed").Inc()
	return common.ErrInvalidCredentials
}

// Both emails are best effort: a mail outage must not fail the signup.
func (s *authService) sendWelcome(user *models.User) {
	body := fmt.Sprintf("<p>Hello %s!!</p><p>Welcome to Konnectia!! Thank you for joining us.</p><p>We have also sent you a confirmation email, please confirm your email address to activate your account.</p>", user.FirstName)
	if err := s.email.SendEmail(user.Email, "Welcome to Konnectia!!", body); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to send welcome email")
	}
}

func (s *authService) sendActivation(user *models.User) {
	token, err := s.tokens.IssueActivation(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to issue activation token")
		return
	}

	link := fmt.Sprintf("%s/api/auth/activate/%s", s.publicURL, token)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Please confirm your email address by clicking the link below:</p><p><a href=\"%s\">%s</a></p>", user.FirstName, link, link)
	if err := s.email.SendEmail(user.Email, "Confirm your email @ Konnectia!!", body); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to send confirmation email")
	}
}
