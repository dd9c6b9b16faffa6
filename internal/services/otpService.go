package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
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

// OTPService drives passwordless sign-in by mobile number.
type OTPService interface {
	RequestOTP(ctx context.Context, mobile string) (*models.OTPDispatch, error)
	ResendOTP(ctx context.Context, mobile string) (*models.OTPDispatch, error)
	VerifyOTP(ctx context.Context, req models.OTPVerifyRequest) (*models.Session, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type otpService struct {
	db          dbx.DBTX
	tx          dbx.Transactor
	repos       repositories.Manager
	provisioner *accountProvisioner
	sessions    SessionService
	sms         SMSSender
	throttle    OTPThrottle
	countryCode string
	now         func() time.Time
	generate    func() (string, error)
}

// NewOTPService wires the OTP flows. throttle may be nil.
func NewOTPService(db dbx.DBTX, tx dbx.Transactor, repos repositories.Manager, sessions SessionService, sms SMSSender, throttle OTPThrottle, countryCode string) OTPService {
	return &otpService{
		db:          db,
		tx:          tx,
		repos:       repos,
		provisioner: &accountProvisioner{repos: repos},
		sessions:    sessions,
		sms:         sms,
		throttle:    throttle,
		countryCode: countryCode,
		now:         time.Now,
		generate:    func() (string, error) { return utils.GenerateSecureOTP(models.OTPLength) },
	}
}

func (s *otpService) RequestOTP(ctx context.Context, rawMobile string) (*models.OTPDispatch, error) {
	mobile, err := s.normalize(rawMobile)
	if err != nil {
		return nil, err
	}
	if err := s.checkThrottle(ctx, mobile); err != nil {
		return nil, err
	}

	var (
		user    *models.User
		code    string
		created bool
	)
	// A lost race on the mobile number is retried once; the second pass
	// finds the winner's profile.
	for attempt := 0; attempt < 2; attempt++ {
		err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			u, c, err := s.provisioner.Provision(ctx, tx, mobile)
			if err != nil {
				return err
			}
			issued, err := s.issue(ctx, tx, u.ID)
			if err != nil {
				return err
			}
			user, created, code = u, c, issued
			return nil
		})
		if !errors.Is(err, errProfileRace) {
			break
		}
		log.Warn().Str("mobile", mobile).Msg("Mobile number claimed concurrently, retrying")
	}
	if err != nil {
		return nil, err
	}
	if created {
		metrics.NewUsersTotal.WithLabelValues("otp").Inc()
	}

	if err := s.deliver(ctx, mobile, fmt.Sprintf("Your Konnectia OTP is: %s", code)); err != nil {
		return nil, err
	}
	return &models.OTPDispatch{Mobile: mobile, Username: user.Username}, nil
}

func (s *otpService) ResendOTP(ctx context.Context, rawMobile string) (*models.OTPDispatch, error) {
	mobile, err := s.normalize(rawMobile)
	if err != nil {
		return nil, err
	}
	if err := s.checkThrottle(ctx, mobile); err != nil {
		return nil, err
	}

	var (
		user *models.User
		code string
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		profile, err := s.repos.Profiles(tx).FindByMobile(ctx, mobile)
		if err != nil {
			return err
		}
		if user, err = s.repos.Users(tx).FindByID(ctx, profile.UserID); err != nil {
			return err
		}
		code, err = s.issue(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, mobile, fmt.Sprintf("Your new Konnectia OTP is: %s", code)); err != nil {
		return nil, err
	}
	return &models.OTPDispatch{Mobile: mobile, Username: user.Username}, nil
}

func (s *otpService) VerifyOTP(ctx context.Context, req models.OTPVerifyRequest) (*models.Session, error) {
	mobile, err := s.normalize(req.Mobile)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.OTP) == "" {
		return nil, common.NewValidationError("otp", "OTP is required")
	}

	var (
		session *models.Session
		outcome error
	)
	// A mismatch must still commit the attempt counter, so rejections are
	// carried out of the transaction in outcome rather than returned.
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		profile, err := s.repos.Profiles(tx).FindByMobile(ctx, mobile)
		if err != nil {
			return err
		}
		if err := s.repos.Users(tx).LockForUpdate(ctx, profile.UserID); err != nil {
			return err
		}

		otps := s.repos.OTPs(tx)
		otp, err := otps.FindLatestUnverified(ctx, profile.UserID)
		if err != nil {
			return err
		}

		if !otp.IsValid(s.now()) {
			outcome = common.ErrOTPExpired
			metrics.OTPVerificationsTotal.WithLabelValues("expired").Inc()
			return nil
		}

		if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(strings.TrimSpace(req.OTP))) != 1 {
			attempts, err := otps.IncrementAttempts(ctx, otp.ID)
			if err != nil {
				return err
			}
			if remaining := models.OTPMaxAttempts - attempts; remaining > 0 {
				outcome = &common.InvalidOTPError{Remaining: remaining}
				metrics.OTPVerificationsTotal.WithLabelValues("mismatch").Inc()
			} else {
				outcome = common.ErrOTPAttemptsExceeded
				metrics.OTPVerificationsTotal.WithLabelValues("exhausted").Inc()
			}
			metrics.LoginAttemptsTotal.WithLabelValues(string(models.LoginMethodOTP), "failed").Inc()
			return nil
		}

		if err := otps.MarkVerified(ctx, otp.ID); err != nil {
			return err
		}
		user, err := s.repos.Users(tx).FindByID(ctx, profile.UserID)
		if err != nil {
			return err
		}
		session, err = s.sessions.Establish(ctx, tx, user, models.LoginMethodOTP)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			metrics.OTPVerificationsTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}
	if outcome != nil {
		log.Info().Str("mobile", mobile).Err(outcome).Msg("OTP verification rejected")
		return nil, outcome
	}

	metrics.OTPVerificationsTotal.WithLabelValues("success").Inc()
	return session, nil
}

// CleanupExpired removes passcodes that expired without being verified.
func (s *otpService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.OTPs(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.OTPSweptTotal.Add(float64(n))
	log.Info().Int64("deleted", n).Msg("Expired OTPs removed")
	return n, nil
}

// issue replaces any outstanding passcodes of the user with a fresh one.
// The user row lock serializes issuance against verification.
func (s *otpService) issue(ctx context.Context, tx dbx.DBTX, userID uuid.UUID) (string, error) {
	if err := s.repos.Users(tx).LockForUpdate(ctx, userID); err != nil {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	otps := s.repos.OTPs(tx)
	if _, err := otps.DeleteUnverified(ctx, userID); err != nil {
		return "", err
	}
	if err := otps.Create(ctx, models.NewOTP(userID, code, s.now())); err != nil {
		return "", err
	}

	metrics.OTPIssuedTotal.Inc()
	return code, nil
}

func (s *otpService) deliver(ctx context.Context, mobile, body string) error {
	if err := s.sms.Send(ctx, mobile, body); err != nil {
		log.Error().Err(err).Str("mobile", mobile).Msg("Failed to send OTP")
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}
	log.Info().Str("mobile", mobile).Msg("OTP sent")
	return nil
}

func (s *otpService) normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", common.NewValidationError("mobile", "Mobile number is required")
	}
	mobile := utils.NormalizeMobile(raw, s.countryCode)
	if err := utils.ValidateMobile(mobile); err != nil {
		return "", err
	}
	return mobile, nil
}

// checkThrottle lets the request through when the throttle store is
// unreachable.
func (s *otpService) checkThrottle(ctx context.Context, mobile string) error {
	if s.throttle == nil {
		return nil
	}
	allowed, err := s.throttle.Allow(ctx, mobile)
	if err != nil {
		log.Warn().Err(err).Str("mobile", mobile).Msg("OTP throttle unavailable")
		return nil
	}
	if !allowed {
		metrics.OTPThrottledTotal.Inc()
		return common.ErrTooManyRequests
	}
	return nil
}
