package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/models"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *models.OTP) error
	DeleteUnverified(ctx context.Context, userID uuid.UUID) (int64, error)
	FindLatestUnverified(ctx context.Context, userID uuid.UUID) (*models.OTP, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db dbx.DBTX
}

func NewOTPRepository(db dbx.DBTX) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OTP) (err error) {
	defer trackQuery("create", "otp")(&err)

	query := `INSERT INTO otps (id, user_id, code, created_at, expires_at, verified, attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.ExecContext(ctx, query, otp.ID, otp.UserID, otp.Code, otp.CreatedAt, otp.ExpiresAt, otp.Verified, otp.Attempts)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *otpRepository) DeleteUnverified(ctx context.Context, userID uuid.UUID) (_ int64, err error) {
	defer trackQuery("deleteUnverified", "otp")(&err)

	res, err := r.db.ExecContext(ctx, "DELETE FROM otps WHERE user_id = $1 AND verified = FALSE", userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// FindLatestUnverified returns the most recently created unverified code
// for the user and locks its row.
func (r *otpRepository) FindLatestUnverified(ctx context.Context, userID uuid.UUID) (_ *models.OTP, err error) {
	defer trackQuery("findLatestUnverified", "otp")(&err)

	query := `SELECT id, user_id, code, created_at, expires_at, verified, attempts
		FROM otps
		WHERE user_id = $1 AND verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`

	otp := &models.OTP{}
	err = r.db.QueryRowContext(ctx, query, userID).Scan(
		&otp.ID, &otp.UserID, &otp.Code, &otp.CreatedAt, &otp.ExpiresAt, &otp.Verified, &otp.Attempts,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return otp, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (_ int, err error) {
	defer trackQuery("incrementAttempts", "otp")(&err)

	var attempts int
	err = r.db.QueryRowContext(ctx, "UPDATE otps SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts", id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id uuid.UUID) (err error) {
	defer trackQuery("markVerified", "otp")(&err)

	res, err := r.db.ExecContext(ctx, "UPDATE otps SET verified = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	defer trackQuery("deleteExpired", "otp")(&err)

	res, err := r.db.ExecContext(ctx, "DELETE FROM otps WHERE expires_at < $1", now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
