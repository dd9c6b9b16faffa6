package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/models"
)

const profileColumns = "id, user_id, mobile, last_login_method, last_login_time, is_logged_in, bio, location, website, profile_picture"

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
	FindByMobile(ctx context.Context, mobile string) (*models.UserProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	List(ctx context.Context, limit, page int64) ([]models.UserProfile, error)
	RecordLogin(ctx context.Context, userID uuid.UUID, method models.LoginMethod, at time.Time) error
	SetLoggedOut(ctx context.Context, userID uuid.UUID) error
	Update(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.UserProfile, error)
	SetProfilePicture(ctx context.Context, userID uuid.UUID, url string) error
}

type profileRepository struct {
	db dbx.DBTX
}

func NewProfileRepository(db dbx.DBTX) ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var (
		mobile    sql.NullString
		method    sql.NullString
		lastLogin sql.NullTime
	)
	err := row.Scan(&p.ID, &p.UserID, &mobile, &method, &lastLogin, &p.IsLoggedIn, &p.Bio, &p.Location, &p.Website, &p.ProfilePicture)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if mobile.Valid {
		p.Mobile = &mobile.String
	}
	if method.Valid {
		m := models.LoginMethod(method.String)
		p.LastLoginMethod = &m
	}
	if lastLogin.Valid {
		p.LastLoginTime = &lastLogin.Time
	}
	return p, nil
}

// Create inserts the profile unless its user or mobile already has one, in
// which case nothing is written and common.ErrConflict is returned.
func (r *profileRepository) Create(ctx context.Context, profile *models.UserProfile) (_ *models.UserProfile, err error) {
	defer trackQuery("create", "profile")(&err)

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	query := `INSERT INTO user_profiles (id, user_id, mobile)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING id`

	var id uuid.UUID
	err = r.db.QueryRowContext(ctx, query, profile.ID, profile.UserID, profile.Mobile).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewConflictError("Mobile number already registered!")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) FindByMobile(ctx context.Context, mobile string) (_ *models.UserProfile, err error) {
	defer trackQuery("findByMobile", "profile")(&err)
	return scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE mobile = $1", mobile))
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (_ *models.UserProfile, err error) {
	defer trackQuery("findByUserID", "profile")(&err)
	return scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE user_id = $1", userID))
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (_ *models.UserProfile, err error) {
	defer trackQuery("findByID", "profile")(&err)
	return scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM user_profiles WHERE id = $1", id))
}

func (r *profileRepository) List(ctx context.Context, limit, page int64) (_ []models.UserProfile, err error) {
	defer trackQuery("list", "profile")(&err)

	query := "SELECT " + profileColumns + " FROM user_profiles ORDER BY id LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.UserProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// RecordLogin stamps the login method and time and marks the user logged
// in, creating the profile row if the user has none yet.
func (r *profileRepository) RecordLogin(ctx context.Context, userID uuid.UUID, method models.LoginMethod, at time.Time) (err error) {
	defer trackQuery("recordLogin", "profile")(&err)

	query := `INSERT INTO user_profiles (id, user_id, last_login_method, last_login_time, is_logged_in)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (user_id) DO UPDATE
		SET last_login_method = EXCLUDED.last_login_method,
		    last_login_time = EXCLUDED.last_login_time,
		    is_logged_in = TRUE`

	if _, err = r.db.ExecContext(ctx, query, uuid.New(), userID, string(method), at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *profileRepository) SetLoggedOut(ctx context.Context, userID uuid.UUID) (err error) {
	defer trackQuery("setLoggedOut", "profile")(&err)

	res, err := r.db.ExecContext(ctx, "UPDATE user_profiles SET is_logged_in = FALSE WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *profileRepository) Update(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (_ *models.UserProfile, err error) {
	defer trackQuery("update", "profile")(&err)

	var sets []string
	args := []any{userID}
	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("bio", upd.Bio)
	add("location", upd.Location)
	add("website", upd.Website)

	if len(sets) == 0 {
		return r.FindByUserID(ctx, userID)
	}

	query := "UPDATE user_profiles SET " + strings.Join(sets, ", ") + " WHERE user_id = $1 RETURNING " + profileColumns
	return scanProfile(r.db.QueryRowContext(ctx, query, args...))
}

func (r *profileRepository) SetProfilePicture(ctx context.Context, userID uuid.UUID, url string) (err error) {
	defer trackQuery("setProfilePicture", "profile")(&err)

	res, err := r.db.ExecContext(ctx, "UPDATE user_profiles SET profile_picture = $2 WHERE user_id = $1", userID, url)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}
