package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/models"
)

const userColumns = "id, username, email, password, first_name, last_name, is_active, date_joined"

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	CreateIfUsernameFree(ctx context.Context, user *models.User) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
	Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int64, error)
	List(ctx context.Context, limit, page int64) ([]models.User, error)
}

type userRepository struct {
	db dbx.DBTX
}

func NewUserRepository(db dbx.DBTX) UserRepository {
	return &userRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.IsActive, &u.DateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (_ *models.User, err error) {
	defer trackQuery("create", "user")(&err)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `INSERT INTO users (id, username, email, password, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING date_joined`

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.IsActive,
	).Scan(&user.DateJoined)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.NewConflictError("Username already exists! Please try some other username.")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// CreateIfUsernameFree inserts the user unless the username is taken, in
// which case it reports false and leaves the table untouched.
func (r *userRepository) CreateIfUsernameFree(ctx context.Context, user *models.User) (_ bool, err error) {
	defer trackQuery("createIfUsernameFree", "user")(&err)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	query := `INSERT INTO users (id, username, email, password, first_name, last_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO NOTHING
		RETURNING date_joined`

	err = r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.IsActive,
	).Scan(&user.DateJoined)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (_ *models.User, err error) {
	defer trackQuery("findByID", "user")(&err)
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	defer trackQuery("findByUsername", "user")(&err)
	return scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	defer trackQuery("findByEmail", "user")(&err)
	query := "SELECT " + userColumns + " FROM users WHERE LOWER(email) = LOWER($1) ORDER BY date_joined LIMIT 1"
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// LockForUpdate takes a row lock on the user for the rest of the enclosing
// transaction.
func (r *userRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (err error) {
	defer trackQuery("lockForUpdate", "user")(&err)

	var locked uuid.UUID
	err = r.db.QueryRowContext(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *userRepository) Activate(ctx context.Context, id uuid.UUID) (err error) {
	defer trackQuery("activate", "user")(&err)

	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_active = TRUE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate) (_ *models.User, err error) {
	defer trackQuery("update", "user")(&err)

	var sets []string
	args := []any{id}
	add := func(column string, value *string) {
		if value != nil {
			args = append(args, *value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
	}
	add("username", upd.Username)
	add("email", upd.Email)
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING " + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil && isUniqueViolation(err) {
		return nil, common.NewConflictError("Username already exists! Please try some other username.")
	}
	return user, err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer trackQuery("delete", "user")(&err)

	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *userRepository) CountAll(ctx context.Context) (_ int64, err error) {
	defer trackQuery("count", "user")(&err)

	var count int64
	if err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// List pages through users in the order they joined.
func (r *userRepository) List(ctx context.Context, limit, page int64) (_ []models.User, err error) {
	defer trackQuery("list", "user")(&err)

	query := "SELECT " + userColumns + " FROM users ORDER BY date_joined, id LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
