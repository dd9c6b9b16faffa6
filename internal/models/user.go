package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnusablePasswordPrefix marks a password column that can never match a
// bcrypt comparison. Accounts provisioned from a mobile number carry it.
const UnusablePasswordPrefix = "!"

type LoginMethod string

const (
	LoginMethodPassword LoginMethod = "password"
	LoginMethodOTP      LoginMethod = "otp"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

type UserProfile struct {
	ID              uuid.UUID    `json:"id"`
	UserID          uuid.UUID    `json:"user_id"`
	Mobile          *string      `json:"mobile,omitempty"`
	LastLoginMethod *LoginMethod `json:"last_login_method,omitempty"`
	LastLoginTime   *time.Time   `json:"last_login_time,omitempty"`
	IsLoggedIn      bool         `json:"is_logged_in"`
	Bio             string       `json:"bio"`
	Location        string       `json:"location"`
	Website         string       `json:"website"`
	ProfilePicture  string       `json:"profile_picture"`
}

// Account is the owner's view of a user and profile.
type Account struct {
	User
	Profile *UserProfile `json:"profile"`
}

type UserUpdate struct {
	Username  *string `json:"username,omitempty" validate:"omitnil,required,max=20,alphanum"`
	Email     *string `json:"email,omitempty" validate:"omitnil,required,email,max=254"`
	FirstName *string `json:"first_name,omitempty" validate:"omitnil,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitnil,max=150"`
}

type ProfileUpdate struct {
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty" validate:"omitnil,max=100"`
	Website  *string `json:"website,omitempty" validate:"omitnil,max=200"`
}

// AccountUpdate is the PATCH /api/users/me payload.
type AccountUpdate struct {
	UserUpdate
	ProfileUpdate
}

func (u UserUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.FirstName == nil && u.LastName == nil
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Bio == nil && p.Location == nil && p.Website == nil
}
