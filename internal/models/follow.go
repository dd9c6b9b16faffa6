package models

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Follow records that FollowerID follows FolloweeID, both user ids.
type Follow struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FollowerID string             `bson:"follower_id" json:"follower_id"`
	FolloweeID string             `bson:"followee_id" json:"followee_id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// UserSummary is the public part of a user.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// ProfileView is a profile as seen by a particular viewer. The mobile
// number and login state stay private.
type ProfileView struct {
	ID             uuid.UUID   `json:"id"`
	User           UserSummary `json:"user"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Bio            string      `json:"bio"`
	ProfilePicture string      `json:"profile_picture"`
	Location       string      `json:"location"`
	Website        string      `json:"website"`
	FollowersCount int64       `json:"followers_count"`
	FollowingCount int64       `json:"following_count"`
	IsFollowing    bool        `json:"is_following"`
}
