package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"konnectia/internal/common"
	"konnectia/internal/models"
)

type profileFixture struct {
	store   *memStore
	follows *memFollows
	svc     ProfileService
	alice   models.User
	bob     models.User
}

func newProfileFixture() *profileFixture {
	f := &profileFixture{store: newMemStore(), follows: newMemFollows()}
	f.alice = f.store.addUser(models.User{Username: "alice", Email: "alice@example.com"}, "+919876543210")
	f.bob = f.store.addUser(models.User{Username: "bob"}, "")
	f.svc = NewProfileService(nil, memManager{f.store}, f.follows)
	return f
}

func (f *profileFixture) profileID(user models.User) uuid.UUID {
	p, _ := f.store.profileOf(user.ID)
	return p.ID
}

func TestFollow_IsIdempotent(t *testing.T) {
	f := newProfileFixture()
	ctx := context.Background()
	bobProfile := f.profileID(f.bob)

	require.NoError(t, f.svc.Follow(ctx, f.alice.ID, bobProfile))
	require.NoError(t, f.svc.Follow(ctx, f.alice.ID, bobProfile))

	view, err := f.svc.GetProfile(ctx, f.alice.ID, bobProfile)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.FollowersCount)
	assert.EqualValues(t, 0, view.FollowingCount)
	assert.True(t, view.IsFollowing)

	own, err := f.svc.GetOwnProfile(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, own.FollowingCount)
	assert.False(t, own.IsFollowing)

	require.NoError(t, f.svc.Unfollow(ctx, f.alice.ID, bobProfile))
	require.NoError(t, f.svc.Unfollow(ctx, f.alice.ID, bobProfile))

	view, err = f.svc.GetProfile(ctx, f.alice.ID, bobProfile)
	require.NoError(t, err)
	assert.Zero(t, view.FollowersCount)
	assert.False(t, view.IsFollowing)
}

func TestFollow_RejectsSelf(t *testing.T) {
	f := newProfileFixture()

	err := f.svc.Follow(context.Background(), f.alice.ID, f.profileID(f.alice))
	require.ErrorIs(t, err, common.ErrValidation)
	assert.EqualError(t, err, "You cannot follow yourself")

	n, _ := f.follows.CountFollowers(context.Background(), f.alice.ID.String())
	assert.Zero(t, n)
}

func TestFollow_UnknownProfile(t *testing.T) {
	f := newProfileFixture()

	assert.ErrorIs(t, f.svc.Follow(context.Background(), f.alice.ID, uuid.New()), common.ErrNotFound)
	assert.ErrorIs(t, f.svc.Unfollow(context.Background(), f.alice.ID, uuid.New()), common.ErrNotFound)
}

func TestGetProfile_HidesPrivateFields(t *testing.T) {
	f := newProfileFixture()

	view, err := f.svc.GetProfile(context.Background(), f.bob.ID, f.profileID(f.alice))
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice@example.com", view.User.Email)
	assert.Equal(t, f.alice.ID, view.User.ID)
}

func TestListProfiles(t *testing.T) {
	f := newProfileFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.Follow(ctx, f.bob.ID, f.profileID(f.alice)))

	views, err := f.svc.ListProfiles(ctx, f.bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byName := map[string]models.ProfileView{}
	for _, v := range views {
		byName[v.Username] = v
	}
	assert.EqualValues(t, 1, byName["alice"].FollowersCount)
	assert.True(t, byName["alice"].IsFollowing)
	assert.EqualValues(t, 1, byName["bob"].FollowingCount)

	empty, err := f.svc.ListProfiles(ctx, f.bob.ID, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
