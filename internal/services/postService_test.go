package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"konnectia/internal/common"
	"konnectia/internal/models"
)

type postFixture struct {
	store    *memStore
	posts    *memPosts
	comments *memComments
	likes    *memEngagements
	saves    *memEngagements
	media    *fakeMedia
	svc      PostService
	alice    models.User
	bob      models.User
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	f := &postFixture{
		store:    newMemStore(),
		posts:    newMemPosts(),
		comments: newMemComments(),
		likes:    newMemEngagements(),
		saves:    newMemEngagements(),
		media:    &fakeMedia{url: "https://cdn.test/img.png"},
	}
	f.alice = f.store.addUser(models.User{Username: "alice"}, "")
	f.bob = f.store.addUser(models.User{Username: "bob"}, "")

	clock := newFakeClock()
	svc := NewPostService(nil, memManager{f.store}, f.posts, f.comments, f.likes, f.saves, f.media).(*postService)
	svc.now = func() time.Time {
		clock.Advance(time.Second)
		return clock.Now()
	}
	f.svc = svc
	return f
}

func (f *postFixture) post(t *testing.T, author models.User, content string) models.PostView {
	t.Helper()
	p, err := f.svc.CreatePost(context.Background(), author.ID, content, nil)
	require.NoError(t, err)
	return *p
}

func TestCreatePost(t *testing.T) {
	f := newPostFixture(t)

	p := f.post(t, f.alice, "  hello world ")
	assert.Equal(t, "hello world", p.Content)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, f.alice.ID.String(), p.UserID)

	withImage, err := f.svc.CreatePost(context.Background(), f.alice.ID, "", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/img.png", withImage.Image)
	assert.Equal(t, []string{postImageFolder}, f.media.folders)

	_, err = f.svc.CreatePost(context.Background(), f.alice.ID, "   ", nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.CreatePost(context.Background(), uuid.New(), "ghost", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListPosts_NewestFirstWithViewerFlags(t *testing.T) {
	f := newPostFixture(t)
	first := f.post(t, f.alice, "first")
	second := f.post(t, f.bob, "second")

	liked, err := f.svc.ToggleLike(context.Background(), f.bob.ID, first.ID)
	require.NoError(t, err)
	require.True(t, liked)

	views, err := f.svc.ListPosts(context.Background(), f.bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID)
	assert.Equal(t, first.ID, views[1].ID)
	assert.True(t, views[1].IsLiked)
	assert.Equal(t, int64(1), views[1].LikesCount)
	assert.False(t, views[0].IsLiked)

	mine, err := f.svc.ListUserPosts(context.Background(), f.bob.ID, f.alice.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestToggleLike(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "hi")
	ctx := context.Background()

	liked, err := f.svc.ToggleLike(ctx, f.bob.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = f.svc.ToggleLike(ctx, f.bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	n, _ := f.likes.CountByPost(ctx, p.ID)
	assert.Zero(t, n)

	_, err = f.svc.ToggleLike(ctx, f.bob.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetLikeIsIdempotent(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "hi")
	ctx := context.Background()

	require.NoError(t, f.svc.SetLike(ctx, f.bob.ID, p.ID, true))
	require.NoError(t, f.svc.SetLike(ctx, f.bob.ID, p.ID, true))
	n, _ := f.likes.CountByPost(ctx, p.ID)
	assert.Equal(t, int64(1), n)

	require.NoError(t, f.svc.SetLike(ctx, f.bob.ID, p.ID, false))
	require.NoError(t, f.svc.SetLike(ctx, f.bob.ID, p.ID, false))
	n, _ = f.likes.CountByPost(ctx, p.ID)
	assert.Zero(t, n)
}

func TestSavesAndSavedList(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "keep me")
	ctx := context.Background()

	saved, err := f.svc.ToggleSave(ctx, f.bob.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, saved)
	require.NoError(t, f.svc.SetSave(ctx, f.bob.ID, p.ID, true))

	list, err := f.svc.ListSaved(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].Post.ID)
	assert.True(t, list[0].Post.IsSaved)

	saved, err = f.svc.ToggleSave(ctx, f.bob.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	list, err = f.svc.ListSaved(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateAndDeletePost_OwnerOnly(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "original")
	ctx := context.Background()

	_, err := f.svc.UpdatePost(ctx, f.bob.ID, p.ID, "hijacked")
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeletePost(ctx, f.bob.ID, p.ID), common.ErrForbidden)

	updated, err := f.svc.UpdatePost(ctx, f.alice.ID, p.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	_, err = f.svc.UpdatePost(ctx, f.alice.ID, p.ID, " ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeletePost_Cascades(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "bye")
	ctx := context.Background()

	_, err := f.svc.AddComment(ctx, f.bob.ID, p.ID, "nice")
	require.NoError(t, err)
	require.NoError(t, f.svc.SetLike(ctx, f.bob.ID, p.ID, true))
	require.NoError(t, f.svc.SetSave(ctx, f.bob.ID, p.ID, true))

	require.NoError(t, f.svc.DeletePost(ctx, f.alice.ID, p.ID))

	_, err = f.svc.GetPost(ctx, f.alice.ID, p.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	n, _ := f.comments.CountByPost(ctx, p.ID)
	assert.Zero(t, n)
	n, _ = f.likes.CountByPost(ctx, p.ID)
	assert.Zero(t, n)
	n, _ = f.saves.CountByPost(ctx, p.ID)
	assert.Zero(t, n)
}

func TestComments(t *testing.T) {
	f := newPostFixture(t)
	p := f.post(t, f.alice, "discuss")
	ctx := context.Background()

	c, err := f.svc.AddComment(ctx, f.bob.ID, p.ID, " first! ")
	require.NoError(t, err)
	assert.Equal(t, "first!", c.Content)
	assert.Equal(t, "bob", c.Username)

	_, err = f.svc.AddComment(ctx, f.bob.ID, p.ID, "")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = f.svc.AddComment(ctx, f.bob.ID, primitive.NewObjectID(), "orphan")
	assert.ErrorIs(t, err, common.ErrNotFound)

	view, err := f.svc.GetPost(ctx, f.alice.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.CommentsCount)

	_, err = f.svc.UpdateComment(ctx, f.alice.ID, c.ID, "not yours")
	assert.ErrorIs(t, err, common.ErrForbidden)

	updated, err := f.svc.UpdateComment(ctx, f.bob.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	list, err := f.svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Content)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.alice.ID, c.ID), common.ErrForbidden)
	require.NoError(t, f.svc.DeleteComment(ctx, f.bob.ID, c.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.bob.ID, c.ID), common.ErrNotFound)
}
