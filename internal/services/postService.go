package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"konnectia/internal/common"
	"konnectia/internal/dbx"
	"konnectia/internal/metrics"
	"konnectia/internal/models"
	"konnectia/internal/repositories"
)

const (
	postImageFolder  = "konnectia/posts"
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, content string, image io.Reader) (*models.PostView, error)
	ListPosts(ctx context.Context, viewerID uuid.UUID, page, limit int64) ([]models.PostView, error)
	ListUserPosts(ctx context.Context, viewerID, authorID uuid.UUID, page, limit int64) ([]models.PostView, error)
	GetPost(ctx context.Context, viewerID uuid.UUID, postID primitive.ObjectID) (*models.PostView, error)
	UpdatePost(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, content string) (*models.PostView, error)
	DeletePost(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) error

	// ToggleLike likes the post, or unlikes it when already liked, and
	// reports whether the post is liked afterwards.
	ToggleLike(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (bool, error)
	SetLike(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, liked bool) error
	ToggleSave(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (bool, error)
	SetSave(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, saved bool) error
	ListSaved(ctx context.Context, userID uuid.UUID) ([]models.SavedPostView, error)

	AddComment(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
	GetComment(ctx context.Context, commentID primitive.ObjectID) (*models.Comment, error)
	UpdateComment(ctx context.Context, userID uuid.UUID, commentID primitive.ObjectID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, userID uuid.UUID, commentID primitive.ObjectID) error
}

type postService struct {
	db       dbx.DBTX
	repos    repositories.Manager
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	likes    repositories.EngagementRepository
	saves    repositories.EngagementRepository
	media    MediaService
	now      func() time.Time
}

func NewPostService(db dbx.DBTX, repos repositories.Manager, posts repositories.PostRepository, comments repositories.CommentRepository, likes, saves repositories.EngagementRepository, media MediaService) PostService {
	return &postService{
		db:       db,
		repos:    repos,
		posts:    posts,
		comments: comments,
		likes:    likes,
		saves:    saves,
		media:    media,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, content string, image io.Reader) (*models.PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" && image == nil {
		return nil, common.NewValidationError("content", "Post content cannot be empty")
	}

	author, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.Post{
		UserID:    userID.String(),
		Username:  author.Username,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if image != nil {
		if post.Image, err = s.media.Upload(ctx, image, postImageFolder); err != nil {
			return nil, err
		}
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	metrics.PostCreatedTotal.Inc()
	log.Info().Str("post_id", created.ID.Hex()).Str("user_id", post.UserID).Msg("Post created")
	return &models.PostView{Post: *created}, nil
}

func (s *postService) ListPosts(ctx context.Context, viewerID uuid.UUID, page, limit int64) ([]models.PostView, error) {
	return s.listPosts(ctx, viewerID, bson.M{}, page, limit)
}

func (s *postService) ListUserPosts(ctx context.Context, viewerID, authorID uuid.UUID, page, limit int64) ([]models.PostView, error) {
	return s.listPosts(ctx, viewerID, bson.M{"user_id": authorID.String()}, page, limit)
}

func (s *postService) listPosts(ctx context.Context, viewerID uuid.UUID, filter bson.M, page, limit int64) ([]models.PostView, error) {
	page, limit = normalizePage(page, limit)
	posts, err := s.posts.Find(ctx, filter, limit, page)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.view(ctx, viewerID, p)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// normalizePage defaults a missing page or limit and caps the limit.
func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func (s *postService) GetPost(ctx context.Context, viewerID uuid.UUID, postID primitive.ObjectID) (*models.PostView, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewerID, *post)
}

func (s *postService) UpdatePost(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, content string) (*models.PostView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "Post content cannot be empty")
	}
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{"content": content, "updated_at": s.now()}}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": postID, "user_id": userID.String()}, update)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrNotFound
	}
	return s.GetPost(ctx, userID, postID)
}

// DeletePost removes the post together with its comments, likes and saves.
func (s *postService) DeletePost(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) error {
	if _, err := s.ownedPost(ctx, userID, postID); err != nil {
		return err
	}

	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": postID, "user_id": userID.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}

	if _, err := s.comments.DeleteByPost(ctx, postID); err != nil {
		return err
	}
	if _, err := s.likes.DeleteByPost(ctx, postID); err != nil {
		return err
	}
	if _, err := s.saves.DeleteByPost(ctx, postID); err != nil {
		return err
	}

	log.Info().Str("post_id", postID.Hex()).Str("user_id", userID.String()).Msg("Post deleted")
	return nil
}

func (s *postService) ToggleLike(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (bool, error) {
	return s.toggle(ctx, s.likes, "like", userID, postID)
}

func (s *postService) SetLike(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, liked bool) error {
	return s.set(ctx, s.likes, "like", userID, postID, liked)
}

func (s *postService) ToggleSave(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (bool, error) {
	return s.toggle(ctx, s.saves, "save", userID, postID)
}

func (s *postService) SetSave(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, saved bool) error {
	return s.set(ctx, s.saves, "save", userID, postID, saved)
}

// toggle relies on the unique (user, post) index: a failed insert means the
// engagement exists and is removed instead.
func (s *postService) toggle(ctx context.Context, repo repositories.EngagementRepository, kind string, userID uuid.UUID, postID primitive.ObjectID) (bool, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return false, err
	}

	_, created, err := repo.Add(ctx, userID.String(), postID)
	if err != nil {
		return false, err
	}
	if created {
		metrics.EngagementChangesTotal.WithLabelValues(kind, "add").Inc()
		return true, nil
	}

	if _, err := repo.Remove(ctx, userID.String(), postID); err != nil {
		return false, err
	}
	metrics.EngagementChangesTotal.WithLabelValues(kind, "remove").Inc()
	return false, nil
}

func (s *postService) set(ctx context.Context, repo repositories.EngagementRepository, kind string, userID uuid.UUID, postID primitive.ObjectID, on bool) error {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return err
	}

	if on {
		_, created, err := repo.Add(ctx, userID.String(), postID)
		if err == nil && created {
			metrics.EngagementChangesTotal.WithLabelValues(kind, "add").Inc()
		}
		return err
	}

	removed, err := repo.Remove(ctx, userID.String(), postID)
	if err == nil && removed {
		metrics.EngagementChangesTotal.WithLabelValues(kind, "remove").Inc()
	}
	return err
}

func (s *postService) ListSaved(ctx context.Context, userID uuid.UUID) ([]models.SavedPostView, error) {
	saved, err := s.saves.FindByUser(ctx, userID.String())
	if err != nil {
		return nil, err
	}

	out := make([]models.SavedPostView, 0, len(saved))
	for _, e := range saved {
		post, err := s.posts.FindByID(ctx, e.PostID)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		v, err := s.view(ctx, userID, *post)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SavedPostView{ID: e.ID, Post: *v, SavedAt: e.CreatedAt})
	}
	return out, nil
}

func (s *postService) AddComment(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "Comment cannot be empty")
	}
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}

	author, err := s.repos.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment, err := s.comments.Create(ctx, &models.Comment{
		PostID:    postID,
		UserID:    userID.String(),
		Username:  author.Username,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	metrics.CommentCreatedTotal.Inc()
	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.FindByPost(ctx, postID)
}

func (s *postService) GetComment(ctx context.Context, commentID primitive.ObjectID) (*models.Comment, error) {
	return s.comments.FindByID(ctx, commentID)
}

func (s *postService) UpdateComment(ctx context.Context, userID uuid.UUID, commentID primitive.ObjectID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, common.NewValidationError("content", "Comment cannot be empty")
	}
	comment, err := s.ownedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	update := bson.M{"$set": bson.M{"content": content, "updated_at": now}}
	if _, err := s.comments.UpdateOne(ctx, bson.M{"_id": commentID}, update); err != nil {
		return nil, err
	}
	comment.Content = content
	comment.UpdatedAt = now
	return comment, nil
}

func (s *postService) DeleteComment(ctx context.Context, userID uuid.UUID, commentID primitive.ObjectID) error {
	if _, err := s.ownedComment(ctx, userID, commentID); err != nil {
		return err
	}
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": commentID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *postService) view(ctx context.Context, viewerID uuid.UUID, post models.Post) (*models.PostView, error) {
	v := &models.PostView{Post: post}
	var err error

	if v.LikesCount, err = s.likes.CountByPost(ctx, post.ID); err != nil {
		return nil, err
	}
	if v.CommentsCount, err = s.comments.CountByPost(ctx, post.ID); err != nil {
		return nil, err
	}
	if viewerID == uuid.Nil {
		return v, nil
	}
	if v.IsLiked, err = s.likes.Exists(ctx, viewerID.String(), post.ID); err != nil {
		return nil, err
	}
	if v.IsSaved, err = s.saves.Exists(ctx, viewerID.String(), post.ID); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *postService) ownedPost(ctx context.Context, userID uuid.UUID, postID primitive.ObjectID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID.String() {
		return nil, fmt.Errorf("%w: post belongs to another user", common.ErrForbidden)
	}
	return post, nil
}

func (s *postService) ownedComment(ctx context.Context, userID uuid.UUID, commentID primitive.ObjectID) (*models.Comment, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID.String() {
		return nil, fmt.Errorf("%w: comment belongs to another user", common.ErrForbidden)
	}
	return comment, nil
}
