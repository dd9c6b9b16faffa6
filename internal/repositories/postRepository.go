package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"konnectia/internal/common"
	"konnectia/internal/models"
)

type PostRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	Find(ctx context.Context, filter bson.M, limit, page int64) ([]models.Post, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error)
}

type postRepository struct {
	collection *mongo.Collection
}

func NewPostRepository(db *mongo.Database) PostRepository {
	return &postRepository{collection: db.Collection("posts")}
}

func (r *postRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create post indexes: %w", err)
	}
	return nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (_ *models.Post, err error) {
	defer trackQuery("create", "post")(&err)

	result, err := r.collection.InsertOne(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to add post: %w", err)
	}
	post.ID = result.InsertedID.(primitive.ObjectID)
	return post, nil
}

// Find returns one page of posts, newest first. Pages start at 1.
func (r *postRepository) Find(ctx context.Context, filter bson.M, limit, page int64) (_ []models.Post, err error) {
	defer trackQuery("find", "post")(&err)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip((page - 1) * limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("error decoding posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) FindByID(ctx context.Context, id primitive.ObjectID) (_ *models.Post, err error) {
	defer trackQuery("findOne", "post")(&err)

	var post models.Post
	if err = r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (_ *mongo.UpdateResult, err error) {
	defer trackQuery("updateOne", "post")(&err)

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return result, nil
}

func (r *postRepository) DeleteOne(ctx context.Context, filter bson.M) (_ *mongo.DeleteResult, err error) {
	defer trackQuery("deleteOne", "post")(&err)

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to delete post: %w", err)
	}
	return result, nil
}
