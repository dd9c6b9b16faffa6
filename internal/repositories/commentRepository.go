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

type CommentRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	FindByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter bson.M) (*mongo.DeleteResult, error)
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type commentRepository struct {
	collection *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) CommentRepository {
	return &commentRepository{collection: db.Collection("comments")}
}

func (r *commentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create comment indexes: %w", err)
	}
	return nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (_ *models.Comment, err error) {
	defer trackQuery("create", "comment")(&err)

	result, err := r.collection.InsertOne(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)
	return comment, nil
}

func (r *commentRepository) FindByPost(ctx context.Context, postID primitive.ObjectID) (_ []models.Comment, err error) {
	defer trackQuery("find", "comment")(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err = cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("error decoding comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (_ *models.Comment, err error) {
	defer trackQuery("findOne", "comment")(&err)

	var comment models.Comment
	if err = r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) CountByPost(ctx context.Context, postID primitive.ObjectID) (_ int64, err error) {
	defer trackQuery("count", "comment")(&err)

	n, err := r.collection.CountDocuments(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

func (r *commentRepository) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (_ *mongo.UpdateResult, err error) {
	defer trackQuery("updateOne", "comment")(&err)

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return result, nil
}

func (r *commentRepository) DeleteOne(ctx context.Context, filter bson.M) (_ *mongo.DeleteResult, err error) {
	defer trackQuery("deleteOne", "comment")(&err)

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}
	return result, nil
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (_ int64, err error) {
	defer trackQuery("deleteMany", "comment")(&err)

	result, err := r.collection.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return result.DeletedCount, nil
}
