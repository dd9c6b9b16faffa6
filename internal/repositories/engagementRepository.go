package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"konnectia/internal/models"
)

const (
	LikesCollection      = "likes"
	SavedPostsCollection = "saved_posts"
)

// EngagementRepository stores at most one record per (user, post), backed
// by a unique index. Likes and saved posts each get their own collection.
type EngagementRepository interface {
	EnsureIndexes(ctx context.Context) error
	Add(ctx context.Context, userID string, postID primitive.ObjectID) (*models.Engagement, bool, error)
	Remove(ctx context.Context, userID string, postID primitive.ObjectID) (bool, error)
	Exists(ctx context.Context, userID string, postID primitive.ObjectID) (bool, error)
	CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
	FindByUser(ctx context.Context, userID string) ([]models.Engagement, error)
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type engagementRepository struct {
	collection *mongo.Collection
	name       string
}

func NewEngagementRepository(db *mongo.Database, collection string) EngagementRepository {
	return &engagementRepository{collection: db.Collection(collection), name: collection}
}

func (r *engagementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "post_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "post_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", r.name, err)
	}
	return nil
}

// Add inserts the record and reports whether it was created. An existing
// record for the pair is returned as created=false without error.
func (r *engagementRepository) Add(ctx context.Context, userID string, postID primitive.ObjectID) (_ *models.Engagement, created bool, err error) {
	defer trackQuery("insertOne", r.name)(&err)

	e := &models.Engagement{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err = r.collection.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to add %s: %w", r.name, err)
	}
	return e, true, nil
}

func (r *engagementRepository) Remove(ctx context.Context, userID string, postID primitive.ObjectID) (_ bool, err error) {
	defer trackQuery("deleteOne", r.name)(&err)

	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	if err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", r.name, err)
	}
	return result.DeletedCount > 0, nil
}

func (r *engagementRepository) Exists(ctx context.Context, userID string, postID primitive.ObjectID) (_ bool, err error) {
	defer trackQuery("count", r.name)(&err)

	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "post_id": postID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", r.name, err)
	}
	return n > 0, nil
}

func (r *engagementRepository) CountByPost(ctx context.Context, postID primitive.ObjectID) (_ int64, err error) {
	defer trackQuery("count", r.name)(&err)

	n, err := r.collection.CountDocuments(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.name, err)
	}
	return n, nil
}

func (r *engagementRepository) FindByUser(ctx context.Context, userID string) (_ []models.Engagement, err error) {
	defer trackQuery("find", r.name)(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", r.name, err)
	}
	defer cursor.Close(ctx)

	out := []models.Engagement{}
	if err = cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", r.name, err)
	}
	return out, nil
}

func (r *engagementRepository) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (_ int64, err error) {
	defer trackQuery("deleteMany", r.name)(&err)

	result, err := r.collection.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s: %w", r.name, err)
	}
	return result.DeletedCount, nil
}
