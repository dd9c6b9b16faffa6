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

const FollowsCollection = "follows"

// FollowRepository stores at most one follow per (follower, followee).
type FollowRepository interface {
	EnsureIndexes(ctx context.Context) error
	Add(ctx context.Context, followerID, followeeID string) (bool, error)
	Remove(ctx context.Context, followerID, followeeID string) (bool, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	CountFollowers(ctx context.Context, userID string) (int64, error)
	CountFollowing(ctx context.Context, userID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type followRepository struct {
	collection *mongo.Collection
}

func NewFollowRepository(db *mongo.Database) FollowRepository {
	return &followRepository{collection: db.Collection(FollowsCollection)}
}

func (r *followRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "follower_id", Value: 1}, {Key: "followee_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "followee_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create follows indexes: %w", err)
	}
	return nil
}

// Add reports whether a new follow was recorded. Following twice is not an
// error.
func (r *followRepository) Add(ctx context.Context, followerID, followeeID string) (_ bool, err error) {
	defer trackQuery("insertOne", FollowsCollection)(&err)

	f := &models.Follow{
		ID:         primitive.NewObjectID(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err = r.collection.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to add follow: %w", err)
	}
	return true, nil
}

func (r *followRepository) Remove(ctx context.Context, followerID, followeeID string) (_ bool, err error) {
	defer trackQuery("deleteOne", FollowsCollection)(&err)

	result, err := r.collection.DeleteOne(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	if err != nil {
		return false, fmt.Errorf("failed to remove follow: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (_ bool, err error) {
	defer trackQuery("count", FollowsCollection)(&err)

	filter := bson.M{"follower_id": followerID, "followee_id": followeeID}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to look up follow: %w", err)
	}
	return n > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"followee_id": userID})
}

func (r *followRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"follower_id": userID})
}

func (r *followRepository) count(ctx context.Context, filter bson.M) (_ int64, err error) {
	defer trackQuery("count", FollowsCollection)(&err)

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count follows: %w", err)
	}
	return n, nil
}

// DeleteByUser removes every follow the user is on either side of.
func (r *followRepository) DeleteByUser(ctx context.Context, userID string) (_ int64, err error) {
	defer trackQuery("deleteMany", FollowsCollection)(&err)

	filter := bson.M{"$or": bson.A{bson.M{"follower_id": userID}, bson.M{"followee_id": userID}}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete follows: %w", err)
	}
	return result.DeletedCount, nil
}
