package creatorRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sponsorly/database"
	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCreatorRepo implements CreatorRepository using MongoDB.
type MongoCreatorRepo struct {
	coll *mongo.Collection
}

// NewMongoCreatorRepo creates the repository and its indexes.
func NewMongoCreatorRepo() CreatorRepository {
	repo := &MongoCreatorRepo{coll: database.DB().Collection("creators")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create creator indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoCreatorRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "handle", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "niches", Value: 1}}},
		{Keys: bson.D{{Key: "platforms.platform", Value: 1}}},
		{Keys: bson.D{{Key: "totalFollowers", Value: -1}, {Key: "id", Value: 1}}},
		{Keys: bson.D{{Key: "engagementRate", Value: -1}, {Key: "id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a creator profile with its derived stats filled in.
func (r *MongoCreatorRepo) Create(ctx context.Context, creator *models.Creator) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	creator.CreatedAt, creator.UpdatedAt = now, now
	creator.RefreshStats()
	if creator.Niches == nil {
		creator.Niches = []string{}
	}
	if creator.Platforms == nil {
		creator.Platforms = []models.PlatformStats{}
	}
	if creator.Assets == nil {
		creator.Assets = []models.MediaAsset{}
	}
	if _, err := r.coll.InsertOne(ctx, creator); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("creator handle %q: %w", creator.Handle, utils.ErrConflict)
		}
		return fmt.Errorf("failed to create creator: %w", err)
	}
	return nil
}

// GetByID fetches a creator.
func (r *MongoCreatorRepo) GetByID(ctx context.Context, id string) (*models.Creator, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByUserID fetches the creator profile owned by a user.
func (r *MongoCreatorRepo) GetByUserID(ctx context.Context, userID string) (*models.Creator, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoCreatorRepo) findOne(ctx context.Context, filter bson.M) (*models.Creator, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var creator models.Creator
	if err := r.coll.FindOne(ctx, filter).Decode(&creator); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("creator: %w", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch creator: %w", err)
	}
	return &creator, nil
}

// GetByIDs fetches the creators with the given IDs, in ID order.
func (r *MongoCreatorRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Creator, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()
	if len(ids) == 0 {
		return []models.Creator{}, nil
	}
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
}

// Update sets fields on a creator.
func (r *MongoCreatorRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update creator %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("creator %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// DeleteByUserID removes the creator profile of a deleted user.
func (r *MongoCreatorRepo) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("failed to delete creator of user %s: %w", userID, err)
	}
	return nil
}

// AddAsset appends a media asset to a creator.
func (r *MongoCreatorRepo) AddAsset(ctx context.Context, creatorID string, asset models.MediaAsset) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": creatorID}, bson.M{
		"$push": bson.M{"assets": asset},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to add asset to creator %s: %w", creatorID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("creator %s: %w", creatorID, utils.ErrNotFound)
	}
	return nil
}

// RemoveAsset pulls a media asset from a creator.
func (r *MongoCreatorRepo) RemoveAsset(ctx context.Context, creatorID, assetID string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": creatorID, "assets.id": assetID},
		bson.M{
			"$pull": bson.M{"assets": bson.M{"id": assetID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return fmt.Errorf("failed to remove asset %s: %w", assetID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("asset %s: %w", assetID, utils.ErrNotFound)
	}
	return nil
}
