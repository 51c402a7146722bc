package sponsorRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsorly/database"
	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoSponsorRepo implements SponsorRepository using MongoDB.
type MongoSponsorRepo struct {
	coll *mongo.Collection
}

// NewMongoSponsorRepo creates the repository and its indexes.
func NewMongoSponsorRepo() SponsorRepository {
	repo := &MongoSponsorRepo{coll: database.DB().Collection("sponsors")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create sponsor indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoSponsorRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "industry", Value: 1}}},
		{Keys: bson.D{{Key: "rfm.segment", Value: 1}}},
		{Keys: bson.D{{Key: "targetNiches", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "id", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a sponsor profile.
func (r *MongoSponsorRepo) Create(ctx context.Context, sponsor *models.Sponsor) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	sponsor.CreatedAt, sponsor.UpdatedAt = now, now
	if sponsor.TargetNiches == nil {
		sponsor.TargetNiches = []string{}
	}
	if sponsor.TargetRegions == nil {
		sponsor.TargetRegions = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, sponsor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("sponsor for user %s: %w", sponsor.UserID, utils.ErrConflict)
		}
		return fmt.Errorf("failed to create sponsor: %w", err)
	}
	return nil
}

// GetByID fetches a sponsor.
func (r *MongoSponsorRepo) GetByID(ctx context.Context, id string) (*models.Sponsor, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

// GetByUserID fetches the sponsor profile owned by a user.
func (r *MongoSponsorRepo) GetByUserID(ctx context.Context, userID string) (*models.Sponsor, error) {
	return r.findOne(ctx, bson.M{"userId": userID})
}

func (r *MongoSponsorRepo) findOne(ctx context.Context, filter bson.M) (*models.Sponsor, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var sponsor models.Sponsor
	if err := r.coll.FindOne(ctx, filter).Decode(&sponsor); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("sponsor: %w", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch sponsor: %w", err)
	}
	return &sponsor, nil
}

// Update sets fields on a sponsor.
func (r *MongoSponsorRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update sponsor %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("sponsor %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// DeleteByUserID removes the sponsor profile of a deleted user.
func (r *MongoSponsorRepo) DeleteByUserID(ctx context.Context, userID string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID}); err != nil {
		return fmt.Errorf("failed to delete sponsor of user %s: %w", userID, err)
	}
	return nil
}

// BuildListFilter translates a sponsor query into a Mongo filter.
func BuildListFilter(q models.SponsorQuery) bson.M {
	filter := bson.M{}
	if strings.TrimSpace(q.Q) != "" {
		filter["$or"] = database.AnyFieldContains(q.Q, "name", "industry")
	}
	if q.Industry != "" {
		filter["industry"] = database.EqualsCI(q.Industry)
	}
	if q.Segment != "" {
		filter["rfm.segment"] = q.Segment
	}
	if q.Niche != "" {
		filter["targetNiches"] = database.ContainsCI(q.Niche)
	}
	if q.MinBudget > 0 {
		filter["budgetMax"] = bson.M{"$gte": q.MinBudget}
	}
	if q.Verified != nil {
		filter["verified"] = *q.Verified
	}
	return filter
}

// BuildSort maps a sort key to a Mongo sort. Unknown keys fall back to rating.
func BuildSort(key string) bson.D {
	switch key {
	case "spend":
		return bson.D{{Key: "totalSpend", Value: -1}, {Key: "id", Value: 1}}
	case "recent":
		return bson.D{{Key: "lastCampaignAt", Value: -1}, {Key: "id", Value: 1}}
	case "name":
		return bson.D{{Key: "name", Value: 1}, {Key: "id", Value: 1}}
	default:
		return bson.D{{Key: "rating", Value: -1}, {Key: "id", Value: 1}}
	}
}

// List returns one page of sponsors.
func (r *MongoSponsorRepo) List(ctx context.Context, query models.SponsorQuery) ([]models.Sponsor, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildListFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sponsors: %w", err)
	}
	opts := options.Find().SetSort(BuildSort(query.Sort)).SetSkip(page.Skip()).SetLimit(int64(page.PageSize))
	sponsors, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return sponsors, total, nil
}

// ListAll returns every sponsor ordered by ID.
func (r *MongoSponsorRepo) ListAll(ctx context.Context) ([]models.Sponsor, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
}

func (r *MongoSponsorRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Sponsor, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsors: %w", err)
	}
	defer cursor.Close(ctx)

	sponsors := []models.Sponsor{}
	if err := cursor.All(ctx, &sponsors); err != nil {
		return nil, fmt.Errorf("failed to decode sponsors: %w", err)
	}
	return sponsors, nil
}
