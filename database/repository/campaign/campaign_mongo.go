package campaignRepo

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

// MongoCampaignRepo implements CampaignRepository using MongoDB.
type MongoCampaignRepo struct {
	coll *mongo.Collection
}

// NewMongoCampaignRepo creates the repository and its indexes.
func NewMongoCampaignRepo() CampaignRepository {
	repo := &MongoCampaignRepo{coll: database.DB().Collection("campaigns")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create campaign indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoCampaignRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sponsorId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "creatorIds", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a campaign.
func (r *MongoCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	campaign.CreatedAt, campaign.UpdatedAt = now, now
	if campaign.CreatorIDs == nil {
		campaign.CreatorIDs = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, campaign); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetByID fetches a campaign.
func (r *MongoCampaignRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var campaign models.Campaign
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&campaign); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("campaign %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch campaign %s: %w", id, err)
	}
	return &campaign, nil
}

// Update sets fields on a campaign.
func (r *MongoCampaignRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update campaign %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("campaign %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// Delete removes a campaign.
func (r *MongoCampaignRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete campaign %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("campaign %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// BuildListFilter translates a campaign query into a Mongo filter.
func BuildListFilter(q models.CampaignQuery) bson.M {
	filter := bson.M{}
	if strings.TrimSpace(q.Q) != "" {
		filter["name"] = database.ContainsCI(q.Q)
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	if q.SponsorID != "" {
		filter["sponsorId"] = q.SponsorID
	}
	if q.CreatorID != "" {
		filter["creatorIds"] = q.CreatorID
	}
	return filter
}

var listSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}

// List returns one page of campaigns, newest first.
func (r *MongoCampaignRepo) List(ctx context.Context, query models.CampaignQuery) ([]models.Campaign, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildListFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	opts := options.Find().SetSort(listSort).SetSkip(page.Skip()).SetLimit(int64(page.PageSize))
	campaigns, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// ListAll returns every matching campaign, newest first.
func (r *MongoCampaignRepo) ListAll(ctx context.Context, query models.CampaignQuery) ([]models.Campaign, error) {
	ctx, cancel := newContext(ctx, 20*time.Second)
	defer cancel()
	return r.find(ctx, BuildListFilter(query), options.Find().SetSort(listSort))
}

func (r *MongoCampaignRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Campaign, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer cursor.Close(ctx)

	campaigns := []models.Campaign{}
	if err := cursor.All(ctx, &campaigns); err != nil {
		return nil, fmt.Errorf("failed to decode campaigns: %w", err)
	}
	return campaigns, nil
}

// Count counts campaigns matching the query.
func (r *MongoCampaignRepo) Count(ctx context.Context, query models.CampaignQuery) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, BuildListFilter(query))
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return n, nil
}

// SponsorStats aggregates campaign count, spend and most recent start for a
// sponsor. Drafts are not counted.
func (r *MongoCampaignRepo) SponsorStats(ctx context.Context, sponsorID string) (SponsorStats, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"sponsorId": sponsorID,
			"status":    bson.M{"$ne": models.CampaignDraft},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sponsorId"},
			{Key: "campaignCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "totalSpend", Value: bson.D{{Key: "$sum", Value: "$spend"}}},
			{Key: "lastCampaignAt", Value: bson.D{{Key: "$max", Value: "$startDate"}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return SponsorStats{}, fmt.Errorf("failed to aggregate sponsor %s: %w", sponsorID, err)
	}
	defer cursor.Close(ctx)

	var stats SponsorStats
	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return SponsorStats{}, fmt.Errorf("failed to decode sponsor stats: %w", err)
		}
	}
	return stats, cursor.Err()
}
