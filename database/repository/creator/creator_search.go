package creatorRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sponsorly/database"
	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BuildDiscoverFilter translates a discover query into a Mongo filter.
func BuildDiscoverFilter(q models.CreatorQuery) bson.M {
	filter := bson.M{}
	if strings.TrimSpace(q.Q) != "" {
		filter["$or"] = database.AnyFieldContains(q.Q, "displayName", "handle", "niches")
	}
	if q.Niche != "" {
		filter["niches"] = database.EqualsCI(q.Niche)
	}
	if q.Platform != "" {
		filter["platforms.platform"] = database.EqualsCI(q.Platform)
	}
	if q.Region != "" {
		filter["region"] = database.EqualsCI(q.Region)
	}
	if q.MinFollowers > 0 {
		filter["totalFollowers"] = bson.M{"$gte": q.MinFollowers}
	}
	if q.MinEngagement > 0 {
		filter["engagementRate"] = bson.M{"$gte": q.MinEngagement}
	}
	if q.Verified != nil {
		filter["verified"] = *q.Verified
	}
	return filter
}

// BuildSort maps a stored sort key to a Mongo sort. Relevance is ranked in
// memory by the matching engine, so it and unknown keys fall back to followers.
func BuildSort(key string) bson.D {
	switch key {
	case "engagement":
		return bson.D{{Key: "engagementRate", Value: -1}, {Key: "id", Value: 1}}
	case "rating":
		return bson.D{{Key: "rating", Value: -1}, {Key: "id", Value: 1}}
	case "rate":
		return bson.D{{Key: "ratePerPost", Value: 1}, {Key: "id", Value: 1}}
	default:
		return bson.D{{Key: "totalFollowers", Value: -1}, {Key: "id", Value: 1}}
	}
}

// List returns one page of creators.
func (r *MongoCreatorRepo) List(ctx context.Context, query models.CreatorQuery) ([]models.Creator, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildDiscoverFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count creators: %w", err)
	}
	opts := options.Find().SetSort(BuildSort(query.Sort)).SetSkip(page.Skip()).SetLimit(int64(page.PageSize))
	creators, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return creators, total, nil
}

// ListMatching returns every creator that passes the query filters.
func (r *MongoCreatorRepo) ListMatching(ctx context.Context, query models.CreatorQuery) ([]models.Creator, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()
	return r.find(ctx, BuildDiscoverFilter(query), options.Find())
}

func (r *MongoCreatorRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Creator, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	defer cursor.Close(ctx)

	creators := []models.Creator{}
	if err := cursor.All(ctx, &creators); err != nil {
		return nil, fmt.Errorf("failed to decode creators: %w", err)
	}
	return creators, nil
}
