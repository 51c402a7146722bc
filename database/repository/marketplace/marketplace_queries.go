package marketRepo

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

// BuildListFilter selects published reports matching the query.
func BuildListFilter(q models.ReportQuery) bson.M {
	filter := bson.M{"status": models.ReportPublished}
	if strings.TrimSpace(q.Q) != "" {
		filter["$or"] = database.AnyFieldContains(q.Q, "title", "description", "tags")
	}
	if q.Category != "" {
		filter["category"] = database.EqualsCI(q.Category)
	}
	if q.MinTrust > 0 {
		filter["trustScore"] = bson.M{"$gte": q.MinTrust}
	}
	if q.MaxPrice > 0 {
		filter["priceCredits"] = bson.M{"$lte": q.MaxPrice}
	}
	return filter
}

// BuildSort maps a marketplace sort key to a Mongo sort. Trust score
// descending is the default; every order breaks ties by ID.
func BuildSort(key string) bson.D {
	var primary bson.E
	switch key {
	case models.ReportSortPriceAsc:
		primary = bson.E{Key: "priceCredits", Value: 1}
	case models.ReportSortPriceDesc:
		primary = bson.E{Key: "priceCredits", Value: -1}
	case models.ReportSortRating:
		primary = bson.E{Key: "rating", Value: -1}
	case models.ReportSortNewest:
		primary = bson.E{Key: "publishedAt", Value: -1}
	case models.ReportSortPopular:
		primary = bson.E{Key: "downloads", Value: -1}
	default:
		primary = bson.E{Key: "trustScore", Value: -1}
	}
	return bson.D{primary, {Key: "id", Value: 1}}
}

// ListReports returns one page of published reports.
func (r *MongoMarketplaceRepo) ListReports(ctx context.Context, query models.ReportQuery) ([]models.DataReport, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildListFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.reports.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}
	opts := options.Find().
		SetSort(BuildSort(query.Sort)).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize)).
		SetProjection(bson.M{"fileId": 0})
	cursor, err := r.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.DataReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, 0, fmt.Errorf("failed to decode reports: %w", err)
	}
	return reports, total, nil
}
