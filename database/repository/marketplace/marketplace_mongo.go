package marketRepo

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

// MongoMarketplaceRepo implements MarketplaceRepository using MongoDB.
type MongoMarketplaceRepo struct {
	reports   *mongo.Collection
	purchases *mongo.Collection
}

// NewMongoMarketplaceRepo creates the repository and its indexes.
func NewMongoMarketplaceRepo() MarketplaceRepository {
	db := database.DB()
	repo := &MongoMarketplaceRepo{
		reports:   db.Collection("data_reports"),
		purchases: db.Collection("report_purchases"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create marketplace indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoMarketplaceRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	reportIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "trustScore", Value: -1}, {Key: "id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	if _, err := r.reports.Indexes().CreateMany(ctx, reportIdx); err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}
	purchaseIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "reportId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.purchases.Indexes().CreateMany(ctx, purchaseIdx); err != nil {
		return fmt.Errorf("failed to create purchase indexes: %w", err)
	}
	return nil
}

// CreateReport inserts a data report.
func (r *MongoMarketplaceRepo) CreateReport(ctx context.Context, report *models.DataReport) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if report.Tags == nil {
		report.Tags = []string{}
	}
	if _, err := r.reports.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport fetches a data report by ID.
func (r *MongoMarketplaceRepo) GetReport(ctx context.Context, id string) (*models.DataReport, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var report models.DataReport
	if err := r.reports.FindOne(ctx, bson.M{"id": id}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("report %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch report %s: %w", id, err)
	}
	return &report, nil
}

// UpdateReport sets fields on a data report.
func (r *MongoMarketplaceRepo) UpdateReport(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.reports.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update report %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("report %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// IncrementDownloads bumps the popularity counter of a report.
func (r *MongoMarketplaceRepo) IncrementDownloads(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.reports.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$inc": bson.M{"downloads": 1}}); err != nil {
		return fmt.Errorf("failed to count download of %s: %w", id, err)
	}
	return nil
}

// GetPurchase returns the purchase of a report by a buyer, or ErrNotFound.
func (r *MongoMarketplaceRepo) GetPurchase(ctx context.Context, buyerID, reportID string) (*models.ReportPurchase, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var purchase models.ReportPurchase
	err := r.purchases.FindOne(ctx, bson.M{"buyerId": buyerID, "reportId": reportID}).Decode(&purchase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("purchase of %s: %w", reportID, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch purchase: %w", err)
	}
	return &purchase, nil
}

// InsertPurchase stores a purchase. The unique buyer/report index turns a
// concurrent second purchase into ErrConflict.
func (r *MongoMarketplaceRepo) InsertPurchase(ctx context.Context, purchase *models.ReportPurchase) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.purchases.InsertOne(ctx, purchase); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("purchase of %s: %w", purchase.ReportID, utils.ErrConflict)
		}
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

// ListPurchases lists a buyer's purchases, newest first.
func (r *MongoMarketplaceRepo) ListPurchases(ctx context.Context, buyerID string) ([]models.ReportPurchase, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.purchases.Find(ctx, bson.M{"buyerId": buyerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer cursor.Close(ctx)

	purchases := []models.ReportPurchase{}
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode purchases: %w", err)
	}
	return purchases, nil
}

// CountPurchases counts every report sale.
func (r *MongoMarketplaceRepo) CountPurchases(ctx context.Context) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	return r.purchases.CountDocuments(ctx, bson.M{})
}
