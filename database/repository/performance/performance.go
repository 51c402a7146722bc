package reportRepo

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

// PerformanceReportRepository stores rendered campaign reports.
type PerformanceReportRepository interface {
	Create(ctx context.Context, report *models.PerformanceReport) error
	GetByID(ctx context.Context, id string) (*models.PerformanceReport, error)
	Update(ctx context.Context, id string, fields bson.M) error
	ListForCampaign(ctx context.Context, campaignID string) ([]models.PerformanceReport, error)
}

// MongoPerformanceReportRepo implements PerformanceReportRepository using MongoDB.
type MongoPerformanceReportRepo struct {
	coll *mongo.Collection
}

// NewMongoPerformanceReportRepo creates the repository and its indexes.
func NewMongoPerformanceReportRepo() PerformanceReportRepository {
	repo := &MongoPerformanceReportRepo{coll: database.DB().Collection("performance_reports")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create performance report indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoPerformanceReportRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create stores a new report record.
func (r *MongoPerformanceReportRepo) Create(ctx context.Context, report *models.PerformanceReport) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to create performance report: %w", err)
	}
	return nil
}

// GetByID fetches a report record.
func (r *MongoPerformanceReportRepo) GetByID(ctx context.Context, id string) (*models.PerformanceReport, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var report models.PerformanceReport
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("performance report %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch performance report %s: %w", id, err)
	}
	return &report, nil
}

// Update sets fields on a report record.
func (r *MongoPerformanceReportRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update performance report %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("performance report %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// ListForCampaign lists the reports of a campaign, newest first.
func (r *MongoPerformanceReportRepo) ListForCampaign(ctx context.Context, campaignID string) ([]models.PerformanceReport, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"campaignId": campaignID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := []models.PerformanceReport{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode performance reports: %w", err)
	}
	return reports, nil
}
