package auditRepo

import (
	"context"
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

// AuditRepository defines methods for audit log storage.
type AuditRepository interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query models.AuditQuery) ([]models.AuditLog, int64, error)
	Latest(ctx context.Context, n int) ([]models.AuditLog, error)
}

// MongoAuditRepo implements AuditRepository using MongoDB.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates the repository and its indexes.
func NewMongoAuditRepo() AuditRepository {
	repo := &MongoAuditRepo{coll: database.DB().Collection("audit_logs")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create audit indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoAuditRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "actorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "resourceType", Value: 1}, {Key: "resourceId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert stores an audit entry.
func (r *MongoAuditRepo) Insert(ctx context.Context, entry *models.AuditLog) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// BuildListFilter translates an audit query into a Mongo filter. The action
// filter is a prefix match so "user." selects every user action.
func BuildListFilter(q models.AuditQuery) bson.M {
	filter := bson.M{}
	if strings.TrimSpace(q.Q) != "" {
		filter["$or"] = database.AnyFieldContains(q.Q, "actorEmail", "action")
	}
	if q.ActorID != "" {
		filter["actorId"] = q.ActorID
	}
	if q.Action != "" {
		filter["action"] = database.HasPrefix(q.Action)
	}
	if q.ResourceType != "" {
		filter["resourceType"] = q.ResourceType
	}
	if q.Severity != "" {
		filter["severity"] = q.Severity
	}
	created := bson.M{}
	if !q.From.IsZero() {
		created["$gte"] = q.From
	}
	if !q.To.IsZero() {
		created["$lte"] = q.To
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}
	return filter
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}

// List returns one page of audit entries, newest first.
func (r *MongoAuditRepo) List(ctx context.Context, query models.AuditQuery) ([]models.AuditLog, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildListFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	opts := options.Find().SetSort(newestFirst).SetSkip(page.Skip()).SetLimit(int64(page.PageSize))
	entries, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Latest returns the n most recent entries.
func (r *MongoAuditRepo) Latest(ctx context.Context, n int) ([]models.AuditLog, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst).SetLimit(int64(n)))
}

func (r *MongoAuditRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.AuditLog, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.AuditLog{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}
	return entries, nil
}
