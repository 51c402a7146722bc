package orgRepo

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

// MongoOrganizationRepo implements OrganizationRepository using MongoDB.
type MongoOrganizationRepo struct {
	coll *mongo.Collection
}

// NewMongoOrganizationRepo creates the repository and its indexes.
func NewMongoOrganizationRepo() OrganizationRepository {
	repo := &MongoOrganizationRepo{coll: database.DB().Collection("organizations")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create organization indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoOrganizationRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	// nameCi carries the lower-cased name so uniqueness ignores case.
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "nameCi", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts an organization.
func (r *MongoOrganizationRepo) Create(ctx context.Context, org *models.Organization) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	org.CreatedAt, org.UpdatedAt = now, now
	org.NameCI = strings.ToLower(strings.TrimSpace(org.Name))
	if _, err := r.coll.InsertOne(ctx, org); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("organization %q: %w", org.Name, utils.ErrConflict)
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID fetches an organization.
func (r *MongoOrganizationRepo) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var org models.Organization
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&org); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("organization %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch organization %s: %w", id, err)
	}
	return &org, nil
}

// Update sets fields on an organization. A new name also refreshes nameCi.
func (r *MongoOrganizationRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if name, ok := fields["name"].(string); ok {
		fields["nameCi"] = strings.ToLower(strings.TrimSpace(name))
	}
	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("organization name: %w", utils.ErrConflict)
		}
		return fmt.Errorf("failed to update organization %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("organization %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// Delete removes an organization.
func (r *MongoOrganizationRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete organization %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("organization %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// IncrementMembers adjusts memberCount, never below zero.
func (r *MongoOrganizationRepo) IncrementMembers(ctx context.Context, id string, delta int) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	if delta < 0 {
		filter["memberCount"] = bson.M{"$gte": -delta}
	}
	_, err := r.coll.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"memberCount": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("failed to update member count of %s: %w", id, err)
	}
	return nil
}

// Count returns the number of organizations.
func (r *MongoOrganizationRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	return r.coll.CountDocuments(ctx, bson.M{})
}

// BuildListFilter translates an organization query into a Mongo filter.
func BuildListFilter(q models.OrganizationQuery) bson.M {
	filter := bson.M{}
	if strings.TrimSpace(q.Q) != "" {
		filter["$or"] = database.AnyFieldContains(q.Q, "name", "industry")
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	return filter
}

// List returns one page of organizations sorted by name.
func (r *MongoOrganizationRepo) List(ctx context.Context, query models.OrganizationQuery) ([]models.Organization, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildListFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "nameCi", Value: 1}, {Key: "id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer cursor.Close(ctx)

	orgs := []models.Organization{}
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode organizations: %w", err)
	}
	return orgs, total, nil
}
