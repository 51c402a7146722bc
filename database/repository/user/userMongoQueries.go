// File: database/repository/user/userMongoQueries.go
package userRepo

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
)

// GetByIDWithProjection retrieves a user by its ID with an optional projection.
// A nil projection hides credentials.
func (r *MongoUserRepo) GetByIDWithProjection(ctx context.Context, id string, projection bson.M) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne()
	if projection == nil {
		opts.SetProjection(publicProjection)
	} else {
		opts.SetProjection(projection)
	}

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &user, nil
}

// GetByID retrieves the full user document, credentials included.
func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.GetByIDWithProjection(ctx, id, bson.M{})
}

// GetByEmail retrieves a user by email. Lookups are case-insensitive because
// emails are stored lower case.
func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByStripeCustomer retrieves the user owning a Stripe customer ID.
func (r *MongoUserRepo) GetByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"stripeCustomerId": customerID})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user: %w", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// BuildSearchFilter translates a user query into a Mongo filter. The text
// term matches name, email or organization name as a case-insensitive
// substring.
func BuildSearchFilter(q models.UserQuery) bson.M {
	filter := bson.M{}
	if term := strings.TrimSpace(q.Q); term != "" {
		filter["$or"] = database.AnyFieldContains(term, "name", "email", "organizationName")
	}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	return filter
}

// SearchSort orders search results newest first with a stable tie-break.
var SearchSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}

// Search returns one page of users matching the query and the total count.
func (r *MongoUserRepo) Search(ctx context.Context, query models.UserQuery) ([]models.User, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := BuildSearchFilter(query)
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(SearchSort).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, total, nil
}

// CountByRole groups users by role.
func (r *MongoUserRepo) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate users by role: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Role  models.Role `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode role counts: %w", err)
	}
	counts := make(map[models.Role]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// CountByStatus counts users in the given status.
func (r *MongoUserRepo) CountByStatus(ctx context.Context, status models.UserStatus) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s users: %w", status, err)
	}
	return n, nil
}

// ListDigestRecipients returns active users with the weekly digest enabled.
func (r *MongoUserRepo) ListDigestRecipients(ctx context.Context) ([]models.User, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status":                models.UserStatusActive,
		"settings.weeklyDigest": true,
		"role":                  bson.M{"$in": bson.A{models.RoleCreator, models.RoleSponsor}},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(publicProjection))
	if err != nil {
		return nil, fmt.Errorf("failed to list digest recipients: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode digest recipients: %w", err)
	}
	return users, nil
}
