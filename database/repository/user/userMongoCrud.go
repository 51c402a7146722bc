// File: database/repository/user/userMongoCrud.go
package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new user document.
func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, utils.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update sets fields on the user with the given ID.
func (r *MongoUserRepo) Update(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", id, utils.ErrConflict)
		}
		return fmt.Errorf("failed to update user with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// Delete removes a user document by its ID.
func (r *MongoUserRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user with id %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// AdjustCredits applies delta atomically. Debits are conditional on the
// balance so credits never go negative.
func (r *MongoUserRepo) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	if delta < 0 {
		filter["credits"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"credits": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"credits": 1})

	var updated models.User
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if delta < 0 {
			// Either the user is gone or the balance is short.
			if _, getErr := r.GetByIDWithProjection(ctx, id, bson.M{"id": 1}); getErr != nil {
				return 0, getErr
			}
			return 0, utils.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("user %s: %w", id, utils.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust credits for %s: %w", id, err)
	}
	return updated.Credits, nil
}

// SetOrganization links or unlinks a user's organization.
func (r *MongoUserRepo) SetOrganization(ctx context.Context, userID, orgID, orgName string) error {
	return r.Update(ctx, userID, bson.M{
		"organizationId":   orgID,
		"organizationName": orgName,
	})
}

// RenameOrganization keeps the denormalized organization name in sync.
func (r *MongoUserRepo) RenameOrganization(ctx context.Context, orgID, name string) (int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	result, err := r.coll.UpdateMany(ctx,
		bson.M{"organizationId": orgID},
		bson.M{"$set": bson.M{"organizationName": name, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to rename organization %s on members: %w", orgID, err)
	}
	return result.ModifiedCount, nil
}
