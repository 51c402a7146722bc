package messageRepo

import (
	"context"
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

// MessageRepository defines methods for direct message storage.
type MessageRepository interface {
	Insert(ctx context.Context, msg *models.Message) error
	Inbox(ctx context.Context, userID string, page models.Page) ([]models.Message, int64, error)
	Sent(ctx context.Context, userID string, page models.Page) ([]models.Message, int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// MongoMessageRepo implements MessageRepository using MongoDB.
type MongoMessageRepo struct {
	coll *mongo.Collection
}

// NewMongoMessageRepo creates the repository and its indexes.
func NewMongoMessageRepo() MessageRepository {
	repo := &MongoMessageRepo{coll: database.DB().Collection("messages")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create message indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoMessageRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "toUserId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "fromUserId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Insert stores a message.
func (r *MongoMessageRepo) Insert(ctx context.Context, msg *models.Message) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// Inbox lists messages received by a user, newest first.
func (r *MongoMessageRepo) Inbox(ctx context.Context, userID string, page models.Page) ([]models.Message, int64, error) {
	return r.list(ctx, bson.M{"toUserId": userID}, page)
}

// Sent lists messages sent by a user, newest first.
func (r *MongoMessageRepo) Sent(ctx context.Context, userID string, page models.Page) ([]models.Message, int64, error) {
	return r.list(ctx, bson.M{"fromUserId": userID}, page)
}

func (r *MongoMessageRepo) list(ctx context.Context, filter bson.M, page models.Page) ([]models.Message, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	msgs := []models.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, total, nil
}

// MarkRead flags a message as read. Only the recipient can do so.
func (r *MongoMessageRepo) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "toUserId": userID},
		bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("message %s: %w", id, utils.ErrNotFound)
	}
	return nil
}

// CountUnread counts unread messages addressed to a user.
func (r *MongoMessageRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"toUserId": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
