package billingRepo

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

// BillingRepository stores subscriptions, credit packages and the credit ledger.
type BillingRepository interface {
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error)

	ListPackages(ctx context.Context) ([]models.CreditPackage, error)
	GetPackage(ctx context.Context, id string) (*models.CreditPackage, error)
	UpsertPackage(ctx context.Context, pkg *models.CreditPackage) error

	// InsertTransaction appends to the ledger. A repeated ref fails with
	// utils.ErrConflict, which makes webhook crediting idempotent.
	InsertTransaction(ctx context.Context, tx *models.CreditTransaction) error
	// DeleteTransaction removes the ledger entry with ref so it can be applied again.
	DeleteTransaction(ctx context.Context, ref string) error
	ListTransactions(ctx context.Context, userID string, page models.Page) ([]models.CreditTransaction, int64, error)
	// CreditsSold sums credits granted by package purchases.
	CreditsSold(ctx context.Context) (int64, error)
}

// MongoBillingRepo implements BillingRepository using MongoDB.
type MongoBillingRepo struct {
	subscriptions *mongo.Collection
	packages      *mongo.Collection
	ledger        *mongo.Collection
}

// NewMongoBillingRepo creates the repository and its indexes.
func NewMongoBillingRepo() BillingRepository {
	db := database.DB()
	repo := &MongoBillingRepo{
		subscriptions: db.Collection("subscriptions"),
		packages:      db.Collection("credit_packages"),
		ledger:        db.Collection("credit_transactions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create billing indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoBillingRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	if _, err := r.subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "stripeSubscriptionId", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "updatedAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}
	if _, err := r.packages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "id", Value: 1}}, Options: unique,
	}); err != nil {
		return fmt.Errorf("failed to create package indexes: %w", err)
	}
	if _, err := r.ledger.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ref", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}

// UpsertSubscription writes a subscription keyed by its Stripe subscription ID.
func (r *MongoBillingRepo) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	sub.UpdatedAt = now
	update := bson.M{
		"$set": bson.M{
			"userId":            sub.UserID,
			"planId":            sub.PlanID,
			"status":            sub.Status,
			"stripeCustomerId":  sub.StripeCustomerID,
			"currentPeriodEnd":  sub.CurrentPeriodEnd,
			"cancelAtPeriodEnd": sub.CancelAtPeriodEnd,
			"updatedAt":         now,
		},
		"$setOnInsert": bson.M{"id": sub.ID, "createdAt": now},
	}
	_, err := r.subscriptions.UpdateOne(ctx,
		bson.M{"stripeSubscriptionId": sub.StripeSubscriptionID},
		update,
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	return nil
}

// GetSubscriptionByUser returns the most recently updated subscription of a user.
func (r *MongoBillingRepo) GetSubscriptionByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return r.findSubscription(ctx, bson.M{"userId": userID}, opts)
}

// GetSubscriptionByStripeID returns a subscription by its Stripe ID.
func (r *MongoBillingRepo) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	return r.findSubscription(ctx, bson.M{"stripeSubscriptionId": stripeSubscriptionID}, options.FindOne())
}

func (r *MongoBillingRepo) findSubscription(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Subscription, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var sub models.Subscription
	if err := r.subscriptions.FindOne(ctx, filter, opts).Decode(&sub); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("subscription: %w", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

// ListPackages returns credit packages in display order.
func (r *MongoBillingRepo) ListPackages(ctx context.Context) ([]models.CreditPackage, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.packages.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit packages: %w", err)
	}
	defer cursor.Close(ctx)

	pkgs := []models.CreditPackage{}
	if err := cursor.All(ctx, &pkgs); err != nil {
		return nil, fmt.Errorf("failed to decode credit packages: %w", err)
	}
	return pkgs, nil
}

// GetPackage fetches a credit package.
func (r *MongoBillingRepo) GetPackage(ctx context.Context, id string) (*models.CreditPackage, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var pkg models.CreditPackage
	if err := r.packages.FindOne(ctx, bson.M{"id": id}).Decode(&pkg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("credit package %s: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch credit package %s: %w", id, err)
	}
	return &pkg, nil
}

// UpsertPackage creates or replaces a credit package.
func (r *MongoBillingRepo) UpsertPackage(ctx context.Context, pkg *models.CreditPackage) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	_, err := r.packages.ReplaceOne(ctx, bson.M{"id": pkg.ID}, pkg, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save credit package %s: %w", pkg.ID, err)
	}
	return nil
}

// InsertTransaction appends a ledger entry.
func (r *MongoBillingRepo) InsertTransaction(ctx context.Context, tx *models.CreditTransaction) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.ledger.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("credit transaction %s: %w", tx.Ref, utils.ErrConflict)
		}
		return fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return nil
}

// DeleteTransaction drops the entry with ref. A missing entry is not an error.
func (r *MongoBillingRepo) DeleteTransaction(ctx context.Context, ref string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.ledger.DeleteOne(ctx, bson.M{"ref": ref}); err != nil {
		return fmt.Errorf("failed to delete credit transaction %s: %w", ref, err)
	}
	return nil
}

// ListTransactions lists a user's ledger, newest first.
func (r *MongoBillingRepo) ListTransactions(ctx context.Context, userID string, page models.Page) ([]models.CreditTransaction, int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	filter := bson.M{"userId": userID}
	total, err := r.ledger.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count credit transactions: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.PageSize))
	cursor, err := r.ledger.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list credit transactions: %w", err)
	}
	defer cursor.Close(ctx)

	txs := []models.CreditTransaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode credit transactions: %w", err)
	}
	return txs, total, nil
}

// CreditsSold sums the credits granted by package purchases.
func (r *MongoBillingRepo) CreditsSold(ctx context.Context) (int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reason": models.CreditReasonPurchase}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$delta"}}},
		}}},
	}
	cursor, err := r.ledger.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum credits sold: %w", err)
	}
	defer cursor.Close(ctx)

	var row struct {
		Total int64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&row); err != nil {
			return 0, fmt.Errorf("failed to decode credits sold: %w", err)
		}
	}
	return row.Total, cursor.Err()
}
