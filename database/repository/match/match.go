package matchRepo

import (
	"context"
	"fmt"
	"time"

	"sponsorly/database"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DecisionRepository stores what users chose to do with suggested matches.
type DecisionRepository interface {
	// Upsert records the decision of one side about a sponsor/creator pair.
	Upsert(ctx context.Context, decision *models.MatchDecision) error
	// ForSide returns the decisions a side made, keyed by counterpart ID.
	ForSide(ctx context.Context, side models.Role, ownerID string) (map[string]string, error)
}

// MongoDecisionRepo implements DecisionRepository using MongoDB.
type MongoDecisionRepo struct {
	coll *mongo.Collection
}

// NewMongoDecisionRepo creates the repository and its indexes.
func NewMongoDecisionRepo() DecisionRepository {
	repo := &MongoDecisionRepo{coll: database.DB().Collection("match_decisions")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to create match decision indexes", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoDecisionRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "side", Value: 1}, {Key: "sponsorId", Value: 1}, {Key: "creatorId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Upsert records a decision, replacing the previous one for the same pair and side.
func (r *MongoDecisionRepo) Upsert(ctx context.Context, decision *models.MatchDecision) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	decision.UpdatedAt = time.Now()
	filter := bson.M{"side": decision.Side, "sponsorId": decision.SponsorID, "creatorId": decision.CreatorID}
	update := bson.M{
		"$set":         bson.M{"status": decision.Status, "updatedAt": decision.UpdatedAt},
		"$setOnInsert": bson.M{"id": uuid.New().String()},
	}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to save match decision: %w", err)
	}
	return nil
}

// ForSide returns counterpart ID → decision status for one owner.
func (r *MongoDecisionRepo) ForSide(ctx context.Context, side models.Role, ownerID string) (map[string]string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	ownerField := "sponsorId"
	if side == models.RoleCreator {
		ownerField = "creatorId"
	}
	cursor, err := r.coll.Find(ctx, bson.M{"side": side, ownerField: ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to load match decisions: %w", err)
	}
	defer cursor.Close(ctx)

	var decisions []models.MatchDecision
	if err := cursor.All(ctx, &decisions); err != nil {
		return nil, fmt.Errorf("failed to decode match decisions: %w", err)
	}
	out := make(map[string]string, len(decisions))
	for _, d := range decisions {
		if side == models.RoleCreator {
			out[d.SponsorID] = d.Status
		} else {
			out[d.CreatorID] = d.Status
		}
	}
	return out, nil
}
