package creatorRepo

import (
	"context"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CreatorRepository defines methods for creator profile data access.
type CreatorRepository interface {
	Create(ctx context.Context, creator *models.Creator) error
	GetByID(ctx context.Context, id string) (*models.Creator, error)
	GetByUserID(ctx context.Context, userID string) (*models.Creator, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Creator, error)
	Update(ctx context.Context, id string, fields bson.M) error
	DeleteByUserID(ctx context.Context, userID string) error
	// List returns one page of creators using a stored sort.
	List(ctx context.Context, query models.CreatorQuery) ([]models.Creator, int64, error)
	// ListMatching returns every creator matching the query filters, unsorted.
	ListMatching(ctx context.Context, query models.CreatorQuery) ([]models.Creator, error)
	AddAsset(ctx context.Context, creatorID string, asset models.MediaAsset) error
	RemoveAsset(ctx context.Context, creatorID, assetID string) error
}
