package sponsorRepo

import (
	"context"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// SponsorRepository defines methods for sponsor profile data access.
type SponsorRepository interface {
	Create(ctx context.Context, sponsor *models.Sponsor) error
	GetByID(ctx context.Context, id string) (*models.Sponsor, error)
	GetByUserID(ctx context.Context, userID string) (*models.Sponsor, error)
	Update(ctx context.Context, id string, fields bson.M) error
	DeleteByUserID(ctx context.Context, userID string) error
	List(ctx context.Context, query models.SponsorQuery) ([]models.Sponsor, int64, error)
	// ListAll returns every sponsor; used by matching and RFM refresh.
	ListAll(ctx context.Context) ([]models.Sponsor, error)
}
