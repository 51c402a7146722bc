package campaignRepo

import (
	"context"
	"time"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// SponsorStats are the campaign aggregates RFM scoring needs.
type SponsorStats struct {
	CampaignCount  int       `bson:"campaignCount"`
	TotalSpend     float64   `bson:"totalSpend"`
	LastCampaignAt time.Time `bson:"lastCampaignAt"`
}

// CampaignRepository defines methods for campaign data access.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	// List returns one page of campaigns matching the query.
	List(ctx context.Context, query models.CampaignQuery) ([]models.Campaign, int64, error)
	// ListAll returns every campaign matching the query, unpaginated.
	ListAll(ctx context.Context, query models.CampaignQuery) ([]models.Campaign, error)
	Count(ctx context.Context, query models.CampaignQuery) (int64, error)
	SponsorStats(ctx context.Context, sponsorID string) (SponsorStats, error)
}
