package orgRepo

import (
	"context"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// OrganizationRepository defines methods for organization data access.
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	Update(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, query models.OrganizationQuery) ([]models.Organization, int64, error)
	IncrementMembers(ctx context.Context, id string, delta int) error
	Count(ctx context.Context) (int64, error)
}
