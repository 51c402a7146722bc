package userRepo

import (
	"context"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// Create inserts a new user record.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByIDWithProjection retrieves a user by its unique ID with a projection.
	GetByIDWithProjection(ctx context.Context, id string, projection bson.M) (*models.User, error)
	// GetByEmail retrieves a user by its email address, including secrets.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByStripeCustomer retrieves the user owning a Stripe customer.
	GetByStripeCustomer(ctx context.Context, customerID string) (*models.User, error)
	// Update sets the given fields on a user.
	Update(ctx context.Context, id string, fields bson.M) error
	// Delete removes a user record by its ID.
	Delete(ctx context.Context, id string) error
	// Search runs the admin user search and returns one page plus the total.
	Search(ctx context.Context, query models.UserQuery) ([]models.User, int64, error)
	// CountByRole counts users per role.
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
	// CountByStatus counts users in a status.
	CountByStatus(ctx context.Context, status models.UserStatus) (int64, error)
	// AdjustCredits adds delta to a user's balance. A negative delta only
	// applies when the balance covers it. Returns the new balance.
	AdjustCredits(ctx context.Context, id string, delta int) (int, error)
	// SetOrganization links a user to an organization; empty IDs unlink.
	SetOrganization(ctx context.Context, userID, orgID, orgName string) error
	// RenameOrganization rewrites the denormalized organization name of members.
	RenameOrganization(ctx context.Context, orgID, name string) (int64, error)
	// ListDigestRecipients returns active users who opted into the weekly digest.
	ListDigestRecipients(ctx context.Context) ([]models.User, error)
}
