package user

import (
	"context"

	creatorRepo "sponsorly/database/repository/creator"
	orgRepo "sponsorly/database/repository/organization"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"

	"github.com/go-redis/redis/v8"
)

// UserService defines business logic for accounts, sessions and settings.
type UserService interface {
	// Authentication
	Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error)
	Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	// ResolveSession checks that tokenHash is the user's current token and
	// returns the user's role.
	ResolveSession(ctx context.Context, userID, tokenHash string) (models.Role, error)

	// Self service
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, patch models.SettingsUpdate) (*models.UserSettings, error)

	// Admin
	SearchUsers(ctx context.Context, query models.UserQuery) ([]models.User, int64, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	UpdateUser(ctx context.Context, actorID, userID string, patch models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, userID string) error
	SetStatus(ctx context.Context, actorID, userID string, status models.UserStatus) error
	EnsureAdmin(ctx context.Context, email string) error
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo      userRepo.UserRepository
	Sponsors  sponsorRepo.SponsorRepository
	Creators  creatorRepo.CreatorRepository
	Orgs      orgRepo.OrganizationRepository
	AuthCache *redis.Client
}
