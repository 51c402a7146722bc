package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", utils.ErrUnauthorized)

// Register validates the sign-up form, creates the account and its sponsor or
// creator profile, and signs the user in.
func (s *DefaultUserService) Register(ctx context.Context, req models.RegistrationRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.NewValidationError("name", "please enter your name")
	}
	if req.Role != models.RoleCreator && req.Role != models.RoleSponsor {
		return nil, utils.NewValidationError("role", "role must be creator or sponsor")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %s is already registered: %w", email, utils.ErrConflict)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       models.UserStatusActive,
		PlanID:       "free",
		Settings:     models.DefaultUserSettings(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.createProfile(ctx, user); err != nil {
		// Roll the account back so the email can be reused.
		if delErr := s.Repo.Delete(ctx, user.ID); delErr != nil {
			utils.GetLogger().Error("failed to roll back user after profile error",
				zap.String("userID", user.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create %s profile: %w", user.Role, err)
	}

	utils.GetLogger().Info("user registered", zap.String("userID", user.ID), zap.String("role", string(user.Role)))
	return s.issueToken(ctx, user)
}

func (s *DefaultUserService) createProfile(ctx context.Context, user *models.User) error {
	switch user.Role {
	case models.RoleSponsor:
		return s.Sponsors.Create(ctx, &models.Sponsor{
			ID:     uuid.New().String(),
			UserID: user.ID,
			Name:   user.Name,
			RFM:    models.RFMScore{Recency: 1, Frequency: 1, Monetary: 1, Segment: models.SegmentLost},
		})
	case models.RoleCreator:
		id := uuid.New().String()
		return s.Creators.Create(ctx, &models.Creator{
			ID:          id,
			UserID:      user.ID,
			Handle:      handleFor(user.Name, id),
			DisplayName: user.Name,
		})
	}
	return nil
}

// Authenticate verifies credentials and issues a new token.
func (s *DefaultUserService) Authenticate(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		utils.GetLogger().Error("Authenticate: failed to fetch user", zap.Error(err))
		return nil, fmt.Errorf("authentication failed, please try again: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	if user.Status == models.UserStatusSuspended {
		return nil, fmt.Errorf("account suspended: %w", utils.ErrForbidden)
	}
	return s.issueToken(ctx, user)
}

// issueToken signs a token, stores its hash on the user and warms the cache.
func (s *DefaultUserService) issueToken(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role), utils.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate auth token: %w", err)
	}
	tokenHash := utils.HashToken(token)
	if err := s.Repo.Update(ctx, user.ID, bson.M{"tokenHash": tokenHash, "lastLoginAt": time.Now()}); err != nil {
		return nil, fmt.Errorf("failed to store token hash: %w", err)
	}
	s.cacheToken(ctx, user.ID, tokenHash, user.Role)

	return &models.AuthResponse{
		ID:     user.ID,
		Token:  token,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		PlanID: user.PlanID,
	}, nil
}

// Logout revokes the current token.
func (s *DefaultUserService) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.Update(ctx, userID, bson.M{"tokenHash": ""}); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.evictToken(ctx, userID)
	return nil
}

// ResolveSession checks the cache first and falls back to the stored hash.
func (s *DefaultUserService) ResolveSession(ctx context.Context, userID, tokenHash string) (models.Role, error) {
	if s.AuthCache != nil {
		cached, err := s.AuthCache.Get(ctx, utils.AuthCacheKey(userID)).Result()
		switch {
		case err == nil:
			if hash, role, ok := strings.Cut(cached, ":"); ok && hash == tokenHash {
				return models.Role(role), nil
			}
		case !errors.Is(err, redis.Nil):
			utils.GetLogger().Warn("auth cache unavailable", zap.Error(err))
		}
	}

	user, err := s.Repo.GetByIDWithProjection(ctx, userID, bson.M{"tokenHash": 1, "role": 1, "status": 1})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return "", utils.ErrUnauthorized
		}
		return "", err
	}
	if user.TokenHash == "" || user.TokenHash != tokenHash {
		return "", fmt.Errorf("token revoked: %w", utils.ErrUnauthorized)
	}
	if user.Status == models.UserStatusSuspended {
		return "", fmt.Errorf("account suspended: %w", utils.ErrForbidden)
	}
	s.cacheToken(ctx, userID, tokenHash, user.Role)
	return user.Role, nil
}
