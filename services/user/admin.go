package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SearchUsers runs the admin user search.
func (s *DefaultUserService) SearchUsers(ctx context.Context, query models.UserQuery) ([]models.User, int64, error) {
	if query.Role != "" && !query.Role.Valid() {
		return nil, 0, utils.NewValidationError("role", "unknown role")
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, 0, utils.NewValidationError("status", "unknown status")
	}
	return s.Repo.Search(ctx, query)
}

// CreateUser lets an admin create an account of any role.
func (s *DefaultUserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.NewValidationError("name", "please enter a name")
	}
	if !req.Role.Valid() {
		return nil, utils.NewValidationError("role", "unknown role")
	}
	status := req.Status
	if status == "" {
		status = models.UserStatusActive
	}
	if !status.Valid() {
		return nil, utils.NewValidationError("status", "unknown status")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := VerifyPasswordComplexity(req.Password); err != nil {
		return nil, err
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
		Status:       status,
		PlanID:       "free",
		Settings:     models.DefaultUserSettings(),
	}
	if req.OrganizationID != "" {
		org, err := s.Orgs.GetByID(ctx, req.OrganizationID)
		if err != nil {
			return nil, err
		}
		user.OrganizationID, user.OrganizationName = org.ID, org.Name
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if user.OrganizationID != "" {
		if err := s.Orgs.IncrementMembers(ctx, user.OrganizationID, 1); err != nil {
			utils.GetLogger().Warn("failed to bump member count", zap.Error(err))
		}
	}
	if err := s.createProfile(ctx, user); err != nil {
		utils.GetLogger().Error("failed to create profile for admin-created user",
			zap.String("userID", user.ID), zap.Error(err))
	}
	return s.GetUser(ctx, user.ID)
}

// UpdateUser applies an admin patch.
func (s *DefaultUserService) UpdateUser(ctx context.Context, actorID, userID string, patch models.UserUpdate) (*models.User, error) {
	current, err := s.Repo.GetByIDWithProjection(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "please enter a name")
		}
		fields["name"] = name
	}
	if patch.Email != nil {
		email, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if patch.AvatarURL != nil {
		fields["avatarUrl"] = strings.TrimSpace(*patch.AvatarURL)
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, utils.NewValidationError("role", "unknown role")
		}
		if actorID == userID && *patch.Role != models.RoleAdmin {
			return nil, utils.NewValidationError("role", "you cannot remove your own admin role")
		}
		fields["role"] = *patch.Role
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, utils.NewValidationError("status", "unknown status")
		}
		if actorID == userID && *patch.Status == models.UserStatusSuspended {
			return nil, utils.NewValidationError("status", "you cannot suspend yourself")
		}
		fields["status"] = *patch.Status
	}
	if patch.OrganizationID != nil && *patch.OrganizationID != current.OrganizationID {
		if err := s.moveOrganization(ctx, current, *patch.OrganizationID); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		if err := s.Repo.Update(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	// Role and status are cached with the session.
	if patch.Role != nil || patch.Status != nil {
		s.evictToken(ctx, userID)
	}
	return s.GetUser(ctx, userID)
}

func (s *DefaultUserService) moveOrganization(ctx context.Context, user *models.User, orgID string) error {
	var orgName string
	if orgID != "" {
		org, err := s.Orgs.GetByID(ctx, orgID)
		if err != nil {
			return err
		}
		orgName = org.Name
	}
	if err := s.Repo.SetOrganization(ctx, user.ID, orgID, orgName); err != nil {
		return err
	}
	if user.OrganizationID != "" {
		if err := s.Orgs.IncrementMembers(ctx, user.OrganizationID, -1); err != nil {
			utils.GetLogger().Warn("failed to decrement member count", zap.Error(err))
		}
	}
	if orgID != "" {
		if err := s.Orgs.IncrementMembers(ctx, orgID, 1); err != nil {
			utils.GetLogger().Warn("failed to increment member count", zap.Error(err))
		}
	}
	return nil
}

// DeleteUser removes an account, its profile and its cached session.
func (s *DefaultUserService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return utils.NewValidationError("id", "you cannot delete your own account")
	}
	user, err := s.Repo.GetByIDWithProjection(ctx, userID, nil)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.evictToken(ctx, userID)

	switch user.Role {
	case models.RoleSponsor:
		err = s.Sponsors.DeleteByUserID(ctx, userID)
	case models.RoleCreator:
		err = s.Creators.DeleteByUserID(ctx, userID)
	}
	if err != nil {
		utils.GetLogger().Warn("failed to delete profile of removed user", zap.String("userID", userID), zap.Error(err))
	}
	if user.OrganizationID != "" {
		if err := s.Orgs.IncrementMembers(ctx, user.OrganizationID, -1); err != nil {
			utils.GetLogger().Warn("failed to decrement member count", zap.Error(err))
		}
	}
	return nil
}

// SetStatus activates or suspends an account. Admins cannot suspend themselves.
func (s *DefaultUserService) SetStatus(ctx context.Context, actorID, userID string, status models.UserStatus) error {
	if !status.Valid() {
		return utils.NewValidationError("status", "unknown status")
	}
	if actorID == userID && status != models.UserStatusActive {
		return utils.NewValidationError("status", "you cannot suspend yourself")
	}
	if err := s.Repo.Update(ctx, userID, bson.M{"status": status}); err != nil {
		return err
	}
	s.evictToken(ctx, userID)
	return nil
}

// EnsureAdmin promotes the account with email to admin if it exists.
func (s *DefaultUserService) EnsureAdmin(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, utils.ErrNotFound) {
		utils.GetLogger().Info("admin bootstrap account not registered yet", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return nil
	}
	if err := s.Repo.Update(ctx, user.ID, bson.M{"role": models.RoleAdmin, "status": models.UserStatusActive}); err != nil {
		return err
	}
	s.evictToken(ctx, user.ID)
	utils.GetLogger().Info("promoted bootstrap admin", zap.String("userID", user.ID))
	return nil
}
