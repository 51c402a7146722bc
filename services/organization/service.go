package organization

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	orgRepo "sponsorly/database/repository/organization"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// OrganizationService manages organizations and their membership.
type OrganizationService interface {
	List(ctx context.Context, query models.OrganizationQuery) ([]models.Organization, int64, error)
	Get(ctx context.Context, id string) (*models.Organization, error)
	Create(ctx context.Context, org models.Organization) (*models.Organization, error)
	Update(ctx context.Context, id string, patch models.OrganizationUpdate) (*models.Organization, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, orgID, userID string) error
	RemoveMember(ctx context.Context, orgID, userID string) error
}

// DefaultOrganizationService implements OrganizationService.
type DefaultOrganizationService struct {
	Repo  orgRepo.OrganizationRepository
	Users userRepo.UserRepository
}

func (s *DefaultOrganizationService) List(ctx context.Context, query models.OrganizationQuery) ([]models.Organization, int64, error) {
	if query.Type != "" && !query.Type.Valid() {
		return nil, 0, utils.NewValidationError("type", "unknown organization type")
	}
	return s.Repo.List(ctx, query)
}

func (s *DefaultOrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	return s.Repo.GetByID(ctx, id)
}

// Create validates and stores a new organization. Name uniqueness is
// enforced by the repository's case-insensitive index.
func (s *DefaultOrganizationService) Create(ctx context.Context, org models.Organization) (*models.Organization, error) {
	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return nil, utils.NewValidationError("name", "please enter an organization name")
	}
	if org.Type == "" {
		org.Type = models.OrgTypeBrand
	}
	if !org.Type.Valid() {
		return nil, utils.NewValidationError("type", "unknown organization type")
	}
	if err := validateWebsite(org.Website); err != nil {
		return nil, err
	}
	if org.Status == "" {
		org.Status = models.OrgStatusActive
	}
	if !validStatus(org.Status) {
		return nil, utils.NewValidationError("status", "status must be active or suspended")
	}
	if org.PlanID == "" {
		org.PlanID = "free"
	}
	org.ID = uuid.New().String()
	org.MemberCount = 0

	if org.OwnerID != "" {
		if _, err := s.Users.GetByIDWithProjection(ctx, org.OwnerID, nil); err != nil {
			return nil, fmt.Errorf("owner: %w", err)
		}
	}
	if err := s.Repo.Create(ctx, &org); err != nil {
		return nil, err
	}
	if org.OwnerID != "" {
		if err := s.AddMember(ctx, org.ID, org.OwnerID); err != nil {
			utils.GetLogger().Warn("failed to add owner to organization",
				zap.String("orgID", org.ID), zap.Error(err))
		}
	}
	return s.Repo.GetByID(ctx, org.ID)
}

// Update applies a partial update. A rename is propagated to members.
func (s *DefaultOrganizationService) Update(ctx context.Context, id string, patch models.OrganizationUpdate) (*models.Organization, error) {
	current, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	renamed := false
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "please enter an organization name")
		}
		if name != current.Name {
			fields["name"] = name
			renamed = true
		}
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return nil, utils.NewValidationError("type", "unknown organization type")
		}
		fields["type"] = *patch.Type
	}
	if patch.Industry != nil {
		fields["industry"] = strings.TrimSpace(*patch.Industry)
	}
	if patch.Website != nil {
		if err := validateWebsite(*patch.Website); err != nil {
			return nil, err
		}
		fields["website"] = strings.TrimSpace(*patch.Website)
	}
	if patch.PlanID != nil {
		fields["planId"] = *patch.PlanID
	}
	if patch.Status != nil {
		if !validStatus(*patch.Status) {
			return nil, utils.NewValidationError("status", "status must be active or suspended")
		}
		fields["status"] = *patch.Status
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := s.Repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	if renamed {
		n, err := s.Users.RenameOrganization(ctx, id, fields["name"].(string))
		if err != nil {
			return nil, fmt.Errorf("failed to update member organization names: %w", err)
		}
		utils.GetLogger().Info("organization renamed", zap.String("orgID", id), zap.Int64("members", n))
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete removes an empty organization.
func (s *DefaultOrganizationService) Delete(ctx context.Context, id string) error {
	org, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if org.MemberCount > 0 {
		return fmt.Errorf("organization %s still has %d members: %w", id, org.MemberCount, utils.ErrConflict)
	}
	return s.Repo.Delete(ctx, id)
}

// AddMember moves a user into the organization.
func (s *DefaultOrganizationService) AddMember(ctx context.Context, orgID, userID string) error {
	org, err := s.Repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	user, err := s.Users.GetByIDWithProjection(ctx, userID, nil)
	if err != nil {
		return err
	}
	if user.OrganizationID == orgID {
		return nil
	}
	if err := s.Users.SetOrganization(ctx, userID, org.ID, org.Name); err != nil {
		return err
	}
	if user.OrganizationID != "" {
		if err := s.Repo.IncrementMembers(ctx, user.OrganizationID, -1); err != nil {
			utils.GetLogger().Warn("failed to decrement member count", zap.Error(err))
		}
	}
	return s.Repo.IncrementMembers(ctx, orgID, 1)
}

// RemoveMember unlinks a user from the organization.
func (s *DefaultOrganizationService) RemoveMember(ctx context.Context, orgID, userID string) error {
	user, err := s.Users.GetByIDWithProjection(ctx, userID, nil)
	if err != nil {
		return err
	}
	if user.OrganizationID != orgID {
		return fmt.Errorf("user %s is not a member of %s: %w", userID, orgID, utils.ErrNotFound)
	}
	if err := s.Users.SetOrganization(ctx, userID, "", ""); err != nil {
		return err
	}
	return s.Repo.IncrementMembers(ctx, orgID, -1)
}

func validStatus(status string) bool {
	return status == models.OrgStatusActive || status == models.OrgStatusSuspended
}

func validateWebsite(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return utils.NewValidationError("website", "please enter a valid website URL")
	}
	return nil
}
