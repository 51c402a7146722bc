package campaign

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/services/billing"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// RFMRefresher rescores a sponsor after its campaigns change.
type RFMRefresher interface {
	RefreshRFM(ctx context.Context, sponsorID string) (*models.Sponsor, error)
}

// CampaignService manages campaigns scoped to the caller's role.
type CampaignService interface {
	List(ctx context.Context, userID string, role models.Role, query models.CampaignQuery) (*models.ListResponse, error)
	Get(ctx context.Context, userID string, role models.Role, id string) (*models.CampaignView, error)
	Create(ctx context.Context, userID string, role models.Role, req models.CampaignCreate) (*models.CampaignView, error)
	Update(ctx context.Context, userID string, role models.Role, id string, patch models.CampaignUpdate) (*models.CampaignView, error)
	Delete(ctx context.Context, userID string, role models.Role, id string) error
}

// DefaultCampaignService implements CampaignService.
type DefaultCampaignService struct {
	Repo     campaignRepo.CampaignRepository
	Sponsors sponsorRepo.SponsorRepository
	Creators creatorRepo.CreatorRepository
	Users    userRepo.UserRepository
	RFM      RFMRefresher
}

// scope narrows a query to what the caller may see.
func (s *DefaultCampaignService) scope(ctx context.Context, userID string, role models.Role, query *models.CampaignQuery) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleSponsor:
		sponsor, err := s.Sponsors.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		query.SponsorID = sponsor.ID
		return nil
	case models.RoleCreator:
		creator, err := s.Creators.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		query.CreatorID = creator.ID
		return nil
	}
	return utils.ErrForbidden
}

func (s *DefaultCampaignService) List(ctx context.Context, userID string, role models.Role, query models.CampaignQuery) (*models.ListResponse, error) {
	if query.Status != "" && !validStatus(query.Status) {
		return nil, utils.NewValidationError("status", "unknown campaign status")
	}
	if err := s.scope(ctx, userID, role, &query); err != nil {
		return nil, err
	}
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	query.Page, query.PageSize = page.Page, page.PageSize

	campaigns, total, err := s.Repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	views := make([]models.CampaignView, 0, len(campaigns))
	for _, c := range campaigns {
		views = append(views, c.View())
	}
	return &models.ListResponse{Items: views, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// load fetches a campaign and checks the caller may see it. write also
// requires ownership: creators can read but never modify.
func (s *DefaultCampaignService) load(ctx context.Context, userID string, role models.Role, id string, write bool) (*models.Campaign, error) {
	c, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin {
		return c, nil
	}
	query := models.CampaignQuery{}
	if err := s.scope(ctx, userID, role, &query); err != nil {
		return nil, err
	}
	switch {
	case query.SponsorID != "" && query.SponsorID == c.SponsorID:
		return c, nil
	case !write && query.CreatorID != "" && containsID(c.CreatorIDs, query.CreatorID):
		return c, nil
	}
	return nil, fmt.Errorf("campaign %s: %w", id, utils.ErrForbidden)
}

func (s *DefaultCampaignService) Get(ctx context.Context, userID string, role models.Role, id string) (*models.CampaignView, error) {
	c, err := s.load(ctx, userID, role, id, false)
	if err != nil {
		return nil, err
	}
	view := c.View()
	return &view, nil
}

func (s *DefaultCampaignService) Create(ctx context.Context, userID string, role models.Role, req models.CampaignCreate) (*models.CampaignView, error) {
	var sponsor *models.Sponsor
	var err error
	switch role {
	case models.RoleSponsor:
		sponsor, err = s.Sponsors.GetByUserID(ctx, userID)
	case models.RoleAdmin:
		if req.SponsorID == "" {
			return nil, utils.NewValidationError("sponsorId", "please choose a sponsor")
		}
		sponsor, err = s.Sponsors.GetByID(ctx, req.SponsorID)
	default:
		return nil, fmt.Errorf("creators cannot create campaigns: %w", utils.ErrForbidden)
	}
	if err != nil {
		return nil, err
	}

	if req.Status == "" {
		req.Status = models.CampaignDraft
	}
	c := &models.Campaign{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		SponsorID:  sponsor.ID,
		Status:     req.Status,
		Budget:     req.Budget,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Objectives: req.Objectives,
		Metrics:    req.Metrics,
	}
	if c.Objectives == nil {
		c.Objectives = []models.Objective{}
	}
	if c.Name == "" {
		return nil, utils.NewValidationError("name", "please enter a campaign name")
	}
	if c.Status != models.CampaignDraft && c.Status != models.CampaignActive {
		return nil, utils.NewValidationError("status", "new campaigns start as draft or active")
	}
	if c.CreatorIDs, err = s.resolveCreators(ctx, req.CreatorIDs); err != nil {
		return nil, err
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	if c.Status == models.CampaignActive {
		if err := s.checkPlanLimit(ctx, sponsor, ""); err != nil {
			return nil, err
		}
	}
	if user, err := s.Users.GetByIDWithProjection(ctx, sponsor.UserID, bson.M{"organizationId": 1}); err == nil {
		c.OrganizationID = user.OrganizationID
	}

	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	utils.GetLogger().Info("campaign created",
		zap.String("campaignID", c.ID),
		zap.String("sponsorID", c.SponsorID),
		zap.String("status", string(c.Status)))
	s.afterSave(ctx, c)
	view := c.View()
	return &view, nil
}

func (s *DefaultCampaignService) Update(ctx context.Context, userID string, role models.Role, id string, patch models.CampaignUpdate) (*models.CampaignView, error) {
	current, err := s.load(ctx, userID, role, id, true)
	if err != nil {
		return nil, err
	}
	next := *current
	fields := bson.M{}

	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
		if next.Name == "" {
			return nil, utils.NewValidationError("name", "please enter a campaign name")
		}
		fields["name"] = next.Name
	}
	if patch.Status != nil {
		if !validStatus(*patch.Status) {
			return nil, utils.NewValidationError("status", "unknown campaign status")
		}
		if !current.Status.CanTransition(*patch.Status) {
			return nil, utils.NewValidationError("status",
				fmt.Sprintf("a %s campaign cannot become %s", current.Status, *patch.Status))
		}
		next.Status = *patch.Status
		fields["status"] = next.Status
	}
	if patch.CreatorIDs != nil {
		if next.CreatorIDs, err = s.resolveCreators(ctx, *patch.CreatorIDs); err != nil {
			return nil, err
		}
		fields["creatorIds"] = next.CreatorIDs
	}
	if patch.Budget != nil {
		next.Budget = *patch.Budget
		fields["budget"] = next.Budget
	}
	if patch.Spend != nil {
		next.Spend = *patch.Spend
		fields["spend"] = next.Spend
	}
	if patch.Revenue != nil {
		next.Revenue = *patch.Revenue
		fields["revenue"] = next.Revenue
	}
	if patch.StartDate != nil {
		next.StartDate = *patch.StartDate
		fields["startDate"] = next.StartDate
	}
	if patch.EndDate != nil {
		next.EndDate = *patch.EndDate
		fields["endDate"] = next.EndDate
	}
	if patch.Objectives != nil {
		next.Objectives = *patch.Objectives
		fields["objectives"] = next.Objectives
	}
	if patch.Metrics != nil {
		next.Metrics = *patch.Metrics
		fields["metrics"] = next.Metrics
	}
	if len(fields) == 0 {
		view := current.View()
		return &view, nil
	}
	if err := validate(&next); err != nil {
		return nil, err
	}
	if next.Status == models.CampaignActive && current.Status != models.CampaignActive {
		sponsor, err := s.Sponsors.GetByID(ctx, current.SponsorID)
		if err != nil {
			return nil, err
		}
		if err := s.checkPlanLimit(ctx, sponsor, current.ID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.Update(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	next.UpdatedAt = time.Now()
	s.afterSave(ctx, &next)
	if next.Status == models.CampaignCompleted || current.Status == models.CampaignCompleted {
		s.refreshCreators(ctx, union(current.CreatorIDs, next.CreatorIDs))
	}
	view := next.View()
	return &view, nil
}

func (s *DefaultCampaignService) Delete(ctx context.Context, userID string, role models.Role, id string) error {
	c, err := s.load(ctx, userID, role, id, true)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	utils.GetLogger().Info("campaign deleted", zap.String("campaignID", id), zap.String("by", userID))
	s.afterSave(ctx, c)
	if c.Status == models.CampaignCompleted {
		s.refreshCreators(ctx, c.CreatorIDs)
	}
	return nil
}

// checkPlanLimit enforces the sponsor plan's active campaign allowance.
func (s *DefaultCampaignService) checkPlanLimit(ctx context.Context, sponsor *models.Sponsor, excludeID string) error {
	user, err := s.Users.GetByIDWithProjection(ctx, sponsor.UserID, bson.M{"planId": 1})
	if err != nil {
		return err
	}
	limit := billing.CampaignLimit(user.PlanID)
	if limit == 0 {
		return nil
	}
	active, err := s.Repo.ListAll(ctx, models.CampaignQuery{SponsorID: sponsor.ID, Status: models.CampaignActive})
	if err != nil {
		return err
	}
	n := 0
	for _, c := range active {
		if c.ID != excludeID {
			n++
		}
	}
	if n >= limit {
		return utils.NewValidationError("status",
			fmt.Sprintf("your plan allows %d active campaign(s); upgrade to run more", limit))
	}
	return nil
}

func (s *DefaultCampaignService) resolveCreators(ctx context.Context, ids []string) ([]string, error) {
	unique := union(nil, ids)
	if len(unique) == 0 {
		return []string{}, nil
	}
	found, err := s.Creators.GetByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(found) != len(unique) {
		return nil, utils.NewValidationError("creatorIds", "one or more creators do not exist")
	}
	return unique, nil
}

// afterSave rescores the owning sponsor; failures only log.
func (s *DefaultCampaignService) afterSave(ctx context.Context, c *models.Campaign) {
	if s.RFM == nil {
		return
	}
	if _, err := s.RFM.RefreshRFM(ctx, c.SponsorID); err != nil && !errors.Is(err, utils.ErrNotFound) {
		utils.GetLogger().Warn("failed to refresh sponsor RFM", zap.String("sponsorID", c.SponsorID), zap.Error(err))
	}
}

// refreshCreators recomputes completed campaign counts and average ROI.
func (s *DefaultCampaignService) refreshCreators(ctx context.Context, creatorIDs []string) {
	for _, id := range creatorIDs {
		done, err := s.Repo.ListAll(ctx, models.CampaignQuery{CreatorID: id, Status: models.CampaignCompleted})
		if err != nil {
			utils.GetLogger().Warn("failed to load creator campaigns", zap.String("creatorID", id), zap.Error(err))
			continue
		}
		var roi float64
		for _, c := range done {
			roi += c.ROI()
		}
		avg := 0.0
		if len(done) > 0 {
			avg = math.Round(roi/float64(len(done))*100) / 100
		}
		if err := s.Creators.Update(ctx, id, bson.M{"completedCampaigns": len(done), "avgRoi": avg}); err != nil {
			utils.GetLogger().Warn("failed to update creator stats", zap.String("creatorID", id), zap.Error(err))
		}
	}
}

func validate(c *models.Campaign) error {
	if c.Budget < 0 {
		return utils.NewValidationError("budget", "budget cannot be negative")
	}
	if c.Spend < 0 || c.Revenue < 0 {
		return utils.NewValidationError("spend", "spend and revenue cannot be negative")
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return utils.NewValidationError("endDate", "end date cannot be before the start date")
	}
	for _, o := range c.Objectives {
		if strings.TrimSpace(o.Name) == "" {
			return utils.NewValidationError("objectives", "every objective needs a name")
		}
		if o.Target < 0 || o.Achieved < 0 {
			return utils.NewValidationError("objectives", "objective values cannot be negative")
		}
	}
	m := c.Metrics
	if m.Impressions < 0 || m.Clicks < 0 || m.Conversions < 0 || m.Engagements < 0 {
		return utils.NewValidationError("metrics", "metrics cannot be negative")
	}
	return nil
}

func validStatus(s models.CampaignStatus) bool {
	switch s {
	case models.CampaignDraft, models.CampaignActive, models.CampaignPaused, models.CampaignCompleted:
		return true
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// union merges id lists, dropping blanks and duplicates while keeping order.
func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := map[string]bool{}
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
