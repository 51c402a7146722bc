package sponsor

import (
	"context"
	"fmt"
	"strings"
	"time"

	campaignRepo "sponsorly/database/repository/campaign"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// SponsorService serves sponsor profiles and their RFM segmentation.
type SponsorService interface {
	List(ctx context.Context, query models.SponsorQuery) ([]models.Sponsor, int64, error)
	Get(ctx context.Context, id string) (*models.Sponsor, error)
	GetByUser(ctx context.Context, userID string) (*models.Sponsor, error)
	UpdateMine(ctx context.Context, userID string, patch models.SponsorUpdate) (*models.Sponsor, error)
	// RefreshRFM recomputes campaign aggregates and RFM for one sponsor.
	RefreshRFM(ctx context.Context, sponsorID string) (*models.Sponsor, error)
	// RefreshAllRFM recomputes every sponsor and returns how many changed segment.
	RefreshAllRFM(ctx context.Context) (int, error)
}

// DefaultSponsorService implements SponsorService.
type DefaultSponsorService struct {
	Repo      sponsorRepo.SponsorRepository
	Campaigns campaignRepo.CampaignRepository
	Now       func() time.Time
}

var sortKeys = map[string]bool{"": true, "rating": true, "spend": true, "recent": true, "name": true}

func (s *DefaultSponsorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultSponsorService) List(ctx context.Context, query models.SponsorQuery) ([]models.Sponsor, int64, error) {
	if !sortKeys[query.Sort] {
		return nil, 0, utils.NewValidationError("sort", "sort must be one of rating, spend, recent or name")
	}
	if query.MinBudget < 0 {
		return nil, 0, utils.NewValidationError("minBudget", "minimum budget cannot be negative")
	}
	return s.Repo.List(ctx, query)
}

func (s *DefaultSponsorService) Get(ctx context.Context, id string) (*models.Sponsor, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultSponsorService) GetByUser(ctx context.Context, userID string) (*models.Sponsor, error) {
	return s.Repo.GetByUserID(ctx, userID)
}

// UpdateMine applies a patch to the caller's sponsor profile and rescores it.
func (s *DefaultSponsorService) UpdateMine(ctx context.Context, userID string, patch models.SponsorUpdate) (*models.Sponsor, error) {
	current, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	fields := bson.M{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "please enter a company name")
		}
		fields["name"] = name
	}
	if patch.Industry != nil {
		fields["industry"] = strings.TrimSpace(*patch.Industry)
	}
	if patch.Website != nil {
		fields["website"] = strings.TrimSpace(*patch.Website)
	}
	if patch.LogoURL != nil {
		fields["logoUrl"] = strings.TrimSpace(*patch.LogoURL)
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}

	budgetMin, budgetMax := current.BudgetMin, current.BudgetMax
	if patch.BudgetMin != nil {
		budgetMin = *patch.BudgetMin
		fields["budgetMin"] = budgetMin
	}
	if patch.BudgetMax != nil {
		budgetMax = *patch.BudgetMax
		fields["budgetMax"] = budgetMax
	}
	if budgetMin < 0 || budgetMax < 0 {
		return nil, utils.NewValidationError("budgetMin", "budget cannot be negative")
	}
	if budgetMax > 0 && budgetMin > budgetMax {
		return nil, utils.NewValidationError("budgetMax", "maximum budget must not be below the minimum")
	}
	if patch.TargetNiches != nil {
		fields["targetNiches"] = cleanList(*patch.TargetNiches)
	}
	if patch.TargetRegions != nil {
		fields["targetRegions"] = cleanList(*patch.TargetRegions)
	}
	if len(fields) > 0 {
		if err := s.Repo.Update(ctx, current.ID, fields); err != nil {
			return nil, err
		}
	}
	return s.RefreshRFM(ctx, current.ID)
}

func (s *DefaultSponsorService) RefreshRFM(ctx context.Context, sponsorID string) (*models.Sponsor, error) {
	if _, err := s.rescore(ctx, sponsorID); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, sponsorID)
}

// rescore stores fresh aggregates and RFM and reports whether the segment moved.
func (s *DefaultSponsorService) rescore(ctx context.Context, sponsorID string) (bool, error) {
	current, err := s.Repo.GetByID(ctx, sponsorID)
	if err != nil {
		return false, err
	}
	stats, err := s.Campaigns.SponsorStats(ctx, sponsorID)
	if err != nil {
		return false, fmt.Errorf("failed to load campaign stats: %w", err)
	}
	rfm := ScoreRFM(stats.LastCampaignAt, stats.CampaignCount, stats.TotalSpend, s.now())
	fields := bson.M{
		"campaignCount": stats.CampaignCount,
		"totalSpend":    stats.TotalSpend,
		"rfm":           rfm,
	}
	if !stats.LastCampaignAt.IsZero() {
		fields["lastCampaignAt"] = stats.LastCampaignAt
	}
	if err := s.Repo.Update(ctx, sponsorID, fields); err != nil {
		return false, err
	}
	return current.RFM.Segment != rfm.Segment, nil
}

func (s *DefaultSponsorService) RefreshAllRFM(ctx context.Context) (int, error) {
	sponsors, err := s.Repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, sp := range sponsors {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		moved, err := s.rescore(ctx, sp.ID)
		if err != nil {
			utils.GetLogger().Error("failed to rescore sponsor", zap.String("sponsorID", sp.ID), zap.Error(err))
			continue
		}
		if moved {
			changed++
		}
	}
	utils.GetLogger().Info("RFM refresh complete", zap.Int("sponsors", len(sponsors)), zap.Int("changed", changed))
	return changed, nil
}

// cleanList trims entries and drops empties and case-insensitive duplicates.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
