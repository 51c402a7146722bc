package dashboard

import (
	"context"
	"fmt"
	"math"

	auditRepo "sponsorly/database/repository/audit"
	billingRepo "sponsorly/database/repository/billing"
	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	marketRepo "sponsorly/database/repository/marketplace"
	messageRepo "sponsorly/database/repository/message"
	orgRepo "sponsorly/database/repository/organization"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

const (
	recentAuditEntries = 10
	topMatches         = 5
)

// MatchSource supplies ranked matches for either side.
type MatchSource interface {
	MatchesForSponsor(ctx context.Context, sponsorID string, limit int) ([]models.Match, error)
	MatchesForCreator(ctx context.Context, creatorID string, limit int) ([]models.Match, error)
}

// DashboardService builds the role-specific overview pages.
type DashboardService interface {
	Admin(ctx context.Context) (*models.AdminDashboard, error)
	Creator(ctx context.Context, userID string) (*models.CreatorDashboard, error)
	Sponsor(ctx context.Context, userID string) (*models.SponsorDashboard, error)
	// ForUser picks the dashboard matching role.
	ForUser(ctx context.Context, userID string, role models.Role) (any, error)
}

// DefaultDashboardService implements DashboardService.
type DefaultDashboardService struct {
	Users     userRepo.UserRepository
	Orgs      orgRepo.OrganizationRepository
	Campaigns campaignRepo.CampaignRepository
	Sponsors  sponsorRepo.SponsorRepository
	Creators  creatorRepo.CreatorRepository
	Market    marketRepo.MarketplaceRepository
	Billing   billingRepo.BillingRepository
	Audit     auditRepo.AuditRepository
	Messages  messageRepo.MessageRepository
	Matches   MatchSource
}

func (s *DefaultDashboardService) ForUser(ctx context.Context, userID string, role models.Role) (any, error) {
	switch role {
	case models.RoleAdmin:
		return s.Admin(ctx)
	case models.RoleCreator:
		return s.Creator(ctx, userID)
	case models.RoleSponsor:
		return s.Sponsor(ctx, userID)
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

func (s *DefaultDashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	d := &models.AdminDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.UsersByRole, err = s.Users.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveUsers, err = s.Users.CountByStatus(gctx, models.UserStatusActive)
		return err
	})
	g.Go(func() (err error) {
		d.Organizations, err = s.Orgs.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveCampaigns, err = s.Campaigns.Count(gctx, models.CampaignQuery{Status: models.CampaignActive})
		return err
	})
	g.Go(func() (err error) {
		d.ReportsSold, err = s.Market.CountPurchases(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.CreditsSold, err = s.Billing.CreditsSold(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentAudit, err = s.Audit.Latest(gctx, recentAuditEntries)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("admin dashboard: %w", err)
	}
	if d.RecentAudit == nil {
		d.RecentAudit = []models.AuditLog{}
	}
	return d, nil
}

func (s *DefaultDashboardService) Creator(ctx context.Context, userID string) (*models.CreatorDashboard, error) {
	creator, err := s.Creators.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &models.CreatorDashboard{
		TotalFollowers: creator.TotalFollowers,
		EngagementRate: creator.EngagementRate,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		campaigns, err := s.Campaigns.ListAll(gctx, models.CampaignQuery{CreatorID: creator.ID})
		if err != nil {
			return err
		}
		var roi []float64
		for _, c := range campaigns {
			switch c.Status {
			case models.CampaignActive:
				d.ActiveCampaigns++
			case models.CampaignCompleted:
				d.CompletedCampaigns++
				roi = append(roi, c.ROI())
			}
		}
		d.AvgROI = mean(roi)
		return nil
	})
	g.Go(func() (err error) {
		d.UnreadMessages, err = s.Messages.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.TopMatches, err = s.Matches.MatchesForCreator(gctx, creator.ID, topMatches)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("creator dashboard: %w", err)
	}
	if d.TopMatches == nil {
		d.TopMatches = []models.Match{}
	}
	return d, nil
}

func (s *DefaultDashboardService) Sponsor(ctx context.Context, userID string) (*models.SponsorDashboard, error) {
	sponsor, err := s.Sponsors.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &models.SponsorDashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		campaigns, err := s.Campaigns.ListAll(gctx, models.CampaignQuery{SponsorID: sponsor.ID})
		if err != nil {
			return err
		}
		var roi, roo []float64
		for _, c := range campaigns {
			if c.Status == models.CampaignDraft {
				continue
			}
			if c.Status == models.CampaignActive {
				d.ActiveCampaigns++
			}
			d.TotalSpend += c.Spend
			if c.Spend > 0 {
				roi = append(roi, c.ROI())
			}
			if len(c.Objectives) > 0 {
				roo = append(roo, c.ROO())
			}
		}
		d.TotalSpend = round2(d.TotalSpend)
		d.AvgROI, d.AvgROO = mean(roi), mean(roo)
		return nil
	})
	g.Go(func() error {
		user, err := s.Users.GetByIDWithProjection(gctx, userID, bson.M{"credits": 1})
		if err != nil {
			return err
		}
		d.Credits = user.Credits
		return nil
	})
	g.Go(func() (err error) {
		d.UnreadMessages, err = s.Messages.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.TopMatches, err = s.Matches.MatchesForSponsor(gctx, sponsor.ID, topMatches)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sponsor dashboard: %w", err)
	}
	if d.TopMatches == nil {
		d.TopMatches = []models.Match{}
	}
	return d, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
