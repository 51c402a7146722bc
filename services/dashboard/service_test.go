package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatches struct {
	err   error
	limit int
}

func (s *stubMatches) MatchesForSponsor(_ context.Context, sponsorID string, limit int) ([]models.Match, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return []models.Match{{Counterpart: "c1", Top: true}}, nil
}

func (s *stubMatches) MatchesForCreator(_ context.Context, creatorID string, limit int) ([]models.Match, error) {
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func newTestService(matches MatchSource) *DefaultDashboardService {
	campaigns := memstore.NewCampaigns(
		models.Campaign{ID: "a", SponsorID: "s1", CreatorIDs: []string{"c1"}, Status: models.CampaignActive, Spend: 100, Revenue: 200,
			Objectives: []models.Objective{{Name: "reach", Target: 10, Achieved: 5}}},
		models.Campaign{ID: "b", SponsorID: "s1", CreatorIDs: []string{"c1"}, Status: models.CampaignCompleted, Spend: 100, Revenue: 100},
		models.Campaign{ID: "c", SponsorID: "s1", Status: models.CampaignDraft, Spend: 999},
	)
	audit := &memstore.AuditLogs{}
	for i := 0; i < 12; i++ {
		audit.Entries = append(audit.Entries, models.AuditLog{ID: fmt.Sprint(i), Action: "user.update", CreatedAt: time.Now().Add(time.Duration(i) * time.Minute)})
	}
	messages := &memstore.Messages{}
	_ = messages.Insert(context.Background(), &models.Message{ID: "m1", ToUserID: "su1"})

	return &DefaultDashboardService{
		Users: memstore.NewUsers(
			models.User{ID: "admin", Role: models.RoleAdmin, Status: models.UserStatusActive},
			models.User{ID: "su1", Role: models.RoleSponsor, Status: models.UserStatusActive, Credits: 42},
			models.User{ID: "cu1", Role: models.RoleCreator, Status: models.UserStatusSuspended},
		),
		Orgs:      memstore.NewOrganizations(models.Organization{ID: "o1", Name: "Acme"}),
		Campaigns: campaigns,
		Sponsors:  memstore.NewSponsors(models.Sponsor{ID: "s1", UserID: "su1"}),
		Creators:  memstore.NewCreators(models.Creator{ID: "c1", UserID: "cu1", TotalFollowers: 5000, EngagementRate: 0.05}),
		Market:    memstore.NewMarketplace(),
		Billing:   memstore.NewBilling(),
		Audit:     audit,
		Messages:  messages,
		Matches:   matches,
	}
}

func TestAdminDashboard(t *testing.T) {
	d, err := newTestService(&stubMatches{}).Admin(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.UsersByRole[models.RoleCreator])
	assert.EqualValues(t, 2, d.ActiveUsers)
	assert.EqualValues(t, 1, d.Organizations)
	assert.EqualValues(t, 1, d.ActiveCampaigns)
	assert.Len(t, d.RecentAudit, recentAuditEntries)
	assert.Equal(t, "11", d.RecentAudit[0].ID)
}

func TestSponsorDashboard(t *testing.T) {
	matches := &stubMatches{}
	d, err := newTestService(matches).Sponsor(context.Background(), "su1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.ActiveCampaigns)
	assert.Equal(t, 200.0, d.TotalSpend, "drafts do not count")
	assert.Equal(t, 50.0, d.AvgROI)
	assert.Equal(t, 50.0, d.AvgROO)
	assert.Equal(t, 42, d.Credits)
	assert.EqualValues(t, 1, d.UnreadMessages)
	assert.Len(t, d.TopMatches, 1)
	assert.Equal(t, topMatches, matches.limit)
}

func TestCreatorDashboard(t *testing.T) {
	d, err := newTestService(&stubMatches{}).Creator(context.Background(), "cu1")
	require.NoError(t, err)
	assert.EqualValues(t, 5000, d.TotalFollowers)
	assert.EqualValues(t, 1, d.ActiveCampaigns)
	assert.EqualValues(t, 1, d.CompletedCampaigns)
	assert.Equal(t, 0.0, d.AvgROI)
	assert.Equal(t, []models.Match{}, d.TopMatches)
}

func TestDashboardSectionErrorFailsTheWhole(t *testing.T) {
	boom := errors.New("cache down")
	_, err := newTestService(&stubMatches{err: boom}).Sponsor(context.Background(), "su1")
	assert.ErrorIs(t, err, boom)
}

func TestForUserRoutesByRole(t *testing.T) {
	svc := newTestService(&stubMatches{})
	d, err := svc.ForUser(context.Background(), "admin", models.RoleAdmin)
	require.NoError(t, err)
	assert.IsType(t, &models.AdminDashboard{}, d)
	_, err = svc.ForUser(context.Background(), "x", "guest")
	assert.Error(t, err)
}
