package campaign

import (
	"context"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/services/sponsor"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CampaignServiceSuite struct {
	suite.Suite
	ctx      context.Context
	svc      *DefaultCampaignService
	sponsors *memstore.Sponsors
	creators *memstore.Creators
}

func (s *CampaignServiceSuite) SetupTest() {
	s.ctx = context.Background()
	users := memstore.NewUsers(
		models.User{ID: "admin", Role: models.RoleAdmin},
		models.User{ID: "su1", Role: models.RoleSponsor, PlanID: "free", OrganizationID: "org-1"},
		models.User{ID: "su2", Role: models.RoleSponsor, PlanID: "business"},
		models.User{ID: "cu1", Role: models.RoleCreator},
		models.User{ID: "cu2", Role: models.RoleCreator},
	)
	s.sponsors = memstore.NewSponsors(
		models.Sponsor{ID: "s1", UserID: "su1", Name: "Acme"},
		models.Sponsor{ID: "s2", UserID: "su2", Name: "Globex"},
	)
	s.creators = memstore.NewCreators(
		models.Creator{ID: "c1", UserID: "cu1", Handle: "one"},
		models.Creator{ID: "c2", UserID: "cu2", Handle: "two"},
	)
	campaigns := memstore.NewCampaigns()
	s.svc = &DefaultCampaignService{
		Repo:     campaigns,
		Sponsors: s.sponsors,
		Creators: s.creators,
		Users:    users,
		RFM:      &sponsor.DefaultSponsorService{Repo: s.sponsors, Campaigns: campaigns},
	}
}

func TestCampaignServiceSuite(t *testing.T) {
	suite.Run(t, new(CampaignServiceSuite))
}

func (s *CampaignServiceSuite) create(userID string, role models.Role, req models.CampaignCreate) *models.CampaignView {
	view, err := s.svc.Create(s.ctx, userID, role, req)
	s.Require().NoError(err)
	return view
}

func (s *CampaignServiceSuite) TestCreateDefaultsToDraftAndScopesSponsor() {
	view := s.create("su1", models.RoleSponsor, models.CampaignCreate{Name: " Launch ", SponsorID: "s2", CreatorIDs: []string{"c1", "c1"}})
	s.Equal("Launch", view.Name)
	s.Equal("s1", view.SponsorID, "sponsors cannot create for someone else")
	s.Equal(models.CampaignDraft, view.Status)
	s.Equal([]string{"c1"}, view.CreatorIDs)
	s.Equal("org-1", view.OrganizationID)
}

func (s *CampaignServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, "cu1", models.RoleCreator, models.CampaignCreate{Name: "x"})
	s.ErrorIs(err, utils.ErrForbidden)

	_, err = s.svc.Create(s.ctx, "admin", models.RoleAdmin, models.CampaignCreate{Name: "x"})
	s.ErrorIs(err, utils.ErrValidation)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.svc.Create(s.ctx, "su1", models.RoleSponsor, models.CampaignCreate{Name: "x", StartDate: start, EndDate: start.Add(-time.Hour)})
	s.ErrorIs(err, utils.ErrValidation)

	_, err = s.svc.Create(s.ctx, "su1", models.RoleSponsor, models.CampaignCreate{Name: "x", Budget: -1})
	s.ErrorIs(err, utils.ErrValidation)

	_, err = s.svc.Create(s.ctx, "su1", models.RoleSponsor, models.CampaignCreate{Name: "x", CreatorIDs: []string{"ghost"}})
	s.ErrorIs(err, utils.ErrValidation)

	_, err = s.svc.Create(s.ctx, "su1", models.RoleSponsor, models.CampaignCreate{Name: "x", Status: models.CampaignCompleted})
	s.ErrorIs(err, utils.ErrValidation)
}

func (s *CampaignServiceSuite) TestStatusTransitions() {
	view := s.create("su2", models.RoleSponsor, models.CampaignCreate{Name: "Flow"})
	step := func(to models.CampaignStatus) error {
		_, err := s.svc.Update(s.ctx, "su2", models.RoleSponsor, view.ID, models.CampaignUpdate{Status: &to})
		return err
	}
	s.ErrorIs(step(models.CampaignCompleted), utils.ErrValidation, "draft cannot complete")
	s.ErrorIs(step(models.CampaignPaused), utils.ErrValidation, "draft cannot pause")
	s.NoError(step(models.CampaignActive))
	s.NoError(step(models.CampaignPaused))
	s.NoError(step(models.CampaignActive))
	s.NoError(step(models.CampaignPaused))
	s.NoError(step(models.CampaignCompleted))
	s.ErrorIs(step(models.CampaignActive), utils.ErrValidation, "completed is final")
	s.ErrorIs(step(models.CampaignDraft), utils.ErrValidation)
}

func (s *CampaignServiceSuite) TestFreePlanAllowsOneActiveCampaign() {
	s.create("su1", models.RoleSponsor, models.CampaignCreate{Name: "First", Status: models.CampaignActive})
	_, err := s.svc.Create(s.ctx, "su1", models.RoleSponsor, models.CampaignCreate{Name: "Second", Status: models.CampaignActive})
	s.ErrorIs(err, utils.ErrValidation)

	draft := s.create("su1", models.RoleSponsor, models.CampaignCreate{Name: "Third"})
	active := models.CampaignActive
	_, err = s.svc.Update(s.ctx, "su1", models.RoleSponsor, draft.ID, models.CampaignUpdate{Status: &active})
	s.ErrorIs(err, utils.ErrValidation)
}

func (s *CampaignServiceSuite) TestRoleScoping() {
	mine := s.create("su1", models.RoleSponsor, models.CampaignCreate{Name: "Mine", CreatorIDs: []string{"c1"}})
	s.create("su2", models.RoleSponsor, models.CampaignCreate{Name: "Theirs", CreatorIDs: []string{"c2"}})

	list, err := s.svc.List(s.ctx, "su1", models.RoleSponsor, models.CampaignQuery{SponsorID: "s2"})
	s.Require().NoError(err)
	s.EqualValues(1, list.Total)

	list, err = s.svc.List(s.ctx, "admin", models.RoleAdmin, models.CampaignQuery{})
	s.Require().NoError(err)
	s.EqualValues(2, list.Total)

	list, err = s.svc.List(s.ctx, "cu1", models.RoleCreator, models.CampaignQuery{})
	s.Require().NoError(err)
	s.Require().EqualValues(1, list.Total)
	s.Equal("Mine", list.Items.([]models.CampaignView)[0].Name)

	_, err = s.svc.Get(s.ctx, "cu1", models.RoleCreator, mine.ID)
	s.NoError(err)
	_, err = s.svc.Get(s.ctx, "su2", models.RoleSponsor, mine.ID)
	s.ErrorIs(err, utils.ErrForbidden)
	_, err = s.svc.Get(s.ctx, "cu2", models.RoleCreator, mine.ID)
	s.ErrorIs(err, utils.ErrForbidden)

	name := "Hijack"
	_, err = s.svc.Update(s.ctx, "cu1", models.RoleCreator, mine.ID, models.CampaignUpdate{Name: &name})
	s.ErrorIs(err, utils.ErrForbidden, "creators are read-only")
	s.ErrorIs(s.svc.Delete(s.ctx, "su2", models.RoleSponsor, mine.ID), utils.ErrForbidden)
	s.NoError(s.svc.Delete(s.ctx, "admin", models.RoleAdmin, mine.ID))

	_, err = s.svc.List(s.ctx, "su1", models.RoleSponsor, models.CampaignQuery{Status: "archived"})
	s.ErrorIs(err, utils.ErrValidation)
}

func (s *CampaignServiceSuite) TestUpdateReturnsDerivedMetrics() {
	view := s.create("su2", models.RoleSponsor, models.CampaignCreate{
		Name:       "Metrics",
		CreatorIDs: []string{"c1"},
		Objectives: []models.Objective{{Name: "signups", Target: 100, Achieved: 50}},
	})
	spend, revenue := 1000.0, 1500.0
	metrics := models.CampaignMetrics{Impressions: 10000, Clicks: 250, Conversions: 25}
	updated, err := s.svc.Update(s.ctx, "su2", models.RoleSponsor, view.ID, models.CampaignUpdate{Spend: &spend, Revenue: &revenue, Metrics: &metrics})
	s.Require().NoError(err)
	s.Equal(50.0, updated.ROIPercent)
	s.Equal(50.0, updated.ROOPercent)
	s.Equal(0.025, updated.CTRRate)
	s.Equal(0.1, updated.ConvRate)
}

func (s *CampaignServiceSuite) TestSavingRefreshesSponsorAndCreatorStats() {
	view := s.create("su2", models.RoleSponsor, models.CampaignCreate{Name: "Stats", CreatorIDs: []string{"c1"}, StartDate: time.Now()})
	active, completed := models.CampaignActive, models.CampaignCompleted
	spend, revenue := 200.0, 300.0
	_, err := s.svc.Update(s.ctx, "su2", models.RoleSponsor, view.ID, models.CampaignUpdate{Status: &active, Spend: &spend, Revenue: &revenue})
	s.Require().NoError(err)

	sp, _ := s.sponsors.GetByID(s.ctx, "s2")
	s.Equal(1, sp.CampaignCount)
	s.Equal(200.0, sp.TotalSpend)
	s.NotEmpty(sp.RFM.Segment)

	_, err = s.svc.Update(s.ctx, "su2", models.RoleSponsor, view.ID, models.CampaignUpdate{Status: &completed})
	s.Require().NoError(err)
	c1, _ := s.creators.GetByID(s.ctx, "c1")
	s.Equal(1, c1.CompletedCampaigns)
	s.Equal(50.0, c1.AvgROI)
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, union([]string{"a", " ", "b"}, []string{"b", "c", "a"}))
	require.Empty(t, union(nil, nil))
}
