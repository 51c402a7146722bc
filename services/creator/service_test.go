package creator

import (
	"context"
	"strings"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/services/matching"
	"sponsorly/services/storage"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*DefaultCreatorService, *storage.MemoryStorage) {
	creators := memstore.NewCreators(
		models.Creator{ID: "c1", UserID: "u1", Handle: "fitjo", DisplayName: "Fit Jo", Niches: []string{"fitness"}, RatePerPost: 800,
			Platforms: []models.PlatformStats{{Platform: "instagram", Followers: 50_000, EngagementRate: 0.06}}},
		models.Creator{ID: "c2", UserID: "u2", Handle: "chefmo", DisplayName: "Chef Mo", Niches: []string{"food"}, RatePerPost: 300,
			Platforms: []models.PlatformStats{{Platform: "youtube", Followers: 200_000, EngagementRate: 0.02}}},
		models.Creator{ID: "c3", UserID: "u3", Handle: "gamer", DisplayName: "Gamer", Niches: []string{"gaming"}, RatePerPost: 5000,
			Platforms: []models.PlatformStats{{Platform: "twitch", Followers: 10_000, EngagementRate: 0.09}}},
	)
	sponsors := memstore.NewSponsors(models.Sponsor{ID: "s1", UserID: "su1", Name: "Acme", TargetNiches: []string{"fitness"}, BudgetMax: 1000})
	store := storage.NewMemoryStorage()
	svc := &DefaultCreatorService{
		Repo:     creators,
		Sponsors: sponsors,
		Campaigns: memstore.NewCampaigns(
			models.Campaign{ID: "k1", SponsorID: "s1", CreatorIDs: []string{"c1"}, Status: models.CampaignCompleted, Spend: 1000, Revenue: 3000,
				Objectives: []models.Objective{{Name: "signups", Target: 100, Achieved: 50}}, StartDate: time.Now()},
			models.Campaign{ID: "k2", SponsorID: "s1", CreatorIDs: []string{"c1"}, Status: models.CampaignActive, Spend: 500},
		),
		Ranker:  &matching.DefaultMatchingService{},
		Storage: store,
	}
	return svc, store
}

func ids(t *testing.T, resp *models.ListResponse) []string {
	t.Helper()
	cards, ok := resp.Items.([]models.CreatorCard)
	require.True(t, ok)
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestDiscoverDefaultsToRelevanceForSponsors(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Discover(context.Background(), "su1", models.RoleSponsor, models.CreatorQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Equal(t, "c1", ids(t, resp)[0])
	cards := resp.Items.([]models.CreatorCard)
	require.NotNil(t, cards[0].Match)
	assert.Equal(t, "instagram", cards[0].TopPlatformName)
}

func TestDiscoverDefaultsToFollowersForOthers(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Discover(context.Background(), "admin", models.RoleAdmin, models.CreatorQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1", "c3"}, ids(t, resp))

	resp, err = svc.Discover(context.Background(), "admin", models.RoleAdmin, models.CreatorQuery{Sort: SortRate})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1", "c3"}, ids(t, resp))

	_, err = svc.Discover(context.Background(), "admin", models.RoleAdmin, models.CreatorQuery{Sort: "random"})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestDiscoverRelevancePaginates(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Discover(context.Background(), "su1", models.RoleSponsor, models.CreatorQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, ids(t, resp), 1)
}

func TestDiscoverRelevanceHugePage(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.Discover(context.Background(), "su1", models.RoleSponsor, models.CreatorQuery{Page: 100_000_000_000_000_000, PageSize: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Empty(t, ids(t, resp))
	assert.Equal(t, models.MaxPage, resp.Page)
}

func TestMediaKitIncludesCompletedCampaigns(t *testing.T) {
	svc, _ := newTestService()
	kit, err := svc.GetMediaKit(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, kit.PastCampaigns, 1)
	assert.Equal(t, 200.0, kit.AvgROI)
	assert.Equal(t, 50.0, kit.AvgROO)
	assert.EqualValues(t, 50_000, kit.TotalFollowers)
	assert.NotNil(t, kit.Assets)
}

func TestUpdateMineRefreshesStats(t *testing.T) {
	svc, _ := newTestService()
	platforms := []models.PlatformStats{
		{Platform: "instagram", Followers: 30_000, EngagementRate: 0.05},
		{Platform: "tiktok", Followers: 70_000, EngagementRate: 0.1},
	}
	c, err := svc.UpdateMine(context.Background(), "u1", models.CreatorUpdate{Platforms: &platforms})
	require.NoError(t, err)
	assert.EqualValues(t, 100_000, c.TotalFollowers)
	assert.InDelta(t, 0.085, c.EngagementRate, 1e-9)
	assert.Equal(t, "tiktok", c.TopPlatform())

	bad := []models.PlatformStats{{Platform: "x", EngagementRate: 4}}
	_, err = svc.UpdateMine(context.Background(), "u1", models.CreatorUpdate{Platforms: &bad})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestAssetLifecycle(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	_, err := svc.UploadAsset(ctx, "u1", "hologram", "", "x.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, utils.ErrValidation)

	asset, err := svc.UploadAsset(ctx, "u1", "image", "Cover", "cover.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	c, err := svc.GetProfile(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c.Assets, 1)
	assert.Equal(t, "Cover", c.Assets[0].Title)

	require.NoError(t, svc.RemoveAsset(ctx, "u1", asset.ID))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, svc.RemoveAsset(ctx, "u1", asset.ID), utils.ErrNotFound)
}
