package memstore

import (
	"context"
	"testing"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestApplySetHandlesDottedPaths(t *testing.T) {
	u := models.User{ID: "u1", Name: "Ada", Settings: models.UserSettings{Language: "en", Timezone: "UTC"}}
	require.NoError(t, applySet(&u, bson.M{"name": "Ada L", "settings.language": "fr"}))
	assert.Equal(t, "Ada L", u.Name)
	assert.Equal(t, "fr", u.Settings.Language)
	assert.Equal(t, "UTC", u.Settings.Timezone)
}

func TestMarketplaceRejectsDuplicatePurchase(t *testing.T) {
	store := NewMarketplace()
	ctx := context.Background()
	p := models.ReportPurchase{ID: "p1", BuyerID: "b", ReportID: "r"}
	require.NoError(t, store.InsertPurchase(ctx, &p))
	p.ID = "p2"
	assert.ErrorIs(t, store.InsertPurchase(ctx, &p), utils.ErrConflict)
}

func TestBillingLedgerRefIsUnique(t *testing.T) {
	store := NewBilling()
	ctx := context.Background()
	require.NoError(t, store.InsertTransaction(ctx, &models.CreditTransaction{ID: "t1", UserID: "u", Delta: 100, Reason: models.CreditReasonPurchase, Ref: "cs_1"}))
	err := store.InsertTransaction(ctx, &models.CreditTransaction{ID: "t2", UserID: "u", Delta: 100, Reason: models.CreditReasonPurchase, Ref: "cs_1"})
	assert.ErrorIs(t, err, utils.ErrConflict)

	sold, err := store.CreditsSold(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 100, sold)
}

func TestCampaignSponsorStatsSkipsDrafts(t *testing.T) {
	store := NewCampaigns(
		models.Campaign{ID: "c1", SponsorID: "s", Status: models.CampaignDraft, Spend: 500},
		models.Campaign{ID: "c2", SponsorID: "s", Status: models.CampaignActive, Spend: 200},
		models.Campaign{ID: "c3", SponsorID: "s", Status: models.CampaignCompleted, Spend: 300},
	)
	stats, err := store.SponsorStats(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CampaignCount)
	assert.Equal(t, 500.0, stats.TotalSpend)
}
