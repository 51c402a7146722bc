package marketplace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/services/storage"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	svc    *DefaultMarketplaceService
	users  *memstore.Users
	ledger *memstore.Billing
	store  *storage.MemoryStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := storage.NewMemoryStorage()
	obj, err := store.Upload(context.Background(), strings.NewReader("report body"), "reports/r1", "gen-z.pdf")
	require.NoError(t, err)

	now := time.Now()
	f := fixture{
		users: memstore.NewUsers(
			models.User{ID: "buyer", Role: models.RoleSponsor, Credits: 100},
			models.User{ID: "poor", Role: models.RoleSponsor, Credits: 10},
			models.User{ID: "admin", Role: models.RoleAdmin, Name: "Ops"},
			models.User{ID: "seller", Role: models.RoleSponsor, Name: "Jo", OrganizationName: "Acme Insights"},
			models.User{ID: "creator", Role: models.RoleCreator},
		),
		ledger: memstore.NewBilling(),
		store:  store,
	}
	f.svc = &DefaultMarketplaceService{
		Repo: memstore.NewMarketplace(
			models.DataReport{ID: "r1", Title: "Gen Z Trends", PriceCredits: 40, TrustScore: 92, Status: models.ReportPublished, FileID: obj.ID, PublishedAt: now},
			models.DataReport{ID: "r2", Title: "Beauty Benchmarks", PriceCredits: 25, TrustScore: 88, Status: models.ReportPublished, PublishedAt: now},
			models.DataReport{ID: "r3", Title: "Old Data", PriceCredits: 5, TrustScore: 99, Status: models.ReportArchived, SellerID: "seller"},
		),
		Users:   f.users,
		Ledger:  f.ledger,
		Storage: store,
	}
	return f
}

func TestListDefaultsToTrustDescending(t *testing.T) {
	f := newFixture(t)
	resp, err := f.svc.List(context.Background(), models.ReportQuery{})
	require.NoError(t, err)
	items := resp.Items.([]models.DataReport)
	require.Len(t, items, 2, "archived reports are hidden")
	assert.Equal(t, "r1", items[0].ID)
	assert.Equal(t, "r2", items[1].ID)

	_, err = f.svc.List(context.Background(), models.ReportQuery{Sort: "cheapest"})
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = f.svc.List(context.Background(), models.ReportQuery{MinTrust: 101})
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestPurchaseChargesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Purchase(ctx, "buyer", "r1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyOwned)
	assert.Equal(t, 60, res.RemainingCredit)

	again, err := f.svc.Purchase(ctx, "buyer", "r1")
	require.NoError(t, err)
	assert.True(t, again.AlreadyOwned)
	assert.Equal(t, res.Purchase.ID, again.Purchase.ID)
	assert.Equal(t, 60, again.RemainingCredit)

	txs, total, err := f.ledger.ListTransactions(ctx, "buyer", models.Page{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, -40, txs[0].Delta)
	assert.Equal(t, models.CreditReasonReportPurchase, txs[0].Reason)

	report, _ := f.svc.Get(ctx, "buyer", models.RoleSponsor, "r1")
	assert.Equal(t, 1, report.Downloads)

	purchases, err := f.svc.ListPurchases(ctx, "buyer")
	require.NoError(t, err)
	assert.Len(t, purchases, 1)
}

func TestPurchaseWithoutEnoughCredits(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Purchase(context.Background(), "poor", "r1")
	require.ErrorIs(t, err, utils.ErrInsufficientCredits)
	u, _ := f.users.GetByID(context.Background(), "poor")
	assert.Equal(t, 10, u.Credits)
}

func TestArchivedReportsCannotBeBought(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Purchase(context.Background(), "buyer", "r3")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.svc.Get(context.Background(), "buyer", models.RoleSponsor, "r3")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = f.svc.Get(context.Background(), "seller", models.RoleSponsor, "r3")
	assert.NoError(t, err)
}

func TestDownloadRequiresPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Download(ctx, "buyer", models.RoleSponsor, "r1")
	require.ErrorIs(t, err, utils.ErrForbidden)

	link, err := f.svc.Download(ctx, "admin", models.RoleAdmin, "r1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "memory://reports/r1/"))

	_, err = f.svc.Purchase(ctx, "buyer", "r1")
	require.NoError(t, err)
	link, err = f.svc.Download(ctx, "buyer", models.RoleSponsor, "r1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DownloadTTL), link.ExpiresAt, time.Minute)
}

func TestPublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Publish(ctx, "creator", models.RoleCreator, models.PublishReportRequest{Title: "x", PriceCredits: 1}, nil, "")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.svc.Publish(ctx, "seller", models.RoleSponsor, models.PublishReportRequest{Title: "  ", PriceCredits: 1}, nil, "")
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = f.svc.Publish(ctx, "seller", models.RoleSponsor, models.PublishReportRequest{Title: "x", PriceCredits: 0}, nil, "")
	assert.ErrorIs(t, err, utils.ErrValidation)

	report, err := f.svc.Publish(ctx, "seller", models.RoleSponsor, models.PublishReportRequest{
		Title:        "Creator Economy 2026",
		PriceCredits: 30,
		TrustScore:   140,
		Tags:         []string{"Creators", "creators", " "},
	}, strings.NewReader("pdf"), "economy.pdf")
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.TrustScore)
	assert.Equal(t, []string{"creators"}, report.Tags)
	assert.Equal(t, "Acme Insights", report.SellerName)
	assert.NotEmpty(t, report.FileID)
	assert.Equal(t, 2, f.store.Len())

	require.ErrorIs(t, f.svc.Archive(ctx, "buyer", models.RoleSponsor, report.ID), utils.ErrForbidden)
	require.NoError(t, f.svc.Archive(ctx, "seller", models.RoleSponsor, report.ID))
	resp, _ := f.svc.List(ctx, models.ReportQuery{})
	assert.EqualValues(t, 2, resp.Total)
}

type rejectingMarketplace struct{ *memstore.Marketplace }

func (rejectingMarketplace) CreateReport(context.Context, *models.DataReport) error {
	return errors.New("write conflict")
}

type undeletableStorage struct{ *storage.MemoryStorage }

func (undeletableStorage) Delete(context.Context, string) error {
	return errors.New("storage offline")
}

func TestPublishRemovesOrphanedFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Repo = rejectingMarketplace{memstore.NewMarketplace()}
	req := models.PublishReportRequest{Title: "Q3 Audiences", PriceCredits: 10}

	_, err := f.svc.Publish(ctx, "seller", models.RoleSponsor, req, strings.NewReader("pdf"), "q3.pdf")
	require.Error(t, err)
	assert.Equal(t, 1, f.store.Len())

	core, logs := observer.New(zap.WarnLevel)
	prev := utils.Logger
	utils.Logger = zap.New(core)
	t.Cleanup(func() { utils.Logger = prev })
	f.svc.Storage = undeletableStorage{f.store}

	_, err = f.svc.Publish(ctx, "seller", models.RoleSponsor, req, strings.NewReader("pdf"), "q3.pdf")
	require.Error(t, err)
	entries := logs.FilterMessage("failed to clean up orphaned report file").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()["storageID"])
	assert.Equal(t, "storage offline", entries[0].ContextMap()["error"])
}
