package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"sponsorly/config"
	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	customers int
	sessions  []CheckoutRequest
	failWith  error
	eventType stripe.EventType
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	if g.failWith != nil {
		return "", g.failWith
	}
	g.customers++
	return "cus_new", nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*stripe.CheckoutSession, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.sessions = append(g.sessions, req)
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.test/cs_1"}, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID, _ string) (*stripe.BillingPortalSession, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	return &stripe.BillingPortalSession{URL: "https://billing.stripe.test/" + customerID}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if signature != "valid" {
		return stripe.Event{}, errors.New("bad signature")
	}
	return stripe.Event{ID: "evt_1", Type: g.eventType, Data: &stripe.EventData{Raw: json.RawMessage(payload)}}, nil
}

func newTestService(users ...models.User) (*DefaultBillingService, *fakeGateway, *memstore.Users, *memstore.Billing) {
	gw := &fakeGateway{}
	userStore := memstore.NewUsers(users...)
	repo := memstore.NewBilling(models.CreditPackage{ID: "pack-100", Name: "100 credits", Credits: 100, BonusCredits: 10, StripePriceID: "price_pack"})
	cfg := config.Config{StripePriceStarter: "price_starter", StripePricePro: "price_pro", StripePriceBusiness: "price_business"}
	return &DefaultBillingService{
		Repo:      repo,
		Users:     userStore,
		Gateway:   gw,
		Catalog:   Plans(cfg),
		ReturnURL: "http://localhost/settings",
	}, gw, userStore, repo
}

func TestSubscriptionCheckoutCreatesCustomerOnce(t *testing.T) {
	svc, gw, users, _ := newTestService(models.User{ID: "u1", Email: "a@b.co", Name: "A", PlanID: PlanFree})
	ctx := context.Background()

	resp, err := svc.CreateSubscriptionCheckout(ctx, "u1", PlanPro)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", resp.URL)

	_, err = svc.CreateSubscriptionCheckout(ctx, "u1", PlanStarter)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.customers)

	u, _ := users.GetByID(ctx, "u1")
	assert.Equal(t, "cus_new", u.StripeCustomerID)

	require.Len(t, gw.sessions, 2)
	first := gw.sessions[0]
	assert.Equal(t, stripe.CheckoutSessionModeSubscription, first.Mode)
	assert.Equal(t, "price_pro", first.PriceID)
	assert.Equal(t, map[string]string{"kind": "subscription", "planId": "pro", "userId": "u1"}, first.Metadata)
}

func TestSubscriptionCheckoutRejectsFreeAndUnknownPlans(t *testing.T) {
	svc, _, _, _ := newTestService(models.User{ID: "u1"})
	for _, plan := range []string{PlanFree, "platinum", ""} {
		_, err := svc.CreateSubscriptionCheckout(context.Background(), "u1", plan)
		assert.ErrorIs(t, err, utils.ErrValidation, plan)
	}
}

func TestStripeFailureIsMaskedAsUpstream(t *testing.T) {
	svc, gw, _, _ := newTestService(models.User{ID: "u1", StripeCustomerID: "cus_1"})
	gw.failWith = errors.New("connection reset")

	_, err := svc.CreateSubscriptionCheckout(context.Background(), "u1", PlanPro)
	require.ErrorIs(t, err, utils.ErrUpstream)
	assert.NotContains(t, err.Error(), "connection reset")

	_, err = svc.CreatePortalSession(context.Background(), "u1")
	assert.ErrorIs(t, err, utils.ErrUpstream)
}

func TestPortalRequiresBillingAccount(t *testing.T) {
	svc, _, _, _ := newTestService(
		models.User{ID: "u1"},
		models.User{ID: "u2", StripeCustomerID: "cus_2"},
	)
	_, err := svc.CreatePortalSession(context.Background(), "u1")
	var verr *utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "no billing account found", verr.Message)

	resp, err := svc.CreatePortalSession(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.test/cus_2", resp.URL)
}

func TestCreditWebhookCreditsExactlyOnce(t *testing.T) {
	svc, gw, users, repo := newTestService(models.User{ID: "u1", Credits: 5})
	ctx := context.Background()
	gw.eventType = stripe.EventTypeCheckoutSessionCompleted
	payload := []byte(`{"id":"cs_9","customer":"cus_1","metadata":{"kind":"credits","packageId":"pack-100","userId":"u1"}}`)

	require.NoError(t, svc.HandleWebhook(ctx, payload, "valid"))
	require.NoError(t, svc.HandleWebhook(ctx, payload, "valid"))

	u, _ := users.GetByID(ctx, "u1")
	assert.Equal(t, 115, u.Credits)
	sold, _ := repo.CreditsSold(ctx)
	assert.EqualValues(t, 110, sold)
}

// unstableUsers fails the first failures calls to AdjustCredits.
type unstableUsers struct {
	*memstore.Users
	failures int
}

func (u *unstableUsers) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	if u.failures > 0 {
		u.failures--
		return 0, errors.New("connection reset")
	}
	return u.Users.AdjustCredits(ctx, id, delta)
}

func TestCreditWebhookRetryAfterFailedCredit(t *testing.T) {
	svc, gw, users, repo := newTestService(models.User{ID: "u1", Credits: 5})
	svc.Users = &unstableUsers{Users: users, failures: 1}
	ctx := context.Background()
	gw.eventType = stripe.EventTypeCheckoutSessionCompleted
	payload := []byte(`{"id":"cs_10","customer":"cus_1","metadata":{"kind":"credits","packageId":"pack-100","userId":"u1"}}`)

	require.Error(t, svc.HandleWebhook(ctx, payload, "valid"))
	txs, total, err := repo.ListTransactions(ctx, "u1", models.Page{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txs)

	require.NoError(t, svc.HandleWebhook(ctx, payload, "valid"))
	require.NoError(t, svc.HandleWebhook(ctx, payload, "valid"))

	u, _ := users.GetByID(ctx, "u1")
	assert.Equal(t, 115, u.Credits)
	_, total, _ = repo.ListTransactions(ctx, "u1", models.Page{Page: 1, PageSize: 10})
	assert.EqualValues(t, 1, total)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _, _ := newTestService()
	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "forged")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestSubscriptionLifecycle(t *testing.T) {
	svc, gw, users, _ := newTestService(models.User{ID: "u1", PlanID: PlanFree})
	ctx := context.Background()

	gw.eventType = stripe.EventTypeCheckoutSessionCompleted
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{"id":"cs_2","customer":"cus_1","subscription":"sub_1","metadata":{"kind":"subscription","planId":"pro","userId":"u1"}}`), "valid"))
	u, _ := users.GetByID(ctx, "u1")
	assert.Equal(t, PlanPro, u.PlanID)
	assert.Equal(t, 250, u.Credits)

	gw.eventType = stripe.EventTypeCustomerSubscriptionUpdated
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{"id":"sub_1","customer":"cus_1","status":"active","current_period_end":1767225600,"items":{"data":[{"price":{"id":"price_business"}}]}}`), "valid"))
	u, _ = users.GetByID(ctx, "u1")
	assert.Equal(t, PlanBusiness, u.PlanID)

	sub, err := svc.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanBusiness, sub.PlanID)
	assert.Equal(t, int64(1767225600), sub.CurrentPeriodEnd.Unix())

	gw.eventType = stripe.EventTypeCustomerSubscriptionDeleted
	require.NoError(t, svc.HandleWebhook(ctx, []byte(`{"id":"sub_1","customer":"cus_1","status":"active"}`), "valid"))
	u, _ = users.GetByID(ctx, "u1")
	assert.Equal(t, PlanFree, u.PlanID)
}

func TestUnknownEventsAreAcknowledged(t *testing.T) {
	svc, gw, _, _ := newTestService()
	gw.eventType = "invoice.paid"
	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{}`), "valid"))
}

func TestGetSubscriptionFallsBackToUserPlan(t *testing.T) {
	svc, _, _, _ := newTestService(models.User{ID: "u1"})
	sub, err := svc.GetSubscription(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PlanFree, sub.PlanID)
}

func TestCampaignLimit(t *testing.T) {
	assert.Equal(t, 1, CampaignLimit(PlanFree))
	assert.Equal(t, 25, CampaignLimit(PlanPro))
	assert.Equal(t, 0, CampaignLimit(PlanBusiness))
	assert.Equal(t, 1, CampaignLimit("unknown"))
}
