package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sponsorly/models"
	"sponsorly/services/billing"
	"sponsorly/services/marketplace"
	"sponsorly/services/message"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser stands in for JWTAuthMiddleware.
func asUser(id string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Set("role", role)
		c.Next()
	}
}

type fakeBilling struct {
	billing.BillingService
	checkoutErr error
	portalErr   error
	gotPayload  []byte
	gotSig      string
	webhookErr  error
}

func (f *fakeBilling) CreateSubscriptionCheckout(_ context.Context, _, planID string) (*models.RedirectResponse, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return &models.RedirectResponse{URL: "https://checkout.stripe.test/" + planID}, nil
}

func (f *fakeBilling) CreatePortalSession(context.Context, string) (*models.RedirectResponse, error) {
	return nil, f.portalErr
}

func (f *fakeBilling) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.gotPayload, f.gotSig = payload, signature
	return f.webhookErr
}

func billingRouter(svc billing.BillingService) *gin.Engine {
	h := &BillingHandler{Service: svc}
	r := gin.New()
	r.POST("/api/subscriptions/checkout", asUser("u1", models.RoleSponsor), h.CheckoutHandler)
	r.POST("/api/subscriptions/portal", asUser("u1", models.RoleSponsor), h.PortalHandler)
	r.POST("/api/webhooks/stripe", h.WebhookHandler)
	return r
}

func TestCheckoutReturnsRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout", strings.NewReader(`{"planId":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	billingRouter(&fakeBilling{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.test/pro"}`, w.Body.String())
}

func TestCheckoutFallbackMessageOnStripeFailure(t *testing.T) {
	svc := &fakeBilling{checkoutErr: fmt.Errorf("create checkout session: %w", utils.ErrUpstream)}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout", strings.NewReader(`{"planId":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	billingRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), billing.FallbackMessage)
	assert.NotContains(t, w.Body.String(), "create checkout session")
}

func TestCheckoutRequiresPlan(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	billingRouter(&fakeBilling{}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPortalWithoutBillingAccount(t *testing.T) {
	svc := &fakeBilling{portalErr: utils.NewValidationError("", "no billing account found")}
	w := httptest.NewRecorder()
	billingRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/subscriptions/portal", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no billing account found")
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	svc := &fakeBilling{}
	body := `{"id":"evt_1","type":"checkout.session.completed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	w := httptest.NewRecorder()
	billingRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, body, string(svc.gotPayload))
	assert.Equal(t, "t=1,v1=abc", svc.gotSig)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &fakeBilling{webhookErr: utils.NewValidationError("", "invalid webhook signature")}
	w := httptest.NewRecorder()
	billingRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeMessages struct {
	message.MessageService
	sent []models.SendMessageRequest
}

func (f *fakeMessages) Send(_ context.Context, from string, req models.SendMessageRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, utils.NewValidationError("body", "please enter a message")
	}
	f.sent = append(f.sent, req)
	return &models.Message{ID: "m1", FromUserID: from, ToUserID: req.ToUserID, Body: req.Body}, nil
}

func TestSendMessage(t *testing.T) {
	svc := &fakeMessages{}
	h := &MessageHandler{Service: svc}
	r := gin.New()
	r.POST("/api/messages", asUser("u-sponsor", models.RoleSponsor), h.SendHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"toUserId":"u-creator","body":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"please enter a message","field":"body"}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"toUserId":"u-creator","body":"Hi!"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, "u-creator", svc.sent[0].ToUserID)
}

type fakeMarket struct {
	marketplace.MarketplaceService
	published models.PublishReportRequest
	fileBody  string
	filename  string
}

func (f *fakeMarket) Publish(_ context.Context, userID string, _ models.Role, req models.PublishReportRequest, file io.Reader, filename string) (*models.DataReport, error) {
	f.published, f.filename = req, filename
	if file != nil {
		b, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		f.fileBody = string(b)
	}
	return &models.DataReport{ID: "r1", Title: req.Title, SellerID: userID, PriceCredits: req.PriceCredits}, nil
}

func (f *fakeMarket) Purchase(context.Context, string, string) (*models.PurchaseResult, error) {
	return nil, fmt.Errorf("report costs 40 credits: %w", utils.ErrInsufficientCredits)
}

func TestPurchaseWithoutCredits(t *testing.T) {
	h := &MarketplaceHandler{Service: &fakeMarket{}}
	r := gin.New()
	r.POST("/reports/:id/purchase", asUser("u1", models.RoleSponsor), h.PurchaseHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reports/r1/purchase", nil))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestPageParams(t *testing.T) {
	for query, want := range map[string]models.Page{
		"":                      {Page: 1, PageSize: utils.DefaultPageSize},
		"?page=3&pageSize=5":    {Page: 3, PageSize: 5},
		"?page=-1&pageSize=500": {Page: 1, PageSize: utils.MaxPageSize},
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+query, nil)
		assert.Equal(t, want, pageParams(c), query)
	}
}

func TestPublishMultipart(t *testing.T) {
	svc := &fakeMarket{}
	h := &MarketplaceHandler{Service: svc}
	r := gin.New()
	r.POST("/reports", asUser("u-sponsor", models.RoleSponsor), h.PublishHandler)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Gen Z snack trends"))
	require.NoError(t, mw.WriteField("priceCredits", "40"))
	require.NoError(t, mw.WriteField("trustScore", "92.5"))
	require.NoError(t, mw.WriteField("tags", "food"))
	require.NoError(t, mw.WriteField("tags", "genz"))
	fw, err := mw.CreateFormFile("file", "trends.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("week,mentions\n1,120\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Gen Z snack trends", svc.published.Title)
	assert.Equal(t, 40, svc.published.PriceCredits)
	assert.InDelta(t, 92.5, svc.published.TrustScore, 1e-9)
	assert.Equal(t, []string{"food", "genz"}, svc.published.Tags)
	assert.Equal(t, "trends.csv", svc.filename)
	assert.Equal(t, "week,mentions\n1,120\n", svc.fileBody)
}
