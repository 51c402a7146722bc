package handlers

import (
	"errors"
	"io"
	"net/http"

	"sponsorly/middleware"
	"sponsorly/services/billing"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBytes matches Stripe's documented event size limit.
const maxWebhookBytes = 65536

// BillingHandler serves the pricing page, the billing section of settings
// and the Stripe webhook.
type BillingHandler struct {
	Service billing.BillingService
}

type planCheckoutRequest struct {
	PlanID string `json:"planId" binding:"required"`
}

type creditCheckoutRequest struct {
	PackageID string `json:"packageId" binding:"required"`
}

// billingFailed keeps Stripe failures behind the generic fallback message.
func billingFailed(c *gin.Context, op string, err error) {
	if errors.Is(err, utils.ErrUpstream) {
		utils.JSONError(c, http.StatusBadGateway, billing.FallbackMessage, "")
		return
	}
	fail(c, op, err)
}

// PlansHandler handles GET /api/subscriptions/plans.
func (h *BillingHandler) PlansHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Service.ListPlans()})
}

// CheckoutHandler handles POST /api/subscriptions/checkout.
func (h *BillingHandler) CheckoutHandler(c *gin.Context) {
	var req planCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.CreateSubscriptionCheckout(c.Request.Context(), middleware.UserID(c), req.PlanID)
	if err != nil {
		billingFailed(c, "subscription checkout", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PortalHandler handles POST /api/subscriptions/portal.
func (h *BillingHandler) PortalHandler(c *gin.Context) {
	resp, err := h.Service.CreatePortalSession(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		billingFailed(c, "billing portal", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubscriptionHandler handles GET /api/subscriptions/me.
func (h *BillingHandler) SubscriptionHandler(c *gin.Context) {
	sub, err := h.Service.GetSubscription(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "get subscription", err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// PackagesHandler handles GET /api/credits/packages.
func (h *BillingHandler) PackagesHandler(c *gin.Context) {
	packages, err := h.Service.ListPackages(c.Request.Context())
	if err != nil {
		fail(c, "list credit packages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": packages})
}

// CreditCheckoutHandler handles POST /api/credits/checkout.
func (h *BillingHandler) CreditCheckoutHandler(c *gin.Context) {
	var req creditCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.Service.CreateCreditCheckout(c.Request.Context(), middleware.UserID(c), req.PackageID)
	if err != nil {
		billingFailed(c, "credit checkout", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// BalanceHandler handles GET /api/credits/balance.
func (h *BillingHandler) BalanceHandler(c *gin.Context) {
	balance, err := h.Service.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, "credit balance", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance})
}

// TransactionsHandler handles GET /api/credits/transactions.
func (h *BillingHandler) TransactionsHandler(c *gin.Context) {
	resp, err := h.Service.Transactions(c.Request.Context(), middleware.UserID(c), pageParams(c))
	if err != nil {
		fail(c, "credit transactions", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// WebhookHandler handles POST /api/webhooks/stripe. The raw body is needed
// for signature verification, so it is read before any binding.
func (h *BillingHandler) WebhookHandler(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "failed to read request body", err.Error())
		return
	}
	if err := h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		if utils.StatusFor(err) >= http.StatusInternalServerError {
			// Stripe retries non-2xx deliveries.
			utils.GetLogger().Error("stripe webhook processing failed", zap.Error(err))
		}
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
