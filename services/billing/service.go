package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	billingRepo "sponsorly/database/repository/billing"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/services/notification"
	"sponsorly/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// FallbackMessage is shown to clients whenever Stripe cannot be reached.
const FallbackMessage = "Unable to reach the billing provider. Please try again later."

// BillingService covers subscriptions, credit packages and the credit ledger.
type BillingService interface {
	ListPlans() []models.Plan
	CreateSubscriptionCheckout(ctx context.Context, userID, planID string) (*models.RedirectResponse, error)
	CreatePortalSession(ctx context.Context, userID string) (*models.RedirectResponse, error)
	GetSubscription(ctx context.Context, userID string) (*models.Subscription, error)

	ListPackages(ctx context.Context) ([]models.CreditPackage, error)
	CreateCreditCheckout(ctx context.Context, userID, packageID string) (*models.RedirectResponse, error)
	Balance(ctx context.Context, userID string) (int, error)
	Transactions(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error)

	// HandleWebhook verifies and applies a Stripe event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// DefaultBillingService implements BillingService.
type DefaultBillingService struct {
	Repo      billingRepo.BillingRepository
	Users     userRepo.UserRepository
	Gateway   Gateway
	Notifier  notification.NotificationService
	Catalog   []models.Plan
	ReturnURL string
}

func (s *DefaultBillingService) ListPlans() []models.Plan {
	return s.Catalog
}

func (s *DefaultBillingService) plan(id string) (models.Plan, bool) {
	for _, p := range s.Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

func (s *DefaultBillingService) planForPrice(priceID string) (models.Plan, bool) {
	for _, p := range s.Catalog {
		if priceID != "" && p.StripePriceID == priceID {
			return p, true
		}
	}
	return models.Plan{}, false
}

// upstream logs a Stripe failure and hides it behind ErrUpstream.
func upstream(op string, err error) error {
	utils.GetLogger().Error("billing provider call failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, utils.ErrUpstream)
}

// ensureCustomer creates the Stripe customer on first use and stores it on the user.
func (s *DefaultBillingService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}
	id, err := s.Gateway.CreateCustomer(ctx, user.Email, user.Name, user.ID)
	if err != nil {
		return "", upstream("create customer", err)
	}
	if err := s.Users.Update(ctx, user.ID, bson.M{"stripeCustomerId": id}); err != nil {
		return "", fmt.Errorf("failed to store customer id: %w", err)
	}
	user.StripeCustomerID = id
	return id, nil
}

func (s *DefaultBillingService) CreateSubscriptionCheckout(ctx context.Context, userID, planID string) (*models.RedirectResponse, error) {
	plan, ok := s.plan(planID)
	if !ok || plan.PriceCents == 0 {
		return nil, utils.NewValidationError("planId", "please choose a paid plan")
	}
	if plan.StripePriceID == "" {
		utils.GetLogger().Error("plan has no stripe price configured", zap.String("planID", planID))
		return nil, fmt.Errorf("plan %s: %w", planID, utils.ErrUpstream)
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	sess, err := s.Gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    plan.StripePriceID,
		Mode:       stripe.CheckoutSessionModeSubscription,
		SuccessURL: s.ReturnURL + "?checkout=success",
		CancelURL:  s.ReturnURL + "?checkout=cancelled",
		Metadata: map[string]string{
			"kind":   models.CheckoutKindSubscription,
			"planId": plan.ID,
			"userId": user.ID,
		},
	})
	if err != nil {
		return nil, upstream("subscription checkout", err)
	}
	utils.GetMetrics().CheckoutSessions.WithLabelValues(models.CheckoutKindSubscription).Inc()
	return &models.RedirectResponse{URL: sess.URL}, nil
}

func (s *DefaultBillingService) CreatePortalSession(ctx context.Context, userID string) (*models.RedirectResponse, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, utils.NewValidationError("", "no billing account found")
	}
	sess, err := s.Gateway.CreatePortalSession(ctx, user.StripeCustomerID, s.ReturnURL)
	if err != nil {
		return nil, upstream("billing portal", err)
	}
	return &models.RedirectResponse{URL: sess.URL}, nil
}

func (s *DefaultBillingService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := s.Repo.GetSubscriptionByUser(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		user, uerr := s.Users.GetByIDWithProjection(ctx, userID, bson.M{"planId": 1})
		if uerr != nil {
			return nil, uerr
		}
		plan := user.PlanID
		if plan == "" {
			plan = PlanFree
		}
		return &models.Subscription{UserID: userID, PlanID: plan, Status: "active"}, nil
	}
	return sub, err
}

func (s *DefaultBillingService) ListPackages(ctx context.Context) ([]models.CreditPackage, error) {
	return s.Repo.ListPackages(ctx)
}

func (s *DefaultBillingService) CreateCreditCheckout(ctx context.Context, userID, packageID string) (*models.RedirectResponse, error) {
	pkg, err := s.Repo.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.NewValidationError("packageId", "please choose a credit package")
		}
		return nil, err
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}
	sess, err := s.Gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		CustomerID: customerID,
		PriceID:    pkg.StripePriceID,
		Mode:       stripe.CheckoutSessionModePayment,
		SuccessURL: s.ReturnURL + "?credits=success",
		CancelURL:  s.ReturnURL + "?credits=cancelled",
		Metadata: map[string]string{
			"kind":      models.CheckoutKindCredits,
			"packageId": pkg.ID,
			"userId":    user.ID,
		},
	})
	if err != nil {
		return nil, upstream("credit checkout", err)
	}
	utils.GetMetrics().CheckoutSessions.WithLabelValues(models.CheckoutKindCredits).Inc()
	return &models.RedirectResponse{URL: sess.URL}, nil
}

func (s *DefaultBillingService) Balance(ctx context.Context, userID string) (int, error) {
	user, err := s.Users.GetByIDWithProjection(ctx, userID, bson.M{"credits": 1})
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

func (s *DefaultBillingService) Transactions(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error) {
	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	items, total, err := s.Repo.ListTransactions(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CreditTransaction{}
	}
	return &models.ListResponse{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// grant credits a user once per ref.
func (s *DefaultBillingService) grant(ctx context.Context, userID string, amount int, reason, ref string) (bool, error) {
	if amount <= 0 {
		return false, nil
	}
	err := s.Repo.InsertTransaction(ctx, &models.CreditTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Delta:     amount,
		Reason:    reason,
		Ref:       ref,
		CreatedAt: time.Now(),
	})
	if errors.Is(err, utils.ErrConflict) {
		utils.GetLogger().Info("credit grant already applied", zap.String("ref", ref))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := s.Users.AdjustCredits(ctx, userID, amount); err != nil {
		// Release the ref so Stripe's retry can apply the grant.
		if derr := s.Repo.DeleteTransaction(context.WithoutCancel(ctx), ref); derr != nil {
			utils.GetLogger().Error("failed to release credit grant",
				zap.String("ref", ref), zap.String("userID", userID), zap.Error(derr))
		}
		return false, fmt.Errorf("failed to credit user: %w", err)
	}
	return true, nil
}

func (s *DefaultBillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		utils.GetLogger().Warn("rejected stripe webhook", zap.Error(err))
		return utils.NewValidationError("", "invalid webhook signature")
	}
	logger := utils.GetLogger().With(zap.String("eventID", event.ID), zap.String("type", string(event.Type)))

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return utils.NewValidationError("", "malformed checkout session")
		}
		return s.checkoutCompleted(ctx, &sess)
	case stripe.EventTypeCustomerSubscriptionUpdated, stripe.EventTypeCustomerSubscriptionCreated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return utils.NewValidationError("", "malformed subscription")
		}
		return s.syncSubscription(ctx, &sub)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return utils.NewValidationError("", "malformed subscription")
		}
		sub.Status = stripe.SubscriptionStatusCanceled
		return s.syncSubscription(ctx, &sub)
	default:
		logger.Debug("ignoring stripe event")
		return nil
	}
}

func (s *DefaultBillingService) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	userID := sess.Metadata["userId"]
	if userID == "" {
		userID = sess.ClientReferenceID
	}
	if userID == "" {
		return utils.NewValidationError("", "checkout session has no user")
	}

	switch sess.Metadata["kind"] {
	case models.CheckoutKindCredits:
		pkg, err := s.Repo.GetPackage(ctx, sess.Metadata["packageId"])
		if err != nil {
			return fmt.Errorf("credit package: %w", err)
		}
		granted, err := s.grant(ctx, userID, pkg.TotalCredits(), models.CreditReasonPurchase, sess.ID)
		if err != nil {
			return err
		}
		if granted {
			s.notifyCredits(ctx, userID, pkg.TotalCredits())
		}
		return nil

	case models.CheckoutKindSubscription:
		plan, ok := s.plan(sess.Metadata["planId"])
		if !ok {
			return utils.NewValidationError("planId", "unknown plan")
		}
		sub := &models.Subscription{
			ID:     uuid.New().String(),
			UserID: userID,
			PlanID: plan.ID,
			Status: string(stripe.SubscriptionStatusActive),
		}
		if sess.Customer != nil {
			sub.StripeCustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			sub.StripeSubscriptionID = sess.Subscription.ID
		} else {
			sub.StripeSubscriptionID = sess.ID
		}
		if err := s.Repo.UpsertSubscription(ctx, sub); err != nil {
			return fmt.Errorf("failed to store subscription: %w", err)
		}
		if err := s.Users.Update(ctx, userID, bson.M{"planId": plan.ID}); err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}
		granted, err := s.grant(ctx, userID, plan.CreditsPerMonth, models.CreditReasonSubscription, sess.ID)
		if err != nil {
			return err
		}
		if granted {
			s.notifyCredits(ctx, userID, plan.CreditsPerMonth)
		}
		return nil
	}
	utils.GetLogger().Info("checkout session without known kind", zap.String("sessionID", sess.ID))
	return nil
}

// syncSubscription mirrors a Stripe subscription and keeps the user's plan in step.
func (s *DefaultBillingService) syncSubscription(ctx context.Context, sub *stripe.Subscription) error {
	existing, err := s.Repo.GetSubscriptionByStripeID(ctx, sub.ID)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return err
	}

	userID := sub.Metadata["userId"]
	if userID == "" && existing != nil {
		userID = existing.UserID
	}
	if userID == "" && sub.Customer != nil {
		user, err := s.Users.GetByStripeCustomer(ctx, sub.Customer.ID)
		if err != nil {
			return fmt.Errorf("subscription owner: %w", err)
		}
		userID = user.ID
	}

	planID := sub.Metadata["planId"]
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item.Price == nil {
				continue
			}
			if p, ok := s.planForPrice(item.Price.ID); ok {
				planID = p.ID
				break
			}
		}
	}
	if planID == "" && existing != nil {
		planID = existing.PlanID
	}

	record := &models.Subscription{
		ID:                   uuid.New().String(),
		UserID:               userID,
		PlanID:               planID,
		Status:               string(sub.Status),
		StripeSubscriptionID: sub.ID,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		record.StripeCustomerID = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		record.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if err := s.Repo.UpsertSubscription(ctx, record); err != nil {
		return fmt.Errorf("failed to store subscription: %w", err)
	}

	userPlan := PlanFree
	if sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing {
		userPlan = planID
	}
	utils.GetLogger().Info("subscription synced",
		zap.String("userID", userID),
		zap.String("status", string(sub.Status)),
		zap.String("plan", userPlan))
	return s.Users.Update(ctx, userID, bson.M{"planId": userPlan})
}

func (s *DefaultBillingService) notifyCredits(ctx context.Context, userID string, amount int) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.SendUserPush(ctx, models.PushNotification{
		UserID: userID,
		Type:   models.NotifyCreditsAdded,
		Title:  "Credits added",
		Body:   fmt.Sprintf("%d credits were added to your balance.", amount),
		Data:   map[string]string{"credits": strconv.Itoa(amount)},
	})
	if err != nil {
		utils.GetLogger().Warn("credit push failed", zap.String("userID", userID), zap.Error(err))
	}
}
