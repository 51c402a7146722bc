package models

import "time"

// Plan is a subscription tier shown on the pricing page.
type Plan struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	PriceCents      int64    `json:"priceCents"`
	Currency        string   `json:"currency"`
	Interval        string   `json:"interval"`
	CreditsPerMonth int      `json:"creditsPerMonth"`
	MaxCampaigns    int      `json:"maxCampaigns"` // 0 means unlimited
	StripePriceID   string   `json:"-"`
	Features        []string `json:"features"`
	Popular         bool     `json:"popular"`
}

// Subscription mirrors the Stripe subscription of a user.
type Subscription struct {
	ID                   string    `bson:"id" json:"id"`
	UserID               string    `bson:"userId" json:"userId"`
	PlanID               string    `bson:"planId" json:"planId"`
	Status               string    `bson:"status" json:"status"`
	StripeCustomerID     string    `bson:"stripeCustomerId" json:"-"`
	StripeSubscriptionID string    `bson:"stripeSubscriptionId" json:"-"`
	CurrentPeriodEnd     time.Time `bson:"currentPeriodEnd" json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool      `bson:"cancelAtPeriodEnd" json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreditPackage is a one-off bundle of marketplace credits.
type CreditPackage struct {
	ID            string `bson:"id" json:"id"`
	Name          string `bson:"name" json:"name"`
	Credits       int    `bson:"credits" json:"credits"`
	BonusCredits  int    `bson:"bonusCredits" json:"bonusCredits"`
	PriceCents    int64  `bson:"priceCents" json:"priceCents"`
	Currency      string `bson:"currency" json:"currency"`
	StripePriceID string `bson:"stripePriceId" json:"-"`
	Popular       bool   `bson:"popular" json:"popular"`
	SortOrder     int    `bson:"sortOrder" json:"-"`
}

// TotalCredits is what a buyer receives for the package.
func (p CreditPackage) TotalCredits() int {
	return p.Credits + p.BonusCredits
}

// Credit transaction reasons.
const (
	CreditReasonPurchase       = "package_purchase"
	CreditReasonReportPurchase = "report_purchase"
	CreditReasonSubscription   = "subscription_grant"
	CreditReasonAdjustment     = "admin_adjustment"
)

// CreditTransaction is an entry in a user's credit ledger.
type CreditTransaction struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Delta     int       `bson:"delta" json:"delta"`
	Reason    string    `bson:"reason" json:"reason"`
	Ref       string    `bson:"ref" json:"ref"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// CheckoutKind tells webhooks which flow a Checkout session belongs to.
const (
	CheckoutKindSubscription = "subscription"
	CheckoutKindCredits      = "credits"
)

// RedirectResponse carries a hosted-page URL back to the client.
type RedirectResponse struct {
	URL string `json:"url"`
}
