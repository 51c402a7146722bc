package billing

import (
	"sponsorly/config"
	"sponsorly/models"
)

const (
	PlanFree     = "free"
	PlanStarter  = "starter"
	PlanPro      = "pro"
	PlanBusiness = "business"
)

// Plans returns the subscription catalog with Stripe price IDs from cfg.
func Plans(cfg config.Config) []models.Plan {
	return []models.Plan{
		{
			ID: PlanFree, Name: "Free", Currency: "usd", Interval: "month",
			MaxCampaigns: 1,
			Features:     []string{"1 active campaign", "Creator discovery", "Basic matching"},
		},
		{
			ID: PlanStarter, Name: "Starter", PriceCents: 2900, Currency: "usd", Interval: "month",
			CreditsPerMonth: 50, MaxCampaigns: 5, StripePriceID: cfg.StripePriceStarter,
			Features: []string{"5 active campaigns", "50 marketplace credits / month", "Performance reports"},
		},
		{
			ID: PlanPro, Name: "Pro", PriceCents: 9900, Currency: "usd", Interval: "month",
			CreditsPerMonth: 250, MaxCampaigns: 25, StripePriceID: cfg.StripePricePro, Popular: true,
			Features: []string{"25 active campaigns", "250 marketplace credits / month", "AI match explanations"},
		},
		{
			ID: PlanBusiness, Name: "Business", PriceCents: 29900, Currency: "usd", Interval: "month",
			CreditsPerMonth: 1000, StripePriceID: cfg.StripePriceBusiness,
			Features: []string{"Unlimited campaigns", "1000 marketplace credits / month", "Priority support"},
		},
	}
}

// PlanByID looks a plan up in the configured catalog.
func PlanByID(id string) (models.Plan, bool) {
	for _, p := range Plans(config.AppConfig) {
		if p.ID == id {
			return p, true
		}
	}
	return models.Plan{}, false
}

// CampaignLimit is the number of active campaigns a plan allows; 0 is unlimited.
// Unknown plans get the free allowance.
func CampaignLimit(planID string) int {
	if p, ok := PlanByID(planID); ok {
		return p.MaxCampaigns
	}
	free, _ := PlanByID(PlanFree)
	return free.MaxCampaigns
}
