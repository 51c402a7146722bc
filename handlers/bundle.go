// File: handlers/bundle.go
package handlers

import (
	"sponsorly/middleware"
)

// HandlerBundle groups every endpoint handler plus what the route layer
// needs to build its middleware.
type HandlerBundle struct {
	Sessions middleware.SessionResolver
	Audit    middleware.AuditRecorder

	Users         *UserHandler
	Admin         *AdminHandler
	Organizations *OrganizationHandler
	Campaigns     *CampaignHandler
	Sponsors      *SponsorHandler
	Creators      *CreatorHandler
	Matches       *MatchHandler
	Marketplace   *MarketplaceHandler
	Billing       *BillingHandler
	Messages      *MessageHandler
	Dashboards    *DashboardHandler
}
