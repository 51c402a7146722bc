package routes

import (
	"net/http"
	"time"

	"sponsorly/handlers"
	"sponsorly/middleware"
	"sponsorly/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterPublicRoutes registers endpoints that need no session.
func RegisterPublicRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", hb.Users.RegisterHandler)
		auth.POST("/login", hb.Users.LoginHandler)
		auth.POST("/logout", middleware.JWTAuthMiddleware(hb.Sessions), hb.Users.LogoutHandler)
	}

	r.GET("/api/subscriptions/plans", hb.Billing.PlansHandler)
	r.GET("/api/credits/packages", hb.Billing.PackagesHandler)
	r.POST("/api/webhooks/stripe", hb.Billing.WebhookHandler)
}

// RegisterAccountRoutes registers the settings page endpoints.
func RegisterAccountRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	me := api.Group("/users/me")
	{
		me.GET("", hb.Users.MeHandler)
		me.PATCH("", hb.Users.UpdateProfileHandler)
		me.PUT("/password", hb.Users.UpdatePasswordHandler)
		me.GET("/settings", hb.Users.GetSettingsHandler)
		me.PATCH("/settings", hb.Users.UpdateSettingsHandler)
	}
	api.GET("/dashboard", hb.Dashboards.MeHandler)
}

// RegisterCampaignRoutes registers campaigns and performance reports.
func RegisterCampaignRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	campaigns := api.Group("/campaigns")
	{
		campaigns.GET("", hb.Campaigns.ListHandler)
		campaigns.POST("", middleware.RequireRole(models.RoleSponsor, models.RoleAdmin), hb.Campaigns.CreateHandler)
		campaigns.GET("/:id", hb.Campaigns.GetHandler)
		campaigns.PATCH("/:id", hb.Campaigns.UpdateHandler)
		campaigns.DELETE("/:id", hb.Campaigns.DeleteHandler)
		campaigns.POST("/:id/reports", hb.Campaigns.GenerateReportHandler)
		campaigns.GET("/:id/reports", hb.Campaigns.ListReportsHandler)
	}
	reports := api.Group("/reports")
	{
		reports.GET("/:id", hb.Campaigns.GetReportHandler)
		reports.GET("/:id/markdown", hb.Campaigns.RenderReportHandler)
	}
}

// RegisterProfileRoutes registers sponsor and creator directories, the
// discover page and the media kit.
func RegisterProfileRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	sponsors := api.Group("/sponsors")
	{
		sponsors.GET("", hb.Sponsors.ListHandler)
		sponsors.GET("/me", middleware.RequireRole(models.RoleSponsor), hb.Sponsors.MeHandler)
		sponsors.PATCH("/me", middleware.RequireRole(models.RoleSponsor), hb.Sponsors.UpdateMeHandler)
		sponsors.GET("/:id", hb.Sponsors.GetHandler)
	}

	creators := api.Group("/creators")
	{
		creators.GET("", hb.Creators.DiscoverHandler)
		mine := creators.Group("/me", middleware.RequireRole(models.RoleCreator))
		mine.GET("", hb.Creators.MeHandler)
		mine.PATCH("", hb.Creators.UpdateMeHandler)
		mine.POST("/assets", hb.Creators.UploadAssetHandler)
		mine.DELETE("/assets/:assetId", hb.Creators.RemoveAssetHandler)
		creators.GET("/:id", hb.Creators.GetProfileHandler)
		creators.GET("/:id/media-kit", hb.Creators.MediaKitHandler)
	}

	matches := api.Group("/matches")
	{
		matches.GET("", middleware.RequireRole(models.RoleSponsor, models.RoleCreator), hb.Matches.ListHandler)
		matches.POST("/:id/decision", middleware.RequireRole(models.RoleSponsor, models.RoleCreator), hb.Matches.DecisionHandler)
		matches.GET("/:id/explain", hb.Matches.ExplainHandler)
	}
}

// RegisterCommerceRoutes registers the marketplace, credits and subscriptions.
func RegisterCommerceRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	market := api.Group("/marketplace")
	{
		market.GET("/reports", hb.Marketplace.ListHandler)
		market.POST("/reports", middleware.RequireRole(models.RoleAdmin, models.RoleSponsor), hb.Marketplace.PublishHandler)
		market.GET("/reports/:id", hb.Marketplace.GetHandler)
		market.POST("/reports/:id/archive", hb.Marketplace.ArchiveHandler)
		market.POST("/reports/:id/purchase", hb.Marketplace.PurchaseHandler)
		market.GET("/reports/:id/download", hb.Marketplace.DownloadHandler)
		market.GET("/purchases", hb.Marketplace.PurchasesHandler)
	}

	subs := api.Group("/subscriptions")
	{
		subs.POST("/checkout", hb.Billing.CheckoutHandler)
		subs.POST("/portal", hb.Billing.PortalHandler)
		subs.GET("/me", hb.Billing.SubscriptionHandler)
	}

	credits := api.Group("/credits")
	{
		credits.POST("/checkout", hb.Billing.CreditCheckoutHandler)
		credits.GET("/balance", hb.Billing.BalanceHandler)
		credits.GET("/transactions", hb.Billing.TransactionsHandler)
	}
}

// RegisterMessageRoutes registers the contact dialog and inbox.
func RegisterMessageRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	messages := api.Group("/messages")
	{
		messages.POST("", hb.Messages.SendHandler)
		messages.GET("/inbox", hb.Messages.InboxHandler)
		messages.GET("/sent", hb.Messages.SentHandler)
		messages.GET("/unread", hb.Messages.UnreadHandler)
		messages.POST("/:id/read", hb.Messages.MarkReadHandler)
	}
}

// RegisterAdminRoutes sets up the admin page. Every successful mutation is
// written to the audit log.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	admin := r.Group("/api/admin",
		middleware.JWTAuthMiddleware(hb.Sessions),
		middleware.RequireRole(models.RoleAdmin),
		middleware.AuditTrail(hb.Audit),
	)
	{
		admin.GET("/dashboard", hb.Dashboards.AdminHandler)
		admin.GET("/audit-logs", hb.Admin.ListAuditLogsHandler)

		admin.GET("/users", hb.Admin.SearchUsersHandler)
		admin.POST("/users", hb.Admin.CreateUserHandler)
		admin.GET("/users/:id", hb.Admin.GetUserHandler)
		admin.PATCH("/users/:id", hb.Admin.UpdateUserHandler)
		admin.DELETE("/users/:id", hb.Admin.DeleteUserHandler)
		admin.PUT("/users/:id/status", hb.Admin.SetStatusHandler)

		admin.GET("/organizations", hb.Organizations.ListHandler)
		admin.POST("/organizations", hb.Organizations.CreateHandler)
		admin.GET("/organizations/:id", hb.Organizations.GetHandler)
		admin.PATCH("/organizations/:id", hb.Organizations.UpdateHandler)
		admin.DELETE("/organizations/:id", hb.Organizations.DeleteHandler)
		admin.POST("/organizations/:id/members", hb.Organizations.AddMemberHandler)
		admin.DELETE("/organizations/:id/members/:userId", hb.Organizations.RemoveMemberHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and CORS.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	RegisterPublicRoutes(r, hb)

	api := r.Group("/api", middleware.JWTAuthMiddleware(hb.Sessions))
	RegisterAccountRoutes(api, hb)
	RegisterCampaignRoutes(api, hb)
	RegisterProfileRoutes(api, hb)
	RegisterCommerceRoutes(api, hb)
	RegisterMessageRoutes(api, hb)

	RegisterAdminRoutes(r, hb)
}
