// File: sponsorly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sponsorly/config"
	"sponsorly/cron"
	"sponsorly/database"
	auditRepo "sponsorly/database/repository/audit"
	billingRepo "sponsorly/database/repository/billing"
	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	marketRepo "sponsorly/database/repository/marketplace"
	matchRepo "sponsorly/database/repository/match"
	messageRepo "sponsorly/database/repository/message"
	orgRepo "sponsorly/database/repository/organization"
	reportRepo "sponsorly/database/repository/performance"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/handlers"
	"sponsorly/middleware"
	"sponsorly/routes"
	"sponsorly/services/audit"
	"sponsorly/services/billing"
	"sponsorly/services/campaign"
	"sponsorly/services/creator"
	"sponsorly/services/dashboard"
	ai "sponsorly/services/intelligence"
	"sponsorly/services/marketplace"
	"sponsorly/services/matching"
	"sponsorly/services/message"
	"sponsorly/services/notification"
	"sponsorly/services/organization"
	"sponsorly/services/reportgen"
	"sponsorly/services/sponsor"
	"sponsorly/services/storage"
	"sponsorly/services/user"
	"sponsorly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(rootCtx, []*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()}, database.MongoClient)

	// repositories.
	users := userRepo.NewMongoUserRepo()
	orgs := orgRepo.NewMongoOrganizationRepo()
	campaigns := campaignRepo.NewMongoCampaignRepo()
	sponsors := sponsorRepo.NewMongoSponsorRepo()
	creators := creatorRepo.NewMongoCreatorRepo()
	auditLogs := auditRepo.NewMongoAuditRepo()
	messages := messageRepo.NewMongoMessageRepo()
	reports := reportRepo.NewMongoPerformanceReportRepo()
	decisions := matchRepo.NewMongoDecisionRepo()
	market := marketRepo.NewMongoMarketplaceRepo()
	ledger := billingRepo.NewMongoBillingRepo()

	// external clients.
	store, err := storage.NewFromConfig(rootCtx, cfg)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize storage: %v", err)
	}

	var explainer ai.MatchExplainer
	if gemini, err := ai.NewGeminiClient(rootCtx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		logger.Warn("match explanations fall back to rules", zap.Error(err))
	} else {
		explainer = &ai.GeminiExplainer{
			Generator: gemini,
			Store:     ai.NewExplanationStore(utils.GetCacheClient(), 24*time.Hour),
		}
	}

	notifier := &notification.DefaultNotificationService{Users: users}
	if fcm, err := utils.FirebaseInit(rootCtx); err != nil {
		logger.Error("push notifications disabled", zap.Error(err))
	} else if fcm != nil {
		notifier.Pusher = fcm
	}

	queue := asynq.NewClient(cron.RedisOpt(cfg))
	defer queue.Close()

	// services.
	userService := &user.DefaultUserService{
		Repo:      users,
		Sponsors:  sponsors,
		Creators:  creators,
		Orgs:      orgs,
		AuthCache: utils.GetAuthCacheClient(),
	}
	if err := userService.EnsureAdmin(rootCtx, cfg.AdminBootstrapEmail); err != nil {
		logger.Error("failed to bootstrap admin account", zap.Error(err))
	}

	auditService := &audit.DefaultAuditService{Repo: auditLogs}
	orgService := &organization.DefaultOrganizationService{Repo: orgs, Users: users}
	sponsorService := &sponsor.DefaultSponsorService{Repo: sponsors, Campaigns: campaigns}
	matchingService := &matching.DefaultMatchingService{
		Sponsors:    sponsors,
		Creators:    creators,
		Decisions:   decisions,
		CacheClient: utils.GetCacheClient(),
		Explainer:   explainer,
	}
	creatorService := &creator.DefaultCreatorService{
		Repo:      creators,
		Sponsors:  sponsors,
		Campaigns: campaigns,
		Ranker:    matchingService,
		Storage:   store,
	}
	campaignService := &campaign.DefaultCampaignService{
		Repo:     campaigns,
		Sponsors: sponsors,
		Creators: creators,
		Users:    users,
		RFM:      sponsorService,
	}
	marketService := &marketplace.DefaultMarketplaceService{
		Repo:    market,
		Users:   users,
		Ledger:  ledger,
		Storage: store,
	}
	billingService := &billing.DefaultBillingService{
		Repo:      ledger,
		Users:     users,
		Gateway:   billing.NewStripeGateway(cfg),
		Notifier:  notifier,
		Catalog:   billing.Plans(cfg),
		ReturnURL: cfg.BillingReturnURL,
	}
	reportService := &reportgen.DefaultReportService{
		Repo:      reports,
		Campaigns: campaigns,
		Sponsors:  sponsors,
		Creators:  creators,
		Storage:   store,
		Queue:     queue,
		Notifier:  notifier,
	}
	messageService := &message.DefaultMessageService{
		Repo:      messages,
		Users:     users,
		Sponsors:  sponsors,
		Creators:  creators,
		Decisions: matchingService,
		Notifier:  notifier,
	}
	dashboardService := &dashboard.DefaultDashboardService{
		Users:     users,
		Orgs:      orgs,
		Campaigns: campaigns,
		Sponsors:  sponsors,
		Creators:  creators,
		Market:    market,
		Billing:   ledger,
		Audit:     auditLogs,
		Messages:  messages,
		Matches:   matchingService,
	}
	digest := &notification.DigestSender{Users: users, Matches: matchingService, Notifier: notifier}

	// background worker.
	worker := cron.NewWorker(cfg, cron.Handlers{
		Reports: reportService,
		Matches: matchingService,
		Digest:  digest,
	})
	if err := worker.Start(rootCtx); err != nil {
		logger.Sugar().Fatalf("main: failed to start task worker: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.PrometheusMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Sessions:      userService,
		Audit:         auditService,
		Users:         &handlers.UserHandler{UserService: userService},
		Admin:         &handlers.AdminHandler{UserService: userService, AuditService: auditService},
		Organizations: &handlers.OrganizationHandler{Service: orgService},
		Campaigns:     &handlers.CampaignHandler{Campaigns: campaignService, Reports: reportService},
		Sponsors:      &handlers.SponsorHandler{Service: sponsorService, Queue: queue},
		Creators:      &handlers.CreatorHandler{Service: creatorService},
		Matches:       &handlers.MatchHandler{Matching: matchingService, Sponsors: sponsorService, Creators: creatorService},
		Marketplace:   &handlers.MarketplaceHandler{Service: marketService},
		Billing:       &handlers.BillingHandler{Service: billingService},
		Messages:      &handlers.MessageHandler{Service: messageService},
		Dashboards:    &handlers.DashboardHandler{Service: dashboardService},
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	stop()
	worker.Shutdown()
	if err := database.MongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect failed", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
