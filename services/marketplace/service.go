package marketplace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	billingRepo "sponsorly/database/repository/billing"
	marketRepo "sponsorly/database/repository/marketplace"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/services/storage"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DownloadTTL is how long a report download link stays valid.
const DownloadTTL = 15 * time.Minute

var sortKeys = map[string]bool{
	models.ReportSortTrust:     true,
	models.ReportSortPriceAsc:  true,
	models.ReportSortPriceDesc: true,
	models.ReportSortRating:    true,
	models.ReportSortNewest:    true,
	models.ReportSortPopular:   true,
}

// MarketplaceService sells data reports for credits.
type MarketplaceService interface {
	List(ctx context.Context, query models.ReportQuery) (*models.ListResponse, error)
	Get(ctx context.Context, userID string, role models.Role, id string) (*models.DataReport, error)
	Publish(ctx context.Context, userID string, role models.Role, req models.PublishReportRequest, file io.Reader, filename string) (*models.DataReport, error)
	Archive(ctx context.Context, userID string, role models.Role, id string) error
	Purchase(ctx context.Context, userID, reportID string) (*models.PurchaseResult, error)
	Download(ctx context.Context, userID string, role models.Role, reportID string) (*models.DownloadLink, error)
	ListPurchases(ctx context.Context, userID string) ([]models.ReportPurchase, error)
}

// DefaultMarketplaceService implements MarketplaceService.
type DefaultMarketplaceService struct {
	Repo    marketRepo.MarketplaceRepository
	Users   userRepo.UserRepository
	Ledger  billingRepo.BillingRepository
	Storage storage.StorageService
}

func (s *DefaultMarketplaceService) List(ctx context.Context, query models.ReportQuery) (*models.ListResponse, error) {
	if query.Sort == "" {
		query.Sort = models.ReportSortTrust
	}
	if !sortKeys[query.Sort] {
		return nil, utils.NewValidationError("sort", "sort must be one of trust, price_asc, price_desc, rating, newest or popular")
	}
	if query.MinTrust < 0 || query.MinTrust > 100 {
		return nil, utils.NewValidationError("minTrust", "minimum trust must be between 0 and 100")
	}
	if query.MaxPrice < 0 {
		return nil, utils.NewValidationError("maxPrice", "maximum price cannot be negative")
	}
	page := models.Page{Page: query.Page, PageSize: query.PageSize}.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	query.Page, query.PageSize = page.Page, page.PageSize

	reports, total, err := s.Repo.ListReports(ctx, query)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.DataReport{}
	}
	return &models.ListResponse{Items: reports, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// Get hides archived reports from everyone but their seller and admins.
func (s *DefaultMarketplaceService) Get(ctx context.Context, userID string, role models.Role, id string) (*models.DataReport, error) {
	report, err := s.Repo.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportPublished && role != models.RoleAdmin && report.SellerID != userID {
		return nil, fmt.Errorf("report %s: %w", id, utils.ErrNotFound)
	}
	return report, nil
}

func (s *DefaultMarketplaceService) Publish(ctx context.Context, userID string, role models.Role, req models.PublishReportRequest, file io.Reader, filename string) (*models.DataReport, error) {
	if role != models.RoleAdmin && role != models.RoleSponsor {
		return nil, fmt.Errorf("only admins and sponsors can publish reports: %w", utils.ErrForbidden)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, utils.NewValidationError("title", "please enter a title")
	}
	if req.PriceCredits <= 0 {
		return nil, utils.NewValidationError("priceCredits", "price must be greater than zero")
	}
	seller, err := s.Users.GetByIDWithProjection(ctx, userID, bson.M{"name": 1, "organizationName": 1})
	if err != nil {
		return nil, err
	}
	sellerName := seller.OrganizationName
	if sellerName == "" {
		sellerName = seller.Name
	}

	now := time.Now()
	report := &models.DataReport{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.ToLower(strings.TrimSpace(req.Category)),
		SellerID:     userID,
		SellerName:   sellerName,
		PriceCredits: req.PriceCredits,
		TrustScore:   math.Max(0, math.Min(100, req.TrustScore)),
		Tags:         cleanTags(req.Tags),
		SampleURL:    strings.TrimSpace(req.SampleURL),
		Status:       models.ReportPublished,
		PublishedAt:  now,
	}
	if file != nil && s.Storage != nil {
		obj, err := s.Storage.Upload(ctx, file, "reports/"+report.ID, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to store report file: %w", err)
		}
		report.FileID = obj.ID
	}
	if err := s.Repo.CreateReport(ctx, report); err != nil {
		if report.FileID != "" {
			if delErr := s.Storage.Delete(ctx, report.FileID); delErr != nil {
				utils.GetLogger().Warn("failed to clean up orphaned report file",
					zap.String("reportID", report.ID), zap.String("storageID", report.FileID), zap.Error(delErr))
			}
		}
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}
	utils.GetLogger().Info("report published", zap.String("reportID", report.ID), zap.String("seller", userID))
	return report, nil
}

func (s *DefaultMarketplaceService) Archive(ctx context.Context, userID string, role models.Role, id string) error {
	report, err := s.Repo.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin && report.SellerID != userID {
		return fmt.Errorf("report %s: %w", id, utils.ErrForbidden)
	}
	return s.Repo.UpdateReport(ctx, id, bson.M{"status": models.ReportArchived})
}

// Purchase charges the buyer once per report. A repeat purchase returns the
// existing grant without charging.
func (s *DefaultMarketplaceService) Purchase(ctx context.Context, userID, reportID string) (*models.PurchaseResult, error) {
	report, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.Repo.GetPurchase(ctx, userID, reportID); err == nil {
		return s.owned(ctx, userID, existing)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, err
	}
	if report.Status != models.ReportPublished {
		return nil, fmt.Errorf("report %s: %w", reportID, utils.ErrNotFound)
	}

	remaining, err := s.Users.AdjustCredits(ctx, userID, -report.PriceCredits)
	if err != nil {
		return nil, err
	}
	purchase := &models.ReportPurchase{
		ID:           uuid.New().String(),
		ReportID:     report.ID,
		BuyerID:      userID,
		PriceCredits: report.PriceCredits,
		CreatedAt:    time.Now(),
	}
	if err := s.Repo.InsertPurchase(ctx, purchase); err != nil {
		if _, rerr := s.Users.AdjustCredits(ctx, userID, report.PriceCredits); rerr != nil {
			utils.GetLogger().Error("failed to refund credits", zap.String("userID", userID), zap.Error(rerr))
		}
		if errors.Is(err, utils.ErrConflict) {
			existing, gerr := s.Repo.GetPurchase(ctx, userID, reportID)
			if gerr != nil {
				return nil, gerr
			}
			return s.owned(ctx, userID, existing)
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := s.Ledger.InsertTransaction(ctx, &models.CreditTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Delta:     -report.PriceCredits,
		Reason:    models.CreditReasonReportPurchase,
		Ref:       "purchase:" + purchase.ID,
		CreatedAt: purchase.CreatedAt,
	}); err != nil {
		utils.GetLogger().Error("failed to record credit transaction", zap.String("purchaseID", purchase.ID), zap.Error(err))
	}
	if err := s.Repo.IncrementDownloads(ctx, report.ID); err != nil {
		utils.GetLogger().Warn("failed to count download", zap.String("reportID", report.ID), zap.Error(err))
	}
	utils.GetMetrics().CreditsSpent.Add(float64(report.PriceCredits))
	utils.GetLogger().Info("report purchased",
		zap.String("reportID", report.ID),
		zap.String("buyerID", userID),
		zap.Int("credits", report.PriceCredits))
	return &models.PurchaseResult{Purchase: *purchase, RemainingCredit: remaining}, nil
}

func (s *DefaultMarketplaceService) owned(ctx context.Context, userID string, p *models.ReportPurchase) (*models.PurchaseResult, error) {
	user, err := s.Users.GetByIDWithProjection(ctx, userID, bson.M{"credits": 1})
	if err != nil {
		return nil, err
	}
	return &models.PurchaseResult{Purchase: *p, AlreadyOwned: true, RemainingCredit: user.Credits}, nil
}

func (s *DefaultMarketplaceService) Download(ctx context.Context, userID string, role models.Role, reportID string) (*models.DownloadLink, error) {
	report, err := s.Repo.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin {
		if _, err := s.Repo.GetPurchase(ctx, userID, reportID); err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				return nil, fmt.Errorf("purchase the report to download it: %w", utils.ErrForbidden)
			}
			return nil, err
		}
	}
	if report.FileID == "" || s.Storage == nil {
		return nil, fmt.Errorf("report %s has no file: %w", reportID, utils.ErrNotFound)
	}
	url, err := s.Storage.SignedURL(ctx, report.FileID, DownloadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download: %w", err)
	}
	return &models.DownloadLink{URL: url, ExpiresAt: time.Now().Add(DownloadTTL)}, nil
}

func (s *DefaultMarketplaceService) ListPurchases(ctx context.Context, userID string) ([]models.ReportPurchase, error) {
	purchases, err := s.Repo.ListPurchases(ctx, userID)
	if err != nil {
		return nil, err
	}
	if purchases == nil {
		purchases = []models.ReportPurchase{}
	}
	return purchases, nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
