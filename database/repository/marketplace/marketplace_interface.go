package marketRepo

import (
	"context"

	"sponsorly/models"

	"go.mongodb.org/mongo-driver/bson"
)

// MarketplaceRepository stores data reports and their purchases.
type MarketplaceRepository interface {
	CreateReport(ctx context.Context, report *models.DataReport) error
	GetReport(ctx context.Context, id string) (*models.DataReport, error)
	UpdateReport(ctx context.Context, id string, fields bson.M) error
	// ListReports returns one page of published reports.
	ListReports(ctx context.Context, query models.ReportQuery) ([]models.DataReport, int64, error)
	IncrementDownloads(ctx context.Context, id string) error

	GetPurchase(ctx context.Context, buyerID, reportID string) (*models.ReportPurchase, error)
	// InsertPurchase fails with utils.ErrConflict when the buyer already owns the report.
	InsertPurchase(ctx context.Context, purchase *models.ReportPurchase) error
	ListPurchases(ctx context.Context, buyerID string) ([]models.ReportPurchase, error)
	CountPurchases(ctx context.Context) (int64, error)
}
