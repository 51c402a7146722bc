package models

import "time"

const (
	ReportPublished = "published"
	ReportArchived  = "archived"
)

// DataReport is a market-research report sold for credits.
type DataReport struct {
	ID           string    `bson:"id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	Category     string    `bson:"category" json:"category"`
	SellerID     string    `bson:"sellerId" json:"sellerId"`
	SellerName   string    `bson:"sellerName" json:"sellerName"`
	PriceCredits int       `bson:"priceCredits" json:"priceCredits"`
	TrustScore   float64   `bson:"trustScore" json:"trustScore"`
	Rating       float64   `bson:"rating" json:"rating"`
	ReviewCount  int       `bson:"reviewCount" json:"reviewCount"`
	Downloads    int       `bson:"downloads" json:"downloads"`
	Tags         []string  `bson:"tags" json:"tags"`
	FileID       string    `bson:"fileId,omitempty" json:"-"`
	SampleURL    string    `bson:"sampleUrl,omitempty" json:"sampleUrl,omitempty"`
	Status       string    `bson:"status" json:"status"`
	PublishedAt  time.Time `bson:"publishedAt" json:"publishedAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Report sort keys accepted by the marketplace.
const (
	ReportSortTrust     = "trust"
	ReportSortPriceAsc  = "price_asc"
	ReportSortPriceDesc = "price_desc"
	ReportSortRating    = "rating"
	ReportSortNewest    = "newest"
	ReportSortPopular   = "popular"
)

// ReportQuery filters the marketplace listing.
type ReportQuery struct {
	Q        string  `form:"q"`
	Category string  `form:"category"`
	MinTrust float64 `form:"minTrust"`
	MaxPrice int     `form:"maxPrice"`
	Sort     string  `form:"sort"`
	Page     int     `form:"page"`
	PageSize int     `form:"pageSize"`
}

// ReportPurchase grants a buyer access to a report.
type ReportPurchase struct {
	ID           string    `bson:"id" json:"id"`
	ReportID     string    `bson:"reportId" json:"reportId"`
	BuyerID      string    `bson:"buyerId" json:"buyerId"`
	PriceCredits int       `bson:"priceCredits" json:"priceCredits"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// PurchaseResult is returned after a purchase attempt.
type PurchaseResult struct {
	Purchase        ReportPurchase `json:"purchase"`
	AlreadyOwned    bool           `json:"alreadyOwned"`
	RemainingCredit int            `json:"remainingCredits"`
}

// PublishReportRequest is the publish payload; the file itself arrives as multipart.
type PublishReportRequest struct {
	Title        string   `form:"title" json:"title"`
	Description  string   `form:"description" json:"description"`
	Category     string   `form:"category" json:"category"`
	PriceCredits int      `form:"priceCredits" json:"priceCredits"`
	TrustScore   float64  `form:"trustScore" json:"trustScore"`
	Tags         []string `form:"tags" json:"tags"`
	SampleURL    string   `form:"sampleUrl" json:"sampleUrl"`
}

// DownloadLink is a short-lived URL to a purchased report file.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
