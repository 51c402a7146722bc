package models

import "time"

// RFMSegment is the Recency/Frequency/Monetary label assigned to a sponsor.
type RFMSegment string

const (
	SegmentChampions         RFMSegment = "champions"
	SegmentLoyal             RFMSegment = "loyal"
	SegmentNew               RFMSegment = "new"
	SegmentPotentialLoyalist RFMSegment = "potential_loyalist"
	SegmentAtRisk            RFMSegment = "at_risk"
	SegmentHibernating       RFMSegment = "hibernating"
	SegmentLost              RFMSegment = "lost"
)

// RFMScore holds the 1-5 score of each dimension and the derived segment.
type RFMScore struct {
	Recency   int        `bson:"recency" json:"recency"`
	Frequency int        `bson:"frequency" json:"frequency"`
	Monetary  int        `bson:"monetary" json:"monetary"`
	Segment   RFMSegment `bson:"segment" json:"segment"`
}

// Sponsor is a brand profile that funds campaigns.
type Sponsor struct {
	ID             string    `bson:"id" json:"id"`
	UserID         string    `bson:"userId" json:"userId"`
	Name           string    `bson:"name" json:"name"`
	Industry       string    `bson:"industry" json:"industry"`
	Website        string    `bson:"website,omitempty" json:"website,omitempty"`
	LogoURL        string    `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
	Description    string    `bson:"description,omitempty" json:"description,omitempty"`
	BudgetMin      float64   `bson:"budgetMin" json:"budgetMin"`
	BudgetMax      float64   `bson:"budgetMax" json:"budgetMax"`
	TargetNiches   []string  `bson:"targetNiches" json:"targetNiches"`
	TargetRegions  []string  `bson:"targetRegions" json:"targetRegions"`
	LastCampaignAt time.Time `bson:"lastCampaignAt,omitempty" json:"lastCampaignAt,omitempty"`
	CampaignCount  int       `bson:"campaignCount" json:"campaignCount"`
	TotalSpend     float64   `bson:"totalSpend" json:"totalSpend"`
	Rating         float64   `bson:"rating" json:"rating"`
	Verified       bool      `bson:"verified" json:"verified"`
	RFM            RFMScore  `bson:"rfm" json:"rfm"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SponsorQuery filters the sponsor directory.
type SponsorQuery struct {
	Q         string     `form:"q"`
	Industry  string     `form:"industry"`
	Segment   RFMSegment `form:"segment"`
	Niche     string     `form:"niche"`
	MinBudget float64    `form:"minBudget"`
	Verified  *bool      `form:"verified"`
	Sort      string     `form:"sort"`
	Page      int        `form:"page"`
	PageSize  int        `form:"pageSize"`
}

// SponsorUpdate is a partial update of a sponsor profile.
type SponsorUpdate struct {
	Name          *string   `json:"name,omitempty"`
	Industry      *string   `json:"industry,omitempty"`
	Website       *string   `json:"website,omitempty"`
	LogoURL       *string   `json:"logoUrl,omitempty"`
	Description   *string   `json:"description,omitempty"`
	BudgetMin     *float64  `json:"budgetMin,omitempty"`
	BudgetMax     *float64  `json:"budgetMax,omitempty"`
	TargetNiches  *[]string `json:"targetNiches,omitempty"`
	TargetRegions *[]string `json:"targetRegions,omitempty"`
}
