package models

import "time"

// Performance report states.
const (
	ReportStatusPending = "pending"
	ReportStatusReady   = "ready"
	ReportStatusFailed  = "failed"
)

// PerformanceReport is a rendered, print-style report of a campaign.
type PerformanceReport struct {
	ID          string    `bson:"id" json:"id"`
	CampaignID  string    `bson:"campaignId" json:"campaignId"`
	RequestedBy string    `bson:"requestedBy" json:"requestedBy"`
	Title       string    `bson:"title" json:"title"`
	Status      string    `bson:"status" json:"status"`
	Format      string    `bson:"format" json:"format"`
	ArtifactID  string    `bson:"artifactId,omitempty" json:"-"`
	ArtifactURL string    `bson:"artifactUrl,omitempty" json:"artifactUrl,omitempty"`
	Error       string    `bson:"error,omitempty" json:"error,omitempty"`
	Pages       int       `bson:"pages" json:"pages"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	GeneratedAt time.Time `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"`
}

// CreatorPerformance is one row of the creator breakdown table.
type CreatorPerformance struct {
	CreatorID      string  `json:"creatorId"`
	DisplayName    string  `json:"displayName"`
	Handle         string  `json:"handle"`
	Followers      int64   `json:"followers"`
	EngagementRate float64 `json:"engagementRate"`
	RatePerPost    float64 `json:"ratePerPost"`
}

// ReportData is everything the renderer needs for one campaign.
type ReportData struct {
	Campaign    CampaignView         `json:"campaign"`
	SponsorName string               `json:"sponsorName"`
	Creators    []CreatorPerformance `json:"creators"`
	GeneratedAt time.Time            `json:"generatedAt"`
}
