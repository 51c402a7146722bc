package models

// AdminDashboard backs the admin overview.
type AdminDashboard struct {
	UsersByRole     map[Role]int64 `json:"usersByRole"`
	ActiveUsers     int64          `json:"activeUsers"`
	Organizations   int64          `json:"organizations"`
	ActiveCampaigns int64          `json:"activeCampaigns"`
	ReportsSold     int64          `json:"reportsSold"`
	CreditsSold     int64          `json:"creditsSold"`
	RecentAudit     []AuditLog     `json:"recentAudit"`
}

// CreatorDashboard backs the creator overview.
type CreatorDashboard struct {
	TotalFollowers     int64   `json:"totalFollowers"`
	EngagementRate     float64 `json:"engagementRate"`
	ActiveCampaigns    int64   `json:"activeCampaigns"`
	CompletedCampaigns int64   `json:"completedCampaigns"`
	AvgROI             float64 `json:"avgRoi"`
	UnreadMessages     int64   `json:"unreadMessages"`
	TopMatches         []Match `json:"topMatches"`
}

// SponsorDashboard backs the sponsor overview.
type SponsorDashboard struct {
	ActiveCampaigns int64   `json:"activeCampaigns"`
	TotalSpend      float64 `json:"totalSpend"`
	AvgROI          float64 `json:"avgRoi"`
	AvgROO          float64 `json:"avgRoo"`
	Credits         int     `json:"credits"`
	UnreadMessages  int64   `json:"unreadMessages"`
	TopMatches      []Match `json:"topMatches"`
}
