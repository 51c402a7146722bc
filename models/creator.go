package models

import "time"

// PlatformStats describes a creator's presence on one social platform.
type PlatformStats struct {
	Platform       string  `bson:"platform" json:"platform"`
	Handle         string  `bson:"handle" json:"handle"`
	Followers      int64   `bson:"followers" json:"followers"`
	EngagementRate float64 `bson:"engagementRate" json:"engagementRate"`
	AvgViews       int64   `bson:"avgViews" json:"avgViews"`
}

// AudienceProfile summarizes who follows a creator.
type AudienceProfile struct {
	AgeRanges  map[string]float64 `bson:"ageRanges,omitempty" json:"ageRanges,omitempty"`
	Genders    map[string]float64 `bson:"genders,omitempty" json:"genders,omitempty"`
	TopRegions []string           `bson:"topRegions,omitempty" json:"topRegions,omitempty"`
}

// MediaAsset is a file shown in a creator's media kit.
type MediaAsset struct {
	ID         string    `bson:"id" json:"id"`
	Kind       string    `bson:"kind" json:"kind"`
	Title      string    `bson:"title,omitempty" json:"title,omitempty"`
	URL        string    `bson:"url" json:"url"`
	StorageID  string    `bson:"storageId" json:"-"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

// Creator is a content creator profile.
type Creator struct {
	ID                 string          `bson:"id" json:"id"`
	UserID             string          `bson:"userId" json:"userId"`
	Handle             string          `bson:"handle" json:"handle"`
	DisplayName        string          `bson:"displayName" json:"displayName"`
	Bio                string          `bson:"bio,omitempty" json:"bio,omitempty"`
	AvatarURL          string          `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Niches             []string        `bson:"niches" json:"niches"`
	Region             string          `bson:"region,omitempty" json:"region,omitempty"`
	RatePerPost        float64         `bson:"ratePerPost" json:"ratePerPost"`
	Rating             float64         `bson:"rating" json:"rating"`
	CompletedCampaigns int             `bson:"completedCampaigns" json:"completedCampaigns"`
	AvgROI             float64         `bson:"avgRoi" json:"avgRoi"`
	Verified           bool            `bson:"verified" json:"verified"`
	Platforms          []PlatformStats `bson:"platforms" json:"platforms"`
	Audience           AudienceProfile `bson:"audience" json:"audience"`
	Assets             []MediaAsset    `bson:"assets" json:"assets"`
	TotalFollowers     int64           `bson:"totalFollowers" json:"totalFollowers"`
	EngagementRate     float64         `bson:"engagementRate" json:"engagementRate"`
	CreatedAt          time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// RefreshStats recomputes the denormalized follower and engagement totals
// from Platforms. Engagement is weighted by followers.
func (c *Creator) RefreshStats() {
	var followers int64
	var weighted float64
	for _, p := range c.Platforms {
		followers += p.Followers
		weighted += float64(p.Followers) * p.EngagementRate
	}
	c.TotalFollowers = followers
	if followers == 0 {
		c.EngagementRate = 0
		return
	}
	c.EngagementRate = round4(weighted / float64(followers))
}

// TopPlatform returns the platform with the most followers, or "" when none.
func (c Creator) TopPlatform() string {
	var top string
	var most int64 = -1
	for _, p := range c.Platforms {
		if p.Followers > most {
			most = p.Followers
			top = p.Platform
		}
	}
	return top
}

// CreatorQuery drives the sponsor discover page.
type CreatorQuery struct {
	Q             string  `form:"q"`
	Niche         string  `form:"niche"`
	Platform      string  `form:"platform"`
	Region        string  `form:"region"`
	MinFollowers  int64   `form:"minFollowers"`
	MinEngagement float64 `form:"minEngagement"`
	Verified      *bool   `form:"verified"`
	Sort          string  `form:"sort"`
	Page          int     `form:"page"`
	PageSize      int     `form:"pageSize"`
}

// CreatorUpdate is a partial update of a creator profile.
type CreatorUpdate struct {
	DisplayName *string          `json:"displayName,omitempty"`
	Bio         *string          `json:"bio,omitempty"`
	AvatarURL   *string          `json:"avatarUrl,omitempty"`
	Niches      *[]string        `json:"niches,omitempty"`
	Region      *string          `json:"region,omitempty"`
	RatePerPost *float64         `json:"ratePerPost,omitempty"`
	Platforms   *[]PlatformStats `json:"platforms,omitempty"`
	Audience    *AudienceProfile `json:"audience,omitempty"`
}

// CreatorCard is a discover-page entry, optionally carrying its match score.
type CreatorCard struct {
	Creator
	TopPlatformName string      `json:"topPlatform"`
	Match           *MatchScore `json:"match,omitempty"`
}

// MediaKit is the public media kit of a creator.
type MediaKit struct {
	Creator        Creator        `json:"creator"`
	TotalFollowers int64          `json:"totalFollowers"`
	EngagementRate float64        `json:"engagementRate"`
	TopPlatform    string         `json:"topPlatform"`
	PastCampaigns  []CampaignView `json:"pastCampaigns"`
	AvgROI         float64        `json:"avgRoi"`
	AvgROO         float64        `json:"avgRoo"`
	Assets         []MediaAsset   `json:"assets"`
	ContactEnabled bool           `json:"contactEnabled"`
	GeneratedAt    time.Time      `json:"generatedAt"`
}
