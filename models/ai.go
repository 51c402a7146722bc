package models

// MatchPrompt is the context handed to the language model when explaining a match.
type MatchPrompt struct {
	SponsorName     string         `json:"sponsorName"`
	SponsorIndustry string         `json:"sponsorIndustry"`
	TargetNiches    []string       `json:"targetNiches"`
	CreatorName     string         `json:"creatorName"`
	CreatorNiches   []string       `json:"creatorNiches"`
	Followers       int64          `json:"followers"`
	EngagementRate  float64        `json:"engagementRate"`
	RatePerPost     float64        `json:"ratePerPost"`
	Breakdown       MatchBreakdown `json:"breakdown"`
	Total           float64        `json:"total"`
}
