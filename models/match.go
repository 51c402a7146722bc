package models

import "time"

// MatchBreakdown holds the points each component contributed.
type MatchBreakdown struct {
	NicheFit    float64 `json:"nicheFit"`
	AudienceFit float64 `json:"audienceFit"`
	BudgetFit   float64 `json:"budgetFit"`
	Engagement  float64 `json:"engagement"`
	Reliability float64 `json:"reliability"`
}

// MatchScore is the compatibility of one sponsor with one creator.
type MatchScore struct {
	SponsorID string         `json:"sponsorId"`
	CreatorID string         `json:"creatorId"`
	Total     float64        `json:"total"`
	Breakdown MatchBreakdown `json:"breakdown"`
	Reasons   []string       `json:"reasons"`
}

// Match is a ranked counterpart shown on the matches page.
type Match struct {
	Score       MatchScore `json:"score"`
	Counterpart string     `json:"counterpartId"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Top         bool       `json:"top"`
	Decision    string     `json:"decision,omitempty"`
	ComputedAt  time.Time  `json:"computedAt"`
}

// Match decisions.
const (
	DecisionSaved     = "saved"
	DecisionDismissed = "dismissed"
	DecisionContacted = "contacted"
)

// MatchDecision is what a user chose to do with a suggested match.
type MatchDecision struct {
	ID        string    `bson:"id" json:"id"`
	SponsorID string    `bson:"sponsorId" json:"sponsorId"`
	CreatorID string    `bson:"creatorId" json:"creatorId"`
	Side      Role      `bson:"side" json:"side"`
	Status    string    `bson:"status" json:"status"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// MatchExplanation is the sponsor-facing rationale for a match.
type MatchExplanation struct {
	Score       MatchScore `json:"score"`
	Explanation string     `json:"explanation"`
	Source      string     `json:"source"` // "ai" or "rules"
}
