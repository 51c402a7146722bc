package models

import (
	"math"
	"time"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// campaignTransitions lists the states reachable from each state.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:  {CampaignActive},
	CampaignActive: {CampaignPaused, CampaignCompleted},
	CampaignPaused: {CampaignActive, CampaignCompleted},
}

// CanTransition reports whether a campaign may move from s to next.
func (s CampaignStatus) CanTransition(next CampaignStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Objective is a qualitative goal tracked for Return on Objective.
type Objective struct {
	Name     string  `bson:"name" json:"name"`
	Target   float64 `bson:"target" json:"target"`
	Achieved float64 `bson:"achieved" json:"achieved"`
	Weight   float64 `bson:"weight,omitempty" json:"weight,omitempty"`
}

// CampaignMetrics are raw delivery counters reported for a campaign.
type CampaignMetrics struct {
	Impressions int64 `bson:"impressions" json:"impressions"`
	Clicks      int64 `bson:"clicks" json:"clicks"`
	Conversions int64 `bson:"conversions" json:"conversions"`
	Engagements int64 `bson:"engagements" json:"engagements"`
}

// Campaign is a sponsorship deal between one sponsor and one or more creators.
type Campaign struct {
	ID             string          `bson:"id" json:"id"`
	Name           string          `bson:"name" json:"name"`
	SponsorID      string          `bson:"sponsorId" json:"sponsorId"`
	CreatorIDs     []string        `bson:"creatorIds" json:"creatorIds"`
	OrganizationID string          `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	Status         CampaignStatus  `bson:"status" json:"status"`
	Budget         float64         `bson:"budget" json:"budget"`
	Spend          float64         `bson:"spend" json:"spend"`
	Revenue        float64         `bson:"revenue" json:"revenue"`
	StartDate      time.Time       `bson:"startDate" json:"startDate"`
	EndDate        time.Time       `bson:"endDate" json:"endDate"`
	Objectives     []Objective     `bson:"objectives" json:"objectives"`
	Metrics        CampaignMetrics `bson:"metrics" json:"metrics"`
	CreatedAt      time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// ROI is the return on investment as a percentage; 0 when nothing was spent.
func (c Campaign) ROI() float64 {
	if c.Spend <= 0 {
		return 0
	}
	return round2((c.Revenue - c.Spend) / c.Spend * 100)
}

// ROO is the weighted share of objectives achieved, as a percentage.
// Objectives without a positive target are ignored and non-positive weights count as 1.
func (c Campaign) ROO() float64 {
	var weighted, total float64
	for _, o := range c.Objectives {
		if o.Target <= 0 {
			continue
		}
		w := o.Weight
		if w <= 0 {
			w = 1
		}
		weighted += math.Min(o.Achieved/o.Target, 1) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return round2(weighted / total * 100)
}

// CTR is clicks per impression.
func (c Campaign) CTR() float64 {
	if c.Metrics.Impressions == 0 {
		return 0
	}
	return round4(float64(c.Metrics.Clicks) / float64(c.Metrics.Impressions))
}

// ConversionRate is conversions per click.
func (c Campaign) ConversionRate() float64 {
	if c.Metrics.Clicks == 0 {
		return 0
	}
	return round4(float64(c.Metrics.Conversions) / float64(c.Metrics.Clicks))
}

// CampaignView is a campaign with its derived metrics.
type CampaignView struct {
	Campaign
	ROIPercent float64 `json:"roi"`
	ROOPercent float64 `json:"roo"`
	CTRRate    float64 `json:"ctr"`
	ConvRate   float64 `json:"conversionRate"`
}

// View attaches the derived metrics to c.
func (c Campaign) View() CampaignView {
	return CampaignView{
		Campaign:   c,
		ROIPercent: c.ROI(),
		ROOPercent: c.ROO(),
		CTRRate:    c.CTR(),
		ConvRate:   c.ConversionRate(),
	}
}

// CampaignQuery filters the campaign list.
type CampaignQuery struct {
	Q         string         `form:"q"`
	Status    CampaignStatus `form:"status"`
	SponsorID string         `form:"sponsorId"`
	CreatorID string         `form:"creatorId"`
	Page      int            `form:"page"`
	PageSize  int            `form:"pageSize"`
}

// CampaignUpdate is a partial update; nil fields are left untouched.
type CampaignUpdate struct {
	Name       *string          `json:"name,omitempty"`
	Status     *CampaignStatus  `json:"status,omitempty"`
	CreatorIDs *[]string        `json:"creatorIds,omitempty"`
	Budget     *float64         `json:"budget,omitempty"`
	Spend      *float64         `json:"spend,omitempty"`
	Revenue    *float64         `json:"revenue,omitempty"`
	StartDate  *time.Time       `json:"startDate,omitempty"`
	EndDate    *time.Time       `json:"endDate,omitempty"`
	Objectives *[]Objective     `json:"objectives,omitempty"`
	Metrics    *CampaignMetrics `json:"metrics,omitempty"`
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// CampaignCreate is the create-campaign payload. SponsorID is only honored for admins.
type CampaignCreate struct {
	Name       string          `json:"name" binding:"required"`
	SponsorID  string          `json:"sponsorId"`
	CreatorIDs []string        `json:"creatorIds"`
	Status     CampaignStatus  `json:"status"`
	Budget     float64         `json:"budget"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
	Objectives []Objective     `json:"objectives"`
	Metrics    CampaignMetrics `json:"metrics"`
}
