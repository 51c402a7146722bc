package matching

import (
	"testing"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
)

func TestNicheFitIsJaccard(t *testing.T) {
	assert.Equal(t, 15.0, nicheFit(nil, []string{"food"}))
	assert.Equal(t, 30.0, nicheFit([]string{"Food"}, []string{" food "}))
	assert.Equal(t, 10.0, nicheFit([]string{"food", "fitness"}, []string{"food", "travel"}))
	assert.Equal(t, 0.0, nicheFit([]string{"food"}, nil))
}

func TestAudienceFitCountsRegionAndTopRegions(t *testing.T) {
	c := models.Creator{Region: "US", Audience: models.AudienceProfile{TopRegions: []string{"ca"}}}
	assert.Equal(t, 10.0, audienceFit(nil, c))
	assert.Equal(t, 20.0, audienceFit([]string{"us", "CA"}, c))
	assert.Equal(t, 10.0, audienceFit([]string{"us", "uk"}, c))
}

func TestBudgetFitDecaysAboveMaximum(t *testing.T) {
	assert.Equal(t, 10.0, budgetFit(0, 0, 500))
	assert.Equal(t, 20.0, budgetFit(1000, 2000, 500), "below minimum still fits")
	assert.Equal(t, 20.0, budgetFit(1000, 2000, 2000))
	assert.Equal(t, 10.0, budgetFit(1000, 2000, 3000))
	assert.Equal(t, 0.0, budgetFit(1000, 2000, 4000))
	assert.Equal(t, 0.0, budgetFit(1000, 2000, 9000))
	assert.Equal(t, 20.0, budgetFit(1000, 0, 9000), "no maximum")
}

func TestScoreTotalsAndReasons(t *testing.T) {
	sponsor := models.Sponsor{
		ID: "s1", TargetNiches: []string{"fitness"}, TargetRegions: []string{"US"},
		BudgetMin: 500, BudgetMax: 2000,
	}
	creator := models.Creator{
		ID: "c1", DisplayName: "Jo", Niches: []string{"Fitness"}, Region: "us",
		RatePerPost: 1500, EngagementRate: 0.1, Rating: 5, CompletedCampaigns: 25,
	}
	score := Score(sponsor, creator)
	assert.Equal(t, 100.0, score.Total)
	assert.Equal(t, models.MatchBreakdown{NicheFit: 30, AudienceFit: 20, BudgetFit: 20, Engagement: 15, Reliability: 15}, score.Breakdown)
	assert.Len(t, score.Reasons, 5)
	assert.Equal(t, "Strong niche overlap: fitness", score.Reasons[0])

	weak := Score(models.Sponsor{ID: "s2", TargetNiches: []string{"gaming"}}, models.Creator{ID: "c2", Niches: []string{"food"}})
	assert.Empty(t, weak.Reasons)
	assert.Equal(t, 20.0, weak.Total) // half audience plus half budget
}

func TestScoreStaysInRange(t *testing.T) {
	creator := models.Creator{Rating: 9, CompletedCampaigns: 999, EngagementRate: 3}
	score := Score(models.Sponsor{}, creator)
	assert.LessOrEqual(t, score.Total, 100.0)
	assert.GreaterOrEqual(t, score.Total, 0.0)
}
