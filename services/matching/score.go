package matching

import (
	"fmt"
	"math"
	"strings"

	"sponsorly/models"
)

// Component maxima. They sum to 100.
const (
	MaxNicheFit    = 30.0
	MaxAudienceFit = 20.0
	MaxBudgetFit   = 20.0
	MaxEngagement  = 15.0
	MaxReliability = 15.0

	// engagementCeiling is the engagement rate that earns full points.
	engagementCeiling = 0.08
	// strongShare is the share of a component's maximum that earns a reason.
	strongShare = 0.7
)

// Score rates how well a creator fits a sponsor on a 0-100 scale.
func Score(sponsor models.Sponsor, creator models.Creator) models.MatchScore {
	b := models.MatchBreakdown{
		NicheFit:    round2(nicheFit(sponsor.TargetNiches, creator.Niches)),
		AudienceFit: round2(audienceFit(sponsor.TargetRegions, creator)),
		BudgetFit:   round2(budgetFit(sponsor.BudgetMin, sponsor.BudgetMax, creator.RatePerPost)),
		Engagement:  round2(math.Min(creator.EngagementRate/engagementCeiling, 1) * MaxEngagement),
		Reliability: round2(reliability(creator.Rating, creator.CompletedCampaigns)),
	}
	return models.MatchScore{
		SponsorID: sponsor.ID,
		CreatorID: creator.ID,
		Total:     round2(b.NicheFit + b.AudienceFit + b.BudgetFit + b.Engagement + b.Reliability),
		Breakdown: b,
		Reasons:   reasons(sponsor, creator, b),
	}
}

// nicheFit is the Jaccard overlap of the two niche sets.
func nicheFit(targets, niches []string) float64 {
	want := lowerSet(targets)
	if len(want) == 0 {
		return MaxNicheFit / 2
	}
	have := lowerSet(niches)
	inter := 0
	for n := range have {
		if want[n] {
			inter++
		}
	}
	union := len(want) + len(have) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union) * MaxNicheFit
}

// audienceFit is the share of target regions the creator reaches.
func audienceFit(targets []string, creator models.Creator) float64 {
	want := lowerSet(targets)
	if len(want) == 0 {
		return MaxAudienceFit / 2
	}
	reach := lowerSet(creator.Audience.TopRegions)
	if r := strings.ToLower(strings.TrimSpace(creator.Region)); r != "" {
		reach[r] = true
	}
	hit := 0
	for region := range want {
		if reach[region] {
			hit++
		}
	}
	return float64(hit) / float64(len(want)) * MaxAudienceFit
}

// budgetFit gives full points up to budgetMax and decays linearly to zero at
// twice budgetMax. A missing budget earns half points.
func budgetFit(budgetMin, budgetMax, rate float64) float64 {
	if budgetMin <= 0 && budgetMax <= 0 {
		return MaxBudgetFit / 2
	}
	if budgetMax <= 0 || rate <= budgetMax {
		return MaxBudgetFit
	}
	over := (rate - budgetMax) / budgetMax
	return math.Max(0, 1-over) * MaxBudgetFit
}

func reliability(rating float64, completed int) float64 {
	rating = math.Max(0, math.Min(rating, 5))
	return rating/5*10 + math.Min(float64(completed)/20, 1)*5
}

func reasons(sponsor models.Sponsor, creator models.Creator, b models.MatchBreakdown) []string {
	out := []string{}
	if b.NicheFit >= MaxNicheFit*strongShare {
		out = append(out, fmt.Sprintf("Strong niche overlap: %s", strings.Join(shared(sponsor.TargetNiches, creator.Niches), ", ")))
	}
	if b.AudienceFit >= MaxAudienceFit*strongShare {
		out = append(out, "Audience is concentrated in your target regions")
	}
	if b.BudgetFit >= MaxBudgetFit*strongShare {
		out = append(out, fmt.Sprintf("Rate of $%.0f per post fits your budget", creator.RatePerPost))
	}
	if b.Engagement >= MaxEngagement*strongShare {
		out = append(out, fmt.Sprintf("High engagement rate of %.1f%%", creator.EngagementRate*100))
	}
	if b.Reliability >= MaxReliability*strongShare {
		out = append(out, fmt.Sprintf("Reliable partner: rated %.1f with %d completed campaigns", creator.Rating, creator.CompletedCampaigns))
	}
	return out
}

// shared lists the niches present on both sides, in the sponsor's order.
func shared(targets, niches []string) []string {
	have := lowerSet(niches)
	var out []string
	for _, t := range targets {
		if have[strings.ToLower(strings.TrimSpace(t))] {
			out = append(out, t)
		}
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = true
		}
	}
	return set
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
