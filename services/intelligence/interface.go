package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sponsorly/models"
	"sponsorly/utils"

	"go.uber.org/zap"
)

// ErrUnavailable means no language model is configured.
var ErrUnavailable = errors.New("ai service unavailable")

// MatchExplainer writes sponsor-facing explanations of match scores.
type MatchExplainer interface {
	ExplainMatch(ctx context.Context, sponsorID, creatorID string, prompt models.MatchPrompt) (string, error)
}

// GeminiExplainer asks a TextGenerator and caches answers in Store.
type GeminiExplainer struct {
	Generator TextGenerator
	Store     *ExplanationStore
}

func (e *GeminiExplainer) ExplainMatch(ctx context.Context, sponsorID, creatorID string, prompt models.MatchPrompt) (string, error) {
	if e == nil || e.Generator == nil {
		return "", ErrUnavailable
	}
	if text, ok := e.Store.Get(ctx, sponsorID, creatorID, prompt.Total); ok {
		return text, nil
	}
	text, err := e.Generator.GenerateContent(ctx, BuildMatchPrompt(prompt))
	if err != nil {
		return "", err
	}
	if err := e.Store.Set(ctx, sponsorID, creatorID, prompt.Total, text); err != nil {
		utils.GetLogger().Warn("failed to cache match explanation", zap.Error(err))
	}
	return text, nil
}

// BuildMatchPrompt renders the instructions and facts sent to the model.
func BuildMatchPrompt(p models.MatchPrompt) string {
	var sb strings.Builder
	sb.WriteString("You advise brand marketers on influencer partnerships. ")
	sb.WriteString("In at most three sentences, explain to the sponsor why this creator is or is not a good fit. ")
	sb.WriteString("Refer to the numbers below, do not invent facts and do not use markdown.\n\n")
	fmt.Fprintf(&sb, "Sponsor: %s (industry: %s)\n", p.SponsorName, orNone(p.SponsorIndustry))
	fmt.Fprintf(&sb, "Target niches: %s\n", orNone(strings.Join(p.TargetNiches, ", ")))
	fmt.Fprintf(&sb, "Creator: %s\n", p.CreatorName)
	fmt.Fprintf(&sb, "Creator niches: %s\n", orNone(strings.Join(p.CreatorNiches, ", ")))
	fmt.Fprintf(&sb, "Followers: %d, engagement rate: %.1f%%, rate per post: $%.0f\n",
		p.Followers, p.EngagementRate*100, p.RatePerPost)
	fmt.Fprintf(&sb, "Match score: %.0f/100 (niche %.1f/30, audience %.1f/20, budget %.1f/20, engagement %.1f/15, reliability %.1f/15)\n",
		p.Total, p.Breakdown.NicheFit, p.Breakdown.AudienceFit, p.Breakdown.BudgetFit,
		p.Breakdown.Engagement, p.Breakdown.Reliability)
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none given"
	}
	return s
}
