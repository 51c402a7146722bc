package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubExplainer struct {
	text string
	err  error
}

func (e stubExplainer) ExplainMatch(context.Context, string, string, models.MatchPrompt) (string, error) {
	return e.text, e.err
}

func newTestService(creatorCount int) (*DefaultMatchingService, *memstore.Decisions) {
	var creators []models.Creator
	for i := 0; i < creatorCount; i++ {
		creators = append(creators, models.Creator{
			ID:          fmt.Sprintf("c%02d", i),
			UserID:      fmt.Sprintf("cu%02d", i),
			Handle:      fmt.Sprintf("h%02d", i),
			DisplayName: fmt.Sprintf("Creator %d", i),
			Niches:      []string{"fitness"},
			RatePerPost: float64(100 * (i + 1)),
			Rating:      float64(i % 6),
			Platforms:   []models.PlatformStats{{Platform: "instagram", Followers: int64(1000 * (i + 1)), EngagementRate: 0.04}},
		})
	}
	decisions := memstore.NewDecisions()
	return &DefaultMatchingService{
		Sponsors: memstore.NewSponsors(
			models.Sponsor{ID: "s1", UserID: "su1", Name: "Acme", TargetNiches: []string{"fitness"}, BudgetMax: 1000},
			models.Sponsor{ID: "s2", UserID: "su2", Name: "Globex", TargetNiches: []string{"food"}},
		),
		Creators:  memstore.NewCreators(creators...),
		Decisions: decisions,
	}, decisions
}

func TestMatchesForSponsorRanksAndCaps(t *testing.T) {
	svc, _ := newTestService(30)
	matches, err := svc.MatchesForSponsor(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, matches, DefaultLimit)

	assert.True(t, matches[0].Top)
	for i := 1; i < len(matches); i++ {
		assert.False(t, matches[i].Top)
		prev, cur := matches[i-1], matches[i]
		if prev.Score.Total == cur.Score.Total {
			assert.Less(t, prev.Counterpart, cur.Counterpart)
		} else {
			assert.Greater(t, prev.Score.Total, cur.Score.Total)
		}
	}

	matches, err = svc.MatchesForSponsor(context.Background(), "s1", 500)
	require.NoError(t, err)
	assert.Len(t, matches, 30)
}

func TestDismissedCandidatesAreDropped(t *testing.T) {
	svc, decisions := newTestService(3)
	ctx := context.Background()

	require.NoError(t, svc.SetDecisionForUser(ctx, "su1", models.RoleSponsor, "c01", models.DecisionDismissed))
	require.NoError(t, svc.SetDecisionForUser(ctx, "su1", models.RoleSponsor, "c02", models.DecisionSaved))
	_, ok := decisions.Get(models.RoleSponsor, "s1", "c01")
	assert.True(t, ok)

	matches, err := svc.MatchesForSponsor(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.NotEqual(t, "c01", m.Counterpart)
		if m.Counterpart == "c02" {
			assert.Equal(t, models.DecisionSaved, m.Decision)
		}
	}
}

func TestMatchesForCreatorUsesSponsors(t *testing.T) {
	svc, _ := newTestService(1)
	matches, err := svc.MatchesForUser(context.Background(), "cu00", models.RoleCreator, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "s1", matches[0].Counterpart)
	assert.Equal(t, "Acme", matches[0].Name)

	_, err = svc.MatchesForUser(context.Background(), "admin", models.RoleAdmin, 5)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestSetDecisionValidates(t *testing.T) {
	svc, _ := newTestService(1)
	err := svc.SetDecision(context.Background(), models.RoleSponsor, "s1", "c00", "liked")
	assert.ErrorIs(t, err, utils.ErrValidation)
	err = svc.SetDecisionForUser(context.Background(), "su1", models.RoleSponsor, "missing", models.DecisionSaved)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestExplainFallsBackToRules(t *testing.T) {
	svc, _ := newTestService(1)
	ctx := context.Background()

	exp, err := svc.Explain(ctx, "s1", "c00")
	require.NoError(t, err)
	assert.Equal(t, "rules", exp.Source)
	assert.Contains(t, exp.Explanation, "Creator 0 scores")

	svc.Explainer = stubExplainer{err: errors.New("quota exceeded")}
	exp, err = svc.Explain(ctx, "s1", "c00")
	require.NoError(t, err)
	assert.Equal(t, "rules", exp.Source)

	svc.Explainer = stubExplainer{text: "Jo is a great fit."}
	exp, err = svc.Explain(ctx, "s1", "c00")
	require.NoError(t, err)
	assert.Equal(t, "ai", exp.Source)
	assert.Equal(t, "Jo is a great fit.", exp.Explanation)
}

func TestRankOrdersByTotal(t *testing.T) {
	svc, _ := newTestService(5)
	creators, err := svc.Creators.ListMatching(context.Background(), models.CreatorQuery{})
	require.NoError(t, err)
	sponsor, err := svc.Sponsors.GetByID(context.Background(), "s1")
	require.NoError(t, err)

	scores := svc.Rank(context.Background(), *sponsor, creators)
	require.Len(t, scores, 5)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].Total, scores[i].Total)
	}
}

func TestRefreshAllWarmsEverySponsor(t *testing.T) {
	svc, _ := newTestService(2)
	warmed, err := svc.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, warmed)
}
