package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	creatorRepo "sponsorly/database/repository/creator"
	matchRepo "sponsorly/database/repository/match"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/models"
	ai "sponsorly/services/intelligence"
	"sponsorly/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 20
	MaxLimit     = 50
	cacheTTL     = 10 * time.Minute
)

// MatchingService ranks sponsors and creators against each other.
type MatchingService interface {
	MatchesForSponsor(ctx context.Context, sponsorID string, limit int) ([]models.Match, error)
	MatchesForCreator(ctx context.Context, creatorID string, limit int) ([]models.Match, error)
	// MatchesForUser resolves the caller's profile and ranks its counterparts.
	MatchesForUser(ctx context.Context, userID string, role models.Role, limit int) ([]models.Match, error)
	// Rank scores creators for a sponsor, best first, without caching.
	Rank(ctx context.Context, sponsor models.Sponsor, creators []models.Creator) []models.MatchScore
	SetDecision(ctx context.Context, side models.Role, sponsorID, creatorID, status string) error
	// SetDecisionForUser records a decision made by the user against a counterpart ID.
	SetDecisionForUser(ctx context.Context, userID string, role models.Role, counterpartID, status string) error
	Explain(ctx context.Context, sponsorID, creatorID string) (*models.MatchExplanation, error)
	// RefreshAll pre-warms the cache for every sponsor.
	RefreshAll(ctx context.Context) (int, error)
	// RefreshSponsor drops and recomputes one sponsor's cached matches.
	RefreshSponsor(ctx context.Context, sponsorID string) error
}

// DefaultMatchingService implements MatchingService. A nil CacheClient
// disables caching and a nil Explainer always uses the rules text.
type DefaultMatchingService struct {
	Sponsors    sponsorRepo.SponsorRepository
	Creators    creatorRepo.CreatorRepository
	Decisions   matchRepo.DecisionRepository
	CacheClient *redis.Client
	Explainer   ai.MatchExplainer
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func cacheKey(side models.Role, id string, limit int) string {
	return fmt.Sprintf("match:%s:%s:%d", side, id, limit)
}

// scoreAll scores every pair concurrently, one goroutine per candidate.
func scoreAll(pairs []pair) []models.MatchScore {
	resultsCh := make(chan models.MatchScore, len(pairs))
	var wg sync.WaitGroup
	for _, p := range pairs {
		wg.Add(1)
		go func(p pair) {
			defer wg.Done()
			resultsCh <- Score(p.sponsor, p.creator)
		}(p)
	}
	wg.Wait()
	close(resultsCh)

	scores := make([]models.MatchScore, 0, len(pairs))
	for s := range resultsCh {
		scores = append(scores, s)
	}
	utils.GetMetrics().MatchesComputed.Add(float64(len(scores)))
	return scores
}

type pair struct {
	sponsor models.Sponsor
	creator models.Creator
}

func (s *DefaultMatchingService) Rank(_ context.Context, sponsor models.Sponsor, creators []models.Creator) []models.MatchScore {
	pairs := make([]pair, len(creators))
	for i, c := range creators {
		pairs[i] = pair{sponsor: sponsor, creator: c}
	}
	scores := scoreAll(pairs)
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].CreatorID < scores[j].CreatorID
	})
	return scores
}

func (s *DefaultMatchingService) MatchesForSponsor(ctx context.Context, sponsorID string, limit int) ([]models.Match, error) {
	limit = normalizeLimit(limit)
	key := cacheKey(models.RoleSponsor, sponsorID, limit)
	if cached, ok := s.readCache(ctx, key); ok {
		return cached, nil
	}

	sponsor, err := s.Sponsors.GetByID(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	creators, err := s.Creators.ListMatching(ctx, models.CreatorQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to load creators: %w", err)
	}
	decisions, err := s.Decisions.ForSide(ctx, models.RoleSponsor, sponsorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	byID := make(map[string]models.Creator, len(creators))
	pairs := make([]pair, 0, len(creators))
	for _, c := range creators {
		if decisions[c.ID] == models.DecisionDismissed {
			continue
		}
		byID[c.ID] = c
		pairs = append(pairs, pair{sponsor: *sponsor, creator: c})
	}

	now := time.Now()
	matches := make([]models.Match, 0, len(pairs))
	for _, score := range scoreAll(pairs) {
		c := byID[score.CreatorID]
		matches = append(matches, models.Match{
			Score:       score,
			Counterpart: c.ID,
			Name:        c.DisplayName,
			AvatarURL:   c.AvatarURL,
			Decision:    decisions[c.ID],
			ComputedAt:  now,
		})
	}
	matches = rankAndCap(matches, limit)
	s.writeCache(ctx, key, matches)
	return matches, nil
}

func (s *DefaultMatchingService) MatchesForCreator(ctx context.Context, creatorID string, limit int) ([]models.Match, error) {
	limit = normalizeLimit(limit)
	key := cacheKey(models.RoleCreator, creatorID, limit)
	if cached, ok := s.readCache(ctx, key); ok {
		return cached, nil
	}

	creator, err := s.Creators.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	sponsors, err := s.Sponsors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sponsors: %w", err)
	}
	decisions, err := s.Decisions.ForSide(ctx, models.RoleCreator, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}

	byID := make(map[string]models.Sponsor, len(sponsors))
	pairs := make([]pair, 0, len(sponsors))
	for _, sp := range sponsors {
		if decisions[sp.ID] == models.DecisionDismissed {
			continue
		}
		byID[sp.ID] = sp
		pairs = append(pairs, pair{sponsor: sp, creator: *creator})
	}

	now := time.Now()
	matches := make([]models.Match, 0, len(pairs))
	for _, score := range scoreAll(pairs) {
		sp := byID[score.SponsorID]
		matches = append(matches, models.Match{
			Score:       score,
			Counterpart: sp.ID,
			Name:        sp.Name,
			AvatarURL:   sp.LogoURL,
			Decision:    decisions[sp.ID],
			ComputedAt:  now,
		})
	}
	matches = rankAndCap(matches, limit)
	s.writeCache(ctx, key, matches)
	return matches, nil
}

// rankAndCap orders by total, then counterpart ID, keeps limit entries and
// flags the first one.
func rankAndCap(matches []models.Match, limit int) []models.Match {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score.Total != matches[j].Score.Total {
			return matches[i].Score.Total > matches[j].Score.Total
		}
		return matches[i].Counterpart < matches[j].Counterpart
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if len(matches) > 0 {
		matches[0].Top = true
	}
	return matches
}

func (s *DefaultMatchingService) MatchesForUser(ctx context.Context, userID string, role models.Role, limit int) ([]models.Match, error) {
	switch role {
	case models.RoleSponsor:
		sponsor, err := s.Sponsors.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.MatchesForSponsor(ctx, sponsor.ID, limit)
	case models.RoleCreator:
		creator, err := s.Creators.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return s.MatchesForCreator(ctx, creator.ID, limit)
	}
	return nil, fmt.Errorf("matches are only available to sponsors and creators: %w", utils.ErrForbidden)
}

func validDecision(status string) bool {
	switch status {
	case models.DecisionSaved, models.DecisionDismissed, models.DecisionContacted:
		return true
	}
	return false
}

func (s *DefaultMatchingService) SetDecision(ctx context.Context, side models.Role, sponsorID, creatorID, status string) error {
	if side != models.RoleSponsor && side != models.RoleCreator {
		return utils.NewValidationError("side", "side must be sponsor or creator")
	}
	if !validDecision(status) {
		return utils.NewValidationError("status", "status must be saved, dismissed or contacted")
	}
	if err := s.Decisions.Upsert(ctx, &models.MatchDecision{
		ID:        uuid.New().String(),
		SponsorID: sponsorID,
		CreatorID: creatorID,
		Side:      side,
		Status:    status,
	}); err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	owner := sponsorID
	if side == models.RoleCreator {
		owner = creatorID
	}
	s.invalidate(ctx, side, owner)
	return nil
}

func (s *DefaultMatchingService) SetDecisionForUser(ctx context.Context, userID string, role models.Role, counterpartID, status string) error {
	switch role {
	case models.RoleSponsor:
		sponsor, err := s.Sponsors.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := s.Creators.GetByID(ctx, counterpartID); err != nil {
			return err
		}
		return s.SetDecision(ctx, role, sponsor.ID, counterpartID, status)
	case models.RoleCreator:
		creator, err := s.Creators.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if _, err := s.Sponsors.GetByID(ctx, counterpartID); err != nil {
			return err
		}
		return s.SetDecision(ctx, role, counterpartID, creator.ID, status)
	}
	return fmt.Errorf("only sponsors and creators record match decisions: %w", utils.ErrForbidden)
}

// Explain returns an AI explanation when available and the rules text otherwise.
func (s *DefaultMatchingService) Explain(ctx context.Context, sponsorID, creatorID string) (*models.MatchExplanation, error) {
	sponsor, err := s.Sponsors.GetByID(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	creator, err := s.Creators.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	score := Score(*sponsor, *creator)

	if s.Explainer != nil {
		text, err := s.Explainer.ExplainMatch(ctx, sponsorID, creatorID, models.MatchPrompt{
			SponsorName:     sponsor.Name,
			SponsorIndustry: sponsor.Industry,
			TargetNiches:    sponsor.TargetNiches,
			CreatorName:     creator.DisplayName,
			CreatorNiches:   creator.Niches,
			Followers:       creator.TotalFollowers,
			EngagementRate:  creator.EngagementRate,
			RatePerPost:     creator.RatePerPost,
			Breakdown:       score.Breakdown,
			Total:           score.Total,
		})
		if err == nil {
			return &models.MatchExplanation{Score: score, Explanation: text, Source: "ai"}, nil
		}
		if !errors.Is(err, ai.ErrUnavailable) {
			utils.GetLogger().Warn("AI explanation failed, using rules", zap.Error(err))
		}
	}
	return &models.MatchExplanation{Score: score, Explanation: RulesExplanation(creator.DisplayName, score), Source: "rules"}, nil
}

// RulesExplanation is the deterministic explanation built from reasons.
func RulesExplanation(creatorName string, score models.MatchScore) string {
	if len(score.Reasons) == 0 {
		return fmt.Sprintf("%s scores %.0f/100. No single factor stands out; review the breakdown before reaching out.", creatorName, score.Total)
	}
	return fmt.Sprintf("%s scores %.0f/100. %s.", creatorName, score.Total, strings.Join(score.Reasons, ". "))
}

func (s *DefaultMatchingService) RefreshAll(ctx context.Context) (int, error) {
	sponsors, err := s.Sponsors.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	warmed := 0
	for _, sp := range sponsors {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if err := s.RefreshSponsor(ctx, sp.ID); err != nil {
			utils.GetLogger().Warn("failed to refresh matches", zap.String("sponsorID", sp.ID), zap.Error(err))
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (s *DefaultMatchingService) RefreshSponsor(ctx context.Context, sponsorID string) error {
	s.invalidate(ctx, models.RoleSponsor, sponsorID)
	_, err := s.MatchesForSponsor(ctx, sponsorID, DefaultLimit)
	return err
}

func (s *DefaultMatchingService) readCache(ctx context.Context, key string) ([]models.Match, bool) {
	if s.CacheClient == nil {
		return nil, false
	}
	cached, err := s.CacheClient.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.GetLogger().Warn("match cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var matches []models.Match
	if err := json.Unmarshal([]byte(cached), &matches); err != nil {
		return nil, false
	}
	return matches, true
}

func (s *DefaultMatchingService) writeCache(ctx context.Context, key string, matches []models.Match) {
	if s.CacheClient == nil {
		return
	}
	data, err := json.Marshal(matches)
	if err != nil {
		return
	}
	if err := s.CacheClient.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		utils.GetLogger().Warn("match cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate drops every cached limit for one owner.
func (s *DefaultMatchingService) invalidate(ctx context.Context, side models.Role, ownerID string) {
	if s.CacheClient == nil {
		return
	}
	iter := s.CacheClient.Scan(ctx, 0, fmt.Sprintf("match:%s:%s:*", side, ownerID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		utils.GetLogger().Warn("match cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		s.CacheClient.Del(ctx, keys...)
	}
}
