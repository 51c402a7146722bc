package matching

import (
	"context"
	"testing"
	"time"

	"sponsorly/database/repository/memstore"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedService(t *testing.T, creatorCount int) (*DefaultMatchingService, *miniredis.Miniredis) {
	t.Helper()
	svc, _ := newTestService(creatorCount)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc.CacheClient = client
	return svc, mr
}

func counterparts(matches []models.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Counterpart
	}
	return out
}

func TestMatchCacheKeyAndTTL(t *testing.T) {
	svc, mr := newCachedService(t, 4)
	ctx := context.Background()

	_, err := svc.MatchesForSponsor(ctx, "s1", 3)
	require.NoError(t, err)
	_, err = svc.MatchesForUser(ctx, "cu00", models.RoleCreator, 0)
	require.NoError(t, err)

	assert.True(t, mr.Exists("match:sponsor:s1:3"))
	assert.Equal(t, 10*time.Minute, mr.TTL("match:sponsor:s1:3"))
	assert.True(t, mr.Exists("match:creator:c00:20"))
	assert.Equal(t, 10*time.Minute, mr.TTL("match:creator:c00:20"))
}

func TestMatchCacheHitSkipsRepositories(t *testing.T) {
	svc, mr := newCachedService(t, 4)
	ctx := context.Background()

	first, err := svc.MatchesForSponsor(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Empty repositories: only a cache hit can still answer.
	svc.Sponsors = memstore.NewSponsors()
	svc.Creators = memstore.NewCreators()

	cached, err := svc.MatchesForSponsor(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Equal(t, counterparts(first), counterparts(cached))
	assert.True(t, cached[0].Top)

	mr.FastForward(11 * time.Minute)
	_, err = svc.MatchesForSponsor(ctx, "s1", 3)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestDecisionInvalidatesEveryCachedLimit(t *testing.T) {
	svc, mr := newCachedService(t, 4)
	ctx := context.Background()

	for _, limit := range []int{2, 10} {
		_, err := svc.MatchesForSponsor(ctx, "s1", limit)
		require.NoError(t, err)
	}
	_, err := svc.MatchesForSponsor(ctx, "s2", 10)
	require.NoError(t, err)

	require.NoError(t, svc.SetDecisionForUser(ctx, "su1", models.RoleSponsor, "c01", models.DecisionDismissed))

	assert.False(t, mr.Exists("match:sponsor:s1:2"))
	assert.False(t, mr.Exists("match:sponsor:s1:10"))
	assert.True(t, mr.Exists("match:sponsor:s2:10"))

	matches, err := svc.MatchesForSponsor(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.NotContains(t, counterparts(matches), "c01")
}

func TestRefreshSponsorRewarmsCache(t *testing.T) {
	svc, mr := newCachedService(t, 2)
	ctx := context.Background()

	_, err := svc.MatchesForSponsor(ctx, "s1", 1)
	require.NoError(t, err)
	require.NoError(t, svc.RefreshSponsor(ctx, "s1"))

	assert.False(t, mr.Exists("match:sponsor:s1:1"))
	assert.True(t, mr.Exists("match:sponsor:s1:20"))
}
