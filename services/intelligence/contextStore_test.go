package ai

import (
	"context"
	"testing"
	"time"

	"sponsorly/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ExplanationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewExplanationStore(client, time.Hour), mr
}

func TestExplanationStoreKeyedByScore(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, ok := store.Get(ctx, "s1", "c1", 72)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "s1", "c1", 72, "Strong niche overlap."))
	assert.Equal(t, time.Hour, mr.TTL("ai:explain:s1:c1"))

	text, ok := store.Get(ctx, "s1", "c1", 72)
	assert.True(t, ok)
	assert.Equal(t, "Strong niche overlap.", text)

	_, ok = store.Get(ctx, "s1", "c1", 65)
	assert.False(t, ok, "a changed score must not reuse the old text")

	require.NoError(t, store.Clear(ctx, "s1", "c1"))
	_, ok = store.Get(ctx, "s1", "c1", 72)
	assert.False(t, ok)
	require.NoError(t, store.Clear(ctx, "s1", "c1"))
}

func TestExplanationStoreExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "c1", 50, "ok"))
	mr.FastForward(61 * time.Minute)
	_, ok := store.Get(ctx, "s1", "c1", 50)
	assert.False(t, ok)
}

func TestNilExplanationStoreIsNoop(t *testing.T) {
	var store *ExplanationStore
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "s1", "c1", 50, "ok"))
	_, ok := store.Get(ctx, "s1", "c1", 50)
	assert.False(t, ok)
	require.NoError(t, store.Clear(ctx, "s1", "c1"))
}

func TestGeminiExplainerReusesCachedText(t *testing.T) {
	store, _ := newTestStore(t)
	gen := &stubGenerator{answer: "Good fit."}
	explainer := &GeminiExplainer{Generator: gen, Store: store}
	prompt := models.MatchPrompt{SponsorName: "Acme", CreatorName: "Jo", Total: 72}

	for i := 0; i < 3; i++ {
		text, err := explainer.ExplainMatch(context.Background(), "s1", "c1", prompt)
		require.NoError(t, err)
		assert.Equal(t, "Good fit.", text)
	}
	assert.Len(t, gen.prompts, 1)

	prompt.Total = 80
	_, err := explainer.ExplainMatch(context.Background(), "s1", "c1", prompt)
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 2)
}
