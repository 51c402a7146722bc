package ai

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const explanationPrefix = "ai:explain:"

// ExplanationStore caches generated explanations in Redis so repeat views
// of the same match do not call the model again.
type ExplanationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewExplanationStore(client *redis.Client, ttl time.Duration) *ExplanationStore {
	return &ExplanationStore{client: client, ttl: ttl}
}

type cachedExplanation struct {
	Text  string  `json:"text"`
	Total float64 `json:"total"`
}

func explanationKey(sponsorID, creatorID string) string {
	return explanationPrefix + sponsorID + ":" + creatorID
}

// Get returns the cached text when it was generated for the same total.
func (s *ExplanationStore) Get(ctx context.Context, sponsorID, creatorID string, total float64) (string, bool) {
	if s == nil || s.client == nil {
		return "", false
	}
	data, err := s.client.Get(ctx, explanationKey(sponsorID, creatorID)).Result()
	if err != nil {
		return "", false
	}
	var c cachedExplanation
	if err := json.Unmarshal([]byte(data), &c); err != nil || c.Total != total {
		return "", false
	}
	return c.Text, true
}

func (s *ExplanationStore) Set(ctx context.Context, sponsorID, creatorID string, total float64, text string) error {
	if s == nil || s.client == nil {
		return nil
	}
	b, err := json.Marshal(cachedExplanation{Text: text, Total: total})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, explanationKey(sponsorID, creatorID), b, s.ttl).Err()
}

func (s *ExplanationStore) Clear(ctx context.Context, sponsorID, creatorID string) error {
	if s == nil || s.client == nil {
		return nil
	}
	err := s.client.Del(ctx, explanationKey(sponsorID, creatorID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
