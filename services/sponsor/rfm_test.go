package sponsor

import (
	"testing"
	"time"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
)

func TestRecencyThresholds(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		daysAgo int
		want    int
	}{
		{0, 5}, {30, 5}, {31, 4}, {60, 4}, {120, 3}, {121, 2}, {240, 2}, {241, 1},
	}
	for _, tc := range cases {
		got := recencyScore(now.AddDate(0, 0, -tc.daysAgo), now)
		assert.Equal(t, tc.want, got, "days ago %d", tc.daysAgo)
	}
	assert.Equal(t, 1, recencyScore(time.Time{}, now))
}

func TestFrequencyAndMonetaryThresholds(t *testing.T) {
	assert.Equal(t, 1, frequencyScore(1))
	assert.Equal(t, 2, frequencyScore(2))
	assert.Equal(t, 3, frequencyScore(5))
	assert.Equal(t, 4, frequencyScore(19))
	assert.Equal(t, 5, frequencyScore(20))

	assert.Equal(t, 1, monetaryScore(9_999))
	assert.Equal(t, 2, monetaryScore(10_000))
	assert.Equal(t, 3, monetaryScore(50_000))
	assert.Equal(t, 4, monetaryScore(100_000))
	assert.Equal(t, 5, monetaryScore(250_000))
}

func TestSegmentRuleOrder(t *testing.T) {
	cases := []struct {
		r, f, m int
		want    models.RFMSegment
	}{
		{5, 5, 5, models.SegmentChampions},
		{4, 4, 3, models.SegmentLoyal},
		{3, 5, 1, models.SegmentLoyal},
		{5, 1, 1, models.SegmentNew},
		{4, 2, 5, models.SegmentNew},
		{3, 2, 1, models.SegmentPotentialLoyalist},
		{4, 3, 2, models.SegmentPotentialLoyalist},
		{2, 3, 1, models.SegmentAtRisk},
		{1, 5, 5, models.SegmentAtRisk},
		{2, 1, 3, models.SegmentHibernating},
		{1, 1, 1, models.SegmentLost},
		{3, 1, 5, models.SegmentLost},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Segment(tc.r, tc.f, tc.m), "r=%d f=%d m=%d", tc.r, tc.f, tc.m)
	}
}

func TestScoreRFM(t *testing.T) {
	now := time.Now()
	score := ScoreRFM(now.AddDate(0, 0, -10), 12, 120_000, now)
	assert.Equal(t, models.RFMScore{Recency: 5, Frequency: 4, Monetary: 4, Segment: models.SegmentChampions}, score)

	score = ScoreRFM(time.Time{}, 0, 0, now)
	assert.Equal(t, models.SegmentLost, score.Segment)
}
