package sponsor

import (
	"time"

	"sponsorly/models"
)

const day = 24 * time.Hour

// ScoreRFM rates a sponsor's recency, frequency and monetary value on a
// 1-5 scale and assigns the segment.
func ScoreRFM(lastCampaignAt time.Time, campaignCount int, totalSpend float64, now time.Time) models.RFMScore {
	score := models.RFMScore{
		Recency:   recencyScore(lastCampaignAt, now),
		Frequency: frequencyScore(campaignCount),
		Monetary:  monetaryScore(totalSpend),
	}
	score.Segment = Segment(score.Recency, score.Frequency, score.Monetary)
	return score
}

func recencyScore(last, now time.Time) int {
	if last.IsZero() {
		return 1
	}
	days := now.Sub(last) / day
	switch {
	case days <= 30:
		return 5
	case days <= 60:
		return 4
	case days <= 120:
		return 3
	case days <= 240:
		return 2
	}
	return 1
}

func frequencyScore(count int) int {
	switch {
	case count >= 20:
		return 5
	case count >= 10:
		return 4
	case count >= 5:
		return 3
	case count >= 2:
		return 2
	}
	return 1
}

func monetaryScore(spend float64) int {
	switch {
	case spend >= 250_000:
		return 5
	case spend >= 100_000:
		return 4
	case spend >= 50_000:
		return 3
	case spend >= 10_000:
		return 2
	}
	return 1
}

// Segment maps R, F and M scores to a segment. Rules are checked in order.
func Segment(r, f, m int) models.RFMSegment {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return models.SegmentChampions
	case f >= 4 && r >= 3:
		return models.SegmentLoyal
	case r >= 4 && f <= 2:
		return models.SegmentNew
	case r >= 3 && f >= 2:
		return models.SegmentPotentialLoyalist
	case r <= 2 && f >= 3:
		return models.SegmentAtRisk
	case r <= 2 && m >= 3:
		return models.SegmentHibernating
	}
	return models.SegmentLost
}
