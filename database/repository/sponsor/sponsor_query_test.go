package sponsorRepo

import (
	"testing"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter(t *testing.T) {
	verified := true
	filter := BuildListFilter(models.SponsorQuery{
		Q:         "sport",
		Industry:  "Fitness",
		Segment:   models.SegmentChampions,
		Niche:     "yoga",
		MinBudget: 5000,
		Verified:  &verified,
	})

	rx := bson.M{"$regex": "sport", "$options": "i"}
	assert.Equal(t, bson.A{bson.M{"name": rx}, bson.M{"industry": rx}}, filter["$or"])
	assert.Equal(t, bson.M{"$regex": "^Fitness$", "$options": "i"}, filter["industry"])
	assert.Equal(t, models.SegmentChampions, filter["rfm.segment"])
	assert.Equal(t, bson.M{"$regex": "yoga", "$options": "i"}, filter["targetNiches"])
	assert.Equal(t, bson.M{"$gte": 5000.0}, filter["budgetMax"])
	assert.Equal(t, true, filter["verified"])
}

func TestBuildSort(t *testing.T) {
	tests := map[string]bson.D{
		"":       {{Key: "rating", Value: -1}, {Key: "id", Value: 1}},
		"bogus":  {{Key: "rating", Value: -1}, {Key: "id", Value: 1}},
		"spend":  {{Key: "totalSpend", Value: -1}, {Key: "id", Value: 1}},
		"recent": {{Key: "lastCampaignAt", Value: -1}, {Key: "id", Value: 1}},
		"name":   {{Key: "name", Value: 1}, {Key: "id", Value: 1}},
	}
	for key, want := range tests {
		assert.Equal(t, want, BuildSort(key), "sort key %q", key)
	}
}
