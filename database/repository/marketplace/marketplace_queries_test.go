package marketRepo

import (
	"testing"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildSort_DefaultsToTrustDescending(t *testing.T) {
	want := bson.D{{Key: "trustScore", Value: -1}, {Key: "id", Value: 1}}
	assert.Equal(t, want, BuildSort(""))
	assert.Equal(t, want, BuildSort(models.ReportSortTrust))
	assert.Equal(t, want, BuildSort("nonsense"))
}

func TestBuildSort_Keys(t *testing.T) {
	cases := []struct {
		key   string
		field string
		dir   int
	}{
		{models.ReportSortPriceAsc, "priceCredits", 1},
		{models.ReportSortPriceDesc, "priceCredits", -1},
		{models.ReportSortRating, "rating", -1},
		{models.ReportSortNewest, "publishedAt", -1},
		{models.ReportSortPopular, "downloads", -1},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			got := BuildSort(tc.key)
			assert.Equal(t, bson.D{{Key: tc.field, Value: tc.dir}, {Key: "id", Value: 1}}, got)
		})
	}
}

func TestBuildListFilter_OnlyPublished(t *testing.T) {
	filter := BuildListFilter(models.ReportQuery{})
	assert.Equal(t, bson.M{"status": models.ReportPublished}, filter)
}

func TestBuildListFilter_AllCriteria(t *testing.T) {
	filter := BuildListFilter(models.ReportQuery{Q: "gen z", Category: "Beauty", MinTrust: 80, MaxPrice: 40})

	assert.Len(t, filter["$or"], 3)
	assert.Equal(t, bson.M{"$regex": "^Beauty$", "$options": "i"}, filter["category"])
	assert.Equal(t, bson.M{"$gte": 80.0}, filter["trustScore"])
	assert.Equal(t, bson.M{"$lte": 40}, filter["priceCredits"])
}
