package campaignRepo

import (
	"testing"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter(t *testing.T) {
	filter := BuildListFilter(models.CampaignQuery{
		Q:         "spring",
		Status:    models.CampaignActive,
		SponsorID: "sp-1",
		CreatorID: "cr-9",
	})

	assert.Equal(t, bson.M{
		"name":       bson.M{"$regex": "spring", "$options": "i"},
		"status":     models.CampaignActive,
		"sponsorId":  "sp-1",
		"creatorIds": "cr-9",
	}, filter)
}

func TestBuildListFilter_Empty(t *testing.T) {
	assert.Empty(t, BuildListFilter(models.CampaignQuery{}))
}
