package orgRepo

import (
	"testing"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter(t *testing.T) {
	filter := BuildListFilter(models.OrganizationQuery{Q: "fit", Type: models.OrgTypeAgency, Status: "active"})

	rx := bson.M{"$regex": "fit", "$options": "i"}
	assert.Equal(t, bson.A{bson.M{"name": rx}, bson.M{"industry": rx}}, filter["$or"])
	assert.Equal(t, models.OrgTypeAgency, filter["type"])
	assert.Equal(t, "active", filter["status"])
}

func TestBuildListFilter_BlankQueryIsIgnored(t *testing.T) {
	assert.Empty(t, BuildListFilter(models.OrganizationQuery{Q: "   "}))
}
