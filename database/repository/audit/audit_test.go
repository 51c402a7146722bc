package auditRepo

import (
	"testing"
	"time"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildListFilter_ActionIsPrefix(t *testing.T) {
	filter := BuildListFilter(models.AuditQuery{Action: "user."})
	assert.Equal(t, bson.M{"$regex": `^user\.`}, filter["action"])
}

func TestBuildListFilter_TimeRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	filter := BuildListFilter(models.AuditQuery{From: from, To: to, Severity: models.SeverityWarning})

	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, filter["createdAt"])
	assert.Equal(t, models.SeverityWarning, filter["severity"])
}

func TestBuildListFilter_OpenEndedRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := BuildListFilter(models.AuditQuery{From: from})
	assert.Equal(t, bson.M{"$gte": from}, filter["createdAt"])
}
