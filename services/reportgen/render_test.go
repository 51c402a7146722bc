package reportgen

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"sponsorly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData(creators int) models.ReportData {
	c := models.Campaign{
		Name:      "Spring Launch",
		Status:    models.CampaignCompleted,
		Budget:    12000,
		Spend:     9000,
		Revenue:   13500,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		Objectives: []models.Objective{
			{Name: "Signups", Target: 1000, Achieved: 800},
		},
		Metrics: models.CampaignMetrics{Impressions: 1250000, Clicks: 25000, Conversions: 500},
	}
	data := models.ReportData{Campaign: c.View(), SponsorName: "Acme", GeneratedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < creators; i++ {
		data.Creators = append(data.Creators, models.CreatorPerformance{
			CreatorID: fmt.Sprint(i), DisplayName: fmt.Sprintf("Creator %d", i), Handle: fmt.Sprintf("c%d", i),
			Followers: 120000, EngagementRate: 0.045, RatePerPost: 1500,
		})
	}
	return data
}

func TestRenderSinglePageOfCreators(t *testing.T) {
	doc, pages, err := Render(sampleData(3))
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.True(t, strings.HasPrefix(doc, "# Spring Launch\n"))
	assert.Contains(t, doc, "| Spend | $9,000.00 |")
	assert.Contains(t, doc, "| Budget used | 75.00% |")
	assert.Contains(t, doc, "| Return on investment | 50.00% |")
	assert.Contains(t, doc, "| Return on objective | 80.00% |")
	assert.Contains(t, doc, "| Impressions | 1,250,000 |")
	assert.Contains(t, doc, "| Click-through rate | 2.00% |")
	assert.Contains(t, doc, "| Signups | 1000 | 800 | 80.00% | 1 |")
	assert.Contains(t, doc, "| Creator 2 | @c2 | 120,000 | 4.50% | $1,500.00 |")
	assert.Contains(t, doc, "1 Mar 2026 to 30 Apr 2026")
	assert.Contains(t, doc, "Page 3 of 3")
	assert.NotContains(t, doc, "(continued)")
}

func TestRenderPaginatesCreators(t *testing.T) {
	doc, pages, err := Render(sampleData(CreatorsPerPage + 1))
	require.NoError(t, err)
	assert.Equal(t, 4, pages)
	assert.Contains(t, doc, "## Creator breakdown (continued)")
	assert.Contains(t, doc, "Page 4 of 4")
	assert.Equal(t, 3, strings.Count(doc, "\n---\n"))
}

func TestRenderWithoutObjectivesOrCreators(t *testing.T) {
	data := sampleData(0)
	data.Campaign.Objectives = nil
	doc, pages, err := Render(data)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	assert.Contains(t, doc, "_No objectives were set for this campaign._")
	assert.Contains(t, doc, "_No creators are assigned to this campaign._")
}

func TestMoneyAndGrouping(t *testing.T) {
	assert.Equal(t, "$0.00", money(0))
	assert.Equal(t, "$999.50", money(999.5))
	assert.Equal(t, "$1,234,567.89", money(1234567.891))
	assert.Equal(t, "-$1,000.00", money(-1000))
	assert.Equal(t, "100", group("100"))
	assert.Equal(t, "-12,345", group("-12345"))
	assert.Equal(t, "not scheduled", period(time.Time{}, time.Time{}))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "spring-launch-2026", slug("  Spring Launch: 2026! "))
	assert.Equal(t, "report", slug("***"))
}
