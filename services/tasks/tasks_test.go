package tasks

import (
	"testing"

	"sponsorly/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRenderTaskRoundTrip(t *testing.T) {
	task, opts, err := NewReportRenderTask(models.ReportRenderPayload{ReportID: "r1", RequestedBy: "u1"})
	require.NoError(t, err)
	assert.Equal(t, TypeReportRender, task.Type())
	assert.Len(t, opts, 3)

	p, err := ParseReportRender(task)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.ReportID)
	assert.Equal(t, "u1", p.RequestedBy)
}

func TestMatchRefreshTask(t *testing.T) {
	all, opts, err := NewMatchRefreshTask(models.MatchRefreshPayload{})
	require.NoError(t, err)
	assert.Len(t, opts, 2)
	p, err := ParseMatchRefresh(all)
	require.NoError(t, err)
	assert.Empty(t, p.SponsorID)

	_, opts, err = NewMatchRefreshTask(models.MatchRefreshPayload{SponsorID: "s1"})
	require.NoError(t, err)
	assert.Len(t, opts, 3, "per-sponsor refreshes are deduplicated")

	p, err = ParseMatchRefresh(asynq.NewTask(TypeMatchRefresh, nil))
	require.NoError(t, err)
	assert.Empty(t, p.SponsorID)
}

func TestWeeklyDigestTask(t *testing.T) {
	assert.Equal(t, TypeWeeklyDigest, NewWeeklyDigestTask().Type())
}
