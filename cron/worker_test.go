package cron

import (
	"context"
	"errors"
	"testing"

	"sponsorly/models"
	"sponsorly/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReports struct{ processed []string }

func (f *fakeReports) Process(_ context.Context, id string) error {
	f.processed = append(f.processed, id)
	return nil
}

type fakeMatches struct {
	all      int
	sponsors []string
}

func (f *fakeMatches) RefreshAll(context.Context) (int, error) {
	f.all++
	return 3, nil
}

func (f *fakeMatches) RefreshSponsor(_ context.Context, id string) error {
	f.sponsors = append(f.sponsors, id)
	return nil
}

type fakeDigest struct{ err error }

func (f fakeDigest) SendWeeklyDigest(context.Context) (int, error) { return 0, f.err }

func TestMuxRoutesTasks(t *testing.T) {
	reports, matches := &fakeReports{}, &fakeMatches{}
	mux := NewMux(Handlers{Reports: reports, Matches: matches, Digest: fakeDigest{}})
	ctx := context.Background()

	task, _, err := tasks.NewReportRenderTask(models.ReportRenderPayload{ReportID: "r1"})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(ctx, task))
	assert.Equal(t, []string{"r1"}, reports.processed)

	one, _, _ := tasks.NewMatchRefreshTask(models.MatchRefreshPayload{SponsorID: "s1"})
	all, _, _ := tasks.NewMatchRefreshTask(models.MatchRefreshPayload{})
	require.NoError(t, mux.ProcessTask(ctx, one))
	require.NoError(t, mux.ProcessTask(ctx, all))
	assert.Equal(t, []string{"s1"}, matches.sponsors)
	assert.Equal(t, 1, matches.all)

	require.NoError(t, mux.ProcessTask(ctx, tasks.NewWeeklyDigestTask()))
}

func TestMalformedPayloadSkipsRetry(t *testing.T) {
	mux := NewMux(Handlers{Reports: &fakeReports{}, Matches: &fakeMatches{}, Digest: fakeDigest{}})
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeReportRender, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDigestErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	mux := NewMux(Handlers{Digest: fakeDigest{err: boom}})
	assert.ErrorIs(t, mux.ProcessTask(context.Background(), tasks.NewWeeklyDigestTask()), boom)
}
