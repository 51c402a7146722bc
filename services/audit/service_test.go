package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuditRepo struct {
	entries []models.AuditLog
	err     error
}

func (f *fakeAuditRepo) Insert(_ context.Context, entry *models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, _ models.AuditQuery) ([]models.AuditLog, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeAuditRepo) Latest(_ context.Context, n int) ([]models.AuditLog, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n], nil
}

func TestRecord_FillsDefaults(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := &DefaultAuditService{Repo: repo}

	svc.Record(context.Background(), FromActor(models.Actor{ID: "u1", Email: "a@x.io", Role: models.RoleAdmin}, "user.update", "user", "u2"))

	require.Len(t, repo.entries, 1)
	got := repo.entries[0]
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, models.SeverityInfo, got.Severity)
	assert.Equal(t, "a@x.io", got.ActorEmail)
	assert.Equal(t, "u2", got.ResourceID)
}

func TestRecord_SwallowsStoreErrors(t *testing.T) {
	svc := &DefaultAuditService{Repo: &fakeAuditRepo{err: errors.New("mongo down")}}

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), models.AuditLog{Action: "user.delete"})
	})
}

func TestRecord_SurvivesCancelledRequest(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := &DefaultAuditService{Repo: repo}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Record(ctx, models.AuditLog{Action: "org.create"})

	assert.Len(t, repo.entries, 1)
}

func TestList_RejectsInvertedRange(t *testing.T) {
	svc := &DefaultAuditService{Repo: &fakeAuditRepo{}}
	now := time.Now()

	_, _, err := svc.List(context.Background(), models.AuditQuery{From: now, To: now.Add(-time.Hour)})

	assert.ErrorIs(t, err, utils.ErrValidation)
}
