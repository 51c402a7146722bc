package tasks

import (
	"encoding/json"
	"time"

	"sponsorly/models"

	"github.com/hibiken/asynq"
)

const (
	TypeReportRender = "report:render"
	TypeMatchRefresh = "match:refresh"
	TypeWeeklyDigest = "digest:weekly"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewReportRenderTask(payload models.ReportRenderPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReportRender, b)
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(2 * time.Minute),
		asynq.TaskID("report-" + payload.ReportID),
	}
	return task, opts, nil
}

func NewMatchRefreshTask(payload models.MatchRefreshPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeMatchRefresh, b)
	opts := []asynq.Option{asynq.MaxRetry(1), asynq.Timeout(5 * time.Minute)}
	if payload.SponsorID != "" {
		opts = append(opts, asynq.Unique(time.Minute))
	}
	return task, opts, nil
}

func NewWeeklyDigestTask() *asynq.Task {
	return asynq.NewTask(TypeWeeklyDigest, nil, asynq.MaxRetry(0), asynq.Timeout(10*time.Minute))
}

// ParseReportRender decodes a report:render payload.
func ParseReportRender(t *asynq.Task) (models.ReportRenderPayload, error) {
	var p models.ReportRenderPayload
	err := json.Unmarshal(t.Payload(), &p)
	return p, err
}

// ParseMatchRefresh decodes a match:refresh payload.
func ParseMatchRefresh(t *asynq.Task) (models.MatchRefreshPayload, error) {
	var p models.MatchRefreshPayload
	if len(t.Payload()) == 0 {
		return p, nil
	}
	err := json.Unmarshal(t.Payload(), &p)
	return p, err
}
