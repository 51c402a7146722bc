package cron

import (
	"context"
	"fmt"
	"time"

	"sponsorly/config"
	"sponsorly/models"
	"sponsorly/services/tasks"
	"sponsorly/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// WeeklyDigestSpec runs the digest on Monday mornings.
	WeeklyDigestSpec = "0 9 * * 1"
	// NightlyMatchRefreshSpec re-warms the match cache every night.
	NightlyMatchRefreshSpec = "30 3 * * *"
)

// ReportProcessor renders queued performance reports.
type ReportProcessor interface {
	Process(ctx context.Context, reportID string) error
}

// MatchRefresher re-warms cached matches.
type MatchRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
	RefreshSponsor(ctx context.Context, sponsorID string) error
}

// DigestSender sends the weekly digest.
type DigestSender interface {
	SendWeeklyDigest(ctx context.Context) (int, error)
}

// Handlers are the task bodies run by the worker.
type Handlers struct {
	Reports ReportProcessor
	Matches MatchRefresher
	Digest  DigestSender
}

// RedisOpt is the asynq connection for the queue database.
func RedisOpt(cfg config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
}

// NewMux routes every task type to its handler.
func NewMux(h Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReportRender, h.handleReportRender)
	mux.HandleFunc(tasks.TypeMatchRefresh, h.handleMatchRefresh)
	mux.HandleFunc(tasks.TypeWeeklyDigest, h.handleWeeklyDigest)
	return mux
}

func (h Handlers) handleReportRender(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseReportRender(task)
	if err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	return h.Reports.Process(ctx, p.ReportID)
}

func (h Handlers) handleMatchRefresh(ctx context.Context, task *asynq.Task) error {
	p, err := tasks.ParseMatchRefresh(task)
	if err != nil {
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.SponsorID != "" {
		return h.Matches.RefreshSponsor(ctx, p.SponsorID)
	}
	n, err := h.Matches.RefreshAll(ctx)
	utils.GetLogger().Info("match cache refreshed", zap.Int("sponsors", n))
	return err
}

func (h Handlers) handleWeeklyDigest(ctx context.Context, _ *asynq.Task) error {
	_, err := h.Digest.SendWeeklyDigest(ctx)
	return err
}

// Worker owns the asynq server and the periodic scheduler.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	opt       asynq.RedisClientOpt
}

// NewWorker prepares the worker without starting it.
func NewWorker(cfg config.Config, h Handlers) *Worker {
	opt := RedisOpt(cfg)
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		Logger: zapAdapter{utils.GetLogger().Sugar()},
	})
	return &Worker{
		server:    srv,
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC}),
		mux:       NewMux(h),
		opt:       opt,
	}
}

// Start runs the server and scheduler in the background, retrying start-up.
func (w *Worker) Start(ctx context.Context) error {
	if _, err := w.scheduler.Register(WeeklyDigestSpec, tasks.NewWeeklyDigestTask()); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}
	refresh, opts, err := tasks.NewMatchRefreshTask(models.MatchRefreshPayload{})
	if err != nil {
		return err
	}
	if _, err := w.scheduler.Register(NightlyMatchRefreshSpec, refresh, opts...); err != nil {
		return fmt.Errorf("failed to schedule match refresh: %w", err)
	}

	go monitorRedisConnection(ctx, w.opt)

	go func() {
		logger := utils.GetLogger()
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.server.Start(w.mux)
			if err == nil {
				logger.Info("task worker started")
				break
			}
			logger.Error("task worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("task worker gave up; background jobs are disabled")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
		if err := w.scheduler.Start(); err != nil {
			logger.Error("task scheduler failed to start", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the scheduler and drains in-flight tasks.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// monitorRedisConnection pings the queue database to surface outages.
func monitorRedisConnection(ctx context.Context, opt asynq.RedisClientOpt) {
	client := redis.NewClient(&redis.Options{Addr: opt.Addr, Password: opt.Password, DB: opt.DB})
	defer client.Close()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				utils.GetLogger().Warn("task queue redis unreachable", zap.Error(err))
			}
		}
	}
}

// zapAdapter lets asynq log through zap.
type zapAdapter struct{ s *zap.SugaredLogger }

func (z zapAdapter) Debug(args ...interface{}) { z.s.Debug(args...) }
func (z zapAdapter) Info(args ...interface{})  { z.s.Info(args...) }
func (z zapAdapter) Warn(args ...interface{})  { z.s.Warn(args...) }
func (z zapAdapter) Error(args ...interface{}) { z.s.Error(args...) }
func (z zapAdapter) Fatal(args ...interface{}) { z.s.Fatal(args...) }
