package reportgen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	campaignRepo "sponsorly/database/repository/campaign"
	creatorRepo "sponsorly/database/repository/creator"
	reportRepo "sponsorly/database/repository/performance"
	sponsorRepo "sponsorly/database/repository/sponsor"
	"sponsorly/models"
	"sponsorly/services/notification"
	"sponsorly/services/storage"
	"sponsorly/services/tasks"
	"sponsorly/utils"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportService generates print-style campaign performance reports.
type ReportService interface {
	// GenerateForCampaign records a pending report and queues its rendering.
	GenerateForCampaign(ctx context.Context, userID string, role models.Role, campaignID string) (*models.PerformanceReport, error)
	// Process renders a pending report; it is the report:render task body.
	Process(ctx context.Context, reportID string) error
	Get(ctx context.Context, userID string, role models.Role, id string) (*models.PerformanceReport, error)
	Render(ctx context.Context, userID string, role models.Role, id string) (string, error)
	ListForCampaign(ctx context.Context, userID string, role models.Role, campaignID string) ([]models.PerformanceReport, error)
	// RenderCampaign renders a campaign directly without storing anything.
	RenderCampaign(ctx context.Context, campaignID string) (string, error)
}

// DefaultReportService implements ReportService. Without a Queue reports
// render inline.
type DefaultReportService struct {
	Repo      reportRepo.PerformanceReportRepository
	Campaigns campaignRepo.CampaignRepository
	Sponsors  sponsorRepo.SponsorRepository
	Creators  creatorRepo.CreatorRepository
	Storage   storage.StorageService
	Queue     tasks.Enqueuer
	Notifier  notification.NotificationService
	// LastAttempt reports whether a failed run will not be retried. Nil
	// reads the retry count asynq stores on the task context.
	LastAttempt func(ctx context.Context) bool
}

// lastAttempt is true outside a worker, where nothing retries the run.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	return !ok || retried >= maxRetry
}

// giveUp marks the report failed only when err is terminal. Otherwise the
// report stays pending for the next attempt.
func (s *DefaultReportService) giveUp(ctx context.Context, report *models.PerformanceReport, err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		s.fail(ctx, report, err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	final := s.LastAttempt
	if final == nil {
		final = lastAttempt
	}
	if !final(ctx) {
		utils.GetLogger().Warn("report rendering will be retried", zap.String("reportID", report.ID), zap.Error(err))
		return err
	}
	s.fail(ctx, report, err)
	return err
}

// authorize allows the campaign's sponsor, its creators and admins.
func (s *DefaultReportService) authorize(ctx context.Context, userID string, role models.Role, c *models.Campaign) error {
	switch role {
	case models.RoleAdmin:
		return nil
	case models.RoleSponsor:
		sp, err := s.Sponsors.GetByUserID(ctx, userID)
		if err == nil && sp.ID == c.SponsorID {
			return nil
		}
	case models.RoleCreator:
		cr, err := s.Creators.GetByUserID(ctx, userID)
		if err == nil {
			for _, id := range c.CreatorIDs {
				if id == cr.ID {
					return nil
				}
			}
		}
	}
	return fmt.Errorf("campaign %s: %w", c.ID, utils.ErrForbidden)
}

func (s *DefaultReportService) GenerateForCampaign(ctx context.Context, userID string, role models.Role, campaignID string) (*models.PerformanceReport, error) {
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, role, c); err != nil {
		return nil, err
	}
	report := &models.PerformanceReport{
		ID:          uuid.New().String(),
		CampaignID:  c.ID,
		RequestedBy: userID,
		Title:       c.Name + " performance report",
		Status:      models.ReportStatusPending,
		Format:      "markdown",
		CreatedAt:   time.Now(),
	}
	if err := s.Repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	if s.Queue == nil {
		if err := s.Process(ctx, report.ID); err != nil {
			utils.GetLogger().Warn("inline report rendering failed", zap.String("reportID", report.ID), zap.Error(err))
		}
		return s.Repo.GetByID(ctx, report.ID)
	}
	task, opts, err := tasks.NewReportRenderTask(models.ReportRenderPayload{ReportID: report.ID, RequestedBy: userID})
	if err != nil {
		return nil, err
	}
	if _, err := s.Queue.Enqueue(task, opts...); err != nil {
		s.fail(ctx, report, fmt.Errorf("could not queue rendering: %w", err))
		return nil, fmt.Errorf("failed to queue report: %w", err)
	}
	utils.GetLogger().Info("report queued", zap.String("reportID", report.ID), zap.String("campaignID", c.ID))
	return report, nil
}

// gather loads the campaign and, concurrently, its sponsor and creators.
func (s *DefaultReportService) gather(ctx context.Context, campaignID string) (models.ReportData, error) {
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return models.ReportData{}, err
	}
	data := models.ReportData{Campaign: c.View(), GeneratedAt: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sp, err := s.Sponsors.GetByID(gctx, c.SponsorID)
		if err != nil {
			if errors.Is(err, utils.ErrNotFound) {
				data.SponsorName = "Unknown sponsor"
				return nil
			}
			return fmt.Errorf("sponsor: %w", err)
		}
		data.SponsorName = sp.Name
		return nil
	})
	var creators []models.Creator
	g.Go(func() error {
		if len(c.CreatorIDs) == 0 {
			return nil
		}
		var err error
		creators, err = s.Creators.GetByIDs(gctx, c.CreatorIDs)
		if err != nil {
			return fmt.Errorf("creators: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ReportData{}, err
	}

	data.Creators = make([]models.CreatorPerformance, 0, len(creators))
	for _, cr := range creators {
		data.Creators = append(data.Creators, models.CreatorPerformance{
			CreatorID:      cr.ID,
			DisplayName:    cr.DisplayName,
			Handle:         cr.Handle,
			Followers:      cr.TotalFollowers,
			EngagementRate: cr.EngagementRate,
			RatePerPost:    cr.RatePerPost,
		})
	}
	return data, nil
}

func (s *DefaultReportService) Process(ctx context.Context, reportID string) error {
	report, err := s.Repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	if report.Status == models.ReportStatusReady {
		return nil
	}
	logger := utils.GetLogger().With(zap.String("reportID", report.ID), zap.String("campaignID", report.CampaignID))

	data, err := s.gather(ctx, report.CampaignID)
	if err != nil {
		return s.giveUp(ctx, report, err)
	}
	doc, pages, err := Render(data)
	if err != nil {
		s.fail(ctx, report, err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	fields := bson.M{
		"status":      models.ReportStatusReady,
		"pages":       pages,
		"generatedAt": data.GeneratedAt,
		"error":       "",
	}
	if s.Storage != nil {
		obj, err := s.Storage.Upload(ctx, strings.NewReader(doc), "reports/performance/"+report.CampaignID, slug(data.Campaign.Name)+".md")
		if err != nil {
			return s.giveUp(ctx, report, fmt.Errorf("upload: %w", err))
		}
		fields["artifactId"] = obj.ID
		fields["artifactUrl"] = obj.URL
	}
	if err := s.Repo.Update(ctx, report.ID, fields); err != nil {
		return fmt.Errorf("failed to mark report ready: %w", err)
	}
	utils.GetMetrics().ReportsRendered.WithLabelValues(models.ReportStatusReady).Inc()
	logger.Info("report rendered", zap.Int("pages", pages))

	s.notify(ctx, report, models.NotifyReportReady, "Your report is ready",
		fmt.Sprintf("%s is ready to view.", report.Title))
	return nil
}

// fail marks a report failed and tells the requester.
func (s *DefaultReportService) fail(ctx context.Context, report *models.PerformanceReport, cause error) {
	utils.GetMetrics().ReportsRendered.WithLabelValues(models.ReportStatusFailed).Inc()
	utils.GetLogger().Error("report rendering failed", zap.String("reportID", report.ID), zap.Error(cause))
	if err := s.Repo.Update(ctx, report.ID, bson.M{"status": models.ReportStatusFailed, "error": cause.Error()}); err != nil {
		utils.GetLogger().Error("failed to mark report failed", zap.String("reportID", report.ID), zap.Error(err))
	}
	s.notify(ctx, report, models.NotifyReportFailed, "Report generation failed",
		fmt.Sprintf("We could not generate %s. Please try again.", report.Title))
}

func (s *DefaultReportService) notify(ctx context.Context, report *models.PerformanceReport, kind, title, body string) {
	if s.Notifier == nil || report.RequestedBy == "" {
		return
	}
	err := s.Notifier.SendUserPush(ctx, models.PushNotification{
		UserID: report.RequestedBy,
		Type:   kind,
		Title:  title,
		Body:   body,
		Data:   map[string]string{"reportId": report.ID, "campaignId": report.CampaignID},
	})
	if err != nil {
		utils.GetLogger().Warn("report push failed", zap.String("reportID", report.ID), zap.Error(err))
	}
}

// load fetches a report and checks access through its campaign.
func (s *DefaultReportService) load(ctx context.Context, userID string, role models.Role, id string) (*models.PerformanceReport, error) {
	report, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == models.RoleAdmin || report.RequestedBy == userID {
		return report, nil
	}
	c, err := s.Campaigns.GetByID(ctx, report.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, role, c); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *DefaultReportService) Get(ctx context.Context, userID string, role models.Role, id string) (*models.PerformanceReport, error) {
	return s.load(ctx, userID, role, id)
}

// Render returns the stored Markdown, re-rendering when the artifact is unavailable.
func (s *DefaultReportService) Render(ctx context.Context, userID string, role models.Role, id string) (string, error) {
	report, err := s.load(ctx, userID, role, id)
	if err != nil {
		return "", err
	}
	if report.ArtifactID != "" && s.Storage != nil {
		doc, err := s.readArtifact(ctx, report.ArtifactID)
		if err == nil {
			return doc, nil
		}
		utils.GetLogger().Warn("report artifact unavailable, re-rendering", zap.String("reportID", report.ID), zap.Error(err))
	}
	return s.RenderCampaign(ctx, report.CampaignID)
}

func (s *DefaultReportService) readArtifact(ctx context.Context, id string) (string, error) {
	rc, err := s.Storage.Open(ctx, id)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *DefaultReportService) RenderCampaign(ctx context.Context, campaignID string) (string, error) {
	data, err := s.gather(ctx, campaignID)
	if err != nil {
		return "", err
	}
	doc, _, err := Render(data)
	return doc, err
}

func (s *DefaultReportService) ListForCampaign(ctx context.Context, userID string, role models.Role, campaignID string) ([]models.PerformanceReport, error) {
	c, err := s.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, role, c); err != nil {
		return nil, err
	}
	reports, err := s.Repo.ListForCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.PerformanceReport{}
	}
	return reports, nil
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	dash := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "report"
	}
	return out
}
