package audit

import (
	"context"
	"time"

	auditRepo "sponsorly/database/repository/audit"
	"sponsorly/models"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditService records and lists audit entries.
type AuditService interface {
	// Record stores entry. It never fails the caller; errors are logged.
	Record(ctx context.Context, entry models.AuditLog)
	List(ctx context.Context, query models.AuditQuery) ([]models.AuditLog, int64, error)
	Latest(ctx context.Context, n int) ([]models.AuditLog, error)
}

// DefaultAuditService is the production implementation.
type DefaultAuditService struct {
	Repo auditRepo.AuditRepository
}

// Record fills in identity and timestamp and stores the entry.
func (s *DefaultAuditService) Record(ctx context.Context, entry models.AuditLog) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = models.SeverityInfo
	}
	// The request may already be finished; keep the write independent of it.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Repo.Insert(writeCtx, &entry); err != nil {
		utils.GetLogger().Error("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("actorId", entry.ActorID),
			zap.Error(err))
	}
}

// List returns one page of audit entries.
func (s *DefaultAuditService) List(ctx context.Context, query models.AuditQuery) ([]models.AuditLog, int64, error) {
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return nil, 0, utils.NewValidationError("to", "the end of the range must not precede its start")
	}
	return s.Repo.List(ctx, query)
}

// Latest returns the n newest entries.
func (s *DefaultAuditService) Latest(ctx context.Context, n int) ([]models.AuditLog, error) {
	if n <= 0 {
		n = 10
	}
	return s.Repo.Latest(ctx, n)
}

// FromActor starts an entry attributed to actor.
func FromActor(actor models.Actor, action, resourceType, resourceID string) models.AuditLog {
	return models.AuditLog{
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		ActorRole:    actor.Role,
		IPAddress:    actor.IP,
		UserAgent:    actor.UserAgent,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}
