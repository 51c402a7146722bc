package message

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	creatorRepo "sponsorly/database/repository/creator"
	messageRepo "sponsorly/database/repository/message"
	sponsorRepo "sponsorly/database/repository/sponsor"
	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/services/notification"
	"sponsorly/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DecisionRecorder records match decisions.
type DecisionRecorder interface {
	SetDecision(ctx context.Context, side models.Role, sponsorID, creatorID, status string) error
}

// MessageService handles contact-dialog messages.
type MessageService interface {
	Send(ctx context.Context, fromUserID string, req models.SendMessageRequest) (*models.Message, error)
	Inbox(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error)
	Sent(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error)
	MarkRead(ctx context.Context, userID, id string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// DefaultMessageService implements MessageService.
type DefaultMessageService struct {
	Repo      messageRepo.MessageRepository
	Users     userRepo.UserRepository
	Sponsors  sponsorRepo.SponsorRepository
	Creators  creatorRepo.CreatorRepository
	Decisions DecisionRecorder
	Notifier  notification.NotificationService
}

// Send validates and stores a message, then notifies the recipient.
func (s *DefaultMessageService) Send(ctx context.Context, fromUserID string, req models.SendMessageRequest) (*models.Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, utils.NewValidationError("body", "please enter a message")
	}
	if utf8.RuneCountInString(body) > models.MaxMessageLength {
		return nil, utils.NewValidationError("body", fmt.Sprintf("message must be at most %d characters", models.MaxMessageLength))
	}
	if req.ToUserID == "" {
		return nil, utils.NewValidationError("toUserId", "please choose a recipient")
	}
	if req.ToUserID == fromUserID {
		return nil, utils.NewValidationError("toUserId", "you cannot message yourself")
	}
	subject := strings.TrimSpace(req.Subject)
	if utf8.RuneCountInString(subject) > 200 {
		return nil, utils.NewValidationError("subject", "subject must be at most 200 characters")
	}

	sender, err := s.Users.GetByIDWithProjection(ctx, fromUserID, nil)
	if err != nil {
		return nil, err
	}
	recipient, err := s.Users.GetByIDWithProjection(ctx, req.ToUserID, nil)
	if err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		FromUserID: sender.ID,
		FromName:   sender.Name,
		ToUserID:   recipient.ID,
		Subject:    subject,
		Body:       body,
		CampaignID: req.CampaignID,
		CreatedAt:  time.Now(),
	}
	if err := s.Repo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if sender.Role == models.RoleSponsor && recipient.Role == models.RoleCreator {
		s.markContacted(ctx, sender.ID, recipient.ID)
	}
	if s.Notifier != nil {
		title := "New message from " + sender.Name
		if subject != "" {
			title = subject
		}
		if err := s.Notifier.SendUserPush(ctx, models.PushNotification{
			UserID: recipient.ID,
			Type:   models.NotifyNewMessage,
			Title:  title,
			Body:   preview(body, 120),
			Data:   map[string]string{"messageId": msg.ID, "fromUserId": sender.ID},
		}); err != nil {
			utils.GetLogger().Warn("message push failed", zap.String("messageID", msg.ID), zap.Error(err))
		}
	}
	return msg, nil
}

func (s *DefaultMessageService) markContacted(ctx context.Context, sponsorUserID, creatorUserID string) {
	if s.Decisions == nil {
		return
	}
	sponsor, err := s.Sponsors.GetByUserID(ctx, sponsorUserID)
	if err != nil {
		return
	}
	creator, err := s.Creators.GetByUserID(ctx, creatorUserID)
	if err != nil {
		return
	}
	if err := s.Decisions.SetDecision(ctx, models.RoleSponsor, sponsor.ID, creator.ID, models.DecisionContacted); err != nil {
		utils.GetLogger().Warn("failed to mark match contacted", zap.Error(err))
	}
}

func preview(body string, n int) string {
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n-1]) + "…"
}

func (s *DefaultMessageService) Inbox(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error) {
	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	items, total, err := s.Repo.Inbox(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return &models.ListResponse{Items: nonNil(items), Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *DefaultMessageService) Sent(ctx context.Context, userID string, page models.Page) (*models.ListResponse, error) {
	page = page.Normalize(utils.DefaultPageSize, utils.MaxPageSize)
	items, total, err := s.Repo.Sent(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return &models.ListResponse{Items: nonNil(items), Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *DefaultMessageService) MarkRead(ctx context.Context, userID, id string) error {
	return s.Repo.MarkRead(ctx, userID, id)
}

func (s *DefaultMessageService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.Repo.CountUnread(ctx, userID)
}

func nonNil(items []models.Message) []models.Message {
	if items == nil {
		return []models.Message{}
	}
	return items
}
