package notification

import (
	"context"
	"fmt"

	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/utils"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Pusher delivers one FCM message. *messaging.Client satisfies it.
type Pusher interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NotificationService sends push notifications to users.
type NotificationService interface {
	// SendUserPush delivers n to the user's device. Users without a token
	// or with push disabled are skipped without error.
	SendUserPush(ctx context.Context, n models.PushNotification) error
}

// DefaultNotificationService is the production implementation. A nil
// Pusher disables delivery.
type DefaultNotificationService struct {
	Users  userRepo.UserRepository
	Pusher Pusher
}

func (s *DefaultNotificationService) SendUserPush(ctx context.Context, n models.PushNotification) error {
	if s.Pusher == nil {
		return nil
	}
	u, err := s.Users.GetByIDWithProjection(ctx, n.UserID, bson.M{"settings": 1, "role": 1})
	if err != nil {
		return fmt.Errorf("SendUserPush: could not find user %s: %w", n.UserID, err)
	}
	if !u.Settings.PushNotifications || u.Settings.FCMToken == "" {
		utils.GetLogger().Debug("push skipped", zap.String("userID", n.UserID), zap.String("type", n.Type))
		return nil
	}

	data := make(map[string]string, len(n.Data)+2)
	for k, v := range n.Data {
		data[k] = v
	}
	data["type"] = n.Type
	data["role"] = string(u.Role)

	id, err := s.Pusher.Send(ctx, &messaging.Message{
		Token: u.Settings.FCMToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			// The device is gone; forget the token so we stop trying.
			if uerr := s.Users.Update(ctx, n.UserID, bson.M{"settings.fcmToken": ""}); uerr != nil {
				utils.GetLogger().Warn("failed to clear stale FCM token", zap.Error(uerr))
			}
			return nil
		}
		return fmt.Errorf("SendUserPush: failed to send FCM message: %w", err)
	}
	utils.GetLogger().Debug("push sent", zap.String("userID", n.UserID), zap.String("messageID", id))
	return nil
}
