package user

import (
	"context"
	"fmt"
	"strings"

	"sponsorly/models"
	"sponsorly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

// GetUser returns the safe view of a user.
func (s *DefaultUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.Repo.GetByIDWithProjection(ctx, userID, nil)
}

// UpdateProfile applies a self-service profile patch.
func (s *DefaultUserService) UpdateProfile(ctx context.Context, userID string, patch models.ProfileUpdate) (*models.User, error) {
	fields := bson.M{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "please enter your name")
		}
		fields["name"] = name
	}
	if patch.AvatarURL != nil {
		fields["avatarUrl"] = strings.TrimSpace(*patch.AvatarURL)
	}
	if len(fields) == 0 {
		return nil, utils.NewValidationError("", "no updatable fields provided")
	}
	if err := s.Repo.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// UpdatePassword swaps the password after checking the current one. Other
// sessions are revoked.
func (s *DefaultUserService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return utils.NewValidationError("currentPassword", "current password is incorrect")
	}
	if currentPassword == newPassword {
		return utils.NewValidationError("newPassword", "new password must differ from the current one")
	}
	if err := VerifyPasswordComplexity(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.Repo.Update(ctx, userID, bson.M{"passwordHash": string(hash), "tokenHash": ""}); err != nil {
		return err
	}
	s.evictToken(ctx, userID)
	return nil
}

// GetSettings returns the user's settings.
func (s *DefaultUserService) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	user, err := s.Repo.GetByIDWithProjection(ctx, userID, bson.M{"settings": 1})
	if err != nil {
		return nil, err
	}
	return &user.Settings, nil
}

// UpdateSettings applies a partial settings update.
func (s *DefaultUserService) UpdateSettings(ctx context.Context, userID string, patch models.SettingsUpdate) (*models.UserSettings, error) {
	fields := bson.M{}
	if patch.EmailNotifications != nil {
		fields["settings.emailNotifications"] = *patch.EmailNotifications
	}
	if patch.PushNotifications != nil {
		fields["settings.pushNotifications"] = *patch.PushNotifications
	}
	if patch.MatchAlerts != nil {
		fields["settings.matchAlerts"] = *patch.MatchAlerts
	}
	if patch.WeeklyDigest != nil {
		fields["settings.weeklyDigest"] = *patch.WeeklyDigest
	}
	if patch.Timezone != nil {
		if err := validateTimezone(*patch.Timezone); err != nil {
			return nil, err
		}
		fields["settings.timezone"] = *patch.Timezone
	}
	if patch.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*patch.Language))
		if err := validateLanguage(lang); err != nil {
			return nil, err
		}
		fields["settings.language"] = lang
	}
	if patch.FCMToken != nil {
		fields["settings.fcmToken"] = strings.TrimSpace(*patch.FCMToken)
	}
	if len(fields) == 0 {
		return nil, utils.NewValidationError("", "no updatable fields provided")
	}
	if err := s.Repo.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.GetSettings(ctx, userID)
}
