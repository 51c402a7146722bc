package notification

import (
	"context"
	"fmt"
	"strings"

	userRepo "sponsorly/database/repository/user"
	"sponsorly/models"
	"sponsorly/utils"

	"go.uber.org/zap"
)

const digestMatches = 3

// MatchLister returns the ranked matches of a user.
type MatchLister interface {
	MatchesForUser(ctx context.Context, userID string, role models.Role, limit int) ([]models.Match, error)
}

// DigestSender pushes the weekly top-matches summary.
type DigestSender struct {
	Users    userRepo.UserRepository
	Matches  MatchLister
	Notifier NotificationService
}

// SendWeeklyDigest notifies every opted-in user with at least one
// undecided match and returns how many were sent.
func (d *DigestSender) SendWeeklyDigest(ctx context.Context) (int, error) {
	recipients, err := d.Users.ListDigestRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list digest recipients: %w", err)
	}
	sent := 0
	for _, u := range recipients {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if u.Role == models.RoleAdmin {
			continue
		}
		matches, err := d.Matches.MatchesForUser(ctx, u.ID, u.Role, digestMatches*2)
		if err != nil {
			utils.GetLogger().Warn("digest: could not load matches", zap.String("userID", u.ID), zap.Error(err))
			continue
		}
		names := make([]string, 0, digestMatches)
		for _, m := range matches {
			if m.Decision != "" {
				continue
			}
			names = append(names, m.Name)
			if len(names) == digestMatches {
				break
			}
		}
		if len(names) == 0 {
			continue
		}
		err = d.Notifier.SendUserPush(ctx, models.PushNotification{
			UserID: u.ID,
			Type:   models.NotifyWeeklyDigest,
			Title:  "Your top matches this week",
			Body:   strings.Join(names, ", "),
		})
		if err != nil {
			utils.GetLogger().Warn("digest push failed", zap.String("userID", u.ID), zap.Error(err))
			continue
		}
		sent++
	}
	utils.GetLogger().Info("weekly digest sent", zap.Int("recipients", len(recipients)), zap.Int("sent", sent))
	return sent, nil
}
