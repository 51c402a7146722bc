package user

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"sponsorly/models"
	"sponsorly/utils"

	"go.uber.org/zap"
)

var (
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasNumber = regexp.MustCompile(`[0-9]`)
	hasSymbol = regexp.MustCompile(`[\W_]`)
	langCode  = regexp.MustCompile(`^[a-z]{2}$`)
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
)

// VerifyPasswordComplexity checks that the password meets complexity requirements.
func VerifyPasswordComplexity(pw string) error {
	switch {
	case len(pw) < 8:
		return utils.NewValidationError("password", "password must be at least 8 characters long")
	case !hasUpper.MatchString(pw):
		return utils.NewValidationError("password", "password must include at least one uppercase letter")
	case !hasLower.MatchString(pw):
		return utils.NewValidationError("password", "password must include at least one lowercase letter")
	case !hasNumber.MatchString(pw):
		return utils.NewValidationError("password", "password must include at least one number")
	case !hasSymbol.MatchString(pw):
		return utils.NewValidationError("password", "password must include at least one symbol")
	}
	return nil
}

// normalizeEmail lower-cases and validates an email address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", utils.NewValidationError("email", "please enter an email address")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", utils.NewValidationError("email", "please enter a valid email address")
	}
	return email, nil
}

func validateTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil || tz == "" || tz == "Local" {
		return utils.NewValidationError("timezone", "unknown timezone")
	}
	return nil
}

func validateLanguage(lang string) error {
	if !langCode.MatchString(lang) {
		return utils.NewValidationError("language", "language must be a two-letter code")
	}
	return nil
}

// handleFor derives a unique-looking creator handle from a display name.
func handleFor(name, id string) string {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "creator"
	}
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return base + "-" + suffix
}

// cacheToken warms the auth cache. A nil cache client disables caching.
func (s *DefaultUserService) cacheToken(ctx context.Context, userID, tokenHash string, role models.Role) {
	if s.AuthCache == nil {
		return
	}
	value := tokenHash + ":" + string(role)
	if err := s.AuthCache.Set(ctx, utils.AuthCacheKey(userID), value, utils.AuthCacheTTL).Err(); err != nil {
		utils.GetLogger().Warn("failed to cache auth token", zap.String("userID", userID), zap.Error(err))
	}
}

// evictToken drops the cached session so the next request re-reads the user.
func (s *DefaultUserService) evictToken(ctx context.Context, userID string) {
	if s.AuthCache == nil {
		return
	}
	if err := s.AuthCache.Del(ctx, utils.AuthCacheKey(userID)).Err(); err != nil {
		utils.GetLogger().Warn("failed to clear auth cache", zap.String("userID", userID), zap.Error(err))
	}
}
