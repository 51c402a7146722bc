// models/user.go
package models

import "time"

// Role is the account type a user signs in with.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
	RoleSponsor Role = "sponsor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCreator, RoleSponsor:
		return true
	}
	return false
}

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusPending:
		return true
	}
	return false
}

// User represents a platform account: an admin, a content creator or a sponsor.
type User struct {
	ID               string       `bson:"id" json:"id"`
	Name             string       `bson:"name" json:"name"`
	Email            string       `bson:"email" json:"email"`
	PasswordHash     string       `bson:"passwordHash,omitempty" json:"-"`
	Role             Role         `bson:"role" json:"role"`
	Status           UserStatus   `bson:"status" json:"status"`
	OrganizationID   string       `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	OrganizationName string       `bson:"organizationName,omitempty" json:"organizationName,omitempty"`
	AvatarURL        string       `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Credits          int          `bson:"credits" json:"credits"`
	PlanID           string       `bson:"planId" json:"planId"`
	StripeCustomerID string       `bson:"stripeCustomerId,omitempty" json:"-"`
	Settings         UserSettings `bson:"settings" json:"settings"`
	TokenHash        string       `bson:"tokenHash,omitempty" json:"-"`
	LastLoginAt      time.Time    `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// UserSettings backs the settings page.
type UserSettings struct {
	EmailNotifications bool   `bson:"emailNotifications" json:"emailNotifications"`
	PushNotifications  bool   `bson:"pushNotifications" json:"pushNotifications"`
	MatchAlerts        bool   `bson:"matchAlerts" json:"matchAlerts"`
	WeeklyDigest       bool   `bson:"weeklyDigest" json:"weeklyDigest"`
	Timezone           string `bson:"timezone" json:"timezone"`
	Language           string `bson:"language" json:"language"`
	FCMToken           string `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
}

// DefaultUserSettings is applied to every new account.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		EmailNotifications: true,
		PushNotifications:  true,
		MatchAlerts:        true,
		WeeklyDigest:       true,
		Timezone:           "UTC",
		Language:           "en",
	}
}

// UserQuery drives the admin user search.
type UserQuery struct {
	Q        string     `form:"q"`
	Role     Role       `form:"role"`
	Status   UserStatus `form:"status"`
	Page     int        `form:"page"`
	PageSize int        `form:"pageSize"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name           *string     `json:"name,omitempty"`
	Email          *string     `json:"email,omitempty"`
	AvatarURL      *string     `json:"avatarUrl,omitempty"`
	Role           *Role       `json:"role,omitempty"`
	Status         *UserStatus `json:"status,omitempty"`
	OrganizationID *string     `json:"organizationId,omitempty"`
}

// RegistrationRequest is the sign-up payload.
type RegistrationRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

// AuthResponse contains the user's ID, token, and additional details.
type AuthResponse struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
	PlanID string `json:"planId,omitempty"`
}

// LoginRequest is the sign-in payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileUpdate is what users may change about themselves.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// PasswordChange is the change-password payload.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SettingsUpdate is a partial update of UserSettings.
type SettingsUpdate struct {
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	PushNotifications  *bool   `json:"pushNotifications,omitempty"`
	MatchAlerts        *bool   `json:"matchAlerts,omitempty"`
	WeeklyDigest       *bool   `json:"weeklyDigest,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	Language           *string `json:"language,omitempty"`
	FCMToken           *string `json:"fcmToken,omitempty"`
}

// CreateUserRequest is the admin create-user payload.
type CreateUserRequest struct {
	Name           string     `json:"name" binding:"required"`
	Email          string     `json:"email" binding:"required"`
	Password       string     `json:"password" binding:"required"`
	Role           Role       `json:"role" binding:"required"`
	Status         UserStatus `json:"status"`
	OrganizationID string     `json:"organizationId"`
}

// StatusChange is the admin set-status payload.
type StatusChange struct {
	Status UserStatus `json:"status" binding:"required"`
}
