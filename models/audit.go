package models

import "time"

// AuditSeverity ranks audit entries for the admin log view.
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityCritical AuditSeverity = "critical"
)

// AuditLog records who did what to which resource.
type AuditLog struct {
	ID             string         `bson:"id" json:"id"`
	ActorID        string         `bson:"actorId,omitempty" json:"actorId,omitempty"`
	ActorEmail     string         `bson:"actorEmail,omitempty" json:"actorEmail,omitempty"`
	ActorRole      Role           `bson:"actorRole,omitempty" json:"actorRole,omitempty"`
	Action         string         `bson:"action" json:"action"`
	ResourceType   string         `bson:"resourceType,omitempty" json:"resourceType,omitempty"`
	ResourceID     string         `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	OrganizationID string         `bson:"organizationId,omitempty" json:"organizationId,omitempty"`
	Metadata       map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IPAddress      string         `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent      string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	Severity       AuditSeverity  `bson:"severity" json:"severity"`
	CreatedAt      time.Time      `bson:"createdAt" json:"createdAt"`
}

// AuditQuery filters the audit log.
type AuditQuery struct {
	Q            string        `form:"q"`
	ActorID      string        `form:"actorId"`
	Action       string        `form:"action"`
	ResourceType string        `form:"resourceType"`
	Severity     AuditSeverity `form:"severity"`
	From         time.Time     `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To           time.Time     `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page         int           `form:"page"`
	PageSize     int           `form:"pageSize"`
}

// Actor identifies who performed an action.
type Actor struct {
	ID        string
	Email     string
	Role      Role
	IP        string
	UserAgent string
}
