package middleware

import (
	"context"
	"net/http"
	"strings"

	"sponsorly/models"

	"github.com/gin-gonic/gin"
)

const (
	adminPrefix        = "/api/admin/"
	ctxAuditResourceID = "auditResourceID"
)

// SetAuditResource names the resource a handler created, for routes that
// carry no :id parameter.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(ctxAuditResourceID, id)
}

func auditResourceID(c *gin.Context) string {
	if id := c.GetString(ctxAuditResourceID); id != "" {
		return id
	}
	return c.Param("id")
}

// AuditRecorder stores audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

// AuditTrail records every successful admin mutation once the handler has
// written its response.
func AuditTrail(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		verb, ok := mutationVerb(c.Request.Method)
		if !ok || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		route := c.FullPath()
		if !strings.HasPrefix(route, adminPrefix) {
			return
		}
		resourceType, action := auditAction(strings.TrimPrefix(route, adminPrefix), verb)

		actor := Actor(c)
		entry := models.AuditLog{
			ActorID:      actor.ID,
			ActorEmail:   actor.Email,
			ActorRole:    actor.Role,
			IPAddress:    actor.IP,
			UserAgent:    actor.UserAgent,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   auditResourceID(c),
			Severity:     models.SeverityInfo,
			Metadata:     map[string]any{"method": c.Request.Method, "path": c.Request.URL.Path, "status": c.Writer.Status()},
		}
		if verb == "delete" {
			entry.Severity = models.SeverityWarning
		}
		recorder.Record(c.Request.Context(), entry)
	}
}

func mutationVerb(method string) (string, bool) {
	switch method {
	case http.MethodPost:
		return "create", true
	case http.MethodPut, http.MethodPatch:
		return "update", true
	case http.MethodDelete:
		return "delete", true
	}
	return "", false
}

// auditAction derives "user.update" from "users/:id", and
// "organization.members.create" from "organizations/:id/members".
func auditAction(route, verb string) (string, string) {
	var parts []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return "admin", "admin." + verb
	}
	resource := singular(parts[0])
	parts[0] = resource
	return resource, strings.Join(append(parts, verb), ".")
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}
