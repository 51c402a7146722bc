package models

// Notification types sent as push payload "type".
const (
	NotifyNewMessage   = "new_message"
	NotifyReportReady  = "report_ready"
	NotifyReportFailed = "report_failed"
	NotifyWeeklyDigest = "weekly_digest"
	NotifyCreditsAdded = "credits_added"
)

// PushNotification is a single push message addressed to a user.
type PushNotification struct {
	UserID string            `json:"userId"`
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
