package types

const (
	NotifyTypeAbort       = "upload_abort"
	NotifyTypeAllComplete = "upload_all_complete"
	NotifyTypeError       = "upload_error"
	NotifyTypeInfo        = "info"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "upload_all_complete"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}
