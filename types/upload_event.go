package types

type UploadEventType string

const (
	EventProgress    UploadEventType = "progress"
	EventStatus      UploadEventType = "status"
	EventAbort       UploadEventType = "abort"
	EventAllComplete UploadEventType = "all-complete"
	EventError       UploadEventType = "error"
)

// UploadEvent is delivered to tracker subscribers.
// Progress events carry File and Progress (0-100), status events File and Status,
// batch events (abort, all-complete, error) carry Files.
type UploadEvent struct {
	Type     UploadEventType `json:"type"`
	File     *UploadFile     `json:"file,omitempty"`
	Files    []UploadFile    `json:"files,omitempty"`
	Progress float64         `json:"progress"`
	Status   UploadStatus    `json:"status,omitempty"`
}

// Batch reports whether the event describes the whole batch rather than one file.
func (e UploadEvent) Batch() bool {
	return e.Type == EventAbort || e.Type == EventAllComplete || e.Type == EventError
}
