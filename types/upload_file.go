package types

import (
	"encoding/json"
	"errors"
)

// UploadStatus is the lifecycle state of a single tracked upload.
type UploadStatus string

const (
	StatusPending       UploadStatus = "pending"
	StatusUploading     UploadStatus = "uploading"
	StatusComplete      UploadStatus = "complete"
	StatusAlreadyExists UploadStatus = "alreadyExists"
	StatusError         UploadStatus = "error"
	StatusAborted       UploadStatus = "aborted"
)

// Valid reports whether s is one of the known statuses.
func (s UploadStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUploading, StatusComplete, StatusAlreadyExists, StatusError, StatusAborted:
		return true
	}
	return false
}

// Deferred reports whether s is only applied after the completion handshake.
func (s UploadStatus) Deferred() bool {
	return s == StatusComplete || s == StatusAlreadyExists
}

// Terminal reports whether s ends a file's lifecycle.
func (s UploadStatus) Terminal() bool {
	return s.Deferred() || s == StatusError || s == StatusAborted
}

// Active reports whether the file can still be aborted.
func (s UploadStatus) Active() bool {
	return s == StatusPending || s == StatusUploading
}

// SourceFile is the handle of a stored payload. The tracker never looks inside it.
type SourceFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	FileType string `json:"fileType,omitempty"`
	Key      string `json:"key,omitempty"` // storage key (path on disk or object name)
	SHA256   string `json:"sha256,omitempty"`
}

// UploadFile is one tracked upload unit.
type UploadFile struct {
	ID       string
	Source   SourceFile
	Progress float64 // 0..1
	Status   UploadStatus
	Err      error
}

type uploadFileJSON struct {
	ID       string       `json:"id"`
	Source   SourceFile   `json:"source"`
	Progress float64      `json:"progress"`
	Status   UploadStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
}

func (f UploadFile) MarshalJSON() ([]byte, error) {
	out := uploadFileJSON{
		ID:       f.ID,
		Source:   f.Source,
		Progress: f.Progress,
		Status:   f.Status,
	}
	if f.Err != nil {
		out.Error = f.Err.Error()
	}
	return json.Marshal(out)
}

func (f *UploadFile) UnmarshalJSON(data []byte) error {
	var in uploadFileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = UploadFile{
		ID:       in.ID,
		Source:   in.Source,
		Progress: in.Progress,
		Status:   in.Status,
	}
	if in.Error != "" {
		f.Err = errors.New(in.Error)
	}
	return nil
}

// FileUpdate is a partial update reported by the uploader. Nil fields are left untouched.
type FileUpdate struct {
	Progress *float64
	Status   *UploadStatus
	Err      error
}
