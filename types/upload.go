package types

// UpdateFileRequest is what the uploader plugin posts for every progress or status change.
type UpdateFileRequest struct {
	ID       string   `json:"id" binding:"required"`
	Progress *float64 `json:"progress,omitempty"`
	Status   *string  `json:"status,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// UploadPathsRequest registers files that already live on the local filesystem.
type UploadPathsRequest struct {
	Files []FileInput `json:"files" binding:"required"`
}

// BatchResponse is returned by every operation that hands back the batch.
type BatchResponse struct {
	Files []UploadFile `json:"files"`
}
