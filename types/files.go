package types

// FileInput represents file input information
type FileInput struct {
	FileName string `json:"fileName"` // File name (optional if fileUrl is provided)
	Size     int64  `json:"size"`     // File size in bytes (optional if fileUrl is provided)
	FileType string `json:"fileType"` // File type, e.g., "image/jpeg" (optional if fileUrl is provided)
	FileUrl  string `json:"fileUrl"`  // file:/// URL of the payload
}
