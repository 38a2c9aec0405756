package tool

import (
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"

	"github.com/moyoez/mediaupload/types"
)

// ProcessFileInput resolves the file:// URL of fileInput, fills in missing
// name, size and type from the filesystem and returns the local path.
func ProcessFileInput(fileInput *types.FileInput) (string, error) {
	if fileInput.FileUrl == "" {
		return "", fmt.Errorf("fileUrl is required")
	}
	parsedUrl, err := url.Parse(fileInput.FileUrl)
	if err != nil {
		return "", fmt.Errorf("invalid fileUrl: %w", err)
	}
	if parsedUrl.Scheme != "file" {
		return "", fmt.Errorf("only file:// protocol is supported for fileUrl")
	}

	filePath := parsedUrl.Path
	DefaultLogger.Infof("Reading file info from: %s", filePath)

	fileName, fileSize, fileType, err := GetFileInfoFromPath(filePath)
	if err != nil {
		return "", err
	}
	if fileInput.FileName == "" {
		fileInput.FileName = fileName
		DefaultLogger.Debugf("Auto-detected fileName: %s", fileName)
	}
	if fileInput.Size == 0 {
		fileInput.Size = fileSize
		DefaultLogger.Debugf("Auto-detected size: %d bytes", fileSize)
	}
	if fileInput.FileType == "" {
		fileInput.FileType = fileType
		DefaultLogger.Debugf("Auto-detected fileType: %s", fileType)
	}
	return filePath, nil
}

// GetFileInfoFromPath returns fileName, size and MIME type of a regular file.
func GetFileInfoFromPath(filePath string) (string, int64, string, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.IsDir() {
		return "", 0, "", fmt.Errorf("path is a directory, not a file")
	}

	fileType := mime.TypeByExtension(filepath.Ext(filePath))
	if fileType == "" {
		fileType = "application/octet-stream" // Default MIME type
	}
	return filepath.Base(filePath), fileInfo.Size(), fileType, nil
}
