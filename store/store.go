package store

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/moyoez/mediaupload/types"
)

const (
	BackendDisk  = "disk"
	BackendMinIO = "minio"
)

// Store keeps source payloads and hands back the handle the tracker carries around.
type Store interface {
	Save(ctx context.Context, r io.Reader, name string, size int64, fileType string) (types.SourceFile, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

// New picks the backend named in cfg.
func New(ctx context.Context, cfg types.AppConfig) (Store, error) {
	switch cfg.Storage.Backend {
	case "", BackendDisk:
		return NewDiskStore(cfg.UploadFolder)
	case BackendMinIO:
		return NewMinIOStore(ctx, cfg.Storage.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// cleanName reduces a client supplied file name to a single safe path element.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == "" {
		return "", fmt.Errorf("empty filename")
	}
	return base, nil
}
