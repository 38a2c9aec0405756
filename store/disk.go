package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(ctx context.Context, r io.Reader, name string, size int64, fileType string) (types.SourceFile, error) {
	fileName, err := cleanName(name)
	if err != nil {
		return types.SourceFile{}, err
	}
	file, targetPath, err := createAvailable(s.dir, fileName)
	if err != nil {
		return types.SourceFile{}, fmt.Errorf("create file failed: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close file: %v", err)
		}
	}()

	hr := tool.NewHashingReader(r)
	written, err := copyWithContext(ctx, file, hr)
	if err != nil {
		_ = os.Remove(targetPath)
		if ctx.Err() != nil {
			return types.SourceFile{}, fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		return types.SourceFile{}, fmt.Errorf("write file failed: %w", err)
	}
	if size > 0 && written != size {
		_ = os.Remove(targetPath)
		return types.SourceFile{}, fmt.Errorf("size mismatch: expected %d, wrote %d", size, written)
	}

	tool.DefaultLogger.Infof("[Store] Saved %s (%d bytes)", targetPath, written)
	return types.SourceFile{
		Name:     fileName,
		Size:     written,
		FileType: fileType,
		Key:      filepath.Base(targetPath),
		SHA256:   hr.Sum(),
	}, nil
}

func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}
	p, err := s.path(key)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, 0, fmt.Errorf("open file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat file: %w", err)
	}
	return f, st.Size(), nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *DiskStore) path(key string) (string, error) {
	name, err := cleanName(key)
	if err != nil {
		return "", err
	}
	if name != key {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return filepath.Join(s.dir, name), nil
}

// createAvailable exclusively creates fileName under dir, falling back to
// base-2.ext, base-3.ext, ... while a name is taken.
func createAvailable(dir, fileName string) (*os.File, string, error) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	if base == "" {
		base = fileName
		ext = ""
	}
	try := filepath.Join(dir, fileName)
	for n := 2; ; n++ {
		file, err := os.OpenFile(try, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, try, nil
		}
		if !os.IsExist(err) {
			return nil, "", err
		}
		try = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
}

// copyWithContext copies from src to dst while respecting context cancellation.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 2*1024*1024) // 2MB buffer
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[0:nr])
			written += int64(nw)
			if writeErr != nil {
				return written, writeErr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, readErr
		}
	}
}
