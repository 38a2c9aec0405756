package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

const (
	minioConnectRetries  = 5
	minioInitialInterval = time.Second
	minioMaxInterval     = 30 * time.Second
)

type MinIOStore struct {
	client   *minio.Client
	bucket   string
	basePath string
}

func NewMinIOStore(ctx context.Context, cfg types.MinIOConfig) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("empty MinIO endpoint")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("empty MinIO bucket")
	}

	var lastErr error
	interval := minioInitialInterval
	for attempt := range minioConnectRetries {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("context canceled before MinIO init: %w", ctx.Err())
		}
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			lastErr = fmt.Errorf("create MinIO client: %w", err)
		} else if err := ensureBucket(ctx, client, cfg.Bucket); err != nil {
			lastErr = err
		} else {
			basePath := strings.Trim(cfg.BasePath, "/")
			if basePath != "" {
				basePath += "/"
			}
			return &MinIOStore{client: client, bucket: cfg.Bucket, basePath: basePath}, nil
		}

		tool.DefaultLogger.Warnf("[Store] MinIO not ready (attempt %d/%d): %v", attempt+1, minioConnectRetries, lastErr)
		if attempt < minioConnectRetries-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context canceled while waiting to retry MinIO: %w", ctx.Err())
			case <-time.After(interval):
				interval = min(interval*2, minioMaxInterval)
			}
		}
	}
	return nil, fmt.Errorf("init MinIO failed after %d attempts: %w", minioConnectRetries, lastErr)
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Save stores the payload under <basePath><uuid>/<name> so equal names never collide.
func (s *MinIOStore) Save(ctx context.Context, r io.Reader, name string, size int64, fileType string) (types.SourceFile, error) {
	fileName, err := cleanName(name)
	if err != nil {
		return types.SourceFile{}, err
	}
	key := tool.GenerateRandomUUID() + "/" + fileName

	putSize := size
	if putSize <= 0 {
		putSize = -1
	}
	hr := tool.NewHashingReader(r)
	info, err := s.client.PutObject(ctx, s.bucket, s.basePath+key, hr, putSize, minio.PutObjectOptions{
		ContentType: fileType,
	})
	if err != nil {
		return types.SourceFile{}, fmt.Errorf("put object: %w", err)
	}

	tool.DefaultLogger.Infof("[Store] Stored object %s/%s%s (%d bytes)", s.bucket, s.basePath, key, info.Size)
	return types.SourceFile{
		Name:     fileName,
		Size:     info.Size,
		FileType: fileType,
		Key:      key,
		SHA256:   hr.Sum(),
	}, nil
}

func (s *MinIOStore) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	objectName, err := s.objectName(key)
	if err != nil {
		return nil, 0, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object: %w", err)
	}
	st, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == minio.NoSuchKey {
			return nil, 0, fmt.Errorf("file not found: %w", err)
		}
		return nil, 0, fmt.Errorf("stat object: %w", err)
	}
	return obj, st.Size, nil
}

func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	objectName, err := s.objectName(key)
	if err != nil {
		return err
	}
	err = s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		var merr minio.ErrorResponse
		if errors.As(err, &merr) && merr.Code == minio.NoSuchKey {
			return nil
		}
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinIOStore) objectName(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") || slices.Contains(strings.Split(key, "/"), "..") {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return s.basePath + key, nil
}
