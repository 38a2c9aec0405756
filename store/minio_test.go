package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moyoez/mediaupload/types"
)

func TestNewMinIOStore_ValidatesConfig(t *testing.T) {
	_, err := NewMinIOStore(context.Background(), types.MinIOConfig{Bucket: "b"})
	require.ErrorContains(t, err, "endpoint")

	_, err = NewMinIOStore(context.Background(), types.MinIOConfig{Endpoint: "localhost:9000"})
	require.ErrorContains(t, err, "bucket")
}

func TestNewMinIOStore_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMinIOStore(ctx, types.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMinIOStore_ObjectName(t *testing.T) {
	s := &MinIOStore{basePath: "media/"}

	got, err := s.objectName("abc/photo.png")
	require.NoError(t, err)
	require.Equal(t, "media/abc/photo.png", got)

	got, err = s.objectName("abc/photo..jpg")
	require.NoError(t, err)
	require.Equal(t, "media/abc/photo..jpg", got)

	for _, bad := range []string{"", " ", "/abs", "../up", "a/../../b"} {
		_, err := s.objectName(bad)
		require.Error(t, err, bad)
	}
}
