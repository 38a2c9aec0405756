package controllers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

func setupConfigRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	previous := tool.ConfigPath
	tool.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	_, err := tool.LoadConfig(tool.ConfigPath)
	require.NoError(t, err)
	t.Cleanup(func() { tool.ConfigPath = previous })

	router := gin.New()
	router.GET("/status", UserStatus)
	router.GET("/config", UserConfigGet)
	router.PATCH("/config", UserConfigPatch)
	return router
}

func TestUserStatus(t *testing.T) {
	router := setupConfigRouter(t)

	w := doJSON(router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, true, body["running"])
	require.Equal(t, "disk", body["storage_backend"])
}

func TestUserConfigPatch(t *testing.T) {
	router := setupConfigRouter(t)

	pps := 5
	w := doJSON(router, http.MethodPatch, "/config", types.ConfigPatchRequest{RateLimitPPS: &pps})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, 5, tool.GetCurrentConfig().RateLimitPPS)

	data, err := os.ReadFile(tool.ConfigPath)
	require.NoError(t, err)
	var onDisk types.AppConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	require.Equal(t, 5, onDisk.RateLimitPPS)
	require.Equal(t, 53318, onDisk.Port)

	w = doJSON(router, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"rateLimitPPS":5`)
}

func TestUserConfigPatch_KeepsSecret(t *testing.T) {
	router := setupConfigRouter(t)

	cfg := tool.GetCurrentConfig()
	cfg.Storage.MinIO.SecretAccessKey = "s3cr3t"
	require.NoError(t, tool.PersistAppConfig(cfg))

	w := doJSON(router, http.MethodPatch, "/config", types.ConfigPatchRequest{
		Storage: &types.StorageConfig{Backend: "minio", MinIO: types.MinIOConfig{Bucket: "media"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	current := tool.GetCurrentConfig()
	require.Equal(t, "minio", current.Storage.Backend)
	require.Equal(t, "media", current.Storage.MinIO.Bucket)
	require.Equal(t, "s3cr3t", current.Storage.MinIO.SecretAccessKey)

	w = doJSON(router, http.MethodGet, "/config", nil)
	require.NotContains(t, w.Body.String(), "s3cr3t")
}

func TestUserConfigPatch_BadBody(t *testing.T) {
	router := setupConfigRouter(t)

	w := doJSON(router, http.MethodPatch, "/config", "not an object")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
