package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/mediaupload/api/models"
	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

// UserStatus returns server status for the host UI.
// GET /api/uploader/v1/status
func UserStatus(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	clients := 0
	if hub := models.GetNotifyHub(); hub != nil {
		clients = hub.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"running":           true,
		"batch_size":        len(models.GetTracker().Files()),
		"notify_ws_enabled": models.GetNotifyHub() != nil,
		"notify_ws_clients": clients,
		"notify_socket":     cfg.Notify.UnixSocket,
		"notify_nats":       cfg.Notify.NatsURL != "",
		"storage_backend":   cfg.Storage.Backend,
	})
}

// UserConfigGet returns the current config.
// GET /api/uploader/v1/config
func UserConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, tool.GetCurrentConfig())
}

// UserConfigPatch accepts full or partial config and persists it to config.yaml.
// PATCH /api/uploader/v1/config
func UserConfigPatch(c *gin.Context) {
	var body types.ConfigPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	cfg := tool.GetCurrentConfig()
	if body.Port != nil {
		cfg.Port = *body.Port
	}
	if body.UploadFolder != nil {
		cfg.UploadFolder = *body.UploadFolder
	}
	if body.Storage != nil {
		secret := cfg.Storage.MinIO.SecretAccessKey
		cfg.Storage = *body.Storage
		if cfg.Storage.MinIO.SecretAccessKey == "" {
			cfg.Storage.MinIO.SecretAccessKey = secret
		}
	}
	if body.Notify != nil {
		cfg.Notify = *body.Notify
	}
	if body.RateLimitPPS != nil {
		cfg.RateLimitPPS = *body.RateLimitPPS
	}
	if body.ResultTTLSecs != nil {
		cfg.ResultTTLSecs = *body.ResultTTLSecs
	}

	if err := tool.PersistAppConfig(cfg); err != nil {
		tool.DefaultLogger.Warnf("%v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to persist config"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
