package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/moyoez/mediaupload/api/models"
	"github.com/moyoez/mediaupload/store"
	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
	"github.com/moyoez/mediaupload/uploader"
)

type UploadController struct {
	tracker *uploader.Uploader
	store   store.Store
}

func NewUploadController(tracker *uploader.Uploader, s store.Store) *UploadController {
	return &UploadController{
		tracker: tracker,
		store:   s,
	}
}

// HandleUpload stores every multipart "files" part and appends them to the batch.
// POST /api/uploader/v1/upload
func (ctrl *UploadController) HandleUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		tool.DefaultLogger.Errorf("[Upload] Failed to parse multipart form: %v", err)
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid multipart form"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("No files provided"))
		return
	}

	sources := make([]types.SourceFile, 0, len(headers))
	for _, fh := range headers {
		src, err := ctrl.saveMultipart(c.Request.Context(), fh)
		if err != nil {
			tool.DefaultLogger.Errorf("[Upload] Failed to store %s: %v", fh.Filename, err)
			ctrl.discard(sources)
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to store file"))
			return
		}
		sources = append(sources, src)
	}

	batch := ctrl.tracker.Upload(sources)
	tool.DefaultLogger.Infof("[Upload] Registered %d files, batch size %d", len(sources), len(batch))
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.BatchResponse{Files: batch}))
}

// HandleUploadPaths registers files that already exist on this machine (file:// URLs).
// POST /api/uploader/v1/upload-paths
func (ctrl *UploadController) HandleUploadPaths(c *gin.Context) {
	var request types.UploadPathsRequest
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Files) == 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}

	sources := make([]types.SourceFile, 0, len(request.Files))
	for i := range request.Files {
		input := request.Files[i]
		path, err := tool.ProcessFileInput(&input)
		if err != nil {
			ctrl.discard(sources)
			c.JSON(http.StatusBadRequest, tool.FastReturnErrorf("files[%d]: %v", i, err))
			return
		}
		src, err := ctrl.savePath(c.Request.Context(), path, input)
		if err != nil {
			tool.DefaultLogger.Errorf("[Upload] Failed to store %s: %v", path, err)
			ctrl.discard(sources)
			c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to store file"))
			return
		}
		sources = append(sources, src)
	}

	batch := ctrl.tracker.Upload(sources)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.BatchResponse{Files: batch}))
}

// HandleUpdateFile receives progress and status reports from the uploader plugin.
// POST /api/uploader/v1/update-file
func (ctrl *UploadController) HandleUpdateFile(c *gin.Context) {
	var request types.UpdateFileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body"))
		return
	}

	update, err := parseUpdate(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	tool.DefaultLogger.Debugf("[UpdateFile] id=%s progress=%v status=%v", request.ID, request.Progress, request.Status)
	ctrl.tracker.UpdateFile(request.ID, update)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleSignalCompletion confirms that the host has consumed the uploaded assets.
// POST /api/uploader/v1/signal-completion
func (ctrl *UploadController) HandleSignalCompletion(c *gin.Context) {
	tool.DefaultLogger.Infof("[SignalCompletion] Applying staged statuses")
	ctrl.tracker.SignalCompletion()
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleAbort aborts one file (fileId query) or the whole batch.
// POST /api/uploader/v1/abort
func (ctrl *UploadController) HandleAbort(c *gin.Context) {
	fileId := c.Query("fileId")
	tool.DefaultLogger.Infof("[Abort] Received abort request: fileId=%q", fileId)
	ctrl.tracker.Abort(fileId)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// GET /api/uploader/v1/files
func (ctrl *UploadController) HandleFiles(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(types.BatchResponse{Files: ctrl.tracker.Files()}))
}

// POST /api/uploader/v1/reset
func (ctrl *UploadController) HandleReset(c *gin.Context) {
	ctrl.tracker.Reset()
	tool.DefaultLogger.Infof("[Reset] Batch cleared")
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// HandleResult returns a file from the open batch or, once its batch closed, its final record.
// GET /api/uploader/v1/files/:id/result
func (ctrl *UploadController) HandleResult(c *gin.Context) {
	file, closed, ok := ctrl.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, tool.FastReturnError("File not found"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"file":   file,
		"closed": closed,
	}))
}

// HandleSource streams the stored payload so the uploader plugin can fetch it.
// GET /api/uploader/v1/files/:id/source
func (ctrl *UploadController) HandleSource(c *gin.Context) {
	file, _, ok := ctrl.lookup(c.Param("id"))
	if !ok || file.Source.Key == "" {
		c.JSON(http.StatusNotFound, tool.FastReturnError("File not found"))
		return
	}
	rc, size, err := ctrl.store.Open(c.Request.Context(), file.Source.Key)
	if err != nil {
		tool.DefaultLogger.Errorf("[Source] Failed to open %s: %v", file.Source.Key, err)
		c.JSON(http.StatusNotFound, tool.FastReturnError("Source not available"))
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close source: %v", err)
		}
	}()

	contentType := file.Source.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, size, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.Source.Name),
	})
}

func (ctrl *UploadController) lookup(id string) (types.UploadFile, bool, bool) {
	for _, f := range ctrl.tracker.Files() {
		if f.ID == id {
			return f, false, true
		}
	}
	if f, ok := models.LookupResult(id); ok {
		return f, true, true
	}
	return types.UploadFile{}, false, false
}

func (ctrl *UploadController) saveMultipart(ctx context.Context, fh *multipart.FileHeader) (types.SourceFile, error) {
	f, err := fh.Open()
	if err != nil {
		return types.SourceFile{}, err
	}
	defer f.Close()
	return ctrl.store.Save(ctx, f, fh.Filename, fh.Size, fh.Header.Get("Content-Type"))
}

func (ctrl *UploadController) savePath(ctx context.Context, path string, input types.FileInput) (types.SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.SourceFile{}, err
	}
	defer f.Close()
	return ctrl.store.Save(ctx, f, input.FileName, input.Size, input.FileType)
}

// discard removes payloads stored earlier in a request that failed half way.
func (ctrl *UploadController) discard(sources []types.SourceFile) {
	for _, src := range sources {
		if err := ctrl.store.Delete(context.Background(), src.Key); err != nil {
			tool.DefaultLogger.Warnf("[Upload] Failed to discard %s: %v", src.Key, err)
		}
	}
}

func parseUpdate(request types.UpdateFileRequest) (types.FileUpdate, error) {
	var update types.FileUpdate
	if request.Progress != nil {
		p := *request.Progress
		if p < 0 || p > 1 {
			return update, fmt.Errorf("progress must be between 0 and 1")
		}
		update.Progress = &p
	}
	if request.Status != nil {
		status := types.UploadStatus(*request.Status)
		if !status.Valid() {
			return update, fmt.Errorf("unknown status: %s", *request.Status)
		}
		update.Status = &status
	}
	if request.Error != "" {
		update.Err = errors.New(request.Error)
	}
	return update, nil
}
