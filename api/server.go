package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/mediaupload/api/controllers"
	"github.com/moyoez/mediaupload/api/middlewares"
	"github.com/moyoez/mediaupload/api/models"
	"github.com/moyoez/mediaupload/api/notifyhub"
	"github.com/moyoez/mediaupload/tool"
)

// Server exposes the upload tracker over HTTP on the loopback interface.
type Server struct {
	port   int
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

func NewServer(port int) *Server {
	return &Server{port: port}
}

// Handler builds the route table. Exposed so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	cfg := tool.GetCurrentConfig()
	uploadCtrl := controllers.NewUploadController(models.GetTracker(), models.GetStore())

	v1 := engine.Group("/api/uploader/v1", middlewares.OnlyAllowLocal)
	{
		v1.POST("/upload", uploadCtrl.HandleUpload)                                                   // multipart "files"
		v1.POST("/upload-paths", uploadCtrl.HandleUploadPaths)                                        // file:// inputs
		v1.POST("/update-file", middlewares.RateLimit(cfg.RateLimitPPS), uploadCtrl.HandleUpdateFile) // progress from the plugin
		v1.POST("/signal-completion", uploadCtrl.HandleSignalCompletion)
		v1.POST("/abort", uploadCtrl.HandleAbort)
		v1.GET("/files", uploadCtrl.HandleFiles)
		v1.POST("/reset", uploadCtrl.HandleReset)
		v1.GET("/files/:id/result", uploadCtrl.HandleResult)
		v1.GET("/files/:id/source", uploadCtrl.HandleSource)
		v1.GET("/status", controllers.UserStatus)
		if hub := models.GetNotifyHub(); hub != nil {
			v1.GET("/events", notifyhub.HandleEvents(hub, models.GetTracker()))
		}
		v1.GET("/config", controllers.UserConfigGet)
		v1.PATCH("/config", controllers.UserConfigPatch)
	}

	return engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	engine := s.setupRoutes()

	s.mu.Lock()
	s.engine = engine
	s.server = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler: engine,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://127.0.0.1:%d", s.port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
