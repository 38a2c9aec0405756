package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moyoez/mediaupload/api"
	"github.com/moyoez/mediaupload/api/models"
	"github.com/moyoez/mediaupload/api/notifyhub"
	"github.com/moyoez/mediaupload/notify"
	"github.com/moyoez/mediaupload/store"
	"github.com/moyoez/mediaupload/tool"
	"github.com/moyoez/mediaupload/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sourceStore, err := store.New(ctx, appCfg)
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to initialize %s storage: %v", appCfg.Storage.Backend, err)
	}
	models.SetStore(sourceStore)
	models.SetResultTTL(time.Duration(appCfg.ResultTTLSecs) * time.Second)

	tracker := models.GetTracker()
	tracker.Subscribe(models.RecordBatchResult)
	tracker.Subscribe(models.RemoveAbortedSources)

	forwarder := notify.NewForwarder()
	if appCfg.Notify.UnixSocket {
		forwarder.AddSink(notify.NewSocketSink(appCfg.Notify.SocketPath))
	}
	var natsSink *notify.NatsSink
	if appCfg.Notify.NatsURL != "" {
		natsSink, err = notify.NewNatsSink(appCfg.Notify.NatsURL, appCfg.Notify.NatsSubject)
		if err != nil {
			tool.DefaultLogger.Warnf("NATS notifications disabled: %v", err)
		} else {
			forwarder.AddSink(natsSink)
		}
	}
	tracker.Subscribe(forwarder.Handle)

	var hub *notifyhub.Hub
	if appCfg.Notify.Websocket {
		hub = notifyhub.New()
		models.SetNotifyHub(hub)
	}

	apiServer := api.NewServer(appCfg.Port)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	<-ctx.Done()
	tool.DefaultLogger.Info("Shutting down")

	if hub != nil {
		payload, err := sonic.Marshal(types.Notification{
			Type:  types.NotifyTypeInfo,
			Title: "Server stopping",
		})
		if err == nil {
			hub.Broadcast(payload)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Errorf("Server shutdown failed: %v", err)
	}
	forwarder.Wait()
	if natsSink != nil {
		natsSink.Close()
	}
}
