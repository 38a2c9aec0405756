package tool

import (
	"flag"

	"github.com/moyoez/mediaupload/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override listen port")
	flag.StringVar(&cfg.UseUploadFolder, "useUploadFolder", "", "override folder used by the disk storage backend")
	flag.StringVar(&cfg.UseStorage, "useStorage", "", "override storage backend: disk|minio")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, do not send unix socket notifications")
	flag.StringVar(&cfg.UseNatsURL, "useNatsURL", "", "publish batch events to this NATS server")
	flag.BoolVar(&cfg.DisableNotifyWS, "disableNotifyWS", false, "if true, do not serve the /events websocket")
	flag.Parse()
	return cfg
}
