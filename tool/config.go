package tool

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/mediaupload/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	configMu      sync.RWMutex
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		Port:         53318,
		UploadFolder: "uploads",
		Storage: types.StorageConfig{
			Backend: "disk",
		},
		Notify: types.NotifyConfig{
			UnixSocket: true,
			Websocket:  true,
		},
		RateLimitPPS:  50,
		ResultTTLSecs: 300,
	}
}

// LoadConfig reads path (or ConfigPath) and writes a default config there when it does not exist.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %w", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			setCurrentConfig(cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	setCurrentConfig(cfg)
	return cfg, nil
}

// ApplyFlagOverrides copies every flag that was set onto cfg.
func ApplyFlagOverrides(cfg *types.AppConfig, flags types.Config) {
	if flags.UsePort > 0 {
		cfg.Port = flags.UsePort
	}
	if flags.UseUploadFolder != "" {
		cfg.UploadFolder = flags.UseUploadFolder
	}
	if flags.UseStorage != "" {
		cfg.Storage.Backend = flags.UseStorage
	}
	if flags.SkipNotify {
		cfg.Notify.UnixSocket = false
	}
	if flags.UseNatsURL != "" {
		cfg.Notify.NatsURL = flags.UseNatsURL
	}
	if flags.DisableNotifyWS {
		cfg.Notify.Websocket = false
	}
	setCurrentConfig(*cfg)
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func setCurrentConfig(cfg types.AppConfig) {
	configMu.Lock()
	defer configMu.Unlock()
	CurrentConfig = cfg
}

func GetCurrentConfig() types.AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return CurrentConfig
}

// PersistAppConfig updates in-memory AppConfig and writes it to ConfigPath.
// Most settings take effect on the next start.
func PersistAppConfig(cfg types.AppConfig) error {
	setCurrentConfig(cfg)
	if err := writeConfig(ConfigPath, cfg); err != nil {
		return fmt.Errorf("failed to persist config: %w", err)
	}
	return nil
}
