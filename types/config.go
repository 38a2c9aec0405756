package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Port          int           `yaml:"port" json:"port"`
	UploadFolder  string        `yaml:"uploadFolder" json:"uploadFolder"`
	Storage       StorageConfig `yaml:"storage" json:"storage"`
	Notify        NotifyConfig  `yaml:"notify" json:"notify"`
	RateLimitPPS  int           `yaml:"rateLimitPPS" json:"rateLimitPPS"`   // update-file requests per second, 0 disables
	ResultTTLSecs int           `yaml:"resultTTLSecs" json:"resultTTLSecs"` // how long closed-batch results stay queryable
}

type StorageConfig struct {
	Backend string      `yaml:"backend" json:"backend"` // disk | minio
	MinIO   MinIOConfig `yaml:"minio,omitempty" json:"minio"`
}

type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID" json:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey" json:"-"`
	UseSSL          bool   `yaml:"useSSL" json:"useSSL"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	BasePath        string `yaml:"basePath,omitempty" json:"basePath,omitempty"`
}

type NotifyConfig struct {
	UnixSocket  bool   `yaml:"unixSocket" json:"unixSocket"`
	SocketPath  string `yaml:"socketPath,omitempty" json:"socketPath,omitempty"`
	Websocket   bool   `yaml:"websocket" json:"websocket"`
	NatsURL     string `yaml:"natsURL,omitempty" json:"natsURL,omitempty"`
	NatsSubject string `yaml:"natsSubject,omitempty" json:"natsSubject,omitempty"`
}

// ConfigPatchRequest is the body of PATCH /config. Nil fields are left as they are.
type ConfigPatchRequest struct {
	Port          *int           `json:"port,omitempty"`
	UploadFolder  *string        `json:"uploadFolder,omitempty"`
	Storage       *StorageConfig `json:"storage,omitempty"`
	Notify        *NotifyConfig  `json:"notify,omitempty"`
	RateLimitPPS  *int           `json:"rateLimitPPS,omitempty"`
	ResultTTLSecs *int           `json:"resultTTLSecs,omitempty"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log             string
	UseConfigPath   string
	UsePort         int
	UseUploadFolder string
	UseStorage      string
	SkipNotify      bool // if true, skip unix socket notify.
	UseNatsURL      string
	DisableNotifyWS bool
}
