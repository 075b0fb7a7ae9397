package config

import (
	"errors"
	"time"

	"github.com/cyverse-de/go-mod/cfg"
	"github.com/knadh/koanf"
)

var ServiceName = "PDFA"

// Default values for settings that are optional in the configuration file.
const (
	DefaultListenPort        = 9000
	DefaultDailyLimit        = 10
	DefaultMaxRequestedLimit = 10000
	DefaultExpansionDays     = 30
	DefaultMaxFiles          = 5
	DefaultMaxFileSizeKB     = 10240
	DefaultMaxPages          = 1000
	DefaultConcurrency       = 2
	DefaultRenderTimeout     = 2 * time.Minute
	DefaultRetentionDays     = 7
	DefaultMaintenanceEvery  = time.Hour
	DefaultThrottlePerMinute = 60
	DefaultStorageDriver     = "disk"
	DefaultNotifySubject     = "pdfa.expansion.requested"
)

// Specification defines the configuration settings for the PDF/A conversion service.
type Specification struct {
	DatabaseURI         string
	ReinitDB            bool
	RunSchemaMigrations bool
	ListenPort          int
	TrustedProxies      []string

	// Quota settings.
	DefaultDailyLimit int
	MaxRequestedLimit int
	ExpansionDays     int

	// Conversion settings.
	MaxFiles        int
	MaxFileSizeKB   int
	MaxPages        int
	Concurrency     int
	RenderTimeout   time.Duration
	WorkDir         string
	GhostscriptPath string
	PDFAVersion     string
	ColorConversion string

	// Storage settings.
	StorageDriver  string
	StoragePath    string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Maintenance settings.
	RetentionDays    int
	MaintenanceEvery time.Duration

	// Throttling settings.
	RedisAddr         string
	RedisPassword     string
	ThrottlePerMinute int

	// Notification settings.
	AdminEmail    string
	NatsCluster   string
	NotifySubject string
	MaxReconnects int
	ReconnectWait int
	CACertPath    string
	TLSKeyPath    string
	TLSCertPath   string
	CredsPath     string
}

// intOr returns the integer value stored at key or the fallback if the key isn't set or isn't positive.
func intOr(k *koanf.Koanf, key string, fallback int) int {
	if v := k.Int(key); v > 0 {
		return v
	}
	return fallback
}

func stringOr(k *koanf.Koanf, key, fallback string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(k *koanf.Koanf, key string, fallback time.Duration) time.Duration {
	if v := k.Duration(key); v > 0 {
		return v
	}
	return fallback
}

// LoadConfig loads the configuration for the PDF/A conversion service.
func LoadConfig(envPrefix, configPath, dotEnvPath string) (*Specification, error) {
	k, err := cfg.Init(&cfg.Settings{
		EnvPrefix:   envPrefix,
		ConfigPath:  configPath,
		DotEnvPath:  dotEnvPath,
		StrictMerge: false,
		FileType:    cfg.YAML,
	})
	if err != nil {
		return nil, err
	}

	return FromKoanf(k)
}

// FromKoanf builds a specification from an already loaded set of configuration settings.
func FromKoanf(k *koanf.Koanf) (*Specification, error) {
	var s Specification

	s.DatabaseURI = k.String("database.uri")
	if s.DatabaseURI == "" {
		return nil, errors.New("database.uri or PDFA_DATABASE_URI must be set")
	}

	s.ReinitDB = k.Bool("reinit.db")
	s.RunSchemaMigrations = k.Bool("migrations.run")
	s.ListenPort = intOr(k, "listen.port", DefaultListenPort)
	s.TrustedProxies = k.Strings("http.trusted_proxies")

	s.DefaultDailyLimit = intOr(k, "quota.default_limit", DefaultDailyLimit)
	s.MaxRequestedLimit = intOr(k, "quota.max_requested_limit", DefaultMaxRequestedLimit)
	s.ExpansionDays = intOr(k, "quota.expansion_days", DefaultExpansionDays)
	if s.MaxRequestedLimit <= s.DefaultDailyLimit {
		return nil, errors.New("quota.max_requested_limit must be greater than quota.default_limit")
	}

	s.MaxFiles = intOr(k, "conversion.max_files", DefaultMaxFiles)
	s.MaxFileSizeKB = intOr(k, "conversion.max_file_size_kb", DefaultMaxFileSizeKB)
	s.MaxPages = intOr(k, "conversion.max_pages", DefaultMaxPages)
	s.Concurrency = intOr(k, "conversion.concurrency", DefaultConcurrency)
	s.RenderTimeout = durationOr(k, "conversion.render_timeout", DefaultRenderTimeout)
	s.WorkDir = k.String("conversion.work_dir")
	s.GhostscriptPath = stringOr(k, "ghostscript.path", "gs")
	s.PDFAVersion = stringOr(k, "ghostscript.pdfa_version", "1")
	s.ColorConversion = stringOr(k, "ghostscript.color_conversion", "RGB")

	s.StorageDriver = stringOr(k, "storage.driver", DefaultStorageDriver)
	s.StoragePath = stringOr(k, "storage.path", "pdfa")
	s.MinioEndpoint = k.String("minio.endpoint")
	s.MinioAccessKey = k.String("minio.access_key")
	s.MinioSecretKey = k.String("minio.secret_key")
	s.MinioBucket = stringOr(k, "minio.bucket", "pdfa")
	s.MinioUseSSL = k.Bool("minio.use_ssl")
	switch s.StorageDriver {
	case "disk":
	case "minio":
		if s.MinioEndpoint == "" {
			return nil, errors.New("minio.endpoint must be set when storage.driver is minio")
		}
	default:
		return nil, errors.New("storage.driver must be either disk or minio")
	}

	s.RetentionDays = intOr(k, "retention.days", DefaultRetentionDays)
	s.MaintenanceEvery = durationOr(k, "maintenance.interval", DefaultMaintenanceEvery)

	s.RedisAddr = k.String("redis.addr")
	s.RedisPassword = k.String("redis.password")
	s.ThrottlePerMinute = intOr(k, "throttle.per_minute", DefaultThrottlePerMinute)

	s.AdminEmail = stringOr(k, "admin.email", "admin@example.org")
	s.NatsCluster = k.String("nats.cluster")
	s.NotifySubject = stringOr(k, "nats.subject", DefaultNotifySubject)
	s.MaxReconnects = intOr(k, "nats.max_reconnects", 10)
	s.ReconnectWait = intOr(k, "nats.reconnect_wait", 1)
	s.CACertPath = k.String("nats.ca_cert_path")
	s.TLSKeyPath = k.String("nats.tls_key_path")
	s.TLSCertPath = k.String("nats.tls_cert_path")
	s.CredsPath = k.String("nats.creds_path")

	return &s, nil
}
