package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/platform/config"
)

const (
	ViewTrackingKafka   = "kafka"
	ViewTrackingCatalog = "catalog"
	ViewTrackingLog     = "log"
)

// Config is the resolved runtime configuration for M60.
// Empty store URLs select the in-memory adapters for local runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string
	MaxDBConns  int32

	KafkaBrokers       []string
	KafkaViewTopic     string
	KafkaConsumerGroup string
	ViewTracking       string

	JWTPrivateKeyPEM  string
	JWTPublicKeyPEM   string
	JWTKeyID          string
	AllowEphemeralJWT bool

	BcryptCost          int
	AdminPassphraseHash string

	ConfirmationDelay  time.Duration
	ConfirmationMode   string
	AdminElevationMode string
	AdminCapabilityTTL time.Duration
	WatchTokenTTL      time.Duration
	AttemptTTL         time.Duration
	SettlementTTL      time.Duration
	DefaultPaymentKey  string

	IdentityBaseURL string
	IdentityMePath  string
	IdentityTimeout time.Duration

	UploadsDir      string
	UploadsBaseURL  string
	UploadMaxBytes  int64
	ShutdownTimeout time.Duration
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		IdentityURL  string   `yaml:"identity_url"`
	} `yaml:"dependencies"`
	Access struct {
		ConfirmationDelaySeconds *int   `yaml:"confirmation_delay_seconds"`
		ConfirmationMode         string `yaml:"confirmation_mode"`
		AdminElevationMode       string `yaml:"admin_elevation_mode"`
		DefaultPaymentKey        string `yaml:"default_payment_key"`
		WatchTokenTTLMinutes     int    `yaml:"watch_token_ttl_minutes"`
		AttemptTTLMinutes        int    `yaml:"attempt_ttl_minutes"`
	} `yaml:"access"`
	Events struct {
		ViewTracking  string `yaml:"view_tracking"`
		ViewTopic     string `yaml:"view_topic"`
		ConsumerGroup string `yaml:"consumer_group"`
	} `yaml:"events"`
	Uploads struct {
		Dir      string `yaml:"dir"`
		BaseURL  string `yaml:"base_url"`
		MaxBytes int64  `yaml:"max_bytes"`
	} `yaml:"uploads"`
}

// configEnv holds the environment overrides. It is seeded from the merged
// defaults and file values so unset variables change nothing.
type configEnv struct {
	HTTPPort           int      `env:"HTTP_PORT"`
	GRPCPort           int      `env:"GRPC_PORT"`
	DatabaseURL        string   `env:"DB_URL"`
	RedisURL           string   `env:"REDIS_URL"`
	MaxDBConns         int32    `env:"DB_MAX_CONNS"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaViewTopic     string   `env:"KAFKA_VIEW_TOPIC"`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP"`
	ViewTracking       string   `env:"VIEW_TRACKING"`

	JWTPrivateKeyPEM  string `env:"JWT_PRIVATE_KEY_PEM"`
	JWTPublicKeyPEM   string `env:"JWT_PUBLIC_KEY_PEM"`
	JWTKeyID          string `env:"JWT_KEY_ID"`
	AllowEphemeralJWT bool   `env:"JWT_ALLOW_EPHEMERAL"`

	BcryptCost          int    `env:"BCRYPT_ROUNDS"`
	AdminPassphraseHash string `env:"ADMIN_PASSPHRASE_HASH"`

	ConfirmationDelaySeconds  int    `env:"CONFIRMATION_DELAY_SECONDS"`
	ConfirmationMode          string `env:"CONFIRMATION_MODE"`
	AdminElevationMode        string `env:"ADMIN_ELEVATION_MODE"`
	AdminCapabilityTTLMinutes int    `env:"ADMIN_CAPABILITY_TTL_MINUTES"`
	WatchTokenTTLMinutes      int    `env:"WATCH_TOKEN_TTL_MINUTES"`
	AttemptTTLMinutes         int    `env:"ATTEMPT_TTL_MINUTES"`
	SettlementTTLHours        int    `env:"SETTLEMENT_TTL_HOURS"`
	DefaultPaymentKey         string `env:"DEFAULT_PAYMENT_KEY"`

	IdentityBaseURL        string `env:"IDENTITY_URL"`
	IdentityMePath         string `env:"IDENTITY_ME_PATH"`
	IdentityTimeoutSeconds int    `env:"IDENTITY_TIMEOUT_SECONDS"`

	UploadsDir     string `env:"UPLOADS_DIR"`
	UploadsBaseURL string `env:"UPLOADS_BASE_URL"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "M60-Stream-Access-Service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		MaxDBConns:         10,
		KafkaViewTopic:     "stream.offering.viewed",
		KafkaConsumerGroup: "m60-view-counter",
		ViewTracking:       ViewTrackingCatalog,
		JWTKeyID:           "m60-access-key-1",
		AllowEphemeralJWT:  true,
		BcryptCost:         12,
		ConfirmationDelay:  60 * time.Second,
		ConfirmationMode:   application.ConfirmationModeTimer,
		AdminElevationMode: application.ElevationModeCapability,
		AdminCapabilityTTL: 12 * time.Hour,
		WatchTokenTTL:      6 * time.Hour,
		AttemptTTL:         30 * time.Minute,
		SettlementTTL:      72 * time.Hour,
		IdentityMePath:     "/v1/me",
		IdentityTimeout:    5 * time.Second,
		UploadsBaseURL:     "/uploads",
		UploadMaxBytes:     8 << 20,
		ShutdownTimeout:    10 * time.Second,
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.ConfirmationMode = strings.ToLower(strings.TrimSpace(cfg.ConfirmationMode))
	cfg.AdminElevationMode = strings.ToLower(strings.TrimSpace(cfg.AdminElevationMode))
	cfg.ViewTracking = strings.ToLower(strings.TrimSpace(cfg.ViewTracking))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.IdentityURL != "" {
		cfg.IdentityBaseURL = f.Dependencies.IdentityURL
	}
	if f.Access.ConfirmationDelaySeconds != nil {
		cfg.ConfirmationDelay = time.Duration(*f.Access.ConfirmationDelaySeconds) * time.Second
	}
	if f.Access.ConfirmationMode != "" {
		cfg.ConfirmationMode = f.Access.ConfirmationMode
	}
	if f.Access.AdminElevationMode != "" {
		cfg.AdminElevationMode = f.Access.AdminElevationMode
	}
	if f.Access.DefaultPaymentKey != "" {
		cfg.DefaultPaymentKey = f.Access.DefaultPaymentKey
	}
	if f.Access.WatchTokenTTLMinutes > 0 {
		cfg.WatchTokenTTL = time.Duration(f.Access.WatchTokenTTLMinutes) * time.Minute
	}
	if f.Access.AttemptTTLMinutes > 0 {
		cfg.AttemptTTL = time.Duration(f.Access.AttemptTTLMinutes) * time.Minute
	}
	if f.Events.ViewTracking != "" {
		cfg.ViewTracking = f.Events.ViewTracking
	}
	if f.Events.ViewTopic != "" {
		cfg.KafkaViewTopic = f.Events.ViewTopic
	}
	if f.Events.ConsumerGroup != "" {
		cfg.KafkaConsumerGroup = f.Events.ConsumerGroup
	}
	if f.Uploads.Dir != "" {
		cfg.UploadsDir = f.Uploads.Dir
	}
	if f.Uploads.BaseURL != "" {
		cfg.UploadsBaseURL = f.Uploads.BaseURL
	}
	if f.Uploads.MaxBytes > 0 {
		cfg.UploadMaxBytes = f.Uploads.MaxBytes
	}
	return nil
}

func applyEnv(cfg *Config) error {
	e := configEnv{
		HTTPPort:                  cfg.HTTPPort,
		GRPCPort:                  cfg.GRPCPort,
		DatabaseURL:               cfg.DatabaseURL,
		RedisURL:                  cfg.RedisURL,
		MaxDBConns:                cfg.MaxDBConns,
		KafkaBrokers:              cfg.KafkaBrokers,
		KafkaViewTopic:            cfg.KafkaViewTopic,
		KafkaConsumerGroup:        cfg.KafkaConsumerGroup,
		ViewTracking:              cfg.ViewTracking,
		JWTPrivateKeyPEM:          cfg.JWTPrivateKeyPEM,
		JWTPublicKeyPEM:           cfg.JWTPublicKeyPEM,
		JWTKeyID:                  cfg.JWTKeyID,
		AllowEphemeralJWT:         cfg.AllowEphemeralJWT,
		BcryptCost:                cfg.BcryptCost,
		AdminPassphraseHash:       cfg.AdminPassphraseHash,
		ConfirmationDelaySeconds:  int(cfg.ConfirmationDelay / time.Second),
		ConfirmationMode:          cfg.ConfirmationMode,
		AdminElevationMode:        cfg.AdminElevationMode,
		AdminCapabilityTTLMinutes: int(cfg.AdminCapabilityTTL / time.Minute),
		WatchTokenTTLMinutes:      int(cfg.WatchTokenTTL / time.Minute),
		AttemptTTLMinutes:         int(cfg.AttemptTTL / time.Minute),
		SettlementTTLHours:        int(cfg.SettlementTTL / time.Hour),
		DefaultPaymentKey:         cfg.DefaultPaymentKey,
		IdentityBaseURL:           cfg.IdentityBaseURL,
		IdentityMePath:            cfg.IdentityMePath,
		IdentityTimeoutSeconds:    int(cfg.IdentityTimeout / time.Second),
		UploadsDir:                cfg.UploadsDir,
		UploadsBaseURL:            cfg.UploadsBaseURL,
		UploadMaxBytes:            cfg.UploadMaxBytes,
	}
	if err := config.ParseEnv(&e); err != nil {
		return err
	}

	cfg.HTTPPort = e.HTTPPort
	cfg.GRPCPort = e.GRPCPort
	cfg.DatabaseURL = e.DatabaseURL
	cfg.RedisURL = e.RedisURL
	cfg.MaxDBConns = e.MaxDBConns
	cfg.KafkaBrokers = e.KafkaBrokers
	cfg.KafkaViewTopic = e.KafkaViewTopic
	cfg.KafkaConsumerGroup = e.KafkaConsumerGroup
	cfg.ViewTracking = e.ViewTracking
	cfg.JWTPrivateKeyPEM = e.JWTPrivateKeyPEM
	cfg.JWTPublicKeyPEM = e.JWTPublicKeyPEM
	cfg.JWTKeyID = e.JWTKeyID
	cfg.AllowEphemeralJWT = e.AllowEphemeralJWT
	cfg.BcryptCost = e.BcryptCost
	cfg.AdminPassphraseHash = e.AdminPassphraseHash
	cfg.ConfirmationDelay = time.Duration(e.ConfirmationDelaySeconds) * time.Second
	cfg.ConfirmationMode = e.ConfirmationMode
	cfg.AdminElevationMode = e.AdminElevationMode
	cfg.AdminCapabilityTTL = time.Duration(e.AdminCapabilityTTLMinutes) * time.Minute
	cfg.WatchTokenTTL = time.Duration(e.WatchTokenTTLMinutes) * time.Minute
	cfg.AttemptTTL = time.Duration(e.AttemptTTLMinutes) * time.Minute
	cfg.SettlementTTL = time.Duration(e.SettlementTTLHours) * time.Hour
	cfg.DefaultPaymentKey = e.DefaultPaymentKey
	cfg.IdentityBaseURL = e.IdentityBaseURL
	cfg.IdentityMePath = e.IdentityMePath
	cfg.IdentityTimeout = time.Duration(e.IdentityTimeoutSeconds) * time.Second
	cfg.UploadsDir = e.UploadsDir
	cfg.UploadsBaseURL = e.UploadsBaseURL
	cfg.UploadMaxBytes = e.UploadMaxBytes
	return nil
}

func (c Config) validate() error {
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		return fmt.Errorf("http and grpc ports must be positive")
	}
	if c.ConfirmationDelay < 0 {
		return fmt.Errorf("confirmation_delay_seconds must not be negative")
	}
	switch c.ConfirmationMode {
	case application.ConfirmationModeTimer, application.ConfirmationModeSettlement:
	default:
		return fmt.Errorf("unknown confirmation_mode %q", c.ConfirmationMode)
	}
	switch c.AdminElevationMode {
	case application.ElevationModeCapability, application.ElevationModeFlag:
	default:
		return fmt.Errorf("unknown admin_elevation_mode %q", c.AdminElevationMode)
	}
	switch c.ViewTracking {
	case ViewTrackingCatalog, ViewTrackingLog:
	case ViewTrackingKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("view_tracking kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown view_tracking %q", c.ViewTracking)
	}
	if (c.JWTPrivateKeyPEM == "" || c.JWTPublicKeyPEM == "") && !c.AllowEphemeralJWT {
		return fmt.Errorf("missing JWT_PRIVATE_KEY_PEM or JWT_PUBLIC_KEY_PEM")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", c.BcryptCost)
	}
	return nil
}
