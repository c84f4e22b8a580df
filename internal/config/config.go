package config

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/vango-dev/fileupload/internal/errors"
	"github.com/vango-dev/fileupload/pkg/upload"
	"github.com/vango-dev/fileupload/pkg/widget"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "fileupload.json"

	// EnvFileName is the optional dotenv file loaded next to the config file.
	EnvFileName = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FILEUPLOAD_"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = "10s"

	// DefaultMaxFileSize is the default per-file limit of the temp store.
	DefaultMaxFileSize = 100 << 20

	// DefaultMaxFiles is the default number of files per upload request.
	DefaultMaxFiles = 32

	// DefaultTempExpiry is how long unclaimed uploads are kept.
	DefaultTempExpiry = "1h"

	// DefaultCleanupInterval is how often expired uploads are swept.
	DefaultCleanupInterval = "10m"

	// DefaultS3Prefix is the key prefix used for temp objects.
	DefaultS3Prefix = "uploads/temp/"
)

// Store kinds.
const (
	StoreDisk = "disk"
	StoreS3   = "s3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = stderrors.New("config: invalid configuration")

// Config represents the complete fileupload.json configuration.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Log configures the slog handler.
	Log LogConfig `json:"log" envPrefix:"LOG_"`

	// Store configures temporary upload storage.
	Store StoreConfig `json:"store" envPrefix:"STORE_"`

	// Widget is the configuration of the widget served by the host.
	Widget widget.Config `json:"widget"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP listener configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" env:"ADDR"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// Workers limits parallel encodes per offer. Zero uses GOMAXPROCS.
	Workers int `json:"workers,omitempty" env:"WORKERS"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" env:"LEVEL"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" env:"FORMAT"`
}

// StoreConfig configures temporary upload storage.
type StoreConfig struct {
	// Kind is "disk" or "s3".
	Kind string `json:"kind,omitempty" env:"KIND"`

	// Dir is the disk store directory.
	Dir string `json:"dir,omitempty" env:"DIR"`

	// MaxFileSize is the largest file the upload endpoint stores, in bytes.
	// It is separate from the widget's max_size so oversized files still
	// reach the widget and are reported there.
	MaxFileSize int64 `json:"maxFileSize,omitempty" env:"MAX_FILE_SIZE"`

	// MaxFiles is the maximum number of files per upload request.
	MaxFiles int `json:"maxFiles,omitempty" env:"MAX_FILES"`

	// TempExpiry is how long unclaimed uploads are kept (e.g., "1h").
	TempExpiry string `json:"tempExpiry,omitempty" env:"TEMP_EXPIRY"`

	// CleanupInterval is how often expired uploads are removed.
	CleanupInterval string `json:"cleanupInterval,omitempty" env:"CLEANUP_INTERVAL"`

	// S3 is used when Kind is "s3".
	S3 S3Config `json:"s3,omitempty" envPrefix:"S3_"`
}

// S3Config describes the bucket used by the s3 store.
type S3Config struct {
	Bucket         string `json:"bucket,omitempty" env:"BUCKET"`
	Prefix         string `json:"prefix,omitempty" env:"PREFIX"`
	Region         string `json:"region,omitempty" env:"REGION"`
	Endpoint       string `json:"endpoint,omitempty" env:"ENDPOINT"`
	AccessKeyID    string `json:"accessKeyId,omitempty" env:"ACCESS_KEY_ID"`
	SecretKey      string `json:"secretKey,omitempty" env:"SECRET_KEY"`
	ForcePathStyle bool   `json:"forcePathStyle,omitempty" env:"FORCE_PATH_STYLE"`
}

// New returns a Config with all defaults applied.
func New() *Config {
	cfg := &Config{Widget: widget.Config{MaxSize: widget.DefaultMaxSize}}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for fileupload.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'fileupload serve --init' to write a default configuration").
				Wrap(err)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	// max_size 0 is meaningful, so a missing key keeps the default.
	cfg := &Config{Widget: widget.Config{MaxSize: widget.DefaultMaxSize}}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + path + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrNew loads path when it exists and returns defaults otherwise.
func LoadOrNew(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if stderrors.Is(err, os.ErrNotExist) {
		cfg = New()
		cfg.configPath = path
		return cfg, nil
	}
	return nil, err
}

// ApplyEnv loads the .env file next to the config file, if any, and then
// overrides fields from FILEUPLOAD_* environment variables.
func (c *Config) ApplyEnv() error {
	if dir := c.Dir(); dir != "" {
		if err := godotenv.Load(filepath.Join(dir, EnvFileName)); err != nil && !stderrors.Is(err, os.ErrNotExist) {
			return errors.New("E103").
				WithDetail("Failed to read " + filepath.Join(dir, EnvFileName)).
				Wrap(err)
		}
	}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("E103").Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Newf(errors.CategoryConfig, "write %s", path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Server
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Store
	if c.Store.Kind == "" {
		c.Store.Kind = StoreDisk
	}
	if c.Store.Dir == "" {
		c.Store.Dir = filepath.Join(os.TempDir(), "fileupload")
	}
	if c.Store.MaxFileSize == 0 {
		c.Store.MaxFileSize = DefaultMaxFileSize
	}
	if c.Store.MaxFiles == 0 {
		c.Store.MaxFiles = DefaultMaxFiles
	}
	if c.Store.TempExpiry == "" {
		c.Store.TempExpiry = DefaultTempExpiry
	}
	if c.Store.CleanupInterval == "" {
		c.Store.CleanupInterval = DefaultCleanupInterval
	}
	if c.Store.S3.Prefix == "" {
		c.Store.S3.Prefix = DefaultS3Prefix
	}

	// Widget
	if c.Widget.Kind == "" {
		c.Widget.Kind = widget.KindButton
	}
	if c.Widget.Filetypes == nil {
		c.Widget.Filetypes = []string{}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("E102").WithDetail(detail).Wrap(ErrInvalidConfig)
	}

	if c.Server.Addr == "" {
		return invalid("server.addr must not be empty")
	}
	if c.Server.Workers < 0 {
		return invalid("server.workers must not be negative")
	}
	if _, err := positiveDuration(c.Server.ShutdownTimeout); err != nil {
		return invalid("server.shutdownTimeout: " + err.Error())
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be one of debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be \"text\" or \"json\"")
	}

	switch c.Store.Kind {
	case StoreDisk:
		if c.Store.Dir == "" {
			return invalid("store.dir must not be empty")
		}
	case StoreS3:
		if c.Store.S3.Bucket == "" {
			return errors.New("E121").
				WithSuggestion("Set store.s3.bucket or " + EnvPrefix + "STORE_S3_BUCKET").
				Wrap(ErrInvalidConfig)
		}
	default:
		return errors.New("E122").
			WithDetail("store.kind is " + `"` + c.Store.Kind + `"`).
			Wrap(ErrInvalidConfig)
	}
	if c.Store.MaxFileSize < 0 {
		return invalid("store.maxFileSize must not be negative")
	}
	if c.Store.MaxFiles < 0 {
		return invalid("store.maxFiles must not be negative")
	}
	if _, err := positiveDuration(c.Store.TempExpiry); err != nil {
		return invalid("store.tempExpiry: " + err.Error())
	}
	if _, err := positiveDuration(c.Store.CleanupInterval); err != nil {
		return invalid("store.cleanupInterval: " + err.Error())
	}

	if err := c.Widget.Validate(); err != nil {
		return errors.New("E102").WithDetail("widget: " + err.Error()).Wrap(ErrInvalidConfig)
	}
	return nil
}

// ShutdownTimeout returns the parsed server.shutdownTimeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := positiveDuration(c.Server.ShutdownTimeout)
	return d
}

// TempExpiry returns the parsed store.tempExpiry.
func (c *Config) TempExpiry() time.Duration {
	d, _ := positiveDuration(c.Store.TempExpiry)
	return d
}

// CleanupInterval returns the parsed store.cleanupInterval.
func (c *Config) CleanupInterval() time.Duration {
	d, _ := positiveDuration(c.Store.CleanupInterval)
	return d
}

// LogLevel returns the slog level for log.level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// UploadConfig returns the upload endpoint configuration.
func (c *Config) UploadConfig() *upload.Config {
	return &upload.Config{
		MaxFileSize: c.Store.MaxFileSize,
		MaxFiles:    c.Store.MaxFiles,
		TempExpiry:  c.TempExpiry(),
	}
}

// S3 returns the store settings in the form the S3 store expects.
func (c *Config) S3() upload.S3Config {
	return upload.S3Config{
		Bucket:         c.Store.S3.Bucket,
		Prefix:         c.Store.S3.Prefix,
		Region:         c.Store.S3.Region,
		Endpoint:       c.Store.S3.Endpoint,
		AccessKeyID:    c.Store.S3.AccessKeyID,
		SecretKey:      c.Store.S3.SecretKey,
		ForcePathStyle: c.Store.S3.ForcePathStyle,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, stderrors.New("must be positive")
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
