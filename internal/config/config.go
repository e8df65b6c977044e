package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"github.com/MMucahit/borsa/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Reconcile ReconcileConfig `yaml:"reconcile" envconfig:"RECONCILE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	WorkspaceDir    string        `yaml:"workspace_dir" envconfig:"WORKSPACE_DIR"`
}

// Address returns the listen address
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains request admission settings
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ReconcileConfig holds the engine defaults applied when a request leaves a field unset
type ReconcileConfig struct {
	SourceMode    string         `yaml:"source_mode" envconfig:"SOURCE_MODE" validate:"oneof=archive flat"`
	Alignment     string         `yaml:"alignment" envconfig:"ALIGNMENT" validate:"oneof=positional period-key"`
	RequireVolume bool           `yaml:"require_volume" envconfig:"REQUIRE_VOLUME"`
	DefaultYear   int            `yaml:"default_year" envconfig:"DEFAULT_YEAR" validate:"gte=2000,lte=9999"`
	DefaultMonth  int            `yaml:"default_month" envconfig:"DEFAULT_MONTH" validate:"gte=1,lte=12"`
	Tolerance     float64        `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gte=0"`
	Threshold     float64        `yaml:"threshold" envconfig:"THRESHOLD" validate:"gte=0"`
	Columns       domain.Columns `yaml:"columns" envconfig:"COLUMNS"`
}

// RunOptions converts the defaults into engine options
func (r ReconcileConfig) RunOptions() domain.RunOptions {
	return domain.RunOptions{
		SourceMode:    domain.SourceMode(r.SourceMode),
		RequireVolume: r.RequireVolume,
		Alignment:     domain.AlignmentStrategy(r.Alignment),
		DefaultYear:   r.DefaultYear,
		DefaultMonth:  r.DefaultMonth,
		Columns:       r.Columns,
		Tolerance:     decimal.NewFromFloat(r.Tolerance),
	}
}

// ThresholdDecimal returns the default summary filter threshold
func (r ReconcileConfig) ThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(r.Threshold)
}

// CacheConfig controls how long finished runs stay retrievable
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL" validate:"gt=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" validate:"gt=0"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and BORSA_* environment variables, in increasing
// precedence. An empty configFile searches the usual locations.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every section against its validation tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}
	return nil
}

// getConfigFilePath returns the first existing config file, or ""
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/borsa.log",
		},
		Reconcile: ReconcileConfig{
			SourceMode:   string(domain.SourceModeArchive),
			Alignment:    string(domain.AlignmentPositional),
			DefaultYear:  DefaultYear,
			DefaultMonth: DefaultMonth,
			Tolerance:    DefaultTolerance,
			Columns:      domain.DefaultColumns(),
		},
		Cache: CacheConfig{
			TTL:             DefaultCacheTTL,
			CleanupInterval: DefaultCacheCleanup,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
