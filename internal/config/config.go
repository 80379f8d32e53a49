// Package config loads the application configuration from environment
// variables (MEDPULSE_ prefix) and an optional YAML file. Environment
// values take precedence over the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const envPrefix = "MEDPULSE"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains CORS and rate limiting configuration.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration. Output is "console",
// "file" or "both"; the format is always JSON.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/medpulse.log"`
}

// AuthConfig contains session token configuration.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" envconfig:"JWT_SECRET" default:"dev-secret-change-me" validate:"min=8"`
	TokenTTL   time.Duration `yaml:"token_ttl" envconfig:"TOKEN_TTL" default:"12h"`
	BcryptCost int           `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"10" validate:"min=4,max=31"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER" default:"json" validate:"oneof=json bigquery"`

	// JSONPath is the data file for the json driver.
	JSONPath string `yaml:"json_path" envconfig:"JSON_PATH" default:"data/users.json"`

	BigQuery BigQueryConfig `yaml:"bigquery" envconfig:"BIGQUERY"`
}

// BigQueryConfig locates the BigQuery project and dataset. Required
// only when the bigquery driver is selected.
type BigQueryConfig struct {
	ProjectID       string        `yaml:"project_id" envconfig:"PROJECT_ID"`
	Dataset         string        `yaml:"dataset" envconfig:"DATASET" default:"medical_data"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	QueryTimeout    time.Duration `yaml:"query_timeout" envconfig:"QUERY_TIMEOUT" default:"30s"`
}

// WebSocketConfig contains WebSocket configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WRITE_WAIT" default:"10s"`
}

// ReportConfig locates batch pipeline inputs and outputs for runs
// triggered through the admin surface.
type ReportConfig struct {
	DataDir        string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	OutDir         string `yaml:"out_dir" envconfig:"OUT_DIR" default:"reports"`
	MedicalDataset string `yaml:"medical_dataset" envconfig:"MEDICAL_DATASET" default:"data/medical.json"`
}

// Load reads configuration from the optional YAML file named by
// MEDPULSE_CONFIG (default config.yaml), then overlays environment
// variables and validates the result.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv(envPrefix + "_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment overrides the file; envconfig also fills defaults
	// for anything still unset.
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints plus the cross-field rules the
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.Store.Driver == "bigquery" && c.Store.BigQuery.ProjectID == "" {
		return fmt.Errorf("config validation failed: bigquery driver requires store.bigquery.project_id")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
