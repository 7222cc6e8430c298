package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
	Fatal LogLevel = "fatal"
	Panic LogLevel = "panic"
)

type Module string

const (
	ModuleClient       Module = "client"
	ModuleRetry        Module = "retry"
	ModuleErrors       Module = "errors"
	ModuleConnectivity Module = "connectivity"
	ModuleUpload       Module = "upload"
	ModuleQuery        Module = "query"
	ModuleHealth       Module = "health"
	ModuleS3           Module = "s3"
	ModuleServer       Module = "server"
	ModuleIngest       Module = "ingest"
	ModuleSetting      Module = "setting"
)

type ClientConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required,url"`
	Timeout       time.Duration `koanf:"timeout" validate:"required"`
	UploadTimeout time.Duration `koanf:"upload_timeout" validate:"required"`
	QueryTimeout  time.Duration `koanf:"query_timeout" validate:"required"`
	HealthTimeout time.Duration `koanf:"health_timeout" validate:"required"`
	AuthToken     string        `koanf:"auth_token"`
}

type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts" validate:"required,min=1,max=10"`
	BaseDelay         time.Duration `koanf:"base_delay" validate:"required"`
	MaxDelay          time.Duration `koanf:"max_delay" validate:"required,gtefield=BaseDelay"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier" validate:"required,gte=1"`
	RetryableErrors   []string      `koanf:"retryable_errors" validate:"dive,oneof=network_error timeout_error api_error upload_error search_error"`
}

type UploadConfig struct {
	MaxFileSize    int64    `koanf:"max_file_size" validate:"required,min=1"`
	SupportedTypes []string `koanf:"supported_types" validate:"required,min=1,dive,startswith=."`
}

type SearchConfig struct {
	MinQueryLength int `koanf:"min_query_length" validate:"required,min=1"`
	MaxQueryLength int `koanf:"max_query_length" validate:"required,gtefield=MinQueryLength"`
}

type ErrorLogConfig struct {
	Capacity     int    `koanf:"capacity" validate:"required,min=1"`
	SupportEmail string `koanf:"support_email" validate:"omitempty,email"`
}

type ConnectivityConfig struct {
	ProbeInterval time.Duration `koanf:"probe_interval" validate:"required"`
	HealthPath    string        `koanf:"health_path" validate:"required,startswith=/"`
}

type S3Config struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	// Bucket is where the dev backend keeps uploaded originals. Empty keeps them on local disk.
	Bucket    string `koanf:"bucket"`
}

type ServerConfig struct {
	Port        int    `koanf:"port" validate:"required"`
	StorageDir  string `koanf:"storage_dir"`
	Concurrency int    `koanf:"concurrency" validate:"required"`
	BodyLimit   int    `koanf:"body_limit" validate:"required"`
	AppName     string `koanf:"app_name" validate:"required"`
	FailFirst   int    `koanf:"fail_first" validate:"min=0"`
}

type IngestConfig struct {
	ChunkTokens  int `koanf:"chunk_tokens" validate:"required"`
	ChunkOverlap int `koanf:"chunk_overlap" validate:"min=0"`
}

type Config struct {
	Client       ClientConfig       `koanf:"client"`
	Retry        RetryConfig        `koanf:"retry"`
	Upload       UploadConfig       `koanf:"upload"`
	Search       SearchConfig       `koanf:"search"`
	ErrorLog     ErrorLogConfig     `koanf:"error_log"`
	Connectivity ConnectivityConfig `koanf:"connectivity"`
	S3           S3Config           `koanf:"s3"`
	Server       ServerConfig       `koanf:"server"`
	Ingest       IngestConfig       `koanf:"ingest"`
	LogLevel     LogLevel           `koanf:"log_level" validate:"oneof=debug info warn error fatal panic"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client: ClientConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       30 * time.Second,
			UploadTimeout: 60 * time.Second,
			QueryTimeout:  45 * time.Second,
			HealthTimeout: 10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			BaseDelay:         time.Second,
			MaxDelay:          10 * time.Second,
			BackoffMultiplier: 2,
			RetryableErrors:   []string{"network_error", "timeout_error", "api_error"},
		},
		Upload: UploadConfig{
			MaxFileSize:    10 * 1024 * 1024,
			SupportedTypes: []string{".pdf", ".md", ".markdown"},
		},
		Search: SearchConfig{
			MinQueryLength: 3,
			MaxQueryLength: 1000,
		},
		ErrorLog: ErrorLogConfig{
			Capacity:     100,
			SupportEmail: "support@example.com",
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: 30 * time.Second,
			HealthPath:    "/health",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Port:        8000,
			Concurrency: 256,
			BodyLimit:   16 * 1024 * 1024,
			AppName:     "docsearch-dev",
			StorageDir:  "storage/documents",
		},
		Ingest: IngestConfig{
			ChunkTokens:  600,
			ChunkOverlap: 80,
		},
		LogLevel: Info,
	}
}

// envKey maps APP_CLIENT__BASE_URL to client.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "APP_"))
	return strings.ReplaceAll(s, "__", ".")
}

// Load reads defaults, then the YAML file at path (if it exists), then APP_ env vars,
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	// file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%v: load %s: %w", ModuleSetting, path, err)
		}
	}

	// env APP_SERVER__PORT
	if err := k.Load(env.Provider("APP_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%v: load env: %w", ModuleSetting, err)
	}

	// bind
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%v: failed to unmarshal config: %w", ModuleSetting, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg and folds every field violation into one error.
func Validate(cfg *Config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%v: config validation failed: %w", ModuleSetting, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v: config validation failed:\n", ModuleSetting))
	for _, e := range errs {
		sb.WriteString(
			fmt.Sprintf("  • %s: failed '%s' (value: %v)\n", e.Namespace(), e.Tag(), e.Value()),
		)
	}
	return errors.New(strings.TrimRight(sb.String(), "\n"))
}
