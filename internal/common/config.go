package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // postgres | sqlite
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// OCRConfig holds the document-understanding transports.
type OCRConfig struct {
	DirectURL     string        `yaml:"direct_url"`
	DirectAPIKey  string        `yaml:"direct_api_key"`
	DirectTimeout time.Duration `yaml:"direct_timeout"`

	// DirectRateLimit is requests per second to the direct backend; 0 disables.
	DirectRateLimit float64 `yaml:"direct_rate_limit"`
	DirectBurst     int     `yaml:"direct_burst"`

	ProjectID       string        `yaml:"project_id"`
	Location        string        `yaml:"location"`
	ProcessorID     string        `yaml:"processor_id"`
	CredentialsFile string        `yaml:"credentials_file"`
	LibraryTimeout  time.Duration `yaml:"library_timeout"`

	DebugDumpDir string `yaml:"debug_dump_dir"`
}

// PipelineConfig controls the extraction procedure.
type PipelineConfig struct {
	RulesDir string `yaml:"rules_dir"` // empty -> embedded tables
}

// IngestConfig controls the inbox watcher.
type IngestConfig struct {
	InboxDir    string        `yaml:"inbox_dir"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
}

// QueueConfig controls the worker queue.
type QueueConfig struct {
	Workers        int           `yaml:"workers"`
	Size           int           `yaml:"size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "sqlite",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		OCR: OCRConfig{
			DirectTimeout:  60 * time.Second,
			DirectBurst:    1,
			Location:       "eu",
			LibraryTimeout: 90 * time.Second,
		},
		Ingest: IngestConfig{
			Debounce: 750 * time.Millisecond,
		},
		Queue: QueueConfig{
			Workers:        4,
			Size:           256,
			ProcessTimeout: 3 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (env wins).
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv("YACHT_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse config file", err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(c *Config) {
	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.OCR.DirectURL = getEnv("OCR_DIRECT_URL", c.OCR.DirectURL)
	c.OCR.DirectAPIKey = getEnv("OCR_DIRECT_API_KEY", c.OCR.DirectAPIKey)
	c.OCR.DirectTimeout = getEnvAsDuration("OCR_DIRECT_TIMEOUT", c.OCR.DirectTimeout)
	c.OCR.DirectRateLimit = getEnvAsFloat("OCR_DIRECT_RATE_LIMIT", c.OCR.DirectRateLimit)
	c.OCR.DirectBurst = getEnvAsInt("OCR_DIRECT_BURST", c.OCR.DirectBurst)
	c.OCR.ProjectID = getEnv("DOCAI_PROJECT_ID", c.OCR.ProjectID)
	c.OCR.Location = getEnv("DOCAI_LOCATION", c.OCR.Location)
	c.OCR.ProcessorID = getEnv("DOCAI_PROCESSOR_ID", c.OCR.ProcessorID)
	c.OCR.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.OCR.CredentialsFile)
	c.OCR.LibraryTimeout = getEnvAsDuration("DOCAI_TIMEOUT", c.OCR.LibraryTimeout)
	c.OCR.DebugDumpDir = getEnv("OCR_DEBUG_DUMP_DIR", c.OCR.DebugDumpDir)

	c.Pipeline.RulesDir = getEnv("RULES_DIR", c.Pipeline.RulesDir)

	c.Ingest.InboxDir = getEnv("INBOX_DIR", c.Ingest.InboxDir)
	c.Ingest.Debounce = getEnvAsDuration("INBOX_DEBOUNCE", c.Ingest.Debounce)
	c.Ingest.InitialScan = getEnvAsBool("INBOX_INITIAL_SCAN", c.Ingest.InitialScan)

	c.Queue.Workers = getEnvAsInt("QUEUE_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("QUEUE_SIZE", c.Queue.Size)
	c.Queue.ProcessTimeout = getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", c.Queue.ProcessTimeout)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// HasDirectOCR reports whether the direct JSON transport is configured.
func (c OCRConfig) HasDirectOCR() bool { return c.DirectURL != "" }

// HasDocumentAI reports whether the client-library transport is configured.
func (c OCRConfig) HasDocumentAI() bool {
	return c.ProjectID != "" && c.ProcessorID != "" && c.Location != ""
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError(CodeConfig, "DB_URL is required for the postgres driver", ErrInvalidInput)
		}
	case "sqlite":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unknown database driver %q", c.Database.Driver), ErrInvalidInput)
	}
	if !c.OCR.HasDirectOCR() && !c.OCR.HasDocumentAI() {
		return NewAppError(CodeConfig, "OCR_DIRECT_URL or DOCAI_PROJECT_ID/DOCAI_PROCESSOR_ID is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("invalid log format %q", c.Log.Format), ErrInvalidInput)
	}
	return nil
}
