package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Completion struct {
		APIKey              string        `yaml:"apiKey"`
		Model               string        `yaml:"model"`
		BaseURL             string        `yaml:"baseURL"`
		Timeout             time.Duration `yaml:"timeout"`
		MaxCompletionTokens int           `yaml:"maxCompletionTokens"`
	} `yaml:"completion"`

	Log struct {
		CSVPath string `yaml:"csvPath"`
	} `yaml:"log"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	// History mirrors analyses into SQL; empty Driver disables it.
	History struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"history"`

	// Archive uploads CSV snapshots to MinIO/S3; empty Endpoint disables it.
	Archive struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"archive"`
}

// Default returns the settings used when neither file nor env says otherwise.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:5000"
	cfg.Completion.Model = "llama-3.3-70b-versatile"
	cfg.Completion.BaseURL = "https://api.groq.com/openai/v1"
	cfg.Completion.Timeout = 30 * time.Second
	cfg.Completion.MaxCompletionTokens = 300
	cfg.Log.CSVPath = "call_analysis.csv"
	cfg.Logging.Level = "info"
	return &cfg
}

// Load baca file config (optional) lalu override dari environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks CONFIG_PATH, else ./config.yaml when present, else "".
func ResolvePath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func (c *Config) applyEnv() error {
	setString(&c.Completion.APIKey, "API_KEY", "GROQ_API_KEY")
	setString(&c.Completion.Model, "MODEL_NAME", "GROQ_MODEL")
	setString(&c.Completion.BaseURL, "COMPLETION_BASE_URL")
	setString(&c.Log.CSVPath, "CSV_PATH")
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.History.Driver, "HISTORY_DRIVER")
	setString(&c.History.DSN, "HISTORY_DSN")

	if v := os.Getenv("COMPLETION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COMPLETION_TIMEOUT: %w", err)
		}
		c.Completion.Timeout = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// setString assigns the first non-empty env var among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
			return
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks structure only. A missing API key is allowed here; the
// completion client reports it on every call.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Completion.Timeout <= 0 {
		errs = append(errs, errors.New("completion.timeout must be positive"))
	}
	if c.Completion.MaxCompletionTokens <= 0 {
		errs = append(errs, errors.New("completion.maxCompletionTokens must be positive"))
	}
	if c.Log.CSVPath == "" {
		errs = append(errs, errors.New("log.csvPath is required"))
	}
	switch c.History.Driver {
	case "":
	case "mysql", "postgres", "sqlite":
		if c.History.DSN == "" {
			errs = append(errs, fmt.Errorf("history.dsn is required for driver %q", c.History.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("history.driver %q is not one of mysql, postgres, sqlite", c.History.Driver))
	}
	if c.ArchiveEnabled() && c.Archive.BucketName == "" {
		errs = append(errs, errors.New("archive.bucketName is required when archive.endpoint is set"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HasAPIKey reports whether a completion credential is configured.
func (c *Config) HasAPIKey() bool { return strings.TrimSpace(c.Completion.APIKey) != "" }

func (c *Config) HistoryEnabled() bool { return c.History.Driver != "" }

func (c *Config) ArchiveEnabled() bool { return c.Archive.Endpoint != "" }

// SlogLevel maps logging.level onto slog.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}
