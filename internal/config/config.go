// Package config resolves run settings from defaults, an optional YAML file
// and the environment, in increasing order of precedence. Command-line flags
// are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/palantir/lead-repair-pipeline/internal/logging"
)

// Repairer names.
const (
	RepairerGemini = "gemini"
	RepairerRules  = "rules"
)

var (
	ErrMinConfidence = errors.New("min confidence must be between 0.0 and 1.0")
	ErrWorkers       = errors.New("workers must be at least 1")
	ErrDuration      = errors.New("durations must not be negative")
	ErrMaxRetries    = errors.New("max retries must not be negative")
	ErrRepairer      = errors.New("repairer must be gemini or rules")
	ErrGeminiAPIKey  = errors.New("GEMINI_API_KEY is required for the gemini repairer")
	ErrLogFormat     = errors.New("log format must be text or json")
	ErrLogLevel      = errors.New("log level must be debug, info, warn or error")
)

type Config struct {
	OutputDir     string        `yaml:"output_dir"`
	MinConfidence float64       `yaml:"min_confidence"`
	Workers       int           `yaml:"workers"`
	RepairDelay   time.Duration `yaml:"repair_delay"`
	RepairTimeout time.Duration `yaml:"repair_timeout"`
	MaxRetries    int           `yaml:"max_retries"`
	Repairer      string        `yaml:"repairer"`
	SQLitePath    string        `yaml:"sqlite"`

	Gemini Gemini `yaml:"gemini"`
	Log    Log    `yaml:"log"`
}

type Gemini struct {
	// APIKey is read from the environment only.
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing else is specified.
func Default() Config {
	return Config{
		OutputDir:     "outputs",
		MinConfidence: 0,
		Workers:       1,
		RepairDelay:   time.Second,
		RepairTimeout: 30 * time.Second,
		MaxRetries:    3,
		Repairer:      RepairerGemini,
		Gemini:        Gemini{Model: "gemini-2.5-flash"},
		Log:           Log{Level: "info", Format: "text"},
	}
}

// Load returns defaults overlaid with the YAML file at path (if non-empty) and
// then with environment variables. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.MinConfidence, err = envFloat("MIN_CONFIDENCE", c.MinConfidence); err != nil {
		return err
	}
	if c.Workers, err = envInt("WORKERS", c.Workers); err != nil {
		return err
	}
	if c.RepairDelay, err = envDuration("REPAIR_DELAY", c.RepairDelay); err != nil {
		return err
	}
	if c.RepairTimeout, err = envDuration("REPAIR_TIMEOUT", c.RepairTimeout); err != nil {
		return err
	}
	if c.MaxRetries, err = envInt("MAX_RETRIES", c.MaxRetries); err != nil {
		return err
	}
	c.Repairer = envString("REPAIRER", c.Repairer)
	c.Gemini.APIKey = envString("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.Model = envString("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.BaseURL = envString("GEMINI_BASE_URL", c.Gemini.BaseURL)
	c.Log.Level = envString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envString("LOG_FORMAT", c.Log.Format)
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if math.IsNaN(c.MinConfidence) || c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("%w, got %g", ErrMinConfidence, c.MinConfidence))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrWorkers, c.Workers))
	}
	if c.RepairDelay < 0 || c.RepairTimeout < 0 {
		errs = append(errs, ErrDuration)
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w, got %d", ErrMaxRetries, c.MaxRetries))
	}
	switch c.Repairer {
	case RepairerRules:
	case RepairerGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			errs = append(errs, ErrGeminiAPIKey)
		}
	default:
		errs = append(errs, fmt.Errorf("%w, got %q", ErrRepairer, c.Repairer))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrLogFormat, c.Log.Format))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w, got %q", ErrLogLevel, c.Log.Level))
	}
	return errors.Join(errs...)
}

func envString(varName, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		return v
	}
	return fallback
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
