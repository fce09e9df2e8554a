package config

import (
	"fmt"
	"os"

	"github.com/rayanht/rl/log"
	"github.com/rayanht/rl/loggers"
	"github.com/rayanht/rl/loggers/csv"
	"github.com/rayanht/rl/loggers/mlflow"
	"github.com/rayanht/rl/loggers/offline"
	"github.com/rayanht/rl/loggers/tensorboard"
	"github.com/rayanht/rl/zap"
	"gopkg.in/yaml.v3"
)

// Backend selects a tracking backend.
type Backend string

const (
	BackendCSV         Backend = "csv"
	BackendTensorBoard Backend = "tensorboard"
	BackendOffline     Backend = "offline"
	BackendMLflow      Backend = "mlflow"
	BackendNop         Backend = "nop"
)

// Config declares how to construct an experiment logger.
type Config struct {
	// Backend is one of csv, tensorboard, offline, mlflow, or nop.
	Backend Backend `yaml:"backend"`

	// LogDir is the local storage root. Required for every backend except
	// mlflow and nop.
	LogDir string `yaml:"log_dir"`

	// ExpName is the experiment name. Required except for nop.
	ExpName string `yaml:"exp_name"`

	// TrackingURI addresses the mlflow store (file:// URI or plain path).
	TrackingURI string `yaml:"tracking_uri"`

	// Diagnostics sets the level for the library's internal structured
	// logging ("error", "warn", "info", "debug"). Empty disables it.
	Diagnostics string `yaml:"diagnostics"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(raw)
}

// Parse decodes a YAML config document.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Validate checks the config is complete for its backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNop:
		return nil
	case BackendCSV, BackendTensorBoard, BackendOffline:
		if c.LogDir == "" {
			return fmt.Errorf("log_dir is required for backend %q", c.Backend)
		}
	case BackendMLflow:
		if c.TrackingURI == "" {
			return fmt.Errorf("tracking_uri is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.ExpName == "" {
		return fmt.Errorf("exp_name is required for backend %q", c.Backend)
	}

	return nil
}

// New validates the config and constructs the matching backend.
//
//nolint:ireturn
func New(cfg Config) (loggers.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	diag, err := diagnostics(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendCSV:
		return csv.New(cfg.LogDir, cfg.ExpName, csv.WithLogger(diag))
	case BackendTensorBoard:
		return tensorboard.New(cfg.LogDir, cfg.ExpName, tensorboard.WithLogger(diag))
	case BackendOffline:
		return offline.New(cfg.LogDir, cfg.ExpName, offline.WithLogger(diag))
	case BackendMLflow:
		return mlflow.New(cfg.TrackingURI, cfg.ExpName, mlflow.WithLogger(diag))
	case BackendNop:
		return loggers.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

//nolint:ireturn
func diagnostics(cfg Config) (log.Logger, error) {
	if cfg.Diagnostics == "" {
		return log.NewNop(), nil
	}

	if _, err := log.ParseLevel(cfg.Diagnostics); err != nil {
		return nil, fmt.Errorf("invalid diagnostics level: %w", err)
	}

	diag, err := zap.New(zap.Config{Level: cfg.Diagnostics})
	if err != nil {
		return nil, err
	}

	return diag.With(log.String("exp_name", cfg.ExpName)), nil
}
