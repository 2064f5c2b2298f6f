package app

import (
	"errors"
	"fmt"

	"github.com/vk/nngarden/internal/config"
)

// Config holds the command-line settings of a session. Zero values leave
// the corresponding setting from the configuration files untouched.
type Config struct {
	ConfigPaths []string // hcl files or directories
	GraphPath   string   // graph document to train
	SavePath    string   // where to write the trained graph

	DatasetPath  string
	Generate     string
	Epochs       int
	LearningRate float64
	LossNode     string
	Randomize    bool
	Seed         int64
	LibraryPath  string

	LogFormat  string
	LogLevel   string
	StatusPort int
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	if cfg.DatasetPath != "" && cfg.Generate != "" {
		return nil, errors.New("a dataset path and a generated dataset are mutually exclusive")
	}
	if cfg.Epochs < 0 {
		return nil, fmt.Errorf("epochs must not be negative, got %d", cfg.Epochs)
	}
	if cfg.LearningRate < 0 {
		return nil, fmt.Errorf("learning rate must not be negative, got %g", cfg.LearningRate)
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		return nil, fmt.Errorf("status port %d out of range", cfg.StatusPort)
	}
	if cfg.LogLevel != "" {
		if err := validateLogLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}
	if cfg.LogFormat != "" {
		if err := validateLogFormat(cfg.LogFormat); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// apply overrides the file settings in m with every field set on c.
func (c *Config) apply(m *config.Model) {
	override(&m.Dataset.Path, c.DatasetPath)
	override(&m.Dataset.Generate, c.Generate)
	if c.DatasetPath != "" {
		m.Dataset.Generate = ""
	}
	if c.Generate != "" {
		m.Dataset.Path = ""
	}
	override(&m.Training.Epochs, c.Epochs)
	override(&m.Training.LearningRate, c.LearningRate)
	override(&m.Training.LossNode, c.LossNode)
	if c.Randomize {
		m.Training.Randomize = true
	}
	override(&m.Engine.Seed, c.Seed)
	override(&m.Library.Path, c.LibraryPath)
	override(&m.Log.Format, c.LogFormat)
	override(&m.Log.Level, c.LogLevel)
	override(&m.Status.Port, c.StatusPort)
}

func override[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

// validateModel checks the merged settings.
func validateModel(m *config.Model) error {
	var errs []error
	if err := validateLogLevel(m.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := validateLogFormat(m.Log.Format); err != nil {
		errs = append(errs, err)
	}
	if m.Engine.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("engine capacity must be positive, got %d", m.Engine.Capacity))
	}
	if m.Training.Epochs < 0 {
		errs = append(errs, fmt.Errorf("epochs must not be negative, got %d", m.Training.Epochs))
	}
	if m.Dataset.Path != "" && m.Dataset.Generate != "" {
		errs = append(errs, errors.New("dataset path and generate are mutually exclusive"))
	}
	if m.Dataset.Generate != "" && m.Dataset.Points <= 0 {
		errs = append(errs, fmt.Errorf("dataset points must be positive, got %d", m.Dataset.Points))
	}
	if m.Status.Port < 0 || m.Status.Port > 65535 {
		errs = append(errs, fmt.Errorf("status port %d out of range", m.Status.Port))
	}
	return errors.Join(errs...)
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", level)
}

func validateLogFormat(format string) error {
	switch format {
	case "text", "json", "auto":
		return nil
	}
	return fmt.Errorf("invalid log format %q: must be 'text', 'json' or 'auto'", format)
}
