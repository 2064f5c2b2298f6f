package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads every configuration file found under paths and merges them
	// onto the defaults. Later files override earlier ones.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified representation of the whole configuration.
type Model struct {
	Engine   Engine
	Training Training
	Dataset  Dataset
	Library  Library
	Log      Log
	Status   Status
}

// Engine sizes the node arena and seeds parameter randomization.
type Engine struct {
	Capacity int
	Seed     int64
}

// Training controls the headless training loop.
type Training struct {
	Epochs       int
	LearningRate float64
	// LossNode names the gradient root. Empty keeps the root of the loaded
	// graph.
	LossNode  string
	Randomize bool
}

// Dataset selects the samples fed to DataSource nodes: a CSV file, or a
// synthetic set when Generate names a generator.
type Dataset struct {
	Path     string
	Generate string
	Points   int
	Noise    float64
}

// Library points at the template store. Empty disables it.
type Library struct {
	Path string
}

// Log configures the application logger.
type Log struct {
	Level  string
	Format string
}

// Status configures the HTTP status server. Port 0 disables it.
type Status struct {
	Port int
}

// Default returns the settings used when nothing is configured.
func Default() *Model {
	return &Model{
		Engine:   Engine{Capacity: 4096, Seed: 1},
		Training: Training{LearningRate: 0.01},
		Dataset:  Dataset{Points: 1000, Noise: 0.1},
		Log:      Log{Level: "info", Format: "auto"},
	}
}
