package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"

	"github.com/vk/nngarden/internal/config"
	"github.com/vk/nngarden/internal/ctxlog"
	"github.com/vk/nngarden/internal/graph"
	"github.com/vk/nngarden/internal/library"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	ctx     context.Context
	logger  *slog.Logger
	cfg     *Config
	model   *config.Model
	engine  *graph.Engine
	library *library.Store
	rng     *rand.Rand

	httpServer *http.Server
	progress   progress
}

// NewApp resolves the session settings and builds the engine. Configuration
// files are read with loader, then overridden by cfg.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	bootstrap := newLogger(orDefault(cfg.LogLevel, "info"), orDefault(cfg.LogFormat, "auto"), outW)
	ctx := ctxlog.WithLogger(context.Background(), bootstrap)

	model, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.apply(model)
	if err := validateModel(model); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(model.Log.Level, model.Log.Format, outW)
	ctx = ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Configuration resolved.",
		"capacity", model.Engine.Capacity,
		"epochs", model.Training.Epochs,
		"learning_rate", model.Training.LearningRate,
	)

	a := &App{
		outW:   outW,
		ctx:    ctx,
		logger: logger,
		cfg:    cfg,
		model:  model,
		engine: graph.New(logger, model.Engine.Capacity),
		rng:    rand.New(rand.NewSource(model.Engine.Seed)),
	}

	if model.Library.Path != "" {
		store, err := library.Open(model.Library.Path)
		if err != nil {
			return nil, err
		}
		a.library = store
		logger.Debug("Template library opened.", "path", model.Library.Path)
	}
	return a, nil
}

// Engine returns the application's graph engine. This is primarily for testing.
func (a *App) Engine() *graph.Engine {
	return a.engine
}

// Model returns the resolved settings.
func (a *App) Model() *config.Model {
	return a.model
}

// Close releases the template library.
func (a *App) Close() error {
	if a.library == nil {
		return nil
	}
	err := a.library.Close()
	a.library = nil
	return err
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
