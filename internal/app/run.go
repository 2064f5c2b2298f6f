package app

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/nngarden/internal/ctxlog"
	"github.com/vk/nngarden/internal/dataset"
	"github.com/vk/nngarden/internal/errdefs"
	"github.com/vk/nngarden/internal/nodeid"
)

// Run loads the graph, trains it for the configured number of epochs and
// writes the results back out. With zero epochs the graph is evaluated once
// on the first sample; a graph with a data source then needs a dataset, and
// without one the run fails with errdefs.ErrMissingInput.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.model.Status.Port > 0 {
		a.startStatusServer(a.model.Status.Port)
		defer func() { _ = a.closeStatusServer() }()
	}

	if err := a.engine.Load(a.cfg.GraphPath); err != nil {
		return err
	}
	a.logger.Info("Graph loaded.", "path", a.cfg.GraphPath, "nodes", a.engine.Len())

	if a.library != nil {
		added, err := a.library.LoadInto(a.engine.Registry())
		if err != nil {
			return fmt.Errorf("failed to import library templates: %w", err)
		}
		a.logger.Debug("Library templates imported.", "count", len(added))
	}

	data, err := a.loadDataset()
	if err != nil {
		return err
	}

	if a.model.Training.Randomize {
		a.engine.RandomizeParameters(a.rng)
	}
	root, err := a.selectRoot()
	if err != nil {
		return err
	}

	if a.model.Training.Epochs == 0 {
		if err := a.evaluate(data, root); err != nil {
			return err
		}
	} else if err := a.train(ctx, data, root); err != nil {
		return err
	}

	return a.persist()
}

func (a *App) loadDataset() (*dataset.Set, error) {
	d := a.model.Dataset
	switch {
	case d.Path != "":
		set, err := dataset.Load(d.Path)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Dataset loaded.", "path", d.Path, "samples", set.Len())
		return set, nil
	case d.Generate != "":
		set, err := dataset.Generate(d.Generate, a.rng, d.Points, d.Noise)
		if err != nil {
			return nil, err
		}
		a.logger.Info("Dataset generated.", "kind", d.Generate, "samples", set.Len())
		return set, nil
	}
	a.logger.Debug("No dataset configured.")
	return dataset.New(nil), nil
}

// selectRoot resolves the configured loss node, falling back to the root
// saved with the graph.
func (a *App) selectRoot() (nodeid.Index, error) {
	name := a.model.Training.LossNode
	if name == "" {
		return a.engine.BackwardsNode(), nil
	}
	idx, ok := a.engine.Lookup(name)
	if !ok {
		return nodeid.Nil, fmt.Errorf("loss node %q: %w", name, errdefs.ErrNotFound)
	}
	if err := a.engine.SetBackwardsNode(idx); err != nil {
		return nodeid.Nil, err
	}
	return idx, nil
}

func (a *App) evaluate(data *dataset.Set, root nodeid.Index) error {
	if err := a.engine.Forward(data.Current()); err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	attrs := []any{"nodes", a.engine.Len()}
	if !root.IsNil() {
		if v, err := a.engine.Node(root); err == nil {
			attrs = append(attrs, "root", root.String(), "value", v.Value)
		}
	}
	a.logger.Info("Graph evaluated.", attrs...)
	return nil
}

func (a *App) train(ctx context.Context, data *dataset.Set, root nodeid.Index) error {
	logger := ctxlog.FromContext(ctx)
	if root.IsNil() {
		return fmt.Errorf("training requires a loss node: %w", errdefs.ErrInvalidIndex)
	}
	epochs := a.model.Training.Epochs
	lr := a.model.Training.LearningRate
	samples := max(data.Len(), 1)

	a.progress.start(epochs, a.engine.Len(), samples)
	defer a.progress.finish()
	logger.Info("🚀 Training started.", "epochs", epochs, "samples", samples, "learning_rate", lr)

	var loss float64
	for epoch := 1; epoch <= epochs; epoch++ {
		var total float64
		for i := range samples {
			if err := ctx.Err(); err != nil {
				return err
			}
			data.SetCursor(i)
			if err := a.engine.Step(data.Current(), lr); err != nil {
				return fmt.Errorf("epoch %d sample %d: %w", epoch, i, err)
			}
			v, err := a.engine.Node(root)
			if err != nil {
				return err
			}
			total += v.Value
		}
		loss = total / float64(samples)
		a.progress.record(epoch, loss)
		logger.Info("Epoch finished.", "epoch", epoch, "loss", loss)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			logger.Warn("Loss diverged.", "epoch", epoch)
		}
	}

	logger.Info("🏁 Training finished.", "loss", loss)
	return nil
}

func (a *App) persist() error {
	if path := a.cfg.SavePath; path != "" {
		if err := a.engine.Save(path); err != nil {
			return err
		}
		a.logger.Info("Graph saved.", "path", path)
	}
	if a.library != nil {
		if err := a.library.SaveAll(a.engine.Registry()); err != nil {
			return err
		}
		a.logger.Debug("Templates stored.", "count", a.engine.Registry().Len())
	}
	return nil
}
