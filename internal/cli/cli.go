package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/nngarden/internal/app"
	"github.com/vk/nngarden/internal/dataset"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("nngarden", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
nngarden - A node graph of differentiable operations, trained headless.

Usage:
  nngarden [options] [GRAPH_PATH]

Arguments:
  GRAPH_PATH
    Path to a saved graph document (.json, .yaml or .yml).

Datasets:
  %s

Options:
`, strings.Join(dataset.Kinds(), ", "))
		flagSet.PrintDefaults()
	}

	var configPaths []string
	flagSet.Func("config", "Path to an .hcl settings file or directory. May be repeated.", func(v string) error {
		if v == "" {
			return errors.New("empty path")
		}
		configPaths = append(configPaths, v)
		return nil
	})
	graphFlag := flagSet.String("graph", "", "Path to the graph document.")
	gFlag := flagSet.String("g", "", "Path to the graph document (shorthand).")
	saveFlag := flagSet.String("save", "", "Write the trained graph to this path.")
	datasetFlag := flagSet.String("dataset", "", "CSV file of x,y,label samples.")
	generateFlag := flagSet.String("generate", "", "Generate a synthetic dataset of this kind instead of reading one.")
	epochsFlag := flagSet.Int("epochs", 0, "Training epochs. 0 keeps the configured value; none configured evaluates once.")
	lrFlag := flagSet.Float64("lr", 0, "SGD learning rate. 0 keeps the configured value.")
	lossFlag := flagSet.String("loss", "", "Name of the node to minimize.")
	randomizeFlag := flagSet.Bool("randomize", false, "Randomize parameters before training.")
	seedFlag := flagSet.Int64("seed", 0, "Random seed for parameters and generated datasets. 0 keeps the configured value.")
	libraryFlag := flagSet.String("library", "", "Path to the function template library.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text', 'json' or 'auto'.")
	logLevelFlag := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	switch {
	case *graphFlag != "":
		path = *graphFlag
	case *gFlag != "":
		path = *gFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}
	slog.Debug("Graph path determined.", "path", path)

	if path == "" {
		slog.Debug("No graph path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ConfigPaths:  configPaths,
		GraphPath:    path,
		SavePath:     *saveFlag,
		DatasetPath:  *datasetFlag,
		Generate:     strings.ToLower(*generateFlag),
		Epochs:       *epochsFlag,
		LearningRate: *lrFlag,
		LossNode:     *lossFlag,
		Randomize:    *randomizeFlag,
		Seed:         *seedFlag,
		LibraryPath:  *libraryFlag,
		StatusPort:   *statusPortFlag,
		LogFormat:    strings.ToLower(*logFormatFlag),
		LogLevel:     strings.ToLower(*logLevelFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
