package hcl

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/nngarden/internal/config"
	"github.com/vk/nngarden/internal/ctxlog"
	"github.com/vk/nngarden/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// environ supplies the `env` variable. Defaults to os.Environ.
	environ func() []string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// Load parses every .hcl file under paths, in order, and merges their blocks
// onto config.Default. Paths that do not exist are skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := config.Default()
	parser := hclparse.NewParser()
	env := l.environment()
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envValue(env)},
	}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		refs := envReferences(hclFile.Body)
		if err := checkEnv(refs, env); err != nil {
			return nil, fmt.Errorf("failed to evaluate HCL file %s: %w", file, err)
		}
		if len(refs) > 0 {
			names := make([]string, len(refs))
			for i, r := range refs {
				names[i] = r.Name
			}
			logger.Debug("Environment referenced.", "file", file, "variables", names)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		merge(model, &root)
		logger.Debug("Merged HCL file.", "file", file)
	}

	logger.Debug("HCL loading complete.", "files", len(files))
	return model, nil
}

// environment maps variable names to string values.
func (l *Loader) environment() map[string]cty.Value {
	vars := make(map[string]cty.Value)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return vars
}

// envValue exposes vars as a map(string).
func envValue(vars map[string]cty.Value) cty.Value {
	if len(vars) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	return cty.MapVal(vars)
}

func merge(m *config.Model, root *fileRoot) {
	if b := root.Engine; b != nil {
		set(&m.Engine.Capacity, b.Capacity)
		set(&m.Engine.Seed, b.Seed)
	}
	if b := root.Training; b != nil {
		set(&m.Training.Epochs, b.Epochs)
		set(&m.Training.LearningRate, b.LearningRate)
		set(&m.Training.LossNode, b.LossNode)
		set(&m.Training.Randomize, b.Randomize)
	}
	if b := root.Dataset; b != nil {
		set(&m.Dataset.Path, b.Path)
		set(&m.Dataset.Generate, b.Generate)
		set(&m.Dataset.Points, b.Points)
		set(&m.Dataset.Noise, b.Noise)
	}
	if b := root.Library; b != nil {
		set(&m.Library.Path, b.Path)
	}
	if b := root.Log; b != nil {
		set(&m.Log.Level, b.Level)
		set(&m.Log.Format, b.Format)
	}
	if b := root.Status; b != nil {
		set(&m.Status.Port, b.Port)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// findAllHCLFiles expands directories into the .hcl files they contain,
// taken in lexical order.
func findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if strings.HasSuffix(path, ".hcl") {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}
