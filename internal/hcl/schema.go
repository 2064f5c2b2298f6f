package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a file may contain. Each block may
// appear at most once per file.
type fileRoot struct {
	Engine   *engineBlock   `hcl:"engine,block"`
	Training *trainingBlock `hcl:"training,block"`
	Dataset  *datasetBlock  `hcl:"dataset,block"`
	Library  *libraryBlock  `hcl:"library,block"`
	Log      *logBlock      `hcl:"log,block"`
	Status   *statusBlock   `hcl:"status,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

// Attributes are pointers so that an omitted attribute keeps the value set
// by defaults or an earlier file.

type engineBlock struct {
	Capacity *int   `hcl:"capacity,optional"`
	Seed     *int64 `hcl:"seed,optional"`
}

type trainingBlock struct {
	Epochs       *int     `hcl:"epochs,optional"`
	LearningRate *float64 `hcl:"learning_rate,optional"`
	LossNode     *string  `hcl:"loss_node,optional"`
	Randomize    *bool    `hcl:"randomize,optional"`
}

type datasetBlock struct {
	Path     *string  `hcl:"path,optional"`
	Generate *string  `hcl:"generate,optional"`
	Points   *int     `hcl:"points,optional"`
	Noise    *float64 `hcl:"noise,optional"`
}

type libraryBlock struct {
	Path *string `hcl:"path,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type statusBlock struct {
	Port *int `hcl:"port,optional"`
}
