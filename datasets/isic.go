package datasets

import (
	"fmt"
	"path/filepath"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// IsicConfig holds what NewIsicDataset needs.
type IsicConfig struct {
	// Paths to the images, usually from MakeDatapathList.
	Paths []string

	// Labels is joined to Paths by image id (the base name of each path
	// without extension).
	Labels *LabelTable

	// Transform and Phase select how images are turned into tensors.
	Transform Transformer
	Phase     transforms.Phase

	// Missing decides what to do with paths whose file does not exist.
	Missing MissingPolicy
}

// IsicDataset pairs image paths with labels from a ground-truth CSV.
//
// Paths and labels are resolved once at construction; Example only reads
// and transforms the image.
type IsicDataset struct {
	Phase transforms.Phase

	fs        afero.Fs
	paths     []string
	labels    []int
	transform Transformer
	missing   MissingPolicy
}

var _ Dataset = (*IsicDataset)(nil)

// NewIsicDataset builds the dataset described by cfg. Every path must have
// an entry in cfg.Labels, otherwise ErrLabelNotFound is returned.
func NewIsicDataset(fsys afero.Fs, cfg IsicConfig) (*IsicDataset, error) {
	if cfg.Labels == nil {
		return nil, errors.New("isic dataset needs a label table")
	}
	if cfg.Transform == nil {
		return nil, errors.New("isic dataset needs a transform")
	}

	paths := cfg.Paths
	if cfg.Missing == MissingSkip {
		kept, missing, err := existingPaths(fsys, paths)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			log.Warn().
				Str("phase", string(cfg.Phase)).
				Int("missing", len(missing)).
				Int("kept", len(kept)).
				Str("first", missing[0]).
				Msg("skipping samples without an image file")
		}
		paths = make([]string, len(kept))
		for i, idx := range kept {
			paths[i] = cfg.Paths[idx]
		}
	} else {
		paths = append([]string(nil), paths...)
	}

	labels := make([]int, len(paths))
	for i, p := range paths {
		id := ImageID(p)
		label, ok := cfg.Labels.Lookup(id)
		if !ok {
			return nil, errors.Wrapf(ErrLabelNotFound, "%q (path %s, labels %s)", id, p, cfg.Labels.Path)
		}
		labels[i] = label
	}

	return &IsicDataset{
		Phase:     cfg.Phase,
		fs:        fsys,
		paths:     paths,
		labels:    labels,
		transform: cfg.Transform,
		missing:   cfg.Missing,
	}, nil
}

// SplitSpec describes where one CSV driven split lives under the data
// directory.
type SplitSpec struct {
	CSV         string `yaml:"csv"`
	IDColumn    string `yaml:"id_column"`
	LabelColumn string `yaml:"label_column"`
	ImageDir    string `yaml:"image_dir"`
}

// LoadIsicSplit builds the path list and the label table of one split from
// the same CSV and wraps them in an IsicDataset.
func LoadIsicSplit(fsys afero.Fs, dataDir string, spec SplitSpec, transform Transformer,
	phase transforms.Phase, missing MissingPolicy) (*IsicDataset, error) {

	paths, err := MakeDatapathList(fsys, dataDir, spec.CSV, spec.IDColumn, spec.ImageDir)
	if err != nil {
		return nil, err
	}
	table, err := LoadLabelTable(fsys, filepath.Join(dataDir, spec.CSV), spec.IDColumn, spec.LabelColumn)
	if err != nil {
		return nil, err
	}
	ds, err := NewIsicDataset(fsys, IsicConfig{
		Paths:     paths,
		Labels:    table,
		Transform: transform,
		Phase:     phase,
		Missing:   missing,
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %s split", phase)
	}
	log.Debug().
		Str("phase", string(phase)).
		Str("csv", spec.CSV).
		Int("samples", ds.Len()).
		Msg("loaded split")
	return ds, nil
}

// Len returns the number of samples.
func (d *IsicDataset) Len() int {
	return len(d.paths)
}

// Example loads the image at index i, transforms it for the dataset phase
// and returns it with its label.
func (d *IsicDataset) Example(i int) (*transforms.Tensor, int, error) {
	if i < 0 || i >= len(d.paths) {
		return nil, 0, errors.Wrapf(ErrIndexOutOfRange, "index %d, len %d", i, len(d.paths))
	}
	img, err := loadImage(d.fs, d.paths[i], d.missing)
	if err != nil {
		return nil, 0, err
	}
	return d.transform.Apply(img, d.Phase), d.labels[i], nil
}

// GetItem returns the path and label at index i without loading the image.
func (d *IsicDataset) GetItem(i int) (string, int, error) {
	if i < 0 || i >= len(d.paths) {
		return "", 0, errors.Wrapf(ErrIndexOutOfRange, "index %d, len %d", i, len(d.paths))
	}
	return d.paths[i], d.labels[i], nil
}

// Paths returns the image paths in dataset order. The slice must not be
// modified.
func (d *IsicDataset) Paths() []string { return d.paths }

// Labels returns the labels in dataset order. The slice must not be
// modified.
func (d *IsicDataset) Labels() []int { return d.labels }

// ClassDistribution returns the number of samples per label.
func (d *IsicDataset) ClassDistribution() map[int]int {
	dist := make(map[int]int)
	for _, label := range d.labels {
		dist[label]++
	}
	return dist
}

func (d *IsicDataset) String() string {
	return fmt.Sprintf("IsicDataset(%s): %d samples, distribution %v", d.Phase, len(d.paths), d.ClassDistribution())
}
