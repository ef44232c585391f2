package config

import (
	"math/rand"
	"time"

	"github.com/Noofbiz/lesionset/datasets"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var splitPhases = map[loader.Split]transforms.Phase{
	loader.Train: transforms.PhaseTrain,
	loader.Val:   transforms.PhaseVal,
	loader.Test:  transforms.PhaseTest,
}

func (c *Config) rng() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (c *Config) splitSpec(split loader.Split) datasets.SplitSpec {
	switch split {
	case loader.Train:
		return c.Splits.Train
	case loader.Val:
		return c.Splits.Val
	default:
		return c.Splits.Test
	}
}

func (c *Config) folderRoot(split loader.Split) string {
	switch split {
	case loader.Train:
		return c.FolderPath(c.Folders.Train)
	case loader.Val:
		return c.FolderPath(c.Folders.Val)
	default:
		return c.FolderPath(c.Folders.Test)
	}
}

// IsicDatasets builds the three CSV driven splits. They share one
// ImageTransform; the train split augments, the others use the eval profile.
func (c *Config) IsicDatasets(fsys afero.Fs) (map[loader.Split]*datasets.IsicDataset, error) {
	transform, err := transforms.NewImageTransform(c.Transform(), c.rng())
	if err != nil {
		return nil, err
	}
	out := make(map[loader.Split]*datasets.IsicDataset, len(loader.Splits))
	for _, split := range loader.Splits {
		ds, err := datasets.LoadIsicSplit(fsys, c.DataDir, c.splitSpec(split), transform, splitPhases[split], c.MissingPolicy())
		if err != nil {
			return nil, errors.WithMessagef(err, "loading %s split", split)
		}
		out[split] = ds
	}
	return out, nil
}

// FolderDatasets builds the image-folder splits that have a root configured.
// The train folder uses the train profile, the others the eval profile.
func (c *Config) FolderDatasets(fsys afero.Fs) (map[loader.Split]*datasets.ImageFolderDataset, error) {
	out := make(map[loader.Split]*datasets.ImageFolderDataset)
	rng := c.rng()
	for _, split := range loader.Splits {
		root := c.folderRoot(split)
		if root == "" {
			continue
		}
		var (
			ds  *datasets.ImageFolderDataset
			err error
		)
		if split == loader.Train {
			ds, err = datasets.MakeTrainset(fsys, root, c.Transform(), rng)
		} else {
			ds, err = datasets.MakeTestset(fsys, root, c.Transform())
		}
		if err != nil {
			return nil, errors.WithMessagef(err, "loading %s folder", split)
		}
		out[split] = ds
	}
	return out, nil
}

// Loaders builds the CSV driven splits and wraps them in data loaders.
func (c *Config) Loaders(fsys afero.Fs) (map[loader.Split]*loader.DataLoader, error) {
	sets, err := c.IsicDatasets(fsys)
	if err != nil {
		return nil, err
	}
	return loader.CreateDataloaders(c.BatchSize, sets[loader.Train], sets[loader.Val], sets[loader.Test],
		loader.WithSeed(c.Seed),
		loader.WithWorkers(c.Workers),
		loader.WithTestShuffle(c.ShuffleTest()),
	)
}
