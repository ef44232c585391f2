package datasets

import (
	"math/rand"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// MakeTrainset builds an ImageFolderDataset over root with the training
// profile: random resized crop, center crop, random vertical flip, tensor
// conversion and normalization. rng drives the augmentation; nil means a
// time seeded source.
func MakeTrainset(fsys afero.Fs, root string, cfg transforms.Config, rng *rand.Rand) (*ImageFolderDataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("root", root).Stringer("transform", cfg).Msg("building training set")
	pipeline := transforms.TrainPipeline(cfg, rng)
	return NewImageFolderDataset(fsys, root, nil, transforms.Fixed{Pipeline: pipeline}, transforms.PhaseTrain)
}

// MakeTestset builds an ImageFolderDataset over root with the evaluation
// profile: resize, center crop, tensor conversion and normalization.
func MakeTestset(fsys afero.Fs, root string, cfg transforms.Config) (*ImageFolderDataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("root", root).Stringer("transform", cfg).Msg("building evaluation set")
	pipeline := transforms.EvalPipeline(cfg)
	return NewImageFolderDataset(fsys, root, nil, transforms.Fixed{Pipeline: pipeline}, transforms.PhaseTest)
}
