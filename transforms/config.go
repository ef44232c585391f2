// Package transforms turns decoded images into normalized CHW tensors.
//
// Two profiles are provided, mirroring what an image-classification training
// loop usually wants:
//
//   - training: random resized crop, center crop, random vertical flip,
//     tensor conversion and channel normalization.
//   - evaluation: deterministic resize, center crop, tensor conversion and
//     channel normalization.
//
// Resampling, cropping and flipping are delegated to
// github.com/disintegration/imaging; this package only composes them.
package transforms

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Phase selects which transform profile applies to an image.
type Phase string

const (
	PhaseTrain Phase = "train"
	PhaseVal   Phase = "val"
	PhaseTest  Phase = "test"
)

// ParsePhase converts a string into a Phase. Matching is case-insensitive and
// also accepts "validation" and "eval".
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "train", "training":
		return PhaseTrain, nil
	case "val", "valid", "validation", "eval":
		return PhaseVal, nil
	case "test":
		return PhaseTest, nil
	}
	return "", errors.Errorf("unknown phase %q", s)
}

// IsTraining reports whether p uses the randomized training profile.
func (p Phase) IsTraining() bool { return p == PhaseTrain }

// Config holds the values shared by every transform profile: the square
// output size and the per-channel (R, G, B) normalization constants.
type Config struct {
	Size int
	Mean [3]float32
	Std  [3]float32
}

// DefaultConfig returns 224x224 output with the ImageNet normalization
// constants.
func DefaultConfig() Config {
	return Config{
		Size: 224,
		Mean: [3]float32{0.485, 0.456, 0.406},
		Std:  [3]float32{0.229, 0.224, 0.225},
	}
}

// Validate checks that the configuration can produce tensors.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return errors.Errorf("transform size must be > 0, got %d", c.Size)
	}
	for i, s := range c.Std {
		if s <= 0 {
			return errors.Errorf("std[%d] must be > 0, got %g", i, s)
		}
	}
	return nil
}

func (c Config) String() string {
	return fmt.Sprintf("size=%d mean=%v std=%v", c.Size, c.Mean, c.Std)
}
