package transforms

import (
	"image"
	"math/rand"
	"sync"
	"time"
)

// Training profile crop scale range.
const (
	TrainMinScale = 0.5
	TrainMaxScale = 1.0
)

// Pipeline applies a sequence of image ops, converts the result to a tensor
// and normalizes it. It is safe for concurrent use.
type Pipeline struct {
	name string
	ops  []Op
	mean [3]float32
	std  [3]float32

	// mu protects rng, which ops draw from. A nil rng marks a deterministic
	// pipeline whose ops run without the lock.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPipeline composes ops followed by ToTensor and Normalize(mean, std). If
// rng is nil a time seeded one is created. Ops run one image at a time since
// they share rng.
func NewPipeline(name string, mean, std [3]float32, rng *rand.Rand, ops ...Op) *Pipeline {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Pipeline{
		name: name,
		ops:  ops,
		mean: mean,
		std:  std,
		rng:  rng,
	}
}

// NewDeterministicPipeline is NewPipeline for ops that never draw random
// numbers. They receive a nil rng and run concurrently.
func NewDeterministicPipeline(name string, mean, std [3]float32, ops ...Op) *Pipeline {
	return &Pipeline{
		name: name,
		ops:  ops,
		mean: mean,
		std:  std,
	}
}

// Name returns the pipeline name, "train" or "eval" for the built-in profiles.
func (p *Pipeline) Name() string { return p.name }

// Apply runs the pipeline on img.
func (p *Pipeline) Apply(img image.Image) *Tensor {
	if p.rng != nil {
		p.mu.Lock()
		img = p.run(img)
		p.mu.Unlock()
	} else {
		img = p.run(img)
	}
	t := ToTensor(img)
	Normalize(t, p.mean, p.std)
	return t
}

func (p *Pipeline) run(img image.Image) image.Image {
	for _, op := range p.ops {
		img = op(img, p.rng)
	}
	return img
}

// TrainPipeline builds the training profile: random resized crop (scale
// 0.5-1.0), center crop, random vertical flip, tensor conversion and
// normalization.
func TrainPipeline(cfg Config, rng *rand.Rand) *Pipeline {
	return NewPipeline("train", cfg.Mean, cfg.Std, rng,
		RandomResizedCrop(cfg.Size, TrainMinScale, TrainMaxScale),
		CenterCrop(cfg.Size),
		RandomVerticalFlip(defaultFlipP),
	)
}

// EvalPipeline builds the evaluation profile: resize of the shorter side,
// center crop, tensor conversion and normalization. It never draws random
// numbers.
func EvalPipeline(cfg Config) *Pipeline {
	return NewDeterministicPipeline("eval", cfg.Mean, cfg.Std,
		Resize(cfg.Size),
		CenterCrop(cfg.Size),
	)
}

// ImageTransform pairs a training and an evaluation pipeline built from the
// same Config, and picks one according to the Phase.
type ImageTransform struct {
	cfg   Config
	train *Pipeline
	eval  *Pipeline
}

// NewImageTransform validates cfg and builds both profiles.
func NewImageTransform(cfg Config, rng *rand.Rand) (*ImageTransform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ImageTransform{
		cfg:   cfg,
		train: TrainPipeline(cfg, rng),
		eval:  EvalPipeline(cfg),
	}, nil
}

// Config returns the configuration the transform was built with.
func (it *ImageTransform) Config() Config { return it.cfg }

// Apply transforms img with the profile selected by phase: training for
// PhaseTrain, evaluation otherwise.
func (it *ImageTransform) Apply(img image.Image, phase Phase) *Tensor {
	if phase.IsTraining() {
		return it.train.Apply(img)
	}
	return it.eval.Apply(img)
}

// Fixed adapts a single Pipeline to the phase-aware signature used by the
// datasets, ignoring the phase.
type Fixed struct {
	*Pipeline
}

// Apply implements the phase-aware transform signature.
func (f Fixed) Apply(img image.Image, _ Phase) *Tensor {
	return f.Pipeline.Apply(img)
}
