package loader

import (
	"github.com/Noofbiz/lesionset/datasets"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Split names one of the three dataset partitions.
type Split string

const (
	Train Split = "train"
	Val   Split = "val"
	Test  Split = "test"
)

// Splits lists the partitions in the order they are usually consumed.
var Splits = []Split{Train, Val, Test}

type splitOptions struct {
	seed        int64
	workers     int
	testShuffle bool
}

// Option customizes CreateDataloaders.
type Option func(*splitOptions)

// WithSeed seeds the shuffling of every loader. Each split gets a distinct
// seed derived from it.
func WithSeed(seed int64) Option {
	return func(o *splitOptions) { o.seed = seed }
}

// WithWorkers sets Config.NumWorkers on every loader.
func WithWorkers(n int) Option {
	return func(o *splitOptions) { o.workers = n }
}

// WithTestShuffle controls whether the test loader shuffles. It defaults to
// true, matching the train and val loaders.
func WithTestShuffle(shuffle bool) Option {
	return func(o *splitOptions) { o.testShuffle = shuffle }
}

// CreateDataloaders wraps the three datasets in loaders of batchSize and
// returns them keyed by split. All three shuffle unless WithTestShuffle(false)
// is given; a shuffled test loader is reported with a warning because
// evaluation order normally should not change between runs.
func CreateDataloaders(batchSize int, train, val, test datasets.Dataset, opts ...Option) (map[Split]*DataLoader, error) {
	o := splitOptions{testShuffle: true}
	for _, opt := range opts {
		opt(&o)
	}

	sets := map[Split]datasets.Dataset{Train: train, Val: val, Test: test}
	loaders := make(map[Split]*DataLoader, len(sets))
	for i, split := range Splits {
		cfg := Config{
			BatchSize:  batchSize,
			Shuffle:    split != Test || o.testShuffle,
			NumWorkers: o.workers,
		}
		if o.seed != 0 {
			cfg.Seed = o.seed + int64(i)
		}
		dl, err := New(string(split), sets[split], cfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "creating %s loader", split)
		}
		loaders[split] = dl
	}

	if o.testShuffle {
		log.Warn().
			Str("split", string(Test)).
			Msg("test loader shuffles its samples; pass WithTestShuffle(false) for a fixed evaluation order")
	}
	return loaders, nil
}
