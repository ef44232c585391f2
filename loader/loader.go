// Package loader batches the samples of a datasets.Dataset.
//
// A DataLoader walks a permutation of the dataset indices, loads up to
// NumWorkers samples concurrently and packs them into a Batch of contiguous
// buffers. It also implements gomlx's train.Dataset so it can be handed to a
// train.Loop directly.
package loader

import (
	"fmt"
	"io"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/Noofbiz/lesionset/datasets"
	"github.com/Noofbiz/lesionset/transforms"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for DataLoader.
type Config struct {
	BatchSize int
	Shuffle   bool

	// Seed for the shuffling permutation. Zero means time based.
	Seed int64

	// NumWorkers is the number of samples loaded in parallel inside a batch.
	// Zero or one loads sequentially.
	NumWorkers int
}

// DataLoader yields batches of a dataset, one epoch at a time.
type DataLoader struct {
	name    string
	dataset datasets.Dataset
	config  Config
	rng     *rand.Rand

	mu       sync.Mutex
	indices  []int
	position int
}

var _ train.Dataset = (*DataLoader)(nil)

// New creates a DataLoader over ds. The first permutation is drawn here when
// shuffling is enabled.
func New(name string, ds datasets.Dataset, config Config) (*DataLoader, error) {
	if isNil(ds) {
		return nil, errors.New("dataset cannot be nil")
	}
	if config.BatchSize < 1 {
		return nil, errors.Errorf("batch size must be >= 1, got %d", config.BatchSize)
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dl := &DataLoader{
		name:    name,
		dataset: ds,
		config:  config,
		rng:     rand.New(rand.NewSource(seed)),
	}
	dl.Reset()
	return dl, nil
}

// isNil also catches a nil pointer stored in the interface.
func isNil(ds datasets.Dataset) bool {
	if ds == nil {
		return true
	}
	v := reflect.ValueOf(ds)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Name implements train.Dataset.
func (dl *DataLoader) Name() string { return dl.name }

// Config returns the loader configuration.
func (dl *DataLoader) Config() Config { return dl.config }

// Dataset returns the underlying dataset.
func (dl *DataLoader) Dataset() datasets.Dataset { return dl.dataset }

// Len returns the number of batches in an epoch. The last batch may be
// smaller than BatchSize.
func (dl *DataLoader) Len() int {
	n := dl.dataset.Len()
	return (n + dl.config.BatchSize - 1) / dl.config.BatchSize
}

// Reset implements train.Dataset. It rewinds to the start of the epoch and
// draws a new permutation when shuffling.
func (dl *DataLoader) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	n := dl.dataset.Len()
	if len(dl.indices) != n {
		dl.indices = make([]int, n)
	}
	for i := range dl.indices {
		dl.indices[i] = i
	}
	if dl.config.Shuffle {
		dl.rng.Shuffle(n, func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
	dl.position = 0
}

// Progress returns how many samples of the epoch were consumed.
func (dl *DataLoader) Progress() (current, total int) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.position, len(dl.indices)
}

// Next loads the next batch. It returns io.EOF once the epoch is exhausted;
// call Reset to start another one. Concurrent callers receive disjoint
// batches. A sample that fails to load fails the whole batch, and its range
// is handed out again unless another caller reserved a later one meanwhile.
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mu.Lock()
	start := dl.position
	remaining := len(dl.indices) - start
	if remaining <= 0 {
		dl.mu.Unlock()
		return nil, io.EOF
	}
	size := min(dl.config.BatchSize, remaining)
	indices := append([]int(nil), dl.indices[start:start+size]...)
	dl.position += size
	end := dl.position
	dl.mu.Unlock()

	batch, err := dl.load(indices)
	if err != nil {
		dl.mu.Lock()
		if dl.position == end {
			dl.position = start
		}
		dl.mu.Unlock()
		return nil, err
	}
	return batch, nil
}

// load fetches the samples at indices and packs them.
func (dl *DataLoader) load(indices []int) (*Batch, error) {
	images := make([]*transforms.Tensor, len(indices))
	labels := make([]int, len(indices))

	var g errgroup.Group
	g.SetLimit(max(1, dl.config.NumWorkers))
	for i, idx := range indices {
		g.Go(func() error {
			img, label, err := dl.dataset.Example(idx)
			if err != nil {
				return errors.WithMessagef(err, "%s: sample %d", dl.name, idx)
			}
			images[i] = img
			labels[i] = label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newBatch(indices, images, labels)
}

// Yield implements train.Dataset. Inputs hold the image batch shaped
// [batch, channels, height, width] (float32); labels hold the class of every
// image shaped [batch] (int32). The spec is the DataLoader itself.
func (dl *DataLoader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	batch, err := dl.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	images, classes := batch.Tensors()
	return dl, []*tensors.Tensor{images}, []*tensors.Tensor{classes}, nil
}

func (dl *DataLoader) String() string {
	return fmt.Sprintf("DataLoader(%s): %d samples, %d batches of %d, shuffle=%v",
		dl.name, dl.dataset.Len(), dl.Len(), dl.config.BatchSize, dl.config.Shuffle)
}
