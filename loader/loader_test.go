package loader

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDataset yields 3x2x2 tensors filled with the sample index; the label
// is index % 2.
type fakeDataset struct {
	n       int
	failAt  int
	calls   atomic.Int64
	badSize int
	delay   time.Duration
}

func newFake(n int) *fakeDataset { return &fakeDataset{n: n, failAt: -1, badSize: -1} }

func (f *fakeDataset) Len() int { return f.n }

func (f *fakeDataset) Example(i int) (*transforms.Tensor, int, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if i == f.failAt {
		return nil, 0, fmt.Errorf("broken sample %d", i)
	}
	h := 2
	if i == f.badSize {
		h = 3
	}
	t := transforms.NewTensor(3, h, 2)
	for j := range t.Data {
		t.Data[j] = float32(i)
	}
	return t, i % 2, nil
}

func drain(t *testing.T, dl *DataLoader) []*Batch {
	t.Helper()
	var batches []*Batch
	for {
		b, err := dl.Next()
		if errors.Is(err, io.EOF) {
			return batches
		}
		require.NoError(t, err)
		batches = append(batches, b)
	}
}

func TestDataLoaderSequential(t *testing.T) {
	dl, err := New("seq", newFake(10), Config{BatchSize: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, dl.Len())

	batches := drain(t, dl)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{4, 4, 2}, []int{batches[0].Size, batches[1].Size, batches[2].Size})
	assert.Equal(t, []int{8, 9}, batches[2].Indices)
	assert.Equal(t, []int32{0, 1}, batches[2].Labels)
	assert.Equal(t, float32(9), batches[2].Image(1).At(2, 1, 1))
	assert.Equal(t, 4*3*2*2*4, batches[0].Bytes())

	cur, total := dl.Progress()
	assert.Equal(t, 10, cur)
	assert.Equal(t, 10, total)

	_, err = dl.Next()
	assert.ErrorIs(t, err, io.EOF)

	dl.Reset()
	assert.Len(t, drain(t, dl), 3)
}

func TestDataLoaderShuffleCoversEverySample(t *testing.T) {
	dl, err := New("shuffled", newFake(25), Config{BatchSize: 6, Shuffle: true, Seed: 11, NumWorkers: 4})
	require.NoError(t, err)

	var first []int
	for epoch := range 2 {
		var seen []int
		for _, b := range drain(t, dl) {
			for i, idx := range b.Indices {
				assert.Equal(t, float32(idx), b.Image(i).Data[0], "sample data must follow its index")
				assert.Equal(t, int32(idx%2), b.Labels[i])
			}
			seen = append(seen, b.Indices...)
		}
		if epoch == 0 {
			first = append([]int(nil), seen...)
		} else {
			assert.NotEqual(t, first, seen, "reset should reshuffle")
		}
		sort.Ints(seen)
		want := make([]int, 25)
		for i := range want {
			want[i] = i
		}
		assert.Equal(t, want, seen)
		dl.Reset()
	}
}

func TestDataLoaderSeedIsReproducible(t *testing.T) {
	a, err := New("a", newFake(30), Config{BatchSize: 30, Shuffle: true, Seed: 5})
	require.NoError(t, err)
	b, err := New("b", newFake(30), Config{BatchSize: 30, Shuffle: true, Seed: 5})
	require.NoError(t, err)
	ba, err := a.Next()
	require.NoError(t, err)
	bb, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, ba.Indices, bb.Indices)
}

func TestDataLoaderErrors(t *testing.T) {
	_, err := New("nil", nil, Config{BatchSize: 1})
	assert.Error(t, err)
	_, err = New("zero", newFake(3), Config{BatchSize: 0})
	assert.Error(t, err)
	var typedNil *fakeDataset
	_, err = New("typed nil", typedNil, Config{BatchSize: 1})
	assert.Error(t, err)
	_, err = CreateDataloaders(2, newFake(2), typedNil, newFake(2))
	assert.Error(t, err)

	broken := newFake(6)
	broken.failAt = 4
	dl, err := New("broken", broken, Config{BatchSize: 3, NumWorkers: 2})
	require.NoError(t, err)
	_, err = dl.Next()
	require.NoError(t, err)
	_, err = dl.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken sample 4")
	cur, _ := dl.Progress()
	assert.Equal(t, 3, cur, "a failed batch must not advance the position")

	mixed := newFake(4)
	mixed.badSize = 2
	dl, err = New("mixed", mixed, Config{BatchSize: 4})
	require.NoError(t, err)
	_, err = dl.Next()
	assert.Error(t, err)
}

func TestDataLoaderYield(t *testing.T) {
	dl, err := New("yield", newFake(5), Config{BatchSize: 2})
	require.NoError(t, err)

	spec, inputs, labels, err := dl.Yield()
	require.NoError(t, err)
	assert.Same(t, dl, spec)
	require.Len(t, inputs, 1)
	require.Len(t, labels, 1)
	assert.Equal(t, []int{2, 3, 2, 2}, inputs[0].Shape().Dimensions)
	assert.Equal(t, []int{2}, labels[0].Shape().Dimensions)
	assert.Equal(t, []int32{0, 1}, labels[0].Value())

	_, _, _, err = dl.Yield()
	require.NoError(t, err)
	_, inputs, _, err = dl.Yield()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2, 2}, inputs[0].Shape().Dimensions)
	_, _, _, err = dl.Yield()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "yield", dl.Name())
}

func TestCreateDataloaders(t *testing.T) {
	loaders, err := CreateDataloaders(4, newFake(10), newFake(5), newFake(3), WithSeed(3), WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, loaders, 3)

	keys := make([]string, 0, len(loaders))
	for k := range loaders {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"test", "train", "val"}, keys)

	sizes := map[Split][]int{Train: {4, 4, 2}, Val: {4, 1}, Test: {3}}
	for split, want := range sizes {
		dl := loaders[split]
		assert.True(t, dl.Config().Shuffle, "%s should shuffle by default", split)
		var got []int
		for _, b := range drain(t, dl) {
			got = append(got, b.Size)
		}
		assert.Equal(t, want, got, split)
	}

	loaders, err = CreateDataloaders(2, newFake(4), newFake(4), newFake(4), WithTestShuffle(false))
	require.NoError(t, err)
	assert.False(t, loaders[Test].Config().Shuffle)
	assert.True(t, loaders[Train].Config().Shuffle)
	b, err := loaders[Test].Next()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, b.Indices)

	_, err = CreateDataloaders(0, newFake(1), newFake(1), newFake(1))
	assert.Error(t, err)
}

func TestDataLoaderConcurrentConsumers(t *testing.T) {
	ds := newFake(40)
	ds.delay = time.Millisecond
	dl, err := New("concurrent", ds, Config{BatchSize: 1, Shuffle: true, Seed: 2})
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen = map[int]int{}
		wg   sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				b, err := dl.Next()
				if errors.Is(err, io.EOF) {
					return
				}
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				for _, idx := range b.Indices {
					seen[idx]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, 40)
	for idx, n := range seen {
		assert.Equal(t, 1, n, "sample %d returned %d times", idx, n)
	}
	assert.Equal(t, int64(40), ds.calls.Load())
}
