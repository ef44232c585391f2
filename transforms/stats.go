package transforms

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats accumulates per-channel mean and standard deviation over many
// tensors. Feed it unnormalized tensors (ToTensor output) to derive the
// Mean/Std of a Config from a dataset.
//
// Each tensor contributes its per-channel mean and variance (computed with
// gonum), which are then pooled weighted by pixel count.
type ChannelStats struct {
	count  [3]float64
	sum    [3]float64 // sum of n*mean
	sumSq  [3]float64 // sum of n*(var + mean^2)
	images int
}

// Add accumulates t. The tensor must have 3 channels.
func (s *ChannelStats) Add(t *Tensor) error {
	if t.Channels != 3 {
		return errors.Errorf("channel stats need 3 channels, got %d", t.Channels)
	}
	for c := range 3 {
		ch := t.Channel(c)
		if len(ch) == 0 {
			continue
		}
		values := make([]float64, len(ch))
		for i, v := range ch {
			values[i] = float64(v)
		}
		mean, variance := stat.PopMeanVariance(values, nil)
		n := float64(len(values))
		s.count[c] += n
		s.sum[c] += n * mean
		s.sumSq[c] += n * (variance + mean*mean)
	}
	s.images++
	return nil
}

// Images returns how many tensors were added.
func (s *ChannelStats) Images() int { return s.images }

// Mean returns the per-channel mean of every value added so far.
func (s *ChannelStats) Mean() [3]float32 {
	var out [3]float32
	for c := range 3 {
		if s.count[c] > 0 {
			out[c] = float32(s.sum[c] / s.count[c])
		}
	}
	return out
}

// Std returns the per-channel population standard deviation.
func (s *ChannelStats) Std() [3]float32 {
	var out [3]float32
	for c := range 3 {
		if s.count[c] == 0 {
			continue
		}
		mean := s.sum[c] / s.count[c]
		variance := s.sumSq[c]/s.count[c] - mean*mean
		out[c] = float32(math.Sqrt(math.Max(variance, 0)))
	}
	return out
}

// Config returns a Config of the given size using the accumulated statistics.
func (s *ChannelStats) Config(size int) Config {
	return Config{Size: size, Mean: s.Mean(), Std: s.Std()}
}
