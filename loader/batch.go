package loader

import (
	"github.com/Noofbiz/lesionset/transforms"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch stores a batch of images in one contiguous NCHW buffer.
type Batch struct {
	Data     []float32
	Labels   []int32
	Indices  []int
	Size     int
	Channels int
	Height   int
	Width    int
}

// newBatch flattens images into a Batch. Every image must have the same
// shape.
func newBatch(indices []int, images []*transforms.Tensor, labels []int) (*Batch, error) {
	if len(images) != len(labels) {
		return nil, errors.Errorf("images and labels batch sizes don't match: %d != %d", len(images), len(labels))
	}
	b := &Batch{
		Indices: indices,
		Size:    len(images),
		Labels:  make([]int32, len(labels)),
	}
	if len(images) == 0 {
		return b, nil
	}

	first := images[0]
	b.Channels, b.Height, b.Width = first.Channels, first.Height, first.Width
	per := first.Len()
	b.Data = make([]float32, len(images)*per)
	for i, img := range images {
		if !img.SameShape(first) {
			return nil, errors.Errorf("inconsistent image shapes in batch: sample %d is %v, sample %d is %v",
				indices[0], first.Shape(), indices[i], img.Shape())
		}
		copy(b.Data[i*per:], img.Data)
		b.Labels[i] = int32(labels[i])
	}
	return b, nil
}

// Image returns sample i of the batch as a tensor sharing the batch buffer.
func (b *Batch) Image(i int) *transforms.Tensor {
	per := b.Channels * b.Height * b.Width
	return &transforms.Tensor{
		Data:     b.Data[i*per : (i+1)*per],
		Channels: b.Channels,
		Height:   b.Height,
		Width:    b.Width,
	}
}

// Bytes returns the memory held by the image buffer.
func (b *Batch) Bytes() int {
	return 4 * len(b.Data)
}

// Tensors converts the batch to gomlx tensors: images [N, C, H, W] float32
// and labels [N] int32.
func (b *Batch) Tensors() (images *tensors.Tensor, labels *tensors.Tensor) {
	images = tensors.FromFlatDataAndDimensions(b.Data, b.Size, b.Channels, b.Height, b.Width)
	labels = tensors.FromFlatDataAndDimensions(b.Labels, b.Size)
	return images, labels
}
