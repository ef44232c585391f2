package transforms

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Tensor is a single image in CHW layout stored in a flat float32 buffer.
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// NewTensor allocates a zeroed tensor with the given dimensions.
func NewTensor(channels, height, width int) *Tensor {
	return &Tensor{
		Data:     make([]float32, channels*height*width),
		Channels: channels,
		Height:   height,
		Width:    width,
	}
}

// Shape returns [channels, height, width].
func (t *Tensor) Shape() []int {
	return []int{t.Channels, t.Height, t.Width}
}

// Len returns the number of values in the tensor.
func (t *Tensor) Len() int { return len(t.Data) }

// At returns the value at channel c, row y, column x.
func (t *Tensor) At(c, y, x int) float32 {
	return t.Data[c*t.Height*t.Width+y*t.Width+x]
}

// Channel returns the slice of Data holding channel c. It is not a copy.
func (t *Tensor) Channel(c int) []float32 {
	plane := t.Height * t.Width
	return t.Data[c*plane : (c+1)*plane]
}

// SameShape reports whether t and o have identical dimensions.
func (t *Tensor) SameShape(o *Tensor) bool {
	return t.Channels == o.Channels && t.Height == o.Height && t.Width == o.Width
}

// ToGomlx converts the tensor into a gomlx tensor shaped [C, H, W].
func (t *Tensor) ToGomlx() *tensors.Tensor {
	return tensors.FromFlatDataAndDimensions(t.Data, t.Channels, t.Height, t.Width)
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%d, %d, %d]", t.Channels, t.Height, t.Width)
}
