package datasets

import (
	"image"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
)

// This package builds the datasets used to train the skin lesion classifier.
//
// Two families are provided:
//
// IsicDataset
//   - Built from a ground-truth CSV: MakeDatapathList turns the image id
//     column into <data_dir>/<image_dir>/<id>.jpg paths, and LoadLabelTable
//     loads the label column once, keyed by image id.
//   - Labels are joined to paths by image id, never by row position, so a
//     reordered path list can not silently pick up the wrong labels.
//
// ImageFolderDataset
//   - Built from a directory with one subdirectory per class. The label of
//     an image is the index of its class directory in sorted order.
//   - MakeTrainset and MakeTestset configure it with the training and the
//     evaluation transform profiles.
//
// Both are lazy: only paths and labels are kept in memory, images are decoded
// and transformed on every Example call.

// Dataset is implemented by every dataset in this package and is what the
// loader package batches over.
type Dataset interface {
	Len() int
	Example(i int) (img *transforms.Tensor, label int, err error)
}

// Transformer turns a decoded image into a tensor for a given phase.
// *transforms.ImageTransform and transforms.Fixed implement it.
type Transformer interface {
	Apply(img image.Image, phase transforms.Phase) *transforms.Tensor
}

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrBadLabel        = errors.New("label is not numeric")
	ErrDuplicateID     = errors.New("duplicate image id")
	ErrLabelNotFound   = errors.New("no label for image id")
	ErrMissingImage    = errors.New("image file missing")
	ErrCorruptImage    = errors.New("image file can not be decoded")
	ErrNoImages        = errors.New("no images found")
	ErrIndexOutOfRange = errors.New("index out of range")
)
