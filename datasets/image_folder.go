package datasets

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultImageExtensions are the file extensions NewImageFolderDataset picks
// up when none are given.
var DefaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// ImageFolderDataset represents a dataset loaded from a directory structure
// where each subdirectory represents a class.
type ImageFolderDataset struct {
	Root  string
	Phase transforms.Phase

	fs         afero.Fs
	transform  Transformer
	imagePaths []string
	labels     []int
	classNames []string
	classToIdx map[string]int
}

var _ Dataset = (*ImageFolderDataset)(nil)

// NewImageFolderDataset scans root. Classes are the subdirectories of root in
// sorted order; images are searched recursively inside each class directory
// and matched by extension, ignoring case. A class directory without any
// image is an error.
func NewImageFolderDataset(fsys afero.Fs, root string, extensions []string,
	transform Transformer, phase transforms.Phase) (*ImageFolderDataset, error) {

	if transform == nil {
		return nil, errors.New("image folder dataset needs a transform")
	}
	if len(extensions) == 0 {
		extensions = DefaultImageExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list classes in %s", root)
	}

	dataset := &ImageFolderDataset{
		Root:       root,
		Phase:      phase,
		fs:         fsys,
		transform:  transform,
		classToIdx: make(map[string]int),
	}

	var empty []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		className := entry.Name()
		classIdx := len(dataset.classNames)
		dataset.classNames = append(dataset.classNames, className)
		dataset.classToIdx[className] = classIdx

		classDir := filepath.Join(root, className)
		before := len(dataset.imagePaths)
		err := afero.Walk(fsys, classDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !allowed[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			dataset.imagePaths = append(dataset.imagePaths, path)
			dataset.labels = append(dataset.labels, classIdx)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan class %s", className)
		}
		if len(dataset.imagePaths) == before {
			empty = append(empty, className)
		}
	}

	if len(dataset.imagePaths) == 0 {
		return nil, errors.Wrapf(ErrNoImages, "in %s", root)
	}
	if len(empty) > 0 {
		return nil, errors.Wrapf(ErrNoImages, "for classes %v in %s", empty, root)
	}

	return dataset, nil
}

// Len returns the number of items in the dataset
func (d *ImageFolderDataset) Len() int {
	return len(d.imagePaths)
}

// Example loads and transforms the image at index.
func (d *ImageFolderDataset) Example(index int) (*transforms.Tensor, int, error) {
	path, label, err := d.GetItem(index)
	if err != nil {
		return nil, 0, err
	}
	img, err := loadImage(d.fs, path, MissingError)
	if err != nil {
		return nil, 0, err
	}
	return d.transform.Apply(img, d.Phase), label, nil
}

// GetItem returns the image path and label at the given index
func (d *ImageFolderDataset) GetItem(index int) (string, int, error) {
	if index < 0 || index >= len(d.imagePaths) {
		return "", 0, errors.Wrapf(ErrIndexOutOfRange, "index %d out of range [0, %d)", index, len(d.imagePaths))
	}
	return d.imagePaths[index], d.labels[index], nil
}

// NumClasses returns the number of classes
func (d *ImageFolderDataset) NumClasses() int {
	return len(d.classNames)
}

// ClassNames returns the list of class names
func (d *ImageFolderDataset) ClassNames() []string {
	return d.classNames
}

// ClassIndex returns the label used for className.
func (d *ImageFolderDataset) ClassIndex(className string) (int, bool) {
	idx, ok := d.classToIdx[className]
	return idx, ok
}

// Labels returns the label of every sample, in dataset order.
func (d *ImageFolderDataset) Labels() []int {
	return d.labels
}

// ClassDistribution returns the distribution of samples per class
func (d *ImageFolderDataset) ClassDistribution() map[string]int {
	dist := make(map[string]int)
	for _, label := range d.labels {
		dist[d.classNames[label]]++
	}
	return dist
}

// derive returns a dataset sharing everything but the samples.
func (d *ImageFolderDataset) derive(indices []int) *ImageFolderDataset {
	sub := &ImageFolderDataset{
		Root:       d.Root,
		Phase:      d.Phase,
		fs:         d.fs,
		transform:  d.transform,
		imagePaths: make([]string, len(indices)),
		labels:     make([]int, len(indices)),
		classNames: d.classNames,
		classToIdx: d.classToIdx,
	}
	for i, idx := range indices {
		sub.imagePaths[i] = d.imagePaths[idx]
		sub.labels[i] = d.labels[idx]
	}
	return sub
}

// Split splits the dataset into two parts, the first holding trainRatio of
// the samples. With a non nil rng the samples are shuffled first.
func (d *ImageFolderDataset) Split(trainRatio float64, rng *rand.Rand) (*ImageFolderDataset, *ImageFolderDataset) {
	n := len(d.imagePaths)
	trainSize := int(float64(n) * trainRatio)
	trainSize = max(0, min(n, trainSize))

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	return d.derive(indices[:trainSize]), d.derive(indices[trainSize:])
}

// Subset creates a subset of the dataset with the specified indices
func (d *ImageFolderDataset) Subset(indices []int) *ImageFolderDataset {
	return d.derive(indices)
}

// WithTransform returns a copy of the dataset that uses another transform
// and phase, e.g. the evaluation profile for the validation half of a Split.
func (d *ImageFolderDataset) WithTransform(transform Transformer, phase transforms.Phase) *ImageFolderDataset {
	indices := make([]int, len(d.imagePaths))
	for i := range indices {
		indices[i] = i
	}
	sub := d.derive(indices)
	sub.transform = transform
	sub.Phase = phase
	return sub
}

// FilterByClass creates a new dataset containing only samples from specified classes
func (d *ImageFolderDataset) FilterByClass(classNames []string) *ImageFolderDataset {
	valid := make(map[int]bool)
	for _, className := range classNames {
		if idx, ok := d.classToIdx[className]; ok {
			valid[idx] = true
		}
	}

	var indices []int
	for i, label := range d.labels {
		if valid[label] {
			indices = append(indices, i)
		}
	}
	return d.derive(indices)
}

// String returns a string representation of the dataset
func (d *ImageFolderDataset) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ImageFolderDataset(%s): %d samples, %d classes\n", d.Root, len(d.imagePaths), len(d.classNames))
	sb.WriteString("Class distribution:\n")

	dist := d.ClassDistribution()
	for _, className := range d.classNames {
		fmt.Fprintf(&sb, "  %s: %d samples\n", className, dist[className])
	}
	return sb.String()
}
