package datasets

import (
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// MissingPolicy decides what happens to a sample whose image file does not
// exist.
type MissingPolicy int

const (
	// MissingError fails Example with an error wrapping ErrMissingImage.
	MissingError MissingPolicy = iota
	// MissingSkip drops samples without a file when the dataset is built.
	MissingSkip
	// MissingPlaceholder substitutes a black image, run through the same
	// transform, so the sample keeps its label and shape.
	MissingPlaceholder
)

func (p MissingPolicy) String() string {
	switch p {
	case MissingError:
		return "error"
	case MissingSkip:
		return "skip"
	case MissingPlaceholder:
		return "placeholder"
	}
	return "unknown"
}

// ParseMissingPolicy parses "error", "skip" or "placeholder". The empty
// string means MissingError.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error", "fail":
		return MissingError, nil
	case "skip":
		return MissingSkip, nil
	case "placeholder", "black":
		return MissingPlaceholder, nil
	}
	return MissingError, errors.Errorf("unknown missing-file policy %q", s)
}

// placeholderImage is used by MissingPlaceholder. A single black pixel is
// enough, every transform profile resizes it to the output size.
var placeholderImage image.Image = imaging.New(1, 1, color.NRGBA{A: 255})

// loadImage opens and decodes the image at path, honoring EXIF orientation.
// A missing file yields an error wrapping both ErrMissingImage and
// os.ErrNotExist; with MissingPlaceholder it yields placeholderImage instead.
func loadImage(fsys afero.Fs, path string, policy MissingPolicy) (image.Image, error) {
	file, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if policy == MissingPlaceholder {
				log.Debug().Str("path", path).Msg("image missing, using placeholder")
				return placeholderImage, nil
			}
			return nil, &missingImageError{path: path, err: err}
		}
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptImage, "%s: %v", path, err)
	}
	return img, nil
}

// missingImageError matches both ErrMissingImage and the underlying
// filesystem error with errors.Is.
type missingImageError struct {
	path string
	err  error
}

func (e *missingImageError) Error() string {
	return ErrMissingImage.Error() + ": " + e.path
}

func (e *missingImageError) Is(target error) bool { return target == ErrMissingImage }

func (e *missingImageError) Unwrap() error { return e.err }

// existingPaths splits paths into those that exist on fsys and those that
// do not, keeping order.
func existingPaths(fsys afero.Fs, paths []string) (kept []int, missing []string, err error) {
	kept = make([]int, 0, len(paths))
	for i, p := range paths {
		ok, err := afero.Exists(fsys, p)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to stat %s", p)
		}
		if ok {
			kept = append(kept, i)
		} else {
			missing = append(missing, p)
		}
	}
	return kept, missing, nil
}
