package datasets

import (
	"image/color"
	"math/rand"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// folderFixture writes two class folders: benign with 3 images (one of them
// nested and one with an upper case extension) and malignant with 2.
func folderFixture(t *testing.T, fsys afero.Fs, root string) {
	t.Helper()
	red := color.RGBA{R: 200, A: 255}
	blue := color.RGBA{B: 200, A: 255}
	writeJPEG(t, fsys, filepath.Join(root, "benign", "a.jpg"), 20, 16, red)
	writeJPEG(t, fsys, filepath.Join(root, "benign", "b.JPG"), 16, 20, red)
	writeJPEG(t, fsys, filepath.Join(root, "benign", "nested", "c.jpeg"), 18, 18, red)
	writeJPEG(t, fsys, filepath.Join(root, "malignant", "d.jpg"), 30, 12, blue)
	writeJPEG(t, fsys, filepath.Join(root, "malignant", "e.jpg"), 12, 30, blue)
	if err := afero.WriteFile(fsys, filepath.Join(root, "malignant", "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("failed to write notes: %v", err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(root, "README"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("failed to write readme: %v", err)
	}
}

func TestMakeTrainset_TwoClasses(t *testing.T) {
	fsys := afero.NewMemMapFs()
	folderFixture(t, fsys, "skin/train")

	cfg := transforms.DefaultConfig()
	cfg.Size = 16
	ds, err := MakeTrainset(fsys, "skin/train", cfg, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("MakeTrainset failed: %v", err)
	}
	if ds.Len() != 5 {
		t.Fatalf("expected 5 images, got %d", ds.Len())
	}
	if !reflect.DeepEqual(ds.ClassNames(), []string{"benign", "malignant"}) {
		t.Fatalf("unexpected classes %v", ds.ClassNames())
	}

	distinct := make(map[int]bool)
	for _, l := range ds.Labels() {
		distinct[l] = true
	}
	if len(distinct) != 2 {
		t.Fatalf("expected 2 distinct labels, got %v", distinct)
	}

	for i := range ds.Len() {
		img, label, err := ds.Example(i)
		if err != nil {
			t.Fatalf("Example(%d) failed: %v", i, err)
		}
		if !reflect.DeepEqual(img.Shape(), []int{3, 16, 16}) {
			t.Fatalf("Example(%d) shape %v", i, img.Shape())
		}
		path, l, _ := ds.GetItem(i)
		if l != label {
			t.Fatalf("GetItem and Example disagree at %d", i)
		}
		wantClass := ds.ClassNames()[label]
		if !strings.Contains(path, string(filepath.Separator)+wantClass+string(filepath.Separator)) {
			t.Fatalf("path %s not under class %s", path, wantClass)
		}
	}

	dist := ds.ClassDistribution()
	if dist["benign"] != 3 || dist["malignant"] != 2 {
		t.Fatalf("unexpected distribution %v", dist)
	}
	if !strings.Contains(ds.String(), "benign: 3 samples") {
		t.Fatalf("String() missing distribution: %s", ds.String())
	}
}

func TestMakeTestset_Deterministic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	folderFixture(t, fsys, "skin/val")

	cfg := transforms.DefaultConfig()
	cfg.Size = 12
	ds, err := MakeTestset(fsys, "skin/val", cfg)
	if err != nil {
		t.Fatalf("MakeTestset failed: %v", err)
	}
	a, _, err := ds.Example(3)
	if err != nil {
		t.Fatalf("Example failed: %v", err)
	}
	b, _, _ := ds.Example(3)
	if !reflect.DeepEqual(a.Data, b.Data) {
		t.Fatalf("evaluation profile should be deterministic")
	}

	cfg.Size = 0
	if _, err := MakeTestset(fsys, "skin/val", cfg); err == nil {
		t.Fatalf("expected error for invalid config")
	}
}

func TestImageFolderDataset_Empty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll("empty/benign", 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := NewImageFolderDataset(fsys, "empty", nil, testTransform(t, 8), transforms.PhaseVal)
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if _, err := NewImageFolderDataset(fsys, "missing", nil, testTransform(t, 8), transforms.PhaseVal); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestImageFolderDataset_EmptyClass(t *testing.T) {
	fsys := afero.NewMemMapFs()
	folderFixture(t, fsys, "lesions")
	if err := fsys.MkdirAll("lesions/keratosis/nested", 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := NewImageFolderDataset(fsys, "lesions", nil, testTransform(t, 8), transforms.PhaseVal)
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages for an empty class, got %v", err)
	}
	if !strings.Contains(err.Error(), "keratosis") {
		t.Fatalf("error does not name the empty class: %v", err)
	}
}

func TestImageFolderDataset_SplitSubsetFilter(t *testing.T) {
	fsys := afero.NewMemMapFs()
	folderFixture(t, fsys, "all")

	ds, err := NewImageFolderDataset(fsys, "all", []string{".jpg"}, testTransform(t, 8), transforms.PhaseTrain)
	if err != nil {
		t.Fatalf("NewImageFolderDataset failed: %v", err)
	}
	// only lower and upper case .jpg: a.jpg, b.JPG, d.jpg, e.jpg
	if ds.Len() != 4 {
		t.Fatalf("expected 4 images with .jpg filter, got %d", ds.Len())
	}

	train, val := ds.Split(0.5, rand.New(rand.NewSource(1)))
	if train.Len() != 2 || val.Len() != 2 {
		t.Fatalf("unexpected split sizes %d/%d", train.Len(), val.Len())
	}
	seen := make(map[string]bool)
	for _, part := range []*ImageFolderDataset{train, val} {
		for i := range part.Len() {
			p, _, _ := part.GetItem(i)
			if seen[p] {
				t.Fatalf("%s in both halves", p)
			}
			seen[p] = true
		}
	}

	sub := ds.Subset([]int{3, 0})
	if p, _, _ := sub.GetItem(1); !strings.HasSuffix(p, "a.jpg") {
		t.Fatalf("unexpected subset order, got %s", p)
	}

	mal := ds.FilterByClass([]string{"malignant", "unknown"})
	if mal.Len() != 2 {
		t.Fatalf("expected 2 malignant images, got %d", mal.Len())
	}
	if idx, ok := mal.ClassIndex("malignant"); !ok || idx != 1 {
		t.Fatalf("ClassIndex(malignant) = %d, %v", idx, ok)
	}

	eval := val.WithTransform(testTransform(t, 8), transforms.PhaseVal)
	if eval.Phase != transforms.PhaseVal || eval.Len() != val.Len() {
		t.Fatalf("WithTransform changed the samples")
	}
}
