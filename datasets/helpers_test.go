package datasets

import (
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Noofbiz/lesionset/transforms"
	"github.com/spf13/afero"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, fsys afero.Fs, path, header string, rows []string) {
	t.Helper()
	content := header + "\n" + strings.Join(rows, "\n") + "\n"
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv %s: %v", path, err)
	}
}

// writeJPEG writes a w x h JPEG filled with c to path.
func writeJPEG(t *testing.T, fsys afero.Fs, path string, w, h int, c color.Color) {
	t.Helper()
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

// testTransform returns an ImageTransform producing size x size tensors.
func testTransform(t *testing.T, size int) *transforms.ImageTransform {
	t.Helper()
	cfg := transforms.DefaultConfig()
	cfg.Size = size
	it, err := transforms.NewImageTransform(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewImageTransform failed: %v", err)
	}
	return it
}

// isicFixture writes a ground-truth CSV and one JPEG per row under data/.
// The label column holds floats, as in the ISIC ground-truth files.
func isicFixture(t *testing.T, fsys afero.Fs) {
	t.Helper()
	writeCSV(t, fsys, "data/truth.csv", "image_id,melanoma,seborrheic_keratosis", []string{
		"ISIC_0000000,0.0,0.0",
		"ISIC_0000001,1.0,0.0",
		"ISIC_0000002,0.0,1.0",
		"ISIC_0000003,1.0,0.0",
		"ISIC_0000004,0.0,0.0",
	})
	for i := range 5 {
		path := filepath.Join("data", "images", "ISIC_000000"+string(rune('0'+i))+".jpg")
		writeJPEG(t, fsys, path, 24+i, 20, color.RGBA{R: uint8(40 * i), G: 100, B: 150, A: 255})
	}
}
