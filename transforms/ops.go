package transforms

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Op transforms an image. Randomized ops draw from rng; deterministic ops
// ignore it. Ops are not safe for concurrent use with the same rng, Pipeline
// serializes them.
type Op func(img image.Image, rng *rand.Rand) image.Image

// Resample filter used by every resizing op. Bilinear matches the default of
// most training frameworks.
var resampleFilter = imaging.Linear

// Aspect ratio range sampled by RandomResizedCrop.
const (
	minCropRatio = 3.0 / 4.0
	maxCropRatio = 4.0 / 3.0
	cropAttempts = 10
	defaultFlipP = 0.5
)

// RandomResizedCrop crops a random region covering a fraction in
// [minScale, maxScale] of the image area, with an aspect ratio in [3/4, 4/3],
// and resizes it to size x size. After cropAttempts failed samples it falls
// back to a centered crop with the closest valid aspect ratio.
func RandomResizedCrop(size int, minScale, maxScale float64) Op {
	logMin, logMax := math.Log(minCropRatio), math.Log(maxCropRatio)
	return func(img image.Image, rng *rand.Rand) image.Image {
		b := img.Bounds()
		width, height := b.Dx(), b.Dy()
		area := float64(width * height)

		for range cropAttempts {
			target := area * (minScale + rng.Float64()*(maxScale-minScale))
			ratio := math.Exp(logMin + rng.Float64()*(logMax-logMin))
			w := int(math.Round(math.Sqrt(target * ratio)))
			h := int(math.Round(math.Sqrt(target / ratio)))
			if w <= 0 || h <= 0 || w > width || h > height {
				continue
			}
			x := rng.Intn(width - w + 1)
			y := rng.Intn(height - h + 1)
			crop := imaging.Crop(img, image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+h))
			return imaging.Resize(crop, size, size, resampleFilter)
		}

		w, h := width, height
		inRatio := float64(width) / float64(height)
		switch {
		case inRatio < minCropRatio:
			h = int(math.Round(float64(w) / minCropRatio))
		case inRatio > maxCropRatio:
			w = int(math.Round(float64(h) * maxCropRatio))
		}
		return imaging.Resize(imaging.CropCenter(img, w, h), size, size, resampleFilter)
	}
}

// Resize scales the image so that its shorter side equals size, keeping the
// aspect ratio.
func Resize(size int) Op {
	return func(img image.Image, _ *rand.Rand) image.Image {
		b := img.Bounds()
		if b.Dx() <= b.Dy() {
			return imaging.Resize(img, size, 0, resampleFilter)
		}
		return imaging.Resize(img, 0, size, resampleFilter)
	}
}

// CenterCrop cuts a size x size square out of the center of the image. Images
// smaller than size are padded with black.
func CenterCrop(size int) Op {
	return func(img image.Image, _ *rand.Rand) image.Image {
		b := img.Bounds()
		if b.Dx() >= size && b.Dy() >= size {
			return imaging.CropCenter(img, size, size)
		}
		bg := imaging.New(size, size, color.NRGBA{A: 255})
		return imaging.PasteCenter(bg, imaging.CropCenter(img, min(size, b.Dx()), min(size, b.Dy())))
	}
}

// RandomVerticalFlip flips the image upside down with probability p.
func RandomVerticalFlip(p float64) Op {
	return func(img image.Image, rng *rand.Rand) image.Image {
		if rng.Float64() < p {
			return imaging.FlipV(img)
		}
		return img
	}
}

// ToTensor converts an image into a CHW tensor with RGB values in [0, 1].
// Alpha is dropped.
func ToTensor(img image.Image) *Tensor {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()
	t := NewTensor(3, h, w)
	plane := w * h
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			idx := y*w + x
			t.Data[idx] = float32(row[x*4]) / 255
			t.Data[plane+idx] = float32(row[x*4+1]) / 255
			t.Data[2*plane+idx] = float32(row[x*4+2]) / 255
		}
	}
	return t
}

// Normalize applies (v - mean[c]) / std[c] in place to every channel of t.
func Normalize(t *Tensor, mean, std [3]float32) {
	for c := 0; c < t.Channels && c < 3; c++ {
		ch := t.Channel(c)
		m, s := mean[c], std[c]
		for i, v := range ch {
			ch[i] = (v - m) / s
		}
	}
}
