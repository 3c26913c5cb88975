package ocr

import (
	"image"

	"golang.org/x/image/draw"
)

// Region is a pixel rectangle within a frame.
type Region struct {
	Left, Top, Width, Height int
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// CropRegion rescales a region expressed in a reference resolution
// (targetW x targetH) to a video of videoW x videoH and clamps it inside the
// frame. A zero reference resolution leaves the region unscaled.
func CropRegion(videoW, videoH int, r Region, targetW, targetH int) Region {
	if videoW <= 0 || videoH <= 0 {
		return r
	}
	sx, sy := 1.0, 1.0
	if targetW > 0 && targetH > 0 {
		sx = float64(videoW) / float64(targetW)
		sy = float64(videoH) / float64(targetH)
	}
	left := roundInt(float64(r.Left) * sx)
	top := roundInt(float64(r.Top) * sy)
	width := roundInt(float64(r.Width) * sx)
	height := roundInt(float64(r.Height) * sy)

	left = clamp(left, 0, videoW-1)
	top = clamp(top, 0, videoH-1)
	width = clamp(width, 1, videoW-left)
	height = clamp(height, 1, videoH-top)
	return Region{Left: left, Top: top, Width: width, Height: height}
}

// Crop returns the part of img inside r, in its own coordinate space.
func Crop(img image.Image, r Region) image.Image {
	rect := r.Rect().Add(img.Bounds().Min).Intersect(img.Bounds())
	dst := image.NewGray(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}

// Grayscale converts img to 8-bit luminance.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Scale resizes img by factor with bilinear interpolation. Factors of 0 or 1
// return the input unchanged.
func Scale(img *image.Gray, factor float64) *image.Gray {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, roundInt(float64(b.Dx())*factor))
	h := max(1, roundInt(float64(b.Dy())*factor))
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Threshold maps pixels strictly above level to white and everything else to
// black.
func Threshold(img *image.Gray, level uint8) *image.Gray {
	dst := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		if v > level {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// Equalize spreads the luminance histogram across the full range, which helps
// thresholding HUD text on bright or dark backgrounds.
func Equalize(img *image.Gray) *image.Gray {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}
	total := len(img.Pix)
	cdfMin := 0
	for _, c := range hist {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	dst := image.NewGray(img.Bounds())
	if total == cdfMin {
		copy(dst.Pix, img.Pix)
		return dst
	}
	var lut [256]uint8
	cum := 0
	for i, c := range hist {
		cum += c
		if cum >= cdfMin {
			lut[i] = uint8(roundInt(float64(cum-cdfMin) / float64(total-cdfMin) * 255))
		}
	}
	for i, v := range img.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}

// Preprocess prepares a HUD crop for OCR: grayscale, optional upscale, then a
// binary threshold.
func Preprocess(img image.Image, scale float64, threshold int) *image.Gray {
	return Threshold(Scale(Grayscale(img), scale), uint8(clamp(threshold, 0, 255)))
}

// PreprocessTimer prepares a timer crop: grayscale, histogram equalization and
// a fixed bright-text threshold.
func PreprocessTimer(img image.Image) *image.Gray {
	return Threshold(Equalize(Grayscale(img)), 200)
}

func roundInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
