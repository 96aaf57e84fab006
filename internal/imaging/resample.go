package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// ScreenDPI is the pixel density frames are assumed to be rendered at.
const ScreenDPI = 96

// MaxDimension bounds the longest side produced by upscaling.
const MaxDimension = 8192

// Resize scales img to exactly w x h using Catmull-Rom resampling.
func Resize(img image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// UpscaleForPrint enlarges img by dpi/ScreenDPI. Factors <= 1 return img unchanged.
// The result is capped so its longest side does not exceed MaxDimension.
func UpscaleForPrint(img image.Image, dpi int) image.Image {
	factor := float64(dpi) / ScreenDPI
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	longest := math.Max(float64(b.Dx()), float64(b.Dy()))
	if longest*factor > MaxDimension {
		factor = MaxDimension / longest
	}
	if factor <= 1 {
		return img
	}
	return Resize(img, int(math.Round(float64(b.Dx())*factor)), int(math.Round(float64(b.Dy())*factor)))
}
