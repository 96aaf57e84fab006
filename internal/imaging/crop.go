package imaging

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/andreasstove999/screenmerch-go/internal/geometry"
)

var ErrInvalidCrop = errors.New("imaging: invalid crop")

// Crop cuts the display-space rect r out of src. The rect is shifted by cal, clamped to the
// display box, scaled to source pixels and copied with a single blit into a new image.
// It returns the cropped image and the source rectangle that was copied.
func Crop(src image.Image, r geometry.Rect, display geometry.Size, cal geometry.Calibration) (out image.Image, srcRect image.Rectangle, err error) {
	if src == nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: no source image", ErrInvalidCrop)
	}
	defer func() {
		if p := recover(); p != nil {
			out, srcRect, err = nil, image.Rectangle{}, fmt.Errorf("%w: %v", ErrInvalidCrop, p)
		}
	}()

	b := src.Bounds()
	source := geometry.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
	if !display.Valid() || !source.Valid() {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %v", ErrInvalidCrop, geometry.ErrInvalidSize)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return nil, image.Rectangle{}, fmt.Errorf("%w: empty crop area", ErrInvalidCrop)
	}

	area := geometry.Clamp(cal.Apply(r), display, 1)
	rel, err := geometry.ToSource(area, display, source)
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("%w: %v", ErrInvalidCrop, err)
	}
	if rel.Empty() {
		return nil, image.Rectangle{}, fmt.Errorf("%w: crop area maps to no source pixels", ErrInvalidCrop)
	}

	srcRect = rel.Add(b.Min)
	dst := image.NewRGBA(image.Rect(0, 0, srcRect.Dx(), srcRect.Dy()))
	draw.Copy(dst, image.Point{}, src, srcRect, draw.Src, nil)
	return dst, rel, nil
}

// CropDataURL decodes a data url, crops it and re-encodes the result. PNG input stays PNG;
// anything else is written as JPEG.
func CropDataURL(dataURL string, r geometry.Rect, display geometry.Size, cal geometry.Calibration) (string, image.Rectangle, error) {
	img, mime, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", image.Rectangle{}, err
	}
	cropped, srcRect, err := Crop(img, r, display, cal)
	if err != nil {
		return "", image.Rectangle{}, err
	}

	var out string
	if mime == MimePNG {
		out, err = PNGDataURL(cropped)
	} else {
		out, err = JPEGDataURL(cropped, DefaultJPEGQuality)
	}
	if err != nil {
		return "", image.Rectangle{}, fmt.Errorf("%w: %v", ErrInvalidCrop, err)
	}
	return out, srcRect, nil
}
