package geometry

import (
	"image"
	"math"
)

// Calibration is the measured offset between the pointer's coordinate origin and the
// top-left corner of the rendered image box (borders, padding, letterboxing).
// It is subtracted from display coordinates before scaling.
type Calibration struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

func (c Calibration) Apply(r Rect) Rect {
	r.X -= c.OffsetX
	r.Y -= c.OffsetY
	return r
}

// Scale holds independent x/y factors from display space to source space.
type Scale struct {
	X float64
	Y float64
}

func ScaleBetween(display, source Size) (Scale, error) {
	if !display.Valid() || !source.Valid() {
		return Scale{}, ErrInvalidSize
	}
	return Scale{
		X: source.Width / display.Width,
		Y: source.Height / display.Height,
	}, nil
}

// ToSource converts a display-space rect into source-image pixel coordinates.
// The result is clipped to the source bounds.
func ToSource(r Rect, display, source Size) (image.Rectangle, error) {
	s, err := ScaleBetween(display, source)
	if err != nil {
		return image.Rectangle{}, err
	}

	rect := image.Rect(
		int(math.Round(r.X*s.X)),
		int(math.Round(r.Y*s.Y)),
		int(math.Round(r.Right()*s.X)),
		int(math.Round(r.Bottom()*s.Y)),
	)
	bounds := image.Rect(0, 0, int(math.Round(source.Width)), int(math.Round(source.Height)))
	return rect.Intersect(bounds), nil
}

// ToDisplay is the inverse of ToSource. Rounding in source space bounds the
// round-trip error by half a source pixel expressed in display pixels.
func ToDisplay(r image.Rectangle, display, source Size) (Rect, error) {
	s, err := ScaleBetween(display, source)
	if err != nil {
		return Rect{}, err
	}
	return Rect{
		X:      float64(r.Min.X) / s.X,
		Y:      float64(r.Min.Y) / s.Y,
		Width:  float64(r.Dx()) / s.X,
		Height: float64(r.Dy()) / s.Y,
	}, nil
}
