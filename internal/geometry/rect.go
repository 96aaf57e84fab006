package geometry

import (
	"errors"
	"math"
)

// Minimum crop sizes used by the two crop tool variants.
const (
	MinSizeFine   = 20.0
	MinSizeCoarse = 50.0
)

var ErrInvalidSize = errors.New("geometry: width and height must be positive")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Rect is a crop area in display pixel space, relative to the rendered media element.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Clamp keeps r inside bounds: x+width <= bounds.Width, y+height <= bounds.Height, origin >= 0,
// and width/height >= minSize. A minimum larger than the bounds is reduced to the bounds.
func Clamp(r Rect, bounds Size, minSize float64) Rect {
	minW := math.Min(minSize, bounds.Width)
	minH := math.Min(minSize, bounds.Height)

	r.Width = clampFloat(r.Width, minW, bounds.Width)
	r.Height = clampFloat(r.Height, minH, bounds.Height)
	r.X = clampFloat(r.X, 0, bounds.Width-r.Width)
	r.Y = clampFloat(r.Y, 0, bounds.Height-r.Height)
	return r
}

// Centered returns the largest rect with the given aspect ratio (width/height) centered in bounds.
// A zero ratio yields the full bounds.
func Centered(bounds Size, ratio float64) Rect {
	if ratio <= 0 {
		return Rect{Width: bounds.Width, Height: bounds.Height}
	}
	w, h := bounds.Width, bounds.Width/ratio
	if h > bounds.Height {
		h = bounds.Height
		w = h * ratio
	}
	return Rect{
		X:      (bounds.Width - w) / 2,
		Y:      (bounds.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
