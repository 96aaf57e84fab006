package geometry

import "math"

type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	default:
		return "idle"
	}
}

type Handle int

const (
	HandleNone Handle = iota
	HandleNW
	HandleN
	HandleNE
	HandleE
	HandleSE
	HandleS
	HandleSW
	HandleW
)

func (h Handle) movesLeft() bool   { return h == HandleNW || h == HandleW || h == HandleSW }
func (h Handle) movesRight() bool  { return h == HandleNE || h == HandleE || h == HandleSE }
func (h Handle) movesTop() bool    { return h == HandleNW || h == HandleN || h == HandleNE }
func (h Handle) movesBottom() bool { return h == HandleSW || h == HandleS || h == HandleSE }

const DefaultTolerance = 10.0

type EditorOptions struct {
	Bounds  Size
	MinSize float64
	// Tolerance is the half-width of the band around a handle that still counts as a hit.
	Tolerance float64
	// AspectRatio locks width/height when > 0.
	AspectRatio float64
	// CornersOnly restricts hit-testing to the four corner handles.
	CornersOnly bool
}

// Editor tracks a crop rectangle through idle -> dragging|resizing -> idle pointer sessions.
type Editor struct {
	opts EditorOptions

	rect   Rect
	mode   Mode
	handle Handle

	start     Point
	startRect Rect
}

func NewEditor(initial Rect, opts EditorOptions) *Editor {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MinSize <= 0 {
		opts.MinSize = MinSizeFine
	}
	e := &Editor{opts: opts}
	e.rect = e.fit(Clamp(initial, opts.Bounds, opts.MinSize))
	return e
}

func (e *Editor) Rect() Rect           { return e.rect }
func (e *Editor) Mode() Mode           { return e.mode }
func (e *Editor) ActiveHandle() Handle { return e.handle }

// SetAspectRatio changes the lock and refits the current rect; 0 unlocks.
func (e *Editor) SetAspectRatio(ratio float64) {
	e.opts.AspectRatio = ratio
	e.rect = e.fit(e.rect)
}

// HitTest returns the handle under p. Corners take precedence over edges.
func (e *Editor) HitTest(p Point) Handle {
	r, tol := e.rect, e.opts.Tolerance

	near := func(a, b float64) bool { return math.Abs(a-b) <= tol }
	within := func(v, lo, hi float64) bool { return v >= lo-tol && v <= hi+tol }

	switch {
	case near(p.X, r.X) && near(p.Y, r.Y):
		return HandleNW
	case near(p.X, r.Right()) && near(p.Y, r.Y):
		return HandleNE
	case near(p.X, r.Right()) && near(p.Y, r.Bottom()):
		return HandleSE
	case near(p.X, r.X) && near(p.Y, r.Bottom()):
		return HandleSW
	}
	if e.opts.CornersOnly {
		return HandleNone
	}

	switch {
	case near(p.Y, r.Y) && within(p.X, r.X, r.Right()):
		return HandleN
	case near(p.X, r.Right()) && within(p.Y, r.Y, r.Bottom()):
		return HandleE
	case near(p.Y, r.Bottom()) && within(p.X, r.X, r.Right()):
		return HandleS
	case near(p.X, r.X) && within(p.Y, r.Y, r.Bottom()):
		return HandleW
	}
	return HandleNone
}

// PointerDown starts a drag when p is inside the rect and a resize when p hits a handle.
func (e *Editor) PointerDown(p Point) Mode {
	if h := e.HitTest(p); h != HandleNone {
		e.mode, e.handle = ModeResizing, h
	} else if e.rect.Contains(p) {
		e.mode, e.handle = ModeDragging, HandleNone
	} else {
		e.mode, e.handle = ModeIdle, HandleNone
		return e.mode
	}
	e.start = p
	e.startRect = e.rect
	return e.mode
}

func (e *Editor) PointerMove(p Point) Rect {
	dx, dy := p.X-e.start.X, p.Y-e.start.Y
	switch e.mode {
	case ModeDragging:
		e.rect = e.drag(dx, dy)
	case ModeResizing:
		e.rect = e.resize(dx, dy)
	}
	return e.rect
}

func (e *Editor) PointerUp() Rect {
	e.mode, e.handle = ModeIdle, HandleNone
	return e.rect
}

func (e *Editor) drag(dx, dy float64) Rect {
	r := e.startRect
	b := e.opts.Bounds
	r.X = clampFloat(r.X+dx, 0, b.Width-r.Width)
	r.Y = clampFloat(r.Y+dy, 0, b.Height-r.Height)
	return r
}

func (e *Editor) resize(dx, dy float64) Rect {
	sr, h, b, minSize := e.startRect, e.handle, e.opts.Bounds, e.opts.MinSize

	left, top, right, bottom := sr.X, sr.Y, sr.Right(), sr.Bottom()
	if h.movesLeft() {
		left = clampFloat(left+dx, 0, right-minSize)
	}
	if h.movesRight() {
		right = clampFloat(right+dx, left+minSize, b.Width)
	}
	if h.movesTop() {
		top = clampFloat(top+dy, 0, bottom-minSize)
	}
	if h.movesBottom() {
		bottom = clampFloat(bottom+dy, top+minSize, b.Height)
	}

	r := Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
	if e.opts.AspectRatio > 0 {
		r = e.lockAspect(r, sr)
	}
	return Clamp(r, b, minSize)
}

// lockAspect recomputes the dependent dimension, keeping the edges opposite the
// active handle pinned to their position in the rect the gesture started from.
func (e *Editor) lockAspect(r, start Rect) Rect {
	h, b, minSize, ratio := e.handle, e.opts.Bounds, e.opts.MinSize, e.opts.AspectRatio

	w, ht := r.Width, r.Height
	if h == HandleN || h == HandleS {
		w = ht * ratio
	} else {
		ht = w / ratio
	}
	if ht < minSize {
		ht = minSize
		w = ht * ratio
	}
	if w < minSize {
		w = minSize
		ht = w / ratio
	}

	availW := b.Width - start.X
	if h.movesLeft() {
		availW = start.Right()
	}
	availH := b.Height - start.Y
	if h.movesTop() {
		availH = start.Bottom()
	}
	if w > availW {
		w = availW
		ht = w / ratio
	}
	if ht > availH {
		ht = availH
		w = ht * ratio
	}

	out := Rect{X: start.X, Y: start.Y, Width: w, Height: ht}
	if h.movesLeft() {
		out.X = start.Right() - w
	}
	if h.movesTop() {
		out.Y = start.Bottom() - ht
	}
	return out
}

// fit applies the aspect lock to a rect outside of a gesture, anchored at its top-left.
func (e *Editor) fit(r Rect) Rect {
	if e.opts.AspectRatio <= 0 {
		return r
	}
	saved := e.handle
	e.handle = HandleSE
	out := e.lockAspect(r, Rect{X: r.X, Y: r.Y})
	e.handle = saved
	return Clamp(out, e.opts.Bounds, e.opts.MinSize)
}
