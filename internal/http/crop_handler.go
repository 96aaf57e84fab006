package httpapi

import (
	"fmt"
	"net/http"

	"github.com/andreasstove999/screenmerch-go/internal/geometry"
	"github.com/andreasstove999/screenmerch-go/internal/imaging"
)

const (
	gestureDown = "down"
	gestureMove = "move"
	gestureUp   = "up"
)

// Gesture is one pointer event in display coordinates.
type Gesture struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type cropRequest struct {
	Image         string               `json:"image"`
	DisplayWidth  float64              `json:"display_width"`
	DisplayHeight float64              `json:"display_height"`
	CropArea      *geometry.Rect       `json:"crop_area"`
	Gestures      []Gesture            `json:"gestures"`
	AspectRatio   float64              `json:"aspect_ratio"`
	MinSize       float64              `json:"min_size"`
	CornersOnly   bool                 `json:"corners_only"`
	Calibration   geometry.Calibration `json:"calibration"`
}

type sourceRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type cropResponse struct {
	Success    bool          `json:"success"`
	Image      string        `json:"image"`
	CropArea   geometry.Rect `json:"crop_area"`
	SourceRect sourceRect    `json:"source_rect"`
}

// Crop replays the pointer gestures through the crop editor and cuts the final area out of the image.
func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	var req cropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Image == "" {
		writeError(w, r, http.StatusBadRequest, "image is required")
		return
	}
	display := geometry.Size{Width: req.DisplayWidth, Height: req.DisplayHeight}
	if !display.Valid() {
		writeError(w, r, http.StatusBadRequest, "display_width and display_height must be positive")
		return
	}
	if req.AspectRatio < 0 || req.MinSize < 0 {
		writeError(w, r, http.StatusBadRequest, "aspect_ratio and min_size must not be negative")
		return
	}

	area, err := replayGestures(req, display)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	out, src, err := imaging.CropDataURL(req.Image, area, display, req.Calibration)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cropResponse{
		Success:  true,
		Image:    out,
		CropArea: area,
		SourceRect: sourceRect{
			X:      src.Min.X,
			Y:      src.Min.Y,
			Width:  src.Dx(),
			Height: src.Dy(),
		},
	})
}

func replayGestures(req cropRequest, display geometry.Size) (geometry.Rect, error) {
	initial := geometry.Centered(display, req.AspectRatio)
	if req.CropArea != nil {
		initial = *req.CropArea
	}

	e := geometry.NewEditor(initial, geometry.EditorOptions{
		Bounds:      display,
		MinSize:     req.MinSize,
		AspectRatio: req.AspectRatio,
		CornersOnly: req.CornersOnly,
	})

	for i, g := range req.Gestures {
		p := geometry.Point{X: g.X, Y: g.Y}
		switch g.Type {
		case gestureDown:
			e.PointerDown(p)
		case gestureMove:
			e.PointerMove(p)
		case gestureUp:
			e.PointerUp()
		default:
			return geometry.Rect{}, fmt.Errorf("gesture %d: unknown type %q", i, g.Type)
		}
	}
	return e.PointerUp(), nil
}
