package capture

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/andreasstove999/screenmerch-go/internal/geometry"
	"github.com/andreasstove999/screenmerch-go/internal/imaging"
)

// FrameSource is a playing media element.
type FrameSource interface {
	ReadyState() int
	// RenderedSize is the on-screen box the media is drawn into.
	RenderedSize() geometry.Size
	CurrentFrame() (image.Image, error)
	CurrentTime() float64
}

// FastCapture snapshots the current frame at the rendered size and encodes it as a JPEG data url.
// It returns (nil, nil) when the source is not ready so the caller can fall back to a server capture.
func FastCapture(src FrameSource, jpegQuality int) (*Result, error) {
	if src == nil || src.ReadyState() < HaveCurrentData {
		return nil, nil
	}

	frame, err := src.CurrentFrame()
	if err != nil {
		return nil, fmt.Errorf("%w: read frame: %v", ErrCaptureFailed, err)
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, nil
	}

	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	if box := src.RenderedSize(); box.Valid() {
		w, h = int(math.Round(box.Width)), int(math.Round(box.Height))
	}
	scaled := imaging.Resize(frame, w, h)

	img, err := imaging.JPEGDataURL(scaled, jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return &Result{
		Image:      img,
		Quality:    QualityFast,
		Width:      w,
		Height:     h,
		Timestamp:  src.CurrentTime(),
		CapturedAt: time.Now().UTC(),
	}, nil
}

// UploadedFrame is a frame posted by a client together with the state of its media element.
type UploadedFrame struct {
	Frame   string        `json:"frame"`
	Display geometry.Size `json:"display"`
	State   int           `json:"ready_state"`
	Time    float64       `json:"current_time"`
}

func (f UploadedFrame) ReadyState() int {
	if f.Frame == "" {
		return 0
	}
	return f.State
}

func (f UploadedFrame) RenderedSize() geometry.Size { return f.Display }
func (f UploadedFrame) CurrentTime() float64        { return f.Time }

func (f UploadedFrame) CurrentFrame() (image.Image, error) {
	img, _, err := imaging.DecodeDataURL(f.Frame)
	return img, err
}
