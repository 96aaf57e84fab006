package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/andreasstove999/screenmerch-go/internal/imaging"
)

const maxThumbnailBytes = 10 << 20

// DefaultRenderTimeout bounds one shared server render, independent of the callers waiting on it.
const DefaultRenderTimeout = 60 * time.Second

// FrameGrabber extracts a single encoded frame from a video at a timestamp.
type FrameGrabber interface {
	Grab(ctx context.Context, videoURL string, timestamp float64) ([]byte, error)
}

// FFmpegGrabber runs the ffmpeg binary and reads one MJPEG frame from its stdout.
type FFmpegGrabber struct {
	Path string
}

func (g FFmpegGrabber) Grab(ctx context.Context, videoURL string, timestamp float64) ([]byte, error) {
	if err := ValidateMediaURL(videoURL); err != nil {
		return nil, fmt.Errorf("%w: video_url: %w", ErrInvalidRequest, err)
	}
	path := g.Path
	if path == "" {
		path = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, path, ffmpegArgs(videoURL, timestamp)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no frame")
	}
	return stdout.Bytes(), nil
}

// ffmpegArgs limits ffmpeg to network protocols so a url can never name a local file.
func ffmpegArgs(videoURL string, timestamp float64) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-protocol_whitelist", "http,https,tcp,tls",
		"-ss", strconv.FormatFloat(timestamp, 'f', 3, 64),
		"-i", videoURL,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	}
}

// Service renders screenshots on the server. Identical concurrent requests share one render;
// the render runs under its own timeout and each caller stops waiting when its context ends.
type Service struct {
	grabber       FrameGrabber
	http          *http.Client
	printDPI      int
	renderTimeout time.Duration
	logger        *zap.Logger

	sfg singleflight.Group
}

func NewService(grabber FrameGrabber, httpClient *http.Client, printDPI int, logger *zap.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if printDPI <= 0 {
		printDPI = DefaultPrintDPI
	}
	return &Service{
		grabber:       grabber,
		http:          httpClient,
		printDPI:      printDPI,
		renderTimeout: DefaultRenderTimeout,
		logger:        logger,
	}
}

// WithRenderTimeout replaces the bound on a shared render. Non-positive values are ignored.
func (s *Service) WithRenderTimeout(d time.Duration) *Service {
	if d > 0 {
		s.renderTimeout = d
	}
	return s
}

func (s *Service) Capture(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	quality := req.EffectiveQuality()
	if quality == QualityThumbnail {
		return s.Thumbnail(ctx, req.ThumbnailURL)
	}
	if quality == QualityFast {
		return Result{}, fmt.Errorf("%w: fast captures are taken by the client", ErrInvalidRequest)
	}

	dpi := 0
	if quality == QualityPrint {
		dpi = req.PrintDPI
		if dpi <= 0 {
			dpi = s.printDPI
		}
	}

	key := fmt.Sprintf("%s|%.3f|%s|%d", req.VideoURL, req.Timestamp, quality, dpi)
	// the first caller's cancellation must not fail the others sharing the render
	renderCtx := context.WithoutCancel(ctx)
	ch := s.sfg.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(renderCtx, s.renderTimeout)
		defer cancel()
		return s.render(rctx, req, quality, dpi)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Result{}, fmt.Errorf("%w: %w", ErrCaptureFailed, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		s.logger.Warn("server capture failed",
			zap.String("video_url", req.VideoURL),
			zap.Float64("timestamp", req.Timestamp),
			zap.String("quality", string(quality)),
			zap.Error(res.Err),
		)
		return Result{}, res.Err
	}
	if res.Shared {
		s.logger.Debug("server capture shared", zap.String("key", key))
	}
	return res.Val.(Result), nil
}

func (s *Service) render(ctx context.Context, req Request, quality Quality, dpi int) (Result, error) {
	raw, err := s.grabber.Grab(ctx, req.VideoURL, req.Timestamp)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	res := Result{Quality: quality, Timestamp: req.Timestamp, CapturedAt: time.Now().UTC()}

	if quality != QualityPrint {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
		if err != nil {
			return Result{}, fmt.Errorf("%w: decode frame: %v", ErrCaptureFailed, err)
		}
		res.Image = imaging.DataURL(imaging.MimeJPEG, raw)
		res.Width, res.Height = cfg.Width, cfg.Height
		return res, nil
	}

	frame, err := imaging.Decode(raw)
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode frame: %v", ErrCaptureFailed, err)
	}
	up := imaging.UpscaleForPrint(frame, dpi)
	res.Image, err = imaging.PNGDataURL(up)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	res.Width, res.Height = up.Bounds().Dx(), up.Bounds().Dy()
	return res, nil
}

// Thumbnail downloads a static preview image and returns it as a data url.
func (s *Service) Thumbnail(ctx context.Context, url string) (Result, error) {
	if url == "" {
		return Result{}, fmt.Errorf("%w: thumbnail_url is required", ErrInvalidRequest)
	}
	if err := ValidateMediaURL(url); err != nil {
		return Result{}, fmt.Errorf("%w: thumbnail_url: %w", ErrInvalidRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: thumbnail status %d", ErrCaptureFailed, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode thumbnail: %v", ErrCaptureFailed, err)
	}
	return Result{
		Image:      imaging.DataURL("image/"+format, raw),
		Quality:    QualityThumbnail,
		Width:      cfg.Width,
		Height:     cfg.Height,
		CapturedAt: time.Now().UTC(),
	}, nil
}
