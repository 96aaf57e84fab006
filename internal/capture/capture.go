package capture

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

type Quality string

const (
	QualityFast      Quality = "fast"
	QualityPrint     Quality = "print"
	QualityStandard  Quality = "standard"
	QualityThumbnail Quality = "thumbnail"
)

func (q Quality) Valid() bool {
	switch q {
	case QualityFast, QualityPrint, QualityStandard, QualityThumbnail:
		return true
	}
	return false
}

// HaveCurrentData is the minimum media ready state at which a frame can be read.
const HaveCurrentData = 2

// DefaultPrintDPI is used when a print capture does not name a density.
const DefaultPrintDPI = 300

var (
	ErrNotReady           = errors.New("capture: media not ready")
	ErrInvalidRequest     = errors.New("capture: invalid request")
	ErrCaptureFailed      = errors.New("capture: capture failed")
	ErrCaptureUnavailable = errors.New("capture: no screenshot could be captured")
)

// Request asks for a frame of VideoURL at Timestamp seconds. A positive PrintDPI selects a
// print-quality render; otherwise Quality decides.
type Request struct {
	VideoURL     string  `json:"video_url"`
	Timestamp    float64 `json:"timestamp"`
	PrintDPI     int     `json:"print_dpi,omitempty"`
	Quality      Quality `json:"quality,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

func (r Request) Validate() error {
	if r.EffectiveQuality() == QualityThumbnail {
		if r.ThumbnailURL == "" {
			return errors.Join(ErrInvalidRequest, errors.New("thumbnail_url is required"))
		}
	} else if r.VideoURL == "" {
		return errors.Join(ErrInvalidRequest, errors.New("video_url is required"))
	}
	if err := r.ValidateSources(); err != nil {
		return err
	}
	if r.Timestamp < 0 {
		return errors.Join(ErrInvalidRequest, errors.New("timestamp must not be negative"))
	}
	if r.PrintDPI < 0 {
		return errors.Join(ErrInvalidRequest, errors.New("print_dpi must not be negative"))
	}
	if r.Quality != "" && !r.Quality.Valid() {
		return errors.Join(ErrInvalidRequest, errors.New("unknown quality "+string(r.Quality)))
	}
	return nil
}

// ValidateSources checks the media urls that are set. Both are fetched by the server, so
// only remote http(s) locations are accepted.
func (r Request) ValidateSources() error {
	if r.VideoURL != "" {
		if err := ValidateMediaURL(r.VideoURL); err != nil {
			return errors.Join(ErrInvalidRequest, fmt.Errorf("video_url: %w", err))
		}
	}
	if r.ThumbnailURL != "" {
		if err := ValidateMediaURL(r.ThumbnailURL); err != nil {
			return errors.Join(ErrInvalidRequest, fmt.Errorf("thumbnail_url: %w", err))
		}
	}
	return nil
}

// ValidateMediaURL accepts absolute http and https urls with a host. Link-local, multicast
// and unspecified ip literals are refused; they only ever reach instance metadata or the
// server itself.
func ValidateMediaURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("scheme %q is not allowed", u.Scheme)
	}
	if u.Host == "" || u.User != nil {
		return errors.New("a host without credentials is required")
	}
	if ip, err := netip.ParseAddr(u.Hostname()); err == nil {
		if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("host %s is not allowed", ip)
		}
	}
	return nil
}

// EffectiveQuality resolves the quality a request asks for.
func (r Request) EffectiveQuality() Quality {
	if r.PrintDPI > 0 {
		return QualityPrint
	}
	if r.Quality == "" {
		return QualityStandard
	}
	return r.Quality
}

type Result struct {
	Image      string    `json:"screenshot"`
	Quality    Quality   `json:"quality"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Timestamp  float64   `json:"timestamp"`
	CapturedAt time.Time `json:"captured_at"`
}

// Capturer renders a frame on the server side, in process or over HTTP.
type Capturer interface {
	Capture(ctx context.Context, req Request) (Result, error)
}
