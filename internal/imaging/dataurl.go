package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"

	DefaultJPEGQuality = 92
)

var (
	ErrInvalidDataURL = errors.New("imaging: invalid data url")
	ErrImageTooLarge  = errors.New("imaging: image dimensions too large")
)

// DecodeDataURL parses a base64 "data:image/...;base64," url and decodes the image.
// The returned string is the declared mime type.
func DecodeDataURL(s string) (image.Image, string, error) {
	raw, mime, err := DataURLBytes(s)
	if err != nil {
		return nil, "", err
	}
	img, err := Decode(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidDataURL, err)
	}
	return img, mime, nil
}

// Decode decodes raw after checking the declared size from its header, so a small payload
// cannot claim a canvas larger than MaxDimension on either side.
func Decode(raw []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DataURLBytes returns the decoded payload and mime type of a base64 data url.
func DataURLBytes(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	return raw, mime, nil
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func DataURL(mime string, raw []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// JPEGDataURL encodes img as a JPEG data url.
func JPEGDataURL(img image.Image, quality int) (string, error) {
	raw, err := EncodeJPEG(img, quality)
	if err != nil {
		return "", err
	}
	return DataURL(MimeJPEG, raw), nil
}

// PNGDataURL encodes img as a lossless PNG data url.
func PNGDataURL(img image.Image) (string, error) {
	raw, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return DataURL(MimePNG, raw), nil
}
