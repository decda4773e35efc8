package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrEmptyRegion is returned when a region has no pixels left after it has
// been clamped to the image bounds.
var ErrEmptyRegion = errors.New("region has zero area")

// Format selects the encoding used when a crop is handed to another tool.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat maps a user-supplied encoding name to a Format.
// An empty string selects PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", s)
	}
}

// ClampRegion intersects r with the image bounds.
//
// Regions that extend past the image are trimmed rather than rejected.
// A region that is inverted or lies completely outside the image returns
// ErrEmptyRegion.
func ClampRegion(img image.Image, r image.Rectangle) (image.Rectangle, error) {
	clamped := r.Intersect(img.Bounds())
	if clamped.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)",
			ErrEmptyRegion, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	}
	return clamped, nil
}

// CropRegion cuts r out of img after clamping it to the image bounds.
//
// The returned image always has its origin at (0,0), so any coordinates a
// downstream consumer computes on it are local to the crop.
func CropRegion(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	clamped, err := ClampRegion(img, r)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, clamped), nil
}

// Encode serializes img in the requested format.
func Encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95))
	default:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// CropResult contains the cropped image data
type CropResult struct {
	X1          int    `json:"x1"`
	Y1          int    `json:"y1"`
	X2          int    `json:"x2"`
	Y2          int    `json:"y2"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a rectangular region from an image and returns it as a
// base64 PNG. The region is clamped to the image; the clamped corners are
// reported back so callers can see what was actually cut.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	r, err := ClampRegion(img, image.Rect(x1, y1, x2, y2))
	if err != nil {
		return nil, err
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	data, err := Encode(cropped, FormatPNG)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		X1:          r.Min.X,
		Y1:          r.Min.Y,
		X2:          r.Max.X,
		Y2:          r.Max.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}
