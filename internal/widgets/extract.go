package widgets

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// Recognizer is the OCR collaborator. It returns text fragments in reading
// order; no text is an empty slice, not an error.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) ([]string, error)
}

// TextExtractor is the plain-OCR strategy.
type TextExtractor struct {
	Recognizer Recognizer
	Format     imaging.Format
	Timeout    time.Duration
}

// Extract crops box out of img, encodes the crop and recognizes it. The
// fragments are concatenated in order without separators.
//
// A box with nothing left after clamping returns ErrEmptyRegion. Recognizer
// failures, including the timeout, are returned as *OCRError.
func (x *TextExtractor) Extract(ctx context.Context, img image.Image, box image.Rectangle) (string, error) {
	crop, err := imaging.CropRegion(img, box)
	if err != nil {
		return "", err
	}

	data, err := imaging.Encode(crop, x.Format)
	if err != nil {
		return "", &OCRError{Err: err}
	}

	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}

	fragments, err := x.Recognizer.Recognize(ctx, data)
	if err != nil {
		return "", &OCRError{Err: err}
	}

	return strings.Join(fragments, ""), nil
}
