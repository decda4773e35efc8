package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// Preprocess describes the image clean-up applied before recognition.
//
// Widget crops are small and often low contrast; Tesseract does noticeably
// better on text that is at least ~20px tall and on a flat background.
type Preprocess struct {
	// Scale upsamples the crop by this factor when greater than 1.
	Scale float64 `yaml:"scale"`

	// Grayscale drops color before recognition.
	Grayscale bool `yaml:"grayscale"`

	// Contrast adjusts contrast in the range -1..1. Zero leaves it as is.
	Contrast float64 `yaml:"contrast"`
}

// Enabled reports whether any step would change the image.
func (p Preprocess) Enabled() bool {
	return p.Scale > 1 || p.Grayscale || p.Contrast != 0
}

// Apply runs the configured steps in order: scale, grayscale, contrast.
func (p Preprocess) Apply(img image.Image) image.Image {
	out := img

	if p.Scale > 1 {
		b := out.Bounds()
		w := int(float64(b.Dx())*p.Scale + 0.5)
		h := int(float64(b.Dy())*p.Scale + 0.5)
		out = transform.Resize(out, w, h, transform.Linear)
	}

	if p.Grayscale {
		out = effect.Grayscale(out)
	}

	if p.Contrast != 0 {
		out = adjust.Contrast(out, p.Contrast)
	}

	return out
}

// ApplyBytes decodes data, applies the steps and re-encodes the result as PNG.
// When nothing is enabled data is returned unchanged.
func (p Preprocess) ApplyBytes(data []byte) ([]byte, error) {
	if !p.Enabled() {
		return data, nil
	}

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	return imaging.Encode(p.Apply(img), imaging.FormatPNG)
}
