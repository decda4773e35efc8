package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// LetterboxFill is the padding color detectors in this family are trained on.
var LetterboxFill = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// LetterboxInfo records how a source image was mapped into a square model
// input, so boxes can be mapped back afterwards.
type LetterboxInfo struct {
	// Gain is the uniform scale factor applied to the source image.
	Gain float64 `json:"gain"`

	// PadX and PadY are the offsets of the scaled image inside the input,
	// in input pixels.
	PadX float64 `json:"pad_x"`
	PadY float64 `json:"pad_y"`

	// Width and Height are the input dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Letterbox resizes img to fit inside a size x size canvas while keeping its
// aspect ratio, centering it on a gray background.
func Letterbox(img image.Image, size int) (*image.NRGBA, LetterboxInfo) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	gain := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * gain))
	nh := int(math.Round(float64(h) * gain))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	canvas := imaging.New(size, size, LetterboxFill)

	// odd borders put the extra pixel below and to the right
	at := image.Pt((size-nw)/2, (size-nh)/2)
	canvas = imaging.Paste(canvas, resized, at)

	return canvas, LetterboxInfo{
		Gain:   gain,
		PadX:   float64(at.X),
		PadY:   float64(at.Y),
		Width:  size,
		Height: size,
	}
}

// Unmap maps a point of the letterboxed input back to source pixels.
func (l LetterboxInfo) Unmap(x, y float64) (float64, float64) {
	return (x - l.PadX) / l.Gain, (y - l.PadY) / l.Gain
}
