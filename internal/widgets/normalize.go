package widgets

import (
	"image"
	"math"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// Normalize maps a raw detector box from the detector's input resolution
// back onto the pixel grid of bounds.
//
// The input is assumed to be a letterboxed copy of the source: scaled by
// gain = min(in.W/W, in.H/H) and centered with equal padding. The padding is
// removed, the gain divided out, the result clamped to the image and rounded
// to whole pixels. A zero input size, or one equal to the source size, means
// the box is already in source pixels and is only clamped and rounded.
//
// Raw boxes are relative to the image's top-left corner; the result is in
// the coordinates of bounds.
func Normalize(raw detection.Box, input image.Point, bounds image.Rectangle) image.Rectangle {
	if input.X > 0 && input.Y > 0 && (input.X != bounds.Dx() || input.Y != bounds.Dy()) {
		w, h := float64(bounds.Dx()), float64(bounds.Dy())
		gain := math.Min(float64(input.X)/w, float64(input.Y)/h)
		return NormalizeLetterboxed(raw, imaging.LetterboxInfo{
			Gain:   gain,
			PadX:   (float64(input.X) - w*gain) / 2,
			PadY:   (float64(input.Y) - h*gain) / 2,
			Width:  input.X,
			Height: input.Y,
		}, bounds)
	}
	return clampBox(raw.X1, raw.Y1, raw.X2, raw.Y2, bounds)
}

// NormalizeLetterboxed maps raw back through the letterbox transform lb
// reported by the detector. A zero gain means raw is in source pixels.
func NormalizeLetterboxed(raw detection.Box, lb imaging.LetterboxInfo, bounds image.Rectangle) image.Rectangle {
	if lb.Gain <= 0 {
		return clampBox(raw.X1, raw.Y1, raw.X2, raw.Y2, bounds)
	}
	x1, y1 := lb.Unmap(raw.X1, raw.Y1)
	x2, y2 := lb.Unmap(raw.X2, raw.Y2)
	return clampBox(x1, y1, x2, y2, bounds)
}

func clampBox(x1, y1, x2, y2 float64, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return image.Rect(
		int(math.Round(clamp(x1, 0, w)))+bounds.Min.X,
		int(math.Round(clamp(y1, 0, h)))+bounds.Min.Y,
		int(math.Round(clamp(x2, 0, w)))+bounds.Min.X,
		int(math.Round(clamp(y2, 0, h)))+bounds.Min.Y,
	)
}

// NormalizeResult normalizes every prediction of res once, keeping the
// detector's order.
func NormalizeResult(res *detection.Result, bounds image.Rectangle) []Region {
	if res == nil {
		return nil
	}

	input := image.Pt(res.InputWidth, res.InputHeight)
	regions := make([]Region, len(res.Predictions))
	for i, p := range res.Predictions {
		box := Normalize(p.Box, input, bounds)
		if res.Letterbox != nil {
			box = NormalizeLetterboxed(p.Box, *res.Letterbox, bounds)
		}
		regions[i] = Region{
			Label:      p.Label,
			Confidence: p.Confidence,
			Box:        box,
		}
	}
	return regions
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
