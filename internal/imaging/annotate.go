package imaging

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation is one labeled box to draw on a screenshot.
type Annotation struct {
	Box        image.Rectangle
	Label      string
	ClassIndex int
}

// AnnotateResult contains the annotated screenshot as a base64 PNG.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ClassColor returns a stable color for a class index. Hues are spread with
// the golden angle so neighbouring indices stay distinguishable.
func ClassColor(index int) colorful.Color {
	if index < 0 {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	hue := math.Mod(float64(index)*137.508, 360)
	return colorful.Hsv(hue, 0.75, 0.95).Clamped()
}

// Palette returns the first n class colors as "#rrggbb" strings.
func Palette(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = ClassColor(i).Hex()
	}
	return out
}

// Annotate draws each annotation as a colored outline with its label on a
// filled tab above the box (or inside it when the box touches the top edge).
func Annotate(img image.Image, anns []Annotation, thickness int) *image.RGBA {
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, a := range anns {
		box := a.Box.Intersect(bounds)
		if box.Empty() {
			continue
		}
		c := ClassColor(a.ClassIndex)
		drawOutline(out, box, c, thickness)
		if a.Label != "" {
			drawLabel(out, box, a.Label, c)
		}
	}

	return out
}

// AnnotatePNG annotates img and returns it encoded for transport.
func AnnotatePNG(img image.Image, anns []Annotation, thickness int) (*AnnotateResult, error) {
	out := Annotate(img, anns, thickness)
	data, err := Encode(out, FormatPNG)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	return &AnnotateResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		Boxes:       len(anns),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

func drawOutline(dst *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	for t := 0; t < thickness; t++ {
		inner := r.Inset(t)
		if inner.Empty() {
			return
		}
		edges := []image.Rectangle{
			image.Rect(inner.Min.X, inner.Min.Y, inner.Max.X, inner.Min.Y+1),
			image.Rect(inner.Min.X, inner.Max.Y-1, inner.Max.X, inner.Max.Y),
			image.Rect(inner.Min.X, inner.Min.Y, inner.Min.X+1, inner.Max.Y),
			image.Rect(inner.Max.X-1, inner.Min.Y, inner.Max.X, inner.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(dst, e, src, image.Point{}, draw.Src)
		}
	}
}

func drawLabel(dst *image.RGBA, box image.Rectangle, text string, bg color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil() + 4
	height := face.Height + 2

	top := box.Min.Y - height
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	tab := image.Rect(box.Min.X, top, box.Min.X+width, top+height).Intersect(dst.Bounds())
	draw.Draw(dst, tab, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(box.Min.X+2, top+face.Ascent+1),
	}
	d.DrawString(text)
}
