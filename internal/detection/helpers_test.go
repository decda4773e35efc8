package detection

import (
	"image"
	"image/color"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fillRect paints [x1,x2) x [y1,y2) black
func fillRect(img *image.RGBA, x1, y1, x2, y2 int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.Set(x, y, color.Black)
		}
	}
}

// createTableImage draws a one-pixel ruled grid with horizontal rules at ys
// and vertical rules at xs
func createTableImage(width, height int, xs, ys []int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	left, right := xs[0], xs[len(xs)-1]
	top, bottom := ys[0], ys[len(ys)-1]

	for _, y := range ys {
		for x := left; x <= right; x++ {
			img.Set(x, y, color.Black)
		}
	}
	for _, x := range xs {
		for y := top; y <= bottom; y++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}
