package detection

import (
	"image"
	"math"
)

// span is a run of indices along one axis. Spans from runs include hi.
type span struct {
	lo, hi int
}

func (s span) mid() int { return (s.lo + s.hi) / 2 }

// detectEdges performs simple gradient-based edge detection.
//
// Pixels where |current - neighbor| > 30 (in grayscale) against the right or
// lower neighbor are marked as edges. Border pixels are never edges.
func detectEdges(img image.Image, width, height int) [][]bool {
	bounds := img.Bounds()
	edges := make([][]bool, height)
	threshold := 30.0

	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				continue
			}

			c := grayValue(img, x+bounds.Min.X, y+bounds.Min.Y)
			cx := grayValue(img, x+1+bounds.Min.X, y+bounds.Min.Y)
			cy := grayValue(img, x+bounds.Min.X, y+1+bounds.Min.Y)

			dx := math.Abs(float64(c) - float64(cx))
			dy := math.Abs(float64(c) - float64(cy))

			if dx > threshold || dy > threshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}

// grayValue converts a pixel to grayscale using ITU-R BT.601 luminance weights.
func grayValue(img image.Image, x, y int) uint8 {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8((float64(r>>8)*0.299 + float64(g>>8)*0.587 + float64(b>>8)*0.114))
}

// rowCounts returns the number of edge pixels in each row.
func rowCounts(edges [][]bool) []int {
	counts := make([]int, len(edges))
	for y, row := range edges {
		for _, e := range row {
			if e {
				counts[y]++
			}
		}
	}
	return counts
}

// inkCounts returns the number of edge pixels in each row, skipping the
// columns for which skip reports true.
func inkCounts(edges [][]bool, skip func(int) bool) []int {
	counts := make([]int, len(edges))
	for y, row := range edges {
		for x, e := range row {
			if e && !skip(x) {
				counts[y]++
			}
		}
	}
	return counts
}

// colCounts returns the number of edge pixels in each column.
func colCounts(edges [][]bool, width int) []int {
	counts := make([]int, width)
	for _, row := range edges {
		for x, e := range row {
			if e {
				counts[x]++
			}
		}
	}
	return counts
}

// runs groups the indices in [0,n) for which keep reports true into spans.
// Runs separated by at most gap rejected indices are merged.
func runs(n, gap int, keep func(int) bool) []span {
	var out []span
	for i := 0; i < n; i++ {
		if !keep(i) {
			continue
		}
		if len(out) > 0 && i-out[len(out)-1].hi-1 <= gap {
			out[len(out)-1].hi = i
			continue
		}
		out = append(out, span{lo: i, hi: i})
	}
	return out
}

// calculateHorizontalScore reports how "horizontal" the edge distribution in
// the window is: the share of horizontal edge runs among all runs.
func calculateHorizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}
