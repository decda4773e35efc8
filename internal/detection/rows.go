package detection

import (
	"context"
	"image"
	"math"
)

// TreeItemLabel is the class the row detector assigns to every row.
const TreeItemLabel = "TreeItem"

// Rows is a sub-detector for tree views. Each horizontal band of ink becomes
// one item, boxed from its leftmost to its rightmost edge pixel, so the left
// edge of a box tracks the item's indentation.
type Rows struct {
	// MinRow drops bands shorter than this many pixels.
	MinRow int
}

// NewRows creates a row detector.
func NewRows(minRow int) *Rows {
	if minRow <= 0 {
		minRow = 4
	}
	return &Rows{MinRow: minRow}
}

// Detect finds the item rows in img, top to bottom.
func (r *Rows) Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := detectEdges(img, width, height)

	rows := rowCounts(edges)
	cols := colCounts(edges, width)

	// frame and separator lines are not items
	hRule := func(y int) bool { return float64(rows[y]) >= 0.9*float64(width-2) }
	vRule := func(x int) bool { return float64(cols[x]) >= 0.9*float64(height-2) }

	ink := inkCounts(edges, vRule)
	bands := runs(height, 1, func(y int) bool { return ink[y] > 0 && !hRule(y) })

	var preds []Prediction
	for _, band := range bands {
		if band.hi-band.lo+1 < r.MinRow {
			continue
		}

		x1, x2 := -1, -1
		for x := 0; x < width; x++ {
			if vRule(x) {
				continue
			}
			for y := band.lo; y <= band.hi; y++ {
				if edges[y][x] {
					if x1 < 0 {
						x1 = x
					}
					x2 = x
					break
				}
			}
		}
		if x1 < 0 {
			continue
		}

		score := calculateHorizontalScore(edges, x1, band.lo, x2-x1+1, band.hi-band.lo+1)
		preds = append(preds, Prediction{
			Label:      TreeItemLabel,
			Confidence: math.Round(score*1000) / 1000,
			Box: Box{
				X1: float64(x1),
				Y1: float64(band.lo),
				X2: float64(x2 + 1),
				Y2: float64(band.hi + 1),
			},
		})
	}

	return &Result{Predictions: cfg.Filter(preds)}, nil
}
