package detection

import (
	"context"
	"image"
)

// CellLabel is the class the grid detector assigns to every cell.
const CellLabel = "Cell"

// Grid is a sub-detector for table views. It finds ruling lines by projecting
// the edge map onto both axes and reports the cells between them in
// row-major order.
//
// A table without horizontal rules falls back to text bands as rows; one
// without vertical rules is treated as a single column.
type Grid struct {
	// LineRatio is the share of the crop's width (or height) a row (or
	// column) of edge pixels must cover to count as a ruling line.
	LineRatio float64

	// MinCell drops rows and columns narrower than this many pixels.
	MinCell int
}

// NewGrid creates a grid detector with default thresholds.
func NewGrid(minCell int) *Grid {
	if minCell <= 0 {
		minCell = 8
	}
	return &Grid{LineRatio: 0.5, MinCell: minCell}
}

// Detect finds the table cells in img.
func (g *Grid) Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := detectEdges(img, width, height)

	rows := rowCounts(edges)
	cols := colCounts(edges, width)

	hRule := func(y int) bool { return float64(rows[y]) >= g.LineRatio*float64(width) }
	vRule := func(x int) bool { return float64(cols[x]) >= g.LineRatio*float64(height) }

	// cell spans run from lo up to, not including, hi
	rowSpans := between(runs(height, 0, hRule))
	if rowSpans == nil {
		// no ruling, use text bands
		ink := inkCounts(edges, vRule)
		rowSpans = exclusive(runs(height, 1, func(y int) bool { return ink[y] > 0 && !hRule(y) }))
	}

	colSpans := between(runs(width, 0, vRule))
	if colSpans == nil {
		colSpans = []span{{lo: 0, hi: width}}
	}

	var preds []Prediction
	for _, r := range rowSpans {
		if r.hi-r.lo < g.MinCell {
			continue
		}
		for _, c := range colSpans {
			if c.hi-c.lo < g.MinCell {
				continue
			}
			preds = append(preds, Prediction{
				Label:      CellLabel,
				Confidence: 1,
				Box: Box{
					X1: float64(c.lo),
					Y1: float64(r.lo),
					X2: float64(c.hi),
					Y2: float64(r.hi),
				},
			})
		}
	}

	return &Result{Predictions: cfg.Filter(preds)}, nil
}

// between turns ruling lines into the spans that separate them. Fewer than
// two lines give nil.
func between(lines []span) []span {
	if len(lines) < 2 {
		return nil
	}
	out := make([]span, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		out = append(out, span{lo: lines[i-1].mid(), hi: lines[i].mid()})
	}
	return out
}

// exclusive converts inclusive runs to spans that end one past their last
// index.
func exclusive(spans []span) []span {
	for i := range spans {
		spans[i].hi++
	}
	return spans
}
