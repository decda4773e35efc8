package detection

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
)

// LabelFile replays detections stored in YOLO label format, one line per
// box:
//
//	<class> <cx> <cy> <w> <h> [confidence]
//
// Coordinates are normalized to [0,1] against the screenshot size. This is
// what detector runs write next to their images, so a stored run can be fed
// through the pipeline without the model.
type LabelFile struct {
	Path  string
	Names []string
}

// NewLabelFile creates a detector that reads path and resolves class indices
// through names.
func NewLabelFile(path string, names []string) *LabelFile {
	return &LabelFile{Path: path, Names: names}
}

// Detect reads the label file and returns its boxes in the pixel grid of img,
// in file order.
func (d *LabelFile) Detect(ctx context.Context, img image.Image, cfg Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels: %w", err)
	}
	defer f.Close()

	b := img.Bounds()
	preds, err := ParseLabels(f, d.Names, b.Dx(), b.Dy())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Path, err)
	}

	return &Result{Predictions: cfg.Filter(preds)}, nil
}

// ParseLabels decodes YOLO label lines into pixel-space predictions for an
// image of width x height. Blank lines and lines starting with '#' are
// skipped. A missing confidence column means 1.
func ParseLabels(r io.Reader, names []string, width, height int) ([]Prediction, error) {
	var preds []Prediction

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 5 && len(fields) != 6 {
			return nil, fmt.Errorf("line %d: expected 5 or 6 fields, got %d", line, len(fields))
		}

		cls, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid class index %q", line, fields[0])
		}
		if cls < 0 || cls >= len(names) {
			return nil, fmt.Errorf("line %d: class index %d out of range (%d classes)", line, cls, len(names))
		}

		vals := make([]float64, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", line, f)
			}
			vals[i] = v
		}

		conf := 1.0
		if len(vals) == 5 {
			conf = vals[4]
		}

		cx, cy := vals[0]*float64(width), vals[1]*float64(height)
		w, h := vals[2]*float64(width), vals[3]*float64(height)

		preds = append(preds, Prediction{
			Label:      names[cls],
			Confidence: conf,
			Box: Box{
				X1: cx - w/2,
				Y1: cy - h/2,
				X2: cx + w/2,
				Y2: cy + h/2,
			},
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}

	return preds, nil
}

// FormatLabel renders one box in YOLO label format, normalized to an image of
// width x height. It is the inverse of ParseLabels.
func FormatLabel(classIndex int, cx, cy, w, h float64, width, height int) string {
	return fmt.Sprintf("%d %g %g %g %g", classIndex,
		cx/float64(width), cy/float64(height), w/float64(width), h/float64(height))
}
