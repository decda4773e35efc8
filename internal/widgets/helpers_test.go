package widgets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

var errOCRDown = errors.New("ocr quota exceeded")

// sizeRecognizer answers by the pixel size of the crop it is given, which
// keeps fakes deterministic when regions are extracted concurrently.
type sizeRecognizer struct {
	texts map[string][]string
	fail  map[string]bool
	delay map[string]time.Duration
	calls atomic.Int32
}

func (r *sizeRecognizer) Recognize(ctx context.Context, data []byte) ([]string, error) {
	r.calls.Add(1)

	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy())

	if d := r.delay[key]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.fail[key] {
		return nil, errOCRDown
	}
	return r.texts[key], nil
}

// recognizerFunc adapts a function to Recognizer.
type recognizerFunc func(ctx context.Context, data []byte) ([]string, error)

func (f recognizerFunc) Recognize(ctx context.Context, data []byte) ([]string, error) {
	return f(ctx, data)
}

// staticDetector always reports the same predictions and counts its calls.
type staticDetector struct {
	result *detection.Result
	err    error
	calls  atomic.Int32
}

func (d *staticDetector) Detect(ctx context.Context, img image.Image, cfg detection.Config) (*detection.Result, error) {
	d.calls.Add(1)
	if d.err != nil {
		return nil, d.err
	}
	return d.result, nil
}

func predictions(preds ...detection.Prediction) *detection.Result {
	return &detection.Result{Predictions: preds}
}

func pred(label string, x1, y1, x2, y2 float64) detection.Prediction {
	return detection.Prediction{
		Label:      label,
		Confidence: 0.9,
		Box:        detection.Box{X1: x1, Y1: y1, X2: x2, Y2: y2},
	}
}

func region(label string, x1, y1, x2, y2 int) Region {
	return Region{Label: label, Confidence: 0.9, Box: image.Rect(x1, y1, x2, y2)}
}

func whiteImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func testRules() []ClassRule {
	return []ClassRule{
		{Class: "Button", Strategy: PlainOCR},
		{Class: "Label", Strategy: PlainOCR},
		{Class: "Spinner", Strategy: Ignore},
		{Class: "TableView", Strategy: NestedDetect, Nested: "table"},
		{Class: "TreeView", Strategy: NestedDetect, Nested: "tree"},
		{Class: "Cell", Strategy: PlainOCR},
		{Class: "TreeItem", Strategy: PlainOCR},
	}
}

func testSpecs() map[string]NestedSpec {
	return map[string]NestedSpec{
		"table": {Detector: "table", Classes: []string{"Cell"}, MaxDepth: 2, Layout: LayoutTable},
		"tree":  {Detector: "tree", Classes: []string{"TreeItem"}, MaxDepth: 2, Layout: LayoutTree},
	}
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	router, err := NewRouter(testRules(), testSpecs())
	require.NoError(t, err)
	return router
}

type registryEntry struct {
	name string
	det  detection.Detector
}

func newTestRegistry(entries ...registryEntry) *detection.Registry {
	reg := detection.NewRegistry()
	for _, e := range entries {
		reg.Register(e.name, e.det)
	}
	return reg
}

func newTestAssembler(t *testing.T, rec Recognizer, detectors DetectorSource, mutate ...func(*Options)) *Assembler {
	t.Helper()
	opts := Options{
		Router:     newTestRouter(t),
		Recognizer: rec,
		Detectors:  detectors,
		Workers:    4,
		MaxDepth:   3,
	}
	for _, m := range mutate {
		m(&opts)
	}
	a, err := NewAssembler(opts)
	require.NoError(t, err)
	return a
}

// newRouterWith builds the test router after mutate has edited the nested
// specs.
func newRouterWith(t *testing.T, mutate func(map[string]NestedSpec)) *Router {
	t.Helper()
	specs := testSpecs()
	mutate(specs)
	router, err := NewRouter(testRules(), specs)
	require.NoError(t, err)
	return router
}
