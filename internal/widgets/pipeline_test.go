package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
)

func newTestPipeline(t *testing.T, det detection.Detector, rec Recognizer, detectors DetectorSource) *Pipeline {
	t.Helper()
	p, err := NewPipeline(det, Options{
		Router:     newTestRouter(t),
		Recognizer: rec,
		Detectors:  detectors,
	})
	require.NoError(t, err)
	return p
}

func TestPipeline_EndToEnd(t *testing.T) {
	top := &staticDetector{result: predictions(
		pred("Label", 10, 10, 110, 40),
		pred("TableView", 0, 50, 200, 150),
	)}
	table := &staticDetector{result: predictions()}
	rec := &sizeRecognizer{texts: map[string][]string{"100x30": {"Submit"}}}

	p := newTestPipeline(t, top, rec, newTestRegistry(registryEntry{"table", table}))

	coll, err := p.ProcessImage(context.Background(), whiteImage(300, 200), detection.Config{})
	require.NoError(t, err)
	require.Len(t, coll.Elements, 2)

	label := coll.Elements[0]
	assert.Equal(t, "Label", label.Class)
	assert.Equal(t, Point{X: 60, Y: 25}, label.Center)
	assert.Equal(t, Size{W: 100, H: 30}, label.Size)
	assert.Equal(t, "Submit", label.Content.Text)

	tv := coll.Elements[1]
	assert.Equal(t, "TableView", tv.Class)
	assert.Equal(t, Point{X: 100, Y: 100}, tv.Center)
	assert.Equal(t, Size{W: 200, H: 100}, tv.Size)
	require.True(t, tv.Content.IsNested())
	assert.True(t, tv.Content.Nested.IsEmpty())

	assert.Equal(t, Stats{}, coll.Stats)
	assert.Equal(t, int32(1), table.calls.Load())

	data, err := json.Marshal(coll.Records())
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"class":"Label","classIndex":1,"x":60,"y":25,"w":100,"h":30,"content":"Submit"},
		{"class":"TableView","classIndex":3,"x":100,"y":100,"w":200,"h":100,"content":{"kind":"table","elements":[]}}
	]`, string(data))
}

func TestPipeline_LetterboxedDetector(t *testing.T) {
	// 1280x720 letterboxed into 640x640: gain 0.5, 140px of padding on top.
	res := predictions(pred("Label", 5, 145, 55, 160))
	res.InputWidth, res.InputHeight = 640, 640
	top := &staticDetector{result: res}
	rec := &sizeRecognizer{texts: map[string][]string{"100x30": {"Submit"}}}

	p := newTestPipeline(t, top, rec, nil)

	coll, err := p.ProcessImage(context.Background(), whiteImage(1280, 720), detection.Config{})
	require.NoError(t, err)

	el := coll.Elements[0]
	assert.Equal(t, image.Rect(10, 10, 110, 40), el.Box)
	assert.Equal(t, Point{X: 60, Y: 25}, el.Center)
	assert.Equal(t, "Submit", el.Content.Text)
}

func TestPipeline_DetectorFailure(t *testing.T) {
	errModel := errors.New("model not loaded")
	rec := &sizeRecognizer{}
	p := newTestPipeline(t, &staticDetector{err: errModel}, rec, nil)

	coll, err := p.ProcessImage(context.Background(), whiteImage(10, 10), detection.Config{})

	assert.Nil(t, coll)
	assert.ErrorIs(t, err, errModel)
	assert.True(t, strings.HasPrefix(err.Error(), "detect: "))
	assert.Zero(t, rec.calls.Load())
}

func TestPipeline_UnknownClass(t *testing.T) {
	p := newTestPipeline(t, &staticDetector{result: predictions(pred("Slider", 0, 0, 5, 5))}, &sizeRecognizer{}, nil)

	_, err := p.ProcessImage(context.Background(), whiteImage(10, 10), detection.Config{})

	assert.True(t, IsUnknownClass(err))
}

func TestPipeline_WithDetector(t *testing.T) {
	p := newTestPipeline(t, nil, &sizeRecognizer{}, nil)

	_, err := p.ProcessImage(context.Background(), whiteImage(10, 10), detection.Config{})
	assert.Error(t, err, "no detector configured")

	bound := p.WithDetector(&staticDetector{result: predictions(pred("Spinner", 0, 0, 5, 5))})
	coll, err := bound.ProcessImage(context.Background(), whiteImage(10, 10), detection.Config{})
	require.NoError(t, err)
	assert.Len(t, coll.Elements, 1)
	assert.Same(t, p.Assembler(), bound.Assembler())

	_, err = p.ProcessImage(context.Background(), whiteImage(10, 10), detection.Config{})
	assert.Error(t, err, "original pipeline keeps its detector")
}

func TestPipeline_NestedAnnotations(t *testing.T) {
	top := &staticDetector{result: predictions(
		pred("Button", 0, 0, 40, 20),
		pred("TableView", 0, 50, 200, 150),
	)}
	table := &staticDetector{result: predictions(pred("Cell", 0, 0, 100, 50), pred("Cell", 100, 0, 200, 50))}
	p := newTestPipeline(t, top, &sizeRecognizer{}, newTestRegistry(registryEntry{"table", table}))

	coll, err := p.ProcessImage(context.Background(), whiteImage(300, 200), detection.Config{})
	require.NoError(t, err)

	anns := coll.Annotations()
	require.Len(t, anns, 4)
	assert.Equal(t, "Cell", anns[2].Label)
	assert.Equal(t, image.Rect(0, 50, 100, 100), anns[2].Box)
	assert.Equal(t, image.Rect(100, 50, 200, 100), anns[3].Box)
	assert.Equal(t, 5, anns[3].ClassIndex)
}
