package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
	"github.com/ironsheep/widget-inventory-mcp/internal/ocr"
	"github.com/ironsheep/widget-inventory-mcp/internal/widgets"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	router, err := cfg.Router()
	require.NoError(t, err)

	tests := []struct {
		class    string
		strategy widgets.Strategy
		nested   string
	}{
		{"Button", widgets.PlainOCR, ""},
		{"Label", widgets.PlainOCR, ""},
		{"Spinner", widgets.Ignore, ""},
		{"Toolbar", widgets.Ignore, ""},
		{"ToolButton", widgets.Ignore, ""},
		{"TextArea", widgets.Ignore, ""},
		{"TreeView", widgets.NestedDetect, "tree"},
		{"TableView", widgets.NestedDetect, "table"},
		{"Cell", widgets.PlainOCR, ""},
		{"TreeItem", widgets.PlainOCR, ""},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			route, err := router.Route(tt.class)
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, route.Strategy)
			if tt.nested != "" {
				require.NotNil(t, route.Nested)
				assert.Equal(t, tt.nested, route.Nested.Name)
			}
		})
	}

	assert.Equal(t, router.Classes(), cfg.ClassNames())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WIDGET_TEST_OCR_TOKEN", "s3cret")

	path := writeConfig(t, `
pipeline:
  workers: 8
  ocr_timeout: 5s
  encoding: jpeg
ocr:
  engine: remote
  token: ${WIDGET_TEST_OCR_TOKEN}
  limit: 2
nested:
  table:
    detector: grid
    classes: [Cell]
    max_depth: 2
    layout: table
    global: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 3, cfg.Pipeline.MaxDepth, "unset fields keep their defaults")
	assert.Equal(t, 5*time.Second, cfg.Pipeline.OCRTimeout)
	assert.Equal(t, "s3cret", cfg.OCR.Token)
	require.NotNil(t, cfg.OCR.Limit)
	assert.Equal(t, 2, *cfg.OCR.Limit)

	assert.True(t, cfg.Nested["table"].Global)
	assert.Contains(t, cfg.Nested, "tree", "maps merge with the defaults")

	engine, err := cfg.Recognizer()
	require.NoError(t, err)
	assert.IsType(t, &ocr.Limited{}, engine)

	opts, err := cfg.Options(slog.Default())
	require.NoError(t, err)
	assert.Equal(t, imaging.FormatJPEG, opts.Encoding)
	assert.Equal(t, 8, opts.Workers)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "pipeline:\n  threads: 4\n"},
		{"negative workers", "pipeline:\n  workers: -1\n"},
		{"bad encoding", "pipeline:\n  encoding: gif\n"},
		{"bad detector type", "detector:\n  type: yolo\n"},
		{"remote without url", "detector:\n  type: remote\n"},
		{"confidence range", "detector:\n  confidence: 1.5\n"},
		{"bad ocr engine", "ocr:\n  engine: paddle\n"},
		{"ocr confidence range", "ocr:\n  min_confidence: 60\n"},
		{"bad sub-detector", "detectors:\n  grid:\n    type: hough\n"},
		{"unknown sub-detector", "nested:\n  table:\n    detector: missing\n    classes: [Cell]\n    max_depth: 1\n"},
		{"bad strategy", "classes:\n  - name: Button\n    strategy: translate\n"},
		{"unknown nested spec", "classes:\n  - name: TableView\n    strategy: nested\n    nested: grid\n"},
		{"cycle", `
classes:
  - name: TableView
    strategy: nested
    nested: table
nested:
  table:
    detector: grid
    classes: [TableView]
    max_depth: 2
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecognizer_MinConfidence(t *testing.T) {
	path := writeConfig(t, "ocr:\n  min_confidence: 0.6\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	engine, err := cfg.Recognizer()
	require.NoError(t, err)
	require.IsType(t, &ocr.Tesseract{}, engine)
	assert.Equal(t, 0.6, engine.(*ocr.Tesseract).MinConfidence)
}

func TestRegistry(t *testing.T) {
	cfg := Default()
	cfg.Detectors["remote"] = SubDetectorConfig{Type: "remote", URL: "http://localhost:9000/detect"}

	registry, err := cfg.Registry()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"grid", "rows", "remote"}, registry.Names())

	d, err := registry.Lookup("grid")
	require.NoError(t, err)
	assert.IsType(t, &detection.Grid{}, d)
}

func TestTopDetector(t *testing.T) {
	cfg := Default()

	_, err := cfg.TopDetector("")
	assert.Error(t, err, "label files need a path")

	d, err := cfg.TopDetector("shot.txt")
	require.NoError(t, err)
	assert.IsType(t, &detection.LabelFile{}, d)

	cfg.Detector.Type = "remote"
	cfg.Detector.URL = "http://localhost:9000/detect"
	d, err = cfg.TopDetector("")
	require.NoError(t, err)
	assert.IsType(t, &detection.Remote{}, d)

	assert.Equal(t, detection.Config{Confidence: 0.25, IoU: 0.45}, cfg.DetectConfig())
}

func TestClassNames_Override(t *testing.T) {
	cfg := Default()
	cfg.Detector.Classes = []string{"Label", "Button"}

	assert.Equal(t, []string{"Label", "Button"}, cfg.ClassNames())
}
