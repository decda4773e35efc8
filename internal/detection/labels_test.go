package detection

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNames = []string{"Button", "Label", "TableView"}

func TestParseLabels(t *testing.T) {
	input := `# detector output
1 0.5 0.5 0.2 0.1

0 0.25 0.25 0.1 0.1 0.4
`
	preds, err := ParseLabels(strings.NewReader(input), testNames, 200, 100)
	require.NoError(t, err)
	require.Len(t, preds, 2)

	tests := []struct {
		label string
		conf  float64
		box   Box
	}{
		{"Label", 1, Box{X1: 80, Y1: 45, X2: 120, Y2: 55}},
		{"Button", 0.4, Box{X1: 40, Y1: 20, X2: 60, Y2: 30}},
	}

	for i, tt := range tests {
		p := preds[i]
		assert.Equal(t, tt.label, p.Label, "[%d]", i)
		assert.InDelta(t, tt.conf, p.Confidence, 1e-9, "[%d]", i)
		assertBoxNear(t, tt.box, p.Box)
	}
}

func TestParseLabels_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few fields", "0 0.5 0.5 0.1"},
		{"too many fields", "0 0.5 0.5 0.1 0.1 0.9 7"},
		{"bad class", "x 0.5 0.5 0.1 0.1"},
		{"class out of range", "3 0.5 0.5 0.1 0.1"},
		{"negative class", "-1 0.5 0.5 0.1 0.1"},
		{"bad number", "0 0.5 abc 0.1 0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabels(strings.NewReader(tt.input), testNames, 100, 100)
			assert.Error(t, err)
		})
	}
}

func TestFormatLabel_RoundTrip(t *testing.T) {
	line := FormatLabel(2, 100, 100, 200, 100, 400, 200)

	preds, err := ParseLabels(strings.NewReader(line), testNames, 400, 200)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "TableView", preds[0].Label)
	assertBoxNear(t, Box{X1: 0, Y1: 50, X2: 200, Y2: 150}, preds[0].Box)
}

func TestLabelFile_Detect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.txt")
	content := "1 0.5 0.5 0.2 0.1 0.9\n0 0.25 0.25 0.1 0.1 0.2\n2 0.5 0.75 0.5 0.2 0.8\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	img := createTestImage(200, 100, color.White)
	d := NewLabelFile(path, testNames)

	res, err := d.Detect(context.Background(), img, Config{Confidence: 0.5})
	require.NoError(t, err)
	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "Label", res.Predictions[0].Label)
	assert.Equal(t, "TableView", res.Predictions[1].Label)
}

func TestLabelFile_MissingFile(t *testing.T) {
	d := NewLabelFile("/nonexistent/labels.txt", testNames)

	_, err := d.Detect(context.Background(), createTestImage(10, 10, color.White), Config{})
	assert.Error(t, err)
}

func assertBoxNear(t *testing.T, want, got Box) {
	t.Helper()
	const eps = 1e-6
	assert.InDelta(t, want.X1, got.X1, eps, "X1")
	assert.InDelta(t, want.Y1, got.Y1, eps, "Y1")
	assert.InDelta(t, want.X2, got.X2, eps, "X2")
	assert.InDelta(t, want.Y2, got.Y2, eps, "Y2")
}
