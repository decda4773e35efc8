package detection

import (
	"context"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRows_IndentedItems(t *testing.T) {
	img := createTestImage(100, 60, color.White)
	fillRect(img, 10, 10, 80, 20)
	fillRect(img, 26, 30, 90, 40)

	res, err := NewRows(0).Detect(context.Background(), img, Config{})
	require.NoError(t, err)

	want := []Box{
		{X1: 9, Y1: 9, X2: 80, Y2: 20},
		{X1: 25, Y1: 29, X2: 90, Y2: 40},
	}
	require.Len(t, res.Predictions, len(want))
	for i, p := range res.Predictions {
		assert.Equal(t, TreeItemLabel, p.Label, "row %d", i)
		assert.Equal(t, want[i], p.Box, "row %d", i)
		assert.Greater(t, p.Confidence, 0.0, "row %d", i)
		assert.LessOrEqual(t, p.Confidence, 1.0, "row %d", i)
	}
}

func TestRows_IgnoresFrame(t *testing.T) {
	img := createTableImage(100, 60, []int{1, 98}, []int{1, 58})
	fillRect(img, 20, 20, 60, 30)

	res, err := NewRows(0).Detect(context.Background(), img, Config{})
	require.NoError(t, err)

	require.Len(t, res.Predictions, 1)
	b := res.Predictions[0].Box
	assert.Equal(t, 19.0, b.X1)
	assert.Equal(t, 60.0, b.X2)
}

func TestRows_MinRow(t *testing.T) {
	img := createTestImage(100, 40, color.White)
	fillRect(img, 10, 10, 50, 11)

	res, err := NewRows(6).Detect(context.Background(), img, Config{})
	require.NoError(t, err)
	assert.Empty(t, res.Predictions, "thin band should be dropped")
}
