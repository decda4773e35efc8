package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLimited_Disabled(t *testing.T) {
	e := EngineFunc(func(ctx context.Context, data []byte) ([]string, error) {
		return nil, nil
	})

	_, ok := NewLimited(e, 0).(*Limited)
	assert.False(t, ok, "zero rate should return the engine unwrapped")
}

func TestLimited_PassesThrough(t *testing.T) {
	calls := 0
	e := EngineFunc(func(ctx context.Context, data []byte) ([]string, error) {
		calls++
		return []string{string(data)}, nil
	})

	limited := NewLimited(e, 5)
	got, err := limited.Recognize(context.Background(), []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)
	assert.Equal(t, 1, calls)
}

func TestLimited_CanceledContext(t *testing.T) {
	calls := 0
	e := EngineFunc(func(ctx context.Context, data []byte) ([]string, error) {
		calls++
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLimited(e, 1).Recognize(ctx, nil)
	assert.Error(t, err)
	assert.Zero(t, calls, "engine should not be called")
}
