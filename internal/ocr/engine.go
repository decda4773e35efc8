package ocr

import (
	"context"

	"golang.org/x/time/rate"
)

// Engine recognizes the text in one encoded image (PNG or JPEG).
//
// Recognize returns text fragments in reading order. An image without text
// yields an empty slice and no error.
type Engine interface {
	Recognize(ctx context.Context, data []byte) ([]string, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, data []byte) ([]string, error)

func (f EngineFunc) Recognize(ctx context.Context, data []byte) ([]string, error) {
	return f(ctx, data)
}

// Limited wraps an engine with a request rate limit. Cloud OCR services bill
// and throttle per call.
type Limited struct {
	limiter *rate.Limiter
	engine  Engine
}

// NewLimited wraps e so that it is called at most perSecond times per second.
// A non-positive rate returns e unchanged.
func NewLimited(e Engine, perSecond int) Engine {
	if perSecond <= 0 {
		return e
	}
	return &Limited{
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		engine:  e,
	}
}

func (l *Limited) Recognize(ctx context.Context, data []byte) ([]string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.engine.Recognize(ctx, data)
}
