package widgets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
)

// Pipeline runs detection, normalization and assembly for whole images.
type Pipeline struct {
	detector  detection.Detector
	assembler *Assembler
	logger    *slog.Logger
}

// NewPipeline creates a pipeline around the top-level detector. detector
// may be nil when every call goes through WithDetector.
func NewPipeline(detector detection.Detector, opts Options) (*Pipeline, error) {
	a, err := NewAssembler(opts)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		detector:  detector,
		assembler: a,
		logger:    a.logger,
	}, nil
}

// WithDetector returns a copy of p that uses d as its top-level detector.
func (p *Pipeline) WithDetector(d detection.Detector) *Pipeline {
	cp := *p
	cp.detector = d
	return &cp
}

// Assembler returns the pipeline's assembler.
func (p *Pipeline) Assembler() *Assembler {
	return p.assembler
}

// ProcessImage detects the widgets of img and assembles their inventory.
//
// It returns either a complete collection or an error for the whole image:
// a detector failure, an unknown class or ctx ending.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, cfg detection.Config) (*Collection, error) {
	if p.detector == nil {
		return nil, errors.New("no detector configured")
	}

	res, err := p.detector.Detect(ctx, img, cfg)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	regions := NormalizeResult(res, img.Bounds())

	coll, err := p.assembler.Assemble(ctx, regions, img)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("image processed",
		"regions", len(regions),
		"empty_regions", coll.Stats.EmptyRegions,
		"ocr_failures", coll.Stats.OCRFailures,
		"nested_failures", coll.Stats.NestedFailures)

	return coll, nil
}
