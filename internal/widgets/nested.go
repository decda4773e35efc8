package widgets

import (
	"context"
	"errors"
	"image"

	"github.com/ironsheep/widget-inventory-mcp/internal/detection"
	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

// DetectorSource resolves sub-detectors by name. detection.Registry
// implements it.
type DetectorSource interface {
	Lookup(name string) (detection.Detector, error)
}

// ExtractNested runs the nested pass of spec on box.
//
// The budget is min(depth, spec.MaxDepth). With no budget left the result is
// empty and the error wraps ErrDepthExhausted. Otherwise the crop is handed
// to the sub-detector, its boxes are normalized against the crop and the
// regions are assembled with one less level of budget. Recovered failures
// inside the pass are returned in Stats.
//
// Recoverable failures come back as *NestedExtractionError together with an
// empty result. Any other error (an unknown class in the nested pass, a
// canceled ctx) is structural and must be propagated.
func (a *Assembler) ExtractNested(ctx context.Context, img image.Image, box image.Rectangle, spec *NestedSpec, depth int) (*NestedResult, Stats, error) {
	return a.extractNested(ctx, img, spec.Name, box, spec, depth)
}

func (a *Assembler) extractNested(ctx context.Context, img image.Image, class string, box image.Rectangle, spec *NestedSpec, depth int) (*NestedResult, Stats, error) {
	kind := spec.layout()
	fail := func(err error) (*NestedResult, Stats, error) {
		return EmptyNested(kind), Stats{}, &NestedExtractionError{Class: class, Err: err}
	}

	budget := depth
	if spec.MaxDepth < budget {
		budget = spec.MaxDepth
	}
	if budget <= 0 {
		return fail(ErrDepthExhausted)
	}

	clamped, err := imaging.ClampRegion(img, box)
	if err != nil {
		return fail(err)
	}
	crop, err := imaging.CropRegion(img, clamped)
	if err != nil {
		return fail(err)
	}

	if a.detectors == nil {
		return fail(errors.New("no sub-detectors configured"))
	}
	det, err := a.detectors.Lookup(spec.Detector)
	if err != nil {
		return fail(err)
	}

	dctx := ctx
	if a.nestedTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, a.nestedTimeout)
		defer cancel()
	}

	res, err := det.Detect(dctx, crop, spec.Detect)
	if err != nil {
		if ctx.Err() != nil {
			return nil, Stats{}, ctx.Err()
		}
		return fail(err)
	}

	regions := NormalizeResult(res, crop.Bounds())
	coll, err := a.assemble(ctx, regions, crop, budget-1)
	if err != nil {
		return nil, Stats{}, err
	}

	out := &NestedResult{Kind: kind, Elements: coll.Elements}
	if out.IsEmpty() {
		a.logger.Debug("nested pass found nothing", "class", class, "detector", spec.Detector)
	}
	shape(out, spec)

	if spec.Global {
		out.translate(clamped.Min)
		out.Global = true
	}

	return out, coll.Stats, nil
}
