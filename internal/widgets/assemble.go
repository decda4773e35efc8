package widgets

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/widget-inventory-mcp/internal/imaging"
)

const (
	// DefaultWorkers bounds the regions of one image extracted at once.
	DefaultWorkers = 4

	// DefaultMaxDepth is the nesting budget of a top-level pass.
	DefaultMaxDepth = 3
)

// Options configure an Assembler.
type Options struct {
	// Router is required.
	Router *Router

	// Recognizer is required.
	Recognizer Recognizer

	// Detectors resolves sub-detector names for nested passes. Without it
	// every container gets an empty nested result.
	Detectors DetectorSource

	Workers       int
	MaxDepth      int
	OCRTimeout    time.Duration
	NestedTimeout time.Duration
	Encoding      imaging.Format
	Logger        *slog.Logger
}

// Assembler turns normalized regions into elements. It holds no per-call
// state; one Assembler may serve any number of concurrent calls.
type Assembler struct {
	router        *Router
	text          *TextExtractor
	detectors     DetectorSource
	workers       int
	maxDepth      int
	nestedTimeout time.Duration
	logger        *slog.Logger
}

// NewAssembler validates opts and fills in defaults.
func NewAssembler(opts Options) (*Assembler, error) {
	if opts.Router == nil {
		return nil, errors.New("router is required")
	}
	if opts.Recognizer == nil {
		return nil, errors.New("recognizer is required")
	}

	a := &Assembler{
		router: opts.Router,
		text: &TextExtractor{
			Recognizer: opts.Recognizer,
			Format:     opts.Encoding,
			Timeout:    opts.OCRTimeout,
		},
		detectors:     opts.Detectors,
		workers:       opts.Workers,
		maxDepth:      opts.MaxDepth,
		nestedTimeout: opts.NestedTimeout,
		logger:        opts.Logger,
	}

	if a.workers <= 0 {
		a.workers = DefaultWorkers
	}
	if a.maxDepth <= 0 {
		a.maxDepth = DefaultMaxDepth
	}
	if a.text.Format == "" {
		a.text.Format = imaging.FormatPNG
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a, nil
}

// Router returns the routing table.
func (a *Assembler) Router() *Router {
	return a.router
}

// Text returns the plain-OCR extractor.
func (a *Assembler) Text() *TextExtractor {
	return a.text
}

// Assemble builds one element per region, in region order.
//
// Every region is routed before any extraction starts, so an unknown class
// fails the image without calling a collaborator. Per-region failures are
// recovered into empty content and counted in Stats. If ctx ends, no further
// region is started, running ones finish and ctx.Err() is returned.
func (a *Assembler) Assemble(ctx context.Context, regions []Region, img image.Image) (*Collection, error) {
	return a.assemble(ctx, regions, img, a.maxDepth)
}

func (a *Assembler) assemble(ctx context.Context, regions []Region, img image.Image, depth int) (*Collection, error) {
	routes := make([]Route, len(regions))
	for i, r := range regions {
		route, err := a.router.Route(r.Label)
		if err != nil {
			return nil, err
		}
		routes[i] = route
	}

	elements := make([]Element, len(regions))
	stats := make([]Stats, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range regions {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			el, st, err := a.element(gctx, img, i, regions[i], routes[i], depth)
			if err != nil {
				return err
			}
			elements[i] = el
			stats[i] = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	coll := &Collection{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Elements: elements,
	}
	for _, st := range stats {
		coll.Stats.add(st)
	}
	return coll, nil
}

// element extracts the content of one region. Only structural errors and
// cancellation are returned; everything else is recovered.
func (a *Assembler) element(ctx context.Context, img image.Image, i int, r Region, route Route, depth int) (Element, Stats, error) {
	var st Stats
	el := newElement(r.Label, a.router.Index(r.Label), r.Box)

	switch route.Strategy {
	case Ignore:
		el.Content = TextContent("")

	case PlainOCR:
		text, err := a.text.Extract(ctx, img, r.Box)
		if err != nil {
			if ctx.Err() != nil {
				return Element{}, st, ctx.Err()
			}
			a.recovered(&st, i, r, err)
		}
		el.Content = TextContent(text)

	case NestedDetect:
		nested, nst, err := a.extractNested(ctx, img, r.Label, r.Box, route.Nested, depth)
		if err != nil {
			var nerr *NestedExtractionError
			if !errors.As(err, &nerr) {
				return Element{}, st, err
			}
			if ctx.Err() != nil {
				return Element{}, st, ctx.Err()
			}
			a.recovered(&st, i, r, err)
			nested = EmptyNested(route.Nested.layout())
		}
		st.add(nst)
		el.Content = NestedContent(nested)

	default:
		return Element{}, st, fmt.Errorf("class %q: invalid strategy %v", r.Label, route.Strategy)
	}

	return el, st, nil
}

func (a *Assembler) recovered(st *Stats, i int, r Region, err error) {
	var ocrErr *OCRError
	switch {
	case errors.Is(err, ErrEmptyRegion):
		st.EmptyRegions++
	case errors.As(err, &ocrErr):
		st.OCRFailures++
	default:
		st.NestedFailures++
	}

	a.logger.Warn("region extraction failed",
		"class", r.Label,
		"index", i,
		"box", r.Box.String(),
		"err", err)
}
